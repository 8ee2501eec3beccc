package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"followgraph/pkg/collector"
	"followgraph/pkg/ratelimit"
)

// snapshot is a lock-free copy of what the view renders
type snapshot struct {
	seed     string
	maxDepth int
	elapsed  time.Duration
	done     bool
	runErr   error
	expanded int
	denied   int
	nodes    int
	edges    int
	pending  int
	fetches  int
	current  collector.Progress
	depth    float64
	recent   []Visit
	quota    ratelimit.State
	window   float64
	waitLeft time.Duration
	waits    int
	waited   time.Duration
	logs     []LogMessage
}

func (m *Model) snapshot(now time.Time) snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := snapshot{
		seed:     m.seed,
		maxDepth: m.maxDepth,
		elapsed:  now.Sub(m.startTime),
		done:     m.done,
		runErr:   m.runErr,
		expanded: m.expanded,
		denied:   m.denied,
		nodes:    m.nodes,
		edges:    m.edges,
		pending:  m.pending,
		fetches:  m.fetches,
		current:  m.current,
		depth:    m.depthFraction(),
		recent:   append([]Visit(nil), m.recent...),
		quota:    m.quota,
		window:   m.windowFraction(),
		waits:    m.waits,
		waited:   m.waited,
		logs:     append([]LogMessage(nil), m.logMessages...),
	}
	if !m.waitingUntil.IsZero() && m.waitingUntil.After(now) {
		s.waitLeft = m.waitingUntil.Sub(now)
	}
	return s
}

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	s := m.snapshot(time.Now())
	width := (m.width - 4) / 2

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(s, width),
		m.renderCurrentPanel(s, width),
		m.renderRecentPanel(s, width),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRateLimitPanel(s, width),
		m.renderLogsPanel(s, width),
	)

	sections := []string{
		logoStyle.Width(m.width).Render(logo),
		lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right),
	}
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

const logo = `
 ╔═╗┌─┐┬  ┬  ┌─┐┬ ┬  ╔═╗┬─┐┌─┐┌─┐┬ ┬
 ╠╣ │ ││  │  │ ││││  ║ ╦├┬┘├─┤├─┘├─┤
 ╚  └─┘┴─┘┴─┘└─┘└┴┘  ╚═╝┴└─┴ ┴┴  ┴ ┴`

func stat(label, value string) string {
	return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
}

func (m *Model) renderStatsPanel(s snapshot, width int) string {
	title := titleStyle.Render(" TRAVERSAL ")

	status := m.spinner.View() + " collecting"
	switch {
	case s.done && s.runErr != nil:
		status = errorStyle.Render("✗ aborted")
	case s.done:
		status = successStyle.Render("✓ complete")
	case s.waitLeft > 0:
		status = warningStyle.Render("⏳ waiting for rate limit")
	}

	rate := 0.0
	if minutes := s.elapsed.Minutes(); minutes > 0 {
		rate = float64(s.expanded) / minutes
	}

	lines := []string{
		status,
		stat("Seed:", s.seed),
		stat("Elapsed:", formatDuration(s.elapsed)),
		stat("Expanded:", fmt.Sprintf("%d accounts (%.1f/min)", s.expanded, rate)),
		stat("Restricted:", fmt.Sprintf("%d", s.denied)),
		stat("Graph:", fmt.Sprintf("%d nodes, %d edges", s.nodes, s.edges)),
		stat("Pending:", fmt.Sprintf("%d", s.pending)),
		stat("Requests:", fmt.Sprintf("%d", s.fetches)),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

func (m *Model) renderCurrentPanel(s snapshot, width int) string {
	title := titleStyle.Render(" CURRENT ")

	if !s.current.Account.IsValid() {
		content := mutedStyle.Render("Waiting for the first account...")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	bar := m.depthBar
	bar.Width = max(width-12, 10)
	level := s.maxDepth - s.current.Depth + 1

	lines := []string{
		accountStyle.Render(s.current.Account.String()),
		stat("Level:", fmt.Sprintf("%d of %d", level, s.maxDepth)),
		bar.ViewAs(s.depth),
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

func (m *Model) renderRecentPanel(s snapshot, width int) string {
	title := titleStyle.Render(" RECENT ")

	if len(s.recent) == 0 {
		content := mutedStyle.Render("Nothing expanded yet")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	var items []string
	for i := len(s.recent) - 1; i >= 0; i-- {
		v := s.recent[i]
		if v.Denied {
			items = append(items, deniedItemStyle.Render(fmt.Sprintf("⊘ %s  restricted", v.Account)))
			continue
		}
		items = append(items, visitItemStyle.Render(fmt.Sprintf("✓ %s  %d found  %s",
			v.Account, v.Found, v.Took.Round(time.Millisecond))))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(items, "\n")),
	)
}

func (m *Model) renderRateLimitPanel(s snapshot, width int) string {
	title := titleStyle.Render(" RATE LIMIT ")

	var lines []string
	if s.quota.Known {
		bar := m.windowBar
		bar.Width = max(width-12, 10)
		lines = append(lines,
			stat("Remaining:", BudgetStyle(s.window).Render(fmt.Sprintf("%d", s.quota.Remaining))),
			bar.ViewAs(s.window),
		)
		resetIn := time.Until(s.quota.ResetAt)
		if resetIn < 0 {
			resetIn = 0
		}
		lines = append(lines, stat("Window resets in:", formatDuration(resetIn)))
	} else {
		lines = append(lines, mutedStyle.Render("Window not probed yet"))
	}

	if s.waitLeft > 0 {
		lines = append(lines, warningStyle.Render("Sleeping: "+formatDuration(s.waitLeft)))
	}
	if s.waits > 0 {
		lines = append(lines, stat("Waited:", fmt.Sprintf("%s over %d windows", formatDuration(s.waited), s.waits)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

func (m *Model) renderLogsPanel(s snapshot, width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(s.logs) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	maxMsgLen := max(width-25, 10)
	for _, log := range s.logs[start:] {
		msg := log.Message
		if len(msg) > maxMsgLen {
			msg = msg[:maxMsgLen-3] + "..."
		}
		logs = append(logs, fmt.Sprintf("%s %s %s",
			logTimestampStyle.Render(log.Time.Format("15:04:05")),
			lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level)),
			logMessageStyle.Render(msg)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = mutedStyle.Render("No logs yet...")
	}

	logsHeight := max(m.height-30, 5)
	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Stop collecting and quit
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Status:
    ` + successStyle.Render("Green") + `    - Expanded account
    ` + warningStyle.Render("Orange") + `   - Restricted account or rate-limit sleep
    ` + errorStyle.Render("Red") + `      - Run aborted
`
	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration as a clock
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
