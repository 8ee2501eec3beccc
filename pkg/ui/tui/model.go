package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"followgraph/pkg/account"
	"followgraph/pkg/collector"
	"followgraph/pkg/ratelimit"
)

// Visit is one expanded account in the recent list
type Visit struct {
	Account account.Identifier
	Depth   int
	Found   int
	Denied  bool
	Took    time.Duration
}

// Model is the state behind the collect view
type Model struct {
	spinner   spinner.Model
	depthBar  progress.Model
	windowBar progress.Model

	// run
	seed      string
	maxDepth  int
	startTime time.Time
	done      bool
	runErr    error

	// traversal counters
	expanded  int
	denied    int
	nodes     int
	edges     int
	pending   int
	fetches   int
	current   collector.Progress
	recent    []Visit
	maxRecent int

	// rate limit
	quota        ratelimit.State
	windowSize   int
	waitingUntil time.Time
	waits        int
	waited       time.Duration

	// UI state
	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int

	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates the model for a run from seed to maxDepth
func NewModel(seed string, maxDepth int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	return &Model{
		spinner:        s,
		depthBar:       progress.New(progress.WithDefaultGradient()),
		windowBar:      progress.New(progress.WithSolidFill(string(colorOK))),
		seed:           seed,
		maxDepth:       maxDepth,
		startTime:      time.Now(),
		maxRecent:      8,
		windowSize:     15,
		logMessages:    []LogMessage{},
		maxLogMessages: 50,
	}
}

// Init starts the spinner and the refresh tick
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// RecordProgress applies one expansion
func (m *Model) RecordProgress(p collector.Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expanded++
	if p.Denied {
		m.denied++
	}
	m.nodes, m.edges, m.pending, m.fetches = p.Nodes, p.Edges, p.Pending, p.Fetches
	m.current = p
	m.waitingUntil = time.Time{}

	m.recent = append(m.recent, Visit{
		Account: p.Account,
		Depth:   p.Depth,
		Found:   p.Found,
		Denied:  p.Denied,
		Took:    p.Duration,
	})
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

// RecordWait starts the rate-limit countdown
func (m *Model) RecordWait(ev ratelimit.WaitEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.waitingUntil = ev.ResetAt
	m.waits++
	m.waited += ev.Delay
}

// UpdateQuota records the governor's latest bookkeeping. The largest
// remaining value seen stands in for the window size.
func (m *Model) UpdateQuota(state ratelimit.State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.quota = state
	if state.Remaining+1 > m.windowSize {
		m.windowSize = state.Remaining + 1
	}
}

// Finish marks the run as over
func (m *Model) Finish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.done = true
	m.runErr = err
	m.waitingUntil = time.Time{}
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	color := colorText
	switch level {
	case "ERROR":
		color = colorAlert
	case "WARN":
		color = colorWarn
	case "SUCCESS":
		color = colorOK
	case "INFO":
		color = colorAccent
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// RecentVisits returns the most recently expanded accounts, oldest first
func (m *Model) RecentVisits() []Visit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Visit, len(m.recent))
	copy(out, m.recent)
	return out
}

// WaitRemaining returns the time left in the current rate-limit sleep
func (m *Model) WaitRemaining(now time.Time) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.waitingUntil.IsZero() {
		return 0
	}
	if d := m.waitingUntil.Sub(now); d > 0 {
		return d
	}
	return 0
}

// ExpansionRate returns expanded accounts per minute
func (m *Model) ExpansionRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	elapsed := time.Since(m.startTime).Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(m.expanded) / elapsed
}

// depthFraction is how deep the current account sits, from 0 to 1
func (m *Model) depthFraction() float64 {
	if m.maxDepth <= 0 || !m.current.Account.IsValid() {
		return 0
	}
	level := float64(m.maxDepth-m.current.Depth+1) / float64(m.maxDepth)
	if level > 1 {
		return 1
	}
	return level
}

// windowFraction is the share of the rate-limit window still available
func (m *Model) windowFraction() float64 {
	if !m.quota.Known || m.windowSize == 0 {
		return 0
	}
	return float64(m.quota.Remaining) / float64(m.windowSize)
}
