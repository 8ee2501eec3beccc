package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"followgraph/pkg/collector"
	"followgraph/pkg/ratelimit"
)

// ProgressMsg carries one expanded account
type ProgressMsg collector.Progress

// WaitMsg is sent when the governor starts sleeping
type WaitMsg ratelimit.WaitEvent

// QuotaMsg carries the governor's bookkeeping after a request
type QuotaMsg ratelimit.State

// DoneMsg is sent when the run finishes
type DoneMsg struct {
	Err error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the countdown
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case ProgressMsg:
		p := collector.Progress(msg)
		m.RecordProgress(p)
		if p.Denied {
			m.AddLogMessage("WARN", "Restricted: "+p.Account.String())
		}
		return m, nil

	case WaitMsg:
		ev := ratelimit.WaitEvent(msg)
		m.RecordWait(ev)
		m.AddLogMessage("WARN", "Rate limit reached, waiting "+formatDuration(ev.Delay))
		return m, nil

	case QuotaMsg:
		m.UpdateQuota(ratelimit.State(msg))
		return m, nil

	case DoneMsg:
		m.Finish(msg.Err)
		if msg.Err != nil {
			m.AddLogMessage("ERROR", msg.Err.Error())
		} else {
			m.AddLogMessage("SUCCESS", "Collection complete, press q to exit")
		}
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = []LogMessage{}
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// tickCmd refreshes the view once a second for the countdown
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
