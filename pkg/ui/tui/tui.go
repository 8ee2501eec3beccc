package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"followgraph/pkg/collector"
	"followgraph/pkg/ratelimit"
)

// TUI runs the interactive collect view. It implements ui.Reporter, so the
// collector's callbacks can be forwarded from any goroutine.
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates the view for a run from seed to maxDepth
func NewTUI(seed string, maxDepth int, opts ...tea.ProgramOption) *TUI {
	model := NewModel(seed, maxDepth)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &TUI{
		program: tea.NewProgram(model, opts...),
		model:   model,
	}
}

// Start runs the program until the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Progress forwards one expansion
func (t *TUI) Progress(p collector.Progress) {
	t.Send(ProgressMsg(p))
}

// RateLimitWait forwards the start of a rate-limit sleep
func (t *TUI) RateLimitWait(ev ratelimit.WaitEvent) {
	t.Send(WaitMsg(ev))
}

// Quota forwards the governor's bookkeeping
func (t *TUI) Quota(state ratelimit.State) {
	t.Send(QuotaMsg(state))
}

// Done reports the end of the run
func (t *TUI) Done(err error) {
	t.Send(DoneMsg{Err: err})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogSuccess logs a success message
func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}
