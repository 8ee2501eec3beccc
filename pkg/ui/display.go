package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"followgraph/pkg/collector"
	"followgraph/pkg/ratelimit"
)

// LineDisplay renders progress as a single rewritten terminal line. In
// verbose mode every expanded account gets its own line instead.
type LineDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	seed    string
	tracker *StatusTracker
	verbose bool
}

// NewLineDisplay creates a display for a run from seed to maxDepth
func NewLineDisplay(out io.Writer, seed string, maxDepth int, verbose bool) *LineDisplay {
	return &LineDisplay{
		out:     out,
		seed:    seed,
		tracker: NewStatusTracker(maxDepth),
		verbose: verbose,
	}
}

// Tracker returns the counters behind the display
func (d *LineDisplay) Tracker() *StatusTracker {
	return d.tracker
}

// Progress records an expansion and redraws
func (d *LineDisplay) Progress(p collector.Progress) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tracker.Update(p)
	if !d.verbose {
		d.redraw()
		return
	}

	mark := Green("✓")
	detail := fmt.Sprintf("%d found", p.Found)
	if p.Denied {
		mark = Yellow("⊘")
		detail = "restricted"
	}
	fmt.Fprintf(d.out, "%s %s %s %s\n", mark, Cyan(p.Account.String()),
		Dim(fmt.Sprintf("depth %d", p.Depth)), Dim(detail))
}

// RateLimitWait reports a sleep until the window resets
func (d *LineDisplay) RateLimitWait(ev ratelimit.WaitEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tracker.RecordWait(ev.Delay)
	fmt.Fprintf(d.out, "\n%s Rate limit reached. Waiting %s (until %s)...\n",
		Yellow("⚠"), formatDuration(ev.Delay), ev.ResetAt.Format("15:04:05"))
}

// Quota is ignored in line mode
func (d *LineDisplay) Quota(state ratelimit.State) {}

// LogInfo prints an informational line
func (d *LineDisplay) LogInfo(format string, args ...interface{}) {
	d.println(Cyan("•"), fmt.Sprintf(format, args...))
}

// LogWarning prints a warning line
func (d *LineDisplay) LogWarning(format string, args ...interface{}) {
	d.println(Yellow("⚠"), fmt.Sprintf(format, args...))
}

// LogError prints an error line
func (d *LineDisplay) LogError(format string, args ...interface{}) {
	d.println(Red("✗"), fmt.Sprintf(format, args...))
}

// Done prints the run summary
func (d *LineDisplay) Done(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.tracker
	elapsed := st.GetElapsedTime()
	if err != nil {
		fmt.Fprintf(d.out, "\n\n%s Collection from %s failed after %s: %v\n",
			Red("✗"), d.seed, formatDuration(elapsed), err)
		return
	}

	fmt.Fprintf(d.out, "\n\n%s Collected %d nodes and %d edges around %s\n",
		Green("✓"), st.Nodes, st.Edges, d.seed)
	fmt.Fprintf(d.out, "  %s %d accounts expanded with %d requests in %s (%.1f/min)\n",
		Dim("•"), st.Expanded, st.Fetches, formatDuration(elapsed), st.GetExpansionRate())
	if st.Denied > 0 {
		fmt.Fprintf(d.out, "  %s %d accounts were restricted\n", Dim("•"), st.Denied)
	}
	if st.Waits > 0 {
		fmt.Fprintf(d.out, "  %s waited %s for %d rate-limit windows\n",
			Dim("•"), formatDuration(st.Waited), st.Waits)
	}
}

func (d *LineDisplay) println(mark, msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "\n%s %s\n", mark, msg)
}

func (d *LineDisplay) redraw() {
	line := fmt.Sprintf("%s %s", Cyan(d.seed), d.tracker.Line())
	if cur := d.tracker.Last.Account; cur.IsValid() {
		line += " • " + Dim(cur.String())
	}
	fmt.Fprintf(d.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
