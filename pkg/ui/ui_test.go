package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"followgraph/pkg/account"
	"followgraph/pkg/collector"
	"followgraph/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	titles []string
	err    error
}

func (s *recordingSender) Send(title, message string) error {
	s.titles = append(s.titles, title)
	return s.err
}

func TestStatusTracker(t *testing.T) {
	st := NewStatusTracker(3)
	st.Update(collector.Progress{Account: account.ID(1), Depth: 3, Found: 2, Nodes: 1, Edges: 0, Pending: 2, Fetches: 1})
	st.Update(collector.Progress{Account: account.ID(2), Depth: 2, Denied: true, Nodes: 3, Edges: 2, Pending: 1, Fetches: 2})
	st.RecordWait(90 * time.Second)

	assert.Equal(t, 2, st.Expanded)
	assert.Equal(t, 1, st.Denied)
	assert.Equal(t, 2, st.Edges)
	assert.Equal(t, 1, st.Waits)
	assert.Equal(t, 90*time.Second, st.Waited)
	assert.Equal(t, "[██████░░░░] 2/3", st.GetDepthProgress())
	assert.Contains(t, st.Line(), "1 restricted")
	assert.Contains(t, st.Line(), "2 edges")
}

func TestStatusTrackerZeroDepth(t *testing.T) {
	st := NewStatusTracker(0)
	assert.Equal(t, "[░░░░░░░░░░]", st.GetDepthProgress())
}

func TestLineDisplayVerbose(t *testing.T) {
	var buf bytes.Buffer
	d := NewLineDisplay(&buf, "@jack", 2, true)

	d.Progress(collector.Progress{Account: account.ID(12), Depth: 2, Found: 5, Nodes: 1, Pending: 5, Fetches: 1})
	d.Progress(collector.Progress{Account: account.ID(99), Depth: 1, Denied: true, Nodes: 6, Edges: 5, Fetches: 2})
	d.RateLimitWait(ratelimit.WaitEvent{Delay: 3 * time.Minute, ResetAt: time.Now().Add(3 * time.Minute)})
	d.Done(nil)

	out := buf.String()
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "5 found")
	assert.Contains(t, out, "restricted")
	assert.Contains(t, out, "Waiting 3m0s")
	assert.Contains(t, out, "Collected 6 nodes and 5 edges around @jack")
	assert.Contains(t, out, "1 accounts were restricted")
	assert.Equal(t, 1, d.Tracker().Waits)
}

func TestLineDisplayFailure(t *testing.T) {
	var buf bytes.Buffer
	d := NewLineDisplay(&buf, "1", 1, false)
	d.Progress(collector.Progress{Account: account.ID(1), Depth: 1, Found: 1, Nodes: 1, Pending: 1, Fetches: 1})
	d.LogWarning("retrying %s", "page")
	d.Done(errors.New("connection reset"))

	out := buf.String()
	assert.Contains(t, out, "1 expanded")
	assert.Contains(t, out, "retrying page")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "connection reset")
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	sender := &recordingSender{err: errors.New("no display")}
	n := NewNotifierWithSender(&buf, sender)

	n.SendSuccess("Collection complete", "42 edges")
	n.SendError("Collection failed", "boom")
	n.SendNotification("Rate limit", "waiting 15m")

	require.Len(t, sender.titles, 3)
	assert.Equal(t, "Collection complete", sender.titles[0])
	assert.Contains(t, buf.String(), "42 edges")
	assert.Contains(t, buf.String(), "waiting 15m")
}

func TestNotifierModes(t *testing.T) {
	silent := NewNotifier(NotifyNone)
	var buf bytes.Buffer
	silent.out = &buf
	silent.SendSuccess("done", "done")
	assert.Empty(t, buf.String())

	terminal := NewNotifier(NotifyTerminal)
	assert.Nil(t, terminal.sender)
	assert.False(t, terminal.silent)
}

func TestPrintHelpers(t *testing.T) {
	var buf bytes.Buffer
	old := Output
	Output = &buf
	defer func() { Output = old }()

	PrintInfo("Seed", "@jack")
	PrintError("export failed", errors.New("disk full"))
	PrintWarning("careful")

	assert.Contains(t, buf.String(), "@jack")
	assert.Contains(t, buf.String(), "export failed: disk full")
	assert.Contains(t, buf.String(), "careful")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
}
