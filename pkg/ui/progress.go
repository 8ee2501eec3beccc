package ui

import (
	"fmt"
	"strings"
	"time"

	"followgraph/pkg/collector"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker accumulates traversal counters from progress events
type StatusTracker struct {
	MaxDepth  int
	Expanded  int
	Denied    int
	Nodes     int
	Edges     int
	Pending   int
	Fetches   int
	Waits     int
	Waited    time.Duration
	Last      collector.Progress
	StartTime time.Time
}

// NewStatusTracker creates a tracker for a run of the given depth
func NewStatusTracker(maxDepth int) *StatusTracker {
	return &StatusTracker{MaxDepth: maxDepth, StartTime: time.Now()}
}

// Update records one expansion
func (st *StatusTracker) Update(p collector.Progress) {
	st.Expanded++
	if p.Denied {
		st.Denied++
	}
	st.Nodes = p.Nodes
	st.Edges = p.Edges
	st.Pending = p.Pending
	st.Fetches = p.Fetches
	st.Last = p
}

// RecordWait records one rate-limit sleep
func (st *StatusTracker) RecordWait(d time.Duration) {
	st.Waits++
	st.Waited += d
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetExpansionRate returns expanded accounts per minute
func (st *StatusTracker) GetExpansionRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Expanded) / elapsed
}

// GetDepthProgress renders how deep the current account sits as a bar
func (st *StatusTracker) GetDepthProgress() string {
	const width = 10
	if st.MaxDepth <= 0 {
		return "[" + strings.Repeat(ProgressEmpty, width) + "]"
	}
	level := st.MaxDepth - st.Last.Depth + 1
	if level < 0 {
		level = 0
	}
	if level > st.MaxDepth {
		level = st.MaxDepth
	}
	filled := level * width / st.MaxDepth

	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, width-filled),
		level, st.MaxDepth)
}

// Line returns the one-line status summary
func (st *StatusTracker) Line() string {
	line := fmt.Sprintf("depth %s • %d expanded • %d nodes • %d edges • %d pending",
		st.GetDepthProgress(), st.Expanded, st.Nodes, st.Edges, st.Pending)
	if st.Denied > 0 {
		line += fmt.Sprintf(" • %d restricted", st.Denied)
	}
	return line
}
