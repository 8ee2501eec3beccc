package collector

import (
	"context"
	"fmt"
	"time"

	"followgraph/pkg/account"
	errs "followgraph/pkg/errors"
	"followgraph/pkg/graph"
	"followgraph/pkg/logger"
)

// Source lists the accounts related to id. For the followers relation these
// are the followers of id.
type Source interface {
	Fetch(ctx context.Context, id account.Identifier) ([]account.Identifier, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, id account.Identifier) ([]account.Identifier, error)

func (f SourceFunc) Fetch(ctx context.Context, id account.Identifier) ([]account.Identifier, error) {
	return f(ctx, id)
}

// Resolver maps a screen name to its numeric identifier.
type Resolver interface {
	Resolve(ctx context.Context, id account.Identifier) (account.Identifier, error)
}

// MarkMode decides when an expanded account joins the visited set.
type MarkMode int

const (
	// MarkEarly marks an account before its related accounts are expanded,
	// so no account is fetched twice in one run.
	MarkEarly MarkMode = iota
	// MarkLate marks an account only after all of its related accounts are
	// expanded. An account reachable from two parents may then be fetched
	// more than once before it is marked.
	MarkLate
)

// ParseMarkMode accepts "early" or "late".
func ParseMarkMode(s string) (MarkMode, error) {
	switch s {
	case "early", "":
		return MarkEarly, nil
	case "late":
		return MarkLate, nil
	default:
		return MarkEarly, fmt.Errorf("unknown mark mode %q", s)
	}
}

func (m MarkMode) String() string {
	if m == MarkLate {
		return "late"
	}
	return "early"
}

// Direction orients the edges added for a fetched list.
type Direction int

const (
	// Inbound treats fetched accounts as followers of the expanded account.
	Inbound Direction = iota
	// Outbound treats fetched accounts as accounts the expanded one follows.
	Outbound
)

// Progress reports one expanded account.
type Progress struct {
	Account  account.Identifier
	Depth    int // remaining depth of Account
	Found    int
	Denied   bool
	Visited  int
	Nodes    int
	Edges    int
	Pending  int
	Fetches  int
	Duration time.Duration
}

// Collector discovers the follower graph around a seed account.
type Collector struct {
	src        Source
	resolver   Resolver
	mode       MarkMode
	direction  Direction
	onProgress func(Progress)
	logger     logger.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithMarkMode selects when accounts are marked visited.
func WithMarkMode(m MarkMode) Option {
	return func(c *Collector) { c.mode = m }
}

// WithDirection sets the edge orientation for fetched accounts.
func WithDirection(d Direction) Option {
	return func(c *Collector) { c.direction = d }
}

// WithResolver resolves a screen-name seed to its numeric id before the
// traversal starts, keeping the screen name as the node label.
func WithResolver(r Resolver) Option {
	return func(c *Collector) { c.resolver = r }
}

// WithProgress registers a callback invoked after each expansion.
func WithProgress(fn func(Progress)) Option {
	return func(c *Collector) { c.onProgress = fn }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Collector) { c.logger = l }
}

// New creates a Collector over src.
func New(src Source, opts ...Option) *Collector {
	c := &Collector{src: src}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.GetLogger()
	}
	return c
}

// Collect expands seed depth-first up to maxDepth levels. Access-restricted
// accounts count as having no related accounts. Any other fetch failure
// aborts the run and no graph is returned.
func (c *Collector) Collect(ctx context.Context, seed account.Identifier, maxDepth int) (*graph.FollowerGraph, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative, got %d", maxDepth)
	}
	if !seed.IsValid() {
		return nil, fmt.Errorf("collect: %w", account.ErrInvalidIdentifier)
	}

	g := graph.New()
	if maxDepth == 0 {
		return g, nil
	}

	root, err := c.resolveSeed(ctx, seed)
	if err != nil {
		return nil, err
	}
	g.AddNode(root)
	if root != seed {
		g.SetLabel(root, seed.String())
	}

	start := time.Now()
	t := &traversal{
		collector: c,
		visited:   make(map[account.Identifier]struct{}),
		graph:     g,
	}

	c.logger.InfoWithFields("collection started", map[string]interface{}{
		"seed":      root.String(),
		"max_depth": maxDepth,
		"mark_mode": c.mode.String(),
	})

	if err := t.run(ctx, root, maxDepth); err != nil {
		c.logger.WithError(err).Error("collection aborted")
		return nil, err
	}

	logger.LogMetrics(c.logger, "collect", map[string]interface{}{
		"seed":     root.String(),
		"nodes":    g.NodeCount(),
		"edges":    g.EdgeCount(),
		"visited":  len(t.visited),
		"fetches":  t.fetches,
		"denied":   t.denied,
		"duration": time.Since(start),
	})
	return g, nil
}

func (c *Collector) resolveSeed(ctx context.Context, seed account.Identifier) (account.Identifier, error) {
	if c.resolver == nil || seed.Kind() != account.KindScreenName {
		return seed, nil
	}
	id, err := c.resolver.Resolve(ctx, seed)
	if err != nil {
		return account.Identifier{}, fmt.Errorf("resolve seed %s: %w", seed, err)
	}
	return id, nil
}

// frame is one account whose related accounts are being walked.
type frame struct {
	id      account.Identifier
	depth   int
	related []account.Identifier
	next    int
	started time.Time
}

// traversal owns the state of a single Collect call.
type traversal struct {
	collector *Collector
	visited   map[account.Identifier]struct{}
	graph     *graph.FollowerGraph
	stack     []*frame
	fetches   int
	denied    int
}

func (t *traversal) run(ctx context.Context, root account.Identifier, maxDepth int) error {
	if err := t.enter(ctx, root, maxDepth); err != nil {
		return err
	}

	for len(t.stack) > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("collection cancelled: %w", err)
		}

		top := t.stack[len(t.stack)-1]
		if top.next == len(top.related) {
			t.stack = t.stack[:len(t.stack)-1]
			if t.collector.mode == MarkLate {
				t.visited[top.id] = struct{}{}
			}
			continue
		}

		other := top.related[top.next]
		top.next++
		t.link(other, top.id)

		if _, seen := t.visited[other]; !seen {
			if err := t.enter(ctx, other, top.depth-1); err != nil {
				return err
			}
		}
	}
	return nil
}

// enter expands id with depth levels remaining and pushes its frame.
func (t *traversal) enter(ctx context.Context, id account.Identifier, depth int) error {
	if depth == 0 {
		return nil
	}
	if t.collector.mode == MarkEarly {
		t.visited[id] = struct{}{}
	}

	f := &frame{id: id, depth: depth, started: time.Now()}
	related, err := t.collector.src.Fetch(ctx, id)
	t.fetches++

	denied := false
	if err != nil {
		if !errs.IsAccessDenied(err) {
			return fmt.Errorf("collect followers of %s: %w", id, err)
		}
		denied = true
		t.denied++
		related = nil
	}
	logger.LogNodeVisit(t.collector.logger, id.String(), depth, len(related), err)

	f.related = related
	t.stack = append(t.stack, f)
	t.report(f, denied)
	return nil
}

func (t *traversal) link(other, current account.Identifier) {
	if t.collector.direction == Outbound {
		t.graph.AddEdge(current, other)
		return
	}
	t.graph.AddEdge(other, current)
}

func (t *traversal) pending() int {
	n := 0
	for _, f := range t.stack {
		n += len(f.related) - f.next
	}
	return n
}

func (t *traversal) report(f *frame, denied bool) {
	if t.collector.onProgress == nil {
		return
	}
	t.collector.onProgress(Progress{
		Account:  f.id,
		Depth:    f.depth,
		Found:    len(f.related),
		Denied:   denied,
		Visited:  len(t.visited),
		Nodes:    t.graph.NodeCount(),
		Edges:    t.graph.EdgeCount(),
		Pending:  t.pending(),
		Fetches:  t.fetches,
		Duration: time.Since(f.started),
	})
}
