// Package graph holds the directed follower graph produced by a collection run.
package graph

import (
	"sort"

	"followgraph/pkg/account"
)

// Edge points from a follower to the account it follows.
type Edge struct {
	Follower account.Identifier `json:"follower"`
	Followee account.Identifier `json:"followee"`
}

// FollowerGraph is a directed graph with set semantics on nodes and edges.
// Nodes and edges iterate in insertion order. It is not safe for concurrent
// mutation.
type FollowerGraph struct {
	nodes     []account.Identifier
	nodeIndex map[account.Identifier]struct{}
	edges     []Edge
	edgeIndex map[Edge]struct{}
	labels    map[account.Identifier]string
}

// New returns an empty graph.
func New() *FollowerGraph {
	return &FollowerGraph{
		nodeIndex: make(map[account.Identifier]struct{}),
		edgeIndex: make(map[Edge]struct{}),
		labels:    make(map[account.Identifier]string),
	}
}

// AddNode inserts id if absent and reports whether it was new.
func (g *FollowerGraph) AddNode(id account.Identifier) bool {
	if _, ok := g.nodeIndex[id]; ok {
		return false
	}
	g.nodeIndex[id] = struct{}{}
	g.nodes = append(g.nodes, id)
	return true
}

// AddEdge inserts follower -> followee, creating missing nodes. Inserting an
// existing edge is a no-op and returns false.
func (g *FollowerGraph) AddEdge(follower, followee account.Identifier) bool {
	e := Edge{Follower: follower, Followee: followee}
	if _, ok := g.edgeIndex[e]; ok {
		return false
	}
	g.AddNode(follower)
	g.AddNode(followee)
	g.edgeIndex[e] = struct{}{}
	g.edges = append(g.edges, e)
	return true
}

// SetLabel attaches a display label, e.g. the screen name of a resolved seed.
func (g *FollowerGraph) SetLabel(id account.Identifier, label string) {
	g.labels[id] = label
}

// Label returns the display label of id, falling back to its string form.
func (g *FollowerGraph) Label(id account.Identifier) string {
	if l, ok := g.labels[id]; ok && l != "" {
		return l
	}
	return id.String()
}

func (g *FollowerGraph) HasNode(id account.Identifier) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

func (g *FollowerGraph) HasEdge(follower, followee account.Identifier) bool {
	_, ok := g.edgeIndex[Edge{Follower: follower, Followee: followee}]
	return ok
}

// Nodes returns a copy of the nodes in insertion order.
func (g *FollowerGraph) Nodes() []account.Identifier {
	out := make([]account.Identifier, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns a copy of the edges in discovery order.
func (g *FollowerGraph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

func (g *FollowerGraph) NodeCount() int { return len(g.nodes) }

func (g *FollowerGraph) EdgeCount() int { return len(g.edges) }

// Followers returns the accounts with an edge into id, in discovery order.
func (g *FollowerGraph) Followers(id account.Identifier) []account.Identifier {
	var out []account.Identifier
	for _, e := range g.edges {
		if e.Followee == id {
			out = append(out, e.Follower)
		}
	}
	return out
}

// InDegrees counts incoming edges per node, sorted by descending degree.
func (g *FollowerGraph) InDegrees() []Degree {
	counts := make(map[account.Identifier]int, len(g.nodes))
	for _, e := range g.edges {
		counts[e.Followee]++
	}
	out := make([]Degree, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, Degree{Account: n, In: counts[n]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].In > out[j].In })
	return out
}

// Degree pairs an account with its in-degree.
type Degree struct {
	Account account.Identifier
	In      int
}
