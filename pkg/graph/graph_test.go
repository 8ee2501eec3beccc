package graph

import (
	"testing"

	"followgraph/pkg/account"

	"github.com/stretchr/testify/assert"
)

func TestAddEdgeIsIdempotent(t *testing.T) {
	g := New()

	assert.True(t, g.AddEdge(account.ID(2), account.ID(1)))
	assert.False(t, g.AddEdge(account.ID(2), account.ID(1)))
	assert.True(t, g.AddEdge(account.ID(1), account.ID(2)))

	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 2, g.NodeCount())
	assert.True(t, g.HasEdge(account.ID(2), account.ID(1)))
	assert.True(t, g.HasEdge(account.ID(1), account.ID(2)))
	assert.False(t, g.HasEdge(account.ID(3), account.ID(1)))
}

func TestInsertionOrder(t *testing.T) {
	g := New()
	g.AddEdge(account.ID(2), account.ID(1))
	g.AddEdge(account.ID(3), account.ID(1))
	g.AddEdge(account.ID(4), account.ID(2))

	assert.Equal(t, []account.Identifier{account.ID(2), account.ID(1), account.ID(3), account.ID(4)}, g.Nodes())
	assert.Equal(t, []Edge{
		{Follower: account.ID(2), Followee: account.ID(1)},
		{Follower: account.ID(3), Followee: account.ID(1)},
		{Follower: account.ID(4), Followee: account.ID(2)},
	}, g.Edges())
	assert.Equal(t, []account.Identifier{account.ID(2), account.ID(3)}, g.Followers(account.ID(1)))
}

func TestCopiesAreIndependent(t *testing.T) {
	g := New()
	g.AddEdge(account.ID(2), account.ID(1))

	edges := g.Edges()
	edges[0].Follower = account.ID(99)
	assert.True(t, g.HasEdge(account.ID(2), account.ID(1)))
}

func TestLabels(t *testing.T) {
	g := New()
	g.AddNode(account.ID(12))
	assert.Equal(t, "12", g.Label(account.ID(12)))

	g.SetLabel(account.ID(12), "@jack")
	assert.Equal(t, "@jack", g.Label(account.ID(12)))
	assert.False(t, g.AddNode(account.ID(12)))
}

func TestInDegrees(t *testing.T) {
	g := New()
	g.AddEdge(account.ID(2), account.ID(1))
	g.AddEdge(account.ID(3), account.ID(1))
	g.AddEdge(account.ID(3), account.ID(2))

	degrees := g.InDegrees()
	assert.Equal(t, account.ID(1), degrees[0].Account)
	assert.Equal(t, 2, degrees[0].In)
	assert.Equal(t, 0, degrees[len(degrees)-1].In)
}
