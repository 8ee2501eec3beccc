package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"followgraph/pkg/account"
	"followgraph/pkg/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *graph.FollowerGraph {
	g := graph.New()
	g.AddNode(account.ID(1))
	g.SetLabel(account.ID(1), `@ja"ck`)
	g.AddEdge(account.ID(2), account.ID(1))
	g.AddEdge(account.ID(3), account.ID(1))
	g.AddEdge(account.ID(4), account.ID(2))
	return g
}

func TestWriteDOT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, sampleGraph()))

	want := `digraph followers {
  "1" [label="@ja\"ck"];
  "2";
  "3";
  "4";
  "2" -> "1";
  "3" -> "1";
  "4" -> "2";
}
`
	assert.Equal(t, want, buf.String())
}

func TestWriteDOTEmptyGraph(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, graph.New()))
	assert.Equal(t, "digraph followers {\n}\n", buf.String())
}

func TestJSONRoundTrip(t *testing.T) {
	g := sampleGraph()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, g))
	assert.Contains(t, buf.String(), `"follower": "4"`)

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes(), back.Nodes())
	assert.Equal(t, g.Edges(), back.Edges())
	assert.Equal(t, `@ja"ck`, back.Label(account.ID(1)))
}

func TestReadJSONRejectsBadIdentifier(t *testing.T) {
	_, err := ReadJSON(bytes.NewBufferString(`{"nodes":[{"id":"not an account!"}],"edges":[]}`))
	assert.ErrorIs(t, err, account.ErrInvalidIdentifier)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "graph.dot")

	require.NoError(t, Write(path, FormatDOT, sampleGraph(), false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"4" -> "2";`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestWriteOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	err := Write(path, FormatJSON, sampleGraph(), false)
	assert.True(t, errors.Is(err, ErrExists))
	data, _ := os.ReadFile(path)
	assert.Equal(t, "old", string(data))

	require.NoError(t, Write(path, FormatJSON, sampleGraph(), true))
	data, _ = os.ReadFile(path)
	assert.Contains(t, string(data), `"edges"`)
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "g.xml"), Format("xml"), sampleGraph(), true)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"dot", FormatDOT, false},
		{"GV", FormatDOT, false},
		{" json ", FormatJSON, false},
		{"gexf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, FormatJSON, FormatForPath("/tmp/x.json", FormatDOT))
	assert.Equal(t, FormatDOT, FormatForPath("/tmp/x", FormatDOT))
}
