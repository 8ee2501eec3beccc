package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"followgraph/pkg/account"
	"followgraph/pkg/graph"
)

// Format names an output encoding
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ErrExists is returned when the destination exists and overwriting is off
var ErrExists = errors.New("output file already exists")

// ParseFormat accepts "dot", "gv" or "json", case-insensitively
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dot", "gv":
		return FormatDOT, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// FormatForPath picks the format from the file extension, falling back to def
func FormatForPath(path string, def Format) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return def
}

// Write encodes g to path. The file is written to a temporary name in the
// same directory and renamed into place, so a failed export never leaves a
// truncated graph behind.
func Write(path string, format Format, g *graph.FollowerGraph, overwrite bool) error {
	if g == nil {
		return errors.New("export: nil graph")
	}
	encode, err := encoder(format)
	if err != nil {
		return err
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tmp.Name()

	buf := bufio.NewWriter(tmp)
	if err := encode(buf, g); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write graph: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync graph file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close graph file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set graph file mode: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func encoder(format Format) (func(io.Writer, *graph.FollowerGraph) error, error) {
	switch format {
	case FormatDOT:
		return WriteDOT, nil
	case FormatJSON:
		return WriteJSON, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// WriteDOT writes g as a Graphviz digraph. Edges point from follower to
// followee; labelled nodes carry their label.
func WriteDOT(w io.Writer, g *graph.FollowerGraph) error {
	ew := &errWriter{w: w}
	ew.printf("digraph followers {\n")
	for _, n := range g.Nodes() {
		if label := g.Label(n); label != n.String() {
			ew.printf("  %s [label=%s];\n", dotID(n), quote(label))
		} else {
			ew.printf("  %s;\n", dotID(n))
		}
	}
	for _, e := range g.Edges() {
		ew.printf("  %s -> %s;\n", dotID(e.Follower), dotID(e.Followee))
	}
	ew.printf("}\n")
	return ew.err
}

func dotID(id account.Identifier) string {
	return quote(id.String())
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// Document is the JSON form of a graph
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one account in a Document
type Node struct {
	ID    account.Identifier `json:"id"`
	Label string             `json:"label,omitempty"`
}

// Edge is one follower -> followee pair in a Document
type Edge struct {
	Follower account.Identifier `json:"follower"`
	Followee account.Identifier `json:"followee"`
}

// NewDocument converts g to its JSON form
func NewDocument(g *graph.FollowerGraph) Document {
	doc := Document{Nodes: []Node{}, Edges: []Edge{}}
	for _, n := range g.Nodes() {
		node := Node{ID: n}
		if label := g.Label(n); label != n.String() {
			node.Label = label
		}
		doc.Nodes = append(doc.Nodes, node)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, Edge{Follower: e.Follower, Followee: e.Followee})
	}
	return doc
}

// WriteJSON writes g as an indented JSON document
func WriteJSON(w io.Writer, g *graph.FollowerGraph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(g))
}

// ReadJSON decodes a document written by WriteJSON back into a graph
func ReadJSON(r io.Reader) (*graph.FollowerGraph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	g := graph.New()
	for _, n := range doc.Nodes {
		g.AddNode(n.ID)
		if n.Label != "" {
			g.SetLabel(n.ID, n.Label)
		}
	}
	for _, e := range doc.Edges {
		g.AddEdge(e.Follower, e.Followee)
	}
	return g, nil
}
