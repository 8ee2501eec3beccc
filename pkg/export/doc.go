// Package export writes a collected follower graph to disk.
//
// Two encodings are supported: Graphviz DOT, where every edge points from
// follower to followee, and a JSON document listing nodes and edges. Write
// replaces the destination atomically.
package export
