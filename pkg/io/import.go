package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/schemagraph/pkg/erd"
	"github.com/matzehuels/schemagraph/pkg/layout"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

// ReadJSON decodes a diagram dump from r.
//
// ReadJSON returns an error if:
//   - The JSON is malformed
//   - A node has an empty or duplicate id
//   - An edge has an unknown relationship kind
//
// Edges pointing at entities that are not nodes are kept; renderers skip
// them. ReadJSON does not close r.
func ReadJSON(r io.Reader) (layout.FlowGraph, error) {
	var g layout.FlowGraph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return layout.FlowGraph{}, fmt.Errorf("decode: %w", err)
	}

	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return layout.FlowGraph{}, fmt.Errorf("node with empty id")
		}
		if seen[n.ID] {
			return layout.FlowGraph{}, fmt.Errorf("node %s: duplicate id", n.ID)
		}
		seen[n.ID] = true
	}
	for _, e := range g.Edges {
		if !schema.RelationshipKind(e.Kind).Valid() {
			return layout.FlowGraph{}, fmt.Errorf("edge %s: unknown relationship kind %q", e.ID, e.Kind)
		}
	}
	return g, nil
}

// ImportJSON reads a diagram dump from a file at path.
func ImportJSON(path string) (layout.FlowGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return layout.FlowGraph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// FromFlow rebuilds a positioned graph from its render contract, keeping
// node positions. Edge styles are derived from the relationship kind.
func FromFlow(g layout.FlowGraph) layout.Positioned {
	p := layout.Positioned{
		Nodes:     make([]layout.Node, len(g.Nodes)),
		Edges:     make([]layout.Edge, len(g.Edges)),
		Truncated: g.Truncated,
	}
	for i, n := range g.Nodes {
		p.Nodes[i] = layout.Node{
			Node:     erd.Node{ID: n.ID, Label: n.Data.Label, Kind: n.Data.Kind},
			Position: n.Position,
		}
	}
	for i, e := range g.Edges {
		kind := schema.RelationshipKind(e.Kind)
		p.Edges[i] = layout.Edge{
			Edge:  erd.Edge{Source: e.Source, Target: e.Target, Label: e.Label, Kind: kind},
			Style: layout.StyleFor(kind),
		}
	}
	return p
}
