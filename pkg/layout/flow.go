package layout

import (
	"fmt"

	"github.com/matzehuels/schemagraph/pkg/schema"
)

// FlowNodeType is the node type every flow node is rendered with.
const FlowNodeType = "default"

// FlowGraph is the render contract handed to the diagram surface.
type FlowGraph struct {
	Nodes     []FlowNode `json:"nodes"`
	Edges     []FlowEdge `json:"edges"`
	Truncated bool       `json:"truncated"`
}

type FlowNode struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Position Point        `json:"position"`
	Data     FlowNodeData `json:"data"`
}

type FlowNodeData struct {
	Label string      `json:"label"`
	Kind  schema.Kind `json:"kind"`
}

type FlowEdge struct {
	ID     string        `json:"id"`
	Source string        `json:"source"`
	Target string        `json:"target"`
	Label  string        `json:"label"`
	Kind   string        `json:"kind"`
	Style  FlowEdgeStyle `json:"style"`
}

// FlowEdgeStyle is the SVG stroke style of a flow edge. Solid edges have an
// empty style object.
type FlowEdgeStyle struct {
	StrokeDasharray string `json:"strokeDasharray,omitempty"`
}

// Flow converts a positioned graph into the render contract.
func Flow(p Positioned) FlowGraph {
	g := FlowGraph{
		Nodes:     make([]FlowNode, len(p.Nodes)),
		Edges:     make([]FlowEdge, len(p.Edges)),
		Truncated: p.Truncated,
	}
	for i, n := range p.Nodes {
		g.Nodes[i] = FlowNode{
			ID:       n.ID,
			Type:     FlowNodeType,
			Position: n.Position,
			Data:     FlowNodeData{Label: n.Label, Kind: n.Kind},
		}
	}
	for i, e := range p.Edges {
		g.Edges[i] = FlowEdge{
			ID:     EdgeID(i, e.Source, e.Target, e.Label),
			Source: e.Source,
			Target: e.Target,
			Label:  e.Label,
			Kind:   string(e.Kind),
			Style:  FlowEdgeStyle{StrokeDasharray: e.Style.DashArray},
		}
	}
	return g
}

// EdgeID returns the render-contract id of the i-th edge.
func EdgeID(i int, source, target, label string) string {
	return fmt.Sprintf("e-%d-%s-%s-%s", i, source, target, label)
}
