package layout

import "github.com/matzehuels/schemagraph/pkg/schema"

// Line is the stroke pattern of an edge.
type Line string

const (
	Solid  Line = "solid"
	Dashed Line = "dashed"
	Dotted Line = "dotted"
)

// EdgeStyle is the rendering style of an edge.
type EdgeStyle struct {
	Line      Line   `json:"line"`
	DashArray string `json:"dash_array,omitempty"`
}

// StyleFor maps a relationship kind to its edge style.
func StyleFor(kind schema.RelationshipKind) EdgeStyle {
	switch kind {
	case schema.MasterDetail:
		return EdgeStyle{Line: Solid}
	case schema.Polymorphic:
		return EdgeStyle{Line: Dotted, DashArray: "2 2"}
	default:
		return EdgeStyle{Line: Dashed, DashArray: "5 5"}
	}
}
