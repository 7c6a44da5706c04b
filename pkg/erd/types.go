package erd

import "github.com/matzehuels/schemagraph/pkg/schema"

// Input is the build request sent across the worker boundary.
type Input struct {
	RootObject      string                            `json:"rootObject"`
	Depth           int                               `json:"depth"`
	IncludeStandard bool                              `json:"includeStandard"`
	IncludeCustom   bool                              `json:"includeCustom"`
	Describes       map[string]*schema.EntityDescribe `json:"describes"`
	MaxNodes        int                               `json:"maxNodes"`
	MaxEdges        int                               `json:"maxEdges"`
}

// Node is one admitted entity. ID is the entity API name.
type Node struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Kind  schema.Kind `json:"kind"`
}

// Edge is one relationship field pointing at one target entity.
type Edge struct {
	Source string                  `json:"source"`
	Target string                  `json:"target"`
	Label  string                  `json:"label"`
	Kind   schema.RelationshipKind `json:"relationshipKind"`
}

// Key returns the dedup key (owner, field, other).
func (e Edge) Key() EdgeKey {
	return EdgeKey{Owner: e.Source, Field: e.Label, Other: e.Target}
}

// EdgeKey identifies a physical relationship per target.
type EdgeKey struct {
	Owner, Field, Other string
}

// Result is the build response. Nodes and Edges are in discovery order.
type Result struct {
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
	Truncated bool   `json:"truncated"`
}

// HasNode reports whether id is an admitted node.
func (r *Result) HasNode(id string) bool {
	for _, n := range r.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Empty reports whether the result holds no nodes.
func (r *Result) Empty() bool { return len(r.Nodes) == 0 }
