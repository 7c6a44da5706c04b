package layout

import (
	"math"

	"github.com/matzehuels/schemagraph/pkg/erd"
)

// Geometry constants shared by all modes.
const (
	NodeWidth  = 160.0
	NodeHeight = 40.0
	Spacing    = 80.0

	// minRowWidth is the row width hierarchical layers spread over before
	// the per-node minimum step takes over.
	minRowWidth = 400.0

	RadialCenterX   = 400.0
	RadialCenterY   = 300.0
	RadialMaxRadius = 300.0
	radialSpread    = 2000.0

	GridSpacing = 180.0
)

// Point is a node's top-left position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a graph node with a position.
type Node struct {
	erd.Node
	Position Point `json:"position"`
}

// Edge is a graph edge with its rendering style.
type Edge struct {
	erd.Edge
	Style EdgeStyle `json:"style"`
}

// Positioned is a laid-out graph. Node and edge order match the input.
type Positioned struct {
	Mode      Mode   `json:"mode"`
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
	Truncated bool   `json:"truncated"`
}

// Compute lays out r according to mode. Unknown modes fall back to Grid.
func Compute(mode Mode, r erd.Result) Positioned {
	p := Positioned{
		Mode:      mode,
		Nodes:     make([]Node, len(r.Nodes)),
		Edges:     make([]Edge, len(r.Edges)),
		Truncated: r.Truncated,
	}
	for i, n := range r.Nodes {
		p.Nodes[i] = Node{Node: n}
	}
	for i, e := range r.Edges {
		p.Edges[i] = Edge{Edge: e, Style: StyleFor(e.Kind)}
	}
	if len(p.Nodes) == 0 {
		return p
	}

	switch mode {
	case Hierarchical:
		hierarchical(p.Nodes, r.Edges)
	case Radial:
		radial(p.Nodes)
	default:
		p.Mode = Grid
		grid(p.Nodes)
	}
	return p
}

func radial(nodes []Node) {
	n := float64(len(nodes))
	r := math.Min(RadialMaxRadius, radialSpread/n)
	for i := range nodes {
		angle := 2 * math.Pi * float64(i) / n
		nodes[i].Position = Point{
			X: RadialCenterX + r*math.Cos(angle),
			Y: RadialCenterY + r*math.Sin(angle),
		}
	}
}

func grid(nodes []Node) {
	cols := max(int(math.Ceil(math.Sqrt(float64(len(nodes))))), 1)
	for i := range nodes {
		nodes[i].Position = Point{
			X: float64(i%cols) * GridSpacing,
			Y: float64(i/cols) * GridSpacing,
		}
	}
}

// Bounds returns the bounding box of all nodes including their size.
func (p Positioned) Bounds() (minX, minY, maxX, maxY float64) {
	if len(p.Nodes) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, n := range p.Nodes {
		minX = math.Min(minX, n.Position.X)
		minY = math.Min(minY, n.Position.Y)
		maxX = math.Max(maxX, n.Position.X+NodeWidth)
		maxY = math.Max(maxY, n.Position.Y+NodeHeight)
	}
	return minX, minY, maxX, maxY
}

// Node returns the positioned node with the given id.
func (p Positioned) Node(id string) (Node, bool) {
	for _, n := range p.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
