package layout

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/schemagraph/pkg/erd"
	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

func graph(ids []string, edges ...[2]string) erd.Result {
	r := erd.Result{}
	for _, id := range ids {
		r.Nodes = append(r.Nodes, erd.Node{ID: id, Label: id, Kind: schema.Standard})
	}
	for _, e := range edges {
		r.Edges = append(r.Edges, erd.Edge{Source: e[0], Target: e[1], Label: e[1] + "Id", Kind: schema.Lookup})
	}
	return r
}

func positions(p Positioned) map[string]Point {
	out := make(map[string]Point, len(p.Nodes))
	for _, n := range p.Nodes {
		out[n.ID] = n.Position
	}
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestHierarchicalChain(t *testing.T) {
	r := graph([]string{"A", "B", "C"}, [2]string{"A", "B"}, [2]string{"B", "C"})

	layers := Layers(r)
	want := map[string]int{"C": 0, "B": 1, "A": 2}
	if !reflect.DeepEqual(layers, want) {
		t.Fatalf("layers = %v, want %v", layers, want)
	}

	pos := positions(Compute(Hierarchical, r))
	if !(pos["A"].Y > pos["B"].Y && pos["B"].Y > pos["C"].Y) {
		t.Errorf("want y(A) > y(B) > y(C), got %v", pos)
	}
	if pos["C"].Y != 0 || pos["B"].Y != NodeHeight+Spacing || pos["A"].Y != 2*(NodeHeight+Spacing) {
		t.Errorf("unexpected rows: %v", pos)
	}
}

func TestHierarchicalRowSpacing(t *testing.T) {
	r := graph([]string{"Contact", "Account", "Case"},
		[2]string{"Contact", "Account"}, [2]string{"Case", "Account"})

	pos := positions(Compute(Hierarchical, r))
	if pos["Account"] != (Point{0, 0}) {
		t.Errorf("Account = %v, want origin", pos["Account"])
	}
	step := NodeWidth + Spacing
	if pos["Contact"] != (Point{0, NodeHeight + Spacing}) {
		t.Errorf("Contact = %v", pos["Contact"])
	}
	if pos["Case"] != (Point{step, NodeHeight + Spacing}) {
		t.Errorf("Case = %v, want x=%v in input order", pos["Case"], step)
	}
}

func TestHierarchicalLongestPath(t *testing.T) {
	// D points at both the root and a node one layer down.
	r := graph([]string{"A", "B", "D"},
		[2]string{"B", "A"}, [2]string{"D", "A"}, [2]string{"D", "B"})

	want := map[string]int{"A": 0, "B": 1, "D": 2}
	if got := Layers(r); !reflect.DeepEqual(got, want) {
		t.Errorf("layers = %v, want %v", got, want)
	}
}

func TestHierarchicalCycles(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		edges [][2]string
		want  map[string]int
	}{
		{
			name:  "pure cycle picks first node",
			ids:   []string{"A", "B"},
			edges: [][2]string{{"A", "B"}, {"B", "A"}},
			want:  map[string]int{"A": 0, "B": 1},
		},
		{
			name:  "cycle below a root",
			ids:   []string{"R", "X", "Y"},
			edges: [][2]string{{"X", "R"}, {"X", "Y"}, {"Y", "X"}},
			want:  map[string]int{"R": 0, "X": 1, "Y": 2},
		},
		{
			name:  "self edge ignored",
			ids:   []string{"A"},
			edges: [][2]string{{"A", "A"}},
			want:  map[string]int{"A": 0},
		},
		{
			name:  "dangling edge ignored",
			ids:   []string{"A", "B"},
			edges: [][2]string{{"A", "Ghost"}, {"B", "A"}},
			want:  map[string]int{"A": 0, "B": 1},
		},
		{
			name:  "disconnected nodes are roots",
			ids:   []string{"A", "B", "C"},
			edges: nil,
			want:  map[string]int{"A": 0, "B": 0, "C": 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Layers(graph(tt.ids, tt.edges...))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("layers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRadial(t *testing.T) {
	p := Compute(Radial, graph([]string{"A", "B", "C", "D"}))
	want := []Point{{700, 300}, {400, 600}, {100, 300}, {400, 0}}
	for i, n := range p.Nodes {
		if !near(n.Position.X, want[i].X) || !near(n.Position.Y, want[i].Y) {
			t.Errorf("node %d = %v, want %v", i, n.Position, want[i])
		}
	}

	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("N%d", i)
	}
	p = Compute(Radial, graph(ids))
	if got := p.Nodes[0].Position.X - RadialCenterX; !near(got, 200) {
		t.Errorf("radius for 10 nodes = %v, want 200", got)
	}
}

func TestGrid(t *testing.T) {
	p := Compute(Grid, graph([]string{"A", "B", "C", "D", "E"}))
	want := []Point{{0, 0}, {180, 0}, {360, 0}, {0, 180}, {180, 180}}
	for i, n := range p.Nodes {
		if n.Position != want[i] {
			t.Errorf("node %d = %v, want %v", i, n.Position, want[i])
		}
	}

	single := Compute(Grid, graph([]string{"A"}))
	if single.Nodes[0].Position != (Point{}) {
		t.Errorf("single node = %v", single.Nodes[0].Position)
	}
}

func TestComputeUnknownModeFallsBackToGrid(t *testing.T) {
	p := Compute(Mode(42), graph([]string{"A", "B"}))
	if p.Mode != Grid {
		t.Errorf("mode = %v, want grid", p.Mode)
	}
	if p.Nodes[1].Position != (Point{GridSpacing, 0}) {
		t.Errorf("B = %v", p.Nodes[1].Position)
	}
}

func TestComputeEmpty(t *testing.T) {
	for _, m := range Modes {
		p := Compute(m, erd.Result{Truncated: true})
		if len(p.Nodes) != 0 || len(p.Edges) != 0 || !p.Truncated {
			t.Errorf("%v: unexpected %+v", m, p)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	r := graph([]string{"A", "B", "C", "D"},
		[2]string{"A", "B"}, [2]string{"C", "B"}, [2]string{"D", "A"}, [2]string{"B", "D"})
	for _, m := range Modes {
		if a, b := Compute(m, r), Compute(m, r); !reflect.DeepEqual(a, b) {
			t.Errorf("%v: layout not deterministic", m)
		}
	}
}

func TestComputeKeepsOrderAndFlags(t *testing.T) {
	r := graph([]string{"B", "A"}, [2]string{"B", "A"})
	r.Truncated = true
	p := Compute(Hierarchical, r)
	if p.Nodes[0].ID != "B" || p.Nodes[1].ID != "A" {
		t.Errorf("order changed: %v", p.Nodes)
	}
	if !p.Truncated {
		t.Error("truncated flag dropped")
	}
	if p.Edges[0].Style.Line != Dashed {
		t.Errorf("lookup style = %v", p.Edges[0].Style)
	}
}

func TestStyleFor(t *testing.T) {
	tests := []struct {
		kind schema.RelationshipKind
		want EdgeStyle
	}{
		{schema.MasterDetail, EdgeStyle{Line: Solid}},
		{schema.Lookup, EdgeStyle{Line: Dashed, DashArray: "5 5"}},
		{schema.Polymorphic, EdgeStyle{Line: Dotted, DashArray: "2 2"}},
	}
	for _, tt := range tests {
		if got := StyleFor(tt.kind); got != tt.want {
			t.Errorf("StyleFor(%s) = %+v, want %+v", tt.kind, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		err  bool
	}{
		{"hierarchical", Hierarchical, false},
		{"", Hierarchical, false},
		{"Radial", Radial, false},
		{"grid", Grid, false},
		{"force", Grid, false},
		{"spiral", Hierarchical, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseMode(%q) err = %v", tt.in, err)
			continue
		}
		if err != nil {
			if !errors.Is(err, errors.ErrCodeInvalidLayout) {
				t.Errorf("ParseMode(%q) code = %v", tt.in, errors.GetCode(err))
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestModeText(t *testing.T) {
	var m Mode
	if err := json.Unmarshal([]byte(`"radial"`), &m); err != nil || m != Radial {
		t.Fatalf("unmarshal = %v, %v", m, err)
	}
	b, _ := json.Marshal(Grid)
	if string(b) != `"grid"` {
		t.Errorf("marshal = %s", b)
	}
}

func TestFlow(t *testing.T) {
	r := erd.Result{
		Nodes: []erd.Node{
			{ID: "Contact", Label: "Contact", Kind: schema.Standard},
			{ID: "Account", Label: "Account", Kind: schema.Standard},
			{ID: "Invoice__c", Label: "Invoice__c", Kind: schema.Custom},
		},
		Edges: []erd.Edge{
			{Source: "Contact", Target: "Account", Label: "AccountId", Kind: schema.Lookup},
			{Source: "Invoice__c", Target: "Account", Label: "Account__c", Kind: schema.MasterDetail},
		},
		Truncated: true,
	}
	g := Flow(Compute(Hierarchical, r))

	if !g.Truncated || len(g.Nodes) != 3 || len(g.Edges) != 2 {
		t.Fatalf("unexpected flow graph: %+v", g)
	}
	if g.Nodes[2].Type != "default" || g.Nodes[2].Data.Kind != schema.Custom {
		t.Errorf("node = %+v", g.Nodes[2])
	}
	if g.Edges[0].ID != "e-0-Contact-Account-AccountId" {
		t.Errorf("edge id = %s", g.Edges[0].ID)
	}
	if g.Edges[0].Style.StrokeDasharray != "5 5" || g.Edges[1].Style.StrokeDasharray != "" {
		t.Errorf("styles = %+v, %+v", g.Edges[0].Style, g.Edges[1].Style)
	}

	b, err := json.Marshal(g.Edges[1])
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	_ = json.Unmarshal(b, &decoded)
	if style, ok := decoded["style"].(map[string]any); !ok || len(style) != 0 {
		t.Errorf("master-detail style = %v, want {}", decoded["style"])
	}
}

func TestBounds(t *testing.T) {
	p := Compute(Grid, graph([]string{"A", "B", "C", "D"}))
	minX, minY, maxX, maxY := p.Bounds()
	if minX != 0 || minY != 0 || maxX != GridSpacing+NodeWidth || maxY != GridSpacing+NodeHeight {
		t.Errorf("bounds = %v %v %v %v", minX, minY, maxX, maxY)
	}
}

func ExampleCompute() {
	r := erd.Result{
		Nodes: []erd.Node{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		Edges: []erd.Edge{
			{Source: "A", Target: "B", Label: "B__c"},
			{Source: "B", Target: "C", Label: "C__c"},
		},
	}
	for _, n := range Compute(Hierarchical, r).Nodes {
		fmt.Printf("%s y=%.0f\n", n.ID, n.Position.Y)
	}
	// Output:
	// A y=240
	// B y=120
	// C y=0
}
