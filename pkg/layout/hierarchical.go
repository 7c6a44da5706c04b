package layout

import "github.com/matzehuels/schemagraph/pkg/erd"

// Layers returns the hierarchical layer of every node in r.
func Layers(r erd.Result) map[string]int {
	nodes := make([]Node, len(r.Nodes))
	for i, n := range r.Nodes {
		nodes[i] = Node{Node: n}
	}
	return assignLayers(nodes, r.Edges)
}

func hierarchical(nodes []Node, edges []erd.Edge) {
	layers := assignLayers(nodes, edges)

	byLayer := make(map[int][]int)
	maxLayer := 0
	for i, n := range nodes {
		l := layers[n.ID]
		byLayer[l] = append(byLayer[l], i)
		maxLayer = max(maxLayer, l)
	}

	rowHeight := NodeHeight + Spacing
	for l := 0; l <= maxLayer; l++ {
		row := byLayer[l]
		step := max(NodeWidth+Spacing, (minRowWidth-NodeWidth)/float64(max(1, len(row))))
		for j, idx := range row {
			nodes[idx].Position = Point{X: float64(j) * step, Y: float64(l) * rowHeight}
		}
	}
}

// assignLayers places parents (edge targets) above the children pointing at them.
func assignLayers(nodes []Node, edges []erd.Edge) map[string]int {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	childrenOf := make(map[string][]string)
	outDegree := make(map[string]int, len(nodes))
	for _, e := range edges {
		_, okS := index[e.Source]
		_, okT := index[e.Target]
		if !okS || !okT || e.Source == e.Target {
			continue
		}
		childrenOf[e.Target] = append(childrenOf[e.Target], e.Source)
		outDegree[e.Source]++
	}

	var roots []string
	for _, n := range nodes {
		if outDegree[n.ID] == 0 {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 {
		roots = []string{nodes[0].ID}
	}

	layer := make(map[string]int, len(nodes))
	placed := make(map[string]bool, len(nodes))
	remaining := make(map[string]int, len(nodes))
	for id, d := range outDegree {
		remaining[id] = d
	}

	// Kahn's pass: a child is placed once all of its parents are placed.
	order := make([]string, 0, len(nodes))
	for _, r := range roots {
		layer[r] = 0
		placed[r] = true
		order = append(order, r)
	}
	for head := 0; head < len(order); head++ {
		t := order[head]
		for _, s := range childrenOf[t] {
			if placed[s] {
				continue
			}
			layer[s] = max(layer[s], layer[t]+1)
			remaining[s]--
			if remaining[s] == 0 {
				placed[s] = true
				order = append(order, s)
			}
		}
	}

	// Nodes on cycles never drain; place them below the first placed parent.
	for head := 0; head < len(order); head++ {
		t := order[head]
		for _, s := range childrenOf[t] {
			if placed[s] {
				continue
			}
			layer[s] = layer[t] + 1
			placed[s] = true
			order = append(order, s)
		}
	}

	out := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if placed[n.ID] {
			out[n.ID] = layer[n.ID]
		} else {
			out[n.ID] = 0
		}
	}
	return out
}
