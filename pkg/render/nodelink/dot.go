package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/schemagraph/pkg/layout"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the entity kind below each node label.
	Detailed bool

	// HideEdgeLabels drops relationship field names from edges.
	HideEdgeLabels bool
}

const (
	pointsPerInch = 72.0
	customFill    = "#e8f0fe"
)

// ToDOT converts a positioned graph to Graphviz DOT with pinned positions.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
func ToDOT(p layout.Positioned, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, fixedsize=true, width=%s, height=%s];\n",
		inches(layout.NodeWidth), inches(layout.NodeHeight))
	buf.WriteString("  edge [fontsize=9, color=\"#555555\", fontcolor=\"#555555\"];\n")
	buf.WriteString("\n")

	minX, _, _, maxY := p.Bounds()
	nodes := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		nodes[n.ID] = true
		// Graphviz positions are node centres with y growing upwards.
		cx := n.Position.X - minX + layout.NodeWidth/2
		cy := maxY - n.Position.Y - layout.NodeHeight/2
		attrs := fmt.Sprintf("label=%q, pos=\"%s,%s!\"", nodeLabel(n, opts.Detailed), num(cx), num(cy))
		if n.Kind == schema.Custom {
			attrs += fmt.Sprintf(", fillcolor=%q", customFill)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, attrs)
	}

	buf.WriteString("\n")
	for _, e := range p.Edges {
		if !nodes[e.Source] || !nodes[e.Target] {
			continue
		}
		attrs := "style=" + string(e.Style.Line)
		if e.Style.Line == layout.Solid {
			attrs += ", penwidth=1.5"
		}
		if !opts.HideEdgeLabels {
			attrs += fmt.Sprintf(", label=%q", e.Label)
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n layout.Node, detailed bool) string {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	if !detailed {
		return label
	}
	return label + "\n(" + string(n.Kind) + ")"
}

func inches(px float64) string {
	return num(px / pointsPerInch)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
