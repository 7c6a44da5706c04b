// Package nodelink renders positioned schema diagrams as node-link images.
//
// # Overview
//
// Entities appear as rounded boxes at the coordinates computed by the layout
// engine. Relationship edges point from the referencing entity to the
// referenced one and keep the stroke style of their relationship kind:
// master-detail solid, lookup dashed, polymorphic dotted.
//
// # Usage
//
// Convert a positioned graph to DOT, then render to SVG or PNG:
//
//	dot := nodelink.ToDOT(positioned, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source in which every node
// carries a pinned pos attribute, so Graphviz draws the layout engine's
// positions instead of computing its own. The source can be:
//
//   - Rendered directly via [RenderSVG] or [RenderPNG]
//   - Saved and processed with external Graphviz tools (neato -n)
//
// Edges whose endpoints are not nodes of the graph are skipped.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
package nodelink
