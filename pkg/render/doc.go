// Package render turns positioned schema diagrams into exportable artifacts.
//
// # Formats
//
// [ParseFormat] validates a requested export format:
//
//   - json: the render contract produced by [layout.Flow]
//   - dot: Graphviz source with pinned node positions
//   - svg, png: images rendered in-process by Graphviz
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage builds the Graphviz document and rasterizes it:
//
//	dot := nodelink.ToDOT(positioned, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [layout.Flow]: github.com/matzehuels/schemagraph/pkg/layout.Flow
// [nodelink]: github.com/matzehuels/schemagraph/pkg/render/nodelink
package render
