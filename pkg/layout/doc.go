// Package layout assigns 2-D positions to an entity-relationship graph.
//
// [Compute] dispatches on a [Mode]:
//
//   - [Hierarchical]: layered, parents above children
//   - [Radial]: one circle in input order
//   - [Grid]: row-major grid, also the fallback for unknown modes
//
// Layout is pure and deterministic: the same graph and mode always yield the
// same coordinates. Positions carry no identity across recomputation.
//
// # Hierarchical
//
// Edges point from child to parent. Roots are nodes that are never the source
// of an edge to another node in the graph; if there are none (every node sits
// on a cycle) the first node is the sole root. A node's layer is one more
// than the deepest parent it points at, computed in a single topological pass
// from the roots. Nodes on cycles take one more than the first parent that
// reaches them in breadth-first order; anything still unplaced is layer 0.
// Within a layer nodes keep input order.
//
// # Render Contract
//
// [Flow] converts a positioned graph into the {nodes, edges} document
// consumed by the rendering surface, with edge ids of the form
// e-<index>-<source>-<target>-<label>.
package layout
