// Package erd builds entity-relationship graphs from fetched describes.
//
// # Building
//
// [Build] is a pure function over an [Input] (the build request): it re-runs
// the breadth-first traversal of the planner over the already-fetched
// describes and admits nodes and edges under the include filters and the
// node and edge caps. The result is deterministic for a fixed input.
//
// Edges point from the referencing entity to the referenced entity. A child
// relationship on entity P naming child C and field F yields the edge
// C -F-> P, which is the same edge as the parent relationship on C. Edges are
// deduplicated by (owner, field, other), so each physical relationship appears
// once per target.
//
// Caps are not errors: a graph cut short by MaxNodes or MaxEdges is returned
// with Truncated set.
//
// # Isolation
//
// A [Worker] runs each build in its own goroutine behind a data-only message
// boundary: the request is msgpack-encoded on the way in and the result on
// the way out, so the build never shares memory with its caller. Worker
// failures are reported as BUILD_FAILURE errors, distinct from an empty graph.
package erd
