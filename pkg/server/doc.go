// Package server exposes diagrams over HTTP.
//
// The API is a thin layer over [pipeline.Runner]: every diagram endpoint
// resolves its query parameters into [pipeline.Options], runs the request
// through the runner's cache and returns the render contract
// ([layout.FlowGraph]) or an exported image.
//
// # Endpoints
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/versions
//	GET    /api/sobjects?version=&custom=&search=
//	GET    /api/describe/{object}?version=
//	GET    /api/diagram/{object}?version=&depth=&layout=&standard=&custom=&max_nodes=&max_edges=&refresh=
//	GET    /api/diagram/{object}/{format}
//	DELETE /api/cache/{version}
//
// Errors are answered as {"error": CODE, "message": "..."} with a status
// derived from the error code.
package server
