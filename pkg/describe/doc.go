// Package describe resolves entity names to their describes, fetching each
// (version, entity) pair over the network at most once per session.
//
// A [Cache] layers three sources:
//
//  1. an in-memory map, append-only per schema version
//  2. an optional persistent [cache.Cache] shared across processes
//  3. the network, through a [Fetcher]
//
// Concurrent [Cache.GetOrFetch] calls for the same key share one in-flight
// fetch. [Cache.Invalidate] drops one version without touching the others.
//
// [cache.Cache]: github.com/matzehuels/schemagraph/pkg/cache.Cache
package describe
