// Package cache provides byte-level cache backends for schemagraph.
//
// A [Cache] stores opaque byte payloads under string keys with an optional
// TTL. Callers encode their own values; the cache never interprets them.
//
// Backends:
//   - [NullCache]: never stores anything
//   - [FileCache]: one JSON file per key, for CLI usage
//   - [RedisCache]: shared cache for server deployments
//   - [MongoCache]: shared cache with a TTL index
//
// Keys are generated by a [Keyer] so that every component agrees on the
// layout of the key space. Describe keys are stored unhashed under a
// per-version prefix, so backends implementing [PrefixDeleter] can drop a
// whole schema version at once.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached payloads.
const (
	// TTLDescribe is how long an entity describe stays in a persistent store.
	TTLDescribe = 24 * time.Hour

	// TTLHTTP is the default TTL for raw HTTP responses.
	TTLHTTP = 24 * time.Hour

	// TTLVersions is the TTL for the list of available schema versions.
	TTLVersions = 7 * 24 * time.Hour
)

// Cache is a byte-level key/value store with expiry.
//
// Get returns (nil, false, nil) on a miss. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// PrefixDeleter is implemented by backends that can delete every key
// starting with a prefix.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) error
}
