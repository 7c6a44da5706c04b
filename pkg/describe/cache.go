package describe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/schemagraph/pkg/cache"
	"github.com/matzehuels/schemagraph/pkg/observability"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

// Fetcher retrieves one describe from the metadata API. Errors wrap
// integrations.ErrNotFound, ErrUnauthorized or ErrNetwork.
type Fetcher interface {
	Describe(ctx context.Context, version, entity string) (*schema.EntityDescribe, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, version, entity string) (*schema.EntityDescribe, error)

// Describe calls f.
func (f FetcherFunc) Describe(ctx context.Context, version, entity string) (*schema.EntityDescribe, error) {
	return f(ctx, version, entity)
}

// Cache is a session-scoped describe cache. Entries are never mutated once
// stored; callers must treat returned describes as read-only.
type Cache struct {
	fetcher Fetcher
	store   cache.Cache
	keyer   cache.Keyer
	logger  *log.Logger

	mu      sync.RWMutex
	entries map[string]map[string]*schema.EntityDescribe // version -> entity -> describe
	gens    map[string]uint64                            // bumped by Invalidate
	flight  singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore adds a persistent second-level store.
func WithStore(store cache.Cache, keyer cache.Keyer) Option {
	return func(c *Cache) {
		c.store = store
		if keyer != nil {
			c.keyer = keyer
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCache creates a describe cache backed by fetcher.
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		store:   cache.NewNullCache(),
		keyer:   cache.NewDefaultKeyer(),
		logger:  log.New(io.Discard),
		entries: make(map[string]map[string]*schema.EntityDescribe),
		gens:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the in-memory describe for (version, entity) without fetching.
func (c *Cache) Get(version, entity string) (*schema.EntityDescribe, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[normalize(version)][entity]
	return d, ok
}

// GetOrFetch returns the describe for (version, entity), consulting memory,
// then the persistent store, then the network. Concurrent calls for the same
// key share one fetch. A caller whose ctx ends stops waiting; the shared
// fetch keeps running for the remaining waiters.
//
// A fetch that is still running when its version is invalidated is returned
// to its waiters but not cached, and later calls start a new fetch.
func (c *Cache) GetOrFetch(ctx context.Context, version, entity string) (*schema.EntityDescribe, error) {
	version = normalize(version)
	if d, ok := c.Get(version, entity); ok {
		observability.Cache().OnCacheHit(ctx, "describe")
		return d, nil
	}

	gen := c.generation(version)
	key := c.keyer.DescribeKey(version, entity)
	ch := c.flight.DoChan(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		return c.load(context.WithoutCancel(ctx), version, entity, key, gen)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*schema.EntityDescribe), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) load(ctx context.Context, version, entity, key string, gen uint64) (*schema.EntityDescribe, error) {
	// A fetch that completed between Get and DoChan already stored the entry.
	if d, ok := c.Get(version, entity); ok {
		return d, nil
	}

	hooks := observability.Cache()
	if d := c.fromStore(ctx, key); d != nil {
		hooks.OnCacheHit(ctx, "describe")
		c.logger.Debug("describe from store", "entity", entity, "version", version)
		return c.put(version, entity, d, gen), nil
	}
	hooks.OnCacheMiss(ctx, "describe")

	c.logger.Debug("fetching describe", "entity", entity, "version", version)
	d, err := c.fetcher.Describe(ctx, version, entity)
	if err != nil {
		return nil, err
	}
	d = c.put(version, entity, d, gen)
	c.toStore(ctx, version, key, d, gen)
	return d, nil
}

func (c *Cache) fromStore(ctx context.Context, key string) *schema.EntityDescribe {
	var data []byte
	var hit bool
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, hit, err = c.store.Get(ctx, key)
		return err
	})
	if err != nil || !hit {
		if err != nil {
			c.logger.Warn("describe store read failed", "key", key, "error", err)
		}
		return nil
	}
	var d schema.EntityDescribe
	if err := json.Unmarshal(data, &d); err != nil {
		return nil
	}
	return &d
}

// toStore writes d to the persistent store. A write that raced with
// Invalidate is deleted again.
func (c *Cache) toStore(ctx context.Context, version, key string, d *schema.EntityDescribe, gen uint64) {
	if c.generation(version) != gen {
		return
	}
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, data, cache.TTLDescribe); err != nil {
		c.logger.Warn("describe store write failed", "key", key, "error", err)
		return
	}
	if c.generation(version) != gen {
		_ = c.store.Delete(ctx, key)
		return
	}
	observability.Cache().OnCacheSet(ctx, "describe", len(data))
}

// put stores d unless an entry already exists or version was invalidated
// after gen, and returns the entry callers should see.
func (c *Cache) put(version, entity string, d *schema.EntityDescribe, gen uint64) *schema.EntityDescribe {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[version] != gen {
		return d
	}
	byEntity, ok := c.entries[version]
	if !ok {
		byEntity = make(map[string]*schema.EntityDescribe)
		c.entries[version] = byEntity
	}
	if existing, ok := byEntity[entity]; ok {
		return existing
	}
	byEntity[entity] = d
	return d
}

// Invalidate drops every entry of version from memory and from the
// persistent store. Other versions are untouched.
func (c *Cache) Invalidate(ctx context.Context, version string) error {
	version = normalize(version)

	c.mu.Lock()
	dropped := c.entries[version]
	delete(c.entries, version)
	c.gens[version]++
	c.mu.Unlock()

	if pd, ok := c.store.(cache.PrefixDeleter); ok {
		return pd.DeletePrefix(ctx, c.keyer.VersionPrefix(version))
	}
	for entity := range dropped {
		if err := c.store.Delete(ctx, c.keyer.DescribeKey(version, entity)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) generation(version string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[version]
}

// Len returns the number of in-memory entries across all versions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, m := range c.entries {
		n += len(m)
	}
	return n
}

// Versions returns the versions that currently hold entries.
func (c *Cache) Versions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for v := range c.entries {
		out = append(out, v)
	}
	return out
}

func normalize(version string) string {
	if version != "" && !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}
