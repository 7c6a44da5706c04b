package config

import (
	"context"

	"github.com/matzehuels/schemagraph/pkg/cache"
	"github.com/matzehuels/schemagraph/pkg/layout"
	"github.com/matzehuels/schemagraph/pkg/pipeline"
)

// OpenCache opens the configured persistent cache backend. noCache forces
// the null backend.
func (c *Config) OpenCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
		})
	case "mongo":
		return cache.NewMongoCache(ctx, cache.MongoOptions{
			URI:        c.Cache.Mongo.URI,
			Database:   c.Cache.Mongo.Database,
			Collection: c.Cache.Mongo.Collection,
		})
	}
	dir, err := c.CacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// CacheDir returns the file cache directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return DefaultCacheDir()
}

// Options returns the default diagram options.
func (l LimitsConfig) Options() (pipeline.Options, error) {
	mode, err := layout.ParseMode(l.Layout)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Depth:           l.Depth,
		IncludeStandard: l.IncludeStandard,
		IncludeCustom:   l.IncludeCustom,
		Layout:          mode,
		MaxNodes:        l.MaxNodes,
		MaxEdges:        l.MaxEdges,
		FetchTimeout:    l.FetchTimeout.D(),
	}, nil
}
