// Package config loads schemagraph settings.
//
// Settings are resolved in this order, later sources winning:
//
//  1. built-in defaults ([Default])
//  2. the TOML file at $XDG_CONFIG_HOME/schemagraph/config.toml, or --config
//  3. variables from a .env file in the working directory
//  4. environment variables (SF_INSTANCE_URL, SF_ACCESS_TOKEN, SF_API_VERSION,
//     SCHEMAGRAPH_CACHE, SCHEMAGRAPH_CACHE_DIR, REDIS_ADDR, MONGO_URI,
//     SCHEMAGRAPH_ADDR)
//
// A minimal file:
//
//	[salesforce]
//	instance_url = "https://acme.my.salesforce.com"
//	api_version = "v60.0"
//
//	[limits]
//	depth = 2
//	fetch_timeout = "15s"
//
//	[cache]
//	backend = "redis"
//	[cache.redis]
//	addr = "localhost:6379"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/matzehuels/schemagraph/pkg/errors"
)

const appName = "schemagraph"

// Config is the full application configuration.
type Config struct {
	Salesforce SalesforceConfig `toml:"salesforce"`
	Limits     LimitsConfig     `toml:"limits"`
	Cache      CacheConfig      `toml:"cache"`
	Server     ServerConfig     `toml:"server"`
}

// SalesforceConfig selects the org and how hard it may be queried.
type SalesforceConfig struct {
	InstanceURL string  `toml:"instance_url" validate:"omitempty,url"`
	AccessToken string  `toml:"access_token"`
	APIVersion  string  `toml:"api_version"`
	RateLimit   float64 `toml:"rate_limit" validate:"gte=0"`
	Burst       int     `toml:"burst" validate:"gte=0"`
}

// LimitsConfig holds the default diagram options.
type LimitsConfig struct {
	Depth            int      `toml:"depth" validate:"gte=0,lte=10"`
	IncludeStandard  bool     `toml:"include_standard"`
	IncludeCustom    bool     `toml:"include_custom"`
	Layout           string   `toml:"layout" validate:"oneof=hierarchical radial grid force"`
	MaxNodes         int      `toml:"max_nodes" validate:"gte=1"`
	MaxEdges         int      `toml:"max_edges" validate:"gte=1"`
	FetchTimeout     Duration `toml:"fetch_timeout"`
	Workers          int      `toml:"workers" validate:"gte=0"`
	DiagramCacheSize int      `toml:"diagram_cache_size" validate:"gte=1"`
}

// CacheConfig selects the persistent describe and HTTP cache.
type CacheConfig struct {
	Backend string      `toml:"backend" validate:"oneof=file redis mongo none"`
	Dir     string      `toml:"dir"`
	TTL     Duration    `toml:"ttl"`
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"gte=0"`
}

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures `schemagraph serve`.
type ServerConfig struct {
	Addr              string   `toml:"addr" validate:"required"`
	ReadTimeout       Duration `toml:"read_timeout"`
	WriteTimeout      Duration `toml:"write_timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second" validate:"gte=0"`
	Burst             int      `toml:"burst" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Limits: LimitsConfig{
			Depth:            1,
			IncludeStandard:  true,
			IncludeCustom:    true,
			Layout:           "hierarchical",
			MaxNodes:         500,
			MaxEdges:         1000,
			FetchTimeout:     Duration(30 * time.Second),
			DiagramCacheSize: 128,
		},
		Cache: CacheConfig{
			Backend: "file",
			TTL:     Duration(24 * time.Hour),
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8080",
			ReadTimeout:       Duration(15 * time.Second),
			WriteTimeout:      Duration(2 * time.Minute),
			RequestsPerSecond: 10,
			Burst:             20,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/schemagraph/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// DefaultCacheDir returns the cache directory using XDG standard (~/.cache/schemagraph/).
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the configuration. An empty path reads the default file if it
// exists; an explicit path must exist. dotenv files are loaded into the
// process environment before overrides are applied; missing ones are skipped.
func Load(path string, dotenv ...string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	if err := loadDotEnv(dotenv...); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from environment variables looked up with
// lookup (normally os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("SF_INSTANCE_URL", &c.Salesforce.InstanceURL)
	set("SF_ACCESS_TOKEN", &c.Salesforce.AccessToken)
	set("SF_API_VERSION", &c.Salesforce.APIVersion)
	set("SCHEMAGRAPH_CACHE", &c.Cache.Backend)
	set("SCHEMAGRAPH_CACHE_DIR", &c.Cache.Dir)
	set("REDIS_ADDR", &c.Cache.Redis.Addr)
	set("MONGO_URI", &c.Cache.Mongo.URI)
	set("SCHEMAGRAPH_ADDR", &c.Server.Addr)
}

var validate = validator.New()

// Validate checks the configuration. Failures carry INVALID_INPUT.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid config")
	}
	switch c.Cache.Backend {
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis.addr is required for the redis backend")
		}
	case "mongo":
		if c.Cache.Mongo.URI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.mongo.uri is required for the mongo backend")
		}
	}
	if c.Salesforce.APIVersion != "" {
		if err := errors.ValidateAPIVersion(c.Salesforce.APIVersion); err != nil {
			return err
		}
	}
	return nil
}

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }
