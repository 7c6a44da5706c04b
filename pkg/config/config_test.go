package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/schemagraph/pkg/cache"
	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/layout"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	opts, err := cfg.Limits.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if opts.Depth != 1 || !opts.IncludeStandard || !opts.IncludeCustom || opts.Layout != layout.Hierarchical {
		t.Errorf("unexpected default options: %+v", opts)
	}
	if opts.MaxNodes != 500 || opts.MaxEdges != 1000 || opts.FetchTimeout != 30*time.Second {
		t.Errorf("unexpected default caps: %+v", opts)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[salesforce]
instance_url = "https://acme.my.salesforce.com"
api_version = "v59.0"
rate_limit = 5.0

[limits]
depth = 3
include_standard = false
layout = "force"
fetch_timeout = "5s"

[cache]
backend = "none"

[server]
addr = ":9090"
`)

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Salesforce.InstanceURL != "https://acme.my.salesforce.com" || cfg.Salesforce.APIVersion != "v59.0" {
		t.Errorf("salesforce = %+v", cfg.Salesforce)
	}
	if cfg.Limits.Depth != 3 || cfg.Limits.IncludeStandard || !cfg.Limits.IncludeCustom {
		t.Errorf("limits = %+v", cfg.Limits)
	}
	if cfg.Limits.FetchTimeout.D() != 5*time.Second {
		t.Errorf("fetch_timeout = %v", cfg.Limits.FetchTimeout.D())
	}
	if cfg.Limits.MaxNodes != 500 {
		t.Errorf("unset max_nodes should keep default, got %d", cfg.Limits.MaxNodes)
	}
	opts, err := cfg.Limits.Options()
	if err != nil || opts.Layout != layout.Grid {
		t.Errorf("Options = %+v, %v", opts, err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server.addr = %q", cfg.Server.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[limits\ndepth = 1"},
		{"unknown key", "[limits]\ncolour = 1"},
		{"depth too deep", "[limits]\ndepth = 40"},
		{"bad layout", "[limits]\nlayout = \"spiral\""},
		{"bad duration", "[limits]\nfetch_timeout = \"soon\""},
		{"redis without addr", "[cache]\nbackend = \"redis\""},
		{"bad backend", "[cache]\nbackend = \"s3\""},
		{"bad version", "[salesforce]\napi_version = \"latest\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "c.toml", tt.content)
			if _, err := Load(path, filepath.Join(dir, "missing.env")); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "nope.toml")); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(env(map[string]string{
		"SF_INSTANCE_URL":   "https://env.my.salesforce.com",
		"SF_ACCESS_TOKEN":   "00D!token",
		"SF_API_VERSION":    "61.0",
		"SCHEMAGRAPH_CACHE": "redis",
		"REDIS_ADDR":        "redis:6379",
		"MONGO_URI":         "",
		"SCHEMAGRAPH_ADDR":  ":7000",
	}))

	if cfg.Salesforce.InstanceURL != "https://env.my.salesforce.com" || cfg.Salesforce.AccessToken != "00D!token" {
		t.Errorf("salesforce = %+v", cfg.Salesforce)
	}
	if cfg.Salesforce.APIVersion != "61.0" {
		t.Errorf("api_version = %q", cfg.Salesforce.APIVersion)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.Redis.Addr != "redis:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Cache.Mongo.URI != "" {
		t.Error("empty env value should not override")
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("server.addr = %q", cfg.Server.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "SF_ACCESS_TOKEN=from-dotenv\n")
	cfgFile := writeFile(t, dir, "config.toml", "")
	t.Setenv("SF_ACCESS_TOKEN", "")
	os.Unsetenv("SF_ACCESS_TOKEN")

	cfg, err := Load(cfgFile, envFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Salesforce.AccessToken != "from-dotenv" {
		t.Errorf("access token = %q", cfg.Salesforce.AccessToken)
	}
}

func TestValidateCode(t *testing.T) {
	cfg := Default()
	cfg.Limits.MaxEdges = 0
	if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Validate = %v, want INVALID_INPUT", err)
	}
}

func TestDuration(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil || d.D() != 90*time.Second {
		t.Errorf("UnmarshalText = %v, %v", d.D(), err)
	}
	if err := d.UnmarshalText([]byte("-1s")); err == nil {
		t.Error("negative durations should be rejected")
	}
	b, _ := Duration(2 * time.Second).MarshalText()
	if string(b) != "2s" {
		t.Errorf("MarshalText = %s", b)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()
	cfg := Default()
	cfg.Cache.Dir = t.TempDir()

	c, err := cfg.OpenCache(ctx, false)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if fc, ok := c.(*cache.FileCache); !ok || fc.Dir() != cfg.Cache.Dir {
		t.Errorf("OpenCache = %T", c)
	}

	c, err = cfg.OpenCache(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.FileCache); ok {
		t.Error("noCache should return the null cache")
	}

	cfg.Cache.Backend = "none"
	c, _ = cfg.OpenCache(ctx, false)
	if _, ok := c.(*cache.FileCache); ok {
		t.Error("backend none should return the null cache")
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultCacheDir()
	if err != nil || dir != "/tmp/xdg/schemagraph" {
		t.Errorf("DefaultCacheDir = %q, %v", dir, err)
	}
}
