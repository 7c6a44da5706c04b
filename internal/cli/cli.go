// Package cli implements the schemagraph command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemagraph/pkg/buildinfo"
	"github.com/matzehuels/schemagraph/pkg/cache"
	"github.com/matzehuels/schemagraph/pkg/config"
	"github.com/matzehuels/schemagraph/pkg/describe"
	"github.com/matzehuels/schemagraph/pkg/erd"
	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/integrations/salesforce"
	"github.com/matzehuels/schemagraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "schemagraph"

	// orgTimeout bounds single metadata calls (identity, listings).
	orgTimeout = 30 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	apiVersion string
	noCache    bool

	// sessionDir overrides the session store location (tests).
	sessionDir string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Schemagraph draws entity-relationship diagrams of Salesforce orgs",
		Long: `Schemagraph crawls the metadata of a Salesforce org outward from one object,
builds the relationship graph under node and edge caps and lays it out as a
hierarchical, radial or grid diagram.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/schemagraph/config.toml)")
	root.PersistentFlags().StringVar(&c.apiVersion, "api-version", "", "metadata API version, e.g. 60.0")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "bypass the persistent cache")

	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.describeCommand())
	root.AddCommand(c.objectsCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.loginCommand())
	root.AddCommand(c.logoutCommand())
	root.AddCommand(c.whoamiCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Org Environment
// =============================================================================

// env is everything a command needs to talk to one org.
type env struct {
	cfg      *config.Config
	store    cache.Cache
	keyer    cache.Keyer
	client   *salesforce.Client
	runner   *pipeline.Runner
	version  string
	defaults pipeline.Options
}

func (e *env) Close() {
	if e.runner != nil {
		_ = e.runner.Close()
	}
	if e.store != nil {
		_ = e.store.Close()
	}
}

// loadConfig reads the config file, .env and environment.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// openEnv resolves credentials and wires the cache, client and runner.
func (c *CLI) openEnv(ctx context.Context) (*env, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	instanceURL, token, sessVersion, err := c.credentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := errors.ValidateInstanceURL(instanceURL); err != nil {
		return nil, err
	}

	version := firstNonEmpty(c.apiVersion, cfg.Salesforce.APIVersion, sessVersion, salesforce.DefaultAPIVersion)
	if err := errors.ValidateAPIVersion(version); err != nil {
		return nil, err
	}
	version = errors.NormalizeAPIVersion(version)

	defaults, err := cfg.Limits.Options()
	if err != nil {
		return nil, err
	}

	store, err := cfg.OpenCache(ctx, c.noCache)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	keyer := orgKeyer(cfg.Cache.Backend, instanceURL)

	client := salesforce.NewClient(salesforce.Options{
		InstanceURL: instanceURL,
		AccessToken: token,
		Cache:       store,
		CacheTTL:    cfg.Cache.TTL.D(),
		RateLimit:   cfg.Salesforce.RateLimit,
		Burst:       cfg.Salesforce.Burst,
	})

	describes := describe.NewCache(client, describe.WithStore(store, keyer), describe.WithLogger(c.Logger))
	runner, err := pipeline.NewRunner(describes, keyer, c.Logger,
		pipeline.WithBuilder(erd.NewWorker(cfg.Limits.Workers, erd.WithWorkerLogger(c.Logger))),
		pipeline.WithDiagramCacheSize(cfg.Limits.DiagramCacheSize),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	c.Logger.Debug("org", "instance", instanceURL, "version", version, "cache", cfg.Cache.Backend)
	return &env{
		cfg:      cfg,
		store:    store,
		keyer:    keyer,
		client:   client,
		runner:   runner,
		version:  version,
		defaults: defaults,
	}, nil
}

// credentials prefers config and environment, then the stored login.
func (c *CLI) credentials(ctx context.Context, cfg *config.Config) (instanceURL, token, version string, err error) {
	if cfg.Salesforce.InstanceURL != "" && cfg.Salesforce.AccessToken != "" {
		return cfg.Salesforce.InstanceURL, cfg.Salesforce.AccessToken, "", nil
	}
	sess, err := c.loadSession(ctx)
	if err != nil {
		return "", "", "", err
	}
	return sess.InstanceURL, sess.AccessToken, sess.APIVersion, nil
}

// orgKeyer scopes keys by org host on shared backends.
func orgKeyer(backend, instanceURL string) cache.Keyer {
	switch backend {
	case "redis", "mongo":
		return cache.NewScopedKeyer(nil, orgPrefix(instanceURL))
	}
	return cache.NewDefaultKeyer()
}

func orgPrefix(instanceURL string) string {
	host := instanceURL
	if u, err := url.Parse(instanceURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return "org:" + host + ":"
}

// orgError turns transport failures into messages that say what to do.
func orgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errors.ErrCodeSessionExpired) || errors.Is(err, errors.ErrCodeSessionNotFound) {
		return err
	}
	if isUnauthorized(err) {
		return errors.Wrap(errors.ErrCodeSessionExpired, err, "the org rejected the access token (run '%s login' again)", appName)
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
