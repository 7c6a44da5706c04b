package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemagraph/pkg/cache"
	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/integrations/salesforce"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the describe and HTTP response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached describes and responses",
		Long: `Clear the persistent cache.

With --version only the describes of that API version are dropped. On shared
backends (redis, mongo) only entries of the current org are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			if version == "" && cfg.Cache.Backend == "file" {
				dir, err := cfg.CacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					printInfo("Cache is empty")
					return nil
				}
				fc, err := cache.NewFileCache(dir)
				if err != nil {
					return err
				}
				if err := fc.Clear(); err != nil {
					return err
				}
				printSuccess("Cleared cache")
				printDetail("Directory: %s", dir)
				return nil
			}

			e, err := c.openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if version != "" {
				if err := errors.ValidateAPIVersion(version); err != nil {
					return err
				}
				version = errors.NormalizeAPIVersion(version)
				if err := e.runner.InvalidateVersion(ctx, version); err != nil {
					return err
				}
				printSuccess("Cleared describes of %s", version)
				return nil
			}

			pd, ok := e.store.(cache.PrefixDeleter)
			if !ok {
				printInfo("The %s backend keeps nothing to clear", cfg.Cache.Backend)
				return nil
			}
			prefix := orgPrefix(e.client.BaseURL())
			if err := pd.DeletePrefix(ctx, prefix); err != nil {
				return err
			}
			httpPrefix := cache.NewDefaultKeyer().HTTPKey(salesforce.CacheNamespace(e.client.BaseURL()), "")
			if err := pd.DeletePrefix(ctx, httpPrefix); err != nil {
				return err
			}
			printSuccess("Cleared cache (%s)", cfg.Cache.Backend)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "only clear describes of this API version")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend != "file" {
				printInfo("Cache backend is %s", cfg.Cache.Backend)
				return nil
			}
			dir, err := cfg.CacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
