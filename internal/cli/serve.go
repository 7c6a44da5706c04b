package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemagraph/pkg/observability"
	"github.com/matzehuels/schemagraph/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve diagrams over HTTP",
		Long: `Start the HTTP API. Diagrams are computed on demand, cached in memory and
returned as the JSON render contract or exported as DOT, SVG or PNG.

  GET /api/diagram/{object}?depth=2&layout=radial
  GET /api/diagram/{object}/svg
  GET /api/sobjects?custom=true
  GET /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := c.openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			cfg := server.Config{
				Runner:            e.runner,
				Metadata:          e.client,
				Defaults:          e.defaults,
				APIVersion:        e.version,
				Logger:            c.Logger,
				RequestsPerSecond: e.cfg.Server.RequestsPerSecond,
				Burst:             e.cfg.Server.Burst,
			}
			if metrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				hooks := observability.NewPrometheusHooks(reg)
				observability.SetPipelineHooks(hooks)
				observability.SetCacheHooks(hooks)
				observability.SetHTTPHooks(hooks)
				defer observability.Reset()
				cfg.Gatherer = reg
			}

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}

			listen := e.cfg.Server.Addr
			if cmd.Flags().Changed("addr") {
				listen = addr
			}
			printInfo("Serving %s on %s", StyleHighlight.Render(e.version), StyleLink.Render("http://"+listen))
			return srv.ListenAndServe(ctx, listen, e.cfg.Server.ReadTimeout.D(), e.cfg.Server.WriteTimeout.D())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&metrics, "metrics", true, "expose Prometheus metrics on /metrics")
	return cmd
}
