package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleviz/internal/server"
	"github.com/matzehuels/ruleviz/pkg/observability"
	"github.com/matzehuels/ruleviz/pkg/pipeline"
)

// serveCommand creates the serve command, which hosts the rule form.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen    string
		noMetrics bool
		noSample  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rule form and the layout API over HTTP",
		Long: `Serve the rule form and the layout API over HTTP.

GET / shows a form with a rule and its data. Submitting it evaluates the rule,
draws its syntax tree and shows both below the form. The JSON endpoints
POST /api/layout and POST /api/render lay out and draw ASTs directly, and
GET /metrics exposes Prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				c.Config.Listen = listen
			}
			return c.runServe(cmd.Context(), !noMetrics, !noSample)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default "+c.Config.Listen+")")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")
	cmd.Flags().BoolVar(&noSample, "no-sample", false, "start the form with empty data")

	return cmd
}

// runServe serves until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, metrics, sample bool) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := []server.Option{server.WithLogger(logger)}
	if metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		prom := observability.NewPrometheus(reg)
		prom.Install()
		defer observability.Reset()
		opts = append(opts, server.WithMetrics(prom.Handler()))
	}
	if sample {
		opts = append(opts, server.WithSampleData(pipeline.SampleData()))
	}

	srv := server.New(runner, opts...)
	printSuccess("Serving on http://%s", c.Config.Listen)
	printDetail("Rule service: %s", c.Config.Server)
	return server.ListenAndServe(ctx, c.Config.Listen, srv.Handler(), logger)
}
