// Package serve provides the HTTP server command for the storefront CLI.
package serve

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/server"
)

// NewCommand creates the serve command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the store and review API server",
		Long: `Start the HTTP API that proxies store and review data from the data
platform.

Endpoints:
  GET  /health          liveness check
  GET  /api/stores      all stores
  GET  /api/reviews     reviews for ?store_name=
  POST /api/reviews     submit a review (multipart, optional Image file)
  GET  /api/directory   stores with their reviews and average rating
  GET  /metrics         Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  # Start on the default port (10000)
  storefront serve

  # Bind to localhost on a custom port
  storefront serve --host 127.0.0.1 --port 8080

  # Restrict CORS to one origin
  storefront serve --cors-origins https://shop.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app)
		},
	}

	cmd.Flags().Int("port", 0, "Server port (default from PORT or 10000)")
	cmd.Flags().String("host", "", "Bind address (default from HOST, all interfaces)")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins (default all)")
	cmd.Flags().Duration("request-timeout", 0, "End-to-end budget per request (default from REQUEST_TIMEOUT or 15s)")
	cmd.Flags().Bool("metrics", true, "Expose /metrics")

	return cmd
}

func run(cmd *cobra.Command, app application.Application) error {
	cfg := parseConfig(cmd, app.ServerConfig())
	logger := app.Logger()

	svc, err := app.Service()
	if err != nil {
		return err
	}

	m := app.Metrics()
	if enabled, _ := cmd.Flags().GetBool("metrics"); !enabled {
		m = nil
	}

	srv, err := server.New(svc, m, logger, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Strs("cors_origins", cfg.CORSOrigins).
		Dur("request_timeout", cfg.RequestTimeout).
		Bool("metrics", m != nil).
		Str("version", app.Version()).
		Msg("Starting API server")

	return srv.ListenAndServe(cmd.Context())
}

// parseConfig overlays explicitly set flags on the configured defaults.
func parseConfig(cmd *cobra.Command, cfg server.Config) server.Config {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("cors-origins") {
		cfg.CORSOrigins, _ = flags.GetStringSlice("cors-origins")
	}
	if flags.Changed("request-timeout") {
		cfg.RequestTimeout, _ = flags.GetDuration("request-timeout")
	}
	return cfg
}
