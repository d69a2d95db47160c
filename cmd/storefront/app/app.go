// Package app provides the application context and dependency management
// for the storefront CLI. It centralizes configuration, logging, and the
// upstream client graph shared by the commands.
package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/output"
	"github.com/agentstation/storefront/internal/creator"
	"github.com/agentstation/storefront/internal/directory"
	"github.com/agentstation/storefront/internal/metrics"
	"github.com/agentstation/storefront/internal/reviews"
	"github.com/agentstation/storefront/internal/server"
	"github.com/agentstation/storefront/internal/transport"
	"github.com/agentstation/storefront/pkg/errors"
)

// App represents the storefront application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	metrics *metrics.Metrics

	// Upstream graph (lazy-initialized, singleton)
	mu      sync.Mutex
	tokens  *auth.Source
	service application.Service
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
// Configuration is loaded from the environment and can be replaced using
// functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		metrics: metrics.New(),
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Metrics returns the collectors shared by the server and the clients.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// ServerConfig returns the HTTP server settings.
func (a *App) ServerConfig() server.Config {
	return a.config.ServerConfig()
}

// OutputFormat returns the requested output format, detecting one from the
// terminal when none was given.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// Tokens returns the access token source, building it on first use.
func (a *App) Tokens() (application.TokenSource, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.buildTokens(); err != nil {
		return nil, err
	}
	return a.tokens, nil
}

// Service returns the store directory, building the client graph on first
// use. Every caller shares one token source and one cache.
func (a *App) Service() (application.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.service != nil {
		return a.service, nil
	}
	if err := a.buildTokens(); err != nil {
		return nil, err
	}

	c := a.config
	doer := transport.New(a.tokens,
		transport.WithTimeout(c.ReportTimeout),
		transport.WithRecorder(a.metrics),
	)
	client := creator.New(doer, creator.Config{
		BaseURL: c.CreatorURL,
		Owner:   c.Owner,
		App:     c.App,
	})
	a.service = directory.New(client, reviews.NewSubmitter(client, c.ReviewForm), directory.Config{
		StoreReport:  c.StoreReport,
		ReviewReport: c.ReviewReport,
		CacheTTL:     c.CacheTTL,
	})

	a.logger.Debug().
		Str("creator_url", c.CreatorURL).
		Str("owner", c.Owner).
		Str("app", c.App).
		Dur("cache_ttl", c.CacheTTL).
		Msg("Upstream client initialized")

	return a.service, nil
}

// buildTokens must be called with a.mu held.
func (a *App) buildTokens() error {
	if a.tokens != nil {
		return nil
	}
	if err := a.config.RequireCredentials(); err != nil {
		return err
	}
	if err := a.config.Validate(); err != nil {
		return err
	}
	a.tokens = auth.NewSource(a.config.Credentials,
		auth.WithAccountsURL(a.config.AccountsURL),
		auth.WithTimeout(a.config.TokenTimeout),
		auth.WithRecorder(a.metrics),
	)
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewConfigError("app", "nil config", nil)
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithService replaces the upstream client graph.
func WithService(svc application.Service) Option {
	return func(a *App) error {
		a.service = svc
		return nil
	}
}
