// Package application provides the application interface for storefront
// commands.
//
// Commands accept an Application rather than the concrete app so they can
// be tested with Mock:
//
//	mock := &application.Mock{
//	    ServiceFunc: func() (application.Service, error) {
//	        return fakeService, nil
//	    },
//	}
//	cmd := stores.NewCommand(mock)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/metrics"
	"github.com/agentstation/storefront/internal/server"
	"github.com/agentstation/storefront/internal/server/handlers"
)

// Service is the store directory the commands and the HTTP API read from.
type Service = handlers.Service

// TokenSource exchanges and reports on access tokens.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Status() auth.Status
}

// Application provides the application interface that commands need.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Service returns the store directory, building the upstream client
	// graph on first use. It fails when credentials are missing.
	Service() (Service, error)

	// Tokens returns the access token source shared with Service.
	Tokens() (TokenSource, error)

	// Metrics returns the collectors shared by the server and the clients.
	Metrics() *metrics.Metrics

	// ServerConfig returns the HTTP server settings.
	ServerConfig() server.Config

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
