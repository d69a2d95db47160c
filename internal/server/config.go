package server

import (
	"net"
	"strconv"
	"time"

	"github.com/agentstation/storefront/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// CORS settings; empty allows every origin
	CORSOrigins []string

	// RequestTimeout bounds each inbound request end to end
	RequestTimeout time.Duration

	// HTTP timeouts
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:              constants.DefaultHost,
		Port:              constants.DefaultPort,
		RequestTimeout:    constants.RequestBudget,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   constants.ShutdownTimeout,
	}
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
