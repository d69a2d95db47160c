// Package auth exchanges the long-lived refresh token for short-lived
// access tokens and caches them until shortly before they expire.
package auth

import (
	"time"

	"github.com/agentstation/storefront/pkg/errors"
)

// Credentials are the static OAuth client credentials loaded at startup.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// String never renders secret values.
func (c Credentials) String() string {
	return "Credentials{ClientID:" + redact(c.ClientID) +
		" ClientSecret:" + redact(c.ClientSecret) +
		" RefreshToken:" + redact(c.RefreshToken) + "}"
}

// GoString keeps %#v from printing secrets too.
func (c Credentials) GoString() string {
	return c.String()
}

// Validate reports the first missing credential by its environment name.
func (c Credentials) Validate() error {
	switch {
	case c.ClientID == "":
		return errors.NewConfigError("credentials", "CLIENT_ID is required", nil)
	case c.ClientSecret == "":
		return errors.NewConfigError("credentials", "CLIENT_SECRET is required", nil)
	case c.RefreshToken == "":
		return errors.NewConfigError("credentials", "REFRESH_TOKEN is required", nil)
	}
	return nil
}

func redact(s string) string {
	if s == "" {
		return `""`
	}
	return "[redacted]"
}

// Token is an access token and the instant it stops being usable.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token is non-empty and unexpired at now.
func (t Token) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// State represents the lifecycle state of the cached access token.
type State int

const (
	// StateMissing means no token has been obtained yet.
	StateMissing State = iota
	// StateValid means a cached token is usable.
	StateValid
	// StateExpired means the cached token has passed its expiry.
	StateExpired
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	default:
		return "missing"
	}
}

// Status describes the cached token without exposing its value.
type Status struct {
	State     State
	ExpiresAt time.Time
	Refreshes int64
}
