package transport

import (
	"net/http"
)

// Authenticator applies an access token to an outbound request.
type Authenticator interface {
	Apply(req *http.Request, token string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// SchemeAuth sets "Authorization: <Scheme> <token>".
type SchemeAuth struct {
	Scheme string
}

// Apply implements the Authenticator interface for SchemeAuth.
func (a *SchemeAuth) Apply(req *http.Request, token string) {
	if token == "" {
		return
	}
	req.Header.Set("Authorization", a.Scheme+" "+token)
}

// OAuthTokenAuth is the scheme the data platform expects.
func OAuthTokenAuth() Authenticator {
	return &SchemeAuth{Scheme: "Zoho-oauthtoken"}
}

// BearerAuth is the standard OAuth2 bearer scheme.
func BearerAuth() Authenticator {
	return &SchemeAuth{Scheme: "Bearer"}
}
