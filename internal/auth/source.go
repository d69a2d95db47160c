package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/agentstation/storefront/internal/cache"
	"github.com/agentstation/storefront/internal/transport"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

const tokenPath = "/oauth/v2/token"

// Recorder receives one observation per token exchange.
type Recorder interface {
	TokenRefresh(ok bool)
}

// Source is a transport.TokenSource backed by the refresh-token grant.
// Concurrent callers that find no usable token share a single exchange.
type Source struct {
	creds    Credentials
	endpoint string
	http     *http.Client
	timeout  time.Duration
	skew     time.Duration
	recorder Recorder
	now      func() time.Time

	tokens    *cache.Cache[Token]
	group     singleflight.Group
	mu        sync.Mutex
	last      Token
	refreshes atomic.Int64
}

var _ transport.TokenSource = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithAccountsURL sets the accounts server base URL.
func WithAccountsURL(base string) Option {
	return func(s *Source) {
		if base != "" {
			s.endpoint = strings.TrimRight(base, "/") + tokenPath
		}
	}
}

// WithHTTPClient replaces the HTTP client used for the exchange.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Source) {
		if hc != nil {
			s.http = hc
		}
	}
}

// WithTimeout bounds one exchange.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithExpirySkew sets how long before expiry a token is considered stale.
func WithExpirySkew(d time.Duration) Option {
	return func(s *Source) {
		if d >= 0 {
			s.skew = d
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Source) {
		s.recorder = r
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSource creates a token source for creds.
func NewSource(creds Credentials, opts ...Option) *Source {
	s := &Source{
		creds:    creds,
		endpoint: constants.DefaultAccountsURL + tokenPath,
		http:     transport.NewHTTPClient(0),
		timeout:  constants.TokenTimeout,
		skew:     constants.TokenExpirySkew,
		now:      time.Now,
		tokens:   cache.New[Token](cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the cached access token, exchanging the refresh token
// first when there is none or it has expired.
func (s *Source) Token(ctx context.Context) (string, error) {
	if tok, ok := s.cached(); ok {
		return tok.Value, nil
	}
	tok, err := s.shared(ctx)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

// ForceRefresh drops the cached token and exchanges a new one.
func (s *Source) ForceRefresh(ctx context.Context) (string, error) {
	s.tokens.Delete(s.creds.ClientID)
	tok, err := s.shared(ctx)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

// Status describes the cached token without exposing it.
func (s *Source) Status() Status {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	st := Status{ExpiresAt: last.ExpiresAt, Refreshes: s.refreshes.Load()}
	switch {
	case last.Value == "":
		st.State = StateMissing
	case last.Valid(s.now()):
		st.State = StateValid
	default:
		st.State = StateExpired
	}
	return st
}

func (s *Source) cached() (Token, bool) {
	tok, found := s.tokens.Get(s.creds.ClientID)
	if !found || !tok.Valid(s.now()) {
		return Token{}, false
	}
	return tok, true
}

// shared runs one exchange for all concurrent callers. The exchange is
// detached from any single caller's cancellation; each caller still stops
// waiting when its own context ends.
func (s *Source) shared(ctx context.Context) (Token, error) {
	ch := s.group.DoChan("refresh", func() (any, error) {
		if tok, ok := s.cached(); ok {
			return tok, nil
		}
		return s.Refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil
	case <-ctx.Done():
		return Token{}, transport.Classify(ctx, ctx, "token refresh", s.timeout, ctx.Err())
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Error       string `json:"error"`
}

// Refresh performs one token exchange and caches the result. Most callers
// want Token or ForceRefresh instead.
func (s *Source) Refresh(ctx context.Context) (Token, error) {
	if err := s.creds.Validate(); err != nil {
		return Token{}, errors.NewAuthError(s.endpoint, 0, err.Error(), err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := logging.Ctx(ctx)
	tok, err := s.exchange(callCtx)
	if err != nil {
		if !errors.IsAuthError(err) {
			err = s.transportFailure(ctx, callCtx, err)
		}
		s.report(false)
		log.Error().Err(err).Str("endpoint", s.endpoint).Msg("token refresh failed")
		return Token{}, err
	}

	ttl := tok.ExpiresAt.Sub(s.now())
	s.tokens.SetWithTTL(s.creds.ClientID, tok, ttl)
	s.mu.Lock()
	s.last = tok
	s.mu.Unlock()
	s.refreshes.Add(1)
	s.report(true)

	log.Debug().Time("expires_at", tok.ExpiresAt).Msg("access token refreshed")
	return tok, nil
}

func (s *Source) exchange(ctx context.Context) (Token, error) {
	params := url.Values{}
	params.Set("refresh_token", s.creds.RefreshToken)
	params.Set("client_id", s.creds.ClientID)
	params.Set("client_secret", s.creds.ClientSecret)
	params.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Token{}, errors.NewAuthError(s.endpoint, 0, "invalid token endpoint", nil)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		// url.Error embeds the full URL, which carries the secrets.
		return Token{}, scrub(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var body tokenResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if body.Error != "" {
			msg = body.Error
		}
		return Token{}, errors.NewAuthError(s.endpoint, resp.StatusCode, msg, nil)
	}
	if decodeErr != nil {
		return Token{}, errors.NewAuthError(s.endpoint, resp.StatusCode, "malformed token response", errors.WrapParse("json", "token response", decodeErr))
	}
	if body.Error != "" {
		return Token{}, errors.NewAuthError(s.endpoint, resp.StatusCode, body.Error, nil)
	}
	if body.AccessToken == "" {
		return Token{}, errors.NewAuthError(s.endpoint, resp.StatusCode, "token response has no access_token", nil)
	}

	lifetime := constants.DefaultTokenLifetime
	if body.ExpiresIn > 0 {
		lifetime = time.Duration(body.ExpiresIn) * time.Second
	}
	if lifetime > s.skew {
		lifetime -= s.skew
	}

	return Token{Value: body.AccessToken, ExpiresAt: s.now().Add(lifetime)}, nil
}

// transportFailure turns a failed round trip into an AuthError. A timeout
// stays visible in the chain as a TimeoutError.
func (s *Source) transportFailure(parent, call context.Context, err error) error {
	err = transport.Classify(parent, call, "token refresh", s.timeout, err)
	switch {
	case errors.IsCanceled(err):
		return err
	case errors.IsTimeout(err):
		return errors.NewAuthError(s.endpoint, 0, "token request timed out", err)
	default:
		return errors.NewAuthError(s.endpoint, 0, "token request failed", err)
	}
}

func (s *Source) report(ok bool) {
	if s.recorder != nil {
		s.recorder.TokenRefresh(ok)
	}
}

// scrub strips the request URL from a client error so query parameters
// never reach logs or responses.
func scrub(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: "token endpoint", Err: ue.Err}
	}
	return err
}
