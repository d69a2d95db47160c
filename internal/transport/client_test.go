package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

type fakeTokens struct {
	mu        sync.Mutex
	current   string
	next      string
	refreshes int
	err       error
}

func (f *fakeTokens) Token(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.err
}

func (f *fakeTokens) ForceRefresh(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	f.current = f.next
	return f.current, f.err
}

type fakeRecorder struct {
	mu       sync.Mutex
	statuses []int
}

func (r *fakeRecorder) Upstream(_ string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func getRequest(url string) RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestSchemeAuth(t *testing.T) {
	tests := []struct {
		name  string
		auth  Authenticator
		token string
		want  string
	}{
		{"oauth token scheme", OAuthTokenAuth(), "abc", "Zoho-oauthtoken abc"},
		{"bearer scheme", BearerAuth(), "abc", "Bearer abc"},
		{"empty token leaves header unset", OAuthTokenAuth(), "", ""},
		{"no auth", &NoAuth{}, "abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{Header: make(http.Header)}
			tt.auth.Apply(req, tt.token)
			if got := req.Header.Get("Authorization"); got != tt.want {
				t.Errorf("Authorization = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientDo_Success(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"code":3000,"data":[]}`))
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	c := New(&fakeTokens{current: "tok-1"}, WithRecorder(rec))

	resp, err := c.Do(context.Background(), "report", getRequest(srv.URL+"/report/Store_Report"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Zoho-oauthtoken tok-1", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, []int{200}, rec.statuses)

	var envelope struct {
		Code int `json:"code"`
	}
	require.NoError(t, DecodeJSON(resp, "report", &envelope))
	assert.Equal(t, 3000, envelope.Code)
}

func TestClientDo_RetriesOnceOn401(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Zoho-oauthtoken fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":1030,"message":"INVALID_OAUTHTOKEN"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tokens := &fakeTokens{current: "stale", next: "fresh"}
	c := New(tokens)
	logs := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), logs.Logger)

	resp, err := c.Do(ctx, "report", getRequest(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, tokens.refreshes)

	logs.AssertContains(t, "refreshing and retrying once")
	logs.AssertContains(t, `"operation":"report"`)
}

func TestClientDo_GivesUpAfterSecond401(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("INVALID_OAUTHTOKEN"))
	}))
	defer srv.Close()

	tokens := &fakeTokens{current: "stale", next: "still-stale"}
	c := New(tokens)

	_, err := c.Do(context.Background(), "report", getRequest(srv.URL))
	require.Error(t, err)

	var ue *errors.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
	assert.Equal(t, "INVALID_OAUTHTOKEN", ue.Body)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, tokens.refreshes)
}

func TestClientDo_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 10000)))
	}))
	defer srv.Close()

	tokens := &fakeTokens{current: "tok"}
	c := New(tokens)

	_, err := c.Do(context.Background(), "report", getRequest(srv.URL+"/report/Review_Report"))
	var ue *errors.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadGateway, ue.StatusCode)
	assert.Equal(t, "/report/Review_Report", ue.Endpoint)
	assert.True(t, strings.HasSuffix(ue.Body, "...(truncated)"))
	assert.Equal(t, 0, tokens.refreshes)
}

func TestClientDo_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	rec := &fakeRecorder{}
	c := New(&fakeTokens{current: "tok"}, WithTimeout(50*time.Millisecond), WithRecorder(rec))

	_, err := c.Do(context.Background(), "report", getRequest(srv.URL))
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err), "got %v", err)
	assert.Equal(t, []int{0}, rec.statuses)
}

func TestClientDo_CallerCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	c := New(&fakeTokens{current: "tok"})
	_, err := c.Do(ctx, "report", getRequest(srv.URL))
	require.Error(t, err)
	assert.True(t, errors.IsCanceled(err), "got %v", err)
}

func TestClientDo_TokenError(t *testing.T) {
	authErr := errors.NewAuthError("token", 400, "invalid_client", nil)
	c := New(&fakeTokens{err: authErr})

	_, err := c.Do(context.Background(), "report", getRequest("http://127.0.0.1:0"))
	assert.ErrorIs(t, err, errors.ErrUnauthorized)
}

func TestDecodeJSON_ParseError(t *testing.T) {
	var v map[string]any
	err := DecodeJSON(&Response{Body: []byte("<html>")}, "report", &v)

	var pe *errors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "json", pe.Format)
}
