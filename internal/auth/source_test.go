package auth

import (
	"context"
	"fmt"
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

var testCreds = Credentials{
	ClientID:     "1000.CLIENT",
	ClientSecret: "s3cr3t",
	RefreshToken: "1000.refresh",
}

type tokenServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newTokenServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, n int32)) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := ts.calls.Add(1)
		handler(w, r, n)
	}))
	t.Cleanup(ts.Close)
	return ts
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingRecorder struct {
	ok, failed atomic.Int32
}

func (r *countingRecorder) TokenRefresh(ok bool) {
	if ok {
		r.ok.Add(1)
		return
	}
	r.failed.Add(1)
}

func TestSource_ExchangeRequest(t *testing.T) {
	var got *http.Request
	ts := newTokenServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		got = r.Clone(context.Background())
		fmt.Fprint(w, `{"access_token":"1000.access","expires_in":3600,"token_type":"Bearer"}`)
	})

	src := NewSource(testCreds, WithAccountsURL(ts.URL))
	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1000.access", tok)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/oauth/v2/token", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "1000.refresh", q.Get("refresh_token"))
	assert.Equal(t, "1000.CLIENT", q.Get("client_id"))
	assert.Equal(t, "s3cr3t", q.Get("client_secret"))
	assert.Equal(t, "refresh_token", q.Get("grant_type"))
}

func TestSource_CachesUntilExpiry(t *testing.T) {
	ts := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request, n int32) {
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, n)
	})

	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	src := NewSource(testCreds, WithAccountsURL(ts.URL), WithClock(clk.Now))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tok, err := src.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-1", tok)
	}
	assert.Equal(t, int32(1), ts.calls.Load())

	st := src.Status()
	assert.Equal(t, StateValid, st.State)
	assert.Equal(t, clk.Now().Add(time.Hour-time.Minute), st.ExpiresAt)

	// Past expiry minus skew the token is exchanged again.
	clk.Advance(59*time.Minute + time.Second)
	assert.Equal(t, StateExpired, src.Status().State)

	tok, err := src.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, int32(2), ts.calls.Load())
}

func TestSource_ForceRefresh(t *testing.T) {
	ts := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request, n int32) {
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, n)
	})

	src := NewSource(testCreds, WithAccountsURL(ts.URL))
	ctx := context.Background()

	first, err := src.Token(ctx)
	require.NoError(t, err)
	forced, err := src.ForceRefresh(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, forced)

	again, err := src.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, forced, again)
	assert.Equal(t, int64(2), src.Status().Refreshes)
}

func TestSource_ConcurrentCallersShareOneExchange(t *testing.T) {
	release := make(chan struct{})
	ts := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request, n int32) {
		<-release
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, n)
	})

	src := NewSource(testCreds, WithAccountsURL(ts.URL))

	const callers = 20
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = src.Token(context.Background())
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.LessOrEqual(t, ts.calls.Load(), int32(2))
}

func TestSource_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, r *http.Request, n int32)
		msg     string
		status  int
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, _ *http.Request, _ int32) {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_client"}`)
			},
			msg:    "invalid_client",
			status: http.StatusBadRequest,
		},
		{
			name: "error in 200 body",
			handler: func(w http.ResponseWriter, _ *http.Request, _ int32) {
				fmt.Fprint(w, `{"error":"invalid_code"}`)
			},
			msg:    "invalid_code",
			status: http.StatusOK,
		},
		{
			name: "missing access token",
			handler: func(w http.ResponseWriter, _ *http.Request, _ int32) {
				fmt.Fprint(w, `{"expires_in":3600}`)
			},
			msg:    "no access_token",
			status: http.StatusOK,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request, _ int32) {
				fmt.Fprint(w, `<html>`)
			},
			msg:    "malformed",
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t, tt.handler)
			rec := &countingRecorder{}
			src := NewSource(testCreds, WithAccountsURL(ts.URL), WithRecorder(rec))

			_, err := src.Token(context.Background())
			require.Error(t, err)

			var ae *errors.AuthError
			require.ErrorAs(t, err, &ae)
			assert.Contains(t, ae.Message, tt.msg)
			assert.Equal(t, tt.status, ae.StatusCode)
			assert.NotContains(t, err.Error(), testCreds.ClientSecret)
			assert.Equal(t, int32(1), rec.failed.Load())
			assert.Equal(t, StateMissing, src.Status().State)
		})
	}
}

func TestSource_Timeout(t *testing.T) {
	ts := newTokenServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		<-r.Context().Done()
	})

	src := NewSource(testCreds, WithAccountsURL(ts.URL), WithTimeout(50*time.Millisecond))
	_, err := src.Token(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsAuthError(err), "got %v", err)
	assert.True(t, errors.IsTimeout(err), "got %v", err)
}

func TestSource_ConnectionErrorDoesNotLeakSecrets(t *testing.T) {
	ts := newTokenServer(t, func(http.ResponseWriter, *http.Request, int32) {})
	ts.Close()

	logs := logging.CaptureLoggingForTest(t)
	src := NewSource(testCreds, WithAccountsURL(ts.URL))

	_, err := src.Token(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsAuthError(err))

	for _, secret := range []string{testCreds.ClientSecret, testCreds.RefreshToken} {
		assert.NotContains(t, err.Error(), secret)
		var ae *errors.AuthError
		require.ErrorAs(t, err, &ae)
		assert.NotContains(t, fmt.Sprint(ae.Err), secret)
		logs.AssertNotContains(t, secret)
	}
}

func TestSource_MissingCredentials(t *testing.T) {
	src := NewSource(Credentials{ClientID: "id"}, WithAccountsURL("http://127.0.0.1:0"))
	_, err := src.Token(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsAuthError(err))
	assert.Contains(t, err.Error(), "CLIENT_SECRET")
}

func TestSource_CallerCancelStopsWaiting(t *testing.T) {
	release := make(chan struct{})
	ts := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request, _ int32) {
		<-release
		fmt.Fprint(w, `{"access_token":"late","expires_in":3600}`)
	})
	defer close(release)

	src := NewSource(testCreds, WithAccountsURL(ts.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := src.Token(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err), "got %v", err)
}

func TestCredentials(t *testing.T) {
	s := testCreds.String()
	assert.False(t, strings.Contains(s, "s3cr3t"))
	assert.False(t, strings.Contains(fmt.Sprintf("%v %+v %#v", testCreds, testCreds, testCreds), "1000.refresh"))
	assert.NoError(t, testCreds.Validate())

	tests := []struct {
		creds Credentials
		want  string
	}{
		{Credentials{}, "CLIENT_ID"},
		{Credentials{ClientID: "a"}, "CLIENT_SECRET"},
		{Credentials{ClientID: "a", ClientSecret: "b"}, "REFRESH_TOKEN"},
	}
	for _, tt := range tests {
		err := tt.creds.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Validate(%v) = %v, want mention of %s", tt.creds, err, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "missing", StateMissing.String())
	assert.Equal(t, "valid", StateValid.String())
	assert.Equal(t, "expired", StateExpired.String())
}
