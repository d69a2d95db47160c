package logging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.DebugLevel))

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Err(errors.New("boom")).Msg("error message")

	output := buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("Expected info message in output, got: %s", output)
	}
	if !strings.Contains(output, `"error":"boom"`) {
		t.Errorf("Expected error field in output, got: %s", output)
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithReport(ctx, "Store_Report")
	ctx = logging.WithEndpoint(ctx, "/api/stores")
	ctx = logging.WithRequestID(ctx, "req-123")
	ctx = logging.WithOperation(ctx, "report")

	logging.FromContext(ctx).Info().Msg("fetched")

	testLogger.AssertContains(t, `"report":"Store_Report"`)
	testLogger.AssertContains(t, `"endpoint":"/api/stores"`)
	testLogger.AssertContains(t, `"request_id":"req-123"`)
	testLogger.AssertContains(t, `"operation":"report"`)
	assert.Equal(t, "req-123", logging.RequestID(ctx))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Same(t, logging.Default(), logging.Ctx(context.Background()))
	assert.Empty(t, logging.RequestID(context.Background()))
}

func TestWithFields(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)

	ctx = logging.WithFields(ctx, map[string]any{
		"status":   502,
		"duration": 1500 * time.Millisecond,
		"retried":  true,
		"err":      errors.New("bad gateway"),
	})
	logging.Ctx(ctx).Warn().Msg("upstream failed")

	testLogger.AssertContains(t, `"status":502`)
	testLogger.AssertContains(t, `"retried":true`)
	testLogger.AssertContains(t, `"error":"bad gateway"`)
	assert.Len(t, testLogger.Lines(), 1)
}

func TestNewLoggerFromConfig(t *testing.T) {
	t.Run("json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "storefront.log")
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "warn",
			Format: "json",
			Output: path,
			Fields: map[string]any{"service": "storefront"},
		})

		logger.Info().Msg("hidden")
		logger.Warn().Msg("visible")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "visible")
		assert.Contains(t, string(data), `"service":"storefront"`)
		assert.NotContains(t, string(data), "hidden")
	})

	t.Run("file in missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "nested", "storefront.log")
		logger := logging.NewLoggerFromConfig(&logging.Config{Level: "info", Format: "json", Output: path})

		logger.Info().Msg("written")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written")
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		logger := logging.NewLoggerFromConfig(nil)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("level aliases", func(t *testing.T) {
		tests := map[string]zerolog.Level{
			"debug":   zerolog.DebugLevel,
			"WARNING": zerolog.WarnLevel,
			"off":     zerolog.Disabled,
			"bogus":   zerolog.InfoLevel,
		}
		for in, want := range tests {
			logger := logging.NewLoggerFromConfig(&logging.Config{Level: in, Output: "discard"})
			if got := logger.GetLevel(); got != want {
				t.Errorf("level %q: got %v, want %v", in, got, want)
			}
		}
	})
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func TestParseFields(t *testing.T) {
	got := logging.ParseFields("env=prod, region = us ,junk")
	assert.Equal(t, map[string]any{"env": "prod", "region": "us"}, got)
	assert.Empty(t, logging.ParseFields(""))
}

func TestCaptureLoggingForTest(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)
	logging.Info().Str("store", "Acme").Msg("captured")

	captured.AssertContains(t, "captured")
	captured.AssertNotContains(t, "CLIENT_SECRET")
}
