package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/cmd/output"
	"github.com/agentstation/storefront/internal/server"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Upstream credentials; never logged
	Credentials auth.Credentials

	// HTTP server
	Host           string
	Port           int
	CORSOrigins    []string
	RequestTimeout time.Duration
	CacheTTL       time.Duration

	// Upstream platform
	AccountsURL   string
	CreatorURL    string
	Owner         string
	App           string
	StoreReport   string
	ReviewReport  string
	ReviewForm    string
	TokenTimeout  time.Duration
	ReportTimeout time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (./.storefront.yaml or ~/.storefront.yaml)
// 5. Defaults
//
// configFile selects an explicit config file; it is an error if that file
// cannot be read. The implicit search locations are optional.
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "reading "+configFile, err)
		}
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".storefront")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "reading .storefront.yaml", err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("output_format"),

		ConfigFile: v.ConfigFileUsed(),

		Credentials: auth.Credentials{
			ClientID:     v.GetString("client_id"),
			ClientSecret: v.GetString("client_secret"),
			RefreshToken: v.GetString("refresh_token"),
		},

		Host:           v.GetString("host"),
		Port:           v.GetInt("port"),
		CORSOrigins:    stringList(v.Get("cors_origins")),
		RequestTimeout: v.GetDuration("request_timeout"),
		CacheTTL:       v.GetDuration("cache_ttl"),

		AccountsURL:   v.GetString("accounts_url"),
		CreatorURL:    v.GetString("creator_url"),
		Owner:         v.GetString("creator_owner"),
		App:           v.GetString("creator_app"),
		StoreReport:   v.GetString("store_report"),
		ReviewReport:  v.GetString("review_report"),
		ReviewForm:    v.GetString("review_form"),
		TokenTimeout:  v.GetDuration("token_timeout"),
		ReportTimeout: v.GetDuration("report_timeout"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", constants.DefaultHost)
	v.SetDefault("port", constants.DefaultPort)
	v.SetDefault("request_timeout", constants.RequestBudget)
	v.SetDefault("cache_ttl", time.Duration(0))
	v.SetDefault("accounts_url", constants.DefaultAccountsURL)
	v.SetDefault("creator_url", constants.DefaultCreatorURL)
	v.SetDefault("creator_owner", constants.DefaultOwner)
	v.SetDefault("creator_app", constants.DefaultApp)
	v.SetDefault("store_report", constants.DefaultStoreReport)
	v.SetDefault("review_report", constants.DefaultReviewReport)
	v.SetDefault("review_form", constants.DefaultReviewForm)
	v.SetDefault("token_timeout", constants.TokenTimeout)
	v.SetDefault("report_timeout", constants.ReportTimeout)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// stringList accepts a YAML list or a comma separated string.
func stringList(raw any) []string {
	var parts []string
	switch x := raw.(type) {
	case []any:
		for _, item := range x {
			parts = append(parts, fmt.Sprint(item))
		}
	case []string:
		parts = x
	case string:
		parts = strings.Split(x, ",")
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// Validate checks the settings every command depends on. Credentials are
// checked separately by RequireCredentials since some commands never call
// upstream.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.NewConfigError("PORT", fmt.Sprintf("must be between 1 and 65535, got %d", c.Port), nil)
	}
	for name, d := range map[string]time.Duration{
		"TOKEN_TIMEOUT":   c.TokenTimeout,
		"REPORT_TIMEOUT":  c.ReportTimeout,
		"REQUEST_TIMEOUT": c.RequestTimeout,
	} {
		if d <= 0 {
			return errors.NewConfigError(name, "must be a positive duration", nil)
		}
	}
	if c.CacheTTL < 0 {
		return errors.NewConfigError("CACHE_TTL", "must not be negative", nil)
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		return errors.NewConfigError("output", err.Error(), nil)
	}
	return nil
}

// RequireCredentials reports the first missing credential by name.
func (c *Config) RequireCredentials() error {
	return c.Credentials.Validate()
}

// ServerConfig derives the HTTP server settings.
func (c *Config) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	cfg.CORSOrigins = c.CORSOrigins
	cfg.RequestTimeout = c.RequestTimeout
	return cfg
}

// loadEnvFiles loads environment variables from .env files.
// Existing variables win, and .env.local is read before .env so its values
// take precedence over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
