// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by LoadFromEnv.
const (
	DefaultListenAddr         = ":8080"
	DefaultCatalogURL         = "http://localhost:8585"
	DefaultCatalogTimeout     = 10 * time.Second
	DefaultCatalogConcurrency = 8
	DefaultTestCasePageLimit  = 100000
	DefaultNotifyDBPath       = "catsum_notifications.sqlite"
	DefaultRetention          = 7 * 24 * time.Hour
	DefaultPurgeSchedule      = "@hourly"
)

// AuthConfig holds inbound authentication configuration.
type AuthConfig struct {
	IssuerURL      string   // OIDC issuer URL
	JWKSURL        string   // Override JWKS URL (if no .well-known discovery)
	JWTSecret      string   // HS256 shared secret for local/dev JWT auth
	Audience       string   // Required JWT audience claim
	AllowedIssuers []string // Accepted issuers (defaults to [IssuerURL])
}

// OIDCEnabled returns true when an external identity provider is configured.
func (a *AuthConfig) OIDCEnabled() bool {
	return a.IssuerURL != "" || a.JWKSURL != ""
}

// Enabled returns true when any form of bearer authentication is configured.
func (a *AuthConfig) Enabled() bool {
	return a.OIDCEnabled() || a.JWTSecret != ""
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	if a.IssuerURL != "" && a.Audience == "" {
		return fmt.Errorf("AUTH_AUDIENCE is required when AUTH_ISSUER_URL is set")
	}
	return nil
}

// CatalogConfig describes the upstream metadata catalog.
type CatalogConfig struct {
	BaseURL           string        // catalog REST API root, e.g. https://catalog.example.com
	Token             string        // bearer token sent upstream (optional)
	Timeout           time.Duration // per-request timeout
	MaxConcurrency    int           // parallel chart fetches per dashboard
	TestCasePageLimit int           // page size for test-case listing
}

// NotificationConfig controls the notification inbox.
type NotificationConfig struct {
	DBPath        string        // SQLite file holding notifications
	Retention     time.Duration // notifications older than this are purged
	PurgeSchedule string        // cron spec for the purge job
}

// Config holds the configuration for the summary server.
type Config struct {
	ListenAddr        string // HTTP listen address (default ":8080")
	TLSCertFile       string // TLS certificate file path (optional)
	TLSKeyFile        string // TLS private key file path (optional)
	AllowInsecureHTTP bool   // allow non-TLS listener in production (for trusted TLS termination)
	LogLevel          string // log level: debug, info, warn, error (default "info")
	Env               string // environment: "development" (default) or "production"

	Catalog       CatalogConfig
	Notifications NotificationConfig

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	Auth AuthConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		TLSCertFile: os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:  os.Getenv("TLS_KEY_FILE"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		Env:         os.Getenv("ENV"),
		Catalog: CatalogConfig{
			BaseURL: strings.TrimRight(os.Getenv("CATALOG_API_URL"), "/"),
			Token:   os.Getenv("CATALOG_API_TOKEN"),
		},
		Notifications: NotificationConfig{
			DBPath:        os.Getenv("NOTIFY_DB_PATH"),
			PurgeSchedule: os.Getenv("NOTIFICATION_PURGE_SCHEDULE"),
		},
		AllowInsecureHTTP: parseBoolEnvDefault("ALLOW_INSECURE_HTTP", false),
	}

	var errs []string
	parseDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				errs = append(errs, fmt.Sprintf("%s must be a positive duration, got %q", key, v))
				return
			}
			*dst = d
		}
	}
	parseInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				errs = append(errs, fmt.Sprintf("%s must be a positive integer, got %q", key, v))
				return
			}
			*dst = n
		}
	}

	parseDuration("CATALOG_TIMEOUT", &cfg.Catalog.Timeout)
	parseInt("CATALOG_MAX_CONCURRENCY", &cfg.Catalog.MaxConcurrency)
	parseInt("TEST_CASE_PAGE_LIMIT", &cfg.Catalog.TestCasePageLimit)
	parseDuration("NOTIFICATION_RETENTION", &cfg.Notifications.Retention)
	parseInt("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimitRPS = f
		} else {
			errs = append(errs, fmt.Sprintf("RATE_LIMIT_RPS must be a positive number, got %q", v))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	// Auth config
	cfg.Auth = AuthConfig{
		IssuerURL: os.Getenv("AUTH_ISSUER_URL"),
		JWKSURL:   os.Getenv("AUTH_JWKS_URL"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		Audience:  os.Getenv("AUTH_AUDIENCE"),
	}
	if v := os.Getenv("AUTH_ALLOWED_ISSUERS"); v != "" {
		cfg.Auth.AllowedIssuers = splitList(v)
	}
	if err := cfg.Auth.Validate(); err != nil {
		return nil, err
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if cfg.Catalog.BaseURL == "" {
		cfg.Catalog.BaseURL = DefaultCatalogURL
		cfg.Warnings = append(cfg.Warnings, "CATALOG_API_URL not set, using "+DefaultCatalogURL)
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = DefaultCatalogTimeout
	}
	if cfg.Catalog.MaxConcurrency == 0 {
		cfg.Catalog.MaxConcurrency = DefaultCatalogConcurrency
	}
	if cfg.Catalog.TestCasePageLimit == 0 {
		cfg.Catalog.TestCasePageLimit = DefaultTestCasePageLimit
	}
	if cfg.Notifications.DBPath == "" {
		cfg.Notifications.DBPath = DefaultNotifyDBPath
	}
	if cfg.Notifications.Retention == 0 {
		cfg.Notifications.Retention = DefaultRetention
	}
	if cfg.Notifications.PurgeSchedule == "" {
		cfg.Notifications.PurgeSchedule = DefaultPurgeSchedule
	}
	if !cfg.Auth.Enabled() {
		cfg.Warnings = append(cfg.Warnings, "authentication is disabled: set AUTH_ISSUER_URL, AUTH_JWKS_URL or JWT_SECRET")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if !cfg.Auth.OIDCEnabled() {
			return nil, fmt.Errorf("OIDC must be configured in production (set AUTH_ISSUER_URL or AUTH_JWKS_URL)")
		}
		if os.Getenv("CATALOG_API_URL") == "" {
			return nil, fmt.Errorf("CATALOG_API_URL must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.TLSCertFile == "" && !cfg.AllowInsecureHTTP {
			return nil, fmt.Errorf("TLS_CERT_FILE/TLS_KEY_FILE must be set in production unless ALLOW_INSECURE_HTTP=true")
		}
	}

	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

// splitList splits a comma-separated value, trimming blanks.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
