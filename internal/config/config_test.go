package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LISTEN_ADDR", "LOG_LEVEL", "ENV", "TLS_CERT_FILE", "TLS_KEY_FILE", "ALLOW_INSECURE_HTTP",
	"CATALOG_API_URL", "CATALOG_API_TOKEN", "CATALOG_TIMEOUT", "CATALOG_MAX_CONCURRENCY",
	"TEST_CASE_PAGE_LIMIT", "NOTIFY_DB_PATH", "NOTIFICATION_RETENTION", "NOTIFICATION_PURGE_SCHEDULE",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS", "JWT_SECRET",
	"AUTH_ISSUER_URL", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "AUTH_ALLOWED_ISSUERS",
}

// clearEnv blanks every variable LoadFromEnv reads for the duration of t.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultCatalogURL, cfg.Catalog.BaseURL)
	assert.Equal(t, DefaultCatalogTimeout, cfg.Catalog.Timeout)
	assert.Equal(t, DefaultCatalogConcurrency, cfg.Catalog.MaxConcurrency)
	assert.Equal(t, DefaultTestCasePageLimit, cfg.Catalog.TestCasePageLimit)
	assert.Equal(t, DefaultNotifyDBPath, cfg.Notifications.DBPath)
	assert.Equal(t, DefaultRetention, cfg.Notifications.Retention)
	assert.Equal(t, DefaultPurgeSchedule, cfg.Notifications.PurgeSchedule)
	assert.InDelta(t, 100, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Auth.Enabled())
	assert.Len(t, cfg.Warnings, 2)
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("CATALOG_API_URL", "https://catalog.example.com/")
	t.Setenv("CATALOG_API_TOKEN", "tok")
	t.Setenv("CATALOG_TIMEOUT", "3s")
	t.Setenv("CATALOG_MAX_CONCURRENCY", "4")
	t.Setenv("TEST_CASE_PAGE_LIMIT", "500")
	t.Setenv("NOTIFY_DB_PATH", "/tmp/n.sqlite")
	t.Setenv("NOTIFICATION_RETENTION", "48h")
	t.Setenv("NOTIFICATION_PURGE_SCHEDULE", "@daily")
	t.Setenv("RATE_LIMIT_RPS", "5.5")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AUTH_ALLOWED_ISSUERS", "https://i1, https://i2")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, CatalogConfig{
		BaseURL:           "https://catalog.example.com",
		Token:             "tok",
		Timeout:           3 * time.Second,
		MaxConcurrency:    4,
		TestCasePageLimit: 500,
	}, cfg.Catalog)
	assert.Equal(t, NotificationConfig{
		DBPath:        "/tmp/n.sqlite",
		Retention:     48 * time.Hour,
		PurgeSchedule: "@daily",
	}, cfg.Notifications)
	assert.InDelta(t, 5.5, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, []string{"https://i1", "https://i2"}, cfg.Auth.AllowedIssuers)
	assert.True(t, cfg.Auth.Enabled())
	assert.False(t, cfg.Auth.OIDCEnabled())
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CATALOG_TIMEOUT", "soon"},
		{"CATALOG_TIMEOUT", "-1s"},
		{"CATALOG_MAX_CONCURRENCY", "0"},
		{"TEST_CASE_PAGE_LIMIT", "many"},
		{"NOTIFICATION_RETENTION", "forever"},
		{"RATE_LIMIT_RPS", "fast"},
		{"RATE_LIMIT_BURST", "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadFromEnv_TLSPairRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("TLS_CERT_FILE", "cert.pem")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS_KEY_FILE")
}

func TestLoadFromEnv_IssuerNeedsAudience(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_ISSUER_URL", "https://idp.example.com")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_AUDIENCE")
}

func TestLoadFromEnv_Production(t *testing.T) {
	secure := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "production")
		t.Setenv("AUTH_JWKS_URL", "https://idp.example.com/jwks")
		t.Setenv("CATALOG_API_URL", "https://catalog.example.com")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")
		t.Setenv("TLS_CERT_FILE", "cert.pem")
		t.Setenv("TLS_KEY_FILE", "key.pem")
	}

	t.Run("secure config loads", func(t *testing.T) {
		secure(t)
		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})

	tests := []struct {
		name    string
		mutate  func(t *testing.T)
		wantErr string
	}{
		{"no oidc", func(t *testing.T) { t.Setenv("AUTH_JWKS_URL", ""); t.Setenv("JWT_SECRET", "x") }, "OIDC"},
		{"no catalog url", func(t *testing.T) { t.Setenv("CATALOG_API_URL", "") }, "CATALOG_API_URL"},
		{"cors wildcard", func(t *testing.T) { t.Setenv("CORS_ALLOWED_ORIGINS", "*") }, "CORS"},
		{"no tls", func(t *testing.T) { t.Setenv("TLS_CERT_FILE", ""); t.Setenv("TLS_KEY_FILE", "") }, "TLS_CERT_FILE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secure(t)
			tt.mutate(t)
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("insecure http allowed behind proxy", func(t *testing.T) {
		secure(t)
		t.Setenv("TLS_CERT_FILE", "")
		t.Setenv("TLS_KEY_FILE", "")
		t.Setenv("ALLOW_INSECURE_HTTP", "true")
		_, err := LoadFromEnv()
		require.NoError(t, err)
	})
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO"} {
		assert.Equal(t, want, (&Config{LogLevel: in}).SlogLevel().String(), in)
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	if err != nil {
		t.Errorf("expected no error for missing .env, got: %v", err)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_KEY=test_value\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_KEY"); val != "test_value" {
		t.Errorf("TEST_KEY = %q, want %q", val, "test_value")
	}
	_ = os.Unsetenv("TEST_KEY")
}

func TestLoadDotEnv_SkipsComments(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("# comment\nTEST_COMMENT_KEY=value\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_COMMENT_KEY"); val != "value" {
		t.Errorf("TEST_COMMENT_KEY = %q, want %q", val, "value")
	}
	_ = os.Unsetenv("TEST_COMMENT_KEY")
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("TEST_PRECEDENCE_KEY", "from_env")

	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_PRECEDENCE_KEY=from_file\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_PRECEDENCE_KEY"); val != "from_env" {
		t.Errorf("TEST_PRECEDENCE_KEY = %q, want %q (env precedence)", val, "from_env")
	}
}
