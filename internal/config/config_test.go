package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/config"
	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv provides the settings Load refuses to start without
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SIGNING_KEY", "env-signing-key")
	t.Setenv("OAUTH_CREDENTIALS_FILE", "/etc/auth/client_secret.json")
	t.Setenv("OAUTH_REDIRECT_URI", "http://localhost:8080/auth/callback")
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.GetPort())
	require.Equal(t, "DEV", cfg.GetEnv())
	require.Equal(t, "info", cfg.GetLogLevel())
	require.Equal(t, "auth_session", cfg.GetCookieName())
	require.Equal(t, 30*24*time.Hour, cfg.GetTokenTTL())
	require.Equal(t, 10*time.Minute, cfg.GetFlowTTL())
	require.Equal(t, 10*time.Second, cfg.GetProviderTimeout())
	require.Equal(t, "auth", cfg.GetIssuer())
	require.False(t, cfg.GetSkipStateCheck())
	require.True(t, cfg.GetEnableRateLimiting())
	require.False(t, cfg.GetTrustProxyHeaders())
	require.Empty(t, cfg.GetAllowedOrigins())

	require.Equal(t, "env-signing-key", cfg.GetSigningKey())
	require.Equal(t, "/etc/auth/client_secret.json", cfg.GetCredentialsFile())
	require.Equal(t, "http://localhost:8080/auth/callback", cfg.GetRedirectURI())
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	path := writeYAML(t, `
server:
  port: ":9090"
  app_name: Dashboard
  env: PROD
  base_url: https://app.example.com/
session:
  cookie_name: dash_session
  signing_key: file-key
  token_ttl_days: 7
  flow_ttl: 5m
oauth:
  credentials_file: ./client_secret.json
  redirect_uri: https://app.example.com/auth/callback
  scopes:
    - https://www.googleapis.com/auth/gmail.readonly
  provider_timeout: 3s
security:
  rate_limit_enabled: false
cors:
  allowed_origins: ["https://app.example.com"]
`)
	t.Setenv("SESSION_SIGNING_KEY", "env-wins")
	t.Setenv("OAUTH_SCOPES", "scope-a, scope-b")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.GetPort())
	require.Equal(t, "Dashboard", cfg.GetAppName())
	require.Equal(t, "PROD", cfg.GetEnv())
	require.Equal(t, "https://app.example.com", cfg.GetBaseURL())
	require.Equal(t, "dash_session", cfg.GetCookieName())
	require.Equal(t, "env-wins", cfg.GetSigningKey())
	require.Equal(t, 7*24*time.Hour, cfg.GetTokenTTL())
	require.Equal(t, 5*time.Minute, cfg.GetFlowTTL())
	require.Equal(t, 3*time.Second, cfg.GetProviderTimeout())
	require.Equal(t, []string{"scope-a", "scope-b"}, cfg.GetScopes())
	require.False(t, cfg.GetEnableRateLimiting())
	require.True(t, cfg.GetTrustProxyHeaders())
	require.True(t, cfg.GetAllowedOrigins().IsAllowedOrigin("https://app.example.com"))
	require.False(t, cfg.GetAllowedOrigins().IsAllowedOrigin("https://evil.example.com"))
	// Defaults survive a file that does not mention them
	require.Equal(t, 24*time.Hour, cfg.GetSessionIdleTimeout())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing signing key", map[string]string{"SESSION_SIGNING_KEY": ""}},
		{"blank signing key", map[string]string{"SESSION_SIGNING_KEY": "   "}},
		{"missing credentials file", map[string]string{"OAUTH_CREDENTIALS_FILE": ""}},
		{"missing redirect uri", map[string]string{"OAUTH_REDIRECT_URI": ""}},
		{"zero ttl", map[string]string{"SESSION_TOKEN_TTL_DAYS": "0"}},
		{"negative ttl", map[string]string{"SESSION_TOKEN_TTL_DAYS": "-1"}},
		{"bad ttl", map[string]string{"SESSION_TOKEN_TTL_DAYS": "thirty"}},
		{"bad timeout", map[string]string{"OAUTH_PROVIDER_TIMEOUT": "soon"}},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Load("")
			require.ErrorIs(t, err, autherrors.ErrConfig)
			require.Nil(t, cfg)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	setRequiredEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, autherrors.ErrConfig)

	_, err = config.Load(writeYAML(t, "session: [this is not a mapping"))
	require.ErrorIs(t, err, autherrors.ErrConfig)
}

func TestGetPortAddsColon(t *testing.T) {
	require.Equal(t, ":3000", config.EnvVars{Port: "3000"}.GetPort())
	require.Equal(t, ":3000", config.EnvVars{Port: ":3000"}.GetPort())
	require.Equal(t, ":8080", config.EnvVars{}.GetPort())
}

func TestAllowedOriginsString(t *testing.T) {
	origins := config.Cors{Origins: []string{"https://b.example.com", " ", "https://a.example.com"}}.GetAllowedOrigins()
	require.Len(t, origins, 2)
	require.Equal(t, "https://a.example.com, https://b.example.com", origins.String())
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, "Go Auth Session", cfg.GetAppName())
	require.Empty(t, cfg.GetSigningKey())
}
