package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-existe.yaml"))
	require.NoError(t, err, "un path inexistente no es error")

	require.Equal(t, "dev", cfg.App.Env)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Cache.Kind)
	require.Equal(t, "crowdspark", cfg.JWT.Issuer)
	require.Equal(t, "crowdspark-api", cfg.JWT.Audience)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL())
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL())
	require.EqualValues(t, 5, cfg.Rate.Auth.Limit)
	require.Equal(t, 15*time.Minute, cfg.RateWindow())
	require.True(t, cfg.Rate.Enabled, "el rate limiting viene prendido de fábrica")
}

func TestRateLimitRequiresExplicitOptOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
rate:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.False(t, cfg.Rate.Enabled, "un false explícito en YAML gana")

	t.Setenv("RATE_ENABLED", "true")
	cfg, err = Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Rate.Enabled, "env pisa yaml")
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9000"
jwt:
  access_ttl: "5m"
rate:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	// El entorno pisa al YAML.
	t.Setenv("SERVER_ADDR", ":7000")
	t.Setenv("JWT_ACCESS_SECRET", "s1")
	t.Setenv("JWT_REFRESH_SECRET", "s2")
	t.Setenv("STORAGE_DSN", "postgres://localhost/crowdspark")
	t.Setenv("FRONTEND_URL", "https://app.crowdspark.io")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":7000", cfg.Server.Addr, "env pisa yaml")
	require.Equal(t, 5*time.Minute, cfg.AccessTTL(), "yaml pisa default")
	require.True(t, cfg.Rate.Enabled)
	require.Equal(t, "https://app.crowdspark.io", cfg.Frontend.BaseURL)
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresSecrets(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Storage.DSN = "postgres://localhost/x"

	cfg.JWT.AccessSecret = ""
	cfg.JWT.RefreshSecret = "r"
	require.Error(t, cfg.Validate())

	cfg.JWT.AccessSecret = "a"
	cfg.JWT.RefreshSecret = ""
	require.Error(t, cfg.Validate())

	// Secretos iguales tampoco sirven: anularía la separación de clases.
	cfg.JWT.AccessSecret = "mismo"
	cfg.JWT.RefreshSecret = "mismo"
	require.Error(t, cfg.Validate())

	cfg.JWT.AccessSecret = "a"
	cfg.JWT.RefreshSecret = "r"
	require.NoError(t, cfg.Validate())
}

func TestOAuthEnabled(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.False(t, cfg.OAuthEnabled())

	cfg.OAuth.Google.ClientID = "id"
	cfg.OAuth.Google.ClientSecret = "secret"
	require.False(t, cfg.OAuthEnabled(), "falta redirect URL")

	cfg.OAuth.Google.RedirectURL = "https://api.crowdspark.io/auth/google/callback"
	require.True(t, cfg.OAuthEnabled())
}
