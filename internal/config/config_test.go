package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "localhost", cfg.DB.Host)
	require.Equal(t, 5432, cfg.DB.Port)
	require.Equal(t, 3600, cfg.JWT.AccessExpires)
	require.Equal(t, 2592000, cfg.JWT.RefreshExpires)
	require.Equal(t, ":8080", cfg.Server.Port)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
db:
  host: db.internal
  port: 5433
jwt:
  secret: file-secret
  access_expires: 60
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DB_HOST", "env.internal")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JWT_REFRESH_TOKEN_EXPIRES", "120")

	cfg, err := Load()
	require.NoError(t, err)

	// env wins over file, file wins over defaults
	require.Equal(t, "env.internal", cfg.DB.Host)
	require.Equal(t, 5433, cfg.DB.Port)
	require.Equal(t, "env-secret", cfg.JWT.Secret)
	require.Equal(t, 60, cfg.JWT.AccessExpires)
	require.Equal(t, 120, cfg.JWT.RefreshExpires)
}

func TestJWTConfig_TTL(t *testing.T) {
	t.Parallel()

	cfg := JWTConfig{AccessExpires: 3600, RefreshExpires: 2592000}
	require.Equal(t, "1h0m0s", cfg.AccessTTL().String())
	require.Equal(t, "720h0m0s", cfg.RefreshTTL().String())
}
