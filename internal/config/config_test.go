package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/clinic-dashboard/pkg/errors"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DB_PATH", "")
	t.Setenv("SECRET_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "dev-secret", cfg.Session.Secret)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	dir := chdirTemp(t)
	dbFile := filepath.Join(dir, "clinic.db")
	require.NoError(t, os.WriteFile(dbFile, nil, 0o600))

	t.Setenv("DB_PATH", dbFile)
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("PORT", "8081")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, dbFile, cfg.Database.Path)
	assert.Equal(t, "from-env", cfg.Session.Secret)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	yml := "server:\n  port: 9000\ncache:\n  ttl: 5s\n  enabled: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.False(t, cfg.Cache.Enabled)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "clinic.db")
	require.NoError(t, os.WriteFile(existing, nil, 0o600))

	base := func() Config {
		return Config{
			Server:   ServerConfig{Port: 5000},
			Database: DatabaseConfig{Driver: "sqlite3", Path: existing},
			Session:  SessionConfig{Secret: "x"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing path", func(c *Config) { c.Database.Path = "" }, "DB_PATH is not set"},
		{"missing file", func(c *Config) { c.Database.Path = filepath.Join(dir, "nope.db") }, "database file not found"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "unsupported database driver"},
		{"empty secret", func(c *Config) { c.Session.Secret = "" }, "SECRET_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrConfig))
		})
	}
}
