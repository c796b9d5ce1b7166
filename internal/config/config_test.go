package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points XDG at an empty temp dir and clears the bound env vars.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvDatabaseURL, "")
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.File)
	assert.Equal(t, 10, cfg.Database.PoolSize)
	assert.Equal(t, 30*time.Second, cfg.AcquireTimeout())
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout())
	assert.Equal(t, 200, cfg.Security.MaxRowLimit)
	assert.True(t, cfg.Security.QueryLoggingEnabled)
	assert.Contains(t, cfg.Security.BlockedKeywords, "DROP")
	assert.Equal(t, "gemini-1.5-flash", cfg.LLM.Model)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout())
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.GRPCAddr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnvOverlay(t *testing.T) {
	isolate(t)
	p := writeConfig(t, `
database:
  url: sqlite://from-file.db
  pool_size: 4
security:
  max_row_limit: 50
  blocked_keywords: [DROP, DELETE]
log:
  level: debug
`)
	t.Setenv("MAX_QUERY_LIMIT", "75")
	t.Setenv("ENABLE_QUERY_LOGGING", "false")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, p, cfg.File)
	assert.Equal(t, "sqlite://from-file.db", cfg.Database.URL)
	assert.Equal(t, 4, cfg.Database.PoolSize)
	assert.Equal(t, 75, cfg.Security.MaxRowLimit)
	assert.False(t, cfg.Security.QueryLoggingEnabled)
	assert.Equal(t, []string{"DROP", "DELETE"}, cfg.Security.BlockedKeywords)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadReadsXDGConfig(t *testing.T) {
	isolate(t)
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "sqlagent")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  addr: \":8080\"\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero rows", func(c *Config) { c.Security.MaxRowLimit = 0 }, "max_row_limit"},
		{"zero pool", func(c *Config) { c.Database.PoolSize = 0 }, "pool_size"},
		{"negative timeout", func(c *Config) { c.Database.QueryTimeoutSeconds = -1 }, "query_timeout_seconds"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"empty blocklist", func(c *Config) { c.Security.BlockedKeywords = nil }, "blocked_keywords"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

type stubLoader struct {
	dsn string
	err error
}

func (s stubLoader) LoadDBDSN() (string, error) { return s.dsn, s.err }

func TestResolveDSNPrecedence(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	stored := stubLoader{dsn: "sqlite://keychain.db"}

	got, src := cfg.ResolveDSN("", nil)
	assert.Equal(t, DefaultDSN, got)
	assert.Equal(t, SourceDefault, src)

	got, src = cfg.ResolveDSN("", stubLoader{err: errors.New("not found")})
	assert.Equal(t, DefaultDSN, got)
	assert.Equal(t, SourceDefault, src)

	got, src = cfg.ResolveDSN("", stored)
	assert.Equal(t, "sqlite://keychain.db", got)
	assert.Equal(t, SourceKeychain, src)

	cfg.Database.URL = "sqlite://file.db"
	got, src = cfg.ResolveDSN("", stored)
	assert.Equal(t, "sqlite://file.db", got)
	assert.Equal(t, SourceFile, src)

	t.Setenv(EnvDatabaseURL, "postgres://u@h/db")
	got, src = cfg.ResolveDSN("", stored)
	assert.Equal(t, "postgres://u@h/db", got)
	assert.Equal(t, SourceEnv, src)

	got, src = cfg.ResolveDSN(" sqlite://flag.db ", stored)
	assert.Equal(t, "sqlite://flag.db", got)
	assert.Equal(t, SourceFlag, src)
}
