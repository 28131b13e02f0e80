package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, OrderAlphabetical, cfg.Chores.Order)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.SessionTTL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "choretally.yaml")
	data := `
server:
  port: "9090"
database:
  driver: postgres
  url: postgres://localhost/chores
auth:
  session_ttl: 48h
chores:
  order: popularity
leaderboard:
  timezone: America/New_York
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://localhost:9090", cfg.Server.BaseURL)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 48*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, OrderPopularity, cfg.Chores.Order)
	assert.Equal(t, "America/New_York", cfg.Location().String())
	// Defaults survive for keys the file omits.
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CHORETALLY_PORT":           "7000",
		"CHORETALLY_CHORE_ORDER":    "POPULARITY",
		"CHORETALLY_SESSION_TTL":    "2h",
		"CHORETALLY_SECURE_COOKIES": "true",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, OrderPopularity, cfg.Chores.Order)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.True(t, cfg.Auth.SecureCookies)
}

func TestApplyEnvBadDuration(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "CHORETALLY_SESSION_TTL" {
			return "forever", true
		}
		return "", false
	}
	assert.Error(t, Default().applyEnv(lookup))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }},
		{"bad order", func(c *Config) { c.Chores.Order = "random" }},
		{"zero ttl", func(c *Config) { c.Auth.SessionTTL = 0 }},
		{"bad timezone", func(c *Config) { c.Leaderboard.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestOAuthEnabled(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.OAuthEnabled())
	cfg.Auth.GoogleClientID = "id"
	cfg.Auth.GoogleClientSecret = "secret"
	assert.True(t, cfg.OAuthEnabled())
}
