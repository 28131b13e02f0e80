// Package config loads choretally configuration from an optional YAML file and
// CHORETALLY_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ChoreOrder selects how a group's chore catalog is sorted.
type ChoreOrder string

const (
	OrderAlphabetical ChoreOrder = "alphabetical"
	OrderPopularity   ChoreOrder = "popularity"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Email       EmailConfig       `yaml:"email"`
	Chores      ChoresConfig      `yaml:"chores"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	BaseURL      string        `yaml:"base_url"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// Path is the SQLite file path.
	Path string `yaml:"path"`
	// URL is the PostgreSQL connection string.
	URL string `yaml:"url"`
}

type AuthConfig struct {
	GoogleClientID     string        `yaml:"google_client_id"`
	GoogleClientSecret string        `yaml:"google_client_secret"`
	StateSecret        string        `yaml:"state_secret"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	SecureCookies      bool          `yaml:"secure_cookies"`
}

type EmailConfig struct {
	PostmarkToken string `yaml:"postmark_token"`
	From          string `yaml:"from"`
}

type ChoresConfig struct {
	Order ChoreOrder `yaml:"order"`
}

type LeaderboardConfig struct {
	// Timezone is an IANA name used to find the start of the current week.
	Timezone string `yaml:"timezone"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "choretally.db",
		},
		Auth: AuthConfig{
			SessionTTL: 30 * 24 * time.Hour,
		},
		Chores: ChoresConfig{
			Order: OrderAlphabetical,
		},
		Leaderboard: LeaderboardConfig{
			Timezone: "UTC",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:" + cfg.Server.Port
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("CHORETALLY_PORT", &c.Server.Port)
	str("CHORETALLY_BASE_URL", &c.Server.BaseURL)
	str("CHORETALLY_DB_DRIVER", &c.Database.Driver)
	str("CHORETALLY_DB_PATH", &c.Database.Path)
	str("CHORETALLY_DATABASE_URL", &c.Database.URL)
	str("CHORETALLY_GOOGLE_CLIENT_ID", &c.Auth.GoogleClientID)
	str("CHORETALLY_GOOGLE_CLIENT_SECRET", &c.Auth.GoogleClientSecret)
	str("CHORETALLY_STATE_SECRET", &c.Auth.StateSecret)
	str("CHORETALLY_POSTMARK_TOKEN", &c.Email.PostmarkToken)
	str("CHORETALLY_FROM_EMAIL", &c.Email.From)
	str("CHORETALLY_TIMEZONE", &c.Leaderboard.Timezone)
	str("CHORETALLY_LOG_LEVEL", &c.Log.Level)
	str("CHORETALLY_LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("CHORETALLY_CHORE_ORDER"); ok && v != "" {
		c.Chores.Order = ChoreOrder(strings.ToLower(v))
	}
	if v, ok := lookup("CHORETALLY_SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CHORETALLY_SESSION_TTL: %w", err)
		}
		c.Auth.SessionTTL = d
	}
	if v, ok := lookup("CHORETALLY_SECURE_COOKIES"); ok && v != "" {
		c.Auth.SecureCookies = v == "true" || v == "1"
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3", "":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres", "postgresql":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Chores.Order {
	case OrderAlphabetical, OrderPopularity:
	default:
		return fmt.Errorf("chores.order must be %q or %q", OrderAlphabetical, OrderPopularity)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if _, err := time.LoadLocation(c.Leaderboard.Timezone); err != nil {
		return fmt.Errorf("leaderboard.timezone: %w", err)
	}
	return nil
}

// Location returns the leaderboard timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Leaderboard.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// OAuthEnabled reports whether Google sign-in credentials are present.
func (c *Config) OAuthEnabled() bool {
	return c.Auth.GoogleClientID != "" && c.Auth.GoogleClientSecret != ""
}
