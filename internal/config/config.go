// Package config loads CLI and server settings with viper.
// Settings come from an optional config.yaml (XDG config dir or --config),
// overlaid by environment variables. Only non-secret settings are kept here;
// the API key and stored DSN live in the OS keychain.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"sqlagent/cli/internal/guard"
	"sqlagent/cli/internal/xdg"
)

// DefaultDSN is used when no other source names a database.
const DefaultDSN = "sqlite://sql_agent_class.db"

// EnvDatabaseURL names the database in the environment.
const EnvDatabaseURL = "DATABASE_URL"

// Config holds non-sensitive settings.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`

	// File is the config file that was read, empty when none.
	File string `mapstructure:"-"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL from the config file only; see ResolveDSN for the full precedence.
	URL                   string `mapstructure:"url"`
	PoolSize              int    `mapstructure:"pool_size"`
	AcquireTimeoutSeconds int    `mapstructure:"acquire_timeout_seconds"`
	QueryTimeoutSeconds   int    `mapstructure:"query_timeout_seconds"`
}

// SecurityConfig holds guard settings.
type SecurityConfig struct {
	MaxRowLimit         int      `mapstructure:"max_row_limit"`
	BlockedKeywords     []string `mapstructure:"blocked_keywords"`
	QueryLoggingEnabled bool     `mapstructure:"query_logging_enabled"`
}

// LLMConfig holds language model settings.
type LLMConfig struct {
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// ServerConfig holds listener addresses. An empty GRPCAddr disables gRPC.
type ServerConfig struct {
	Addr     string `mapstructure:"addr"`
	GRPCAddr string `mapstructure:"grpc_addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envBindings maps config keys to environment variables.
var envBindings = map[string]string{
	"database.pool_size":               "DB_MAX_CONNECTIONS",
	"database.acquire_timeout_seconds": "DB_CONNECTION_TIMEOUT",
	"database.query_timeout_seconds":   "DB_QUERY_TIMEOUT",
	"security.max_row_limit":           "MAX_QUERY_LIMIT",
	"security.query_logging_enabled":   "ENABLE_QUERY_LOGGING",
	"llm.model":                        "LLM_MODEL",
	"llm.temperature":                  "LLM_TEMPERATURE",
	"llm.timeout_seconds":              "LLM_TIMEOUT",
	"server.addr":                      "SERVER_ADDR",
	"server.grpc_addr":                 "GRPC_ADDR",
	"log.level":                        "LOG_LEVEL",
	"log.format":                       "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.acquire_timeout_seconds", 30)
	v.SetDefault("database.query_timeout_seconds", 30)
	v.SetDefault("security.max_row_limit", guard.DefaultMaxRows)
	v.SetDefault("security.blocked_keywords", append([]string(nil), guard.DefaultBlockedKeywords...))
	v.SetDefault("security.query_logging_enabled", true)
	v.SetDefault("llm.model", "gemini-1.5-flash")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout_seconds", 60)
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.grpc_addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration. An explicit path must exist; otherwise config.yaml
// in the XDG config dir is read when present. Missing file returns defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path == "" {
		if p, err := xdg.ConfigFile(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Security.MaxRowLimit <= 0 {
		errs = append(errs, fmt.Errorf("security.max_row_limit must be positive, got %d", c.Security.MaxRowLimit))
	}
	if len(c.Security.BlockedKeywords) == 0 {
		errs = append(errs, errors.New("security.blocked_keywords must not be empty"))
	}
	if c.Database.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("database.pool_size must be positive, got %d", c.Database.PoolSize))
	}
	if c.Database.AcquireTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("database.acquire_timeout_seconds must be positive"))
	}
	if c.Database.QueryTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("database.query_timeout_seconds must be positive"))
	}
	if c.LLM.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("llm.timeout_seconds must be positive"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// AcquireTimeout returns the pool acquire timeout.
func (c *Config) AcquireTimeout() time.Duration {
	return time.Duration(c.Database.AcquireTimeoutSeconds) * time.Second
}

// QueryTimeout returns the per-query timeout.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Database.QueryTimeoutSeconds) * time.Second
}

// LLMTimeout returns the per-request model timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// DSNSource names where a resolved DSN came from.
type DSNSource string

const (
	SourceFlag     DSNSource = "flag"
	SourceEnv      DSNSource = "environment"
	SourceFile     DSNSource = "config file"
	SourceKeychain DSNSource = "keychain"
	SourceDefault  DSNSource = "default"
)

// DSNLoader reads a stored DSN; keychain.Manager satisfies it.
type DSNLoader interface {
	LoadDBDSN() (string, error)
}

// ResolveDSN picks the database by precedence: flag, DATABASE_URL,
// config file, keychain, then DefaultDSN. stored may be nil.
func (c *Config) ResolveDSN(flag string, stored DSNLoader) (string, DSNSource) {
	if s := strings.TrimSpace(flag); s != "" {
		return s, SourceFlag
	}
	if s := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); s != "" {
		return s, SourceEnv
	}
	if s := strings.TrimSpace(c.Database.URL); s != "" {
		return s, SourceFile
	}
	if stored != nil {
		if s, err := stored.LoadDBDSN(); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), SourceKeychain
		}
	}
	return DefaultDSN, SourceDefault
}
