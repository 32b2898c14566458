// Package config provides environment-backed configuration for neuroflow.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Memory store backends selectable via NEUROFLOW_MEMORY_BACKEND.
const (
	BackendRemote   = "remote"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// ConfigError reports a missing or inconsistent setting.  It is fatal at
// process start: commands print it and exit rather than running degraded.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "config: " + e.Msg }

// Config holds all runtime settings.  Everything except the API credential
// has a working default so `neuroflow chat` runs with only OPENAI_API_KEY set.
type Config struct {
	// APIKey is the remote LLM service credential.  Required.
	APIKey string `koanf:"api_key"`
	// Model overrides the remote model used for chat and scribe turns.
	Model string `koanf:"model"`
	// HTTPPort is the listen port for `neuroflow serve`.
	HTTPPort int `koanf:"http_port"`
	// DatabaseURL enables Postgres transcript/note persistence when set.
	DatabaseURL string `koanf:"database_url"`
	// RedisAddr is the Redis host:port for the redis memory backend.
	RedisAddr string `koanf:"redis_addr"`
	// MemoryBackend selects the long-term memory store implementation.
	MemoryBackend string `koanf:"memory_backend"`
	// OutputDir is where rendered SOAP notes are written.
	OutputDir string `koanf:"output_dir"`
	// RequestTimeout bounds each remote LLM call.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "json" or "console".
	LogFormat string `koanf:"log_format"`
}

// Default returns the hardcoded defaults applied before env overrides.
func Default() *Config {
	return &Config{
		HTTPPort:       8080,
		MemoryBackend:  BackendRemote,
		OutputDir:      "notes",
		RequestTimeout: 45 * time.Second,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load builds a Config from the process environment.
//
// Settings are read from NEUROFLOW_* variables (NEUROFLOW_HTTP_PORT,
// NEUROFLOW_MEMORY_BACKEND, ...) layered over defaults.  The API credential
// is read from the conventional OPENAI_API_KEY and is required: a missing
// credential is a startup error, not a degraded mode.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider("NEUROFLOW_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "NEUROFLOW_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	// The credential keeps its conventional name rather than the app prefix.
	if err := k.Load(env.Provider("OPENAI_API_KEY", ".", func(s string) string {
		return "api_key"
	}), nil); err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &ConfigError{Msg: "OPENAI_API_KEY must be set"}
	}
	switch c.MemoryBackend {
	case BackendRemote, BackendRedis, BackendPostgres:
	default:
		return &ConfigError{Msg: fmt.Sprintf("unknown memory backend %q", c.MemoryBackend)}
	}
	if c.MemoryBackend == BackendRedis && c.RedisAddr == "" {
		return &ConfigError{Msg: "NEUROFLOW_REDIS_ADDR must be set for the redis memory backend"}
	}
	if c.MemoryBackend == BackendPostgres && c.DatabaseURL == "" {
		return &ConfigError{Msg: "NEUROFLOW_DATABASE_URL must be set for the postgres memory backend"}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigError{Msg: "request timeout must be positive"}
	}
	return nil
}
