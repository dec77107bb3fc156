package config

import (
	"time"

	redisclient "github.com/vietddude/triage/internal/infra/redis"
	"github.com/vietddude/triage/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Recovery   RecoveryConfig     `yaml:"recovery"`
	Client     ClientConfig       `yaml:"client"`
	Escalation EscalationConfig   `yaml:"escalation"`
	Redis      redisclient.Config `yaml:"redis"`
	Logging    LoggingConfig      `yaml:"logging"`
	Database   postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RecoveryConfig tunes the orchestrator and built-in strategies.
type RecoveryConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	BaseDelay    time.Duration `yaml:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	MaxTimeout   time.Duration `yaml:"max_timeout"`
	HistoryLimit int           `yaml:"history_limit"`
}

// ClientConfig tunes the resilient request client.
type ClientConfig struct {
	MaxRetries  int           `yaml:"max_retries"`
	BaseBackoff time.Duration `yaml:"base_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
	Timeout     time.Duration `yaml:"timeout"`
}

// EscalationConfig tunes the escalation manager.
type EscalationConfig struct {
	PersistErrors bool `yaml:"persist_errors"`
}
