package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Recovery.MaxRetries == 0 {
		cfg.Recovery.MaxRetries = 3
	}
	if cfg.Recovery.BaseDelay == 0 {
		cfg.Recovery.BaseDelay = 1 * time.Second
	}
	if cfg.Recovery.MaxDelay == 0 {
		cfg.Recovery.MaxDelay = 30 * time.Second
	}
	if cfg.Recovery.MaxTimeout == 0 {
		cfg.Recovery.MaxTimeout = 2 * time.Minute
	}
	if cfg.Recovery.HistoryLimit == 0 {
		cfg.Recovery.HistoryLimit = 1000
	}
	if cfg.Client.MaxRetries == 0 {
		cfg.Client.MaxRetries = 2
	}
	if cfg.Client.BaseBackoff == 0 {
		cfg.Client.BaseBackoff = 250 * time.Millisecond
	}
	if cfg.Client.MaxBackoff == 0 {
		cfg.Client.MaxBackoff = 5 * time.Second
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = 30 * time.Second
	}
}
