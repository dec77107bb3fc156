package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
recovery:
  max_retries: 5
  base_delay: 2s
  max_delay: 45s
  max_timeout: 3m
  history_limit: 250
client:
  max_retries: 4
  base_backoff: 100ms
  max_backoff: 10s
  timeout: 15s
escalation:
  persist_errors: true
redis:
  url: redis://localhost:6379/0
database:
  url: postgres://localhost:5432/triage
  max_conns: 20
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Recovery.MaxRetries != 5 || cfg.Recovery.BaseDelay != 2*time.Second {
		t.Errorf("recovery = %+v", cfg.Recovery)
	}
	if cfg.Recovery.MaxTimeout != 3*time.Minute || cfg.Recovery.HistoryLimit != 250 {
		t.Errorf("recovery = %+v", cfg.Recovery)
	}
	if cfg.Client.MaxRetries != 4 || cfg.Client.BaseBackoff != 100*time.Millisecond {
		t.Errorf("client = %+v", cfg.Client)
	}
	if !cfg.Escalation.PersistErrors {
		t.Error("expected persist_errors true")
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("redis url = %q", cfg.Redis.URL)
	}
	if cfg.Database.MaxConns != 20 {
		t.Errorf("database max_conns = %d", cfg.Database.MaxConns)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: info
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Recovery.MaxRetries != 3 {
		t.Errorf("expected default max_retries 3, got %d", cfg.Recovery.MaxRetries)
	}
	if cfg.Recovery.BaseDelay != time.Second || cfg.Recovery.MaxDelay != 30*time.Second {
		t.Errorf("recovery delays = %+v", cfg.Recovery)
	}
	if cfg.Recovery.MaxTimeout != 2*time.Minute || cfg.Recovery.HistoryLimit != 1000 {
		t.Errorf("recovery = %+v", cfg.Recovery)
	}
	if cfg.Client.MaxRetries != 2 || cfg.Client.BaseBackoff != 250*time.Millisecond {
		t.Errorf("client = %+v", cfg.Client)
	}
	if cfg.Client.MaxBackoff != 5*time.Second || cfg.Client.Timeout != 30*time.Second {
		t.Errorf("client = %+v", cfg.Client)
	}
	if cfg.Escalation.PersistErrors {
		t.Error("persist_errors must default to false")
	}
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_TRIAGE_PORT", "7070")
	t.Setenv("TEST_TRIAGE_REDIS_URL", "redis://cache:6379/1")

	path := writeConfig(t, `
server:
  port: ${TEST_TRIAGE_PORT}
redis:
  url: ${TEST_TRIAGE_REDIS_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("expected port from env, got %d", cfg.Server.Port)
	}
	if cfg.Redis.URL != "redis://cache:6379/1" {
		t.Errorf("expected redis url from env, got %q", cfg.Redis.URL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a: mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
