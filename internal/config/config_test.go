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
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
redis:
  url: "localhost:6379"
database:
  url: "postgres://localhost/concierge"
`)
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port default = %d", cfg.Server.Port)
	}
	if cfg.Session.Window != 15 {
		t.Errorf("window default = %d", cfg.Session.Window)
	}
	if cfg.Session.TTL != 7*24*time.Hour {
		t.Errorf("session ttl default = %v", cfg.Session.TTL)
	}
	if cfg.Knowledge.TokenBudget != 6000 {
		t.Errorf("token budget default = %d", cfg.Knowledge.TokenBudget)
	}
	if cfg.Server.RateLimit != 20 || cfg.Server.RateWindow != time.Minute {
		t.Errorf("rate defaults = %d/%v", cfg.Server.RateLimit, cfg.Server.RateWindow)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("TEST_REDIS_URL", "redis-host:6379")
	path := writeConfig(t, `
redis:
  url: "${TEST_REDIS_URL}"
database:
  url: "postgres://localhost/concierge"
`)
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Redis.URL != "redis-host:6379" {
		t.Errorf("env not expanded: %q", cfg.Redis.URL)
	}
}

func TestLoadConfigRequiresRedisAndDatabase(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost/concierge"
`)
	if _, err := LoadConfig(path, false); err == nil {
		t.Error("expected error for missing redis.url")
	}

	path = writeConfig(t, `
redis:
  url: "localhost:6379"
`)
	if _, err := LoadConfig(path, false); err == nil {
		t.Error("expected error for missing database.url")
	}
}

func TestLoadConfigDevFlag(t *testing.T) {
	path := writeConfig(t, `
redis:
  url: "localhost:6379"
database:
  url: "postgres://localhost/concierge"
`)
	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Runtime.Dev {
		t.Error("dev flag not carried into runtime config")
	}
}
