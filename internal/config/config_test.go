package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "farehop.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
relay_secret: "a-long-enough-test-secret"
redis:
  addr: "redis.internal:6379"
  db: 2
sqlite_path: "/var/lib/farehop/farehop.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Redis.Addr != "redis.internal:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel default not applied: %q", cfg.LogLevel)
	}
}

func TestLoad_EnvOverridesSecret(t *testing.T) {
	path := writeConfig(t, `
relay_secret: "file-secret-not-used-here"
`)
	t.Setenv("FAREHOP_RELAY_SECRET", "env-secret-wins-over-file")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RelaySecret != "env-secret-wins-over-file" {
		t.Errorf("RelaySecret = %q, want env override", cfg.RelaySecret)
	}
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	path := writeConfig(t, `
relay_secret: "short"
`)
	if _, err := Load(path); err == nil {
		t.Error("a short relay secret must be rejected")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file must surface an error")
	}
}
