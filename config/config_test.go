package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := writeConfig(t, "api:\n  base_url: https://api.example.com\n")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.HealthTimeout != 10*time.Second {
		t.Errorf("HealthTimeout = %v, want 10s", cfg.HealthTimeout)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v, want 2s", cfg.RetryDelay)
	}
	if len(cfg.Targets) != 2 {
		t.Fatalf("Targets = %v, want the two defaults", cfg.Targets)
	}
	if cfg.Targets[0].Name != "scores" || cfg.Targets[1].Name != "certificates" {
		t.Errorf("default targets = %v", cfg.Targets)
	}
	if cfg.Backend != "xlsx" {
		t.Errorf("Backend = %q, want xlsx default", cfg.Backend)
	}
}

func TestLoadFullConfig(t *testing.T) {
	dir := writeConfig(t, `
api:
  base_url: https://api.example.com
  timeout: 45s
  max_attempts: 5
sheets:
  backend: google
  spreadsheet_id: abc123
  max_column_width: 300
targets:
  - name: scores
    path: /api/v1/exchange-scores
    sheet: Scores
schedule:
  interval: 30m
  quiet_from: 2
  quiet_to: 5
log:
  level: debug
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != 45*time.Second || cfg.MaxAttempts != 5 {
		t.Errorf("api config = %+v", cfg)
	}
	if cfg.Backend != "google" || cfg.SpreadsheetID != "abc123" || cfg.MaxColumnWidth != 300 {
		t.Errorf("sheets config = %+v", cfg)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Sheet != "Scores" {
		t.Errorf("targets = %v", cfg.Targets)
	}
	if cfg.Interval != "30m" || cfg.QuietFrom != 2 || cfg.QuietTo != 5 {
		t.Errorf("schedule = %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	dir := writeConfig(t, "log:\n  level: info\n")
	if _, err := Load(dir); err == nil {
		t.Error("expected error when api.base_url is missing")
	}
}

func TestTargetLookup(t *testing.T) {
	cfg := &Config{Targets: DefaultTargets()}
	if _, ok := cfg.Target("scores"); !ok {
		t.Error("scores target should exist")
	}
	if _, ok := cfg.Target("nope"); ok {
		t.Error("unknown target should not resolve")
	}
}
