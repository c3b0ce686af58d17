package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Dataset.Encoding != "iso-8859-1" {
		t.Errorf("expected encoding 'iso-8859-1', got %q", cfg.Dataset.Encoding)
	}
	if cfg.Dashboard.TopN != 10 || cfg.Dashboard.HotThreshold != 100000 {
		t.Errorf("unexpected dashboard defaults %+v", cfg.Dashboard)
	}
	if !strings.Contains(cfg.Dashboard.Intro, "Superstore") {
		t.Errorf("expected intro markdown, got %q", cfg.Dashboard.Intro)
	}
	if cfg.Server.Port != 8501 {
		t.Errorf("expected port 8501, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
dashboard:
  hot_threshold: 2500
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Dashboard.HotThreshold != 2500 {
		t.Errorf("expected threshold 2500, got %v", cfg.Dashboard.HotThreshold)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Dashboard.TopN != 10 || cfg.Dataset.Table != "orders" {
		t.Errorf("expected defaults, got %+v %+v", cfg.Dashboard, cfg.Dataset)
	}
	if cfg.SessionTTL() != 2*time.Hour {
		t.Errorf("expected 2h session ttl, got %v", cfg.SessionTTL())
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := []string{
		"dataset:\n  encoding: ebcdic\n",
		"dashboard:\n  top_n: 0\n",
		"dashboard:\n  hot_threshold: -1\n",
		"server:\n  port: 70000\n",
		"server: [",
	}
	for _, c := range cases {
		if _, err := parse([]byte(c)); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("dataset:\n  path: /data/superstore.csv\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, resolved, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if resolved != path || cfg.Dataset.Path != "/data/superstore.csv" {
		t.Errorf("unexpected config from %s: %+v", resolved, cfg.Dataset)
	}
}

func TestLoadOrDefaultWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, path, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" || cfg.Server.Port != 8501 {
		t.Errorf("expected built-in defaults, got %q %+v", path, cfg.Server)
	}

	if _, err := ResolveConfigPath(""); !errors.Is(err, ErrNoConfig) {
		t.Errorf("expected ErrNoConfig, got %v", err)
	}
	if _, _, err := LoadOrDefault("missing.yaml"); err == nil {
		t.Error("expected error for a missing explicit config")
	}
}

func TestGetOutputDir(t *testing.T) {
	cfg := &Config{}
	if !strings.HasSuffix(cfg.GetOutputDir(), filepath.Join("storedash", "exports")) {
		t.Errorf("unexpected default output dir %q", cfg.GetOutputDir())
	}

	cfg.Output.Dir = "/custom/path"
	if cfg.GetOutputDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetOutputDir())
	}
}
