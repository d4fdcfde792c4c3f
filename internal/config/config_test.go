package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Vision.Provider != "ollama" {
		t.Errorf("expected provider 'ollama', got %q", cfg.Vision.Provider)
	}
	if cfg.Vision.Model != "qwen2.5vl:7b" {
		t.Errorf("expected model 'qwen2.5vl:7b', got %q", cfg.Vision.Model)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if len(cfg.Leaderboard.Versions) != 2 {
		t.Errorf("expected 2 weight versions, got %d", len(cfg.Leaderboard.Versions))
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
vision:
  provider: openai
  openai_model: gpt-4o
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Vision.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.Vision.Provider)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Vision.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.Vision.OllamaURL)
	}
	if cfg.Leaderboard.ActiveVersion != "v1" {
		t.Errorf("expected default active_version v1, got %q", cfg.Leaderboard.ActiveVersion)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Vision.Provider != "ollama" {
		t.Error("expected vision settings populated from file")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}

func TestActiveWeights(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	w := cfg.ActiveWeights()
	if w.ID != "v1" {
		t.Errorf("active weights = %q, want v1", w.ID)
	}

	cfg.Leaderboard.ActiveVersion = "v2"
	if w := cfg.ActiveWeights(); w.ID != "v2" {
		t.Errorf("active weights = %q, want v2", w.ID)
	}

	// Unknown version falls back to the first configured one.
	cfg.Leaderboard.ActiveVersion = "v9"
	if w := cfg.ActiveWeights(); w.ID != "v1" {
		t.Errorf("fallback weights = %q, want v1", w.ID)
	}
}
