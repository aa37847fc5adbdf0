package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "provider: anthropic\nmodel: claude-sonnet-4\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxTurns != 100 {
		t.Errorf("MaxTurns = %d, want default 100", cfg.MaxTurns)
	}
	if cfg.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want default 4096", cfg.MaxTokens)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic", cfg.Provider)
	}
}

func TestLoadResolvesInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "max_turns: 10\ncache:\n  dir: __cache__\n")
	path := writeFile(t, dir, "config.yaml", "$include: base.yaml\nprovider: openai\nmodel: gpt-4o\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxTurns != 10 {
		t.Errorf("MaxTurns = %d, want 10 from included file", cfg.MaxTurns)
	}
	if cfg.Cache.Dir != "__cache__" {
		t.Errorf("Cache.Dir = %q, want __cache__ from included file", cfg.Cache.Dir)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want openai (override from including file)", cfg.Provider)
	}
}

func TestLoadDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.yaml")
	bPath := filepath.Join(dir, "b.yaml")
	writeFile(t, dir, "a.yaml", "$include: b.yaml\n")
	writeFile(t, dir, "b.yaml", "$include: a.yaml\n")

	if _, err := Load(aPath); err == nil {
		t.Fatal("expected error for include cycle, got nil")
	}
	_ = bPath
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("LOWIRE_TEST_MODEL", "gpt-4o-mini")
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "provider: openai\nmodel: ${LOWIRE_TEST_MODEL}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want expanded env var gpt-4o-mini", cfg.Model)
	}
}
