package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFallsBackToDefaults(t *testing.T) {
	// 包目录下没有 config.yaml，应返回编译期默认值
	cfg := New()

	if cfg.Tamper.Count != 600 {
		t.Errorf("tamper.count = %d, want 600", cfg.Tamper.Count)
	}
	if cfg.Tamper.RealDir != "data/real" || cfg.Tamper.TamperedDir != "data/tampered" {
		t.Errorf("tamper dirs = %s / %s", cfg.Tamper.RealDir, cfg.Tamper.TamperedDir)
	}
	if !cfg.Tamper.SkipUnreadable || cfg.Tamper.Additive {
		t.Error("tamper policy defaults wrong")
	}
	if cfg.Inference.InputSize != 256 || cfg.Inference.Threshold != 0.5 {
		t.Errorf("inference defaults = %d / %f", cfg.Inference.InputSize, cfg.Inference.Threshold)
	}
	if cfg.Server.Port != ":8080" {
		t.Errorf("server.port = %s", cfg.Server.Port)
	}
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
tamper:
  count: 42
  seed: 7
  font_face: duplex
inference:
  threshold: 0.6
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Tamper.Count != 42 || cfg.Tamper.Seed != 7 || cfg.Tamper.FontFace != "duplex" {
		t.Errorf("overrides not applied: %+v", cfg.Tamper)
	}
	if cfg.Inference.Threshold != 0.6 {
		t.Errorf("inference.threshold = %f, want 0.6", cfg.Inference.Threshold)
	}
	// 未覆盖的字段保持默认
	if cfg.Tamper.TamperedDir != "data/tampered" {
		t.Errorf("tamper.tampered_dir = %s, want default", cfg.Tamper.TamperedDir)
	}
	if cfg.Inference.InputSize != 256 {
		t.Errorf("inference.input_size = %d, want default 256", cfg.Inference.InputSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
