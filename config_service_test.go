package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quietkey/pttd/internal/output"
)

func TestConfigServiceDefaults(t *testing.T) {
	dir := t.TempDir()
	svc := newConfigServiceAt(filepath.Join(dir, "config.json"))

	cfg := svc.Load()
	if cfg.Model != "base" {
		t.Errorf("default model = %q; want %q", cfg.Model, "base")
	}
	if cfg.HotkeyKey != "space" || !cfg.Ctrl || !cfg.Alt {
		t.Errorf("default hotkey = %+v; want space+ctrl+alt", cfg)
	}
	if cfg.OutputMode != output.ModeClipboard {
		t.Errorf("default output mode = %q; want %q", cfg.OutputMode, output.ModeClipboard)
	}
}

func TestConfigServiceSaveLoad(t *testing.T) {
	dir := t.TempDir()
	svc := newConfigServiceAt(filepath.Join(dir, "config.json"))

	want := defaultConfig()
	want.Model = "small"
	want.OutputMode = output.ModeDirectWrite
	if err := svc.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := svc.Load()
	if got != want {
		t.Errorf("Load() = %+v; want %+v", got, want)
	}
}

func TestConfigServiceCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := os.WriteFile(path, []byte("{bad json"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := newConfigServiceAt(path)
	cfg := svc.Load()

	if cfg.Model != "base" {
		t.Errorf("corrupt fallback model = %q; want %q", cfg.Model, "base")
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("corrupt file should have been overwritten with defaults: %v", err)
	}
}

func TestConfigServicePartialFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := os.WriteFile(path, []byte(`{"model":"tiny"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := newConfigServiceAt(path)
	cfg := svc.Load()
	if cfg.Model != "tiny" {
		t.Errorf("model = %q; want %q", cfg.Model, "tiny")
	}
	if cfg.HotkeyKey != "space" {
		t.Errorf("hotkey should default to %q, got %q", "space", cfg.HotkeyKey)
	}
}
