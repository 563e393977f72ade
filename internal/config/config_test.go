package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("default window size = %dx%d, want 800x600", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default log level = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	data := "window:\n  width: 1024\n  title: Custom\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Window.Width != 1024 {
		t.Errorf("Window.Width = %d, want 1024", cfg.Window.Width)
	}
	if cfg.Window.Height != 600 {
		t.Errorf("Window.Height = %d, want default 600 (untouched by file)", cfg.Window.Height)
	}
	if cfg.Window.Title != "Custom" {
		t.Errorf("Window.Title = %q, want %q", cfg.Window.Title, "Custom")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected an error for a nonexistent config file")
	}
}

func TestDumpRoundTrips(t *testing.T) {
	cfg := Default()
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Dump produced no output")
	}
}
