package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dispatcher/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Viewer.Palette != "fpbase" {
		t.Fatalf("default palette = %q, want fpbase", cfg.Viewer.Palette)
	}
	if cfg.Pipeline.Version != "2.0.2" {
		t.Fatalf("default pipeline version = %q", cfg.Pipeline.Version)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Transfer.AWSBinary != "aws" {
		t.Fatalf("aws binary default = %q", cfg.Transfer.AWSBinary)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
results_dir = "` + filepath.Join(dir, "results") + `"

[storage]
cloud_mode = true
output_path = "/my-bucket/prefix/"

[viewer]
palette = "CIE"
base_url = "https://viewer.example.com/"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if !cfg.Storage.CloudMode {
		t.Fatal("cloud_mode not parsed")
	}
	if cfg.Storage.OutputPath != "my-bucket/prefix" {
		t.Fatalf("output path = %q, want trimmed my-bucket/prefix", cfg.Storage.OutputPath)
	}
	if cfg.Viewer.Palette != "cie" {
		t.Fatalf("palette = %q, want cie", cfg.Viewer.Palette)
	}
	if cfg.Viewer.BaseURL != "https://viewer.example.com" {
		t.Fatalf("base url = %q, want trailing slash removed", cfg.Viewer.BaseURL)
	}
}

func TestValidateRejectsUnknownPalette(t *testing.T) {
	cfg := config.Default()
	cfg.Viewer.Palette = "rainbow"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "viewer.palette") {
		t.Fatalf("error %q does not name the palette field", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample config not found after CreateSample")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}
