package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validPresets = `
presets:
  coreml:
    format: coreml
    nms: "true"
    imgsz: "640"
  coreml-fast:
    format: coreml
    nms: "false"
`

func TestParsePresets(t *testing.T) {
	cfg, err := ParsePresets([]byte(validPresets))
	if err != nil {
		t.Fatalf("parse presets: %v", err)
	}
	p, ok := cfg.Lookup("coreml")
	if !ok {
		t.Fatalf("expected coreml preset")
	}
	if p["format"] != "coreml" || p["nms"] != "true" || p["imgsz"] != "640" {
		t.Fatalf("unexpected preset values: %#v", p)
	}
	if _, ok := cfg.Lookup("missing"); ok {
		t.Fatalf("unexpected preset hit")
	}
}

func TestParsePresetsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"non-string value": "presets:\n  bad:\n    imgsz: 640\n",
		"missing presets":  "other: {}\n",
		"empty presets":    "presets: {}\n",
	}
	for name, data := range cases {
		if _, err := ParsePresets([]byte(data)); err == nil {
			t.Fatalf("%s: expected schema error", name)
		}
	}
}

func TestParsePresetsEmpty(t *testing.T) {
	cfg, err := ParsePresets(nil)
	if err != nil || cfg != nil {
		t.Fatalf("expected nil config for empty data, got %v, %v", cfg, err)
	}
}

func TestLoadPresets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	if err := os.WriteFile(path, []byte(validPresets), 0o644); err != nil {
		t.Fatalf("write presets: %v", err)
	}

	cfg, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("load presets: %v", err)
	}
	if len(cfg.Presets) != 2 {
		t.Fatalf("unexpected preset count: %d", len(cfg.Presets))
	}
}

func TestLoadPresetsMissingFile(t *testing.T) {
	cfg, err := LoadPresets(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil || cfg != nil {
		t.Fatalf("expected nil for missing file, got %v, %v", cfg, err)
	}
	if cfg, err := LoadPresets(""); err != nil || cfg != nil {
		t.Fatalf("expected nil for empty path")
	}
}

func TestLoadPresetsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	if err := os.WriteFile(path, []byte("presets:\n  x:\n    v: 1\n"), 0o644); err != nil {
		t.Fatalf("write presets: %v", err)
	}
	_, err := LoadPresets(path)
	if err == nil || !strings.Contains(err.Error(), "presets") {
		t.Fatalf("expected schema error, got %v", err)
	}
}
