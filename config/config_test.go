package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
buffer:
  pages_lookahead: 5
  max_buffered_rows: 2000
ui:
  header_color: "#ff87d7"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Buffer.PagesLookahead != 5 {
		t.Errorf("pages_lookahead = %d, want 5", cfg.Buffer.PagesLookahead)
	}
	if cfg.Buffer.MaxBufferedRows != 2000 {
		t.Errorf("max_buffered_rows = %d, want 2000", cfg.Buffer.MaxBufferedRows)
	}
	// Unset keys keep their defaults.
	def := Default()
	if cfg.Buffer.PagesLookback != def.Buffer.PagesLookback {
		t.Errorf("pages_lookback = %d, want default %d", cfg.Buffer.PagesLookback, def.Buffer.PagesLookback)
	}
	if cfg.UI.HeaderColor != "#ff87d7" {
		t.Errorf("header_color = %q", cfg.UI.HeaderColor)
	}
	if cfg.UI.StatusColor != def.UI.StatusColor {
		t.Errorf("status_color = %q, want default", cfg.UI.StatusColor)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for an explicitly named missing file")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative threshold", "buffer:\n  proximity_threshold: -1\n"},
		{"negative cap", "buffer:\n  max_buffered_mb: -5\n"},
		{"malformed yaml", "buffer: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBrowserConfigMapping(t *testing.T) {
	cfg := Default()
	cfg.Buffer.MaxBufferedRows = 123
	cfg.UI.ListPreviewElems = 4

	bc := cfg.BrowserConfig()
	if bc.MaxBufferedRows != 123 {
		t.Errorf("MaxBufferedRows = %d, want 123", bc.MaxBufferedRows)
	}
	if bc.ListPreviewElems != 4 {
		t.Errorf("ListPreviewElems = %d, want 4", bc.ListPreviewElems)
	}
}
