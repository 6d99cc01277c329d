// Package config loads the browser configuration from a YAML file and maps
// it onto the tuning knobs of the buffering core and the UI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tabscope/tabscope/browser"
)

// Config is the on-disk configuration.
type Config struct {
	Buffer BufferConfig `yaml:"buffer"`
	UI     UIConfig     `yaml:"ui"`
}

// BufferConfig tunes the windowed row buffer.
type BufferConfig struct {
	ProximityThreshold int `yaml:"proximity_threshold"`
	PagesLookahead     int `yaml:"pages_lookahead"`
	PagesLookback      int `yaml:"pages_lookback"`
	MaxBufferedRows    int `yaml:"max_buffered_rows"`
	MaxBufferedMB      int `yaml:"max_buffered_mb"`
}

// UIConfig tunes rendering. Colors are lipgloss color strings, either ANSI
// numbers ("205") or hex ("#ff87d7").
type UIConfig struct {
	ListPreviewElems int    `yaml:"list_preview_elems"`
	HeaderColor      string `yaml:"header_color"`
	SelectionColor   string `yaml:"selection_color"`
	StatusColor      string `yaml:"status_color"`
	LockedColor      string `yaml:"locked_color"`
}

// Default returns the built-in configuration.
func Default() Config {
	b := browser.DefaultConfig()
	return Config{
		Buffer: BufferConfig{
			ProximityThreshold: b.ProximityThreshold,
			PagesLookahead:     b.PagesLookahead,
			PagesLookback:      b.PagesLookback,
			MaxBufferedRows:    b.MaxBufferedRows,
			MaxBufferedMB:      b.MaxBufferedMB,
		},
		UI: UIConfig{
			ListPreviewElems: b.ListPreviewElems,
			HeaderColor:      "205",
			SelectionColor:   "57",
			StatusColor:      "241",
			LockedColor:      "94",
		},
	}
}

// DefaultPath returns the conventional configuration file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tabscope", "config.yaml")
}

// Load reads the configuration at path, layering it over the defaults.
// An empty path falls back to DefaultPath; a missing file is not an error
// and yields the defaults.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Buffer.ProximityThreshold < 0 {
		return fmt.Errorf("buffer.proximity_threshold must not be negative")
	}
	if c.Buffer.PagesLookahead < 0 || c.Buffer.PagesLookback < 0 {
		return fmt.Errorf("buffer pages_lookahead and pages_lookback must not be negative")
	}
	if c.Buffer.MaxBufferedRows < 0 || c.Buffer.MaxBufferedMB < 0 {
		return fmt.Errorf("buffer caps must not be negative")
	}
	if c.UI.ListPreviewElems < 0 {
		return fmt.Errorf("ui.list_preview_elems must not be negative")
	}
	return nil
}

// BrowserConfig maps the configuration onto the buffering core's tuning.
func (c Config) BrowserConfig() browser.Config {
	out := browser.DefaultConfig()
	out.ProximityThreshold = c.Buffer.ProximityThreshold
	out.PagesLookahead = c.Buffer.PagesLookahead
	out.PagesLookback = c.Buffer.PagesLookback
	out.MaxBufferedRows = c.Buffer.MaxBufferedRows
	out.MaxBufferedMB = c.Buffer.MaxBufferedMB
	out.ListPreviewElems = c.UI.ListPreviewElems
	return out
}
