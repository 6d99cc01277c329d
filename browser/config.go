// Package browser implements the windowed buffering core of the data
// browser: it decides, on every navigation or transformation event, which
// row range of the active relation to materialize, how to grow, slide or
// clamp that window, and when the cached window can simply be re-sliced.
//
// The browser owns the view window, the column order, the row-count cache
// and the transformation state (filters, sort, query modes, reshape,
// drill-down); the lazy relation engine does the actual work of producing
// rows.
package browser

import "log/slog"

// Config tunes the buffering behavior. All values are plain data passed at
// construction; the browser holds no ambient state.
type Config struct {
	// ProximityThreshold is the distance in rows from a buffer edge within
	// which the buffer proactively grows toward that edge.
	ProximityThreshold int

	// PagesLookahead and PagesLookback size buffer growth in pages
	// (one page = the visible row count, or 1 when unknown).
	PagesLookahead int
	PagesLookback  int

	// MaxBufferedRows caps the buffer length in rows (0 = unbounded).
	MaxBufferedRows int

	// MaxBufferedMB caps the buffer's estimated heap size (0 = unbounded).
	// Enforced after materialization by truncating the buffer tail.
	MaxBufferedMB int

	// ListPreviewElems is how many elements of a grouped list cell are
	// shown before the preview is cut off.
	ListPreviewElems int

	// DefaultVisibleRows seeds the view height until the renderer reports
	// a real terminal size.
	DefaultVisibleRows int

	// Logger receives debug traces of buffer decisions. Nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns the tuning used when no configuration file is
// present.
func DefaultConfig() Config {
	return Config{
		ProximityThreshold: 5,
		PagesLookahead:     3,
		PagesLookback:      3,
		MaxBufferedRows:    10000,
		MaxBufferedMB:      0,
		ListPreviewElems:   10,
		DefaultVisibleRows: 25,
	}
}

// withDefaults fills the fields where zero is not a meaningful setting.
func (c Config) withDefaults() Config {
	if c.ListPreviewElems <= 0 {
		c.ListPreviewElems = 10
	}
	if c.DefaultVisibleRows <= 0 {
		c.DefaultVisibleRows = 25
	}
	return c
}
