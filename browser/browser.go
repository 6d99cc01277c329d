package browser

import (
	"fmt"
	"log/slog"

	"github.com/tabscope/tabscope/relation"
	"github.com/tabscope/tabscope/table"
)

// Browser ties a lazy relation to a view window and a materialized buffer.
// All methods are single-goroutine; the TUI event loop is the only caller.
type Browser struct {
	cfg    Config
	logger *slog.Logger

	base   *relation.Relation
	state  transformState
	active *relation.Relation

	order  ColumnOrder
	view   ViewWindow
	buf    buffer
	counts rowCountCache
	drill  *drillRecord

	err error
}

// New creates a browser over the given relation.
func New(rel *relation.Relation, cfg Config) (*Browser, error) {
	cfg = cfg.withDefaults()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cols, err := rel.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	return &Browser{
		cfg:    cfg,
		logger: logger,
		base:   rel,
		active: rel,
		order:  NewColumnOrder(cols),
		view:   ViewWindow{VisibleRows: cfg.DefaultVisibleRows},
	}, nil
}

// View returns the current view window.
func (b *Browser) View() ViewWindow {
	return b.view
}

// Columns returns the full column display order.
func (b *Browser) Columns() []string {
	return b.order.All()
}

// Active returns the currently composed relation.
func (b *Browser) Active() *relation.Relation {
	return b.active
}

// RowCount returns the cached row count of the active relation. It never
// triggers a count; ok is false until the next Collect computes one.
func (b *Browser) RowCount() (int, bool) {
	return b.counts.numRows, b.counts.valid
}

// LastError returns the most recent transformation or evaluation error, if
// any. Failed transformations leave the browser state untouched; a failed
// Collect keeps the previous buffer.
func (b *Browser) LastError() error {
	return b.err
}

// ClearError discards the stored error.
func (b *Browser) ClearError() {
	b.err = nil
}

// ScrollRows moves the view by delta rows. The upper bound is enforced at
// Collect time when the row count is known.
func (b *Browser) ScrollRows(delta int) {
	b.view.StartRow += delta
	if b.view.StartRow < 0 {
		b.view.StartRow = 0
	}
}

// JumpToRow positions the view at the given absolute row.
func (b *Browser) JumpToRow(row int) {
	if row < 0 {
		row = 0
	}
	b.view.StartRow = row
}

// JumpToStart positions the view at the first row.
func (b *Browser) JumpToStart() {
	b.view.StartRow = 0
}

// JumpToEnd positions the view so the last row is the bottom visible row.
// Requires a row count; it computes one when the cache is stale.
func (b *Browser) JumpToEnd() error {
	n, err := b.rowCount()
	if err != nil {
		return err
	}
	start := n - b.view.VisibleRows
	if start < 0 {
		start = 0
	}
	b.view.StartRow = start
	return nil
}

// ScrollColumns moves the horizontal scroll offset by delta columns. The
// buffer holds the full column width, so this never rematerializes.
func (b *Browser) ScrollColumns(delta int) {
	b.view.ColumnScrollOffset += delta
	if b.view.ColumnScrollOffset < 0 {
		b.view.ColumnScrollOffset = 0
	}
	max := b.order.Len() - b.view.LockedColumnsCount
	if max < 0 {
		max = 0
	}
	if b.view.ColumnScrollOffset > max {
		b.view.ColumnScrollOffset = max
	}
}

// SetVisibleRows resizes the view height, typically on a terminal resize.
func (b *Browser) SetVisibleRows(rows int) {
	if rows < 1 {
		rows = 1
	}
	b.view.VisibleRows = rows
}

// SetLockedColumns pins the first n display columns so they ignore
// horizontal scrolling. Only the display split changes; the buffer stays.
func (b *Browser) SetLockedColumns(n int) {
	if n < 0 {
		n = 0
	}
	if n > b.order.Len() {
		n = b.order.Len()
	}
	b.view.LockedColumnsCount = n
}

// MoveColumn shifts a column within the display order. The buffer is
// invalidated because its cached table carries the old column order.
func (b *Browser) MoveColumn(name string, delta int) error {
	if err := b.order.Move(name, delta); err != nil {
		return err
	}
	b.buf.clear()
	return nil
}

// rowCount returns the active relation's row count, computing and caching
// it when stale.
func (b *Browser) rowCount() (int, error) {
	if b.counts.valid {
		return b.counts.numRows, nil
	}
	n, err := b.active.Count()
	if err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	b.counts.numRows = n
	b.counts.valid = true
	return n, nil
}

// Collect brings the buffer in line with the view and returns the visible
// slice, split into the locked column prefix and the scrollable remainder.
// When the view already sits inside the buffer and no growth is due, no
// relation work happens at all.
func (b *Browser) Collect() (locked, scrolled *table.Table, err error) {
	n, err := b.rowCount()
	if err != nil {
		b.err = err
		return nil, nil, err
	}
	if n == 0 {
		b.buf.clear()
		b.view.StartRow = 0
		lt, st := b.emptySlices()
		return lt, st, nil
	}

	if b.view.StartRow > n-1 {
		b.view.StartRow = n - 1
	}
	viewSpan := clampSpan(span{b.view.StartRow, b.view.StartRow + b.view.VisibleRows}, n)

	page := b.view.VisibleRows
	if page < 1 {
		page = 1
	}
	plan := planWindow(viewSpan, b.buf.span(), n, b.cfg, page)
	want := clampToRowCap(plan.want, viewSpan, n, b.cfg.MaxBufferedRows)

	if want == b.buf.span() && b.buf.heightConsistent() {
		lt, st := b.slice(viewSpan)
		return lt, st, nil
	}

	b.logger.Debug("buffer refill",
		slog.String("fit", plan.fit.String()),
		slog.Int("start", want.start),
		slog.Int("end", want.end),
		slog.Int("rows", n))

	tbl, err := b.active.Slice(want.start, want.len()).Materialize()
	if err != nil {
		b.err = fmt.Errorf("materializing rows %d..%d: %w", want.start, want.end, err)
		return nil, nil, b.err
	}
	b.buf.start = want.start
	b.buf.end = want.start + tbl.Height()
	b.buf.tbl = tbl

	b.enforceSizeCap(viewSpan)

	lt, st := b.slice(viewSpan)
	return lt, st, nil
}

// enforceSizeCap truncates the buffer tail when its estimated heap size
// exceeds MaxBufferedMB. The visible rows are never cut.
func (b *Browser) enforceSizeCap(viewSpan span) {
	if b.cfg.MaxBufferedMB <= 0 || b.buf.tbl == nil {
		return
	}
	height := b.buf.tbl.Height()
	if height == 0 {
		return
	}
	budget := b.cfg.MaxBufferedMB << 20
	size := b.buf.tbl.EstimatedSize()
	if size <= budget {
		return
	}
	perRow := size / height
	if perRow == 0 {
		perRow = 1
	}
	keep := budget / perRow
	if min := viewSpan.end - b.buf.start; keep < min {
		keep = min
	}
	if keep >= height {
		return
	}
	b.logger.Debug("buffer size cap",
		slog.Int("estimated_bytes", size),
		slog.Int("budget_bytes", budget),
		slog.Int("kept_rows", keep))
	b.buf.tbl = b.buf.tbl.Slice(0, keep)
	b.buf.end = b.buf.start + keep
}

// emptySlices returns a zero-row table pair carrying the column split, so
// the renderer still draws headers for an empty result.
func (b *Browser) emptySlices() (locked, scrolled *table.Table) {
	lockedCols := b.order.Locked(b.view.LockedColumnsCount)
	scrollCols := b.order.Scrollable(b.view.LockedColumnsCount, b.view.ColumnScrollOffset)
	return table.New(lockedCols, nil), table.New(scrollCols, nil)
}
