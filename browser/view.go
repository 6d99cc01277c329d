package browser

import "fmt"

// ViewWindow is the visible row range plus the horizontal column state:
// a locked column prefix that never scrolls, and a scroll offset into the
// remaining columns.
type ViewWindow struct {
	StartRow           int
	VisibleRows        int
	ColumnScrollOffset int
	LockedColumnsCount int
}

// ColumnOrder is the display order of columns, partitioned into a locked
// prefix and a scrollable remainder by the view's LockedColumnsCount.
type ColumnOrder struct {
	names []string
}

// NewColumnOrder creates a column order over the given names.
func NewColumnOrder(names []string) ColumnOrder {
	return ColumnOrder{names: names}
}

// All returns every column in display order.
func (o ColumnOrder) All() []string {
	return o.names
}

// Len returns the number of columns.
func (o ColumnOrder) Len() int {
	return len(o.names)
}

// Locked returns the locked prefix, clamped to the available columns.
func (o ColumnOrder) Locked(lockedCount int) []string {
	if lockedCount < 0 {
		lockedCount = 0
	}
	if lockedCount > len(o.names) {
		lockedCount = len(o.names)
	}
	return o.names[:lockedCount]
}

// Scrollable returns the scrollable columns past the locked prefix,
// starting at the given scroll offset (clamped).
func (o ColumnOrder) Scrollable(lockedCount, offset int) []string {
	rest := o.names[len(o.Locked(lockedCount)):]
	if offset < 0 {
		offset = 0
	}
	if offset > len(rest) {
		offset = len(rest)
	}
	return rest[offset:]
}

// Move shifts the named column by delta positions (negative = left).
func (o *ColumnOrder) Move(name string, delta int) error {
	from := -1
	for i, n := range o.names {
		if n == name {
			from = i
			break
		}
	}
	if from == -1 {
		return fmt.Errorf("column %q not found", name)
	}
	to := from + delta
	if to < 0 {
		to = 0
	}
	if to >= len(o.names) {
		to = len(o.names) - 1
	}
	if to == from {
		return nil
	}
	moved := o.names[from]
	names := append(o.names[:from:from], o.names[from+1:]...)
	names = append(names[:to:to], append([]string{moved}, names[to:]...)...)
	o.names = names
	return nil
}

// clone returns an independent copy.
func (o ColumnOrder) clone() ColumnOrder {
	names := make([]string, len(o.names))
	copy(names, o.names)
	return ColumnOrder{names: names}
}

// rowCountCache is the lazily-recomputed, explicitly-invalidated row count
// of the active relation.
type rowCountCache struct {
	numRows int
	valid   bool
}

// invalidate marks the count stale; the next Collect recomputes it once.
func (c *rowCountCache) invalidate() {
	c.valid = false
}
