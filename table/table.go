// Package table provides the concrete, materialized row container shared by
// the relation engine and the browser core.
//
// A Table pairs an ordered column list with rows stored as maps. Column
// order is significant for display; the row maps themselves are flexible,
// matching how loaders and the relation engine produce data.
package table

// Table is an ordered set of columns over materialized rows.
//
// Rows are maps from column name to value. A row map may carry keys that are
// not in the column list (for example after a projection); such cells are
// invisible to consumers that iterate Columns().
type Table struct {
	columns []string
	rows    []map[string]interface{}
}

// New creates a table from an ordered column list and rows.
//
// The slices are retained, not copied.
func New(columns []string, rows []map[string]interface{}) *Table {
	return &Table{columns: columns, rows: rows}
}

// Empty returns a table with the given columns and no rows.
func Empty(columns []string) *Table {
	return &Table{columns: columns, rows: nil}
}

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	return t.columns
}

// Rows returns the underlying rows.
func (t *Table) Rows() []map[string]interface{} {
	return t.rows
}

// Height returns the number of rows.
func (t *Table) Height() int {
	return len(t.rows)
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// At returns the value at the given row index and column name.
//
// The second return value is false when the row index is out of range or the
// column is absent from that row.
func (t *Table) At(row int, column string) (interface{}, bool) {
	if row < 0 || row >= len(t.rows) {
		return nil, false
	}
	v, ok := t.rows[row][column]
	return v, ok
}

// Slice returns a view of length rows starting at offset.
//
// The range is clamped to the table bounds, so Slice never fails; an
// out-of-range request yields an empty table with the same columns. Rows are
// shared with the receiver.
func (t *Table) Slice(offset, length int) *Table {
	if offset < 0 {
		offset = 0
	}
	if offset > len(t.rows) {
		offset = len(t.rows)
	}
	end := offset + length
	if length < 0 || end > len(t.rows) {
		end = len(t.rows)
	}
	return &Table{columns: t.columns, rows: t.rows[offset:end]}
}

// Select returns a table exposing only the given columns, in the given
// order. Rows are shared with the receiver; columns absent from the data
// simply read as nil cells.
func (t *Table) Select(columns []string) *Table {
	return &Table{columns: columns, rows: t.rows}
}

// IsList reports whether a cell value is a list cell (as produced by a
// group-by without aggregation) and returns its elements.
func IsList(v interface{}) ([]interface{}, bool) {
	list, ok := v.([]interface{})
	return list, ok
}

// EstimatedSize returns an estimate of the heap bytes held by the table's
// visible cells. It is used to enforce soft memory caps, so it favors being
// cheap over being exact.
func (t *Table) EstimatedSize() int {
	const rowOverhead = 48 // map header amortized per row
	total := 0
	for _, row := range t.rows {
		total += rowOverhead
		for _, col := range t.columns {
			total += estimateValue(row[col])
		}
	}
	return total
}

// estimateValue estimates the heap footprint of a single cell.
func estimateValue(v interface{}) int {
	const cellOverhead = 16 // interface header
	switch val := v.(type) {
	case nil:
		return cellOverhead
	case string:
		return cellOverhead + len(val)
	case []byte:
		return cellOverhead + len(val)
	case []interface{}:
		total := cellOverhead + 24 // slice header
		for _, e := range val {
			total += estimateValue(e)
		}
		return total
	default:
		return cellOverhead + 8
	}
}
