package browser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/tabscope/tabscope/table"
)

// slice cuts the visible rows out of the buffered table and splits the
// columns into the locked prefix and the scrolled remainder. Pure
// re-slicing; the buffer is not touched.
func (b *Browser) slice(viewSpan span) (locked, scrolled *table.Table) {
	window := b.buf.tbl.Slice(viewSpan.start-b.buf.start, viewSpan.len())
	lockedCols := b.order.Locked(b.view.LockedColumnsCount)
	scrollCols := b.order.Scrollable(b.view.LockedColumnsCount, b.view.ColumnScrollOffset)
	return window.Select(lockedCols), window.Select(scrollCols)
}

// FormatCell renders a cell value for display. List cells show a preview
// of the first elements plus the total count; everything else goes through
// FormatValue.
func (b *Browser) FormatCell(v interface{}) string {
	if list, ok := table.IsList(v); ok {
		return formatListPreview(list, b.cfg.ListPreviewElems)
	}
	return FormatValue(v)
}

// FormatValue renders a scalar cell value. Nil renders empty, floats keep
// the shortest round-trip form.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// formatListPreview renders a grouped list cell as its first limit
// elements plus the total count, e.g. "[a, b, c, ...] (12)".
func formatListPreview(list []interface{}, limit int) string {
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	parts := make([]string, 0, limit)
	for _, v := range list[:limit] {
		parts = append(parts, FormatValue(v))
	}
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(strings.Join(parts, ", "))
	if limit < len(list) {
		sb.WriteString(", ...")
	}
	sb.WriteString("] (")
	sb.WriteString(strconv.Itoa(len(list)))
	sb.WriteString(")")
	return sb.String()
}

// TruncateCell fits a rendered cell into width terminal columns, ellipsis
// included, honoring wide runes.
func TruncateCell(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
