package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tabscope/tabscope/browser"
	"github.com/tabscope/tabscope/table"
)

const (
	maxCellWidth = 40
	columnGap    = "  "
)

// View renders the collected window: header, rows, status and prompt.
func (m Model) View() string {
	if m.width == 0 || m.scrolled == nil {
		return "loading..."
	}

	lockedWidths := columnWidths(m.locked, m.b)
	scrollWidths := columnWidths(m.scrolled, m.b)

	var sb strings.Builder
	sb.WriteString(m.renderHeader(lockedWidths, scrollWidths))
	sb.WriteString("\n")

	for i := 0; i < m.visibleHeight(); i++ {
		line := m.renderRow(i, lockedWidths, scrollWidths)
		if i == m.cursor {
			line = m.styles.selection.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")
	sb.WriteString(m.renderPromptLine())
	return sb.String()
}

// renderHeader styles locked and scrollable column titles differently, so
// cells are clipped to the terminal width before styling.
func (m Model) renderHeader(lockedWidths, scrollWidths []int) string {
	var sb strings.Builder
	remaining := m.width
	writeCell := func(cell string, style lipgloss.Style, first bool) bool {
		if !first {
			if remaining <= len(columnGap) {
				return false
			}
			sb.WriteString(columnGap)
			remaining -= len(columnGap)
		}
		if runewidth.StringWidth(cell) > remaining {
			cell = runewidth.Truncate(cell, remaining, "")
		}
		sb.WriteString(style.Render(cell))
		remaining -= runewidth.StringWidth(cell)
		return remaining > 0
	}

	first := true
	for i, col := range m.locked.Columns() {
		if !writeCell(pad(col, lockedWidths[i]), m.styles.locked, first) {
			return sb.String()
		}
		first = false
	}
	for i, col := range m.scrolled.Columns() {
		if !writeCell(pad(col, scrollWidths[i]), m.styles.header, first) {
			return sb.String()
		}
		first = false
	}
	return sb.String()
}

func (m Model) renderRow(i int, lockedWidths, scrollWidths []int) string {
	cells := make([]string, 0, len(lockedWidths)+len(scrollWidths))
	for j, col := range m.locked.Columns() {
		v, _ := m.locked.At(i, col)
		cells = append(cells, pad(m.b.FormatCell(v), lockedWidths[j]))
	}
	for j, col := range m.scrolled.Columns() {
		v, _ := m.scrolled.At(i, col)
		cells = append(cells, pad(m.b.FormatCell(v), scrollWidths[j]))
	}
	return clip(strings.Join(cells, columnGap), m.width)
}

func (m Model) renderStatus() string {
	view := m.b.View()
	total := "?"
	if n, ok := m.b.RowCount(); ok {
		total = fmt.Sprintf("%d", n)
	}
	first := view.StartRow + 1
	if m.visibleHeight() == 0 {
		first = 0
	}
	last := view.StartRow + m.visibleHeight()

	parts := []string{fmt.Sprintf("rows %d-%d of %s", first, last, total)}
	if view.LockedColumnsCount > 0 {
		parts = append(parts, fmt.Sprintf("%d locked", view.LockedColumnsCount))
	}
	if m.b.InDrillDown() {
		parts = append(parts, "drill-down (esc to return)")
	}
	parts = append(parts, m.b.Active().String())
	return m.styles.status.Render(clip(strings.Join(parts, " | "), m.width))
}

func (m Model) renderPromptLine() string {
	if m.prompting {
		return m.prompt.View()
	}
	if m.err != nil {
		return m.styles.errText.Render(clip("error: "+m.err.Error(), m.width))
	}
	return m.styles.status.Render("q quit  : command  / search  enter drill")
}

// columnWidths sizes each column to its widest rendered cell in the
// visible window, capped at maxCellWidth.
func columnWidths(t *table.Table, b *browser.Browser) []int {
	widths := make([]int, t.Width())
	for i, col := range t.Columns() {
		w := runewidth.StringWidth(col)
		for r := 0; r < t.Height(); r++ {
			v, _ := t.At(r, col)
			if cw := runewidth.StringWidth(b.FormatCell(v)); cw > w {
				w = cw
			}
		}
		if w > maxCellWidth {
			w = maxCellWidth
		}
		widths[i] = w
	}
	return widths
}

func pad(s string, width int) string {
	s = browser.TruncateCell(s, width)
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}

func clip(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "")
}
