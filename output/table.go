package output

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/tabscope/tabscope/table"
)

// TableFormatter outputs rows as an aligned ASCII table
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new ASCII table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *TableFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format renders the table with aligned columns and a header row.
func (f *TableFormatter) Format(t *table.Table) error {
	w := tablewriter.NewWriter(f.writer)
	w.SetHeader(t.Columns())
	w.SetAutoFormatHeaders(false)
	w.SetAutoWrapText(false)

	record := make([]string, t.Width())
	for i := 0; i < t.Height(); i++ {
		for j, col := range t.Columns() {
			v, _ := t.At(i, col)
			record[j] = formatValue(v)
		}
		w.Append(record)
	}
	w.Render()
	return nil
}
