// Package output provides formatters for writing tables to non-interactive
// destinations.
//
// Currently supported formats:
//   - JSON Lines: One JSON object per line
//   - CSV: Comma-separated values with header row
//   - Table: Aligned ASCII table for terminals
//
// Example usage:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//	if err := formatter.Format(tbl); err != nil {
//	    log.Fatal(err)
//	}
package output

import (
	"fmt"
	"io"

	"github.com/tabscope/tabscope/table"
)

// Formatter defines the interface for output formatters.
//
// Implementers must provide Format to convert a table to the target format
// and SetOutput to change the output destination.
type Formatter interface {
	// Format writes the table in the formatter's specific format
	Format(t *table.Table) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// New returns a formatter by name: "json", "jsonl", "csv" or "table".
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "json", "jsonl":
		return NewJSONFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "table":
		return NewTableFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (supported: json, jsonl, csv, table)", format)
	}
}
