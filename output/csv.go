package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/tabscope/tabscope/table"
)

// CSVFormatter outputs rows as CSV format
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes the table as CSV, header first, columns in table order.
func (c *CSVFormatter) Format(t *table.Table) error {
	csvWriter := csv.NewWriter(c.writer)

	columns := t.Columns()
	if err := csvWriter.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for i := 0; i < t.Height(); i++ {
		for j, col := range columns {
			v, _ := t.At(i, col)
			record[j] = formatValue(v)
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// formatValue converts a value to string for CSV output
func formatValue(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		// Sanitize against CSV injection by prefixing dangerous characters
		// that could trigger formula execution in spreadsheet applications
		if len(val) > 0 {
			firstChar := val[0]
			if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' || firstChar == '\t' || firstChar == '\r' || firstChar == '\n' || firstChar == '|' {
				// Escape existing single quotes and prefix with quote to prevent formula injection
				return "'" + strings.ReplaceAll(val, "'", "''")
			}
		}
		return val
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		// For complex types like grouped lists, fall back to Go syntax
		return fmt.Sprintf("%v", val)
	}
}
