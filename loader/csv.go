package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tabscope/tabscope/table"
)

// readCSV reads a delimited file with an optional header row. Cell values
// are type-inferred per cell: int64, float64, bool, string; empty cells
// become nil.
func readCSV(path string, defaultDelim rune, opts Options) (*table.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	r := csv.NewReader(file)
	r.Comma = defaultDelim
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	r.FieldsPerRecord = -1 // tolerate ragged rows; short rows read as nil cells

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return table.Empty(nil), nil
	}

	var columns []string
	var dataRecords [][]string
	if opts.NoHeader {
		columns = make([]string, len(records[0]))
		for i := range columns {
			columns[i] = fmt.Sprintf("column_%d", i+1)
		}
		dataRecords = records
	} else {
		columns = records[0]
		dataRecords = records[1:]
	}

	if opts.MaxRows > 0 && len(dataRecords) > opts.MaxRows {
		dataRecords = dataRecords[:opts.MaxRows]
	}

	rows := make([]map[string]interface{}, 0, len(dataRecords))
	for _, record := range dataRecords {
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				row[col] = nil
				continue
			}
			row[col] = inferValue(record[i])
		}
		rows = append(rows, row)
	}

	return table.New(columns, rows), nil
}

// inferValue guesses a cell's type from its text.
func inferValue(s string) interface{} {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
