package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/tabscope/tabscope/table"
)

// readParquet reads all rows of a parquet file into a table.
//
// Column order follows the parquet schema. Byte-array cells decode to
// strings, matching how the rest of the pipeline treats text.
func readParquet(path string, opts Options) (*table.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	schema := pqFile.Schema()
	columns := make([]string, 0, len(schema.Fields()))
	for _, field := range schema.Fields() {
		columns = append(columns, field.Name())
	}

	reader := parquet.NewReader(pqFile)
	defer func() { _ = reader.Close() }()

	rows := make([]map[string]interface{}, 0)
	for {
		row := make(map[string]interface{})
		err := reader.Read(&row)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		rows = append(rows, row)
		if opts.MaxRows > 0 && len(rows) >= opts.MaxRows {
			break
		}
	}

	return table.New(columns, rows), nil
}
