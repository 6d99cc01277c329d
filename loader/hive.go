package loader

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/tabscope/tabscope/table"
)

// readHive reads a hive-partitioned directory: data files live in nested
// key=value directories, and each partition key becomes a column on every
// row read from below it.
//
//	events/year=2024/month=01/part-0.parquet
//	events/year=2024/month=02/part-0.parquet
//
// Files whose extension is not a supported data format are skipped, so
// _SUCCESS markers and similar metadata do not break the read.
func readHive(root string, opts Options) (*table.Table, error) {
	var columns []string
	var partitionCols []string
	var allRows []map[string]interface{}
	seenPartition := make(map[string]bool)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		format, detectErr := Detect(path)
		if detectErr != nil || format == FormatHive {
			return nil // not a data file
		}

		partitions, parseErr := partitionValues(root, path)
		if parseErr != nil {
			return parseErr
		}

		fileOpts := opts
		fileOpts.Format = format
		var tbl *table.Table
		var readErr error
		switch format {
		case FormatCSV:
			tbl, readErr = readCSV(path, ',', fileOpts)
		case FormatTSV:
			tbl, readErr = readCSV(path, '\t', fileOpts)
		case FormatJSON:
			tbl, readErr = readJSON(path, fileOpts)
		case FormatJSONL:
			tbl, readErr = readJSONL(path, fileOpts)
		case FormatParquet:
			tbl, readErr = readParquet(path, fileOpts)
		}
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", path, readErr)
		}

		if columns == nil {
			columns = append(columns, tbl.Columns()...)
		}
		for _, p := range partitions {
			if !seenPartition[p.key] {
				seenPartition[p.key] = true
				partitionCols = append(partitionCols, p.key)
			}
		}

		for _, row := range tbl.Rows() {
			for _, p := range partitions {
				row[p.key] = inferValue(p.value)
			}
			allRows = append(allRows, row)
			if opts.MaxRows > 0 && len(allRows) >= opts.MaxRows {
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	if len(allRows) == 0 && columns == nil {
		return nil, fmt.Errorf("no data files under %s", root)
	}

	return table.New(append(columns, partitionCols...), allRows), nil
}

// partition is one key=value path segment.
type partition struct {
	key   string
	value string
}

// partitionValues extracts key=value segments between root and the file.
func partitionValues(root, path string) ([]partition, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, fmt.Errorf("failed to relativize %s: %w", path, err)
	}
	var out []partition
	for _, segment := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if k, v, ok := strings.Cut(segment, "="); ok && k != "" {
			out = append(out, partition{key: k, value: v})
		}
	}
	return out, nil
}
