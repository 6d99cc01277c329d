// Package loader opens tabular files as lazy relations.
//
// Supported formats form a closed set (CSV, TSV, JSON, JSONL, Parquet, and
// hive-partitioned directories); Detect picks the format from the path and
// Open dispatches to the matching loader. Every loader reads the source into
// a table and wraps it in a relation, so downstream transformations stay
// lazy.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tabscope/tabscope/relation"
	"github.com/tabscope/tabscope/table"
)

// Format identifies a supported input format.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatTSV
	FormatJSON
	FormatJSONL
	FormatParquet
	FormatHive // hive-partitioned directory of data files
)

// String returns the format's short name.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatJSON:
		return "json"
	case FormatJSONL:
		return "jsonl"
	case FormatParquet:
		return "parquet"
	case FormatHive:
		return "hive"
	default:
		return "unknown"
	}
}

// Options tunes how a file is read.
type Options struct {
	// Format forces a format instead of detecting it from the path.
	Format Format

	// Delimiter overrides the CSV field separator (0 = format default).
	Delimiter rune

	// NoHeader treats the first CSV row as data; columns are named
	// column_1, column_2, ...
	NoHeader bool

	// MaxRows caps the number of rows read (0 = unlimited).
	MaxRows int
}

// Detect determines the format from the path: directories probe as hive
// trees, files go by extension.
func Detect(path string) (Format, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FormatHive, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	default:
		return FormatUnknown, fmt.Errorf("unsupported file extension: %s", filepath.Ext(path))
	}
}

// Open loads the file (or hive directory) at path as a lazy relation.
func Open(path string, opts Options) (*relation.Relation, error) {
	format := opts.Format
	if format == FormatUnknown {
		var err error
		format, err = Detect(path)
		if err != nil {
			return nil, err
		}
	}

	var (
		tbl *table.Table
		err error
	)
	switch format {
	case FormatCSV:
		tbl, err = readCSV(path, ',', opts)
	case FormatTSV:
		tbl, err = readCSV(path, '\t', opts)
	case FormatJSON:
		tbl, err = readJSON(path, opts)
	case FormatJSONL:
		tbl, err = readJSONL(path, opts)
	case FormatParquet:
		tbl, err = readParquet(path, opts)
	case FormatHive:
		tbl, err = readHive(path, opts)
	default:
		return nil, fmt.Errorf("unsupported format: %v", format)
	}
	if err != nil {
		return nil, err
	}
	return relation.FromTable(tbl), nil
}
