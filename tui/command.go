package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tabscope/tabscope/output"
	"github.com/tabscope/tabscope/relation"
)

// execute runs one prompt line. Lines starting with "/" are fuzzy
// searches; lines starting with ":" are commands.
func (m *Model) execute(line string) error {
	if pattern, ok := strings.CutPrefix(line, "/"); ok {
		return m.b.ApplyFuzzySearch(strings.TrimSpace(pattern))
	}
	line = strings.TrimPrefix(line, ":")

	name, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	args = strings.TrimSpace(args)

	switch name {
	case "":
		return nil
	case "filter":
		return m.cmdFilter(args)
	case "sort":
		return m.cmdSort(args)
	case "query":
		return m.b.ApplyTextQuery(args)
	case "sql":
		return m.b.ApplySQLQuery(args)
	case "pivot":
		return m.cmdPivot(args)
	case "melt":
		return m.b.ApplyMelt(splitColumns(args))
	case "group":
		return m.b.ApplyGroupBy(splitColumns(args))
	case "lock":
		n, err := strconv.Atoi(args)
		if err != nil {
			return fmt.Errorf("lock: expected a column count, got %q", args)
		}
		m.b.SetLockedColumns(n)
		return nil
	case "move":
		return m.cmdMove(args)
	case "export":
		return m.cmdExport(args)
	case "reset":
		return m.b.ResetTransformations()
	default:
		return fmt.Errorf("unknown command :%s", name)
	}
}

// cmdFilter adds a filter clause. A trailing "or" token combines the
// clause with OR instead of AND.
func (m *Model) cmdFilter(args string) error {
	if args == "" {
		return m.b.ClearFilters()
	}
	or := false
	if expr, ok := strings.CutSuffix(args, " or"); ok {
		or = true
		args = strings.TrimSpace(expr)
	}
	return m.b.ApplyFilter(args, or)
}

// cmdSort parses a comma-separated key list; a leading "-" means
// descending. No arguments clears the sort.
func (m *Model) cmdSort(args string) error {
	if args == "" {
		return m.b.ApplySort(nil)
	}
	var keys []relation.SortKey
	for _, part := range splitColumns(args) {
		key := relation.SortKey{Column: part}
		if col, ok := strings.CutPrefix(part, "-"); ok {
			key = relation.SortKey{Column: col, Descending: true}
		}
		keys = append(keys, key)
	}
	return m.b.ApplySort(keys)
}

// cmdPivot parses "index on value [agg]".
func (m *Model) cmdPivot(args string) error {
	fields := strings.Fields(args)
	if len(fields) != 3 && len(fields) != 4 {
		return fmt.Errorf("pivot: expected 'index on value [agg]', got %q", args)
	}
	agg := relation.AggFirst
	if len(fields) == 4 {
		var err error
		agg, err = relation.ParseAggFunc(fields[3])
		if err != nil {
			return err
		}
	}
	return m.b.ApplyPivot(fields[0], fields[1], fields[2], agg)
}

// cmdMove parses "column delta" and shifts the column in display order.
func (m *Model) cmdMove(args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return fmt.Errorf("move: expected 'column delta', got %q", args)
	}
	delta, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("move: expected a numeric delta, got %q", fields[1])
	}
	return m.b.MoveColumn(fields[0], delta)
}

// cmdExport materializes the whole active relation and writes it to path,
// picking the format from the file extension.
func (m *Model) cmdExport(path string) error {
	if path == "" {
		return fmt.Errorf("export: missing destination path")
	}
	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		format = "csv"
	case ".json", ".jsonl", ".ndjson":
		format = "jsonl"
	default:
		return fmt.Errorf("export: cannot infer format from %q (use .csv, .json or .jsonl)", path)
	}

	tbl, err := m.b.Active().Materialize()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer file.Close()

	formatter, err := output.New(format, file)
	if err != nil {
		return err
	}
	if err := formatter.Format(tbl); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return file.Sync()
}

func splitColumns(args string) []string {
	if args == "" {
		return nil
	}
	parts := strings.Split(args, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
