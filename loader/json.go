package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tabscope/tabscope/table"
)

// readJSON reads a file containing a JSON array of objects.
func readJSON(path string, opts Options) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	var raw []map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode json array: %w", err)
	}

	if opts.MaxRows > 0 && len(raw) > opts.MaxRows {
		raw = raw[:opts.MaxRows]
	}
	return tableFromObjects(raw), nil
}

// readJSONL reads a file with one JSON object per line.
func readJSONL(path string, opts Options) (*table.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var raw []map[string]interface{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		var obj map[string]interface{}
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("failed to decode line %d: %w", lineNo, err)
		}
		raw = append(raw, obj)
		if opts.MaxRows > 0 && len(raw) >= opts.MaxRows {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return tableFromObjects(raw), nil
}

// tableFromObjects normalizes decoded objects into a table. Column order is
// the sorted union of keys, which keeps repeated loads deterministic since
// Go maps have no order of their own.
func tableFromObjects(objs []map[string]interface{}) *table.Table {
	keySet := make(map[string]bool)
	for _, obj := range objs {
		for k := range obj {
			keySet[k] = true
		}
	}
	columns := make([]string, 0, len(keySet))
	for k := range keySet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	rows := make([]map[string]interface{}, len(objs))
	for i, obj := range objs {
		row := make(map[string]interface{}, len(columns))
		for _, col := range columns {
			row[col] = normalizeJSONValue(obj[col])
		}
		rows[i] = row
	}
	return table.New(columns, rows)
}

// normalizeJSONValue converts json.Number to int64 when exact, float64
// otherwise, and flattens nested arrays into list cells.
func normalizeJSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = normalizeJSONValue(e)
		}
		return out
	case map[string]interface{}:
		// Nested objects render as their JSON text; the browser is flat.
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	default:
		return v
	}
}
