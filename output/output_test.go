package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tabscope/tabscope/table"
)

func sample() *table.Table {
	rows := []map[string]interface{}{
		{"name": "alice", "age": int64(30), "score": 92.5},
		{"name": "bob", "age": int64(25), "score": 78.0},
	}
	return table.New([]string{"name", "age", "score"}, rows)
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVFormatter(&buf).Format(sample()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0] != "name,age,score" {
		t.Errorf("header = %q, want table column order", lines[0])
	}
	if lines[1] != "alice,30,92.5" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestCSVFormatterEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := table.New([]string{"a", "b"}, nil)
	if err := NewCSVFormatter(&buf).Format(tbl); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "a,b" {
		t.Errorf("empty table output = %q, want header only", got)
	}
}

func TestCSVFormatterSanitizesFormulas(t *testing.T) {
	rows := []map[string]interface{}{{"v": "=SUM(A1:A9)"}}
	var buf bytes.Buffer
	if err := NewCSVFormatter(&buf).Format(table.New([]string{"v"}, rows)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "'=SUM") {
		t.Errorf("formula not neutralized: %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(&buf).Format(sample()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	var row map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &row); err != nil {
		t.Fatal(err)
	}
	if row["name"] != "alice" {
		t.Errorf("name = %v, want alice", row["name"])
	}
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTableFormatter(&buf).Format(sample()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"name", "alice", "92.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
}

func TestNewByName(t *testing.T) {
	var buf bytes.Buffer
	for _, name := range []string{"json", "jsonl", "csv", "table"} {
		if _, err := New(name, &buf); err != nil {
			t.Errorf("New(%q) = %v", name, err)
		}
	}
	if _, err := New("xml", &buf); err == nil {
		t.Error("expected error for unsupported format")
	}
}
