package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tabscope/tabscope/browser"
	"github.com/tabscope/tabscope/config"
	"github.com/tabscope/tabscope/relation"
	"github.com/tabscope/tabscope/table"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	rows := []map[string]interface{}{
		{"region": "north", "product": "gear", "amount": int64(10)},
		{"region": "north", "product": "widget", "amount": int64(30)},
		{"region": "south", "product": "gear", "amount": int64(20)},
		{"region": "south", "product": "widget", "amount": int64(40)},
	}
	rel := relation.FromTable(table.New([]string{"region", "product", "amount"}, rows))
	b, err := browser.New(rel, browser.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return New(b, config.Default().UI)
}

func activeHeight(t *testing.T, m Model) int {
	t.Helper()
	tbl, err := m.b.Active().Materialize()
	if err != nil {
		t.Fatal(err)
	}
	return tbl.Height()
}

func TestExecuteFilterWithOrSuffix(t *testing.T) {
	m := newTestModel(t)
	if err := m.execute(":filter amount = 40"); err != nil {
		t.Fatal(err)
	}
	if err := m.execute(":filter region = 'north' or"); err != nil {
		t.Fatal(err)
	}
	if got := activeHeight(t, m); got != 3 {
		t.Errorf("amount=40 OR north matched %d rows, want 3", got)
	}

	// Bare :filter clears the clauses.
	if err := m.execute(":filter"); err != nil {
		t.Fatal(err)
	}
	if got := activeHeight(t, m); got != 4 {
		t.Errorf("after clear height = %d, want 4", got)
	}
}

func TestExecuteSort(t *testing.T) {
	m := newTestModel(t)
	if err := m.execute(":sort -amount"); err != nil {
		t.Fatal(err)
	}
	tbl, err := m.b.Active().Materialize()
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := tbl.At(0, "amount"); v != int64(40) {
		t.Errorf("first amount = %v, want 40", v)
	}
}

func TestExecutePivot(t *testing.T) {
	m := newTestModel(t)
	if err := m.execute(":pivot region product amount sum"); err != nil {
		t.Fatal(err)
	}
	tbl, err := m.b.Active().Materialize()
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Height() != 2 {
		t.Errorf("pivot height = %d, want 2", tbl.Height())
	}
	if v, _ := tbl.At(0, "widget"); v != int64(30) {
		t.Errorf("north widget = %v, want 30", v)
	}
}

func TestExecuteFuzzyLine(t *testing.T) {
	m := newTestModel(t)
	if err := m.execute("/nor"); err != nil {
		t.Fatal(err)
	}
	if got := activeHeight(t, m); got != 2 {
		t.Errorf("fuzzy matched %d rows, want 2", got)
	}
}

func TestExecuteExportCSV(t *testing.T) {
	m := newTestModel(t)
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := m.execute(":export " + path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "region,product,amount\n") {
		t.Errorf("export header = %q", strings.SplitN(string(data), "\n", 2)[0])
	}
	if got := strings.Count(string(data), "\n"); got != 5 {
		t.Errorf("export lines = %d, want 5", got)
	}
}

func TestExecuteErrors(t *testing.T) {
	m := newTestModel(t)
	tests := []struct {
		name string
		line string
	}{
		{"unknown command", ":bogus"},
		{"lock without count", ":lock two"},
		{"pivot arity", ":pivot region product"},
		{"pivot bad agg", ":pivot region product amount median"},
		{"move arity", ":move region"},
		{"export unknown extension", ":export out.xml"},
		{"filter parse error", ":filter ((broken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.execute(tt.line); err == nil {
				t.Errorf("execute(%q) succeeded, want error", tt.line)
			}
		})
	}
}

func TestModelNavigation(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(Model)

	if got := m.View(); !strings.Contains(got, "region") {
		t.Errorf("view missing header:\n%s", got)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = next.(Model)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = next.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("quit should produce a command")
	}
}

func TestModelPromptFlow(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(Model)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{':'}})
	m = next.(Model)
	if !m.prompting {
		t.Fatal("expected prompt to open")
	}
	for _, r := range "sort -amount" {
		next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if m.prompting {
		t.Fatal("prompt should close on enter")
	}
	if m.err != nil {
		t.Fatalf("command error: %v", m.err)
	}
	tbl, err := m.b.Active().Materialize()
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := tbl.At(0, "amount"); v != int64(40) {
		t.Errorf("first amount = %v, want 40 after :sort -amount", v)
	}
}

func TestModelDrillDownOnGroupedRow(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(Model)

	if err := m.execute(":group region"); err != nil {
		t.Fatal(err)
	}
	m.refresh()

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if m.err != nil {
		t.Fatalf("drill error: %v", m.err)
	}
	if !m.b.InDrillDown() {
		t.Fatal("expected drill-down")
	}
	if got := activeHeight(t, m); got != 2 {
		t.Errorf("drilled height = %d, want 2", got)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	m = next.(Model)
	if m.b.InDrillDown() {
		t.Error("esc should drill up")
	}
}
