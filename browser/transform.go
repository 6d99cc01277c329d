package browser

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tabscope/tabscope/query"
	"github.com/tabscope/tabscope/relation"
	"github.com/tabscope/tabscope/table"
)

// Transformation errors surfaced to the UI.
var (
	ErrAlreadyDrilledDown = errors.New("already drilled into a group, drill up first")
	ErrNotInDrillDown     = errors.New("not drilled into a group")
	ErrNotAGroupRow       = errors.New("row has no grouped values to drill into")
	ErrRowOutOfRange      = errors.New("row out of range")
)

// reshapeKind selects the active reshape, if any. Pivot and melt are
// mutually exclusive; applying one replaces the other.
type reshapeKind int

const (
	reshapeNone reshapeKind = iota
	reshapePivot
	reshapeMelt
)

type reshapeSpec struct {
	kind reshapeKind

	// pivot
	index, on, value string
	agg              relation.AggFunc

	// melt
	idVars []string
}

// filterClause is one filter expression plus how it combines with the
// clauses before it.
type filterClause struct {
	expr query.Expression
	text string
	or   bool
}

// transformState is everything layered on top of the base relation. The
// zero value means "show the base as-is".
type transformState struct {
	filters  []filterClause
	sortKeys []relation.SortKey
	groupBy  []string

	// At most one of the three query modes is active.
	textQuery  string
	textParsed *query.Query
	sqlQuery   string
	sqlParsed  *query.Query
	fuzzyQuery string

	reshape reshapeSpec
}

func (s transformState) clone() transformState {
	out := s
	out.filters = append([]filterClause(nil), s.filters...)
	out.sortKeys = append([]relation.SortKey(nil), s.sortKeys...)
	out.groupBy = append([]string(nil), s.groupBy...)
	out.reshape.idVars = append([]string(nil), s.reshape.idVars...)
	return out
}

// drillRecord remembers the browsing context replaced by a drill-down so
// DrillUp restores it exactly, row count cache included.
type drillRecord struct {
	rel    *relation.Relation
	order  ColumnOrder
	counts rowCountCache
}

// applyTransform snapshots the state, runs mutate, recomposes the active
// relation and resets the view. Filters and sort keep the horizontal
// column state (preserveColumns); the structural transforms reset it.
// Any failure rolls everything back and stores the error for LastError.
func (b *Browser) applyTransform(preserveColumns bool, mutate func(*transformState) error) error {
	prevState := b.state.clone()
	fail := func(err error) error {
		b.state = prevState
		b.err = err
		return err
	}

	if err := mutate(&b.state); err != nil {
		return fail(err)
	}
	active, err := b.composeActive()
	if err != nil {
		return fail(err)
	}
	cols, err := active.Columns()
	if err != nil {
		return fail(fmt.Errorf("reading columns: %w", err))
	}

	b.active = active
	if !sameColumnSet(cols, b.order.All()) {
		b.order = NewColumnOrder(cols)
		b.view.LockedColumnsCount = 0
		b.view.ColumnScrollOffset = 0
	} else if !preserveColumns {
		b.view.LockedColumnsCount = 0
		b.view.ColumnScrollOffset = 0
	}
	b.view.StartRow = 0
	b.buf.clear()
	b.counts.invalidate()
	b.err = nil
	return nil
}

// composeActive builds the relation pipeline from the base and the current
// state: reshape, grouping, query mode, filters, then sort.
func (b *Browser) composeActive() (*relation.Relation, error) {
	rel := b.base
	st := &b.state

	switch st.reshape.kind {
	case reshapePivot:
		rel = rel.Pivot(st.reshape.index, st.reshape.on, st.reshape.value, st.reshape.agg)
	case reshapeMelt:
		rel = rel.Unpivot(st.reshape.idVars, nil, "", "")
	}

	if len(st.groupBy) > 0 {
		rel = rel.GroupRows(st.groupBy)
	}

	switch {
	case st.textParsed != nil:
		var err error
		rel, err = applyQuery(rel, st.textParsed)
		if err != nil {
			return nil, err
		}
	case st.sqlParsed != nil:
		var err error
		rel, err = applyQuery(rel, st.sqlParsed)
		if err != nil {
			return nil, err
		}
	case st.fuzzyQuery != "":
		rel = rel.Filter(&fuzzyPredicate{pattern: st.fuzzyQuery})
	}

	if len(st.filters) > 0 {
		rel = rel.Filter(combinedFilter(st.filters))
	}
	if len(st.sortKeys) > 0 {
		rel = rel.Sort(st.sortKeys)
	}
	return rel, nil
}

// ApplyFilter parses a filter expression and appends it as a clause.
// or controls how it combines with the preceding clauses.
func (b *Browser) ApplyFilter(text string, or bool) error {
	return b.applyTransform(true, func(st *transformState) error {
		expr, err := query.ParseFilter(text)
		if err != nil {
			return err
		}
		st.filters = append(st.filters, filterClause{expr: expr, text: text, or: or})
		return nil
	})
}

// ClearFilters removes every filter clause.
func (b *Browser) ClearFilters() error {
	return b.applyTransform(true, func(st *transformState) error {
		st.filters = nil
		return nil
	})
}

// ApplySort replaces the sort keys. Empty keys clear the sort.
func (b *Browser) ApplySort(keys []relation.SortKey) error {
	return b.applyTransform(true, func(st *transformState) error {
		st.sortKeys = keys
		return nil
	})
}

// ApplyTextQuery enters text-query mode. It replaces any other query mode
// and discards filters and sort, since the query states both itself.
func (b *Browser) ApplyTextQuery(text string) error {
	return b.applyTransform(false, func(st *transformState) error {
		q, err := query.Parse(text)
		if err != nil {
			return err
		}
		st.textQuery, st.textParsed = text, q
		st.sqlQuery, st.sqlParsed = "", nil
		st.fuzzyQuery = ""
		st.filters = nil
		st.sortKeys = nil
		return nil
	})
}

// ApplySQLQuery enters SQL-query mode. Unlike text queries it layers on
// top of the existing filters and sort rather than discarding them.
func (b *Browser) ApplySQLQuery(text string) error {
	return b.applyTransform(false, func(st *transformState) error {
		q, err := query.Parse(text)
		if err != nil {
			return err
		}
		st.sqlQuery, st.sqlParsed = text, q
		st.textQuery, st.textParsed = "", nil
		st.fuzzyQuery = ""
		return nil
	})
}

// ApplyFuzzySearch enters fuzzy-search mode over all cells of each row.
// Like text queries it replaces the other query modes and discards
// filters and sort. An empty pattern leaves fuzzy mode.
func (b *Browser) ApplyFuzzySearch(pattern string) error {
	return b.applyTransform(false, func(st *transformState) error {
		st.fuzzyQuery = pattern
		st.textQuery, st.textParsed = "", nil
		st.sqlQuery, st.sqlParsed = "", nil
		st.filters = nil
		st.sortKeys = nil
		return nil
	})
}

// ApplyPivot reshapes the data into a pivot of value by index rows and on
// columns. It replaces any melt and discards filters, sort and grouping,
// which refer to the pre-pivot columns.
func (b *Browser) ApplyPivot(index, on, value string, agg relation.AggFunc) error {
	return b.applyTransform(false, func(st *transformState) error {
		st.reshape = reshapeSpec{kind: reshapePivot, index: index, on: on, value: value, agg: agg}
		st.filters = nil
		st.sortKeys = nil
		st.groupBy = nil
		return nil
	})
}

// ApplyMelt unpivots all non-id columns into (variable, value) pairs. It
// replaces any pivot and discards filters, sort and grouping.
func (b *Browser) ApplyMelt(idVars []string) error {
	return b.applyTransform(false, func(st *transformState) error {
		st.reshape = reshapeSpec{kind: reshapeMelt, idVars: idVars}
		st.filters = nil
		st.sortKeys = nil
		st.groupBy = nil
		return nil
	})
}

// ApplyGroupBy groups rows by the key columns without aggregating; non-key
// cells collapse into list cells, the shape DrillDown expands again.
// Empty keys clear the grouping.
func (b *Browser) ApplyGroupBy(keys []string) error {
	return b.applyTransform(false, func(st *transformState) error {
		st.groupBy = keys
		return nil
	})
}

// ResetTransformations drops every transformation, restoring the base
// relation and its natural column order. The drill-down context, if any,
// stays: reset clears what was layered on top of the current level.
func (b *Browser) ResetTransformations() error {
	return b.applyTransform(false, func(st *transformState) error {
		*st = transformState{}
		return nil
	})
}

// DrillDown expands the grouped row at the given absolute index: its list
// cells become rows, scalar cells repeat, and the result replaces the base
// relation. Only one drill level is kept.
func (b *Browser) DrillDown(row int) error {
	if b.drill != nil {
		b.err = ErrAlreadyDrilledDown
		return b.err
	}
	n, err := b.rowCount()
	if err != nil {
		b.err = err
		return err
	}
	if row < 0 || row >= n {
		b.err = ErrRowOutOfRange
		return b.err
	}
	tbl, err := b.active.Slice(row, 1).Materialize()
	if err != nil {
		b.err = fmt.Errorf("reading row %d: %w", row, err)
		return b.err
	}
	if tbl.Height() != 1 {
		b.err = ErrRowOutOfRange
		return b.err
	}

	cols := tbl.Columns()
	height := 0
	hasList := false
	for _, col := range cols {
		v, _ := tbl.At(0, col)
		if list, ok := table.IsList(v); ok {
			hasList = true
			if len(list) > height {
				height = len(list)
			}
		}
	}
	if !hasList {
		b.err = ErrNotAGroupRow
		return b.err
	}

	rows := make([]map[string]interface{}, height)
	for i := range rows {
		out := make(map[string]interface{}, len(cols))
		for _, col := range cols {
			v, _ := tbl.At(0, col)
			if list, ok := table.IsList(v); ok {
				if i < len(list) {
					out[col] = list[i]
				} else {
					out[col] = nil
				}
			} else {
				out[col] = v
			}
		}
		rows[i] = out
	}

	b.drill = &drillRecord{rel: b.active, order: b.order.clone(), counts: b.counts}
	b.base = relation.FromTable(table.New(cols, rows))
	b.active = b.base
	b.state = transformState{}
	b.order = NewColumnOrder(cols)
	b.view = ViewWindow{VisibleRows: b.view.VisibleRows}
	b.buf.clear()
	b.counts = rowCountCache{}
	b.err = nil
	return nil
}

// DrillUp returns to the grouped relation the last DrillDown replaced,
// restoring its column order and row count exactly. Transformations made
// inside the drilled view are discarded.
func (b *Browser) DrillUp() error {
	if b.drill == nil {
		b.err = ErrNotInDrillDown
		return b.err
	}
	rec := b.drill
	b.drill = nil
	b.base = rec.rel
	b.active = rec.rel
	b.state = transformState{}
	b.order = rec.order
	b.counts = rec.counts
	b.view = ViewWindow{VisibleRows: b.view.VisibleRows}
	b.buf.clear()
	b.err = nil
	return nil
}

// InDrillDown reports whether the browser is inside a drilled group.
func (b *Browser) InDrillDown() bool {
	return b.drill != nil
}

// applyQuery translates a parsed query into relation operations: filter,
// then grouping or aggregation, then projection, order and limit.
func applyQuery(rel *relation.Relation, q *query.Query) (*relation.Relation, error) {
	if q.Filter != nil {
		rel = rel.Filter(q.Filter)
	}

	switch {
	case q.HasAggregates():
		var aggs []relation.Aggregation
		names := make([]string, 0, len(q.SelectList))
		for _, item := range q.SelectList {
			switch e := item.Expr.(type) {
			case *query.ColumnRef:
				names = append(names, e.Column)
			case *query.AggregateExpr:
				fn, err := relation.ParseAggFunc(strings.ToLower(e.Function))
				if err != nil {
					return nil, err
				}
				col := e.Column
				if e.Star {
					col = ""
				}
				agg := relation.Aggregation{Func: fn, Column: col, As: item.Alias}
				aggs = append(aggs, agg)
				names = append(names, agg.Name())
			}
		}
		rel = rel.Aggregate(q.GroupBy, aggs)
		// Aggregate emits keys first; re-select into the query's order.
		rel = rel.Select(names)

	case len(q.GroupBy) > 0:
		rel = rel.GroupRows(q.GroupBy)
		if !q.IsSelectStar() {
			rel = rel.Project(projectionItems(q.SelectList))
		}

	default:
		if !q.IsSelectStar() {
			rel = rel.Project(projectionItems(q.SelectList))
		}
	}

	if len(q.OrderBy) > 0 {
		keys := make([]relation.SortKey, len(q.OrderBy))
		for i, item := range q.OrderBy {
			keys[i] = relation.SortKey{Column: item.Column, Descending: item.Desc}
		}
		rel = rel.Sort(keys)
	}
	if q.Limit != nil {
		rel = rel.Slice(0, int(*q.Limit))
	}
	return rel, nil
}

func projectionItems(items []query.SelectItem) []relation.ProjectionItem {
	out := make([]relation.ProjectionItem, 0, len(items))
	for _, item := range items {
		if ref, ok := item.Expr.(*query.ColumnRef); ok {
			out = append(out, relation.ProjectionItem{Column: ref.Column, As: item.Alias})
		}
	}
	return out
}

// combinedFilter folds clauses left to right; each clause's or flag picks
// how it joins the accumulated result.
type combinedFilter []filterClause

func (f combinedFilter) Evaluate(row map[string]interface{}) (bool, error) {
	result := false
	for i, clause := range f {
		v, err := clause.expr.Evaluate(row)
		if err != nil {
			return false, err
		}
		switch {
		case i == 0:
			result = v
		case clause.or:
			result = result || v
		default:
			result = result && v
		}
	}
	return result, nil
}

// fuzzyPredicate matches a pattern against the row's cells joined in key
// order, so "gea nor" matches a row with "gear" and "north" anywhere.
type fuzzyPredicate struct {
	pattern string
}

func (p *fuzzyPredicate) Evaluate(row map[string]interface{}) (bool, error) {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := row[k]; v != nil {
			parts = append(parts, fmt.Sprintf("%v", v))
		}
	}
	matches := fuzzy.Find(p.pattern, []string{strings.Join(parts, " ")})
	return len(matches) > 0, nil
}

// sameColumnSet reports whether both slices name the same columns,
// ignoring order.
func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, name := range a {
		seen[name]++
	}
	for _, name := range b {
		seen[name]--
		if seen[name] < 0 {
			return false
		}
	}
	return true
}
