// Package relation implements a lazily-evaluated relation over tabular data.
//
// A Relation pairs a materialized source table with an ordered list of
// deferred operations (projection, slicing, filtering, sorting, grouping,
// pivoting, unpivoting). Transformations return a new Relation sharing the
// source; nothing is evaluated until Materialize or Count is called.
//
// Example usage:
//
//	rel := relation.FromTable(tbl).
//	    Filter(pred).
//	    Sort([]relation.SortKey{{Column: "age", Descending: true}}).
//	    Slice(0, 100)
//	out, err := rel.Materialize()
package relation

import (
	"fmt"
	"strings"

	"github.com/tabscope/tabscope/table"
)

// Predicate filters rows. query.Expression satisfies this interface.
type Predicate interface {
	Evaluate(row map[string]interface{}) (bool, error)
}

// SortKey names a column to sort by and its direction.
type SortKey struct {
	Column     string
	Descending bool
}

// Column describes one column of a relation's schema.
type Column struct {
	Name string
	Kind Kind
}

// Kind is a coarse value type inferred from data.
type Kind int

const (
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "str"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Stats counts evaluations of a relation pipeline. All relations derived
// from the same source share one Stats value, so callers can assert that a
// code path did (or did not) trigger evaluation.
type Stats struct {
	Materializations int
	Counts           int
}

// operation is a deferred transformation step.
type operation interface {
	// apply transforms the column list and rows.
	apply(cols []string, rows []map[string]interface{}) ([]string, []map[string]interface{}, error)
	// columnsAfter derives the output column list without touching rows.
	// ok is false when the columns depend on the data (pivot).
	columnsAfter(cols []string) (out []string, ok bool)
	// countPreserving reports whether the operation keeps the row count.
	countPreserving() bool
	String() string
}

// Relation is an unevaluated query pipeline over a source table.
type Relation struct {
	source *table.Table
	ops    []operation
	stats  *Stats
}

// FromTable creates a relation backed by a materialized table.
func FromTable(t *table.Table) *Relation {
	return &Relation{source: t, stats: &Stats{}}
}

// with returns a new relation with one more deferred operation.
func (r *Relation) with(op operation) *Relation {
	ops := make([]operation, len(r.ops), len(r.ops)+1)
	copy(ops, r.ops)
	return &Relation{source: r.source, ops: append(ops, op), stats: r.stats}
}

// Select projects the relation to the named columns, in that order.
func (r *Relation) Select(columns []string) *Relation {
	return r.with(&selectOp{columns: columns})
}

// Project applies a projection with optional renames.
func (r *Relation) Project(items []ProjectionItem) *Relation {
	return r.with(&projectOp{items: items})
}

// Slice restricts the relation to length rows starting at offset.
func (r *Relation) Slice(offset, length int) *Relation {
	return r.with(&sliceOp{offset: offset, length: length})
}

// Filter keeps rows for which the predicate evaluates true.
func (r *Relation) Filter(p Predicate) *Relation {
	return r.with(&filterOp{pred: p})
}

// Sort orders rows by the given keys (stable).
func (r *Relation) Sort(keys []SortKey) *Relation {
	return r.with(&sortOp{keys: keys})
}

// GroupRows groups by the key columns without aggregating: every non-key
// column becomes a list cell holding that group's values. This is the shape
// the browser's drill-down consumes.
func (r *Relation) GroupRows(keys []string) *Relation {
	return r.with(&groupRowsOp{keys: keys})
}

// Aggregate groups by the key columns and computes one output column per
// aggregation. With no keys, the whole relation is one group.
func (r *Relation) Aggregate(keys []string, aggs []Aggregation) *Relation {
	return r.with(&aggregateOp{keys: keys, aggs: aggs})
}

// Pivot spreads the distinct values of the on column into new columns,
// aggregating the value column per (index, on) cell.
func (r *Relation) Pivot(index, on, value string, agg AggFunc) *Relation {
	return r.with(&pivotOp{index: index, on: on, value: value, agg: agg})
}

// Unpivot melts the value columns into (variable, value) pairs, keeping the
// id columns. Empty valueVars means every non-id column. Empty varName and
// valueName default to "variable" and "value".
func (r *Relation) Unpivot(idVars, valueVars []string, varName, valueName string) *Relation {
	if varName == "" {
		varName = "variable"
	}
	if valueName == "" {
		valueName = "value"
	}
	return r.with(&unpivotOp{idVars: idVars, valueVars: valueVars, varName: varName, valueName: valueName})
}

// Stats returns the evaluation counters shared by this relation and
// everything derived from the same source.
func (r *Relation) Stats() *Stats {
	return r.stats
}

// Columns returns the output column names. Pipelines containing a pivot
// need data to know their columns and fall back to materializing.
func (r *Relation) Columns() ([]string, error) {
	cols := r.source.Columns()
	derivable := true
	for _, op := range r.ops {
		out, ok := op.columnsAfter(cols)
		if !ok {
			derivable = false
			break
		}
		cols = out
	}
	if derivable {
		return cols, nil
	}
	t, err := r.Materialize()
	if err != nil {
		return nil, err
	}
	return t.Columns(), nil
}

// Schema returns the ordered columns with kinds inferred from the first
// non-nil cell of each column.
func (r *Relation) Schema() ([]Column, error) {
	t, err := r.Materialize()
	if err != nil {
		return nil, err
	}
	schema := make([]Column, 0, t.Width())
	for _, name := range t.Columns() {
		kind := KindUnknown
		for i := 0; i < t.Height(); i++ {
			v, _ := t.At(i, name)
			if v == nil {
				continue
			}
			kind = kindOf(v)
			break
		}
		schema = append(schema, Column{Name: name, Kind: kind})
	}
	return schema, nil
}

// Count returns the number of rows the relation evaluates to.
//
// Pipelines made only of count-preserving operations (projection, sorting)
// short-circuit to the source height; anything else evaluates the pipeline.
func (r *Relation) Count() (int, error) {
	r.stats.Counts++
	preserving := true
	for _, op := range r.ops {
		if !op.countPreserving() {
			preserving = false
			break
		}
	}
	if preserving {
		return r.source.Height(), nil
	}
	t, err := r.Materialize()
	if err != nil {
		return 0, err
	}
	return t.Height(), nil
}

// Materialize evaluates the pipeline and returns a concrete table.
func (r *Relation) Materialize() (*table.Table, error) {
	r.stats.Materializations++
	cols := r.source.Columns()
	rows := r.source.Rows()
	for _, op := range r.ops {
		var err error
		cols, rows, err = op.apply(cols, rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op.String(), err)
		}
	}
	return table.New(cols, rows), nil
}

// String describes the pipeline, one operation per segment.
func (r *Relation) String() string {
	parts := make([]string, 0, len(r.ops)+1)
	parts = append(parts, fmt.Sprintf("source(%d rows)", r.source.Height()))
	for _, op := range r.ops {
		parts = append(parts, op.String())
	}
	return strings.Join(parts, " -> ")
}

// kindOf maps a cell value to a coarse kind.
func kindOf(v interface{}) Kind {
	switch v.(type) {
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case string:
		return KindString
	case []interface{}:
		return KindList
	default:
		return KindUnknown
	}
}
