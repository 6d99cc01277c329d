package relation

import (
	"fmt"
	"sort"
	"strings"
)

// ProjectionItem selects one column, optionally renaming it.
type ProjectionItem struct {
	Column string
	As     string
}

// name returns the output column name of the item.
func (p ProjectionItem) name() string {
	if p.As != "" {
		return p.As
	}
	return p.Column
}

// selectOp projects to a fixed column list.
type selectOp struct {
	columns []string
}

func (o *selectOp) apply(cols []string, rows []map[string]interface{}) ([]string, []map[string]interface{}, error) {
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	for _, c := range o.columns {
		if !have[c] {
			return nil, nil, fmt.Errorf("column %q not found", c)
		}
	}
	return o.columns, rows, nil
}

func (o *selectOp) columnsAfter([]string) ([]string, bool) { return o.columns, true }
func (o *selectOp) countPreserving() bool                  { return true }
func (o *selectOp) String() string                         { return "select(" + strings.Join(o.columns, ", ") + ")" }

// projectOp projects with optional renames; renamed cells are copied into
// new row maps so the source rows stay untouched.
type projectOp struct {
	items []ProjectionItem
}

func (o *projectOp) apply(cols []string, rows []map[string]interface{}) ([]string, []map[string]interface{}, error) {
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	outCols := make([]string, len(o.items))
	renamed := false
	for i, item := range o.items {
		if !have[item.Column] {
			return nil, nil, fmt.Errorf("column %q not found", item.Column)
		}
		outCols[i] = item.name()
		if item.As != "" && item.As != item.Column {
			renamed = true
		}
	}
	if !renamed {
		return outCols, rows, nil
	}
	outRows := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		out := make(map[string]interface{}, len(o.items))
		for _, item := range o.items {
			out[item.name()] = row[item.Column]
		}
		outRows[i] = out
	}
	return outCols, outRows, nil
}

func (o *projectOp) columnsAfter([]string) ([]string, bool) {
	out := make([]string, len(o.items))
	for i, item := range o.items {
		out[i] = item.name()
	}
	return out, true
}
func (o *projectOp) countPreserving() bool { return true }
func (o *projectOp) String() string        { return fmt.Sprintf("project(%d items)", len(o.items)) }

// sliceOp keeps length rows starting at offset, clamped to bounds.
type sliceOp struct {
	offset int
	length int
}

func (o *sliceOp) apply(cols []string, rows []map[string]interface{}) ([]string, []map[string]interface{}, error) {
	start := o.offset
	if start < 0 {
		start = 0
	}
	if start > len(rows) {
		start = len(rows)
	}
	end := start + o.length
	if o.length < 0 || end > len(rows) {
		end = len(rows)
	}
	return cols, rows[start:end], nil
}

func (o *sliceOp) columnsAfter(cols []string) ([]string, bool) { return cols, true }
func (o *sliceOp) countPreserving() bool                       { return false }
func (o *sliceOp) String() string                              { return fmt.Sprintf("slice(%d, %d)", o.offset, o.length) }

// filterOp keeps rows matching the predicate.
type filterOp struct {
	pred Predicate
}

func (o *filterOp) apply(cols []string, rows []map[string]interface{}) ([]string, []map[string]interface{}, error) {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		ok, err := o.pred.Evaluate(row)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return cols, out, nil
}

func (o *filterOp) columnsAfter(cols []string) ([]string, bool) { return cols, true }
func (o *filterOp) countPreserving() bool                       { return false }
func (o *filterOp) String() string                              { return "filter" }

// sortOp orders rows by the sort keys, stable, nils first.
type sortOp struct {
	keys []SortKey
}

func (o *sortOp) apply(cols []string, rows []map[string]interface{}) ([]string, []map[string]interface{}, error) {
	out := make([]map[string]interface{}, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		for _, key := range o.keys {
			a := out[i][key.Column]
			b := out[j][key.Column]
			cmp := compareValues(a, b)
			if cmp == 0 {
				continue
			}
			if key.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return cols, out, nil
}

func (o *sortOp) columnsAfter(cols []string) ([]string, bool) { return cols, true }
func (o *sortOp) countPreserving() bool                       { return true }

func (o *sortOp) String() string {
	parts := make([]string, len(o.keys))
	for i, k := range o.keys {
		parts[i] = k.Column
		if k.Descending {
			parts[i] += " desc"
		}
	}
	return "sort(" + strings.Join(parts, ", ") + ")"
}

// group collects the rows sharing one key, in first-seen order.
type group struct {
	values map[string]interface{}
	rows   []map[string]interface{}
}

// groupRows buckets rows by the key columns, preserving first-seen order so
// repeated evaluations of the same pipeline yield the same row order.
func groupRows(rows []map[string]interface{}, keys []string) ([]*group, error) {
	index := make(map[string]*group)
	var order []*group
	for _, row := range rows {
		var keyBuilder strings.Builder
		values := make(map[string]interface{}, len(keys))
		for i, col := range keys {
			v, exists := row[col]
			if !exists {
				return nil, fmt.Errorf("group column %q not found in row", col)
			}
			if i > 0 {
				keyBuilder.WriteString("\x00||\x00")
			}
			keyBuilder.WriteString(col)
			keyBuilder.WriteString("\x00:\x00")
			fmt.Fprintf(&keyBuilder, "%#v", v)
			values[col] = v
		}
		key := keyBuilder.String()
		g, exists := index[key]
		if !exists {
			g = &group{values: values}
			index[key] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, row)
	}
	return order, nil
}

// groupRowsOp groups without aggregating: non-key columns become list cells.
type groupRowsOp struct {
	keys []string
}

func (o *groupRowsOp) apply(cols []string, rows []map[string]interface{}) ([]string, []map[string]interface{}, error) {
	keySet := make(map[string]bool, len(o.keys))
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	for _, k := range o.keys {
		if !have[k] {
			return nil, nil, fmt.Errorf("column %q not found", k)
		}
		keySet[k] = true
	}
	outCols, _ := o.columnsAfter(cols)

	groups, err := groupRows(rows, o.keys)
	if err != nil {
		return nil, nil, err
	}
	outRows := make([]map[string]interface{}, 0, len(groups))
	for _, g := range groups {
		row := make(map[string]interface{}, len(outCols))
		for k, v := range g.values {
			row[k] = v
		}
		for _, col := range cols {
			if keySet[col] {
				continue
			}
			list := make([]interface{}, len(g.rows))
			for i, r := range g.rows {
				list[i] = r[col]
			}
			row[col] = list
		}
		outRows = append(outRows, row)
	}
	return outCols, outRows, nil
}

func (o *groupRowsOp) columnsAfter(cols []string) ([]string, bool) {
	keySet := make(map[string]bool, len(o.keys))
	for _, k := range o.keys {
		keySet[k] = true
	}
	out := make([]string, 0, len(cols))
	out = append(out, o.keys...)
	for _, c := range cols {
		if !keySet[c] {
			out = append(out, c)
		}
	}
	return out, true
}
func (o *groupRowsOp) countPreserving() bool { return false }
func (o *groupRowsOp) String() string        { return "group_rows(" + strings.Join(o.keys, ", ") + ")" }

// aggregateOp groups by the key columns and computes aggregates.
type aggregateOp struct {
	keys []string
	aggs []Aggregation
}

func (o *aggregateOp) apply(cols []string, rows []map[string]interface{}) ([]string, []map[string]interface{}, error) {
	outCols, _ := o.columnsAfter(cols)

	// Without keys the whole input is one group, even when empty, so that
	// count(*) over an empty relation yields a single zero row.
	if len(o.keys) == 0 {
		row := make(map[string]interface{}, len(o.aggs))
		for _, agg := range o.aggs {
			v, err := computeAggregate(agg, rows)
			if err != nil {
				return nil, nil, err
			}
			row[agg.Name()] = v
		}
		return outCols, []map[string]interface{}{row}, nil
	}

	groups, err := groupRows(rows, o.keys)
	if err != nil {
		return nil, nil, err
	}
	outRows := make([]map[string]interface{}, 0, len(groups))
	for _, g := range groups {
		row := make(map[string]interface{}, len(outCols))
		for k, v := range g.values {
			row[k] = v
		}
		for _, agg := range o.aggs {
			v, err := computeAggregate(agg, g.rows)
			if err != nil {
				return nil, nil, err
			}
			row[agg.Name()] = v
		}
		outRows = append(outRows, row)
	}
	return outCols, outRows, nil
}

func (o *aggregateOp) columnsAfter([]string) ([]string, bool) {
	out := make([]string, 0, len(o.keys)+len(o.aggs))
	out = append(out, o.keys...)
	for _, agg := range o.aggs {
		out = append(out, agg.Name())
	}
	return out, true
}
func (o *aggregateOp) countPreserving() bool { return false }
func (o *aggregateOp) String() string        { return fmt.Sprintf("aggregate(%v, %d aggs)", o.keys, len(o.aggs)) }

// pivotOp spreads distinct on-values into columns. The output column set
// depends on the data, so columnsAfter cannot derive it.
type pivotOp struct {
	index string
	on    string
	value string
	agg   AggFunc
}

func (o *pivotOp) apply(cols []string, rows []map[string]interface{}) ([]string, []map[string]interface{}, error) {
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	for _, c := range []string{o.index, o.on, o.value} {
		if !have[c] {
			return nil, nil, fmt.Errorf("column %q not found", c)
		}
	}

	// Distinct on-values, sorted by display form for a stable column order.
	seen := make(map[string]bool)
	var onValues []string
	for _, row := range rows {
		s := fmt.Sprintf("%v", row[o.on])
		if !seen[s] {
			seen[s] = true
			onValues = append(onValues, s)
		}
	}
	sort.Strings(onValues)

	groups, err := groupRows(rows, []string{o.index})
	if err != nil {
		return nil, nil, err
	}
	outCols := append([]string{o.index}, onValues...)
	outRows := make([]map[string]interface{}, 0, len(groups))
	for _, g := range groups {
		row := make(map[string]interface{}, len(outCols))
		row[o.index] = g.values[o.index]
		buckets := make(map[string][]map[string]interface{})
		for _, r := range g.rows {
			s := fmt.Sprintf("%v", r[o.on])
			buckets[s] = append(buckets[s], r)
		}
		for _, ov := range onValues {
			cell := buckets[ov]
			if len(cell) == 0 {
				row[ov] = nil
				continue
			}
			v, err := computeAggregate(Aggregation{Func: o.agg, Column: o.value}, cell)
			if err != nil {
				return nil, nil, err
			}
			row[ov] = v
		}
		outRows = append(outRows, row)
	}
	return outCols, outRows, nil
}

func (o *pivotOp) columnsAfter([]string) ([]string, bool) { return nil, false }
func (o *pivotOp) countPreserving() bool                  { return false }
func (o *pivotOp) String() string {
	return fmt.Sprintf("pivot(%s, %s, %s, %s)", o.index, o.on, o.value, o.agg)
}

// unpivotOp melts value columns into (variable, value) rows.
type unpivotOp struct {
	idVars    []string
	valueVars []string
	varName   string
	valueName string
}

func (o *unpivotOp) resolveValueVars(cols []string) []string {
	if len(o.valueVars) > 0 {
		return o.valueVars
	}
	idSet := make(map[string]bool, len(o.idVars))
	for _, c := range o.idVars {
		idSet[c] = true
	}
	var out []string
	for _, c := range cols {
		if !idSet[c] {
			out = append(out, c)
		}
	}
	return out
}

func (o *unpivotOp) apply(cols []string, rows []map[string]interface{}) ([]string, []map[string]interface{}, error) {
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	valueVars := o.resolveValueVars(cols)
	for _, c := range append(append([]string{}, o.idVars...), valueVars...) {
		if !have[c] {
			return nil, nil, fmt.Errorf("column %q not found", c)
		}
	}

	outCols, _ := o.columnsAfter(cols)
	outRows := make([]map[string]interface{}, 0, len(rows)*len(valueVars))
	for _, row := range rows {
		for _, vc := range valueVars {
			out := make(map[string]interface{}, len(o.idVars)+2)
			for _, id := range o.idVars {
				out[id] = row[id]
			}
			out[o.varName] = vc
			out[o.valueName] = row[vc]
			outRows = append(outRows, out)
		}
	}
	return outCols, outRows, nil
}

func (o *unpivotOp) columnsAfter([]string) ([]string, bool) {
	out := make([]string, 0, len(o.idVars)+2)
	out = append(out, o.idVars...)
	out = append(out, o.varName, o.valueName)
	return out, true
}
func (o *unpivotOp) countPreserving() bool { return false }
func (o *unpivotOp) String() string {
	return fmt.Sprintf("unpivot(%v -> %s/%s)", o.idVars, o.varName, o.valueName)
}
