package relation

import (
	"reflect"
	"testing"

	"github.com/tabscope/tabscope/table"
)

// predicateFunc adapts a function to the Predicate interface.
type predicateFunc func(row map[string]interface{}) (bool, error)

func (f predicateFunc) Evaluate(row map[string]interface{}) (bool, error) { return f(row) }

func salesTable() *table.Table {
	return table.New(
		[]string{"region", "product", "amount"},
		[]map[string]interface{}{
			{"region": "north", "product": "gear", "amount": int64(10)},
			{"region": "south", "product": "gear", "amount": int64(20)},
			{"region": "north", "product": "widget", "amount": int64(5)},
			{"region": "south", "product": "widget", "amount": int64(15)},
			{"region": "north", "product": "gear", "amount": int64(30)},
		},
	)
}

func TestLaziness_NoEvaluationUntilMaterialize(t *testing.T) {
	rel := FromTable(salesTable())
	derived := rel.Filter(predicateFunc(func(map[string]interface{}) (bool, error) { return true, nil })).
		Sort([]SortKey{{Column: "amount"}}).
		Slice(0, 2)

	if rel.Stats().Materializations != 0 {
		t.Fatalf("building a pipeline materialized %d times", rel.Stats().Materializations)
	}
	if _, err := derived.Materialize(); err != nil {
		t.Fatal(err)
	}
	if rel.Stats().Materializations != 1 {
		t.Errorf("Materializations = %d, want 1", rel.Stats().Materializations)
	}
}

func TestFilter(t *testing.T) {
	rel := FromTable(salesTable()).Filter(predicateFunc(func(row map[string]interface{}) (bool, error) {
		return row["region"] == "north", nil
	}))
	out, err := rel.Materialize()
	if err != nil {
		t.Fatal(err)
	}
	if out.Height() != 3 {
		t.Errorf("filtered height = %d, want 3", out.Height())
	}
}

func TestSort_StableAndDirectional(t *testing.T) {
	tests := []struct {
		name string
		keys []SortKey
		want []int64
	}{
		{"ascending", []SortKey{{Column: "amount"}}, []int64{5, 10, 15, 20, 30}},
		{"descending", []SortKey{{Column: "amount", Descending: true}}, []int64{30, 20, 15, 10, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := FromTable(salesTable()).Sort(tt.keys).Materialize()
			if err != nil {
				t.Fatal(err)
			}
			got := make([]int64, out.Height())
			for i := range got {
				v, _ := out.At(i, "amount")
				got[i] = v.(int64)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sorted amounts = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSort_NilsFirst(t *testing.T) {
	tbl := table.New([]string{"v"}, []map[string]interface{}{
		{"v": int64(2)}, {"v": nil}, {"v": int64(1)},
	})
	out, err := FromTable(tbl).Sort([]SortKey{{Column: "v"}}).Materialize()
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := out.At(0, "v"); v != nil {
		t.Errorf("first value = %v, want nil", v)
	}
}

func TestSelect_UnknownColumn(t *testing.T) {
	_, err := FromTable(salesTable()).Select([]string{"nope"}).Materialize()
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestCount_ProjectionOnlyShortCircuits(t *testing.T) {
	rel := FromTable(salesTable())
	n, err := rel.Select([]string{"region"}).Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("Count = %d, want 5", n)
	}
	if rel.Stats().Materializations != 0 {
		t.Errorf("projection-only count materialized %d times", rel.Stats().Materializations)
	}

	// A filter forces evaluation.
	n, err = rel.Filter(predicateFunc(func(row map[string]interface{}) (bool, error) {
		return row["region"] == "south", nil
	})).Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("filtered Count = %d, want 2", n)
	}
	if rel.Stats().Materializations != 1 {
		t.Errorf("filtered count materialized %d times, want 1", rel.Stats().Materializations)
	}
}

func TestGroupRows_ListColumns(t *testing.T) {
	out, err := FromTable(salesTable()).GroupRows([]string{"region"}).Materialize()
	if err != nil {
		t.Fatal(err)
	}
	if out.Height() != 2 {
		t.Fatalf("group count = %d, want 2", out.Height())
	}
	wantCols := []string{"region", "product", "amount"}
	if !reflect.DeepEqual(out.Columns(), wantCols) {
		t.Errorf("columns = %v, want %v", out.Columns(), wantCols)
	}

	// First-seen order: north first.
	if v, _ := out.At(0, "region"); v != "north" {
		t.Errorf("first group = %v, want north", v)
	}
	amounts, ok := table.IsList(mustAt(t, out, 0, "amount"))
	if !ok {
		t.Fatal("amount should be a list cell")
	}
	if !reflect.DeepEqual(amounts, []interface{}{int64(10), int64(5), int64(30)}) {
		t.Errorf("north amounts = %v", amounts)
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		aggs []Aggregation
		want []map[string]interface{}
	}{
		{
			name: "count star no keys",
			aggs: []Aggregation{{Func: AggCount}},
			want: []map[string]interface{}{{"count": int64(5)}},
		},
		{
			name: "sum by region",
			keys: []string{"region"},
			aggs: []Aggregation{{Func: AggSum, Column: "amount"}},
			want: []map[string]interface{}{
				{"region": "north", "sum(amount)": int64(45)},
				{"region": "south", "sum(amount)": int64(35)},
			},
		},
		{
			name: "mean with alias",
			keys: []string{"product"},
			aggs: []Aggregation{{Func: AggMean, Column: "amount", As: "avg_amount"}},
			want: []map[string]interface{}{
				{"product": "gear", "avg_amount": float64(20)},
				{"product": "widget", "avg_amount": float64(10)},
			},
		},
		{
			name: "min and max",
			keys: []string{"region"},
			aggs: []Aggregation{
				{Func: AggMin, Column: "amount"},
				{Func: AggMax, Column: "amount"},
			},
			want: []map[string]interface{}{
				{"region": "north", "min(amount)": int64(5), "max(amount)": int64(30)},
				{"region": "south", "min(amount)": int64(15), "max(amount)": int64(20)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := FromTable(salesTable()).Aggregate(tt.keys, tt.aggs).Materialize()
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(out.Rows(), tt.want) {
				t.Errorf("rows = %v, want %v", out.Rows(), tt.want)
			}
		})
	}
}

func TestAggregate_CountStarOnEmptyInput(t *testing.T) {
	empty := table.Empty([]string{"x"})
	out, err := FromTable(empty).Aggregate(nil, []Aggregation{{Func: AggCount}}).Materialize()
	if err != nil {
		t.Fatal(err)
	}
	if out.Height() != 1 {
		t.Fatalf("height = %d, want 1", out.Height())
	}
	if v, _ := out.At(0, "count"); v != int64(0) {
		t.Errorf("count = %v, want 0", v)
	}
}

func TestPivot(t *testing.T) {
	out, err := FromTable(salesTable()).Pivot("region", "product", "amount", AggSum).Materialize()
	if err != nil {
		t.Fatal(err)
	}
	wantCols := []string{"region", "gear", "widget"}
	if !reflect.DeepEqual(out.Columns(), wantCols) {
		t.Fatalf("columns = %v, want %v", out.Columns(), wantCols)
	}
	if v := mustAt(t, out, 0, "gear"); v != int64(40) {
		t.Errorf("north gear = %v, want 40", v)
	}
	if v := mustAt(t, out, 1, "widget"); v != int64(15) {
		t.Errorf("south widget = %v, want 15", v)
	}
}

func TestUnpivot(t *testing.T) {
	tbl := table.New([]string{"id", "a", "b"}, []map[string]interface{}{
		{"id": "r1", "a": int64(1), "b": int64(2)},
		{"id": "r2", "a": int64(3), "b": int64(4)},
	})
	out, err := FromTable(tbl).Unpivot([]string{"id"}, nil, "", "").Materialize()
	if err != nil {
		t.Fatal(err)
	}
	wantCols := []string{"id", "variable", "value"}
	if !reflect.DeepEqual(out.Columns(), wantCols) {
		t.Fatalf("columns = %v, want %v", out.Columns(), wantCols)
	}
	if out.Height() != 4 {
		t.Fatalf("height = %d, want 4", out.Height())
	}
	if v := mustAt(t, out, 1, "variable"); v != "b" {
		t.Errorf("second row variable = %v, want b", v)
	}
	if v := mustAt(t, out, 1, "value"); v != int64(2) {
		t.Errorf("second row value = %v, want 2", v)
	}
}

func TestColumns_PivotFallsBackToMaterialize(t *testing.T) {
	rel := FromTable(salesTable()).Pivot("region", "product", "amount", AggSum)
	cols, err := rel.Columns()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cols, []string{"region", "gear", "widget"}) {
		t.Errorf("columns = %v", cols)
	}
	if rel.Stats().Materializations == 0 {
		t.Error("pivot Columns() should have materialized")
	}
}

func TestSchema_Kinds(t *testing.T) {
	tbl := table.New([]string{"s", "i", "f", "b", "l"}, []map[string]interface{}{
		{"s": "x", "i": int64(1), "f": 1.5, "b": true, "l": []interface{}{int64(1)}},
	})
	schema, err := FromTable(tbl).Schema()
	if err != nil {
		t.Fatal(err)
	}
	want := []Kind{KindString, KindInt, KindFloat, KindBool, KindList}
	for i, col := range schema {
		if col.Kind != want[i] {
			t.Errorf("column %s kind = %v, want %v", col.Name, col.Kind, want[i])
		}
	}
}

func mustAt(t *testing.T, tbl *table.Table, row int, col string) interface{} {
	t.Helper()
	v, ok := tbl.At(row, col)
	if !ok {
		t.Fatalf("cell (%d, %s) missing", row, col)
	}
	return v
}
