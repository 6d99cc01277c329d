package relation

import (
	"fmt"
)

// AggFunc identifies an aggregate function.
type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggMean
	AggMin
	AggMax
	AggFirst
)

// String returns the function's lower-case name.
func (f AggFunc) String() string {
	switch f {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggMean:
		return "mean"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggFirst:
		return "first"
	default:
		return "unknown"
	}
}

// ParseAggFunc maps a name to an aggregate function. "avg" is accepted as an
// alias for mean.
func ParseAggFunc(name string) (AggFunc, error) {
	switch name {
	case "count":
		return AggCount, nil
	case "sum":
		return AggSum, nil
	case "mean", "avg":
		return AggMean, nil
	case "min":
		return AggMin, nil
	case "max":
		return AggMax, nil
	case "first":
		return AggFirst, nil
	default:
		return 0, fmt.Errorf("unknown aggregate function: %s", name)
	}
}

// Aggregation computes one output column. An empty Column means count(*).
type Aggregation struct {
	Func   AggFunc
	Column string
	As     string
}

// Name returns the output column name of the aggregation.
func (a Aggregation) Name() string {
	if a.As != "" {
		return a.As
	}
	if a.Column == "" {
		return a.Func.String()
	}
	return fmt.Sprintf("%s(%s)", a.Func, a.Column)
}

// computeAggregate evaluates one aggregation over a group's rows.
//
// Nil cells are skipped for sum/mean/min/max; count with a column argument
// counts non-nil cells, count(*) counts rows.
func computeAggregate(agg Aggregation, rows []map[string]interface{}) (interface{}, error) {
	if agg.Func == AggCount {
		if agg.Column == "" {
			return int64(len(rows)), nil
		}
		n := int64(0)
		for _, row := range rows {
			if v, exists := row[agg.Column]; exists && v != nil {
				n++
			}
		}
		return n, nil
	}

	if agg.Column == "" {
		return nil, fmt.Errorf("%s requires a column argument", agg.Func)
	}

	switch agg.Func {
	case AggFirst:
		for _, row := range rows {
			if v, exists := row[agg.Column]; exists && v != nil {
				return v, nil
			}
		}
		return nil, nil

	case AggSum, AggMean:
		sum := 0.0
		n := 0
		allInts := true
		for _, row := range rows {
			v := row[agg.Column]
			if v == nil {
				continue
			}
			f, ok := toFloat64(v)
			if !ok {
				return nil, fmt.Errorf("%s: column %q is not numeric (got %T)", agg.Func, agg.Column, v)
			}
			if _, isInt := toInt64(v); !isInt {
				allInts = false
			}
			sum += f
			n++
		}
		if n == 0 {
			return nil, nil
		}
		if agg.Func == AggMean {
			return sum / float64(n), nil
		}
		if allInts {
			return int64(sum), nil
		}
		return sum, nil

	case AggMin, AggMax:
		var best interface{}
		for _, row := range rows {
			v := row[agg.Column]
			if v == nil {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			cmp := compareValues(v, best)
			if (agg.Func == AggMin && cmp < 0) || (agg.Func == AggMax && cmp > 0) {
				best = v
			}
		}
		return best, nil

	default:
		return nil, fmt.Errorf("unsupported aggregate function: %v", agg.Func)
	}
}
