package browser

import (
	"github.com/tabscope/tabscope/table"
)

// span is a half-open row range [start, end).
type span struct {
	start, end int
}

func (s span) len() int {
	return s.end - s.start
}

// contains reports whether other lies fully inside s.
func (s span) contains(other span) bool {
	return other.start >= s.start && other.end <= s.end
}

// buffer is the currently materialized row range and its full display-width
// table. Empty means start == end == 0 and tbl == nil.
type buffer struct {
	start, end int
	tbl        *table.Table
}

func (b *buffer) clear() {
	b.start, b.end, b.tbl = 0, 0, nil
}

func (b *buffer) span() span {
	return span{b.start, b.end}
}

// heightConsistent reports whether the cached table still matches the
// recorded range; re-slicing is only safe while it does.
func (b *buffer) heightConsistent() bool {
	return b.tbl != nil && b.tbl.Height() == b.end-b.start
}

// windowFit classifies where the view window sits relative to the buffer.
// Collapsing the growth logic into this four-state machine keeps every
// combination directly testable.
type windowFit int

const (
	// fitInside: fully covered, not near an edge; reuse the buffer.
	fitInside windowFit = iota
	// fitInsideNearEdge: covered but within the proximity threshold of an
	// edge that has more data past it; grow on that side.
	fitInsideNearEdge
	// fitOutsideAdjacent: not covered, but close enough to extend the
	// buffer contiguously toward the view.
	fitOutsideAdjacent
	// fitOutsideDisjoint: a large jump; discard and build a fresh window
	// centered on the view.
	fitOutsideDisjoint
)

func (f windowFit) String() string {
	switch f {
	case fitInside:
		return "inside"
	case fitInsideNearEdge:
		return "inside-near-edge"
	case fitOutsideAdjacent:
		return "outside-adjacent"
	default:
		return "outside-disjoint"
	}
}

// windowPlan is the outcome of classification: the fit and the row range
// the buffer should cover next (before the row cap is applied).
type windowPlan struct {
	fit  windowFit
	want span
}

// planWindow classifies the view against the buffer and proposes the next
// buffer range. numRows > 0 and page > 0 are the caller's responsibility.
func planWindow(view, buf span, numRows int, cfg Config, page int) windowPlan {
	lookahead := cfg.PagesLookahead * page
	lookback := cfg.PagesLookback * page

	if buf.len() > 0 && buf.contains(view) {
		want := buf
		near := false
		if view.start-buf.start <= cfg.ProximityThreshold && buf.start > 0 {
			want.start = buf.start - lookback
			near = true
		}
		if buf.end-view.end <= cfg.ProximityThreshold && buf.end < numRows {
			want.end = buf.end + lookahead
			near = true
		}
		if !near {
			return windowPlan{fit: fitInside, want: buf}
		}
		return windowPlan{fit: fitInsideNearEdge, want: clampSpan(want, numRows)}
	}

	if buf.len() > 0 {
		// Forward: the view begins inside or just past the buffer's back
		// edge, within one lookahead span.
		if view.end > buf.end && view.start >= buf.start && view.start <= buf.end+lookahead {
			want := span{buf.start, view.end + lookahead}
			return windowPlan{fit: fitOutsideAdjacent, want: clampSpan(want, numRows)}
		}
		// Backward: the view ends inside or just before the buffer's front
		// edge, within one lookback span.
		if view.start < buf.start && view.end <= buf.end && view.end >= buf.start-lookback {
			want := span{view.start - lookback, buf.end}
			return windowPlan{fit: fitOutsideAdjacent, want: clampSpan(want, numRows)}
		}
	}

	// Fresh window of (1 + lookahead + lookback) pages around the view,
	// shifted to stay inside [0, numRows) so jumps to either end still get
	// a full-size window.
	want := span{view.start - lookback, view.start + page + lookahead}
	return windowPlan{fit: fitOutsideDisjoint, want: shiftSpan(want, numRows)}
}

// clampSpan trims a span to [0, numRows) without moving the opposite edge.
func clampSpan(s span, numRows int) span {
	if s.start < 0 {
		s.start = 0
	}
	if s.end > numRows {
		s.end = numRows
	}
	return s
}

// shiftSpan slides a span into [0, numRows), preserving its length when
// room allows.
func shiftSpan(s span, numRows int) span {
	if s.start < 0 {
		s.end -= s.start
		s.start = 0
	}
	if s.end > numRows {
		s.start -= s.end - numRows
		s.end = numRows
		if s.start < 0 {
			s.start = 0
		}
	}
	return s
}

// clampToRowCap recenters a span around the view so it never exceeds the
// row cap while still fully containing the view. A cap smaller than the
// view itself yields exactly the view: containment wins over the cap.
func clampToRowCap(s, view span, numRows, cap int) span {
	if cap <= 0 || s.len() <= cap {
		return s
	}
	if cap < view.len() {
		cap = view.len()
	}
	extra := cap - view.len()
	start := view.start - extra/2
	if start < 0 {
		start = 0
	}
	end := start + cap
	if end > numRows {
		end = numRows
		start = end - cap
		if start < 0 {
			start = 0
		}
	}
	return span{start, end}
}
