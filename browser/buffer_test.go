package browser

import "testing"

func testConfig() Config {
	return Config{
		ProximityThreshold: 5,
		PagesLookahead:     3,
		PagesLookback:      3,
	}
}

func TestPlanWindow(t *testing.T) {
	cfg := testConfig()
	const page = 50

	tests := []struct {
		name    string
		view    span
		buf     span
		numRows int
		wantFit windowFit
		want    span
	}{
		{
			name:    "empty buffer builds fresh window at start",
			view:    span{0, 50},
			buf:     span{},
			numRows: 100000,
			wantFit: fitOutsideDisjoint,
			want:    span{0, 350},
		},
		{
			name:    "far jump builds fresh centered window",
			view:    span{900000, 900050},
			buf:     span{0, 350},
			numRows: 1000000,
			wantFit: fitOutsideDisjoint,
			want:    span{899850, 900200},
		},
		{
			name:    "jump near the end keeps full window length",
			view:    span{999980, 1000000},
			buf:     span{},
			numRows: 1000000,
			wantFit: fitOutsideDisjoint,
			want:    span{999650, 1000000},
		},
		{
			name:    "inside with room on both sides reuses buffer",
			view:    span{100, 150},
			buf:     span{0, 350},
			numRows: 100000,
			wantFit: fitInside,
			want:    span{0, 350},
		},
		{
			name:    "near back edge grows forward",
			view:    span{298, 348},
			buf:     span{0, 350},
			numRows: 100000,
			wantFit: fitInsideNearEdge,
			want:    span{0, 500},
		},
		{
			name:    "near front edge grows backward",
			view:    span{502, 552},
			buf:     span{500, 850},
			numRows: 100000,
			wantFit: fitInsideNearEdge,
			want:    span{350, 850},
		},
		{
			name:    "at data start the front edge cannot grow",
			view:    span{0, 50},
			buf:     span{0, 350},
			numRows: 100000,
			wantFit: fitInside,
			want:    span{0, 350},
		},
		{
			name:    "at data end the back edge cannot grow",
			view:    span{960, 1000},
			buf:     span{650, 1000},
			numRows: 1000,
			wantFit: fitInside,
			want:    span{650, 1000},
		},
		{
			name:    "forward adjacent extends contiguously",
			view:    span{360, 410},
			buf:     span{0, 350},
			numRows: 100000,
			wantFit: fitOutsideAdjacent,
			want:    span{0, 560},
		},
		{
			name:    "backward adjacent extends contiguously",
			view:    span{900, 950},
			buf:     span{1000, 1350},
			numRows: 100000,
			wantFit: fitOutsideAdjacent,
			want:    span{750, 1350},
		},
		{
			name:    "forward past the adjacency limit is disjoint",
			view:    span{501, 551},
			buf:     span{0, 350},
			numRows: 100000,
			wantFit: fitOutsideDisjoint,
			want:    span{351, 701},
		},
		{
			name:    "growth clamps to the data bounds",
			view:    span{298, 348},
			buf:     span{0, 350},
			numRows: 400,
			wantFit: fitInsideNearEdge,
			want:    span{0, 400},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planWindow(tt.view, tt.buf, tt.numRows, cfg, page)
			if got.fit != tt.wantFit {
				t.Errorf("fit = %v, want %v", got.fit, tt.wantFit)
			}
			if got.want != tt.want {
				t.Errorf("want = %+v, want %+v", got.want, tt.want)
			}
		})
	}
}

func TestPlanWindowConverges(t *testing.T) {
	cfg := testConfig()
	const page, numRows = 50, 100000

	// After a growth step, replanning with the grown buffer must be a
	// no-op, otherwise Collect would rematerialize on every call.
	view := span{298, 348}
	first := planWindow(view, span{0, 350}, numRows, cfg, page)
	second := planWindow(view, first.want, numRows, cfg, page)
	if second.fit != fitInside {
		t.Errorf("second plan fit = %v, want inside", second.fit)
	}
	if second.want != first.want {
		t.Errorf("second plan moved the window: %+v -> %+v", first.want, second.want)
	}
}

func TestClampToRowCap(t *testing.T) {
	tests := []struct {
		name    string
		s       span
		view    span
		numRows int
		cap     int
		want    span
	}{
		{
			name:    "zero cap is unbounded",
			s:       span{0, 5000},
			view:    span{0, 50},
			numRows: 100000,
			cap:     0,
			want:    span{0, 5000},
		},
		{
			name:    "under cap passes through",
			s:       span{0, 350},
			view:    span{0, 50},
			numRows: 100000,
			cap:     500,
			want:    span{0, 350},
		},
		{
			name:    "over cap recenters on the view",
			s:       span{9850, 10200},
			view:    span{10000, 10050},
			numRows: 100000,
			cap:     300,
			want:    span{9875, 10175},
		},
		{
			name:    "recentering clamps at the data start",
			s:       span{0, 1000},
			view:    span{10, 60},
			numRows: 100000,
			cap:     500,
			want:    span{0, 500},
		},
		{
			name:    "recentering clamps at the data end",
			s:       span{500, 1500},
			view:    span{950, 1000},
			numRows: 1000,
			cap:     500,
			want:    span{500, 1000},
		},
		{
			name:    "cap smaller than the view yields the view",
			s:       span{0, 1000},
			view:    span{100, 150},
			numRows: 100000,
			cap:     10,
			want:    span{100, 150},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clampToRowCap(tt.s, tt.view, tt.numRows, tt.cap)
			if got != tt.want {
				t.Errorf("clampToRowCap(%+v, %+v) = %+v, want %+v", tt.s, tt.view, got, tt.want)
			}
			if !got.contains(span{tt.view.start, min(tt.view.end, tt.numRows)}) {
				t.Errorf("clamped span %+v does not contain view %+v", got, tt.view)
			}
		})
	}
}

func TestShiftSpan(t *testing.T) {
	tests := []struct {
		name    string
		s       span
		numRows int
		want    span
	}{
		{"negative start slides right", span{-150, 200}, 100000, span{0, 350}},
		{"overshoot slides left", span{99850, 100200}, 100000, span{99650, 100000}},
		{"span longer than data pins to data", span{-100, 200}, 150, span{0, 150}},
		{"already inside is untouched", span{100, 450}, 100000, span{100, 450}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shiftSpan(tt.s, tt.numRows); got != tt.want {
				t.Errorf("shiftSpan(%+v, %d) = %+v, want %+v", tt.s, tt.numRows, got, tt.want)
			}
		})
	}
}
