package query

import (
	"testing"
)

func TestCompare_Numbers(t *testing.T) {
	tests := []struct {
		name     string
		left     interface{}
		operator TokenType
		right    interface{}
		want     bool
	}{
		{"int equal", int64(30), TokenEqual, int64(30), true},
		{"int not equal", int64(30), TokenNotEqual, int64(25), true},
		{"int less", int32(25), TokenLess, int64(30), true},
		{"int greater", int64(35), TokenGreater, int32(30), true},
		{"int less equal same", int64(30), TokenLessEqual, int64(30), true},
		{"int greater equal greater", int64(35), TokenGreaterEqual, int64(30), true},

		{"float equal", float64(3.14), TokenEqual, float64(3.14), true},
		{"float not equal", float64(3.14), TokenNotEqual, float64(2.71), true},

		{"int vs float equal", int64(30), TokenEqual, float64(30.0), true},
		{"float vs int greater", float64(35.5), TokenGreater, int64(30), true},

		{"int not equal same", int64(30), TokenNotEqual, int64(30), false},
		{"int less wrong", int64(35), TokenLess, int64(30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compare(tt.left, tt.operator, tt.right)
			if err != nil {
				t.Errorf("compare() error = %v", err)
				return
			}
			if got != tt.want {
				t.Errorf("compare(%v, %v, %v) = %v, want %v", tt.left, tt.operator, tt.right, got, tt.want)
			}
		})
	}
}

func TestCompare_NilHandling(t *testing.T) {
	if got, _ := compare(nil, TokenEqual, nil); !got {
		t.Error("nil = nil should be true")
	}
	if got, _ := compare(nil, TokenNotEqual, int64(1)); !got {
		t.Error("nil != 1 should be true")
	}
	if got, _ := compare(nil, TokenLess, int64(1)); got {
		t.Error("nil < 1 should be false")
	}
}

func TestCompare_TypeMismatch(t *testing.T) {
	if _, err := compare("abc", TokenEqual, int64(1)); err == nil {
		t.Error("expected error comparing string with int")
	}
}

func TestMatchLikePattern(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		pattern string
		want    bool
	}{
		{"exact", "alice", "alice", true},
		{"prefix", "alice", "ali%", true},
		{"suffix", "alice", "%ice", true},
		{"contains", "alice", "%lic%", true},
		{"underscore", "alice", "alic_", true},
		{"underscore mid", "alice", "a_ice", true},
		{"percent only", "anything", "%", true},
		{"no match", "alice", "bob%", false},
		{"anchored start", "xalice", "alice%", false},
		{"anchored end", "alicex", "%alice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchLikePattern(tt.str, tt.pattern); got != tt.want {
				t.Errorf("matchLikePattern(%q, %q) = %v, want %v", tt.str, tt.pattern, got, tt.want)
			}
		})
	}
}
