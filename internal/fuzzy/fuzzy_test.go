package fuzzy

import (
	"strings"
	"testing"
)

func TestTokenRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{
			name:     "identical strings",
			a:        "times sq 42 st",
			b:        "times sq 42 st",
			expected: 100,
		},
		{
			name:     "token order does not matter",
			a:        "42 st times sq",
			b:        "times sq 42 st",
			expected: 100,
		},
		{
			name:     "disjoint tokens",
			a:        "qqq",
			b:        "zzz",
			expected: 0,
		},
		{
			name:     "partial token overlap",
			a:        "59 st",
			b:        "59 st columbus circle",
			expected: 200.0 * 2 / 6, // 2 of 6 total tokens shared
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 100,
		},
		{
			name:     "one empty",
			a:        "union sq",
			b:        "",
			expected: 0,
		},
		{
			name:     "duplicate tokens count once per occurrence",
			a:        "st st",
			b:        "st",
			expected: 200.0 * 1 / 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenRatio(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("TokenRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestTokenRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"59 st", "59 st columbus circle"},
		{"grand central", "grand central 42 st"},
		{"abc", "abd"},
	}
	for _, p := range pairs {
		ab, ba := TokenRatio(p[0], p[1]), TokenRatio(p[1], p[0])
		if ab != ba {
			t.Errorf("TokenRatio not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestTokenRatioCharacterFloor(t *testing.T) {
	// No whole token matches, but the sorted-token character comparison
	// still earns partial credit for a near-miss spelling.
	a := strings.Repeat("c", 70) + strings.Repeat("x", 30)
	b := strings.Repeat("c", 70) + strings.Repeat("y", 30)
	if got := TokenRatio(a, b); got != 70 {
		t.Errorf("TokenRatio = %v, want 70", got)
	}

	a = strings.Repeat("c", 69) + strings.Repeat("x", 31)
	b = strings.Repeat("c", 69) + strings.Repeat("y", 31)
	if got := TokenRatio(a, b); got != 69 {
		t.Errorf("TokenRatio = %v, want 69", got)
	}
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{
			name:     "substring scores 100",
			a:        "42 st",
			b:        "times sq 42 st",
			expected: 100,
		},
		{
			name:     "argument order does not matter",
			a:        "times sq 42 st",
			b:        "42 st",
			expected: 100,
		},
		{
			name:     "identical strings",
			a:        "union sq",
			b:        "union sq",
			expected: 100,
		},
		{
			name:     "no shared characters",
			a:        "qq",
			b:        "zzzz",
			expected: 0,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 100,
		},
		{
			name:     "one empty",
			a:        "",
			b:        "union sq",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PartialRatio(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("PartialRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestPartialRatioWindow(t *testing.T) {
	// The best fixed-length window wins, not the whole-string comparison.
	a := strings.Repeat("c", 8) + "xx"
	b := strings.Repeat("c", 8) + "yyyyy"
	if got := PartialRatio(a, b); got != 80 {
		t.Errorf("PartialRatio = %v, want 80", got)
	}
}

func TestRatiosBounded(t *testing.T) {
	pairs := [][2]string{
		{"times sq", "union sq"},
		{"a", "some very long station name indeed"},
		{"59 st columbus circle", "59"},
	}
	for _, p := range pairs {
		for _, score := range []float64{TokenRatio(p[0], p[1]), PartialRatio(p[0], p[1])} {
			if score < 0 || score > 100 {
				t.Errorf("score %v out of range for %q/%q", score, p[0], p[1])
			}
		}
	}
}
