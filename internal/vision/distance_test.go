package vision

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 0},
		{"unit apart", []float32{0, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal unit vectors", []float32{1, 0}, []float32{0, 1}, math.Sqrt2},
		{"negative components", []float32{-1, 0}, []float32{1, 0}, 2},
		{"empty", nil, nil, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Distance(tc.a, tc.b)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("Distance(%v, %v) = %v; want %v", tc.a, tc.b, got, tc.expected)
			}
		})
	}
}

func TestDistance_MismatchedLengths(t *testing.T) {
	if got := Distance([]float32{1, 0}, []float32{1, 0, 0}); !math.IsInf(got, 1) {
		t.Errorf("expected +Inf for mismatched lengths, got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	normalize(v)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-6 {
		t.Errorf("expected unit norm, got %v", math.Sqrt(sum))
	}

	zero := []float32{0, 0}
	normalize(zero) // must not divide by zero
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}
