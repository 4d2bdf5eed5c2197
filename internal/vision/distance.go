package vision

import "math"

// Distance returns the euclidean distance between two embeddings.
// Vectors of different lengths are maximally distant.
func Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
