package rank

import "math"

// Cosine returns the cosine similarity of two vectors.
//
// Mismatched lengths and zero-norm vectors score 0 rather than erroring:
// a single malformed embedding must never abort ranking the rest of the
// corpus.
func Cosine(u, v []float32) float64 {
	if len(u) != len(v) || len(u) == 0 {
		return 0.0
	}

	var dot, normU, normV float64
	for i := range u {
		a := float64(u[i])
		b := float64(v[i])
		dot += a * b
		normU += a * a
		normV += b * b
	}

	if normU == 0 || normV == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normU) * math.Sqrt(normV))
}
