package embedding

import "math"

// Mean returns the element-wise arithmetic mean of the vectors that share
// the dimension of the first non-empty vector. Vectors of any other
// length are skipped. The second return value is the number of vectors
// averaged; it is zero when no vector was usable.
func Mean(vs [][]float64) ([]float64, int) {
	var dim int
	for _, v := range vs {
		if len(v) > 0 {
			dim = len(v)
			break
		}
	}
	if dim == 0 {
		return nil, 0
	}

	sum := make([]float64, dim)
	n := 0
	for _, v := range vs {
		if len(v) != dim {
			continue
		}
		for i := range dim {
			sum[i] += v[i]
		}
		n++
	}
	if n == 0 {
		return nil, 0
	}

	inv := 1.0 / float64(n)
	for i := range sum {
		sum[i] *= inv
	}
	return sum, n
}

// Cosine returns the cosine similarity of a and b.
// It returns 0 when either vector is empty or has zero norm.
func Cosine(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range n {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na <= 0 || nb <= 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Rounding can push identical vectors slightly past 1.
	return math.Max(-1, math.Min(1, sim))
}

// CosineDistance returns 1 - Cosine(a, b).
func CosineDistance(a, b []float64) float64 {
	return 1 - Cosine(a, b)
}

// SquaredDistance returns the squared Euclidean distance of a and b.
func SquaredDistance(a, b []float64) float64 {
	n := min(len(a), len(b))
	var d float64
	for i := range n {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

// Distance returns the Euclidean distance of a and b.
func Distance(a, b []float64) float64 {
	return math.Sqrt(SquaredDistance(a, b))
}

// Clone returns a copy of v.
func Clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
