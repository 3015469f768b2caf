package index

import (
	"math"

	"github.com/poiesic/docquery/core"
)

// Normalize scales v to unit length in place and returns it.
// Zero vectors are returned unchanged.
func Normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}
	norm := math.Sqrt(sumSquares)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// Dot returns the dot product of two equal-length vectors.
// For unit vectors this is the cosine similarity.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// sparseDot returns the dot product of two sparse vectors whose indices
// are sorted ascending.
func sparseDot(a, b core.SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			sum += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// normalizeSparse scales a sparse vector to unit length in place.
func normalizeSparse(v core.SparseVector) core.SparseVector {
	var sumSquares float64
	for _, x := range v.Values {
		sumSquares += x * x
	}
	if sumSquares == 0 {
		return v
	}
	norm := math.Sqrt(sumSquares)
	for i := range v.Values {
		v.Values[i] /= norm
	}
	return v
}
