// Package distance provides straight-line metrics over planar points.
package distance

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/okian/arcade/internal/domain/model"
)

// Euclidean returns the straight-line distance between a and b.
func Euclidean(a, b model.Point) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon)
}

// Matrix returns the symmetric n×n distance matrix of points with a zero
// diagonal. It returns nil for an empty input since gonum forbids 0×0 matrices.
func Matrix(points []model.Point) *mat.SymDense {
	n := len(points)
	if n == 0 {
		return nil
	}
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.SetSym(i, j, Euclidean(points[i], points[j]))
		}
	}
	return m
}

// TourLength sums the closed tour visiting order and returning to order[0].
func TourLength(m mat.Symmetric, order []int) float64 {
	if len(order) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(order); i++ {
		total += m.At(order[i-1], order[i])
	}
	return total + m.At(order[len(order)-1], order[0])
}
