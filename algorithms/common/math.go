package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxAbs returns the largest absolute value in data, or NaN if any value is NaN.
func MaxAbs(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	if floats.HasNaN(data) {
		return math.NaN()
	}
	return math.Max(math.Abs(floats.Max(data)), math.Abs(floats.Min(data)))
}

// AllFinite reports whether every cell of m is neither NaN nor infinite.
func AllFinite(m [][]float64) bool {
	for _, row := range m {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
