package spectral

import (
	"fmt"
	"math"
)

// DefaultEpsilon keeps log10 finite on zero-energy cells.
const DefaultEpsilon = 1e-8

// LogCompress returns log10(v + epsilon) for every cell. Power values are
// non-negative by construction, so a negative or NaN input is reported.
func LogCompress(m [][]float64, epsilon float64) ([][]float64, error) {
	if epsilon <= 0 {
		return nil, fmt.Errorf("epsilon must be positive, got %g", epsilon)
	}

	out := make([][]float64, len(m))
	for j, row := range m {
		out[j] = make([]float64, len(row))
		for i, v := range row {
			if v < 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("%w: %g at (%d, %d)", ErrNegativePower, v, j, i)
			}
			out[j][i] = math.Log10(v + epsilon)
		}
	}
	return out, nil
}
