package common

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySignal is returned for zero-length input.
	ErrEmptySignal = errors.New("empty signal")
	// ErrSilentSignal is returned when every sample is zero, so there is no peak to scale by.
	ErrSilentSignal = errors.New("signal has zero peak amplitude")
	// ErrNonFiniteSignal is returned when a sample is NaN or infinite.
	ErrNonFiniteSignal = errors.New("signal has non-finite samples")
)

// PeakNormalize divides the signal by its maximum absolute sample, mapping it
// into [-1, 1]. The input is not modified.
func PeakNormalize(signal []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}

	if !AllFinite([][]float64{signal}) {
		return nil, ErrNonFiniteSignal
	}

	peak := MaxAbs(signal)
	if !(peak > 0) {
		return nil, fmt.Errorf("%w (peak %g over %d samples)", ErrSilentSignal, peak, len(signal))
	}

	normalized := make([]float64, len(signal))
	for i, val := range signal {
		normalized[i] = val / peak
	}
	return normalized, nil
}
