package spectral

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFrameParams = errors.New("invalid frame parameters")
	ErrSignalTooShort     = errors.New("signal shorter than one analysis frame")
	ErrInvalidFilterbank  = errors.New("invalid filterbank parameters")
	ErrDimensionMismatch  = errors.New("filterbank and spectrum dimensions disagree")
	ErrNegativePower      = errors.New("power value is negative or NaN")
	ErrUnknownBackend     = errors.New("unknown fft backend")
)

// DimensionError reports the two bin counts that failed to line up when a
// filterbank was applied to a power spectrum.
type DimensionError struct {
	FilterbankBins int
	SpectrumBins   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%v: filterbank has %d bins, spectrum has %d",
		ErrDimensionMismatch, e.FilterbankBins, e.SpectrumBins)
}

func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}
