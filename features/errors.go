package features

import (
	"errors"

	"github.com/RyanBlaney/sonido-features/algorithms/spectral"
	"github.com/RyanBlaney/sonido-features/algorithms/temporal"
)

var (
	// ErrEmptyAudio is returned for nil audio or audio without samples.
	ErrEmptyAudio = errors.New("empty audio")
	// ErrSilentAudio is returned when the peak amplitude is zero.
	ErrSilentAudio = errors.New("silent audio")
	// ErrNumericCorruption marks a NaN or infinity in the input samples or the
	// compressed feature.
	ErrNumericCorruption = errors.New("numeric corruption in feature")

	// ErrInsufficientFrames is returned when the audio is too short for the
	// configured frame length or pooling resolution.
	ErrInsufficientFrames = temporal.ErrInsufficientFrames
	// ErrDimensionMismatch is returned when filterbank and spectrum disagree.
	ErrDimensionMismatch = spectral.ErrDimensionMismatch
)
