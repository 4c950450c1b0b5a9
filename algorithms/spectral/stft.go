package spectral

import (
	"fmt"

	"github.com/RyanBlaney/sonido-features/algorithms/windowing"
	"github.com/RyanBlaney/sonido-features/logging"
	"gonum.org/v1/gonum/floats"
)

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	backend Backend
	logger  logging.Logger
}

// STFTResult holds the result of STFT analysis
type STFTResult struct {
	Complex    [][]complex128 `json:"-"`           // Bins x Frames complex spectrogram
	TimeFrames int            `json:"time_frames"` // Number of time frames
	FreqBins   int            `json:"freq_bins"`   // fftn/2 + 1
	WindowSize int            `json:"window_size"` // FFT window size
	HopSize    int            `json:"hop_size"`    // Hop size between frames
	Padding    int            `json:"padding"`     // Zeros appended to the tail
}

// NewSTFT creates a new STFT calculator using the given FFT backend.
func NewSTFT(backend Backend) *STFT {
	return &STFT{
		backend: backend,
		logger: logging.WithFields(logging.Fields{
			"component": "stft",
			"backend":   string(backend),
		}),
	}
}

// Compute frames the signal, multiplies every frame by a unit-mass Blackman
// window and transforms it. Column i of the result is the spectrum of frame i.
func (s *STFT) Compute(signal []float64, fftn, hop int) (*STFTResult, error) {
	framing, err := Frame(signal, fftn, hop)
	if err != nil {
		return nil, err
	}

	win, err := windowing.NewBlackmanWindow(fftn)
	if err != nil {
		return nil, err
	}
	window := win.Normalized()

	transformer, err := NewTransformer(s.backend, fftn)
	if err != nil {
		return nil, err
	}

	freqBins := fftn/2 + 1
	spectrum := make([][]complex128, freqBins)
	for k := range spectrum {
		spectrum[k] = make([]complex128, framing.FrameCount)
	}

	s.logger.Debug("Computing STFT", logging.Fields{
		"samples": len(signal),
		"frames":  framing.FrameCount,
		"padding": framing.Padding,
		"fftn":    fftn,
		"hop":     hop,
	})

	windowed := make([]float64, fftn)
	coeffs := make([]complex128, freqBins)
	for i := range framing.FrameCount {
		floats.MulTo(windowed, framing.At(i), window)
		coeffs = transformer.Transform(coeffs, windowed)
		for k, c := range coeffs {
			spectrum[k][i] = c
		}
	}

	return &STFTResult{
		Complex:    spectrum,
		TimeFrames: framing.FrameCount,
		FreqBins:   freqBins,
		WindowSize: fftn,
		HopSize:    hop,
		Padding:    framing.Padding,
	}, nil
}

// Column returns a copy of frame i's spectrum.
func (r *STFTResult) Column(i int) ([]complex128, error) {
	if i < 0 || i >= r.TimeFrames {
		return nil, fmt.Errorf("frame %d out of range [0, %d)", i, r.TimeFrames)
	}
	col := make([]complex128, r.FreqBins)
	for k := range col {
		col[k] = r.Complex[k][i]
	}
	return col, nil
}
