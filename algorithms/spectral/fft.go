package spectral

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend names a real-input DFT implementation.
type Backend string

const (
	// BackendGonum uses gonum's real-to-complex FFT (only n/2+1 bins are computed).
	BackendGonum Backend = "gonum"
	// BackendGoDSP uses mjibson/go-dsp, which computes the full spectrum.
	BackendGoDSP Backend = "go-dsp"
)

// Transformer computes the non-negative frequency half (n/2+1 bins) of the
// unnormalized forward DFT of a length-n real frame.
//
// Implementations keep scratch buffers and are not safe for concurrent use.
type Transformer interface {
	Size() int
	Transform(dst []complex128, frame []float64) []complex128
}

// NewTransformer returns a transformer of size n for the named backend.
// An empty backend selects gonum.
func NewTransformer(backend Backend, n int) (Transformer, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: fft size %d", ErrInvalidFrameParams, n)
	}

	switch backend {
	case BackendGonum, "":
		return NewRealFFT(n), nil
	case BackendGoDSP:
		return NewDSPFFT(n), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// RealFFT wraps gonum's fourier.FFT.
type RealFFT struct {
	n   int
	fft *fourier.FFT
}

func NewRealFFT(n int) *RealFFT {
	return &RealFFT{n: n, fft: fourier.NewFFT(n)}
}

func (f *RealFFT) Size() int { return f.n }

// Transform panics if len(frame) != Size(), as gonum does.
func (f *RealFFT) Transform(dst []complex128, frame []float64) []complex128 {
	if len(dst) != f.n/2+1 {
		dst = make([]complex128, f.n/2+1)
	}
	return f.fft.Coefficients(dst, frame)
}

// DSPFFT wraps go-dsp's FFTReal and keeps the first n/2+1 bins.
type DSPFFT struct {
	n int
}

func NewDSPFFT(n int) *DSPFFT {
	return &DSPFFT{n: n}
}

func (f *DSPFFT) Size() int { return f.n }

func (f *DSPFFT) Transform(dst []complex128, frame []float64) []complex128 {
	if len(frame) != f.n {
		panic(fmt.Sprintf("spectral: frame length %d does not match fft size %d", len(frame), f.n))
	}
	if len(dst) != f.n/2+1 {
		dst = make([]complex128, f.n/2+1)
	}
	// go-dsp handles all sizes, including non-power-of-2
	full := fft.FFTReal(frame)
	copy(dst, full[:f.n/2+1])
	return dst
}
