package spectral

import (
	"fmt"
)

// Framing is a signal sliced into overlapping frames of FrameSize samples
// taken every Hop samples. Padded holds the signal with just enough trailing
// zeros for the last frame to end exactly on the final sample; when no
// padding is needed it aliases the caller's slice.
type Framing struct {
	Padded     []float64
	FrameCount int
	Padding    int
	FrameSize  int
	Hop        int
}

// FrameCount returns ceil((n - fftn) / hop) + 1 using integer arithmetic.
func FrameCount(n, fftn, hop int) int {
	return (n-fftn+hop-1)/hop + 1
}

// Frame computes the frame layout of samples for the given frame size and hop.
// The input slice is never modified.
func Frame(samples []float64, fftn, hop int) (*Framing, error) {
	if fftn < 2 || hop < 1 {
		return nil, fmt.Errorf("%w: frame size %d, hop %d", ErrInvalidFrameParams, fftn, hop)
	}
	if len(samples) < fftn {
		return nil, fmt.Errorf("%w: %d samples, frame size %d", ErrSignalTooShort, len(samples), fftn)
	}

	count := FrameCount(len(samples), fftn, hop)
	padding := fftn + hop*(count-1) - len(samples)

	// A padding outside [0, hop) means the frame count arithmetic is wrong.
	if padding < 0 || padding >= hop {
		panic(fmt.Sprintf("spectral: framing invariant violated: padding %d outside [0, %d) for %d samples, frame %d",
			padding, hop, len(samples), fftn))
	}

	padded := samples
	if padding > 0 {
		padded = make([]float64, len(samples)+padding)
		copy(padded, samples)
	}

	return &Framing{
		Padded:     padded,
		FrameCount: count,
		Padding:    padding,
		FrameSize:  fftn,
		Hop:        hop,
	}, nil
}

// At returns frame i, samples [i*Hop, i*Hop+FrameSize) of the padded signal.
// The returned slice shares memory with Padded.
func (f *Framing) At(i int) []float64 {
	start := i * f.Hop
	return f.Padded[start : start+f.FrameSize : start+f.FrameSize]
}
