package windowing

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrWindowTooShort is returned for windows of fewer than two samples.
var ErrWindowTooShort = errors.New("window length must be at least 2")

// Blackman represents a Blackman window function
type Blackman struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewBlackman creates a new Blackman window. A symmetric window divides by
// N-1 so both ends are exactly zero; the periodic variant divides by N.
func NewBlackman(size int, symmetric bool) *Blackman {
	b := &Blackman{
		size:      size,
		symmetric: symmetric,
	}
	b.generate()
	return b
}

// NewBlackmanWindow returns the symmetric analysis window used for framing,
// rejecting degenerate lengths.
func NewBlackmanWindow(size int) (*Blackman, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrWindowTooShort, size)
	}
	return NewBlackman(size, true), nil
}

func (b *Blackman) generate() {
	b.coefficients = make([]float64, b.size)
	if b.size == 1 {
		b.coefficients[0] = 1
		return
	}

	denominator := float64(b.size)
	if b.symmetric {
		denominator = float64(b.size - 1)
	}

	a0, a1, a2 := 0.42, 0.5, 0.08

	for i := range b.size {
		arg := 2 * math.Pi * float64(i) / denominator
		b.coefficients[i] = a0 - a1*math.Cos(arg) + a2*math.Cos(2*arg)
	}
}

// Normalized returns the window scaled to unit mass (coefficients sum to 1).
func (b *Blackman) Normalized() []float64 {
	coeffs := b.GetCoefficients()
	sum := floats.Sum(coeffs)
	if sum == 0 {
		return coeffs
	}
	floats.Scale(1/sum, coeffs)
	return coeffs
}

// Apply applies the window to a signal (creates new array)
func (b *Blackman) Apply(signal []float64) []float64 {
	if len(signal) != b.size {
		return nil
	}

	windowed := make([]float64, b.size)
	floats.MulTo(windowed, signal, b.coefficients)
	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (b *Blackman) ApplyInPlace(signal []float64) error {
	if len(signal) != b.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), b.size)
	}

	floats.Mul(signal, b.coefficients)
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (b *Blackman) GetCoefficients() []float64 {
	coeffs := make([]float64, len(b.coefficients))
	copy(coeffs, b.coefficients)
	return coeffs
}

// GetSize returns the window size
func (b *Blackman) GetSize() int {
	return b.size
}

// GetType returns the window type
func (b *Blackman) GetType() string {
	return "blackman"
}
