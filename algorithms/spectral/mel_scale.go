package spectral

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// HzToMel converts frequency in Hz to mel scale (HTK formula)
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// TriangleWeight evaluates a triangular filter with vertices low < center < high
// at frequency f. Both edges are closed, so at f == center either branch yields 1.
func TriangleWeight(f, low, center, high float64) float64 {
	switch {
	case low <= f && f <= center:
		return (f - low) / (center - low)
	case center <= f && f <= high:
		return (high - f) / (high - center)
	default:
		return 0
	}
}

// Filterbank is a set of overlapping triangular filters spaced evenly on the
// mel scale. Weights[j][k] is filter j's weight on FFT bin k. A Filterbank is
// never modified after construction and may be shared between goroutines.
type Filterbank struct {
	Weights    [][]float64
	NumFilters int
	NumBins    int
	SampleRate float64
	LowFreq    float64
	HighFreq   float64

	vertices [][3]float64
}

// BinFrequencies returns nbins frequencies spaced linearly from 0 to sampleRate/2.
func BinFrequencies(sampleRate float64, nbins int) []float64 {
	if nbins < 2 {
		return []float64{0}
	}
	return floats.Span(make([]float64, nbins), 0, sampleRate/2)
}

// BuildMelFilterbank builds numFilters triangular filters over the nfft/2+1
// bins of an nfft-point transform, tiling [lowFreq, highFreq] in mel space.
// Filter j's low and high vertices are the centers of filters j-1 and j+1.
func BuildMelFilterbank(numFilters int, sampleRate float64, nfft int, lowFreq, highFreq float64) (*Filterbank, error) {
	switch {
	case numFilters < 1:
		return nil, fmt.Errorf("%w: need at least one filter, got %d", ErrInvalidFilterbank, numFilters)
	case nfft < 2:
		return nil, fmt.Errorf("%w: fft size %d", ErrInvalidFilterbank, nfft)
	case sampleRate <= 0:
		return nil, fmt.Errorf("%w: sample rate %g", ErrInvalidFilterbank, sampleRate)
	case lowFreq < 0 || highFreq <= lowFreq:
		return nil, fmt.Errorf("%w: frequency range [%g, %g]", ErrInvalidFilterbank, lowFreq, highFreq)
	}

	lowMel := HzToMel(lowFreq)
	delta := (HzToMel(highFreq) - lowMel) / float64(numFilters+1)

	nbins := nfft/2 + 1
	freqs := BinFrequencies(sampleRate, nbins)

	fb := &Filterbank{
		Weights:    make([][]float64, numFilters),
		NumFilters: numFilters,
		NumBins:    nbins,
		SampleRate: sampleRate,
		LowFreq:    lowFreq,
		HighFreq:   highFreq,
		vertices:   make([][3]float64, numFilters),
	}

	for j := 1; j <= numFilters; j++ {
		fLow := MelToHz(lowMel + delta*float64(j-1))
		fCenter := MelToHz(lowMel + delta*float64(j))
		fHigh := MelToHz(lowMel + delta*float64(j+1))
		fb.vertices[j-1] = [3]float64{fLow, fCenter, fHigh}

		row := make([]float64, nbins)
		for k, f := range freqs {
			row[k] = TriangleWeight(f, fLow, fCenter, fHigh)
		}
		fb.Weights[j-1] = row
	}

	return fb, nil
}

// Vertices returns the low, center and high frequencies of filter j (0-indexed).
func (fb *Filterbank) Vertices(j int) (low, center, high float64) {
	v := fb.vertices[j]
	return v[0], v[1], v[2]
}

// Apply aggregates a bins x frames power spectrum into a filters x frames
// matrix. Each cell is the weighted sum of one filter over one frame.
func (fb *Filterbank) Apply(power [][]float64) ([][]float64, error) {
	return ApplyFilterbank(fb.Weights, power)
}

// ApplyFilterbank computes out[j][i] = sum_k filterbank[j][k] * power[k][i].
func ApplyFilterbank(filterbank, power [][]float64) ([][]float64, error) {
	if len(filterbank) == 0 {
		return nil, fmt.Errorf("%w: empty filterbank", ErrInvalidFilterbank)
	}
	if len(filterbank[0]) != len(power) {
		return nil, &DimensionError{FilterbankBins: len(filterbank[0]), SpectrumBins: len(power)}
	}

	frames := 0
	if len(power) > 0 {
		frames = len(power[0])
	}

	out := make([][]float64, len(filterbank))
	for j := range out {
		out[j] = make([]float64, frames)
	}

	column := make([]float64, len(power))
	for i := range frames {
		for k := range power {
			column[k] = power[k][i]
		}
		for j, filter := range filterbank {
			out[j][i] = floats.Dot(filter, column)
		}
	}

	return out, nil
}

type filterbankKey struct {
	numFilters int
	sampleRate float64
	nfft       int
	low, high  float64
}

// FilterbankCache memoizes filterbanks by their construction parameters so a
// batch of files sharing sample rate and frame size builds each one once.
type FilterbankCache struct {
	mu    sync.Mutex
	banks map[filterbankKey]*Filterbank
}

func NewFilterbankCache() *FilterbankCache {
	return &FilterbankCache{banks: make(map[filterbankKey]*Filterbank)}
}

// Get returns the cached filterbank for the parameters, building it on first use.
func (c *FilterbankCache) Get(numFilters int, sampleRate float64, nfft int, lowFreq, highFreq float64) (*Filterbank, error) {
	key := filterbankKey{numFilters, sampleRate, nfft, lowFreq, highFreq}

	c.mu.Lock()
	defer c.mu.Unlock()

	if fb, ok := c.banks[key]; ok {
		return fb, nil
	}
	fb, err := BuildMelFilterbank(numFilters, sampleRate, nfft, lowFreq, highFreq)
	if err != nil {
		return nil, err
	}
	c.banks[key] = fb
	return fb, nil
}

// Len reports how many distinct filterbanks are cached.
func (c *FilterbankCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.banks)
}
