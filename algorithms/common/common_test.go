package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeakNormalize(t *testing.T) {
	in := []float64{0.1, -0.4, 0.2, 0}
	out, err := PeakNormalize(in)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.25, -1, 0.5, 0}, out, 1e-15)
	assert.Equal(t, []float64{0.1, -0.4, 0.2, 0}, in)
}

func TestPeakNormalizeRejectsSilenceAndEmpty(t *testing.T) {
	_, err := PeakNormalize(make([]float64, 16000))
	assert.ErrorIs(t, err, ErrSilentSignal)

	_, err = PeakNormalize(nil)
	assert.ErrorIs(t, err, ErrEmptySignal)

}

func TestPeakNormalizeRejectsNonFinite(t *testing.T) {
	for _, in := range [][]float64{
		{math.NaN(), 1, 2},
		{0, math.Inf(1), 0.5},
		{math.Inf(-1)},
	} {
		_, err := PeakNormalize(in)
		assert.ErrorIs(t, err, ErrNonFiniteSignal, "%v", in)
		assert.NotErrorIs(t, err, ErrSilentSignal)
	}
}

func TestMaxAbs(t *testing.T) {
	assert.Equal(t, 3.0, MaxAbs([]float64{1, -3, 2}))
	assert.Equal(t, 2.5, MaxAbs([]float64{2.5, -1}))
	assert.Equal(t, 0.0, MaxAbs(nil))
	assert.True(t, math.IsNaN(MaxAbs([]float64{1, math.NaN()})))
}

func TestAllFinite(t *testing.T) {
	assert.True(t, AllFinite([][]float64{{1, 2}, {-8, 0}}))
	assert.False(t, AllFinite([][]float64{{1, math.NaN()}}))
	assert.False(t, AllFinite([][]float64{{math.Inf(-1)}}))
}
