package features

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-features/algorithms/spectral"
	"github.com/RyanBlaney/sonido-features/features/config"
	"github.com/RyanBlaney/sonido-features/transcode"
)

func sine(freq, amp float64, rate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func newExtractor(t *testing.T, opts ...Option) *Extractor {
	t.Helper()
	e, err := NewExtractor(nil, opts...)
	require.NoError(t, err)
	return e
}

func argmaxRow(m [][]float64, col int) int {
	best := 0
	for j := range m {
		if m[j][col] > m[best][col] {
			best = j
		}
	}
	return best
}

func TestExtractSineShapeAndStability(t *testing.T) {
	feature, err := newExtractor(t).ExtractSamples(sine(1000, 0.3, 16000, 16000), 16000)
	require.NoError(t, err)

	assert.Equal(t, 24, feature.NumFilters)
	assert.Equal(t, 8, feature.NumPeriods)
	assert.Equal(t, 400, feature.FFTSize)
	assert.Equal(t, 160, feature.HopSize)
	assert.Equal(t, 99, feature.FrameCount)
	require.Len(t, feature.Matrix, 24)
	for _, row := range feature.Matrix {
		require.Len(t, row, 8)
		for _, v := range row {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}

	// a stationary tone peaks in the same filter in every period
	peak := argmaxRow(feature.Matrix, 0)
	for p := range 8 {
		assert.Equal(t, peak, argmaxRow(feature.Matrix, p), "period %d", p)
	}
	// the last period holds the zero-padded tail frame, so compare the rest
	for p := 1; p < 7; p++ {
		assert.InDelta(t, feature.Matrix[peak][0], feature.Matrix[peak][p], 0.01, "period %d", p)
	}
}

func TestExtractPeakFilterContainsTone(t *testing.T) {
	cfg := config.DefaultFeatureConfig()
	feature, err := newExtractor(t).ExtractSamples(sine(1000, 0.8, 16000, 16000), 16000)
	require.NoError(t, err)

	fb, err := spectral.BuildMelFilterbank(cfg.NumFilters, 16000, 400, cfg.LowFreq, cfg.HighFreq)
	require.NoError(t, err)

	low, _, high := fb.Vertices(argmaxRow(feature.Matrix, 3))
	assert.Less(t, low, 1000.0)
	assert.Greater(t, high, 1000.0)
}

func TestExtractIsIdempotent(t *testing.T) {
	e := newExtractor(t)
	samples := sine(440, 0.5, 16000, 12345)

	a, err := e.ExtractSamples(samples, 16000)
	require.NoError(t, err)
	b, err := e.ExtractSamples(samples, 16000)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestExtractIsAmplitudeInvariant(t *testing.T) {
	e := newExtractor(t)
	loud := sine(700, 0.8, 16000, 8000)
	quiet := make([]float64, len(loud))
	for i, v := range loud {
		quiet[i] = v * 0.25
	}

	a, err := e.ExtractSamples(loud, 16000)
	require.NoError(t, err)
	b, err := e.ExtractSamples(quiet, 16000)
	require.NoError(t, err)

	assert.Equal(t, a.Matrix, b.Matrix)
}

func TestExtractRejectsSilenceAndEmpty(t *testing.T) {
	e := newExtractor(t)

	_, err := e.ExtractSamples(make([]float64, 16000), 16000)
	assert.ErrorIs(t, err, ErrSilentAudio)

	_, err = e.ExtractSamples(nil, 16000)
	assert.ErrorIs(t, err, ErrEmptyAudio)

	_, err = e.Extract(nil)
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestExtractRejectsNonFiniteSamples(t *testing.T) {
	tone := sine(440, 0.5, 16000, 8000)
	tone[100] = math.NaN()

	_, err := newExtractor(t).ExtractSamples(tone, 16000)
	assert.ErrorIs(t, err, ErrNumericCorruption)
	assert.NotErrorIs(t, err, ErrSilentAudio)
}

func TestExtractTooShort(t *testing.T) {
	e := newExtractor(t)

	// 800 samples give 4 frames, fewer than 8 periods
	_, err := e.ExtractSamples(sine(440, 0.5, 16000, 800), 16000)
	assert.ErrorIs(t, err, ErrInsufficientFrames)

	// shorter than a single frame
	_, err = e.ExtractSamples(sine(440, 0.5, 16000, 100), 16000)
	assert.ErrorIs(t, err, ErrInsufficientFrames)
}

func TestExtractExactlyEnoughFrames(t *testing.T) {
	// 400 + 7*160 samples give exactly 8 frames with no padding
	feature, err := newExtractor(t).ExtractSamples(sine(440, 0.5, 16000, 1520), 16000)
	require.NoError(t, err)
	assert.Equal(t, 8, feature.FrameCount)
}

func TestExtractBackendsAgree(t *testing.T) {
	samples := sine(1500, 0.5, 16000, 9000)

	gonum, err := newExtractor(t).ExtractSamples(samples, 16000)
	require.NoError(t, err)

	cfg := config.DefaultFeatureConfig()
	cfg.FFTBackend = "go-dsp"
	e, err := NewExtractor(cfg)
	require.NoError(t, err)
	dsp, err := e.ExtractSamples(samples, 16000)
	require.NoError(t, err)

	for j := range gonum.Matrix {
		assert.InDeltaSlice(t, gonum.Matrix[j], dsp.Matrix[j], 1e-7)
	}
}

func TestExtractChannelPolicy(t *testing.T) {
	left := sine(1000, 0.5, 16000, 8000)
	right := sine(3000, 0.5, 16000, 8000)
	interleaved := make([]float64, 0, 16000)
	for i := range left {
		interleaved = append(interleaved, left[i], right[i])
	}
	stereo, err := transcode.NewAudioData(interleaved, 16000, 2, nil)
	require.NoError(t, err)

	e := newExtractor(t)
	fromStereo, err := e.Extract(stereo)
	require.NoError(t, err)
	fromLeft, err := e.ExtractSamples(left, 16000)
	require.NoError(t, err)
	assert.Equal(t, fromLeft.Matrix, fromStereo.Matrix)

	cfg := config.DefaultFeatureConfig()
	cfg.ChannelPolicy = "average"
	avg, err := NewExtractor(cfg)
	require.NoError(t, err)
	mixed, err := avg.Extract(stereo)
	require.NoError(t, err)
	assert.NotEqual(t, fromLeft.Matrix, mixed.Matrix)
}

func TestExtractHighFreqAboveNyquist(t *testing.T) {
	// 8 kHz audio has a 4 kHz Nyquist; a wider band is logged, not rejected
	cfg := config.DefaultFeatureConfig()
	cfg.HighFreq = 6000
	e, err := NewExtractor(cfg)
	require.NoError(t, err)

	feature, err := e.ExtractSamples(sine(500, 0.5, 8000, 8000), 8000)
	require.NoError(t, err)
	assert.Len(t, feature.Matrix, 24)
}

func TestExtractIntermediates(t *testing.T) {
	var stages []string
	shapes := map[string][2]int{}
	e := newExtractor(t, WithIntermediates(func(stage string, m [][]float64) {
		stages = append(stages, stage)
		shapes[stage] = [2]int{len(m), len(m[0])}
	}))

	_, err := e.ExtractSamples(sine(440, 0.5, 16000, 16000), 16000)
	require.NoError(t, err)

	assert.Equal(t, []string{StagePowerSpectrum, StageMelBinned, StagePooledMel}, stages)
	assert.Equal(t, [2]int{201, 99}, shapes[StagePowerSpectrum])
	assert.Equal(t, [2]int{24, 99}, shapes[StageMelBinned])
	assert.Equal(t, [2]int{24, 8}, shapes[StagePooledMel])
}

func TestSharedFilterbankCache(t *testing.T) {
	cache := spectral.NewFilterbankCache()
	a := newExtractor(t, WithFilterbankCache(cache))
	b := newExtractor(t, WithFilterbankCache(cache))

	_, err := a.ExtractSamples(sine(440, 0.5, 16000, 4000), 16000)
	require.NoError(t, err)
	_, err = b.ExtractSamples(sine(880, 0.5, 16000, 4000), 16000)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	_, err = b.ExtractSamples(sine(880, 0.5, 8000, 4000), 8000)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

func TestNewExtractorRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultFeatureConfig()
	cfg.NumPeriods = 0
	_, err := NewExtractor(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestFlattenIsColumnMajor(t *testing.T) {
	f := &Feature{
		Matrix:     [][]float64{{1, 2, 3}, {4, 5, 6}},
		NumFilters: 2,
		NumPeriods: 3,
	}
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, f.Flatten())
	assert.Equal(t, 6, f.Dim())
}

type mapSource map[string][]float64

func (m mapSource) Load(_ context.Context, path string) (*transcode.AudioData, error) {
	pcm, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return transcode.NewAudioData(pcm, 16000, 1, nil)
}

func TestExtractBatch(t *testing.T) {
	source := mapSource{
		"a.wav":      sine(440, 0.5, 16000, 8000),
		"b.wav":      sine(880, 0.5, 16000, 8000),
		"silent.wav": make([]float64, 8000),
	}
	paths := []string{"a.wav", "missing.wav", "b.wav", "silent.wav"}

	e := newExtractor(t)
	results, err := e.ExtractBatch(context.Background(), paths, source, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
	}
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, os.ErrNotExist)
	assert.NoError(t, results[2].Err)
	assert.ErrorIs(t, results[3].Err, ErrSilentAudio)

	single, err := e.ExtractSamples(source["b.wav"], 16000)
	require.NoError(t, err)
	assert.Equal(t, single, results[2].Feature)
}

// blockingSource waits for the batch context to end before returning.
type blockingSource struct {
	started chan struct{}
}

func (b blockingSource) Load(ctx context.Context, _ string) (*transcode.AudioData, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestExtractBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := blockingSource{started: make(chan struct{})}
	go func() {
		<-source.started
		cancel()
	}()

	results, err := newExtractor(t).ExtractBatch(ctx, []string{"a.wav"}, source, 1)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Nil(t, results[0].Feature)
}

func TestExtractFromWAVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "10.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	tone := sine(1000, 0.5, 16000, 16000)
	ints := make([]int, len(tone))
	for i, v := range tone {
		ints[i] = int(math.Round(v * 32767))
	}
	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           ints,
		Format:         &audio.Format{SampleRate: 16000, NumChannels: 1},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	results, err := newExtractor(t).ExtractBatch(context.Background(), []string{path}, transcode.NewDecoder(nil), 1)
	require.NoError(t, err)
	require.NoError(t, results[0].Err)

	direct, err := newExtractor(t).ExtractSamples(tone, 16000)
	require.NoError(t, err)
	// 16-bit quantization only moves the quiet filters noticeably
	peak := argmaxRow(direct.Matrix, 0)
	assert.Equal(t, peak, argmaxRow(results[0].Feature.Matrix, 0))
	assert.InDeltaSlice(t, direct.Matrix[peak], results[0].Feature.Matrix[peak], 1e-3)
}

func TestFlattenMatrixMatchesLoadedFeature(t *testing.T) {
	assert.Equal(t, []float64{1, 3, 2, 4}, FlattenMatrix([][]float64{{1, 2}, {3, 4}}))
	assert.Nil(t, FlattenMatrix(nil))
}
