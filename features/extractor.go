package features

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-features/algorithms/common"
	"github.com/RyanBlaney/sonido-features/algorithms/spectral"
	"github.com/RyanBlaney/sonido-features/algorithms/temporal"
	"github.com/RyanBlaney/sonido-features/features/config"
	"github.com/RyanBlaney/sonido-features/logging"
	"github.com/RyanBlaney/sonido-features/transcode"
)

// Intermediate stage names passed to an IntermediateFunc.
const (
	StagePowerSpectrum = "power_spectrum"
	StageMelBinned     = "mel_binned"
	StagePooledMel     = "pooled_mel"
)

// IntermediateFunc receives each intermediate matrix (rows x frames or
// rows x periods) as the pipeline produces it. The matrix must not be modified.
type IntermediateFunc func(stage string, m [][]float64)

// Option configures an Extractor.
type Option func(*Extractor)

// WithIntermediates installs a hook that observes intermediate matrices.
func WithIntermediates(fn IntermediateFunc) Option {
	return func(e *Extractor) { e.intermediates = fn }
}

// WithFilterbankCache shares a filterbank cache between extractors.
func WithFilterbankCache(cache *spectral.FilterbankCache) Option {
	return func(e *Extractor) { e.filterbanks = cache }
}

// WithLogger replaces the default component logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// Extractor turns audio into log-mel features. It holds no per-call state and
// is safe for concurrent use as long as the intermediates hook is.
type Extractor struct {
	config        *config.FeatureConfig
	stft          *spectral.STFT
	power         *spectral.PowerSpectrum
	filterbanks   *spectral.FilterbankCache
	intermediates IntermediateFunc
	logger        logging.Logger
}

// NewExtractor validates cfg and builds an extractor. A nil cfg uses the defaults.
func NewExtractor(cfg *config.FeatureConfig, opts ...Option) (*Extractor, error) {
	if cfg == nil {
		cfg = config.DefaultFeatureConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Extractor{
		config: cfg,
		stft:   spectral.NewSTFT(spectral.Backend(cfg.FFTBackend)),
		power:  spectral.NewPowerSpectrum(),
		logger: logging.WithFields(logging.Fields{
			"component": "feature_extractor",
		}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.filterbanks == nil {
		e.filterbanks = spectral.NewFilterbankCache()
	}
	return e, nil
}

// Config returns the extractor's configuration.
func (e *Extractor) Config() *config.FeatureConfig {
	return e.config
}

// ExtractSamples extracts a feature from mono samples.
func (e *Extractor) ExtractSamples(samples []float64, sampleRate int) (*Feature, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}
	audio, err := transcode.NewAudioData(samples, sampleRate, 1, nil)
	if err != nil {
		return nil, err
	}
	return e.Extract(audio)
}

// Extract runs the full pipeline: mono mixdown, peak normalization, STFT,
// power spectrum, mel aggregation, temporal pooling and log compression.
func (e *Extractor) Extract(audio *transcode.AudioData) (*Feature, error) {
	if audio == nil || len(audio.PCM) == 0 {
		return nil, ErrEmptyAudio
	}
	cfg := e.config

	mono, err := audio.Mono(transcode.ChannelPolicy(cfg.ChannelPolicy))
	if err != nil {
		return nil, err
	}

	samples, err := common.PeakNormalize(mono.PCM)
	switch {
	case errors.Is(err, common.ErrEmptySignal):
		return nil, ErrEmptyAudio
	case errors.Is(err, common.ErrNonFiniteSignal):
		return nil, fmt.Errorf("%w: %w", ErrNumericCorruption, err)
	case errors.Is(err, common.ErrSilentSignal):
		return nil, fmt.Errorf("%w: %w", ErrSilentAudio, err)
	case err != nil:
		return nil, err
	}

	rate := mono.SampleRate
	hop := cfg.HopSize(rate)
	fftn := cfg.FFTSize(rate)
	if hop < 1 || fftn < 2 {
		return nil, fmt.Errorf("%w: hop %d and frame %d at %d Hz", spectral.ErrInvalidFrameParams, hop, fftn, rate)
	}
	if len(samples) < fftn {
		return nil, fmt.Errorf("%w: %d samples is shorter than one %d-sample frame", ErrInsufficientFrames, len(samples), fftn)
	}
	if frames := spectral.FrameCount(len(samples), fftn, hop); frames < cfg.NumPeriods {
		return nil, fmt.Errorf("%w: %d frames for %d periods", ErrInsufficientFrames, frames, cfg.NumPeriods)
	}

	nyquist := float64(rate) / 2
	if cfg.HighFreq > nyquist {
		e.logger.Warn("High frequency exceeds Nyquist, upper filters will be partly empty", logging.Fields{
			"high_freq":   cfg.HighFreq,
			"nyquist":     nyquist,
			"sample_rate": rate,
		})
	}

	stftResult, err := e.stft.Compute(samples, fftn, hop)
	if err != nil {
		return nil, err
	}

	power := e.power.ComputeFromSTFT(stftResult)
	e.observe(StagePowerSpectrum, power)

	fb, err := e.filterbanks.Get(cfg.NumFilters, float64(rate), fftn, cfg.LowFreq, cfg.HighFreq)
	if err != nil {
		return nil, err
	}
	mel, err := fb.Apply(power)
	if err != nil {
		return nil, err
	}
	e.observe(StageMelBinned, mel)

	pooled, err := temporal.Pool(mel, cfg.NumPeriods)
	if err != nil {
		return nil, err
	}
	e.observe(StagePooledMel, pooled)

	compressed, err := spectral.LogCompress(pooled, cfg.Epsilon)
	if err != nil {
		if errors.Is(err, spectral.ErrNegativePower) {
			return nil, fmt.Errorf("%w: %w", ErrNumericCorruption, err)
		}
		return nil, err
	}
	if !common.AllFinite(compressed) {
		return nil, ErrNumericCorruption
	}

	e.logger.Debug("Feature extracted", logging.Fields{
		"sample_rate": rate,
		"frames":      stftResult.TimeFrames,
		"padding":     stftResult.Padding,
		"fftn":        fftn,
		"hop":         hop,
	})

	return &Feature{
		Matrix:     compressed,
		NumFilters: cfg.NumFilters,
		NumPeriods: cfg.NumPeriods,
		SampleRate: rate,
		FrameCount: stftResult.TimeFrames,
		FFTSize:    fftn,
		HopSize:    hop,
	}, nil
}

func (e *Extractor) observe(stage string, m [][]float64) {
	if e.intermediates != nil {
		e.intermediates(stage, m)
	}
}
