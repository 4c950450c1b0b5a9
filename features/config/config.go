package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

var ErrInvalidConfig = errors.New("invalid feature config")

// FeatureConfig holds the parameters of the log-mel feature pipeline.
type FeatureConfig struct {
	NumFilters    int     `json:"num_filters" yaml:"num_filters"`       // Mel filters (feature rows)
	NumPeriods    int     `json:"num_periods" yaml:"num_periods"`       // Pooled time segments (feature columns)
	LowFreq       float64 `json:"low_freq" yaml:"low_freq"`             // Hz
	HighFreq      float64 `json:"high_freq" yaml:"high_freq"`           // Hz
	StepSec       float64 `json:"step_sec" yaml:"step_sec"`             // Hop between frames in seconds
	WindowSec     float64 `json:"window_sec" yaml:"window_sec"`         // Frame length in seconds
	Epsilon       float64 `json:"epsilon" yaml:"epsilon"`               // Added before log10
	ChannelPolicy string  `json:"channel_policy" yaml:"channel_policy"` // "first" or "average"
	FFTBackend    string  `json:"fft_backend" yaml:"fft_backend"`       // "gonum" or "go-dsp"
}

// DefaultFeatureConfig returns the standard 24 x 8 log-mel configuration.
func DefaultFeatureConfig() *FeatureConfig {
	return &FeatureConfig{
		NumFilters:    24,
		NumPeriods:    8,
		LowFreq:       0,
		HighFreq:      4000,
		StepSec:       0.01,
		WindowSec:     0.025,
		Epsilon:       1e-8,
		ChannelPolicy: "first",
		FFTBackend:    "gonum",
	}
}

// Load reads a YAML (.yaml, .yml) or JSON (.json) file over the defaults and
// validates the result.
func Load(path string) (*FeatureConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultFeatureConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks parameter ranges that do not depend on the sample rate.
func (c *FeatureConfig) Validate() error {
	switch {
	case c.NumFilters < 1:
		return fmt.Errorf("%w: num_filters must be positive, got %d", ErrInvalidConfig, c.NumFilters)
	case c.NumPeriods < 1:
		return fmt.Errorf("%w: num_periods must be positive, got %d", ErrInvalidConfig, c.NumPeriods)
	case c.LowFreq < 0:
		return fmt.Errorf("%w: low_freq must be non-negative, got %g", ErrInvalidConfig, c.LowFreq)
	case c.HighFreq <= c.LowFreq:
		return fmt.Errorf("%w: high_freq %g must exceed low_freq %g", ErrInvalidConfig, c.HighFreq, c.LowFreq)
	case !(c.StepSec > 0):
		return fmt.Errorf("%w: step_sec must be positive, got %g", ErrInvalidConfig, c.StepSec)
	case !(c.WindowSec > 0):
		return fmt.Errorf("%w: window_sec must be positive, got %g", ErrInvalidConfig, c.WindowSec)
	case !(c.Epsilon > 0):
		return fmt.Errorf("%w: epsilon must be positive, got %g", ErrInvalidConfig, c.Epsilon)
	}

	switch c.ChannelPolicy {
	case "first", "average":
	default:
		return fmt.Errorf("%w: unknown channel_policy %q", ErrInvalidConfig, c.ChannelPolicy)
	}
	switch c.FFTBackend {
	case "gonum", "go-dsp":
	default:
		return fmt.Errorf("%w: unknown fft_backend %q", ErrInvalidConfig, c.FFTBackend)
	}
	return nil
}

// HopSize returns round(StepSec * sampleRate).
func (c *FeatureConfig) HopSize(sampleRate int) int {
	return int(math.Round(c.StepSec * float64(sampleRate)))
}

// FFTSize returns round(WindowSec * sampleRate), the frame length and transform size.
func (c *FeatureConfig) FFTSize(sampleRate int) int {
	return int(math.Round(c.WindowSec * float64(sampleRate)))
}
