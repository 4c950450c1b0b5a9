package transcode

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsupportedFormat    = errors.New("unsupported audio format")
	ErrInvalidAudio         = errors.New("invalid audio data")
	ErrUnknownChannelPolicy = errors.New("unknown channel policy")
)

// ChannelPolicy decides how multi-channel audio becomes mono.
type ChannelPolicy string

const (
	// ChannelFirst keeps only the first channel.
	ChannelFirst ChannelPolicy = "first"
	// ChannelAverage averages all channels per frame.
	ChannelAverage ChannelPolicy = "average"
)

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64       `json:"-"` // Interleaved samples in [-1, 1]
	SampleRate int             `json:"sample_rate"`
	Channels   int             `json:"channels"`
	Duration   time.Duration   `json:"duration"`
	Metadata   *StreamMetadata `json:"metadata,omitempty"`
}

// StreamMetadata describes where decoded audio came from.
type StreamMetadata struct {
	Path    string `json:"path,omitempty"`
	Format  string `json:"format"`
	Codec   string `json:"codec,omitempty"`
	BitRate int    `json:"bitrate,omitempty"`
}

// NewAudioData builds AudioData from interleaved samples and fills in Duration.
func NewAudioData(pcm []float64, sampleRate, channels int, meta *StreamMetadata) (*AudioData, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidAudio, sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidAudio, channels)
	}
	if len(pcm)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples is not a multiple of %d channels", ErrInvalidAudio, len(pcm), channels)
	}

	frames := len(pcm) / channels
	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   time.Duration(frames) * time.Second / time.Duration(sampleRate),
		Metadata:   meta,
	}, nil
}

// Frames returns the number of sample frames (samples per channel).
func (a *AudioData) Frames() int {
	if a.Channels <= 0 {
		return 0
	}
	return len(a.PCM) / a.Channels
}

// Mono returns single-channel audio. Mono input is returned as is; otherwise
// policy selects the first channel or the per-frame average of all channels.
func (a *AudioData) Mono(policy ChannelPolicy) (*AudioData, error) {
	if a.Channels == 1 {
		return a, nil
	}
	if a.Channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidAudio, a.Channels)
	}

	frames := a.Frames()
	mono := make([]float64, frames)

	switch policy {
	case ChannelFirst, "":
		for f := range frames {
			mono[f] = a.PCM[f*a.Channels]
		}
	case ChannelAverage:
		inv := 1.0 / float64(a.Channels)
		for f := range frames {
			sum := 0.0
			base := f * a.Channels
			for c := range a.Channels {
				sum += a.PCM[base+c]
			}
			mono[f] = sum * inv
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannelPolicy, policy)
	}

	return &AudioData{
		PCM:        mono,
		SampleRate: a.SampleRate,
		Channels:   1,
		Duration:   a.Duration,
		Metadata:   a.Metadata,
	}, nil
}
