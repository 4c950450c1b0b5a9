package transcode

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-features/logging"
)

// FormatDecoder turns an encoded stream into interleaved PCM.
type FormatDecoder interface {
	Decode(ctx context.Context, r io.Reader) (*AudioData, error)
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	FFmpegPath     string        `json:"ffmpeg_path" yaml:"ffmpeg_path"`         // Path to ffmpeg binary
	FFprobePath    string        `json:"ffprobe_path" yaml:"ffprobe_path"`       // Path to ffprobe binary
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`                 // Timeout for ffmpeg operations
	FFmpegFallback bool          `json:"ffmpeg_fallback" yaml:"ffmpeg_fallback"` // Route unknown extensions to ffmpeg
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		FFmpegPath:     "ffmpeg",  // Assume in PATH
		FFprobePath:    "ffprobe", // Assume in PATH
		Timeout:        30 * time.Second,
		FFmpegFallback: true,
	}
}

// Decoder picks a FormatDecoder by file extension.
type Decoder struct {
	config  *DecoderConfig
	formats map[string]FormatDecoder
	ffmpeg  *FFmpegDecoder
}

// NewDecoder creates a new audio decoder with the native wav, aiff, mp3 and
// ogg decoders registered.
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}

	d := &Decoder{
		config:  config,
		formats: make(map[string]FormatDecoder),
		ffmpeg: &FFmpegDecoder{
			FFmpegPath:  config.FFmpegPath,
			FFprobePath: config.FFprobePath,
			Timeout:     config.Timeout,
		},
	}

	d.Register(WAVDecoder{}, "wav", "wave")
	d.Register(AIFFDecoder{}, "aif", "aiff")
	d.Register(MP3Decoder{}, "mp3")
	d.Register(VorbisDecoder{}, "ogg", "oga")

	return d
}

// Register binds a decoder to one or more extensions, replacing any previous binding.
func (d *Decoder) Register(dec FormatDecoder, exts ...string) {
	for _, ext := range exts {
		d.formats[normalizeExt(ext)] = dec
	}
}

// SupportedFormats lists the registered extensions.
func (d *Decoder) SupportedFormats() []string {
	exts := make([]string, 0, len(d.formats))
	for ext := range d.formats {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Load implements the feature extractor's audio source.
func (d *Decoder) Load(ctx context.Context, path string) (*AudioData, error) {
	return d.DecodeFile(ctx, path)
}

// DecodeFile decodes an audio file and returns PCM data
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	logger.Debug("Starting audio file decode")

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	data, err := d.DecodeReader(ctx, f, filepath.Ext(filename))
	if err != nil {
		logger.Error(err, "Failed to decode audio file")
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	data.Metadata.Path = filename

	logger.Debug("Audio decoded", logging.Fields{
		"sample_rate": data.SampleRate,
		"channels":    data.Channels,
		"duration":    data.Duration.String(),
		"format":      data.Metadata.Format,
	})

	return data, nil
}

// DecodeReader decodes r using the decoder registered for format, which may
// be given with or without a leading dot.
func (d *Decoder) DecodeReader(ctx context.Context, r io.Reader, format string) (*AudioData, error) {
	ext := normalizeExt(format)

	dec, ok := d.formats[ext]
	if !ok {
		if !d.config.FFmpegFallback {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
		}
		logging.Debug("No native decoder, falling back to ffmpeg", logging.Fields{"format": ext})
		dec = d.ffmpeg
	}

	data, err := dec.Decode(ctx, r)
	if err != nil {
		return nil, err
	}
	if data.Metadata == nil {
		data.Metadata = &StreamMetadata{Format: ext}
	}
	return data, nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
