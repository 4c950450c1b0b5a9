package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-features/logging"
)

// FFmpegDecoder decodes anything ffmpeg understands. The stream is probed with
// ffprobe first so samples keep their native rate and channel layout.
type FFmpegDecoder struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
}

// probeResult holds detected audio properties from ffprobe
type probeResult struct {
	SampleRate int
	Channels   int
	Codec      string
	Bitrate    int
}

// Decode reads all of r and pipes it through ffprobe and ffmpeg.
func (f *FFmpegDecoder) Decode(ctx context.Context, r io.Reader) (*AudioData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidAudio)
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	probe, err := f.probe(ctx, data)
	if err != nil {
		return nil, err
	}
	return f.decode(ctx, data, probe)
}

// Available reports whether both binaries can be found.
func (f *FFmpegDecoder) Available() error {
	if _, err := exec.LookPath(f.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", f.FFmpegPath, err)
	}
	if _, err := exec.LookPath(f.FFprobePath); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", f.FFprobePath, err)
	}
	return nil
}

func (f *FFmpegDecoder) probe(ctx context.Context, data []byte) (*probeResult, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		"pipe:0",
	}

	cmd := exec.CommandContext(ctx, f.FFprobePath, args...)
	cmd.Stdin = bytes.NewReader(data)

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeOutput(output)
}

func parseProbeOutput(jsonData []byte) (*probeResult, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			BitRate    string `json:"bit_rate"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("%w: no audio streams found", ErrInvalidAudio)
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("%w: stream is not audio type: %s", ErrInvalidAudio, stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: bad sample rate %q", ErrInvalidAudio, stream.SampleRate)
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("%w: invalid channel count: %d", ErrInvalidAudio, stream.Channels)
	}

	bitrate, _ := strconv.Atoi(stream.BitRate)

	return &probeResult{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Bitrate:    bitrate,
	}, nil
}

func (f *FFmpegDecoder) decode(ctx context.Context, data []byte, probe *probeResult) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "ffmpegDecode",
		"codec":     probe.Codec,
	})

	args := []string{
		"-v", "error",
		"-i", "pipe:0",
		"-vn",
		"-f", "f64le", // Output raw float64 little-endian
		"-ac", strconv.Itoa(probe.Channels),
		"-ar", strconv.Itoa(probe.SampleRate),
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, f.FFmpegPath, args...)
	cmd.Stdin = bytes.NewReader(data)

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	pcm := bytesToFloat64(output)
	// ffmpeg may emit a partial final frame on truncated input
	pcm = pcm[:len(pcm)-len(pcm)%probe.Channels]

	return NewAudioData(pcm, probe.SampleRate, probe.Channels, &StreamMetadata{
		Format:  "ffmpeg",
		Codec:   probe.Codec,
		BitRate: probe.Bitrate,
	})
}

// bytesToFloat64 converts raw float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		data = data[:len(data)-(len(data)%8)]
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}
