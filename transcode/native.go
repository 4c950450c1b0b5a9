package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// WAVDecoder decodes RIFF/WAVE PCM.
type WAVDecoder struct{}

func (WAVDecoder) Decode(ctx context.Context, r io.Reader) (*AudioData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav file", ErrInvalidAudio)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}

	// 8-bit WAV is unsigned; wider depths are signed
	return fromIntBuffer(buf, int(dec.BitDepth), dec.BitDepth == 8, &StreamMetadata{Format: "wav", Codec: "pcm"})
}

// AIFFDecoder decodes AIFF PCM.
type AIFFDecoder struct{}

func (AIFFDecoder) Decode(ctx context.Context, r io.Reader) (*AudioData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, err
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid aiff file", ErrInvalidAudio)
	}
	dec.ReadInfo()
	format := dec.Format()
	if format == nil {
		return nil, fmt.Errorf("%w: missing aiff format chunk", ErrInvalidAudio)
	}

	buf := &audio.IntBuffer{Format: format, Data: make([]int, 4096)}
	var data []int
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: failed to decode aiff: %w", ErrInvalidAudio, err)
		}
		data = append(data, buf.Data[:n]...)
		if err == io.EOF || n == 0 {
			break
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: aiff has no sample data", ErrInvalidAudio)
	}

	return fromIntBuffer(&audio.IntBuffer{Format: format, Data: data}, int(dec.BitDepth), false,
		&StreamMetadata{Format: "aiff", Codec: "pcm"})
}

// MP3Decoder decodes MPEG-1/2 layer III. go-mp3 always yields 16-bit stereo.
type MP3Decoder struct{}

func (MP3Decoder) Decode(ctx context.Context, r io.Reader) (*AudioData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3: %w", err)
	}

	const channels = 2
	n := len(raw) / 2
	n -= n % channels
	pcm := make([]float64, n)
	for i := range n {
		pcm[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768.0
	}

	return NewAudioData(pcm, dec.SampleRate(), channels, &StreamMetadata{Format: "mp3", Codec: "mp3"})
}

// VorbisDecoder decodes Ogg Vorbis.
type VorbisDecoder struct{}

func (VorbisDecoder) Decode(ctx context.Context, r io.Reader) (*AudioData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ogg vorbis: %w", err)
	}

	var pcm []float64
	chunk := make([]float32, 4096*dec.Channels())
	for {
		n, err := dec.Read(chunk)
		for _, s := range chunk[:n] {
			pcm = append(pcm, float64(s))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode ogg vorbis: %w", err)
		}
		if n == 0 {
			break
		}
	}

	return NewAudioData(pcm, dec.SampleRate(), dec.Channels(), &StreamMetadata{Format: "ogg", Codec: "vorbis"})
}

func fromIntBuffer(buf *audio.IntBuffer, bitDepth int, unsigned bool, meta *StreamMetadata) (*AudioData, error) {
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("%w: missing pcm format", ErrInvalidAudio)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidAudio, bitDepth)
	}

	scale := float64(int64(1) << (bitDepth - 1))
	offset := 0.0
	if unsigned {
		offset = scale
	}

	pcm := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		pcm[i] = (float64(v) - offset) / scale
	}

	return NewAudioData(pcm, buf.Format.SampleRate, buf.Format.NumChannels, meta)
}

func asReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return bytes.NewReader(data), nil
}
