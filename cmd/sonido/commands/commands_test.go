package commands

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTone(t *testing.T, path string, freq float64) {
	t.Helper()

	const rate = 8000
	data := make([]int, rate/2)
	for i := range data {
		data[i] = int(math.Round(12000 * math.Sin(2*math.Pi*freq*float64(i)/rate)))
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: rate, NumChannels: 1},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func run(t *testing.T, args ...string) []string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return strings.Fields(out.String())
}

func writeListing(t *testing.T, path string, files []string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(files, "\n")+"\n"), 0o644))
}

func TestPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	var wavs []string
	for i, freq := range []float64{300, 700, 1100, 1900, 2600} {
		path := filepath.Join(dir, string(rune('0'+i))+"_tone.wav")
		writeTone(t, path, freq)
		wavs = append(wavs, path)
	}

	feats := run(t, append([]string{"extract", "--workers", "2"}, wavs...)...)
	require.Len(t, feats, len(wavs))
	for i, f := range feats {
		assert.Equal(t, strings.TrimSuffix(wavs[i], ".wav")+".feat", f)
	}

	featList := filepath.Join(dir, "feats.txt")
	writeListing(t, featList, feats)

	artifacts := run(t, "basis", featList)
	stem := filepath.Join(dir, "feats")
	assert.Equal(t, []string{stem + ".scree", stem + ".basis", stem + ".mean"}, artifacts)

	reduced := run(t, "reduce", featList, stem, "3")
	require.Len(t, reduced, len(feats))

	raw, err := os.ReadFile(reduced[0])
	require.NoError(t, err)
	assert.Len(t, strings.Split(string(raw), "\n"), 3)

	reducedList := filepath.Join(dir, "reduced.txt")
	writeListing(t, reducedList, reduced)

	svm := run(t, "prep-svm", reducedList)
	require.Equal(t, []string{filepath.Join(dir, "reduced.svm")}, svm)

	content, err := os.ReadFile(svm[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	require.Len(t, lines, len(reduced))
	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, string(rune('0'+i))+" 1:"), line)
		assert.True(t, strings.HasSuffix(line, " "), line)
		assert.Len(t, strings.Fields(line), 4)
	}
}

func TestExtractWithImages(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "3_tone.wav")
	writeTone(t, wavPath, 500)

	imgDir := filepath.Join(dir, "img")
	require.NoError(t, os.Mkdir(imgDir, 0o755))

	out := run(t, "extract", wavPath, "--images", "--image-dir", imgDir)
	assert.Equal(t, []string{filepath.Join(dir, "3_tone.feat")}, out)

	for _, name := range []string{"power_spectrum.png", "mel_binned.png", "pooled_mel.png"} {
		assert.FileExists(t, filepath.Join(imgDir, name))
	}

	extractImages = false
	extractImageDir = "."
}

func TestPrepSVMRejectsNonReduced(t *testing.T) {
	dir := t.TempDir()
	feat := filepath.Join(dir, "1_x.feat")
	require.NoError(t, os.WriteFile(feat, []byte("1\n2"), 0o644))

	err := writeSVMFile(filepath.Join(dir, "out.svm"), []string{feat})
	assert.ErrorContains(t, err, ".reduced")
}

func TestPartition(t *testing.T) {
	source := t.TempDir()
	for _, name := range []string{"0_a_41.wav", "0_a_4.wav", "1_b_40.wav", "2_c_7.wav"} {
		require.NoError(t, os.WriteFile(filepath.Join(source, name), []byte(name), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(source, "nested"), 0o755))

	folder := filepath.Join(t.TempDir(), "data")
	train, test, err := partition(folder, source, regexp.MustCompile(`4\d\.wav`))
	require.NoError(t, err)
	assert.Equal(t, 2, train)
	assert.Equal(t, 2, test)

	assert.FileExists(t, filepath.Join(folder, "test_data", "0_a_41.wav"))
	assert.FileExists(t, filepath.Join(folder, "test_data", "1_b_40.wav"))
	assert.FileExists(t, filepath.Join(folder, "train_data", "0_a_4.wav"))
	copied, err := os.ReadFile(filepath.Join(folder, "train_data", "2_c_7.wav"))
	require.NoError(t, err)
	assert.Equal(t, "2_c_7.wav", string(copied))

	ignore, err := os.ReadFile(filepath.Join(folder, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "*", string(ignore))

	_, _, err = partition(folder, source, regexp.MustCompile(`4\d\.wav`))
	assert.ErrorContains(t, err, "already exists")
}
