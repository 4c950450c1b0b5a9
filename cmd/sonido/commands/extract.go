package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-features/algorithms/spectral"
	"github.com/RyanBlaney/sonido-features/features"
	"github.com/RyanBlaney/sonido-features/features/config"
	"github.com/RyanBlaney/sonido-features/imageio"
	"github.com/RyanBlaney/sonido-features/logging"
	"github.com/RyanBlaney/sonido-features/tableio"
	"github.com/RyanBlaney/sonido-features/transcode"
)

var extractCmd = &cobra.Command{
	Use:   "extract [audio files...]",
	Short: "Extract log-mel features from audio files",
	Long: `Extract a log-mel feature from each audio file and save it next to the
input with a .feat extension. The path of every written file is printed.

WAV, AIFF, MP3 and Ogg Vorbis are decoded natively; other formats go
through ffmpeg when it is installed.

Examples:
  sonido extract recordings/*.wav
  sonido extract --list wavs.txt --workers 8
  sonido extract 4_jackson_0.wav --images --image-dir plots`,
	RunE: runExtract,
}

var (
	extractConfigFile string
	extractListFile   string
	extractWorkers    int
	extractImages     bool
	extractImageDir   string

	extractNumFilters    int
	extractNumPeriods    int
	extractChannelPolicy string
	extractFFTBackend    string
)

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractConfigFile, "config", "f", "", "feature config file (YAML or JSON)")
	f.StringVarP(&extractListFile, "list", "l", "", "file listing audio paths, one per line")
	f.IntVarP(&extractWorkers, "workers", "j", 0, "files extracted in parallel (default: number of CPUs)")
	f.BoolVar(&extractImages, "images", false, "write power_spectrum, mel_binned and pooled_mel PNGs")
	f.StringVar(&extractImageDir, "image-dir", ".", "directory for --images output")

	f.IntVar(&extractNumFilters, "num-filters", 0, "override the number of mel filters")
	f.IntVar(&extractNumPeriods, "num-periods", 0, "override the number of pooled periods")
	f.StringVar(&extractChannelPolicy, "channel-policy", "", "override the channel policy (first, average)")
	f.StringVar(&extractFFTBackend, "fft-backend", "", "override the FFT backend (gonum, go-dsp)")
}

func loadFeatureConfig(cmd *cobra.Command) (*config.FeatureConfig, error) {
	cfg := config.DefaultFeatureConfig()
	if extractConfigFile != "" {
		loaded, err := config.Load(extractConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("num-filters") {
		cfg.NumFilters = extractNumFilters
	}
	if flags.Changed("num-periods") {
		cfg.NumPeriods = extractNumPeriods
	}
	if flags.Changed("channel-policy") {
		cfg.ChannelPolicy = extractChannelPolicy
	}
	if flags.Changed("fft-backend") {
		cfg.FFTBackend = extractFFTBackend
	}
	return cfg, cfg.Validate()
}

func runExtract(cmd *cobra.Command, args []string) error {
	paths := args
	if extractListFile != "" {
		listed, err := tableio.ReadFileListing(extractListFile)
		if err != nil {
			return err
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no audio files given")
	}

	cfg, err := loadFeatureConfig(cmd)
	if err != nil {
		return err
	}

	decoder := transcode.NewDecoder(nil)
	cache := spectral.NewFilterbankCache()
	out := cmd.OutOrStdout()

	if extractImages {
		return extractWithImages(cmd, cfg, cache, decoder, paths)
	}

	extractor, err := features.NewExtractor(cfg, features.WithFilterbankCache(cache))
	if err != nil {
		return err
	}

	results, err := extractor.ExtractBatch(cmd.Context(), paths, decoder, extractWorkers)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		featPath := tableio.ReplaceExt(r.Path, ".feat")
		if err := tableio.SaveCSV(featPath, r.Feature.Matrix); err != nil {
			return err
		}
		printPath(out, featPath)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// extractWithImages runs one file at a time so every file gets its own set of
// images. With several inputs the image names are prefixed by the file stem.
func extractWithImages(cmd *cobra.Command, cfg *config.FeatureConfig, cache *spectral.FilterbankCache, decoder *transcode.Decoder, paths []string) error {
	for _, path := range paths {
		prefix := ""
		if len(paths) > 1 {
			prefix = tableio.Stem(path) + "_"
		}
		sink := &imageSink{dir: extractImageDir, prefix: prefix, epsilon: cfg.Epsilon}

		extractor, err := features.NewExtractor(cfg,
			features.WithFilterbankCache(cache),
			features.WithIntermediates(sink.observe),
		)
		if err != nil {
			return err
		}

		audio, err := decoder.DecodeFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		feature, err := extractor.Extract(audio)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if sink.err != nil {
			return sink.err
		}

		featPath := tableio.ReplaceExt(path, ".feat")
		if err := tableio.SaveCSV(featPath, feature.Matrix); err != nil {
			return err
		}
		printPath(cmd.OutOrStdout(), featPath)
	}
	return nil
}

// imageSink renders intermediate matrices. The power spectrum is drawn on a
// linear scale from zero, the mel stages in log10.
type imageSink struct {
	dir     string
	prefix  string
	epsilon float64
	err     error
}

func (s *imageSink) observe(stage string, m [][]float64) {
	if s.err != nil {
		return
	}

	img := m
	lo, hi := imageio.Range(m)
	if stage == features.StagePowerSpectrum {
		lo = 0
	} else {
		img, s.err = spectral.LogCompress(m, s.epsilon)
		if s.err != nil {
			return
		}
		lo, hi = imageio.Range(img)
	}

	path := filepath.Join(s.dir, s.prefix+stage+".png")
	if s.err = imageio.SavePNG(path, img, lo, hi); s.err == nil {
		logging.Debug("Wrote image", logging.Fields{"path": path, "stage": stage})
	}
}
