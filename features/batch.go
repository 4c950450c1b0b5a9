package features

import (
	"context"
	"runtime"

	"github.com/RyanBlaney/sonido-features/logging"
	"github.com/RyanBlaney/sonido-features/transcode"
	"golang.org/x/sync/errgroup"
)

// Source loads decoded audio for a path.
type Source interface {
	Load(ctx context.Context, path string) (*transcode.AudioData, error)
}

// BatchResult is the outcome for one file of a batch.
type BatchResult struct {
	Path    string
	Feature *Feature
	Err     error
}

// ExtractBatch extracts every path with at most workers files in flight
// (GOMAXPROCS when workers < 1). A failing file only sets its own Err; the
// returned error is non-nil only when ctx is done. Results keep input order.
func (e *Extractor) ExtractBatch(ctx context.Context, paths []string, source Source, workers int) ([]BatchResult, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]BatchResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		results[i].Path = path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			audio, err := source.Load(gctx, path)
			if err != nil {
				results[i].Err = err
				e.logger.Error(err, "Failed to load audio", logging.Fields{"path": path})
				return nil
			}

			feature, err := e.Extract(audio)
			if err != nil {
				results[i].Err = err
				e.logger.Error(err, "Failed to extract feature", logging.Fields{"path": path})
				return nil
			}
			results[i].Feature = feature
			return nil
		})
	}

	_ = g.Wait()
	return results, ctx.Err()
}
