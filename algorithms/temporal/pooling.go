package temporal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientFrames is returned when there are fewer frames than pooling
// periods, which would leave at least one period empty.
var ErrInsufficientFrames = errors.New("not enough frames for the requested pooling periods")

// Segment is the half-open frame range [Low, High) reduced into one period.
type Segment struct {
	Low  int
	High int
}

// Len returns the number of frames in the segment.
func (s Segment) Len() int {
	return s.High - s.Low
}

// SegmentBounds splits [0, frames) into periods consecutive segments with
// boundaries round(i*frames/periods). Segment i ends where segment i+1
// begins because both are rounded from the same value, so the segments cover
// every frame exactly once.
func SegmentBounds(frames, periods int) ([]Segment, error) {
	if periods < 1 {
		return nil, fmt.Errorf("pooling periods must be positive, got %d", periods)
	}
	if frames < periods {
		return nil, fmt.Errorf("%w: %d frames, %d periods", ErrInsufficientFrames, frames, periods)
	}

	breaks := float64(frames) / float64(periods)
	boundary := func(i int) int {
		return int(math.Round(float64(i) * breaks))
	}

	segments := make([]Segment, periods)
	for i := range segments {
		segments[i] = Segment{Low: boundary(i), High: boundary(i + 1)}
		if segments[i].Len() <= 0 {
			return nil, fmt.Errorf("%w: segment %d is empty [%d, %d)",
				ErrInsufficientFrames, i, segments[i].Low, segments[i].High)
		}
	}
	return segments, nil
}

// Pool reduces each row of a rows x frames matrix to periods segment means,
// giving a rows x periods matrix whatever the input duration.
func Pool(m [][]float64, periods int) ([][]float64, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrInsufficientFrames)
	}

	frames := len(m[0])
	segments, err := SegmentBounds(frames, periods)
	if err != nil {
		return nil, err
	}

	pooled := make([][]float64, len(m))
	for j, row := range m {
		if len(row) != frames {
			return nil, fmt.Errorf("row %d has %d frames, expected %d", j, len(row), frames)
		}
		pooled[j] = make([]float64, periods)
		for i, seg := range segments {
			pooled[j][i] = stat.Mean(row[seg.Low:seg.High], nil)
		}
	}
	return pooled, nil
}
