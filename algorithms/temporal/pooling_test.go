package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every frame must be consumed by exactly one segment: tag each frame with the
// segment that claims it and check nothing is claimed twice or left unclaimed.
func TestSegmentBoundsPartitionExactlyOnce(t *testing.T) {
	for periods := 1; periods <= 32; periods++ {
		for frames := periods; frames <= 600; frames++ {
			segments, err := SegmentBounds(frames, periods)
			require.NoError(t, err, "frames=%d periods=%d", frames, periods)
			require.Len(t, segments, periods)

			owner := make([]int, frames)
			for i := range owner {
				owner[i] = -1
			}
			for s, seg := range segments {
				if seg.Len() <= 0 {
					t.Fatalf("frames=%d periods=%d: segment %d is empty %+v", frames, periods, s, seg)
				}
				for f := seg.Low; f < seg.High; f++ {
					if owner[f] != -1 {
						t.Fatalf("frames=%d periods=%d: frame %d claimed by %d and %d", frames, periods, f, owner[f], s)
					}
					owner[f] = s
				}
			}
			for f, s := range owner {
				if s == -1 {
					t.Fatalf("frames=%d periods=%d: frame %d unclaimed", frames, periods, f)
				}
			}
		}
	}
}

func TestSegmentBoundsRoundsHalfAwayFromZero(t *testing.T) {
	// 10/8 = 1.25: boundaries 0, 1.25, 2.5, 3.75, 5, 6.25, 7.5, 8.75, 10
	segments, err := SegmentBounds(10, 8)
	require.NoError(t, err)

	want := []Segment{
		{0, 1}, {1, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 8}, {8, 9}, {9, 10},
	}
	assert.Equal(t, want, segments)
}

func TestSegmentBoundsTooFewFrames(t *testing.T) {
	_, err := SegmentBounds(7, 8)
	assert.ErrorIs(t, err, ErrInsufficientFrames)

	_, err = SegmentBounds(0, 1)
	assert.ErrorIs(t, err, ErrInsufficientFrames)

	_, err = SegmentBounds(10, 0)
	assert.Error(t, err)
}

func TestPoolMeans(t *testing.T) {
	m := [][]float64{
		{1, 2, 3, 4, 5, 6},
		{0, 0, 6, 6, 3, 9},
	}

	pooled, err := Pool(m, 3)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{
		{1.5, 3.5, 5.5},
		{0, 6, 6},
	}, pooled)
}

func TestPoolFixedShapeRegardlessOfDuration(t *testing.T) {
	for _, frames := range []int{8, 9, 99, 250, 1001} {
		m := make([][]float64, 24)
		for j := range m {
			m[j] = make([]float64, frames)
			for i := range m[j] {
				m[j][i] = 2
			}
		}

		pooled, err := Pool(m, 8)
		require.NoError(t, err)
		require.Len(t, pooled, 24)
		for _, row := range pooled {
			require.Len(t, row, 8)
			for _, v := range row {
				assert.InDelta(t, 2.0, v, 1e-12)
			}
		}
	}
}

func TestPoolRejectsShortAndRagged(t *testing.T) {
	_, err := Pool([][]float64{{1, 2, 3}}, 8)
	assert.ErrorIs(t, err, ErrInsufficientFrames)

	_, err = Pool(nil, 8)
	assert.ErrorIs(t, err, ErrInsufficientFrames)

	_, err = Pool([][]float64{{1, 2, 3, 4}, {1, 2}}, 2)
	assert.Error(t, err)
}
