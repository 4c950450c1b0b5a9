package features

// Feature is a fixed-size log-mel descriptor: one row per mel filter, one
// column per pooled time period.
type Feature struct {
	Matrix     [][]float64 `json:"matrix"`
	NumFilters int         `json:"num_filters"`
	NumPeriods int         `json:"num_periods"`
	SampleRate int         `json:"sample_rate"`
	FrameCount int         `json:"frame_count"`
	FFTSize    int         `json:"fft_size"`
	HopSize    int         `json:"hop_size"`
}

// Flatten returns the matrix in column-major order: all filters of period 0,
// then all filters of period 1, and so on.
func (f *Feature) Flatten() []float64 {
	return FlattenMatrix(f.Matrix)
}

// FlattenMatrix flattens a rectangular matrix column by column.
func FlattenMatrix(m [][]float64) []float64 {
	if len(m) == 0 {
		return nil
	}
	rows, cols := len(m), len(m[0])
	out := make([]float64, 0, rows*cols)
	for c := range cols {
		for r := range rows {
			out = append(out, m[r][c])
		}
	}
	return out
}

// Dim is the length of the flattened vector.
func (f *Feature) Dim() int {
	return f.NumFilters * f.NumPeriods
}
