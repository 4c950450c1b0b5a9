package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
)

var (
	ErrUnsupportedExtension = errors.New("only .png files are supported")
	ErrEmptyMatrix          = errors.New("empty matrix")
)

// sunset is Paul Tol's diverging "sunset" scheme, dark blue to dark red.
var sunset = []color.RGBA{
	{0x36, 0x4B, 0x9A, 0xFF},
	{0x4A, 0x7B, 0xB7, 0xFF},
	{0x6E, 0xA6, 0xCD, 0xFF},
	{0x98, 0xCA, 0xE1, 0xFF},
	{0xC2, 0xE4, 0xEF, 0xFF},
	{0xEA, 0xEC, 0xCC, 0xFF},
	{0xFE, 0xDA, 0x8B, 0xFF},
	{0xFD, 0xB3, 0x66, 0xFF},
	{0xF6, 0x7E, 0x4B, 0xFF},
	{0xDD, 0x3D, 0x2D, 0xFF},
	{0xA5, 0x00, 0x26, 0xFF},
}

// Palette maps values in [Min, Max] onto the sunset gradient. Values outside
// the range are clamped.
type Palette struct {
	Min float64
	Max float64
}

// Color linearly interpolates between the two nearest sunset stops.
func (p Palette) Color(v float64) color.RGBA {
	t := 0.0
	if p.Max > p.Min {
		t = (v - p.Min) / (p.Max - p.Min)
	}
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	pos := t * float64(len(sunset)-1)
	i := int(pos)
	if i >= len(sunset)-1 {
		return sunset[len(sunset)-1]
	}
	frac := pos - float64(i)
	a, b := sunset[i], sunset[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + frac*(float64(y)-float64(x))))
	}
	return color.RGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 0xFF}
}

// Render draws m with one pixel per cell. Column i of m is pixel column i and
// row 0 of m is the bottom pixel row, so low frequencies sit at the bottom.
func Render(m [][]float64, min, max float64) (*image.RGBA, error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return nil, ErrEmptyMatrix
	}
	rows, cols := len(m), len(m[0])
	palette := Palette{Min: min, Max: max}

	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for i, row := range m {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), cols)
		}
		for j, v := range row {
			img.SetRGBA(j, rows-1-i, palette.Color(v))
		}
	}
	return img, nil
}

// SavePNG renders m and writes it to path, which must end in .png.
func SavePNG(path string, m [][]float64, min, max float64) error {
	if ext := filepath.Ext(path); ext != ".png" {
		return fmt.Errorf("%w, not %q", ErrUnsupportedExtension, ext)
	}

	img, err := Render(m, min, max)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Range returns the smallest and largest value in m.
func Range(m [][]float64) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, row := range m {
		for _, v := range row {
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
	}
	return min, max
}
