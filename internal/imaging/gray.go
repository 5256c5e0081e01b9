package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Gray is a single-channel floating point image.
//
// Pixels are stored row-major: the value at column x, row y lives at
// Pix[y*Width+x]. For the edge stage values are expected in [0, 1].
type Gray struct {
	Width  int
	Height int
	Pix    []float64
}

// NewGray allocates a zero-filled Gray of the given size.
func NewGray(width, height int) *Gray {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Gray{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// GrayFromRows builds a Gray from a [row][col] slice. All rows must have the
// same length.
func GrayFromRows(rows [][]float64) (*Gray, error) {
	if len(rows) == 0 {
		return NewGray(0, 0), nil
	}
	width := len(rows[0])
	g := NewGray(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", y, len(row), width, ErrShapeMismatch)
		}
		copy(g.Pix[y*width:], row)
	}
	return g, nil
}

// At returns the value at (x, y). Coordinates must be in range.
func (g *Gray) At(x, y int) float64 {
	return g.Pix[y*g.Width+x]
}

// Set stores v at (x, y). Coordinates must be in range.
func (g *Gray) Set(x, y int, v float64) {
	g.Pix[y*g.Width+x] = v
}

// Clone returns a deep copy.
func (g *Gray) Clone() *Gray {
	c := NewGray(g.Width, g.Height)
	copy(c.Pix, g.Pix)
	return c
}

// SameShape reports whether g and o have identical dimensions.
func (g *Gray) SameShape(o *Gray) bool {
	return g.Width == o.Width && g.Height == o.Height
}

// Rows returns the image as a freshly allocated [row][col] slice.
func (g *Gray) Rows() [][]float64 {
	rows := make([][]float64, g.Height)
	for y := range rows {
		rows[y] = make([]float64, g.Width)
		copy(rows[y], g.Pix[y*g.Width:(y+1)*g.Width])
	}
	return rows
}

// ToGray converts any image to normalized luminance in [0, 1].
//
// The conversion uses imaging.Grayscale, which applies the ITU-R BT.601
// weights (0.299 R + 0.587 G + 0.114 B), then divides by 255. The result is
// indexed from (0, 0) regardless of the source bounds origin.
func ToGray(img image.Image) *Gray {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	g := NewGray(bounds.Dx(), bounds.Dy())
	for y := 0; y < g.Height; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < g.Width; x++ {
			g.Pix[y*g.Width+x] = float64(row[x*4]) / 255.0
		}
	}
	return g
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
