package imaging

import (
	"fmt"
	"image"
	"math"
)

// EdgeClass is the hysteresis classification of a pixel. The numeric values
// double as 8-bit gray levels, so a linked EdgeMap is directly a binary
// {0, 255} edge image.
type EdgeClass uint8

const (
	EdgeNone   EdgeClass = 0
	EdgeWeak   EdgeClass = 127
	EdgeStrong EdgeClass = 255
)

// EdgeMap is a tri-state classification map, row-major like Gray.
type EdgeMap struct {
	Width  int
	Height int
	Pix    []EdgeClass
}

// NewEdgeMap allocates an all-EdgeNone map.
func NewEdgeMap(width, height int) *EdgeMap {
	return &EdgeMap{Width: width, Height: height, Pix: make([]EdgeClass, width*height)}
}

// At returns the class at (x, y). Coordinates must be in range.
func (m *EdgeMap) At(x, y int) EdgeClass {
	return m.Pix[y*m.Width+x]
}

// Set stores c at (x, y). Coordinates must be in range.
func (m *EdgeMap) Set(x, y int, c EdgeClass) {
	m.Pix[y*m.Width+x] = c
}

// IsStrong reports whether (x, y) is inside the map and STRONG.
func (m *EdgeMap) IsStrong(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height && m.Pix[y*m.Width+x] == EdgeStrong
}

// Count returns the number of pixels with class c.
func (m *EdgeMap) Count(c EdgeClass) int {
	n := 0
	for _, v := range m.Pix {
		if v == c {
			n++
		}
	}
	return n
}

// StrongPoints lists STRONG pixels in row-major order.
func (m *EdgeMap) StrongPoints() []image.Point {
	pts := make([]image.Point, 0)
	for i, v := range m.Pix {
		if v == EdgeStrong {
			pts = append(pts, image.Point{X: i % m.Width, Y: i / m.Width})
		}
	}
	return pts
}

// Image returns the map as an 8-bit grayscale image.
func (m *EdgeMap) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			img.Pix[y*img.Stride+x] = uint8(m.Pix[y*m.Width+x])
		}
	}
	return img
}

// Classify applies double thresholding to a magnitude map.
//
// Values below low are EdgeNone, values in [low, high) are EdgeWeak and
// values >= high are EdgeStrong. low must not exceed high.
func Classify(mag *Gray, low, high float64) (*EdgeMap, error) {
	if math.IsNaN(low) || math.IsNaN(high) || low > high {
		return nil, fmt.Errorf("low threshold %v exceeds high threshold %v: %w", low, high, ErrInvalidParameter)
	}

	m := NewEdgeMap(mag.Width, mag.Height)
	for i, v := range mag.Pix {
		switch {
		case v >= high:
			m.Pix[i] = EdgeStrong
		case v >= low:
			m.Pix[i] = EdgeWeak
		}
	}
	return m, nil
}

// Link promotes every WEAK pixel that is 8-connected, directly or through
// other WEAK pixels, to a STRONG pixel. Remaining WEAK pixels become NONE.
//
// The closure is computed with a frontier queue seeded by the STRONG pixels,
// so each pixel is visited at most once. The input is not modified.
func Link(in *EdgeMap) *EdgeMap {
	m := &EdgeMap{Width: in.Width, Height: in.Height, Pix: make([]EdgeClass, len(in.Pix))}
	copy(m.Pix, in.Pix)

	queue := make([]int, 0)
	for i, v := range m.Pix {
		if v == EdgeStrong {
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		x, y := i%m.Width, i/m.Width

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
					continue
				}
				j := ny*m.Width + nx
				if m.Pix[j] == EdgeWeak {
					m.Pix[j] = EdgeStrong
					queue = append(queue, j)
				}
			}
		}
	}

	for i, v := range m.Pix {
		if v == EdgeWeak {
			m.Pix[i] = EdgeNone
		}
	}
	return m
}

// CannyParams configures the Canny edge detector.
type CannyParams struct {
	// Sigma is the Gaussian standard deviation. Must be > 0.
	Sigma float64

	// Low and High are the hysteresis thresholds on gradient magnitude.
	// Low must not exceed High.
	Low  float64
	High float64

	// Border is the non-maximum suppression border policy. The zero value
	// (BorderReplicate) clamps neighbour lookups; use BorderSuppress to zero
	// the outermost pixels.
	Border Border
}

// Validate checks the parameters without touching any image data.
func (p CannyParams) Validate() error {
	if !(p.Sigma > 0) || math.IsInf(p.Sigma, 1) {
		return fmt.Errorf("sigma %v must be positive: %w", p.Sigma, ErrInvalidParameter)
	}
	if math.IsNaN(p.Low) || math.IsNaN(p.High) || p.Low > p.High {
		return fmt.Errorf("low threshold %v exceeds high threshold %v: %w", p.Low, p.High, ErrInvalidParameter)
	}
	if p.Border != BorderSuppress && p.Border != BorderReplicate {
		return fmt.Errorf("suppression border %s: %w", p.Border, ErrInvalidParameter)
	}
	return nil
}

// Canny runs Gaussian smoothing, Sobel gradients, non-maximum suppression,
// double thresholding and edge linking on img.
//
// # Algorithm
//
//  1. Gaussian blur with radius floor(3*sigma), replicated borders
//  2. Sobel gradients; magnitude = sqrt(Ix² + Iy²), orientation = atan(Iy/Ix)
//  3. Non-maximum suppression with interpolated neighbours
//  4. Hysteresis: >= High is strong, [Low, High) is weak
//  5. Linking: weak pixels connected to strong ones are kept, the rest dropped
//
// The returned map contains only EdgeNone and EdgeStrong.
func Canny(img *Gray, p CannyParams) (*EdgeMap, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	grad, err := Gradient(img, p.Sigma)
	if err != nil {
		return nil, err
	}
	thin, err := SuppressNonMaxima(grad.Magnitude, grad.Orientation, p.Border)
	if err != nil {
		return nil, err
	}
	classes, err := Classify(thin, p.Low, p.High)
	if err != nil {
		return nil, err
	}
	return Link(classes), nil
}
