package imaging

import (
	"fmt"

	"github.com/anthonynsimon/bild/parallel"
)

// Border selects how a stage treats samples that fall outside the image.
type Border int

const (
	// BorderReplicate extends the image with its nearest edge row/column.
	BorderReplicate Border = iota

	// BorderZero treats out-of-range samples as 0.
	BorderZero

	// BorderSuppress zeroes output pixels lacking a full neighbourhood.
	// Only meaningful for non-maximum suppression.
	BorderSuppress
)

func (b Border) String() string {
	switch b {
	case BorderReplicate:
		return "replicate"
	case BorderZero:
		return "zero"
	case BorderSuppress:
		return "suppress"
	default:
		return fmt.Sprintf("Border(%d)", int(b))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Border) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so policies can be
// written by name in config files and tool arguments.
func (b *Border) UnmarshalText(text []byte) error {
	v, err := ParseBorder(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ParseBorder maps a config/tool string to a Border.
func ParseBorder(s string) (Border, error) {
	switch s {
	case "", "replicate":
		return BorderReplicate, nil
	case "zero":
		return BorderZero, nil
	case "suppress":
		return BorderSuppress, nil
	}
	return 0, fmt.Errorf("unknown border policy %q: %w", s, ErrInvalidParameter)
}

// Convolve correlates img with k and returns a new image of the same shape.
//
// The kernel is applied without flipping (true correlation), so for an
// asymmetric kernel the weight at (r, c) multiplies the pixel at
// (y+r-rows/2, x+c-cols/2). Samples outside the image are handled per
// border: BorderReplicate clamps to the nearest valid pixel, BorderZero
// contributes nothing. The input is never modified.
//
// Rows are processed in parallel; each worker owns a disjoint band of the
// output so results are deterministic.
func Convolve(img *Gray, k *Kernel, border Border) (*Gray, error) {
	if k == nil {
		return nil, fmt.Errorf("nil kernel: %w", ErrInvalidParameter)
	}
	if border != BorderReplicate && border != BorderZero {
		return nil, fmt.Errorf("convolution border %s: %w", border, ErrInvalidParameter)
	}

	width, height := img.Width, img.Height
	out := NewGray(width, height)
	if width == 0 || height == 0 {
		return out, nil
	}

	halfY, halfX := k.rows/2, k.cols/2

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				var sum float64
				for ky := 0; ky < k.rows; ky++ {
					py := y + ky - halfY
					if py < 0 || py >= height {
						if border == BorderZero {
							continue
						}
						py = clamp(py, 0, height-1)
					}
					rowOff := py * width
					for kx := 0; kx < k.cols; kx++ {
						px := x + kx - halfX
						if px < 0 || px >= width {
							if border == BorderZero {
								continue
							}
							px = clamp(px, 0, width-1)
						}
						sum += img.Pix[rowOff+px] * k.weights[ky*k.cols+kx]
					}
				}
				out.Pix[y*width+x] = sum
			}
		}
	})

	return out, nil
}
