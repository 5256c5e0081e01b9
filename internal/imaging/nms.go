package imaging

import (
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// SuppressNonMaxima thins a gradient magnitude map to one-pixel ridges.
//
// The orientation (in (-π/2, π/2]) selects one of four 45° sectors. Within a
// sector the magnitudes of the two pixels straddling the gradient direction
// are linearly interpolated on each side, using the tangent of the angle
// measured from the sector's axis as the weight. A pixel survives only if
// its magnitude is >= both interpolated values; otherwise it becomes 0.
//
// Orientation follows the Sobel convention used by Gradient: positive
// angles point up (toward smaller row indices).
//
// Pixels without a full 3×3 neighbourhood follow border: BorderSuppress sets
// them to 0, BorderReplicate clamps neighbour lookups into the image. Any
// other policy is rejected.
func SuppressNonMaxima(mag, orient *Gray, border Border) (*Gray, error) {
	if !mag.SameShape(orient) {
		return nil, fmt.Errorf("magnitude %dx%d vs orientation %dx%d: %w",
			mag.Width, mag.Height, orient.Width, orient.Height, ErrShapeMismatch)
	}
	if border != BorderSuppress && border != BorderReplicate {
		return nil, fmt.Errorf("suppression border %s: %w", border, ErrInvalidParameter)
	}

	width, height := mag.Width, mag.Height
	out := NewGray(width, height)

	at := func(x, y int) float64 {
		return mag.Pix[clamp(y, 0, height-1)*width+clamp(x, 0, width-1)]
	}

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				interior := x > 0 && y > 0 && x < width-1 && y < height-1
				if !interior && border == BorderSuppress {
					continue
				}

				m := mag.Pix[y*width+x]
				if m == 0 {
					continue
				}

				var p, q float64
				angle := orient.Pix[y*width+x]
				switch {
				case angle < -math.Pi/4:
					t := math.Tan(angle + math.Pi/2)
					p = (1-t)*at(x, y+1) + t*at(x+1, y+1)
					q = (1-t)*at(x, y-1) + t*at(x-1, y-1)
				case angle < 0:
					t := math.Tan(-angle)
					p = (1-t)*at(x+1, y) + t*at(x+1, y+1)
					q = (1-t)*at(x-1, y) + t*at(x-1, y-1)
				case angle < math.Pi/4:
					t := math.Tan(angle)
					p = (1-t)*at(x+1, y) + t*at(x+1, y-1)
					q = (1-t)*at(x-1, y) + t*at(x-1, y+1)
				default:
					t := math.Tan(math.Pi/2 - angle)
					p = (1-t)*at(x, y-1) + t*at(x+1, y-1)
					q = (1-t)*at(x, y+1) + t*at(x-1, y+1)
				}

				if m >= p && m >= q {
					out.Pix[y*width+x] = m
				}
			}
		}
	})

	return out, nil
}
