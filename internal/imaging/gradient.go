package imaging

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// GradientField holds the Sobel responses of a smoothed image together with
// their magnitude and orientation. All four planes share the input shape.
type GradientField struct {
	Ix          *Gray
	Iy          *Gray
	Magnitude   *Gray
	Orientation *Gray
}

// Gradient smooths img with a Gaussian of the given sigma and computes the
// Sobel gradient.
//
// Magnitude is sqrt(Ix² + Iy²). Orientation is atan(Iy/Ix), which only
// encodes the slope of the gradient: opposite gradients share an angle and
// the range is (-π/2, π/2]. Non-maximum suppression compares neighbours on
// both sides of the pixel, so it does not need the lost sign.
//
// Convolutions use replicated borders.
func Gradient(img *Gray, sigma float64) (*GradientField, error) {
	gk, err := GaussianKernel(sigma)
	if err != nil {
		return nil, err
	}

	smoothed, err := Convolve(img, gk, BorderReplicate)
	if err != nil {
		return nil, err
	}
	ix, err := Convolve(smoothed, SobelX, BorderReplicate)
	if err != nil {
		return nil, err
	}
	iy, err := Convolve(smoothed, SobelY, BorderReplicate)
	if err != nil {
		return nil, err
	}

	mag := NewGray(img.Width, img.Height)
	orient := NewGray(img.Width, img.Height)
	parallel.Line(img.Height, func(start, end int) {
		for i := start * img.Width; i < end*img.Width; i++ {
			gx, gy := ix.Pix[i], iy.Pix[i]
			mag.Pix[i] = math.Sqrt(gx*gx + gy*gy)
			orient.Pix[i] = Orientation(gx, gy)
		}
	})

	return &GradientField{Ix: ix, Iy: iy, Magnitude: mag, Orientation: orient}, nil
}

// Orientation returns atan(gy/gx) folded into (-π/2, π/2].
//
// A vertical gradient (gx == 0) maps to π/2, and a zero gradient maps to 0
// so the result is never NaN.
func Orientation(gx, gy float64) float64 {
	if gx == 0 {
		if gy == 0 {
			return 0
		}
		return math.Pi / 2
	}
	return math.Atan(gy / gx)
}
