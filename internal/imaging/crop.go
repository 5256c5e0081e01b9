package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region is a rectangle in source pixel coordinates; (X1, Y1) is inclusive,
// (X2, Y2) exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts r to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// CropRegion returns the sub-image covered by r, re-based at (0, 0).
// The region must lie inside the image and be non-empty.
func CropRegion(img image.Image, r Region) (image.Image, error) {
	bounds := img.Bounds()
	if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	return imaging.Crop(img, r.Rect()), nil
}

// Crop extracts a region, optionally rescales it with Lanczos filtering and
// returns it as base64 PNG.
func Crop(img image.Image, r Region, scale float64) (*EncodedImage, error) {
	cropped, err := CropRegion(img, r)
	if err != nil {
		return nil, err
	}

	if scale != 1.0 && scale > 0 {
		newWidth, newHeight, err := scaledSize(cropped.Bounds().Dx(), cropped.Bounds().Dy(), scale)
		if err != nil {
			return nil, err
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	enc, err := EncodePNG(cropped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}
	return enc, nil
}
