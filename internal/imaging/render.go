package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/anthonynsimon/bild/transform"
)

// EncodedImage is a PNG image encoded as base64, as returned by tools.
type EncodedImage struct {
	// Width of the encoded image in pixels.
	Width int `json:"width"`

	// Height of the encoded image in pixels.
	Height int `json:"height"`

	// ImageBase64 is the PNG data encoded as standard base64.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// GrayImage renders g as an 8-bit image, scaling [0, max(g)] to [0, 255].
// A uniform zero image renders black.
func GrayImage(g *Gray) *image.Gray {
	var peak float64
	for _, v := range g.Pix {
		if v > peak {
			peak = v
		}
	}
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	if peak == 0 {
		return img
	}
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := g.Pix[y*g.Width+x]
			if v < 0 {
				v = 0
			}
			img.Pix[y*img.Stride+x] = uint8(v / peak * 255)
		}
	}
	return img
}

// CountsImage renders a rows×cols count matrix (such as a Hough accumulator)
// as a grayscale image normalized to its maximum. Rows map to image rows.
//
// When width and height are positive and differ from the matrix size, the
// image is resampled with bilinear filtering so narrow accumulators remain
// viewable.
func CountsImage(counts []int, rows, cols, width, height int) (image.Image, error) {
	if rows <= 0 || cols <= 0 || len(counts) != rows*cols {
		return nil, fmt.Errorf("counts length %d for %dx%d: %w", len(counts), rows, cols, ErrShapeMismatch)
	}

	if width > 0 && height > 0 {
		if err := checkPixels(width, height); err != nil {
			return nil, err
		}
	}

	peak := 0
	for _, c := range counts {
		if c > peak {
			peak = c
		}
	}

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	if peak > 0 {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				v := counts[r*cols+c] * 255 / peak
				img.SetGray(c, r, color.Gray{Y: uint8(v)})
			}
		}
	}

	if width <= 0 || height <= 0 || (width == cols && height == rows) {
		return img, nil
	}
	return transform.Resize(img, width, height, transform.Linear), nil
}

// EdgeDetectResult contains an edge-detected image encoded as base64 PNG.
//
// White pixels (255) are edges, black pixels (0) are not.
type EdgeDetectResult struct {
	EncodedImage

	// EdgePixels is the number of edge (STRONG) pixels.
	EdgePixels int `json:"edge_pixels"`
}

// EdgeDetect converts img to luminance, runs Canny and encodes the linked
// edge map as PNG.
//
// Parameters:
//   - img: Source image (color input is reduced to luminance).
//   - p: Canny parameters; thresholds apply to gradient magnitude of the
//     [0, 1] normalized image.
//
// Returns:
//   - *EdgeDetectResult: Binary edge image as base64 PNG.
//   - error: ErrInvalidParameter for bad parameters, or an encoding error.
//
// # Threshold Selection
//
// Sobel responses on a [0, 1] image reach about 4 for a hard black/white
// step. Lower thresholds detect more edges but increase noise.
//
// Recommended starting points:
//   - Clean diagrams: Low=0.1, High=0.3
//   - Photographs: Low=0.2, High=0.5
func EdgeDetect(img image.Image, p CannyParams) (*EdgeDetectResult, error) {
	edges, err := Canny(ToGray(img), p)
	if err != nil {
		return nil, err
	}
	enc, err := EncodePNG(edges.Image())
	if err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}
	return &EdgeDetectResult{EncodedImage: *enc, EdgePixels: edges.Count(EdgeStrong)}, nil
}
