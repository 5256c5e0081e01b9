package imaging

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the edge and Hough stages. Callers match them
// with errors.Is; the wrapped message carries the offending value.
var (
	// ErrInvalidParameter is returned when a scalar parameter is out of range
	// (sigma <= 0, low > high threshold, even-sized kernel, ...). It is always
	// reported before any output buffer is allocated.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrShapeMismatch is returned when two arrays that must be co-indexed
	// have different dimensions.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrNotFound is returned when an image handle is not in the cache.
	ErrNotFound = errors.New("image not found")
)

// MaxPixels caps the size of any rendered or resampled image.
const MaxPixels = 1 << 26

// checkPixels rejects output sizes above MaxPixels without overflowing.
func checkPixels(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("image size %dx%d must be positive: %w", width, height, ErrInvalidParameter)
	}
	if width > MaxPixels/height {
		return fmt.Errorf("image size %dx%d exceeds %d pixels: %w", width, height, MaxPixels, ErrInvalidParameter)
	}
	return nil
}

// scaledSize returns w×h multiplied by scale, validated against MaxPixels.
func scaledSize(w, h int, scale float64) (int, int, error) {
	sw, sh := float64(w)*scale, float64(h)*scale
	if !(sw >= 1 && sh >= 1) || sw*sh > MaxPixels {
		return 0, 0, fmt.Errorf("scale %v gives a %.0fx%.0f image: %w", scale, sw, sh, ErrInvalidParameter)
	}
	return int(sw), int(sh), nil
}
