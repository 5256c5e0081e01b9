package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestPalette(t *testing.T) {
	p := Palette(6)
	if len(p) != 6 {
		t.Fatalf("got %d colors, want 6", len(p))
	}
	seen := map[string]bool{}
	for _, c := range p {
		hex := c.Clamped().Hex()
		if seen[hex] {
			t.Errorf("duplicate color %s", hex)
		}
		seen[hex] = true
	}
	if len(Palette(0)) != 0 {
		t.Error("Palette(0) should be empty")
	}
}

func TestOverlay_DrawsStroke(t *testing.T) {
	base := createInMemoryImage(20, 10, color.Black)
	strokes := []Stroke{{X0: 2, Y0: 5, X1: 17, Y1: 5, Label: 1}}

	out, err := Overlay(base, strokes, OverlayOptions{Color: "#ff0000"})
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Fatalf("bounds: got %v", out.Bounds())
	}

	for x := 2; x <= 17; x++ {
		c := out.NRGBAAt(x, 5)
		if c.R != 255 || c.G != 0 || c.B != 0 {
			t.Fatalf("pixel (%d,5): got %v, want red", x, c)
		}
	}
	if c := out.NRGBAAt(10, 2); c.R != 0 {
		t.Errorf("pixel off the stroke was painted: %v", c)
	}

	// The base image is untouched.
	if r, _, _, _ := base.At(10, 5).RGBA(); r != 0 {
		t.Error("Overlay modified its base image")
	}
}

func TestOverlay_ScaleAndThickness(t *testing.T) {
	base := createInMemoryImage(10, 10, color.Black)
	strokes := []Stroke{{X0: 0, Y0: 4, X1: 9, Y1: 4, Label: 12}}

	out, err := Overlay(base, strokes, OverlayOptions{Thickness: 3, Scale: 2, Labels: true})
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 20 {
		t.Fatalf("scaled bounds: got %v, want 20x20", out.Bounds())
	}
	// Stroke centre row is (4+0.5)*2 = 9; thickness 3 covers rows 8..10.
	for _, y := range []int{8, 9, 10} {
		if c := out.NRGBAAt(15, y); c.R == 0 && c.G == 0 && c.B == 0 {
			t.Errorf("row %d should be painted", y)
		}
	}
}

func TestOverlay_InvalidColor(t *testing.T) {
	base := createInMemoryImage(4, 4, color.Black)
	if _, err := Overlay(base, nil, OverlayOptions{Color: "red"}); err == nil {
		t.Error("non-hex color should fail")
	}
}

func TestOverlay_Limits(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 10, 10))
	strokes := []Stroke{{X0: 0, Y0: 5, X1: 9, Y1: 5, Label: 1}}

	tests := []struct {
		name string
		opts OverlayOptions
	}{
		{"huge scale", OverlayOptions{Scale: 1e6}},
		{"huge thickness", OverlayOptions{Thickness: MaxThickness + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Overlay(base, strokes, tt.opts); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("got %v, want ErrInvalidParameter", err)
			}
		})
	}
}
