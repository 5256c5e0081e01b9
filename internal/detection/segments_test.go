package detection

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/ironsheep/hough-tools-mcp/internal/imaging"
)

// rowEdges returns a 20×10 edge map with STRONG pixels on row y at the
// given columns.
func rowEdges(y int, xs ...int) *imaging.EdgeMap {
	pts := make([]image.Point, len(xs))
	for i, x := range xs {
		pts[i] = image.Pt(x, y)
	}
	return edgeMapOf(20, 10, pts...)
}

func span(from, to int) []int {
	xs := make([]int, 0, to-from+1)
	for x := from; x <= to; x++ {
		xs = append(xs, x)
	}
	return xs
}

var row5 = Line{Rho: 5, Theta: math.Pi / 2}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSegments_Single(t *testing.T) {
	edges := rowEdges(5, span(2, 17)...)
	segs, err := Segments(row5, edges, SegmentOptions{GapTolerance: 2, Tolerance: 1, MinLength: 5})
	if err != nil {
		t.Fatalf("Segments failed: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}

	s := segs[0]
	// The walk runs along (-sin θ, cos θ) = (-1, 0), right to left.
	if !near(s.Start.X, 17) || !near(s.Start.Y, 5) || !near(s.End.X, 2) || !near(s.End.Y, 5) {
		t.Errorf("endpoints: got %v -> %v, want (17,5) -> (2,5)", s.Start, s.End)
	}
	if !near(s.Length(), 15) {
		t.Errorf("Length: got %v, want 15", s.Length())
	}
	if s.Support != 16 || len(s.Pixels) != 16 {
		t.Errorf("Support: got %d (%d pixels), want 16", s.Support, len(s.Pixels))
	}
	if s.Pixels[0].X != 2 || s.Pixels[15].X != 17 {
		t.Errorf("pixels should be sorted row-major: %v", s.Pixels)
	}
	if !near(math.Abs(s.AngleDegrees()), 180) {
		t.Errorf("AngleDegrees: got %v, want ±180", s.AngleDegrees())
	}
}

func TestSegments_GapTolerance(t *testing.T) {
	// Columns 8 and 9 are missing.
	xs := append(span(2, 7), span(10, 17)...)
	edges := rowEdges(5, xs...)

	tests := []struct {
		name    string
		gap     int
		wantLen []float64
	}{
		{"bridged", 2, []float64{15}},
		{"split", 1, []float64{7, 5}},
		{"split, no bridging", 0, []float64{7, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := Segments(row5, edges, SegmentOptions{GapTolerance: tt.gap, Tolerance: 1, MinLength: 3})
			if err != nil {
				t.Fatal(err)
			}
			if len(segs) != len(tt.wantLen) {
				t.Fatalf("got %d segments, want %d", len(segs), len(tt.wantLen))
			}
			for i, want := range tt.wantLen {
				if !near(segs[i].Length(), want) {
					t.Errorf("segment %d: length %v, want %v", i, segs[i].Length(), want)
				}
			}
		})
	}
}

func TestSegments_MinLength(t *testing.T) {
	xs := append(span(2, 4), span(10, 17)...)
	segs, err := Segments(row5, rowEdges(5, xs...), SegmentOptions{GapTolerance: 1, Tolerance: 1, MinLength: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || !near(segs[0].Length(), 7) {
		t.Errorf("only the 7px run should survive, got %+v", segs)
	}
}

func TestSegments_Tolerance(t *testing.T) {
	// The edge sits one row below the line.
	edges := rowEdges(6, span(2, 17)...)

	segs, err := Segments(row5, edges, SegmentOptions{GapTolerance: 1, Tolerance: 1.5, MinLength: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 {
		t.Errorf("tolerance 1.5: got %d segments, want 1", len(segs))
	}

	segs, err = Segments(row5, edges, SegmentOptions{GapTolerance: 1, Tolerance: 0.5, MinLength: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 0 {
		t.Errorf("tolerance 0.5: got %d segments, want 0", len(segs))
	}
}

func TestSegments_LineOutsideImage(t *testing.T) {
	segs, err := Segments(Line{Rho: 50, Theta: math.Pi / 2}, rowEdges(5, span(0, 19)...), SegmentOptions{Tolerance: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 0 {
		t.Errorf("got %d segments, want 0", len(segs))
	}
}

func TestSegmentOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts SegmentOptions
		ok   bool
	}{
		{"valid", SegmentOptions{GapTolerance: 3, Tolerance: 1.5, MinLength: 10}, true},
		{"zero min length", SegmentOptions{Tolerance: 1}, true},
		{"negative gap", SegmentOptions{GapTolerance: -1, Tolerance: 1}, false},
		{"zero tolerance", SegmentOptions{Tolerance: 0}, false},
		{"NaN tolerance", SegmentOptions{Tolerance: math.NaN()}, false},
		{"negative min length", SegmentOptions{Tolerance: 1, MinLength: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
			if err != nil && !errors.Is(err, imaging.ErrInvalidParameter) {
				t.Errorf("error should wrap ErrInvalidParameter: %v", err)
			}
		})
	}

	if _, err := Segments(row5, rowEdges(5), SegmentOptions{}); err == nil {
		t.Error("Segments should validate its options")
	}
}
