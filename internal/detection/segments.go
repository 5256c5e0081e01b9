package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/hough-tools-mcp/internal/imaging"
)

// PointF is a sub-pixel image position.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a bounded piece of a Line backed by edge pixels.
type Segment struct {
	// Line is the parent line the segment lies on.
	Line Line `json:"line"`

	// Start and End are the first and last supported positions on the line,
	// ordered along the line's direction vector.
	Start PointF `json:"start"`
	End   PointF `json:"end"`

	// Pixels are the STRONG edge pixels supporting the segment, row-major.
	Pixels []image.Point `json:"-"`

	// Support is len(Pixels), kept for serialized output.
	Support int `json:"support"`
}

// Length returns the Euclidean distance between the endpoints.
func (s Segment) Length() float64 {
	return math.Hypot(s.End.X-s.Start.X, s.End.Y-s.Start.Y)
}

// AngleDegrees returns the direction from Start to End in degrees
// (0 = right, 90 = down).
func (s Segment) AngleDegrees() float64 {
	return math.Atan2(s.End.Y-s.Start.Y, s.End.X-s.Start.X) * 180 / math.Pi
}

// SegmentOptions configures the segment walk.
type SegmentOptions struct {
	// GapTolerance is the largest run of unsupported unit steps that is
	// bridged without closing the segment. Must be >= 0.
	GapTolerance int

	// Tolerance is the maximum perpendicular distance, in pixels, of an edge
	// pixel that still supports the line. Must be > 0.
	Tolerance float64

	// MinLength drops segments shorter than this many pixels.
	MinLength float64
}

// Validate checks the options.
func (o SegmentOptions) Validate() error {
	if o.GapTolerance < 0 {
		return fmt.Errorf("gap tolerance %d must not be negative: %w", o.GapTolerance, imaging.ErrInvalidParameter)
	}
	if !(o.Tolerance > 0) {
		return fmt.Errorf("line tolerance %v must be positive: %w", o.Tolerance, imaging.ErrInvalidParameter)
	}
	if math.IsNaN(o.MinLength) || o.MinLength < 0 {
		return fmt.Errorf("minimum segment length %v must not be negative: %w", o.MinLength, imaging.ErrInvalidParameter)
	}
	return nil
}

// Segments walks line across the edge map and returns its supported
// segments in walk order.
//
// # Algorithm
//
//  1. Clip the infinite line to the image box [0, w-1]×[0, h-1]
//  2. Step along the direction (-sin θ, cos θ) one pixel at a time
//  3. A step is supported when a STRONG pixel within Tolerance of the line
//     lies in the step's neighbourhood
//  4. A running segment extends across supported steps and bridges gaps of
//     up to GapTolerance steps; a longer gap or the image boundary closes it
//  5. Segments shorter than MinLength are discarded
func Segments(line Line, edges *imaging.EdgeMap, opts SegmentOptions) ([]Segment, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	segments := make([]Segment, 0)
	t0, t1, ok := line.Clip(edges.Width, edges.Height)
	if !ok {
		return segments, nil
	}

	c, s := line.Normal()
	dx, dy := line.Direction()
	ox, oy := line.Rho*c, line.Rho*s
	reach := int(math.Ceil(opts.Tolerance)) + 1

	var (
		open        bool
		startT      float64
		lastT       float64
		gap         int
		pixels      []image.Point
		seen        = make(map[image.Point]bool)
		emitSegment = func() {
			if open && lastT-startT >= opts.MinLength {
				sortPoints(pixels)
				segments = append(segments, Segment{
					Line:    line,
					Start:   PointF{X: ox + startT*dx, Y: oy + startT*dy},
					End:     PointF{X: ox + lastT*dx, Y: oy + lastT*dy},
					Pixels:  pixels,
					Support: len(pixels),
				})
			}
			open = false
			pixels = nil
		}
	)

	steps := int(math.Floor(t1 - t0))
	for i := 0; i <= steps; i++ {
		t := t0 + float64(i)
		px, py := ox+t*dx, oy+t*dy
		cx, cy := int(math.Round(px)), int(math.Round(py))

		supported := false
		for wy := cy - reach; wy <= cy+reach; wy++ {
			for wx := cx - reach; wx <= cx+reach; wx++ {
				if !edges.IsStrong(wx, wy) {
					continue
				}
				if math.Abs(line.Distance(float64(wx), float64(wy))) > opts.Tolerance {
					continue
				}
				// Only pixels whose projection falls within this step count,
				// so each pixel supports a single position.
				along := (float64(wx)-ox)*dx + (float64(wy)-oy)*dy
				if math.Abs(along-t) > 0.5 {
					continue
				}
				supported = true
				p := image.Point{X: wx, Y: wy}
				if !seen[p] {
					seen[p] = true
					pixels = append(pixels, p)
				}
			}
		}

		switch {
		case supported && !open:
			open, startT, lastT, gap = true, t, t, 0
		case supported:
			lastT, gap = t, 0
		case open:
			gap++
			if gap > opts.GapTolerance {
				emitSegment()
			}
		}
	}
	emitSegment()

	return segments, nil
}

func sortPoints(pts []image.Point) {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})
}
