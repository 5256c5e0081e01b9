package detection

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ironsheep/hough-tools-mcp/internal/imaging"
)

// Params holds every tunable of the line detection pipeline. It is passed
// by value so images with different settings can be processed concurrently.
type Params struct {
	// Sigma is the Gaussian smoothing standard deviation.
	Sigma float64 `toml:"sigma" json:"sigma"`

	// LowThreshold and HighThreshold are the hysteresis thresholds on the
	// gradient magnitude of the [0, 1] normalized image.
	LowThreshold  float64 `toml:"low_threshold" json:"low_threshold"`
	HighThreshold float64 `toml:"high_threshold" json:"high_threshold"`

	// Border is the non-maximum suppression border policy ("suppress" or
	// "replicate").
	Border imaging.Border `toml:"border" json:"border"`

	// RhoRes and ThetaRes are the accumulator dimensions. Theta bins span a
	// full 2π period.
	RhoRes   int `toml:"rho_res" json:"rho_res"`
	ThetaRes int `toml:"theta_res" json:"theta_res"`

	// Lines is the number of accumulator peaks to report.
	Lines int `toml:"lines" json:"lines"`

	// PeakRadius is the Hough-space suppression radius in bins; 0 disables it.
	PeakRadius int `toml:"peak_radius" json:"peak_radius"`

	// GapTolerance, LineTolerance and MinSegmentLength configure the
	// segment walk (see SegmentOptions).
	GapTolerance     int     `toml:"gap_tolerance" json:"gap_tolerance"`
	LineTolerance    float64 `toml:"line_tolerance" json:"line_tolerance"`
	MinSegmentLength float64 `toml:"min_segment_length" json:"min_segment_length"`
}

// DefaultParams returns the stock settings: sigma 2, 100 rho bins, 360 theta
// bins and 20 lines.
func DefaultParams() Params {
	return Params{
		Sigma:            2,
		LowThreshold:     0.1,
		HighThreshold:    0.3,
		Border:           imaging.BorderSuppress,
		RhoRes:           100,
		ThetaRes:         360,
		Lines:            20,
		PeakRadius:       2,
		GapTolerance:     3,
		LineTolerance:    1.5,
		MinSegmentLength: 10,
	}
}

// Canny returns the edge-detector subset of p.
func (p Params) Canny() imaging.CannyParams {
	return imaging.CannyParams{
		Sigma:  p.Sigma,
		Low:    p.LowThreshold,
		High:   p.HighThreshold,
		Border: p.Border,
	}
}

// Segment returns the segment-walk subset of p.
func (p Params) Segment() SegmentOptions {
	return SegmentOptions{
		GapTolerance: p.GapTolerance,
		Tolerance:    p.LineTolerance,
		MinLength:    p.MinSegmentLength,
	}
}

// Validate checks every parameter. All failures wrap
// imaging.ErrInvalidParameter.
func (p Params) Validate() error {
	if err := p.Canny().Validate(); err != nil {
		return err
	}
	if err := checkBins(p.RhoRes, p.ThetaRes); err != nil {
		return err
	}
	if p.Lines < 0 {
		return fmt.Errorf("line count %d must not be negative: %w", p.Lines, imaging.ErrInvalidParameter)
	}
	if p.PeakRadius < 0 {
		return fmt.Errorf("peak radius %d must not be negative: %w", p.PeakRadius, imaging.ErrInvalidParameter)
	}
	return p.Segment().Validate()
}

// Result is the output of one pipeline run.
type Result struct {
	Edges       *imaging.EdgeMap
	Accumulator *Accumulator
	Lines       []Line
	Segments    []Segment
}

// Summary is the serializable digest of a Result.
type Summary struct {
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	EdgePixels  int          `json:"edge_pixels"`
	Accumulator *Accumulator `json:"accumulator"`
	MaxVotes    int          `json:"max_votes"`
	Lines       []Line       `json:"lines"`
	Segments    []Segment    `json:"segments"`
	LineCount   int          `json:"line_count"`
	SegCount    int          `json:"segment_count"`
}

// Summary builds the serializable digest of r.
func (r *Result) Summary() *Summary {
	return &Summary{
		Width:       r.Edges.Width,
		Height:      r.Edges.Height,
		EdgePixels:  r.Edges.Count(imaging.EdgeStrong),
		Accumulator: r.Accumulator,
		MaxVotes:    r.Accumulator.Max(),
		Lines:       r.Lines,
		Segments:    r.Segments,
		LineCount:   len(r.Lines),
		SegCount:    len(r.Segments),
	}
}

// Run executes the whole pipeline on img: Canny edges, Hough voting, peak
// extraction and segment localization. Parameters are validated before any
// buffer is allocated. Run is deterministic.
func Run(img *imaging.Gray, p Params) (*Result, error) {
	return execute(img, p, nil)
}

// DetectLines reduces img to luminance and runs the pipeline on it.
func DetectLines(img image.Image, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return Run(imaging.ToGray(img), p)
}

// Runner wraps Run with per-stage timing logs.
//
// Runner holds no per-image state; one Runner may serve concurrent calls.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger falls back to log.Default().
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Run executes the pipeline like the package-level Run, logging each stage
// at debug level and a summary at info level.
func (r *Runner) Run(img *imaging.Gray, p Params) (*Result, error) {
	start := time.Now()
	res, err := execute(img, p, func(stage string, began time.Time, keyvals ...interface{}) {
		r.Logger.Debug("stage complete", append([]interface{}{"stage", stage, "duration", time.Since(began)}, keyvals...)...)
	})
	if err != nil {
		r.Logger.Warn("line detection failed", "err", err)
		return nil, err
	}
	r.Logger.Info("detected lines",
		"width", img.Width,
		"height", img.Height,
		"edges", res.Edges.Count(imaging.EdgeStrong),
		"lines", len(res.Lines),
		"segments", len(res.Segments),
		"duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

type stageObserver func(stage string, began time.Time, keyvals ...interface{})

func execute(img *imaging.Gray, p Params, observe stageObserver) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if observe == nil {
		observe = func(string, time.Time, ...interface{}) {}
	}

	began := time.Now()
	edges, err := imaging.Canny(img, p.Canny())
	if err != nil {
		return nil, fmt.Errorf("edge detection: %w", err)
	}
	observe("canny", began, "edges", edges.Count(imaging.EdgeStrong))

	began = time.Now()
	acc, err := Vote(edges, p.RhoRes, p.ThetaRes)
	if err != nil {
		return nil, fmt.Errorf("hough voting: %w", err)
	}
	observe("vote", began, "max_votes", acc.Max())

	began = time.Now()
	lines, err := TopLines(acc, p.Lines, p.PeakRadius)
	if err != nil {
		return nil, fmt.Errorf("peak extraction: %w", err)
	}
	observe("peaks", began, "lines", len(lines))

	began = time.Now()
	segments := make([]Segment, 0)
	for _, l := range lines {
		segs, err := Segments(l, edges, p.Segment())
		if err != nil {
			return nil, fmt.Errorf("segment localization: %w", err)
		}
		segments = append(segments, segs...)
	}
	observe("segments", began, "segments", len(segments))

	return &Result{
		Edges:       edges,
		Accumulator: acc,
		Lines:       lines,
		Segments:    segments,
	}, nil
}

// LineStrokes converts lines to drawable strokes clipped to the image box.
// Lines that miss the image are skipped. Labels are 1-based line ranks.
func LineStrokes(lines []Line, width, height int) []imaging.Stroke {
	strokes := make([]imaging.Stroke, 0, len(lines))
	for i, l := range lines {
		t0, t1, ok := l.Clip(width, height)
		if !ok {
			continue
		}
		c, s := l.Normal()
		dx, dy := l.Direction()
		ox, oy := l.Rho*c, l.Rho*s
		strokes = append(strokes, imaging.Stroke{
			X0: ox + t0*dx, Y0: oy + t0*dy,
			X1: ox + t1*dx, Y1: oy + t1*dy,
			Label: i + 1,
		})
	}
	return strokes
}

// SegmentStrokes converts segments to drawable strokes. Labels are 1-based
// segment indices.
func SegmentStrokes(segments []Segment) []imaging.Stroke {
	strokes := make([]imaging.Stroke, len(segments))
	for i, s := range segments {
		strokes[i] = imaging.Stroke{
			X0: s.Start.X, Y0: s.Start.Y,
			X1: s.End.X, Y1: s.End.Y,
			Label: i + 1,
		}
	}
	return strokes
}

// roundTo rounds v to the given number of decimals for display output.
func roundTo(v float64, decimals int) float64 {
	f := math.Pow(10, float64(decimals))
	return math.Round(v*f) / f
}
