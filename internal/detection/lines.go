package detection

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/hough-tools-mcp/internal/imaging"
)

// Line is an infinite line x·cos θ + y·sin θ = ρ picked from the
// accumulator.
type Line struct {
	// Rho is the distance from the origin (top-left pixel) to the line, taken
	// at the centre of RhoBin.
	Rho float64 `json:"rho"`

	// Theta is the angle of the line's normal in radians, in [0, 2π).
	Theta float64 `json:"theta"`

	// ThetaDegrees is Theta in degrees, for display.
	ThetaDegrees float64 `json:"theta_degrees"`

	RhoBin   int `json:"rho_bin"`
	ThetaBin int `json:"theta_bin"`

	// Votes is the accumulator count of the peak.
	Votes int `json:"votes"`
}

// Normal returns the unit normal (cos θ, sin θ).
func (l Line) Normal() (float64, float64) {
	return math.Cos(l.Theta), math.Sin(l.Theta)
}

// Direction returns the unit direction (-sin θ, cos θ).
func (l Line) Direction() (float64, float64) {
	return -math.Sin(l.Theta), math.Cos(l.Theta)
}

// Distance returns the signed perpendicular distance of (x, y) from the line.
func (l Line) Distance(x, y float64) float64 {
	c, s := l.Normal()
	return x*c + y*s - l.Rho
}

// Clip returns the parameter range [t0, t1] for which
// (ρ·cos θ, ρ·sin θ) + t·Direction() lies inside [0, width-1]×[0, height-1],
// and false when the line misses that box.
func (l Line) Clip(width, height int) (t0, t1 float64, ok bool) {
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	c, s := l.Normal()
	dx, dy := l.Direction()
	ox, oy := l.Rho*c, l.Rho*s

	t0, t1 = math.Inf(-1), math.Inf(1)
	clip := func(origin, dir, lo, hi float64) bool {
		if math.Abs(dir) < 1e-12 {
			return origin >= lo-1e-9 && origin <= hi+1e-9
		}
		a, b := (lo-origin)/dir, (hi-origin)/dir
		if a > b {
			a, b = b, a
		}
		t0 = math.Max(t0, a)
		t1 = math.Min(t1, b)
		return true
	}
	if !clip(ox, dx, 0, float64(width-1)) || !clip(oy, dy, 0, float64(height-1)) {
		return 0, 0, false
	}
	if t0 > t1 {
		return 0, 0, false
	}
	return t0, t1, true
}

// peak is one accumulator bin considered by TopLines.
type peak struct {
	rho   int
	theta int
	votes int
}

// TopLines returns up to n lines from the highest accumulator bins.
//
// Bins with at least one vote are ranked by votes (descending), then rho bin
// and theta bin (ascending), which makes the output deterministic.
//
// With radius > 0, a bin within radius rho bins and radius theta bins
// (theta wraps around) of an already selected peak is skipped. This is
// non-maximum suppression in Hough space and keeps one physical edge from
// being reported as several near-identical lines. radius == 0 selects the
// literal top n bins.
func TopLines(acc *Accumulator, n, radius int) ([]Line, error) {
	if n < 0 {
		return nil, fmt.Errorf("line count %d must not be negative: %w", n, imaging.ErrInvalidParameter)
	}
	if radius < 0 {
		return nil, fmt.Errorf("peak radius %d must not be negative: %w", radius, imaging.ErrInvalidParameter)
	}
	if err := checkBins(acc.RhoRes, acc.ThetaRes); err != nil {
		return nil, err
	}
	if len(acc.Votes) != acc.RhoRes*acc.ThetaRes {
		return nil, fmt.Errorf("votes length %d for %d×%d accumulator: %w", len(acc.Votes), acc.RhoRes, acc.ThetaRes, imaging.ErrShapeMismatch)
	}

	lines := make([]Line, 0)
	if n == 0 {
		return lines, nil
	}

	peaks := make([]peak, 0)
	for r := 0; r < acc.RhoRes; r++ {
		for t := 0; t < acc.ThetaRes; t++ {
			if v := acc.At(r, t); v > 0 {
				peaks = append(peaks, peak{rho: r, theta: t, votes: v})
			}
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		if peaks[i].votes != peaks[j].votes {
			return peaks[i].votes > peaks[j].votes
		}
		if peaks[i].rho != peaks[j].rho {
			return peaks[i].rho < peaks[j].rho
		}
		return peaks[i].theta < peaks[j].theta
	})

	chosen := make([]peak, 0, n)
	for _, p := range peaks {
		if len(chosen) >= n {
			break
		}
		if radius > 0 && nearChosen(p, chosen, radius, acc.ThetaRes) {
			continue
		}
		chosen = append(chosen, p)
		theta := acc.Theta(p.theta)
		lines = append(lines, Line{
			Rho:          acc.Rho(p.rho),
			Theta:        theta,
			ThetaDegrees: roundTo(theta*180/math.Pi, 2),
			RhoBin:       p.rho,
			ThetaBin:     p.theta,
			Votes:        p.votes,
		})
	}

	return lines, nil
}

// nearChosen reports whether p lies inside the suppression window of any
// already selected peak. Theta distance wraps around the full period.
func nearChosen(p peak, chosen []peak, radius, thetaRes int) bool {
	for _, c := range chosen {
		dr := p.rho - c.rho
		if dr < -radius || dr > radius {
			continue
		}
		dt := p.theta - c.theta
		if dt < 0 {
			dt = -dt
		}
		if thetaRes-dt < dt {
			dt = thetaRes - dt
		}
		if dt <= radius {
			return true
		}
	}
	return false
}
