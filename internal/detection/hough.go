package detection

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/hough-tools-mcp/internal/imaging"
)

// rhoEpsilon absorbs floating point noise around rho == 0 (for example
// x*cos(3π/2) for a pixel on the top row), which would otherwise drop votes
// that mathematically land in the first bin.
const rhoEpsilon = 1e-9

// MaxBins caps RhoRes×ThetaRes so the vote table stays allocatable.
const MaxBins = 1 << 26

// checkBins validates accumulator dimensions without computing a product
// that could overflow.
func checkBins(rhoRes, thetaRes int) error {
	if rhoRes <= 0 {
		return fmt.Errorf("rho resolution %d must be positive: %w", rhoRes, imaging.ErrInvalidParameter)
	}
	if thetaRes <= 0 {
		return fmt.Errorf("theta resolution %d must be positive: %w", thetaRes, imaging.ErrInvalidParameter)
	}
	if rhoRes > MaxBins/thetaRes {
		return fmt.Errorf("accumulator %d×%d exceeds %d bins: %w", rhoRes, thetaRes, MaxBins, imaging.ErrInvalidParameter)
	}
	return nil
}

// Accumulator is the Hough vote table over (rho, theta).
//
// Rho covers [0, RhoMax) in RhoRes equal bins and theta covers the full
// period [0, 2π) in ThetaRes equal bins. Restricting rho to non-negative
// values while sweeping theta over 2π describes every line exactly once
// (the pair (-ρ, θ) is the same line as (ρ, θ+π)). Lines through the origin
// are the one exception: they vote at both θ and θ+π.
type Accumulator struct {
	RhoRes    int     `json:"rho_res"`
	ThetaRes  int     `json:"theta_res"`
	RhoMax    float64 `json:"rho_max"`
	RhoStep   float64 `json:"rho_step"`
	ThetaStep float64 `json:"theta_step"`

	// Votes is row-major: Votes[r*ThetaRes+t].
	Votes []int `json:"-"`
}

// NewAccumulator allocates an empty accumulator for an image of the given
// size.
func NewAccumulator(width, height, rhoRes, thetaRes int) (*Accumulator, error) {
	if err := checkBins(rhoRes, thetaRes); err != nil {
		return nil, err
	}
	rhoMax := math.Sqrt(float64(width*width + height*height))
	return &Accumulator{
		RhoRes:    rhoRes,
		ThetaRes:  thetaRes,
		RhoMax:    rhoMax,
		RhoStep:   rhoMax / float64(rhoRes),
		ThetaStep: 2 * math.Pi / float64(thetaRes),
		Votes:     make([]int, rhoRes*thetaRes),
	}, nil
}

// At returns the vote count of bin (r, t).
func (a *Accumulator) At(r, t int) int {
	return a.Votes[r*a.ThetaRes+t]
}

// Sum returns the total number of votes cast.
func (a *Accumulator) Sum() int {
	total := 0
	for _, v := range a.Votes {
		total += v
	}
	return total
}

// Max returns the highest vote count.
func (a *Accumulator) Max() int {
	peak := 0
	for _, v := range a.Votes {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// Theta returns the angle of theta bin t.
func (a *Accumulator) Theta(t int) float64 {
	return float64(t) * a.ThetaStep
}

// Rho returns the centre of rho bin r.
func (a *Accumulator) Rho(r int) float64 {
	return (float64(r) + 0.5) * a.RhoStep
}

// RhoBin returns the bin of rho, and false when rho is outside [0, RhoMax).
func (a *Accumulator) RhoBin(rho float64) (int, bool) {
	if rho < 0 && rho > -rhoEpsilon {
		rho = 0
	}
	if rho < 0 || rho >= a.RhoMax {
		return 0, false
	}
	r := int(rho / a.RhoStep)
	if r >= a.RhoRes {
		r = a.RhoRes - 1
	}
	return r, true
}

// Vote builds the Hough accumulator of every STRONG pixel in edges.
//
// For each edge pixel (x, y) and each theta bin t, rho = x·cos θt + y·sin θt
// is computed and, when it lies in [0, RhoMax), the bin (rho/RhoStep, t)
// gains one vote. RhoMax is the image diagonal.
//
// # Performance
//
// Cost is O(edgePixels × thetaRes), the dominant cost of the pipeline. Edge
// pixels are split into chunks voted in parallel into private tables that
// are summed at the end; integer addition keeps the result deterministic.
func Vote(edges *imaging.EdgeMap, rhoRes, thetaRes int) (*Accumulator, error) {
	acc, err := NewAccumulator(edges.Width, edges.Height, rhoRes, thetaRes)
	if err != nil {
		return nil, err
	}

	cosT := make([]float64, thetaRes)
	sinT := make([]float64, thetaRes)
	for t := range cosT {
		cosT[t] = math.Cos(acc.Theta(t))
		sinT[t] = math.Sin(acc.Theta(t))
	}

	points := edges.StrongPoints()
	if len(points) == 0 {
		return acc, nil
	}

	var mu sync.Mutex
	parallel.Line(len(points), func(start, end int) {
		local := make([]int, len(acc.Votes))
		voteRange(acc, points[start:end], cosT, sinT, local)

		mu.Lock()
		for i, v := range local {
			acc.Votes[i] += v
		}
		mu.Unlock()
	})

	return acc, nil
}

// voteRange casts the votes of points into votes, a table shaped like
// acc.Votes.
func voteRange(acc *Accumulator, points []image.Point, cosT, sinT []float64, votes []int) {
	for _, p := range points {
		x, y := float64(p.X), float64(p.Y)
		for t := range cosT {
			if r, ok := acc.RhoBin(x*cosT[t] + y*sinT[t]); ok {
				votes[r*acc.ThetaRes+t]++
			}
		}
	}
}
