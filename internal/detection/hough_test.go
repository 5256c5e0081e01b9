package detection

import (
	"errors"
	"image"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/ironsheep/hough-tools-mcp/internal/imaging"
)

// edgeMapOf returns a width×height edge map with the given STRONG pixels.
func edgeMapOf(width, height int, pts ...image.Point) *imaging.EdgeMap {
	m := imaging.NewEdgeMap(width, height)
	for _, p := range pts {
		m.Set(p.X, p.Y, imaging.EdgeStrong)
	}
	return m
}

func TestNewAccumulator(t *testing.T) {
	acc, err := NewAccumulator(30, 40, 100, 360)
	if err != nil {
		t.Fatalf("NewAccumulator failed: %v", err)
	}
	if acc.RhoMax != 50 {
		t.Errorf("RhoMax: got %v, want 50", acc.RhoMax)
	}
	if acc.RhoStep != 0.5 {
		t.Errorf("RhoStep: got %v, want 0.5", acc.RhoStep)
	}
	if math.Abs(acc.ThetaStep-math.Pi/180) > 1e-15 {
		t.Errorf("ThetaStep: got %v, want π/180", acc.ThetaStep)
	}
	if len(acc.Votes) != 100*360 {
		t.Errorf("Votes: got %d cells", len(acc.Votes))
	}
	if acc.Rho(0) != 0.25 || acc.Rho(99) != 49.75 {
		t.Errorf("bin centres: %v %v", acc.Rho(0), acc.Rho(99))
	}
}

func TestNewAccumulator_Invalid(t *testing.T) {
	tests := []struct {
		name             string
		rhoRes, thetaRes int
	}{
		{"zero rho", 0, 360},
		{"negative rho", -1, 360},
		{"zero theta", 100, 0},
		{"above bin cap", MaxBins, 2},
		{"product overflows int", 3, 1 << 62},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAccumulator(10, 10, tt.rhoRes, tt.thetaRes); !errors.Is(err, imaging.ErrInvalidParameter) {
				t.Errorf("got %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestAccumulator_RhoBin(t *testing.T) {
	acc, _ := NewAccumulator(30, 40, 100, 360)

	tests := []struct {
		rho    float64
		want   int
		wantOK bool
	}{
		{0, 0, true},
		{-1e-12, 0, true},
		{-0.01, 0, false},
		{0.49, 0, true},
		{0.5, 1, true},
		{49.99, 99, true},
		{50, 0, false},
	}
	for _, tt := range tests {
		got, ok := acc.RhoBin(tt.rho)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("RhoBin(%v) = %d, %v; want %d, %v", tt.rho, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestVote_OriginPixel(t *testing.T) {
	acc, err := Vote(edgeMapOf(10, 10, image.Pt(0, 0)), 20, 90)
	if err != nil {
		t.Fatalf("Vote failed: %v", err)
	}
	if acc.Sum() != 90 {
		t.Errorf("origin pixel should vote once per theta bin: got %d, want 90", acc.Sum())
	}
	for th := 0; th < 90; th++ {
		if acc.At(0, th) != 1 {
			t.Fatalf("theta bin %d: rho bin 0 has %d votes, want 1", th, acc.At(0, th))
		}
	}
}

func TestVote_SinglePixel(t *testing.T) {
	const thetaRes = 72
	acc, err := Vote(edgeMapOf(10, 10, image.Pt(3, 4)), 25, thetaRes)
	if err != nil {
		t.Fatalf("Vote failed: %v", err)
	}

	want := 0
	for th := 0; th < thetaRes; th++ {
		theta := acc.Theta(th)
		r, ok := acc.RhoBin(3*math.Cos(theta) + 4*math.Sin(theta))
		column := 0
		for rb := 0; rb < acc.RhoRes; rb++ {
			column += acc.At(rb, th)
		}
		if !ok {
			if column != 0 {
				t.Errorf("theta bin %d: negative rho should not vote, got %d", th, column)
			}
			continue
		}
		want++
		if column != 1 || acc.At(r, th) != 1 {
			t.Errorf("theta bin %d: want a single vote in rho bin %d", th, r)
		}
	}
	if acc.Sum() != want {
		t.Errorf("Sum: got %d, want %d", acc.Sum(), want)
	}
}

func TestVote_Empty(t *testing.T) {
	acc, err := Vote(imaging.NewEdgeMap(16, 16), 10, 36)
	if err != nil {
		t.Fatalf("Vote failed: %v", err)
	}
	if acc.Sum() != 0 || acc.Max() != 0 {
		t.Errorf("empty edge map should cast no votes, got sum %d", acc.Sum())
	}
}

func TestVote_MatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	edges := imaging.NewEdgeMap(48, 40)
	for i := range edges.Pix {
		if rng.Intn(6) == 0 {
			edges.Pix[i] = imaging.EdgeStrong
		}
	}

	acc, err := Vote(edges, 60, 180)
	if err != nil {
		t.Fatalf("Vote failed: %v", err)
	}

	ref, _ := NewAccumulator(48, 40, 60, 180)
	cosT := make([]float64, 180)
	sinT := make([]float64, 180)
	for th := range cosT {
		cosT[th] = math.Cos(ref.Theta(th))
		sinT[th] = math.Sin(ref.Theta(th))
	}
	voteRange(ref, edges.StrongPoints(), cosT, sinT, ref.Votes)

	if !reflect.DeepEqual(acc.Votes, ref.Votes) {
		t.Error("parallel voting differs from sequential voting")
	}
}
