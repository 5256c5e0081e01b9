package imaging

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// ridge returns a 5×5 magnitude map with a vertical ridge on column 2 and
// a matching all-zero (horizontal gradient) orientation map.
func ridge() (*Gray, *Gray) {
	profile := []float64{0.2, 0.5, 1, 0.5, 0.2}
	mag := NewGray(5, 5)
	for y := 0; y < 5; y++ {
		for x, v := range profile {
			mag.Set(x, y, v)
		}
	}
	return mag, NewGray(5, 5)
}

func TestSuppressNonMaxima_Ridge(t *testing.T) {
	mag, orient := ridge()

	tests := []struct {
		border   Border
		wantRows []int
	}{
		{BorderSuppress, []int{1, 2, 3}},
		{BorderReplicate, []int{0, 1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.border.String(), func(t *testing.T) {
			out, err := SuppressNonMaxima(mag, orient, tt.border)
			if err != nil {
				t.Fatalf("SuppressNonMaxima failed: %v", err)
			}
			kept := map[int]bool{}
			for _, y := range tt.wantRows {
				kept[y] = true
			}
			for y := 0; y < 5; y++ {
				for x := 0; x < 5; x++ {
					want := 0.0
					if x == 2 && kept[y] {
						want = 1
					}
					if out.At(x, y) != want {
						t.Errorf("(%d,%d): got %v, want %v", x, y, out.At(x, y), want)
					}
				}
			}
		})
	}
}

func TestSuppressNonMaxima_DiagonalSector(t *testing.T) {
	// Gradient at 90°: neighbours straight above and below are compared.
	mag := NewGray(3, 3)
	orient := NewGray(3, 3)
	for i := range orient.Pix {
		orient.Pix[i] = math.Pi / 2
	}
	mag.Set(1, 1, 1)
	mag.Set(1, 0, 0.9)
	mag.Set(0, 1, 5) // beside the pixel, outside the gradient direction

	out, err := SuppressNonMaxima(mag, orient, BorderSuppress)
	if err != nil {
		t.Fatal(err)
	}
	if out.At(1, 1) != 1 {
		t.Errorf("center should survive, got %v", out.At(1, 1))
	}

	mag.Set(1, 2, 1.5)
	out, err = SuppressNonMaxima(mag, orient, BorderSuppress)
	if err != nil {
		t.Fatal(err)
	}
	if out.At(1, 1) != 0 {
		t.Errorf("center should be suppressed by the larger pixel below, got %v", out.At(1, 1))
	}
}

func TestSuppressNonMaxima_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	mag := NewGray(16, 12)
	orient := NewGray(16, 12)
	for i := range mag.Pix {
		if rng.Intn(4) > 0 {
			mag.Pix[i] = rng.Float64()
		}
		orient.Pix[i] = (rng.Float64() - 0.5) * math.Pi
	}

	for _, border := range []Border{BorderSuppress, BorderReplicate} {
		out, err := SuppressNonMaxima(mag, orient, border)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range out.Pix {
			if v != 0 && v != mag.Pix[i] {
				t.Fatalf("%s: pixel %d is %v, want 0 or %v", border, i, v, mag.Pix[i])
			}
			if mag.Pix[i] == 0 && v != 0 {
				t.Fatalf("%s: pixel %d was 0 and became %v", border, i, v)
			}
		}
	}
}

func TestSuppressNonMaxima_Errors(t *testing.T) {
	if _, err := SuppressNonMaxima(NewGray(3, 3), NewGray(3, 4), BorderSuppress); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("shape mismatch: got %v", err)
	}
	if _, err := SuppressNonMaxima(NewGray(3, 3), NewGray(3, 3), BorderZero); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero border: got %v", err)
	}
}
