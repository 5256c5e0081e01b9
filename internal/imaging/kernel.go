package imaging

import (
	"fmt"
	"math"
)

// Kernel is an immutable, odd-sized correlation kernel centered on its
// middle element.
type Kernel struct {
	rows    int
	cols    int
	weights []float64
}

// Sobel kernels. SobelY is the transpose of SobelX negated, so a positive
// response means intensity increasing upward (toward row 0).
var (
	SobelX = mustKernel([][]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	})
	SobelY = mustKernel([][]float64{
		{1, 2, 1},
		{0, 0, 0},
		{-1, -2, -1},
	})
)

// NewKernel copies weights into a Kernel.
//
// Both dimensions must be odd and every row must have the same length;
// otherwise ErrInvalidParameter is returned.
func NewKernel(weights [][]float64) (*Kernel, error) {
	rows := len(weights)
	if rows == 0 || rows%2 == 0 {
		return nil, fmt.Errorf("kernel height %d must be odd: %w", rows, ErrInvalidParameter)
	}
	cols := len(weights[0])
	if cols == 0 || cols%2 == 0 {
		return nil, fmt.Errorf("kernel width %d must be odd: %w", cols, ErrInvalidParameter)
	}
	k := &Kernel{rows: rows, cols: cols, weights: make([]float64, 0, rows*cols)}
	for i, row := range weights {
		if len(row) != cols {
			return nil, fmt.Errorf("kernel row %d has %d columns, want %d: %w", i, len(row), cols, ErrInvalidParameter)
		}
		k.weights = append(k.weights, row...)
	}
	return k, nil
}

func mustKernel(weights [][]float64) *Kernel {
	k, err := NewKernel(weights)
	if err != nil {
		panic(err)
	}
	return k
}

// Identity returns the size×size kernel with 1 at the center.
func Identity(size int) (*Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("identity size %d must be odd and positive: %w", size, ErrInvalidParameter)
	}
	w := make([][]float64, size)
	for i := range w {
		w[i] = make([]float64, size)
	}
	w[size/2][size/2] = 1
	return NewKernel(w)
}

// GaussianKernel builds a normalized 2D Gaussian kernel.
//
// The radius is floor(3*sigma), giving a (2r+1)×(2r+1) kernel with weights
// exp(-(dx²+dy²)/(2σ²)) scaled so they sum to 1. Sigma must be positive.
func GaussianKernel(sigma float64) (*Kernel, error) {
	if !(sigma > 0) || math.IsInf(sigma, 1) {
		return nil, fmt.Errorf("gaussian sigma %v must be positive: %w", sigma, ErrInvalidParameter)
	}
	radius := int(math.Floor(3 * sigma))
	size := 2*radius + 1

	k := &Kernel{rows: size, cols: size, weights: make([]float64, size*size)}
	twoSigmaSq := 2 * sigma * sigma
	var sum float64
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			w := math.Exp(-float64(dy*dy+dx*dx) / twoSigmaSq)
			k.weights[(dy+radius)*size+dx+radius] = w
			sum += w
		}
	}
	for i := range k.weights {
		k.weights[i] /= sum
	}
	return k, nil
}

// Size returns the kernel dimensions as (rows, cols).
func (k *Kernel) Size() (rows, cols int) {
	return k.rows, k.cols
}

// At returns the weight at row r, column c.
func (k *Kernel) At(r, c int) float64 {
	return k.weights[r*k.cols+c]
}

// Sum returns the total of all weights.
func (k *Kernel) Sum() float64 {
	var s float64
	for _, w := range k.weights {
		s += w
	}
	return s
}
