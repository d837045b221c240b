// Package fit implements least-squares polynomial fits of skill level
// against lap time.
//
// Both fits build the design matrix A, form the normal equations
// (AᵗA)β = Aᵗy and solve them by Gaussian elimination with partial
// pivoting followed by back-substitution.
package fit

import (
	"errors"
	"fmt"
	"math"
)

// pivotEpsilon is the smallest pivot magnitude accepted during elimination.
const pivotEpsilon = 1e-10

// ErrSingularSystem is returned when the normal equations have no unique
// solution, e.g. fewer distinct x values than coefficients.
var ErrSingularSystem = errors.New("singular system")

// Linear fits y = intercept + slope*x.
func Linear(xs, ys []float64) (intercept, slope float64, err error) {
	coeffs, err := polyfit(xs, ys, 1)
	if err != nil {
		return 0, 0, err
	}
	return coeffs[0], coeffs[1], nil
}

// Parabola fits y = a0 + a1*x + a2*x².
func Parabola(xs, ys []float64) (a0, a1, a2 float64, err error) {
	coeffs, err := polyfit(xs, ys, 2)
	if err != nil {
		return 0, 0, 0, err
	}
	return coeffs[0], coeffs[1], coeffs[2], nil
}

func polyfit(xs, ys []float64, degree int) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("length mismatch: %d xs, %d ys", len(xs), len(ys))
	}
	n := degree + 1
	// Augmented matrix [AᵗA | Aᵗy].
	aug := make([][]float64, n)
	for i := range aug {
		aug[i] = make([]float64, n+1)
	}
	row := make([]float64, n)
	for k, x := range xs {
		row[0] = 1
		for j := 1; j < n; j++ {
			row[j] = row[j-1] * x
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				aug[i][j] += row[i] * row[j]
			}
			aug[i][n] += row[i] * ys[k]
		}
	}
	return solve(aug)
}

// solve reduces an n×(n+1) augmented matrix in place and returns the
// solution vector.
func solve(aug [][]float64) ([]float64, error) {
	n := len(aug)
	for p := 0; p < n; p++ {
		best := p
		for i := p + 1; i < n; i++ {
			if math.Abs(aug[i][p]) > math.Abs(aug[best][p]) {
				best = i
			}
		}
		aug[p], aug[best] = aug[best], aug[p]
		if math.Abs(aug[p][p]) < pivotEpsilon {
			return nil, ErrSingularSystem
		}
		for i := p + 1; i < n; i++ {
			alpha := aug[i][p] / aug[p][p]
			for j := p; j <= n; j++ {
				aug[i][j] -= alpha * aug[p][j]
			}
		}
	}
	out := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := aug[i][n]
		for j := i + 1; j < n; j++ {
			sum -= aug[i][j] * out[j]
		}
		out[i] = sum / aug[i][i]
	}
	return out, nil
}
