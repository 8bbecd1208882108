package signal

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Polynomial holds fitted coefficients in ascending power order.
type Polynomial []float64

// Eval evaluates the polynomial at x using Horner's rule.
func (p Polynomial) Eval(x float64) float64 {
	var y float64
	for i := len(p) - 1; i >= 0; i-- {
		y = y*x + p[i]
	}
	return y
}

// EvalAll evaluates the polynomial at every sample of xs.
func (p Polynomial) EvalAll(xs []float64) []float64 {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = p.Eval(x)
	}
	return ys
}

// Polyfit computes the least-squares polynomial of the given degree through
// the points (x, y). The Vandermonde system is solved by QR factorisation.
func Polyfit(x, y []float64, degree int) (Polynomial, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("x and y lengths differ: %d vs %d", len(x), len(y))
	}
	if degree < 0 {
		return nil, fmt.Errorf("degree must be non-negative, got %d", degree)
	}
	if len(x) < degree+1 {
		return nil, fmt.Errorf("need at least %d points for degree %d, got %d", degree+1, degree, len(x))
	}

	cols := degree + 1
	v := mat.NewDense(len(x), cols, nil)
	for i, xi := range x {
		pow := 1.0
		for j := 0; j < cols; j++ {
			v.Set(i, j, pow)
			pow *= xi
		}
	}

	var qr mat.QR
	qr.Factorize(v)

	rhs := mat.NewVecDense(len(y), append([]float64(nil), y...))
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, rhs); err != nil {
		return nil, fmt.Errorf("polynomial fit failed: %w", err)
	}

	coeffs := make(Polynomial, cols)
	for j := 0; j < cols; j++ {
		coeffs[j] = sol.AtVec(j)
	}
	return coeffs, nil
}
