// Package signal implements the numeric processing used on bench
// measurements: Butterworth low-pass design, zero-phase filtering,
// polynomial fitting, peak detection and full-width-at-half-maximum
// estimation.
package signal

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Butter designs a digital low-pass Butterworth filter of the given order
// with the cutoff frequency in the same units as the sample rate. It returns
// the transfer function numerator (b) and denominator (a) coefficients with
// a[0] normalised to 1.
func Butter(order int, cutoff, sampleRate float64) (b, a []float64, err error) {
	if order < 1 {
		return nil, nil, fmt.Errorf("filter order must be >= 1, got %d", order)
	}
	if sampleRate <= 0 {
		return nil, nil, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}
	nyquist := sampleRate / 2
	if cutoff <= 0 || cutoff >= nyquist {
		return nil, nil, fmt.Errorf("cutoff %g out of range (0, %g)", cutoff, nyquist)
	}

	// Analog prototype: order poles on the left half of the unit circle,
	// no zeros, unit gain.
	poles := make([]complex128, order)
	for k := 0; k < order; k++ {
		theta := math.Pi * float64(2*k+1+order) / float64(2*order)
		poles[k] = cmplx.Exp(complex(0, theta))
	}

	// Prewarp the cutoff and scale the prototype to it. The internal
	// sampling frequency of 2 matches the normalised design convention.
	const fs = 2.0
	wn := cutoff / nyquist
	warped := 2 * fs * math.Tan(math.Pi*wn/fs)

	gain := complex(math.Pow(warped, float64(order)), 0)
	for k := range poles {
		poles[k] *= complex(warped, 0)
	}

	// Bilinear transform. All zeros land at z = -1.
	const fs2 = 2 * fs
	digital := make([]complex128, order)
	denomProd := complex(1, 0)
	for k, p := range poles {
		digital[k] = (complex(fs2, 0) + p) / (complex(fs2, 0) - p)
		denomProd *= complex(fs2, 0) - p
	}
	k := real(gain / denomProd)

	zeros := make([]complex128, order)
	for i := range zeros {
		zeros[i] = complex(-1, 0)
	}

	b = realPoly(zeros)
	for i := range b {
		b[i] *= k
	}
	a = realPoly(digital)
	return b, a, nil
}

// realPoly expands a set of roots into real polynomial coefficients,
// highest power first, with a leading coefficient of 1.
func realPoly(roots []complex128) []float64 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = real(c)
	}
	return out
}

// lfilter applies the direct form II transposed difference equation with the
// given initial state. b and a must have equal length and a[0] must be 1.
func lfilter(b, a, x, zi []float64) []float64 {
	n := len(a)
	z := make([]float64, n-1)
	copy(z, zi)
	y := make([]float64, len(x))
	for i, xv := range x {
		yv := b[0] * xv
		if n > 1 {
			yv += z[0]
		}
		for j := 1; j < n-1; j++ {
			z[j-1] = b[j]*xv - a[j]*yv + z[j]
		}
		if n > 1 {
			z[n-2] = b[n-1]*xv - a[n-1]*yv
		}
		y[i] = yv
	}
	return y
}

// stepState returns the filter state that makes the output of lfilter start
// at steady state for a unit step input. Scaling it by the first sample
// removes the startup transient for signals with a non-zero baseline.
func stepState(b, a []float64) []float64 {
	n := len(a)
	if n < 2 {
		return nil
	}
	var sb, sa float64
	for _, v := range b {
		sb += v
	}
	for _, v := range a {
		sa += v
	}
	g := sb / sa

	zi := make([]float64, n-1)
	zi[n-2] = b[n-1] - a[n-1]*g
	for j := n - 3; j >= 0; j-- {
		zi[j] = b[j+1] - a[j+1]*g + zi[j+1]
	}
	return zi
}

// normalize pads b and a to equal length and divides through by a[0].
func normalize(b, a []float64) ([]float64, []float64, error) {
	if len(a) == 0 || a[0] == 0 {
		return nil, nil, fmt.Errorf("denominator must have a non-zero leading coefficient")
	}
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	bn := make([]float64, n)
	an := make([]float64, n)
	copy(bn, b)
	copy(an, a)
	for i := range bn {
		bn[i] /= a[0]
	}
	for i := 1; i < n; i++ {
		an[i] /= a[0]
	}
	an[0] = 1
	return bn, an, nil
}

// FiltFilt applies the filter forward and backward for zero phase
// distortion. The input is extended at both ends with an odd reflection of
// three filter lengths, the same rule scipy uses, so edge transients stay
// outside the returned samples.
func FiltFilt(b, a, x []float64) ([]float64, error) {
	bn, an, err := normalize(b, a)
	if err != nil {
		return nil, err
	}
	// scipy's default padlen is 3*max(len(a), len(b)); normalize has already
	// padded both to the same length.
	padLen := 3 * len(an)
	if padLen < 1 {
		out := make([]float64, len(x))
		copy(out, x)
		return out, nil
	}
	if len(x) <= padLen {
		return nil, fmt.Errorf("input length %d must exceed padding length %d", len(x), padLen)
	}

	ext := make([]float64, 0, len(x)+2*padLen)
	for i := padLen; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	last := len(x) - 1
	for i := 1; i <= padLen; i++ {
		ext = append(ext, 2*x[last]-x[last-i])
	}

	zi := stepState(bn, an)

	forwardZi := make([]float64, len(zi))
	for i, v := range zi {
		forwardZi[i] = v * ext[0]
	}
	fwd := lfilter(bn, an, ext, forwardZi)

	reverse(fwd)
	backwardZi := make([]float64, len(zi))
	for i, v := range zi {
		backwardZi[i] = v * fwd[0]
	}
	bwd := lfilter(bn, an, fwd, backwardZi)
	reverse(bwd)

	return bwd[padLen : padLen+len(x)], nil
}

// Lowpass designs an order-N Butterworth low-pass filter and applies it with
// zero phase. This is the convenience entry point the measurement readers
// use.
func Lowpass(x []float64, cutoff, sampleRate float64, order int) ([]float64, error) {
	b, a, err := Butter(order, cutoff, sampleRate)
	if err != nil {
		return nil, err
	}
	return FiltFilt(b, a, x)
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
