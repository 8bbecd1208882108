package signal

import (
	"fmt"
	"math"
)

// halfMaxRelHeight positions the width evaluation at 1/sqrt(2) of the peak,
// the definition used for induced E-field focality.
var halfMaxRelHeight = 1 - 1/math.Sqrt2

// FWHMResult describes the full width at half maximum of the dominant peak
// in a spatial profile.
type FWHMResult struct {
	// Width is the FWHM in the units of the x axis.
	Width float64
	// Height is the evaluation height in normalised profile units.
	Height float64
	// LeftIndex and RightIndex are the rounded crossing sample positions.
	LeftIndex  int
	RightIndex int
}

// Rescale maps y so that its minimum is preserved and its maximum becomes 1:
// y' = min + (y-min)(1-min)/(max-min). Profiles normalised this way keep
// negative side lobes visible while anchoring the peak at unity.
func Rescale(y []float64) []float64 {
	if len(y) == 0 {
		return nil
	}
	lo, hi := y[0], y[0]
	for _, v := range y {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(y))
	if hi == lo {
		copy(out, y)
		return out
	}
	for i, v := range y {
		out[i] = lo + (v-lo)*(1-lo)/(hi-lo)
	}
	return out
}

// FWHM estimates the full width at half maximum of the profile y sampled at
// evenly spaced positions x. The raw profile is smoothed with a polynomial
// fit of the given degree, rescaled so the peak sits at 1, and the width is
// measured on the absolute value so that negative lobes do not shift the
// baseline. Peaks below minHeight, in normalised profile units, are
// ignored.
func FWHM(x, y []float64, degree int, minHeight float64) (FWHMResult, error) {
	if len(x) < 2 {
		return FWHMResult{}, fmt.Errorf("profile needs at least two samples, got %d", len(x))
	}
	step := x[1] - x[0]
	if step <= 0 {
		return FWHMResult{}, fmt.Errorf("x must be increasing, got step %g", step)
	}

	// Fit on a [-1, 1] domain: high-degree Vandermonde systems on a
	// millimeter axis are too ill-conditioned to solve directly.
	mid := (x[len(x)-1] + x[0]) / 2
	half := (x[len(x)-1] - x[0]) / 2
	u := make([]float64, len(x))
	for i, xi := range x {
		u[i] = (xi - mid) / half
	}

	poly, err := Polyfit(u, y, degree)
	if err != nil {
		return FWHMResult{}, err
	}
	fit := Rescale(poly.EvalAll(u))

	abs := make([]float64, len(fit))
	for i, v := range fit {
		abs[i] = math.Abs(v)
	}

	peaks := FindPeaks(abs, minHeight)
	if len(peaks) == 0 {
		return FWHMResult{}, fmt.Errorf("no peak above height %g in profile", minHeight)
	}

	widths, err := PeakWidths(abs, peaks, halfMaxRelHeight)
	if err != nil {
		return FWHMResult{}, err
	}

	w := widths[0]
	return FWHMResult{
		Width:      w.Width * step,
		Height:     w.Height,
		LeftIndex:  int(math.Round(w.Left)),
		RightIndex: int(math.Round(w.Right)),
	}, nil
}
