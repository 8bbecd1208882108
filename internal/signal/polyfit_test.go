package signal

import (
	"math"
	"testing"
)

func TestPolyfitRecoversQuadratic(t *testing.T) {
	want := Polynomial{2, -3, 0.5}
	x := []float64{-2, -1, 0, 1, 2, 3}
	y := want.EvalAll(x)

	got, err := Polyfit(x, y, 2)
	if err != nil {
		t.Fatalf("Polyfit: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d coefficients, want 3", len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("coefficient %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestPolyfitHigherDegreeInterpolates(t *testing.T) {
	// A degree-5 fit of a cubic must still reproduce the samples.
	cubic := Polynomial{1, 0, -2, 0.25}
	x := make([]float64, 12)
	for i := range x {
		x[i] = -1 + float64(i)/5.5
	}
	y := cubic.EvalAll(x)

	fit, err := Polyfit(x, y, 5)
	if err != nil {
		t.Fatalf("Polyfit: %v", err)
	}
	for i, xi := range x {
		if got := fit.Eval(xi); math.Abs(got-y[i]) > 1e-8 {
			t.Errorf("fit(%g) = %g, want %g", xi, got, y[i])
		}
	}
}

func TestPolyfitErrors(t *testing.T) {
	if _, err := Polyfit([]float64{1, 2}, []float64{1}, 1); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := Polyfit([]float64{1, 2}, []float64{1, 2}, 3); err == nil {
		t.Error("expected error for degree exceeding sample count")
	}
	if _, err := Polyfit([]float64{1, 2}, []float64{1, 2}, -1); err == nil {
		t.Error("expected error for negative degree")
	}
}

func TestPolynomialEval(t *testing.T) {
	p := Polynomial{1, 2, 3} // 1 + 2x + 3x^2
	cases := []struct {
		x, want float64
	}{
		{0, 1},
		{1, 6},
		{-1, 2},
		{2, 17},
	}
	for _, tc := range cases {
		if got := p.Eval(tc.x); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Eval(%g) = %g, want %g", tc.x, got, tc.want)
		}
	}

	all := p.EvalAll([]float64{0, 1, -1, 2})
	want := []float64{1, 6, 2, 17}
	for i := range want {
		if math.Abs(all[i]-want[i]) > 1e-12 {
			t.Errorf("EvalAll[%d] = %g, want %g", i, all[i], want[i])
		}
	}
}
