package signal

import (
	"math"
	"testing"
)

func TestRescale(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"simple ramp", []float64{0, 1, 2}, []float64{0, 0.5, 1}},
		{"negative minimum", []float64{-1, 0, 3}, []float64{-1, -0.5, 1}},
		{"flat signal unchanged", []float64{2, 2, 2}, []float64{2, 2, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Rescale(tc.in)
			for i := range tc.want {
				if math.Abs(got[i]-tc.want[i]) > 1e-12 {
					t.Errorf("Rescale[%d] = %g, want %g", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestFWHMCosineLobe(t *testing.T) {
	// cos(pi*x/100) over x in [-50, 50] has its half-power width at
	// exactly half the support, 50 mm.
	n := 201
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = -50 + float64(i)*0.5
		y[i] = math.Cos(math.Pi * x[i] / 100)
	}

	res, err := FWHM(x, y, 10, 0.5)
	if err != nil {
		t.Fatalf("FWHM: %v", err)
	}
	if math.Abs(res.Width-50) > 1 {
		t.Errorf("Width = %g, want 50 within 1 mm", res.Width)
	}
	if math.Abs(res.Height-1/math.Sqrt2) > 0.05 {
		t.Errorf("Height = %g, want about %g", res.Height, 1/math.Sqrt2)
	}
}

func TestFWHMNarrowerLobeGivesSmallerWidth(t *testing.T) {
	n := 201
	x := make([]float64, n)
	wide := make([]float64, n)
	narrow := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = -50 + float64(i)*0.5
		c := math.Cos(math.Pi * x[i] / 100)
		wide[i] = c
		narrow[i] = c * c * c
	}

	w, err := FWHM(x, wide, 10, 0.5)
	if err != nil {
		t.Fatalf("FWHM wide: %v", err)
	}
	nw, err := FWHM(x, narrow, 10, 0.5)
	if err != nil {
		t.Fatalf("FWHM narrow: %v", err)
	}
	if nw.Width >= w.Width {
		t.Errorf("narrow lobe width %g not smaller than wide lobe width %g", nw.Width, w.Width)
	}
}

func TestFWHMMinHeightThreshold(t *testing.T) {
	n := 201
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = -50 + float64(i)*0.5
		y[i] = math.Cos(math.Pi * x[i] / 100)
	}

	// The rescaled peak sits at exactly 1, so a threshold just below it
	// still finds the lobe and one above it finds nothing.
	if _, err := FWHM(x, y, 10, 0.95); err != nil {
		t.Errorf("FWHM with threshold 0.95: %v", err)
	}
	if _, err := FWHM(x, y, 10, 1.5); err == nil {
		t.Error("expected no peak above an impossible threshold")
	}
}

func TestFWHMErrors(t *testing.T) {
	if _, err := FWHM([]float64{1}, []float64{1}, 2, 0.5); err == nil {
		t.Error("expected error for a single sample")
	}
	if _, err := FWHM([]float64{2, 1, 0}, []float64{0, 1, 0}, 2, 0.5); err == nil {
		t.Error("expected error for a decreasing axis")
	}

	// A monotonic ramp rescales to [0, 1] with the maximum at the edge,
	// so no interior peak exists.
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	y := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	if _, err := FWHM(x, y, 3, 0.5); err == nil {
		t.Error("expected error when no peak is found")
	}
}
