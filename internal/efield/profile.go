package efield

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nbe-data/mtms.report/internal/signal"
)

// Profile directions as measured on the bench: along the coil winding and
// across it.
const (
	DirectionParallel      = "parallel"
	DirectionPerpendicular = "perpendicular"
)

// Profile is a normalized E-field intensity line scan under the transducer,
// one column per coil.
type Profile struct {
	Direction string
	XMm       []float64
	Top       []float64
	Bottom    []float64
}

// profile CSV column labels
const (
	colXMm    = "x_mm"
	colTop    = "efield_top"
	colBottom = "efield_bottom"
)

// ReadProfile parses a profile CSV with columns x_mm, efield_top,
// efield_bottom.
func ReadProfile(r io.Reader, direction string) (*Profile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading profile header: %w", err)
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[name] = i
	}
	for _, need := range []string{colXMm, colTop, colBottom} {
		if _, ok := idx[need]; !ok {
			return nil, fmt.Errorf("profile missing column %q", need)
		}
	}

	p := &Profile{Direction: direction}
	row := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading profile row: %w", err)
		}
		row++

		x, err := strconv.ParseFloat(rec[idx[colXMm]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad x_mm %q", row, rec[idx[colXMm]])
		}
		top, err := strconv.ParseFloat(rec[idx[colTop]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad efield_top %q", row, rec[idx[colTop]])
		}
		bottom, err := strconv.ParseFloat(rec[idx[colBottom]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad efield_bottom %q", row, rec[idx[colBottom]])
		}

		p.XMm = append(p.XMm, x)
		p.Top = append(p.Top, top)
		p.Bottom = append(p.Bottom, bottom)
	}
	if len(p.XMm) < 2 {
		return nil, fmt.Errorf("profile has %d samples, need at least 2", len(p.XMm))
	}
	return p, nil
}

// SpatialSampleRate returns samples per meter derived from the millimeter
// step of the scan.
func (p *Profile) SpatialSampleRate() float64 {
	return 1e3 / (p.XMm[1] - p.XMm[0])
}

// Smooth low-passes both coil profiles at the given spatial cutoff
// (cycles per meter) and re-anchors each so the peak sits at 1 again: the
// filter can pull the normalized maximum slightly below unity.
func (p *Profile) Smooth(cutoff float64, order int) (top, bottom []float64, err error) {
	fs := p.SpatialSampleRate()
	top, err = signal.Lowpass(p.Top, cutoff, fs, order)
	if err != nil {
		return nil, nil, fmt.Errorf("filtering top profile: %w", err)
	}
	bottom, err = signal.Lowpass(p.Bottom, cutoff, fs, order)
	if err != nil {
		return nil, nil, fmt.Errorf("filtering bottom profile: %w", err)
	}
	return signal.Rescale(top), signal.Rescale(bottom), nil
}

// Focality measures each coil's full width at half maximum on the raw
// profile. Degree is the polynomial smoothing order used by the FWHM
// estimator and minHeight the normalised peak detection threshold.
func (p *Profile) Focality(degree int, minHeight float64) (top, bottom signal.FWHMResult, err error) {
	top, err = signal.FWHM(p.XMm, p.Top, degree, minHeight)
	if err != nil {
		return top, bottom, fmt.Errorf("top coil focality: %w", err)
	}
	bottom, err = signal.FWHM(p.XMm, p.Bottom, degree, minHeight)
	if err != nil {
		return top, bottom, fmt.Errorf("bottom coil focality: %w", err)
	}
	return top, bottom, nil
}
