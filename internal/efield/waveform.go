package efield

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nbe-data/mtms.report/internal/signal"
	"github.com/nbe-data/mtms.report/internal/units"
)

// Waveform is a raw oscilloscope export of one pulse: time in seconds,
// probe voltages for coil current and induced field, and the trigger line.
type Waveform struct {
	Time    []float64
	Current []float64
	Field   []float64
	Trigger []float64
}

// Scope CSV column labels. The scope writes a header row naming the
// channels by number and two rows of channel metadata before the samples.
const (
	colTime    = "x-axis"
	colCurrent = "1"
	colField   = "2"
	colTrigger = "4"
)

// metadataRows is the number of non-sample rows following the scope CSV
// header.
const metadataRows = 2

// ReadWaveform parses a scope CSV export. The two metadata rows after the
// header are skipped and columns are located by header name, so extra
// channels in the export are tolerated.
func ReadWaveform(r io.Reader) (*Waveform, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading scope header: %w", err)
	}

	idx := map[string]int{}
	for i, name := range header {
		idx[name] = i
	}
	for _, need := range []string{colTime, colCurrent, colField} {
		if _, ok := idx[need]; !ok {
			return nil, fmt.Errorf("scope export missing column %q", need)
		}
	}
	triggerIdx, hasTrigger := idx[colTrigger]

	w := &Waveform{}
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading scope row: %w", err)
		}
		row++
		if row <= metadataRows {
			continue
		}

		tv, err := strconv.ParseFloat(rec[idx[colTime]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad time value %q", row, rec[idx[colTime]])
		}
		cv, err := strconv.ParseFloat(rec[idx[colCurrent]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad current value %q", row, rec[idx[colCurrent]])
		}
		fv, err := strconv.ParseFloat(rec[idx[colField]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad field value %q", row, rec[idx[colField]])
		}

		w.Time = append(w.Time, tv)
		w.Current = append(w.Current, cv)
		w.Field = append(w.Field, fv)
		if hasTrigger && triggerIdx < len(rec) {
			gv, err := strconv.ParseFloat(rec[triggerIdx], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad trigger value %q", row, rec[triggerIdx])
			}
			w.Trigger = append(w.Trigger, gv)
		}
	}

	if len(w.Time) < 2 {
		return nil, fmt.Errorf("scope export has %d samples, need at least 2", len(w.Time))
	}
	return w, nil
}

// SampleRate returns the sampling frequency in Hz derived from the first
// two time values.
func (w *Waveform) SampleRate() float64 {
	return 1 / (w.Time[1] - w.Time[0])
}

// Calibration holds the parameters that turn raw probe voltages into
// physical units.
type Calibration struct {
	// ReferenceFieldVm is the stimulator setting during the recording;
	// the field probe is scaled so the calibration epoch averages to it.
	ReferenceFieldVm float64
	// EpochStartMicros and EpochEndMicros bound the flat segment of the
	// pulse used for scaling. The stimulator gate-out precedes the pulse
	// by 100 us, so the default epoch sits at 112-162 us.
	EpochStartMicros float64
	EpochEndMicros   float64
	// RogowskiVoltsPerAmpere is the current probe sensitivity. Zero
	// selects the stock probe's 0.5 mV/A.
	RogowskiVoltsPerAmpere float64
}

// CalibratedWaveform is a waveform converted to display units: time in
// microseconds, current in kA, field in V/m.
type CalibratedWaveform struct {
	TimeMicros []float64
	CurrentKA  []float64
	FieldVm    []float64
	Trigger    []float64

	// FieldScale is the V-per-volt factor applied to the field probe.
	FieldScale float64
	// SampleRate is the original sampling frequency in Hz, kept for
	// filtering after conversion.
	SampleRate float64
}

// Calibrate converts the waveform to physical units. The field scale is the
// reference field divided by the mean probe voltage over the calibration
// epoch.
func (w *Waveform) Calibrate(cal Calibration) (*CalibratedWaveform, error) {
	fs := w.SampleRate()
	if fs <= 0 {
		return nil, fmt.Errorf("non-increasing time axis")
	}

	start := int(cal.EpochStartMicros * fs / 1e6)
	end := int(cal.EpochEndMicros * fs / 1e6)
	if start < 0 || end > len(w.Field) || start >= end {
		return nil, fmt.Errorf("calibration epoch [%g, %g] us outside recording", cal.EpochStartMicros, cal.EpochEndMicros)
	}

	var sum float64
	for _, v := range w.Field[start:end] {
		sum += v
	}
	mean := sum / float64(end-start)
	if mean == 0 {
		return nil, fmt.Errorf("calibration epoch mean is zero")
	}
	scale := cal.ReferenceFieldVm / mean

	sensitivity := cal.RogowskiVoltsPerAmpere
	if sensitivity == 0 {
		sensitivity = units.RogowskiVoltsPerAmpere
	}

	cw := &CalibratedWaveform{
		TimeMicros: make([]float64, len(w.Time)),
		CurrentKA:  make([]float64, len(w.Current)),
		FieldVm:    make([]float64, len(w.Field)),
		Trigger:    append([]float64(nil), w.Trigger...),
		FieldScale: scale,
		SampleRate: fs,
	}
	for i := range w.Time {
		cw.TimeMicros[i] = units.MicrosecondsFromSeconds(w.Time[i])
		cw.CurrentKA[i] = units.KiloamperesFromProbe(w.Current[i], sensitivity)
		cw.FieldVm[i] = w.Field[i] * scale
	}
	return cw, nil
}

// Smooth low-passes the current and field channels for display. The raw
// channels are left untouched.
func (cw *CalibratedWaveform) Smooth(cutoffHz float64, order int) (currentKA, fieldVm []float64, err error) {
	currentKA, err = signal.Lowpass(cw.CurrentKA, cutoffHz, cw.SampleRate, order)
	if err != nil {
		return nil, nil, fmt.Errorf("filtering current: %w", err)
	}
	fieldVm, err = signal.Lowpass(cw.FieldVm, cutoffHz, cw.SampleRate, order)
	if err != nil {
		return nil, nil, fmt.Errorf("filtering field: %w", err)
	}
	return currentKA, fieldVm, nil
}
