package efield

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

// scopeCSV builds a synthetic scope export sampled at 1 MHz: the field probe
// reads fieldV inside the calibration epoch and the current probe holds
// currentV throughout.
func scopeCSV(samples int, currentV, fieldV float64) string {
	var sb strings.Builder
	sb.WriteString("x-axis,1,2,4\n")
	sb.WriteString("second,Volt,Volt,Volt\n")
	sb.WriteString(",,,\n")
	for i := 0; i < samples; i++ {
		ts := float64(i) * 1e-6
		f := 0.0
		if ts >= 110e-6 && ts < 170e-6 {
			f = fieldV
		}
		trig := 0.0
		if ts >= 10e-6 && ts < 20e-6 {
			trig = 5
		}
		fmt.Fprintf(&sb, "%g,%g,%g,%g\n", ts, currentV, f, trig)
	}
	return sb.String()
}

func TestReadWaveform(t *testing.T) {
	w, err := ReadWaveform(strings.NewReader(scopeCSV(250, 0.5, 0.05)))
	if err != nil {
		t.Fatalf("ReadWaveform: %v", err)
	}
	if len(w.Time) != 250 || len(w.Current) != 250 || len(w.Field) != 250 || len(w.Trigger) != 250 {
		t.Fatalf("channel lengths = %d/%d/%d/%d, want 250 each",
			len(w.Time), len(w.Current), len(w.Field), len(w.Trigger))
	}
	if fs := w.SampleRate(); math.Abs(fs-1e6) > 1 {
		t.Errorf("SampleRate = %g, want 1e6", fs)
	}
	if w.Trigger[15] != 5 {
		t.Errorf("trigger at 15 us = %g, want 5", w.Trigger[15])
	}
}

func TestReadWaveformWithoutTrigger(t *testing.T) {
	csv := "x-axis,1,2\nsecond,Volt,Volt\n,,\n0,0.5,0.1\n1e-6,0.5,0.1\n"
	w, err := ReadWaveform(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadWaveform: %v", err)
	}
	if len(w.Trigger) != 0 {
		t.Errorf("got %d trigger samples from a triggerless export", len(w.Trigger))
	}
}

func TestReadWaveformErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"missing field column", "x-axis,1\nsecond,Volt\n,\n0,1\n1e-6,1\n"},
		{"bad sample", "x-axis,1,2\ns,V,V\n,,\n0,oops,0\n"},
		{"too few samples", "x-axis,1,2\ns,V,V\n,,\n0,1,1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadWaveform(strings.NewReader(tc.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCalibrate(t *testing.T) {
	w, err := ReadWaveform(strings.NewReader(scopeCSV(250, 0.5, 0.05)))
	if err != nil {
		t.Fatalf("ReadWaveform: %v", err)
	}

	cal := Calibration{
		ReferenceFieldVm: 20,
		EpochStartMicros: 112,
		EpochEndMicros:   162,
	}
	cw, err := w.Calibrate(cal)
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}

	// 20 V/m reference over a 0.05 V epoch mean gives a scale of 400.
	if math.Abs(cw.FieldScale-400) > 1e-6 {
		t.Errorf("FieldScale = %g, want 400", cw.FieldScale)
	}
	if got := cw.FieldVm[130]; math.Abs(got-20) > 1e-6 {
		t.Errorf("field inside epoch = %g V/m, want 20", got)
	}

	// A 0.5 V Rogowski reading is 1 kA.
	if got := cw.CurrentKA[0]; math.Abs(got-1) > 1e-12 {
		t.Errorf("current = %g kA, want 1", got)
	}

	// Time converts to microseconds.
	if got := cw.TimeMicros[100]; math.Abs(got-100) > 1e-9 {
		t.Errorf("time[100] = %g us, want 100", got)
	}
	if math.Abs(cw.SampleRate-1e6) > 1 {
		t.Errorf("SampleRate = %g, want 1e6", cw.SampleRate)
	}
}

func TestCalibrateCustomRogowskiSensitivity(t *testing.T) {
	w, err := ReadWaveform(strings.NewReader(scopeCSV(250, 0.5, 0.05)))
	if err != nil {
		t.Fatalf("ReadWaveform: %v", err)
	}

	cw, err := w.Calibrate(Calibration{
		ReferenceFieldVm:       20,
		EpochStartMicros:       112,
		EpochEndMicros:         162,
		RogowskiVoltsPerAmpere: 1e-3,
	})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}

	// At 1 mV/A the same 0.5 V reading is only 0.5 kA.
	if got := cw.CurrentKA[0]; math.Abs(got-0.5) > 1e-12 {
		t.Errorf("current = %g kA, want 0.5", got)
	}
}

func TestCalibrateErrors(t *testing.T) {
	w, err := ReadWaveform(strings.NewReader(scopeCSV(250, 0.5, 0.05)))
	if err != nil {
		t.Fatalf("ReadWaveform: %v", err)
	}

	// Epoch past the end of the recording.
	_, err = w.Calibrate(Calibration{ReferenceFieldVm: 20, EpochStartMicros: 112, EpochEndMicros: 5000})
	if err == nil {
		t.Error("expected error for epoch outside recording")
	}

	// Epoch over the zero segment of the probe.
	_, err = w.Calibrate(Calibration{ReferenceFieldVm: 20, EpochStartMicros: 30, EpochEndMicros: 60})
	if err == nil {
		t.Error("expected error for zero-mean epoch")
	}
}

func TestSmooth(t *testing.T) {
	w, err := ReadWaveform(strings.NewReader(scopeCSV(500, 0.5, 0.05)))
	if err != nil {
		t.Fatalf("ReadWaveform: %v", err)
	}
	cw, err := w.Calibrate(Calibration{ReferenceFieldVm: 20, EpochStartMicros: 112, EpochEndMicros: 162})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}

	current, field, err := cw.Smooth(100e3, 2)
	if err != nil {
		t.Fatalf("Smooth: %v", err)
	}
	if len(current) != len(cw.CurrentKA) || len(field) != len(cw.FieldVm) {
		t.Fatal("smoothed channel lengths differ from input")
	}
	// The constant current channel survives filtering unchanged.
	if math.Abs(current[250]-1) > 1e-6 {
		t.Errorf("smoothed current = %g kA, want 1", current[250])
	}
	// Raw channels untouched.
	if cw.CurrentKA[250] != 1 {
		t.Errorf("raw current mutated: %g", cw.CurrentKA[250])
	}
}
