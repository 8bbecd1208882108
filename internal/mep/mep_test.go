package mep

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleTable = `brain,paw,orientation,amplitude,latency
right,left,270,40,6.5
left,left,0,10,5.0
left,left,0,30,5.5
left,right,45,80,4.5
left,right,45,100,0
left,left,225,20,0
`

func TestReadMeasurements(t *testing.T) {
	ms, err := ReadMeasurements(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("ReadMeasurements: %v", err)
	}
	if len(ms) != 6 {
		t.Fatalf("got %d measurements, want 6", len(ms))
	}

	// Sorted by brain, paw, orientation; 225 wraps to -135 and 270 to -90.
	wantOrder := []struct {
		brain, paw string
		deg        float64
		side       string
	}{
		{"left", "left", -135, SideIpsilateral},
		{"left", "left", 0, SideIpsilateral},
		{"left", "left", 0, SideIpsilateral},
		{"left", "right", 45, SideContralateral},
		{"left", "right", 45, SideContralateral},
		{"right", "left", -90, SideContralateral},
	}
	for i, w := range wantOrder {
		m := ms[i]
		if m.Brain != w.brain || m.Paw != w.paw || m.OrientationDeg != w.deg || m.Side != w.side {
			t.Errorf("row %d = %s/%s/%g/%s, want %s/%s/%g/%s",
				i, m.Brain, m.Paw, m.OrientationDeg, m.Side, w.brain, w.paw, w.deg, w.side)
		}
	}
}

func TestReadMeasurementsErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"missing column", "brain,paw,orientation,amplitude\nleft,left,0,10\n"},
		{"bad orientation", "brain,paw,orientation,amplitude,latency\nleft,left,oops,10,5\n"},
		{"empty table", "brain,paw,orientation,amplitude,latency\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadMeasurements(strings.NewReader(tc.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	ms, err := ReadMeasurements(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("ReadMeasurements: %v", err)
	}
	got, err := Summarize(ms)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	want := []Summary{
		{
			Brain: "left", Side: SideContralateral, OrientationDeg: 45,
			MedianAmplitudeMicrovolts: 90, MedianLatencyMs: 4.5,
			Pulses: 2, LatencyPulses: 1,
		},
		{
			Brain: "left", Side: SideIpsilateral, OrientationDeg: -135,
			MedianAmplitudeMicrovolts: 20, MedianLatencyMs: 0,
			Pulses: 1, LatencyPulses: 0,
		},
		{
			Brain: "left", Side: SideIpsilateral, OrientationDeg: 0,
			MedianAmplitudeMicrovolts: 20, MedianLatencyMs: 5.25,
			Pulses: 2, LatencyPulses: 2,
		},
		{
			Brain: "right", Side: SideContralateral, OrientationDeg: -90,
			MedianAmplitudeMicrovolts: 40, MedianLatencyMs: 6.5,
			Pulses: 1, LatencyPulses: 1,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeExcludesZeroLatency(t *testing.T) {
	ms := []Measurement{
		{Brain: "left", Paw: "left", Side: SideIpsilateral, AmplitudeMicrovolts: 10, LatencyMs: 0},
		{Brain: "left", Paw: "left", Side: SideIpsilateral, AmplitudeMicrovolts: 20, LatencyMs: 8},
		{Brain: "left", Paw: "left", Side: SideIpsilateral, AmplitudeMicrovolts: 30, LatencyMs: 6},
	}
	got, err := Summarize(ms)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d summaries, want 1", len(got))
	}
	s := got[0]
	if s.MedianAmplitudeMicrovolts != 20 {
		t.Errorf("median amplitude = %g, want 20 (all pulses counted)", s.MedianAmplitudeMicrovolts)
	}
	if s.MedianLatencyMs != 7 {
		t.Errorf("median latency = %g, want 7 (zero latency excluded)", s.MedianLatencyMs)
	}
	if s.Pulses != 3 || s.LatencyPulses != 2 {
		t.Errorf("counts = %d/%d, want 3/2", s.Pulses, s.LatencyPulses)
	}
}
