// Package mep reads and summarizes motor evoked potential measurements from
// the rat EMG recordings: peak-to-peak amplitude and onset latency per pulse,
// across both brain hemispheres, both paws and eight coil orientations.
package mep

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/nbe-data/mtms.report/internal/units"
)

// MEP side relative to the stimulated hemisphere.
const (
	SideIpsilateral   = "ipsilateral"
	SideContralateral = "contralateral"
)

// Measurement is one pulse's EMG response.
type Measurement struct {
	// Brain is the stimulated hemisphere, "left" or "right".
	Brain string
	// Paw is the recorded limb, "left" or "right".
	Paw string
	// OrientationDeg is the coil orientation wrapped to (-180, 180].
	OrientationDeg float64
	// AmplitudeMicrovolts is the peak-to-peak MEP amplitude.
	AmplitudeMicrovolts float64
	// LatencyMs is the MEP onset latency. Zero means no onset was detected.
	LatencyMs float64
	// Side is ipsilateral when Brain == Paw, contralateral otherwise.
	Side string
}

// measurement CSV column labels
const (
	colBrain       = "brain"
	colPaw         = "paw"
	colOrientation = "orientation"
	colAmplitude   = "amplitude"
	colLatency     = "latency"
)

// ReadMeasurements parses the MEP table. Orientations above 180 degrees are
// wrapped to their negative equivalent and rows come back sorted by brain,
// paw and orientation.
func ReadMeasurements(r io.Reader) ([]Measurement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading MEP header: %w", err)
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[name] = i
	}
	for _, need := range []string{colBrain, colPaw, colOrientation, colAmplitude, colLatency} {
		if _, ok := idx[need]; !ok {
			return nil, fmt.Errorf("MEP table missing column %q", need)
		}
	}

	var ms []Measurement
	row := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading MEP row: %w", err)
		}
		row++

		deg, err := strconv.ParseFloat(rec[idx[colOrientation]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad orientation %q", row, rec[idx[colOrientation]])
		}
		amp, err := strconv.ParseFloat(rec[idx[colAmplitude]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad amplitude %q", row, rec[idx[colAmplitude]])
		}
		lat, err := strconv.ParseFloat(rec[idx[colLatency]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad latency %q", row, rec[idx[colLatency]])
		}

		m := Measurement{
			Brain:               rec[idx[colBrain]],
			Paw:                 rec[idx[colPaw]],
			OrientationDeg:      units.WrapOrientationDeg(deg),
			AmplitudeMicrovolts: amp,
			LatencyMs:           lat,
		}
		m.Side = sideLabel(m.Brain, m.Paw)
		ms = append(ms, m)
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("MEP table contains no measurements")
	}

	sort.SliceStable(ms, func(a, b int) bool {
		if ms[a].Brain != ms[b].Brain {
			return ms[a].Brain < ms[b].Brain
		}
		if ms[a].Paw != ms[b].Paw {
			return ms[a].Paw < ms[b].Paw
		}
		return ms[a].OrientationDeg < ms[b].OrientationDeg
	})
	return ms, nil
}

func sideLabel(brain, paw string) string {
	if brain == paw {
		return SideIpsilateral
	}
	return SideContralateral
}

// Summary aggregates one brain x side x orientation group.
type Summary struct {
	Brain          string
	Side           string
	OrientationDeg float64

	// MedianAmplitudeMicrovolts covers every pulse in the group.
	MedianAmplitudeMicrovolts float64
	// MedianLatencyMs covers only pulses with a detected onset; zero
	// latencies are excluded. It is 0 when no pulse in the group has one.
	MedianLatencyMs float64

	Pulses        int
	LatencyPulses int
}

// Summarize groups measurements by brain, MEP side and orientation and takes
// the median amplitude and latency of each group.
func Summarize(ms []Measurement) ([]Summary, error) {
	type key struct {
		brain, side string
		deg         float64
	}
	groups := map[key][]Measurement{}
	var order []key
	for _, m := range ms {
		k := key{m.Brain, m.Side, m.OrientationDeg}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], m)
	}

	sort.SliceStable(order, func(a, b int) bool {
		if order[a].brain != order[b].brain {
			return order[a].brain < order[b].brain
		}
		if order[a].side != order[b].side {
			return order[a].side < order[b].side
		}
		return order[a].deg < order[b].deg
	})

	summaries := make([]Summary, 0, len(order))
	for _, k := range order {
		group := groups[k]
		amps := make([]float64, len(group))
		var lats []float64
		for i, m := range group {
			amps[i] = m.AmplitudeMicrovolts
			if m.LatencyMs != 0 {
				lats = append(lats, m.LatencyMs)
			}
		}

		s := Summary{
			Brain:          k.brain,
			Side:           k.side,
			OrientationDeg: k.deg,
			Pulses:         len(group),
			LatencyPulses:  len(lats),
		}
		med, err := stats.Median(amps)
		if err != nil {
			return nil, fmt.Errorf("amplitude median for %s/%s/%g: %w", k.brain, k.side, k.deg, err)
		}
		s.MedianAmplitudeMicrovolts = med
		if len(lats) > 0 {
			med, err = stats.Median(lats)
			if err != nil {
				return nil, fmt.Errorf("latency median for %s/%s/%g: %w", k.brain, k.side, k.deg, err)
			}
			s.MedianLatencyMs = med
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
