// Package efield reads and calibrates the E-field measurements taken from
// the 2-coil transducer: oscilloscope waveform exports, spatial intensity
// profiles from the field characterizer, and full 3D vector maps.
package efield

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FieldVector is a single sampled E-field vector from the characterizer.
type FieldVector struct {
	// Pos is the probe position in meters.
	Pos [3]float64
	// Field is the induced E-field in V/m. The characterizer reports the
	// field with inverted polarity, so the reader negates each component.
	Field [3]float64
	// Unit is Field scaled to norm 1, for direction-only rendering.
	Unit [3]float64
	// Norm is the magnitude of Field.
	Norm float64
}

// FieldMap holds the vectors of one orientation map, sorted by ascending Z.
type FieldMap struct {
	Vectors []FieldVector
}

// ReadMap parses a characterizer map file: whitespace-separated rows of
// x y z Ex Ey Ez. Field components are negated, per-vector norms and unit
// vectors computed, and rows sorted by ascending Z coordinate.
func ReadMap(r io.Reader) (*FieldMap, error) {
	scanner := bufio.NewScanner(r)
	var vectors []FieldVector
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			return nil, fmt.Errorf("line %d: expected 6 columns, got %d", lineNo, len(fields))
		}
		var vals [6]float64
		for i := 0; i < 6; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", lineNo, i+1, err)
			}
			vals[i] = v
		}

		fv := FieldVector{
			Pos:   [3]float64{vals[0], vals[1], vals[2]},
			Field: [3]float64{-vals[3], -vals[4], -vals[5]},
		}
		fv.Norm = math.Sqrt(fv.Field[0]*fv.Field[0] + fv.Field[1]*fv.Field[1] + fv.Field[2]*fv.Field[2])
		if fv.Norm > 0 {
			for i := 0; i < 3; i++ {
				fv.Unit[i] = fv.Field[i] / fv.Norm
			}
		}
		vectors = append(vectors, fv)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading map: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("map contains no vectors")
	}

	sort.SliceStable(vectors, func(a, b int) bool {
		return vectors[a].Pos[2] < vectors[b].Pos[2]
	})
	return &FieldMap{Vectors: vectors}, nil
}

// NormalizedNorms returns the vector magnitudes rescaled so the weakest
// sample maps to 0 and the strongest to 1, the scale the map figures color
// by.
func (m *FieldMap) NormalizedNorms() []float64 {
	if len(m.Vectors) == 0 {
		return nil
	}
	lo, hi := m.Vectors[0].Norm, m.Vectors[0].Norm
	for _, v := range m.Vectors {
		if v.Norm < lo {
			lo = v.Norm
		}
		if v.Norm > hi {
			hi = v.Norm
		}
	}
	out := make([]float64, len(m.Vectors))
	if hi == lo {
		return out
	}
	for i, v := range m.Vectors {
		out[i] = (v.Norm - lo) / (hi - lo)
	}
	return out
}

// ScalePositions multiplies every position component by f. The maps are
// recorded in meters and rendered in millimeters.
func (m *FieldMap) ScalePositions(f float64) {
	for i := range m.Vectors {
		for j := 0; j < 3; j++ {
			m.Vectors[i].Pos[j] *= f
		}
	}
}

// Downsample keeps the first head vectors and every stride-th vector of the
// remainder, thinning dense quiver renderings while preserving the region
// closest to the coil.
func (m *FieldMap) Downsample(head, stride int) *FieldMap {
	if stride < 1 {
		stride = 1
	}
	if head > len(m.Vectors) {
		head = len(m.Vectors)
	}
	out := make([]FieldVector, 0, len(m.Vectors))
	out = append(out, m.Vectors[:head]...)
	for i := head; i < len(m.Vectors); i += stride {
		out = append(out, m.Vectors[i])
	}
	return &FieldMap{Vectors: out}
}
