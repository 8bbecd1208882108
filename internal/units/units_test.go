package units

import (
	"math"
	"testing"
)

func TestConvertAmplitude(t *testing.T) {
	tests := []struct {
		name        string
		amplitudeUV float64
		units       string
		expected    float64
	}{
		{"1500 uV to mV", 1500.0, Millivolts, 1.5},
		{"1500 uV stays uV", 1500.0, Microvolts, 1500.0},
		{"unknown units default to uV", 42.0, "unknown", 42.0},
		{"zero amplitude", 0.0, Millivolts, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertAmplitude(tt.amplitudeUV, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertAmplitude(%f, %s) = %f, want %f", tt.amplitudeUV, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValidAmplitudeUnit(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid uv", Microvolts, true},
		{"valid mv", Millivolts, true},
		{"invalid unit", "volts", false},
		{"empty string", "", false},
		{"case sensitive", "UV", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAmplitudeUnit(tt.unit); got != tt.expected {
				t.Errorf("IsValidAmplitudeUnit(%s) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestKiloamperesFromRogowski(t *testing.T) {
	// A 0.5 V probe reading corresponds to 1000 A, which is 1 kA.
	if got := KiloamperesFromRogowski(0.5); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("KiloamperesFromRogowski(0.5) = %f, want 1.0", got)
	}
	if got := KiloamperesFromRogowski(0.0); got != 0 {
		t.Errorf("KiloamperesFromRogowski(0) = %f, want 0", got)
	}
	// Negative probe voltage means reversed current direction.
	if got := KiloamperesFromRogowski(-0.25); math.Abs(got+0.5) > 1e-12 {
		t.Errorf("KiloamperesFromRogowski(-0.25) = %f, want -0.5", got)
	}
}

func TestTimeAndDistanceConversions(t *testing.T) {
	if got := MicrosecondsFromSeconds(1e-4); math.Abs(got-100) > 1e-9 {
		t.Errorf("MicrosecondsFromSeconds(1e-4) = %f, want 100", got)
	}
	if got := MillimetersFromMeters(0.07); math.Abs(got-70) > 1e-9 {
		t.Errorf("MillimetersFromMeters(0.07) = %f, want 70", got)
	}
}

func TestWrapOrientationDeg(t *testing.T) {
	tests := []struct {
		name     string
		deg      float64
		expected float64
	}{
		{"zero unchanged", 0, 0},
		{"45 unchanged", 45, 45},
		{"180 unchanged", 180, 180},
		{"225 wraps to -135", 225, -135},
		{"270 wraps to -90", 270, -90},
		{"315 wraps to -45", 315, -45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapOrientationDeg(tt.deg); got != tt.expected {
				t.Errorf("WrapOrientationDeg(%f) = %f, want %f", tt.deg, got, tt.expected)
			}
		})
	}
}

func TestOrientationRad(t *testing.T) {
	if got := OrientationRad(180); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("OrientationRad(180) = %f, want pi", got)
	}
	if got := OrientationRad(-90); math.Abs(got+math.Pi/2) > 1e-12 {
		t.Errorf("OrientationRad(-90) = %f, want -pi/2", got)
	}
}
