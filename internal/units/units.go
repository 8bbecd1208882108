// Package units provides shared constants and conversions for the
// measurement quantities the pipeline passes around: induced E-field,
// coil current, MEP amplitude and latency, and stimulus orientation.
package units

import "math"

// Amplitude display units
const (
	Microvolts = "uv"
	Millivolts = "mv"
)

// ValidAmplitudeUnits contains all valid amplitude unit values
var ValidAmplitudeUnits = []string{Microvolts, Millivolts}

// IsValidAmplitudeUnit checks if the given unit is in the list of valid units
func IsValidAmplitudeUnit(unit string) bool {
	for _, valid := range ValidAmplitudeUnits {
		if unit == valid {
			return true
		}
	}
	return false
}

// ConvertAmplitude converts an amplitude from microvolts to the target units
// Database stores MEP amplitudes in microvolts
func ConvertAmplitude(amplitudeUV float64, targetUnits string) float64 {
	switch targetUnits {
	case Millivolts:
		return amplitudeUV / 1000
	case Microvolts:
		return amplitudeUV
	default:
		return amplitudeUV
	}
}

// RogowskiVoltsPerAmpere is the sensitivity of the current probe used for
// the transducer measurements: 0.5 mV per ampere.
const RogowskiVoltsPerAmpere = 0.5e-3

// KiloamperesFromProbe converts a raw probe voltage to coil current in kA
// for a probe of the given sensitivity. Scope voltage divided by the
// sensitivity gives amperes; the extra 1e3 takes the value straight to
// kiloamperes.
func KiloamperesFromProbe(volts, sensitivityVPerA float64) float64 {
	return volts / sensitivityVPerA / 1e3
}

// KiloamperesFromRogowski converts a raw Rogowski probe voltage to coil
// current in kA at the stock probe sensitivity.
func KiloamperesFromRogowski(volts float64) float64 {
	return KiloamperesFromProbe(volts, RogowskiVoltsPerAmpere)
}

// MicrosecondsFromSeconds converts scope time axis values to microseconds.
func MicrosecondsFromSeconds(seconds float64) float64 {
	return seconds * 1e6
}

// MillimetersFromMeters converts mapper coordinates to millimeters.
func MillimetersFromMeters(meters float64) float64 {
	return meters * 1000
}

// WrapOrientationDeg maps an orientation in [0, 360) to the signed
// (-180, 180] range used when summarising MEP responses so that the
// anterior direction sits at the centre of the axis.
func WrapOrientationDeg(deg float64) float64 {
	if deg > 180 {
		return deg - 360
	}
	return deg
}

// OrientationRad converts a stimulus orientation from degrees to radians.
func OrientationRad(deg float64) float64 {
	return deg * math.Pi / 180
}
