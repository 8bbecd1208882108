package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nbe-data/mtms.report/internal/units"
)

// DefaultAnalysisPath is the path to the canonical analysis defaults file.
const DefaultAnalysisPath = "config/analysis.defaults.json"

// AnalysisConfig holds the tuning parameters of the processing pipeline.
// Fields are pointers so a partial JSON file only overrides what it names;
// the Get* methods supply the manuscript's values for the rest.
type AnalysisConfig struct {
	// Waveform calibration
	ReferenceFieldVm    *float64 `json:"reference_field_vm,omitempty"`
	EpochStartMicros    *float64 `json:"epoch_start_micros,omitempty"`
	EpochEndMicros      *float64 `json:"epoch_end_micros,omitempty"`
	RogowskiSensitivity *float64 `json:"rogowski_sensitivity_v_per_a,omitempty"`

	// Display filtering
	WaveformCutoffHz *float64 `json:"waveform_cutoff_hz,omitempty"`
	ProfileCutoff    *float64 `json:"profile_cutoff,omitempty"`
	FilterOrder      *int     `json:"filter_order,omitempty"`

	// Focality estimation
	FitDegree     *int     `json:"fit_degree,omitempty"`
	PeakMinHeight *float64 `json:"peak_min_height,omitempty"`
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file. Omitted
// fields keep their defaults, so partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable by the pipeline.
func (c *AnalysisConfig) Validate() error {
	if c.ReferenceFieldVm != nil && *c.ReferenceFieldVm <= 0 {
		return fmt.Errorf("reference_field_vm must be positive, got %g", *c.ReferenceFieldVm)
	}
	if c.EpochStartMicros != nil && *c.EpochStartMicros < 0 {
		return fmt.Errorf("epoch_start_micros must be non-negative, got %g", *c.EpochStartMicros)
	}
	if c.EpochStartMicros != nil && c.EpochEndMicros != nil && *c.EpochStartMicros >= *c.EpochEndMicros {
		return fmt.Errorf("calibration epoch is empty: [%g, %g]", *c.EpochStartMicros, *c.EpochEndMicros)
	}
	if c.RogowskiSensitivity != nil && *c.RogowskiSensitivity <= 0 {
		return fmt.Errorf("rogowski_sensitivity_v_per_a must be positive, got %g", *c.RogowskiSensitivity)
	}
	if c.WaveformCutoffHz != nil && *c.WaveformCutoffHz <= 0 {
		return fmt.Errorf("waveform_cutoff_hz must be positive, got %g", *c.WaveformCutoffHz)
	}
	if c.ProfileCutoff != nil && *c.ProfileCutoff <= 0 {
		return fmt.Errorf("profile_cutoff must be positive, got %g", *c.ProfileCutoff)
	}
	if c.FilterOrder != nil && *c.FilterOrder < 1 {
		return fmt.Errorf("filter_order must be at least 1, got %d", *c.FilterOrder)
	}
	if c.FitDegree != nil && *c.FitDegree < 1 {
		return fmt.Errorf("fit_degree must be at least 1, got %d", *c.FitDegree)
	}
	if c.PeakMinHeight != nil && (*c.PeakMinHeight < 0 || *c.PeakMinHeight > 1) {
		return fmt.Errorf("peak_min_height must be between 0 and 1, got %g", *c.PeakMinHeight)
	}
	return nil
}

// GetReferenceFieldVm returns the stimulator field setting during waveform
// recording.
func (c *AnalysisConfig) GetReferenceFieldVm() float64 {
	if c.ReferenceFieldVm == nil {
		return 20
	}
	return *c.ReferenceFieldVm
}

// GetEpochStartMicros returns the start of the calibration epoch.
func (c *AnalysisConfig) GetEpochStartMicros() float64 {
	if c.EpochStartMicros == nil {
		return 112
	}
	return *c.EpochStartMicros
}

// GetEpochEndMicros returns the end of the calibration epoch.
func (c *AnalysisConfig) GetEpochEndMicros() float64 {
	if c.EpochEndMicros == nil {
		return 162
	}
	return *c.EpochEndMicros
}

// GetWaveformCutoffHz returns the waveform display filter cutoff.
func (c *AnalysisConfig) GetWaveformCutoffHz() float64 {
	if c.WaveformCutoffHz == nil {
		return 1e6
	}
	return *c.WaveformCutoffHz
}

// GetProfileCutoff returns the spatial cutoff for profile smoothing, in
// cycles per meter.
func (c *AnalysisConfig) GetProfileCutoff() float64 {
	if c.ProfileCutoff == nil {
		return 50
	}
	return *c.ProfileCutoff
}

// GetFilterOrder returns the Butterworth filter order.
func (c *AnalysisConfig) GetFilterOrder() int {
	if c.FilterOrder == nil {
		return 2
	}
	return *c.FilterOrder
}

// GetFitDegree returns the polynomial degree of the focality fit.
func (c *AnalysisConfig) GetFitDegree() int {
	if c.FitDegree == nil {
		return 20
	}
	return *c.FitDegree
}

// GetPeakMinHeight returns the minimum normalized height for peak detection.
func (c *AnalysisConfig) GetPeakMinHeight() float64 {
	if c.PeakMinHeight == nil {
		return 0.5
	}
	return *c.PeakMinHeight
}

// GetRogowskiSensitivity returns the current probe sensitivity in volts per
// ampere.
func (c *AnalysisConfig) GetRogowskiSensitivity() float64 {
	if c.RogowskiSensitivity == nil {
		return units.RogowskiVoltsPerAmpere
	}
	return *c.RogowskiSensitivity
}

// Calibration returns the waveform calibration parameters this config
// describes.
func (c *AnalysisConfig) Calibration() (referenceVm, startMicros, endMicros, rogowskiVPerA float64) {
	return c.GetReferenceFieldVm(), c.GetEpochStartMicros(), c.GetEpochEndMicros(), c.GetRogowskiSensitivity()
}
