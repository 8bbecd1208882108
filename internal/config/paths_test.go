package config

import (
	"path/filepath"
	"testing"
)

func TestLoadPathsDefaults(t *testing.T) {
	p, err := LoadPaths()
	if err != nil {
		t.Fatalf("LoadPaths: %v", err)
	}
	if p.MEP != filepath.Join(".", "data", "mep") {
		t.Errorf("MEP = %q, want default under root", p.MEP)
	}
	if p.SavePlot != filepath.Join(".", "plots") {
		t.Errorf("SavePlot = %q, want default under root", p.SavePlot)
	}
}

func TestLoadPathsFromEnvironment(t *testing.T) {
	t.Setenv("DIR_ROOT", "/measurements")
	t.Setenv("DIR_MEP", "emg/mep")
	t.Setenv("DIR_SAVE_PLOT", "/srv/plots")

	p, err := LoadPaths()
	if err != nil {
		t.Fatalf("LoadPaths: %v", err)
	}
	if want := filepath.Join("/measurements", "emg", "mep"); p.MEP != want {
		t.Errorf("MEP = %q, want %q", p.MEP, want)
	}
	// Absolute directories are not re-anchored.
	if p.SavePlot != "/srv/plots" {
		t.Errorf("SavePlot = %q, want /srv/plots", p.SavePlot)
	}
	if want := filepath.Join("/measurements", "data", "mri"); p.MRI != want {
		t.Errorf("MRI = %q, want %q", p.MRI, want)
	}
}

func TestPathHelpers(t *testing.T) {
	p := &Paths{MEP: "/data/mep", EfieldCurrent: "/data/efield"}
	if got, want := p.MEPTable(), "/data/mep/mep_amplitude_latency.csv"; got != want {
		t.Errorf("MEPTable = %q, want %q", got, want)
	}
	if got, want := p.ProfileFile("parallel"), "/data/efield/efield_profile_parallel.csv"; got != want {
		t.Errorf("ProfileFile = %q, want %q", got, want)
	}
}
