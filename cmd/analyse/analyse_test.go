package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nbe-data/mtms.report/internal/efield"
)

func TestFindWaveforms(t *testing.T) {
	dir := t.TempDir()
	recordings := []string{
		"current_waveform_nautilus_20Vm_monophasic_top.csv",
		"current_waveform_nautilus_20Vm_monophasic_bottom.csv",
	}
	for _, name := range append(recordings, "efield_map.txt", "mep_table.csv") {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	found, err := findWaveforms(dir)
	if err != nil {
		t.Fatalf("findWaveforms: %v", err)
	}
	if len(found) != len(recordings) {
		t.Fatalf("found %d recordings, want %d: %v", len(found), len(recordings), found)
	}
	for _, path := range found {
		base := filepath.Base(path)
		if base != recordings[0] && base != recordings[1] {
			t.Errorf("unexpected match %s", base)
		}
	}
}

func TestPickCoilPair(t *testing.T) {
	top := &efield.CalibratedWaveform{}
	bottom := &efield.CalibratedWaveform{}

	gotTop, gotBottom := pickCoilPair(map[string]*efield.CalibratedWaveform{
		"current_waveform_nautilus_20Vm_monophasic_top":    top,
		"current_waveform_nautilus_20Vm_monophasic_bottom": bottom,
	})
	if gotTop != top {
		t.Error("top recording not identified")
	}
	if gotBottom != bottom {
		t.Error("bottom recording not identified")
	}

	gotTop, gotBottom = pickCoilPair(map[string]*efield.CalibratedWaveform{
		"current_waveform_nautilus_20Vm_monophasic_top": top,
	})
	if gotTop != top || gotBottom != nil {
		t.Error("lone top recording should not produce a pair")
	}
}

func TestFindWaveformsEmptyDir(t *testing.T) {
	found, err := findWaveforms(t.TempDir())
	if err != nil {
		t.Fatalf("findWaveforms: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("found %v in an empty directory", found)
	}
}
