// Command analyse runs the batch measurement pipeline: it ingests the MEP
// table, measures profile focality, calibrates waveform recordings, stores
// the results under a fresh run ID and renders the figures.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	_ "modernc.org/sqlite"

	"github.com/nbe-data/mtms.report/internal/config"
	"github.com/nbe-data/mtms.report/internal/db"
	"github.com/nbe-data/mtms.report/internal/efield"
	"github.com/nbe-data/mtms.report/internal/figures"
	"github.com/nbe-data/mtms.report/internal/mep"
)

var (
	dbFile     = flag.String("db", "mtms.db", "Path to the sqlite database")
	configFile = flag.String("config", "", "Analysis tuning file (JSON); defaults apply when empty")
)

func main() {
	flag.Parse()

	cfg := config.EmptyAnalysisConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadAnalysisConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load analysis config: %v", err)
		}
	}

	paths, err := config.LoadPaths()
	if err != nil {
		log.Fatalf("failed to load data paths: %v", err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	runID := uuid.New().String()
	log.Printf("analysis run %s", runID)

	waveforms, err := findWaveforms(paths.EfieldCurrent)
	if err != nil {
		log.Fatalf("failed to list waveform recordings: %v", err)
	}
	if len(waveforms) == 0 {
		log.Printf("warning: no waveform recordings (*waveform*.csv) in %s", paths.EfieldCurrent)
	}

	// One bar step per input: the MEP table, both profile directions, and
	// each waveform recording.
	directions := []string{efield.DirectionParallel, efield.DirectionPerpendicular}
	bar := progressbar.NewOptions(
		1+len(directions)+len(waveforms),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stdout, "\n")
		}),
		progressbar.OptionSetWriter(os.Stdout),
	)

	figureDir := figures.MakeFigureOutputDir(paths.SavePlot, runID)

	bar.Describe("MEP table")
	if err := processMEPTable(database, paths, runID); err != nil {
		log.Fatalf("MEP table: %v", err)
	}
	bar.Add(1)

	for _, direction := range directions {
		bar.Describe("profile " + direction)
		if err := processProfile(database, paths, cfg, runID, figureDir, direction); err != nil {
			log.Fatalf("profile %s: %v", direction, err)
		}
		bar.Add(1)
	}

	calibrated := make(map[string]*efield.CalibratedWaveform, len(waveforms))
	for _, path := range waveforms {
		bar.Describe(filepath.Base(path))
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		cw, err := processWaveform(cfg, figureDir, path, name)
		if err != nil {
			log.Fatalf("waveform %s: %v", filepath.Base(path), err)
		}
		calibrated[name] = cw
		bar.Add(1)
	}

	if top, bottom := pickCoilPair(calibrated); top != nil && bottom != nil {
		if err := figures.SaveCoilComparisonFigures(figureDir, top, bottom, cfg.GetWaveformCutoffHz(), cfg.GetFilterOrder()); err != nil {
			log.Fatalf("coil comparison figures: %v", err)
		}
	}

	params, err := json.Marshal(cfg)
	if err != nil {
		log.Fatalf("failed to marshal run parameters: %v", err)
	}
	if err := database.RecordRun(runID, string(params)); err != nil {
		log.Fatalf("failed to record analysis run: %v", err)
	}

	log.Printf("run %s complete: figures in %s", runID, figureDir)
}

// findWaveforms lists the scope exports in dir. The recordings are named
// like current_waveform_nautilus_20Vm_monophasic_top.csv, so match on the
// waveform token rather than a fixed prefix.
func findWaveforms(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*waveform*.csv"))
}

func processMEPTable(database *db.DB, paths *config.Paths, runID string) error {
	f, err := os.Open(paths.MEPTable())
	if err != nil {
		return err
	}
	defer f.Close()

	measurements, err := mep.ReadMeasurements(f)
	if err != nil {
		return err
	}
	for _, m := range measurements {
		rec := db.MEPRecord{
			RunID:               runID,
			Brain:               m.Brain,
			Paw:                 m.Paw,
			Side:                m.Side,
			OrientationDeg:      m.OrientationDeg,
			AmplitudeMicrovolts: m.AmplitudeMicrovolts,
			LatencyMs:           m.LatencyMs,
		}
		if err := database.RecordMEP(rec); err != nil {
			return fmt.Errorf("storing measurement: %w", err)
		}
	}

	summaries, err := mep.Summarize(measurements)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		log.Printf("MEP %s/%s @ %g deg: median %.1f uV, %.1f ms (%d pulses)",
			s.Brain, s.Side, s.OrientationDeg,
			s.MedianAmplitudeMicrovolts, s.MedianLatencyMs, s.Pulses)
	}
	return nil
}

func processProfile(database *db.DB, paths *config.Paths, cfg *config.AnalysisConfig, runID, figureDir, direction string) error {
	f, err := os.Open(paths.ProfileFile(direction))
	if err != nil {
		return err
	}
	defer f.Close()

	profile, err := efield.ReadProfile(f, direction)
	if err != nil {
		return err
	}

	top, bottom, err := profile.Focality(cfg.GetFitDegree(), cfg.GetPeakMinHeight())
	if err != nil {
		return err
	}
	records := []db.FocalityRecord{
		{RunID: runID, Direction: direction, Coil: "top", WidthMm: top.Width, HalfMaxHeight: top.Height},
		{RunID: runID, Direction: direction, Coil: "bottom", WidthMm: bottom.Width, HalfMaxHeight: bottom.Height},
	}
	for _, rec := range records {
		if err := database.RecordFocality(rec); err != nil {
			return fmt.Errorf("storing focality: %w", err)
		}
	}
	log.Printf("focality %s: top %.1f mm, bottom %.1f mm", direction, top.Width, bottom.Width)

	return figures.SaveProfileFigure(figureDir, profile, cfg.GetProfileCutoff(), cfg.GetFilterOrder(), cfg.GetFitDegree(), cfg.GetPeakMinHeight())
}

func processWaveform(cfg *config.AnalysisConfig, figureDir, path, name string) (*efield.CalibratedWaveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	waveform, err := efield.ReadWaveform(f)
	if err != nil {
		return nil, err
	}

	ref, start, end, rogowski := cfg.Calibration()
	calibrated, err := waveform.Calibrate(efield.Calibration{
		ReferenceFieldVm:       ref,
		EpochStartMicros:       start,
		EpochEndMicros:         end,
		RogowskiVoltsPerAmpere: rogowski,
	})
	if err != nil {
		return nil, err
	}

	if err := figures.SaveWaveformFigures(figureDir, name, calibrated, cfg.GetWaveformCutoffHz(), cfg.GetFilterOrder()); err != nil {
		return nil, err
	}
	return calibrated, nil
}

// pickCoilPair finds the top and bottom coil recordings of one pulse by the
// coil token in the file name, as in current_waveform_..._{top,bottom}.csv.
func pickCoilPair(calibrated map[string]*efield.CalibratedWaveform) (top, bottom *efield.CalibratedWaveform) {
	for name, cw := range calibrated {
		switch {
		case strings.Contains(name, "top"):
			top = cw
		case strings.Contains(name, "bottom"):
			bottom = cw
		}
	}
	return top, bottom
}
