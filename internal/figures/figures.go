// Package figures renders static PNG figures of calibrated waveforms and
// intensity profiles using gonum/plot. The interactive HTML equivalents
// live in internal/charts.
package figures

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/nbe-data/mtms.report/internal/efield"
	"github.com/nbe-data/mtms.report/internal/signal"
)

// Line colours shared across the figures: raw traces are drawn muted so the
// smoothed line reads as the primary trace.
var (
	rawColour      = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}
	smoothedColour = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	topColour      = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	bottomColour   = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	widthColour    = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
)

// SaveWaveformFigures writes two PNGs for one calibrated recording: the coil
// current in kA and the induced field in V/m, each with the raw trace and a
// low-passed overlay. Files are named <name>_current.png and
// <name>_field.png under outputDir.
func SaveWaveformFigures(outputDir, name string, cw *efield.CalibratedWaveform, cutoffHz float64, order int) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	smoothCurrent, smoothField, err := cw.Smooth(cutoffHz, order)
	if err != nil {
		return fmt.Errorf("smoothing waveform: %w", err)
	}

	currentFile := filepath.Join(outputDir, fmt.Sprintf("%s_current.png", name))
	if err := saveTraceFigure(currentFile, "Coil Current", "Time (us)", "Current (kA)", cw.TimeMicros, cw.CurrentKA, smoothCurrent); err != nil {
		return fmt.Errorf("save current figure: %w", err)
	}

	fieldFile := filepath.Join(outputDir, fmt.Sprintf("%s_field.png", name))
	if err := saveTraceFigure(fieldFile, "Induced E-field", "Time (us)", "E-field (V/m)", cw.TimeMicros, cw.FieldVm, smoothField); err != nil {
		return fmt.Errorf("save field figure: %w", err)
	}

	return nil
}

// SaveCoilComparisonFigures overlays the top and bottom coil recordings of
// one pulse: coils_current.png and coils_field.png under outputDir. The
// bottom coil current was recorded with opposite polarity, so its trace is
// negated to overlay the top coil's.
func SaveCoilComparisonFigures(outputDir string, top, bottom *efield.CalibratedWaveform, cutoffHz float64, order int) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	topCurrent, topField, err := top.Smooth(cutoffHz, order)
	if err != nil {
		return fmt.Errorf("smoothing top recording: %w", err)
	}
	bottomCurrent, bottomField, err := bottom.Smooth(cutoffHz, order)
	if err != nil {
		return fmt.Errorf("smoothing bottom recording: %w", err)
	}
	for i, v := range bottomCurrent {
		bottomCurrent[i] = -v
	}

	currentFile := filepath.Join(outputDir, "coils_current.png")
	if err := saveComparisonFigure(currentFile, "Coil Current", "Time (us)", "Current (kA)",
		top.TimeMicros, topCurrent, bottom.TimeMicros, bottomCurrent); err != nil {
		return fmt.Errorf("save current comparison: %w", err)
	}

	fieldFile := filepath.Join(outputDir, "coils_field.png")
	if err := saveComparisonFigure(fieldFile, "Induced E-field", "Time (us)", "E-field (V/m)",
		top.TimeMicros, topField, bottom.TimeMicros, bottomField); err != nil {
		return fmt.Errorf("save field comparison: %w", err)
	}

	return nil
}

func saveComparisonFigure(path, title, xLabel, yLabel string, xTop, yTop, xBottom, yBottom []float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	topLine, err := plotter.NewLine(xyPoints(xTop, yTop))
	if err != nil {
		return err
	}
	topLine.Color = topColour
	topLine.Width = vg.Points(1.5)
	p.Add(topLine)
	p.Legend.Add("top", topLine)

	bottomLine, err := plotter.NewLine(xyPoints(xBottom, yBottom))
	if err != nil {
		return err
	}
	bottomLine.Color = bottomColour
	bottomLine.Width = vg.Points(1.5)
	p.Add(bottomLine)
	p.Legend.Add("bottom", bottomLine)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}

func saveTraceFigure(path, title, xLabel, yLabel string, x, raw, smoothed []float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	rawLine, err := plotter.NewLine(xyPoints(x, raw))
	if err != nil {
		return err
	}
	rawLine.Color = rawColour
	rawLine.Width = vg.Points(0.5)
	p.Add(rawLine)
	p.Legend.Add("raw", rawLine)

	smoothLine, err := plotter.NewLine(xyPoints(x, smoothed))
	if err != nil {
		return err
	}
	smoothLine.Color = smoothedColour
	smoothLine.Width = vg.Points(1.5)
	p.Add(smoothLine)
	p.Legend.Add("filtered", smoothLine)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}

// SaveProfileFigure writes one PNG of a smoothed intensity profile with both
// coil traces and the width evaluation segments from the focality
// measurement. The file is named profile_<direction>.png under outputDir.
func SaveProfileFigure(outputDir string, profile *efield.Profile, cutoff float64, order, degree int, minHeight float64) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	top, bottom, err := profile.Smooth(cutoff, order)
	if err != nil {
		return fmt.Errorf("smoothing profile: %w", err)
	}
	topFWHM, bottomFWHM, err := profile.Focality(degree, minHeight)
	if err != nil {
		return fmt.Errorf("measuring focality: %w", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("E-field Profile (%s)", profile.Direction)
	p.X.Label.Text = "Position (mm)"
	p.Y.Label.Text = "Normalised E-field"

	topLine, err := plotter.NewLine(xyPoints(profile.XMm, top))
	if err != nil {
		return err
	}
	topLine.Color = topColour
	topLine.Width = vg.Points(1.5)
	p.Add(topLine)
	p.Legend.Add(fmt.Sprintf("top (FWHM %.1f mm)", topFWHM.Width), topLine)

	bottomLine, err := plotter.NewLine(xyPoints(profile.XMm, bottom))
	if err != nil {
		return err
	}
	bottomLine.Color = bottomColour
	bottomLine.Width = vg.Points(1.5)
	p.Add(bottomLine)
	p.Legend.Add(fmt.Sprintf("bottom (FWHM %.1f mm)", bottomFWHM.Width), bottomLine)

	for _, res := range []signal.FWHMResult{topFWHM, bottomFWHM} {
		seg, err := widthSegment(profile.XMm, res)
		if err != nil {
			return err
		}
		p.Add(seg)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	path := filepath.Join(outputDir, fmt.Sprintf("profile_%s.png", profile.Direction))
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// widthSegment draws a horizontal line at the width evaluation height,
// spanning the crossing samples of the FWHM measurement.
func widthSegment(x []float64, res signal.FWHMResult) (*plotter.Line, error) {
	left, right := res.LeftIndex, res.RightIndex
	if left < 0 {
		left = 0
	}
	if right >= len(x) {
		right = len(x) - 1
	}
	seg, err := plotter.NewLine(plotter.XYs{
		{X: x[left], Y: res.Height},
		{X: x[right], Y: res.Height},
	})
	if err != nil {
		return nil, err
	}
	seg.Color = widthColour
	seg.Width = vg.Points(1)
	seg.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	return seg, nil
}

func xyPoints(x, y []float64) plotter.XYs {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i] = plotter.XY{X: x[i], Y: y[i]}
	}
	return pts
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakeFigureOutputDir returns a timestamped directory under baseDir for one
// analysis run's figures.
func MakeFigureOutputDir(baseDir, runID string) string {
	ts := FormatTimestamp(time.Now())
	if runID != "" {
		return filepath.Join(baseDir, runID, ts)
	}
	return filepath.Join(baseDir, ts)
}
