// Package charts renders interactive HTML visualisations of measurement
// data using go-echarts. These are debugging and review endpoints (no
// auth); the static PNG figures for publication live in internal/figures.
package charts

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/nbe-data/mtms.report/internal/config"
	"github.com/nbe-data/mtms.report/internal/db"
	"github.com/nbe-data/mtms.report/internal/efield"
	"github.com/nbe-data/mtms.report/internal/httputil"
	"github.com/nbe-data/mtms.report/internal/mep"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// viridisColours is the sampled viridis ramp used for VisualMap gradients.
var viridisColours = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// Handler serves the chart endpoints. Paths anchors the measurement data
// directories; DB supplies the MEP and focality records written by the
// analysis pipeline.
type Handler struct {
	DB    *db.DB
	Paths config.Paths
}

// AttachRoutes registers the chart endpoints on mux.
func (h *Handler) AttachRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/charts/efield-map", h.handleFieldMapChart)
	mux.HandleFunc("/charts/mep", h.handleMEPChart)
	mux.HandleFunc("/charts/focality", h.handleFocalityChart)
	mux.HandleFunc("/charts/dashboard", h.handleDashboard)
}

// handleFieldMapChart renders the measured E-field map as an XY scatter
// (Z flattened out) coloured by normalised field magnitude. Query params:
//   - file (optional; defaults to efield_map.txt in the E-field directory)
//   - max_points (optional; default 8000) to reduce payload size
func (h *Handler) handleFieldMapChart(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("file")
	if name == "" {
		name = "efield_map.txt"
	}
	path := filepath.Join(h.Paths.EfieldCurrent, filepath.Base(name))

	f, err := os.Open(path)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusNotFound, fmt.Sprintf("failed to open field map: %v", err))
		return
	}
	defer f.Close()

	fieldMap, err := efield.ReadMap(f)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusNotFound, fmt.Sprintf("failed to read field map: %v", err))
		return
	}
	if len(fieldMap.Vectors) == 0 {
		httputil.WriteJSONError(w, http.StatusNotFound, "field map is empty")
		return
	}

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}
	stride := 1
	if len(fieldMap.Vectors) > maxPoints {
		stride = (len(fieldMap.Vectors) + maxPoints - 1) / maxPoints
	}

	norms := fieldMap.NormalizedNorms()
	data := make([]opts.ScatterData, 0, len(fieldMap.Vectors)/stride+1)
	maxAbs := 0.0
	for i := 0; i < len(fieldMap.Vectors); i += stride {
		v := fieldMap.Vectors[i]
		x := v.Pos[0] * 1e3
		y := v.Pos[1] * 1e3
		if abs := absFloat(x); abs > maxAbs {
			maxAbs = abs
		}
		if abs := absFloat(y); abs > maxAbs {
			maxAbs = abs
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, norms[i]}})
	}

	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "E-field Map", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Measured E-field Map", Subtitle: fmt.Sprintf("file=%s points=%d stride=%d", filepath.Base(path), len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (mm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (mm)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColours},
		}),
	)
	scatter.AddSeries("efield", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	renderChart(w, scatter)
}

// handleMEPChart renders median MEP amplitude against coil orientation,
// one line series per brain hemisphere and response side. Requires a run
// query param naming an analysis run.
func (h *Handler) handleMEPChart(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		httputil.BadRequest(w, "run parameter is required")
		return
	}

	records, err := h.DB.MEPRecords(runID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to query MEP records: %v", err))
		return
	}
	if len(records) == 0 {
		httputil.NotFound(w, "no MEP records for run")
		return
	}

	measurements := make([]mep.Measurement, len(records))
	for i, rec := range records {
		measurements[i] = mep.Measurement{
			Brain:               rec.Brain,
			Paw:                 rec.Paw,
			OrientationDeg:      rec.OrientationDeg,
			AmplitudeMicrovolts: rec.AmplitudeMicrovolts,
			LatencyMs:           rec.LatencyMs,
			Side:                rec.Side,
		}
	}
	summaries, err := mep.Summarize(measurements)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to summarise MEP records: %v", err))
		return
	}

	// Group summaries into one series per brain/side pair, sharing a
	// common orientation axis.
	type seriesKey struct{ brain, side string }
	orientations := map[float64]bool{}
	grouped := map[seriesKey]map[float64]float64{}
	for _, s := range summaries {
		key := seriesKey{s.Brain, s.Side}
		if grouped[key] == nil {
			grouped[key] = map[float64]float64{}
		}
		grouped[key][s.OrientationDeg] = s.MedianAmplitudeMicrovolts
		orientations[s.OrientationDeg] = true
	}

	axis := make([]float64, 0, len(orientations))
	for deg := range orientations {
		axis = append(axis, deg)
	}
	sort.Float64s(axis)
	labels := make([]string, len(axis))
	for i, deg := range axis {
		labels[i] = strconv.FormatFloat(deg, 'g', -1, 64)
	}

	keys := make([]seriesKey, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].brain != keys[j].brain {
			return keys[i].brain < keys[j].brain
		}
		return keys[i].side < keys[j].side
	})

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "MEP Amplitude", Theme: "dark", Width: "900px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Median MEP Amplitude by Orientation", Subtitle: fmt.Sprintf("run=%s pulses=%d", runID, len(records))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Orientation (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Amplitude (uV)", NameLocation: "middle", NameGap: 40}),
	)
	line.SetXAxis(labels)
	for _, key := range keys {
		values := make([]opts.LineData, len(axis))
		for i, deg := range axis {
			if amp, ok := grouped[key][deg]; ok {
				values[i] = opts.LineData{Value: amp}
			} else {
				values[i] = opts.LineData{Value: nil}
			}
		}
		label := fmt.Sprintf("%s brain, %s", key.brain, key.side)
		line.AddSeries(label, values, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))
	}

	renderChart(w, line)
}

// handleFocalityChart renders stored focality widths as a bar chart, one
// bar per direction and coil pairing.
func (h *Handler) handleFocalityChart(w http.ResponseWriter, r *http.Request) {
	results, err := h.DB.FocalityResults()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to query focality results: %v", err))
		return
	}
	if len(results) == 0 {
		httputil.NotFound(w, "no focality results stored")
		return
	}

	labels := make([]string, len(results))
	values := make([]opts.BarData, len(results))
	for i, res := range results {
		labels[i] = fmt.Sprintf("%s/%s", res.Direction, res.Coil)
		values[i] = opts.BarData{Value: res.WidthMm}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Focality", Theme: "dark", Width: "900px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "E-field Focality", Subtitle: fmt.Sprintf("results=%d", len(results))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "FWHM (mm)", NameLocation: "middle", NameGap: 40}),
	)
	bar.SetXAxis(labels).
		AddSeries("fwhm", values,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	renderChart(w, bar)
}

// handleDashboard renders a simple dashboard with iframes to the charts.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	qs := ""
	if runID != "" {
		qs = "?run=" + url.QueryEscape(runID)
	}
	safeRun := html.EscapeString(runID)
	safeQs := html.EscapeString(qs)

	doc := fmt.Sprintf(dashboardHTML, safeRun, safeQs)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}

type renderer interface {
	Render(w io.Writer) error
}

func renderChart(w http.ResponseWriter, c renderer) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<title>mTMS Measurement Dashboard</title>
<style>
body { background: #111; color: #ddd; font-family: sans-serif; margin: 0; padding: 1em; }
h1 { font-size: 1.2em; }
iframe { border: 1px solid #333; background: #181818; width: 48%%; height: 640px; margin: 0.5%%; }
</style>
</head>
<body>
<h1>mTMS Measurement Dashboard <small>run=%s</small></h1>
<iframe src="/charts/efield-map"></iframe>
<iframe src="/charts/mep%s"></iframe>
<iframe src="/charts/focality"></iframe>
</body>
</html>
`
