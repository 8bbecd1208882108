package charts

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nbe-data/mtms.report/internal/config"
	"github.com/nbe-data/mtms.report/internal/db"
	"github.com/nbe-data/mtms.report/internal/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *db.DB) {
	t.Helper()
	dir := t.TempDir()
	d, err := db.NewDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	h := &Handler{DB: d, Paths: config.Paths{Root: dir, EfieldCurrent: dir}}
	return h, d
}

func serveChart(t *testing.T, h *Handler, path string) string {
	t.Helper()
	mux := http.NewServeMux()
	h.AttachRoutes(mux)
	rec := testutil.NewTestRecorder()
	mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, path))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q, want text/html", ct)
	}
	return rec.Body.String()
}

func TestFieldMapChart(t *testing.T) {
	h, _ := newTestHandler(t)
	mapData := "0.01 0.0 0.02 -3.0 -4.0 0.0\n-0.01 0.01 0.01 -1.0 0.0 0.0\n0.0 0.0 0.0 -2.0 -2.0 -1.0\n"
	path := filepath.Join(h.Paths.EfieldCurrent, "efield_map.txt")
	if err := os.WriteFile(path, []byte(mapData), 0o644); err != nil {
		t.Fatal(err)
	}

	body := serveChart(t, h, "/charts/efield-map")
	if !strings.Contains(body, "echarts") {
		t.Error("rendered chart does not reference echarts")
	}
}

func TestFieldMapChartMissingFile(t *testing.T) {
	h, _ := newTestHandler(t)

	mux := http.NewServeMux()
	h.AttachRoutes(mux)
	rec := testutil.NewTestRecorder()
	mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/charts/efield-map?file=nope.txt"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestMEPChart(t *testing.T) {
	h, d := newTestHandler(t)
	recs := []db.MEPRecord{
		{RunID: "run-a", Brain: "left", Paw: "right", Side: "contralateral", OrientationDeg: 0, AmplitudeMicrovolts: 40, LatencyMs: 5},
		{RunID: "run-a", Brain: "left", Paw: "right", Side: "contralateral", OrientationDeg: 90, AmplitudeMicrovolts: 80, LatencyMs: 6},
	}
	for _, rec := range recs {
		if err := d.RecordMEP(rec); err != nil {
			t.Fatal(err)
		}
	}

	serveChart(t, h, "/charts/mep?run=run-a")
}

func TestMEPChartValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.AttachRoutes(mux)

	rec := testutil.NewTestRecorder()
	mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/charts/mep"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)

	rec = testutil.NewTestRecorder()
	mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/charts/mep?run=missing"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestFocalityChart(t *testing.T) {
	h, d := newTestHandler(t)
	if err := d.RecordFocality(db.FocalityRecord{RunID: "run-a", Direction: "parallel", Coil: "top", WidthMm: 27.4, HalfMaxHeight: 0.71}); err != nil {
		t.Fatal(err)
	}

	serveChart(t, h, "/charts/focality")
}

func TestDashboard(t *testing.T) {
	h, _ := newTestHandler(t)
	doc := serveChart(t, h, "/charts/dashboard?run=run-a")
	for _, frame := range []string{"/charts/efield-map", "/charts/mep?run=run-a", "/charts/focality"} {
		if !strings.Contains(doc, frame) {
			t.Errorf("dashboard missing iframe for %s", frame)
		}
	}
}
