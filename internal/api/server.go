package api

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nbe-data/mtms.report/internal/db"
	"github.com/nbe-data/mtms.report/internal/httputil"
	"github.com/nbe-data/mtms.report/internal/mep"
	"github.com/nbe-data/mtms.report/internal/stimmux"
	"github.com/nbe-data/mtms.report/internal/units"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	m     stimmux.MuxInterface
	db    *db.DB
	units string
}

// NewServer builds the HTTP API over the stimulator mux and the measurement
// database. units selects the amplitude display unit for MEP responses.
func NewServer(m stimmux.MuxInterface, db *db.DB, units string) *Server {
	return &Server{
		m:     m,
		db:    db,
		units: units,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/pulses", s.listPulseEvents)
	mux.HandleFunc("/command", s.sendCommandHandler)
	mux.HandleFunc("/api/mep_summaries", s.showMEPSummaries)
	mux.HandleFunc("/api/focality", s.showFocality)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

func (s *Server) sendCommandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	command := r.FormValue("command")

	if !slices.Contains(allowedCommands, strings.TrimSpace(command)) {
		http.Error(w, "Invalid command", http.StatusBadRequest)
		return
	}

	if err := s.m.SendCommand(command); err != nil {
		http.Error(w, "Failed to send command", http.StatusInternalServerError)
		return
	}
	io.WriteString(w, "Command sent successfully")
}

func (s *Server) listPulseEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	events, err := s.db.PulseEvents()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve pulse events: %v", err))
		return
	}

	httputil.WriteJSONOK(w, events)
}

// mepSummaryAPI is one aggregated MEP group in the display unit the server
// was configured with.
type mepSummaryAPI struct {
	Brain           string  `json:"brain"`
	Side            string  `json:"mep_side"`
	OrientationDeg  float64 `json:"orientation_deg"`
	MedianAmplitude float64 `json:"median_amplitude"`
	AmplitudeUnits  string  `json:"amplitude_units"`
	MedianLatencyMs float64 `json:"median_latency_ms"`
	Pulses          int     `json:"pulses"`
	LatencyPulses   int     `json:"latency_pulses"`
}

func (s *Server) showMEPSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	runID := r.URL.Query().Get("run")
	if runID == "" {
		httputil.BadRequest(w, "Missing 'run' parameter")
		return
	}

	records, err := s.db.MEPRecords(runID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve MEP records: %v", err))
		return
	}
	if len(records) == 0 {
		httputil.NotFound(w, fmt.Sprintf("No MEP records for run %q", runID))
		return
	}

	measurements := make([]mep.Measurement, len(records))
	for i, rec := range records {
		measurements[i] = mep.Measurement{
			Brain:               rec.Brain,
			Paw:                 rec.Paw,
			Side:                rec.Side,
			OrientationDeg:      rec.OrientationDeg,
			AmplitudeMicrovolts: rec.AmplitudeMicrovolts,
			LatencyMs:           rec.LatencyMs,
		}
	}
	summaries, err := mep.Summarize(measurements)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to summarise MEP records: %v", err))
		return
	}

	apiSummaries := make([]mepSummaryAPI, len(summaries))
	for i, sum := range summaries {
		apiSummaries[i] = mepSummaryAPI{
			Brain:           sum.Brain,
			Side:            sum.Side,
			OrientationDeg:  sum.OrientationDeg,
			MedianAmplitude: units.ConvertAmplitude(sum.MedianAmplitudeMicrovolts, s.units),
			AmplitudeUnits:  s.units,
			MedianLatencyMs: sum.MedianLatencyMs,
			Pulses:          sum.Pulses,
			LatencyPulses:   sum.LatencyPulses,
		}
	}

	httputil.WriteJSONOK(w, apiSummaries)
}

func (s *Server) showFocality(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	results, err := s.db.FocalityResults()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve focality results: %v", err))
		return
	}

	httputil.WriteJSONOK(w, results)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	runs, err := s.db.Runs()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve runs: %v", err))
		return
	}

	httputil.WriteJSONOK(w, runs)
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	config := map[string]interface{}{
		"amplitude_units": s.units,
		"stimulator":      stimmux.CurrentState,
	}

	httputil.WriteJSONOK(w, config)
}
