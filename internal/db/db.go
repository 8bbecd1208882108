package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS pulse_events (
			orientation_deg   DOUBLE,
			intensity_vm      DOUBLE,
			current_top_ka    DOUBLE,
			current_bottom_ka DOUBLE,
			raw               TEXT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS mep_measurements (
			run_id            TEXT,
			brain             TEXT,
			paw               TEXT,
			mep_side          TEXT,
			orientation_deg   DOUBLE,
			amplitude_uv      DOUBLE,
			latency_ms        DOUBLE,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS focality_results (
			run_id            TEXT,
			direction         TEXT,
			coil              TEXT,
			fwhm_mm           DOUBLE,
			half_max_height   DOUBLE,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id            TEXT PRIMARY KEY,
			parameters        TEXT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// PulseEvent is one fired stimulator pulse as reported on the console port.
type PulseEvent struct {
	OrientationDeg  float64 `json:"orientation_deg"`
	IntensityVm     float64 `json:"intensity_vm"`
	CurrentTopKA    float64 `json:"current_top_ka"`
	CurrentBottomKA float64 `json:"current_bottom_ka"`
	Raw             string  `json:"raw,omitempty"`
}

func (e *PulseEvent) String() string {
	return fmt.Sprintf(
		"Orientation: %f, Intensity: %f, CurrentTop: %f, CurrentBottom: %f",
		e.OrientationDeg,
		e.IntensityVm,
		e.CurrentTopKA,
		e.CurrentBottomKA,
	)
}

func (db *DB) RecordPulseEvent(event PulseEvent) error {
	_, err := db.Exec(
		`INSERT INTO pulse_events (
			orientation_deg, intensity_vm, current_top_ka, current_bottom_ka, raw
		) VALUES (?, ?, ?, ?, ?)`,
		event.OrientationDeg, event.IntensityVm, event.CurrentTopKA,
		event.CurrentBottomKA, event.Raw,
	)
	if err != nil {
		return err
	}
	return nil
}

func (db *DB) PulseEvents() ([]PulseEvent, error) {
	rows, err := db.Query(`SELECT orientation_deg, intensity_vm, current_top_ka,
			current_bottom_ka, raw FROM pulse_events ORDER BY timestamp DESC LIMIT 500`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []PulseEvent
	for rows.Next() {
		var e PulseEvent
		if err := rows.Scan(
			&e.OrientationDeg,
			&e.IntensityVm,
			&e.CurrentTopKA,
			&e.CurrentBottomKA,
			&e.Raw,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// MEPRecord is one stored EMG measurement, keyed by the analysis run that
// ingested it.
type MEPRecord struct {
	RunID               string  `json:"run_id"`
	Brain               string  `json:"brain"`
	Paw                 string  `json:"paw"`
	Side                string  `json:"mep_side"`
	OrientationDeg      float64 `json:"orientation_deg"`
	AmplitudeMicrovolts float64 `json:"amplitude_uv"`
	LatencyMs           float64 `json:"latency_ms"`
}

func (db *DB) RecordMEP(rec MEPRecord) error {
	_, err := db.Exec(
		`INSERT INTO mep_measurements (
			run_id, brain, paw, mep_side, orientation_deg, amplitude_uv, latency_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Brain, rec.Paw, rec.Side, rec.OrientationDeg,
		rec.AmplitudeMicrovolts, rec.LatencyMs,
	)
	return err
}

func (db *DB) MEPRecords(runID string) ([]MEPRecord, error) {
	rows, err := db.Query(`SELECT run_id, brain, paw, mep_side, orientation_deg,
			amplitude_uv, latency_ms FROM mep_measurements
			WHERE run_id = ? ORDER BY brain, paw, orientation_deg`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []MEPRecord
	for rows.Next() {
		var r MEPRecord
		if err := rows.Scan(
			&r.RunID,
			&r.Brain,
			&r.Paw,
			&r.Side,
			&r.OrientationDeg,
			&r.AmplitudeMicrovolts,
			&r.LatencyMs,
		); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

// FocalityRecord is one coil's full width at half maximum for a profile
// direction.
type FocalityRecord struct {
	RunID         string  `json:"run_id"`
	Direction     string  `json:"direction"`
	Coil          string  `json:"coil"`
	WidthMm       float64 `json:"fwhm_mm"`
	HalfMaxHeight float64 `json:"half_max_height"`
}

func (db *DB) RecordFocality(rec FocalityRecord) error {
	_, err := db.Exec(
		`INSERT INTO focality_results (
			run_id, direction, coil, fwhm_mm, half_max_height
		) VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.Direction, rec.Coil, rec.WidthMm, rec.HalfMaxHeight,
	)
	return err
}

func (db *DB) FocalityResults() ([]FocalityRecord, error) {
	rows, err := db.Query(`SELECT run_id, direction, coil, fwhm_mm, half_max_height
			FROM focality_results ORDER BY timestamp DESC LIMIT 100`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []FocalityRecord
	for rows.Next() {
		var r FocalityRecord
		if err := rows.Scan(&r.RunID, &r.Direction, &r.Coil, &r.WidthMm, &r.HalfMaxHeight); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

// AnalysisRun is one batch pipeline execution with its parameters serialized
// as JSON.
type AnalysisRun struct {
	ID         string `json:"run_id"`
	Parameters string `json:"parameters"`
	Timestamp  string `json:"timestamp"`
}

func (db *DB) RecordRun(id, parametersJSON string) error {
	_, err := db.Exec(
		`INSERT INTO analysis_runs (run_id, parameters) VALUES (?, ?)`,
		id, parametersJSON,
	)
	return err
}

func (db *DB) Runs() ([]AnalysisRun, error) {
	rows, err := db.Query(`SELECT run_id, parameters, timestamp FROM analysis_runs
			ORDER BY timestamp DESC LIMIT 100`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		var r AnalysisRun
		if err := rows.Scan(&r.ID, &r.Parameters, &r.Timestamp); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://mtms.db", db.DB, &tailsql.DBOptions{
		Label: "mTMS DB",
	})

	// mount the tailSQL server on the debug /tailsql path
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}

		// close the backup file after sending it
		// and remove it from the filesystem
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := gzipWriter.Write([]byte{}); err != nil {
			// Need to write something to initialize the gzip header
			http.Error(w, fmt.Sprintf("Failed to initialize gzip writer: %v", err), http.StatusInternalServerError)
			return
		}

		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
