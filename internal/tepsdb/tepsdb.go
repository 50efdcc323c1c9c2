// Package tepsdb stores segmentation runs and per-sample results in sqlite.
// Learned engine state is deliberately not persisted: a new run always
// starts from an empty centroid store.
package tepsdb

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ktkachuk/teps/internal/teps"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// TepsDB wraps the sqlite handle for run/result storage.
type TepsDB struct {
	*sql.DB
}

// Open opens (or creates) the database at path and applies any pending
// migrations.
func Open(path string) (*TepsDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	tdb := &TepsDB{db}
	if err := tdb.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return tdb, nil
}

// migrateUp applies all pending migrations from the embedded sources.
func (db *TepsDB) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	// Note: the migrate instance is not closed here because that would
	// close the underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// StartRun creates a run record and returns its ID.
func (db *TepsDB) StartRun(sensorID, notes string, params teps.EngineParams) (string, error) {
	runID := uuid.NewString()
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run params: %w", err)
	}
	_, err = db.Exec(
		"INSERT INTO runs (run_id, sensor_id, notes, params_json) VALUES (?, ?, ?, ?)",
		runID, sensorID, notes, string(paramsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return runID, nil
}

// EndRun stamps the run's end time.
func (db *TepsDB) EndRun(runID string) error {
	_, err := db.Exec("UPDATE runs SET ended_at = CURRENT_TIMESTAMP WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to end run: %w", err)
	}
	return nil
}

// RecordResult stores one per-sample result together with the raw reading
// that produced it.
func (db *TepsDB) RecordResult(runID string, rawValue float64, r teps.Result) error {
	_, err := db.Exec(`
		INSERT INTO results (run_id, sample_index, raw_value, phase, raw_centroid,
			distance, created_centroid, phase_settled, distance_anomaly, sequence_anomaly)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.SampleIndex, rawValue, r.Phase, r.RawCentroid,
		r.Distance, r.CreatedCentroid, r.PhaseSettled, r.DistanceAnomaly, r.SequenceAnomaly,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

// RecordBatch stores a batch of results in one transaction. Used by the
// flush path so per-sample latency stays off the hot loop.
func (db *TepsDB) RecordBatch(runID string, values []float64, results []teps.Result) error {
	if len(values) != len(results) {
		return fmt.Errorf("values/results length mismatch: %d vs %d", len(values), len(results))
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO results (run_id, sample_index, raw_value, phase, raw_centroid,
			distance, created_centroid, phase_settled, distance_anomaly, sequence_anomaly)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.Exec(
			runID, r.SampleIndex, values[i], r.Phase, r.RawCentroid,
			r.Distance, r.CreatedCentroid, r.PhaseSettled, r.DistanceAnomaly, r.SequenceAnomaly,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert result %d: %w", r.SampleIndex, err)
		}
	}
	return tx.Commit()
}

// StoredResult is one row from the results table.
type StoredResult struct {
	SampleIndex     int64   `json:"sample_index"`
	RawValue        float64 `json:"raw_value"`
	Phase           int     `json:"phase"`
	RawCentroid     int     `json:"raw_centroid"`
	Distance        float64 `json:"distance"`
	DistanceAnomaly bool    `json:"distance_anomaly"`
	SequenceAnomaly bool    `json:"sequence_anomaly"`
}

// RecentResults returns the most recent limit results for a run in ascending
// sample order.
func (db *TepsDB) RecentResults(runID string, limit int) ([]StoredResult, error) {
	rows, err := db.Query(`
		SELECT sample_index, raw_value, phase, raw_centroid, distance,
			distance_anomaly, sequence_anomaly
		FROM (
			SELECT * FROM results WHERE run_id = ? ORDER BY sample_index DESC LIMIT ?
		) ORDER BY sample_index ASC`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var r StoredResult
		if err := rows.Scan(&r.SampleIndex, &r.RawValue, &r.Phase, &r.RawCentroid,
			&r.Distance, &r.DistanceAnomaly, &r.SequenceAnomaly); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PhaseCount is a per-phase aggregate for a run.
type PhaseCount struct {
	Phase   int   `json:"phase"`
	Samples int64 `json:"samples"`
}

// RunSummary aggregates a run: per-phase sample counts plus anomaly totals.
type RunSummary struct {
	RunID             string       `json:"run_id"`
	Samples           int64        `json:"samples"`
	Phases            []PhaseCount `json:"phases"`
	DistanceAnomalies int64        `json:"distance_anomalies"`
	SequenceAnomalies int64        `json:"sequence_anomalies"`
}

// Summary computes the aggregate view of a run.
func (db *TepsDB) Summary(runID string) (*RunSummary, error) {
	s := &RunSummary{RunID: runID}

	err := db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(distance_anomaly), 0),
			COALESCE(SUM(sequence_anomaly), 0)
		FROM results WHERE run_id = ?`, runID).
		Scan(&s.Samples, &s.DistanceAnomalies, &s.SequenceAnomalies)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise run: %w", err)
	}

	rows, err := db.Query(`
		SELECT phase, COUNT(*) FROM results
		WHERE run_id = ? GROUP BY phase ORDER BY phase`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query phase counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pc PhaseCount
		if err := rows.Scan(&pc.Phase, &pc.Samples); err != nil {
			return nil, fmt.Errorf("failed to scan phase count: %w", err)
		}
		s.Phases = append(s.Phases, pc)
	}
	return s, rows.Err()
}
