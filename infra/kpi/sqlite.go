// Package kpi keeps the history of planning runs in a SQLite database so that
// searches over different fleets or budgets can be compared afterwards.
package kpi

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	coremetrics "github.com/ejosa-pasquale/HoreCa/core/metrics"
)

// SQLiteStore persists simulation and optimization events in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS simulations (
        run_id TEXT,
        configuration TEXT,
        stations INTEGER,
        power_kw REAL,
        capital_cost REAL,
        requested_kwh REAL,
        delivered_kwh REAL,
        external_kwh REAL,
        internal_fraction REAL,
        combined_efficiency REAL,
        fully_served INTEGER,
        sessions INTEGER,
        passes INTEGER,
        outcome TEXT,
        duration_ns INTEGER,
        ts INTEGER,
        PRIMARY KEY(run_id, configuration)
    );
    CREATE TABLE IF NOT EXISTS optimizations (
        run_id TEXT PRIMARY KEY,
        vehicles INTEGER,
        requested_kwh REAL,
        candidates INTEGER,
        feasible INTEGER,
        failed INTEGER,
        best TEXT,
        best_fraction REAL,
        best_power_kw REAL,
        best_cost REAL,
        best_efficiency REAL,
        upper_bound_kwh REAL,
        ranking TEXT,
        solved INTEGER,
        duration_ns INTEGER,
        ts INTEGER
    );`

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// workers record concurrently; a single connection serialises the writes
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// RecordSimulation inserts or replaces the candidate of a run.
func (s *SQLiteStore) RecordSimulation(ev coremetrics.SimulationEvent) error {
	_, err := s.db.Exec(`INSERT INTO simulations (run_id, configuration, stations, power_kw, capital_cost,
            requested_kwh, delivered_kwh, external_kwh, internal_fraction, combined_efficiency,
            fully_served, sessions, passes, outcome, duration_ns, ts)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(run_id, configuration) DO UPDATE SET
            outcome = excluded.outcome,
            delivered_kwh = excluded.delivered_kwh,
            external_kwh = excluded.external_kwh,
            internal_fraction = excluded.internal_fraction,
            combined_efficiency = excluded.combined_efficiency,
            fully_served = excluded.fully_served,
            sessions = excluded.sessions,
            passes = excluded.passes,
            duration_ns = excluded.duration_ns,
            ts = excluded.ts`,
		ev.RunID, ev.Configuration, ev.Stations, ev.InstalledPowerKW, ev.CapitalCost,
		ev.RequestedKWh, ev.DeliveredKWh, ev.ExternalKWh, ev.InternalFraction, ev.CombinedEfficiency,
		ev.FullyServed, ev.Sessions, ev.Passes, ev.Outcome, int64(ev.Duration), unixNano(ev.Time))
	return err
}

// RecordOptimization inserts or replaces the summary of a run.
func (s *SQLiteStore) RecordOptimization(ev coremetrics.OptimizationEvent) error {
	// configuration keys contain commas, so the ranking is stored as a JSON array
	ranking, err := json.Marshal(ev.Ranking)
	if err != nil {
		return fmt.Errorf("encode ranking: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO optimizations (run_id, vehicles, requested_kwh, candidates,
            feasible, failed, best, best_fraction, best_power_kw, best_cost, best_efficiency,
            upper_bound_kwh, ranking, solved, duration_ns, ts)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.Vehicles, ev.RequestedKWh, ev.Candidates,
		ev.Feasible, ev.Failed, ev.Best, ev.BestFraction, ev.BestPowerKW, ev.BestCost, ev.BestEfficiency,
		ev.UpperBoundKWh, string(ranking), ev.Solved, int64(ev.Duration), unixNano(ev.Time))
	return err
}

// Simulations returns the candidates of a run ordered by configuration.
func (s *SQLiteStore) Simulations(runID string) ([]coremetrics.SimulationEvent, error) {
	rows, err := s.db.Query(`SELECT run_id, configuration, stations, power_kw, capital_cost,
            requested_kwh, delivered_kwh, external_kwh, internal_fraction, combined_efficiency,
            fully_served, sessions, passes, outcome, duration_ns, ts
        FROM simulations WHERE run_id = ? ORDER BY configuration`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []coremetrics.SimulationEvent
	for rows.Next() {
		var ev coremetrics.SimulationEvent
		var dur, ts int64
		if err := rows.Scan(&ev.RunID, &ev.Configuration, &ev.Stations, &ev.InstalledPowerKW, &ev.CapitalCost,
			&ev.RequestedKWh, &ev.DeliveredKWh, &ev.ExternalKWh, &ev.InternalFraction, &ev.CombinedEfficiency,
			&ev.FullyServed, &ev.Sessions, &ev.Passes, &ev.Outcome, &dur, &ts); err != nil {
			return nil, err
		}
		ev.Duration = time.Duration(dur)
		ev.Time = fromUnixNano(ts)
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Runs returns the recorded searches, oldest first.
func (s *SQLiteStore) Runs() ([]coremetrics.OptimizationEvent, error) {
	rows, err := s.db.Query(`SELECT run_id, vehicles, requested_kwh, candidates, feasible, failed,
            best, best_fraction, best_power_kw, best_cost, best_efficiency, upper_bound_kwh,
            ranking, solved, duration_ns, ts
        FROM optimizations ORDER BY ts, run_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []coremetrics.OptimizationEvent
	for rows.Next() {
		var ev coremetrics.OptimizationEvent
		var ranking string
		var dur, ts int64
		if err := rows.Scan(&ev.RunID, &ev.Vehicles, &ev.RequestedKWh, &ev.Candidates, &ev.Feasible, &ev.Failed,
			&ev.Best, &ev.BestFraction, &ev.BestPowerKW, &ev.BestCost, &ev.BestEfficiency, &ev.UpperBoundKWh,
			&ranking, &ev.Solved, &dur, &ts); err != nil {
			return nil, err
		}
		if ranking != "" && ranking != "null" {
			if err := json.Unmarshal([]byte(ranking), &ev.Ranking); err != nil {
				return nil, fmt.Errorf("decode ranking of %s: %w", ev.RunID, err)
			}
		}
		ev.Duration = time.Duration(dur)
		ev.Time = fromUnixNano(ts)
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Flush closes the database at the end of a run.
func (s *SQLiteStore) Flush() error { return s.Close() }

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}
