package results

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Tommyxjs/snowcap-CDCL/pkg/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT NOT NULL,
    speedup    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS invocations (
    run_id          INTEGER NOT NULL REFERENCES runs(id),
    experiment_id   INTEGER NOT NULL,
    experiment_name TEXT NOT NULL,
    point_key       TEXT NOT NULL,
    argv            TEXT,
    artifact        TEXT,
    status          TEXT NOT NULL,
    error           TEXT,
    started_at      TEXT NOT NULL,
    duration_ms     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS postprocess (
    run_id        INTEGER NOT NULL REFERENCES runs(id),
    experiment_id INTEGER NOT NULL,
    status        TEXT NOT NULL,
    error         TEXT,
    duration_ms   INTEGER NOT NULL
);
`

// Ledger records every invocation and post-processing outcome of a run
// in a SQLite file inside the results root. It backs the final failure
// summary, the report subcommand and the status API. Ledger writes are
// best effort: a failed insert is logged by the caller and never stops
// data collection.
type Ledger struct {
	db    *sql.DB
	runID int64
}

// OpenLedger opens (and if needed creates) the ledger database.
func OpenLedger(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %v", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing ledger schema: %v", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// BeginRun registers a new run; subsequent records attach to it.
func (l *Ledger) BeginRun(speedup int, startedAt time.Time) error {
	res, err := l.db.Exec(
		`INSERT INTO runs (started_at, speedup) VALUES (?, ?)`,
		startedAt.Format(time.RFC3339), speedup,
	)
	if err != nil {
		return fmt.Errorf("registering run: %v", err)
	}
	l.runID, err = res.LastInsertId()
	return err
}

// RecordInvocation stores one sweep-point outcome.
func (l *Ledger) RecordInvocation(name string, inv report.Invocation) error {
	_, err := l.db.Exec(
		`INSERT INTO invocations
		 (run_id, experiment_id, experiment_name, point_key, argv, artifact, status, error, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.runID, inv.ExperimentID, name, inv.PointKey, inv.Argv, inv.Artifact,
		string(inv.Status), inv.Error, inv.StartedAt.Format(time.RFC3339),
		inv.Duration.Milliseconds(),
	)
	return err
}

// RecordPostProcess stores one experiment's post-processing outcome.
func (l *Ledger) RecordPostProcess(experimentID int, errMsg string, dur time.Duration) error {
	status := string(report.StatusOK)
	if errMsg != "" {
		status = string(report.StatusFailed)
	}
	_, err := l.db.Exec(
		`INSERT INTO postprocess (run_id, experiment_id, status, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?)`,
		l.runID, experimentID, status, errMsg, dur.Milliseconds(),
	)
	return err
}

// LatestRun returns the id and speedup of the most recent run.
func (l *Ledger) LatestRun() (int64, int, error) {
	var id int64
	var speedup int
	err := l.db.QueryRow(`SELECT id, speedup FROM runs ORDER BY id DESC LIMIT 1`).
		Scan(&id, &speedup)
	if err == sql.ErrNoRows {
		return 0, 0, fmt.Errorf("ledger has no recorded runs")
	}
	if err != nil {
		return 0, 0, fmt.Errorf("querying latest run: %v", err)
	}
	return id, speedup, nil
}

// Invocations returns a run's recorded invocations, in insertion
// order; experimentID 0 selects all experiments.
func (l *Ledger) Invocations(runID int64, experimentID int) ([]report.Invocation, error) {
	query := `SELECT experiment_id, point_key, argv, artifact, status, error, started_at, duration_ms
	          FROM invocations WHERE run_id = ?`
	args := []any{runID}
	if experimentID != 0 {
		query += ` AND experiment_id = ?`
		args = append(args, experimentID)
	}
	query += ` ORDER BY rowid`

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying invocations: %v", err)
	}
	defer rows.Close()

	var out []report.Invocation
	for rows.Next() {
		var inv report.Invocation
		var status, startedAt string
		var durationMs int64
		if err := rows.Scan(&inv.ExperimentID, &inv.PointKey, &inv.Argv, &inv.Artifact,
			&status, &inv.Error, &startedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("scanning invocation row: %v", err)
		}
		inv.Status = report.Status(status)
		inv.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		inv.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, inv)
	}
	return out, rows.Err()
}

// PostErrors returns a run's post-processing failures by experiment id.
func (l *Ledger) PostErrors(runID int64) (map[int]string, error) {
	rows, err := l.db.Query(
		`SELECT experiment_id, error FROM postprocess WHERE run_id = ? AND error != '' ORDER BY rowid`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("querying postprocess rows: %v", err)
	}
	defer rows.Close()

	out := make(map[int]string)
	for rows.Next() {
		var id int
		var msg string
		if err := rows.Scan(&id, &msg); err != nil {
			return nil, fmt.Errorf("scanning postprocess row: %v", err)
		}
		out[id] = msg
	}
	return out, rows.Err()
}

// ReloadRun rebuilds a recorded run's report from the ledger,
// post-processing outcomes included, so re-rendering never upgrades a
// partial run to a success.
func (l *Ledger) ReloadRun(runID int64, speedup int) (*report.Run, error) {
	rows, err := l.db.Query(
		`SELECT experiment_id, experiment_name, point_key, argv, artifact, status, error, started_at, duration_ms
		 FROM invocations WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying invocations: %v", err)
	}
	defer rows.Close()

	run := &report.Run{Speedup: speedup}
	index := make(map[int]int)
	for rows.Next() {
		var inv report.Invocation
		var name, status, startedAt string
		var durationMs int64
		if err := rows.Scan(&inv.ExperimentID, &name, &inv.PointKey, &inv.Argv, &inv.Artifact,
			&status, &inv.Error, &startedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("scanning invocation row: %v", err)
		}
		inv.Status = report.Status(status)
		inv.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		inv.Duration = time.Duration(durationMs) * time.Millisecond

		i, seen := index[inv.ExperimentID]
		if !seen {
			i = len(run.Experiments)
			index[inv.ExperimentID] = i
			run.Experiments = append(run.Experiments, report.Experiment{ID: inv.ExperimentID, Name: name})
		}
		run.Experiments[i].Invocations = append(run.Experiments[i].Invocations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	postErrors, err := l.PostErrors(runID)
	if err != nil {
		return nil, err
	}
	for i := range run.Experiments {
		run.Experiments[i].PostError = postErrors[run.Experiments[i].ID]
	}
	return run, nil
}

// Failures returns the failed invocations of a run.
func (l *Ledger) Failures(runID int64) ([]report.Invocation, error) {
	all, err := l.Invocations(runID, 0)
	if err != nil {
		return nil, err
	}
	var failed []report.Invocation
	for _, inv := range all {
		if inv.Status == report.StatusFailed {
			failed = append(failed, inv)
		}
	}
	return failed, nil
}
