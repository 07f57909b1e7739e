// Package store keeps a history of analysis runs in a SQLite database so that
// earlier runs can be listed and recombined without re-reading their files.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	critstudy "github.com/lucasjlepore/crit-study"
)

// ErrRunNotFound is returned by LoadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// createdLayout is fixed-width so created_at sorts lexically.
const createdLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	created_at   TEXT NOT NULL,
	params_json  TEXT NOT NULL,
	window_start REAL NOT NULL DEFAULT 0,
	window_end   REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS run_files (
	run_id             TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position           INTEGER NOT NULL,
	name               TEXT NOT NULL,
	duration_s         INTEGER NOT NULL,
	min_balance_j      REAL NOT NULL,
	zone_total_samples INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE TABLE IF NOT EXISTS bouts (
	run_id           TEXT NOT NULL,
	file_position    INTEGER NOT NULL,
	seq              INTEGER NOT NULL,
	start_time_s     REAL NOT NULL,
	end_time_s       REAL NOT NULL,
	duration_s       INTEGER NOT NULL,
	avg_power_w      REAL NOT NULL,
	magnitude_pct_cp REAL NOT NULL,
	severity         TEXT NOT NULL,
	PRIMARY KEY (run_id, file_position, seq)
);
CREATE TABLE IF NOT EXISTS depletions (
	run_id        TEXT NOT NULL,
	file_position INTEGER NOT NULL,
	seq           INTEGER NOT NULL,
	time_s        REAL NOT NULL,
	balance_j     REAL NOT NULL,
	balance_pct   REAL NOT NULL,
	PRIMARY KEY (run_id, file_position, seq)
);
CREATE TABLE IF NOT EXISTS zone_counts (
	run_id              TEXT NOT NULL,
	file_position       INTEGER NOT NULL,
	bin_index           INTEGER NOT NULL,
	label               TEXT NOT NULL,
	min_pct             REAL NOT NULL,
	max_pct             REAL NOT NULL,
	sample_count        INTEGER NOT NULL,
	percent_of_duration REAL NOT NULL,
	PRIMARY KEY (run_id, file_position, bin_index)
);
`

// Store wraps the run history database.
type Store struct {
	db *sql.DB
}

// RunInfo is the listing view of a stored run.
type RunInfo struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Params    critstudy.Parameters `json:"params"`
	Window    critstudy.Window     `json:"window"`
	FileCount int                  `json:"file_count"`
	BoutCount int                  `json:"bout_count"`
}

// Run is a stored run with its per-file results. W′ balance series are not
// stored, so FileResult.Balance is nil.
type Run struct {
	RunInfo
	Files []critstudy.FileResult `json:"files"`
}

// Combined recomputes the cross-file result from the stored files.
func (r *Run) Combined() critstudy.CombinedResult {
	return critstudy.Combine(r.Files)
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun stores one run and all of its file results in a single transaction.
func (s *Store) SaveRun(ctx context.Context, id string, p critstudy.Parameters, w critstudy.Window, results []critstudy.FileResult) error {
	params, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, params_json, window_start, window_end) VALUES (?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(createdLayout), string(params), w.StartS, w.EndS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", id, err)
	}

	for pos, r := range results {
		if err := insertFile(ctx, tx, id, pos, r); err != nil {
			return fmt.Errorf("failed to insert file %s: %w", r.Name, err)
		}
	}
	return tx.Commit()
}

func insertFile(ctx context.Context, tx *sql.Tx, runID string, pos int, r critstudy.FileResult) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO run_files (run_id, position, name, duration_s, min_balance_j, zone_total_samples) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, pos, r.Name, r.DurationS, r.MinBalance, r.Zones.TotalSamples,
	)
	if err != nil {
		return err
	}

	for seq, b := range r.Bouts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bouts (run_id, file_position, seq, start_time_s, end_time_s, duration_s, avg_power_w, magnitude_pct_cp, severity)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, pos, seq, b.StartTime, b.EndTime, b.Duration, b.AveragePower, b.MagnitudePctCP, string(b.Severity),
		)
		if err != nil {
			return err
		}
	}
	for seq, d := range r.Depletions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO depletions (run_id, file_position, seq, time_s, balance_j, balance_pct) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, pos, seq, d.Time, d.BalanceJoules, d.BalancePctOfWP,
		)
		if err != nil {
			return err
		}
	}
	for i, bin := range r.Zones.Bins {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO zone_counts (run_id, file_position, bin_index, label, min_pct, max_pct, sample_count, percent_of_duration)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, pos, i, bin.Label, bin.MinPct, bin.MaxPct, bin.SampleCount, bin.PercentOfDuration,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListRuns returns every stored run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	query := `
		SELECT r.id, r.created_at, r.params_json, r.window_start, r.window_end,
		       (SELECT COUNT(*) FROM run_files f WHERE f.run_id = r.id),
		       (SELECT COUNT(*) FROM bouts b WHERE b.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at DESC, r.id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			info    RunInfo
			created string
			params  string
		)
		if err := rows.Scan(&info.ID, &created, &params, &info.Window.StartS, &info.Window.EndS, &info.FileCount, &info.BoutCount); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		if err := decodeRunInfo(&info, created, params); err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// LoadRun reads one run back. Per-file summaries are recomputed from the
// stored bouts.
func (s *Store) LoadRun(ctx context.Context, id string) (*Run, error) {
	var (
		run     Run
		created string
		params  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, params_json, window_start, window_end FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &created, &params, &run.Window.StartS, &run.Window.EndS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", id, err)
	}
	if err := decodeRunInfo(&run.RunInfo, created, params); err != nil {
		return nil, err
	}

	files, err := s.loadFiles(ctx, id, run.Window)
	if err != nil {
		return nil, err
	}
	if err := s.loadBouts(ctx, id, files); err != nil {
		return nil, err
	}
	if err := s.loadDepletions(ctx, id, files); err != nil {
		return nil, err
	}
	if err := s.loadZones(ctx, id, files); err != nil {
		return nil, err
	}

	run.Files = files
	run.FileCount = len(files)
	for i := range run.Files {
		run.Files[i].Summary = critstudy.SummarizeBouts(run.Files[i].Bouts)
		run.BoutCount += len(run.Files[i].Bouts)
	}
	return &run, nil
}

func (s *Store) loadFiles(ctx context.Context, id string, w critstudy.Window) ([]critstudy.FileResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, duration_s, min_balance_j, zone_total_samples FROM run_files WHERE run_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []critstudy.FileResult
	for rows.Next() {
		r := critstudy.FileResult{
			Window:     w,
			Bouts:      []critstudy.Bout{},
			Depletions: []critstudy.DepletionEvent{},
			Zones:      critstudy.ZoneHistogram{Bins: []critstudy.ZoneBin{}},
		}
		if err := rows.Scan(&r.Name, &r.DurationS, &r.MinBalance, &r.Zones.TotalSamples); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		files = append(files, r)
	}
	return files, rows.Err()
}

func (s *Store) loadBouts(ctx context.Context, id string, files []critstudy.FileResult) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_position, start_time_s, end_time_s, duration_s, avg_power_w, magnitude_pct_cp, severity
		 FROM bouts WHERE run_id = ? ORDER BY file_position, seq`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to query bouts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pos      int
			b        critstudy.Bout
			severity string
		)
		if err := rows.Scan(&pos, &b.StartTime, &b.EndTime, &b.Duration, &b.AveragePower, &b.MagnitudePctCP, &severity); err != nil {
			return fmt.Errorf("failed to scan bout row: %w", err)
		}
		if pos < 0 || pos >= len(files) {
			return fmt.Errorf("bout references unknown file position %d", pos)
		}
		b.Severity = critstudy.Severity(severity)
		files[pos].Bouts = append(files[pos].Bouts, b)
	}
	return rows.Err()
}

func (s *Store) loadDepletions(ctx context.Context, id string, files []critstudy.FileResult) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_position, time_s, balance_j, balance_pct FROM depletions WHERE run_id = ? ORDER BY file_position, seq`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to query depletions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pos int
			d   critstudy.DepletionEvent
		)
		if err := rows.Scan(&pos, &d.Time, &d.BalanceJoules, &d.BalancePctOfWP); err != nil {
			return fmt.Errorf("failed to scan depletion row: %w", err)
		}
		if pos < 0 || pos >= len(files) {
			return fmt.Errorf("depletion references unknown file position %d", pos)
		}
		files[pos].Depletions = append(files[pos].Depletions, d)
	}
	return rows.Err()
}

func (s *Store) loadZones(ctx context.Context, id string, files []critstudy.FileResult) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_position, label, min_pct, max_pct, sample_count, percent_of_duration
		 FROM zone_counts WHERE run_id = ? ORDER BY file_position, bin_index`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to query zone counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pos int
			bin critstudy.ZoneBin
		)
		if err := rows.Scan(&pos, &bin.Label, &bin.MinPct, &bin.MaxPct, &bin.SampleCount, &bin.PercentOfDuration); err != nil {
			return fmt.Errorf("failed to scan zone row: %w", err)
		}
		if pos < 0 || pos >= len(files) {
			return fmt.Errorf("zone count references unknown file position %d", pos)
		}
		files[pos].Zones.Bins = append(files[pos].Zones.Bins, bin)
	}
	return rows.Err()
}

func decodeRunInfo(info *RunInfo, created, params string) error {
	t, err := time.Parse(createdLayout, created)
	if err != nil {
		return fmt.Errorf("failed to parse created_at for run %s: %w", info.ID, err)
	}
	info.CreatedAt = t
	if err := json.Unmarshal([]byte(params), &info.Params); err != nil {
		return fmt.Errorf("failed to decode parameters for run %s: %w", info.ID, err)
	}
	return nil
}
