package database

import (
	"database/sql"
	"fmt"
	"time"

	"foldersort/logging"
	"foldersort/types"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase opens the journal at dbPath and creates its schema
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		rearrange INTEGER NOT NULL DEFAULT 0,
		dry_run INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT
	);
	CREATE TABLE IF NOT EXISTS moves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		stage TEXT NOT NULL,
		source TEXT NOT NULL,
		destination TEXT,
		kind TEXT,
		score REAL,
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_moves_run ON moves(run_id);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}

	// Journals written before failures were recorded lack the error column
	var hasErrorColumn bool
	err = db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('moves') WHERE name='error'").Scan(&hasErrorColumn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error checking for error column: %v", err)
	}
	if !hasErrorColumn {
		if _, err = db.Exec("ALTER TABLE moves ADD COLUMN error TEXT NOT NULL DEFAULT '';"); err != nil {
			db.Close()
			return nil, fmt.Errorf("error adding error column: %v", err)
		}
		logging.DebugLog("Added 'error' column to journal schema")
	}

	return db, nil
}

// OpenDatabase opens an existing journal
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// StartRun records the beginning of an organizer run
func StartRun(db *sql.DB, root string, rearrange, dryRun bool) (types.RunInfo, error) {
	run := types.RunInfo{
		ID:        uuid.NewString(),
		Root:      root,
		Rearrange: rearrange,
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO runs (id, root, rearrange, dry_run, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Root, run.Rearrange, run.DryRun, run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return run, fmt.Errorf("cannot record run for %s: %v", root, err)
	}
	return run, nil
}

// FinishRun stamps the end time of a run
func FinishRun(db *sql.DB, runID string) error {
	res, err := db.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`, time.Now().UTC().Format(time.RFC3339Nano), runID)
	if err != nil {
		return fmt.Errorf("cannot finish run %s: %v", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown run %s", runID)
	}
	return nil
}

// StoreMove appends one move attempt to the journal
func StoreMove(db *sql.DB, rec types.MoveRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	stmt, err := db.Prepare(`
		INSERT INTO moves (run_id, stage, source, destination, kind, score, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement for %s: %v", rec.Source, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(rec.RunID, rec.Stage, rec.Source, rec.Destination, rec.Kind, rec.Score, rec.Error,
		rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("cannot insert move for %s: %v", rec.Source, err)
	}
	return nil
}

// ListRuns returns the most recent runs first; limit <= 0 returns all
func ListRuns(db *sql.DB, limit int) ([]types.RunInfo, error) {
	query := `SELECT id, root, rearrange, dry_run, started_at, COALESCE(finished_at, '') FROM runs ORDER BY started_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []types.RunInfo
	for rows.Next() {
		var run types.RunInfo
		var started, finished string
		if err := rows.Scan(&run.ID, &run.Root, &run.Rearrange, &run.DryRun, &started, &finished); err != nil {
			return nil, err
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListMoves returns the moves of a run in the order they were recorded
func ListMoves(db *sql.DB, runID string) ([]types.MoveRecord, error) {
	rows, err := db.Query(`
		SELECT id, run_id, stage, source, COALESCE(destination, ''), COALESCE(kind, ''), COALESCE(score, 0), error, created_at
		FROM moves WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []types.MoveRecord
	for rows.Next() {
		var rec types.MoveRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Stage, &rec.Source, &rec.Destination, &rec.Kind, &rec.Score, &rec.Error, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt = parseTime(created)
		moves = append(moves, rec)
	}
	return moves, rows.Err()
}

// RunStats summarizes the journal of one run
type RunStats struct {
	Categorized int
	Existing    int
	NewBuckets  int
	Removed     int
	Failed      int
}

// GetRunStats counts the journal rows of a run by outcome
func GetRunStats(db *sql.DB, runID string) (*RunStats, error) {
	var stats RunStats
	err := db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN error = '' AND stage = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error = '' AND stage = ? AND kind = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error = '' AND stage = ? AND kind = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error = '' AND stage = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error <> '' THEN 1 ELSE 0 END), 0)
		FROM moves WHERE run_id = ?`,
		types.StageCategorize,
		types.StageRearrange, types.DecisionExisting.String(),
		types.StageRearrange, types.DecisionNewBucket.String(),
		types.StageCleanup,
		runID,
	).Scan(&stats.Categorized, &stats.Existing, &stats.NewBuckets, &stats.Removed, &stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("failed to get run stats: %v", err)
	}
	return &stats, nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
