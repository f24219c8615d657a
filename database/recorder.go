package database

import (
	"database/sql"

	"foldersort/types"
)

// Recorder appends moves to the journal under one run
type Recorder struct {
	db    *sql.DB
	runID string
}

// NewRecorder returns a recorder bound to runID
func NewRecorder(db *sql.DB, runID string) *Recorder {
	return &Recorder{db: db, runID: runID}
}

// RecordMove stores rec under the recorder's run
func (r *Recorder) RecordMove(rec types.MoveRecord) error {
	rec.RunID = r.runID
	return StoreMove(r.db, rec)
}
