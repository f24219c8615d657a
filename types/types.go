package types

import "time"

// DecisionKind tells whether a file joins an existing bucket or starts a new one
type DecisionKind int

const (
	// DecisionUnknown is the zero value, carried by decisions that failed
	DecisionUnknown DecisionKind = iota
	// DecisionExisting moves the file into an existing sibling directory
	DecisionExisting
	// DecisionNewBucket creates a randomly named directory for the file
	DecisionNewBucket
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionExisting:
		return "existing"
	case DecisionNewBucket:
		return "new_bucket"
	default:
		return "unknown"
	}
}

// Decision is the outcome of scoring one file against its candidate directories
type Decision struct {
	File string
	// Parent is the directory being rearranged; new buckets are created inside it
	Parent string
	Kind   DecisionKind
	// Target is the chosen directory for DecisionExisting, empty otherwise
	Target string
	Score  float64
	// Compared counts the candidate directories that produced a score
	Compared int
	// EarlyExit is set when a score above the early-exit threshold stopped the scan
	EarlyExit bool
}

// MoveResult records where a file ended up after a decision was applied
type MoveResult struct {
	Source      string
	Destination string
	Decision    Decision
	DryRun      bool
}

// Journal stages
const (
	StageCategorize = "categorize"
	StageRearrange  = "rearrange"
	StageCleanup    = "cleanup"
)

// MoveRecord is a journal row describing one attempted move
type MoveRecord struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	Stage       string    `json:"stage"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Kind        string    `json:"kind"`
	Score       float64   `json:"score"`
	Error       string    `json:"error"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunInfo describes one invocation of the organizer
type RunInfo struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	Rearrange  bool      `json:"rearrange"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
