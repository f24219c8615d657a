package organizer

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"foldersort/types"
	"foldersort/utils"
)

// Failure is one file that could not be processed
type Failure struct {
	Stage string
	Path  string
	Err   string
}

// Summary counts what a run did, or would do in a dry run
type Summary struct {
	DryRun      bool
	Categorized int
	Existing    int
	NewBuckets  int
	Removed     int
	Skipped     int
	Failures    []Failure
	Started     time.Time
	Finished    time.Time
}

func newSummary(dryRun bool) *Summary {
	return &Summary{DryRun: dryRun, Started: time.Now()}
}

func (s *Summary) add(stage string, rec types.MoveRecord) {
	if rec.Error != "" {
		s.Failures = append(s.Failures, Failure{Stage: stage, Path: rec.Source, Err: rec.Error})
		return
	}
	switch stage {
	case types.StageCategorize:
		s.Categorized++
	case types.StageRearrange:
		if rec.Kind == types.DecisionExisting.String() {
			s.Existing++
		} else {
			s.NewBuckets++
		}
	case types.StageCleanup:
		s.Removed++
	}
}

// Print writes the summary tables to w
func (s *Summary) Print(w io.Writer) {
	title := "Run summary"
	if s.DryRun {
		title = "Dry run summary"
	}

	elapsed := s.Finished.Sub(s.Started)
	if s.Finished.IsZero() {
		elapsed = time.Since(s.Started)
	}

	rows := [][]string{
		{"Sorted into categories", strconv.Itoa(s.Categorized)},
		{"Joined existing folders", strconv.Itoa(s.Existing)},
		{"Started new folders", strconv.Itoa(s.NewBuckets)},
		{"Marker files removed", strconv.Itoa(s.Removed)},
		{"Left in place", strconv.Itoa(s.Skipped)},
		{"Failed", strconv.Itoa(len(s.Failures))},
		{"Elapsed", utils.FormatDuration(elapsed)},
	}
	fmt.Fprintln(w, utils.RenderTable(title, []string{"Outcome", "Files"}, rows, []utils.ColumnAlignment{utils.AlignLeft, utils.AlignRight}))

	if len(s.Failures) == 0 {
		return
	}
	failures := make([][]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		failures = append(failures, []string{f.Stage, f.Path, f.Err})
	}
	fmt.Fprintln(w, utils.RenderTable("Failures", []string{"Stage", "File", "Error"}, failures, nil))
}
