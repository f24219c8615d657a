// Package organizer sorts loose files into category folders and rearranges
// image folders into buckets of visually similar files.
package organizer

import (
	"io"
	"os"
	"time"

	"foldersort/bucket"
	"foldersort/config"
	"foldersort/fsops"
	"foldersort/logging"
	"foldersort/types"
)

// Recorder receives every attempted move, successful or not
type Recorder interface {
	RecordMove(rec types.MoveRecord) error
}

// Organizer runs the category sort and the similarity rearrange over one tree
type Organizer struct {
	cfg      *config.Config
	fs       fsops.FS
	assigner *bucket.Assigner
	recorder Recorder
	progress *ProgressTracker
	dryRun   bool
	summary  *Summary
}

// Option customizes an Organizer
type Option func(*Organizer)

// WithRecorder journals every move through r
func WithRecorder(r Recorder) Option {
	return func(o *Organizer) {
		o.recorder = r
	}
}

// WithDryRun computes and reports decisions without changing the tree
func WithDryRun(dryRun bool) Option {
	return func(o *Organizer) {
		o.dryRun = dryRun
	}
}

// WithProgress reports progress through p
func WithProgress(p *ProgressTracker) Option {
	return func(o *Organizer) {
		if p != nil {
			o.progress = p
		}
	}
}

// New creates an organizer. assigner may be nil when no rearrange will run.
func New(cfg *config.Config, fsys fsops.FS, assigner *bucket.Assigner, opts ...Option) *Organizer {
	o := &Organizer{
		cfg:      cfg,
		fs:       fsys,
		assigner: assigner,
	}
	// Debug lines would tear the progress line apart
	if logging.IsDebug() {
		o.progress = NewProgressTracker(io.Discard)
	} else {
		o.progress = NewProgressTracker(os.Stdout)
	}
	for _, opt := range opts {
		opt(o)
	}
	o.summary = newSummary(o.dryRun)
	return o
}

// Summary returns the counters collected so far
func (o *Organizer) Summary() *Summary {
	return o.summary
}

// Run creates the category folders, sorts loose files into them and, when
// rearrange is set, regroups the configured image categories by similarity
func (o *Organizer) Run(root string, rearrange bool) (*Summary, error) {
	defer o.progress.Stop()
	defer func() { o.summary.Finished = time.Now() }()

	if o.dryRun {
		logging.LogInfo("Dry run: nothing will be created, moved or removed")
	}

	if err := o.CreateFolders(root); err != nil {
		return o.summary, err
	}
	if err := o.Traverse(root); err != nil {
		return o.summary, err
	}
	if rearrange {
		if err := o.RearrangeDirectory(root); err != nil {
			return o.summary, err
		}
	}
	return o.summary, nil
}

// record updates the summary and the journal for one processed file
func (o *Organizer) record(stage string, rec types.MoveRecord, err error) {
	rec.Stage = stage
	if err != nil {
		rec.Error = err.Error()
	}
	o.summary.add(stage, rec)
	o.progress.Increment(err != nil)

	if o.recorder == nil {
		return
	}
	if jerr := o.recorder.RecordMove(rec); jerr != nil {
		logging.LogWarning("Cannot journal move of %s: %v", rec.Source, jerr)
	}
}
