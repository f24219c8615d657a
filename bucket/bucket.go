// Package bucket decides which sibling directory a file belongs in by comparing
// it with one randomly sampled file from each candidate directory.
package bucket

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"foldersort/fsops"
	"foldersort/logging"
	"foldersort/types"
)

// Fixed assignment policy: a candidate must beat AcceptThreshold to be chosen,
// and a score above EarlyExitThreshold stops the scan immediately.
const (
	AcceptThreshold    = 0.5
	EarlyExitThreshold = 0.7
)

const (
	defaultFolderPrefix = "folder_"
	folderNumberMin     = 1000
	folderNumberSpan    = 9000
	maxFolderAttempts   = 100
)

// Scorer compares two files and returns their similarity
type Scorer interface {
	Score(a, b string) (float64, error)
}

// RandomSource is the subset of *rand.Rand the assigner uses
type RandomSource interface {
	Intn(n int) int
}

// Assigner picks destinations for files inside a directory being rearranged
type Assigner struct {
	fs           fsops.FS
	scorer       Scorer
	rnd          RandomSource
	folderPrefix string
}

// Option customizes an Assigner
type Option func(*Assigner)

// WithRandomSource replaces the random source used for sampling and folder names
func WithRandomSource(rnd RandomSource) Option {
	return func(a *Assigner) {
		if rnd != nil {
			a.rnd = rnd
		}
	}
}

// WithFolderPrefix sets the prefix of newly created bucket folders
func WithFolderPrefix(prefix string) Option {
	return func(a *Assigner) {
		if prefix != "" {
			a.folderPrefix = prefix
		}
	}
}

// NewAssigner creates an assigner over fsys that scores with scorer
func NewAssigner(fsys fsops.FS, scorer Scorer, opts ...Option) *Assigner {
	a := &Assigner{
		fs:           fsys,
		scorer:       scorer,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
		folderPrefix: defaultFolderPrefix,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assign decides where file goes among the subdirectories of parent and moves it there
func (a *Assigner) Assign(file, parent string) (types.MoveResult, error) {
	decision, err := a.DecideIn(file, parent)
	if err != nil {
		return types.MoveResult{Source: file}, err
	}
	return a.Apply(decision, false)
}

// DecideIn enumerates the current subdirectories of parent and decides for file
func (a *Assigner) DecideIn(file, parent string) (types.Decision, error) {
	candidates, err := a.Candidates(parent)
	if err != nil {
		return types.Decision{}, err
	}
	return a.Decide(file, parent, candidates)
}

// Candidates lists the immediate subdirectories of dir in listing order
func (a *Assigner) Candidates(dir string) ([]string, error) {
	children, err := a.fs.ListChildren(dir)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, child := range children {
		if child.IsDir {
			dirs = append(dirs, child.Path)
		}
	}
	return dirs, nil
}

// Sample picks one eligible file from dir uniformly at random. Marker and
// hidden files are never eligible; ok is false when nothing qualifies.
func (a *Assigner) Sample(dir string) (string, bool, error) {
	children, err := a.fs.ListChildren(dir)
	if err != nil {
		return "", false, err
	}

	var files []string
	for _, child := range children {
		if child.IsDir || fsops.IsHidden(child.Name) {
			continue
		}
		if a.fs.IsFile(child.Path) {
			files = append(files, child.Path)
		}
	}
	if len(files) == 0 {
		return "", false, nil
	}
	return files[a.rnd.Intn(len(files))], true, nil
}

// Decide scores file against one sampled representative per candidate
// directory, in order, without touching the filesystem. The first directory
// reaching the best score above AcceptThreshold wins; a score above
// EarlyExitThreshold ends the scan even if a later directory might score higher.
// A decode error, on either side, only drops that directory's comparison.
func (a *Assigner) Decide(file, parent string, candidates []string) (types.Decision, error) {
	decision := types.Decision{File: file, Parent: parent, Kind: types.DecisionNewBucket}

	if len(candidates) == 0 {
		logging.LogInfo("No directory found next to %s, a new folder will be created", file)
		return decision, nil
	}

	bestScore := 0.0
	bestDirectory := ""

	for _, dir := range candidates {
		sample, ok, err := a.Sample(dir)
		if err != nil {
			logging.LogWarning("Cannot sample %s: %v, skipping", dir, err)
			continue
		}
		if !ok {
			logging.LogWarning("No eligible file found in %s, skipping", dir)
			continue
		}

		score, err := a.scorer.Score(file, sample)
		if err != nil {
			if types.IsModelUnavailable(err) {
				return types.Decision{File: file, Parent: parent}, err
			}
			if types.IsDecodeError(err) {
				if path, ok := types.DecodeErrorPath(err); ok && path == file {
					logging.LogWarning("Cannot decode %s: %v, skipping %s", file, err, dir)
				} else {
					logging.LogWarning("Cannot compare %s with %s: %v, skipping %s", file, sample, err, dir)
				}
				continue
			}
			return types.Decision{File: file, Parent: parent}, fmt.Errorf("score %s against %s: %w", file, sample, err)
		}

		decision.Compared++
		logging.LogInfo("Comparing with file %s in %s with similarity %.3f", filepath.Base(sample), dir, score)

		if score > bestScore && score > AcceptThreshold {
			bestScore = score
			bestDirectory = dir
			if score > EarlyExitThreshold {
				decision.EarlyExit = true
				break
			}
		}
	}

	if bestDirectory != "" {
		decision.Kind = types.DecisionExisting
		decision.Target = bestDirectory
		decision.Score = bestScore
		return decision, nil
	}

	logging.LogInfo("No suitable directory found for %s, a new folder will be created", file)
	return decision, nil
}

// Apply carries out a decision. New buckets get a random name inside the
// decision's parent. With dryRun nothing is created or moved.
func (a *Assigner) Apply(decision types.Decision, dryRun bool) (types.MoveResult, error) {
	result := types.MoveResult{Source: decision.File, Decision: decision, DryRun: dryRun}

	target := decision.Target
	created := false
	switch decision.Kind {
	case types.DecisionExisting:
		if target == "" {
			return result, errors.New("decision has no target directory")
		}
	case types.DecisionNewBucket:
		var err error
		target, err = a.newBucket(decision.Parent, dryRun)
		if err != nil {
			return result, err
		}
		result.Decision.Target = target
		created = !dryRun
	default:
		return result, fmt.Errorf("unknown decision kind %d", decision.Kind)
	}

	if dryRun {
		result.Destination = filepath.Join(target, filepath.Base(decision.File))
		return result, nil
	}

	dst, err := a.fs.Move(decision.File, target)
	logging.LogFileMoved(decision.File, dst, err)
	if err != nil {
		// An empty bucket would become a candidate for later files
		if created {
			if rmErr := a.fs.Remove(target); rmErr != nil {
				logging.LogWarning("Cannot remove empty folder %s: %v", target, rmErr)
			}
		}
		return result, err
	}
	result.Destination = dst
	return result, nil
}

// newBucket picks an unused random folder name in parent and creates it
func (a *Assigner) newBucket(parent string, dryRun bool) (string, error) {
	if parent == "" {
		return "", errors.New("decision has no parent directory")
	}

	for attempt := 0; attempt < maxFolderAttempts; attempt++ {
		name := fmt.Sprintf("%s%d", a.folderPrefix, folderNumberMin+a.rnd.Intn(folderNumberSpan))
		path := filepath.Join(parent, name)
		if a.fs.Exists(path) {
			continue
		}
		if dryRun {
			return path, nil
		}
		if err := a.fs.Mkdir(path); err != nil {
			return "", err
		}
		logging.LogInfo("Folder created: %s", path)
		return path, nil
	}
	return "", fmt.Errorf("no free %s folder name in %s after %d attempts", a.folderPrefix, parent, maxFolderAttempts)
}
