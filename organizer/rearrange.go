package organizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"foldersort/fsops"
	"foldersort/logging"
	"foldersort/types"
)

// RearrangeDirectory regroups the files of every configured rearrange
// category. The directories to visit are collected before anything moves,
// so buckets created during the run are never rearranged themselves.
// A model failure stops the pass; other errors only skip a directory.
func (o *Organizer) RearrangeDirectory(root string) error {
	if o.assigner == nil {
		return fmt.Errorf("rearrange requested without a bucket assigner")
	}

	for _, category := range o.cfg.Rearrange.Categories {
		base := filepath.Join(root, category)
		if !o.fs.IsDir(base) {
			logging.LogWarning("Category folder %s does not exist, nothing to rearrange", base)
			continue
		}

		dirs := o.collectDirectories(base, 1)
		logging.LogInfo("Rearranging %d directories under %s", len(dirs), base)

		for _, dir := range dirs {
			logging.LogInfo("Processing directory: %s", dir)
			err := o.RearrangeCurrent(dir)
			if err != nil {
				if types.IsModelUnavailable(err) {
					return err
				}
				logging.LogError("Rearranging %s failed: %v", dir, err)
			}
			logging.LogInfo("End of directory processing: %s", dir)
		}
	}
	return nil
}

// collectDirectories returns the non-hidden subdirectories of dir down to
// rearrange.max_depth levels, parents before children
func (o *Organizer) collectDirectories(dir string, depth int) []string {
	children, err := o.fs.ListChildren(dir)
	if err != nil {
		logging.LogWarning("Skipping unreadable directory %s: %v", dir, err)
		return nil
	}

	var dirs []string
	for _, child := range children {
		if !child.IsDir || strings.HasPrefix(child.Name, ".") {
			continue
		}
		dirs = append(dirs, child.Path)
		if depth < o.cfg.Rearrange.MaxDepth {
			dirs = append(dirs, o.collectDirectories(child.Path, depth+1)...)
		}
	}
	return dirs
}

// RearrangeCurrent runs every regular file directly inside dir through the
// bucket assigner. Marker files are deleted and other dotfiles ignored. A
// failure is recorded and the next file is processed, except when the model
// is unavailable: then no later file could succeed either.
func (o *Organizer) RearrangeCurrent(dir string) error {
	if !o.fs.IsDir(dir) {
		return fmt.Errorf("directory %s does not exist", dir)
	}

	children, err := o.fs.ListChildren(dir)
	if err != nil {
		return err
	}

	var files []fsops.Entry
	for _, child := range children {
		if !child.IsDir && o.fs.IsFile(child.Path) {
			files = append(files, child)
		}
	}
	logging.DebugLog("Files in %s: %d", dir, len(files))
	o.progress.AddTotal(len(files))

	for _, file := range files {
		if fsops.IsMarkerFile(file.Name) {
			o.removeMarker(file.Path)
			continue
		}
		if strings.HasPrefix(file.Name, ".") {
			logging.DebugLog("Ignoring hidden file %s", file.Path)
			o.summary.Skipped++
			o.progress.Increment(false)
			continue
		}

		logging.LogInfo("Processing file: %s", file.Path)
		result, err := o.assign(file.Path, dir)

		rec := types.MoveRecord{Source: file.Path, Destination: result.Destination}
		if err == nil {
			rec.Kind = result.Decision.Kind.String()
			rec.Score = result.Decision.Score
		} else {
			logging.LogError("Cannot rearrange %s: %v", file.Path, err)
		}
		o.record(types.StageRearrange, rec, err)

		if err != nil && types.IsModelUnavailable(err) {
			return err
		}
	}
	return nil
}

func (o *Organizer) assign(file, dir string) (types.MoveResult, error) {
	if !o.dryRun {
		return o.assigner.Assign(file, dir)
	}

	decision, err := o.assigner.DecideIn(file, dir)
	if err != nil {
		return types.MoveResult{Source: file}, err
	}
	result, err := o.assigner.Apply(decision, true)
	if err == nil {
		logging.LogInfo("Would move %s -> %s", file, result.Destination)
	}
	return result, err
}

func (o *Organizer) removeMarker(path string) {
	rec := types.MoveRecord{Source: path}
	if o.dryRun {
		logging.LogInfo("Would remove marker file %s", path)
		o.record(types.StageCleanup, rec, nil)
		return
	}

	logging.LogWarning("Removing marker file %s", path)
	err := o.fs.Remove(path)
	if err != nil {
		logging.LogError("Cannot remove %s: %v", path, err)
	}
	o.record(types.StageCleanup, rec, err)
}
