package organizer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"foldersort/fsops"
	"foldersort/logging"
	"foldersort/types"
)

// CreateFolders makes sure every configured category folder exists in root
func (o *Organizer) CreateFolders(root string) error {
	if !o.fs.IsDir(root) {
		return fmt.Errorf("directory %s does not exist", root)
	}

	names := o.cfg.CategoryNames()
	sort.Strings(names)

	logging.LogInfo("Creating category folders in %s", root)
	for _, name := range names {
		path := filepath.Join(root, name)
		if o.fs.IsDir(path) {
			logging.LogInfo("Folder already exists: %s", path)
			continue
		}
		if o.dryRun {
			logging.LogInfo("Would create folder: %s", path)
			continue
		}
		if err := o.fs.MkdirAll(path); err != nil {
			return err
		}
		logging.LogInfo("Folder created: %s", path)
	}
	return nil
}

// Traverse moves every file below root whose extension belongs to a category
// into <root>/<category>/<ext>/. Category folders, hidden directories and
// hidden files are left alone; a failed move is recorded and skipped.
func (o *Organizer) Traverse(root string) error {
	logging.LogInfo("Traversing directory: %s", root)

	files, err := o.looseFiles(root, root)
	if err != nil {
		return err
	}
	o.progress.AddTotal(len(files))

	failed := 0
	for _, path := range files {
		if err := o.categorize(root, path); err != nil {
			failed++
		}
	}

	if failed > 0 {
		logging.LogWarning("Error moving %d files", failed)
	} else {
		logging.LogInfo("All files moved successfully")
	}
	logging.LogInfo("End of directory traversal")
	return nil
}

// looseFiles lists candidate files below dir. Only the listing of root itself
// is fatal; unreadable subdirectories are reported and skipped.
func (o *Organizer) looseFiles(root, dir string) ([]string, error) {
	children, err := o.fs.ListChildren(dir)
	if err != nil {
		if dir == root {
			return nil, err
		}
		logging.LogWarning("Skipping unreadable directory %s: %v", dir, err)
		return nil, nil
	}

	var files []string
	for _, child := range children {
		if child.IsDir {
			if strings.HasPrefix(child.Name, ".") {
				continue
			}
			if dir == root && o.isCategory(child.Name) {
				continue
			}
			nested, err := o.looseFiles(root, child.Path)
			if err != nil {
				return nil, err
			}
			files = append(files, nested...)
			continue
		}
		if fsops.IsHidden(child.Name) || !o.fs.IsFile(child.Path) {
			continue
		}
		files = append(files, child.Path)
	}
	return files, nil
}

func (o *Organizer) isCategory(name string) bool {
	_, ok := o.cfg.Categories[name]
	return ok
}

// categorize moves one file into its category/extension folder. Files with
// no matching category stay where they are.
func (o *Organizer) categorize(root, path string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	category, ok := o.cfg.CategoryFor(ext)
	if !ok {
		logging.DebugLog("No category for %s, leaving it in place", path)
		o.summary.Skipped++
		o.progress.Increment(false)
		return nil
	}

	destDir := filepath.Join(root, category, ext)
	rec := types.MoveRecord{Source: path, Kind: category}

	if o.dryRun {
		rec.Destination = filepath.Join(destDir, filepath.Base(path))
		logging.LogInfo("Would move %s -> %s", path, rec.Destination)
		o.record(types.StageCategorize, rec, nil)
		return nil
	}

	if err := o.fs.MkdirAll(destDir); err != nil {
		o.record(types.StageCategorize, rec, err)
		return err
	}

	dst, err := o.fs.Move(path, destDir)
	logging.LogFileMoved(path, dst, err)
	rec.Destination = dst
	o.record(types.StageCategorize, rec, err)
	return err
}
