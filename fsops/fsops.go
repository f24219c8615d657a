// Package fsops holds the filesystem operations the organizer relies on.
package fsops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Entry is one immediate child of a directory
type Entry struct {
	Name  string
	Path  string
	IsDir bool
}

// FS is the set of filesystem operations used by the organizer and the bucket assigner
type FS interface {
	// ListChildren returns the immediate children of dir in listing order
	ListChildren(dir string) ([]Entry, error)
	IsFile(path string) bool
	IsDir(path string) bool
	Exists(path string) bool
	// Move moves src into dstDir and returns the final path
	Move(src, dstDir string) (string, error)
	MkdirAll(path string) error
	// Mkdir creates path and fails if it already exists
	Mkdir(path string) error
	Remove(path string) error
}

// OS implements FS on the local filesystem
type OS struct{}

// New returns the local filesystem implementation
func New() *OS {
	return &OS{}
}

func (OS) ListChildren(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	children := make([]Entry, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		isDir := e.IsDir()
		// Resolve symlinks so a linked folder still counts as a directory
		if e.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil {
				isDir = info.IsDir()
			}
		}
		children = append(children, Entry{Name: e.Name(), Path: path, IsDir: isDir})
	}
	return children, nil
}

func (OS) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (OS) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OS) MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

func (OS) Mkdir(path string) error {
	if err := os.Mkdir(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

func (OS) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Move renames src into dstDir, falling back to copy+delete when the rename
// crosses devices. An existing file at the destination is never overwritten:
// the name gets a numeric suffix instead.
func (o OS) Move(src, dstDir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("move %s: not a regular file", src)
	}

	dst := UniquePath(o, filepath.Join(dstDir, filepath.Base(src)))
	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	} else if !isCrossDevice(err) {
		return "", fmt.Errorf("move %s: %w", src, err)
	}

	if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("copy %s across devices: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return dst, fmt.Errorf("remove source after copy: %w", err)
	}
	return dst, nil
}

// UniquePath returns path, or path with a _N suffix before the extension when
// something already exists there.
func UniquePath(fsys FS, path string) string {
	if !fsys.Exists(path) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", base, counter, ext)
		if !fsys.Exists(candidate) {
			return candidate
		}
	}
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
