package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const journalFileName = "foldersort.db"

// GetDefaultJournalPath returns the journal path next to the executable
func GetDefaultJournalPath() string {
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return journalFileName
	}
	return filepath.Join(filepath.Dir(exePath), journalFileName)
}

// ResolveRoot cleans dir into an absolute path and checks it is a directory
func ResolveRoot(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("no directory given")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

// RelativeTo shortens path for display when it lies under root
func RelativeTo(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// FormatDuration rounds d for human output
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
