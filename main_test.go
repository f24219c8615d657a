package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"foldersort/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	logging.CloseLogger()
	return out.String(), err
}

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "foldersort.toml")
	content := fmt.Sprintf("[journal]\nenabled = true\npath = %q\n", filepath.Join(dir, "journal.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "foldersort.toml")

	out, err := executeCLI(t, "config", "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)
	assert.FileExists(t, target)

	_, err = executeCLI(t, "config", "init", "--path", target)
	assert.Error(t, err)

	_, err = executeCLI(t, "config", "init", "--path", target, "--overwrite")
	assert.NoError(t, err)
}

func TestRootRequiresDir(t *testing.T) {
	cfg := writeTestConfig(t, t.TempDir())
	_, err := executeCLI(t, "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dir")
}

func TestRootRejectsMissingConfig(t *testing.T) {
	_, err := executeCLI(t, "--dir", t.TempDir(), "--config", filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestRootRejectsMissingDirectory(t *testing.T) {
	cfg := writeTestConfig(t, t.TempDir())
	_, err := executeCLI(t, "--dir", filepath.Join(t.TempDir(), "missing"), "--config", cfg)
	assert.Error(t, err)
}

func TestSortThenHistory(t *testing.T) {
	base := t.TempDir()
	cfg := writeTestConfig(t, base)

	root := filepath.Join(base, "inbox")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jpg"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.pdf"), []byte("b"), 0o644))

	out, err := executeCLI(t, "--dir", root, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Sorted into categories")

	assert.FileExists(t, filepath.Join(root, "images", "jpg", "a.jpg"))
	assert.FileExists(t, filepath.Join(root, "documents", "pdf", "b.pdf"))

	out, err = executeCLI(t, "history", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, root)
}

func TestDryRunLeavesFiles(t *testing.T) {
	base := t.TempDir()
	cfg := writeTestConfig(t, base)

	root := filepath.Join(base, "inbox")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jpg"), []byte("a"), 0o644))

	out, err := executeCLI(t, "--dir", root, "--config", cfg, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(out), "dry run summary")
	assert.FileExists(t, filepath.Join(root, "a.jpg"))
	assert.NoDirExists(t, filepath.Join(root, "images"))
}

func TestRearrangeWithoutModelFails(t *testing.T) {
	base := t.TempDir()
	cfg := writeTestConfig(t, base)

	root := filepath.Join(base, "inbox")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images", "jpg", "cats"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "jpg", "cats", "c1.jpg"), []byte("c"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c2.jpg"), []byte("c"), 0o644))

	_, err := executeCLI(t, "--dir", root, "--config", cfg, "--rearrange")
	require.Error(t, err)

	// category sorting still ran
	assert.FileExists(t, filepath.Join(root, "images", "jpg", "c2.jpg"))
}
