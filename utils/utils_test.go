package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	got, err := ResolveRoot(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = ResolveRoot(file)
	assert.Error(t, err)

	_, err = ResolveRoot(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	_, err = ResolveRoot("  ")
	assert.Error(t, err)
}

func TestRelativeTo(t *testing.T) {
	assert.Equal(t, filepath.Join("images", "jpg"), RelativeTo("/root", "/root/images/jpg"))
	assert.Equal(t, "/elsewhere/x", RelativeTo("/root", "/elsewhere/x"))
	assert.Equal(t, "/x", RelativeTo("", "/x"))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m0s", FormatDuration(2*time.Minute+200*time.Millisecond))
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
}

func TestGetDefaultJournalPath(t *testing.T) {
	assert.Equal(t, journalFileName, filepath.Base(GetDefaultJournalPath()))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable("Summary", []string{"Outcome", "Files"}, [][]string{{"moved", "3"}, {"failed"}}, []ColumnAlignment{AlignLeft, AlignRight})
	assert.Contains(t, strings.ToLower(out), "outcome")
	assert.Contains(t, out, "moved")
	assert.Contains(t, out, "failed")

	assert.Empty(t, RenderTable("", nil, nil, nil))
}
