package signalhandler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLockIsExclusive(t *testing.T) {
	journal := filepath.Join(t.TempDir(), "foldersort.db")

	first, err := AcquireRunLock(journal)
	require.NoError(t, err)

	_, err = AcquireRunLock(journal)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, first.Release())
	require.NoError(t, first.Release())

	second, err := AcquireRunLock(journal)
	require.NoError(t, err)
	assert.NoError(t, second.Release())
}

func TestSetupHandlerStop(t *testing.T) {
	stop := SetupHandler(func() {})
	stop()
}
