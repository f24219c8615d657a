package signalhandler

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"foldersort/logging"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another process holds the run lock
var ErrAlreadyRunning = errors.New("another foldersort run holds the lock")

// SetupHandler runs cleanup and exits when SIGINT or SIGTERM arrives. A move
// in flight is either finished by the OS or never started, so exiting between
// files leaves the tree consistent. The returned stop function unregisters
// the handler.
func SetupHandler(cleanup func()) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logging.LogWarning("Received %v, stopping", sig)
			if cleanup != nil {
				cleanup()
			}
			os.Exit(130)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// RunLock serializes organizer runs that share a journal
type RunLock struct {
	lock *flock.Flock
}

// AcquireRunLock takes the lock file next to the journal without blocking
func AcquireRunLock(journalPath string) (*RunLock, error) {
	lock := flock.New(journalPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (%s)", ErrAlreadyRunning, lock.Path())
	}
	return &RunLock{lock: lock}, nil
}

// Release frees the lock; calling it more than once is harmless
func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
