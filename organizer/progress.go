package organizer

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// ProgressTracker prints a live progress line while a run is going. It stays
// silent unless its writer is a terminal.
type ProgressTracker struct {
	out       io.Writer
	enabled   bool
	ticker    *time.Ticker
	done      chan struct{}
	stopOnce  sync.Once
	mu        sync.Mutex
	total     int
	processed int
	errors    int
}

// NewProgressTracker starts the display when out is a terminal
func NewProgressTracker(out io.Writer) *ProgressTracker {
	p := &ProgressTracker{out: out, done: make(chan struct{})}
	if file, ok := out.(*os.File); ok {
		fd := file.Fd()
		p.enabled = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	if p.enabled {
		p.ticker = time.NewTicker(500 * time.Millisecond)
		go p.displayProgress()
	}
	return p
}

func (p *ProgressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			if p.errors > 0 {
				fmt.Fprintf(p.out, "\rProgress: %d/%d (Errors: %d)", p.processed, p.total, p.errors)
			} else {
				fmt.Fprintf(p.out, "\rProgress: %d/%d", p.processed, p.total)
			}
			p.mu.Unlock()
		}
	}
}

// AddTotal grows the number of files expected
func (p *ProgressTracker) AddTotal(n int) {
	p.mu.Lock()
	p.total += n
	p.mu.Unlock()
}

// Increment counts one processed file
func (p *ProgressTracker) Increment(failed bool) {
	p.mu.Lock()
	p.processed++
	if failed {
		p.errors++
	}
	p.mu.Unlock()
}

// Counts returns processed, total and failed files
func (p *ProgressTracker) Counts() (processed, total, errors int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.total, p.errors
}

// Stop ends the display; later calls do nothing
func (p *ProgressTracker) Stop() {
	p.stopOnce.Do(func() {
		if !p.enabled {
			return
		}
		p.ticker.Stop()
		close(p.done)
		p.mu.Lock()
		fmt.Fprintln(p.out)
		p.mu.Unlock()
	})
}
