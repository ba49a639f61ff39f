package commands

import (
	"fmt"
	"io"
	"sync"

	"github.com/takumi/specgen/internal/domain"
)

// consoleReporter prints polling events for human consumption. Repeated
// identical snapshots are suppressed so a 10-second cadence does not
// flood the terminal.
type consoleReporter struct {
	w  io.Writer
	mu sync.Mutex

	lastLine string
}

func newConsoleReporter(w io.Writer) *consoleReporter {
	return &consoleReporter{w: w}
}

func (r *consoleReporter) Progress(snapshot *domain.ProgressSnapshot) {
	line := snapshot.Render()
	r.mu.Lock()
	defer r.mu.Unlock()
	if line == r.lastLine {
		return
	}
	r.lastLine = line
	fmt.Fprintln(r.w, line)
}

func (r *consoleReporter) Completed(status *domain.StatusResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, "Generation completed.")
}

func (r *consoleReporter) Failed(status *domain.StatusResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status.CustomStatus != nil && status.CustomStatus.Message != "" {
		fmt.Fprintf(r.w, "Generation failed: %s\n", status.CustomStatus.Message)
		return
	}
	fmt.Fprintln(r.w, "Generation failed.")
}

func (r *consoleReporter) Aborted(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "Polling aborted: %v\n", err)
}
