package poller

import "github.com/takumi/specgen/internal/domain"

// Reporter receives the session's user-visible events. Implementations
// must be safe for calls from the polling goroutines.
type Reporter interface {
	// Progress is invoked for every snapshot received while the job is
	// still running. Each snapshot replaces the previous one.
	Progress(snapshot *domain.ProgressSnapshot)

	// Completed is invoked once when the backend reports the Completed
	// sentinel.
	Completed(status *domain.StatusResponse)

	// Failed is invoked once when the backend reports the Failed sentinel.
	Failed(status *domain.StatusResponse)

	// Aborted is invoked once when the consecutive-failure cap is reached.
	Aborted(err error)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) Progress(*domain.ProgressSnapshot) {}
func (NopReporter) Completed(*domain.StatusResponse)  {}
func (NopReporter) Failed(*domain.StatusResponse)     {}
func (NopReporter) Aborted(error)                     {}
