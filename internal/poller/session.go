package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/takumi/specgen/internal/domain"
	"github.com/takumi/specgen/internal/logger"
)

// State is the lifecycle of a tracking session.
type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateAborted   State = "aborted"
)

// StatusFetcher is the slice of the API client the session depends on.
type StatusFetcher interface {
	Status(ctx context.Context, jobID string) (*domain.StatusResponse, error)
}

// Config tunes the polling loop.
type Config struct {
	// Interval between polls. The first poll fires immediately.
	Interval time.Duration

	// MaxFailures is the consecutive-failure cap. Poll errors below the
	// cap are logged and retried on the next tick; reaching the cap
	// aborts the session with a surfaced error.
	MaxFailures int
}

// DefaultConfig matches the backend's expected 10-second polling cadence.
func DefaultConfig() *Config {
	return &Config{
		Interval:    10 * time.Second,
		MaxFailures: 5,
	}
}

// Session tracks one generation job by polling its status endpoint at a
// fixed interval. At most one polling loop is active per session: Start
// cancels any previous loop before arming a new one. A slow response may
// still be in flight when the next tick fires; responses are applied in
// arrival order (last resolved wins) and responses belonging to a
// cancelled loop are discarded.
type Session struct {
	fetcher  StatusFetcher
	reporter Reporter
	cfg      *Config
	log      *logger.Logger

	mu         sync.Mutex
	state      State
	jobID      string
	generation uint64
	failures   int
	cancel     context.CancelFunc
	done       chan struct{}
	final      *domain.StatusResponse
	err        error
}

// NewSession creates an idle session. reporter may be nil.
func NewSession(fetcher StatusFetcher, reporter Reporter, cfg *Config, log *logger.Logger) *Session {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Session{
		fetcher:  fetcher,
		reporter: reporter,
		cfg:      cfg,
		log:      log,
		state:    StateIdle,
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start arms the polling loop for jobID, performing one poll immediately
// and then one per interval. Calling Start while a loop is active cancels
// the previous loop first; re-arming is idempotent.
func (s *Session) Start(ctx context.Context, jobID string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.generation++
	gen := s.generation
	s.jobID = jobID
	s.state = StatePolling
	s.failures = 0
	s.final = nil
	s.err = nil
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.log.WithFields(logger.Fields{
		logger.FieldJobID: jobID,
	}).Info("Polling started")

	go s.run(loopCtx, gen, jobID, done)
}

// Stop cancels the active polling loop, if any. An in-flight request is
// not aborted, but its late response is discarded.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.state == StatePolling {
		s.state = StateIdle
	}
}

// Wait blocks until the loop armed by the most recent Start terminates
// and returns the terminal status. A Failed runtime status is returned
// with a nil error; the caller distinguishes by the status itself.
func (s *Session) Wait(ctx context.Context) (*domain.StatusResponse, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil, fmt.Errorf("session has not been started")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.final, s.err
}

func (s *Session) run(ctx context.Context, gen uint64, jobID string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// First poll fires without waiting for the interval.
	go s.pollOnce(ctx, gen, jobID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.finished(gen) {
				return
			}
			// Each poll runs in its own goroutine so a slow response
			// cannot delay the schedule.
			go s.pollOnce(ctx, gen, jobID)
		}
	}
}

func (s *Session) finished(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.generation || s.state != StatePolling
}

func (s *Session) pollOnce(ctx context.Context, gen uint64, jobID string) {
	status, err := s.fetcher.Status(ctx, jobID)
	s.apply(gen, status, err)
}

// apply folds one poll result into the session. Results from a superseded
// generation or an already-terminal session are discarded.
func (s *Session) apply(gen uint64, status *domain.StatusResponse, pollErr error) {
	s.mu.Lock()

	if gen != s.generation || s.state != StatePolling {
		s.mu.Unlock()
		return
	}

	if pollErr != nil {
		s.failures++
		failures := s.failures
		s.log.WithError(pollErr).WithFields(logger.Fields{
			logger.FieldJobID: s.jobID,
			"failures":        failures,
		}).Warn("Poll failed")

		if failures < s.cfg.MaxFailures {
			s.mu.Unlock()
			return
		}

		s.state = StateAborted
		s.err = fmt.Errorf("polling aborted after %d consecutive failures: %w", failures, pollErr)
		err := s.err
		s.stopLocked()
		s.mu.Unlock()

		s.reporter.Aborted(err)
		return
	}

	s.failures = 0

	var progress *domain.ProgressSnapshot
	if status.CustomStatus != nil {
		progress = status.CustomStatus
	}

	switch status.RuntimeStatus {
	case domain.StatusCompleted:
		s.state = StateCompleted
		s.final = status
		s.stopLocked()
		s.mu.Unlock()

		if progress != nil {
			s.reporter.Progress(progress)
		}
		s.reporter.Completed(status)
		return

	case domain.StatusFailed:
		s.state = StateFailed
		s.final = status
		s.stopLocked()
		s.mu.Unlock()

		s.reporter.Failed(status)
		return

	default:
		// Any other runtime status keeps the loop alive.
		s.mu.Unlock()
		if progress != nil {
			s.reporter.Progress(progress)
		}
	}
}

// stopLocked cancels the loop context. Caller holds s.mu.
func (s *Session) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
