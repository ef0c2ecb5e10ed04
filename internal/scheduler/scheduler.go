package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rollmark/rollmark/internal/domain/attendance"
)

// DefaultInterval between import runs when none is configured.
const DefaultInterval = 20 * time.Second

// Runner executes one import pass.
type Runner interface {
	RunImportOnce(ctx context.Context) (attendance.RunOutcome, error)
}

// Scheduler runs the import pipeline on a timer with a single in-flight
// guard: a tick that fires while a run is still executing is skipped
// entirely, with no queueing.
type Scheduler struct {
	runner Runner
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	inFlight atomic.Bool
}

// New creates a scheduler around the given runner.
func New(runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{runner: runner, logger: logger}
}

// Start begins ticking. Idempotent: returns false when already started.
// When runImmediately is set, one run executes before the first tick.
func (s *Scheduler) Start(interval time.Duration, runImmediately bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return false
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("scheduler started", "interval", interval, "immediate", runImmediately)
	go s.loop(ctx, s.done, interval, runImmediately)
	return true
}

// Stop cancels pending ticks. Safe to call when not running. An in-flight
// run is not aborted; it completes and the scheduler stays stopped.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	s.logger.Info("scheduler stopped")
	return true
}

// Started reports whether the timer is active.
func (s *Scheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// InFlight reports whether a run is currently executing.
func (s *Scheduler) InFlight() bool {
	return s.inFlight.Load()
}

// Wait blocks until the loop goroutine has exited after Stop. Intended for
// tests and shutdown paths; returns immediately if never started.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}, interval time.Duration, runImmediately bool) {
	defer close(done)

	if runImmediately {
		s.tick()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick runs one pass unless a run is already in flight. The run itself uses
// a background context: stopping the scheduler cancels future ticks, never
// the run in progress.
func (s *Scheduler) tick() {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("import still in flight, skipping tick")
		return
	}
	defer s.inFlight.Store(false)

	if _, err := s.runner.RunImportOnce(context.Background()); err != nil {
		s.logger.Warn("scheduled import failed", "error", err)
	}
}
