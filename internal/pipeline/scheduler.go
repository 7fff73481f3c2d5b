// Package pipeline provides run lifecycle management for Cadence.
//
// This file implements the run scheduler: a bounded worker pool fed by a
// bounded queue. Submissions beyond worker capacity wait in the queue;
// submissions beyond queue capacity are rejected immediately rather than
// growing without bound.
package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// job is one queued run execution.
type job struct {
	runID string

	// run executes the pipeline. It is invoked on a worker slot with the
	// scheduler's base context, not the submitter's: execution outlives
	// the submitting call and is cancelled through the engine.
	run func(ctx context.Context)

	// abort is invoked instead of run when the scheduler stops before the
	// job ever reaches a worker.
	abort func()
}

// Scheduler executes queued runs on a bounded number of worker slots.
type Scheduler struct {
	queue   chan job
	workers *semaphore.Weighted
	logger  zerolog.Logger

	mu     sync.Mutex
	closed bool

	wg sync.WaitGroup
}

// NewScheduler creates a scheduler with the given worker and queue bounds.
// Both bounds must be positive; callers apply defaults before construction.
func NewScheduler(workers, queueSize int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		queue:   make(chan job, queueSize),
		workers: semaphore.NewWeighted(int64(workers)),
		logger:  logger,
	}
}

// Start launches the dispatch loop. The context bounds every run the
// scheduler executes: when it ends, queued jobs are aborted and running
// jobs observe cancellation.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.dispatch(ctx)
}

// Submit queues a run for execution. Returns ErrSchedulerClosed after Close
// and ErrQueueFull when the queue is at capacity.
func (s *Scheduler) Submit(j job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cadenceerrors.Wrapf(cadenceerrors.ErrSchedulerClosed, "run '%s'", j.runID)
	}

	select {
	case s.queue <- j:
		return nil
	default:
		return cadenceerrors.Wrapf(cadenceerrors.ErrQueueFull,
			"run '%s' rejected at queue capacity %d", j.runID, cap(s.queue))
	}
}

// QueueDepth returns the number of jobs waiting for a worker slot.
func (s *Scheduler) QueueDepth() int {
	return len(s.queue)
}

// Close stops intake and waits for queued and running jobs to finish.
// Idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()

	// If dispatch stopped early on context end, jobs submitted afterward
	// are still sitting in the closed queue. Abort them so no accepted run
	// is silently dropped.
	for j := range s.queue {
		s.abortJob(j)
	}
}

// dispatch moves queued jobs onto worker slots until the context ends or
// the queue is closed and drained.
func (s *Scheduler) dispatch(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			s.drain()
			return
		case j, ok := <-s.queue:
			if !ok {
				return
			}
			if err := s.workers.Acquire(ctx, 1); err != nil {
				s.abortJob(j)
				s.drain()
				return
			}

			s.logger.Debug().Str("run_id", j.runID).Msg("dispatching run to worker")
			s.wg.Add(1)
			go func(j job) {
				defer s.wg.Done()
				defer s.workers.Release(1)
				j.run(ctx)
			}(j)
		}
	}
}

// drain aborts every job still queued when the dispatch loop stops early.
func (s *Scheduler) drain() {
	for {
		select {
		case j, ok := <-s.queue:
			if !ok {
				return
			}
			s.abortJob(j)
		default:
			return
		}
	}
}

func (s *Scheduler) abortJob(j job) {
	s.logger.Info().Str("run_id", j.runID).Msg("aborting queued run, scheduler stopping")
	if j.abort != nil {
		j.abort()
	}
}
