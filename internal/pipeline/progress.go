// Package pipeline provides run lifecycle management for Cadence.
//
// This file implements the progress tracker: an observer-only stream of
// run and stage lifecycle events. Subscribers receive events on buffered
// channels; a subscriber that falls behind misses events rather than
// blocking the engine.
package pipeline

import (
	"sync"
	"time"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
)

// EventType classifies a progress event.
type EventType string

// Progress event types for run and stage lifecycle transitions.
const (
	// EventRunStarted is emitted when the first stage begins.
	EventRunStarted EventType = "run_started"

	// EventStageStarted is emitted when a stage begins executing.
	EventStageStarted EventType = "stage_started"

	// EventStageSucceeded is emitted when a stage passes its gates.
	EventStageSucceeded EventType = "stage_succeeded"

	// EventStageFailed is emitted when a stage aborts the run.
	EventStageFailed EventType = "stage_failed"

	// EventRunCompleted is emitted when all twelve stages succeeded.
	EventRunCompleted EventType = "run_completed"

	// EventRunFailed is emitted when the run aborts.
	EventRunFailed EventType = "run_failed"

	// EventRunCancelled is emitted when the caller cancels the run.
	EventRunCancelled EventType = "run_cancelled"
)

// Event is one progress observation. Events are immutable values; the
// tracker never mutates the run.
//
// Example JSON representation (as appended to a run's event log):
//
//	{
//	    "run_id": "run-20260825-100000-1a2b3c4d",
//	    "stage_id": 5,
//	    "phase": "structure",
//	    "event": "stage_succeeded",
//	    "percent_complete": 41.7,
//	    "message": "pillar-allocation passed (score 0.94)",
//	    "timestamp": "2026-08-25T10:00:09Z"
//	}
type Event struct {
	// RunID identifies the run the event belongs to.
	RunID string `json:"run_id"`

	// StageID is the stage the event concerns. Zero for run-level events.
	StageID domain.StageID `json:"stage_id,omitempty"`

	// Phase is the stage's pipeline phase. Empty for run-level events.
	Phase domain.Phase `json:"phase,omitempty"`

	// Type is the lifecycle transition observed.
	Type EventType `json:"event"`

	// PercentComplete is the run's progress in [0,100], counting
	// succeeded stages.
	PercentComplete float64 `json:"percent_complete"`

	// Message is a human-readable description of the transition.
	Message string `json:"message,omitempty"`

	// Timestamp is when the event was observed (UTC).
	Timestamp time.Time `json:"timestamp"`
}

// DefaultSubscriberBuffer is the event buffer per subscriber. A subscriber
// more than this many events behind starts missing events.
const DefaultSubscriberBuffer = 64

// Tracker fans progress events out to subscribers. Publication is
// non-blocking: the engine never waits on an observer.
type Tracker struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	buffer      int
	closed      bool
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithSubscriberBuffer sets the per-subscriber event buffer size.
func WithSubscriberBuffer(size int) TrackerOption {
	return func(t *Tracker) {
		if size > 0 {
			t.buffer = size
		}
	}
}

// NewTracker creates a progress tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		subscribers: make(map[int]chan Event),
		buffer:      DefaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Subscribe registers an observer and returns its event channel plus an
// unsubscribe function. The channel is closed on unsubscribe and when the
// tracker closes. Unsubscribe is idempotent.
func (t *Tracker) Subscribe() (<-chan Event, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Event, t.buffer)
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextID
	t.nextID++
	t.subscribers[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if sub, ok := t.subscribers[id]; ok {
				delete(t.subscribers, id)
				close(sub)
			}
		})
	}
	return ch, unsubscribe
}

// Publish delivers an event to every subscriber whose buffer has room.
// Slow subscribers are skipped; the caller never blocks.
func (t *Tracker) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return
	}
	for _, ch := range t.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full: drop rather than block the engine
		}
	}
}

// Close shuts the tracker down and closes all subscriber channels.
// Publish calls after Close are no-ops.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	for id, ch := range t.subscribers {
		delete(t.subscribers, id)
		close(ch)
	}
}

// SubscriberCount returns the number of active subscribers.
func (t *Tracker) SubscriberCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.subscribers)
}

// percentComplete converts a count of succeeded stages to a percentage of
// the fixed twelve-stage sequence, rounded to one decimal place.
func percentComplete(succeededStages int) float64 {
	pct := float64(succeededStages) / float64(constants.StageCount) * 100
	return float64(int(pct*10+0.5)) / 10
}
