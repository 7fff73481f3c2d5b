// Package pipeline provides run lifecycle management for Cadence.
//
// This file implements the run state machine, which enforces valid status
// transitions and maintains an audit trail of all changes.
//
// Import rules:
//   - CAN import: internal/constants, internal/domain, internal/errors, std lib
//   - MUST NOT import: internal/cli
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// ValidTransitions defines all allowed status transitions in the run
// lifecycle. Format: from_status -> []to_statuses
//
// The state machine follows this flow:
//
//	Pending → Running, Cancelled
//	Running → Completed, Failed, Cancelled
//
// Completed, Failed, and Cancelled are terminal: a finished run is never
// modified again.
//
//nolint:gochecknoglobals // Exported for testing and read-only lookup table
var ValidTransitions = map[constants.RunStatus][]constants.RunStatus{
	constants.RunStatusPending: {
		constants.RunStatusRunning,
		constants.RunStatusCancelled, // Allow cancel before the first stage starts
	},
	constants.RunStatusRunning: {
		constants.RunStatusCompleted,
		constants.RunStatusFailed,
		constants.RunStatusCancelled,
	},
}

// terminalStatuses defines states where no further transitions are allowed.
// These are the statuses NOT present as keys in ValidTransitions, duplicated
// here for O(1) lookup.
// MAINTENANCE: When adding new statuses, update both ValidTransitions and this map.
//
//nolint:gochecknoglobals // Read-only lookup table for terminal state checks
var terminalStatuses = map[constants.RunStatus]bool{
	constants.RunStatusCompleted: true,
	constants.RunStatusFailed:    true,
	constants.RunStatusCancelled: true,
}

// IsValidTransition checks if a transition from one status to another is
// allowed. Returns false for transitions from terminal states or to the
// same state.
func IsValidTransition(from, to constants.RunStatus) bool {
	if from == to {
		return false
	}

	validTargets, exists := ValidTransitions[from]
	if !exists {
		return false // Terminal state or unknown state
	}
	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus returns true for states where no further transitions are
// allowed. Terminal states: Completed, Failed, Cancelled.
func IsTerminalStatus(status constants.RunStatus) bool {
	return terminalStatuses[status]
}

// GetValidTargetStatuses returns all valid target statuses for a given
// status. Returns nil for terminal states or unknown statuses.
func GetValidTargetStatuses(from constants.RunStatus) []constants.RunStatus {
	targets, exists := ValidTransitions[from]
	if !exists {
		return nil
	}
	result := make([]constants.RunStatus, len(targets))
	copy(result, targets)
	return result
}

// Transition validates and applies a status transition to the run.
// It records the transition in the run's audit trail and updates
// timestamps. The caller is responsible for persisting the updated run.
//
// Returns an error if:
//   - ctx is canceled
//   - run is nil
//   - the transition is invalid (returns wrapped ErrInvalidTransition)
func Transition(ctx context.Context, run *domain.PipelineRun, to constants.RunStatus, reason string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if run == nil {
		return fmt.Errorf("%w: run is nil", cadenceerrors.ErrInvalidTransition)
	}

	from := run.Status
	if !IsValidTransition(from, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s",
			cadenceerrors.ErrInvalidTransition, from, to)
	}

	now := time.Now().UTC()

	run.Transitions = append(run.Transitions, domain.Transition{
		FromStatus: from,
		ToStatus:   to,
		Timestamp:  now,
		Reason:     reason,
	})
	run.Status = to
	run.UpdatedAt = now

	if to == constants.RunStatusRunning && run.StartedAt == nil {
		run.StartedAt = &now
	}
	if IsTerminalStatus(to) {
		run.FinishedAt = &now
	}

	return nil
}
