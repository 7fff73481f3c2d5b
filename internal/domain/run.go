// Package domain provides shared domain types for the Cadence generation pipeline.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case per architecture requirements.
package domain

import (
	"fmt"
	"time"

	"github.com/cadencelabs/cadence/internal/constants"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// PipelineRun represents one end-to-end execution of the twelve-stage
// calendar generation pipeline. The run record is owned exclusively by the
// pipeline engine: all mutations go through it, and once the run reaches a
// terminal status the record is never modified again.
//
// Example JSON representation:
//
//	{
//	    "id": "run-20260825-100000-1a2b3c4d",
//	    "user_id": "user-42",
//	    "strategy_id": "b2b-saas-q3",
//	    "status": "running",
//	    "current_stage": 4,
//	    "options": {...},
//	    "stage_results": [...],
//	    "created_at": "2026-08-25T10:00:00Z",
//	    "schema_version": "1.0"
//	}
type PipelineRun struct {
	// ID is the unique identifier for the run.
	// Format: run-YYYYMMDD-HHMMSS-xxxxxxxx
	ID string `json:"id" yaml:"id"`

	// UserID identifies the account the calendar is generated for.
	UserID string `json:"user_id" yaml:"user_id"`

	// StrategyID identifies the content strategy driving this run.
	StrategyID string `json:"strategy_id" yaml:"strategy_id"`

	// Status represents the current state in the run lifecycle.
	// Uses constants.RunStatus values (pending, running, completed, ...).
	Status constants.RunStatus `json:"status" yaml:"status"`

	// CurrentStage is the identifier (1-12) of the stage currently executing
	// or, for a terminal run, the last stage that executed. Zero means no
	// stage has started. Results are never recorded beyond this stage.
	CurrentStage int `json:"current_stage" yaml:"current_stage"`

	// Options echoes the validated request options for this run.
	Options RunOptions `json:"options" yaml:"options"`

	// StageResults is the ordered list of completed stage outcomes.
	// At most one result exists per stage, appended in stage order.
	StageResults []StageResult `json:"stage_results" yaml:"stage_results"`

	// FailureReason attributes a failed run to a stage and cause.
	// Set if and only if Status is failed.
	FailureReason *FailureReason `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`

	// Transitions is the audit trail of status changes.
	Transitions []Transition `json:"transitions,omitempty" yaml:"transitions,omitempty"`

	// CreatedAt is when the run was accepted.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// StartedAt is when stage execution began (nil while pending).
	StartedAt *time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`

	// FinishedAt is when the run reached a terminal status (nil until then).
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`

	// UpdatedAt is when the run record was last modified.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// SchemaVersion indicates the version of the run JSON schema.
	// This enables forward-compatible schema migrations.
	SchemaVersion string `json:"schema_version" yaml:"schema_version"`
}

// IsTerminal reports whether the run has reached a state that permits no
// further transitions.
func (r *PipelineRun) IsTerminal() bool {
	switch r.Status {
	case constants.RunStatusCompleted, constants.RunStatusFailed, constants.RunStatusCancelled:
		return true
	default:
		return false
	}
}

// ResultFor returns the recorded result for the given stage, or nil if the
// stage has not produced one.
func (r *PipelineRun) ResultFor(stageID StageID) *StageResult {
	for i := range r.StageResults {
		if r.StageResults[i].StageID == stageID {
			return &r.StageResults[i]
		}
	}
	return nil
}

// RunOptions carries the caller-supplied parameters for a calendar run.
// Options are validated once by StartRun and are immutable afterwards.
//
// Example JSON representation:
//
//	{
//	    "days": 30,
//	    "start_date": "2026-09-01T00:00:00Z",
//	    "platforms": ["linkedin", "twitter"],
//	    "target_item_count": 30
//	}
type RunOptions struct {
	// Days is the requested calendar duration. The assembled artifact must
	// span exactly this many days.
	Days int `json:"days" yaml:"days"`

	// StartDate is the first day of the calendar. A zero value means the
	// engine starts the calendar on the day after the run begins.
	StartDate time.Time `json:"start_date,omitzero" yaml:"start_date,omitempty"`

	// Platforms lists the publishing platforms the calendar targets.
	Platforms []string `json:"platforms" yaml:"platforms"`

	// TargetItemCount is the total number of content items to plan.
	TargetItemCount int `json:"target_item_count" yaml:"target_item_count"`
}

// Validate checks the options against the calendar bounds. It reports the
// first violation found.
func (o RunOptions) Validate() error {
	if o.Days < constants.MinCalendarDays || o.Days > constants.MaxCalendarDays {
		return fmt.Errorf("%w: days must be between %d and %d, got %d",
			cadenceerrors.ErrValueOutOfRange, constants.MinCalendarDays, constants.MaxCalendarDays, o.Days)
	}
	if len(o.Platforms) == 0 {
		return fmt.Errorf("%w: at least one platform is required", cadenceerrors.ErrEmptyValue)
	}
	seen := make(map[string]bool, len(o.Platforms))
	for _, p := range o.Platforms {
		if p == "" {
			return fmt.Errorf("%w: platform name", cadenceerrors.ErrEmptyValue)
		}
		if seen[p] {
			return fmt.Errorf("%w: duplicate platform %q", cadenceerrors.ErrInvalidArgument, p)
		}
		seen[p] = true
	}
	if o.TargetItemCount < 1 {
		return fmt.Errorf("%w: target item count must be positive, got %d",
			cadenceerrors.ErrValueOutOfRange, o.TargetItemCount)
	}
	if max := o.Days * len(o.Platforms); o.TargetItemCount > max {
		return fmt.Errorf("%w: target item count %d exceeds %d (one item per platform per day)",
			cadenceerrors.ErrValueOutOfRange, o.TargetItemCount, max)
	}
	return nil
}

// FailureReason attributes a failed run to the stage and cause that aborted it.
//
// Example JSON representation:
//
//	{
//	    "stage_id": 5,
//	    "gate_id": "content_mix",
//	    "code": "quality_gate",
//	    "message": "score 0.42 below threshold 0.75"
//	}
type FailureReason struct {
	// StageID is the stage that aborted the run (1-12).
	StageID StageID `json:"stage_id" yaml:"stage_id"`

	// GateID identifies the violated gate for quality failures. Empty for
	// input validation and external service failures. When several gates
	// were violated this holds the first; Message lists them all.
	GateID GateID `json:"gate_id,omitempty" yaml:"gate_id,omitempty"`

	// Code classifies the failure: input_validation, external_service, or
	// quality_gate.
	Code FailureCode `json:"code" yaml:"code"`

	// Message is the human-readable diagnostic.
	Message string `json:"message" yaml:"message"`
}

// FailureCode classifies the cause of a failed run.
type FailureCode string

// Failure code constants mirror the pipeline error taxonomy.
const (
	// FailureCodeInputValidation marks runs aborted by missing or
	// unresolvable stage input.
	FailureCodeInputValidation FailureCode = "input_validation"

	// FailureCodeExternalService marks runs aborted by a failed collaborator.
	FailureCodeExternalService FailureCode = "external_service"

	// FailureCodeQualityGate marks runs aborted by gate violations.
	FailureCodeQualityGate FailureCode = "quality_gate"
)

// String returns the string representation of the FailureCode.
func (c FailureCode) String() string {
	return string(c)
}

// Transition records a single status change in the run's audit trail.
type Transition struct {
	// FromStatus is the status before the transition.
	FromStatus constants.RunStatus `json:"from_status" yaml:"from_status"`

	// ToStatus is the status after the transition.
	ToStatus constants.RunStatus `json:"to_status" yaml:"to_status"`

	// Timestamp is when the transition occurred (UTC).
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Reason is an optional explanation for the transition.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}
