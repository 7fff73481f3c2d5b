package constants

// RunStatus represents the state of a pipeline run in the Cadence state machine.
// Status values use snake_case for JSON serialization compatibility.
type RunStatus string

// Run status constants define the valid states a pipeline run can be in.
// These follow the run state machine:
//
//	Pending → Running, Cancelled
//	Running → Completed, Failed, Cancelled
//
// Completed, Failed, and Cancelled are terminal. A terminal run is never
// mutated again; a new calendar requires a new run.
const (
	// RunStatusPending indicates a run is accepted and queued but no stage
	// has started executing.
	RunStatusPending RunStatus = "pending"

	// RunStatusRunning indicates the pipeline is actively executing stages.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted indicates all twelve stages succeeded and the
	// calendar artifact was assembled.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusFailed indicates a stage aborted the run: input validation,
	// an external collaborator, or a quality gate. FailureReason records the
	// attribution.
	RunStatusFailed RunStatus = "failed"

	// RunStatusCancelled indicates the caller cancelled the run. Cancellation
	// is cooperative and observed at stage boundaries and inside collaborator
	// calls.
	RunStatusCancelled RunStatus = "cancelled"
)

// String returns the string representation of the RunStatus.
// This implements fmt.Stringer for convenient logging and debugging.
func (s RunStatus) String() string {
	return string(s)
}

// StageStatus represents the outcome of a single stage execution.
// Status values use snake_case for JSON serialization compatibility.
type StageStatus string

// Stage status constants. A stage result is written at most once and is
// immutable afterwards, so there are no intermediate states here.
const (
	// StageStatusSucceeded indicates the stage executed and passed its
	// quality gates.
	StageStatusSucceeded StageStatus = "succeeded"

	// StageStatusFailed indicates the stage aborted the run.
	StageStatusFailed StageStatus = "failed"
)

// String returns the string representation of the StageStatus.
func (s StageStatus) String() string {
	return string(s)
}

// StageEvent represents a stage lifecycle notification published to
// progress subscribers.
type StageEvent string

// Stage event constants define the notifications the progress tracker emits.
const (
	// StageEventStarted indicates a stage began executing.
	StageEventStarted StageEvent = "started"

	// StageEventSucceeded indicates a stage finished and passed its gates.
	StageEventSucceeded StageEvent = "succeeded"

	// StageEventFailed indicates a stage aborted the run.
	StageEventFailed StageEvent = "failed"
)

// String returns the string representation of the StageEvent.
func (s StageEvent) String() string {
	return string(s)
}
