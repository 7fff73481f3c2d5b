// Package errors provides centralized error handling for Cadence.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrInputValidation indicates that a stage's required input was missing
	// or unresolvable before its generation call was made.
	ErrInputValidation = errors.New("input validation failed")

	// ErrExternalService indicates that an external collaborator (data
	// provider or generation client) failed, timed out, or returned an
	// unusable response.
	ErrExternalService = errors.New("external service failed")

	// ErrQualityGate indicates that a stage result violated one or more
	// quality gates or scored below the stage's pass threshold.
	ErrQualityGate = errors.New("quality gate failed")

	// ErrRunNotFound indicates the requested pipeline run does not exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunExists indicates an attempt to create a run that already exists.
	ErrRunExists = errors.New("run already exists")

	// ErrRunNotCompleted indicates the artifact was requested for a run that
	// has not reached the completed state.
	ErrRunNotCompleted = errors.New("run not completed")

	// ErrRunFailed indicates a run reached the failed terminal state.
	ErrRunFailed = errors.New("run failed")

	// ErrRunCancelled indicates a run reached the cancelled terminal state.
	ErrRunCancelled = errors.New("run cancelled")

	// ErrRunCorrupted indicates the persisted run state is unreadable.
	ErrRunCorrupted = errors.New("run state corrupted")

	// ErrRunTerminal indicates an attempt to mutate a run that has already
	// reached a terminal state.
	ErrRunTerminal = errors.New("run already in terminal state")

	// ErrLockTimeout indicates a file lock could not be acquired within the
	// timeout period.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrInvalidTransition indicates an attempt to make an invalid run state
	// transition.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrArtifactNotFound indicates the requested calendar artifact was not found.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrStrategyNotFound indicates the strategy provider has no strategy for
	// the requested identifier.
	ErrStrategyNotFound = errors.New("strategy not found")

	// ErrGapDataNotFound indicates the gap analysis provider has no data for
	// the requested user.
	ErrGapDataNotFound = errors.New("gap analysis not found")

	// ErrProfileNotFound indicates the audience provider has no profile data
	// for the requested user.
	ErrProfileNotFound = errors.New("audience profile not found")

	// ErrMalformedProviderData indicates a provider data file exists but
	// cannot be parsed or fails structural validation.
	ErrMalformedProviderData = errors.New("malformed provider data")

	// ErrGenerationUnavailable indicates the generation client could not be
	// reached or exited abnormally.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrGenerationTimeout indicates a generation request exceeded its
	// configured deadline.
	ErrGenerationTimeout = errors.New("generation request timeout")

	// ErrSchemaMismatch indicates a generation payload did not satisfy the
	// stage's declared output schema.
	ErrSchemaMismatch = errors.New("payload does not match schema")

	// ErrEmptyPayload indicates the generation client returned no usable output.
	ErrEmptyPayload = errors.New("generation returned empty payload")

	// ErrStageOrderViolation indicates a stage attempted to read context for
	// its own or a later stage. Context reads are restricted to strictly
	// earlier stages.
	ErrStageOrderViolation = errors.New("context read violates stage order")

	// ErrSummaryNotFound indicates no summary exists for a required upstream stage.
	ErrSummaryNotFound = errors.New("upstream summary not found")

	// ErrSummaryExists indicates an attempt to record a second summary for a
	// stage. Accumulated context is append-only and write-once per stage.
	ErrSummaryExists = errors.New("stage summary already recorded")

	// ErrStageNotFound indicates no stage is registered for the given identifier.
	ErrStageNotFound = errors.New("stage not found")

	// ErrGateNotFound indicates no quality gate is registered for the given identifier.
	ErrGateNotFound = errors.New("quality gate not found")

	// ErrGateDuplicate indicates a quality gate with the same identifier is
	// already registered.
	ErrGateDuplicate = errors.New("quality gate already registered")

	// ErrQueueFull indicates the scheduler's pending-run queue is at capacity.
	ErrQueueFull = errors.New("run queue is full")

	// ErrSchedulerClosed indicates a submission was made after the scheduler
	// began shutting down.
	ErrSchedulerClosed = errors.New("scheduler is closed")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigNotFound indicates that the configuration file was not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalidPipeline indicates an invalid pipeline configuration value.
	ErrConfigInvalidPipeline = errors.New("invalid pipeline configuration")

	// ErrConfigInvalidGates indicates an invalid quality gate configuration value.
	ErrConfigInvalidGates = errors.New("invalid gate configuration")

	// ErrConfigInvalidScheduler indicates an invalid scheduler configuration value.
	ErrConfigInvalidScheduler = errors.New("invalid scheduler configuration")

	// ErrConfigInvalidGeneration indicates an invalid generation client configuration value.
	ErrConfigInvalidGeneration = errors.New("invalid generation configuration")

	// ErrConfigInvalidProviders indicates an invalid provider configuration value.
	ErrConfigInvalidProviders = errors.New("invalid provider configuration")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrValueOutOfRange indicates that a value is outside the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrInvalidDuration indicates that a duration format is invalid.
	ErrInvalidDuration = errors.New("invalid duration format")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrUnsupportedOutputFormat indicates that an unsupported output format
	// was specified.
	ErrUnsupportedOutputFormat = errors.New("unsupported output format")

	// ErrInvalidArgument indicates that an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCommandNotConfigured indicates that a mock command was not configured in tests.
	ErrCommandNotConfigured = errors.New("command not configured")

	// ErrCommandFailed indicates that a command execution failed.
	ErrCommandFailed = errors.New("command failed")

	// ErrMaxRetriesExceeded indicates the maximum retry attempts have been reached.
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")

	// ErrJSONErrorOutput indicates that an error has already been output as JSON.
	// This ensures a non-zero exit code while preventing duplicate error messages.
	// Commands should silence cobra's error printing when this is returned.
	ErrJSONErrorOutput = errors.New("error output as JSON")
)
