package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries is the pre-built mapping of sentinel errors to their user-facing messages.
// This single source of truth ensures UserMessage and Actionable stay in sync.
// Using a slice (not a map) because errors.Is() requires proper error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Pipeline failures
	// ===================
	{
		err: ErrInputValidation,
		info: ErrorInfo{
			Message: "Pipeline input validation failed. A stage could not resolve required data.",
			Action:  "Run 'cadence status <run-id>' for the failing stage and field, then fix the input.",
		},
	},
	{
		err: ErrExternalService,
		info: ErrorInfo{
			Message: "An external collaborator failed during pipeline execution.",
			Action:  "Check provider data files and the generation command, then start a new run.",
		},
	},
	{
		err: ErrQualityGate,
		info: ErrorInfo{
			Message: "Generated content did not meet the configured quality gates.",
			Action:  "Inspect the violated gates with 'cadence status <run-id>', adjust strategy data or gate thresholds, and start a new run.",
		},
	},

	// ===================
	// Runs & artifacts
	// ===================
	{
		err: ErrRunNotFound,
		info: ErrorInfo{
			Message: "The requested pipeline run was not found.",
			Action:  "List known runs with 'cadence list' and check the run id.",
		},
	},
	{
		err: ErrRunNotCompleted,
		info: ErrorInfo{
			Message: "The run has not completed, so no calendar artifact exists.",
			Action:  "Wait for the run to finish or check its status with 'cadence status <run-id>'.",
		},
	},
	{
		err: ErrRunFailed,
		info: ErrorInfo{
			Message: "The run failed before completing all stages.",
			Action:  "Inspect the failing stage with 'cadence status <run-id>', fix the cause, and start a new run.",
		},
	},
	{
		err: ErrRunCancelled,
		info: ErrorInfo{
			Message: "The run was cancelled before completing all stages.",
			Action:  "Start a new run when ready.",
		},
	},
	{
		err: ErrRunCorrupted,
		info: ErrorInfo{
			Message: "The persisted run state could not be read.",
			Action:  "The run record may be damaged. Start a new run.",
		},
	},
	{
		err: ErrArtifactNotFound,
		info: ErrorInfo{
			Message: "No calendar artifact exists for this run.",
			Action:  "Only completed runs produce artifacts. Check the run status.",
		},
	},
	{
		err: ErrQueueFull,
		info: ErrorInfo{
			Message: "The run queue is full.",
			Action:  "Wait for active runs to finish or raise scheduler.queue_size in the config.",
		},
	},

	// ===================
	// Providers & generation
	// ===================
	{
		err: ErrStrategyNotFound,
		info: ErrorInfo{
			Message: "No strategy exists for the given strategy id.",
			Action:  "Check the strategies directory under the configured data path.",
		},
	},
	{
		err: ErrGapDataNotFound,
		info: ErrorInfo{
			Message: "No gap analysis data exists for the given user.",
			Action:  "Check the gaps directory under the configured data path.",
		},
	},
	{
		err: ErrProfileNotFound,
		info: ErrorInfo{
			Message: "No audience profile exists for the given user.",
			Action:  "Check the profiles directory under the configured data path.",
		},
	},
	{
		err: ErrGenerationUnavailable,
		info: ErrorInfo{
			Message: "The generation service could not be reached.",
			Action:  "Verify generation.command points to a working executable.",
		},
	},
	{
		err: ErrGenerationTimeout,
		info: ErrorInfo{
			Message: "The generation request timed out.",
			Action:  "Increase generation.timeout in the config or check the generation service.",
		},
	},
	{
		err: ErrSchemaMismatch,
		info: ErrorInfo{
			Message: "The generation service returned output that does not match the stage schema.",
			Action:  "This may be transient. Start a new run; if it persists, check the generation command.",
		},
	},

	// ===================
	// Configuration & CLI
	// ===================
	{
		err: ErrConfigNotFound,
		info: ErrorInfo{
			Message: "The configuration file was not found.",
			Action:  "Create ~/.cadence/config.yaml or pass --config with a valid path.",
		},
	},
	{
		err: ErrConfigInvalidGates,
		info: ErrorInfo{
			Message: "The quality gate configuration is invalid.",
			Action:  "Check gate weights, thresholds, and content mix bands in the config.",
		},
	},
	{
		err: ErrUnsupportedOutputFormat,
		info: ErrorInfo{
			Message: "The requested output format is not supported.",
			Action:  "Use --output text, json, or yaml.",
		},
	},
	{
		err: ErrInvalidArgument,
		info: ErrorInfo{
			Message: "An invalid argument was provided.",
			Action:  "Check the command help for valid arguments.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
// Built once from errorInfoEntries during package initialization.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

// buildErrorInfoMap creates a map from the errorInfoEntries slice.
// This is called once during package init for O(1) direct lookups.
func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries O(1) direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
// Returns an ErrorInfo with the original error message if not found.
func getErrorInfo(err error) ErrorInfo {
	// Fast path: O(1) lookup for direct sentinel errors
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	// Slow path: errors.Is() for wrapped errors
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// This function maps sentinel errors to helpful, actionable messages
// that are suitable for display to end users.
//
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
//
// For errors that are not recoverable or have no clear action, the action
// string will be empty.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
