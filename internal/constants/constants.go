// Package constants provides centralized constant values used throughout Cadence.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used by Cadence for state persistence.
const (
	// RunFileName is the name of the JSON file that stores pipeline run state.
	RunFileName = "run.json"

	// ArtifactFileName is the name of the JSON file that stores the assembled
	// calendar artifact of a completed run.
	ArtifactFileName = "artifact.json"

	// EventsFileName is the name of the JSON-lines file that stores the
	// progress events of a run.
	EventsFileName = "events.log"

	// CLILogFileName is the name of the rotating CLI log file under the
	// logs directory.
	CLILogFileName = "cadence.log"
)

// Directory names and paths used by Cadence for organizing data.
const (
	// CadenceHome is the hidden directory name where Cadence stores all its data.
	// This directory is created in the user's home directory.
	CadenceHome = ".cadence"

	// RunsDir is the directory name where pipeline run records are stored.
	RunsDir = "runs"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// DataDir is the default directory name for provider data files
	// (strategies, gap analyses, audience profiles).
	DataDir = "data"
)

// Timeout configurations for external collaborator calls.
const (
	// DefaultCollaboratorTimeout is the default maximum duration for a single
	// collaborator call: a data-provider lookup or one generation request.
	DefaultCollaboratorTimeout = 30 * time.Second

	// DefaultGenerationTimeout is the default maximum duration for a single
	// generation request. Generation is the slowest collaborator and gets its
	// own bound so provider lookups can stay tight.
	DefaultGenerationTimeout = 30 * time.Second
)

// Retry configuration defaults for idempotent provider reads.
// Generation requests are never retried.
const (
	// MaxRetryAttempts is the maximum number of attempts for a retryable
	// read-only provider lookup.
	MaxRetryAttempts = 3

	// InitialBackoff is the backoff duration before the first retry.
	// Subsequent retries use exponential backoff based on this value.
	InitialBackoff = 1 * time.Second

	// BackoffMultiplier scales the backoff duration after each failed attempt.
	BackoffMultiplier = 2
)

// Log rotation settings for the CLI log file.
const (
	// LogMaxSizeMB is the maximum size in megabytes of the log file before
	// it gets rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the maximum number of old log files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum number of days to retain old log files.
	LogMaxAgeDays = 28

	// LogCompress determines whether rotated log files are gzip-compressed.
	LogCompress = true
)

// Scheduler sizing defaults. The scheduler runs independent pipeline runs
// concurrently on a bounded worker pool with a bounded submission queue.
const (
	// DefaultWorkerCount is the default number of concurrent pipeline runs.
	DefaultWorkerCount = 4

	// DefaultQueueSize is the default capacity of the pending-run queue.
	// Submissions beyond worker capacity wait here instead of spawning
	// unbounded generation calls.
	DefaultQueueSize = 16
)

// Pipeline shape constants. The stage sequence is fixed; these bounds are
// structural, not configurable.
const (
	// StageCount is the total number of stages in a pipeline run.
	StageCount = 12

	// FirstStageID is the identifier of the first stage.
	FirstStageID = 1
)

// Calendar request bounds enforced before any stage executes.
const (
	// MinCalendarDays is the shortest calendar duration a run may request.
	MinCalendarDays = 7

	// MaxCalendarDays is the longest calendar duration a run may request.
	MaxCalendarDays = 92

	// DefaultCalendarDays is the calendar duration used when the caller does
	// not request one.
	DefaultCalendarDays = 14
)

// Context accumulator bounds. Summaries retain only load-bearing fields and
// are truncated so accumulated context cannot grow without bound.
const (
	// MaxSummaryFields is the maximum number of load-bearing fields retained
	// per stage summary.
	MaxSummaryFields = 10

	// MaxSummaryValueLength is the maximum length in runes of a single string
	// value inside a stage summary. Longer values are truncated.
	MaxSummaryValueLength = 240

	// MaxSummaryListItems is the maximum number of elements retained for a
	// list-valued summary field.
	MaxSummaryListItems = 12
)

// Schema version constants for data migration support.
const (
	// RunSchemaVersion is the current version of the run JSON schema.
	RunSchemaVersion = "1.0"

	// SummarySchemaVersion is the current version of the stage summary
	// structure embedded in pipeline context.
	SummarySchemaVersion = "1.0"

	// ArtifactSchemaVersion is the current version of the calendar artifact
	// JSON schema.
	ArtifactSchemaVersion = "1.0"
)
