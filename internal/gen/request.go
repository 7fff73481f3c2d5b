package gen

import (
	"github.com/cadencelabs/cadence/internal/domain"
)

// Request represents a single generation request sent to the client.
// The JSON encoding of this struct is what the external command reads from
// stdin.
//
// Example JSON structure:
//
//	{
//	  "run_id": "run-20260825-143022-a1b2c3d4",
//	  "stage_id": 7,
//	  "stage_name": "weekly-themes",
//	  "task": "weekly_themes",
//	  "context": "## strategy-context\n- brand_voice: pragmatic...",
//	  "inputs": {"weeks": 4},
//	  "schema": [
//	    {"key": "themes", "kind": "list", "required": true, "load_bearing": true}
//	  ]
//	}
type Request struct {
	// RunID identifies the pipeline run this request belongs to.
	RunID string `json:"run_id"`

	// StageID is the requesting stage (1-12).
	StageID domain.StageID `json:"stage_id"`

	// StageName is the requesting stage's name for diagnostics.
	StageName string `json:"stage_name"`

	// Task names what the command must produce (e.g., "weekly_themes",
	// "daily_items"). A stage that fans out issues several requests with
	// the same task and differing inputs.
	Task string `json:"task"`

	// Context is the rendered block of accumulated upstream summaries.
	// It is assembled by the pipeline's context accumulator; stages never
	// build free-form prompt strings themselves.
	Context string `json:"context,omitempty"`

	// Inputs carries stage-specific structured data for this request,
	// such as the calendar week a fan-out sub-request covers.
	Inputs map[string]any `json:"inputs,omitempty"`

	// Schema declares the payload contract the response must satisfy.
	// The client validates the response against it before returning.
	Schema Schema `json:"schema"`
}
