package gen

import (
	"encoding/json"
	"fmt"

	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// commandResponse represents the JSON envelope the generation command must
// print on stdout.
//
// Success:
//
//	{"status": "ok", "payload": {"themes": [...]}}
//
// Structured refusal (exit code may still be zero):
//
//	{"status": "error", "error": "model overloaded"}
type commandResponse struct {
	// Status is "ok" or "error".
	Status string `json:"status"`

	// Error carries the command's failure description when Status is "error".
	Error string `json:"error,omitempty"`

	// Payload is the generated content when Status is "ok".
	Payload Payload `json:"payload,omitempty"`
}

// parseResponse decodes the command's stdout into a payload.
// Returns ErrEmptyPayload for blank output, ErrSchemaMismatch for output
// that is not a valid envelope, and ErrGenerationUnavailable when the
// command reported a structured error.
func parseResponse(data []byte) (Payload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: command produced no output", cadenceerrors.ErrEmptyPayload)
	}

	var resp commandResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response envelope: %s", cadenceerrors.ErrSchemaMismatch, err.Error())
	}

	if resp.Status == "error" {
		return nil, fmt.Errorf("%w: command reported: %s", cadenceerrors.ErrGenerationUnavailable, resp.Error)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("%w: unknown response status %q", cadenceerrors.ErrSchemaMismatch, resp.Status)
	}
	if len(resp.Payload) == 0 {
		return nil, fmt.Errorf("%w: response envelope has no payload", cadenceerrors.ErrEmptyPayload)
	}

	return resp.Payload, nil
}

// tryParseErrorEnvelope attempts to extract a structured error message from
// stdout after a failed execution. Returns the message and true if the
// output was a valid error envelope, otherwise empty and false.
func tryParseErrorEnvelope(stdout []byte) (string, bool) {
	if len(stdout) == 0 {
		return "", false
	}

	var resp commandResponse
	if err := json.Unmarshal(stdout, &resp); err != nil || resp.Status != "error" {
		return "", false
	}
	return resp.Error, true
}
