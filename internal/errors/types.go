package errors

import (
	"errors"
	"fmt"
	"strings"
)

// InputValidationError reports input that was missing or unresolvable before
// a stage's generation call. It is fatal: the run transitions to failed with
// the failure attributed to StageID, and no generation request is made for
// that stage.
//
// Matches ErrInputValidation via errors.Is().
type InputValidationError struct {
	// StageID is the stage that detected the invalid input (1-12).
	StageID int

	// Field names the missing or invalid input (e.g., "strategy_id").
	Field string

	// Reason explains why the input was rejected.
	Reason string
}

// NewInputValidationError constructs an InputValidationError.
func NewInputValidationError(stageID int, field, reason string) *InputValidationError {
	return &InputValidationError{StageID: stageID, Field: field, Reason: reason}
}

// Error implements the error interface.
func (e *InputValidationError) Error() string {
	return fmt.Sprintf("stage %d: %s: %s: %s", e.StageID, ErrInputValidation.Error(), e.Field, e.Reason)
}

// Unwrap returns the category sentinel so errors.Is(err, ErrInputValidation) holds.
func (e *InputValidationError) Unwrap() error {
	return ErrInputValidation
}

// ExternalServiceError reports a failed external collaborator call: a data
// provider lookup or a generation request. It is fatal for the run; the
// pipeline never substitutes fallback data for a failed collaborator.
//
// Matches ErrExternalService and the underlying cause via errors.Is().
type ExternalServiceError struct {
	// StageID is the stage whose collaborator call failed (1-12).
	StageID int

	// Collaborator names the failed port (e.g., "generation_client").
	Collaborator string

	// Err is the underlying cause (unavailable, timeout, schema mismatch, ...).
	Err error
}

// NewExternalServiceError constructs an ExternalServiceError.
func NewExternalServiceError(stageID int, collaborator string, err error) *ExternalServiceError {
	return &ExternalServiceError{StageID: stageID, Collaborator: collaborator, Err: err}
}

// Error implements the error interface.
func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("stage %d: %s: %s: %v", e.StageID, ErrExternalService.Error(), e.Collaborator, e.Err)
}

// Unwrap returns both the category sentinel and the underlying cause, so
// errors.Is() matches ErrExternalService as well as specific causes like
// ErrGenerationTimeout.
func (e *ExternalServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExternalService}
	}
	return []error{ErrExternalService, e.Err}
}

// GateViolation records a single violated quality gate with its score.
type GateViolation struct {
	// GateID identifies the violated gate (e.g., "uniqueness").
	GateID string

	// Score is the gate's component score in [0,1].
	Score float64

	// Detail is a human-readable description of the violation.
	Detail string
}

// QualityGateFailure reports a stage result that violated quality gates or
// scored below the stage's pass threshold. It is fatal: pipelines never
// advance past a failed gate.
//
// Matches ErrQualityGate via errors.Is().
type QualityGateFailure struct {
	// StageID is the stage whose result failed validation (1-12).
	StageID int

	// Violations lists every violated gate with its score.
	Violations []GateViolation

	// OverallScore is the weighted combined score across applicable gates.
	OverallScore float64

	// Threshold is the minimum score the stage required.
	Threshold float64
}

// NewQualityGateFailure constructs a QualityGateFailure.
func NewQualityGateFailure(stageID int, violations []GateViolation, overall, threshold float64) *QualityGateFailure {
	return &QualityGateFailure{
		StageID:      stageID,
		Violations:   violations,
		OverallScore: overall,
		Threshold:    threshold,
	}
}

// Error implements the error interface.
func (e *QualityGateFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stage %d: %s: score %.2f below threshold %.2f",
		e.StageID, ErrQualityGate.Error(), e.OverallScore, e.Threshold)
	if len(e.Violations) > 0 {
		b.WriteString(" [")
		for i, v := range e.Violations {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%.2f", v.GateID, v.Score)
		}
		b.WriteString("]")
	}
	return b.String()
}

// Unwrap returns the category sentinel so errors.Is(err, ErrQualityGate) holds.
func (e *QualityGateFailure) Unwrap() error {
	return ErrQualityGate
}

// ViolatedGateIDs returns the identifiers of all violated gates in order.
func (e *QualityGateFailure) ViolatedGateIDs() []string {
	ids := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		ids[i] = v.GateID
	}
	return ids
}

// AsInputValidation extracts an InputValidationError from an error chain.
func AsInputValidation(err error) (*InputValidationError, bool) {
	var e *InputValidationError
	ok := errors.As(err, &e)
	return e, ok
}

// AsExternalService extracts an ExternalServiceError from an error chain.
func AsExternalService(err error) (*ExternalServiceError, bool) {
	var e *ExternalServiceError
	ok := errors.As(err, &e)
	return e, ok
}

// AsQualityGateFailure extracts a QualityGateFailure from an error chain.
func AsQualityGateFailure(err error) (*QualityGateFailure, bool) {
	var e *QualityGateFailure
	ok := errors.As(err, &e)
	return e, ok
}
