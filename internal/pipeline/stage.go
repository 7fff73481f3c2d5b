// Package pipeline provides run lifecycle management for Cadence.
//
// This file defines the contract between the engine and the twelve stage
// implementations. Stages live in the stages subpackage; the engine treats
// them as opaque units behind the Stage interface.
package pipeline

import (
	"context"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/gen"
)

// Stage is one unit of the fixed twelve-stage sequence. Implementations are
// stateless: everything a stage needs arrives through the StageContext, and
// everything it decides leaves through the returned payload.
type Stage interface {
	// Definition returns the stage's static description: identity, phase,
	// declared upstream dependencies, collaborator ports, applicable
	// gates, and pass threshold.
	Definition() domain.StageDefinition

	// Schema describes the stage's output payload. The engine condenses
	// the payload into the recorded summary using the schema's
	// load-bearing fields.
	Schema() gen.Schema

	// ValidateInputs checks that everything the stage needs is present
	// before any generation call is made. Implementations return an
	// InputValidationError naming the first missing input.
	ValidateInputs(sc *StageContext) error

	// Execute produces the stage's payload. Collaborator failures come
	// back as typed errors so the engine can attribute them; context
	// cancellation propagates unwrapped.
	Execute(ctx context.Context, sc *StageContext) (gen.Payload, error)
}

// ValidateStages checks that a stage list forms the complete fixed sequence:
// exactly twelve stages with identifiers 1 through 12 in ascending order,
// each depending only on stages that run strictly earlier.
func ValidateStages(stages []Stage) error {
	if len(stages) != constants.StageCount {
		return cadenceerrors.Wrapf(cadenceerrors.ErrConfigInvalidPipeline,
			"expected %d stages, got %d", constants.StageCount, len(stages))
	}

	for i, stage := range stages {
		if stage == nil {
			return cadenceerrors.Wrapf(cadenceerrors.ErrConfigInvalidPipeline,
				"stage at position %d is nil", i)
		}

		def := stage.Definition()
		want := domain.StageID(i + 1)
		if def.ID != want {
			return cadenceerrors.Wrapf(cadenceerrors.ErrConfigInvalidPipeline,
				"stage at position %d has id %d, want %d", i, def.ID, want)
		}
		if def.Name == "" {
			return cadenceerrors.Wrapf(cadenceerrors.ErrConfigInvalidPipeline,
				"stage %d has no name", def.ID)
		}
		if def.Phase != domain.PhaseForStage(def.ID) {
			return cadenceerrors.Wrapf(cadenceerrors.ErrConfigInvalidPipeline,
				"stage %d declares phase %q, want %q", def.ID, def.Phase, domain.PhaseForStage(def.ID))
		}
		if def.Threshold < 0 || def.Threshold > 1 {
			return cadenceerrors.Wrapf(cadenceerrors.ErrConfigInvalidPipeline,
				"stage %d threshold %.2f outside [0,1]", def.ID, def.Threshold)
		}
		for _, up := range def.RequiredUpstream {
			if up < constants.FirstStageID || up >= def.ID {
				return cadenceerrors.Wrapf(cadenceerrors.ErrConfigInvalidPipeline,
					"stage %d depends on stage %d, which does not run earlier", def.ID, up)
			}
		}
	}
	return nil
}
