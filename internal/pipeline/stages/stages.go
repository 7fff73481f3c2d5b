// Package stages provides the twelve stage implementations of the Cadence
// calendar pipeline, grouped by phase: foundation (1-3), structure (4-6),
// content (7-9), and optimization (10-12).
//
// Stages are stateless. Everything a stage needs arrives through the
// pipeline.StageContext; everything it decides leaves through its payload.
// Accumulated upstream context is embedded into generation requests as the
// rendered summary block only; stages never build free-form prompt strings.
//
// Import rules:
//   - CAN import: internal/pipeline, internal/config, internal/constants,
//     internal/domain, internal/errors, internal/gen, std lib
//   - MUST NOT import: internal/cli, internal/providers (providers are
//     reached through the StageContext port)
package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/gen"
	"github.com/cadencelabs/cadence/internal/pipeline"
)

// Stage names. Config threshold overrides and progress events refer to
// stages by these names.
const (
	NameStrategyContext   = "strategy-context"
	NameGapAnalysis       = "gap-analysis"
	NameAudienceTargeting = "audience-targeting"
	NameTimeframe         = "timeframe"
	NamePillarAllocation  = "pillar-allocation"
	NamePlatformStrategy  = "platform-strategy"
	NameWeeklyThemes      = "weekly-themes"
	NameDailyItems        = "daily-items"
	NameRecommendations   = "recommendations"
	NameKPIAdjustments    = "kpi-adjustments"
	NameAlignmentReview   = "alignment-review"
	NameAssembly          = "assembly"
)

// Calendar returns the fixed twelve-stage sequence for calendar generation,
// with pass thresholds resolved from the pipeline configuration.
func Calendar(cfg *config.PipelineConfig) []pipeline.Stage {
	if cfg == nil {
		cfg = &config.PipelineConfig{DefaultThreshold: defaultThreshold}
	}
	return []pipeline.Stage{
		newStrategyContext(cfg.ThresholdFor(NameStrategyContext)),
		newGapAnalysis(cfg.ThresholdFor(NameGapAnalysis)),
		newAudienceTargeting(cfg.ThresholdFor(NameAudienceTargeting)),
		newTimeframe(cfg.ThresholdFor(NameTimeframe)),
		newPillarAllocation(cfg.ThresholdFor(NamePillarAllocation)),
		newPlatformStrategy(cfg.ThresholdFor(NamePlatformStrategy)),
		newWeeklyThemes(cfg.ThresholdFor(NameWeeklyThemes)),
		newDailyItems(cfg.ThresholdFor(NameDailyItems)),
		newRecommendations(cfg.ThresholdFor(NameRecommendations)),
		newKPIAdjustments(cfg.ThresholdFor(NameKPIAdjustments)),
		newAlignmentReview(cfg.ThresholdFor(NameAlignmentReview)),
		newAssembly(cfg.ThresholdFor(NameAssembly)),
	}
}

// defaultThreshold applies when no pipeline configuration is supplied.
const defaultThreshold = 0.75

// base carries the static identity shared by every stage implementation.
type base struct {
	def    domain.StageDefinition
	schema gen.Schema
}

// Definition returns the stage's static description.
func (b *base) Definition() domain.StageDefinition {
	return b.def
}

// Schema returns the stage's output payload contract.
func (b *base) Schema() gen.Schema {
	return b.schema
}

// requireUpstream verifies every declared upstream summary is present in
// accumulated context before the stage does any work.
func (b *base) requireUpstream(sc *pipeline.StageContext) error {
	for _, id := range b.def.RequiredUpstream {
		if _, err := sc.Summary(id); err != nil {
			return cadenceerrors.NewInputValidationError(int(b.def.ID),
				fmt.Sprintf("stage_%d_summary", id),
				fmt.Sprintf("required upstream summary missing: %v", err))
		}
	}
	return nil
}

// generate issues one generation request for this stage. The accumulated
// upstream context travels as the rendered summary block; inputs carry the
// request-specific structured data.
func (b *base) generate(ctx context.Context, sc *pipeline.StageContext, task string,
	inputs map[string]any, schema gen.Schema) (gen.Payload, error) {
	req := &gen.Request{
		RunID:     sc.RunID(),
		StageID:   b.def.ID,
		StageName: b.def.Name,
		Task:      task,
		Context:   sc.ContextBlock(),
		Inputs:    inputs,
		Schema:    schema,
	}

	zerolog.Ctx(ctx).Debug().
		Str("run_id", sc.RunID()).
		Int("stage_id", int(b.def.ID)).
		Str("task", task).
		Msg("issuing generation request")

	return sc.Generator().Generate(ctx, req)
}

// classifyLookup maps a provider lookup failure onto the error taxonomy:
// data that does not exist is an input problem, an unreachable provider an
// external one. Cancellation passes through untouched.
func classifyLookup(id domain.StageID, field string, collaborator domain.Collaborator, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, cadenceerrors.ErrStrategyNotFound) ||
		errors.Is(err, cadenceerrors.ErrGapDataNotFound) ||
		errors.Is(err, cadenceerrors.ErrProfileNotFound) ||
		errors.Is(err, cadenceerrors.ErrMalformedProviderData) {
		return cadenceerrors.NewInputValidationError(int(id), field, err.Error())
	}
	return cadenceerrors.NewExternalServiceError(int(id), collaborator.String(), err)
}

// decodeList decodes a payload list value into typed elements through the
// store's JSON encoding. A missing key decodes to nil.
func decodeList[T any](p gen.Payload, key string) ([]T, error) {
	raw, exists := p[key]
	if !exists {
		return nil, nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, cadenceerrors.Wrapf(cadenceerrors.ErrSchemaMismatch,
			"field '%s' not encodable: %v", key, err)
	}
	var out []T
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, cadenceerrors.Wrapf(cadenceerrors.ErrSchemaMismatch,
			"field '%s' does not decode: %v", key, err)
	}
	return out, nil
}
