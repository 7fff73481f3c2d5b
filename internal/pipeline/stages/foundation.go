package stages

import (
	"context"
	"fmt"

	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/gen"
	"github.com/cadencelabs/cadence/internal/pipeline"
)

// strategyContext (stage 1) establishes the strategic frame every later
// stage builds on: brand voice, positioning, objectives, and pillars.
type strategyContext struct {
	base
}

var _ pipeline.Stage = (*strategyContext)(nil)

func newStrategyContext(threshold float64) *strategyContext {
	return &strategyContext{base{
		def: domain.StageDefinition{
			ID:    domain.StageStrategyContext,
			Name:  NameStrategyContext,
			Phase: domain.PhaseFoundation,
			Collaborators: []domain.Collaborator{
				domain.CollaboratorStrategy,
				domain.CollaboratorGeneration,
			},
			Threshold: threshold,
		},
		schema: gen.Schema{
			{Key: "brand_voice", Kind: gen.KindString, Required: true, LoadBearing: true},
			{Key: "positioning", Kind: gen.KindString, Required: true, LoadBearing: true},
			{Key: "objectives", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "pillars", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "keywords", Kind: gen.KindList, LoadBearing: true},
		},
	}}
}

// ValidateInputs requires a resolved strategy with at least one objective
// and one pillar. A strategy without either cannot anchor a calendar.
func (s *strategyContext) ValidateInputs(sc *pipeline.StageContext) error {
	strategy := sc.Strategy()
	if strategy == nil {
		return cadenceerrors.NewInputValidationError(int(s.def.ID), "strategy",
			"strategy was not resolved before the run started")
	}
	if len(strategy.Objectives) == 0 {
		return cadenceerrors.NewInputValidationError(int(s.def.ID), "objectives",
			fmt.Sprintf("strategy '%s' declares no objectives", strategy.ID))
	}
	if len(strategy.Pillars) == 0 {
		return cadenceerrors.NewInputValidationError(int(s.def.ID), "pillars",
			fmt.Sprintf("strategy '%s' declares no pillars", strategy.ID))
	}
	return nil
}

func (s *strategyContext) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	strategy := sc.Strategy()
	inputs := map[string]any{
		"strategy_id":   strategy.ID,
		"strategy_name": strategy.Name,
		"brand_voice":   strategy.BrandVoice,
		"objectives":    strategy.Objectives,
		"pillars":       strategy.Pillars,
	}
	if len(strategy.Keywords) > 0 {
		inputs["keywords"] = strategy.Keywords
	}
	return s.generate(ctx, sc, "strategy_context", inputs, s.schema)
}

// gapAnalysis (stage 2) folds the user's content gaps and keyword
// opportunities into the accumulated context.
type gapAnalysis struct {
	base
}

var _ pipeline.Stage = (*gapAnalysis)(nil)

func newGapAnalysis(threshold float64) *gapAnalysis {
	return &gapAnalysis{base{
		def: domain.StageDefinition{
			ID:               domain.StageGapAnalysis,
			Name:             NameGapAnalysis,
			Phase:            domain.PhaseFoundation,
			RequiredUpstream: []domain.StageID{domain.StageStrategyContext},
			Collaborators: []domain.Collaborator{
				domain.CollaboratorGaps,
				domain.CollaboratorGeneration,
			},
			GateIDs:   []domain.GateID{domain.GateContinuity},
			Threshold: threshold,
		},
		schema: gen.Schema{
			{Key: "priority_gaps", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "opportunities", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "themes_to_avoid", Kind: gen.KindList, LoadBearing: true},
		},
	}}
}

func (s *gapAnalysis) ValidateInputs(sc *pipeline.StageContext) error {
	if err := s.requireUpstream(sc); err != nil {
		return err
	}
	if sc.UserID() == "" {
		return cadenceerrors.NewInputValidationError(int(s.def.ID), "user_id",
			"user identifier is empty")
	}
	return nil
}

func (s *gapAnalysis) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	lookupCtx, cancel := sc.WithLookupTimeout(ctx)
	defer cancel()

	analysis, err := sc.Source().GapAnalysis(lookupCtx, sc.UserID())
	if err != nil {
		return nil, classifyLookup(s.def.ID, "user_id", domain.CollaboratorGaps, err)
	}

	inputs := map[string]any{
		"gaps":          analysis.Gaps,
		"opportunities": analysis.Opportunities,
	}
	return s.generate(ctx, sc, "gap_analysis", inputs, s.schema)
}

// audienceTargeting (stage 3) selects the audience segments to write for
// and scores how the requested platforms fit them.
type audienceTargeting struct {
	base
}

var _ pipeline.Stage = (*audienceTargeting)(nil)

func newAudienceTargeting(threshold float64) *audienceTargeting {
	return &audienceTargeting{base{
		def: domain.StageDefinition{
			ID:    domain.StageAudienceTargeting,
			Name:  NameAudienceTargeting,
			Phase: domain.PhaseFoundation,
			RequiredUpstream: []domain.StageID{
				domain.StageStrategyContext,
				domain.StageGapAnalysis,
			},
			Collaborators: []domain.Collaborator{
				domain.CollaboratorAudience,
				domain.CollaboratorGeneration,
			},
			GateIDs:   []domain.GateID{domain.GateContinuity},
			Threshold: threshold,
		},
		schema: gen.Schema{
			{Key: "segments", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "platform_fit", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "tone_guidance", Kind: gen.KindString, Required: true, LoadBearing: true},
		},
	}}
}

func (s *audienceTargeting) ValidateInputs(sc *pipeline.StageContext) error {
	if err := s.requireUpstream(sc); err != nil {
		return err
	}
	if sc.UserID() == "" {
		return cadenceerrors.NewInputValidationError(int(s.def.ID), "user_id",
			"user identifier is empty")
	}
	return nil
}

// Execute resolves the audience profile and fails fast when a requested
// platform has no profile entry: planning for a platform the user cannot
// publish on would poison every downstream stage.
func (s *audienceTargeting) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	lookupCtx, cancel := sc.WithLookupTimeout(ctx)
	defer cancel()

	profile, err := sc.Source().Profile(lookupCtx, sc.UserID())
	if err != nil {
		return nil, classifyLookup(s.def.ID, "user_id", domain.CollaboratorAudience, err)
	}

	requested := sc.Options().Platforms
	platforms := make([]domain.PlatformProfile, 0, len(requested))
	for _, name := range requested {
		p := profile.PlatformByName(name)
		if p == nil {
			return nil, cadenceerrors.NewInputValidationError(int(s.def.ID), "platforms",
				fmt.Sprintf("requested platform '%s' is not in the audience profile", name))
		}
		platforms = append(platforms, *p)
	}

	inputs := map[string]any{
		"segments":            profile.Segments,
		"platforms":           platforms,
		"requested_platforms": requested,
	}
	return s.generate(ctx, sc, "audience_targeting", inputs, s.schema)
}
