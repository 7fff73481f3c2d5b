package stages

import (
	"context"
	"time"

	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/gen"
	"github.com/cadencelabs/cadence/internal/pipeline"
)

// timeframe (stage 4) fixes the calendar skeleton: the date range, week
// count, and posting cadence the remaining stages plan against.
type timeframe struct {
	base
}

var _ pipeline.Stage = (*timeframe)(nil)

func newTimeframe(threshold float64) *timeframe {
	return &timeframe{base{
		def: domain.StageDefinition{
			ID:    domain.StageTimeframe,
			Name:  NameTimeframe,
			Phase: domain.PhaseStructure,
			RequiredUpstream: []domain.StageID{
				domain.StageStrategyContext,
				domain.StageAudienceTargeting,
			},
			Collaborators: []domain.Collaborator{domain.CollaboratorGeneration},
			GateIDs:       []domain.GateID{domain.GateContinuity},
			Threshold:     threshold,
		},
		schema: gen.Schema{
			{Key: "range_start", Kind: gen.KindString, Required: true, LoadBearing: true},
			{Key: "range_end", Kind: gen.KindString, Required: true, LoadBearing: true},
			{Key: "total_days", Kind: gen.KindNumber, Required: true, LoadBearing: true},
			{Key: "weeks", Kind: gen.KindNumber, Required: true, LoadBearing: true},
			{Key: "cadence", Kind: gen.KindString, Required: true, LoadBearing: true},
			{Key: "weekly_skeleton", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "pacing_notes", Kind: gen.KindList},
		},
	}}
}

func (s *timeframe) ValidateInputs(sc *pipeline.StageContext) error {
	if err := s.requireUpstream(sc); err != nil {
		return err
	}
	rng := sc.Range()
	if rng.Days() != sc.Options().Days {
		return cadenceerrors.NewInputValidationError(int(s.def.ID), "date_range",
			"run date range does not match the requested day count")
	}
	return nil
}

// Execute asks the generator for cadence and skeleton only. The date range
// is owned by the run, never by generation: range fields are stamped into
// the payload deterministically so structure checks always agree with the
// requested window.
func (s *timeframe) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	rng := sc.Range()
	days := rng.Days()
	weeks := weekCount(days)

	inputs := map[string]any{
		"range_start":       rng.Start.Format(time.DateOnly),
		"range_end":         rng.End.Format(time.DateOnly),
		"total_days":        days,
		"weeks":             weeks,
		"target_item_count": sc.Options().TargetItemCount,
		"platforms":         sc.Options().Platforms,
	}
	requestSchema := gen.Schema{
		{Key: "cadence", Kind: gen.KindString, Required: true, LoadBearing: true},
		{Key: "weekly_skeleton", Kind: gen.KindList, Required: true, LoadBearing: true},
		{Key: "pacing_notes", Kind: gen.KindList},
	}

	payload, err := s.generate(ctx, sc, "timeframe", inputs, requestSchema)
	if err != nil {
		return nil, err
	}

	payload["range_start"] = rng.Start.Format(time.DateOnly)
	payload["range_end"] = rng.End.Format(time.DateOnly)
	payload["total_days"] = float64(days)
	payload["weeks"] = float64(weeks)
	return payload, nil
}

// pillarAllocation (stage 5) distributes the target item count across the
// strategy's weighted content pillars.
type pillarAllocation struct {
	base
}

var _ pipeline.Stage = (*pillarAllocation)(nil)

func newPillarAllocation(threshold float64) *pillarAllocation {
	return &pillarAllocation{base{
		def: domain.StageDefinition{
			ID:    domain.StagePillarAllocation,
			Name:  NamePillarAllocation,
			Phase: domain.PhaseStructure,
			RequiredUpstream: []domain.StageID{
				domain.StageStrategyContext,
				domain.StageTimeframe,
			},
			Collaborators: []domain.Collaborator{domain.CollaboratorGeneration},
			GateIDs:       []domain.GateID{domain.GateContinuity},
			Threshold:     threshold,
		},
		schema: gen.Schema{
			{Key: "allocations", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "dominant_pillar", Kind: gen.KindString, Required: true, LoadBearing: true},
			{Key: "rationale", Kind: gen.KindString},
		},
	}}
}

func (s *pillarAllocation) ValidateInputs(sc *pipeline.StageContext) error {
	if err := s.requireUpstream(sc); err != nil {
		return err
	}
	if sc.Strategy() == nil || len(sc.Strategy().Pillars) == 0 {
		return cadenceerrors.NewInputValidationError(int(s.def.ID), "pillars",
			"no pillars available to allocate against")
	}
	return nil
}

func (s *pillarAllocation) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	inputs := map[string]any{
		"pillars":           sc.Strategy().Pillars,
		"target_item_count": sc.Options().TargetItemCount,
		"total_days":        sc.Range().Days(),
	}
	return s.generate(ctx, sc, "pillar_allocation", inputs, s.schema)
}

// platformStrategy (stage 6) plans per-platform volume, formats, and
// posting windows within each platform's publishing profile.
type platformStrategy struct {
	base
}

var _ pipeline.Stage = (*platformStrategy)(nil)

func newPlatformStrategy(threshold float64) *platformStrategy {
	return &platformStrategy{base{
		def: domain.StageDefinition{
			ID:    domain.StagePlatformStrategy,
			Name:  NamePlatformStrategy,
			Phase: domain.PhaseStructure,
			RequiredUpstream: []domain.StageID{
				domain.StageAudienceTargeting,
				domain.StageTimeframe,
			},
			Collaborators: []domain.Collaborator{
				domain.CollaboratorAudience,
				domain.CollaboratorGeneration,
			},
			GateIDs:   []domain.GateID{domain.GateContinuity},
			Threshold: threshold,
		},
		schema: gen.Schema{
			{Key: "platform_plans", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "posting_cadence", Kind: gen.KindString, Required: true, LoadBearing: true},
		},
	}}
}

func (s *platformStrategy) ValidateInputs(sc *pipeline.StageContext) error {
	if err := s.requireUpstream(sc); err != nil {
		return err
	}
	if sc.UserID() == "" {
		return cadenceerrors.NewInputValidationError(int(s.def.ID), "user_id",
			"user identifier is empty")
	}
	return nil
}

func (s *platformStrategy) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	lookupCtx, cancel := sc.WithLookupTimeout(ctx)
	defer cancel()

	profile, err := sc.Source().Profile(lookupCtx, sc.UserID())
	if err != nil {
		return nil, classifyLookup(s.def.ID, "user_id", domain.CollaboratorAudience, err)
	}

	requested := sc.Options().Platforms
	platforms := make([]domain.PlatformProfile, 0, len(requested))
	for _, name := range requested {
		if p := profile.PlatformByName(name); p != nil {
			platforms = append(platforms, *p)
		}
	}

	inputs := map[string]any{
		"platforms":         platforms,
		"target_item_count": sc.Options().TargetItemCount,
		"weeks":             weekCount(sc.Range().Days()),
	}
	return s.generate(ctx, sc, "platform_strategy", inputs, s.schema)
}

// weekCount returns the number of calendar weeks covering days, counting a
// trailing partial week as a full one.
func weekCount(days int) int {
	return (days + 6) / 7
}
