package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/gen"
	"github.com/cadencelabs/cadence/internal/pipeline"
)

// kpiAdjustments (stage 10) tunes the plan against the strategy's KPIs.
type kpiAdjustments struct {
	base
}

var _ pipeline.Stage = (*kpiAdjustments)(nil)

func newKPIAdjustments(threshold float64) *kpiAdjustments {
	return &kpiAdjustments{base{
		def: domain.StageDefinition{
			ID:    domain.StageKPIAdjustments,
			Name:  NameKPIAdjustments,
			Phase: domain.PhaseOptimization,
			RequiredUpstream: []domain.StageID{
				domain.StageStrategyContext,
				domain.StageDailyItems,
				domain.StageRecommendations,
			},
			Collaborators: []domain.Collaborator{domain.CollaboratorGeneration},
			GateIDs:       []domain.GateID{domain.GateContinuity},
			Threshold:     threshold,
		},
		schema: gen.Schema{
			{Key: "adjustments", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "kpi_notes", Kind: gen.KindList, LoadBearing: true},
		},
	}}
}

func (s *kpiAdjustments) ValidateInputs(sc *pipeline.StageContext) error {
	return s.requireUpstream(sc)
}

func (s *kpiAdjustments) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	kpis := make([]string, 0, len(sc.Strategy().Objectives))
	for _, o := range sc.Strategy().Objectives {
		kpis = append(kpis, o.KPIs...)
	}

	inputs := map[string]any{
		"objectives": sc.Strategy().Objectives,
		"kpis":       kpis,
	}
	return s.generate(ctx, sc, "kpi_adjustments", inputs, s.schema)
}

// alignmentReview (stage 11) cross-checks the generated plan against the
// strategy's objectives before assembly.
type alignmentReview struct {
	base
}

var _ pipeline.Stage = (*alignmentReview)(nil)

func newAlignmentReview(threshold float64) *alignmentReview {
	return &alignmentReview{base{
		def: domain.StageDefinition{
			ID:    domain.StageAlignmentReview,
			Name:  NameAlignmentReview,
			Phase: domain.PhaseOptimization,
			RequiredUpstream: []domain.StageID{
				domain.StageStrategyContext,
				domain.StageDailyItems,
				domain.StageKPIAdjustments,
			},
			Collaborators: []domain.Collaborator{domain.CollaboratorGeneration},
			GateIDs:       []domain.GateID{domain.GateContinuity},
			Threshold:     threshold,
		},
		schema: gen.Schema{
			{Key: "verdict", Kind: gen.KindString, Required: true, LoadBearing: true},
			{Key: "flagged_items", Kind: gen.KindList, LoadBearing: true},
			{Key: "notes", Kind: gen.KindList},
		},
	}}
}

func (s *alignmentReview) ValidateInputs(sc *pipeline.StageContext) error {
	return s.requireUpstream(sc)
}

func (s *alignmentReview) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	payload, err := sc.UpstreamPayload(domain.StageDailyItems)
	if err != nil {
		return nil, err
	}
	itemCount, _ := payload.Int("item_count")

	inputs := map[string]any{
		"objectives": sc.Strategy().Objectives,
		"item_count": itemCount,
	}
	return s.generate(ctx, sc, "alignment_review", inputs, s.schema)
}

// assembly (stage 12) builds the final calendar artifact from upstream
// payloads. It is a deterministic transform: no generation request is made,
// so the stage declares no collaborators.
type assembly struct {
	base
}

var _ pipeline.Stage = (*assembly)(nil)

func newAssembly(threshold float64) *assembly {
	return &assembly{base{
		def: domain.StageDefinition{
			ID:    domain.StageAssembly,
			Name:  NameAssembly,
			Phase: domain.PhaseOptimization,
			RequiredUpstream: []domain.StageID{
				domain.StageTimeframe,
				domain.StagePlatformStrategy,
				domain.StageWeeklyThemes,
				domain.StageDailyItems,
				domain.StageRecommendations,
				domain.StageKPIAdjustments,
			},
			// Continuity is not applied here: assembly rearranges upstream
			// output without generating anything new to check against it.
			GateIDs: []domain.GateID{
				domain.GateUniqueness,
				domain.GateContentMix,
				domain.GateStructure,
				domain.GateStandards,
				domain.GateAlignment,
			},
			Threshold: threshold,
		},
		schema: gen.Schema{
			{Key: "run_id", Kind: gen.KindString, Required: true},
			{Key: "strategy_id", Kind: gen.KindString, Required: true},
			{Key: "range", Kind: gen.KindMap, Required: true},
			{Key: "items", Kind: gen.KindList, Required: true},
			{Key: "weekly_themes", Kind: gen.KindList},
			{Key: "platform_plans", Kind: gen.KindList},
			{Key: "recommendations", Kind: gen.KindList},
			{Key: "generated_at", Kind: gen.KindString, Required: true},
			{Key: "schema_version", Kind: gen.KindString, Required: true},
		},
	}}
}

func (s *assembly) ValidateInputs(sc *pipeline.StageContext) error {
	return s.requireUpstream(sc)
}

func (s *assembly) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	items, err := s.collectItems(sc)
	if err != nil {
		return nil, err
	}
	themes, err := decodeUpstream[domain.WeeklyTheme](sc, s.def.ID, domain.StageWeeklyThemes, "themes")
	if err != nil {
		return nil, err
	}
	plans, err := decodeUpstream[domain.PlatformPlan](sc, s.def.ID, domain.StagePlatformStrategy, "platform_plans")
	if err != nil {
		return nil, err
	}
	recommendations, err := s.collectRecommendations(sc)
	if err != nil {
		return nil, err
	}

	artifact := &domain.CalendarArtifact{
		RunID:           sc.RunID(),
		StrategyID:      sc.StrategyID(),
		Range:           sc.Range(),
		Items:           items,
		WeeklyThemes:    themes,
		PlatformPlans:   plans,
		Recommendations: recommendations,
		GeneratedAt:     sc.Clock().Now().UTC(),
		SchemaVersion:   constants.ArtifactSchemaVersion,
	}
	return artifactPayload(artifact)
}

// collectItems decodes and orders the daily items payload. Items sort by
// date, then platform, then title, so the artifact is stable regardless of
// fan-out completion order.
func (s *assembly) collectItems(sc *pipeline.StageContext) ([]domain.ContentItem, error) {
	payload, err := sc.UpstreamPayload(domain.StageDailyItems)
	if err != nil {
		return nil, err
	}
	items, err := payload.ContentItems("items")
	if err != nil {
		return nil, cadenceerrors.NewInputValidationError(int(s.def.ID), "items", err.Error())
	}
	if len(items) == 0 {
		return nil, cadenceerrors.NewInputValidationError(int(s.def.ID), "items",
			"no content items to assemble")
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		if items[i].Platform != items[j].Platform {
			return items[i].Platform < items[j].Platform
		}
		return items[i].Title < items[j].Title
	})
	return items, nil
}

// decodeUpstream fetches one list field from an upstream payload and decodes
// its elements into T. Decode failures are input problems of the consuming
// stage.
func decodeUpstream[T any](sc *pipeline.StageContext, stage, upstream domain.StageID, key string) ([]T, error) {
	payload, err := sc.UpstreamPayload(upstream)
	if err != nil {
		return nil, err
	}
	out, err := decodeList[T](payload, key)
	if err != nil {
		return nil, cadenceerrors.NewInputValidationError(int(stage), key, err.Error())
	}
	return out, nil
}

// collectRecommendations merges the recommendation and KPI adjustment lists
// in stage order.
func (s *assembly) collectRecommendations(sc *pipeline.StageContext) ([]string, error) {
	var merged []string
	for _, source := range []struct {
		id  domain.StageID
		key string
	}{
		{domain.StageRecommendations, "recommendations"},
		{domain.StageKPIAdjustments, "adjustments"},
	} {
		payload, err := sc.UpstreamPayload(source.id)
		if err != nil {
			return nil, err
		}
		list, ok := payload.StringList(source.key)
		if !ok {
			return nil, cadenceerrors.NewInputValidationError(int(s.def.ID), source.key,
				fmt.Sprintf("field '%s' from stage %d is not a list of strings", source.key, source.id))
		}
		merged = append(merged, list...)
	}
	return merged, nil
}

// artifactPayload converts the artifact to its payload form through JSON so
// the stage result and the persisted artifact share one encoding.
func artifactPayload(artifact *domain.CalendarArtifact) (gen.Payload, error) {
	encoded, err := json.Marshal(artifact)
	if err != nil {
		return nil, cadenceerrors.Wrap(err, "failed to encode artifact")
	}
	var payload gen.Payload
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return nil, cadenceerrors.Wrap(err, "failed to decode artifact payload")
	}
	return payload, nil
}
