package stages

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/gen"
	"github.com/cadencelabs/cadence/internal/pipeline"
)

// maxWeekFanOut caps concurrent per-week generation requests in the daily
// items stage. Each request spawns a generation subprocess.
const maxWeekFanOut = 4

// weeklyThemes (stage 7) assigns each calendar week a theme and a narrative
// arc across weeks.
type weeklyThemes struct {
	base
}

var _ pipeline.Stage = (*weeklyThemes)(nil)

func newWeeklyThemes(threshold float64) *weeklyThemes {
	return &weeklyThemes{base{
		def: domain.StageDefinition{
			ID:    domain.StageWeeklyThemes,
			Name:  NameWeeklyThemes,
			Phase: domain.PhaseContent,
			RequiredUpstream: []domain.StageID{
				domain.StageStrategyContext,
				domain.StageGapAnalysis,
				domain.StageTimeframe,
				domain.StagePillarAllocation,
			},
			Collaborators: []domain.Collaborator{domain.CollaboratorGeneration},
			GateIDs:       []domain.GateID{domain.GateContinuity},
			Threshold:     threshold,
		},
		schema: gen.Schema{
			{Key: "themes", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "arc", Kind: gen.KindString, Required: true, LoadBearing: true},
		},
	}}
}

func (s *weeklyThemes) ValidateInputs(sc *pipeline.StageContext) error {
	return s.requireUpstream(sc)
}

func (s *weeklyThemes) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	spans := weekSpans(sc.Range())
	weeks := make([]map[string]any, 0, len(spans))
	for i, span := range spans {
		weeks = append(weeks, map[string]any{
			"week":  i + 1,
			"start": span.Start.Format(time.DateOnly),
			"end":   span.End.Format(time.DateOnly),
		})
	}

	inputs := map[string]any{
		"weeks":      weeks,
		"week_count": len(spans),
	}
	return s.generate(ctx, sc, "weekly_themes", inputs, s.schema)
}

// dailyItems (stage 8) generates the individual content items. Work fans
// out one generation request per calendar week; results merge in week order
// so the payload is deterministic for a given set of responses.
type dailyItems struct {
	base
}

var _ pipeline.Stage = (*dailyItems)(nil)

func newDailyItems(threshold float64) *dailyItems {
	return &dailyItems{base{
		def: domain.StageDefinition{
			ID:    domain.StageDailyItems,
			Name:  NameDailyItems,
			Phase: domain.PhaseContent,
			RequiredUpstream: []domain.StageID{
				domain.StageTimeframe,
				domain.StagePillarAllocation,
				domain.StagePlatformStrategy,
				domain.StageWeeklyThemes,
			},
			Collaborators: []domain.Collaborator{domain.CollaboratorGeneration},
			GateIDs: []domain.GateID{
				domain.GateUniqueness,
				domain.GateContentMix,
				domain.GateStructure,
				domain.GateContinuity,
				domain.GateStandards,
				domain.GateAlignment,
			},
			Threshold: threshold,
		},
		schema: gen.Schema{
			{Key: "items", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "item_count", Kind: gen.KindNumber, Required: true, LoadBearing: true},
		},
	}}
}

func (s *dailyItems) ValidateInputs(sc *pipeline.StageContext) error {
	if err := s.requireUpstream(sc); err != nil {
		return err
	}
	if sc.Options().TargetItemCount < 1 {
		return cadenceerrors.NewInputValidationError(int(s.def.ID), "target_item_count",
			"target item count must be positive")
	}
	return nil
}

func (s *dailyItems) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	themes, err := s.weekThemes(sc)
	if err != nil {
		return nil, err
	}

	spans := weekSpans(sc.Range())
	counts := distributeItems(sc.Options().TargetItemCount, spans)

	weekSchema := gen.Schema{
		{Key: "items", Kind: gen.KindList, Required: true, LoadBearing: true},
	}

	// One request per week. Each goroutine writes only its own slot, so the
	// merge below needs no locking.
	results := make([][]any, len(spans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWeekFanOut)
	for i, span := range spans {
		if counts[i] == 0 {
			continue
		}
		week, count := i+1, counts[i]
		g.Go(func() error {
			inputs := map[string]any{
				"week":        week,
				"week_start":  span.Start.Format(time.DateOnly),
				"week_end":    span.End.Format(time.DateOnly),
				"item_target": count,
				"platforms":   sc.Options().Platforms,
			}
			if theme, ok := themes[week]; ok {
				inputs["theme"] = theme.Theme
				if theme.Focus != "" {
					inputs["focus"] = theme.Focus
				}
			}

			payload, genErr := s.generate(gctx, sc, "daily_items", inputs, weekSchema)
			if genErr != nil {
				return cadenceerrors.Wrapf(genErr, "week %d", week)
			}
			items, _ := payload.List("items")
			results[week-1] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []any
	for _, items := range results {
		merged = append(merged, items...)
	}
	return gen.Payload{
		"items":      merged,
		"item_count": float64(len(merged)),
	}, nil
}

// weekThemes decodes the weekly themes stage payload into a lookup by week
// number.
func (s *dailyItems) weekThemes(sc *pipeline.StageContext) (map[int]domain.WeeklyTheme, error) {
	payload, err := sc.UpstreamPayload(domain.StageWeeklyThemes)
	if err != nil {
		return nil, err
	}
	themes, err := decodeList[domain.WeeklyTheme](payload, "themes")
	if err != nil {
		return nil, cadenceerrors.NewInputValidationError(int(s.def.ID), "themes", err.Error())
	}
	byWeek := make(map[int]domain.WeeklyTheme, len(themes))
	for _, t := range themes {
		byWeek[t.Week] = t
	}
	return byWeek, nil
}

// recommendations (stage 9) produces execution recommendations for the
// generated plan.
type recommendations struct {
	base
}

var _ pipeline.Stage = (*recommendations)(nil)

func newRecommendations(threshold float64) *recommendations {
	return &recommendations{base{
		def: domain.StageDefinition{
			ID:    domain.StageRecommendations,
			Name:  NameRecommendations,
			Phase: domain.PhaseContent,
			RequiredUpstream: []domain.StageID{
				domain.StageStrategyContext,
				domain.StagePillarAllocation,
				domain.StageDailyItems,
			},
			Collaborators: []domain.Collaborator{domain.CollaboratorGeneration},
			GateIDs:       []domain.GateID{domain.GateContinuity},
			Threshold:     threshold,
		},
		schema: gen.Schema{
			{Key: "recommendations", Kind: gen.KindList, Required: true, LoadBearing: true},
			{Key: "focus_metric", Kind: gen.KindString, LoadBearing: true},
		},
	}}
}

func (s *recommendations) ValidateInputs(sc *pipeline.StageContext) error {
	return s.requireUpstream(sc)
}

func (s *recommendations) Execute(ctx context.Context, sc *pipeline.StageContext) (gen.Payload, error) {
	payload, err := sc.UpstreamPayload(domain.StageDailyItems)
	if err != nil {
		return nil, err
	}
	itemCount, _ := payload.Int("item_count")

	inputs := map[string]any{
		"item_count": itemCount,
		"objectives": sc.Strategy().Objectives,
	}
	return s.generate(ctx, sc, "recommendations", inputs, s.schema)
}

// weekSpans splits a date range into consecutive week-long spans. The last
// span is shorter when the range is not a whole number of weeks.
func weekSpans(rng domain.DateRange) []domain.DateRange {
	spans := make([]domain.DateRange, 0, weekCount(rng.Days()))
	for start := rng.Start; !start.After(rng.End); start = start.AddDate(0, 0, 7) {
		end := start.AddDate(0, 0, 6)
		if end.After(rng.End) {
			end = rng.End
		}
		spans = append(spans, domain.DateRange{Start: start, End: end})
	}
	return spans
}

// distributeItems splits target across spans proportionally to their length
// in days, then hands out the rounding remainder one item at a time so the
// counts always sum exactly to target.
func distributeItems(target int, spans []domain.DateRange) []int {
	counts := make([]int, len(spans))
	if len(spans) == 0 || target < 1 {
		return counts
	}

	totalDays := 0
	for _, s := range spans {
		totalDays += s.Days()
	}

	assigned := 0
	for i, s := range spans {
		counts[i] = target * s.Days() / totalDays
		assigned += counts[i]
	}
	for i := 0; assigned < target; i = (i + 1) % len(spans) {
		counts[i]++
		assigned++
	}
	return counts
}
