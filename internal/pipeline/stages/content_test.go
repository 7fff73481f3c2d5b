package stages

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/gen"
)

func TestWeeklyThemes_Execute(t *testing.T) {
	env := newEnv(t)
	env.seed(domain.StageStrategyContext, domain.StageGapAnalysis, domain.StageAudienceTargeting,
		domain.StageTimeframe, domain.StagePillarAllocation)
	env.client.respond = func(*gen.Request) (gen.Payload, error) {
		return payloadWeeklyThemes(), nil
	}

	stage := stageByID(t, domain.StageWeeklyThemes)
	_, err := stage.Execute(context.Background(), env.view(domain.StageWeeklyThemes))
	require.NoError(t, err)

	requests := env.client.recorded()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, "weekly_themes", req.Task)
	assert.Equal(t, 2, req.Inputs["week_count"])

	weeks, ok := req.Inputs["weeks"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, weeks, 2)
	assert.Equal(t, map[string]any{"week": 1, "start": "2026-09-01", "end": "2026-09-07"}, weeks[0])
	assert.Equal(t, map[string]any{"week": 2, "start": "2026-09-08", "end": "2026-09-14"}, weeks[1])
}

// seedThroughWeeklyThemes records stages 1-7, everything daily items depends
// on.
func seedThroughWeeklyThemes(env *stageEnv) {
	env.seed(domain.StageStrategyContext, domain.StageGapAnalysis, domain.StageAudienceTargeting,
		domain.StageTimeframe, domain.StagePillarAllocation, domain.StagePlatformStrategy,
		domain.StageWeeklyThemes)
}

func TestDailyItems_ValidateInputs(t *testing.T) {
	stage := stageByID(t, domain.StageDailyItems)

	t.Run("rejects a non-positive item target", func(t *testing.T) {
		opts := testRunOptions()
		opts.TargetItemCount = 0
		env := newEnvWith(t, fixtureStrategy(), opts)
		seedThroughWeeklyThemes(env)

		err := stage.ValidateInputs(env.view(domain.StageDailyItems))
		validation, ok := cadenceerrors.AsInputValidation(err)
		require.True(t, ok)
		assert.Equal(t, "target_item_count", validation.Field)
	})

	t.Run("requires all four upstream summaries", func(t *testing.T) {
		env := newEnv(t)
		env.seed(domain.StageStrategyContext, domain.StageGapAnalysis, domain.StageAudienceTargeting,
			domain.StageTimeframe, domain.StagePillarAllocation, domain.StagePlatformStrategy)

		err := stage.ValidateInputs(env.view(domain.StageDailyItems))
		validation, ok := cadenceerrors.AsInputValidation(err)
		require.True(t, ok)
		assert.Equal(t, "stage_7_summary", validation.Field)
	})
}

func TestDailyItems_Execute(t *testing.T) {
	stage := stageByID(t, domain.StageDailyItems)

	t.Run("fans out per week and merges in week order", func(t *testing.T) {
		env := newEnv(t)
		seedThroughWeeklyThemes(env)
		env.client.respond = func(req *gen.Request) (gen.Payload, error) {
			week, _ := req.Inputs["week"].(int)
			items := weekItems(week)
			if len(items) == 0 {
				return nil, cadenceerrors.Wrapf(cadenceerrors.ErrGenerationUnavailable,
					"unscripted week %v", req.Inputs["week"])
			}
			return gen.Payload{"items": items}, nil
		}

		payload, err := stage.Execute(context.Background(), env.view(domain.StageDailyItems))
		require.NoError(t, err)
		assert.Equal(t, float64(16), payload["item_count"])

		items, err := payload.ContentItems("items")
		require.NoError(t, err)
		require.Len(t, items, 16)
		assert.Equal(t, "Why onboarding stalls after week one", items[0].Title)
		assert.True(t, items[8].Date.Equal(day(8)),
			"week two items follow week one regardless of completion order")

		requests := env.client.byTask("daily_items")
		require.Len(t, requests, 2)
		// Fan-out order is not deterministic; address requests by week.
		sort.Slice(requests, func(i, j int) bool {
			wi, _ := requests[i].Inputs["week"].(int)
			wj, _ := requests[j].Inputs["week"].(int)
			return wi < wj
		})

		first := requests[0]
		assert.Equal(t, 8, first.Inputs["item_target"])
		assert.Equal(t, "2026-09-01", first.Inputs["week_start"])
		assert.Equal(t, "2026-09-07", first.Inputs["week_end"])
		assert.Equal(t, []string{"linkedin", "twitter"}, first.Inputs["platforms"])
		assert.Equal(t, "diagnose the churn prevention gap", first.Inputs["theme"])
		assert.Equal(t, "why onboarding stalls", first.Inputs["focus"])

		second := requests[1]
		assert.Equal(t, 8, second.Inputs["item_target"])
		assert.Equal(t, "2026-09-08", second.Inputs["week_start"])
		assert.Equal(t, "2026-09-14", second.Inputs["week_end"])
		assert.Equal(t, "prove product education pays off", second.Inputs["theme"])
	})

	t.Run("wraps a failed week with its week number", func(t *testing.T) {
		env := newEnv(t)
		seedThroughWeeklyThemes(env)
		env.client.respond = func(req *gen.Request) (gen.Payload, error) {
			week, _ := req.Inputs["week"].(int)
			if week == 2 {
				return nil, cadenceerrors.ErrGenerationTimeout
			}
			return gen.Payload{"items": weekItems(week)}, nil
		}

		_, err := stage.Execute(context.Background(), env.view(domain.StageDailyItems))
		require.Error(t, err)
		assert.ErrorIs(t, err, cadenceerrors.ErrGenerationTimeout)
		assert.Contains(t, err.Error(), "week 2")
	})
}

func TestRecommendations_Execute(t *testing.T) {
	env := newEnv(t)
	env.seed(domain.StageStrategyContext, domain.StageGapAnalysis, domain.StageAudienceTargeting,
		domain.StageTimeframe, domain.StagePillarAllocation, domain.StagePlatformStrategy,
		domain.StageWeeklyThemes, domain.StageDailyItems)
	env.client.respond = func(*gen.Request) (gen.Payload, error) {
		return payloadRecommendations(), nil
	}

	stage := stageByID(t, domain.StageRecommendations)
	_, err := stage.Execute(context.Background(), env.view(domain.StageRecommendations))
	require.NoError(t, err)

	requests := env.client.recorded()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, "recommendations", req.Task)
	assert.Equal(t, 16, req.Inputs["item_count"])
	assert.Equal(t, fixtureStrategy().Objectives, req.Inputs["objectives"])
	assert.Contains(t, req.Context, "## daily-items")
	assert.Contains(t, req.Context, "- item_count: 16")
}
