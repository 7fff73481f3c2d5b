package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencelabs/cadence/internal/constants"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

func TestRunOptions_Validate(t *testing.T) {
	valid := RunOptions{
		Days:            30,
		Platforms:       []string{"linkedin", "twitter"},
		TargetItemCount: 30,
	}

	tests := []struct {
		name    string
		mutate  func(*RunOptions)
		wantErr error
	}{
		{
			name:    "valid options",
			mutate:  func(_ *RunOptions) {},
			wantErr: nil,
		},
		{
			name:    "days below minimum",
			mutate:  func(o *RunOptions) { o.Days = 3 },
			wantErr: cadenceerrors.ErrValueOutOfRange,
		},
		{
			name:    "days above maximum",
			mutate:  func(o *RunOptions) { o.Days = 200 },
			wantErr: cadenceerrors.ErrValueOutOfRange,
		},
		{
			name:    "no platforms",
			mutate:  func(o *RunOptions) { o.Platforms = nil },
			wantErr: cadenceerrors.ErrEmptyValue,
		},
		{
			name:    "empty platform name",
			mutate:  func(o *RunOptions) { o.Platforms = []string{"linkedin", ""} },
			wantErr: cadenceerrors.ErrEmptyValue,
		},
		{
			name:    "duplicate platform",
			mutate:  func(o *RunOptions) { o.Platforms = []string{"linkedin", "linkedin"} },
			wantErr: cadenceerrors.ErrInvalidArgument,
		},
		{
			name:    "zero item count",
			mutate:  func(o *RunOptions) { o.TargetItemCount = 0 },
			wantErr: cadenceerrors.ErrValueOutOfRange,
		},
		{
			name: "item count exceeds one per platform per day",
			mutate: func(o *RunOptions) {
				o.Days = 7
				o.Platforms = []string{"linkedin"}
				o.TargetItemCount = 8
			},
			wantErr: cadenceerrors.ErrValueOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			opts.Platforms = append([]string{}, valid.Platforms...)
			tt.mutate(&opts)

			err := opts.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPipelineRun_IsTerminal(t *testing.T) {
	tests := []struct {
		status   constants.RunStatus
		terminal bool
	}{
		{constants.RunStatusPending, false},
		{constants.RunStatusRunning, false},
		{constants.RunStatusCompleted, true},
		{constants.RunStatusFailed, true},
		{constants.RunStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			run := PipelineRun{Status: tt.status}
			assert.Equal(t, tt.terminal, run.IsTerminal())
		})
	}
}

func TestPipelineRun_ResultFor(t *testing.T) {
	run := PipelineRun{
		StageResults: []StageResult{
			{StageID: StageStrategyContext, Status: constants.StageStatusSucceeded},
			{StageID: StageGapAnalysis, Status: constants.StageStatusSucceeded},
		},
	}

	result := run.ResultFor(StageGapAnalysis)
	require.NotNil(t, result)
	assert.Equal(t, StageGapAnalysis, result.StageID)

	assert.Nil(t, run.ResultFor(StageAssembly))
}

func TestStageID_Valid(t *testing.T) {
	assert.True(t, StageStrategyContext.Valid())
	assert.True(t, StageAssembly.Valid())
	assert.False(t, StageID(0).Valid())
	assert.False(t, StageID(13).Valid())
}

func TestPhaseForStage(t *testing.T) {
	tests := []struct {
		stage StageID
		phase Phase
	}{
		{StageStrategyContext, PhaseFoundation},
		{StageAudienceTargeting, PhaseFoundation},
		{StageTimeframe, PhaseStructure},
		{StagePlatformStrategy, PhaseStructure},
		{StageWeeklyThemes, PhaseContent},
		{StageRecommendations, PhaseContent},
		{StageKPIAdjustments, PhaseOptimization},
		{StageAssembly, PhaseOptimization},
		{StageID(0), Phase("")},
	}

	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			assert.Equal(t, tt.phase, PhaseForStage(tt.stage))
		})
	}
}

func TestDateRange_Days(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		r    DateRange
		want int
	}{
		{
			name: "single day",
			r:    DateRange{Start: start, End: start},
			want: 1,
		},
		{
			name: "thirty days inclusive",
			r:    DateRange{Start: start, End: start.AddDate(0, 0, 29)},
			want: 30,
		},
		{
			name: "end before start",
			r:    DateRange{Start: start, End: start.AddDate(0, 0, -1)},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Days())
		})
	}
}

func TestDateRange_Contains(t *testing.T) {
	r := DateRange{
		Start: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, r.Contains(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2026, 9, 30, 15, 4, 5, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)))
}

func TestQualityReport_Violated(t *testing.T) {
	report := QualityReport{
		Scores: []GateScore{
			{GateID: GateUniqueness, Score: 1.0},
			{GateID: GateContentMix, Score: 0.4, Violated: true},
			{GateID: GateStandards, Score: 0.2, Violated: true},
		},
	}

	assert.Equal(t, []GateID{GateContentMix, GateStandards}, report.Violated())
}

func TestCalendarArtifact_CategoryHistogram(t *testing.T) {
	artifact := CalendarArtifact{
		Items: []ContentItem{
			{Category: CategoryEducational},
			{Category: CategoryEducational},
			{Category: CategoryPromotional},
		},
	}

	hist := artifact.CategoryHistogram()
	assert.Equal(t, 2, hist[CategoryEducational])
	assert.Equal(t, 1, hist[CategoryPromotional])
	assert.Equal(t, 0, hist[CategoryEngagement])
}

func TestCalendarArtifact_ItemsOn(t *testing.T) {
	day := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	artifact := CalendarArtifact{
		Items: []ContentItem{
			{Date: day, Platform: "linkedin"},
			{Date: day, Platform: "twitter"},
			{Date: day.AddDate(0, 0, 1), Platform: "linkedin"},
		},
	}

	assert.Len(t, artifact.ItemsOn(day), 2)
	assert.Len(t, artifact.ItemsOn(day.AddDate(0, 0, 2)), 0)
}

func TestStageSummary_Clone(t *testing.T) {
	original := &StageSummary{
		StageID: StagePillarAllocation,
		Name:    "pillar-allocation",
		Version: constants.SummarySchemaVersion,
		Facts:   map[string]string{"dominant_pillar": "product education"},
		Lists:   map[string][]string{"pillar_split": {"product education:12"}},
	}

	clone := original.Clone()
	clone.Facts["dominant_pillar"] = "mutated"
	clone.Lists["pillar_split"][0] = "mutated"

	assert.Equal(t, "product education", original.Facts["dominant_pillar"],
		"mutating the clone must not affect the original")
	assert.Equal(t, "product education:12", original.Lists["pillar_split"][0])
}

func TestStageSummary_KeysSorted(t *testing.T) {
	s := &StageSummary{
		Facts: map[string]string{"b": "2", "a": "1", "c": "3"},
		Lists: map[string][]string{"z": {"x"}, "y": {"w"}},
	}

	assert.Equal(t, []string{"a", "b", "c"}, s.FactKeys())
	assert.Equal(t, []string{"y", "z"}, s.ListKeys())
	assert.Equal(t, 5, s.FieldCount())
}

func TestKnownCategory(t *testing.T) {
	assert.True(t, KnownCategory("educational"))
	assert.True(t, KnownCategory("thought_leadership"))
	assert.False(t, KnownCategory("viral"))
	assert.False(t, KnownCategory(""))
}

func TestStrategy_ObjectiveByID(t *testing.T) {
	s := Strategy{
		Objectives: []Objective{
			{ID: "obj-pipeline", Name: "Grow qualified pipeline"},
			{ID: "obj-brand", Name: "Build brand authority"},
		},
	}

	obj := s.ObjectiveByID("obj-brand")
	require.NotNil(t, obj)
	assert.Equal(t, "Build brand authority", obj.Name)
	assert.Nil(t, s.ObjectiveByID("missing"))
}

func TestProfileData_PlatformByName(t *testing.T) {
	p := ProfileData{
		Platforms: []PlatformProfile{
			{Name: "linkedin", MaxPerWeek: 5},
		},
	}

	platform := p.PlatformByName("linkedin")
	require.NotNil(t, platform)
	assert.Equal(t, 5, platform.MaxPerWeek)
	assert.Nil(t, p.PlatformByName("tiktok"))
}
