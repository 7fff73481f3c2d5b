// Package domain provides shared domain types for the Cadence generation pipeline.
package domain

import (
	"fmt"
	"time"

	"github.com/cadencelabs/cadence/internal/constants"
)

// StageID identifies one of the twelve fixed pipeline stages. Stage order is
// total: stage N may only consume context produced by stages with smaller
// identifiers.
type StageID int

// Stage identifiers in execution order. The sequence is fixed; there is no
// mechanism to reorder, skip, or insert stages at runtime.
const (
	// StageStrategyContext establishes the strategic frame for the calendar.
	StageStrategyContext StageID = 1

	// StageGapAnalysis folds content gaps and keyword opportunities in.
	StageGapAnalysis StageID = 2

	// StageAudienceTargeting selects audience segments and platform fit.
	StageAudienceTargeting StageID = 3

	// StageTimeframe fixes the calendar date range and cadence skeleton.
	StageTimeframe StageID = 4

	// StagePillarAllocation distributes items across content pillars.
	StagePillarAllocation StageID = 5

	// StagePlatformStrategy plans per-platform formats and posting windows.
	StagePlatformStrategy StageID = 6

	// StageWeeklyThemes assigns a theme to each calendar week.
	StageWeeklyThemes StageID = 7

	// StageDailyItems generates the individual content items.
	StageDailyItems StageID = 8

	// StageRecommendations produces execution recommendations.
	StageRecommendations StageID = 9

	// StageKPIAdjustments tunes the plan against strategy KPIs.
	StageKPIAdjustments StageID = 10

	// StageAlignmentReview cross-checks the full plan against objectives.
	StageAlignmentReview StageID = 11

	// StageAssembly builds the final calendar artifact.
	StageAssembly StageID = 12
)

// Valid reports whether the identifier names one of the twelve stages.
func (id StageID) Valid() bool {
	return id >= constants.FirstStageID && id <= constants.StageCount
}

// String returns the stage identifier as a decimal string.
func (id StageID) String() string {
	return fmt.Sprintf("%d", int(id))
}

// Phase groups stages into the four pipeline phases.
type Phase string

// Phase constants in pipeline order.
const (
	// PhaseFoundation covers stages 1-3: strategy, gaps, audience.
	PhaseFoundation Phase = "foundation"

	// PhaseStructure covers stages 4-6: timeframe, pillars, platforms.
	PhaseStructure Phase = "structure"

	// PhaseContent covers stages 7-9: themes, items, recommendations.
	PhaseContent Phase = "content"

	// PhaseOptimization covers stages 10-12: KPIs, alignment, assembly.
	PhaseOptimization Phase = "optimization"
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	return string(p)
}

// PhaseForStage returns the phase a stage belongs to.
// Unknown stage identifiers return an empty phase.
func PhaseForStage(id StageID) Phase {
	switch {
	case id >= 1 && id <= 3:
		return PhaseFoundation
	case id >= 4 && id <= 6:
		return PhaseStructure
	case id >= 7 && id <= 9:
		return PhaseContent
	case id >= 10 && id <= 12:
		return PhaseOptimization
	default:
		return ""
	}
}

// GateID identifies a quality gate in the registry.
type GateID string

// Gate identifiers for the six built-in quality dimensions.
const (
	// GateUniqueness scores duplicate titles, repeated topic angles, and
	// keyword cannibalization.
	GateUniqueness GateID = "uniqueness"

	// GateContentMix scores the category histogram against configured bands.
	GateContentMix GateID = "content_mix"

	// GateStructure scores date-range accuracy and item distribution.
	GateStructure GateID = "structure"

	// GateContinuity scores whether downstream output builds on upstream
	// decisions.
	GateContinuity GateID = "continuity"

	// GateStandards scores tone, length, and format compliance.
	GateStandards GateID = "standards"

	// GateAlignment scores the mapping of items to strategic objectives.
	GateAlignment GateID = "alignment"
)

// String returns the string representation of the GateID.
func (id GateID) String() string {
	return string(id)
}

// Collaborator names an external port a stage depends on.
type Collaborator string

// Collaborator name constants used in stage declarations and error attribution.
const (
	// CollaboratorStrategy is the strategy data provider port.
	CollaboratorStrategy Collaborator = "strategy_provider"

	// CollaboratorGaps is the gap/opportunity data provider port.
	CollaboratorGaps Collaborator = "gap_provider"

	// CollaboratorAudience is the audience/platform data provider port.
	CollaboratorAudience Collaborator = "audience_provider"

	// CollaboratorGeneration is the generation client port.
	CollaboratorGeneration Collaborator = "generation_client"
)

// String returns the string representation of the Collaborator.
func (c Collaborator) String() string {
	return string(c)
}

// StageDefinition is the static description of a stage: identity, phase,
// declared upstream dependencies, collaborator ports, applicable gates, and
// pass threshold. Definitions are fixed at build time.
//
// Example JSON representation:
//
//	{
//	    "id": 8,
//	    "name": "daily-items",
//	    "phase": "content",
//	    "required_upstream": [4, 5, 6, 7],
//	    "collaborators": ["generation_client"],
//	    "gate_ids": ["uniqueness", "content_mix", "standards"],
//	    "threshold": 0.75
//	}
type StageDefinition struct {
	// ID is the stage identifier (1-12).
	ID StageID `json:"id"`

	// Name is the stable machine-readable stage name.
	Name string `json:"name"`

	// Phase is the pipeline phase the stage belongs to.
	Phase Phase `json:"phase"`

	// RequiredUpstream lists stage identifiers whose summaries this stage
	// consumes. All entries are strictly smaller than ID.
	RequiredUpstream []StageID `json:"required_upstream,omitempty"`

	// Collaborators lists the external ports the stage calls.
	Collaborators []Collaborator `json:"collaborators,omitempty"`

	// GateIDs lists the quality gates applied to the stage result.
	GateIDs []GateID `json:"gate_ids,omitempty"`

	// Threshold is the minimum weighted gate score for the stage to pass.
	Threshold float64 `json:"threshold"`
}

// StageResult captures the outcome of executing a single stage.
// A result is written at most once and is immutable once created.
//
// Example JSON representation:
//
//	{
//	    "stage_id": 5,
//	    "name": "pillar-allocation",
//	    "status": "succeeded",
//	    "payload": {...},
//	    "quality": {...},
//	    "started_at": "2026-08-25T10:00:02Z",
//	    "finished_at": "2026-08-25T10:00:09Z"
//	}
type StageResult struct {
	// StageID identifies which stage produced this result.
	StageID StageID `json:"stage_id" yaml:"stage_id"`

	// Name is the stage's machine-readable name.
	Name string `json:"name" yaml:"name"`

	// Status is succeeded or failed.
	Status constants.StageStatus `json:"status" yaml:"status"`

	// Payload is the structured output of the stage's generation call.
	// Failed stages may carry a partial payload for diagnostics.
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`

	// Quality is the gate evaluation report for the payload.
	Quality *QualityReport `json:"quality,omitempty" yaml:"quality,omitempty"`

	// Error contains the failure diagnostic if Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// StartedAt is when stage execution began.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// FinishedAt is when stage execution finished.
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// QualityReport aggregates gate scores for one stage result.
//
// Example JSON representation:
//
//	{
//	    "scores": [{"gate_id": "uniqueness", "score": 1.0, "weight": 0.25}],
//	    "overall_score": 0.93,
//	    "threshold": 0.75,
//	    "passed": true
//	}
type QualityReport struct {
	// Scores holds one entry per applicable gate, in registry order.
	Scores []GateScore `json:"scores" yaml:"scores"`

	// OverallScore is the weight-normalized combination of all scores, in [0,1].
	OverallScore float64 `json:"overall_score" yaml:"overall_score"`

	// Threshold is the stage's configured pass threshold.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Passed is true when no gate is violated and OverallScore meets Threshold.
	Passed bool `json:"passed" yaml:"passed"`
}

// Violated returns the identifiers of all violated gates in score order.
func (r *QualityReport) Violated() []GateID {
	var ids []GateID
	for _, s := range r.Scores {
		if s.Violated {
			ids = append(ids, s.GateID)
		}
	}
	return ids
}

// GateScore is one gate's verdict on a stage result.
type GateScore struct {
	// GateID identifies the gate.
	GateID GateID `json:"gate_id" yaml:"gate_id"`

	// Score is the gate's component score in [0,1].
	Score float64 `json:"score" yaml:"score"`

	// Weight is the gate's configured weight in the overall score.
	Weight float64 `json:"weight" yaml:"weight"`

	// Violated is true when the gate's own threshold was not met.
	Violated bool `json:"violated" yaml:"violated"`

	// Violations lists human-readable violation details.
	Violations []string `json:"violations,omitempty" yaml:"violations,omitempty"`
}
