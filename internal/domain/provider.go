// Package domain provides shared domain types for the Cadence generation pipeline.
//
// This file defines the read-only data structures served by the external
// provider ports. Provider data is authored outside the pipeline (YAML files
// in the default adapter) and is never synthesized: a missing document is a
// typed error, not an empty value.
package domain

import "time"

// Strategy is the content strategy a calendar run plans against.
//
// Example YAML document (strategies/<id>.yaml):
//
//	id: b2b-saas-q3
//	name: B2B SaaS Q3 push
//	brand_voice: confident, practical, no hype
//	objectives:
//	  - id: obj-pipeline
//	    name: Grow qualified pipeline
//	    kpis: [demo_requests, newsletter_signups]
//	pillars:
//	  - name: product education
//	    weight: 0.4
//	keywords: [onboarding, activation, retention]
type Strategy struct {
	// ID is the strategy identifier referenced by StartRun.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable strategy name.
	Name string `json:"name" yaml:"name"`

	// BrandVoice captures the tone the content must carry.
	BrandVoice string `json:"brand_voice" yaml:"brand_voice"`

	// Objectives are the strategic goals content must serve.
	Objectives []Objective `json:"objectives" yaml:"objectives"`

	// Pillars are the weighted content pillars.
	Pillars []Pillar `json:"pillars" yaml:"pillars"`

	// Keywords are the strategy-level target keywords.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// ObjectiveByID returns the objective with the given identifier, or nil.
func (s *Strategy) ObjectiveByID(id string) *Objective {
	for i := range s.Objectives {
		if s.Objectives[i].ID == id {
			return &s.Objectives[i]
		}
	}
	return nil
}

// Objective is one strategic goal with its measurable KPIs.
type Objective struct {
	// ID is the stable objective identifier.
	ID string `json:"id" yaml:"id"`

	// Name describes the objective.
	Name string `json:"name" yaml:"name"`

	// KPIs lists the metrics that measure the objective.
	KPIs []string `json:"kpis,omitempty" yaml:"kpis,omitempty"`
}

// Pillar is a weighted content pillar.
type Pillar struct {
	// Name identifies the pillar.
	Name string `json:"name" yaml:"name"`

	// Weight is the pillar's share of the calendar, in [0,1].
	// Pillar weights for a strategy sum to 1.
	Weight float64 `json:"weight" yaml:"weight"`

	// Description explains what the pillar covers.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// GapAnalysis is the gap/opportunity data for a user.
//
// Example YAML document (gaps/<user-id>.yaml):
//
//	user_id: user-42
//	gaps:
//	  - topic: churn prevention
//	    severity: high
//	opportunities:
//	  - keyword: onboarding checklist
//	    intent: informational
//	    priority: 1
type GapAnalysis struct {
	// UserID identifies the account the analysis belongs to.
	UserID string `json:"user_id" yaml:"user_id"`

	// Gaps lists topics the existing content does not cover.
	Gaps []ContentGap `json:"gaps,omitempty" yaml:"gaps,omitempty"`

	// Opportunities lists keyword opportunities worth targeting.
	Opportunities []Opportunity `json:"opportunities,omitempty" yaml:"opportunities,omitempty"`

	// GeneratedAt is when the analysis was produced.
	GeneratedAt time.Time `json:"generated_at,omitzero" yaml:"generated_at,omitempty"`
}

// ContentGap is one uncovered topic.
type ContentGap struct {
	// Topic names the uncovered subject.
	Topic string `json:"topic" yaml:"topic"`

	// Severity grades the gap (low, medium, high).
	Severity string `json:"severity,omitempty" yaml:"severity,omitempty"`

	// Notes carries analyst commentary.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Opportunity is one keyword opportunity.
type Opportunity struct {
	// Keyword is the target search term.
	Keyword string `json:"keyword" yaml:"keyword"`

	// Intent is the dominant search intent (informational, commercial, ...).
	Intent string `json:"intent,omitempty" yaml:"intent,omitempty"`

	// Priority orders opportunities; 1 is highest.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// ProfileData is the audience and platform profile for a user.
//
// Example YAML document (profiles/<user-id>.yaml):
//
//	user_id: user-42
//	segments:
//	  - name: heads of growth
//	    pain_points: [noisy channels, attribution]
//	platforms:
//	  - name: linkedin
//	    formats: [post, carousel]
//	    posting_windows: ["tue 09:00", "thu 10:00"]
//	    max_per_week: 5
type ProfileData struct {
	// UserID identifies the account the profile belongs to.
	UserID string `json:"user_id" yaml:"user_id"`

	// Segments lists the audience segments content targets.
	Segments []AudienceSegment `json:"segments,omitempty" yaml:"segments,omitempty"`

	// Platforms lists the platforms the user publishes on.
	Platforms []PlatformProfile `json:"platforms,omitempty" yaml:"platforms,omitempty"`
}

// PlatformByName returns the platform profile with the given name, or nil.
func (p *ProfileData) PlatformByName(name string) *PlatformProfile {
	for i := range p.Platforms {
		if p.Platforms[i].Name == name {
			return &p.Platforms[i]
		}
	}
	return nil
}

// AudienceSegment is one audience group.
type AudienceSegment struct {
	// Name identifies the segment.
	Name string `json:"name" yaml:"name"`

	// Description explains who the segment is.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// PainPoints lists the problems content should speak to.
	PainPoints []string `json:"pain_points,omitempty" yaml:"pain_points,omitempty"`
}

// PlatformProfile is the publishing profile for one platform.
type PlatformProfile struct {
	// Name is the platform name (linkedin, twitter, ...).
	Name string `json:"name" yaml:"name"`

	// Formats lists supported content formats.
	Formats []string `json:"formats,omitempty" yaml:"formats,omitempty"`

	// PostingWindows lists preferred posting windows.
	PostingWindows []string `json:"posting_windows,omitempty" yaml:"posting_windows,omitempty"`

	// MaxPerWeek caps items per week on this platform. Zero means no cap.
	MaxPerWeek int `json:"max_per_week,omitempty" yaml:"max_per_week,omitempty"`
}
