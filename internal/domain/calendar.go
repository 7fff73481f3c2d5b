// Package domain provides shared domain types for the Cadence generation pipeline.
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ContentCategory classifies a content item for the mix balance gate.
type ContentCategory string

// Content category constants. The content mix gate validates the category
// histogram of a calendar against configured percentage bands.
const (
	// CategoryEducational marks content that teaches the audience.
	CategoryEducational ContentCategory = "educational"

	// CategoryThoughtLeadership marks opinion and perspective content.
	CategoryThoughtLeadership ContentCategory = "thought_leadership"

	// CategoryEngagement marks conversational and community content.
	CategoryEngagement ContentCategory = "engagement"

	// CategoryPromotional marks product and offer content.
	CategoryPromotional ContentCategory = "promotional"
)

// String returns the string representation of the ContentCategory.
func (c ContentCategory) String() string {
	return string(c)
}

// ContentCategories lists all categories in canonical order.
// Used by the mix gate to iterate bands deterministically.
//
//nolint:gochecknoglobals // Read-only canonical ordering
var ContentCategories = []ContentCategory{
	CategoryEducational,
	CategoryThoughtLeadership,
	CategoryEngagement,
	CategoryPromotional,
}

// KnownCategory reports whether s names a recognized content category.
func KnownCategory(s string) bool {
	for _, c := range ContentCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// ContentItem is one planned piece of content in the calendar.
//
// Example JSON representation:
//
//	{
//	    "date": "2026-09-03T00:00:00Z",
//	    "platform": "linkedin",
//	    "title": "Five onboarding mistakes that stall B2B trials",
//	    "topic": "activation friction",
//	    "category": "educational",
//	    "format": "carousel",
//	    "pillar": "product education",
//	    "keywords": ["onboarding", "activation"],
//	    "objective_ids": ["obj-pipeline"]
//	}
type ContentItem struct {
	// Date is the publication day (UTC midnight).
	Date time.Time `json:"date" yaml:"date"`

	// Platform is the publishing platform for this item.
	Platform string `json:"platform" yaml:"platform"`

	// Title is the working headline.
	Title string `json:"title" yaml:"title"`

	// Topic is the angle the item takes.
	Topic string `json:"topic" yaml:"topic"`

	// Category classifies the item for mix balancing.
	Category ContentCategory `json:"category" yaml:"category"`

	// Format is the platform-specific content format (post, carousel, ...).
	Format string `json:"format" yaml:"format"`

	// Pillar is the content pillar the item serves.
	Pillar string `json:"pillar,omitempty" yaml:"pillar,omitempty"`

	// Keywords are the target keywords the item addresses.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// ObjectiveIDs are the strategy objectives the item supports.
	ObjectiveIDs []string `json:"objective_ids,omitempty" yaml:"objective_ids,omitempty"`

	// Notes carries optional execution guidance.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// UnmarshalJSON decodes an item, accepting the publication date either as a
// full RFC 3339 timestamp or as a bare "2006-01-02" day. Generation commands
// typically emit bare days; persisted artifacts carry full timestamps.
// Either way the decoded date is normalized to UTC midnight.
func (c *ContentItem) UnmarshalJSON(data []byte) error {
	type alias ContentItem
	aux := struct {
		Date string `json:"date"`
		*alias
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Date == "" {
		c.Date = time.Time{}
		return nil
	}

	day, err := parseDay(aux.Date)
	if err != nil {
		return err
	}
	c.Date = day
	return nil
}

// parseDay parses an RFC 3339 timestamp or a bare date and normalizes it to
// UTC midnight.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// DateRange is an inclusive calendar span.
type DateRange struct {
	// Start is the first day of the range (UTC midnight).
	Start time.Time `json:"start" yaml:"start"`

	// End is the last day of the range (UTC midnight), inclusive.
	End time.Time `json:"end" yaml:"end"`
}

// Days returns the inclusive day count of the range.
// A range whose end precedes its start counts zero days.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether t falls inside the range (date precision).
func (r DateRange) Contains(t time.Time) bool {
	day := t.Truncate(24 * time.Hour)
	return !day.Before(r.Start) && !day.After(r.End)
}

// WeeklyTheme assigns an editorial theme to one calendar week.
type WeeklyTheme struct {
	// Week is the one-based week number within the calendar.
	Week int `json:"week" yaml:"week"`

	// Theme is the editorial theme for the week.
	Theme string `json:"theme" yaml:"theme"`

	// Focus describes what the week's content concentrates on.
	Focus string `json:"focus,omitempty" yaml:"focus,omitempty"`
}

// PlatformPlan is the per-platform publishing strategy carried into the artifact.
type PlatformPlan struct {
	// Platform is the platform name.
	Platform string `json:"platform" yaml:"platform"`

	// ItemsPerWeek is the planned publishing cadence.
	ItemsPerWeek int `json:"items_per_week" yaml:"items_per_week"`

	// Formats lists the content formats planned for this platform.
	Formats []string `json:"formats,omitempty" yaml:"formats,omitempty"`

	// PostingWindows lists preferred posting windows (e.g., "tue 09:00").
	PostingWindows []string `json:"posting_windows,omitempty" yaml:"posting_windows,omitempty"`
}

// CalendarArtifact is the assembled output of a completed run. It is built
// only by the assembly stage from accumulated context and exists only for
// runs that reached the completed status.
//
// Example JSON representation:
//
//	{
//	    "run_id": "run-20260825-100000-1a2b3c4d",
//	    "strategy_id": "b2b-saas-q3",
//	    "range": {"start": "2026-09-01T00:00:00Z", "end": "2026-09-30T00:00:00Z"},
//	    "items": [...],
//	    "weekly_themes": [...],
//	    "platform_plans": [...],
//	    "recommendations": ["Front-load educational items in week 1"],
//	    "generated_at": "2026-08-25T10:04:31Z",
//	    "schema_version": "1.0"
//	}
type CalendarArtifact struct {
	// RunID links the artifact to the run that produced it.
	RunID string `json:"run_id" yaml:"run_id"`

	// StrategyID identifies the strategy the calendar was planned against.
	StrategyID string `json:"strategy_id" yaml:"strategy_id"`

	// Range is the calendar span. Its day count equals the requested
	// duration exactly.
	Range DateRange `json:"range" yaml:"range"`

	// Items is the full list of planned content items in date order.
	Items []ContentItem `json:"items" yaml:"items"`

	// WeeklyThemes lists the editorial theme for each calendar week.
	WeeklyThemes []WeeklyTheme `json:"weekly_themes,omitempty" yaml:"weekly_themes,omitempty"`

	// PlatformPlans carries the per-platform publishing strategies.
	PlatformPlans []PlatformPlan `json:"platform_plans,omitempty" yaml:"platform_plans,omitempty"`

	// Recommendations lists execution guidance from the optimization phase.
	Recommendations []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`

	// GeneratedAt is when assembly completed.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// SchemaVersion indicates the version of the artifact JSON schema.
	SchemaVersion string `json:"schema_version" yaml:"schema_version"`
}

// ItemsOn returns the items scheduled for the given day.
func (a *CalendarArtifact) ItemsOn(day time.Time) []ContentItem {
	target := day.Truncate(24 * time.Hour)
	var out []ContentItem
	for _, item := range a.Items {
		if item.Date.Truncate(24 * time.Hour).Equal(target) {
			out = append(out, item)
		}
	}
	return out
}

// CategoryHistogram counts items per content category.
func (a *CalendarArtifact) CategoryHistogram() map[ContentCategory]int {
	hist := make(map[ContentCategory]int, len(ContentCategories))
	for _, item := range a.Items {
		hist[item.Category]++
	}
	return hist
}
