package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cadencelabs/cadence/internal/domain"
)

// rangeStart anchors every fixture calendar. The exact date is arbitrary.
var rangeStart = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

// testRange returns an inclusive range of the given day count starting at
// rangeStart.
func testRange(days int) domain.DateRange {
	return domain.DateRange{
		Start: rangeStart,
		End:   rangeStart.AddDate(0, 0, days-1),
	}
}

// testItem builds a compliant content item scheduled on the given one-based
// day of the fixture range.
func testItem(day int, title string, category domain.ContentCategory) domain.ContentItem {
	return domain.ContentItem{
		Date:         rangeStart.AddDate(0, 0, day-1),
		Platform:     "linkedin",
		Title:        title,
		Topic:        "activation",
		Category:     category,
		Format:       "post",
		ObjectiveIDs: []string{"obj-pipeline"},
	}
}

// testStrategy returns a strategy with one objective and one pillar.
func testStrategy() *domain.Strategy {
	return &domain.Strategy{
		ID:         "b2b-saas-q3",
		Name:       "B2B SaaS Q3 push",
		BrandVoice: "confident, practical",
		Objectives: []domain.Objective{
			{ID: "obj-pipeline", Name: "Grow qualified pipeline", KPIs: []string{"demo_requests"}},
		},
		Pillars: []domain.Pillar{
			{Name: "product education", Weight: 1.0},
		},
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases", input: "Onboarding Checklist", expected: "onboarding checklist"},
		{name: "strips punctuation", input: "5 mistakes: (and fixes!)", expected: "5 mistakes and fixes"},
		{name: "collapses whitespace", input: "  a \t b\n c ", expected: "a b c"},
		{name: "empty input", input: "", expected: ""},
		{name: "only punctuation", input: "?!.,", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeText(tt.input))
		})
	}
}

func TestTokenSet(t *testing.T) {
	set := tokenSet("How to fix B2B onboarding")

	assert.Contains(t, set, "how", "significant tokens should be kept")
	assert.Contains(t, set, "fix", "three-rune tokens should be kept")
	assert.Contains(t, set, "b2b")
	assert.Contains(t, set, "onboarding")
	assert.NotContains(t, set, "to", "short tokens should be dropped")
}

func TestJaccard(t *testing.T) {
	a := map[string]struct{}{"one": {}, "two": {}, "three": {}}
	b := map[string]struct{}{"two": {}, "three": {}, "four": {}}

	assert.InDelta(t, 0.5, jaccard(a, b), 1e-9, "two of four distinct tokens overlap")
	assert.Equal(t, 1.0, jaccard(a, a), "identical sets should be fully similar")
	assert.Equal(t, 1.0, jaccard(nil, nil), "two empty sets are defined as identical")
	assert.Equal(t, 0.0, jaccard(a, nil), "empty versus non-empty should not match")
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.2))
	assert.Equal(t, 1.0, clamp01(1.7))
	assert.Equal(t, 0.42, clamp01(0.42))
}
