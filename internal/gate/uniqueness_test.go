package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/domain"
)

func newUniquenessGate() *UniquenessGate {
	cfg := config.DefaultConfig()
	return NewUniquenessGate(cfg.Gates.Uniqueness)
}

func TestUniquenessGateEvaluate(t *testing.T) {
	g := newUniquenessGate()

	t.Run("distinct items score full", func(t *testing.T) {
		in := &Input{Items: []domain.ContentItem{
			testItem(1, "Five onboarding mistakes that stall trials", domain.CategoryEducational),
			testItem(2, "Why activation beats acquisition every quarter", domain.CategoryThoughtLeadership),
			testItem(3, "Ask us anything about churn prevention", domain.CategoryEngagement),
		}}

		score, violations := g.Evaluate(in)

		assert.Equal(t, 1.0, score)
		assert.Empty(t, violations)
	})

	t.Run("fewer than two items pass vacuously", func(t *testing.T) {
		score, violations := g.Evaluate(&Input{Items: []domain.ContentItem{
			testItem(1, "Solo item", domain.CategoryEducational),
		}})

		assert.Equal(t, 1.0, score)
		assert.Empty(t, violations)
	})

	t.Run("exact duplicate title forces zero", func(t *testing.T) {
		in := &Input{Items: []domain.ContentItem{
			testItem(1, "Five onboarding mistakes that stall trials", domain.CategoryEducational),
			testItem(2, "five onboarding mistakes that stall trials!", domain.CategoryEducational),
		}}

		score, violations := g.Evaluate(in)

		assert.Equal(t, 0.0, score, "normalized duplicate titles are zero tolerance")
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "duplicate title")
		assert.Contains(t, violations[0], "items 1 and 2")
	})

	t.Run("near-duplicate titles reduce the score", func(t *testing.T) {
		// Same significant tokens in a different order: not an exact
		// duplicate, but far too close.
		in := &Input{Items: []domain.ContentItem{
			testItem(1, "Five onboarding mistakes stalling your B2B trials", domain.CategoryEducational),
			testItem(2, "Your five B2B onboarding mistakes stalling trials", domain.CategoryEducational),
			testItem(3, "Ask us anything about churn prevention", domain.CategoryEngagement),
		}}

		score, violations := g.Evaluate(in)

		assert.Less(t, score, 1.0)
		assert.Greater(t, score, 0.0, "near-duplicates penalize but do not zero the score")
		require.NotEmpty(t, violations)
		assert.Contains(t, violations[0], "near-duplicate titles")
	})

	t.Run("keyword cannibalization is flagged", func(t *testing.T) {
		first := testItem(1, "Five onboarding mistakes that stall trials", domain.CategoryEducational)
		first.Keywords = []string{"onboarding", "activation"}
		second := testItem(2, "Why activation beats acquisition every quarter", domain.CategoryThoughtLeadership)
		second.Keywords = []string{"onboarding", "activation"}

		score, violations := g.Evaluate(&Input{Items: []domain.ContentItem{first, second}})

		assert.Less(t, score, 1.0)
		require.NotEmpty(t, violations)
		assert.Contains(t, violations[0], "keyword overlap")
	})

	t.Run("disjoint keywords are not flagged", func(t *testing.T) {
		first := testItem(1, "Five onboarding mistakes that stall trials", domain.CategoryEducational)
		first.Keywords = []string{"onboarding"}
		second := testItem(2, "Why activation beats acquisition every quarter", domain.CategoryThoughtLeadership)
		second.Keywords = []string{"retention"}

		score, violations := g.Evaluate(&Input{Items: []domain.ContentItem{first, second}})

		assert.Equal(t, 1.0, score)
		assert.Empty(t, violations)
	})
}
