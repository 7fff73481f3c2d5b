package gate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/domain"
)

func newMixGate() *ContentMixGate {
	cfg := config.DefaultConfig()
	return NewContentMixGate(cfg.Gates.Mix)
}

// balancedItems returns ten items whose category shares sit inside every
// default band: 40% educational, 30% thought leadership, 20% engagement,
// 10% promotional.
func balancedItems() []domain.ContentItem {
	categories := []domain.ContentCategory{
		domain.CategoryEducational, domain.CategoryEducational,
		domain.CategoryEducational, domain.CategoryEducational,
		domain.CategoryThoughtLeadership, domain.CategoryThoughtLeadership,
		domain.CategoryThoughtLeadership,
		domain.CategoryEngagement, domain.CategoryEngagement,
		domain.CategoryPromotional,
	}
	items := make([]domain.ContentItem, len(categories))
	for i, c := range categories {
		items[i] = testItem(i+1, "Title for slot "+string(rune('A'+i)), c)
	}
	return items
}

func TestContentMixGateEvaluate(t *testing.T) {
	g := newMixGate()

	t.Run("balanced mix scores full", func(t *testing.T) {
		score, violations := g.Evaluate(&Input{Items: balancedItems()})

		assert.Equal(t, 1.0, score)
		assert.Empty(t, violations)
	})

	t.Run("no items pass vacuously", func(t *testing.T) {
		score, violations := g.Evaluate(&Input{})

		assert.Equal(t, 1.0, score)
		assert.Empty(t, violations)
	})

	t.Run("out-of-band categories are flagged", func(t *testing.T) {
		// All ten items educational: educational at 100% breaks its band
		// and the other three bands sit below their minimums.
		items := make([]domain.ContentItem, 10)
		for i := range items {
			items[i] = testItem(i+1, "Educational title number "+string(rune('A'+i)), domain.CategoryEducational)
		}

		score, violations := g.Evaluate(&Input{Items: items})

		assert.Equal(t, 0.0, score, "no category share sits inside its band")
		require.Len(t, violations, 4)
		assert.Contains(t, violations[0], "educational share 100.0% outside band [30%, 50%]")
	})

	t.Run("ninety percent promotional fails the promotional band", func(t *testing.T) {
		items := make([]domain.ContentItem, 10)
		for i := range 9 {
			items[i] = testItem(i+1, "Buy now pitch number "+string(rune('A'+i)), domain.CategoryPromotional)
		}
		items[9] = testItem(10, "One lonely educational piece", domain.CategoryEducational)

		score, violations := g.Evaluate(&Input{Items: items})

		assert.Equal(t, 0.0, score, "every band is broken when promotional content dominates")
		found := false
		for _, v := range violations {
			if strings.Contains(v, "promotional share 90.0% outside band [5%, 15%]") {
				found = true
			}
		}
		assert.True(t, found, "violations should call out the promotional share: %v", violations)
	})

	t.Run("single band miss scores the in-band fraction", func(t *testing.T) {
		// Swap the promotional item for another educational one: educational
		// rises to 50% (still in band) and promotional drops to 0%.
		items := balancedItems()
		items[9].Category = domain.CategoryEducational

		score, violations := g.Evaluate(&Input{Items: items})

		assert.InDelta(t, 0.75, score, 1e-9, "three of four bands hold")
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "promotional share 0.0%")
	})

	t.Run("unknown category is flagged and reduces the score", func(t *testing.T) {
		items := balancedItems()
		items[0].Category = domain.ContentCategory("memes")

		score, violations := g.Evaluate(&Input{Items: items})

		assert.Less(t, score, 1.0)
		found := false
		for _, v := range violations {
			if strings.Contains(v, "memes") && strings.Contains(v, "no configured band") {
				found = true
			}
		}
		assert.True(t, found, "violations should call out the uncovered category: %v", violations)
	})

	t.Run("no configured bands pass vacuously", func(t *testing.T) {
		empty := NewContentMixGate(config.MixConfig{})

		score, violations := empty.Evaluate(&Input{Items: balancedItems()})

		assert.Equal(t, 1.0, score)
		assert.Empty(t, violations)
	})
}
