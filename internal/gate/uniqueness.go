package gate

import (
	"fmt"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/domain"
)

// UniquenessGate detects duplicate and near-duplicate content in the
// assembled items.
//
// An exact duplicate title (compared after normalization) forces the score
// to zero. Near-duplicate pairs, detected by token-set similarity at or
// above the configured ratio, reduce the score by their share of all item
// pairs. Keyword cannibalization, a mean pairwise keyword overlap above
// the configured maximum, reduces the score by the excess.
type UniquenessGate struct {
	cfg config.UniquenessConfig
}

// NewUniquenessGate builds the gate from its configuration section.
func NewUniquenessGate(cfg config.UniquenessConfig) *UniquenessGate {
	return &UniquenessGate{cfg: cfg}
}

// ID returns the gate identifier.
func (g *UniquenessGate) ID() domain.GateID {
	return domain.GateUniqueness
}

// Evaluate scores the uniqueness of in.Items. Stages that carry no items
// pass vacuously.
func (g *UniquenessGate) Evaluate(in *Input) (float64, []string) {
	items := in.Items
	if len(items) < 2 {
		return 1, nil
	}

	var violations []string

	// Exact duplicates: same normalized title anywhere in the calendar.
	firstSeen := make(map[string]int, len(items))
	exactDuplicate := false
	for i, item := range items {
		key := normalizeText(item.Title)
		if key == "" {
			continue
		}
		if first, seen := firstSeen[key]; seen {
			exactDuplicate = true
			violations = append(violations, fmt.Sprintf(
				"duplicate title %q (items %d and %d)", item.Title, first+1, i+1))
			continue
		}
		firstSeen[key] = i
	}

	// Near-duplicates: distinct titles whose significant token sets are
	// almost identical.
	titleTokens := make([]map[string]struct{}, len(items))
	for i := range items {
		titleTokens[i] = tokenSet(items[i].Title)
	}
	nearPairs := 0
	totalPairs := 0
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			totalPairs++
			if normalizeText(items[i].Title) == normalizeText(items[j].Title) {
				continue // already counted as an exact duplicate
			}
			if jaccard(titleTokens[i], titleTokens[j]) >= g.cfg.NearDuplicateRatio {
				nearPairs++
				violations = append(violations, fmt.Sprintf(
					"near-duplicate titles %q and %q", items[i].Title, items[j].Title))
			}
		}
	}

	// Keyword cannibalization: items competing for the same keywords.
	meanOverlap, overlapPairs := g.keywordOverlap(items)

	if exactDuplicate {
		return 0, violations
	}

	score := 1.0
	if totalPairs > 0 {
		score -= float64(nearPairs) / float64(totalPairs)
	}
	if overlapPairs > 0 && meanOverlap > g.cfg.MaxKeywordOverlap {
		violations = append(violations, fmt.Sprintf(
			"mean keyword overlap %.2f exceeds maximum %.2f", meanOverlap, g.cfg.MaxKeywordOverlap))
		score -= meanOverlap - g.cfg.MaxKeywordOverlap
	}
	return clamp01(score), violations
}

// keywordOverlap returns the mean pairwise Jaccard similarity of item
// keyword sets, counting only pairs where both items declare keywords.
func (g *UniquenessGate) keywordOverlap(items []domain.ContentItem) (float64, int) {
	sets := make([]map[string]struct{}, len(items))
	for i := range items {
		sets[i] = stringSet(items[i].Keywords)
	}

	sum := 0.0
	pairs := 0
	for i := 0; i < len(items); i++ {
		if len(sets[i]) == 0 {
			continue
		}
		for j := i + 1; j < len(items); j++ {
			if len(sets[j]) == 0 {
				continue
			}
			sum += jaccard(sets[i], sets[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0, 0
	}
	return sum / float64(pairs), pairs
}

var _ Gate = (*UniquenessGate)(nil)
