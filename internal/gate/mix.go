package gate

import (
	"fmt"
	"sort"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/domain"
)

// ContentMixGate checks that the calendar's category distribution stays
// inside the configured percentage bands.
//
// The score is the fraction of checked categories whose share falls inside
// its band, reduced further by the share of items carrying a category no
// band covers.
type ContentMixGate struct {
	cfg config.MixConfig
}

// NewContentMixGate builds the gate from its configuration section.
func NewContentMixGate(cfg config.MixConfig) *ContentMixGate {
	return &ContentMixGate{cfg: cfg}
}

// ID returns the gate identifier.
func (g *ContentMixGate) ID() domain.GateID {
	return domain.GateContentMix
}

// Evaluate scores the category mix of in.Items. Stages that carry no items
// pass vacuously, and so does a configuration with no bands.
func (g *ContentMixGate) Evaluate(in *Input) (float64, []string) {
	items := in.Items
	if len(items) == 0 || len(g.cfg.Bands) == 0 {
		return 1, nil
	}

	total := len(items)
	counts := make(map[string]int, len(domain.ContentCategories))
	for _, item := range items {
		counts[string(item.Category)]++
	}

	var violations []string
	checked := 0
	inBand := 0
	for _, category := range g.bandOrder() {
		band := g.cfg.Bands[category]
		checked++
		share := float64(counts[category]) / float64(total) * 100
		if share < band.Min || share > band.Max {
			violations = append(violations, fmt.Sprintf(
				"%s share %.1f%% outside band [%.0f%%, %.0f%%]",
				category, share, band.Min, band.Max))
			continue
		}
		inBand++
	}

	// Items whose category has no band cannot be balanced at all.
	uncovered := 0
	for _, category := range sortedKeys(counts) {
		if _, ok := g.cfg.Bands[category]; ok {
			continue
		}
		uncovered += counts[category]
		violations = append(violations, fmt.Sprintf(
			"%d item(s) carry category %q which has no configured band", counts[category], category))
	}

	score := float64(inBand) / float64(checked)
	score -= float64(uncovered) / float64(total)
	return clamp01(score), violations
}

// bandOrder returns the configured band categories with the canonical
// categories first, then any extras sorted, so violation output is stable.
func (g *ContentMixGate) bandOrder() []string {
	order := make([]string, 0, len(g.cfg.Bands))
	seen := make(map[string]struct{}, len(g.cfg.Bands))
	for _, category := range domain.ContentCategories {
		if _, ok := g.cfg.Bands[string(category)]; ok {
			order = append(order, string(category))
			seen[string(category)] = struct{}{}
		}
	}
	extras := make([]string, 0)
	for category := range g.cfg.Bands {
		if _, ok := seen[category]; !ok {
			extras = append(extras, category)
		}
	}
	sort.Strings(extras)
	return append(order, extras...)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ Gate = (*ContentMixGate)(nil)
