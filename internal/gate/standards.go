package gate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/domain"
)

// StandardsGate enforces the configured professional-content rules on
// every item: title length bounds, a declared format, and no banned
// phrases in the title or topic.
//
// The score is the fraction of compliant items.
type StandardsGate struct {
	cfg config.StandardsConfig
}

// NewStandardsGate builds the gate from its configuration section.
func NewStandardsGate(cfg config.StandardsConfig) *StandardsGate {
	return &StandardsGate{cfg: cfg}
}

// ID returns the gate identifier.
func (g *StandardsGate) ID() domain.GateID {
	return domain.GateStandards
}

// Evaluate scores the standards compliance of in.Items. Stages that carry
// no items pass vacuously.
func (g *StandardsGate) Evaluate(in *Input) (float64, []string) {
	items := in.Items
	if len(items) == 0 {
		return 1, nil
	}

	var violations []string
	compliant := 0
	for i, item := range items {
		problems := g.checkItem(i+1, item)
		if len(problems) == 0 {
			compliant++
			continue
		}
		violations = append(violations, problems...)
	}

	return float64(compliant) / float64(len(items)), violations
}

// checkItem returns every rule the item breaks. Title lengths are counted
// in runes, not bytes.
func (g *StandardsGate) checkItem(position int, item domain.ContentItem) []string {
	var problems []string

	title := strings.TrimSpace(item.Title)
	length := utf8.RuneCountInString(title)
	switch {
	case length == 0:
		problems = append(problems, fmt.Sprintf("item %d has no title", position))
	case g.cfg.MinTitleLength > 0 && length < g.cfg.MinTitleLength:
		problems = append(problems, fmt.Sprintf(
			"item %d title is %d characters, below minimum %d",
			position, length, g.cfg.MinTitleLength))
	case g.cfg.MaxTitleLength > 0 && length > g.cfg.MaxTitleLength:
		problems = append(problems, fmt.Sprintf(
			"item %d title is %d characters, above maximum %d",
			position, length, g.cfg.MaxTitleLength))
	}

	if strings.TrimSpace(item.Format) == "" {
		problems = append(problems, fmt.Sprintf("item %d has no format", position))
	}

	for _, phrase := range g.cfg.BannedPhrases {
		needle := normalizeText(phrase)
		if needle == "" {
			continue
		}
		if strings.Contains(normalizeText(item.Title), needle) ||
			strings.Contains(normalizeText(item.Topic), needle) {
			problems = append(problems, fmt.Sprintf(
				"item %d uses banned phrase %q", position, phrase))
		}
	}

	return problems
}

var _ Gate = (*StandardsGate)(nil)
