package gate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cadencelabs/cadence/internal/domain"
)

// ContinuityGate checks that a stage's payload actually builds on the
// decisions of its upstream stages instead of ignoring them.
//
// For each upstream summary the gate looks for at least one load-bearing
// fact referenced in the payload, using normalized substring and token
// overlap heuristics. The score is the fraction of upstream stages the
// payload references.
type ContinuityGate struct{}

// NewContinuityGate builds the gate. It has no tunables.
func NewContinuityGate() *ContinuityGate {
	return &ContinuityGate{}
}

// ID returns the gate identifier.
func (g *ContinuityGate) ID() domain.GateID {
	return domain.GateContinuity
}

// Evaluate scores how many upstream summaries in.Payload references.
// Stages with no upstream pass vacuously.
func (g *ContinuityGate) Evaluate(in *Input) (float64, []string) {
	if len(in.Upstream) == 0 {
		return 1, nil
	}

	haystack := flattenPayload(in.Payload)
	if haystack == "" {
		return 0, []string{"stage payload carries no comparable text"}
	}

	var violations []string
	referenced := 0
	for i := range in.Upstream {
		summary := &in.Upstream[i]
		if summaryReferenced(summary, haystack) {
			referenced++
			continue
		}
		violations = append(violations, fmt.Sprintf(
			"payload references no decision from upstream stage %d (%s)",
			summary.StageID, summary.Name))
	}

	return float64(referenced) / float64(len(in.Upstream)), violations
}

// summaryReferenced reports whether any load-bearing fact of the summary
// appears in the haystack. A fact counts as referenced when its normalized
// value occurs as a substring, or when all of its significant tokens occur
// individually.
func summaryReferenced(summary *domain.StageSummary, haystack string) bool {
	for _, key := range summary.FactKeys() {
		if valueReferenced(summary.Facts[key], haystack) {
			return true
		}
	}
	for _, key := range summary.ListKeys() {
		for _, value := range summary.Lists[key] {
			if valueReferenced(value, haystack) {
				return true
			}
		}
	}
	return false
}

func valueReferenced(value, haystack string) bool {
	normalized := normalizeText(value)
	if len(normalized) < 3 {
		return false
	}
	if strings.Contains(haystack, normalized) {
		return true
	}

	tokens := tokenSet(normalized)
	if len(tokens) < 2 {
		return false
	}
	for token := range tokens {
		if !strings.Contains(haystack, token) {
			return false
		}
	}
	return true
}

// flattenPayload renders every string value reachable in the payload into
// one normalized haystack. Map keys are schema field names, not content,
// and are excluded. Keys are still walked in sorted order so the result is
// deterministic.
func flattenPayload(payload map[string]any) string {
	var parts []string
	collectStrings(payload, &parts)
	return normalizeText(strings.Join(parts, " "))
}

func collectStrings(value any, parts *[]string) {
	switch v := value.(type) {
	case string:
		*parts = append(*parts, v)
	case []any:
		for _, elem := range v {
			collectStrings(elem, parts)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectStrings(v[k], parts)
		}
	case fmt.Stringer:
		*parts = append(*parts, v.String())
	}
}

var _ Gate = (*ContinuityGate)(nil)
