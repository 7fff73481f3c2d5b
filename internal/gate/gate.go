// Package gate provides the quality gate registry and the six built-in
// gates that score stage results.
//
// A gate is a pure function from evaluation input to a score in [0,1] plus
// a list of violation details. Gates perform no I/O, read no clocks, and
// keep no state between evaluations: re-evaluating identical input yields
// identical scores. All tunable behavior comes from immutable configuration
// captured at registry construction.
//
// IMPORTANT: This package may import internal/constants, internal/errors,
// internal/config, and internal/domain. It MUST NOT import
// internal/pipeline or internal/cli.
package gate

import (
	"strings"
	"unicode"

	"github.com/cadencelabs/cadence/internal/domain"
)

// Input is the data a gate evaluates: the stage result under review plus
// the accumulated run context it must be consistent with. The engine
// assembles it; gates only read it.
type Input struct {
	// StageID is the stage whose result is under review.
	StageID domain.StageID

	// StageName is the stage's machine-readable name.
	StageName string

	// Payload is the stage result payload.
	Payload map[string]any

	// Items holds the calendar items assembled so far. Empty for stages
	// that run before item generation.
	Items []domain.ContentItem

	// Range is the requested calendar date range.
	Range domain.DateRange

	// Options echoes the validated run options.
	Options domain.RunOptions

	// Strategy is the loaded content strategy. Nil only before stage 1
	// has resolved it.
	Strategy *domain.Strategy

	// Upstream holds the summaries of the stage's required upstream
	// stages, in stage order.
	Upstream []domain.StageSummary
}

// Gate scores one quality dimension of a stage result.
//
// Evaluate must be pure and deterministic. The returned score is clamped
// to [0,1] by the registry; violations are human-readable details in a
// stable order.
type Gate interface {
	// ID returns the gate's registry identifier.
	ID() domain.GateID

	// Evaluate scores the input.
	Evaluate(in *Input) (score float64, violations []string)
}

// clamp01 bounds a score to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// normalizeText lowercases s, replaces every non-alphanumeric rune with a
// space, and collapses runs of whitespace. Comparing normalized text makes
// duplicate detection insensitive to punctuation and casing.
func normalizeText(s string) string {
	lower := strings.ToLower(s)
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, lower)
	return strings.Join(strings.Fields(mapped), " ")
}

// tokenSet returns the set of significant tokens (three or more runes) in
// the normalized form of s.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalizeText(s)) {
		if len([]rune(tok)) >= 3 {
			set[tok] = struct{}{}
		}
	}
	return set
}

// stringSet builds a normalized token-free set from a list of strings,
// used for keyword overlap comparisons.
func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		n := normalizeText(v)
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// jaccard computes the Jaccard similarity of two sets.
// Two empty sets are defined as identical (similarity 1).
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
