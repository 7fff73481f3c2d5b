package gate

import (
	"fmt"
	"strings"

	"github.com/cadencelabs/cadence/internal/domain"
)

// AlignmentGate verifies that every item maps to at least one declared
// strategic objective.
//
// The score is the fraction of aligned items. A run whose strategy
// declares no objectives cannot demonstrate alignment at all and scores
// zero.
type AlignmentGate struct{}

// NewAlignmentGate builds the gate. It has no tunables.
func NewAlignmentGate() *AlignmentGate {
	return &AlignmentGate{}
}

// ID returns the gate identifier.
func (g *AlignmentGate) ID() domain.GateID {
	return domain.GateAlignment
}

// Evaluate scores the objective alignment of in.Items against
// in.Strategy. Stages that carry no items pass vacuously.
func (g *AlignmentGate) Evaluate(in *Input) (float64, []string) {
	items := in.Items
	if len(items) == 0 {
		return 1, nil
	}

	if in.Strategy == nil || len(in.Strategy.Objectives) == 0 {
		return 0, []string{"strategy declares no objectives to align against"}
	}

	valid := make(map[string]struct{}, len(in.Strategy.Objectives))
	for _, objective := range in.Strategy.Objectives {
		valid[objective.ID] = struct{}{}
	}

	var violations []string
	aligned := 0
	for i, item := range items {
		switch {
		case len(item.ObjectiveIDs) == 0:
			violations = append(violations, fmt.Sprintf(
				"item %d (%s) maps to no strategic objective", i+1, item.Title))
		case !anyKnown(item.ObjectiveIDs, valid):
			violations = append(violations, fmt.Sprintf(
				"item %d (%s) references unknown objectives [%s]",
				i+1, item.Title, strings.Join(item.ObjectiveIDs, ", ")))
		default:
			aligned++
		}
	}

	return float64(aligned) / float64(len(items)), violations
}

func anyKnown(ids []string, valid map[string]struct{}) bool {
	for _, id := range ids {
		if _, ok := valid[id]; ok {
			return true
		}
	}
	return false
}

var _ Gate = (*AlignmentGate)(nil)
