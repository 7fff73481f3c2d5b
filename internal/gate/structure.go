package gate

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/cadencelabs/cadence/internal/domain"
)

// StructureGate validates the calendar's shape against the requested date
// range: the declared range matches the request exactly, every item falls
// inside it, no uncovered days, no overcrowded days.
//
// A declared range that differs from the requested one and an item outside
// the requested range are zero-tolerance defects and force the score to
// zero. Gap days and overcrowded days each reduce the score by their share
// of the range. A day is overcrowded when it holds more than twice the
// mean daily volume (and always at least two items).
type StructureGate struct{}

// NewStructureGate builds the gate. It has no tunables.
func NewStructureGate() *StructureGate {
	return &StructureGate{}
}

// ID returns the gate identifier.
func (g *StructureGate) ID() domain.GateID {
	return domain.GateStructure
}

// Evaluate scores the calendar structure of in.Items against in.Range.
// Stages that publish no range and carry no items pass vacuously.
func (g *StructureGate) Evaluate(in *Input) (float64, []string) {
	if declared, ok := declaredRange(in.Payload); ok {
		if !declared.Start.Equal(in.Range.Start) || !declared.End.Equal(in.Range.End) {
			return 0, []string{fmt.Sprintf(
				"declared range %s to %s (%d days) does not match requested range %s to %s (%d days)",
				declared.Start.Format("2006-01-02"), declared.End.Format("2006-01-02"), declared.Days(),
				in.Range.Start.Format("2006-01-02"), in.Range.End.Format("2006-01-02"), in.Range.Days())}
		}
	}

	items := in.Items
	if len(items) == 0 {
		return 1, nil
	}

	days := in.Range.Days()
	if days <= 0 {
		return 0, []string{"requested date range spans no days"}
	}

	var violations []string
	perDay := make(map[string]int, days)
	outOfRange := 0
	for i, item := range items {
		if !in.Range.Contains(item.Date) {
			outOfRange++
			violations = append(violations, fmt.Sprintf(
				"item %d (%s) scheduled on %s outside requested range",
				i+1, item.Title, item.Date.Format("2006-01-02")))
			continue
		}
		perDay[dayKey(item.Date)]++
	}

	limit := overcrowdLimit(len(items), days)
	gapDays := 0
	crowdedDays := 0
	for day := in.Range.Start; !day.After(in.Range.End); day = day.AddDate(0, 0, 1) {
		count := perDay[dayKey(day)]
		switch {
		case count == 0:
			gapDays++
			violations = append(violations, fmt.Sprintf(
				"no items scheduled on %s", day.Format("2006-01-02")))
		case count > limit:
			crowdedDays++
			violations = append(violations, fmt.Sprintf(
				"%d items scheduled on %s exceeds daily limit of %d",
				count, day.Format("2006-01-02"), limit))
		}
	}

	if outOfRange > 0 {
		return 0, violations
	}

	score := 1 - float64(gapDays+crowdedDays)/float64(days)
	return clamp01(score), violations
}

// declaredRange extracts the date range a stage published under the
// payload's "range" key. Stages before assembly publish none.
func declaredRange(payload map[string]any) (domain.DateRange, bool) {
	raw, ok := payload["range"]
	if !ok {
		return domain.DateRange{}, false
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return domain.DateRange{}, false
	}
	var rng domain.DateRange
	if err := json.Unmarshal(encoded, &rng); err != nil {
		return domain.DateRange{}, false
	}
	return rng, true
}

// overcrowdLimit derives the per-day item ceiling from the overall volume:
// twice the mean daily count, never below two.
func overcrowdLimit(itemCount, days int) int {
	mean := int(math.Ceil(float64(itemCount) / float64(days)))
	limit := 2 * mean
	if limit < 2 {
		limit = 2
	}
	return limit
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

var _ Gate = (*StructureGate)(nil)
