package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	"github.com/cadencelabs/cadence/internal/gen"
)

// Summarize condenses a stage payload into the summary carried into
// downstream generation requests. Only fields the stage schema marks
// load-bearing are retained; string values are truncated and lists capped so
// accumulated context stays bounded no matter how verbose the generation
// output is. Summarize is a pure transform: it never validates the payload,
// that is the schema's and the gates' job.
func Summarize(def domain.StageDefinition, schema gen.Schema, payload gen.Payload) *domain.StageSummary {
	summary := &domain.StageSummary{
		StageID: def.ID,
		Name:    def.Name,
		Version: constants.SummarySchemaVersion,
	}

	for _, key := range schema.LoadBearingKeys() {
		if summary.FieldCount() >= constants.MaxSummaryFields {
			break
		}
		value, present := payload[key]
		if !present {
			continue
		}

		switch v := value.(type) {
		case []any:
			list := summarizeList(v)
			if len(list) == 0 {
				continue
			}
			if summary.Lists == nil {
				summary.Lists = make(map[string][]string)
			}
			summary.Lists[key] = list
		default:
			fact := stringifyValue(v)
			if fact == "" {
				continue
			}
			if summary.Facts == nil {
				summary.Facts = make(map[string]string)
			}
			summary.Facts[key] = fact
		}
	}

	return summary
}

// Render produces the compact context block embedded in generation requests.
// Summaries render in the order given; facts and lists render in sorted key
// order, so identical context always renders identically.
//
// Output format, one section per stage:
//
//	## strategy-context
//	- brand_voice: confident, practical
//	- objectives: obj-pipeline; obj-authority
func Render(summaries []*domain.StageSummary) string {
	var b strings.Builder
	for i, s := range summaries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n", s.Name)
		for _, k := range s.FactKeys() {
			fmt.Fprintf(&b, "- %s: %s\n", k, s.Facts[k])
		}
		for _, k := range s.ListKeys() {
			fmt.Fprintf(&b, "- %s: %s\n", k, strings.Join(s.Lists[k], "; "))
		}
	}
	return b.String()
}

// summarizeList stringifies list elements and caps the list length.
func summarizeList(raw []any) []string {
	limit := len(raw)
	if limit > constants.MaxSummaryListItems {
		limit = constants.MaxSummaryListItems
	}
	out := make([]string, 0, limit)
	for _, element := range raw[:limit] {
		s := stringifyValue(element)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// stringifyValue renders one payload value as a bounded summary string.
// JSON decoding conventions apply: numbers arrive as float64.
func stringifyValue(value any) string {
	switch v := value.(type) {
	case string:
		return truncateValue(strings.TrimSpace(v))
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case map[string]any:
		return truncateValue(identityString(v))
	case nil:
		return ""
	default:
		return truncateValue(fmt.Sprintf("%v", v))
	}
}

// identityKeys are checked in order when reducing an object to a single
// representative string. The first non-empty match wins.
//
//nolint:gochecknoglobals // Read-only lookup order
var identityKeys = []string{"title", "name", "theme", "keyword", "topic", "platform"}

// identityString reduces an object to its most recognizable string field,
// falling back to sorted key=value pairs when no identity field exists.
func identityString(m map[string]any) string {
	for _, k := range identityKeys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(pairs, ", ")
}

// truncateValue truncates a string to the summary value limit, adding an
// ellipsis if needed.
func truncateValue(s string) string {
	runes := []rune(s)
	if len(runes) <= constants.MaxSummaryValueLength {
		return s
	}
	return string(runes[:constants.MaxSummaryValueLength-3]) + "..."
}
