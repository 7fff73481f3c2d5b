// Package domain provides shared domain types for the Cadence generation pipeline.
package domain

import "sort"

// StageSummary is the condensed, typed record of one stage's decisions that
// downstream stages consume. Summaries carry only load-bearing fields, never
// the raw stage payload, so accumulated context stays bounded regardless of
// how verbose the generation output is.
//
// The structure is versioned: consumers check Version before interpreting
// fields, which keeps stage contracts evolvable without breaking persisted
// runs.
//
// Example JSON representation:
//
//	{
//	    "stage_id": 5,
//	    "name": "pillar-allocation",
//	    "version": "1.0",
//	    "facts": {"dominant_pillar": "product education"},
//	    "lists": {"pillar_split": ["product education:12", "customer proof:8"]}
//	}
type StageSummary struct {
	// StageID identifies the stage that produced this summary.
	StageID StageID `json:"stage_id"`

	// Name is the producing stage's machine-readable name.
	Name string `json:"name"`

	// Version is the summary schema version (constants.SummarySchemaVersion).
	Version string `json:"version"`

	// Facts holds scalar load-bearing fields, keyed by schema field name.
	Facts map[string]string `json:"facts,omitempty"`

	// Lists holds list-valued load-bearing fields, capped in length.
	Lists map[string][]string `json:"lists,omitempty"`
}

// FactKeys returns the fact keys in sorted order for deterministic rendering.
func (s *StageSummary) FactKeys() []string {
	keys := make([]string, 0, len(s.Facts))
	for k := range s.Facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ListKeys returns the list keys in sorted order for deterministic rendering.
func (s *StageSummary) ListKeys() []string {
	keys := make([]string, 0, len(s.Lists))
	for k := range s.Lists {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FieldCount returns the total number of retained fields.
func (s *StageSummary) FieldCount() int {
	return len(s.Facts) + len(s.Lists)
}

// Clone creates a deep copy of the summary. Summaries handed to stages are
// copies so a stage can never mutate accumulated context.
func (s *StageSummary) Clone() *StageSummary {
	clone := &StageSummary{
		StageID: s.StageID,
		Name:    s.Name,
		Version: s.Version,
	}
	if s.Facts != nil {
		clone.Facts = make(map[string]string, len(s.Facts))
		for k, v := range s.Facts {
			clone.Facts[k] = v
		}
	}
	if s.Lists != nil {
		clone.Lists = make(map[string][]string, len(s.Lists))
		for k, v := range s.Lists {
			list := make([]string, len(v))
			copy(list, v)
			clone.Lists[k] = list
		}
	}
	return clone
}
