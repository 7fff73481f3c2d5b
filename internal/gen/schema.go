package gen

import (
	"fmt"
	"strings"

	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// FieldKind identifies the JSON shape a schema field must decode to.
type FieldKind string

// Field kinds supported by payload schemas.
const (
	KindString FieldKind = "string"
	KindNumber FieldKind = "number"
	KindBool   FieldKind = "bool"
	KindList   FieldKind = "list"
	KindMap    FieldKind = "map"
)

// FieldSpec declares one field of a stage's output payload.
type FieldSpec struct {
	// Key is the payload key.
	Key string `json:"key"`

	// Kind is the required JSON shape of the value.
	Kind FieldKind `json:"kind"`

	// Required marks fields that must be present and non-empty.
	Required bool `json:"required"`

	// LoadBearing marks fields the context accumulator carries forward
	// into downstream generation requests. Non-load-bearing fields stay in
	// the stage result but are dropped from accumulated context.
	LoadBearing bool `json:"load_bearing"`
}

// Schema is the ordered output contract of one stage. Order matters for
// summary rendering, so schemas are slices rather than maps.
type Schema []FieldSpec

// Field returns the spec for key, if declared.
func (s Schema) Field(key string) (FieldSpec, bool) {
	for _, f := range s {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// LoadBearingKeys returns the keys marked load-bearing, in schema order.
func (s Schema) LoadBearingKeys() []string {
	keys := make([]string, 0, len(s))
	for _, f := range s {
		if f.LoadBearing {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Validate checks a payload against the schema. All problems are collected
// into a single error so a malformed response can be diagnosed in one pass.
// Returns an error wrapped with ErrSchemaMismatch on any violation.
func (s Schema) Validate(payload Payload) error {
	if len(payload) == 0 {
		return cadenceerrors.ErrEmptyPayload
	}

	var problems []string
	for _, f := range s {
		value, present := payload[f.Key]
		if !present {
			if f.Required {
				problems = append(problems, fmt.Sprintf("missing required field %q", f.Key))
			}
			continue
		}
		if !matchesKind(value, f.Kind) {
			problems = append(problems, fmt.Sprintf("field %q is not a %s", f.Key, f.Kind))
			continue
		}
		if f.Required && isEmptyValue(value, f.Kind) {
			problems = append(problems, fmt.Sprintf("required field %q is empty", f.Key))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", cadenceerrors.ErrSchemaMismatch, strings.Join(problems, "; "))
	}
	return nil
}

// matchesKind reports whether a decoded JSON value has the declared shape.
func matchesKind(value any, kind FieldKind) bool {
	switch kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindNumber:
		_, ok := value.(float64)
		return ok
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindList:
		_, ok := value.([]any)
		return ok
	case KindMap:
		_, ok := value.(map[string]any)
		return ok
	default:
		return false
	}
}

// isEmptyValue reports whether a present value carries no content.
func isEmptyValue(value any, kind FieldKind) bool {
	switch kind {
	case KindString:
		s, _ := value.(string)
		return strings.TrimSpace(s) == ""
	case KindList:
		l, _ := value.([]any)
		return len(l) == 0
	case KindMap:
		m, _ := value.(map[string]any)
		return len(m) == 0
	default:
		// Numbers and bools have no empty form.
		return false
	}
}
