// Package gen provides the generation client used by pipeline stages.
//
// This package defines the Client interface for structured content
// generation and provides the CommandClient implementation that invokes a
// configured external command per request. The command receives a JSON
// Request on stdin and must print a JSON response envelope on stdout.
//
// Generation is never retried: content authoring is not idempotent, and a
// failed request must surface as a fatal stage error rather than produce a
// second, different calendar.
//
// IMPORTANT: This package may import internal/constants, internal/errors,
// internal/config, and internal/domain. It MUST NOT import
// internal/pipeline or internal/cli.
package gen

import (
	"context"
)

// Client defines the interface for structured content generation.
// Implementations handle the actual invocation of the generative system
// and return a payload conforming to the request's declared schema.
//
// Context should be used to control timeouts and cancellation.
//
// Errors are mapped to the generation sentinels: ErrGenerationUnavailable
// when the backing system cannot serve the request, ErrGenerationTimeout
// when the request deadline elapses, ErrSchemaMismatch when the response
// does not conform to the declared schema, and ErrEmptyPayload when the
// response carries no content. All of them are fatal to the calling stage.
type Client interface {
	// Generate executes a generation request and returns the structured payload.
	Generate(ctx context.Context, req *Request) (Payload, error)
}

// Payload is the structured key/value output of one generation request.
// Values follow JSON decoding conventions: numbers are float64, lists are
// []any, and nested objects are map[string]any.
type Payload map[string]any

// String returns the string value for key.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// Number returns the numeric value for key. JSON numbers decode as float64.
func (p Payload) Number(key string) (float64, bool) {
	v, ok := p[key].(float64)
	return v, ok
}

// Int returns the numeric value for key truncated to an int.
func (p Payload) Int(key string) (int, bool) {
	v, ok := p[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// Bool returns the boolean value for key.
func (p Payload) Bool(key string) (bool, bool) {
	v, ok := p[key].(bool)
	return v, ok
}

// List returns the list value for key.
func (p Payload) List(key string) ([]any, bool) {
	v, ok := p[key].([]any)
	return v, ok
}

// StringList returns the list value for key with every element coerced to
// a string. Returns false if the key is missing, not a list, or any element
// is not a string.
func (p Payload) StringList(key string) ([]string, bool) {
	raw, ok := p[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, isString := item.(string)
		if !isString {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// MapList returns the list value for key with every element coerced to a
// map. Returns false if the key is missing, not a list, or any element is
// not an object.
func (p Payload) MapList(key string) ([]map[string]any, bool) {
	raw, ok := p[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		m, isMap := item.(map[string]any)
		if !isMap {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

// Map returns the object value for key.
func (p Payload) Map(key string) (map[string]any, bool) {
	v, ok := p[key].(map[string]any)
	return v, ok
}
