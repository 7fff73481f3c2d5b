package cli

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/cadencelabs/cadence/internal/clock"
	"github.com/cadencelabs/cadence/internal/errors"
)

// DefaultClock is the default clock used for relative time formatting.
// It can be replaced in tests with a mock clock.
//
//nolint:gochecknoglobals // Package-level default for dependency injection
var DefaultClock clock.Clock = clock.RealClock{}

// encodeJSONIndented encodes a value as indented JSON to the writer.
// This is a shared helper for JSON output across commands.
func encodeJSONIndented(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// encodeYAML encodes a value as YAML to the writer.
func encodeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// renderStructured writes v to w in the requested machine-readable format.
// Only json and yaml are supported; text output is handled per command.
func renderStructured(w io.Writer, format string, v any) error {
	switch format {
	case OutputJSON:
		return encodeJSONIndented(w, v)
	case OutputYAML:
		return encodeYAML(w, v)
	default:
		return errors.Wrapf(errors.ErrUnsupportedOutputFormat, "format '%s'", format)
	}
}

// isStructuredFormat reports whether the format is a machine-readable one.
func isStructuredFormat(format string) bool {
	return format == OutputJSON || format == OutputYAML
}

// errorResponse is the machine-readable envelope for command failures.
type errorResponse struct {
	Status string `json:"status" yaml:"status"`
	RunID  string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Error  string `json:"error" yaml:"error"`
	Action string `json:"action,omitempty" yaml:"action,omitempty"`
}

// handleOutputError adapts a command error to the requested output format.
// For machine-readable formats it writes an error envelope and returns
// ErrJSONErrorOutput so the caller can silence cobra's own error printing
// while keeping a non-zero exit code. For text output the error is
// returned unchanged.
func handleOutputError(w io.Writer, format, runID string, err error) error {
	if isStructuredFormat(format) {
		_, action := errors.Actionable(err)
		_ = renderStructured(w, format, errorResponse{
			Status: "error",
			RunID:  runID,
			Error:  err.Error(),
			Action: action,
		})
		return errors.ErrJSONErrorOutput
	}
	return err
}

// isJSONErrorOutput reports whether an error envelope was already written by
// handleOutputError, in which case cobra's own error printing should be
// silenced while keeping the non-zero exit code.
func isJSONErrorOutput(err error) bool {
	return stderrors.Is(err, errors.ErrJSONErrorOutput)
}

// titleCaser converts kebab-case and snake_case identifiers to title case
// for human-readable display.
//
//nolint:gochecknoglobals // Caser is immutable and safe for concurrent use
var titleCaser = cases.Title(language.English)

// titleCase converts an identifier like "strategy-context" or
// "audience_profile" to "Strategy Context" / "Audience Profile".
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return titleCaser.String(s)
}

// relativeTime formats a time as a human-readable relative string.
// Examples: "just now", "2 minutes ago", "1 hour ago", "3 days ago", "2 weeks ago"
func relativeTime(t time.Time) string {
	return relativeTimeWith(t, DefaultClock)
}

// relativeTimeWith formats a time as a human-readable relative string using
// the provided clock. This function allows for testable time-based formatting.
func relativeTimeWith(t time.Time, c clock.Clock) string {
	now := c.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	}
}
