package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/cadencelabs/cadence/internal/constants"
)

//nolint:gochecknoglobals // Intentional package-level constants for CLI styling
var (
	// ColorPrimary is blue, used for active states and primary information.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for success states and completed runs.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for warning states and cancelled runs.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for error states and failed runs.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for dim/inactive states and secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}
)

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Bold    lipgloss.Style
}

// NewOutputStyles creates common output styles using AdaptiveColor for light/dark terminal support.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
		Bold: lipgloss.NewStyle().
			Bold(true),
	}
}

// CheckNoColor respects the NO_COLOR environment variable.
// Call this at the start of commands that output styled text.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns true if the terminal supports colors.
// Returns false if NO_COLOR is set (any value including empty string) or TERM=dumb.
// This follows the NO_COLOR standard: https://no-color.org/
func HasColorSupport() bool {
	// NO_COLOR spec: If NO_COLOR exists in the environment (with any value, including empty),
	// color should be disabled.
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}

	// Also disable colors for dumb terminals
	if os.Getenv("TERM") == "dumb" {
		return false
	}

	return true
}

// RunStatusColors returns the semantic color definitions for run statuses.
// Uses AdaptiveColor for light/dark terminal support.
func RunStatusColors() map[constants.RunStatus]lipgloss.AdaptiveColor {
	return map[constants.RunStatus]lipgloss.AdaptiveColor{
		// Active states - Blue
		constants.RunStatusPending: ColorPrimary,
		constants.RunStatusRunning: ColorPrimary,

		// Success state - Green
		constants.RunStatusCompleted: ColorSuccess,

		// Failure state - Red
		constants.RunStatusFailed: ColorError,

		// Cancelled - Gray/Dim
		constants.RunStatusCancelled: ColorMuted,
	}
}

// RunStatusIcon returns the icon/symbol for a given run status.
// Triple redundancy is maintained for status displays: icon + color + text.
func RunStatusIcon(status constants.RunStatus) string {
	icons := map[constants.RunStatus]string{
		constants.RunStatusPending:   "○", // Empty circle - queued
		constants.RunStatusRunning:   "●", // Filled circle - active
		constants.RunStatusCompleted: "✓", // Checkmark - success
		constants.RunStatusFailed:    "✗", // X mark - failed
		constants.RunStatusCancelled: "◌", // Dashed circle - cancelled
	}
	if icon, ok := icons[status]; ok {
		return icon
	}
	return "?"
}

// StageStatusIcon returns the icon/symbol for a given stage result status.
func StageStatusIcon(status constants.StageStatus) string {
	switch status {
	case constants.StageStatusSucceeded:
		return "✓"
	case constants.StageStatusFailed:
		return "✗"
	default:
		return "?"
	}
}

// FormatStatusWithIcon formats a run status with its icon and text for
// triple redundancy. Color is applied via Lip Gloss styles when rendering;
// this function provides icon + text.
func FormatStatusWithIcon(status constants.RunStatus) string {
	return RunStatusIcon(status) + " " + status.String()
}
