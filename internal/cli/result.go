package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	"github.com/cadencelabs/cadence/internal/errors"
)

// AddResultCommand adds the result command to the root command.
func AddResultCommand(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "result <run-id>",
		Short: "Show the calendar produced by a completed run",
		Long: `Show the assembled content calendar of a completed pipeline run: the
planned items in date order plus the weekly themes, platform plans, and
recommendations that shaped them.

Only completed runs have a result. Use 'cadence status <run-id>' to inspect
runs that are still executing or that failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := cmd.Flag("output").Value.String()
			err := runResult(cmd.Context(), os.Stdout, output, args[0], "")
			// If JSON error was already output, silence cobra's error printing
			// but still return error for non-zero exit code
			if isJSONErrorOutput(err) {
				cmd.SilenceErrors = true
			}
			return err
		},
	}

	root.AddCommand(cmd)
}

// runResult executes the result command. An empty home selects the default
// cadence home directory; tests inject a temporary one.
func runResult(ctx context.Context, w io.Writer, output, runID, home string) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	store, err := openRunStore(home)
	if err != nil {
		return err
	}

	run, err := store.Get(ctx, runID)
	if err != nil {
		return handleOutputError(w, output, runID, err)
	}
	if run.Status != constants.RunStatusCompleted {
		err = errors.Wrapf(errors.ErrRunNotCompleted, "run '%s' is %s", runID, run.Status)
		return handleOutputError(w, output, runID, err)
	}

	artifact, err := store.GetArtifact(ctx, runID)
	if err != nil {
		return handleOutputError(w, output, runID, err)
	}

	if isStructuredFormat(output) {
		return renderStructured(w, output, artifact)
	}

	return outputCalendar(w, artifact)
}

// outputCalendar renders the assembled calendar for human reading.
func outputCalendar(w io.Writer, artifact *domain.CalendarArtifact) error {
	CheckNoColor()
	styles := NewOutputStyles()

	_, _ = fmt.Fprintln(w, styles.Bold.Render(fmt.Sprintf("Calendar for %s", artifact.StrategyID)))
	_, _ = fmt.Fprintf(w, "Run:       %s\n", artifact.RunID)
	_, _ = fmt.Fprintf(w, "Range:     %s to %s (%d days)\n",
		artifact.Range.Start.Format(time.DateOnly),
		artifact.Range.End.Format(time.DateOnly),
		artifact.Range.Days())
	_, _ = fmt.Fprintf(w, "Items:     %d\n", len(artifact.Items))
	_, _ = fmt.Fprintf(w, "Generated: %s\n", relativeTime(artifact.GeneratedAt))
	_, _ = fmt.Fprintln(w)

	writeItemTable(w, artifact.Items)

	if len(artifact.WeeklyThemes) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, styles.Info.Render("Weekly themes:"))
		for _, theme := range artifact.WeeklyThemes {
			line := fmt.Sprintf("  Week %d: %s", theme.Week, theme.Theme)
			if theme.Focus != "" {
				line += " (" + theme.Focus + ")"
			}
			_, _ = fmt.Fprintln(w, line)
		}
	}

	if len(artifact.PlatformPlans) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, styles.Info.Render("Platform plans:"))
		for _, plan := range artifact.PlatformPlans {
			line := fmt.Sprintf("  %s: %d items/week", plan.Platform, plan.ItemsPerWeek)
			if len(plan.Formats) > 0 {
				line += " (" + strings.Join(plan.Formats, ", ") + ")"
			}
			_, _ = fmt.Fprintln(w, line)
		}
	}

	if len(artifact.Recommendations) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, styles.Info.Render("Recommendations:"))
		for _, rec := range artifact.Recommendations {
			_, _ = fmt.Fprintf(w, "  • %s\n", rec)
		}
	}

	return nil
}

// writeItemTable renders the planned items in date order.
func writeItemTable(w io.Writer, items []domain.ContentItem) {
	table := NewTable(w, []TableColumn{
		{Name: "DATE", Width: 10},
		{Name: "DAY", Width: 3},
		{Name: "PLATFORM", Width: 10},
		{Name: "CATEGORY", Width: 18},
		{Name: "FORMAT", Width: 9},
		{Name: "TITLE", Width: 44},
	})

	table.WriteHeader()
	for _, item := range items {
		table.WriteRow(
			item.Date.Format(time.DateOnly),
			item.Date.Format("Mon"),
			item.Platform,
			item.Category.String(),
			item.Format,
			item.Title,
		)
	}
}
