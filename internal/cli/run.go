package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	"github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/pipeline"
	"github.com/cadencelabs/cadence/internal/signal"
)

// runFlags holds the flag values for the run command.
type runFlags struct {
	user      string
	days      int
	start     string
	platforms []string
	items     int
	dataDir   string
}

// AddRunCommand adds the run command to the root command.
func AddRunCommand(root *cobra.Command) {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <strategy-id>",
		Short: "Generate a content calendar for a strategy",
		Long: `Generate a content calendar by executing the twelve-stage pipeline
against the given strategy. Progress streams to the terminal as stages
pass their quality gates; the command exits when the run reaches a
terminal state.

Press Ctrl+C to cancel. The run stops at the next stage boundary and
its record is preserved.`,
		Example: `  # Plan two weeks across two platforms
  cadence run summer-launch --user user-100 --platforms instagram,linkedin

  # A 30-day calendar with 20 items starting on a fixed date
  cadence run summer-launch -u user-100 -p instagram -d 30 -n 20 --start 2026-09-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := cmd.Flag("output").Value.String()
			quiet := cmd.Flag("quiet").Value.String() == "true"
			err := runRun(cmd.Context(), cmd.OutOrStdout(), output, args[0], flags, quiet)
			if isJSONErrorOutput(err) {
				cmd.SilenceErrors = true
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&flags.user, "user", "u", "",
		"User the calendar is planned for (required)")
	cmd.Flags().IntVarP(&flags.days, "days", "d", constants.DefaultCalendarDays,
		fmt.Sprintf("Calendar length in days (%d-%d)", constants.MinCalendarDays, constants.MaxCalendarDays))
	cmd.Flags().StringVar(&flags.start, "start", "",
		"First calendar day as YYYY-MM-DD (default: the day after the run starts)")
	cmd.Flags().StringSliceVarP(&flags.platforms, "platforms", "p", nil,
		"Platforms the calendar targets, comma separated (required)")
	cmd.Flags().IntVarP(&flags.items, "items", "n", 0,
		"Total content items to plan (default: one per day)")
	cmd.Flags().StringVar(&flags.dataDir, "data-dir", "",
		"Directory holding strategy and audience data (overrides config)")

	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("platforms")

	root.AddCommand(cmd)
}

// buildRunOptions resolves flag-level defaults into run options. Full option
// validation happens in StartRun.
func buildRunOptions(flags runFlags) (domain.RunOptions, error) {
	opts := domain.RunOptions{
		Days:            flags.days,
		Platforms:       flags.platforms,
		TargetItemCount: flags.items,
	}
	if opts.TargetItemCount == 0 {
		opts.TargetItemCount = flags.days
	}
	if flags.start != "" {
		start, err := time.Parse(time.DateOnly, flags.start)
		if err != nil {
			return domain.RunOptions{}, errors.Wrapf(errors.ErrInvalidArgument,
				"invalid --start value '%s': expected YYYY-MM-DD", flags.start)
		}
		opts.StartDate = start.UTC()
	}
	return opts, nil
}

// loadRunConfig loads configuration with the --data-dir flag applied on top.
func loadRunConfig(ctx context.Context, dataDir string) (*config.Config, error) {
	if dataDir == "" {
		return config.Load(ctx)
	}
	return config.LoadWithOverrides(ctx, &config.Config{
		Providers: config.ProvidersConfig{DataDir: dataDir},
	})
}

// runRun executes the run command: it starts a pipeline run and follows the
// progress stream until the run reaches a terminal state.
func runRun(ctx context.Context, w io.Writer, output, strategyID string, flags runFlags, quiet bool) error {
	// Check context cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Ctrl+C cancels the engine context; the running pipeline stops at the
	// next stage boundary and is recorded as cancelled.
	sigHandler := signal.NewHandler(ctx)
	defer sigHandler.Stop()
	ctx = sigHandler.Context()

	logger := GetLogger()

	// Respect NO_COLOR environment variable
	CheckNoColor()
	styles := NewOutputStyles()

	opts, err := buildRunOptions(flags)
	if err != nil {
		return handleOutputError(w, output, "", err)
	}

	cfg, err := loadRunConfig(ctx, flags.dataDir)
	if err != nil {
		return handleOutputError(w, output, "", err)
	}

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return handleOutputError(w, output, "", err)
	}
	defer engine.Close()

	engine.Start(ctx)

	// Subscribe before submitting so no event is missed.
	events, unsubscribe := engine.Subscribe()
	defer unsubscribe()

	runID, err := engine.StartRun(ctx, flags.user, strategyID, opts)
	if err != nil {
		return handleOutputError(w, output, "", err)
	}

	showProgress := output == OutputText && !quiet
	if showProgress {
		_, _ = fmt.Fprintln(w, styles.Bold.Render(fmt.Sprintf("Run %s", runID)))
		_, _ = fmt.Fprintln(w, styles.Dim.Render(fmt.Sprintf("  strategy %s, %d days, %d items, platforms: %s",
			strategyID, opts.Days, opts.TargetItemCount, strings.Join(opts.Platforms, ", "))))
		_, _ = fmt.Fprintln(w)
	}

	followRun(w, styles, events, sigHandler.Interrupted(), runID, showProgress)

	// The run's own cancellation must not block reading its terminal state.
	run, err := engine.GetRun(context.WithoutCancel(ctx), runID)
	if err != nil {
		return handleOutputError(w, output, runID, err)
	}

	if isStructuredFormat(output) {
		if err := renderStructured(w, output, run); err != nil {
			return err
		}
		if run.Status != constants.RunStatusCompleted {
			// The record above is the error output; exit non-zero without
			// printing it twice.
			return errors.ErrJSONErrorOutput
		}
		return nil
	}
	return summarizeRun(w, styles, run)
}

// followRun consumes progress events until the run reaches a terminal state.
// A closed event stream also ends the watch: the persisted run record is the
// source of truth either way.
func followRun(w io.Writer, styles *OutputStyles, events <-chan pipeline.Event,
	interrupted <-chan struct{}, runID string, render bool) {
	for {
		select {
		case <-interrupted:
			if render {
				_, _ = fmt.Fprintln(w, styles.Warning.Render(
					"Interrupt received, stopping at the next stage boundary..."))
			}
			interrupted = nil
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.RunID != runID {
				continue
			}
			if render {
				renderEvent(w, styles, event)
			}
			if isTerminalEvent(event.Type) {
				return
			}
		}
	}
}

// renderEvent writes one progress line for a lifecycle event.
func renderEvent(w io.Writer, styles *OutputStyles, event pipeline.Event) {
	switch event.Type {
	case pipeline.EventRunStarted:
		_, _ = fmt.Fprintln(w, styles.Info.Render(event.Message))
	case pipeline.EventStageStarted:
		_, _ = fmt.Fprintln(w, styles.Dim.Render("○ "+event.Message))
	case pipeline.EventStageSucceeded:
		_, _ = fmt.Fprintf(w, "%s %s %s\n", styles.Success.Render("✓"), event.Message,
			styles.Dim.Render(fmt.Sprintf("[%.0f%%]", event.PercentComplete)))
	case pipeline.EventStageFailed:
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.Error.Render("✗"), event.Message)
	case pipeline.EventRunCompleted:
		_, _ = fmt.Fprintln(w, styles.Success.Render(event.Message))
	case pipeline.EventRunFailed:
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.Error.Render("✗"), event.Message)
	case pipeline.EventRunCancelled:
		_, _ = fmt.Fprintln(w, styles.Warning.Render(event.Message))
	}
}

// isTerminalEvent reports whether the event type ends a run.
func isTerminalEvent(typ pipeline.EventType) bool {
	switch typ {
	case pipeline.EventRunCompleted, pipeline.EventRunFailed, pipeline.EventRunCancelled:
		return true
	default:
		return false
	}
}

// summarizeRun prints the final state of the run and maps non-completed
// terminal states to errors so the process exits non-zero.
func summarizeRun(w io.Writer, styles *OutputStyles, run *domain.PipelineRun) error {
	_, _ = fmt.Fprintln(w)

	switch run.Status {
	case constants.RunStatusCompleted:
		_, _ = fmt.Fprintln(w, styles.Success.Render(fmt.Sprintf("✓ Run %s completed", run.ID)))
		if run.StartedAt != nil && run.FinishedAt != nil {
			_, _ = fmt.Fprintf(w, "  Duration: %s\n",
				run.FinishedAt.Sub(*run.StartedAt).Round(time.Millisecond))
		}
		_, _ = fmt.Fprintln(w, styles.Dim.Render(
			fmt.Sprintf("View the calendar with 'cadence result %s'.", run.ID)))
		return nil

	case constants.RunStatusCancelled:
		_, _ = fmt.Fprintln(w, styles.Warning.Render(fmt.Sprintf("◌ Run %s cancelled", run.ID)))
		_, _ = fmt.Fprintln(w, styles.Dim.Render("The run record is preserved. Start a new run when ready."))
		return errors.Wrapf(errors.ErrRunCancelled, "run '%s'", run.ID)

	default:
		_, _ = fmt.Fprintln(w, styles.Error.Render(fmt.Sprintf("✗ Run %s failed", run.ID)))
		if run.FailureReason != nil {
			writeFailureReason(w, styles, run.FailureReason)
			if _, action := errors.Actionable(failureSentinel(run.FailureReason.Code)); action != "" {
				_, _ = fmt.Fprintln(w, styles.Dim.Render(action))
			}
		}
		return errors.Wrapf(errors.ErrRunFailed, "run '%s'", run.ID)
	}
}

// failureSentinel maps a persisted failure code back to its sentinel error so
// terminal output can reuse the shared action hints.
func failureSentinel(code domain.FailureCode) error {
	switch code {
	case domain.FailureCodeInputValidation:
		return errors.ErrInputValidation
	case domain.FailureCodeExternalService:
		return errors.ErrExternalService
	case domain.FailureCodeQualityGate:
		return errors.ErrQualityGate
	default:
		return errors.ErrRunFailed
	}
}
