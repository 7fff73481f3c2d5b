package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
)

// statusReport is the machine-readable view of a single run's progress.
type statusReport struct {
	RunID           string                `json:"run_id" yaml:"run_id"`
	UserID          string                `json:"user_id" yaml:"user_id"`
	StrategyID      string                `json:"strategy_id" yaml:"strategy_id"`
	Status          string                `json:"status" yaml:"status"`
	CurrentStage    int                   `json:"current_stage" yaml:"current_stage"`
	Phase           string                `json:"phase,omitempty" yaml:"phase,omitempty"`
	StagesSucceeded int                   `json:"stages_succeeded" yaml:"stages_succeeded"`
	PercentComplete float64               `json:"percent_complete" yaml:"percent_complete"`
	FailureReason   *domain.FailureReason `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`
	CreatedAt       time.Time             `json:"created_at" yaml:"created_at"`
	StartedAt       *time.Time            `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	FinishedAt      *time.Time            `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Stages          []stageReport         `json:"stages" yaml:"stages"`
}

// stageReport is one executed stage in the status report.
type stageReport struct {
	StageID int      `json:"stage_id" yaml:"stage_id"`
	Name    string   `json:"name" yaml:"name"`
	Status  string   `json:"status" yaml:"status"`
	Score   *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// AddStatusCommand adds the status command to the root command.
func AddStatusCommand(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show the progress of a pipeline run",
		Long: `Show the stage-by-stage progress of a pipeline run, including gate scores
for every executed stage and the failure attribution if the run failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := cmd.Flag("output").Value.String()
			err := runStatus(cmd.Context(), os.Stdout, output, args[0], "")
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

// runStatus executes the status command. An empty home selects the default
// cadence home directory; tests inject a temporary one.
func runStatus(ctx context.Context, w io.Writer, output, runID, home string) error {
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

	if isStructuredFormat(output) {
		return renderStructured(w, output, buildStatusReport(run))
	}

	return outputStatusDetail(w, run)
}

// buildStatusReport condenses a run record into its progress view.
func buildStatusReport(run *domain.PipelineRun) statusReport {
	report := statusReport{
		RunID:           run.ID,
		UserID:          run.UserID,
		StrategyID:      run.StrategyID,
		Status:          run.Status.String(),
		CurrentStage:    run.CurrentStage,
		StagesSucceeded: succeededStageCount(run),
		PercentComplete: percentComplete(run),
		FailureReason:   run.FailureReason,
		CreatedAt:       run.CreatedAt,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
		Stages:          make([]stageReport, 0, len(run.StageResults)),
	}
	if run.CurrentStage > 0 {
		report.Phase = domain.PhaseForStage(domain.StageID(run.CurrentStage)).String()
	}
	for _, result := range run.StageResults {
		row := stageReport{
			StageID: int(result.StageID),
			Name:    result.Name,
			Status:  result.Status.String(),
			Error:   result.Error,
		}
		if result.Quality != nil {
			score := result.Quality.OverallScore
			row.Score = &score
		}
		report.Stages = append(report.Stages, row)
	}
	return report
}

// percentComplete returns the share of stages that succeeded, in percent.
func percentComplete(run *domain.PipelineRun) float64 {
	return float64(succeededStageCount(run)) / float64(constants.StageCount) * 100
}

// outputStatusDetail renders the full human-readable status view.
func outputStatusDetail(w io.Writer, run *domain.PipelineRun) error {
	CheckNoColor()
	styles := NewOutputStyles()

	statusStyle := lipgloss.NewStyle().Foreground(RunStatusColors()[run.Status])
	statusCell := RunStatusIcon(run.Status) + " " + statusStyle.Render(run.Status.String())

	_, _ = fmt.Fprintf(w, "Run:      %s\n", styles.Bold.Render(run.ID))
	_, _ = fmt.Fprintf(w, "Strategy: %s\n", run.StrategyID)
	_, _ = fmt.Fprintf(w, "User:     %s\n", run.UserID)
	_, _ = fmt.Fprintf(w, "Status:   %s\n", statusCell)
	_, _ = fmt.Fprintf(w, "Progress: %d/%d stages (%.0f%%)\n",
		succeededStageCount(run), constants.StageCount, percentComplete(run))
	if run.CurrentStage > 0 {
		phase := domain.PhaseForStage(domain.StageID(run.CurrentStage))
		_, _ = fmt.Fprintf(w, "Phase:    %s\n", titleCase(phase.String()))
	}
	_, _ = fmt.Fprintf(w, "Created:  %s\n", relativeTime(run.CreatedAt))
	if run.StartedAt != nil && run.FinishedAt != nil {
		_, _ = fmt.Fprintf(w, "Duration: %s\n", run.FinishedAt.Sub(*run.StartedAt).Round(time.Millisecond))
	}

	if len(run.StageResults) > 0 {
		_, _ = fmt.Fprintln(w)
		writeStageTable(w, run.StageResults)
	}

	if run.FailureReason != nil {
		_, _ = fmt.Fprintln(w)
		writeFailureReason(w, styles, run.FailureReason)
	}

	if run.Status == constants.RunStatusCompleted {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, styles.Dim.Render(fmt.Sprintf("View the calendar with 'cadence result %s'.", run.ID)))
	}

	return nil
}

// writeStageTable renders the executed stages with their gate scores.
func writeStageTable(w io.Writer, results []domain.StageResult) {
	table := NewTable(w, []TableColumn{
		{Name: "#", Width: 2, Align: AlignRight},
		{Name: "STAGE", Width: 22},
		{Name: "STATUS", Width: 11},
		{Name: "SCORE", Width: 5, Align: AlignRight},
		{Name: "GATES", Width: 48},
	})

	table.WriteHeader()
	for _, result := range results {
		score := ""
		gates := ""
		if result.Quality != nil {
			score = fmt.Sprintf("%.2f", result.Quality.OverallScore)
			gates = formatGateScores(result.Quality)
		}
		table.WriteRow(
			fmt.Sprintf("%d", result.StageID),
			titleCase(result.Name),
			StageStatusIcon(result.Status)+" "+result.Status.String(),
			score,
			gates,
		)
	}
}

// formatGateScores renders per-gate scores as "gate=score" pairs.
func formatGateScores(quality *domain.QualityReport) string {
	parts := make([]string, 0, len(quality.Scores))
	for _, s := range quality.Scores {
		parts = append(parts, fmt.Sprintf("%s=%.2f", s.GateID, s.Score))
	}
	return strings.Join(parts, " ")
}

// writeFailureReason renders the failure attribution block.
func writeFailureReason(w io.Writer, styles *OutputStyles, reason *domain.FailureReason) {
	_, _ = fmt.Fprintln(w, styles.Error.Render("Failure:"))
	_, _ = fmt.Fprintf(w, "  Stage:   %d\n", reason.StageID)
	_, _ = fmt.Fprintf(w, "  Code:    %s\n", reason.Code)
	if reason.GateID != "" {
		_, _ = fmt.Fprintf(w, "  Gate:    %s\n", reason.GateID)
	}
	_, _ = fmt.Fprintf(w, "  Message: %s\n", reason.Message)
}
