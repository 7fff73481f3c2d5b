package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
)

// runListItem is one run in the machine-readable run listing.
type runListItem struct {
	RunID           string    `json:"run_id" yaml:"run_id"`
	StrategyID      string    `json:"strategy_id" yaml:"strategy_id"`
	Status          string    `json:"status" yaml:"status"`
	CurrentStage    int       `json:"current_stage" yaml:"current_stage"`
	StagesSucceeded int       `json:"stages_succeeded" yaml:"stages_succeeded"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// AddListCommand adds the list command to the root command.
func AddListCommand(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pipeline runs",
		Long:  `List all recorded pipeline runs, newest first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output := cmd.Flag("output").Value.String()
			return runList(cmd.Context(), os.Stdout, output, "")
		},
	}

	root.AddCommand(cmd)
}

// runList executes the list command. An empty home selects the default
// cadence home directory; tests inject a temporary one.
func runList(ctx context.Context, w io.Writer, output, home string) error {
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

	runs, err := store.List(ctx)
	if err != nil {
		return handleOutputError(w, output, "", err)
	}

	if isStructuredFormat(output) {
		items := make([]runListItem, 0, len(runs))
		for _, run := range runs {
			items = append(items, runListItem{
				RunID:           run.ID,
				StrategyID:      run.StrategyID,
				Status:          run.Status.String(),
				CurrentStage:    run.CurrentStage,
				StagesSucceeded: succeededStageCount(run),
				CreatedAt:       run.CreatedAt,
			})
		}
		return renderStructured(w, output, items)
	}

	return outputRunTable(w, runs)
}

// succeededStageCount counts the stages of a run that succeeded.
func succeededStageCount(run *domain.PipelineRun) int {
	count := 0
	for _, result := range run.StageResults {
		if result.Status == constants.StageStatusSucceeded {
			count++
		}
	}
	return count
}

// outputRunTable renders the run listing as a styled table.
func outputRunTable(w io.Writer, runs []*domain.PipelineRun) error {
	CheckNoColor()

	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found. Start one with 'cadence run <strategy-id>'.")
		return err
	}

	table := NewTable(w, []TableColumn{
		{Name: "RUN ID", Width: 28},
		{Name: "STATUS", Width: 13},
		{Name: "STAGE", Width: 5, Align: AlignRight},
		{Name: "STRATEGY", Width: 18},
		{Name: "CREATED", Width: 16},
	})

	statusColors := RunStatusColors()
	table.WriteHeader()
	for _, run := range runs {
		plainStatus := FormatStatusWithIcon(run.Status)
		style := lipgloss.NewStyle().Foreground(statusColors[run.Status])
		styledStatus := RunStatusIcon(run.Status) + " " + style.Render(run.Status.String())

		table.WriteStyledRow(
			[]string{
				run.ID,
				plainStatus,
				fmt.Sprintf("%d/%d", run.CurrentStage, constants.StageCount),
				run.StrategyID,
				relativeTime(run.CreatedAt),
			},
			1, styledStatus, plainStatus,
		)
	}

	return nil
}
