package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/domain"
	"github.com/cadencelabs/cadence/internal/gate"
)

// gateRow is one gate in the gates listing.
type gateRow struct {
	ID          string  `json:"id" yaml:"id"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Threshold   float64 `json:"threshold" yaml:"threshold"`
	Description string  `json:"description" yaml:"description"`
}

// gateDescriptions maps gate identifiers to one-line descriptions for display.
// Descriptions live here rather than on the Gate interface because they are
// presentation concerns, not evaluation concerns.
func gateDescriptions() map[domain.GateID]string {
	return map[domain.GateID]string{
		domain.GateUniqueness: "Flags duplicate and near-duplicate items within the calendar",
		domain.GateContentMix: "Checks category distribution against the configured band per category",
		domain.GateStructure:  "Verifies required fields, date bounds, and per-day platform limits",
		domain.GateContinuity: "Confirms later-phase outputs reference upstream stage decisions",
		domain.GateStandards:  "Applies title length and banned-phrase rules to every item",
		domain.GateAlignment:  "Scores generated output against strategy pillars and objectives",
	}
}

// AddGatesCommand adds the gates command to the root command.
func AddGatesCommand(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "gates",
		Short: "List quality gates with their weights and thresholds",
		Long: `List the quality gates the pipeline evaluates between phases, along with
the effective weight and pass threshold for each after configuration is
applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output := cmd.Flag("output").Value.String()
			return runGates(cmd.Context(), os.Stdout, output)
		},
	}

	root.AddCommand(cmd)
}

// runGates executes the gates command.
func runGates(ctx context.Context, w io.Writer, output string) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	registry, err := gate.NewRegistry(&cfg.Gates)
	if err != nil {
		return fmt.Errorf("failed to build gate registry: %w", err)
	}

	descriptions := gateDescriptions()
	rows := make([]gateRow, 0, len(registry.IDs()))
	for _, id := range registry.IDs() {
		rows = append(rows, gateRow{
			ID:          string(id),
			Weight:      registry.Weight(id),
			Threshold:   registry.Threshold(id),
			Description: descriptions[id],
		})
	}

	if isStructuredFormat(output) {
		return renderStructured(w, output, rows)
	}

	return outputGatesTable(w, rows)
}

// outputGatesTable renders the gates listing as a styled table.
func outputGatesTable(w io.Writer, rows []gateRow) error {
	CheckNoColor()

	table := NewTable(w, []TableColumn{
		{Name: "GATE", Width: 12},
		{Name: "WEIGHT", Width: 6, Align: AlignRight},
		{Name: "THRESHOLD", Width: 9, Align: AlignRight},
		{Name: "DESCRIPTION", Width: 68},
	})

	table.WriteHeader()
	for _, row := range rows {
		table.WriteRow(
			row.ID,
			fmt.Sprintf("%.2f", row.Weight),
			fmt.Sprintf("%.2f", row.Threshold),
			row.Description,
		)
	}

	return nil
}
