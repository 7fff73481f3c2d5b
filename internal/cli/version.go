package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// versionInfo is the machine-readable form of BuildInfo.
type versionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

// AddVersionCommand adds the version command to the root command.
func AddVersionCommand(root *cobra.Command, info BuildInfo) {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output := cmd.Flag("output").Value.String()
			return runVersion(cmd.Context(), cmd.OutOrStdout(), output, info)
		},
	}

	root.AddCommand(cmd)
}

// runVersion executes the version command.
func runVersion(ctx context.Context, w io.Writer, output string, info BuildInfo) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if isStructuredFormat(output) {
		v := versionInfo{Version: info.Version, Commit: info.Commit, Date: info.Date}
		if v.Version == "" {
			v.Version = "dev"
		}
		if v.Commit == "" {
			v.Commit = "none"
		}
		if v.Date == "" {
			v.Date = "unknown"
		}
		return renderStructured(w, output, v)
	}

	_, err := fmt.Fprintf(w, "cadence %s\n", formatVersion(info))
	return err
}
