// Package main provides the entry point for the cadence CLI.
package main

import (
	"context"
	"os"

	"github.com/cadencelabs/cadence/internal/cli"
)

// Version information (set via ldflags during build)
//
//nolint:gochecknoglobals // populated by the linker
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx := context.Background()
	err := cli.Execute(ctx, cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	cli.CloseLogFile()
	if err != nil {
		os.Exit(cli.ExitCodeForError(err))
	}
}
