package cli

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	"github.com/cadencelabs/cadence/internal/pipeline"
)

// testRunID builds a run ID in the canonical store format. The sequence
// number keeps IDs generated within one test distinct.
func testRunID(n int) string {
	return fmt.Sprintf("run-20260820-%06d-%08x", 100000+n, 0x1a2b3c40+n)
}

// newRunStore creates a file store rooted at a fresh temp directory and
// returns the store together with the home path it is rooted at.
func newRunStore(t *testing.T) (*pipeline.FileStore, string) {
	t.Helper()

	home := t.TempDir()
	store, err := pipeline.NewFileStore(home)
	require.NoError(t, err)
	return store, home
}

// newTestRun builds a minimal run record suitable for persisting.
func newTestRun(id, strategyID string, status constants.RunStatus) *domain.PipelineRun {
	now := time.Now().UTC()
	return &domain.PipelineRun{
		ID:         id,
		UserID:     "user-1",
		StrategyID: strategyID,
		Status:     status,
		Options: domain.RunOptions{
			Days:            14,
			Platforms:       []string{"linkedin", "twitter"},
			TargetItemCount: 14,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// seedRun persists a run record, failing the test on error.
func seedRun(t *testing.T, store *pipeline.FileStore, run *domain.PipelineRun) {
	t.Helper()

	require.NoError(t, store.Create(context.Background(), run))
}
