package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/gate"
)

func TestGateDescriptions_CoversAllGates(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	registry, err := gate.NewRegistry(&cfg.Gates)
	require.NoError(t, err)

	descriptions := gateDescriptions()
	for _, id := range registry.IDs() {
		assert.NotEmpty(t, descriptions[id], "gate %s should have a description", id)
	}
}

func TestRunGates_TextOutput(t *testing.T) {
	// Can't use t.Parallel() with t.Setenv()

	// Point config loading at an empty home so defaults apply
	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	err := runGates(context.Background(), &buf, OutputText)
	require.NoError(t, err)

	output := buf.String()

	// Header row
	assert.Contains(t, output, "GATE")
	assert.Contains(t, output, "WEIGHT")
	assert.Contains(t, output, "THRESHOLD")
	assert.Contains(t, output, "DESCRIPTION")

	// All six gates listed
	assert.Contains(t, output, "uniqueness")
	assert.Contains(t, output, "content_mix")
	assert.Contains(t, output, "structure")
	assert.Contains(t, output, "continuity")
	assert.Contains(t, output, "standards")
	assert.Contains(t, output, "alignment")

	// Default weight and threshold formatting
	assert.Contains(t, output, "0.25") // uniqueness weight
	assert.Contains(t, output, "1.00") // structure threshold
}

func TestRunGates_JSONOutput(t *testing.T) {
	// Can't use t.Parallel() with t.Setenv()

	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	err := runGates(context.Background(), &buf, OutputJSON)
	require.NoError(t, err)

	var rows []gateRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 6)

	// Rows are sorted by gate identifier
	assert.Equal(t, "alignment", rows[0].ID)
	assert.Equal(t, "content_mix", rows[1].ID)
	assert.Equal(t, "continuity", rows[2].ID)
	assert.Equal(t, "standards", rows[3].ID)
	assert.Equal(t, "structure", rows[4].ID)
	assert.Equal(t, "uniqueness", rows[5].ID)

	// Spot-check default weights and thresholds
	assert.InDelta(t, 0.10, rows[0].Weight, 1e-9)    // alignment
	assert.InDelta(t, 0.80, rows[0].Threshold, 1e-9) // alignment
	assert.InDelta(t, 0.25, rows[5].Weight, 1e-9)    // uniqueness
	assert.InDelta(t, 0.80, rows[5].Threshold, 1e-9) // uniqueness
	assert.InDelta(t, 1.00, rows[4].Threshold, 1e-9) // structure

	for _, row := range rows {
		assert.NotEmpty(t, row.Description, "gate %s should have a description", row.ID)
	}
}

func TestRunGates_YAMLOutput(t *testing.T) {
	// Can't use t.Parallel() with t.Setenv()

	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	err := runGates(context.Background(), &buf, OutputYAML)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "id: uniqueness")
	assert.Contains(t, output, "id: alignment")
}

func TestRunGates_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := runGates(ctx, &buf, OutputText)

	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestGatesCommand(t *testing.T) {
	// Can't use t.Parallel() with t.Setenv()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("CADENCE_HOME", t.TempDir())

	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"gates"})

	err := cmd.Execute()
	require.NoError(t, err)
}
