package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunVersion_TextOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	info := BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-15"}

	err := runVersion(context.Background(), &buf, OutputText, info)
	require.NoError(t, err)

	assert.Equal(t, "cadence 1.2.3 (commit: abc123, built: 2026-01-15)\n", buf.String())
}

func TestRunVersion_TextOutput_Defaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := runVersion(context.Background(), &buf, OutputText, BuildInfo{})
	require.NoError(t, err)

	assert.Equal(t, "cadence dev (commit: none, built: unknown)\n", buf.String())
}

func TestRunVersion_JSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	info := BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-15"}

	err := runVersion(context.Background(), &buf, OutputJSON, info)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `"version": "1.2.3"`)
	assert.Contains(t, output, `"commit": "abc123"`)
	assert.Contains(t, output, `"date": "2026-01-15"`)
}

func TestRunVersion_JSONOutput_NormalizesEmptyFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := runVersion(context.Background(), &buf, OutputJSON, BuildInfo{})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `"version": "dev"`)
	assert.Contains(t, output, `"commit": "none"`)
	assert.Contains(t, output, `"date": "unknown"`)
}

func TestRunVersion_YAMLOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	info := BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-15"}

	err := runVersion(context.Background(), &buf, OutputYAML, info)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "version: 1.2.3")
	assert.Contains(t, output, "commit: abc123")
}

func TestRunVersion_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := runVersion(ctx, &buf, OutputText, BuildInfo{})

	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestVersionCommand(t *testing.T) {
	// Can't use t.Parallel() with t.Setenv()

	t.Setenv("CADENCE_HOME", t.TempDir())

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "text output",
			args:     []string{"version"},
			expected: "cadence 9.9.9 (commit: f00ba4, built: 2026-02-01)",
		},
		{
			name:     "json output",
			args:     []string{"version", "--output", "json"},
			expected: `"version": "9.9.9"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := BuildInfo{Version: "9.9.9", Commit: "f00ba4", Date: "2026-02-01"}
			cmd := newRootCmd(&GlobalFlags{}, info)

			var out, errOut bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&errOut)
			cmd.SetArgs(tc.args)

			err := cmd.Execute()
			require.NoError(t, err)
			assert.Contains(t, out.String(), tc.expected)
		})
	}
}
