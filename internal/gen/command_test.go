package gen

// This test suite uses MockExecutor to simulate generation subprocess
// execution. Tests never spawn a real command; all responses are
// pre-configured mock data.

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// Test error types for execution testing.
var (
	errTestExitStatus1  = errors.New("exit status 1")
	errTestExecNotFound = errors.New("exec: \"cadence-gen\": executable file not found in $PATH")
)

// MockExecutor is a test implementation of CommandExecutor that simulates
// subprocess execution with pre-configured responses.
type MockExecutor struct {
	StdoutData []byte
	StderrData []byte
	Err        error
	// CapturedCmd stores the last executed command for verification.
	CapturedCmd *exec.Cmd
}

func (m *MockExecutor) Execute(_ context.Context, cmd *exec.Cmd) ([]byte, []byte, error) {
	m.CapturedCmd = cmd
	return m.StdoutData, m.StderrData, m.Err
}

// blockingExecutor waits for the context to expire, simulating a command
// that outlives its deadline.
type blockingExecutor struct{}

func (b *blockingExecutor) Execute(ctx context.Context, _ *exec.Cmd) ([]byte, []byte, error) {
	<-ctx.Done()
	return nil, nil, errors.New("signal: killed")
}

func testGenerationConfig() *config.GenerationConfig {
	return &config.GenerationConfig{
		Command: "cadence-gen",
		Args:    []string{"--format", "json"},
		Timeout: 30 * time.Second,
	}
}

func testRequest() *Request {
	return &Request{
		RunID:     "run-20260825-143022-a1b2c3d4",
		StageID:   domain.StageWeeklyThemes,
		StageName: "weekly-themes",
		Task:      "weekly_themes",
		Context:   "## strategy-context\n- brand_voice: pragmatic",
		Inputs:    map[string]any{"weeks": 4},
		Schema: Schema{
			{Key: "themes", Kind: KindList, Required: true, LoadBearing: true},
		},
	}
}

func TestNewCommandClient(t *testing.T) {
	t.Run("creates client with provided executor", func(t *testing.T) {
		cfg := testGenerationConfig()
		mockExec := &MockExecutor{}

		client := NewCommandClient(cfg, mockExec)

		require.NotNil(t, client)
		assert.Equal(t, cfg, client.cfg)
		assert.Equal(t, mockExec, client.executor)
	})

	t.Run("creates client with default executor when nil provided", func(t *testing.T) {
		client := NewCommandClient(testGenerationConfig(), nil)

		require.NotNil(t, client)
		assert.IsType(t, &DefaultExecutor{}, client.executor)
	})
}

func TestCommandClient_Generate_Success(t *testing.T) {
	mockExec := &MockExecutor{
		StdoutData: []byte(`{"status":"ok","payload":{"themes":["launch week","deep dives"]}}`),
	}
	client := NewCommandClient(testGenerationConfig(), mockExec)

	payload, err := client.Generate(context.Background(), testRequest())

	require.NoError(t, err)
	themes, ok := payload.StringList("themes")
	require.True(t, ok)
	assert.Equal(t, []string{"launch week", "deep dives"}, themes)
}

func TestCommandClient_Generate_WritesRequestToStdin(t *testing.T) {
	mockExec := &MockExecutor{
		StdoutData: []byte(`{"status":"ok","payload":{"themes":["launch week"]}}`),
	}
	client := NewCommandClient(testGenerationConfig(), mockExec)

	_, err := client.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	require.NotNil(t, mockExec.CapturedCmd)
	require.NotNil(t, mockExec.CapturedCmd.Stdin)

	body, err := io.ReadAll(mockExec.CapturedCmd.Stdin)
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, "run-20260825-143022-a1b2c3d4", sent["run_id"])
	assert.Equal(t, "weekly_themes", sent["task"])
	assert.InDelta(t, 7, sent["stage_id"], 0.0001)
	assert.Contains(t, sent, "schema", "declared schema must travel with the request")

	// Configured args are passed through
	assert.Equal(t, []string{"cadence-gen", "--format", "json"}, mockExec.CapturedCmd.Args)
}

func TestCommandClient_Generate_NotConfigured(t *testing.T) {
	client := NewCommandClient(&config.GenerationConfig{}, &MockExecutor{})

	payload, err := client.Generate(context.Background(), testRequest())

	require.ErrorIs(t, err, cadenceerrors.ErrCommandNotConfigured)
	assert.Nil(t, payload)
}

func TestCommandClient_Generate_ExecutionErrors(t *testing.T) {
	tests := []struct {
		name         string
		executor     *MockExecutor
		wantErr      error
		wantContains string
	}{
		{
			name: "non-zero exit with stderr",
			executor: &MockExecutor{
				Err:        errTestExitStatus1,
				StderrData: []byte("model backend unreachable\n"),
			},
			wantErr:      cadenceerrors.ErrGenerationUnavailable,
			wantContains: "model backend unreachable",
		},
		{
			name: "executable not found",
			executor: &MockExecutor{
				Err: errTestExecNotFound,
			},
			wantErr:      cadenceerrors.ErrGenerationUnavailable,
			wantContains: "not found on PATH",
		},
		{
			name: "non-zero exit with structured error envelope",
			executor: &MockExecutor{
				Err:        errTestExitStatus1,
				StdoutData: []byte(`{"status":"error","error":"rate limited"}`),
			},
			wantErr:      cadenceerrors.ErrGenerationUnavailable,
			wantContains: "rate limited",
		},
		{
			name: "non-zero exit without stderr",
			executor: &MockExecutor{
				Err: errTestExitStatus1,
			},
			wantErr:      cadenceerrors.ErrGenerationUnavailable,
			wantContains: "exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewCommandClient(testGenerationConfig(), tt.executor)

			payload, err := client.Generate(context.Background(), testRequest())

			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantContains)
			assert.Nil(t, payload)
		})
	}
}

func TestCommandClient_Generate_ResponseErrors(t *testing.T) {
	tests := []struct {
		name         string
		stdout       string
		wantErr      error
		wantContains string
	}{
		{
			name:         "empty stdout",
			stdout:       "",
			wantErr:      cadenceerrors.ErrEmptyPayload,
			wantContains: "no output",
		},
		{
			name:         "undecodable stdout",
			stdout:       "not json at all",
			wantErr:      cadenceerrors.ErrSchemaMismatch,
			wantContains: "failed to parse response envelope",
		},
		{
			name:         "error status with zero exit",
			stdout:       `{"status":"error","error":"refused: empty strategy"}`,
			wantErr:      cadenceerrors.ErrGenerationUnavailable,
			wantContains: "refused: empty strategy",
		},
		{
			name:         "unknown status",
			stdout:       `{"status":"partial","payload":{"themes":["a"]}}`,
			wantErr:      cadenceerrors.ErrSchemaMismatch,
			wantContains: `unknown response status "partial"`,
		},
		{
			name:         "ok status with empty payload",
			stdout:       `{"status":"ok","payload":{}}`,
			wantErr:      cadenceerrors.ErrEmptyPayload,
			wantContains: "no payload",
		},
		{
			name:         "payload violates declared schema",
			stdout:       `{"status":"ok","payload":{"themes":"launch week"}}`,
			wantErr:      cadenceerrors.ErrSchemaMismatch,
			wantContains: `field "themes" is not a list`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockExec := &MockExecutor{StdoutData: []byte(tt.stdout)}
			client := NewCommandClient(testGenerationConfig(), mockExec)

			payload, err := client.Generate(context.Background(), testRequest())

			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantContains)
			assert.Nil(t, payload)
		})
	}
}

func TestCommandClient_Generate_Timeout(t *testing.T) {
	cfg := testGenerationConfig()
	cfg.Timeout = 10 * time.Millisecond
	client := NewCommandClient(cfg, &blockingExecutor{})

	payload, err := client.Generate(context.Background(), testRequest())

	require.ErrorIs(t, err, cadenceerrors.ErrGenerationTimeout)
	assert.Nil(t, payload)
}

func TestCommandClient_Generate_Cancellation(t *testing.T) {
	client := NewCommandClient(testGenerationConfig(), &blockingExecutor{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	payload, err := client.Generate(ctx, testRequest())

	// Plain cancellation must propagate unwrapped so the engine marks the
	// run cancelled rather than failed.
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, cadenceerrors.ErrGenerationTimeout)
	assert.Nil(t, payload)
}

func TestCommandClient_Generate_NeverRetries(t *testing.T) {
	calls := 0
	countingExec := executorFunc(func(_ context.Context, _ *exec.Cmd) ([]byte, []byte, error) {
		calls++
		return nil, []byte("transient blip"), errTestExitStatus1
	})
	client := NewCommandClient(testGenerationConfig(), countingExec)

	_, err := client.Generate(context.Background(), testRequest())

	require.ErrorIs(t, err, cadenceerrors.ErrGenerationUnavailable)
	assert.Equal(t, 1, calls, "generation must be invoked exactly once per request")
}

// executorFunc adapts a function to the CommandExecutor interface.
type executorFunc func(ctx context.Context, cmd *exec.Cmd) ([]byte, []byte, error)

func (f executorFunc) Execute(ctx context.Context, cmd *exec.Cmd) ([]byte, []byte, error) {
	return f(ctx, cmd)
}
