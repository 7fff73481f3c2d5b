package gen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/constants"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// CommandExecutor abstracts command execution for testing.
// The production implementation uses exec.Cmd to run subprocesses,
// while tests can provide a mock implementation.
//
// The ctx parameter is included for interface consistency and future flexibility,
// even though the current implementation embeds context via exec.CommandContext().
// Mock implementations may use ctx to simulate cancellation behavior.
type CommandExecutor interface {
	// Execute runs the command and returns stdout, stderr, and any error.
	// The context is passed for mock implementations that need cancellation awareness.
	Execute(ctx context.Context, cmd *exec.Cmd) (stdout, stderr []byte, err error)
}

// DefaultExecutor is the production implementation of CommandExecutor.
// It runs commands using the operating system's process execution.
type DefaultExecutor struct{}

// Execute runs the command and captures its output.
func (e *DefaultExecutor) Execute(_ context.Context, cmd *exec.Cmd) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// CommandClient implements Client by spawning a configured external command
// once per generation request. The JSON-encoded Request goes to the
// command's stdin; the command must print a JSON response envelope on
// stdout (see commandResponse).
//
// The client enforces the configured timeout, validates the response
// against the request's declared schema, and maps failures onto the
// generation sentinels. It never retries.
type CommandClient struct {
	cfg      *config.GenerationConfig
	executor CommandExecutor
	logger   zerolog.Logger
}

// CommandClientOption is a functional option for configuring CommandClient.
type CommandClientOption func(*CommandClient)

// WithCommandLogger sets the logger for the CommandClient.
func WithCommandLogger(logger zerolog.Logger) CommandClientOption {
	return func(c *CommandClient) {
		c.logger = logger
	}
}

// NewCommandClient creates a new CommandClient with the given configuration.
// If executor is nil, a DefaultExecutor is used for production subprocess execution.
func NewCommandClient(cfg *config.GenerationConfig, executor CommandExecutor, opts ...CommandClientOption) *CommandClient {
	if executor == nil {
		executor = &DefaultExecutor{}
	}
	c := &CommandClient{
		cfg:      cfg,
		executor: executor,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate executes a single generation request.
// One request means one subprocess invocation: a failure here is final and
// the caller must surface it, never paper over it with substitute content.
func (c *CommandClient) Generate(ctx context.Context, req *Request) (Payload, error) {
	if c.cfg == nil || c.cfg.Command == "" {
		return nil, cadenceerrors.ErrCommandNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	timeout := c.resolveTimeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := c.buildCommand(runCtx)
	cmd.Stdin = bytes.NewReader(body)

	// Log sizes and identifiers only. Request context can carry strategy
	// and audience details that must not land in logs.
	c.logger.Debug().
		Str("run_id", req.RunID).
		Int("stage_id", int(req.StageID)).
		Str("task", req.Task).
		Int("request_bytes", len(body)).
		Msg("invoking generation command")

	start := time.Now()
	stdout, stderr, err := c.executor.Execute(runCtx, cmd)
	if err != nil {
		return nil, c.wrapExecutionError(runCtx, timeout, err, stdout, stderr)
	}

	payload, err := parseResponse(stdout)
	if err != nil {
		return nil, err
	}

	if err := req.Schema.Validate(payload); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("run_id", req.RunID).
		Int("stage_id", int(req.StageID)).
		Str("task", req.Task).
		Dur("duration", time.Since(start)).
		Int("response_bytes", len(stdout)).
		Msg("generation command succeeded")

	return payload, nil
}

// resolveTimeout determines the timeout for one request.
func (c *CommandClient) resolveTimeout() time.Duration {
	if c.cfg.Timeout > 0 {
		return c.cfg.Timeout
	}
	return constants.DefaultGenerationTimeout
}

// buildCommand constructs the generation command with configured arguments.
func (c *CommandClient) buildCommand(ctx context.Context) *exec.Cmd {
	args := make([]string, 0, len(c.cfg.Args))
	args = append(args, c.cfg.Args...)

	cmd := exec.CommandContext(ctx, c.cfg.Command, args...)
	if c.cfg.WorkingDir != "" {
		cmd.Dir = c.cfg.WorkingDir
	}
	return cmd
}

// wrapExecutionError maps a failed execution onto the generation sentinels.
// Deadline expiry wins over the generic exit error the killed process
// reports; plain cancellation propagates unwrapped so the engine can
// distinguish an aborted run from a failed one.
func (c *CommandClient) wrapExecutionError(ctx context.Context, timeout time.Duration, err error, stdout, stderr []byte) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: command exceeded %s", cadenceerrors.ErrGenerationTimeout, timeout)
		}
		return ctxErr
	}

	// The command may have printed a structured error envelope before
	// exiting non-zero.
	if msg, ok := tryParseErrorEnvelope(stdout); ok {
		return fmt.Errorf("%w: command reported: %s", cadenceerrors.ErrGenerationUnavailable, msg)
	}

	if strings.Contains(err.Error(), "executable file not found") {
		return fmt.Errorf("%w: %s not found on PATH", cadenceerrors.ErrGenerationUnavailable, c.cfg.Command)
	}

	stderrStr := strings.TrimSpace(string(stderr))
	if stderrStr != "" {
		return fmt.Errorf("%w: %s: %s", cadenceerrors.ErrGenerationUnavailable, err.Error(), stderrStr)
	}
	return fmt.Errorf("%w: %s", cadenceerrors.ErrGenerationUnavailable, err.Error())
}

// Compile-time check that CommandClient implements Client.
var _ Client = (*CommandClient)(nil)
