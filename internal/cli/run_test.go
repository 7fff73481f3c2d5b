package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	"github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/pipeline"
)

func TestBuildRunOptions_Defaults(t *testing.T) {
	t.Parallel()

	opts, err := buildRunOptions(runFlags{days: 14, platforms: []string{"linkedin"}})
	require.NoError(t, err)

	assert.Equal(t, 14, opts.Days)
	assert.Equal(t, []string{"linkedin"}, opts.Platforms)
	assert.Equal(t, 14, opts.TargetItemCount, "item count defaults to one per day")
	assert.True(t, opts.StartDate.IsZero(), "start date is resolved by the engine when unset")
}

func TestBuildRunOptions_ExplicitItems(t *testing.T) {
	t.Parallel()

	opts, err := buildRunOptions(runFlags{days: 30, items: 20, platforms: []string{"linkedin", "twitter"}})
	require.NoError(t, err)

	assert.Equal(t, 20, opts.TargetItemCount)
}

func TestBuildRunOptions_StartDate(t *testing.T) {
	t.Parallel()

	opts, err := buildRunOptions(runFlags{days: 14, start: "2026-09-01", platforms: []string{"linkedin"}})
	require.NoError(t, err)

	assert.True(t, opts.StartDate.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
}

func TestBuildRunOptions_InvalidStartDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start string
	}{
		{name: "wrong separator", start: "09/01/2026"},
		{name: "missing day", start: "2026-09"},
		{name: "not a date", start: "tomorrow"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := buildRunOptions(runFlags{days: 14, start: tc.start})
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidArgument)
			assert.Contains(t, err.Error(), "expected YYYY-MM-DD")
		})
	}
}

func TestFollowRun_RendersUntilTerminal(t *testing.T) {
	t.Parallel()

	runID := testRunID(1)
	events := make(chan pipeline.Event, 3)
	events <- pipeline.Event{RunID: runID, Type: pipeline.EventRunStarted, Message: "run started"}
	events <- pipeline.Event{RunID: runID, Type: pipeline.EventStageSucceeded,
		Message: "strategy-context passed (score 0.94)", PercentComplete: 8.3}
	events <- pipeline.Event{RunID: runID, Type: pipeline.EventRunCompleted, Message: "all stages passed"}

	var buf bytes.Buffer
	followRun(&buf, NewOutputStyles(), events, nil, runID, true)

	output := buf.String()
	assert.Contains(t, output, "run started")
	assert.Contains(t, output, "strategy-context passed (score 0.94)")
	assert.Contains(t, output, "[8%]")
	assert.Contains(t, output, "all stages passed")
}

func TestFollowRun_SkipsOtherRuns(t *testing.T) {
	t.Parallel()

	runID := testRunID(1)
	events := make(chan pipeline.Event, 3)
	events <- pipeline.Event{RunID: testRunID(2), Type: pipeline.EventStageSucceeded, Message: "foreign stage"}
	events <- pipeline.Event{RunID: testRunID(2), Type: pipeline.EventRunCompleted, Message: "foreign terminal"}
	events <- pipeline.Event{RunID: runID, Type: pipeline.EventRunCompleted, Message: "own terminal"}

	var buf bytes.Buffer
	followRun(&buf, NewOutputStyles(), events, nil, runID, true)

	output := buf.String()
	assert.NotContains(t, output, "foreign stage")
	assert.NotContains(t, output, "foreign terminal", "another run's terminal event must not end the watch")
	assert.Contains(t, output, "own terminal")
}

func TestFollowRun_ReturnsOnClosedStream(t *testing.T) {
	t.Parallel()

	events := make(chan pipeline.Event)
	close(events)

	var buf bytes.Buffer
	followRun(&buf, NewOutputStyles(), events, nil, testRunID(1), true)

	assert.Empty(t, buf.String())
}

func TestFollowRun_InterruptNoticePrintedOnce(t *testing.T) {
	t.Parallel()

	runID := testRunID(1)
	events := make(chan pipeline.Event)
	interrupted := make(chan struct{})

	// The unbuffered send returns only after followRun consumed the
	// interrupt, so the later events are ordered after the notice.
	go func() {
		interrupted <- struct{}{}
		events <- pipeline.Event{RunID: runID, Type: pipeline.EventStageSucceeded,
			Message: "stage after interrupt", PercentComplete: 50}
		close(events)
	}()

	var buf bytes.Buffer
	followRun(&buf, NewOutputStyles(), events, interrupted, runID, true)

	output := buf.String()
	assert.Equal(t, 1, strings.Count(output, "Interrupt received"))
	assert.Contains(t, output, "stage after interrupt", "the watch keeps following until the run actually stops")
}

func TestFollowRun_QuietSkipsRendering(t *testing.T) {
	t.Parallel()

	runID := testRunID(1)
	events := make(chan pipeline.Event, 2)
	events <- pipeline.Event{RunID: runID, Type: pipeline.EventStageSucceeded, Message: "stage passed"}
	events <- pipeline.Event{RunID: runID, Type: pipeline.EventRunCompleted, Message: "all stages passed"}

	var buf bytes.Buffer
	followRun(&buf, NewOutputStyles(), events, nil, runID, false)

	assert.Empty(t, buf.String())
}

func TestRenderEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		event    pipeline.Event
		expected []string
	}{
		{
			name:     "run started",
			event:    pipeline.Event{Type: pipeline.EventRunStarted, Message: "starting run"},
			expected: []string{"starting run"},
		},
		{
			name:     "stage started",
			event:    pipeline.Event{Type: pipeline.EventStageStarted, Message: "strategy-context"},
			expected: []string{"○ strategy-context"},
		},
		{
			name: "stage succeeded",
			event: pipeline.Event{Type: pipeline.EventStageSucceeded,
				Message: "strategy-context passed", PercentComplete: 8.3},
			expected: []string{"✓", "strategy-context passed", "[8%]"},
		},
		{
			name:     "stage failed",
			event:    pipeline.Event{Type: pipeline.EventStageFailed, Message: "pillar-allocation failed"},
			expected: []string{"✗", "pillar-allocation failed"},
		},
		{
			name:     "run completed",
			event:    pipeline.Event{Type: pipeline.EventRunCompleted, Message: "all stages passed"},
			expected: []string{"all stages passed"},
		},
		{
			name:     "run failed",
			event:    pipeline.Event{Type: pipeline.EventRunFailed, Message: "run aborted"},
			expected: []string{"✗", "run aborted"},
		},
		{
			name:     "run cancelled",
			event:    pipeline.Event{Type: pipeline.EventRunCancelled, Message: "run cancelled"},
			expected: []string{"run cancelled"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			renderEvent(&buf, NewOutputStyles(), tc.event)

			for _, fragment := range tc.expected {
				assert.Contains(t, buf.String(), fragment)
			}
		})
	}
}

func TestRenderEvent_UnknownTypeIsSilent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderEvent(&buf, NewOutputStyles(), pipeline.Event{Type: pipeline.EventType("bogus"), Message: "noise"})

	assert.Empty(t, buf.String())
}

func TestIsTerminalEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		eventType pipeline.EventType
		expected  bool
	}{
		{eventType: pipeline.EventRunStarted, expected: false},
		{eventType: pipeline.EventStageStarted, expected: false},
		{eventType: pipeline.EventStageSucceeded, expected: false},
		{eventType: pipeline.EventStageFailed, expected: false},
		{eventType: pipeline.EventRunCompleted, expected: true},
		{eventType: pipeline.EventRunFailed, expected: true},
		{eventType: pipeline.EventRunCancelled, expected: true},
	}

	for _, tc := range tests {
		t.Run(string(tc.eventType), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, isTerminalEvent(tc.eventType))
		})
	}
}

func TestSummarizeRun_Completed(t *testing.T) {
	t.Parallel()

	run := newTestRun(testRunID(1), "b2b-saas-q3", constants.RunStatusCompleted)
	started := time.Now().UTC().Add(-time.Minute)
	finished := started.Add(42 * time.Second)
	run.StartedAt = &started
	run.FinishedAt = &finished

	var buf bytes.Buffer
	err := summarizeRun(&buf, NewOutputStyles(), run)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Run "+run.ID+" completed")
	assert.Contains(t, output, "Duration: 42s")
	assert.Contains(t, output, "View the calendar with 'cadence result "+run.ID+"'.")
}

func TestSummarizeRun_Cancelled(t *testing.T) {
	t.Parallel()

	run := newTestRun(testRunID(1), "b2b-saas-q3", constants.RunStatusCancelled)

	var buf bytes.Buffer
	err := summarizeRun(&buf, NewOutputStyles(), run)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRunCancelled)
	assert.Contains(t, buf.String(), "◌ Run "+run.ID+" cancelled")
	assert.Contains(t, buf.String(), "The run record is preserved.")
}

func TestSummarizeRun_Failed(t *testing.T) {
	t.Parallel()

	run := newTestRun(testRunID(1), "b2b-saas-q3", constants.RunStatusFailed)
	run.FailureReason = &domain.FailureReason{
		StageID: 5,
		GateID:  domain.GateContentMix,
		Code:    domain.FailureCodeQualityGate,
		Message: "gate content_mix scored 0.42 below threshold 0.80",
	}

	var buf bytes.Buffer
	err := summarizeRun(&buf, NewOutputStyles(), run)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRunFailed)

	output := buf.String()
	assert.Contains(t, output, "✗ Run "+run.ID+" failed")
	assert.Contains(t, output, "Failure:")
	assert.Contains(t, output, "Code:    quality_gate")
	assert.Contains(t, output, "Gate:    content_mix")
	assert.Contains(t, output, "adjust strategy data or gate thresholds")
}

func TestSummarizeRun_FailedWithoutReason(t *testing.T) {
	t.Parallel()

	run := newTestRun(testRunID(1), "b2b-saas-q3", constants.RunStatusFailed)

	var buf bytes.Buffer
	err := summarizeRun(&buf, NewOutputStyles(), run)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRunFailed)
	assert.NotContains(t, buf.String(), "Failure:")
}

func TestFailureSentinel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     domain.FailureCode
		expected error
	}{
		{code: domain.FailureCodeInputValidation, expected: errors.ErrInputValidation},
		{code: domain.FailureCodeExternalService, expected: errors.ErrExternalService},
		{code: domain.FailureCodeQualityGate, expected: errors.ErrQualityGate},
		{code: domain.FailureCode("bogus"), expected: errors.ErrRunFailed},
	}

	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			t.Parallel()

			assert.ErrorIs(t, failureSentinel(tc.code), tc.expected)
		})
	}
}

// Can't use t.Parallel() with t.Setenv()
func TestRunCommand_RequiredFlags(t *testing.T) {
	t.Setenv("CADENCE_HOME", t.TempDir())

	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"run", "b2b-saas-q3"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), `"user"`)
	assert.Contains(t, err.Error(), `"platforms"`)
}

func TestRunCommand_FlagDefaults(t *testing.T) {
	t.Parallel()

	root := newRootCmd(&GlobalFlags{}, BuildInfo{})
	cmd, _, err := root.Find([]string{"run"})
	require.NoError(t, err)

	days := cmd.Flags().Lookup("days")
	require.NotNil(t, days)
	assert.Equal(t, "14", days.DefValue)
	assert.Equal(t, "d", days.Shorthand)

	items := cmd.Flags().Lookup("items")
	require.NotNil(t, items)
	assert.Equal(t, "0", items.DefValue)

	user := cmd.Flags().Lookup("user")
	require.NotNil(t, user)
	assert.Equal(t, "u", user.Shorthand)

	platforms := cmd.Flags().Lookup("platforms")
	require.NotNil(t, platforms)
	assert.Equal(t, "p", platforms.Shorthand)

	require.NotNil(t, cmd.Flags().Lookup("start"))
	require.NotNil(t, cmd.Flags().Lookup("data-dir"))
}
