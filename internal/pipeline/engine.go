// Package pipeline provides run lifecycle management for Cadence.
//
// This file implements the engine: run submission, the sequential stage
// loop, quality gate evaluation, failure attribution, progress emission,
// and cooperative cancellation.
//
// Import rules:
//   - CAN import: internal/clock, internal/constants, internal/domain,
//     internal/errors, internal/gate, internal/gen, internal/providers, std lib
//   - MUST NOT import: internal/cli, internal/pipeline/stages
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/gate"
	"github.com/cadencelabs/cadence/internal/gen"
)

// terminalSaveTimeout bounds the detached persistence of a terminal state.
// A cancelled run context must never block the final store write.
const terminalSaveTimeout = 5 * time.Second

// EngineConfig holds tunable engine behavior.
type EngineConfig struct {
	// CollaboratorTimeout bounds each data-provider call, including the
	// pre-flight strategy resolution.
	CollaboratorTimeout time.Duration

	// Workers is the number of runs executing concurrently.
	Workers int

	// QueueSize is the number of accepted runs that may wait for a worker.
	QueueSize int
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CollaboratorTimeout: constants.DefaultCollaboratorTimeout,
		Workers:             constants.DefaultWorkerCount,
		QueueSize:           constants.DefaultQueueSize,
	}
}

// EngineOption configures optional engine behavior.
type EngineOption func(*Engine)

// WithTracker replaces the engine's progress tracker. Useful for tests that
// need a custom subscriber buffer.
func WithTracker(t *Tracker) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracker = t
		}
	}
}

// Engine coordinates calendar generation runs: it accepts submissions,
// executes the fixed twelve-stage sequence on a bounded worker pool, applies
// quality gates after every stage, and persists each checkpoint.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	store     Store
	gates     *gate.Registry
	stages    []Stage
	collab    Collaborators
	config    EngineConfig
	logger    zerolog.Logger
	tracker   *Tracker
	scheduler *Scheduler

	// mu guards the cancellation bookkeeping below.
	mu sync.Mutex

	// active maps a running run to its cancel function.
	active map[string]context.CancelFunc

	// cancelRequested marks runs cancelled while still queued, so the
	// worker that eventually picks them up returns without executing.
	cancelRequested map[string]bool

	startOnce sync.Once
	closeOnce sync.Once
}

// NewEngine creates an engine. The stage list must be the complete fixed
// sequence; the collaborators must carry a data source and a generation
// client.
func NewEngine(store Store, gates *gate.Registry, stages []Stage, collab Collaborators,
	cfg EngineConfig, logger zerolog.Logger, opts ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, cadenceerrors.Wrap(cadenceerrors.ErrEmptyValue, "run store")
	}
	if gates == nil {
		return nil, cadenceerrors.Wrap(cadenceerrors.ErrEmptyValue, "gate registry")
	}
	if collab.Source == nil {
		return nil, cadenceerrors.Wrap(cadenceerrors.ErrEmptyValue, "data source")
	}
	if collab.Generator == nil {
		return nil, cadenceerrors.Wrap(cadenceerrors.ErrEmptyValue, "generation client")
	}
	if err := ValidateStages(stages); err != nil {
		return nil, err
	}

	if cfg.CollaboratorTimeout <= 0 {
		cfg.CollaboratorTimeout = constants.DefaultCollaboratorTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = constants.DefaultWorkerCount
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = constants.DefaultQueueSize
	}
	if collab.LookupTimeout <= 0 {
		collab.LookupTimeout = cfg.CollaboratorTimeout
	}

	e := &Engine{
		store:           store,
		gates:           gates,
		stages:          stages,
		collab:          collab,
		config:          cfg,
		logger:          logger,
		active:          make(map[string]context.CancelFunc),
		cancelRequested: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracker == nil {
		e.tracker = NewTracker()
	}
	e.scheduler = NewScheduler(cfg.Workers, cfg.QueueSize, logger)

	return e, nil
}

// Start launches the engine's worker pool. The context bounds every run the
// engine executes: when it ends, queued runs are cancelled and running
// pipelines stop at the next stage boundary. Runs submitted before Start
// wait in the queue.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		e.scheduler.Start(ctx)
	})
}

// Close stops intake, waits for queued and running pipelines to finish, and
// closes the progress stream. Idempotent.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.scheduler.Close()
		e.tracker.Close()
	})
}

// Subscribe registers a progress observer. See Tracker.Subscribe.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.tracker.Subscribe()
}

// StageDefinitions returns the static stage definitions in execution order.
func (e *Engine) StageDefinitions() []domain.StageDefinition {
	defs := make([]domain.StageDefinition, 0, len(e.stages))
	for _, s := range e.stages {
		defs = append(defs, s.Definition())
	}
	return defs
}

// StartRun validates the request, persists a pending run, and queues it for
// execution. The run identifier returns immediately; callers observe
// progress through Subscribe or GetRunStatus.
//
// Invalid options are rejected here and no run is created. Strategy
// resolution is deliberately not checked here: it happens at the head of
// execution, where a miss is recorded on the run as a stage 1 input
// validation failure without a single generation call.
func (e *Engine) StartRun(ctx context.Context, userID, strategyID string, opts domain.RunOptions) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if userID == "" {
		return "", cadenceerrors.Wrap(cadenceerrors.ErrEmptyValue, "user id")
	}
	if strategyID == "" {
		return "", cadenceerrors.Wrap(cadenceerrors.ErrEmptyValue, "strategy id")
	}
	if err := opts.Validate(); err != nil {
		return "", cadenceerrors.Wrap(err, "invalid run options")
	}

	now := time.Now().UTC()
	run := &domain.PipelineRun{
		ID:            GenerateRunID(),
		UserID:        userID,
		StrategyID:    strategyID,
		Status:        constants.RunStatusPending,
		Options:       opts,
		StageResults:  []domain.StageResult{},
		Transitions:   []domain.Transition{},
		CreatedAt:     now,
		UpdatedAt:     now,
		SchemaVersion: constants.RunSchemaVersion,
	}
	if err := e.store.Create(ctx, run); err != nil {
		return "", cadenceerrors.Wrapf(err, "failed to persist run '%s'", run.ID)
	}

	j := job{
		runID: run.ID,
		run:   func(workerCtx context.Context) { e.executeRun(workerCtx, run.ID) },
		abort: func() { e.abortQueued(run.ID) },
	}
	if err := e.scheduler.Submit(j); err != nil {
		// A rejected submission must not leave a pending ghost behind.
		if delErr := e.store.Delete(ctx, run.ID); delErr != nil {
			e.logger.Warn().Err(delErr).Str("run_id", run.ID).Msg("failed to remove rejected run")
		}
		return "", err
	}

	e.logger.Info().
		Str("run_id", run.ID).
		Str("user_id", userID).
		Str("strategy_id", strategyID).
		Int("days", opts.Days).
		Strs("platforms", opts.Platforms).
		Msg("run accepted")

	return run.ID, nil
}

// RunSnapshot is the caller-facing view of run progress.
type RunSnapshot struct {
	// RunID identifies the run.
	RunID string `json:"run_id"`

	// Status is the run's lifecycle status.
	Status constants.RunStatus `json:"status"`

	// CurrentStage is the stage currently or most recently executing.
	// Zero before the first stage starts.
	CurrentStage int `json:"current_stage"`

	// Phase is the pipeline phase of CurrentStage.
	Phase domain.Phase `json:"phase,omitempty"`

	// StagesSucceeded counts stages that passed their gates.
	StagesSucceeded int `json:"stages_succeeded"`

	// PercentComplete is progress in [0,100] over the twelve stages.
	PercentComplete float64 `json:"percent_complete"`

	// FailureReason explains why a failed run aborted.
	FailureReason *domain.FailureReason `json:"failure_reason,omitempty"`

	// CreatedAt is when the run was accepted.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when execution began, if it has.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt is when the run reached a terminal state, if it has.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// GetRunStatus returns a progress snapshot for the run.
func (e *Engine) GetRunStatus(ctx context.Context, runID string) (*RunSnapshot, error) {
	run, err := e.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	succeeded := succeededStages(run)
	snap := &RunSnapshot{
		RunID:           run.ID,
		Status:          run.Status,
		CurrentStage:    run.CurrentStage,
		StagesSucceeded: succeeded,
		PercentComplete: percentComplete(succeeded),
		FailureReason:   run.FailureReason,
		CreatedAt:       run.CreatedAt,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
	}
	if run.CurrentStage > 0 {
		snap.Phase = domain.PhaseForStage(domain.StageID(run.CurrentStage))
	}
	return snap, nil
}

// GetRun returns the full run record.
func (e *Engine) GetRun(ctx context.Context, runID string) (*domain.PipelineRun, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if runID == "" {
		return nil, cadenceerrors.Wrap(cadenceerrors.ErrEmptyValue, "run id")
	}
	return e.store.Get(ctx, runID)
}

// ListRuns returns all runs, newest first.
func (e *Engine) ListRuns(ctx context.Context) ([]*domain.PipelineRun, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return e.store.List(ctx)
}

// GetRunResult returns the assembled calendar artifact of a completed run.
// Runs in any other state return ErrRunNotCompleted: there is never a
// partial or fallback calendar.
func (e *Engine) GetRunResult(ctx context.Context, runID string) (*domain.CalendarArtifact, error) {
	run, err := e.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != constants.RunStatusCompleted {
		return nil, cadenceerrors.Wrapf(cadenceerrors.ErrRunNotCompleted,
			"run '%s' is %s", runID, run.Status)
	}
	return e.store.GetArtifact(ctx, runID)
}

// CancelRun requests cooperative cancellation. A running pipeline stops at
// its next stage boundary; a queued run never starts. Cancelling a terminal
// run returns ErrRunTerminal.
func (e *Engine) CancelRun(ctx context.Context, runID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if runID == "" {
		return cadenceerrors.Wrap(cadenceerrors.ErrEmptyValue, "run id")
	}

	e.mu.Lock()
	if cancel, ok := e.active[runID]; ok {
		e.mu.Unlock()
		cancel()
		e.logger.Info().Str("run_id", runID).Msg("cancellation requested")
		return nil
	}
	// Not on a worker yet: flag it so a later pickup returns immediately,
	// then finalize the record directly.
	e.cancelRequested[runID] = true
	e.mu.Unlock()

	run, err := e.store.Get(ctx, runID)
	if err != nil {
		e.clearCancelRequest(runID)
		return err
	}
	if run.IsTerminal() {
		e.clearCancelRequest(runID)
		return cadenceerrors.Wrapf(cadenceerrors.ErrRunTerminal, "run '%s' is %s", runID, run.Status)
	}

	if err := Transition(ctx, run, constants.RunStatusCancelled, "cancelled before execution started"); err != nil {
		e.clearCancelRequest(runID)
		return err
	}
	if err := e.store.Update(ctx, run); err != nil {
		e.clearCancelRequest(runID)
		return cadenceerrors.Wrapf(err, "failed to persist cancellation of run '%s'", runID)
	}
	e.emitRunEvent(ctx, run, EventRunCancelled, "run cancelled before execution started")
	e.logger.Info().Str("run_id", runID).Msg("queued run cancelled")
	return nil
}

// trackRun registers a run's cancel function. Returns false when the run was
// cancelled while queued, in which case the caller must not execute it.
func (e *Engine) trackRun(runID string, cancel context.CancelFunc) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancelRequested[runID] {
		delete(e.cancelRequested, runID)
		return false
	}
	e.active[runID] = cancel
	return true
}

func (e *Engine) untrackRun(runID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, runID)
}

func (e *Engine) clearCancelRequest(runID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cancelRequested, runID)
}

// executeRun drives one run from pending to a terminal state. It runs on a
// scheduler worker slot.
func (e *Engine) executeRun(parent context.Context, runID string) {
	runCtx, cancel := context.WithCancel(parent)
	defer cancel()

	if !e.trackRun(runID, cancel) {
		// Cancelled while queued; CancelRun already finalized the record.
		return
	}
	defer e.untrackRun(runID)

	run, err := e.store.Get(runCtx, runID)
	if err != nil {
		e.logger.Error().Err(err).Str("run_id", runID).Msg("failed to load queued run")
		return
	}
	if run.IsTerminal() {
		e.logger.Debug().Str("run_id", runID).Str("status", run.Status.String()).Msg("queued run already terminal")
		return
	}

	logger := e.logger.With().
		Str("run_id", run.ID).
		Str("user_id", run.UserID).
		Str("strategy_id", run.StrategyID).
		Logger()
	ctx := logger.WithContext(runCtx)

	if err := e.beginRun(ctx, run); err != nil {
		if isCanceled(err) {
			e.finalizeCancelled(run, "cancelled before the first stage")
			return
		}
		logger.Error().Err(err).Msg("failed to start run")
		return
	}

	e.runStages(ctx, run)
}

// beginRun transitions the run to running and announces it.
func (e *Engine) beginRun(ctx context.Context, run *domain.PipelineRun) error {
	if err := Transition(ctx, run, constants.RunStatusRunning, "run started"); err != nil {
		return err
	}
	if err := e.store.Update(ctx, run); err != nil {
		return cadenceerrors.Wrapf(err, "failed to persist run '%s'", run.ID)
	}

	e.emitRunEvent(ctx, run, EventRunStarted,
		fmt.Sprintf("run started: %d-day calendar across %d platform(s)",
			run.Options.Days, len(run.Options.Platforms)))
	return nil
}

// runStages resolves the strategy, then executes the fixed stage sequence
// to a terminal state. Every stage passes or the run dies where it stood.
func (e *Engine) runStages(ctx context.Context, run *domain.PipelineRun) {
	log := zerolog.Ctx(ctx)

	strategy, err := e.resolveStrategy(ctx, run.StrategyID)
	if err != nil {
		if isCanceled(err) {
			e.finalizeCancelled(run, "cancelled during strategy resolution")
			return
		}
		log.Error().Err(err).Msg("strategy resolution failed")
		run.CurrentStage = int(domain.StageStrategyContext)
		e.finalizeFailed(run, cadenceerrors.NewInputValidationError(
			int(domain.StageStrategyContext), "strategy_id", err.Error()))
		return
	}

	rc := NewRunContext(run, strategy, e.collab)

	for _, stage := range e.stages {
		def := stage.Definition()

		// Stage boundaries are the cancellation points.
		if ctx.Err() != nil {
			e.finalizeCancelled(run, fmt.Sprintf("cancelled before stage %d", def.ID))
			return
		}

		run.CurrentStage = int(def.ID)
		run.UpdatedAt = time.Now().UTC()
		if err := e.store.Update(ctx, run); err != nil {
			if isCanceled(err) {
				e.finalizeCancelled(run, fmt.Sprintf("cancelled before stage %d", def.ID))
				return
			}
			e.finalizeFailed(run, cadenceerrors.NewExternalServiceError(int(def.ID), "run_store", err))
			return
		}
		e.emitStageEvent(ctx, run, def, EventStageStarted,
			fmt.Sprintf("stage %d/%d (%s) started", def.ID, constants.StageCount, def.Name),
			int(def.ID)-1)

		result, payload, stageErr := e.executeStage(ctx, stage, def, rc)
		run.StageResults = append(run.StageResults, result)

		if stageErr != nil {
			if isCanceled(stageErr) {
				e.finalizeCancelled(run, fmt.Sprintf("cancelled during stage %d", def.ID))
				return
			}
			e.emitStageEvent(ctx, run, def, EventStageFailed, result.Error, int(def.ID)-1)
			e.finalizeFailed(run, stageErr)
			return
		}

		summary := Summarize(def, stage.Schema(), payload)
		if err := rc.Record(summary, payload); err != nil {
			e.finalizeFailed(run, cadenceerrors.NewInputValidationError(int(def.ID), "summary", err.Error()))
			return
		}

		if err := e.store.Update(ctx, run); err != nil {
			if isCanceled(err) {
				e.finalizeCancelled(run, fmt.Sprintf("cancelled after stage %d", def.ID))
				return
			}
			e.finalizeFailed(run, cadenceerrors.NewExternalServiceError(int(def.ID), "run_store", err))
			return
		}

		score := 1.0
		if result.Quality != nil {
			score = result.Quality.OverallScore
		}
		e.emitStageEvent(ctx, run, def, EventStageSucceeded,
			fmt.Sprintf("%s passed (score %.2f)", def.Name, score), int(def.ID))
	}

	e.completeRun(ctx, run, rc)
}

// executeStage runs one stage through input validation, execution, and gate
// evaluation. The returned error is nil exactly when the result status is
// succeeded.
func (e *Engine) executeStage(ctx context.Context, stage Stage, def domain.StageDefinition,
	rc *RunContext) (domain.StageResult, gen.Payload, error) {
	log := zerolog.Ctx(ctx)
	started := time.Now().UTC()
	sc := rc.For(def.ID)

	log.Info().
		Int("stage_id", int(def.ID)).
		Str("stage_name", def.Name).
		Str("phase", def.Phase.String()).
		Msg("executing stage")

	if err := stage.ValidateInputs(sc); err != nil {
		err = asStageError(def, err)
		return failedStageResult(def, started, nil, nil, err), nil, err
	}

	payload, err := stage.Execute(ctx, sc)
	if err != nil {
		err = asStageError(def, err)
		return failedStageResult(def, started, payload, nil, err), nil, err
	}

	input, err := gateInput(def, sc, payload)
	if err != nil {
		err = asStageError(def, err)
		return failedStageResult(def, started, payload, nil, err), nil, err
	}
	report, err := e.gates.Evaluate(input, def.GateIDs, def.Threshold)
	if err != nil {
		// Evaluation errors mean a misdeclared gate list, not content that
		// scored low.
		err = cadenceerrors.NewInputValidationError(int(def.ID), "gate_ids", err.Error())
		return failedStageResult(def, started, payload, nil, err), nil, err
	}
	if !report.Passed {
		gateErr := qualityFailure(def, report)
		log.Warn().
			Int("stage_id", int(def.ID)).
			Float64("score", report.OverallScore).
			Float64("threshold", report.Threshold).
			Msg("stage failed quality gates")
		return failedStageResult(def, started, payload, report, gateErr), nil, gateErr
	}

	log.Info().
		Int("stage_id", int(def.ID)).
		Float64("score", report.OverallScore).
		Dur("duration", time.Since(started)).
		Msg("stage succeeded")

	return domain.StageResult{
		StageID:    def.ID,
		Name:       def.Name,
		Status:     constants.StageStatusSucceeded,
		Payload:    payload,
		Quality:    report,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}, payload, nil
}

// completeRun extracts the assembled artifact, persists it, and finishes
// the run.
func (e *Engine) completeRun(ctx context.Context, run *domain.PipelineRun, rc *RunContext) {
	artifact, err := artifactFromContext(run, rc)
	if err != nil {
		e.finalizeFailed(run, cadenceerrors.NewInputValidationError(
			int(domain.StageAssembly), "artifact", err.Error()))
		return
	}

	if err := e.store.SaveArtifact(ctx, run.ID, artifact); err != nil {
		if isCanceled(err) {
			e.finalizeCancelled(run, "cancelled while saving artifact")
			return
		}
		e.finalizeFailed(run, cadenceerrors.NewExternalServiceError(
			int(domain.StageAssembly), "run_store", err))
		return
	}

	if err := Transition(ctx, run, constants.RunStatusCompleted, "all stages passed"); err != nil {
		if isCanceled(err) {
			e.finalizeCancelled(run, "cancelled while completing run")
			return
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to complete run")
		return
	}
	if err := e.store.Update(ctx, run); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to persist completed run")
		return
	}

	e.emitRunEvent(ctx, run, EventRunCompleted,
		fmt.Sprintf("calendar assembled: %d items over %d days",
			len(artifact.Items), artifact.Range.Days()))

	zerolog.Ctx(ctx).Info().
		Int("items", len(artifact.Items)).
		Int("days", artifact.Range.Days()).
		Msg("run completed")
}

// resolveStrategy performs the pre-flight strategy lookup. A miss fails the
// run at stage 1 before any generation call is made.
func (e *Engine) resolveStrategy(ctx context.Context, strategyID string) (*domain.Strategy, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, e.collab.LookupTimeout)
	defer cancel()

	strategy, err := e.collab.Source.Strategy(lookupCtx, strategyID)
	if err != nil {
		return nil, cadenceerrors.Wrapf(err, "failed to resolve strategy '%s'", strategyID)
	}
	return strategy, nil
}

// abortQueued finalizes a run whose job never reached a worker because the
// scheduler stopped.
func (e *Engine) abortQueued(runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), terminalSaveTimeout)
	defer cancel()

	run, err := e.store.Get(ctx, runID)
	if err != nil {
		e.logger.Error().Err(err).Str("run_id", runID).Msg("failed to load queued run for abort")
		return
	}
	if run.IsTerminal() {
		return
	}
	e.finalizeCancelled(run, "engine shut down before execution started")
}

// finalizeFailed records the failure reason and persists the failed state.
// Persistence uses a detached context so the terminal write cannot be lost
// to the run's own cancellation.
func (e *Engine) finalizeFailed(run *domain.PipelineRun, cause error) {
	reason := failureReason(run, cause)
	run.FailureReason = reason

	ctx, cancel := context.WithTimeout(context.Background(), terminalSaveTimeout)
	defer cancel()

	if err := Transition(ctx, run, constants.RunStatusFailed, reason.Message); err != nil {
		e.logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to record run failure")
		return
	}
	if err := e.store.Update(ctx, run); err != nil {
		e.logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to persist failed run")
	}
	e.emitRunEvent(ctx, run, EventRunFailed, reason.Message)

	e.logger.Error().
		Str("run_id", run.ID).
		Int("stage_id", int(reason.StageID)).
		Str("code", reason.Code.String()).
		Str("gate_id", reason.GateID.String()).
		Str("reason", reason.Message).
		Msg("run failed")
}

// finalizeCancelled persists the cancelled terminal state. The run's context
// is usually already done here, so persistence runs detached.
func (e *Engine) finalizeCancelled(run *domain.PipelineRun, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), terminalSaveTimeout)
	defer cancel()

	if err := Transition(ctx, run, constants.RunStatusCancelled, reason); err != nil {
		e.logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to record cancellation")
		return
	}
	if err := e.store.Update(ctx, run); err != nil {
		e.logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to persist cancelled run")
	}
	e.emitRunEvent(ctx, run, EventRunCancelled, reason)

	e.logger.Info().
		Str("run_id", run.ID).
		Int("stage_id", run.CurrentStage).
		Msg("run cancelled")
}

// emitStageEvent publishes a stage lifecycle event and appends it to the
// run's event log.
func (e *Engine) emitStageEvent(ctx context.Context, run *domain.PipelineRun,
	def domain.StageDefinition, typ EventType, message string, succeeded int) {
	e.emit(ctx, Event{
		RunID:           run.ID,
		StageID:         def.ID,
		Phase:           def.Phase,
		Type:            typ,
		PercentComplete: percentComplete(succeeded),
		Message:         message,
		Timestamp:       time.Now().UTC(),
	})
}

// emitRunEvent publishes a run-level lifecycle event.
func (e *Engine) emitRunEvent(ctx context.Context, run *domain.PipelineRun, typ EventType, message string) {
	e.emit(ctx, Event{
		RunID:           run.ID,
		Type:            typ,
		PercentComplete: percentComplete(succeededStages(run)),
		Message:         message,
		Timestamp:       time.Now().UTC(),
	})
}

// emit fans the event out to subscribers and appends it to the persisted
// event log. Log persistence is best-effort: an event write never fails a
// run.
func (e *Engine) emit(ctx context.Context, event Event) {
	e.tracker.Publish(event)

	entry, err := json.Marshal(event)
	if err != nil {
		e.logger.Warn().Err(err).Str("run_id", event.RunID).Msg("failed to encode progress event")
		return
	}
	if err := e.store.AppendEvent(ctx, event.RunID, entry); err != nil {
		e.logger.Warn().Err(err).Str("run_id", event.RunID).Msg("failed to append progress event")
	}
}

// gateInput assembles the evaluation input for a stage result. Calendar
// items travel under the payload's "items" key when the stage produces any.
func gateInput(def domain.StageDefinition, sc *StageContext, payload gen.Payload) (*gate.Input, error) {
	items, err := payload.ContentItems("items")
	if err != nil {
		return nil, err
	}

	upstream := make([]domain.StageSummary, 0, len(def.RequiredUpstream))
	for _, id := range def.RequiredUpstream {
		s, err := sc.Summary(id)
		if err != nil {
			return nil, err
		}
		upstream = append(upstream, *s)
	}

	return &gate.Input{
		StageID:   def.ID,
		StageName: def.Name,
		Payload:   payload,
		Items:     items,
		Range:     sc.Range(),
		Options:   sc.Options(),
		Strategy:  sc.Strategy(),
		Upstream:  upstream,
	}, nil
}

// artifactFromContext decodes the calendar artifact the assembly stage
// produced and stamps the run identity onto it.
func artifactFromContext(run *domain.PipelineRun, rc *RunContext) (*domain.CalendarArtifact, error) {
	payload, ok := rc.payload(domain.StageAssembly)
	if !ok {
		return nil, fmt.Errorf("assembly payload not recorded")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, cadenceerrors.Wrap(err, "failed to encode assembled calendar")
	}
	var artifact domain.CalendarArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, cadenceerrors.Wrap(err, "failed to decode assembled calendar")
	}

	artifact.RunID = run.ID
	artifact.StrategyID = run.StrategyID
	if artifact.GeneratedAt.IsZero() {
		artifact.GeneratedAt = time.Now().UTC()
	}
	if artifact.SchemaVersion == "" {
		artifact.SchemaVersion = constants.ArtifactSchemaVersion
	}
	return &artifact, nil
}

// failureReason maps a stage error onto the run failure taxonomy.
func failureReason(run *domain.PipelineRun, err error) *domain.FailureReason {
	if v, ok := cadenceerrors.AsInputValidation(err); ok {
		return &domain.FailureReason{
			StageID: domain.StageID(v.StageID),
			Code:    domain.FailureCodeInputValidation,
			Message: err.Error(),
		}
	}
	if v, ok := cadenceerrors.AsExternalService(err); ok {
		return &domain.FailureReason{
			StageID: domain.StageID(v.StageID),
			Code:    domain.FailureCodeExternalService,
			Message: err.Error(),
		}
	}
	if v, ok := cadenceerrors.AsQualityGateFailure(err); ok {
		reason := &domain.FailureReason{
			StageID: domain.StageID(v.StageID),
			Code:    domain.FailureCodeQualityGate,
			Message: err.Error(),
		}
		if ids := v.ViolatedGateIDs(); len(ids) > 0 {
			reason.GateID = domain.GateID(ids[0])
		}
		return reason
	}

	// Untyped errors surface with external attribution at the stage that
	// was executing.
	return &domain.FailureReason{
		StageID: domain.StageID(run.CurrentStage),
		Code:    domain.FailureCodeExternalService,
		Message: err.Error(),
	}
}

// asStageError normalizes a stage failure into the typed taxonomy, leaving
// cancellation untouched so the engine can tell cancelled from failed.
func asStageError(def domain.StageDefinition, err error) error {
	if isCanceled(err) {
		return err
	}
	if _, ok := cadenceerrors.AsInputValidation(err); ok {
		return err
	}
	if _, ok := cadenceerrors.AsExternalService(err); ok {
		return err
	}
	if _, ok := cadenceerrors.AsQualityGateFailure(err); ok {
		return err
	}

	switch {
	case errors.Is(err, cadenceerrors.ErrStageOrderViolation),
		errors.Is(err, cadenceerrors.ErrSummaryNotFound):
		return cadenceerrors.NewInputValidationError(int(def.ID), "context", err.Error())
	default:
		// After input validation every suspension point is a collaborator
		// call; generation is the one collaborator stages do not wrap
		// themselves.
		return cadenceerrors.NewExternalServiceError(int(def.ID),
			domain.CollaboratorGeneration.String(), err)
	}
}

// qualityFailure converts a failing gate report into the typed error.
func qualityFailure(def domain.StageDefinition, report *domain.QualityReport) error {
	var violations []cadenceerrors.GateViolation
	for _, s := range report.Scores {
		if !s.Violated {
			continue
		}
		detail := ""
		if len(s.Violations) > 0 {
			detail = s.Violations[0]
		}
		violations = append(violations, cadenceerrors.GateViolation{
			GateID: s.GateID.String(),
			Score:  s.Score,
			Detail: detail,
		})
	}
	return cadenceerrors.NewQualityGateFailure(int(def.ID), violations, report.OverallScore, report.Threshold)
}

// failedStageResult builds the immutable record of a failed stage.
func failedStageResult(def domain.StageDefinition, started time.Time,
	payload gen.Payload, report *domain.QualityReport, err error) domain.StageResult {
	return domain.StageResult{
		StageID:    def.ID,
		Name:       def.Name,
		Status:     constants.StageStatusFailed,
		Payload:    payload,
		Quality:    report,
		Error:      err.Error(),
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
}

// succeededStages counts stages that passed their gates.
func succeededStages(run *domain.PipelineRun) int {
	n := 0
	for _, r := range run.StageResults {
		if r.Status == constants.StageStatusSucceeded {
			n++
		}
	}
	return n
}

// isCanceled reports whether err is caller cancellation rather than a stage
// failure. Deadline expiry is a failure (it maps to the external service
// taxonomy), not a cancellation.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
