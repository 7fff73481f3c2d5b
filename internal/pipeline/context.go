package pipeline

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/cadencelabs/cadence/internal/clock"
	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/gen"
	"github.com/cadencelabs/cadence/internal/providers"
)

// Collaborators bundles the external ports a run needs: the read-only data
// source, the generation client, and the time source. The engine passes one
// Collaborators value into every run context it creates.
type Collaborators struct {
	// Source serves strategy, gap, and audience lookups.
	Source providers.DataSource

	// Generator executes generation requests.
	Generator gen.Client

	// Clock is the time source for date-range derivation.
	Clock clock.Clock

	// LookupTimeout bounds each provider read a stage makes. Zero means
	// constants.DefaultCollaboratorTimeout. The generation client carries
	// its own timeout.
	LookupTimeout time.Duration
}

// RunContext is the per-run accumulation of stage decisions plus the
// collaborator references stages call through. Each run owns exactly one
// RunContext; contexts are never shared across runs.
//
// Two things accumulate here, both append-only and write-once per stage:
// the condensed summaries that render into downstream generation requests,
// and the raw stage payloads. Generation requests only ever embed the
// rendered summaries; the payload archive exists for the deterministic
// assembly stage and for gate evaluation, where lossy summaries would not
// do. Stages do not touch RunContext directly; they receive a StageContext
// view scoped to their own position in the pipeline.
type RunContext struct {
	runID      string
	userID     string
	strategyID string
	options    domain.RunOptions
	rng        domain.DateRange
	strategy   *domain.Strategy
	collab     Collaborators

	mu        sync.RWMutex
	summaries map[domain.StageID]*domain.StageSummary
	payloads  map[domain.StageID]gen.Payload
}

// NewRunContext creates the context for a single run. The strategy is the
// record resolved by the engine before stage execution begins.
//
// The calendar date range is fixed here, once, from the validated options:
// it starts on the requested start date, or on the day after the run begins
// when no start date was given, and spans exactly Options.Days days. Every
// stage and gate that needs the range reads this one value.
func NewRunContext(run *domain.PipelineRun, strategy *domain.Strategy, collab Collaborators) *RunContext {
	if collab.Clock == nil {
		collab.Clock = clock.RealClock{}
	}

	start := run.Options.StartDate
	if start.IsZero() {
		start = clock.Today(collab.Clock).AddDate(0, 0, 1)
	} else {
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	}

	return &RunContext{
		runID:      run.ID,
		userID:     run.UserID,
		strategyID: run.StrategyID,
		options:    run.Options,
		rng: domain.DateRange{
			Start: start,
			End:   start.AddDate(0, 0, run.Options.Days-1),
		},
		strategy:  strategy,
		collab:    collab,
		summaries: make(map[domain.StageID]*domain.StageSummary, constants.StageCount),
		payloads:  make(map[domain.StageID]gen.Payload, constants.StageCount),
	}
}

// Range returns the calendar span the run plans.
func (rc *RunContext) Range() domain.DateRange {
	return rc.rng
}

// Record stores a stage's condensed summary and raw payload. Called by the
// engine exactly once per succeeded stage; recording a second entry for the
// same stage is an error because accumulated context is immutable.
func (rc *RunContext) Record(summary *domain.StageSummary, payload gen.Payload) error {
	if summary == nil {
		return cadenceerrors.Wrap(cadenceerrors.ErrEmptyValue, "stage summary")
	}
	if !summary.StageID.Valid() {
		return cadenceerrors.Wrapf(cadenceerrors.ErrInvalidArgument, "stage id %d", summary.StageID)
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, exists := rc.summaries[summary.StageID]; exists {
		return cadenceerrors.Wrapf(cadenceerrors.ErrSummaryExists, "stage %d", summary.StageID)
	}
	rc.summaries[summary.StageID] = summary.Clone()
	if payload != nil {
		rc.payloads[summary.StageID] = payload
	}
	return nil
}

// For returns the view of this context scoped to the given stage. The view
// only reaches summaries of stages that ran earlier, which is what keeps the
// pipeline's dependency order honest: a stage cannot read its own entry or
// anything downstream, no matter what it asks for.
func (rc *RunContext) For(id domain.StageID) *StageContext {
	return &StageContext{run: rc, stage: id}
}

// payload returns the archived payload of a stage, unrestricted and
// uncloned. Engine use only; stages go through StageContext.
func (rc *RunContext) payload(id domain.StageID) (gen.Payload, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	p, ok := rc.payloads[id]
	return p, ok
}

// upstream returns clones of all summaries with a stage id strictly below
// the limit, in ascending stage order.
func (rc *RunContext) upstream(limit domain.StageID) []*domain.StageSummary {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	out := make([]*domain.StageSummary, 0, len(rc.summaries))
	for id, s := range rc.summaries {
		if id < limit {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StageID < out[j].StageID })
	return out
}

// StageContext is the stage-scoped view of a RunContext. All reads are
// restricted to upstream stages; collaborator and run metadata accessors are
// unrestricted. Summaries come back as copies, so a stage can never mutate
// accumulated context.
type StageContext struct {
	run   *RunContext
	stage domain.StageID
}

// StageID returns the stage this view is scoped to.
func (sc *StageContext) StageID() domain.StageID {
	return sc.stage
}

// RunID returns the run identifier.
func (sc *StageContext) RunID() string {
	return sc.run.runID
}

// UserID returns the account the calendar is generated for.
func (sc *StageContext) UserID() string {
	return sc.run.userID
}

// StrategyID returns the strategy identifier the run was started with.
func (sc *StageContext) StrategyID() string {
	return sc.run.strategyID
}

// Options returns the validated run options.
func (sc *StageContext) Options() domain.RunOptions {
	return sc.run.options
}

// Range returns the calendar span fixed for this run.
func (sc *StageContext) Range() domain.DateRange {
	return sc.run.rng
}

// Strategy returns the resolved strategy. The returned value is shared and
// read-only.
func (sc *StageContext) Strategy() *domain.Strategy {
	return sc.run.strategy
}

// Source returns the read-only data provider port.
func (sc *StageContext) Source() providers.DataSource {
	return sc.run.collab.Source
}

// Generator returns the generation client port.
func (sc *StageContext) Generator() gen.Client {
	return sc.run.collab.Generator
}

// Clock returns the run's time source.
func (sc *StageContext) Clock() clock.Clock {
	return sc.run.collab.Clock
}

// WithLookupTimeout derives a context bounding one provider read. Every
// suspension point in a stage is a collaborator call, and every collaborator
// call carries a deadline.
func (sc *StageContext) WithLookupTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := sc.run.collab.LookupTimeout
	if timeout <= 0 {
		timeout = constants.DefaultCollaboratorTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Summary returns the condensed summary recorded by an upstream stage.
// Requests for the stage's own entry or a downstream entry return
// ErrStageOrderViolation; requests for an upstream stage that has not
// recorded a summary return ErrSummaryNotFound.
func (sc *StageContext) Summary(id domain.StageID) (*domain.StageSummary, error) {
	if id >= sc.stage {
		return nil, cadenceerrors.Wrapf(cadenceerrors.ErrStageOrderViolation,
			"stage %d requested summary of stage %d", sc.stage, id)
	}

	sc.run.mu.RLock()
	defer sc.run.mu.RUnlock()

	s, exists := sc.run.summaries[id]
	if !exists {
		return nil, cadenceerrors.Wrapf(cadenceerrors.ErrSummaryNotFound, "stage %d", id)
	}
	return s.Clone(), nil
}

// Summaries returns every upstream summary in ascending stage order.
func (sc *StageContext) Summaries() []*domain.StageSummary {
	return sc.run.upstream(sc.stage)
}

// UpstreamPayload returns a deep copy of the raw payload an upstream stage
// produced. The same ordering rule as Summary applies. Payloads are for
// local transforms such as calendar assembly; generation requests embed the
// rendered summaries only.
func (sc *StageContext) UpstreamPayload(id domain.StageID) (gen.Payload, error) {
	if id >= sc.stage {
		return nil, cadenceerrors.Wrapf(cadenceerrors.ErrStageOrderViolation,
			"stage %d requested payload of stage %d", sc.stage, id)
	}

	sc.run.mu.RLock()
	defer sc.run.mu.RUnlock()

	p, exists := sc.run.payloads[id]
	if !exists {
		return nil, cadenceerrors.Wrapf(cadenceerrors.ErrSummaryNotFound, "stage %d payload", id)
	}
	return clonePayload(p)
}

// ContextBlock renders the accumulated upstream context into the compact
// text block embedded in generation requests.
func (sc *StageContext) ContextBlock() string {
	return Render(sc.Summaries())
}

// clonePayload deep-copies a payload through the same JSON encoding the run
// store persists, so callers can never mutate archived context.
func clonePayload(p gen.Payload) (gen.Payload, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, cadenceerrors.Wrap(err, "clone payload")
	}
	var out gen.Payload
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, cadenceerrors.Wrap(err, "clone payload")
	}
	return out, nil
}
