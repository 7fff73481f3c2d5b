package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// timeSleep is a wrapper for time.After that can be overridden in tests.
// It returns a channel that receives after the given duration.
//
//nolint:gochecknoglobals // Required for test mocking
var timeSleep = func(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// retrying decorates a DataSource with bounded exponential backoff.
// Retry applies to these idempotent read-only lookups only; the generation
// client must never be routed through a decorator like this.
type retrying struct {
	inner       DataSource
	maxAttempts int
	logger      zerolog.Logger
}

// RetryOption is a functional option for configuring the retry decorator.
type RetryOption func(*retrying)

// WithRetryLogger sets the logger used for retry diagnostics.
func WithRetryLogger(logger zerolog.Logger) RetryOption {
	return func(r *retrying) {
		r.logger = logger
	}
}

// WithRetry wraps a DataSource with bounded retry for transient read
// failures. Not-found and malformed-data errors are deterministic and
// return immediately. When retry is disabled in cfg, the source is
// returned unwrapped.
func WithRetry(source DataSource, cfg *config.ProvidersConfig, opts ...RetryOption) DataSource {
	if cfg == nil || !cfg.RetryEnabled {
		return source
	}

	maxAttempts := cfg.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = constants.MaxRetryAttempts
	}

	r := &retrying{
		inner:       source,
		maxAttempts: maxAttempts,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strategy retries the wrapped lookup on transient failure.
func (r *retrying) Strategy(ctx context.Context, strategyID string) (*domain.Strategy, error) {
	var out *domain.Strategy
	err := r.retryRead(ctx, "strategy", func(ctx context.Context) error {
		s, err := r.inner.Strategy(ctx, strategyID)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// GapAnalysis retries the wrapped lookup on transient failure.
func (r *retrying) GapAnalysis(ctx context.Context, userID string) (*domain.GapAnalysis, error) {
	var out *domain.GapAnalysis
	err := r.retryRead(ctx, "gap_analysis", func(ctx context.Context) error {
		g, err := r.inner.GapAnalysis(ctx, userID)
		if err != nil {
			return err
		}
		out = g
		return nil
	})
	return out, err
}

// Profile retries the wrapped lookup on transient failure.
func (r *retrying) Profile(ctx context.Context, userID string) (*domain.ProfileData, error) {
	var out *domain.ProfileData
	err := r.retryRead(ctx, "profile", func(ctx context.Context) error {
		p, err := r.inner.Profile(ctx, userID)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// retryRead executes a read with exponential backoff retry logic.
// Only transient errors are retried; non-retryable errors return immediately.
func (r *retrying) retryRead(ctx context.Context, what string, read func(context.Context) error) error {
	var lastErr error
	backoff := constants.InitialBackoff

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			r.logger.Debug().
				Str("lookup", what).
				Int("attempt", attempt).
				Int("max_attempts", r.maxAttempts).
				Msg("retrying provider read")
		}

		err := read(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Info().
					Str("lookup", what).
					Int("attempt", attempt).
					Msg("provider read succeeded after retry")
			}
			return nil
		}

		// Don't retry non-retryable errors
		if !isRetryable(err) {
			r.logger.Debug().
				Err(err).
				Str("lookup", what).
				Int("attempt", attempt).
				Msg("provider read failed with non-retryable error")
			return err
		}

		lastErr = err
		if attempt < r.maxAttempts {
			r.logger.Warn().
				Err(err).
				Str("lookup", what).
				Int("attempt", attempt).
				Int("max_attempts", r.maxAttempts).
				Dur("backoff", backoff).
				Msg("provider read failed, will retry after backoff")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timeSleep(backoff):
				backoff *= constants.BackoffMultiplier
			}
		}
	}

	r.logger.Error().
		Err(lastErr).
		Str("lookup", what).
		Int("max_attempts", r.maxAttempts).
		Msg("provider read failed after max retries")

	return fmt.Errorf("%w: %s: %w", cadenceerrors.ErrMaxRetriesExceeded, what, lastErr)
}

// isRetryable determines whether a provider read error should be retried.
// Missing and malformed data are deterministic outcomes: reading the same
// file again cannot change them. Everything else (I/O hiccups, transient
// filesystem errors) is considered retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Deterministic data errors are not retryable
	if errors.Is(err, cadenceerrors.ErrStrategyNotFound) ||
		errors.Is(err, cadenceerrors.ErrGapDataNotFound) ||
		errors.Is(err, cadenceerrors.ErrProfileNotFound) ||
		errors.Is(err, cadenceerrors.ErrMalformedProviderData) {
		return false
	}

	return true
}

// Compile-time check that retrying implements DataSource.
var _ DataSource = (*retrying)(nil)
