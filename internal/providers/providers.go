// Package providers defines the read-only data ports the pipeline consumes
// and the file-backed implementation that serves them.
//
// Providers supply existing account data: the content strategy, the latest
// gap analysis, and audience profile data. These lookups are idempotent
// reads with no side effects, which is what makes them the one place in the
// system where bounded retry is permitted (see WithRetry). Generation is
// never routed through this package.
//
// IMPORTANT: This package may import internal/constants, internal/errors,
// internal/config, and internal/domain. It MUST NOT import
// internal/pipeline or internal/cli.
package providers

import (
	"context"

	"github.com/cadencelabs/cadence/internal/domain"
)

// StrategyProvider serves stored content strategies.
type StrategyProvider interface {
	// Strategy returns the strategy for the given identifier.
	// Returns an error wrapped with errors.ErrStrategyNotFound when no
	// strategy exists for the identifier.
	Strategy(ctx context.Context, strategyID string) (*domain.Strategy, error)
}

// GapProvider serves stored content gap analyses.
type GapProvider interface {
	// GapAnalysis returns the latest gap analysis for the given user.
	// Returns an error wrapped with errors.ErrGapDataNotFound when no
	// analysis exists for the user.
	GapAnalysis(ctx context.Context, userID string) (*domain.GapAnalysis, error)
}

// AudienceProvider serves stored audience profile data.
type AudienceProvider interface {
	// Profile returns the audience profile data for the given user.
	// Returns an error wrapped with errors.ErrProfileNotFound when no
	// profile exists for the user.
	Profile(ctx context.Context, userID string) (*domain.ProfileData, error)
}

// DataSource bundles the three read ports the pipeline needs. FileStore
// implements it directly; WithRetry decorates it.
type DataSource interface {
	StrategyProvider
	GapProvider
	AudienceProvider
}
