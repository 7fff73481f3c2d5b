package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// TestValidate_NilConfig tests that nil config returns error
func TestValidate_NilConfig(t *testing.T) {
	t.Parallel()

	err := Validate(nil)

	require.Error(t, err)
	require.ErrorIs(t, err, cadenceerrors.ErrConfigNil)
}

// TestValidate_DefaultConfig tests that default config is valid
func TestValidate_DefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	err := Validate(cfg)

	require.NoError(t, err)
}

// TestValidate_BoundaryValues tests the extreme ends of every valid range
func TestValidate_BoundaryValues(t *testing.T) {
	t.Parallel()

	low := DefaultConfig()
	low.Pipeline.CollaboratorTimeout = 1 * time.Millisecond
	low.Pipeline.DefaultThreshold = 0.0001
	low.Gates.Standards.MinTitleLength = 1
	low.Gates.Standards.MaxTitleLength = 1
	low.Providers.MaxRetries = 1
	low.Scheduler.Workers = 1
	low.Scheduler.QueueSize = 1
	require.NoError(t, Validate(low), "minimum boundary values should be valid")

	high := DefaultConfig()
	high.Pipeline.DefaultThreshold = 1.0
	high.Gates.Uniqueness.NearDuplicateRatio = 1.0
	high.Gates.Uniqueness.MaxKeywordOverlap = 1.0
	high.Providers.MaxRetries = 10
	high.Scheduler.Workers = 64
	high.Scheduler.QueueSize = 1024
	require.NoError(t, Validate(high), "maximum boundary values should be valid")
}

// TestValidate_InvalidValues tests that each validation rule rejects
// out-of-range values with the right sentinel
func TestValidate_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mutate       func(*Config)
		wantErr      error
		wantContains string
	}{
		{
			name:         "zero collaborator timeout",
			mutate:       func(c *Config) { c.Pipeline.CollaboratorTimeout = 0 },
			wantErr:      cadenceerrors.ErrConfigInvalidPipeline,
			wantContains: "pipeline.collaborator_timeout must be positive",
		},
		{
			name:         "negative collaborator timeout",
			mutate:       func(c *Config) { c.Pipeline.CollaboratorTimeout = -1 * time.Second },
			wantErr:      cadenceerrors.ErrConfigInvalidPipeline,
			wantContains: "pipeline.collaborator_timeout must be positive",
		},
		{
			name:         "zero default threshold",
			mutate:       func(c *Config) { c.Pipeline.DefaultThreshold = 0 },
			wantErr:      cadenceerrors.ErrConfigInvalidPipeline,
			wantContains: "pipeline.default_threshold",
		},
		{
			name:         "default threshold above one",
			mutate:       func(c *Config) { c.Pipeline.DefaultThreshold = 1.2 },
			wantErr:      cadenceerrors.ErrConfigInvalidPipeline,
			wantContains: "pipeline.default_threshold",
		},
		{
			name:         "stage threshold above one",
			mutate:       func(c *Config) { c.Pipeline.StageThresholds = map[string]float64{"assembly": 2} },
			wantErr:      cadenceerrors.ErrConfigInvalidPipeline,
			wantContains: "pipeline.stage_thresholds[assembly]",
		},
		{
			name:         "unknown gate in weights",
			mutate:       func(c *Config) { c.Gates.Weights["sentiment"] = 0.1 },
			wantErr:      cadenceerrors.ErrConfigInvalidGates,
			wantContains: `unknown gate "sentiment"`,
		},
		{
			name:         "negative gate weight",
			mutate:       func(c *Config) { c.Gates.Weights["uniqueness"] = -0.1 },
			wantErr:      cadenceerrors.ErrConfigInvalidGates,
			wantContains: "gates.weights[uniqueness]",
		},
		{
			name:         "unknown gate in thresholds",
			mutate:       func(c *Config) { c.Gates.Thresholds["sentiment"] = 0.5 },
			wantErr:      cadenceerrors.ErrConfigInvalidGates,
			wantContains: `unknown gate "sentiment"`,
		},
		{
			name:         "gate threshold above one",
			mutate:       func(c *Config) { c.Gates.Thresholds["structure"] = 1.5 },
			wantErr:      cadenceerrors.ErrConfigInvalidGates,
			wantContains: "gates.thresholds[structure]",
		},
		{
			name:         "inverted mix band",
			mutate:       func(c *Config) { c.Gates.Mix.Bands["promotional"] = Band{Min: 20, Max: 10} },
			wantErr:      cadenceerrors.ErrConfigInvalidGates,
			wantContains: "gates.mix.bands[promotional]",
		},
		{
			name:         "mix band above 100 percent",
			mutate:       func(c *Config) { c.Gates.Mix.Bands["educational"] = Band{Min: 50, Max: 150} },
			wantErr:      cadenceerrors.ErrConfigInvalidGates,
			wantContains: "gates.mix.bands[educational]",
		},
		{
			name:         "zero min title length",
			mutate:       func(c *Config) { c.Gates.Standards.MinTitleLength = 0 },
			wantErr:      cadenceerrors.ErrConfigInvalidGates,
			wantContains: "gates.standards.min_title_length",
		},
		{
			name: "max title length below min",
			mutate: func(c *Config) {
				c.Gates.Standards.MinTitleLength = 50
				c.Gates.Standards.MaxTitleLength = 10
			},
			wantErr:      cadenceerrors.ErrConfigInvalidGates,
			wantContains: "gates.standards.max_title_length",
		},
		{
			name:         "zero near duplicate ratio",
			mutate:       func(c *Config) { c.Gates.Uniqueness.NearDuplicateRatio = 0 },
			wantErr:      cadenceerrors.ErrConfigInvalidGates,
			wantContains: "gates.uniqueness.near_duplicate_ratio",
		},
		{
			name:         "keyword overlap above one",
			mutate:       func(c *Config) { c.Gates.Uniqueness.MaxKeywordOverlap = 1.1 },
			wantErr:      cadenceerrors.ErrConfigInvalidGates,
			wantContains: "gates.uniqueness.max_keyword_overlap",
		},
		{
			name:         "empty generation command",
			mutate:       func(c *Config) { c.Generation.Command = "" },
			wantErr:      cadenceerrors.ErrConfigInvalidGeneration,
			wantContains: "generation.command must not be empty",
		},
		{
			name:         "zero generation timeout",
			mutate:       func(c *Config) { c.Generation.Timeout = 0 },
			wantErr:      cadenceerrors.ErrConfigInvalidGeneration,
			wantContains: "generation.timeout must be positive",
		},
		{
			name:         "zero max retries",
			mutate:       func(c *Config) { c.Providers.MaxRetries = 0 },
			wantErr:      cadenceerrors.ErrConfigInvalidProviders,
			wantContains: "providers.max_retries",
		},
		{
			name:         "max retries above limit",
			mutate:       func(c *Config) { c.Providers.MaxRetries = 11 },
			wantErr:      cadenceerrors.ErrConfigInvalidProviders,
			wantContains: "providers.max_retries",
		},
		{
			name:         "zero workers",
			mutate:       func(c *Config) { c.Scheduler.Workers = 0 },
			wantErr:      cadenceerrors.ErrConfigInvalidScheduler,
			wantContains: "scheduler.workers",
		},
		{
			name:         "workers above limit",
			mutate:       func(c *Config) { c.Scheduler.Workers = 65 },
			wantErr:      cadenceerrors.ErrConfigInvalidScheduler,
			wantContains: "scheduler.workers",
		},
		{
			name:         "zero queue size",
			mutate:       func(c *Config) { c.Scheduler.QueueSize = 0 },
			wantErr:      cadenceerrors.ErrConfigInvalidScheduler,
			wantContains: "scheduler.queue_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)

			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantContains)
		})
	}
}
