package config

import (
	"github.com/cadencelabs/cadence/internal/errors"
)

// knownGateIDs lists the gate identifiers the registry ships with.
// Weight and threshold maps may only reference these ids.
var knownGateIDs = map[string]bool{
	"uniqueness":  true,
	"content_mix": true,
	"structure":   true,
	"continuity":  true,
	"standards":   true,
	"alignment":   true,
}

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - Pipeline collaborator timeout must be positive
//   - Pipeline thresholds must be in (0, 1]
//   - Gate weights must be non-negative and reference known gate ids
//   - Gate thresholds must be in [0, 1] and reference known gate ids
//   - Mix bands must satisfy 0 <= min <= max <= 100
//   - Generation command must not be empty and timeout must be positive
//   - Provider max retries must be between 1 and 10
//   - Scheduler workers must be between 1 and 64, queue size between 1 and 1024
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	// Validate Pipeline config
	if err := validatePipelineConfig(&cfg.Pipeline); err != nil {
		return err
	}

	// Validate Gates config
	if err := validateGatesConfig(&cfg.Gates); err != nil {
		return err
	}

	// Validate Generation config
	if err := validateGenerationConfig(&cfg.Generation); err != nil {
		return err
	}

	// Validate Providers config
	if err := validateProvidersConfig(&cfg.Providers); err != nil {
		return err
	}

	// Validate Scheduler config
	if err := validateSchedulerConfig(&cfg.Scheduler); err != nil {
		return err
	}

	return nil
}

// validatePipelineConfig checks pipeline-specific configuration values.
func validatePipelineConfig(cfg *PipelineConfig) error {
	if cfg.CollaboratorTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidPipeline,
			"pipeline.collaborator_timeout must be positive, got %s", cfg.CollaboratorTimeout)
	}

	if cfg.DefaultThreshold <= 0 || cfg.DefaultThreshold > 1 {
		return errors.Wrapf(errors.ErrConfigInvalidPipeline,
			"pipeline.default_threshold must be in (0, 1], got %g", cfg.DefaultThreshold)
	}

	for stage, threshold := range cfg.StageThresholds {
		if threshold <= 0 || threshold > 1 {
			return errors.Wrapf(errors.ErrConfigInvalidPipeline,
				"pipeline.stage_thresholds[%s] must be in (0, 1], got %g", stage, threshold)
		}
	}

	return nil
}

// validateGatesConfig checks gate-specific configuration values.
func validateGatesConfig(cfg *GatesConfig) error {
	for id, weight := range cfg.Weights {
		if !knownGateIDs[id] {
			return errors.Wrapf(errors.ErrConfigInvalidGates,
				"gates.weights references unknown gate %q", id)
		}
		if weight < 0 {
			return errors.Wrapf(errors.ErrConfigInvalidGates,
				"gates.weights[%s] must not be negative, got %g", id, weight)
		}
	}

	for id, threshold := range cfg.Thresholds {
		if !knownGateIDs[id] {
			return errors.Wrapf(errors.ErrConfigInvalidGates,
				"gates.thresholds references unknown gate %q", id)
		}
		if threshold < 0 || threshold > 1 {
			return errors.Wrapf(errors.ErrConfigInvalidGates,
				"gates.thresholds[%s] must be in [0, 1], got %g", id, threshold)
		}
	}

	for category, band := range cfg.Mix.Bands {
		if band.Min < 0 || band.Max > 100 || band.Min > band.Max {
			return errors.Wrapf(errors.ErrConfigInvalidGates,
				"gates.mix.bands[%s] must satisfy 0 <= min <= max <= 100, got min=%g max=%g",
				category, band.Min, band.Max)
		}
	}

	if cfg.Standards.MinTitleLength < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidGates,
			"gates.standards.min_title_length must be at least 1, got %d", cfg.Standards.MinTitleLength)
	}
	if cfg.Standards.MaxTitleLength < cfg.Standards.MinTitleLength {
		return errors.Wrapf(errors.ErrConfigInvalidGates,
			"gates.standards.max_title_length must be >= min_title_length, got %d < %d",
			cfg.Standards.MaxTitleLength, cfg.Standards.MinTitleLength)
	}

	if cfg.Uniqueness.NearDuplicateRatio <= 0 || cfg.Uniqueness.NearDuplicateRatio > 1 {
		return errors.Wrapf(errors.ErrConfigInvalidGates,
			"gates.uniqueness.near_duplicate_ratio must be in (0, 1], got %g", cfg.Uniqueness.NearDuplicateRatio)
	}
	if cfg.Uniqueness.MaxKeywordOverlap <= 0 || cfg.Uniqueness.MaxKeywordOverlap > 1 {
		return errors.Wrapf(errors.ErrConfigInvalidGates,
			"gates.uniqueness.max_keyword_overlap must be in (0, 1], got %g", cfg.Uniqueness.MaxKeywordOverlap)
	}

	return nil
}

// validateGenerationConfig checks generation-client configuration values.
func validateGenerationConfig(cfg *GenerationConfig) error {
	if cfg.Command == "" {
		return errors.Wrap(errors.ErrConfigInvalidGeneration,
			"generation.command must not be empty")
	}

	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidGeneration,
			"generation.timeout must be positive, got %s", cfg.Timeout)
	}

	return nil
}

// validateProvidersConfig checks provider-specific configuration values.
func validateProvidersConfig(cfg *ProvidersConfig) error {
	if cfg.MaxRetries < 1 || cfg.MaxRetries > 10 {
		return errors.Wrapf(errors.ErrConfigInvalidProviders,
			"providers.max_retries must be between 1 and 10, got %d", cfg.MaxRetries)
	}

	return nil
}

// validateSchedulerConfig checks scheduler-specific configuration values.
func validateSchedulerConfig(cfg *SchedulerConfig) error {
	if cfg.Workers < 1 || cfg.Workers > 64 {
		return errors.Wrapf(errors.ErrConfigInvalidScheduler,
			"scheduler.workers must be between 1 and 64, got %d", cfg.Workers)
	}

	if cfg.QueueSize < 1 || cfg.QueueSize > 1024 {
		return errors.Wrapf(errors.ErrConfigInvalidScheduler,
			"scheduler.queue_size must be between 1 and 1024, got %d", cfg.QueueSize)
	}

	return nil
}
