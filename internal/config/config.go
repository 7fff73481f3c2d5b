// Package config provides configuration management for Cadence with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (CADENCE_* prefix)
//  3. Project config (.cadence/config.yaml)
//  4. Global config (~/.cadence/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// The loaded Config is process-wide and immutable: the engine, gate registry,
// and scheduler are built from it once at startup and never reconfigured
// mid-run.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config is the root configuration structure for Cadence.
// It contains all configuration sections for the application.
type Config struct {
	// Pipeline contains settings for stage execution and pass thresholds.
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`

	// Gates contains weights, thresholds, and rule parameters for the
	// quality gate registry.
	Gates GatesConfig `yaml:"gates" mapstructure:"gates"`

	// Generation contains settings for the generation client.
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`

	// Providers contains settings for the read-only data providers.
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`

	// Scheduler contains sizing for the concurrent-run worker pool.
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
}

// PipelineConfig contains settings for stage execution.
type PipelineConfig struct {
	// CollaboratorTimeout bounds every data-provider call.
	// Default: 30s
	CollaboratorTimeout time.Duration `yaml:"collaborator_timeout" mapstructure:"collaborator_timeout"`

	// DefaultThreshold is the minimum weighted gate score a stage result
	// must reach unless the stage overrides it.
	// Default: 0.75, Valid range: (0, 1]
	DefaultThreshold float64 `yaml:"default_threshold" mapstructure:"default_threshold"`

	// StageThresholds overrides the pass threshold for individual stages,
	// keyed by stage name (e.g., "daily-items": 0.8).
	StageThresholds map[string]float64 `yaml:"stage_thresholds,omitempty" mapstructure:"stage_thresholds"`
}

// ThresholdFor returns the pass threshold for the named stage, falling back
// to the default when no override is configured.
func (c *PipelineConfig) ThresholdFor(stageName string) float64 {
	if t, ok := c.StageThresholds[stageName]; ok {
		return t
	}
	return c.DefaultThreshold
}

// GatesConfig contains the quality gate registry configuration.
// Weights and thresholds are keyed by gate id: uniqueness, content_mix,
// structure, continuity, standards, alignment.
type GatesConfig struct {
	// Weights assigns each gate's share of the overall score. Weights are
	// normalized across the gates applicable to a stage, so they need not
	// sum to 1.
	Weights map[string]float64 `yaml:"weights" mapstructure:"weights"`

	// Thresholds sets each gate's own violation threshold: a component
	// score below its threshold marks the gate violated regardless of the
	// overall score.
	Thresholds map[string]float64 `yaml:"thresholds" mapstructure:"thresholds"`

	// Mix configures the content category balance bands.
	Mix MixConfig `yaml:"mix" mapstructure:"mix"`

	// Standards configures professional content rules.
	Standards StandardsConfig `yaml:"standards" mapstructure:"standards"`

	// Uniqueness configures duplicate and cannibalization detection.
	Uniqueness UniquenessConfig `yaml:"uniqueness" mapstructure:"uniqueness"`
}

// MixConfig holds the allowed percentage band per content category.
type MixConfig struct {
	// Bands maps category names to their allowed share of the calendar,
	// e.g. "promotional": {min: 5, max: 15}. Percentages, not fractions.
	Bands map[string]Band `yaml:"bands" mapstructure:"bands"`
}

// Band is an inclusive percentage range.
type Band struct {
	// Min is the lowest acceptable share in percent.
	Min float64 `yaml:"min" mapstructure:"min"`

	// Max is the highest acceptable share in percent.
	Max float64 `yaml:"max" mapstructure:"max"`
}

// StandardsConfig holds professional content rules for the standards gate.
type StandardsConfig struct {
	// MinTitleLength is the minimum title length in runes.
	// Default: 8
	MinTitleLength int `yaml:"min_title_length" mapstructure:"min_title_length"`

	// MaxTitleLength is the maximum title length in runes.
	// Default: 120
	MaxTitleLength int `yaml:"max_title_length" mapstructure:"max_title_length"`

	// BannedPhrases lists phrases that items must not contain
	// (case-insensitive substring match on titles and topics).
	BannedPhrases []string `yaml:"banned_phrases" mapstructure:"banned_phrases"`
}

// UniquenessConfig holds duplicate-detection parameters for the uniqueness gate.
type UniquenessConfig struct {
	// NearDuplicateRatio is the token-set similarity at or above which two
	// titles count as near-duplicates.
	// Default: 0.85, Valid range: (0, 1]
	NearDuplicateRatio float64 `yaml:"near_duplicate_ratio" mapstructure:"near_duplicate_ratio"`

	// MaxKeywordOverlap is the maximum acceptable mean pairwise keyword
	// overlap across items before the calendar counts as cannibalizing
	// its own reach.
	// Default: 0.5, Valid range: (0, 1]
	MaxKeywordOverlap float64 `yaml:"max_keyword_overlap" mapstructure:"max_keyword_overlap"`
}

// GenerationConfig contains settings for the generation client.
// The client spawns Command once per generation request, writes the JSON
// request to stdin, and reads the JSON payload from stdout.
type GenerationConfig struct {
	// Command is the executable invoked per generation request.
	// Default: "cadence-gen"
	Command string `yaml:"command" mapstructure:"command"`

	// Args are additional arguments passed to Command.
	Args []string `yaml:"args,omitempty" mapstructure:"args"`

	// Timeout bounds a single generation request.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// WorkingDir is the directory Command runs in. Empty means inherit.
	WorkingDir string `yaml:"working_dir,omitempty" mapstructure:"working_dir"`
}

// ProvidersConfig contains settings for the file-backed data providers.
type ProvidersConfig struct {
	// DataDir is the root directory holding strategies/, gaps/, and
	// profiles/ subdirectories. Empty means ~/.cadence/data.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// RetryEnabled turns on bounded retry for provider reads. Retries
	// apply to these idempotent lookups only; generation requests are
	// never retried.
	// Default: true
	RetryEnabled bool `yaml:"retry_enabled" mapstructure:"retry_enabled"`

	// MaxRetries is the attempt limit per provider read when retry is enabled.
	// Default: 3, Valid range: 1-10
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
}

// SchedulerConfig contains sizing for the concurrent-run worker pool.
type SchedulerConfig struct {
	// Workers is the number of pipeline runs that may execute concurrently.
	// Default: 4, Valid range: 1-64
	Workers int `yaml:"workers" mapstructure:"workers"`

	// QueueSize is the capacity of the pending-run queue. Submissions
	// beyond worker capacity wait here; a full queue rejects submission.
	// Default: 16, Valid range: 1-1024
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
}
