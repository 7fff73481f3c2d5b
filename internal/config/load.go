package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/cadencelabs/cadence/internal/errors"
)

// mergeFloat64Maps merges src map into dst map, creating dst if nil.
// Returns the merged map (which may be the same as dst if it was non-nil).
func mergeFloat64Maps(dst, src map[string]float64) map[string]float64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]float64, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// newViperInstance creates a new Viper instance with standard Cadence configuration.
// This includes environment variable prefix (CADENCE_), key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CADENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
// This helps consolidate the common pattern of checking for missing config files.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (CADENCE_* prefix)
//  2. Project config (.cadence/config.yaml)
//  3. Global config (~/.cadence/config.yaml)
//  4. Built-in defaults
//
// For CLI flag overrides, use LoadWithOverrides instead.
//
// The function returns an error only for actual configuration problems,
// not for missing config files (which are expected in many scenarios).
//
// The context parameter is accepted for API consistency and future use,
// but is not currently used for cancellation since config file reads are
// typically fast local I/O operations.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	// Load global config first (lower precedence)
	// Global config provides user-wide defaults that can be overridden per-project
	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	// Load project config (higher precedence, merges over global)
	// Project config allows per-project customization
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	// Log loaded configuration for debugging
	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Dur("pipeline.collaborator_timeout", cfg.Pipeline.CollaboratorTimeout).
		Dur("generation.timeout", cfg.Generation.Timeout).
		Int("scheduler.workers", cfg.Scheduler.Workers).
		Int("scheduler.queue_size", cfg.Scheduler.QueueSize).
		Msg("configuration loaded and unmarshaled")

	// Validate the configuration
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &cfg, nil
}

// loadGlobalConfig attempts to load the global config file (~/.cadence/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		// Global config doesn't exist or home dir unavailable, skip silently
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// getGlobalConfigPathIfExists returns the global config path if it exists.
// Returns empty string and false if the home directory cannot be determined
// or the config file does not exist.
func getGlobalConfigPathIfExists() (string, bool) {
	globalDir, err := GlobalConfigDir()
	if err != nil {
		return "", false
	}

	globalConfigPath := filepath.Join(globalDir, "config.yaml")
	if _, err := os.Stat(globalConfigPath); err != nil {
		return "", false
	}

	return globalConfigPath, true
}

// loadProjectConfig attempts to load the project config file (.cadence/config.yaml).
// Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		// Project config doesn't exist, skip silently
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// The overrides parameter contains values from CLI flags which have the
// highest precedence in the configuration hierarchy.
//
// Only non-zero values in overrides are applied. Zero values are ignored
// to allow partial overrides.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	// Load base configuration first
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	// Apply overrides if provided
	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	// Re-validate after applying overrides
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// This function allows precise control over which config files are loaded.
//
// projectConfigPath is the path to project-level config (higher priority).
// globalConfigPath is the path to global config (lower priority).
// Either path can be empty to skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	// Load global config first (lower precedence)
	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	// Load project config (higher precedence, merges over global)
	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	// Pipeline defaults
	v.SetDefault("pipeline.collaborator_timeout", "30s")
	v.SetDefault("pipeline.default_threshold", 0.75)
	v.SetDefault("pipeline.stage_thresholds", map[string]float64{})

	// Gates defaults
	v.SetDefault("gates.weights", map[string]float64{
		"uniqueness":  0.25,
		"content_mix": 0.20,
		"structure":   0.20,
		"continuity":  0.15,
		"standards":   0.10,
		"alignment":   0.10,
	})
	v.SetDefault("gates.thresholds", map[string]float64{
		"uniqueness":  0.80,
		"content_mix": 0.80,
		"structure":   1.00,
		"continuity":  0.60,
		"standards":   0.70,
		"alignment":   0.80,
	})
	v.SetDefault("gates.mix.bands", map[string]map[string]float64{
		"educational":        {"min": 30, "max": 50},
		"thought_leadership": {"min": 20, "max": 40},
		"engagement":         {"min": 15, "max": 35},
		"promotional":        {"min": 5, "max": 15},
	})
	v.SetDefault("gates.standards.min_title_length", 8)
	v.SetDefault("gates.standards.max_title_length", 120)
	v.SetDefault("gates.standards.banned_phrases", []string{})
	v.SetDefault("gates.uniqueness.near_duplicate_ratio", 0.85)
	v.SetDefault("gates.uniqueness.max_keyword_overlap", 0.50)

	// Generation defaults
	v.SetDefault("generation.command", "cadence-gen")
	v.SetDefault("generation.args", []string{})
	v.SetDefault("generation.timeout", "30s")
	v.SetDefault("generation.working_dir", "")

	// Providers defaults
	v.SetDefault("providers.data_dir", "")
	v.SetDefault("providers.retry_enabled", true)
	v.SetDefault("providers.max_retries", 3)

	// Scheduler defaults
	v.SetDefault("scheduler.workers", 4)
	v.SetDefault("scheduler.queue_size", 16)
}

// applyOverrides merges non-zero override values into the config.
// Only non-zero values are applied to allow partial overrides.
//
// IMPORTANT: Boolean fields (RetryEnabled) cannot be overridden to false
// using this function because Go's zero value for bool is false, making it
// impossible to distinguish "explicitly set to false" from "not set". CLI
// implementations should handle boolean flags separately:
//
//	// Example CLI handling for bool flags:
//	if cmd.Flags().Changed("retry") {
//	    cfg.Providers.RetryEnabled = retryFlag  // Use flag value directly
//	}
func applyOverrides(cfg, overrides *Config) {
	// Pipeline overrides
	if overrides.Pipeline.CollaboratorTimeout != 0 {
		cfg.Pipeline.CollaboratorTimeout = overrides.Pipeline.CollaboratorTimeout
	}
	if overrides.Pipeline.DefaultThreshold != 0 {
		cfg.Pipeline.DefaultThreshold = overrides.Pipeline.DefaultThreshold
	}
	cfg.Pipeline.StageThresholds = mergeFloat64Maps(cfg.Pipeline.StageThresholds, overrides.Pipeline.StageThresholds)

	// Gates overrides (extracted to reduce complexity)
	applyGatesOverrides(cfg, overrides)

	// Generation overrides
	if overrides.Generation.Command != "" {
		cfg.Generation.Command = overrides.Generation.Command
	}
	if len(overrides.Generation.Args) > 0 {
		cfg.Generation.Args = overrides.Generation.Args
	}
	if overrides.Generation.Timeout != 0 {
		cfg.Generation.Timeout = overrides.Generation.Timeout
	}
	if overrides.Generation.WorkingDir != "" {
		cfg.Generation.WorkingDir = overrides.Generation.WorkingDir
	}

	// Providers overrides
	if overrides.Providers.DataDir != "" {
		cfg.Providers.DataDir = overrides.Providers.DataDir
	}
	// RetryEnabled is a bool - we can't distinguish false from unset,
	// so we don't override it here. Use explicit flag handling in CLI.
	if overrides.Providers.MaxRetries != 0 {
		cfg.Providers.MaxRetries = overrides.Providers.MaxRetries
	}

	// Scheduler overrides
	if overrides.Scheduler.Workers != 0 {
		cfg.Scheduler.Workers = overrides.Scheduler.Workers
	}
	if overrides.Scheduler.QueueSize != 0 {
		cfg.Scheduler.QueueSize = overrides.Scheduler.QueueSize
	}
}

// applyGatesOverrides applies gate-related overrides to the config.
// This is extracted from applyOverrides to reduce cognitive complexity.
func applyGatesOverrides(cfg, overrides *Config) {
	cfg.Gates.Weights = mergeFloat64Maps(cfg.Gates.Weights, overrides.Gates.Weights)
	cfg.Gates.Thresholds = mergeFloat64Maps(cfg.Gates.Thresholds, overrides.Gates.Thresholds)

	if len(overrides.Gates.Mix.Bands) > 0 {
		if cfg.Gates.Mix.Bands == nil {
			cfg.Gates.Mix.Bands = make(map[string]Band, len(overrides.Gates.Mix.Bands))
		}
		for category, band := range overrides.Gates.Mix.Bands {
			cfg.Gates.Mix.Bands[category] = band
		}
	}

	if overrides.Gates.Standards.MinTitleLength != 0 {
		cfg.Gates.Standards.MinTitleLength = overrides.Gates.Standards.MinTitleLength
	}
	if overrides.Gates.Standards.MaxTitleLength != 0 {
		cfg.Gates.Standards.MaxTitleLength = overrides.Gates.Standards.MaxTitleLength
	}
	if len(overrides.Gates.Standards.BannedPhrases) > 0 {
		cfg.Gates.Standards.BannedPhrases = overrides.Gates.Standards.BannedPhrases
	}

	if overrides.Gates.Uniqueness.NearDuplicateRatio != 0 {
		cfg.Gates.Uniqueness.NearDuplicateRatio = overrides.Gates.Uniqueness.NearDuplicateRatio
	}
	if overrides.Gates.Uniqueness.MaxKeywordOverlap != 0 {
		cfg.Gates.Uniqueness.MaxKeywordOverlap = overrides.Gates.Uniqueness.MaxKeywordOverlap
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
