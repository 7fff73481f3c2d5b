package config

import "github.com/cadencelabs/cadence/internal/constants"

// DefaultConfig returns a Config populated with built-in defaults.
// These match the defaults applied by Load when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			CollaboratorTimeout: constants.DefaultCollaboratorTimeout,
			DefaultThreshold:    0.75,
			StageThresholds:     map[string]float64{},
		},
		Gates: GatesConfig{
			Weights: map[string]float64{
				"uniqueness":  0.25,
				"content_mix": 0.20,
				"structure":   0.20,
				"continuity":  0.15,
				"standards":   0.10,
				"alignment":   0.10,
			},
			Thresholds: map[string]float64{
				"uniqueness":  0.80,
				"content_mix": 0.80,
				"structure":   1.00,
				"continuity":  0.60,
				"standards":   0.70,
				"alignment":   0.80,
			},
			Mix: MixConfig{
				Bands: map[string]Band{
					"educational":        {Min: 30, Max: 50},
					"thought_leadership": {Min: 20, Max: 40},
					"engagement":         {Min: 15, Max: 35},
					"promotional":        {Min: 5, Max: 15},
				},
			},
			Standards: StandardsConfig{
				MinTitleLength: 8,
				MaxTitleLength: 120,
				BannedPhrases:  []string{},
			},
			Uniqueness: UniquenessConfig{
				NearDuplicateRatio: 0.85,
				MaxKeywordOverlap:  0.50,
			},
		},
		Generation: GenerationConfig{
			Command: "cadence-gen",
			Args:    []string{},
			Timeout: constants.DefaultGenerationTimeout,
		},
		Providers: ProvidersConfig{
			DataDir:      "",
			RetryEnabled: true,
			MaxRetries:   constants.MaxRetryAttempts,
		},
		Scheduler: SchedulerConfig{
			Workers:   constants.DefaultWorkerCount,
			QueueSize: constants.DefaultQueueSize,
		},
	}
}
