package cli

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/gate"
	"github.com/cadencelabs/cadence/internal/gen"
	"github.com/cadencelabs/cadence/internal/pipeline"
	"github.com/cadencelabs/cadence/internal/pipeline/stages"
	"github.com/cadencelabs/cadence/internal/providers"
)

// buildEngine assembles a pipeline engine from configuration: the file-backed
// data source wrapped with retry, the subprocess generation client, the gate
// registry, the calendar stage sequence, and the run store.
//
// The clock is left unset so the engine uses real time.
func buildEngine(cfg *config.Config, logger zerolog.Logger) (*pipeline.Engine, error) {
	dataDir, err := cfg.Providers.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	fileSource, err := providers.NewFileStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open provider data store: %w", err)
	}
	source := providers.WithRetry(fileSource, &cfg.Providers, providers.WithRetryLogger(logger))

	generator := gen.NewCommandClient(&cfg.Generation, nil, gen.WithCommandLogger(logger))

	gates, err := gate.NewRegistry(&cfg.Gates)
	if err != nil {
		return nil, fmt.Errorf("failed to build gate registry: %w", err)
	}

	store, err := openRunStore("")
	if err != nil {
		return nil, err
	}

	return pipeline.NewEngine(
		store,
		gates,
		stages.Calendar(&cfg.Pipeline),
		pipeline.Collaborators{
			Source:    source,
			Generator: generator,
		},
		pipeline.EngineConfig{
			CollaboratorTimeout: cfg.Pipeline.CollaboratorTimeout,
			Workers:             cfg.Scheduler.Workers,
			QueueSize:           cfg.Scheduler.QueueSize,
		},
		logger,
	)
}

// openRunStore opens the file-backed run store under the given home
// directory; an empty home selects the default cadence home. Read-only
// commands use this directly instead of assembling a full engine, so
// inspecting runs never requires a configured generation command or
// provider data.
func openRunStore(home string) (*pipeline.FileStore, error) {
	if home == "" {
		var err error
		if home, err = cadenceHome(); err != nil {
			return nil, err
		}
	}
	store, err := pipeline.NewFileStore(home)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return store, nil
}
