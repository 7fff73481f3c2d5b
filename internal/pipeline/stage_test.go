package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

func TestValidateStages(t *testing.T) {
	t.Run("accepts the full sequence", func(t *testing.T) {
		stages, _ := stubPipeline()
		assert.NoError(t, ValidateStages(stages))
	})

	t.Run("rejects a short sequence", func(t *testing.T) {
		stages, _ := stubPipeline()
		err := ValidateStages(stages[:11])
		require.ErrorIs(t, err, cadenceerrors.ErrConfigInvalidPipeline)
		assert.Contains(t, err.Error(), "expected 12 stages")
	})

	t.Run("rejects a nil stage", func(t *testing.T) {
		stages, _ := stubPipeline()
		stages[3] = nil
		err := ValidateStages(stages)
		require.ErrorIs(t, err, cadenceerrors.ErrConfigInvalidPipeline)
		assert.Contains(t, err.Error(), "position 3")
	})

	t.Run("rejects out-of-order identifiers", func(t *testing.T) {
		stages, _ := stubPipeline()
		stages[0], stages[1] = stages[1], stages[0]
		err := ValidateStages(stages)
		assert.ErrorIs(t, err, cadenceerrors.ErrConfigInvalidPipeline)
	})

	t.Run("rejects a missing name", func(t *testing.T) {
		stages, _ := stubPipeline()
		stages[6].(*stubStage).def.Name = ""
		err := ValidateStages(stages)
		require.ErrorIs(t, err, cadenceerrors.ErrConfigInvalidPipeline)
		assert.Contains(t, err.Error(), "no name")
	})

	t.Run("rejects a wrong phase", func(t *testing.T) {
		stages, _ := stubPipeline()
		stages[3].(*stubStage).def.Phase = domain.PhaseFoundation
		err := ValidateStages(stages)
		require.ErrorIs(t, err, cadenceerrors.ErrConfigInvalidPipeline)
		assert.Contains(t, err.Error(), "phase")
	})

	t.Run("rejects a threshold above one", func(t *testing.T) {
		stages, _ := stubPipeline()
		stages[7].(*stubStage).def.Threshold = 1.2
		err := ValidateStages(stages)
		assert.ErrorIs(t, err, cadenceerrors.ErrConfigInvalidPipeline)
	})

	t.Run("rejects a negative threshold", func(t *testing.T) {
		stages, _ := stubPipeline()
		stages[7].(*stubStage).def.Threshold = -0.1
		err := ValidateStages(stages)
		assert.ErrorIs(t, err, cadenceerrors.ErrConfigInvalidPipeline)
	})

	t.Run("rejects an upstream dependency that does not run earlier", func(t *testing.T) {
		stages, _ := stubPipeline()
		stages[4].(*stubStage).def.RequiredUpstream = []domain.StageID{5}
		err := ValidateStages(stages)
		require.ErrorIs(t, err, cadenceerrors.ErrConfigInvalidPipeline)
		assert.Contains(t, err.Error(), "does not run earlier")
	})

	t.Run("rejects an upstream dependency of zero", func(t *testing.T) {
		stages, _ := stubPipeline()
		stages[4].(*stubStage).def.RequiredUpstream = []domain.StageID{0}
		err := ValidateStages(stages)
		assert.ErrorIs(t, err, cadenceerrors.ErrConfigInvalidPipeline)
	})
}
