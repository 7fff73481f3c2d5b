package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/constants"
)

// Can't use t.Parallel() with t.Setenv()
func TestOpenRunStore_DefaultHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CADENCE_HOME", home)

	store, err := openRunStore("")
	require.NoError(t, err)

	run := newTestRun(testRunID(1), "b2b-saas-q3", constants.RunStatusPending)
	require.NoError(t, store.Create(context.Background(), run))

	_, err = os.Stat(filepath.Join(home, constants.RunsDir, run.ID, constants.RunFileName))
	assert.NoError(t, err, "runs live under the configured cadence home")
}

func TestOpenRunStore_ExplicitHome(t *testing.T) {
	t.Parallel()

	store, err := openRunStore(t.TempDir())
	require.NoError(t, err)

	run := newTestRun(testRunID(2), "b2b-saas-q3", constants.RunStatusPending)
	require.NoError(t, store.Create(context.Background(), run))

	got, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
}

// Can't use t.Parallel() with t.Setenv()
func TestBuildEngine(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CADENCE_HOME", t.TempDir())

	engine, err := buildEngine(config.DefaultConfig(), zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, engine)
	engine.Close()
}

// Can't use t.Parallel() with t.Setenv()
func TestBuildEngine_DataDirOverride(t *testing.T) {
	t.Setenv("CADENCE_HOME", t.TempDir())

	cfg := config.DefaultConfig()
	cfg.Providers.DataDir = t.TempDir()

	engine, err := buildEngine(cfg, zerolog.Nop())
	require.NoError(t, err)
	engine.Close()
}
