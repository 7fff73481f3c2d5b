package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

const (
	// strategiesDir holds strategy files, one per strategy id.
	strategiesDir = "strategies"
	// gapsDir holds gap analysis files, one per user id.
	gapsDir = "gaps"
	// profilesDir holds audience profile files, one per user id.
	profilesDir = "profiles"
	// fileExtension is the extension of provider data files.
	fileExtension = ".yaml"
	// maxDataFileSize is the maximum allowed size for a data file (1MB).
	maxDataFileSize = 1024 * 1024
)

// FileStore serves provider data from YAML files under a data directory:
//
//	<dataDir>/strategies/<strategy-id>.yaml
//	<dataDir>/gaps/<user-id>.yaml
//	<dataDir>/profiles/<user-id>.yaml
//
// Files are read fresh on every lookup so edits take effect without a
// restart. A missing file maps to the port's typed not-found error; a file
// that exists but cannot be parsed maps to ErrMalformedProviderData.
type FileStore struct {
	// dir is the absolute path to the data directory.
	dir string
}

// NewFileStore creates a FileStore rooted at dataDir.
// If dataDir is empty, the current working directory is used.
func NewFileStore(dataDir string) (*FileStore, error) {
	if dataDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		dataDir = cwd
	}

	// Convert to absolute path
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	return &FileStore{dir: absDir}, nil
}

// Dir returns the absolute path to the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Strategy returns the strategy stored under strategies/<strategyID>.yaml.
func (s *FileStore) Strategy(ctx context.Context, strategyID string) (*domain.Strategy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, strategiesDir, strategyID+fileExtension)
	var strategy domain.Strategy
	if err := s.loadFile(path, cadenceerrors.ErrStrategyNotFound, strategyID, &strategy); err != nil {
		return nil, err
	}

	if strategy.ID == "" {
		strategy.ID = strategyID
	}
	if len(strategy.Pillars) == 0 {
		return nil, fmt.Errorf("%w: strategy %s declares no pillars", cadenceerrors.ErrMalformedProviderData, strategyID)
	}

	return &strategy, nil
}

// GapAnalysis returns the gap analysis stored under gaps/<userID>.yaml.
func (s *FileStore) GapAnalysis(ctx context.Context, userID string) (*domain.GapAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, gapsDir, userID+fileExtension)
	var analysis domain.GapAnalysis
	if err := s.loadFile(path, cadenceerrors.ErrGapDataNotFound, userID, &analysis); err != nil {
		return nil, err
	}

	if analysis.UserID == "" {
		analysis.UserID = userID
	}

	return &analysis, nil
}

// Profile returns the audience profile stored under profiles/<userID>.yaml.
func (s *FileStore) Profile(ctx context.Context, userID string) (*domain.ProfileData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, profilesDir, userID+fileExtension)
	var profile domain.ProfileData
	if err := s.loadFile(path, cadenceerrors.ErrProfileNotFound, userID, &profile); err != nil {
		return nil, err
	}

	if profile.UserID == "" {
		profile.UserID = userID
	}
	if len(profile.Platforms) == 0 {
		return nil, fmt.Errorf("%w: profile %s declares no platforms", cadenceerrors.ErrMalformedProviderData, userID)
	}

	return &profile, nil
}

// loadFile reads and parses a single provider YAML file into out.
// notFound is the port's typed sentinel for a missing file; id is the
// lookup key for error messages.
func (s *FileStore) loadFile(path string, notFound error, id string, out any) error {
	// Check file size before reading to prevent memory exhaustion
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", notFound, id)
		}
		return fmt.Errorf("failed to stat %s: %w", filepath.Base(path), err)
	}
	if info.Size() > maxDataFileSize {
		return fmt.Errorf("%w: file too large (%d > %d bytes)",
			cadenceerrors.ErrMalformedProviderData, info.Size(), maxDataFileSize)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is constructed from trusted directory
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", cadenceerrors.ErrMalformedProviderData, err)
	}

	return nil
}

// Compile-time check that FileStore implements DataSource.
var _ DataSource = (*FileStore)(nil)
