// Package pipeline provides run persistence and execution for Cadence.
// This file implements the storage layer for pipeline run records,
// with atomic writes and file locking for data integrity.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
	"github.com/cadencelabs/cadence/internal/flock"
)

// LockTimeout is the maximum duration to wait for acquiring a file lock.
const LockTimeout = 5 * time.Second

// Directory and file permission constants.
const (
	dirPerm  = 0o750 // Secure directory permissions
	filePerm = 0o600 // Secure file permissions
)

// validRunIDRegex matches valid run IDs (run-YYYYMMDD-HHMMSS-xxxxxxxx).
var validRunIDRegex = regexp.MustCompile(`^run-\d{8}-\d{6}-[0-9a-f]{8}$`)

// checkRunID rejects run IDs that are empty or outside the canonical format.
// Run IDs become path components under the runs directory, so malformed
// values must never reach the filesystem.
func checkRunID(runID string) error {
	if runID == "" {
		return fmt.Errorf("run ID %w", cadenceerrors.ErrEmptyValue)
	}
	if !validRunIDRegex.MatchString(runID) {
		return fmt.Errorf("run ID '%s': %w", runID, cadenceerrors.ErrInvalidArgument)
	}
	return nil
}

// Store defines the interface for run persistence operations.
type Store interface {
	// Create persists a new run record.
	// Returns ErrRunExists if the run already exists.
	Create(ctx context.Context, run *domain.PipelineRun) error

	// Get retrieves a run by ID.
	// Returns ErrRunNotFound if the run doesn't exist.
	Get(ctx context.Context, runID string) (*domain.PipelineRun, error)

	// Update saves the current run state (atomic write).
	// Returns ErrRunNotFound if the run doesn't exist.
	Update(ctx context.Context, run *domain.PipelineRun) error

	// List returns all runs, sorted by creation time (newest first).
	List(ctx context.Context) ([]*domain.PipelineRun, error)

	// Delete removes a run record and its artifact.
	Delete(ctx context.Context, runID string) error

	// AppendEvent appends a progress event to the run's event log
	// (JSON-lines format).
	AppendEvent(ctx context.Context, runID string, entry []byte) error

	// SaveArtifact persists the assembled calendar artifact for a run.
	SaveArtifact(ctx context.Context, runID string, artifact *domain.CalendarArtifact) error

	// GetArtifact retrieves the calendar artifact of a run.
	// Returns ErrArtifactNotFound if the run never completed assembly.
	GetArtifact(ctx context.Context, runID string) (*domain.CalendarArtifact, error)
}

// FileStore implements Store using the local filesystem. Each run owns one
// directory under <home>/runs containing run.json, events.log, and, for
// completed runs, artifact.json.
type FileStore struct {
	home string // Usually ~/.cadence
}

// NewFileStore creates a new FileStore rooted at the given cadence home
// directory. If home is empty, uses the default ~/.cadence directory.
func NewFileStore(home string) (*FileStore, error) {
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		home = filepath.Join(userHome, constants.CadenceHome)
	}
	return &FileStore{home: home}, nil
}

// Create persists a new run record.
func (s *FileStore) Create(ctx context.Context, run *domain.PipelineRun) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if run == nil {
		return fmt.Errorf("failed to create run: run %w", cadenceerrors.ErrEmptyValue)
	}
	if err := checkRunID(run.ID); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	runDir := s.runDir(run.ID)

	if _, err := os.Stat(runDir); err == nil {
		return fmt.Errorf("failed to create run '%s': %w", run.ID, cadenceerrors.ErrRunExists)
	}

	if err := os.MkdirAll(runDir, dirPerm); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	// Set schema version before saving
	run.SchemaVersion = constants.RunSchemaVersion

	lockFile, err := s.acquireLock(ctx, run.ID)
	if err != nil {
		_ = os.RemoveAll(runDir)
		return fmt.Errorf("failed to create run '%s': %w", run.ID, err)
	}
	defer func() { _ = s.releaseLock(lockFile) }()

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		_ = os.RemoveAll(runDir)
		return fmt.Errorf("failed to create run '%s': %w", run.ID, err)
	}

	if err := atomicWrite(s.runFilePath(run.ID), data); err != nil {
		_ = os.RemoveAll(runDir)
		return fmt.Errorf("failed to create run '%s': %w", run.ID, err)
	}

	return nil
}

// Get retrieves a run by ID.
func (s *FileStore) Get(ctx context.Context, runID string) (*domain.PipelineRun, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := checkRunID(runID); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	runDir := s.runDir(runID)
	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to get run '%s': %w", runID, cadenceerrors.ErrRunNotFound)
	}

	lockFile, err := s.acquireLock(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run '%s': %w", runID, err)
	}
	defer func() { _ = s.releaseLock(lockFile) }()

	data, err := os.ReadFile(s.runFilePath(runID)) //#nosec G304 -- path is validated and constructed from trusted base
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to get run '%s': %w", runID, cadenceerrors.ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to read run '%s': %w", runID, err)
	}

	var run domain.PipelineRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run '%s': corrupted state file: %w", runID, err)
	}

	return &run, nil
}

// Update saves the current run state (atomic write).
func (s *FileStore) Update(ctx context.Context, run *domain.PipelineRun) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if run == nil {
		return fmt.Errorf("failed to update run: run %w", cadenceerrors.ErrEmptyValue)
	}
	if err := checkRunID(run.ID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	runDir := s.runDir(run.ID)
	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		return fmt.Errorf("failed to update run '%s': %w", run.ID, cadenceerrors.ErrRunNotFound)
	}

	lockFile, err := s.acquireLock(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run '%s': %w", run.ID, err)
	}
	defer func() { _ = s.releaseLock(lockFile) }()

	run.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to update run '%s': %w", run.ID, err)
	}

	if err := atomicWrite(s.runFilePath(run.ID), data); err != nil {
		return fmt.Errorf("failed to update run '%s': %w", run.ID, err)
	}

	return nil
}

// List returns all runs, sorted by creation time (newest first).
func (s *FileStore) List(ctx context.Context) ([]*domain.PipelineRun, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	runsDir := s.runsDir()
	if _, err := os.Stat(runsDir); os.IsNotExist(err) {
		return []*domain.PipelineRun{}, nil
	}

	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*domain.PipelineRun, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if !validRunIDRegex.MatchString(entry.Name()) {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		run, err := s.Get(ctx, entry.Name())
		if err != nil {
			// Skip directories without a readable run.json
			continue
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	return runs, nil
}

// Delete removes a run record and its artifact.
func (s *FileStore) Delete(ctx context.Context, runID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := checkRunID(runID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	runDir := s.runDir(runID)
	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		return fmt.Errorf("failed to delete run '%s': %w", runID, cadenceerrors.ErrRunNotFound)
	}

	lockFile, err := s.acquireLock(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run '%s': %w", runID, err)
	}
	// Release before removal since the lock file lives inside the run directory
	_ = s.releaseLock(lockFile)

	if err := os.RemoveAll(runDir); err != nil {
		return fmt.Errorf("failed to delete run '%s': %w", runID, err)
	}

	return nil
}

// AppendEvent appends a progress event to the run's event log.
func (s *FileStore) AppendEvent(ctx context.Context, runID string, entry []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := checkRunID(runID); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	runDir := s.runDir(runID)
	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		return fmt.Errorf("failed to append event: run '%s' %w", runID, cadenceerrors.ErrRunNotFound)
	}

	lockFile, err := s.acquireLock(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	defer func() { _ = s.releaseLock(lockFile) }()

	f, err := os.OpenFile(s.eventsFilePath(runID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Ensure entry ends with newline for JSON-lines format
	if len(entry) > 0 && entry[len(entry)-1] != '\n' {
		entry = append(entry, '\n')
	}

	if _, err := f.Write(entry); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync event log: %w", err)
	}

	return nil
}

// SaveArtifact persists the assembled calendar artifact for a run.
func (s *FileStore) SaveArtifact(ctx context.Context, runID string, artifact *domain.CalendarArtifact) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := checkRunID(runID); err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	if artifact == nil {
		return fmt.Errorf("failed to save artifact: artifact %w", cadenceerrors.ErrEmptyValue)
	}

	runDir := s.runDir(runID)
	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		return fmt.Errorf("failed to save artifact: run '%s' %w", runID, cadenceerrors.ErrRunNotFound)
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to save artifact for run '%s': %w", runID, err)
	}

	if err := atomicWrite(s.artifactFilePath(runID), data); err != nil {
		return fmt.Errorf("failed to save artifact for run '%s': %w", runID, err)
	}

	return nil
}

// GetArtifact retrieves the calendar artifact of a run.
func (s *FileStore) GetArtifact(ctx context.Context, runID string) (*domain.CalendarArtifact, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := checkRunID(runID); err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	data, err := os.ReadFile(s.artifactFilePath(runID)) //#nosec G304 -- path is validated and constructed from trusted base
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact for run '%s': %w", runID, cadenceerrors.ErrArtifactNotFound)
		}
		return nil, fmt.Errorf("failed to read artifact for run '%s': %w", runID, err)
	}

	var artifact domain.CalendarArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse artifact for run '%s': corrupted file: %w", runID, err)
	}

	return &artifact, nil
}

// Helper methods for path construction

// runsDir returns the path to the runs directory.
func (s *FileStore) runsDir() string {
	return filepath.Join(s.home, constants.RunsDir)
}

// runDir returns the path to a specific run's directory.
func (s *FileStore) runDir(runID string) string {
	return filepath.Join(s.runsDir(), runID)
}

// runFilePath returns the path to a run's JSON file.
func (s *FileStore) runFilePath(runID string) string {
	return filepath.Join(s.runDir(runID), constants.RunFileName)
}

// eventsFilePath returns the path to a run's event log.
func (s *FileStore) eventsFilePath(runID string) string {
	return filepath.Join(s.runDir(runID), constants.EventsFileName)
}

// artifactFilePath returns the path to a run's artifact file.
func (s *FileStore) artifactFilePath(runID string) string {
	return filepath.Join(s.runDir(runID), constants.ArtifactFileName)
}

// lockFilePath returns the path to a run's lock file.
func (s *FileStore) lockFilePath(runID string) string {
	return filepath.Join(s.runDir(runID), constants.RunFileName+".lock")
}

// acquireLock acquires an exclusive file lock for the run.
// It respects context cancellation during the lock acquisition retry loop.
func (s *FileStore) acquireLock(ctx context.Context, runID string) (*os.File, error) {
	runDir := s.runDir(runID)
	if err := os.MkdirAll(runDir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(s.lockFilePath(runID), os.O_CREATE|os.O_RDWR, filePerm) //#nosec G302,G304 -- lock file needs write access, path is constructed from validated name
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	deadline := time.Now().Add(LockTimeout)
	for {
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		default:
		}

		if err := flock.Exclusive(f.Fd()); err == nil {
			return f, nil
		}

		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("failed to acquire lock: %w", cadenceerrors.ErrLockTimeout)
		}

		time.Sleep(50 * time.Millisecond)
	}
}

// releaseLock releases a file lock.
func (s *FileStore) releaseLock(f *os.File) error {
	if f == nil {
		return nil
	}
	if err := flock.Unlock(f.Fd()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return f.Close()
}

// atomicWrite writes data to a file atomically using write-then-rename.
// Uses filePerm (0o600) for secure file permissions.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	// Sync before rename so a crash cannot leave a persisted rename of
	// unpersisted data
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// GenerateRunID generates a run ID with format run-YYYYMMDD-HHMMSS-xxxxxxxx.
// The random suffix makes IDs generated within the same second distinct, so
// concurrent submissions never collide. Create still enforces uniqueness via
// the filesystem check.
func GenerateRunID() string {
	now := time.Now().UTC()
	return fmt.Sprintf("run-%s-%s-%s",
		now.Format("20060102"),
		now.Format("150405"),
		uuid.NewString()[:8])
}
