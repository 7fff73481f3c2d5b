package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// MemoryStore implements Store entirely in memory. It backs tests and
// embedded single-process use; nothing survives a restart.
//
// Records are stored and returned as deep copies, so a caller holding a
// *PipelineRun can never mutate store state behind the engine's back.
type MemoryStore struct {
	mu        sync.RWMutex
	runs      map[string]*domain.PipelineRun
	artifacts map[string]*domain.CalendarArtifact
	events    map[string][][]byte
}

// NewMemoryStore creates an empty in-memory run store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:      make(map[string]*domain.PipelineRun),
		artifacts: make(map[string]*domain.CalendarArtifact),
		events:    make(map[string][][]byte),
	}
}

// Create persists a new run record.
func (s *MemoryStore) Create(ctx context.Context, run *domain.PipelineRun) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if run == nil {
		return fmt.Errorf("failed to create run: run %w", cadenceerrors.ErrEmptyValue)
	}
	if run.ID == "" {
		return fmt.Errorf("failed to create run: run ID %w", cadenceerrors.ErrEmptyValue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("failed to create run '%s': %w", run.ID, cadenceerrors.ErrRunExists)
	}

	clone, err := cloneRun(run)
	if err != nil {
		return fmt.Errorf("failed to create run '%s': %w", run.ID, err)
	}
	s.runs[run.ID] = clone
	return nil
}

// Get retrieves a run by ID.
func (s *MemoryStore) Get(ctx context.Context, runID string) (*domain.PipelineRun, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if runID == "" {
		return nil, fmt.Errorf("failed to get run: run ID %w", cadenceerrors.ErrEmptyValue)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[runID]
	if !exists {
		return nil, fmt.Errorf("failed to get run '%s': %w", runID, cadenceerrors.ErrRunNotFound)
	}
	return cloneRun(run)
}

// Update saves the current run state.
func (s *MemoryStore) Update(ctx context.Context, run *domain.PipelineRun) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if run == nil {
		return fmt.Errorf("failed to update run: run %w", cadenceerrors.ErrEmptyValue)
	}
	if run.ID == "" {
		return fmt.Errorf("failed to update run: run ID %w", cadenceerrors.ErrEmptyValue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		return fmt.Errorf("failed to update run '%s': %w", run.ID, cadenceerrors.ErrRunNotFound)
	}

	clone, err := cloneRun(run)
	if err != nil {
		return fmt.Errorf("failed to update run '%s': %w", run.ID, err)
	}
	s.runs[run.ID] = clone
	return nil
}

// List returns all runs, sorted by creation time (newest first).
func (s *MemoryStore) List(ctx context.Context) ([]*domain.PipelineRun, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*domain.PipelineRun, 0, len(s.runs))
	for _, run := range s.runs {
		clone, err := cloneRun(run)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		runs = append(runs, clone)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// Delete removes a run record, its artifact, and its event log.
func (s *MemoryStore) Delete(ctx context.Context, runID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if runID == "" {
		return fmt.Errorf("failed to delete run: run ID %w", cadenceerrors.ErrEmptyValue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; !exists {
		return fmt.Errorf("failed to delete run '%s': %w", runID, cadenceerrors.ErrRunNotFound)
	}
	delete(s.runs, runID)
	delete(s.artifacts, runID)
	delete(s.events, runID)
	return nil
}

// AppendEvent appends a progress event to the run's in-memory event log.
func (s *MemoryStore) AppendEvent(ctx context.Context, runID string, entry []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if runID == "" {
		return fmt.Errorf("failed to append event: run ID %w", cadenceerrors.ErrEmptyValue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; !exists {
		return fmt.Errorf("failed to append event: run '%s' %w", runID, cadenceerrors.ErrRunNotFound)
	}
	s.events[runID] = append(s.events[runID], bytes.Clone(entry))
	return nil
}

// Events returns the recorded event entries for a run. Test helper; the
// file-backed store exposes the same data as events.log.
func (s *MemoryStore) Events(runID string) [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([][]byte, len(s.events[runID]))
	for i, e := range s.events[runID] {
		entries[i] = bytes.Clone(e)
	}
	return entries
}

// SaveArtifact persists the assembled calendar artifact for a run.
func (s *MemoryStore) SaveArtifact(ctx context.Context, runID string, artifact *domain.CalendarArtifact) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if runID == "" {
		return fmt.Errorf("failed to save artifact: run ID %w", cadenceerrors.ErrEmptyValue)
	}
	if artifact == nil {
		return fmt.Errorf("failed to save artifact: artifact %w", cadenceerrors.ErrEmptyValue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; !exists {
		return fmt.Errorf("failed to save artifact: run '%s' %w", runID, cadenceerrors.ErrRunNotFound)
	}

	clone, err := cloneArtifact(artifact)
	if err != nil {
		return fmt.Errorf("failed to save artifact for run '%s': %w", runID, err)
	}
	s.artifacts[runID] = clone
	return nil
}

// GetArtifact retrieves the calendar artifact of a run.
func (s *MemoryStore) GetArtifact(ctx context.Context, runID string) (*domain.CalendarArtifact, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if runID == "" {
		return nil, fmt.Errorf("failed to get artifact: run ID %w", cadenceerrors.ErrEmptyValue)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, exists := s.artifacts[runID]
	if !exists {
		return nil, fmt.Errorf("artifact for run '%s': %w", runID, cadenceerrors.ErrArtifactNotFound)
	}
	return cloneArtifact(artifact)
}

// cloneRun deep-copies a run through its JSON representation, the same
// serialization the file store persists.
func cloneRun(run *domain.PipelineRun) (*domain.PipelineRun, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}
	var clone domain.PipelineRun
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}

func cloneArtifact(artifact *domain.CalendarArtifact) (*domain.CalendarArtifact, error) {
	data, err := json.Marshal(artifact)
	if err != nil {
		return nil, err
	}
	var clone domain.CalendarArtifact
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)
