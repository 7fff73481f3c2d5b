package gate

import (
	"sort"
	"sync"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// Registry holds the configured quality gates together with their weights
// and per-gate violation thresholds. It is built once from immutable
// configuration and is safe for concurrent use.
//
// New gates plug in through Register; the evaluation path never needs to
// change when one is added.
type Registry struct {
	mu         sync.RWMutex
	gates      map[domain.GateID]Gate
	weights    map[domain.GateID]float64
	thresholds map[domain.GateID]float64
}

// NewRegistry builds a registry containing the six built-in gates,
// configured from cfg. The weight and threshold maps are copied so later
// mutation of cfg cannot change evaluation behavior.
func NewRegistry(cfg *config.GatesConfig) (*Registry, error) {
	if cfg == nil {
		return nil, cadenceerrors.Wrap(cadenceerrors.ErrConfigNil, "gate registry")
	}

	r := &Registry{
		gates:      make(map[domain.GateID]Gate),
		weights:    make(map[domain.GateID]float64, len(cfg.Weights)),
		thresholds: make(map[domain.GateID]float64, len(cfg.Thresholds)),
	}
	for id, w := range cfg.Weights {
		r.weights[domain.GateID(id)] = w
	}
	for id, t := range cfg.Thresholds {
		r.thresholds[domain.GateID(id)] = t
	}

	builtins := []Gate{
		NewUniquenessGate(cfg.Uniqueness),
		NewContentMixGate(cfg.Mix),
		NewStructureGate(),
		NewContinuityGate(),
		NewStandardsGate(cfg.Standards),
		NewAlignmentGate(),
	}
	for _, g := range builtins {
		if err := r.Register(g); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a gate to the registry. Registering the same identifier
// twice returns ErrGateDuplicate.
func (r *Registry) Register(g Gate) error {
	if g == nil {
		return cadenceerrors.Wrap(cadenceerrors.ErrGateNotFound, "cannot register nil gate")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := g.ID()
	if _, exists := r.gates[id]; exists {
		return cadenceerrors.Wrapf(cadenceerrors.ErrGateDuplicate, "%s", id)
	}
	r.gates[id] = g
	return nil
}

// Get returns the gate registered under id.
func (r *Registry) Get(id domain.GateID) (Gate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.gates[id]
	if !exists {
		return nil, cadenceerrors.Wrapf(cadenceerrors.ErrGateNotFound, "%s", id)
	}
	return g, nil
}

// Has reports whether a gate is registered under id.
func (r *Registry) Has(id domain.GateID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.gates[id]
	return exists
}

// IDs returns the registered gate identifiers in sorted order.
func (r *Registry) IDs() []domain.GateID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]domain.GateID, 0, len(r.gates))
	for id := range r.gates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Weight returns the configured weight for id, defaulting to 1 when the
// configuration does not mention the gate.
func (r *Registry) Weight(id domain.GateID) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if w, ok := r.weights[id]; ok && w > 0 {
		return w
	}
	return 1
}

// Threshold returns the per-gate violation threshold for id. A gate with
// no configured threshold is never violated on score alone.
func (r *Registry) Threshold(id domain.GateID) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.thresholds[id]
}

// Evaluate runs the named gates against in and combines their scores into
// a quality report.
//
// The overall score is the weight-normalized mean of the gate scores. A
// gate is violated when its score falls below its configured threshold.
// The report passes only when no gate is violated and the overall score
// meets the stage threshold. Requesting an unregistered gate is an error,
// not a silent skip.
func (r *Registry) Evaluate(in *Input, gateIDs []domain.GateID, stageThreshold float64) (*domain.QualityReport, error) {
	report := &domain.QualityReport{
		Threshold: stageThreshold,
		Scores:    make([]domain.GateScore, 0, len(gateIDs)),
	}

	var weightedSum, weightTotal float64
	anyViolated := false
	for _, id := range gateIDs {
		g, err := r.Get(id)
		if err != nil {
			return nil, err
		}

		score, violations := g.Evaluate(in)
		score = clamp01(score)

		weight := r.Weight(id)
		violated := score < r.Threshold(id)
		if violated {
			anyViolated = true
		}

		report.Scores = append(report.Scores, domain.GateScore{
			GateID:     id,
			Score:      score,
			Weight:     weight,
			Violated:   violated,
			Violations: violations,
		})
		weightedSum += weight * score
		weightTotal += weight
	}

	if weightTotal > 0 {
		report.OverallScore = weightedSum / weightTotal
	} else {
		// A stage with no applicable gates passes vacuously.
		report.OverallScore = 1
	}
	report.Passed = !anyViolated && report.OverallScore >= stageThreshold
	return report, nil
}
