package policy

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/danielpatrickdp/mawile/internal/battle"
	"github.com/danielpatrickdp/mawile/internal/qlearn"
	"gonum.org/v1/gonum/floats"
)

// EpsilonGreedy selects a uniformly random legal action with probability
// ExplorationRate and the model's argmax otherwise.
type EpsilonGreedy struct {
	model qlearn.Predictor
	rng   *lockedRand

	mu   sync.RWMutex
	rate float64
}

// NewEpsilonGreedy creates a selector over model. rate must be in [0, 1].
func NewEpsilonGreedy(model qlearn.Predictor, rate float64, seed int64) (*EpsilonGreedy, error) {
	e := &EpsilonGreedy{model: model, rng: newLockedRand(seed)}
	if err := e.SetExplorationRate(rate); err != nil {
		return nil, err
	}
	return e, nil
}

// SetExplorationRate changes the exploration rate. Intended for use between
// rounds; in-flight decisions see either the old or the new value.
func (e *EpsilonGreedy) SetExplorationRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return fmt.Errorf("exploration rate %v outside [0, 1]", rate)
	}
	e.mu.Lock()
	e.rate = rate
	e.mu.Unlock()
	return nil
}

// ExplorationRate returns the current exploration rate.
func (e *EpsilonGreedy) ExplorationRate() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rate
}

// SelectAction implements the selection half of Variant. A failed
// prediction falls back to exploration.
func (e *EpsilonGreedy) SelectAction(ctx context.Context, state []float64, b *battle.Battle) int {
	if e.rng.Float64() >= e.ExplorationRate() {
		preds, err := e.model.Predict(ctx, [][]float64{state})
		if err == nil && len(preds) == 1 && len(preds[0]) > 0 {
			return floats.MaxIdx(preds[0])
		}
		if err == nil {
			err = fmt.Errorf("got %d prediction rows", len(preds))
		}
		log.Printf("[POLICY] predict failed, exploring: %v", err)
	}
	return e.rng.randomAction(b)
}
