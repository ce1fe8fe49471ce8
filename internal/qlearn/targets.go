package qlearn

import (
	"context"
	"fmt"
	"math"

	"github.com/danielpatrickdp/mawile/internal/memory"
	"gonum.org/v1/gonum/floats"
)

// #region validate
// ValidateDiscount rejects a discount factor outside [0, 1].
func ValidateDiscount(gamma float64) error {
	if math.IsNaN(gamma) || gamma < 0 || gamma > 1 {
		return fmt.Errorf("gamma %v: %w", gamma, ErrInvalidDiscount)
	}
	return nil
}

// #endregion validate

// #region build-targets
// BuildTargets applies the temporal-difference update to one batch.
// predState[i] and predNext[i] are the model's action values for
// transitions[i].State and transitions[i].StateNext. Each target starts as a
// copy of predState[i]; only the taken action's entry is replaced:
//
//	terminal:     reward
//	non-terminal: reward + gamma * max(predNext[i])
//
// The max runs over every action slot, legal or not.
func BuildTargets(transitions []memory.Transition, gamma float64, predState, predNext [][]float64) (Dataset, error) {
	if err := ValidateDiscount(gamma); err != nil {
		return Dataset{}, err
	}
	if len(predState) != len(transitions) || len(predNext) != len(transitions) {
		return Dataset{}, fmt.Errorf("%w: %d transitions, %d state predictions, %d next-state predictions",
			ErrShapeMismatch, len(transitions), len(predState), len(predNext))
	}

	ds := Dataset{
		Inputs:  make([][]float64, len(transitions)),
		Targets: make([][]float64, len(transitions)),
	}
	for i, tr := range transitions {
		q := predState[i]
		if tr.Action < 0 || tr.Action >= len(q) {
			return Dataset{}, fmt.Errorf("%w: transition %d action %d outside %d action values",
				ErrShapeMismatch, i, tr.Action, len(q))
		}

		target := make([]float64, len(q))
		copy(target, q)

		update := tr.Reward
		if !tr.IsTerminal {
			next := predNext[i]
			if len(next) == 0 {
				return Dataset{}, fmt.Errorf("%w: transition %d has empty next-state prediction", ErrShapeMismatch, i)
			}
			update += gamma * floats.Max(next)
		}
		target[tr.Action] = update

		ds.Inputs[i] = tr.State
		ds.Targets[i] = target
	}
	return ds, nil
}

// #endregion build-targets

// #region from-model
// FromModel predicts both state batches with p and builds the targets.
// No prediction is made for an empty batch.
func FromModel(ctx context.Context, p Predictor, transitions []memory.Transition, gamma float64) (Dataset, error) {
	if err := ValidateDiscount(gamma); err != nil {
		return Dataset{}, err
	}
	if len(transitions) == 0 {
		return Dataset{}, nil
	}

	states := make([][]float64, len(transitions))
	nexts := make([][]float64, len(transitions))
	for i, tr := range transitions {
		states[i] = tr.State
		nexts[i] = tr.StateNext
	}

	predState, err := p.Predict(ctx, states)
	if err != nil {
		return Dataset{}, fmt.Errorf("predict states: %w", err)
	}
	predNext, err := p.Predict(ctx, nexts)
	if err != nil {
		return Dataset{}, fmt.Errorf("predict next states: %w", err)
	}
	return BuildTargets(transitions, gamma, predState, predNext)
}

// #endregion from-model
