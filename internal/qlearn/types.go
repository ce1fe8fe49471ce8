package qlearn

import (
	"context"
	"errors"
)

// #region errors
var (
	// ErrShapeMismatch signals prediction batches that do not line up with
	// the transition batch. It is an integration error, never padded over.
	ErrShapeMismatch = errors.New("prediction batch shape mismatch")
	// ErrInvalidDiscount is returned for a discount factor outside [0, 1].
	ErrInvalidDiscount = errors.New("discount factor must be in [0, 1]")
)

// #endregion errors

// #region dataset
// Dataset is a supervised training batch; Inputs[i] pairs with Targets[i].
type Dataset struct {
	Inputs  [][]float64
	Targets [][]float64
}

// Len returns the number of rows.
func (d Dataset) Len() int {
	return len(d.Inputs)
}

// #endregion dataset

// #region predictor
// Predictor maps a batch of state vectors to a batch of action-value vectors.
type Predictor interface {
	Predict(ctx context.Context, batch [][]float64) ([][]float64, error)
}

// #endregion predictor
