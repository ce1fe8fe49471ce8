package model

import (
	"context"
	"errors"
)

// #region errors
var (
	// ErrCheckpointUnavailable means no usable checkpoint exists at the path:
	// the file is missing, malformed, or shaped for a different network.
	// Callers recover by continuing with a fresh model.
	ErrCheckpointUnavailable = errors.New("checkpoint unavailable")
	// ErrBatchShape is returned for inputs or targets of the wrong width or count.
	ErrBatchShape = errors.New("batch shape mismatch")
)

// #endregion errors

// #region interfaces
// ValueModel maps state vectors to action-value vectors and can be fitted
// on (state, target) pairs. Calls are synchronous.
type ValueModel interface {
	Predict(ctx context.Context, batch [][]float64) ([][]float64, error)
	Fit(ctx context.Context, inputs, targets [][]float64, epochs int) error
}

// Checkpointer is implemented by models whose weights persist at a path.
type Checkpointer interface {
	Load(path string) error
	Save(path string) error
}

// #endregion interfaces
