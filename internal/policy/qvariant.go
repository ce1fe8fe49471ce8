package policy

import (
	"github.com/danielpatrickdp/mawile/internal/battle"
	"github.com/danielpatrickdp/mawile/internal/encode"
	"github.com/danielpatrickdp/mawile/internal/qlearn"
	"github.com/danielpatrickdp/mawile/internal/score"
)

// QVariant is the model-driven variant: dense encoding, weighted scoring,
// epsilon-greedy selection over the shared action layout.
type QVariant struct {
	*EpsilonGreedy
	encoder encode.Encoder
	weights score.Weights
}

// NewQVariant uses the default scoring weights.
func NewQVariant(model qlearn.Predictor, rate float64, seed int64) (*QVariant, error) {
	return newQVariant(model, rate, seed, score.DefaultWeights())
}

// NewSparseQVariant scores only victory and defeat.
func NewSparseQVariant(model qlearn.Predictor, rate float64, seed int64) (*QVariant, error) {
	return newQVariant(model, rate, seed, score.SparseWeights())
}

func newQVariant(model qlearn.Predictor, rate float64, seed int64, w score.Weights) (*QVariant, error) {
	eg, err := NewEpsilonGreedy(model, rate, seed)
	if err != nil {
		return nil, err
	}
	return &QVariant{EpsilonGreedy: eg, encoder: encode.Dense{}, weights: w}, nil
}

func (q *QVariant) Score(b *battle.Battle) float64 {
	return score.Score(b, q.weights)
}

func (q *QVariant) Encode(b *battle.Battle) []float64 {
	return q.encoder.Encode(b)
}

func (q *QVariant) ToMove(action int, b *battle.Battle) (battle.Order, bool) {
	return ActionToOrder(action, b)
}
