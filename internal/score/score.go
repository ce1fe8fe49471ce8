package score

import "github.com/danielpatrickdp/mawile/internal/battle"

// #region weights
// Weights parameterises the battle scoring function. Penalties are given as
// positive magnitudes and subtracted.
type Weights struct {
	Victory float64
	Fainted float64
	Health  float64
	Status  float64
	Boosts  float64
}

// DefaultWeights returns the dense shaping weights.
func DefaultWeights() Weights {
	return Weights{
		Victory: 30,
		Fainted: 5,
		Health:  5,
		Status:  1,
		Boosts:  1,
	}
}

// SparseWeights keeps only the victory term, so rewards appear at the end of
// an episode and nowhere else.
func SparseWeights() Weights {
	return Weights{Victory: 30}
}

// #endregion weights

// #region score
// Score evaluates the standing of the side that owns b: the outcome bonus
// plus the sum of unit terms for its team minus the same sum for the
// opponent's team.
func Score(b *battle.Battle, w Weights) float64 {
	var s float64
	switch {
	case b.Won:
		s = w.Victory
	case b.Lost:
		s = -w.Victory
	}
	for _, p := range b.Team {
		s += unit(p, w)
	}
	for _, p := range b.OpponentTeam {
		s -= unit(p, w)
	}
	return s
}

func unit(p *battle.Pokemon, w Weights) float64 {
	if p == nil {
		return 0
	}
	v := w.Health*p.HPFraction() + w.Boosts*float64(p.BoostSum())
	if p.Fainted() {
		v -= w.Fainted
	}
	if p.Status != battle.StatusNone {
		v -= w.Status
	}
	return v
}

// #endregion score
