package encode

import "github.com/danielpatrickdp/mawile/internal/battle"

// #region layout
const (
	// MaxMoves is the number of move slots a snapshot can expose.
	MaxMoves = 4
	// MaxSwitches is the number of bench slots a snapshot can expose.
	MaxSwitches = 5

	// UnitSize: type multi-hot, status one-hot, hp fraction, boosts, fainted.
	UnitSize = battle.NumTypes + battle.NumStatuses + 1 + 7 + 1
	// MoveSize: base power, accuracy, effectiveness, type one-hot.
	MoveSize = 3 + battle.NumTypes
	// SwitchSize: type multi-hot, hp fraction.
	SwitchSize = battle.NumTypes + 1

	// DenseSize is the vector length produced by Dense.
	DenseSize = 2*UnitSize + 2 + MaxMoves*MoveSize + MaxSwitches*SwitchSize
)

// #endregion layout

// #region encoder
// Encoder flattens a battle snapshot into a fixed-length vector.
type Encoder interface {
	Size() int
	Encode(b *battle.Battle) []float64
}

// Dense encodes both active units, the fainted share of each team, the available moves
// against the opposing active unit, and the bench.
type Dense struct{}

// Size returns DenseSize.
func (Dense) Size() int { return DenseSize }

// Encode is pure and deterministic for a given snapshot.
func (Dense) Encode(b *battle.Battle) []float64 {
	v := make([]float64, 0, DenseSize)

	v = appendUnit(v, b.Active)
	v = appendUnit(v, b.OpponentActive)
	v = append(v, faintedFraction(b.Team), faintedFraction(b.OpponentTeam))

	var oppTypes [2]battle.Type
	if b.OpponentActive != nil {
		oppTypes = b.OpponentActive.Types
	}
	for i := 0; i < MaxMoves; i++ {
		if i < len(b.AvailableMoves) {
			v = appendMove(v, b.AvailableMoves[i], oppTypes)
		} else {
			v = appendZeros(v, MoveSize)
		}
	}

	for i := 0; i < MaxSwitches; i++ {
		if i < len(b.AvailableSwitches) && b.AvailableSwitches[i] != nil {
			p := b.AvailableSwitches[i]
			v = appendTypes(v, p.Types)
			v = append(v, p.HPFraction())
		} else {
			v = appendZeros(v, SwitchSize)
		}
	}
	return v
}

// #endregion encoder

// #region helpers
func appendUnit(v []float64, p *battle.Pokemon) []float64 {
	if p == nil {
		return appendZeros(v, UnitSize)
	}
	v = appendTypes(v, p.Types)
	v = appendOneHot(v, int(p.Status)-1, battle.NumStatuses)
	v = append(v, p.HPFraction())
	for _, stat := range battle.BoostStats {
		v = append(v, float64(p.Boosts[stat])/6)
	}
	if p.Fainted() {
		return append(v, 1)
	}
	return append(v, 0)
}

func appendMove(v []float64, m battle.Move, opp [2]battle.Type) []float64 {
	v = append(v,
		float64(m.BasePower)/100,
		m.Accuracy,
		m.Type.DamageMultiplier(opp[0], opp[1]),
	)
	return appendOneHot(v, int(m.Type)-1, battle.NumTypes)
}

func appendTypes(v []float64, types [2]battle.Type) []float64 {
	start := len(v)
	v = appendZeros(v, battle.NumTypes)
	for _, t := range types {
		if t > battle.TypeNone && int(t) <= battle.NumTypes {
			v[start+int(t)-1] = 1
		}
	}
	return v
}

// appendOneHot writes a one-hot of width n; out-of-range idx writes zeros.
func appendOneHot(v []float64, idx, n int) []float64 {
	start := len(v)
	v = appendZeros(v, n)
	if idx >= 0 && idx < n {
		v[start+idx] = 1
	}
	return v
}

func appendZeros(v []float64, n int) []float64 {
	for i := 0; i < n; i++ {
		v = append(v, 0)
	}
	return v
}

// faintedFraction is the share of team that has fainted, 0 for an empty team.
func faintedFraction(team []*battle.Pokemon) float64 {
	if len(team) == 0 {
		return 0
	}
	n := 0
	for _, p := range team {
		if p.Fainted() {
			n++
		}
	}
	return float64(n) / float64(len(team))
}

// #endregion helpers
