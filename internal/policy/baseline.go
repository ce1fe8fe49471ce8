package policy

import (
	"context"

	"github.com/danielpatrickdp/mawile/internal/battle"
)

// RandomPlayer plays a uniformly random legal order and records nothing.
type RandomPlayer struct {
	name string
	rng  *lockedRand
}

func NewRandomPlayer(name string, seed int64) *RandomPlayer {
	return &RandomPlayer{name: name, rng: newLockedRand(seed)}
}

func (p *RandomPlayer) Name() string { return p.name }

func (p *RandomPlayer) ChooseMove(_ context.Context, b *battle.Battle) battle.Order {
	order, _ := p.rng.randomOrder(b)
	return order
}

func (p *RandomPlayer) BattleFinished(*battle.Battle) {}

// NaivePlayer attacks with the move maximising accuracy × base power ×
// type effectiveness, and plays randomly when it cannot attack.
type NaivePlayer struct {
	name string
	rng  *lockedRand
}

func NewNaivePlayer(name string, seed int64) *NaivePlayer {
	return &NaivePlayer{name: name, rng: newLockedRand(seed)}
}

func (p *NaivePlayer) Name() string { return p.name }

func (p *NaivePlayer) ChooseMove(_ context.Context, b *battle.Battle) battle.Order {
	if len(b.AvailableMoves) == 0 || b.ForceSwitch {
		order, _ := p.rng.randomOrder(b)
		return order
	}

	var t1, t2 battle.Type
	if b.OpponentActive != nil {
		t1, t2 = b.OpponentActive.Types[0], b.OpponentActive.Types[1]
	}
	best, bestValue := 0, -1.0
	for i, m := range b.AvailableMoves {
		v := m.Accuracy * float64(m.BasePower) * m.Type.DamageMultiplier(t1, t2)
		if v > bestValue {
			best, bestValue = i, v
		}
	}
	return battle.Order{Move: &b.AvailableMoves[best]}
}

func (p *NaivePlayer) BattleFinished(*battle.Battle) {}
