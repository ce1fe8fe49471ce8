package policy

import (
	"context"
	"log"

	"github.com/danielpatrickdp/mawile/internal/battle"
	"github.com/danielpatrickdp/mawile/internal/memory"
)

// #region variant
// Variant supplies the four decisions a Player delegates. Implementations
// must be safe for concurrent use across battles.
type Variant interface {
	Score(b *battle.Battle) float64
	Encode(b *battle.Battle) []float64
	SelectAction(ctx context.Context, state []float64, b *battle.Battle) int
	ToMove(action int, b *battle.Battle) (battle.Order, bool)
}

// #endregion variant

// #region player
// Player drives a Variant through battles and records every decision point
// into a shared memory store, keyed by battle tag.
type Player struct {
	name    string
	variant Variant
	store   *memory.Store
	rng     *lockedRand
}

// NewPlayer creates a recording player. seed drives the fallback orders.
func NewPlayer(name string, v Variant, store *memory.Store, seed int64) *Player {
	return &Player{
		name:    name,
		variant: v,
		store:   store,
		rng:     newLockedRand(seed),
	}
}

// Name returns the agent name used in arena tables.
func (p *Player) Name() string { return p.name }

// Variant returns the decision variant this player delegates to.
func (p *Player) Variant() Variant { return p.variant }

// ChooseMove scores and encodes b, selects an action and maps it to an
// order. Exactly one non-terminal observation is recorded per call. When
// the action does not map, a random legal order is played instead.
func (p *Player) ChooseMove(ctx context.Context, b *battle.Battle) battle.Order {
	score := p.variant.Score(b)
	state := p.variant.Encode(b)
	action := p.variant.SelectAction(ctx, state, b)

	order, ok := p.variant.ToMove(action, b)
	if !ok {
		order, _ = p.rng.randomOrder(b)
	}

	p.record(b.Tag, memory.Observation{State: state, Action: action, Score: score})
	return order
}

// BattleFinished records the terminal observation for b.
func (p *Player) BattleFinished(b *battle.Battle) {
	p.record(b.Tag, memory.Observation{
		State:      p.variant.Encode(b),
		Action:     memory.NoAction,
		Score:      p.variant.Score(b),
		IsTerminal: true,
	})
}

func (p *Player) record(tag string, obs memory.Observation) {
	if err := p.store.Record(memory.Key(tag), obs); err != nil {
		log.Printf("[POLICY] %s: record %s: %v", p.name, tag, err)
	}
}

// #endregion player
