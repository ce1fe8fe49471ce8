package policy

import "github.com/danielpatrickdp/mawile/internal/battle"

// Single-battle action layout.
const (
	moveSlots   = 4
	switchSlots = 6

	zMoveOffset   = 4
	megaOffset    = 8
	dynamaxOffset = 12
	switchOffset  = 16

	ActionSpaceSize = switchOffset + switchSlots
)

// ActionToOrder maps an action index onto b. ok is false when the index
// names nothing legal in this state.
//
//	0-3   move
//	4-7   z-move
//	8-11  mega evolve + move
//	12-15 dynamax + move
//	16-21 switch
func ActionToOrder(action int, b *battle.Battle) (battle.Order, bool) {
	if b == nil || action < 0 || action >= ActionSpaceSize {
		return battle.Order{}, false
	}

	if action >= switchOffset {
		i := action - switchOffset
		if i >= len(b.AvailableSwitches) {
			return battle.Order{}, false
		}
		return battle.Order{Switch: b.AvailableSwitches[i]}, true
	}

	if b.ForceSwitch {
		return battle.Order{}, false
	}
	i := action % moveSlots
	if i >= len(b.AvailableMoves) {
		return battle.Order{}, false
	}
	order := battle.Order{Move: &b.AvailableMoves[i]}

	switch action / moveSlots {
	case zMoveOffset / moveSlots:
		if !b.CanZMove {
			return battle.Order{}, false
		}
		order.ZMove = true
	case megaOffset / moveSlots:
		if !b.CanMegaEvolve {
			return battle.Order{}, false
		}
		order.Mega = true
	case dynamaxOffset / moveSlots:
		if !b.CanDynamax {
			return battle.Order{}, false
		}
		order.Dynamax = true
	}
	return order, true
}

// LegalActions lists every action index ActionToOrder accepts for b, in
// ascending order.
func LegalActions(b *battle.Battle) []int {
	var legal []int
	for a := 0; a < ActionSpaceSize; a++ {
		if _, ok := ActionToOrder(a, b); ok {
			legal = append(legal, a)
		}
	}
	return legal
}
