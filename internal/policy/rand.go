package policy

import (
	"math/rand"
	"sync"

	"github.com/danielpatrickdp/mawile/internal/battle"
)

// lockedRand is a seeded source shared by the goroutines of one player.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// randomAction draws uniformly among the legal actions of b, or among the
// whole action space when nothing is legal.
func (r *lockedRand) randomAction(b *battle.Battle) int {
	legal := LegalActions(b)
	if len(legal) == 0 {
		return r.Intn(ActionSpaceSize)
	}
	return legal[r.Intn(len(legal))]
}

// randomOrder picks a uniformly random legal order. ok is false when b
// offers no decision, in which case the empty order passes.
func (r *lockedRand) randomOrder(b *battle.Battle) (battle.Order, bool) {
	legal := LegalActions(b)
	if len(legal) == 0 {
		return battle.Order{}, false
	}
	return ActionToOrder(legal[r.Intn(len(legal))], b)
}
