package policy

import (
	"context"
	"errors"

	"github.com/danielpatrickdp/mawile/internal/battle"
)

func testBattle(tag string) *battle.Battle {
	active := &battle.Pokemon{
		Species: "mawile", Types: [2]battle.Type{battle.TypeSteel, battle.TypeFairy},
		CurrentHP: 100, MaxHP: 100,
	}
	bench1 := &battle.Pokemon{Species: "gyarados", Types: [2]battle.Type{battle.TypeWater, battle.TypeFlying}, CurrentHP: 90, MaxHP: 90}
	bench2 := &battle.Pokemon{Species: "ferrothorn", Types: [2]battle.Type{battle.TypeGrass, battle.TypeSteel}, CurrentHP: 80, MaxHP: 80}
	opp := &battle.Pokemon{
		Species: "charizard", Types: [2]battle.Type{battle.TypeFire, battle.TypeFlying},
		CurrentHP: 100, MaxHP: 100,
	}
	return &battle.Battle{
		Tag:            tag,
		Turn:           1,
		Team:           []*battle.Pokemon{active, bench1, bench2},
		OpponentTeam:   []*battle.Pokemon{opp},
		Active:         active,
		OpponentActive: opp,
		AvailableMoves: []battle.Move{
			{ID: "playrough", Type: battle.TypeFairy, BasePower: 90, Accuracy: 0.9},
			{ID: "ironhead", Type: battle.TypeSteel, BasePower: 80, Accuracy: 1},
			{ID: "thunderpunch", Type: battle.TypeElectric, BasePower: 75, Accuracy: 1},
			{ID: "swordsdance", Type: battle.TypeNormal, BasePower: 0, Accuracy: 1, BoostSelf: "atk"},
		},
		AvailableSwitches: []*battle.Pokemon{bench1, bench2},
	}
}

type stubPredictor struct {
	row []float64
	err error
}

func (s *stubPredictor) Predict(_ context.Context, batch [][]float64) ([][]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(batch))
	for i := range batch {
		out[i] = append([]float64(nil), s.row...)
	}
	return out, nil
}

var errPredict = errors.New("model offline")

// fixedVariant always selects the same action.
type fixedVariant struct {
	action int
}

func (f fixedVariant) Score(b *battle.Battle) float64 {
	if b.Won {
		return 1
	}
	return 0
}

func (f fixedVariant) Encode(b *battle.Battle) []float64 {
	return []float64{float64(b.Turn)}
}

func (f fixedVariant) SelectAction(context.Context, []float64, *battle.Battle) int {
	return f.action
}

func (f fixedVariant) ToMove(action int, b *battle.Battle) (battle.Order, bool) {
	return ActionToOrder(action, b)
}
