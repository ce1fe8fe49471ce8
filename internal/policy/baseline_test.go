package policy

import (
	"context"
	"testing"
)

func TestNaivePlayer_PicksMostEffectiveMove(t *testing.T) {
	p := NewNaivePlayer("naive", 1)
	b := testBattle("b")
	// thunderpunch: 75 × 1 × 2 (flying) = 150 beats playrough 40.5 and ironhead 40.
	order := p.ChooseMove(context.Background(), b)
	if order.Move == nil || order.Move.ID != "thunderpunch" {
		t.Fatalf("got %+v", order)
	}
}

func TestNaivePlayer_RandomWithoutMoves(t *testing.T) {
	p := NewNaivePlayer("naive", 1)
	b := testBattle("b")
	b.AvailableMoves = nil
	order := p.ChooseMove(context.Background(), b)
	if !order.IsSwitch() {
		t.Fatalf("expected a switch, got %+v", order)
	}
}

func TestRandomPlayer_LegalOrEmpty(t *testing.T) {
	p := NewRandomPlayer("random", 5)
	b := testBattle("b")
	for i := 0; i < 50; i++ {
		if p.ChooseMove(context.Background(), b).IsEmpty() {
			t.Fatal("random player passed with legal options")
		}
	}
	b.AvailableMoves, b.AvailableSwitches = nil, nil
	if !p.ChooseMove(context.Background(), b).IsEmpty() {
		t.Fatal("expected pass with nothing available")
	}
}
