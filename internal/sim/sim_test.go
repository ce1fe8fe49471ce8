package sim

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/danielpatrickdp/mawile/internal/battle"
	"github.com/danielpatrickdp/mawile/internal/memory"
	"github.com/danielpatrickdp/mawile/internal/policy"
)

// #region helpers
// recordingAgent attacks with its first move and remembers what it saw.
type recordingAgent struct {
	name string
	pass bool

	mu       sync.Mutex
	requests int
	forced   int
	finished []*battle.Battle
}

func (a *recordingAgent) Name() string { return a.name }

func (a *recordingAgent) ChooseMove(_ context.Context, b *battle.Battle) battle.Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests++
	if b.ForceSwitch {
		a.forced++
		return battle.Order{Switch: b.AvailableSwitches[0]}
	}
	if a.pass || len(b.AvailableMoves) == 0 {
		return battle.Order{}
	}
	return battle.Order{Move: &b.AvailableMoves[0]}
}

func (a *recordingAgent) BattleFinished(b *battle.Battle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finished = append(a.finished, b)
}

// #endregion helpers

func TestPlay_RunsToCompletion(t *testing.T) {
	s := New(DefaultConfig())
	a := &recordingAgent{name: "a"}
	b := &recordingAgent{name: "b"}

	res, err := s.Play(context.Background(), a, b)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !strings.HasPrefix(res.Tag, "battle-") {
		t.Errorf("tag %q lacks battle- prefix", res.Tag)
	}
	if len(a.finished) != 1 || len(b.finished) != 1 {
		t.Fatalf("BattleFinished calls: a=%d b=%d", len(a.finished), len(b.finished))
	}
	fa, fb := a.finished[0], b.finished[0]
	if fa.Tag == fb.Tag {
		t.Errorf("both sides share tag %q", fa.Tag)
	}
	switch res.Winner {
	case "a":
		if !fa.Won || !fb.Lost {
			t.Errorf("winner a but views %v/%v", fa.Won, fb.Lost)
		}
	case "b":
		if !fb.Won || !fa.Lost {
			t.Errorf("winner b but views %v/%v", fb.Won, fa.Lost)
		}
	case "":
		if fa.Finished() || fb.Finished() {
			t.Error("draw reported a decided view")
		}
	default:
		t.Errorf("unexpected winner %q", res.Winner)
	}
	if res.Turns < 1 || a.requests < res.Turns {
		t.Errorf("turns=%d requests=%d", res.Turns, a.requests)
	}
}

func TestPlay_TurnLimitDraws(t *testing.T) {
	s := New(Config{TeamSize: 2, MaxTurns: 3, Seed: 4})
	a := &recordingAgent{name: "a", pass: true}
	b := &recordingAgent{name: "b", pass: true}

	res, err := s.Play(context.Background(), a, b)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if res.Winner != "" || res.Turns != 3 {
		t.Fatalf("expected a 3-turn draw, got %+v", res)
	}
	if a.requests != 3 {
		t.Errorf("a asked %d times, want 3", a.requests)
	}
}

func TestPlay_CancelledContext(t *testing.T) {
	s := New(DefaultConfig())
	a := &recordingAgent{name: "a"}
	b := &recordingAgent{name: "b"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Play(ctx, a, b)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Winner != "" {
		t.Errorf("cancelled battle has winner %q", res.Winner)
	}
	if len(a.finished) != 1 || a.finished[0].Finished() {
		t.Fatal("cancelled battle must still finish undecided")
	}
}

func TestPlay_SameAgent(t *testing.T) {
	a := &recordingAgent{name: "a"}
	if _, err := New(DefaultConfig()).Play(context.Background(), a, a); !errors.Is(err, ErrSameAgent) {
		t.Fatalf("expected ErrSameAgent, got %v", err)
	}
}

func TestView_CopiesEngineState(t *testing.T) {
	a := &recordingAgent{name: "a"}
	b := &recordingAgent{name: "b"}
	m := newMatch(rand.New(rand.NewSource(3)), "battle-x", 3, a, b)

	v := m.view(0, false)
	if v.Active != v.Team[0] {
		t.Fatal("Active should alias the matching Team entry")
	}
	if len(v.AvailableMoves) != 4 || len(v.AvailableSwitches) != 2 {
		t.Fatalf("moves=%d switches=%d", len(v.AvailableMoves), len(v.AvailableSwitches))
	}
	v.Active.CurrentHP = 0
	v.Active.Boosts["atk"] = 6
	if m.sides[0].current().Fainted() || m.sides[0].current().Boosts["atk"] != 0 {
		t.Fatal("mutating a view changed engine state")
	}

	forced := m.view(0, true)
	if len(forced.AvailableMoves) != 0 || forced.CanZMove {
		t.Error("forced-switch view offers moves or gimmicks")
	}
}

func TestPlay_PlayerEpisodesAreComplete(t *testing.T) {
	store := memory.NewStore()
	p1 := policy.NewPlayer("p1", mustQ(t, 1), store, 1)
	p2 := policy.NewPlayer("p2", mustQ(t, 2), store, 2)
	s := New(DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Play(context.Background(), p1, p2); err != nil {
				t.Errorf("Play: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.Len() != 8 {
		t.Fatalf("expected 8 episodes, got %d", store.Len())
	}
	for _, ep := range store.Snapshot() {
		last := ep.Observations[len(ep.Observations)-1]
		if !last.IsTerminal {
			t.Errorf("episode %s does not end terminal", ep.Key)
		}
	}
}

func mustQ(t *testing.T, seed int64) *policy.QVariant {
	t.Helper()
	q, err := policy.NewQVariant(zeroPredictor{}, 1, seed)
	if err != nil {
		t.Fatal(err)
	}
	return q
}

type zeroPredictor struct{}

func (zeroPredictor) Predict(_ context.Context, batch [][]float64) ([][]float64, error) {
	out := make([][]float64, len(batch))
	for i := range out {
		out[i] = make([]float64, policy.ActionSpaceSize)
	}
	return out, nil
}

func TestStageMultiplier(t *testing.T) {
	cases := map[int]float64{0: 1, 1: 1.5, 2: 2, 6: 4, 9: 4, -1: 2.0 / 3, -2: 0.5, -6: 0.25}
	for stage, want := range cases {
		if got := stageMultiplier(stage); got != want {
			t.Errorf("stage %d: got %v want %v", stage, got, want)
		}
	}
}
