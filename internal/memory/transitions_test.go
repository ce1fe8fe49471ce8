package memory

import (
	"fmt"
	"reflect"
	"testing"
)

func TestDeriveTransitionsScenario(t *testing.T) {
	s0, s1, s2 := []float64{0}, []float64{1}, []float64{2}
	eps := []Episode{{
		Key: "E1",
		Observations: []Observation{
			{State: s0, Action: 0, Score: 0},
			{State: s1, Action: 1, Score: 3},
			{State: s2, Action: NoAction, Score: -5, IsTerminal: true},
		},
	}}

	got := DeriveTransitions(eps)
	want := []Transition{
		{State: s0, Action: 0, Reward: 3, StateNext: s1, IsTerminal: false},
		{State: s1, Action: 1, Reward: -8, StateNext: s2, IsTerminal: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestDeriveTransitionsCounts(t *testing.T) {
	lengths := []int{0, 1, 2, 5, 9}
	var eps []Episode
	expected := 0
	for i, n := range lengths {
		ep := Episode{Key: Key(fmt.Sprintf("E%d", i))}
		for j := 0; j < n; j++ {
			o := Observation{State: []float64{float64(j)}, Action: j, Score: float64(j * j)}
			if j == n-1 {
				o.Action = NoAction
				o.IsTerminal = true
			}
			ep.Observations = append(ep.Observations, o)
		}
		if n > 1 {
			expected += n - 1
		}
		eps = append(eps, ep)
	}

	got := DeriveTransitions(eps)
	if len(got) != expected {
		t.Fatalf("expected %d transitions, got %d", expected, len(got))
	}
	for _, tr := range got {
		// score = j*j, so reward between j and j+1 is 2j+1
		j := tr.State[0]
		if tr.Reward != 2*j+1 {
			t.Fatalf("expected reward %f, got %f", 2*j+1, tr.Reward)
		}
		if tr.StateNext[0] != j+1 {
			t.Fatal("transition crossed an episode boundary")
		}
	}
}

func TestDeriveTransitionsEmpty(t *testing.T) {
	if got := DeriveTransitions(nil); len(got) != 0 {
		t.Fatalf("expected no transitions, got %d", len(got))
	}
	single := []Episode{{Key: "E1", Observations: []Observation{{Action: NoAction, IsTerminal: true}}}}
	if got := DeriveTransitions(single); len(got) != 0 {
		t.Fatalf("expected no transitions for single observation, got %d", len(got))
	}
}

func TestDeriveTransitionsIdempotent(t *testing.T) {
	s := NewStore()
	for _, k := range []Key{"E1", "E2"} {
		s.Record(k, Observation{State: []float64{1}, Action: 2, Score: 1})
		s.Record(k, Observation{State: []float64{2}, Action: 0, Score: 4})
		s.Record(k, Observation{State: []float64{3}, Action: NoAction, Score: 0, IsTerminal: true})
	}

	first := s.Transitions()
	second := s.Transitions()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("deriving twice from unmodified memory must give identical results")
	}
	if s.Len() != 2 {
		t.Fatal("derivation must not mutate memory")
	}
}
