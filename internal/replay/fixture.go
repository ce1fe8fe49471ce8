package replay

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/danielpatrickdp/mawile/internal/memory"
	"github.com/danielpatrickdp/mawile/internal/qlearn"
)

// tolerance for float comparisons against fixture expectations.
const tolerance = 1e-9

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string              `json:"description"`
	Gamma       float64             `json:"gamma"`
	Episodes    []FixtureEpisode    `json:"episodes"`
	Predictions *FixturePredictions `json:"predictions,omitempty"`
	Expected    FixtureExpectations `json:"expected"`
}

// FixtureEpisode is one recorded battle.
type FixtureEpisode struct {
	Key          string               `json:"key"`
	Observations []FixtureObservation `json:"observations"`
}

// FixtureObservation mirrors memory.Observation. A null action is NoAction.
type FixtureObservation struct {
	State    []float64 `json:"state"`
	Action   *int      `json:"action"`
	Score    float64   `json:"score"`
	Terminal bool      `json:"terminal"`
}

// FixturePredictions are canned model outputs, one row per expected
// transition, for checking target construction without a model.
type FixturePredictions struct {
	State [][]float64 `json:"state"`
	Next  [][]float64 `json:"next"`
}

// FixtureExpectations holds what a replay must reproduce.
type FixtureExpectations struct {
	Transitions []FixtureTransition `json:"transitions"`
	Targets     [][]float64         `json:"targets,omitempty"`
}

// FixtureTransition is one expected transition in flattened order.
type FixtureTransition struct {
	Key      string    `json:"key"`
	Action   int       `json:"action"`
	Reward   float64   `json:"reward"`
	Terminal bool      `json:"terminal"`
	Next     []float64 `json:"next,omitempty"`
}

// Mismatch is one expectation the replay did not reproduce.
type Mismatch struct {
	Index int
	Field string
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("transition %d %s: want %s, got %s", m.Index, m.Field, m.Want, m.Got)
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := qlearn.ValidateDiscount(f.Gamma); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToEpisodes converts the fixture episodes to domain episodes.
func (f *Fixture) ToEpisodes() []memory.Episode {
	eps := make([]memory.Episode, len(f.Episodes))
	for i, fe := range f.Episodes {
		ep := memory.Episode{Key: memory.Key(fe.Key)}
		for _, fo := range fe.Observations {
			action := memory.NoAction
			if fo.Action != nil {
				action = *fo.Action
			}
			ep.Observations = append(ep.Observations, memory.Observation{
				State:      fo.State,
				Action:     action,
				Score:      fo.Score,
				IsTerminal: fo.Terminal,
			})
		}
		eps[i] = ep
	}
	return eps
}

// #endregion fixture-loader

// #region verify

// Verify compares replay results against the fixture's expectations. When
// the fixture carries predictions and expected targets, targets are rebuilt
// from them and compared too. A non-nil error means targets could not be
// built at all.
func (f *Fixture) Verify(results []EpisodeResult) ([]Mismatch, error) {
	var mismatches []Mismatch

	type keyed struct {
		key memory.Key
		tr  memory.Transition
	}
	var got []keyed
	for _, r := range results {
		for _, tr := range r.Transitions {
			got = append(got, keyed{r.Key, tr})
		}
	}

	want := f.Expected.Transitions
	if len(got) != len(want) {
		mismatches = append(mismatches, Mismatch{
			Index: -1, Field: "count",
			Want: fmt.Sprint(len(want)), Got: fmt.Sprint(len(got)),
		})
	}
	for i := 0; i < len(got) && i < len(want); i++ {
		g, w := got[i], want[i]
		if string(g.key) != w.Key {
			mismatches = append(mismatches, Mismatch{Index: i, Field: "key", Want: w.Key, Got: string(g.key)})
		}
		if g.tr.Action != w.Action {
			mismatches = append(mismatches, Mismatch{Index: i, Field: "action", Want: fmt.Sprint(w.Action), Got: fmt.Sprint(g.tr.Action)})
		}
		if !approx(g.tr.Reward, w.Reward) {
			mismatches = append(mismatches, Mismatch{Index: i, Field: "reward", Want: fmt.Sprint(w.Reward), Got: fmt.Sprint(g.tr.Reward)})
		}
		if g.tr.IsTerminal != w.Terminal {
			mismatches = append(mismatches, Mismatch{Index: i, Field: "terminal", Want: fmt.Sprint(w.Terminal), Got: fmt.Sprint(g.tr.IsTerminal)})
		}
		if w.Next != nil && !approxRow(g.tr.StateNext, w.Next) {
			mismatches = append(mismatches, Mismatch{Index: i, Field: "next", Want: fmt.Sprint(w.Next), Got: fmt.Sprint(g.tr.StateNext)})
		}
	}

	if f.Predictions == nil || f.Expected.Targets == nil {
		return mismatches, nil
	}
	ds, err := qlearn.BuildTargets(Transitions(results), f.Gamma, f.Predictions.State, f.Predictions.Next)
	if err != nil {
		return mismatches, fmt.Errorf("build targets: %w", err)
	}
	if len(ds.Targets) != len(f.Expected.Targets) {
		return append(mismatches, Mismatch{
			Index: -1, Field: "targets",
			Want: fmt.Sprint(len(f.Expected.Targets)), Got: fmt.Sprint(len(ds.Targets)),
		}), nil
	}
	for i, row := range ds.Targets {
		if !approxRow(row, f.Expected.Targets[i]) {
			mismatches = append(mismatches, Mismatch{Index: i, Field: "target", Want: fmt.Sprint(f.Expected.Targets[i]), Got: fmt.Sprint(row)})
		}
	}
	return mismatches, nil
}

func approx(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func approxRow(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !approx(a[i], b[i]) {
			return false
		}
	}
	return true
}

// #endregion verify
