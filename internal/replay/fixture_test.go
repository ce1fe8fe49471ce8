package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/mawile/internal/memory"
)

// #region fixture-tests

// TestFixture_Battles replays the checked-in fixture and requires every
// expected transition and target to be reproduced.
func TestFixture_Battles(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "battles.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	results := Replay(f.ToEpisodes())
	mismatches, err := f.Verify(results)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	for _, m := range mismatches {
		t.Errorf("%s", m)
	}

	s := Summarize(results)
	if s.Episodes != 3 || s.Observations != 6 || s.Transitions != 3 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestFixture_NullActionIsNoAction(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "battles.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	eps := f.ToEpisodes()
	last := eps[0].Observations[2]
	if last.Action != memory.NoAction || !last.IsTerminal {
		t.Fatalf("expected terminal NoAction observation, got %+v", last)
	}
	if eps[0].Observations[1].Action != 1 {
		t.Fatalf("expected action 1, got %d", eps[0].Observations[1].Action)
	}
}

func TestFixture_VerifyReportsDrift(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "battles.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	f.Expected.Transitions[1].Reward = -7
	f.Expected.Targets[2][2] = 11

	mismatches, err := f.Verify(Replay(f.ToEpisodes()))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(mismatches) != 2 {
		t.Fatalf("expected 2 mismatches, got %v", mismatches)
	}
	if mismatches[0].Field != "reward" || mismatches[0].Index != 1 {
		t.Errorf("expected reward mismatch at 1, got %s", mismatches[0])
	}
	if mismatches[1].Field != "target" || mismatches[1].Index != 2 {
		t.Errorf("expected target mismatch at 2, got %s", mismatches[1])
	}
}

func TestFixture_VerifyCountMismatch(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "battles.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	f.Predictions = nil
	f.Expected.Transitions = f.Expected.Transitions[:2]

	mismatches, err := f.Verify(Replay(f.ToEpisodes()))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(mismatches) != 1 || mismatches[0].Field != "count" {
		t.Fatalf("expected a single count mismatch, got %v", mismatches)
	}
}

func TestFixture_VerifyPredictionShape(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "battles.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	f.Predictions.Next = f.Predictions.Next[:1]

	if _, err := f.Verify(Replay(f.ToEpisodes())); err == nil {
		t.Fatal("expected error for short prediction batch")
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestLoadFixture_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFixture_BadGamma(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamma.json")
	if err := os.WriteFile(path, []byte(`{"gamma": 1.5}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for gamma outside [0, 1]")
	}
}

// #endregion fixture-tests
