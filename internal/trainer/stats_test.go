package trainer

import (
	"database/sql"
	"testing"

	"github.com/danielpatrickdp/mawile/internal/arena"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMatchupMemory_RecordAndQuery(t *testing.T) {
	mem, err := NewMatchupMemory(newTestDB(t))
	if err != nil {
		t.Fatal(err)
	}

	// No data → empty result
	standings, err := mem.Standings(PhaseRound, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(standings) != 0 {
		t.Fatalf("expected no standings, got %+v", standings)
	}

	r1 := arena.Table{
		"a": {"b": {Wins: 1}},
		"b": {"a": {Losses: 1}},
	}
	r2 := arena.Table{
		"a": {"b": {Losses: 1}},
		"b": {"a": {Wins: 1}},
	}
	r3 := arena.Table{
		"a": {"b": {Wins: 2}},
		"b": {"a": {Losses: 2}},
	}
	for i, tbl := range []arena.Table{r1, r2, r3} {
		if err := mem.RecordTable(string(rune('x'+i)), PhaseRound, tbl); err != nil {
			t.Fatal(err)
		}
	}
	if err := mem.RecordTable("p", PhasePretrain, r1); err != nil {
		t.Fatal(err)
	}

	cum, err := mem.Cumulative(PhaseRound)
	if err != nil {
		t.Fatal(err)
	}
	if cum[Pair{"a", "b"}] != 2 || cum[Pair{"b", "a"}] != 1 {
		t.Errorf("cumulative %+v", cum)
	}

	standings, err = mem.Standings(PhaseRound, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(standings) != 2 || standings[0].Player != "a" {
		t.Fatalf("unexpected standings %+v", standings)
	}
	if standings[0].Battles != 4 || standings[0].Wins != 3 {
		t.Errorf("a: %+v", standings[0])
	}

	// Below threshold → filtered.
	standings, err = mem.Standings(PhaseRound, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(standings) != 0 {
		t.Errorf("expected threshold to filter all players, got %+v", standings)
	}
}

func TestMatchupMemory_ClosedDB(t *testing.T) {
	db := newTestDB(t)
	mem, err := NewMatchupMemory(db)
	if err != nil {
		t.Fatal(err)
	}
	db.Close()
	if err := mem.RecordTable("r", PhaseRound, arena.Table{"a": {"b": {Wins: 1}}}); err == nil {
		t.Fatal("expected error on closed db")
	}
}
