package trainer

// #region imports
import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/danielpatrickdp/mawile/internal/arena"
)

// #endregion

// #region schema

const matchupOutcomesSchema = `
CREATE TABLE IF NOT EXISTS matchup_outcomes (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    round_id    TEXT NOT NULL,
    phase       TEXT NOT NULL,
    player      TEXT NOT NULL,
    opponent    TEXT NOT NULL,
    wins        INTEGER NOT NULL,
    losses      INTEGER NOT NULL,
    draws       INTEGER NOT NULL,
    win_rate    REAL NOT NULL,
    created_at  TEXT NOT NULL
);
`

const matchupOutcomesIndex = `
CREATE INDEX IF NOT EXISTS idx_matchup_outcomes_lookup
ON matchup_outcomes(player, opponent);
`

// #endregion

// #region memory-struct

// Pair is an ordered (player, opponent) matchup.
type Pair struct {
	Player   string
	Opponent string
}

// Standing aggregates one player's results across every recorded round.
type Standing struct {
	Player      string
	Rounds      int
	Battles     int
	Wins        int
	MeanWinRate float64
}

// MatchupMemory persists per-round matchup results in SQLite.
type MatchupMemory struct {
	db *sql.DB
}

// NewMatchupMemory initializes the matchup_outcomes table.
func NewMatchupMemory(db *sql.DB) (*MatchupMemory, error) {
	if _, err := db.Exec(matchupOutcomesSchema); err != nil {
		return nil, fmt.Errorf("create matchup_outcomes: %w", err)
	}
	if _, err := db.Exec(matchupOutcomesIndex); err != nil {
		return nil, fmt.Errorf("index matchup_outcomes: %w", err)
	}
	return &MatchupMemory{db: db}, nil
}

// #endregion

// #region record

// RecordTable persists every (player, opponent) tally of table in one
// transaction.
func (m *MatchupMemory) RecordTable(roundID, phase string, table arena.Table) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for player, row := range table {
		for opponent, tl := range row {
			_, err := tx.Exec(`
				INSERT INTO matchup_outcomes
				(round_id, phase, player, opponent, wins, losses, draws, win_rate, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				roundID, phase, player, opponent,
				tl.Wins, tl.Losses, tl.Draws,
				table.WinRate(player, opponent),
				now,
			)
			if err != nil {
				return fmt.Errorf("insert matchup %s/%s: %w", player, opponent, err)
			}
		}
	}
	return tx.Commit()
}

// #endregion

// #region query

// Cumulative returns the sum of per-round win rates for every pair.
func (m *MatchupMemory) Cumulative(phase string) (map[Pair]float64, error) {
	rows, err := m.db.Query(`
		SELECT player, opponent, SUM(win_rate)
		FROM matchup_outcomes
		WHERE phase = ?
		GROUP BY player, opponent`, phase)
	if err != nil {
		return nil, fmt.Errorf("query cumulative: %w", err)
	}
	defer rows.Close()

	out := map[Pair]float64{}
	for rows.Next() {
		var p Pair
		var sum float64
		if err := rows.Scan(&p.Player, &p.Opponent, &sum); err != nil {
			return nil, err
		}
		out[p] = sum
	}
	return out, rows.Err()
}

// Standings ranks players by mean per-round win rate, best first. Players
// with fewer than minRounds recorded rounds are left out.
func (m *MatchupMemory) Standings(phase string, minRounds int) ([]Standing, error) {
	rows, err := m.db.Query(`
		SELECT player, COUNT(DISTINCT round_id), SUM(wins + losses + draws), SUM(wins), AVG(win_rate)
		FROM matchup_outcomes
		WHERE phase = ?
		GROUP BY player`, phase)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.Player, &s.Rounds, &s.Battles, &s.Wins, &s.MeanWinRate); err != nil {
			return nil, err
		}
		if s.Rounds < minRounds {
			continue
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanWinRate != out[j].MeanWinRate {
			return out[i].MeanWinRate > out[j].MeanWinRate
		}
		return out[i].Player < out[j].Player
	})
	return out, nil
}

// #endregion
