package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/mawile/internal/logging"
	"github.com/danielpatrickdp/mawile/internal/memory"
	"github.com/danielpatrickdp/mawile/internal/trainer"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to mawile.db")
	last := flag.Int("last", 20, "show N most recent rounds")
	round := flag.String("round", "", "show single round detail")
	standings := flag.String("standings", "", "show player standings for a phase (pretrain|round)")
	minRounds := flag.Int("min-rounds", 1, "hide players with fewer recorded rounds in standings")
	episodes := flag.Int("episodes", 0, "show N most recently archived episodes")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/mawile.db [--last N] [--round id] [--standings phase] [--episodes N] [--json]")
		os.Exit(2)
	}

	archive, err := memory.OpenArchive(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()
	if err := logging.EnsureSchema(archive.DB()); err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *round != "":
		err = runDetailMode(archive.DB(), *round, *jsonOut)
	case *standings != "":
		err = runStandingsMode(archive.DB(), *standings, *minRounds, *jsonOut)
	case *episodes > 0:
		err = runEpisodesMode(archive, *episodes, *jsonOut)
	default:
		err = runListMode(archive.DB(), *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RoundID     string  `json:"round_id"`
	Phase       string  `json:"phase"`
	Iteration   int     `json:"iteration"`
	Battles     int     `json:"battles"`
	Evicted     int     `json:"evicted"`
	Transitions int     `json:"transitions"`
	R2          float64 `json:"r2"`
	MSE         float64 `json:"mse"`
	Decision    string  `json:"decision"`
	Reason      string  `json:"reason,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func runListMode(db *sql.DB, last int, jsonOut bool) error {
	entries, err := logging.ListRounds(db, last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no rounds found")
		return nil
	}

	// ListRounds returns newest first, reverse for chronological
	rows := make([]listRow, len(entries))
	for i, e := range entries {
		rows[len(entries)-1-i] = listRow{
			RoundID:     e.RoundID,
			Phase:       e.Phase,
			Iteration:   e.Iteration,
			Battles:     e.Battles,
			Evicted:     e.Evicted,
			Transitions: e.Transitions,
			R2:          e.R2,
			MSE:         e.MSE,
			Decision:    e.Decision,
			Reason:      e.Reason,
			CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-8s  %4s  %7s  %7s  %11s  %8s  %10s  %-8s  %s\n",
		"Round", "Phase", "Iter", "Battles", "Evicted", "Transitions", "R2", "MSE", "Decision", "Time")
	fmt.Printf("%-10s+-%-8s+-%4s+-%7s+-%7s+-%11s+-%8s+-%10s+-%-8s+-%s\n",
		"----------", "--------", "----", "-------", "-------", "-----------", "--------", "----------", "--------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %-8s  %4d  %7d  %7d  %11d  %8.4f  %10.4f  %-8s  %s\n",
			shortID(r.RoundID), r.Phase, r.Iteration, r.Battles, r.Evicted, r.Transitions, r.R2, r.MSE, r.Decision, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RoundID   string               `json:"round_id"`
	Phase     string               `json:"phase"`
	Iteration int                  `json:"iteration"`
	CreatedAt string               `json:"created_at"`
	Decision  string               `json:"decision"`
	Reason    string               `json:"reason"`
	Record    *logging.RoundRecord `json:"record,omitempty"`
}

func runDetailMode(db *sql.DB, roundID string, jsonOut bool) error {
	e, err := logging.GetRound(db, roundID)
	if err != nil {
		return err
	}

	out := detailOutput{
		RoundID:   e.RoundID,
		Phase:     e.Phase,
		Iteration: e.Iteration,
		CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Decision:  e.Decision,
		Reason:    e.Reason,
	}
	if e.RecordJSON != "" {
		var rec logging.RoundRecord
		if err := json.Unmarshal([]byte(e.RecordJSON), &rec); err == nil {
			out.Record = &rec
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Round:     %s\n", out.RoundID)
	fmt.Printf("Phase:     %s (iteration %d)\n", out.Phase, out.Iteration)
	fmt.Printf("Created:   %s\n", out.CreatedAt)
	fmt.Printf("Decision:  %s\n", out.Decision)
	fmt.Printf("Reason:    %s\n", out.Reason)

	if rec := out.Record; rec != nil {
		fmt.Printf("\nGamma %.3f | Retain %d | Epochs %d\n", rec.Gamma, rec.Retain, rec.Epochs)
		if len(rec.Metrics) > 0 {
			fmt.Printf("\nMetrics:\n")
			for _, m := range rec.Metrics {
				fmt.Printf("  %-20s %12.4f  pass=%v\n", m.Name, m.Value, m.Pass)
			}
		}
		if len(rec.Exploration) > 0 {
			fmt.Printf("\nExploration:\n")
			for _, name := range sortedKeys(rec.Exploration) {
				fmt.Printf("  %-12s %.3f\n", name, rec.Exploration[name])
			}
		}
		if len(rec.WinRates) > 0 {
			fmt.Printf("\nWin rates:\n")
			for _, player := range sortedKeys(rec.WinRates) {
				opps := rec.WinRates[player]
				for _, opp := range sortedKeys(opps) {
					fmt.Printf("  %-12s vs %-12s %.3f\n", player, opp, opps[opp])
				}
			}
		}
	}
	return nil
}

// #endregion detail-mode

// #region standings-mode

func runStandingsMode(db *sql.DB, phase string, minRounds int, jsonOut bool) error {
	mm, err := trainer.NewMatchupMemory(db)
	if err != nil {
		return err
	}
	standings, err := mm.Standings(phase, minRounds)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(standings)
	}
	if len(standings) == 0 {
		fmt.Fprintf(os.Stderr, "no %s results found\n", phase)
		return nil
	}

	fmt.Printf("%-4s  %-12s  %6s  %7s  %5s  %s\n", "Rank", "Player", "Rounds", "Battles", "Wins", "Mean Win Rate")
	fmt.Printf("%-4s+-%-12s+-%6s+-%7s+-%5s+-%s\n", "----", "------------", "------", "-------", "-----", "-------------")
	for i, s := range standings {
		fmt.Printf("%-4d  %-12s  %6d  %7d  %5d  %.3f\n", i+1, s.Player, s.Rounds, s.Battles, s.Wins, s.MeanWinRate)
	}
	return nil
}

// #endregion standings-mode

// #region episodes-mode

type episodeRow struct {
	Key        string  `json:"key"`
	RoundID    string  `json:"round_id"`
	Steps      int     `json:"steps"`
	FirstScore float64 `json:"first_score"`
	FinalScore float64 `json:"final_score"`
	Terminated bool    `json:"terminated"`
	EvictedAt  string  `json:"evicted_at"`
}

func runEpisodesMode(archive *memory.Archive, n int, jsonOut bool) error {
	summaries, err := archive.ListEpisodes(n)
	if err != nil {
		return err
	}
	rows := make([]episodeRow, len(summaries))
	for i, s := range summaries {
		rows[i] = episodeRow{
			Key:        string(s.Key),
			RoundID:    s.RoundID,
			Steps:      s.Steps,
			FirstScore: s.FirstScore,
			FinalScore: s.FinalScore,
			Terminated: s.Terminated,
			EvictedAt:  s.EvictedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if jsonOut {
		return printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no archived episodes found")
		return nil
	}

	fmt.Printf("%-48s  %-10s  %5s  %9s  %9s  %-4s  %s\n", "Episode", "Round", "Steps", "First", "Final", "Done", "Evicted")
	for _, r := range rows {
		done := "no"
		if r.Terminated {
			done = "yes"
		}
		fmt.Printf("%-48s  %-10s  %5d  %9.3f  %9.3f  %-4s  %s\n",
			r.Key, shortID(r.RoundID), r.Steps, r.FirstScore, r.FinalScore, done, r.EvictedAt)
	}
	return nil
}

// #endregion episodes-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// #endregion output
