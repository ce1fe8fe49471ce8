package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/mawile/internal/config"
	"github.com/danielpatrickdp/mawile/internal/encode"
	"github.com/danielpatrickdp/mawile/internal/memory"
	"github.com/danielpatrickdp/mawile/internal/model"
	"github.com/danielpatrickdp/mawile/internal/policy"
	"github.com/danielpatrickdp/mawile/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to mawile.db (archive mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	limit := flag.Int("limit", 200, "replay the N most recently archived episodes")
	configPath := flag.String("config", "", "trainer YAML config for gamma and model shape")
	checkpoint := flag.String("checkpoint", "", "score archived episodes against this checkpoint")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/mawile.db [--limit N] [--config file] [--checkpoint file]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runArchiveMode(*dbPath, *limit, *configPath, *checkpoint)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region archive-mode

func runArchiveMode(dbPath string, limit int, configPath, checkpoint string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 2
	}

	archive, err := memory.OpenArchive(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer archive.Close()

	episodes, err := archive.LoadEpisodes(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load episodes: %v\n", err)
		return 2
	}
	results := replay.Replay(episodes)
	printSummary(replay.Summarize(results))

	if checkpoint == "" {
		return 0
	}

	dense, err := model.NewDense(cfg.Model.Dense(encode.DenseSize, policy.ActionSpaceSize))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build model: %v\n", err)
		return 2
	}
	if err := dense.Load(checkpoint); err != nil {
		fmt.Fprintf(os.Stderr, "load checkpoint: %v\n", err)
		return 2
	}

	rc := replay.DefaultReplayConfig()
	rc.Gamma = cfg.Gamma
	rc.EvalConfig.MaxAbsPrediction = cfg.MaxAbsPrediction
	scored, err := replay.Score(context.Background(), dense, replay.Transitions(results), rc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "score: %v\n", err)
		return 1
	}

	fmt.Printf("\nCheckpoint %s against its own targets (gamma %.3f):\n", checkpoint, rc.Gamma)
	for _, m := range scored.Eval.Metrics {
		fmt.Printf("  %-20s %12.4f  pass=%v\n", m.Name, m.Value, m.Pass)
	}
	fmt.Printf("  gate: %s (%s)\n", scored.Decision.Action, scored.Decision.Reason)
	if !scored.Eval.Passed {
		return 1
	}
	return 0
}

// #endregion archive-mode

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results := replay.Replay(f.ToEpisodes())
	if f.Description != "" {
		fmt.Println(f.Description)
	}
	printSummary(replay.Summarize(results))

	mismatches, err := f.Verify(results)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		return 1
	}
	for _, m := range mismatches {
		fmt.Printf("DIFF %s\n", m)
	}
	fmt.Printf("\nExpectations: %d transitions, %d diverge\n", len(f.Expected.Transitions), len(mismatches))
	if len(mismatches) > 0 {
		return 1
	}
	return 0
}

// #endregion fixture-mode

// #region output

func printSummary(s replay.ReplaySummary) {
	fmt.Printf("%-22s %d\n", "Episodes:", s.Episodes)
	fmt.Printf("%-22s %d\n", "Observations:", s.Observations)
	fmt.Printf("%-22s %d\n", "Transitions:", s.Transitions)
	fmt.Printf("%-22s %d\n", "Terminal transitions:", s.TerminalTransitions)
	fmt.Printf("%-22s %d\n", "Unterminated episodes:", s.Unterminated)
	fmt.Printf("%-22s %.4f\n", "Mean return:", s.MeanReturn)
}

// #endregion output
