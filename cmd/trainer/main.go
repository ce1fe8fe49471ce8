package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/danielpatrickdp/mawile/internal/config"
	"github.com/danielpatrickdp/mawile/internal/encode"
	"github.com/danielpatrickdp/mawile/internal/memory"
	"github.com/danielpatrickdp/mawile/internal/model"
	"github.com/danielpatrickdp/mawile/internal/modelclient"
	"github.com/danielpatrickdp/mawile/internal/policy"
	"github.com/danielpatrickdp/mawile/internal/sim"
	"github.com/danielpatrickdp/mawile/internal/trainer"
)

// #region main
func main() {
	configPath := flag.String("config", os.Getenv("MAWILE_CONFIG"), "path to YAML config (defaults when empty)")
	rounds := flag.Int("rounds", -1, "override the number of round-robin rounds (0 runs until interrupted)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *rounds >= 0 {
		cfg.Rounds = *rounds
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("trainer: %v", err)
	}
}

// #endregion main

// #region run
func run(ctx context.Context, cfg config.Config) error {
	archive, err := memory.OpenArchive(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	valueModel, closeModel, err := buildModel(cfg.Model)
	if err != nil {
		return err
	}
	defer closeModel()

	simulator := sim.New(sim.Config{
		TeamSize: cfg.Sim.TeamSize,
		MaxTurns: cfg.Sim.MaxTurns,
		Seed:     cfg.Sim.Seed,
	})

	t, err := trainer.New(cfg, trainer.Deps{
		Model:   valueModel,
		Store:   memory.NewStore(),
		Sim:     simulator,
		Archive: archive,
		DB:      archive.DB(),
	})
	if err != nil {
		return err
	}
	if err := t.LoadCheckpoint(); err != nil {
		return err
	}

	fmt.Println("Mawile trainer ready.")
	fmt.Printf("  DB: %s | Checkpoint: %s | Agents: %d | Rounds: %d\n",
		cfg.DBPath, cfg.Model.Checkpoint, len(t.Agents()), cfg.Rounds)

	err = t.Run(ctx)
	printCumulative(t.Cumulative())
	return err
}

// buildModel returns the remote model when an address is configured, else a
// local dense network sized for the encoder and action space.
func buildModel(mc config.ModelConfig) (model.ValueModel, func(), error) {
	if mc.Addr != "" {
		client, err := modelclient.New(mc.Addr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to model service at %s: %w", mc.Addr, err)
		}
		log.Printf("[TRAIN] using remote model at %s", mc.Addr)
		return client, func() { client.Close() }, nil
	}

	dense, err := model.NewDense(mc.Dense(encode.DenseSize, policy.ActionSpaceSize))
	if err != nil {
		return nil, nil, fmt.Errorf("build dense model: %w", err)
	}
	return dense, func() {}, nil
}

// #endregion run

// #region output
func printCumulative(c map[trainer.Pair]float64) {
	if len(c) == 0 {
		return
	}
	pairs := make([]trainer.Pair, 0, len(c))
	for p := range c {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Player != pairs[j].Player {
			return pairs[i].Player < pairs[j].Player
		}
		return pairs[i].Opponent < pairs[j].Opponent
	})

	fmt.Printf("\n%-12s| %-12s| %s\n", "Player", "Opponent", "Cumulative")
	fmt.Printf("%-12s+%-13s+%s\n", "------------", "-------------", "-----------")
	for _, p := range pairs {
		fmt.Printf("%-12s| %-12s| %.3f\n", p.Player, p.Opponent, c[p])
	}
}

// #endregion output
