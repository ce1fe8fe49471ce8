package trainer

// #region imports
import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/danielpatrickdp/mawile/internal/arena"
	"github.com/danielpatrickdp/mawile/internal/battle"
	"github.com/danielpatrickdp/mawile/internal/config"
	"github.com/danielpatrickdp/mawile/internal/eval"
	"github.com/danielpatrickdp/mawile/internal/logging"
	"github.com/danielpatrickdp/mawile/internal/memory"
	"github.com/danielpatrickdp/mawile/internal/model"
	"github.com/danielpatrickdp/mawile/internal/policy"
	"github.com/danielpatrickdp/mawile/internal/qlearn"
	"github.com/google/uuid"
)

// #endregion

// Phases recorded in provenance and matchup statistics.
const (
	PhasePretrain = "pretrain"
	PhaseRound    = "round"
)

// #region deps

// Deps are the collaborators a Trainer drives. Archive and DB are optional:
// without them evicted episodes are dropped and nothing is logged to SQLite.
type Deps struct {
	Model   model.ValueModel
	Store   *memory.Store
	Sim     arena.Simulator
	Archive *memory.Archive
	DB      *sql.DB
}

// RoundSummary reports what one learning step did.
type RoundSummary struct {
	RoundID     string
	Phase       string
	Iteration   int
	Battles     int
	Evicted     int
	Transitions int
	Eval        eval.EvalResult
	Decision    eval.GateDecision
}

// #endregion

// #region trainer-struct

// Trainer runs pre-training and round-robin training over a shared memory
// store and a shared value model.
type Trainer struct {
	cfg     config.Config
	model   model.ValueModel
	store   *memory.Store
	sim     arena.Simulator
	archive *memory.Archive
	db      *sql.DB
	stats   *MatchupMemory

	agents   []battle.Agent
	byName   map[string]battle.Agent
	learners map[string]*policy.QVariant

	harness *eval.EvalHarness
	gate    *eval.Gate

	cumulative map[Pair]float64
	round      int
}

// #endregion

// #region constructor

// New validates cfg and builds every configured agent. Nothing is played
// until Run, Pretrain or Round is called.
func New(cfg config.Config, deps Deps) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Model == nil || deps.Store == nil || deps.Sim == nil {
		return nil, errors.New("trainer needs a model, a memory store and a simulator")
	}

	t := &Trainer{
		cfg:        cfg,
		model:      deps.Model,
		store:      deps.Store,
		sim:        deps.Sim,
		archive:    deps.Archive,
		db:         deps.DB,
		byName:     map[string]battle.Agent{},
		learners:   map[string]*policy.QVariant{},
		harness:    eval.NewEvalHarness(eval.EvalConfig{MaxAbsPrediction: cfg.MaxAbsPrediction}),
		gate:       eval.NewGate(),
		cumulative: map[Pair]float64{},
	}

	for i, ac := range cfg.Agents {
		seed := cfg.Seed + int64(i)
		var agent battle.Agent
		switch ac.Kind {
		case config.KindQ, config.KindSparseQ:
			newVariant := policy.NewQVariant
			if ac.Kind == config.KindSparseQ {
				newVariant = policy.NewSparseQVariant
			}
			q, err := newVariant(deps.Model, ac.Exploration, seed)
			if err != nil {
				return nil, fmt.Errorf("agent %s: %w", ac.Name, err)
			}
			t.learners[ac.Name] = q
			agent = policy.NewPlayer(ac.Name, q, deps.Store, seed)
		case config.KindRandom:
			agent = policy.NewRandomPlayer(ac.Name, seed)
		case config.KindNaive:
			agent = policy.NewNaivePlayer(ac.Name, seed)
		}
		t.agents = append(t.agents, agent)
		t.byName[ac.Name] = agent
	}

	if deps.DB != nil {
		if err := logging.EnsureSchema(deps.DB); err != nil {
			return nil, err
		}
		stats, err := NewMatchupMemory(deps.DB)
		if err != nil {
			return nil, err
		}
		t.stats = stats
	}
	return t, nil
}

// Agents returns the configured agents in configuration order.
func (t *Trainer) Agents() []battle.Agent {
	return t.agents
}

// Cumulative returns the running sum of round-robin win rates per pair.
func (t *Trainer) Cumulative() map[Pair]float64 {
	out := make(map[Pair]float64, len(t.cumulative))
	for k, v := range t.cumulative {
		out[k] = v
	}
	return out
}

// #endregion

// #region checkpoint

// LoadCheckpoint restores the model from the configured checkpoint when the
// model supports it. An unusable checkpoint is logged and training starts
// from a fresh model.
func (t *Trainer) LoadCheckpoint() error {
	cp, ok := t.model.(model.Checkpointer)
	if !ok {
		return nil
	}
	err := cp.Load(t.cfg.Model.Checkpoint)
	if errors.Is(err, model.ErrCheckpointUnavailable) {
		log.Printf("[TRAIN] using a fresh model: %v", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	log.Printf("[TRAIN] using the saved model from %s", t.cfg.Model.Checkpoint)
	return nil
}

// #endregion

// #region run

// Run pre-trains, then plays rounds until the configured count is reached
// or ctx is cancelled. Kill switch: TRAINER_ENABLED=false makes Run a no-op.
func (t *Trainer) Run(ctx context.Context) error {
	if !t.cfg.Enabled {
		log.Printf("[TRAIN] disabled, nothing to do")
		return nil
	}
	if err := t.Pretrain(ctx); err != nil {
		return err
	}
	for r := 0; t.cfg.Rounds == 0 || r < t.cfg.Rounds; r++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.Round(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Pretrain plays the configured player against its opponent with an
// exploration rate annealed as max(floor, decay^it), learning after every
// iteration. The player's configured rate is restored afterwards.
func (t *Trainer) Pretrain(ctx context.Context) error {
	p := t.cfg.Pretrain
	if p.Iterations == 0 {
		return nil
	}
	player, opponent := t.byName[p.Player], t.byName[p.Opponent]
	q := t.learners[p.Player]

	original := q.ExplorationRate()
	defer func() {
		if err := q.SetExplorationRate(original); err != nil {
			log.Printf("[TRAIN] restore exploration rate: %v", err)
		}
	}()

	for it := 0; it < p.Iterations; it++ {
		rate := math.Max(p.Floor, math.Pow(p.Decay, float64(it)))
		if err := q.SetExplorationRate(rate); err != nil {
			return fmt.Errorf("pretrain exploration: %w", err)
		}
		log.Printf("[TRAIN] pretrain %d/%d: %s vs %s at exploration %.3f",
			it+1, p.Iterations, p.Player, p.Opponent, rate)

		table, err := arena.Challenge(ctx, t.sim, player, opponent, p.Challenges, t.cfg.Concurrency)
		if err != nil {
			return fmt.Errorf("pretrain %d: %w", it, err)
		}
		if _, err := t.learn(ctx, PhasePretrain, it, table, p.Epochs); err != nil {
			return fmt.Errorf("pretrain %d: %w", it, err)
		}
	}
	return nil
}

// Round cross-evaluates every agent once per pair and learns from memory.
func (t *Trainer) Round(ctx context.Context) (RoundSummary, error) {
	t.round++
	table, err := arena.CrossEvaluate(ctx, t.sim, t.agents, t.cfg.Challenges, t.cfg.Concurrency)
	if err != nil {
		return RoundSummary{}, fmt.Errorf("round %d: %w", t.round, err)
	}

	for player, row := range table {
		for opponent := range row {
			t.cumulative[Pair{player, opponent}] += table.WinRate(player, opponent)
		}
	}
	log.Printf("[TRAIN] round %d standings: %s", t.round, formatCumulative(t.cumulative))

	summary, err := t.learn(ctx, PhaseRound, t.round, table, t.cfg.Epochs)
	if err != nil {
		return RoundSummary{}, fmt.Errorf("round %d: %w", t.round, err)
	}
	return summary, nil
}

// #endregion

// #region learn

// learn runs after the arena barrier: evict, archive, derive, build
// targets, fit, evaluate, checkpoint and log.
func (t *Trainer) learn(ctx context.Context, phase string, iteration int, table arena.Table, epochs int) (RoundSummary, error) {
	s := RoundSummary{
		RoundID:   uuid.NewString(),
		Phase:     phase,
		Iteration: iteration,
		Battles:   table.Battles(),
	}

	evicted, err := t.store.Evict(t.cfg.Retain)
	if err != nil {
		return s, fmt.Errorf("evict: %w", err)
	}
	s.Evicted = len(evicted)
	if t.archive != nil && len(evicted) > 0 {
		if err := t.archive.SaveEpisodes(s.RoundID, evicted); err != nil {
			return s, fmt.Errorf("archive: %w", err)
		}
	}
	if t.stats != nil {
		if err := t.stats.RecordTable(s.RoundID, phase, table); err != nil {
			return s, fmt.Errorf("matchup stats: %w", err)
		}
	}

	transitions := memory.DeriveTransitions(t.store.Snapshot())
	s.Transitions = len(transitions)

	ds, err := qlearn.FromModel(ctx, t.model, transitions, t.cfg.Gamma)
	if err != nil {
		return s, fmt.Errorf("targets: %w", err)
	}
	if err := t.model.Fit(ctx, ds.Inputs, ds.Targets, epochs); err != nil {
		return s, fmt.Errorf("fit: %w", err)
	}

	s.Eval, err = t.harness.Run(ctx, t.model, ds)
	if err != nil {
		return s, fmt.Errorf("eval: %w", err)
	}
	s.Decision = t.gate.Evaluate(s.Eval)

	if s.Decision.Action == "save" {
		if cp, ok := t.model.(model.Checkpointer); ok {
			if err := cp.Save(t.cfg.Model.Checkpoint); err != nil {
				return s, fmt.Errorf("save checkpoint: %w", err)
			}
		}
	}

	log.Printf("[TRAIN] %s %d: battles=%d evicted=%d transitions=%d r2=%.4f mse=%.4f checkpoint=%s (%s)",
		phase, iteration, s.Battles, s.Evicted, s.Transitions, s.Eval.R2, s.Eval.MSE, s.Decision.Action, s.Decision.Reason)

	if t.db != nil {
		if err := t.logRound(s, table, epochs); err != nil {
			log.Printf("[TRAIN] logging error: %v", err)
		}
	}
	return s, nil
}

func (t *Trainer) logRound(s RoundSummary, table arena.Table, epochs int) error {
	record := logging.RoundRecord{
		RoundID:     s.RoundID,
		Phase:       s.Phase,
		Gamma:       t.cfg.Gamma,
		Retain:      t.cfg.Retain,
		Epochs:      epochs,
		Exploration: map[string]float64{},
		WinRates:    map[string]map[string]float64{},
		GateAction:  s.Decision.Action,
		GateVetoed:  s.Decision.Vetoed,
		GateReason:  s.Decision.Reason,
	}
	for name, q := range t.learners {
		record.Exploration[name] = q.ExplorationRate()
	}
	for player, row := range table {
		record.WinRates[player] = map[string]float64{}
		for opponent := range row {
			record.WinRates[player][opponent] = table.WinRate(player, opponent)
		}
	}
	for _, m := range s.Eval.Metrics {
		record.Metrics = append(record.Metrics, logging.RoundMetric{Name: m.Name, Value: m.Value, Pass: m.Pass})
	}
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal round record: %w", err)
	}

	return logging.LogRound(t.db, logging.RoundEntry{
		RoundID:     s.RoundID,
		Phase:       s.Phase,
		Iteration:   s.Iteration,
		Battles:     s.Battles,
		Evicted:     s.Evicted,
		Transitions: s.Transitions,
		R2:          s.Eval.R2,
		MSE:         s.Eval.MSE,
		Decision:    s.Decision.Action,
		Reason:      s.Decision.Reason,
		RecordJSON:  string(recordJSON),
	})
}

// #endregion

// #region helpers

func formatCumulative(c map[Pair]float64) string {
	pairs := make([]Pair, 0, len(c))
	for p := range c {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Player != pairs[j].Player {
			return pairs[i].Player < pairs[j].Player
		}
		return pairs[i].Opponent < pairs[j].Opponent
	})
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s>%s=%.2f", p.Player, p.Opponent, c[p])
	}
	return strings.Join(parts, " ")
}

// #endregion
