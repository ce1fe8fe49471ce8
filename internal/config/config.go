package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/danielpatrickdp/mawile/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Agent kinds.
const (
	KindQ       = "q"
	KindSparseQ = "sparse_q"
	KindRandom  = "random"
	KindNaive   = "naive"
)

// #region types
// AgentConfig declares one round-robin participant.
type AgentConfig struct {
	Name        string  `yaml:"name"`
	Kind        string  `yaml:"kind"`
	Exploration float64 `yaml:"exploration"`
}

// PretrainConfig controls the annealed warm-up phase.
type PretrainConfig struct {
	Iterations int     `yaml:"iterations"`
	Challenges int     `yaml:"challenges"`
	Epochs     int     `yaml:"epochs"`
	Decay      float64 `yaml:"decay"`
	Floor      float64 `yaml:"floor"`
	Player     string  `yaml:"player"`   // agent name
	Opponent   string  `yaml:"opponent"` // agent name
}

// ModelConfig selects and shapes the value model. A non-empty Addr selects
// the remote model.
type ModelConfig struct {
	Checkpoint   string  `yaml:"checkpoint"`
	Addr         string  `yaml:"addr"`
	HiddenLayers []int   `yaml:"hidden_layers"`
	Activation   string  `yaml:"activation"`
	LearningRate float64 `yaml:"learning_rate"`
	Momentum     float64 `yaml:"momentum"`
}

// SimConfig shapes the in-process simulator.
type SimConfig struct {
	TeamSize int   `yaml:"team_size"`
	MaxTurns int   `yaml:"max_turns"`
	Seed     int64 `yaml:"seed"`
}

// Config is the full trainer configuration.
type Config struct {
	DBPath      string  `yaml:"db"`
	Enabled     bool    `yaml:"enabled"`
	Gamma       float64 `yaml:"gamma"`
	Retain      int     `yaml:"retain"`
	Rounds      int     `yaml:"rounds"` // 0 runs until cancelled
	Challenges  int     `yaml:"challenges"`
	Epochs      int     `yaml:"epochs"`
	Concurrency int     `yaml:"concurrency"`
	Seed        int64   `yaml:"seed"`

	MaxAbsPrediction float64 `yaml:"max_abs_prediction"`

	Agents   []AgentConfig  `yaml:"agents"`
	Pretrain PretrainConfig `yaml:"pretrain"`
	Model    ModelConfig    `yaml:"model"`
	Sim      SimConfig      `yaml:"sim"`
}

// #endregion types

// #region defaults
// Default returns the stock configuration: five Q agents at increasing
// exploration plus naive and random baselines.
func Default() Config {
	return Config{
		DBPath:      "mawile.db",
		Enabled:     true,
		Gamma:       0.95,
		Retain:      200,
		Rounds:      0,
		Challenges:  1,
		Epochs:      1,
		Concurrency: 4,
		Seed:        1,

		MaxAbsPrediction: 1e4,

		Agents: []AgentConfig{
			{Name: "naive", Kind: KindNaive},
			{Name: "random", Kind: KindRandom},
			{Name: "q-0.01", Kind: KindQ, Exploration: 0.01},
			{Name: "q-0.05", Kind: KindQ, Exploration: 0.05},
			{Name: "q-0.10", Kind: KindQ, Exploration: 0.10},
			{Name: "q-0.20", Kind: KindQ, Exploration: 0.20},
			{Name: "q-0.40", Kind: KindQ, Exploration: 0.40},
		},
		Pretrain: PretrainConfig{
			Iterations: 10,
			Challenges: 10,
			Epochs:     10,
			Decay:      0.6,
			Floor:      0.05,
			Player:     "q-0.01",
			Opponent:   "naive",
		},
		Model: ModelConfig{
			Checkpoint:   "var/checkpoint.json",
			HiddenLayers: []int{128, 128},
			Activation:   "relu",
			LearningRate: 0.001,
			Momentum:     0.5,
		},
		Sim: SimConfig{TeamSize: 3, MaxTurns: 100, Seed: 1},
	}
}

// #endregion defaults

// #region load
// Load reads a YAML file over the defaults, then applies environment
// overrides. An empty path yields defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.DBPath = envOr("MAWILE_DB", c.DBPath)
	c.Model.Checkpoint = envOr("MODEL_PATH", c.Model.Checkpoint)
	c.Model.Addr = envOr("MODEL_ADDR", c.Model.Addr)
	if v := os.Getenv("TRAINER_ENABLED"); v == "false" {
		c.Enabled = false
	}

	if v := os.Getenv("MAWILE_GAMMA"); v != "" {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: MAWILE_GAMMA=%q: %v", ErrInvalidConfig, v, err)
		}
		c.Gamma = g
	}
	if v := os.Getenv("MAWILE_RETAIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MAWILE_RETAIN=%q: %v", ErrInvalidConfig, v, err)
		}
		c.Retain = n
	}
	if v := os.Getenv("MAWILE_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MAWILE_ROUNDS=%q: %v", ErrInvalidConfig, v, err)
		}
		c.Rounds = n
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load

// #region model
// Dense returns the dense network shape for the given input and output
// widths, taking each unset field from model.DefaultDenseConfig.
func (m ModelConfig) Dense(inputs, outputs int) model.DenseConfig {
	dc := model.DefaultDenseConfig(inputs, outputs)
	if len(m.HiddenLayers) > 0 {
		dc.HiddenLayers = append([]int(nil), m.HiddenLayers...)
	}
	if m.Activation != "" {
		dc.Activation = m.Activation
	}
	if m.LearningRate > 0 {
		dc.LearningRate = m.LearningRate
	}
	if m.Momentum > 0 {
		dc.Momentum = m.Momentum
	}
	return dc
}

// #endregion model

// #region validate
// Validate checks every constraint the trainer relies on.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if math.IsNaN(c.Gamma) || c.Gamma < 0 || c.Gamma > 1 {
		return invalid("gamma %v outside [0, 1]", c.Gamma)
	}
	if c.Retain < 0 {
		return invalid("retain %d is negative", c.Retain)
	}
	if c.Rounds < 0 {
		return invalid("rounds %d is negative", c.Rounds)
	}
	if c.Challenges < 1 {
		return invalid("challenges %d must be at least 1", c.Challenges)
	}
	if c.Epochs < 1 {
		return invalid("epochs %d must be at least 1", c.Epochs)
	}
	if c.Concurrency < 1 {
		return invalid("concurrency %d must be at least 1", c.Concurrency)
	}
	if c.MaxAbsPrediction <= 0 {
		return invalid("max_abs_prediction %v must be positive", c.MaxAbsPrediction)
	}

	if len(c.Agents) < 2 {
		return invalid("need at least 2 agents, got %d", len(c.Agents))
	}
	names := map[string]AgentConfig{}
	learners := 0
	for _, a := range c.Agents {
		if a.Name == "" {
			return invalid("agent without a name")
		}
		if _, dup := names[a.Name]; dup {
			return invalid("duplicate agent %q", a.Name)
		}
		names[a.Name] = a
		switch a.Kind {
		case KindQ, KindSparseQ:
			learners++
		case KindRandom, KindNaive:
		default:
			return invalid("agent %q has unknown kind %q", a.Name, a.Kind)
		}
		if !validRate(a.Exploration) {
			return invalid("agent %q exploration %v outside [0, 1]", a.Name, a.Exploration)
		}
	}
	if learners == 0 {
		return invalid("no learning agent configured")
	}

	p := c.Pretrain
	if p.Iterations < 0 {
		return invalid("pretrain iterations %d is negative", p.Iterations)
	}
	if p.Iterations > 0 {
		if p.Challenges < 1 {
			return invalid("pretrain challenges %d must be at least 1", p.Challenges)
		}
		if p.Epochs < 1 {
			return invalid("pretrain epochs %d must be at least 1", p.Epochs)
		}
		if !validRate(p.Decay) || !validRate(p.Floor) {
			return invalid("pretrain decay %v and floor %v must be in [0, 1]", p.Decay, p.Floor)
		}
		player, ok := names[p.Player]
		if !ok || (player.Kind != KindQ && player.Kind != KindSparseQ) {
			return invalid("pretrain player %q is not a learning agent", p.Player)
		}
		if _, ok := names[p.Opponent]; !ok || p.Opponent == p.Player {
			return invalid("pretrain opponent %q is not another configured agent", p.Opponent)
		}
	}

	if c.Model.Addr == "" && c.Model.Checkpoint == "" {
		return invalid("model needs a checkpoint path or a remote address")
	}
	return nil
}

func validRate(r float64) bool {
	return !math.IsNaN(r) && r >= 0 && r <= 1
}

// #endregion validate
