package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	deep "github.com/patrikeh/go-deep"
	"github.com/patrikeh/go-deep/training"
)

// #region config
// DenseConfig defines the Q network architecture and optimiser.
type DenseConfig struct {
	Inputs       int
	Outputs      int
	HiddenLayers []int
	Activation   string // relu | tanh | sigmoid | linear
	LearningRate float64
	Momentum     float64
}

// DefaultDenseConfig returns the default architecture for the given widths.
func DefaultDenseConfig(inputs, outputs int) DenseConfig {
	return DenseConfig{
		Inputs:       inputs,
		Outputs:      outputs,
		HiddenLayers: []int{128, 128},
		Activation:   "relu",
		LearningRate: 0.001,
		Momentum:     0.5,
	}
}

// activationName is Activation with the empty default spelled out.
func (c DenseConfig) activationName() string {
	if c.Activation == "" {
		return "relu"
	}
	return c.Activation
}

func (c DenseConfig) activation() (deep.ActivationType, error) {
	switch c.activationName() {
	case "relu":
		return deep.ActivationReLU, nil
	case "tanh":
		return deep.ActivationTanh, nil
	case "sigmoid":
		return deep.ActivationSigmoid, nil
	case "linear":
		return deep.ActivationLinear, nil
	}
	return 0, fmt.Errorf("unknown activation %q", c.Activation)
}

func (c DenseConfig) network() (*deep.Neural, error) {
	if c.Inputs <= 0 || c.Outputs <= 0 {
		return nil, fmt.Errorf("dense network needs positive widths, got %d inputs and %d outputs", c.Inputs, c.Outputs)
	}
	act, err := c.activation()
	if err != nil {
		return nil, err
	}
	layout := append(append([]int{}, c.HiddenLayers...), c.Outputs)
	return deep.NewNeural(&deep.Config{
		Inputs:     c.Inputs,
		Layout:     layout,
		Activation: act,
		Mode:       deep.ModeRegression,
		Weight:     deep.NewNormal(0.1, 0.0),
		Bias:       true,
	}), nil
}

// #endregion config

// #region dense
// Dense is a fully connected Q network. go-deep keeps activations inside the
// network, so every call is serialised.
type Dense struct {
	mu      sync.Mutex
	config  DenseConfig
	network *deep.Neural
}

// NewDense creates a freshly initialised network.
func NewDense(config DenseConfig) (*Dense, error) {
	network, err := config.network()
	if err != nil {
		return nil, err
	}
	return &Dense{config: config, network: network}, nil
}

// Config returns the architecture the model was built with.
func (d *Dense) Config() DenseConfig {
	return d.config
}

// Predict evaluates every row of batch.
func (d *Dense) Predict(ctx context.Context, batch [][]float64) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, row := range batch {
		if len(row) != d.config.Inputs {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrBatchShape, i, len(row), d.config.Inputs)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([][]float64, len(batch))
	for i, row := range batch {
		pred := d.network.Predict(row)
		out[i] = append([]float64(nil), pred...)
	}
	return out, nil
}

// Fit trains on (inputs, targets) for the given number of epochs with SGD.
func (d *Dense) Fit(ctx context.Context, inputs, targets [][]float64, epochs int) error {
	if len(inputs) != len(targets) {
		return fmt.Errorf("%w: %d inputs, %d targets", ErrBatchShape, len(inputs), len(targets))
	}
	if len(inputs) == 0 || epochs <= 0 {
		return nil
	}

	examples := make(training.Examples, len(inputs))
	for i := range inputs {
		if len(inputs[i]) != d.config.Inputs || len(targets[i]) != d.config.Outputs {
			return fmt.Errorf("%w: row %d is %dx%d, want %dx%d", ErrBatchShape, i,
				len(inputs[i]), len(targets[i]), d.config.Inputs, d.config.Outputs)
		}
		examples[i] = training.Example{Input: inputs[i], Response: targets[i]}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	trainer := training.NewTrainer(training.NewSGD(d.config.LearningRate, d.config.Momentum, 0.0, false), 0)
	trainer.Train(d.network, examples, nil, epochs)
	return nil
}

// #endregion dense

// #region checkpoint
type checkpointFile struct {
	Inputs       int           `json:"inputs"`
	Outputs      int           `json:"outputs"`
	HiddenLayers []int         `json:"hidden_layers"`
	Activation   string        `json:"activation"`
	Weights      [][][]float64 `json:"weights"`
}

// Save writes the weights as JSON, replacing path atomically.
func (d *Dense) Save(path string) error {
	d.mu.Lock()
	cp := checkpointFile{
		Inputs:       d.config.Inputs,
		Outputs:      d.config.Outputs,
		HiddenLayers: d.config.HiddenLayers,
		Activation:   d.config.activationName(),
		Weights:      d.network.Dump().Weights,
	}
	data, err := json.Marshal(cp)
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// Load replaces the weights with the checkpoint at path. A missing,
// malformed or differently shaped checkpoint yields ErrCheckpointUnavailable
// and leaves the model untouched.
func (d *Dense) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s does not exist", ErrCheckpointUnavailable, path)
	}
	if err != nil {
		return fmt.Errorf("read checkpoint %s: %w", path, err)
	}

	var cp checkpointFile
	if err := json.Unmarshal(data, &cp); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrCheckpointUnavailable, path, err)
	}
	if cp.Inputs != d.config.Inputs || cp.Outputs != d.config.Outputs || !sameInts(cp.HiddenLayers, d.config.HiddenLayers) {
		return fmt.Errorf("%w: %s holds a %d-%v-%d network, want %d-%v-%d", ErrCheckpointUnavailable, path,
			cp.Inputs, cp.HiddenLayers, cp.Outputs, d.config.Inputs, d.config.HiddenLayers, d.config.Outputs)
	}
	saved := DenseConfig{Activation: cp.Activation}.activationName()
	if saved != d.config.activationName() {
		return fmt.Errorf("%w: %s was trained with %s, want %s", ErrCheckpointUnavailable, path,
			saved, d.config.activationName())
	}

	network, err := d.config.network()
	if err != nil {
		return err
	}
	if !sameShape(network.Dump().Weights, cp.Weights) {
		return fmt.Errorf("%w: %s weight shape does not match its architecture", ErrCheckpointUnavailable, path)
	}
	network.ApplyWeights(cp.Weights)

	d.mu.Lock()
	d.network = network
	d.mu.Unlock()

	log.Printf("[MODEL] loaded checkpoint %s", path)
	return nil
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameShape(a, b [][][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if len(a[i][j]) != len(b[i][j]) {
				return false
			}
		}
	}
	return true
}

// #endregion checkpoint
