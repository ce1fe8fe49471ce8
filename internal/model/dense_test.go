package model

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func newTestDense(t *testing.T) *Dense {
	t.Helper()
	cfg := DefaultDenseConfig(3, 2)
	cfg.HiddenLayers = []int{8}
	d, err := NewDense(cfg)
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}
	return d
}

func TestNewDense_RejectsBadConfig(t *testing.T) {
	if _, err := NewDense(DenseConfig{Inputs: 0, Outputs: 2}); err == nil {
		t.Fatal("expected error for zero inputs")
	}
	cfg := DefaultDenseConfig(3, 2)
	cfg.Activation = "swish"
	if _, err := NewDense(cfg); err == nil {
		t.Fatal("expected error for unknown activation")
	}
}

func TestPredict_Shape(t *testing.T) {
	d := newTestDense(t)
	out, err := d.Predict(context.Background(), [][]float64{{0, 1, 0}, {1, 1, 1}})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(out) != 2 || len(out[0]) != 2 || len(out[1]) != 2 {
		t.Fatalf("unexpected output shape %v", out)
	}
}

func TestPredict_EmptyBatch(t *testing.T) {
	d := newTestDense(t)
	out, err := d.Predict(context.Background(), nil)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %v", out)
	}
}

func TestPredict_WrongWidth(t *testing.T) {
	d := newTestDense(t)
	_, err := d.Predict(context.Background(), [][]float64{{1, 2}})
	if !errors.Is(err, ErrBatchShape) {
		t.Fatalf("expected ErrBatchShape, got %v", err)
	}
}

func TestPredict_CancelledContext(t *testing.T) {
	d := newTestDense(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Predict(ctx, [][]float64{{0, 0, 0}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFit_MismatchedLengths(t *testing.T) {
	d := newTestDense(t)
	err := d.Fit(context.Background(), [][]float64{{0, 0, 0}}, nil, 1)
	if !errors.Is(err, ErrBatchShape) {
		t.Fatalf("expected ErrBatchShape, got %v", err)
	}
	err = d.Fit(context.Background(), [][]float64{{0, 0, 0}}, [][]float64{{1}}, 1)
	if !errors.Is(err, ErrBatchShape) {
		t.Fatalf("expected ErrBatchShape for narrow target, got %v", err)
	}
}

func TestFit_ReducesError(t *testing.T) {
	cfg := DefaultDenseConfig(2, 1)
	cfg.HiddenLayers = []int{8}
	cfg.LearningRate = 0.05
	cfg.Momentum = 0.0
	d, err := NewDense(cfg)
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}

	inputs := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	targets := [][]float64{{0.5}, {0.5}, {0.5}, {0.5}}
	ctx := context.Background()

	mse := func() float64 {
		out, err := d.Predict(ctx, inputs)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		sum := 0.0
		for i := range out {
			diff := out[i][0] - targets[i][0]
			sum += diff * diff
		}
		return sum / float64(len(out))
	}

	before := mse()
	if err := d.Fit(ctx, inputs, targets, 200); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	after := mse()
	if after > before && after > 1e-3 {
		t.Errorf("fit did not reduce error: before=%f after=%f", before, after)
	}
	if math.IsNaN(after) {
		t.Fatal("fit produced NaN predictions")
	}
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	d := newTestDense(t)
	path := filepath.Join(t.TempDir(), "ckpt", "model.json")
	if err := d.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	row := [][]float64{{0.3, -0.2, 0.9}}
	want, _ := d.Predict(context.Background(), row)

	other := newTestDense(t)
	if err := other.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, _ := other.Predict(context.Background(), row)
	for i := range want[0] {
		if math.Abs(want[0][i]-got[0][i]) > 1e-9 {
			t.Fatalf("prediction mismatch after load: want %v got %v", want, got)
		}
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary checkpoint file left behind")
	}
}

func TestLoad_Missing(t *testing.T) {
	d := newTestDense(t)
	err := d.Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrCheckpointUnavailable) {
		t.Fatalf("expected ErrCheckpointUnavailable, got %v", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	d := newTestDense(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := d.Load(path); !errors.Is(err, ErrCheckpointUnavailable) {
		t.Fatalf("expected ErrCheckpointUnavailable, got %v", err)
	}
}

func TestLoad_IncompatibleArchitecture(t *testing.T) {
	small := newTestDense(t)
	path := filepath.Join(t.TempDir(), "small.json")
	if err := small.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(c *DenseConfig)
	}{
		{"wider input", func(c *DenseConfig) { c.Inputs = 4 }},
		{"other hidden layers", func(c *DenseConfig) { c.HiddenLayers = []int{16} }},
		{"other activation", func(c *DenseConfig) { c.Activation = "tanh" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultDenseConfig(3, 2)
			cfg.HiddenLayers = []int{8}
			tc.mutate(&cfg)
			other, err := NewDense(cfg)
			if err != nil {
				t.Fatal(err)
			}
			if err := other.Load(path); !errors.Is(err, ErrCheckpointUnavailable) {
				t.Fatalf("expected ErrCheckpointUnavailable, got %v", err)
			}
		})
	}
}

func TestLoad_ActivationMismatchAfterTanhSave(t *testing.T) {
	cfg := DefaultDenseConfig(3, 2)
	cfg.Activation = "tanh"
	trained, err := NewDense(cfg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "tanh.json")
	if err := trained.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	relu, err := NewDense(DefaultDenseConfig(3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if err := relu.Load(path); !errors.Is(err, ErrCheckpointUnavailable) {
		t.Fatalf("expected ErrCheckpointUnavailable, got %v", err)
	}
}

func TestLoad_EmptyActivationMeansRelu(t *testing.T) {
	cfg := DefaultDenseConfig(3, 2)
	cfg.HiddenLayers = []int{8}
	cfg.Activation = ""
	d, err := NewDense(cfg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "default.json")
	if err := d.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := newTestDense(t).Load(path); err != nil {
		t.Fatalf("empty activation should load into relu: %v", err)
	}
}

func TestLoad_TruncatedWeights(t *testing.T) {
	d := newTestDense(t)
	path := filepath.Join(t.TempDir(), "trunc.json")
	body := `{"inputs":3,"outputs":2,"hidden_layers":[8],"activation":"relu","weights":[[[1]]]}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	if err := d.Load(path); !errors.Is(err, ErrCheckpointUnavailable) {
		t.Fatalf("expected ErrCheckpointUnavailable, got %v", err)
	}
}
