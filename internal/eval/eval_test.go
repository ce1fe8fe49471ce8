package eval

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/danielpatrickdp/mawile/internal/qlearn"
)

type fixedPredictor struct {
	rows [][]float64
	err  error
}

func (f fixedPredictor) Predict(context.Context, [][]float64) ([][]float64, error) {
	return f.rows, f.err
}

func dataset(targets [][]float64) qlearn.Dataset {
	inputs := make([][]float64, len(targets))
	for i := range inputs {
		inputs[i] = []float64{float64(i)}
	}
	return qlearn.Dataset{Inputs: inputs, Targets: targets}
}

func TestEvalPerfectFit(t *testing.T) {
	targets := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	h := NewEvalHarness(DefaultEvalConfig())

	res, err := h.Run(context.Background(), fixedPredictor{rows: targets}, dataset(targets))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Passed {
		t.Fatalf("expected pass: %s", res.Reason)
	}
	if math.Abs(res.R2-1) > 1e-12 || res.MSE != 0 {
		t.Errorf("r2=%v mse=%v", res.R2, res.MSE)
	}
	if res.Samples != 3 {
		t.Errorf("samples=%d", res.Samples)
	}
}

func TestEvalMSE(t *testing.T) {
	targets := [][]float64{{0}, {0}}
	preds := [][]float64{{1}, {3}}
	res, err := NewEvalHarness(DefaultEvalConfig()).Run(context.Background(), fixedPredictor{rows: preds}, dataset(targets))
	if err != nil {
		t.Fatal(err)
	}
	if res.MSE != 5 {
		t.Errorf("mse=%v, want 5", res.MSE)
	}
	if !res.Passed {
		t.Errorf("poor fit should still pass: %s", res.Reason)
	}
}

func TestEvalFailsOnNonFinite(t *testing.T) {
	targets := [][]float64{{1}, {2}}
	preds := [][]float64{{math.NaN()}, {2}}
	res, err := NewEvalHarness(DefaultEvalConfig()).Run(context.Background(), fixedPredictor{rows: preds}, dataset(targets))
	if err != nil {
		t.Fatal(err)
	}
	if res.Passed {
		t.Fatal("expected fail on NaN prediction")
	}
}

func TestEvalFailsOnMagnitude(t *testing.T) {
	cfg := DefaultEvalConfig()
	cfg.MaxAbsPrediction = 10
	targets := [][]float64{{1}, {2}}
	preds := [][]float64{{1}, {-50}}
	res, err := NewEvalHarness(cfg).Run(context.Background(), fixedPredictor{rows: preds}, dataset(targets))
	if err != nil {
		t.Fatal(err)
	}
	if res.Passed {
		t.Fatal("expected fail on oversized prediction")
	}
}

func TestEvalEmptyDataset(t *testing.T) {
	res, err := NewEvalHarness(DefaultEvalConfig()).Run(context.Background(), fixedPredictor{err: errors.New("unused")}, qlearn.Dataset{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Samples != 0 || !res.Passed {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestEvalShapeMismatch(t *testing.T) {
	targets := [][]float64{{1, 2}}
	_, err := NewEvalHarness(DefaultEvalConfig()).Run(context.Background(), fixedPredictor{rows: [][]float64{{1}}}, dataset(targets))
	if !errors.Is(err, qlearn.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	_, err = NewEvalHarness(DefaultEvalConfig()).Run(context.Background(), fixedPredictor{rows: nil}, dataset(targets))
	if !errors.Is(err, qlearn.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch for missing rows, got %v", err)
	}
}

func TestEvalPredictError(t *testing.T) {
	_, err := NewEvalHarness(DefaultEvalConfig()).Run(context.Background(), fixedPredictor{err: errors.New("boom")}, dataset([][]float64{{1}}))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEvalConstantTargetsReportZeroR2(t *testing.T) {
	targets := [][]float64{{1}, {1}, {1}}
	preds := [][]float64{{1}, {1}, {1}}
	res, err := NewEvalHarness(DefaultEvalConfig()).Run(context.Background(), fixedPredictor{rows: preds}, dataset(targets))
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(res.R2) || math.IsInf(res.R2, 0) {
		t.Fatalf("r2 must be finite, got %v", res.R2)
	}
}
