package eval

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/danielpatrickdp/mawile/internal/qlearn"
	"gonum.org/v1/gonum/stat"
)

// #region eval-harness
// EvalHarness scores a freshly fitted model against the dataset it was
// fitted on.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run predicts the dataset inputs and compares them with the targets.
// R² and MSE are computed over every target cell. Only non-finite or
// oversized predictions fail the run.
func (h *EvalHarness) Run(ctx context.Context, p qlearn.Predictor, ds qlearn.Dataset) (EvalResult, error) {
	if ds.Len() == 0 {
		return EvalResult{Passed: true, Reason: "empty dataset"}, nil
	}

	preds, err := p.Predict(ctx, ds.Inputs)
	if err != nil {
		return EvalResult{}, fmt.Errorf("eval predict: %w", err)
	}
	if len(preds) != ds.Len() {
		return EvalResult{}, fmt.Errorf("%w: %d predictions for %d samples", qlearn.ErrShapeMismatch, len(preds), ds.Len())
	}

	var estimates, values []float64
	nonFinite, maxAbs := 0, 0.0
	for i, row := range preds {
		if len(row) != len(ds.Targets[i]) {
			return EvalResult{}, fmt.Errorf("%w: prediction row %d has %d values, target has %d",
				qlearn.ErrShapeMismatch, i, len(row), len(ds.Targets[i]))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				nonFinite++
				continue
			}
			maxAbs = math.Max(maxAbs, math.Abs(v))
			estimates = append(estimates, v)
			values = append(values, ds.Targets[i][j])
		}
	}

	mse := meanSquaredError(estimates, values)
	r2 := 0.0
	if len(values) > 1 {
		r2 = stat.RSquaredFrom(estimates, values, nil)
	}
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		r2 = 0
	}

	var metrics []EvalMetric
	var failReasons []string

	finitePass := nonFinite == 0
	metrics = append(metrics, EvalMetric{Name: "non_finite", Value: float64(nonFinite), Pass: finitePass})
	if !finitePass {
		failReasons = append(failReasons, fmt.Sprintf("%d non-finite predictions", nonFinite))
	}

	magnitudePass := maxAbs <= h.config.MaxAbsPrediction
	metrics = append(metrics, EvalMetric{Name: "max_abs_prediction", Value: maxAbs, Pass: magnitudePass})
	if !magnitudePass {
		failReasons = append(failReasons, fmt.Sprintf("prediction magnitude %.4g exceeds %.4g", maxAbs, h.config.MaxAbsPrediction))
	}

	metrics = append(metrics, EvalMetric{Name: "mse", Value: mse, Pass: true})

	// Informational only.
	r2Pass := r2 >= h.config.R2Baseline
	metrics = append(metrics, EvalMetric{Name: "r2", Value: r2, Pass: r2Pass})
	if !r2Pass {
		log.Printf("[EVAL] r2 %.4f below baseline %.4f", r2, h.config.R2Baseline)
	}

	reason := "all checks passed"
	if len(failReasons) > 0 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
		R2:      r2,
		MSE:     mse,
		Samples: ds.Len(),
	}, nil
}

// #endregion eval-harness

// #region helpers
func meanSquaredError(estimates, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for i := range values {
		d := estimates[i] - values[i]
		sum += d * d
	}
	return sum / float64(len(values))
}

// #endregion helpers
