package eval

// #region eval-config
// EvalConfig holds thresholds for post-fit validation.
type EvalConfig struct {
	MaxAbsPrediction float64 // reject if any prediction exceeds this magnitude
	R2Baseline       float64 // warn if R² falls below baseline
}

// DefaultEvalConfig returns the default thresholds.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MaxAbsPrediction: 1e4,
		R2Baseline:       0,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-fit validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
	R2      float64
	MSE     float64
	Samples int
}

// #endregion eval-result

// #region gate
// VetoType enumerates the reasons a checkpoint is not saved.
type VetoType string

const (
	VetoNoData     VetoType = "no_data"
	VetoEvalFailed VetoType = "eval_failed"
)

// VetoSignal represents a detected veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// GateDecision is the output of the checkpoint gate.
type GateDecision struct {
	Action      string // "save" | "skip"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal
}

// #endregion gate
