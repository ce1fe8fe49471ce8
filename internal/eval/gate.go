package eval

import "fmt"

// Gate decides whether a fitted model is checkpointed.
type Gate struct{}

// NewGate creates a checkpoint gate.
func NewGate() *Gate {
	return &Gate{}
}

// Evaluate vetoes rounds that trained on nothing or whose eval failed.
func (g *Gate) Evaluate(result EvalResult) GateDecision {
	var vetoes []VetoSignal

	if result.Samples == 0 {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoNoData,
			Reason: "no transitions were fitted",
		})
	}
	if !result.Passed {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoEvalFailed,
			Reason: result.Reason,
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "skip",
			Reason:      fmt.Sprintf("veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
		}
	}
	return GateDecision{
		Action: "save",
		Reason: fmt.Sprintf("passed gate: r2=%.4f mse=%.4f", result.R2, result.MSE),
	}
}
