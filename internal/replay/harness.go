package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/mawile/internal/eval"
	"github.com/danielpatrickdp/mawile/internal/memory"
	"github.com/danielpatrickdp/mawile/internal/qlearn"
)

// #region types
// ReplayConfig bundles the discount and eval thresholds for a replay run.
type ReplayConfig struct {
	Gamma      float64
	EvalConfig eval.EvalConfig
}

// DefaultReplayConfig matches the trainer defaults.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Gamma:      0.95,
		EvalConfig: eval.DefaultEvalConfig(),
	}
}

// EpisodeResult is one episode re-derived into transitions.
type EpisodeResult struct {
	Key          memory.Key
	Observations int
	Transitions  []memory.Transition
	// Terminated is false for an episode cut off before its final observation.
	Terminated bool
	// Return is the summed reward, i.e. last score minus first score.
	Return float64
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Episodes            int
	Observations        int
	Transitions         int
	TerminalTransitions int
	Unterminated        int
	MeanReturn          float64
}

// Scored is the outcome of rebuilding targets against a model.
type Scored struct {
	Dataset  qlearn.Dataset
	Eval     eval.EvalResult
	Decision eval.GateDecision
}

// #endregion types

// #region replay
// Replay derives each episode's transitions independently, in input order.
func Replay(episodes []memory.Episode) []EpisodeResult {
	results := make([]EpisodeResult, 0, len(episodes))
	for _, ep := range episodes {
		trs := memory.DeriveTransitions([]memory.Episode{ep})
		r := EpisodeResult{
			Key:          ep.Key,
			Observations: len(ep.Observations),
			Transitions:  trs,
		}
		if n := len(ep.Observations); n > 0 {
			r.Terminated = ep.Observations[n-1].IsTerminal
		}
		for _, tr := range trs {
			r.Return += tr.Reward
		}
		results = append(results, r)
	}
	return results
}

// Transitions flattens results back into one batch, episode by episode.
func Transitions(results []EpisodeResult) []memory.Transition {
	var out []memory.Transition
	for _, r := range results {
		out = append(out, r.Transitions...)
	}
	return out
}

// #endregion replay

// #region score
// Score rebuilds Q-targets from p's predictions and runs the post-fit eval
// and checkpoint gate over them, without fitting anything.
func Score(ctx context.Context, p qlearn.Predictor, transitions []memory.Transition, config ReplayConfig) (Scored, error) {
	ds, err := qlearn.FromModel(ctx, p, transitions, config.Gamma)
	if err != nil {
		return Scored{}, fmt.Errorf("replay targets: %w", err)
	}
	result, err := eval.NewEvalHarness(config.EvalConfig).Run(ctx, p, ds)
	if err != nil {
		return Scored{}, fmt.Errorf("replay eval: %w", err)
	}
	return Scored{
		Dataset:  ds,
		Eval:     result,
		Decision: eval.NewGate().Evaluate(result),
	}, nil
}

// #endregion score

// #region summarize
// Summarize computes aggregate stats from replay results.
func Summarize(results []EpisodeResult) ReplaySummary {
	var s ReplaySummary
	s.Episodes = len(results)
	for _, r := range results {
		s.Observations += r.Observations
		s.Transitions += len(r.Transitions)
		for _, tr := range r.Transitions {
			if tr.IsTerminal {
				s.TerminalTransitions++
			}
		}
		if !r.Terminated {
			s.Unterminated++
		}
		s.MeanReturn += r.Return
	}
	if s.Episodes > 0 {
		s.MeanReturn /= float64(s.Episodes)
	}
	return s
}

// #endregion summarize
