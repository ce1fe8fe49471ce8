package arena

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/danielpatrickdp/mawile/internal/battle"
	"github.com/danielpatrickdp/mawile/internal/sim"
)

// ErrDuplicateName is returned when two agents share a name.
var ErrDuplicateName = errors.New("duplicate agent name")

// Simulator plays one battle between two agents.
type Simulator interface {
	Play(ctx context.Context, p1, p2 battle.Agent) (sim.Result, error)
}

// #region table
// Tally counts outcomes from one agent's side of a matchup.
type Tally struct {
	Wins   int
	Losses int
	Draws  int
}

// Battles returns the number of battles counted.
func (t Tally) Battles() int {
	return t.Wins + t.Losses + t.Draws
}

// Table maps player → opponent → tally. Every battle is counted from both
// sides.
type Table map[string]map[string]*Tally

func (t Table) tally(player, opponent string) *Tally {
	row, ok := t[player]
	if !ok {
		row = map[string]*Tally{}
		t[player] = row
	}
	tl, ok := row[opponent]
	if !ok {
		tl = &Tally{}
		row[opponent] = tl
	}
	return tl
}

func (t Table) add(p1, p2 string, res sim.Result) {
	a, b := t.tally(p1, p2), t.tally(p2, p1)
	switch res.Winner {
	case p1:
		a.Wins++
		b.Losses++
	case p2:
		a.Losses++
		b.Wins++
	default:
		a.Draws++
		b.Draws++
	}
}

// WinRate returns player's wins over battles against opponent, 0 when they
// never met.
func (t Table) WinRate(player, opponent string) float64 {
	tl, ok := t[player][opponent]
	if !ok || tl.Battles() == 0 {
		return 0
	}
	return float64(tl.Wins) / float64(tl.Battles())
}

// Battles returns the total number of battles in the table.
func (t Table) Battles() int {
	n := 0
	for _, row := range t {
		for _, tl := range row {
			n += tl.Battles()
		}
	}
	return n / 2
}

// #endregion table

// #region evaluate
type task struct {
	p1, p2 battle.Agent
}

type result struct {
	p1, p2 string
	res    sim.Result
	err    error
}

// CrossEvaluate plays challenges battles for every unordered pair of
// agents on at most concurrency goroutines. It returns only after every
// battle goroutine has finished, so all BattleFinished callbacks have run.
func CrossEvaluate(ctx context.Context, s Simulator, agents []battle.Agent, challenges, concurrency int) (Table, error) {
	seen := map[string]bool{}
	for _, a := range agents {
		if seen[a.Name()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, a.Name())
		}
		seen[a.Name()] = true
	}

	var tasks []task
	for i := range agents {
		for j := i + 1; j < len(agents); j++ {
			for c := 0; c < challenges; c++ {
				tasks = append(tasks, task{p1: agents[i], p2: agents[j]})
			}
		}
	}
	return run(ctx, s, tasks, concurrency)
}

// Challenge plays n battles of player against opponent.
func Challenge(ctx context.Context, s Simulator, player, opponent battle.Agent, n, concurrency int) (Table, error) {
	tasks := make([]task, n)
	for i := range tasks {
		tasks[i] = task{p1: player, p2: opponent}
	}
	return run(ctx, s, tasks, concurrency)
}

func run(ctx context.Context, s Simulator, tasks []task, concurrency int) (Table, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	start := time.Now()

	queue := make(chan task, len(tasks))
	results := make(chan result, len(tasks))
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go worker(ctx, s, queue, results, &wg)
	}
	for _, t := range tasks {
		queue <- t
	}
	close(queue)

	wg.Wait()
	close(results)

	table := Table{}
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		table.add(r.p1, r.p2, r.res)
	}
	if firstErr != nil {
		return table, fmt.Errorf("arena: %w", firstErr)
	}

	log.Printf("[ARENA] %d battles on %d workers in %s", table.Battles(), concurrency, time.Since(start).Round(time.Millisecond))
	return table, nil
}

func worker(ctx context.Context, s Simulator, queue <-chan task, results chan<- result, wg *sync.WaitGroup) {
	defer wg.Done()
	for t := range queue {
		if err := ctx.Err(); err != nil {
			results <- result{err: err}
			continue
		}
		res, err := s.Play(ctx, t.p1, t.p2)
		results <- result{p1: t.p1.Name(), p2: t.p2.Name(), res: res, err: err}
	}
}

// #endregion evaluate
