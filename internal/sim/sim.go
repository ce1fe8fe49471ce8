package sim

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/danielpatrickdp/mawile/internal/battle"
	"github.com/google/uuid"
)

// ErrSameAgent is returned when both sides are the same agent.
var ErrSameAgent = errors.New("an agent cannot battle itself")

// #region config
// Config bounds a simulated battle.
type Config struct {
	TeamSize int
	MaxTurns int
	Seed     int64
}

// DefaultConfig returns 3v3 battles capped at 100 turns.
func DefaultConfig() Config {
	return Config{TeamSize: 3, MaxTurns: 100, Seed: 1}
}

// #endregion config

// Result summarises one finished battle.
type Result struct {
	Tag    string
	Winner string // agent name, empty on a draw or cancellation
	Turns  int
}

// #region simulator
// Simulator is a small in-process battle engine. Play is safe to call from
// many goroutines; each battle draws its own seeded RNG.
type Simulator struct {
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a simulator. Team size is clamped to [1, 6].
func New(cfg Config) *Simulator {
	if cfg.TeamSize < 1 {
		cfg.TeamSize = 1
	}
	if cfg.TeamSize > 6 {
		cfg.TeamSize = 6
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultConfig().MaxTurns
	}
	return &Simulator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

func (s *Simulator) seed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int63()
}

// Play runs one battle between p1 and p2. Both agents see BattleFinished
// exactly once, also when ctx is cancelled, in which case the battle ends
// undecided at the next turn boundary and ctx.Err() is returned.
func (s *Simulator) Play(ctx context.Context, p1, p2 battle.Agent) (Result, error) {
	if p1 == p2 {
		return Result{}, ErrSameAgent
	}
	tag := "battle-" + uuid.NewString()
	m := newMatch(rand.New(rand.NewSource(s.seed())), tag, s.cfg.TeamSize, p1, p2)

	var err error
	for !m.over() {
		if err = ctx.Err(); err != nil {
			break
		}
		if m.turn >= s.cfg.MaxTurns {
			break
		}
		m.turn++
		m.playTurn(ctx)
	}
	return m.finish(err != nil), err
}

// #endregion simulator

// #region match
type side struct {
	agent  battle.Agent
	tag    string
	team   []*battle.Pokemon
	active int

	usedZ        bool
	usedMega     bool
	usedDynamax  bool
	dynamaxTurns int
}

func (s *side) current() *battle.Pokemon {
	return s.team[s.active]
}

func (s *side) defeated() bool {
	for _, p := range s.team {
		if !p.Fainted() {
			return false
		}
	}
	return true
}

func (s *side) bench() []int {
	var idx []int
	for i, p := range s.team {
		if i != s.active && !p.Fainted() {
			idx = append(idx, i)
		}
	}
	return idx
}

type match struct {
	rng   *rand.Rand
	tag   string
	turn  int
	sides [2]*side
}

func newMatch(rng *rand.Rand, tag string, teamSize int, p1, p2 battle.Agent) *match {
	m := &match{rng: rng, tag: tag}
	for i, a := range [2]battle.Agent{p1, p2} {
		perm := rng.Perm(len(speciesDex))
		team := make([]*battle.Pokemon, teamSize)
		for j := range team {
			team[j] = speciesDex[perm[j]].pokemon()
		}
		m.sides[i] = &side{
			agent: a,
			tag:   tag + []string{"-p1", "-p2"}[i],
			team:  team,
		}
	}
	return m
}

func (m *match) over() bool {
	return m.sides[0].defeated() || m.sides[1].defeated()
}

// #endregion match

// #region view
// view builds side i's snapshot. Units are copied so agents never alias
// engine state.
func (m *match) view(i int, forceSwitch bool) *battle.Battle {
	me, opp := m.sides[i], m.sides[1-i]

	team := cloneTeam(me.team)
	oppTeam := cloneTeam(opp.team)
	b := &battle.Battle{
		Tag:            me.tag,
		Turn:           m.turn,
		Team:           team,
		OpponentTeam:   oppTeam,
		Active:         team[me.active],
		OpponentActive: oppTeam[opp.active],
		ForceSwitch:    forceSwitch,
	}
	for _, j := range me.bench() {
		b.AvailableSwitches = append(b.AvailableSwitches, team[j])
	}
	if !forceSwitch && !me.current().Fainted() {
		b.AvailableMoves = append([]battle.Move(nil), me.current().Moves...)
		b.CanZMove = !me.usedZ
		b.CanMegaEvolve = !me.usedMega
		b.CanDynamax = !me.usedDynamax
	}
	return b
}

func cloneTeam(team []*battle.Pokemon) []*battle.Pokemon {
	out := make([]*battle.Pokemon, len(team))
	for i, p := range team {
		c := *p
		c.Boosts = make(map[string]int, len(p.Boosts))
		for k, v := range p.Boosts {
			c.Boosts[k] = v
		}
		c.Moves = append([]battle.Move(nil), p.Moves...)
		out[i] = &c
	}
	return out
}

// #endregion view

// #region turn
func (m *match) playTurn(ctx context.Context) {
	var orders [2]battle.Order
	for i, s := range m.sides {
		orders[i] = s.agent.ChooseMove(ctx, m.view(i, false))
	}

	for i, o := range orders {
		if o.IsSwitch() {
			m.switchTo(i, o.Switch.Species)
		}
	}

	for _, i := range m.speedOrder() {
		o := orders[i]
		if o.Move == nil || m.sides[i].current().Fainted() {
			continue
		}
		m.useMove(i, o)
		if m.over() {
			return
		}
	}

	m.endOfTurn()
	if m.over() {
		return
	}

	for i, s := range m.sides {
		if !s.current().Fainted() || len(s.bench()) == 0 {
			continue
		}
		o := s.agent.ChooseMove(ctx, m.view(i, true))
		if !o.IsSwitch() || !m.switchTo(i, o.Switch.Species) {
			s.active = s.bench()[0]
		}
	}
}

func (m *match) switchTo(i int, species string) bool {
	s := m.sides[i]
	for _, j := range s.bench() {
		if s.team[j].Species == species {
			s.active = j
			return true
		}
	}
	return false
}

func (m *match) speedOrder() [2]int {
	a, b := effectiveSpeed(m.sides[0].current()), effectiveSpeed(m.sides[1].current())
	if a > b || (a == b && m.rng.Intn(2) == 0) {
		return [2]int{0, 1}
	}
	return [2]int{1, 0}
}

func effectiveSpeed(p *battle.Pokemon) float64 {
	v := float64(p.Speed) * stageMultiplier(p.Boosts["spe"])
	if p.Status == battle.StatusParalysis {
		v *= 0.5
	}
	return v
}

// #endregion turn

// #region move
func (m *match) useMove(i int, o battle.Order) {
	me, opp := m.sides[i], m.sides[1-i]
	att, def := me.current(), opp.current()

	var mv battle.Move
	found := false
	for _, candidate := range att.Moves {
		if candidate.ID == o.Move.ID {
			mv, found = candidate, true
			break
		}
	}
	if !found {
		return
	}

	power, accuracy := float64(mv.BasePower), mv.Accuracy
	if o.ZMove && !me.usedZ {
		me.usedZ = true
		power *= 1.5
		accuracy = 1
	}
	if o.Mega && !me.usedMega {
		me.usedMega = true
		att.Attack = att.Attack * 6 / 5
	}
	if o.Dynamax && !me.usedDynamax {
		me.usedDynamax = true
		me.dynamaxTurns = 3
	}

	if !m.canAct(att) {
		return
	}
	if m.rng.Float64() >= accuracy {
		return
	}

	if mv.BoostSelf != "" && att.Boosts[mv.BoostSelf] < 6 {
		att.Boosts[mv.BoostSelf]++
	}
	if power > 0 {
		dmg := m.damage(att, def, mv, power)
		if me.dynamaxTurns > 0 {
			dmg = int(float64(dmg) * 1.3)
		}
		def.CurrentHP -= dmg
		if def.CurrentHP < 0 {
			def.CurrentHP = 0
		}
	}
	if mv.Inflicts != battle.StatusNone && !def.Fainted() && def.Status == battle.StatusNone {
		if mv.BasePower == 0 || m.rng.Float64() < 0.1 {
			def.Status = mv.Inflicts
		}
	}
}

// canAct rolls the status checks that can cost a unit its turn.
func (m *match) canAct(p *battle.Pokemon) bool {
	switch p.Status {
	case battle.StatusParalysis:
		return m.rng.Float64() >= 0.25
	case battle.StatusSleep:
		if m.rng.Intn(3) == 0 {
			p.Status = battle.StatusNone
			return true
		}
		return false
	case battle.StatusFreeze:
		if m.rng.Float64() < 0.2 {
			p.Status = battle.StatusNone
			return true
		}
		return false
	}
	return true
}

func (m *match) damage(att, def *battle.Pokemon, mv battle.Move, power float64) int {
	atk := float64(att.Attack) * stageMultiplier(att.Boosts["atk"]+att.Boosts["spa"])
	if att.Status == battle.StatusBurn {
		atk *= 0.5
	}
	dfn := float64(def.Defense) * stageMultiplier(def.Boosts["def"])

	base := 22*power*atk/dfn/50 + 2
	if mv.Type == att.Types[0] || mv.Type == att.Types[1] {
		base *= 1.5
	}
	eff := mv.Type.DamageMultiplier(def.Types[0], def.Types[1])
	dmg := int(base * eff * (0.85 + 0.15*m.rng.Float64()))
	if eff > 0 && dmg < 1 {
		dmg = 1
	}
	return dmg
}

func stageMultiplier(stage int) float64 {
	if stage > 6 {
		stage = 6
	}
	if stage < -6 {
		stage = -6
	}
	if stage >= 0 {
		return float64(2+stage) / 2
	}
	return 2 / float64(2-stage)
}

func (m *match) endOfTurn() {
	for _, s := range m.sides {
		p := s.current()
		if p.Fainted() {
			continue
		}
		var chip int
		switch p.Status {
		case battle.StatusBurn, battle.StatusPoison:
			chip = p.MaxHP / 8
		case battle.StatusToxic:
			chip = p.MaxHP / 6
		}
		p.CurrentHP -= chip
		if p.CurrentHP < 0 {
			p.CurrentHP = 0
		}
		if s.dynamaxTurns > 0 {
			s.dynamaxTurns--
		}
	}
}

// #endregion move

// #region finish
func (m *match) finish(cancelled bool) Result {
	res := Result{Tag: m.tag, Turns: m.turn}
	d0, d1 := m.sides[0].defeated(), m.sides[1].defeated()

	for i, s := range m.sides {
		v := m.view(i, false)
		v.AvailableMoves, v.AvailableSwitches = nil, nil
		v.CanZMove, v.CanMegaEvolve, v.CanDynamax = false, false, false
		if !cancelled && d0 != d1 {
			mine, theirs := d0, d1
			if i == 1 {
				mine, theirs = d1, d0
			}
			v.Won, v.Lost = theirs, mine
			if v.Won {
				res.Winner = s.agent.Name()
			}
		}
		s.agent.BattleFinished(v)
	}
	return res
}

// #endregion finish
