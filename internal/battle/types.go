package battle

import "context"

// #region type
// Type is an elemental Pokémon type. TypeNone fills the empty second slot.
type Type int

const (
	TypeNone Type = iota
	TypeNormal
	TypeFire
	TypeWater
	TypeElectric
	TypeGrass
	TypeIce
	TypeFighting
	TypePoison
	TypeGround
	TypeFlying
	TypePsychic
	TypeBug
	TypeRock
	TypeGhost
	TypeDragon
	TypeDark
	TypeSteel
	TypeFairy
)

// NumTypes counts the real types (TypeNone excluded).
const NumTypes = int(TypeFairy)

var typeNames = [...]string{
	"none", "normal", "fire", "water", "electric", "grass", "ice", "fighting",
	"poison", "ground", "flying", "psychic", "bug", "rock", "ghost", "dragon",
	"dark", "steel", "fairy",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// #endregion type

// #region status
// Status is a non-volatile status condition.
type Status int

const (
	StatusNone Status = iota
	StatusBurn
	StatusFreeze
	StatusParalysis
	StatusPoison
	StatusSleep
	StatusToxic
)

// NumStatuses counts the real statuses (StatusNone excluded).
const NumStatuses = int(StatusToxic)

// #endregion status

// #region boosts
// BoostStats lists the stats that carry boost stages, in encoding order.
var BoostStats = []string{"atk", "def", "spa", "spd", "spe", "accuracy", "evasion"}

// #endregion boosts

// #region move
// Move is a move as seen from a battle snapshot.
type Move struct {
	ID        string
	Type      Type
	BasePower int
	Accuracy  float64 // 0..1
	// BoostSelf raises one of the user's stats by a stage when non-empty.
	BoostSelf string
	// Inflicts is the status this move applies on hit.
	Inflicts Status
}

// #endregion move

// #region pokemon
// Pokemon is a single unit on either team.
type Pokemon struct {
	Species   string
	Types     [2]Type
	CurrentHP int
	MaxHP     int
	Status    Status
	Boosts    map[string]int
	Moves     []Move

	Attack  int
	Defense int
	Speed   int
}

// HPFraction returns current HP over max HP, 0 for an unknown max.
func (p *Pokemon) HPFraction() float64 {
	if p == nil || p.MaxHP <= 0 {
		return 0
	}
	return float64(p.CurrentHP) / float64(p.MaxHP)
}

// Fainted reports whether the unit has no HP left.
func (p *Pokemon) Fainted() bool {
	return p != nil && p.CurrentHP <= 0
}

// BoostSum sums all boost stages.
func (p *Pokemon) BoostSum() int {
	if p == nil {
		return 0
	}
	sum := 0
	for _, v := range p.Boosts {
		sum += v
	}
	return sum
}

// #endregion pokemon

// #region battle
// Battle is one side's read-only view of a battle. The core never mutates it.
type Battle struct {
	// Tag uniquely identifies the battle instance.
	Tag  string
	Turn int

	Team           []*Pokemon
	OpponentTeam   []*Pokemon
	Active         *Pokemon
	OpponentActive *Pokemon

	AvailableMoves    []Move
	AvailableSwitches []*Pokemon

	ForceSwitch   bool
	CanZMove      bool
	CanMegaEvolve bool
	CanDynamax    bool

	Won  bool
	Lost bool
}

// Finished reports whether the battle has an outcome.
func (b *Battle) Finished() bool {
	return b.Won || b.Lost
}

// #endregion battle

// #region order
// Order is a concrete decision sent back to the simulator: either a move
// (optionally with a gimmick) or a switch.
type Order struct {
	Move    *Move
	Switch  *Pokemon
	ZMove   bool
	Mega    bool
	Dynamax bool
}

// IsSwitch reports whether the order switches units.
func (o Order) IsSwitch() bool {
	return o.Switch != nil
}

// IsEmpty reports whether the order carries no decision (pass).
func (o Order) IsEmpty() bool {
	return o.Move == nil && o.Switch == nil
}

// #endregion order

// #region agent
// Agent is what a simulator drives: one ChooseMove per decision request and
// one BattleFinished per battle.
type Agent interface {
	Name() string
	ChooseMove(ctx context.Context, b *Battle) Order
	BattleFinished(b *Battle)
}

// #endregion agent
