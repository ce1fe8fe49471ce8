package sim

import "github.com/danielpatrickdp/mawile/internal/battle"

type species struct {
	name    string
	types   [2]battle.Type
	hp      int
	attack  int
	defense int
	speed   int
	moves   []string
}

var moveDex = map[string]battle.Move{
	"tackle":       {ID: "tackle", Type: battle.TypeNormal, BasePower: 40, Accuracy: 1},
	"bodyslam":     {ID: "bodyslam", Type: battle.TypeNormal, BasePower: 85, Accuracy: 1, Inflicts: battle.StatusParalysis},
	"flamethrower": {ID: "flamethrower", Type: battle.TypeFire, BasePower: 90, Accuracy: 1, Inflicts: battle.StatusBurn},
	"willowisp":    {ID: "willowisp", Type: battle.TypeFire, Accuracy: 0.85, Inflicts: battle.StatusBurn},
	"surf":         {ID: "surf", Type: battle.TypeWater, BasePower: 90, Accuracy: 1},
	"hydropump":    {ID: "hydropump", Type: battle.TypeWater, BasePower: 110, Accuracy: 0.8},
	"thunderbolt":  {ID: "thunderbolt", Type: battle.TypeElectric, BasePower: 90, Accuracy: 1, Inflicts: battle.StatusParalysis},
	"thunderwave":  {ID: "thunderwave", Type: battle.TypeElectric, Accuracy: 0.9, Inflicts: battle.StatusParalysis},
	"gigadrain":    {ID: "gigadrain", Type: battle.TypeGrass, BasePower: 75, Accuracy: 1},
	"sleeppowder":  {ID: "sleeppowder", Type: battle.TypeGrass, Accuracy: 0.75, Inflicts: battle.StatusSleep},
	"icebeam":      {ID: "icebeam", Type: battle.TypeIce, BasePower: 90, Accuracy: 1, Inflicts: battle.StatusFreeze},
	"closecombat":  {ID: "closecombat", Type: battle.TypeFighting, BasePower: 120, Accuracy: 1},
	"sludgebomb":   {ID: "sludgebomb", Type: battle.TypePoison, BasePower: 90, Accuracy: 1, Inflicts: battle.StatusPoison},
	"toxic":        {ID: "toxic", Type: battle.TypePoison, Accuracy: 0.9, Inflicts: battle.StatusToxic},
	"earthquake":   {ID: "earthquake", Type: battle.TypeGround, BasePower: 100, Accuracy: 1},
	"bravebird":    {ID: "bravebird", Type: battle.TypeFlying, BasePower: 120, Accuracy: 1},
	"psychic":      {ID: "psychic", Type: battle.TypePsychic, BasePower: 90, Accuracy: 1},
	"calmmind":     {ID: "calmmind", Type: battle.TypePsychic, Accuracy: 1, BoostSelf: "spa"},
	"uturn":        {ID: "uturn", Type: battle.TypeBug, BasePower: 70, Accuracy: 1},
	"stoneedge":    {ID: "stoneedge", Type: battle.TypeRock, BasePower: 100, Accuracy: 0.8},
	"shadowball":   {ID: "shadowball", Type: battle.TypeGhost, BasePower: 80, Accuracy: 1},
	"dragonclaw":   {ID: "dragonclaw", Type: battle.TypeDragon, BasePower: 80, Accuracy: 1},
	"dragondance":  {ID: "dragondance", Type: battle.TypeDragon, Accuracy: 1, BoostSelf: "atk"},
	"crunch":       {ID: "crunch", Type: battle.TypeDark, BasePower: 80, Accuracy: 1},
	"ironhead":     {ID: "ironhead", Type: battle.TypeSteel, BasePower: 80, Accuracy: 1},
	"playrough":    {ID: "playrough", Type: battle.TypeFairy, BasePower: 90, Accuracy: 0.9},
	"swordsdance":  {ID: "swordsdance", Type: battle.TypeNormal, Accuracy: 1, BoostSelf: "atk"},
	"irondefense":  {ID: "irondefense", Type: battle.TypeSteel, Accuracy: 1, BoostSelf: "def"},
}

var speciesDex = []species{
	{"mawile", [2]battle.Type{battle.TypeSteel, battle.TypeFairy}, 50, 85, 85, 50, []string{"playrough", "ironhead", "swordsdance", "crunch"}},
	{"charizard", [2]battle.Type{battle.TypeFire, battle.TypeFlying}, 78, 84, 78, 100, []string{"flamethrower", "bravebird", "earthquake", "dragondance"}},
	{"blastoise", [2]battle.Type{battle.TypeWater}, 79, 83, 100, 78, []string{"surf", "icebeam", "earthquake", "irondefense"}},
	{"venusaur", [2]battle.Type{battle.TypeGrass, battle.TypePoison}, 80, 82, 83, 80, []string{"gigadrain", "sludgebomb", "sleeppowder", "earthquake"}},
	{"jolteon", [2]battle.Type{battle.TypeElectric}, 65, 65, 60, 130, []string{"thunderbolt", "thunderwave", "shadowball", "uturn"}},
	{"machamp", [2]battle.Type{battle.TypeFighting}, 90, 130, 80, 55, []string{"closecombat", "stoneedge", "bodyslam", "crunch"}},
	{"gengar", [2]battle.Type{battle.TypeGhost, battle.TypePoison}, 60, 65, 60, 110, []string{"shadowball", "sludgebomb", "willowisp", "thunderbolt"}},
	{"alakazam", [2]battle.Type{battle.TypePsychic}, 55, 50, 45, 120, []string{"psychic", "shadowball", "calmmind", "thunderwave"}},
	{"dragonite", [2]battle.Type{battle.TypeDragon, battle.TypeFlying}, 91, 134, 95, 80, []string{"dragonclaw", "earthquake", "dragondance", "bravebird"}},
	{"tyranitar", [2]battle.Type{battle.TypeRock, battle.TypeDark}, 100, 134, 110, 61, []string{"stoneedge", "crunch", "earthquake", "icebeam"}},
	{"scizor", [2]battle.Type{battle.TypeBug, battle.TypeSteel}, 70, 130, 100, 65, []string{"uturn", "ironhead", "swordsdance", "closecombat"}},
	{"snorlax", [2]battle.Type{battle.TypeNormal}, 160, 110, 65, 30, []string{"bodyslam", "earthquake", "crunch", "toxic"}},
	{"lapras", [2]battle.Type{battle.TypeWater, battle.TypeIce}, 130, 85, 80, 60, []string{"icebeam", "hydropump", "thunderbolt", "toxic"}},
	{"gardevoir", [2]battle.Type{battle.TypePsychic, battle.TypeFairy}, 68, 65, 65, 80, []string{"psychic", "playrough", "calmmind", "shadowball"}},
}

// pokemon builds a full-health unit with level-50 style stats.
func (s species) pokemon() *battle.Pokemon {
	maxHP := 2*s.hp + 60
	moves := make([]battle.Move, len(s.moves))
	for i, id := range s.moves {
		moves[i] = moveDex[id]
	}
	return &battle.Pokemon{
		Species:   s.name,
		Types:     s.types,
		CurrentHP: maxHP,
		MaxHP:     maxHP,
		Boosts:    map[string]int{},
		Moves:     moves,
		Attack:    2*s.attack + 5,
		Defense:   2*s.defense + 5,
		Speed:     2*s.speed + 5,
	}
}
