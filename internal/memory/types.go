package memory

// #region key
// Key identifies one battle. Battle tags are minted per battle instance, so
// two keys are equal iff they name the same battle.
type Key string

// #endregion key

// #region observation
// NoAction marks the absent action of a terminal observation.
const NoAction = -1

// Observation is one decision point within an episode. State is owned by the
// observation and must not be modified after it is recorded.
type Observation struct {
	State      []float64
	Action     int
	Score      float64
	IsTerminal bool
}

// #endregion observation

// #region episode
// Episode is a key with its ordered observations.
type Episode struct {
	Key          Key
	Observations []Observation
}

// #endregion episode

// #region transition
// Transition is the training unit derived from two adjacent observations.
type Transition struct {
	State      []float64
	Action     int
	Reward     float64
	StateNext  []float64
	IsTerminal bool
}

// #endregion transition
