package memory

// DeriveTransitions turns every adjacent observation pair of every episode
// into a transition, episode by episode in the given order. The reward is the
// score delta between the two observations and terminality comes from the
// later one. Episodes with fewer than two observations contribute nothing.
// The input is not modified.
func DeriveTransitions(episodes []Episode) []Transition {
	n := 0
	for _, ep := range episodes {
		if len(ep.Observations) > 1 {
			n += len(ep.Observations) - 1
		}
	}

	out := make([]Transition, 0, n)
	for _, ep := range episodes {
		obs := ep.Observations
		for i := 0; i+1 < len(obs); i++ {
			cur, next := obs[i], obs[i+1]
			out = append(out, Transition{
				State:      cur.State,
				Action:     cur.Action,
				Reward:     next.Score - cur.Score,
				StateNext:  next.State,
				IsTerminal: next.IsTerminal,
			})
		}
	}
	return out
}
