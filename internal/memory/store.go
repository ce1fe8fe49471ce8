package memory

import (
	"errors"
	"fmt"
	"sync"
)

// #region errors
var (
	// ErrNegativeRetain is returned by Evict for retain < 0.
	ErrNegativeRetain = errors.New("retain must be non-negative")
	// ErrEpisodeClosed is returned when recording after a terminal observation.
	ErrEpisodeClosed = errors.New("episode already terminated")
	// ErrInvalidObservation is returned when action presence disagrees with IsTerminal.
	ErrInvalidObservation = errors.New("invalid observation")
)

// #endregion errors

// #region store-struct
// Store is the episodic memory shared by every player of a training run.
// Observations are only ever appended; whole episodes are removed by Evict.
// Insertion order of keys is kept because eviction is oldest-first.
type Store struct {
	mu       sync.Mutex
	order    []Key
	episodes map[Key][]Observation
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{episodes: make(map[Key][]Observation)}
}

// #endregion store-struct

// #region record
// Record appends obs to the episode for key, creating it if absent. The
// state vector is copied, so the caller may reuse its buffer.
func (s *Store) Record(key Key, obs Observation) error {
	if obs.IsTerminal != (obs.Action == NoAction) {
		return fmt.Errorf("record %s: %w: terminal=%v action=%d", key, ErrInvalidObservation, obs.IsTerminal, obs.Action)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.episodes[key]
	if !ok {
		s.order = append(s.order, key)
	} else if n := len(seq); n > 0 && seq[n-1].IsTerminal {
		return fmt.Errorf("record %s: %w", key, ErrEpisodeClosed)
	}
	obs.State = append([]float64(nil), obs.State...)
	s.episodes[key] = append(seq, obs)
	return nil
}

// #endregion record

// #region evict
// Evict removes all but the retain most recently started episodes and
// returns the removed ones, oldest first. Nothing is removed when the store
// holds retain episodes or fewer.
func (s *Store) Evict(retain int) ([]Episode, error) {
	if retain < 0 {
		return nil, fmt.Errorf("evict %d: %w", retain, ErrNegativeRetain)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) <= retain {
		return []Episode{}, nil
	}

	cut := len(s.order) - retain
	evicted := make([]Episode, 0, cut)
	for _, key := range s.order[:cut] {
		evicted = append(evicted, Episode{Key: key, Observations: s.episodes[key]})
		delete(s.episodes, key)
	}

	kept := make([]Key, retain)
	copy(kept, s.order[cut:])
	s.order = kept

	return evicted, nil
}

// #endregion evict

// #region accessors
// Len returns the number of episodes held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Keys returns the episode keys in insertion order.
func (s *Store) Keys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]Key, len(s.order))
	copy(keys, s.order)
	return keys
}

// Episode returns a copy of the observation sequence for key.
func (s *Store) Episode(key Key) ([]Observation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.episodes[key]
	if !ok {
		return nil, false
	}
	out := make([]Observation, len(seq))
	copy(out, seq)
	return out, true
}

// Snapshot returns every episode in insertion order. The observation slices
// are copies, so recording may continue while the snapshot is read.
func (s *Store) Snapshot() []Episode {
	s.mu.Lock()
	defer s.mu.Unlock()
	eps := make([]Episode, 0, len(s.order))
	for _, key := range s.order {
		seq := s.episodes[key]
		obs := make([]Observation, len(seq))
		copy(obs, seq)
		eps = append(eps, Episode{Key: key, Observations: obs})
	}
	return eps
}

// Transitions derives transitions from a snapshot of the store.
func (s *Store) Transitions() []Transition {
	return DeriveTransitions(s.Snapshot())
}

// #endregion accessors
