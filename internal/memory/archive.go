package memory

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const archiveSchema = `
CREATE TABLE IF NOT EXISTS evicted_episodes (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	episode_key   TEXT NOT NULL UNIQUE,
	round_id      TEXT NOT NULL,
	steps         INTEGER NOT NULL,
	first_score   REAL,
	final_score   REAL,
	terminated    INTEGER NOT NULL,
	evicted_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS evicted_observations (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	episode_key   TEXT NOT NULL,
	step          INTEGER NOT NULL,
	state_vector  BLOB NOT NULL,
	action        INTEGER NOT NULL,
	score         REAL NOT NULL,
	terminal      INTEGER NOT NULL,
	FOREIGN KEY (episode_key) REFERENCES evicted_episodes(episode_key)
);

CREATE INDEX IF NOT EXISTS idx_evicted_observations_key
ON evicted_observations(episode_key, step);
`

// #endregion schema

// #region archive-struct
// Archive persists evicted episodes in SQLite for auditing and offline replay.
type Archive struct {
	db *sql.DB
}

// EpisodeSummary is one archived episode without its observations.
type EpisodeSummary struct {
	Key        Key
	RoundID    string
	Steps      int
	FirstScore float64
	FinalScore float64
	Terminated bool
	EvictedAt  time.Time
}

// #endregion archive-struct

// #region constructor
// OpenArchive opens a SQLite database at dbPath and runs migrations.
func OpenArchive(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	return NewArchive(db)
}

// NewArchive runs migrations on an existing connection.
func NewArchive(db *sql.DB) (*Archive, error) {
	if _, err := db.Exec(archiveSchema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (a *Archive) DB() *sql.DB {
	return a.db
}

// #endregion constructor

// #region save
// SaveEpisodes writes evicted episodes atomically under roundID.
func (a *Archive) SaveEpisodes(roundID string, episodes []Episode) error {
	if len(episodes) == 0 {
		return nil
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, ep := range episodes {
		var first, final interface{}
		terminated := 0
		if n := len(ep.Observations); n > 0 {
			first = ep.Observations[0].Score
			final = ep.Observations[n-1].Score
			if ep.Observations[n-1].IsTerminal {
				terminated = 1
			}
		}

		_, err := tx.Exec(
			`INSERT INTO evicted_episodes (episode_key, round_id, steps, first_score, final_score, terminated, evicted_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(ep.Key), roundID, len(ep.Observations), first, final, terminated, now,
		)
		if err != nil {
			return fmt.Errorf("insert episode %s: %w", ep.Key, err)
		}

		for step, obs := range ep.Observations {
			terminal := 0
			if obs.IsTerminal {
				terminal = 1
			}
			_, err := tx.Exec(
				`INSERT INTO evicted_observations (episode_key, step, state_vector, action, score, terminal)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				string(ep.Key), step, encodeVector(obs.State), obs.Action, obs.Score, terminal,
			)
			if err != nil {
				return fmt.Errorf("insert observation %s/%d: %w", ep.Key, step, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// #endregion save

// #region list
// ListEpisodes returns the most recently archived episode summaries, newest first.
func (a *Archive) ListEpisodes(limit int) ([]EpisodeSummary, error) {
	rows, err := a.db.Query(
		`SELECT episode_key, round_id, steps, first_score, final_score, terminated, evicted_at
		 FROM evicted_episodes ORDER BY seq DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var out []EpisodeSummary
	for rows.Next() {
		var s EpisodeSummary
		var key, evictedAt string
		var first, final sql.NullFloat64
		var terminated int
		if err := rows.Scan(&key, &s.RoundID, &s.Steps, &first, &final, &terminated, &evictedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		s.Key = Key(key)
		s.FirstScore = first.Float64
		s.FinalScore = final.Float64
		s.Terminated = terminated == 1
		s.EvictedAt, _ = time.Parse(time.RFC3339Nano, evictedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of archived episodes.
func (a *Archive) Count() (int, error) {
	var n int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM evicted_episodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count episodes: %w", err)
	}
	return n, nil
}

// #endregion list

// #region load
// LoadEpisodes returns the limit most recently archived episodes with their
// observations, in the order they were archived.
func (a *Archive) LoadEpisodes(limit int) ([]Episode, error) {
	rows, err := a.db.Query(
		`SELECT episode_key FROM (
			SELECT seq, episode_key FROM evicted_episodes ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load episodes: %w", err)
	}
	var keys []Key
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, Key(key))
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	episodes := make([]Episode, 0, len(keys))
	for _, key := range keys {
		obs, err := a.loadObservations(key)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, Episode{Key: key, Observations: obs})
	}
	return episodes, nil
}

func (a *Archive) loadObservations(key Key) ([]Observation, error) {
	rows, err := a.db.Query(
		`SELECT state_vector, action, score, terminal FROM evicted_observations
		 WHERE episode_key = ? ORDER BY step ASC`, string(key),
	)
	if err != nil {
		return nil, fmt.Errorf("load observations %s: %w", key, err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var blob []byte
		var obs Observation
		var terminal int
		if err := rows.Scan(&blob, &obs.Action, &obs.Score, &terminal); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		obs.State = decodeVector(blob)
		obs.IsTerminal = terminal == 1
		out = append(out, obs)
	}
	return out, rows.Err()
}

// #endregion load

// #region vector-encoding
func encodeVector(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float64 {
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

// #endregion vector-encoding
