package logging

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS round_log (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	round_id     TEXT NOT NULL,
	phase        TEXT NOT NULL,
	iteration    INTEGER NOT NULL,
	battles      INTEGER NOT NULL,
	evicted      INTEGER NOT NULL,
	transitions  INTEGER NOT NULL,
	r2           REAL NOT NULL,
	mse          REAL NOT NULL,
	decision     TEXT NOT NULL,
	reason       TEXT,
	record_json  TEXT,
	created_at   TEXT NOT NULL
);
`

// EnsureSchema creates the round_log table if it does not exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create round_log: %w", err)
	}
	return nil
}

// #region log-round
// LogRound writes a provenance entry to the round_log table.
func LogRound(db *sql.DB, entry RoundEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO round_log (round_id, phase, iteration, battles, evicted, transitions, r2, mse, decision, reason, record_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RoundID,
		entry.Phase,
		entry.Iteration,
		entry.Battles,
		entry.Evicted,
		entry.Transitions,
		entry.R2,
		entry.MSE,
		entry.Decision,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.RecordJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log round: %w", err)
	}
	return nil
}

// #endregion log-round

// #region list-rounds
const roundColumns = `round_id, phase, iteration, battles, evicted, transitions, r2, mse, decision, reason, record_json, created_at`

// ErrRoundNotFound is returned by GetRound for an unknown round ID.
var ErrRoundNotFound = errors.New("round not found")

// ListRounds returns up to limit entries, newest first.
func ListRounds(db *sql.DB, limit int) ([]RoundEntry, error) {
	rows, err := db.Query(`SELECT `+roundColumns+` FROM round_log ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var out []RoundEntry
	for rows.Next() {
		e, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetRound returns the latest entry logged under roundID.
func GetRound(db *sql.DB, roundID string) (RoundEntry, error) {
	row := db.QueryRow(`SELECT `+roundColumns+` FROM round_log WHERE round_id = ? ORDER BY seq DESC LIMIT 1`, roundID)
	e, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RoundEntry{}, fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRound(s scanner) (RoundEntry, error) {
	var e RoundEntry
	var reason, record sql.NullString
	var created string
	if err := s.Scan(&e.RoundID, &e.Phase, &e.Iteration, &e.Battles, &e.Evicted, &e.Transitions,
		&e.R2, &e.MSE, &e.Decision, &reason, &record, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RoundEntry{}, err
		}
		return RoundEntry{}, fmt.Errorf("scan round: %w", err)
	}
	e.Reason = reason.String
	e.RecordJSON = record.String
	var err error
	e.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return RoundEntry{}, fmt.Errorf("parse created_at: %w", err)
	}
	return e, nil
}

// #endregion list-rounds

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
