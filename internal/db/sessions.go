package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionRecord is one finished session as stored in the sessions table.
type SessionRecord struct {
	SessionID    uuid.UUID
	Difficulty   string
	Theme        string
	Avatar       string
	InputMode    string
	SensorStatus string
	FinalScore   int
	NewHighScore bool
	Caught       int
	Missed       int
	HazardHits   int
	Elapsed      time.Duration
	StartedAt    time.Time
	EndedAt      time.Time
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnixSeconds(s float64) time.Time {
	return time.Unix(0, int64(s*1e9)).UTC()
}

// RecordSession inserts a finished session. Recording the same session id
// twice is an error.
func (db *DB) RecordSession(r SessionRecord) error {
	if r.SessionID == uuid.Nil {
		return fmt.Errorf("session record has no id")
	}
	_, err := db.Exec(
		`INSERT INTO sessions (
			session_id, difficulty, theme, avatar, input_mode, sensor_status,
			final_score, new_high_score, caught, missed, hazard_hits,
			elapsed_ms, started_unix, ended_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID.String(), r.Difficulty, r.Theme, r.Avatar, r.InputMode, r.SensorStatus,
		r.FinalScore, r.NewHighScore, r.Caught, r.Missed, r.HazardHits,
		r.Elapsed.Milliseconds(), unixSeconds(r.StartedAt), unixSeconds(r.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record session %s: %w", r.SessionID, err)
	}
	return nil
}

// HighScore returns the best final score on record, or 0 when no session
// has been recorded.
func (db *DB) HighScore() (int, error) {
	var best sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(final_score) FROM sessions`).Scan(&best); err != nil {
		return 0, fmt.Errorf("failed to query high score: %w", err)
	}
	return int(best.Int64), nil
}

// RecentSessions returns up to limit sessions, newest first.
func (db *DB) RecentSessions(limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(
		`SELECT session_id, difficulty, theme, avatar, input_mode, sensor_status,
			final_score, new_high_score, caught, missed, hazard_hits,
			elapsed_ms, started_unix, ended_unix
		FROM sessions
		ORDER BY ended_unix DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			r              SessionRecord
			id             string
			elapsedMs      int64
			started, ended float64
		)
		if err := rows.Scan(
			&id, &r.Difficulty, &r.Theme, &r.Avatar, &r.InputMode, &r.SensorStatus,
			&r.FinalScore, &r.NewHighScore, &r.Caught, &r.Missed, &r.HazardHits,
			&elapsedMs, &started, &ended,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if r.SessionID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid session id %q: %w", id, err)
		}
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		r.StartedAt = fromUnixSeconds(started)
		r.EndedAt = fromUnixSeconds(ended)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SessionStats summarises the recorded history per difficulty.
type SessionStats struct {
	Difficulty string
	Sessions   int
	BestScore  int
	MeanScore  float64
}

// StatsByDifficulty aggregates recorded sessions per difficulty preset.
func (db *DB) StatsByDifficulty() ([]SessionStats, error) {
	rows, err := db.Query(
		`SELECT difficulty, COUNT(*), MAX(final_score), AVG(final_score)
		FROM sessions
		GROUP BY difficulty
		ORDER BY difficulty`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var out []SessionStats
	for rows.Next() {
		var s SessionStats
		if err := rows.Scan(&s.Difficulty, &s.Sessions, &s.BestScore, &s.MeanScore); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
