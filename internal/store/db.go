// Package store keeps an observational record of matches in SQLite: who
// joined, how long they stayed and who killed whom. Game state is never
// restored from it.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection
type DB struct {
	conn *sql.DB
}

// KillRow is one recorded death
type KillRow struct {
	ID            int64     `json:"id"`
	MatchID       int64     `json:"match_id"`
	Tick          int       `json:"tick"`
	VictimUID     int       `json:"victim_uid"`
	Victim        string    `json:"victim"`
	VictimSession string    `json:"victim_session"`
	KillerUID     int       `json:"killer_uid"`
	Killer        string    `json:"killer"`
	KillerSession string    `json:"killer_session"`
	Gun           int       `json:"gun"`
	CreatedAt     time.Time `json:"created_at"`
}

// SessionRow is one connection's stay in a match
type SessionRow struct {
	SessionID string    `json:"session_id"`
	MatchID   int64     `json:"match_id"`
	UID       int       `json:"uid"`
	Username  string    `json:"username"`
	Mode      string    `json:"mode"`
	JoinedAt  time.Time `json:"joined_at"`
	LeftAt    time.Time `json:"left_at"` // zero while connected
	Score     int       `json:"score"`
	Kills     int       `json:"kills"`
}

// MatchRow describes one server run
type MatchRow struct {
	ID        int64     `json:"id"`
	Mode      string    `json:"mode"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"` // zero while running
}

// OpenDB opens (or creates) the database at path
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		match_id INTEGER NOT NULL REFERENCES matches(id),
		uid INTEGER NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL DEFAULT '',
		joined_at TEXT NOT NULL,
		left_at TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS kills (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id INTEGER NOT NULL REFERENCES matches(id),
		tick INTEGER NOT NULL,
		victim_uid INTEGER NOT NULL,
		victim TEXT NOT NULL DEFAULT '',
		victim_session TEXT NOT NULL DEFAULT '',
		killer_uid INTEGER NOT NULL DEFAULT 0,
		killer TEXT NOT NULL DEFAULT '',
		killer_session TEXT NOT NULL DEFAULT '',
		gun INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_kills_match ON kills(match_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_match ON sessions(match_id);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// StartMatch records a new match and returns its id
func (db *DB) StartMatch(mode string, at time.Time) (int64, error) {
	res, err := db.conn.Exec("INSERT INTO matches (mode, started_at) VALUES (?, ?)", mode, formatTime(at))
	if err != nil {
		return 0, fmt.Errorf("start match: %w", err)
	}
	return res.LastInsertId()
}

// EndMatch stamps the end time and closes every session still open
func (db *DB) EndMatch(id int64, at time.Time) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := formatTime(at)
	if _, err := tx.Exec("UPDATE matches SET ended_at = ? WHERE id = ?", ts, id); err != nil {
		return fmt.Errorf("end match: %w", err)
	}
	if _, err := tx.Exec("UPDATE sessions SET left_at = ? WHERE match_id = ? AND left_at = ''", ts, id); err != nil {
		return fmt.Errorf("close sessions: %w", err)
	}
	return tx.Commit()
}

func (db *DB) GetMatch(id int64) (*MatchRow, error) {
	m := &MatchRow{}
	var started, ended string
	err := db.conn.QueryRow("SELECT id, mode, started_at, ended_at FROM matches WHERE id = ?", id).
		Scan(&m.ID, &m.Mode, &started, &ended)
	if err != nil {
		return nil, err
	}
	m.StartedAt = parseTime(started)
	m.EndedAt = parseTime(ended)
	return m, nil
}

// RecentKills returns the newest kills of a match
func (db *DB) RecentKills(matchID int64, limit int) ([]KillRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, match_id, tick, victim_uid, victim, victim_session,
			killer_uid, killer, killer_session, gun, created_at
		FROM kills WHERE match_id = ?
		ORDER BY id DESC LIMIT ?`, matchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []KillRow
	for rows.Next() {
		var k KillRow
		var created string
		if err := rows.Scan(&k.ID, &k.MatchID, &k.Tick, &k.VictimUID, &k.Victim, &k.VictimSession,
			&k.KillerUID, &k.Killer, &k.KillerSession, &k.Gun, &created); err != nil {
			return nil, err
		}
		k.CreatedAt = parseTime(created)
		out = append(out, k)
	}
	return out, rows.Err()
}

// TopSessions returns the best finished or running sessions by score
func (db *DB) TopSessions(matchID int64, limit int) ([]SessionRow, error) {
	rows, err := db.conn.Query(`
		SELECT session_id, match_id, uid, username, mode, joined_at, left_at, score, kills
		FROM sessions WHERE match_id = ?
		ORDER BY score DESC, kills DESC LIMIT ?`, matchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var s SessionRow
		var joined, left string
		if err := rows.Scan(&s.SessionID, &s.MatchID, &s.UID, &s.Username, &s.Mode, &joined, &left,
			&s.Score, &s.Kills); err != nil {
			return nil, err
		}
		s.JoinedAt = parseTime(joined)
		s.LeftAt = parseTime(left)
		out = append(out, s)
	}
	return out, rows.Err()
}

// KillsByGun counts the kills of a match per weapon class
func (db *DB) KillsByGun(matchID int64) (map[int]int, error) {
	rows, err := db.conn.Query(`
		SELECT gun, COUNT(*) FROM kills
		WHERE match_id = ? AND killer_uid > 0
		GROUP BY gun`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var gun, n int
		if err := rows.Scan(&gun, &n); err != nil {
			return nil, err
		}
		out[gun] = n
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
