package trace

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Session is a recorded session.
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time // Zero while the session is being recorded
	Targets   int
	Config    json.RawMessage
}

// SessionRepository provides access to recorded sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a session.
func (r *SessionRepository) Create(sess *Session) error {
	config := sess.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_ms, targets, config) VALUES (?, ?, ?, ?)`,
		sess.ID, toMillis(sess.StartedAt), sess.Targets, string(config),
	)
	return err
}

// End records the end time of a session.
func (r *SessionRepository) End(id string, at time.Time) error {
	res, err := r.db.Exec(`UPDATE sessions SET ended_ms = ? WHERE id = ?`, toMillis(at), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns a session by id.
func (r *SessionRepository) Get(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, started_ms, ended_ms, targets, config FROM sessions WHERE id = ?`, id,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

// List returns all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, started_ms, ended_ms, targets, config FROM sessions ORDER BY started_ms DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Delete removes a session and everything recorded for it.
func (r *SessionRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		sess    Session
		started int64
		ended   sql.NullInt64
		config  string
	)
	if err := row.Scan(&sess.ID, &started, &ended, &sess.Targets, &config); err != nil {
		return nil, err
	}
	sess.StartedAt = fromMillis(started)
	if ended.Valid {
		sess.EndedAt = fromMillis(ended.Int64)
	}
	sess.Config = json.RawMessage(config)
	return &sess, nil
}
