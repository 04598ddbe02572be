package trace

import (
	"database/sql"
	"time"

	"github.com/ayusman/whirling/internal/gesture"
)

// Evaluation is the confidence of one target in one correlation pass.
type Evaluation struct {
	SessionID   string
	Seq         int
	At          time.Time
	TargetID    int
	Correlation float64
	Leader      bool
	State       gesture.State // Global state after the pass
}

// Transition is a recorded state change.
type Transition struct {
	SessionID string
	At        time.Time
	Scope     gesture.Scope
	TargetID  int
	From      gesture.State
	To        gesture.State
}

// EvaluationRepository provides access to recorded correlation passes.
type EvaluationRepository struct {
	db *sql.DB
}

// Evaluations returns the evaluation repository for this store.
func (s *Store) Evaluations() *EvaluationRepository {
	return &EvaluationRepository{db: s.db}
}

// Insert stores the rows of one or more passes in a single transaction.
func (r *EvaluationRepository) Insert(rows []Evaluation) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO evaluations (session_id, seq, at_ms, target_id, correlation, leader, state)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range rows {
		leader := 0
		if e.Leader {
			leader = 1
		}
		if _, err := stmt.Exec(e.SessionID, e.Seq, toMillis(e.At), e.TargetID, e.Correlation, leader, e.State.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns the rows of a session ordered by pass and target.
func (r *EvaluationRepository) List(sessionID string) ([]Evaluation, error) {
	rows, err := r.db.Query(
		`SELECT seq, at_ms, target_id, correlation, leader, state
		 FROM evaluations WHERE session_id = ? ORDER BY seq, target_id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		var (
			e      = Evaluation{SessionID: sessionID}
			at     int64
			leader int
			state  string
		)
		if err := rows.Scan(&e.Seq, &at, &e.TargetID, &e.Correlation, &leader, &state); err != nil {
			return nil, err
		}
		e.At = fromMillis(at)
		e.Leader = leader != 0
		if e.State, err = gesture.ParseState(state); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TransitionRepository provides access to recorded state changes.
type TransitionRepository struct {
	db *sql.DB
}

// Transitions returns the transition repository for this store.
func (s *Store) Transitions() *TransitionRepository {
	return &TransitionRepository{db: s.db}
}

// Insert stores a transition.
func (r *TransitionRepository) Insert(t Transition) error {
	_, err := r.db.Exec(
		`INSERT INTO transitions (session_id, at_ms, scope, target_id, from_state, to_state)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.SessionID, toMillis(t.At), string(t.Scope), t.TargetID, t.From.String(), t.To.String(),
	)
	return err
}

// List returns the transitions of a session in recording order.
func (r *TransitionRepository) List(sessionID string) ([]Transition, error) {
	rows, err := r.db.Query(
		`SELECT at_ms, scope, target_id, from_state, to_state
		 FROM transitions WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var (
			t        = Transition{SessionID: sessionID}
			at       int64
			scope    string
			from, to string
		)
		if err := rows.Scan(&at, &scope, &t.TargetID, &from, &to); err != nil {
			return nil, err
		}
		t.At = fromMillis(at)
		t.Scope = gesture.Scope(scope)
		if t.From, err = gesture.ParseState(from); err != nil {
			return nil, err
		}
		if t.To, err = gesture.ParseState(to); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
