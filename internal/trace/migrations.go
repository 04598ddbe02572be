package trace

// runMigrations creates the trace tables.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per recorded session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_ms INTEGER NOT NULL,
			ended_ms INTEGER,
			targets INTEGER NOT NULL DEFAULT 0,
			config TEXT NOT NULL DEFAULT '{}'
		)`,

		// Evaluations table - per-target confidence of each correlation pass
		`CREATE TABLE IF NOT EXISTS evaluations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			at_ms INTEGER NOT NULL,
			target_id INTEGER NOT NULL,
			correlation REAL NOT NULL,
			leader INTEGER NOT NULL DEFAULT 0,
			state TEXT NOT NULL
		)`,

		// Transitions table - target and global state changes
		`CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			at_ms INTEGER NOT NULL,
			scope TEXT NOT NULL CHECK(scope IN ('target', 'global')),
			target_id INTEGER NOT NULL DEFAULT 0,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_evaluations_session_id ON evaluations(session_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_session_id ON transitions(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
