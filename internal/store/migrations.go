package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Chord bindings - which plugin action plays each chord, plus one row for strums
		`CREATE TABLE IF NOT EXISTS chord_bindings (
			id TEXT PRIMARY KEY,
			chord TEXT NOT NULL UNIQUE CHECK(chord IN (
				'C_major', 'G_major', 'D_major', 'A_minor', 'E_minor', 'F_major', 'strum'
			)),
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_chord_bindings_plugin ON chord_bindings(plugin_name)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
