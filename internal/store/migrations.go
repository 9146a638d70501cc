package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// One connection per local account. Credential and token columns
		// hold ciphertext; see crypto.go.
		`CREATE TABLE IF NOT EXISTS connections (
			id INTEGER PRIMARY KEY,
			local_user TEXT NOT NULL UNIQUE,
			remote_user_id TEXT,
			active INTEGER NOT NULL DEFAULT 0,
			username_enc TEXT,
			password_enc TEXT,
			access_token_enc TEXT,
			refresh_token_enc TEXT,
			token_expires_at TEXT,
			sync_in_progress INTEGER NOT NULL DEFAULT 0,
			sync_started_at TEXT,
			sync_cooldown_until TEXT,
			last_sync_at TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS instructors (
			remote_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			image_url TEXT,
			bio TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS playlists (
			remote_id TEXT PRIMARY KEY,
			top_tags TEXT,
			songs_json TEXT
		)`,

		// Class templates are shared across accounts: unique by remote id,
		// immutable identity, refreshable metadata.
		`CREATE TABLE IF NOT EXISTS class_templates (
			remote_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			duration INTEGER NOT NULL,
			discipline TEXT NOT NULL,
			difficulty_rating REAL,
			difficulty_count INTEGER,
			image_url TEXT,
			original_air_time TEXT,
			instructor_id TEXT REFERENCES instructors(remote_id),
			playlist_id TEXT REFERENCES playlists(remote_id),
			class_type TEXT,
			target_metrics_json TEXT,
			segments_json TEXT,
			is_power_zone INTEGER NOT NULL DEFAULT 0,
			is_archived INTEGER NOT NULL DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_class_templates_discipline ON class_templates(discipline)`,
		`CREATE INDEX IF NOT EXISTS idx_class_templates_class_type ON class_templates(class_type)`,

		// Workout instances are owned by one connection and must reference
		// an existing template.
		`CREATE TABLE IF NOT EXISTS workout_instances (
			remote_id TEXT PRIMARY KEY,
			connection_id INTEGER NOT NULL REFERENCES connections(id),
			class_remote_id TEXT NOT NULL REFERENCES class_templates(remote_id),
			recorded_at TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_date TEXT NOT NULL,
			discipline TEXT NOT NULL,
			ftp INTEGER NOT NULL DEFAULT 0,
			samples_synced INTEGER NOT NULL DEFAULT 0,
			synced_at TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_workouts_connection ON workout_instances(connection_id)`,
		`CREATE INDEX IF NOT EXISTS idx_workouts_completed ON workout_instances(completed_date)`,
		`CREATE INDEX IF NOT EXISTS idx_workouts_class ON workout_instances(class_remote_id)`,

		// Per-second performance samples; replaced wholesale on re-fetch.
		`CREATE TABLE IF NOT EXISTS performance_samples (
			workout_remote_id TEXT NOT NULL REFERENCES workout_instances(remote_id) ON DELETE CASCADE,
			time_offset INTEGER NOT NULL,
			output REAL,
			cadence REAL,
			resistance REAL,
			speed REAL,
			heart_rate REAL,
			zone INTEGER,
			PRIMARY KEY (workout_remote_id, time_offset)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_samples_workout ON performance_samples(workout_remote_id)`,

		// Point-in-time FTP values, used to evaluate power zones against the
		// FTP in effect on the workout's date.
		`CREATE TABLE IF NOT EXISTS ftp_history (
			connection_id INTEGER NOT NULL REFERENCES connections(id),
			effective_date TEXT NOT NULL,
			ftp INTEGER NOT NULL,
			PRIMARY KEY (connection_id, effective_date)
		)`,

		// Point-in-time pace zone tables (zone level -> representative mph).
		`CREATE TABLE IF NOT EXISTS pace_zone_history (
			connection_id INTEGER NOT NULL REFERENCES connections(id),
			effective_date TEXT NOT NULL,
			zones_json TEXT NOT NULL,
			PRIMARY KEY (connection_id, effective_date)
		)`,

		// TTL-based locks for cross-worker coordination.
		`CREATE TABLE IF NOT EXISTS sync_locks (
			key TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
