package store

import (
	"database/sql"
	"errors"
	"time"
)

// UpsertWorkoutInstance inserts or updates a workout keyed by remote id.
// Returns true when a new row was created. A workout must reference an
// existing class template; the foreign key enforces it.
func (s *Store) UpsertWorkoutInstance(w *WorkoutInstance) (bool, error) {
	existing, err := s.HasWorkoutInstance(w.RemoteID)
	if err != nil {
		return false, err
	}

	var syncedAt any
	if w.SyncedAt != nil {
		syncedAt = w.SyncedAt.UTC().Format(time.RFC3339)
	}

	_, err = s.db.Exec(`
		INSERT INTO workout_instances (
			remote_id, connection_id, class_remote_id, recorded_at, started_at,
			completed_date, discipline, ftp, samples_synced, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			class_remote_id = excluded.class_remote_id,
			recorded_at = excluded.recorded_at,
			started_at = excluded.started_at,
			completed_date = excluded.completed_date,
			discipline = excluded.discipline,
			ftp = excluded.ftp,
			updated_at = CURRENT_TIMESTAMP
	`, w.RemoteID, w.ConnectionID, w.ClassRemoteID,
		w.RecordedAt.UTC().Format(time.RFC3339), w.StartedAt.UTC().Format(time.RFC3339),
		w.CompletedDate, w.Discipline, w.FTP, w.SamplesSynced, syncedAt)
	if err != nil {
		return false, err
	}
	return !existing, nil
}

// HasWorkoutInstance reports whether a workout exists for the remote id.
func (s *Store) HasWorkoutInstance(remoteID string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM workout_instances WHERE remote_id = ?`, remoteID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetWorkoutInstance retrieves a workout by remote id.
func (s *Store) GetWorkoutInstance(remoteID string) (*WorkoutInstance, error) {
	row := s.db.QueryRow(`
		SELECT remote_id, connection_id, class_remote_id, recorded_at, started_at,
			completed_date, discipline, ftp, samples_synced, synced_at
		FROM workout_instances WHERE remote_id = ?
	`, remoteID)
	return scanWorkout(row)
}

// ListWorkouts returns a connection's workouts with completed_date within
// [from, to], newest first. Empty bounds are unbounded.
func (s *Store) ListWorkouts(connID int64, from, to string) ([]WorkoutInstance, error) {
	if from == "" {
		from = "0000-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}
	rows, err := s.db.Query(`
		SELECT remote_id, connection_id, class_remote_id, recorded_at, started_at,
			completed_date, discipline, ftp, samples_synced, synced_at
		FROM workout_instances
		WHERE connection_id = ? AND completed_date >= ? AND completed_date <= ?
		ORDER BY started_at DESC
	`, connID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []WorkoutInstance
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, *w)
	}
	return workouts, rows.Err()
}

// MarkSamplesSynced records that a workout's sample series is stored.
func (s *Store) MarkSamplesSynced(remoteID string, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE workout_instances SET samples_synced = 1, synced_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE remote_id = ?
	`, at.UTC().Format(time.RFC3339), remoteID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

// CountWorkouts returns the number of workouts for a connection.
func (s *Store) CountWorkouts(connID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM workout_instances WHERE connection_id = ?`, connID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row rowScanner) (*WorkoutInstance, error) {
	var (
		w                    WorkoutInstance
		recordedAt, startedAt string
		syncedAt             sql.NullString
	)
	err := row.Scan(&w.RemoteID, &w.ConnectionID, &w.ClassRemoteID, &recordedAt, &startedAt,
		&w.CompletedDate, &w.Discipline, &w.FTP, &w.SamplesSynced, &syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkoutNotFound
	}
	if err != nil {
		return nil, err
	}
	w.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
	w.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	w.SyncedAt = parseNullTime(syncedAt)
	return &w, nil
}
