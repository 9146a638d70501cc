package store

// ReplaceSamples replaces all performance samples for a workout in one
// transaction: delete-then-bulk-insert, never a partial patch.
func (s *Store) ReplaceSamples(workoutRemoteID string, samples []PerformanceSample) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM performance_samples WHERE workout_remote_id = ?`, workoutRemoteID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO performance_samples (
			workout_remote_id, time_offset, output, cadence, resistance, speed, heart_rate, zone
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range samples {
		if _, err := stmt.Exec(workoutRemoteID, p.TimeOffset,
			p.Output, p.Cadence, p.Resistance, p.Speed, p.HeartRate, p.Zone); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSamples retrieves a workout's samples ordered by time offset.
func (s *Store) GetSamples(workoutRemoteID string) ([]PerformanceSample, error) {
	rows, err := s.db.Query(`
		SELECT workout_remote_id, time_offset, output, cadence, resistance, speed, heart_rate, zone
		FROM performance_samples
		WHERE workout_remote_id = ?
		ORDER BY time_offset
	`, workoutRemoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []PerformanceSample
	for rows.Next() {
		var p PerformanceSample
		if err := rows.Scan(&p.WorkoutRemoteID, &p.TimeOffset,
			&p.Output, &p.Cadence, &p.Resistance, &p.Speed, &p.HeartRate, &p.Zone); err != nil {
			return nil, err
		}
		samples = append(samples, p)
	}
	return samples, rows.Err()
}

// CountSamples returns the number of stored samples for a workout.
func (s *Store) CountSamples(workoutRemoteID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM performance_samples WHERE workout_remote_id = ?
	`, workoutRemoteID).Scan(&count)
	return count, err
}
