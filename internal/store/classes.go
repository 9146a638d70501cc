package store

import (
	"database/sql"
	"errors"
	"time"
)

// GetClassTemplate retrieves a class template by remote id.
func (s *Store) GetClassTemplate(remoteID string) (*ClassTemplate, error) {
	row := s.db.QueryRow(`
		SELECT remote_id, title, description, duration, discipline,
			difficulty_rating, difficulty_count, image_url, original_air_time,
			instructor_id, playlist_id, class_type,
			target_metrics_json, segments_json, is_power_zone, is_archived
		FROM class_templates WHERE remote_id = ?
	`, remoteID)

	var (
		c                        ClassTemplate
		description, imageURL    sql.NullString
		airTime                  sql.NullString
		instructorID, playlistID sql.NullString
		classType                sql.NullString
		targetJSON, segmentsJSON sql.NullString
		rating                   sql.NullFloat64
		count                    sql.NullInt64
	)
	err := row.Scan(&c.RemoteID, &c.Title, &description, &c.Duration, &c.Discipline,
		&rating, &count, &imageURL, &airTime,
		&instructorID, &playlistID, &classType,
		&targetJSON, &segmentsJSON, &c.IsPowerZone, &c.IsArchived)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}

	c.Description = description.String
	c.ImageURL = imageURL.String
	c.InstructorID = instructorID.String
	c.PlaylistID = playlistID.String
	c.ClassType = classType.String
	c.TargetMetricsJSON = targetJSON.String
	c.SegmentsJSON = segmentsJSON.String
	c.DifficultyRating = rating.Float64
	c.DifficultyCount = int(count.Int64)
	if t := parseNullTime(airTime); t != nil {
		c.OriginalAirTime = t
	}

	return &c, nil
}

// HasClassTemplate reports whether a template exists for the remote id.
func (s *Store) HasClassTemplate(remoteID string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM class_templates WHERE remote_id = ?`, remoteID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpsertClassTemplate inserts or refreshes a class template. Identity is
// immutable (remote id); metadata is refreshable.
func (s *Store) UpsertClassTemplate(c *ClassTemplate) error {
	var airTime any
	if c.OriginalAirTime != nil {
		airTime = c.OriginalAirTime.UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(`
		INSERT INTO class_templates (
			remote_id, title, description, duration, discipline,
			difficulty_rating, difficulty_count, image_url, original_air_time,
			instructor_id, playlist_id, class_type,
			target_metrics_json, segments_json, is_power_zone, is_archived
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			duration = excluded.duration,
			discipline = excluded.discipline,
			difficulty_rating = excluded.difficulty_rating,
			difficulty_count = excluded.difficulty_count,
			image_url = excluded.image_url,
			original_air_time = excluded.original_air_time,
			instructor_id = excluded.instructor_id,
			playlist_id = excluded.playlist_id,
			class_type = excluded.class_type,
			target_metrics_json = excluded.target_metrics_json,
			segments_json = excluded.segments_json,
			is_power_zone = excluded.is_power_zone,
			is_archived = excluded.is_archived,
			updated_at = CURRENT_TIMESTAMP
	`, c.RemoteID, c.Title, c.Description, c.Duration, c.Discipline,
		c.DifficultyRating, c.DifficultyCount, c.ImageURL, airTime,
		nullIfEmpty(c.InstructorID), nullIfEmpty(c.PlaylistID), c.ClassType,
		c.TargetMetricsJSON, c.SegmentsJSON, c.IsPowerZone, c.IsArchived)
	return err
}

// UpsertInstructor inserts or refreshes an instructor.
func (s *Store) UpsertInstructor(i *Instructor) error {
	_, err := s.db.Exec(`
		INSERT INTO instructors (remote_id, name, image_url, bio)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			name = excluded.name,
			image_url = excluded.image_url,
			bio = excluded.bio
	`, i.RemoteID, i.Name, i.ImageURL, i.Bio)
	return err
}

// UpsertPlaylist inserts or refreshes a playlist.
func (s *Store) UpsertPlaylist(p *Playlist) error {
	_, err := s.db.Exec(`
		INSERT INTO playlists (remote_id, top_tags, songs_json)
		VALUES (?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			top_tags = excluded.top_tags,
			songs_json = excluded.songs_json
	`, p.RemoteID, p.TopTags, p.SongsJSON)
	return err
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
