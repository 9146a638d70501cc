package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// RecordFTP stores (or overwrites) the FTP value effective from a date.
func (s *Store) RecordFTP(connID int64, effectiveDate string, ftp int) error {
	_, err := s.db.Exec(`
		INSERT INTO ftp_history (connection_id, effective_date, ftp)
		VALUES (?, ?, ?)
		ON CONFLICT(connection_id, effective_date) DO UPDATE SET ftp = excluded.ftp
	`, connID, effectiveDate, ftp)
	return err
}

// FTPOn returns the FTP in effect on a date: the most recent record at or
// before it. Returns 0 when no record exists.
func (s *Store) FTPOn(connID int64, date string) (int, error) {
	var ftp int
	err := s.db.QueryRow(`
		SELECT ftp FROM ftp_history
		WHERE connection_id = ? AND effective_date <= ?
		ORDER BY effective_date DESC LIMIT 1
	`, connID, date).Scan(&ftp)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return ftp, err
}

// RecordPaceZones stores the pace zone table effective from a date.
func (s *Store) RecordPaceZones(set *PaceZoneSet) error {
	encoded := map[string]float64{}
	for level, mph := range set.Zones {
		encoded[strconv.Itoa(level)] = mph
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("encoding pace zones: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO pace_zone_history (connection_id, effective_date, zones_json)
		VALUES (?, ?, ?)
		ON CONFLICT(connection_id, effective_date) DO UPDATE SET zones_json = excluded.zones_json
	`, set.ConnectionID, set.EffectiveDate, string(data))
	return err
}

// PaceZonesOn returns the pace zone table in effect on a date, or nil when
// no table exists.
func (s *Store) PaceZonesOn(connID int64, date string) (map[int]float64, error) {
	var data string
	err := s.db.QueryRow(`
		SELECT zones_json FROM pace_zone_history
		WHERE connection_id = ? AND effective_date <= ?
		ORDER BY effective_date DESC LIMIT 1
	`, connID, date).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var encoded map[string]float64
	if err := json.Unmarshal([]byte(data), &encoded); err != nil {
		return nil, fmt.Errorf("decoding pace zones: %w", err)
	}
	zones := map[int]float64{}
	for k, v := range encoded {
		level, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		zones[level] = v
	}
	return zones, nil
}
