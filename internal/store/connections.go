package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetConnection loads the connection for a local account, decrypting the
// credential and token columns.
func (s *Store) GetConnection(localUser string) (*Connection, error) {
	row := s.db.QueryRow(`
		SELECT id, local_user, remote_user_id, active,
			username_enc, password_enc,
			access_token_enc, refresh_token_enc, token_expires_at,
			sync_in_progress, sync_started_at, sync_cooldown_until, last_sync_at
		FROM connections WHERE local_user = ?
	`, localUser)

	var (
		c                             Connection
		remoteUserID                  sql.NullString
		usernameEnc, passwordEnc      sql.NullString
		accessEnc, refreshEnc, expiry sql.NullString
		startedAt, cooldown, lastSync sql.NullString
	)
	err := row.Scan(&c.ID, &c.LocalUser, &remoteUserID, &c.Active,
		&usernameEnc, &passwordEnc,
		&accessEnc, &refreshEnc, &expiry,
		&c.SyncInProgress, &startedAt, &cooldown, &lastSync)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoConnection
	}
	if err != nil {
		return nil, err
	}

	c.RemoteUserID = remoteUserID.String
	if c.Username, err = s.cipher.DecryptField(usernameEnc.String); err != nil {
		return nil, fmt.Errorf("decrypting username: %w", err)
	}
	if c.Password, err = s.cipher.DecryptField(passwordEnc.String); err != nil {
		return nil, fmt.Errorf("decrypting password: %w", err)
	}
	if c.AccessToken, err = s.cipher.DecryptField(accessEnc.String); err != nil {
		return nil, fmt.Errorf("decrypting access token: %w", err)
	}
	if c.RefreshToken, err = s.cipher.DecryptField(refreshEnc.String); err != nil {
		return nil, fmt.Errorf("decrypting refresh token: %w", err)
	}

	if expiry.Valid && expiry.String != "" {
		c.TokenExpiresAt, _ = time.Parse(time.RFC3339, expiry.String)
	}
	c.SyncStartedAt = parseNullTime(startedAt)
	c.SyncCooldownUntil = parseNullTime(cooldown)
	c.LastSyncAt = parseNullTime(lastSync)

	return &c, nil
}

// CreateConnection inserts a connection for the local account if none
// exists yet, and returns the stored row either way.
func (s *Store) CreateConnection(localUser string) (*Connection, error) {
	_, err := s.db.Exec(`
		INSERT INTO connections (local_user) VALUES (?)
		ON CONFLICT(local_user) DO NOTHING
	`, localUser)
	if err != nil {
		return nil, err
	}
	return s.GetConnection(localUser)
}

// SaveCredentials stores an encrypted username/password pair.
func (s *Store) SaveCredentials(connID int64, username, password string) error {
	userEnc, err := s.cipher.EncryptField(username)
	if err != nil {
		return err
	}
	passEnc, err := s.cipher.EncryptField(password)
	if err != nil {
		return err
	}
	return s.execOne(`
		UPDATE connections SET username_enc = ?, password_enc = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, userEnc, passEnc, connID)
}

// SaveTokens stores an encrypted bearer/refresh token pair and expiry.
func (s *Store) SaveTokens(connID int64, accessToken, refreshToken string, expiresAt time.Time) error {
	accessEnc, err := s.cipher.EncryptField(accessToken)
	if err != nil {
		return err
	}
	refreshEnc, err := s.cipher.EncryptField(refreshToken)
	if err != nil {
		return err
	}
	return s.execOne(`
		UPDATE connections SET access_token_enc = ?, refresh_token_enc = ?, token_expires_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, accessEnc, refreshEnc, expiresAt.UTC().Format(time.RFC3339), connID)
}

// ActivateConnection records the remote account id and marks the
// connection active after a successful first auth.
func (s *Store) ActivateConnection(connID int64, remoteUserID string) error {
	return s.execOne(`
		UPDATE connections SET remote_user_id = ?, active = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, remoteUserID, connID)
}

// DeactivateConnection marks the connection inactive; used when a
// background sync hits an auth failure with no usable refresh token.
func (s *Store) DeactivateConnection(connID int64) error {
	return s.execOne(`
		UPDATE connections SET active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, connID)
}

// BeginSync transitions the connection to in-progress. Returns
// ErrSyncInProgress if a sync is already running for it.
func (s *Store) BeginSync(connID int64, now time.Time) error {
	res, err := s.db.Exec(`
		UPDATE connections SET sync_in_progress = 1, sync_started_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND sync_in_progress = 0
	`, now.UTC().Format(time.RFC3339), connID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Either the row is missing or a sync is running; disambiguate.
		var inProgress bool
		err := s.db.QueryRow(`SELECT sync_in_progress FROM connections WHERE id = ?`, connID).Scan(&inProgress)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoConnection
		}
		if err != nil {
			return err
		}
		return ErrSyncInProgress
	}
	return nil
}

// FinishSync clears the in-progress flag. On success last_sync_at is
// advanced; on failure a cooldown timestamp is set instead.
func (s *Store) FinishSync(connID int64, ok bool, now time.Time, cooldown time.Duration) error {
	if ok {
		return s.execOne(`
			UPDATE connections SET sync_in_progress = 0, sync_started_at = NULL,
				last_sync_at = ?, sync_cooldown_until = NULL, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, now.UTC().Format(time.RFC3339), connID)
	}
	return s.execOne(`
		UPDATE connections SET sync_in_progress = 0, sync_started_at = NULL,
			sync_cooldown_until = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, now.Add(cooldown).UTC().Format(time.RFC3339), connID)
}

// ClearStaleSyncs force-clears in-progress flags older than staleness,
// recovering connections whose sync worker died mid-flight.
func (s *Store) ClearStaleSyncs(staleness time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-staleness).UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`
		UPDATE connections SET sync_in_progress = 0, sync_started_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE sync_in_progress = 1 AND sync_started_at < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) execOne(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoConnection
	}
	return nil
}

func parseNullTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil
	}
	return &t
}
