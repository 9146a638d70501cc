package store

import (
	"time"

	"github.com/google/uuid"
)

// AcquireLock takes a TTL lock on key. It is non-blocking: a false result
// means someone else holds the lock and the caller should skip the work,
// not wait. The returned owner token is required to release.
func (s *Store) AcquireLock(key string, ttl time.Duration, now time.Time) (string, bool, error) {
	owner := uuid.NewString()
	res, err := s.db.Exec(`
		INSERT INTO sync_locks (key, owner, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			owner = excluded.owner,
			expires_at = excluded.expires_at
		WHERE sync_locks.expires_at <= ?
	`, key, owner, now.Add(ttl).Unix(), now.Unix())
	if err != nil {
		return "", false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return "", false, err
	}
	if rows == 0 {
		return "", false, nil
	}
	return owner, true, nil
}

// ReleaseLock releases a lock held with the given owner token. Releasing
// a lock that expired and was re-acquired by someone else is a no-op.
func (s *Store) ReleaseLock(key, owner string) error {
	_, err := s.db.Exec(`DELETE FROM sync_locks WHERE key = ? AND owner = ?`, key, owner)
	return err
}

// SweepExpiredLocks removes locks whose TTL has elapsed.
func (s *Store) SweepExpiredLocks(now time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sync_locks WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
