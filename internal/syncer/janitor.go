package syncer

import (
	"log/slog"
	"time"

	"pelosync/internal/store"
)

// staleSyncAge is how long an in-progress flag may sit before the worker
// that set it is presumed dead and the flag is reclaimed.
const staleSyncAge = 120 * time.Minute

// Janitor recovers connections stuck in-progress and sweeps expired
// locks. Safe to run on a timer alongside live syncs.
type Janitor struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time
}

// NewJanitor creates a janitor over the store.
func NewJanitor(s *store.Store, log *slog.Logger) *Janitor {
	if log == nil {
		log = slog.Default()
	}
	return &Janitor{store: s, log: log, now: time.Now}
}

// Run performs one cleanup pass and returns the number of recovered
// connections and swept locks.
func (j *Janitor) Run() (recovered, swept int64, err error) {
	now := j.now()

	recovered, err = j.store.ClearStaleSyncs(staleSyncAge, now)
	if err != nil {
		return 0, 0, err
	}
	swept, err = j.store.SweepExpiredLocks(now)
	if err != nil {
		return recovered, 0, err
	}

	if recovered > 0 || swept > 0 {
		j.log.Info("janitor pass", "recovered_syncs", recovered, "swept_locks", swept)
	}
	return recovered, swept, nil
}
