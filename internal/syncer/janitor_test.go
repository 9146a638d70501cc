package syncer

import (
	"errors"
	"testing"
	"time"

	"pelosync/internal/store"
)

func TestJanitorRecoversStaleSync(t *testing.T) {
	s := store.NewTestStore(t)
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	stale, err := s.CreateConnection("stale")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	fresh, err := s.CreateConnection("fresh")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if err := s.BeginSync(stale.ID, now.Add(-3*time.Hour)); err != nil {
		t.Fatalf("BeginSync stale: %v", err)
	}
	if err := s.BeginSync(fresh.ID, now.Add(-5*time.Minute)); err != nil {
		t.Fatalf("BeginSync fresh: %v", err)
	}
	if _, ok, err := s.AcquireLock("class:old", time.Minute, now.Add(-time.Hour)); err != nil || !ok {
		t.Fatalf("seeding expired lock: ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.AcquireLock("class:live", time.Hour, now); err != nil || !ok {
		t.Fatalf("seeding live lock: ok=%v err=%v", ok, err)
	}

	j := NewJanitor(s, nil)
	j.now = func() time.Time { return now }

	recovered, swept, err := j.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if recovered != 1 {
		t.Errorf("recovered %d syncs, want 1", recovered)
	}
	if swept != 1 {
		t.Errorf("swept %d locks, want 1", swept)
	}

	// The stale connection can sync again; the fresh one is untouched.
	if err := s.BeginSync(stale.ID, now); err != nil {
		t.Errorf("stale connection not recovered: %v", err)
	}
	if err := s.BeginSync(fresh.ID, now); !errors.Is(err, store.ErrSyncInProgress) {
		t.Errorf("fresh connection lost its flag: %v", err)
	}
}

func TestJanitorIdlePass(t *testing.T) {
	s := store.NewTestStore(t)
	j := NewJanitor(s, nil)

	recovered, swept, err := j.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if recovered != 0 || swept != 0 {
		t.Errorf("idle pass touched %d/%d rows, want 0/0", recovered, swept)
	}
}
