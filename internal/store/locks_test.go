package store

import (
	"testing"
	"time"
)

func TestAcquireLockContention(t *testing.T) {
	s := NewTestStore(t)
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	owner, ok, err := s.AcquireLock("class:abc", 2*time.Minute, now)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if !ok || owner == "" {
		t.Fatalf("first acquire failed: ok=%v owner=%q", ok, owner)
	}

	// A second caller inside the TTL is turned away without blocking.
	_, ok, err = s.AcquireLock("class:abc", 2*time.Minute, now.Add(30*time.Second))
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if ok {
		t.Error("second acquire succeeded while lock was held")
	}

	// A different key is independent.
	_, ok, err = s.AcquireLock("class:def", 2*time.Minute, now)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if !ok {
		t.Error("acquire on a different key failed")
	}
}

func TestAcquireLockAfterExpiry(t *testing.T) {
	s := NewTestStore(t)
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	first, ok, err := s.AcquireLock("class:abc", 2*time.Minute, now)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	second, ok, err := s.AcquireLock("class:abc", 2*time.Minute, now.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if !ok {
		t.Fatal("acquire after expiry failed")
	}
	if second == first {
		t.Error("re-acquired lock kept the old owner token")
	}
}

func TestReleaseLock(t *testing.T) {
	s := NewTestStore(t)
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	owner, ok, err := s.AcquireLock("class:abc", 2*time.Minute, now)
	if err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	if err := s.ReleaseLock("class:abc", owner); err != nil {
		t.Fatalf("ReleaseLock: %v", err)
	}

	// Released, so an immediate re-acquire succeeds.
	_, ok, err = s.AcquireLock("class:abc", 2*time.Minute, now)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if !ok {
		t.Error("acquire after release failed")
	}
}

func TestReleaseLockWrongOwner(t *testing.T) {
	s := NewTestStore(t)
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	_, ok, err := s.AcquireLock("class:abc", 2*time.Minute, now)
	if err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	if err := s.ReleaseLock("class:abc", "not-the-owner"); err != nil {
		t.Fatalf("ReleaseLock: %v", err)
	}

	// The lock is still held; the stale release was a no-op.
	_, ok, err = s.AcquireLock("class:abc", 2*time.Minute, now)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if ok {
		t.Error("stale owner token released someone else's lock")
	}
}

func TestSweepExpiredLocks(t *testing.T) {
	s := NewTestStore(t)
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	if _, ok, err := s.AcquireLock("expired", time.Minute, now.Add(-10*time.Minute)); err != nil || !ok {
		t.Fatalf("acquire expired: ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.AcquireLock("live", 10*time.Minute, now); err != nil || !ok {
		t.Fatalf("acquire live: ok=%v err=%v", ok, err)
	}

	swept, err := s.SweepExpiredLocks(now)
	if err != nil {
		t.Fatalf("SweepExpiredLocks: %v", err)
	}
	if swept != 1 {
		t.Errorf("swept %d locks, want 1", swept)
	}

	if _, ok, err := s.AcquireLock("live", time.Minute, now); err != nil {
		t.Fatalf("AcquireLock: %v", err)
	} else if ok {
		t.Error("sweep removed a live lock")
	}
}
