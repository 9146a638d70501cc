package store

import (
	"errors"
	"testing"
	"time"
)

func TestCreateConnectionIdempotent(t *testing.T) {
	s := NewTestStore(t)

	c1, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	c2, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection again: %v", err)
	}
	if c1.ID != c2.ID {
		t.Errorf("second create returned id %d, want %d", c2.ID, c1.ID)
	}
	if c1.Active {
		t.Error("new connection should start inactive")
	}
}

func TestGetConnectionMissing(t *testing.T) {
	s := NewTestStore(t)
	if _, err := s.GetConnection("nobody"); !errors.Is(err, ErrNoConnection) {
		t.Errorf("got %v, want ErrNoConnection", err)
	}
}

func TestCredentialsEncryptedAtRest(t *testing.T) {
	s := NewTestStore(t)
	c, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if err := s.SaveCredentials(c.ID, "alice@example.com", "hunter2"); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	// Raw column must not contain the plaintext.
	var raw string
	if err := s.DB().QueryRow(`SELECT password_enc FROM connections WHERE id = ?`, c.ID).Scan(&raw); err != nil {
		t.Fatalf("reading raw column: %v", err)
	}
	if raw == "hunter2" || raw == "" {
		t.Errorf("password column not encrypted: %q", raw)
	}

	got, err := s.GetConnection("alice")
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	if got.Username != "alice@example.com" || got.Password != "hunter2" {
		t.Errorf("got %q/%q, want plaintext credentials back", got.Username, got.Password)
	}
}

func TestSaveTokensRoundTrip(t *testing.T) {
	s := NewTestStore(t)
	c, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.SaveTokens(c.ID, "access-abc", "refresh-def", expiry); err != nil {
		t.Fatalf("SaveTokens: %v", err)
	}

	got, err := s.GetConnection("alice")
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	if got.AccessToken != "access-abc" || got.RefreshToken != "refresh-def" {
		t.Errorf("tokens did not round trip: %q/%q", got.AccessToken, got.RefreshToken)
	}
	if !got.TokenExpiresAt.Equal(expiry) {
		t.Errorf("expiry got %v, want %v", got.TokenExpiresAt, expiry)
	}
}

func TestActivateDeactivate(t *testing.T) {
	s := NewTestStore(t)
	c, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if err := s.ActivateConnection(c.ID, "remote-123"); err != nil {
		t.Fatalf("ActivateConnection: %v", err)
	}
	got, _ := s.GetConnection("alice")
	if !got.Active || got.RemoteUserID != "remote-123" {
		t.Errorf("after activate: active=%v remote=%q", got.Active, got.RemoteUserID)
	}

	if err := s.DeactivateConnection(c.ID); err != nil {
		t.Fatalf("DeactivateConnection: %v", err)
	}
	got, _ = s.GetConnection("alice")
	if got.Active {
		t.Error("connection still active after deactivate")
	}
}

func TestBeginSyncConflict(t *testing.T) {
	s := NewTestStore(t)
	c, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	now := time.Now()

	if err := s.BeginSync(c.ID, now); err != nil {
		t.Fatalf("first BeginSync: %v", err)
	}
	if err := s.BeginSync(c.ID, now); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("second BeginSync got %v, want ErrSyncInProgress", err)
	}
	if err := s.BeginSync(999, now); !errors.Is(err, ErrNoConnection) {
		t.Errorf("BeginSync on missing row got %v, want ErrNoConnection", err)
	}
}

func TestFinishSyncSuccess(t *testing.T) {
	s := NewTestStore(t)
	c, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	if err := s.BeginSync(c.ID, now); err != nil {
		t.Fatalf("BeginSync: %v", err)
	}
	if err := s.FinishSync(c.ID, true, now, 0); err != nil {
		t.Fatalf("FinishSync: %v", err)
	}

	got, _ := s.GetConnection("alice")
	if got.SyncInProgress {
		t.Error("sync still marked in progress")
	}
	if got.LastSyncAt == nil || !got.LastSyncAt.Equal(now) {
		t.Errorf("last sync at %v, want %v", got.LastSyncAt, now)
	}
	if got.SyncCooldownUntil != nil {
		t.Error("cooldown set after a successful sync")
	}

	// Flag is clear again, so a new sync can start.
	if err := s.BeginSync(c.ID, now.Add(time.Minute)); err != nil {
		t.Errorf("BeginSync after finish: %v", err)
	}
}

func TestFinishSyncFailureSetsCooldown(t *testing.T) {
	s := NewTestStore(t)
	c, err := s.CreateConnection("alice")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	if err := s.BeginSync(c.ID, now); err != nil {
		t.Fatalf("BeginSync: %v", err)
	}
	if err := s.FinishSync(c.ID, false, now, 30*time.Minute); err != nil {
		t.Fatalf("FinishSync: %v", err)
	}

	got, _ := s.GetConnection("alice")
	if got.LastSyncAt != nil {
		t.Error("failed sync advanced last_sync_at")
	}
	want := now.Add(30 * time.Minute)
	if got.SyncCooldownUntil == nil || !got.SyncCooldownUntil.Equal(want) {
		t.Errorf("cooldown until %v, want %v", got.SyncCooldownUntil, want)
	}
}

func TestClearStaleSyncs(t *testing.T) {
	s := NewTestStore(t)
	stale, err := s.CreateConnection("stale")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	fresh, err := s.CreateConnection("fresh")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}

	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	if err := s.BeginSync(stale.ID, now.Add(-3*time.Hour)); err != nil {
		t.Fatalf("BeginSync stale: %v", err)
	}
	if err := s.BeginSync(fresh.ID, now.Add(-10*time.Minute)); err != nil {
		t.Fatalf("BeginSync fresh: %v", err)
	}

	cleared, err := s.ClearStaleSyncs(2*time.Hour, now)
	if err != nil {
		t.Fatalf("ClearStaleSyncs: %v", err)
	}
	if cleared != 1 {
		t.Errorf("cleared %d connections, want 1", cleared)
	}

	// The stale connection is recovered; the fresh one still holds its flag.
	if err := s.BeginSync(stale.ID, now); err != nil {
		t.Errorf("BeginSync after recovery: %v", err)
	}
	if err := s.BeginSync(fresh.ID, now); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("fresh connection lost its flag: %v", err)
	}
}
