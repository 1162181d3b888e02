package auth

import (
	"context"
	"testing"
	"time"
)

func TestRevoker_RevokeAll(t *testing.T) {
	db := testDB(t)
	role := seedTestRole(t, db, "user")
	jack := seedTestUser(t, db, "jack", role.ID)
	emma := seedTestUser(t, db, "emma", role.ID)

	sessions := NewSessionRepository(db)
	live := &Session{Value: "j-live", ExpiresAt: time.Now().Add(time.Hour), UserID: jack.ID}
	stale := &Session{Value: "j-stale", ExpiresAt: time.Now().Add(-time.Hour), UserID: jack.ID}
	emmas := &Session{Value: "e-live", ExpiresAt: time.Now().Add(time.Hour), UserID: emma.ID}
	for _, s := range []*Session{live, stale, emmas} {
		if err := sessions.Create(context.Background(), s); err != nil {
			t.Fatalf("creating session: %v", err)
		}
	}

	revoker := NewRevoker(sessions)
	if err := revoker.RevokeAll(context.Background(), jack.ID); err != nil {
		t.Fatalf("RevokeAll() error = %v", err)
	}

	// Expired rows are pruned, live rows disabled.
	if _, err := sessions.GetByID(context.Background(), stale.ID); err == nil {
		t.Error("expired session should have been pruned")
	}
	got, err := sessions.GetByID(context.Background(), live.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.Disabled {
		t.Error("live session should be disabled")
	}

	active, err := sessions.ListActiveByUser(context.Background(), jack.ID)
	if err != nil {
		t.Fatalf("ListActiveByUser() error = %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active sessions after revoke = %d, want 0", len(active))
	}

	// Emma is untouched.
	untouched, err := sessions.GetByID(context.Background(), emmas.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if untouched.Disabled {
		t.Error("other user's session should stay enabled")
	}
}

func TestRevoker_RevokeAllIdempotent(t *testing.T) {
	db := testDB(t)
	role := seedTestRole(t, db, "user")
	jack := seedTestUser(t, db, "jack", role.ID)

	sessions := NewSessionRepository(db)
	session := &Session{Value: "h1", ExpiresAt: time.Now().Add(time.Hour), UserID: jack.ID}
	if err := sessions.Create(context.Background(), session); err != nil {
		t.Fatalf("creating session: %v", err)
	}

	revoker := NewRevoker(sessions)
	if err := revoker.RevokeAll(context.Background(), jack.ID); err != nil {
		t.Fatalf("first RevokeAll() error = %v", err)
	}
	if err := revoker.RevokeAll(context.Background(), jack.ID); err != nil {
		t.Fatalf("second RevokeAll() error = %v", err)
	}

	got, err := sessions.GetByID(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.Disabled {
		t.Error("session should remain disabled")
	}
}

func TestRevoker_RevokeAllNoSessions(t *testing.T) {
	db := testDB(t)
	role := seedTestRole(t, db, "user")
	jack := seedTestUser(t, db, "jack", role.ID)

	revoker := NewRevoker(NewSessionRepository(db))
	if err := revoker.RevokeAll(context.Background(), jack.ID); err != nil {
		t.Errorf("RevokeAll() with empty ledger error = %v", err)
	}
}

func TestRevoker_PruneExpired(t *testing.T) {
	db := testDB(t)
	role := seedTestRole(t, db, "user")
	jack := seedTestUser(t, db, "jack", role.ID)

	sessions := NewSessionRepository(db)
	live := &Session{Value: "live", ExpiresAt: time.Now().Add(time.Hour), UserID: jack.ID}
	old1 := &Session{Value: "old1", ExpiresAt: time.Now().Add(-time.Hour), UserID: jack.ID}
	old2 := &Session{Value: "old2", ExpiresAt: time.Now().Add(-2 * time.Hour), UserID: jack.ID}
	for _, s := range []*Session{live, old1, old2} {
		if err := sessions.Create(context.Background(), s); err != nil {
			t.Fatalf("creating session: %v", err)
		}
	}

	revoker := NewRevoker(sessions)
	count, err := revoker.PruneExpired(context.Background())
	if err != nil {
		t.Fatalf("PruneExpired() error = %v", err)
	}
	if count != 2 {
		t.Errorf("PruneExpired() = %d, want 2", count)
	}
	if _, err := sessions.GetByID(context.Background(), live.ID); err != nil {
		t.Errorf("live session should survive pruning: %v", err)
	}
}
