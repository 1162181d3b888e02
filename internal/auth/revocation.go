package auth

import (
	"context"
	"fmt"
)

// Revoker invalidates outstanding refresh sessions. It is the only
// component that mutates ledger rows after creation.
type Revoker struct {
	sessions SessionRepository
}

// NewRevoker creates a revocation manager over the given session ledger.
func NewRevoker(sessions SessionRepository) *Revoker {
	return &Revoker{sessions: sessions}
}

// RevokeAll prunes the user's expired session rows and disables every
// remaining one. Disabling an already-disabled session is a no-op, so
// calling RevokeAll twice leaves the ledger in the same state as once.
//
// Invoked on logout and at the start of every successful login (the
// revoke-on-login policy documented in the package comment).
func (r *Revoker) RevokeAll(ctx context.Context, userID string) error {
	if _, err := r.sessions.DeleteExpiredForUser(ctx, userID); err != nil {
		return fmt.Errorf("pruning expired sessions: %w", err)
	}
	if err := r.sessions.DisableAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("disabling sessions: %w", err)
	}
	return nil
}

// PruneExpired deletes all expired session rows across every user.
// Safe to run opportunistically; it never touches unexpired rows.
func (r *Revoker) PruneExpired(ctx context.Context) (int64, error) {
	count, err := r.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("pruning expired sessions: %w", err)
	}
	return count, nil
}
