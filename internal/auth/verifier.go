package auth

import (
	"context"
	"errors"
	"sync"
)

// Authenticator checks presented credentials against stored password hashes.
type Authenticator struct {
	users UserRepository
}

// NewAuthenticator creates a credential verifier over the given user repository.
func NewAuthenticator(users UserRepository) *Authenticator {
	return &Authenticator{users: users}
}

// dummyHash is a hash of a throwaway password, verified against when the
// username does not exist so that the unknown-username and wrong-password
// paths take comparable time.
var (
	dummyHash     string
	dummyHashOnce sync.Once
)

func decoyHash() string {
	dummyHashOnce.Do(func() {
		h, err := HashPassword("hearth-decoy-credential")
		if err != nil {
			// Argon2 hashing only fails if crypto/rand does; leave the
			// decoy empty and let VerifyPassword reject the malformed hash.
			return
		}
		dummyHash = h
	})
	return dummyHash
}

// VerifyCredentials authenticates a (username, password) pair.
//
// It returns ErrAuthenticationFailed both when the username is unknown and
// when the password does not match; the two cases are indistinguishable to
// the caller, closing the username-enumeration oracle. No state is mutated.
func (a *Authenticator) VerifyCredentials(ctx context.Context, username, password string) (*User, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn a verification anyway so timing doesn't leak existence.
			_, _ = VerifyPassword(password, decoyHash()) //nolint:errcheck // result deliberately discarded
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthenticationFailed
	}

	return user, nil
}
