package auth

import (
	"errors"
	"regexp"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 2-20 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,20}$`)

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// User is an authenticated principal. The password hash is never serialised.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role is a named authorization tier referencing a set of permissions.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Permission is a (resource, operation) capability. The pair is unique.
type Permission struct {
	ID        string `json:"id"`
	Resource  string `json:"resource"`
	Operation string `json:"operation"`
}

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	// TokenAccess is a short-lived stateless credential presented on every
	// protected request. Never persisted.
	TokenAccess TokenKind = "access"

	// TokenRefresh is a longer-lived credential used solely to mint new
	// access tokens. Persisted in the session ledger so it can be revoked.
	TokenRefresh TokenKind = "refresh"
)

// Session is a persisted refresh-token ledger entry. Only refresh rows are
// ever stored: access tokens need no revocability within their short life.
//
// Value holds the SHA-256 hash of the raw token, never the token itself.
type Session struct {
	ID        string    `json:"id"`
	Kind      TokenKind `json:"type"`
	Value     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Disabled  bool      `json:"disabled"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the session is usable at the given instant:
// not disabled and not yet expired. The expiry boundary is exclusive.
func (s *Session) Active(now time.Time) bool {
	return !s.Disabled && now.Before(s.ExpiresAt)
}

// Sentinel errors for auth operations. Everything the flows can fail with
// is one of these; callers translate them at the HTTP boundary and must
// never surface the distinction between token-failure kinds to
// unauthenticated clients.
var (
	// ErrAuthenticationFailed covers both unknown-username and wrong-password,
	// deliberately collapsed so callers cannot enumerate usernames.
	ErrAuthenticationFailed = errors.New("invalid credentials")

	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenRevoked          = errors.New("token has been revoked")

	// ErrPrincipalNotFound means a syntactically valid token references a
	// user that no longer exists. Treated as an invalid token at the
	// boundary, never as a server error.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrAuthorizationDenied is a valid principal lacking a required
	// authority. The only failure an authenticated caller may distinguish.
	ErrAuthorizationDenied = errors.New("insufficient authority")

	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameExists   = errors.New("username already exists")
	ErrRoleNotFound     = errors.New("role not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrPermissionExists = errors.New("permission already exists")
	ErrRoleNameExists   = errors.New("role name already exists")
)

// IsTokenError reports whether err is one of the token-validation failures
// that must collapse into a uniform rejection for unauthenticated callers.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenSignatureInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrPrincipalNotFound)
}
