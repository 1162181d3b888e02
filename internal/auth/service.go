package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
)

// roleClaim is the claim key carrying the role authority in access tokens.
const roleClaim = "role"

// ServiceDeps holds the dependencies required by the session orchestrator.
type ServiceDeps struct {
	Users      UserRepository
	Roles      RoleRepository
	Sessions   SessionRepository
	Codec      *Codec
	Logger     *logging.Logger
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service is the session orchestrator: it composes the credential
// verifier, token codec, session ledger, and revocation manager into the
// login, refresh, logout, and authorize flows.
//
// Session-table writes for one principal are serialized through an
// in-process per-principal mutex, so a login's revoke-and-create cannot
// interleave with a concurrent refresh's check-and-mint for the same
// principal. This relies on the process being the only writer of the
// SQLite ledger.
type Service struct {
	users      UserRepository
	roles      RoleRepository
	sessions   SessionRepository
	verifier   *Authenticator
	revoker    *Revoker
	codec      *Codec
	logger     *logging.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
	locks      principalLocks
}

// NewService creates the session orchestrator.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Users == nil || deps.Roles == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("user, role, and session repositories are required")
	}
	if deps.Codec == nil {
		return nil, fmt.Errorf("token codec is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.AccessTTL <= 0 || deps.RefreshTTL <= deps.AccessTTL {
		return nil, fmt.Errorf("refresh TTL must exceed access TTL, both positive")
	}

	return &Service{
		users:      deps.Users,
		roles:      deps.Roles,
		sessions:   deps.Sessions,
		verifier:   NewAuthenticator(deps.Users),
		revoker:    NewRevoker(deps.Sessions),
		codec:      deps.Codec,
		logger:     deps.Logger.With("component", "auth"),
		accessTTL:  deps.AccessTTL,
		refreshTTL: deps.RefreshTTL,
	}, nil
}

// PrincipalSummary is the caller-facing description of the authenticated
// principal returned by the flows.
type PrincipalSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResult carries whichever tokens the login flow (re)issued.
// A zero AccessToken means the presented access token was still valid
// and was kept; likewise for RefreshToken.
type LoginResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	Principal        PrincipalSummary
}

// RefreshResult carries the access token minted by the refresh flow.
type RefreshResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	Principal       PrincipalSummary
}

// PrincipalContext is the resolved identity attached to a validated
// request: the principal, its role, and its full authority set.
type PrincipalContext struct {
	User        *User
	Role        Role
	Authorities AuthoritySet
}

// Login authenticates a credential pair and establishes a session.
//
// On success it revokes all of the principal's prior sessions (the
// revoke-on-login policy), then reissues whichever of the presented
// tokens the revocation left unusable: a new access token unless the
// presented one still verifies for this principal, and a new persisted
// refresh session whenever the presented refresh token is invalid or the
// access token was kept (revocation disabled the old session either way).
// Credential failure returns ErrAuthenticationFailed with no state
// mutated.
func (s *Service) Login(ctx context.Context, username, password, presentedAccess, presentedRefresh string) (*LoginResult, error) {
	s.logger.Info("login attempt", "username", username)

	user, err := s.verifier.VerifyCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrAuthenticationFailed) {
			s.logger.Warn("login failed", "username", username)
		}
		return nil, err
	}

	role, err := s.roles.GetRole(ctx, user.RoleID)
	if err != nil {
		return nil, fmt.Errorf("resolving role for %s: %w", user.Username, err)
	}

	unlock := s.locks.acquire(user.Username)
	defer unlock()

	if err := s.revoker.RevokeAll(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("revoking prior sessions: %w", err)
	}

	result := &LoginResult{
		Principal: PrincipalSummary{ID: user.ID, Username: user.Username, Role: role.Name},
	}

	accessValid := s.tokenValidFor(presentedAccess, user.Username)
	if !accessValid {
		token, expiry, err := s.codec.Issue(TokenAccess, user.Username,
			map[string]any{roleClaim: string(RoleAuthority(*role))}, s.accessTTL)
		if err != nil {
			return nil, err
		}
		result.AccessToken = token
		result.AccessExpiresAt = expiry
	}

	// RevokeAll above disabled the presented refresh token's ledger row,
	// so a kept access token still needs a fresh refresh session behind it.
	refreshValid := s.tokenValidFor(presentedRefresh, user.Username)
	if !refreshValid || accessValid {
		token, expiry, err := s.codec.Issue(TokenRefresh, user.Username, nil, s.refreshTTL)
		if err != nil {
			return nil, err
		}
		session := &Session{
			Kind:      TokenRefresh,
			Value:     HashToken(token),
			ExpiresAt: expiry,
			UserID:    user.ID,
		}
		if err := s.sessions.Create(ctx, session); err != nil {
			return nil, fmt.Errorf("persisting refresh session: %w", err)
		}
		result.RefreshToken = token
		result.RefreshExpiresAt = expiry
	}

	s.logger.Info("login succeeded", "username", user.Username, "role", role.Name)
	return result, nil
}

// Refresh validates a presented refresh token against its signature,
// expiry, and the session ledger, then mints a new access token for its
// subject. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, presentedRefresh string) (*RefreshResult, error) {
	claims, err := s.codec.Validate(presentedRefresh)
	if err != nil {
		s.logger.Warn("refresh rejected", "reason", err)
		return nil, err
	}

	unlock := s.locks.acquire(claims.Subject)
	defer unlock()

	session, err := s.sessions.GetByValue(ctx, HashToken(presentedRefresh))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.logger.Warn("refresh token not in ledger", "username", claims.Subject)
			return nil, ErrTokenRevoked
		}
		return nil, err
	}
	if !session.Active(time.Now()) {
		s.logger.Warn("refresh session revoked or expired", "username", claims.Subject)
		return nil, ErrTokenRevoked
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}

	role, err := s.roles.GetRole(ctx, user.RoleID)
	if err != nil {
		return nil, fmt.Errorf("resolving role for %s: %w", user.Username, err)
	}

	token, expiry, err := s.codec.Issue(TokenAccess, user.Username,
		map[string]any{roleClaim: string(RoleAuthority(*role))}, s.accessTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("access token refreshed", "username", user.Username)
	return &RefreshResult{
		AccessToken:     token,
		AccessExpiresAt: expiry,
		Principal:       PrincipalSummary{ID: user.ID, Username: user.Username, Role: role.Name},
	}, nil
}

// Logout revokes every session of the access token's subject.
//
// Only the signature is required to recover the subject; an access token
// at or past its expiry still triggers revocation, since refusing to log
// out a nearly-expired session would serve nobody. The already-issued
// access token itself stays valid until its own expiry (stateless by
// design; see the package comment).
func (s *Service) Logout(ctx context.Context, presentedAccess string) error {
	claims, err := s.codec.Parse(presentedAccess)
	if err != nil {
		return err
	}

	unlock := s.locks.acquire(claims.Subject)
	defer unlock()

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrPrincipalNotFound
		}
		return err
	}

	if err := s.revoker.RevokeAll(ctx, user.ID); err != nil {
		return fmt.Errorf("revoking sessions: %w", err)
	}

	s.logger.Info("logout", "username", user.Username)
	return nil
}

// Authorize validates an access token and resolves the full authority set
// of its principal. If required is non-empty, membership is enforced and
// a valid principal lacking it gets ErrAuthorizationDenied — the only
// failure distinguishable to an authenticated caller.
func (s *Service) Authorize(ctx context.Context, presentedAccess string, required Authority) (*PrincipalContext, error) {
	claims, err := s.codec.Validate(presentedAccess)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}

	role, err := s.roles.GetRole(ctx, user.RoleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}

	perms, err := s.roles.PermissionsForRole(ctx, role.ID)
	if err != nil {
		return nil, err
	}

	authorities := AuthoritiesOf(*role, perms)
	if required != "" && !authorities.Has(required) {
		s.logger.Warn("authorization denied",
			"username", user.Username,
			"required", string(required),
		)
		return nil, ErrAuthorizationDenied
	}

	return &PrincipalContext{User: user, Role: *role, Authorities: authorities}, nil
}

// RevokeAllForUser exposes revocation for flows outside the token
// lifecycle, e.g. forcing re-login after a password change.
func (s *Service) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.revoker.RevokeAll(ctx, userID)
}

// PruneExpiredSessions garbage-collects expired ledger rows.
func (s *Service) PruneExpiredSessions(ctx context.Context) (int64, error) {
	return s.revoker.PruneExpired(ctx)
}

// tokenValidFor reports whether the presented token verifies, is
// temporally valid, and belongs to the given subject. An empty token is
// simply not valid — it is the common case of a first login.
func (s *Service) tokenValidFor(token, subject string) bool {
	if token == "" {
		return false
	}
	claims, err := s.codec.Validate(token)
	if err != nil {
		return false
	}
	return claims.Subject == subject
}

// principalLocks serializes session mutations per principal. Entries are
// never removed: the map is bounded by the number of distinct usernames
// seen, which for a household deployment is small and stable.
type principalLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// acquire locks the mutex for key and returns its unlock function.
func (p *principalLocks) acquire(key string) func() {
	p.mu.Lock()
	if p.locks == nil {
		p.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := p.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[key] = lock
	}
	p.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
