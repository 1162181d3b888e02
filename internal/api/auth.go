package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hearthlabs/hearth-core/internal/audit"
	"github.com/hearthlabs/hearth-core/internal/auth"
)

// minPasswordLength is the floor for new passwords.
const minPasswordLength = 8

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse is the response body for login and refresh. Token fields
// are omitted when the presented token was still valid and kept.
type tokenResponse struct {
	AccessToken      string                `json:"access_token,omitempty"`
	AccessExpiresAt  *time.Time            `json:"access_expires_at,omitempty"`
	RefreshToken     string                `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time            `json:"refresh_expires_at,omitempty"`
	TokenType        string                `json:"token_type"`
	Principal        auth.PrincipalSummary `json:"principal"`
}

// handleLogin authenticates a credential pair and establishes a session.
//
// Tokens already held by the client ride along via the usual extraction
// paths; a presented token that is still valid for this principal is kept
// rather than reissued. Newly issued tokens are returned in the body and
// set as cookies.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	presentedAccess := extractToken(r)
	presentedRefresh := refreshTokenFrom(r, nil)

	result, err := s.auth.Login(r.Context(), req.Username, req.Password, presentedAccess, presentedRefresh)
	if err != nil {
		if errors.Is(err, auth.ErrAuthenticationFailed) {
			s.recordAudit(r, audit.ActionLoginFailed, req.Username, nil)
		}
		mapAuthError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionLogin, req.Username, map[string]any{
		"access_reissued":  result.AccessToken != "",
		"refresh_reissued": result.RefreshToken != "",
	})

	resp := tokenResponse{
		TokenType: "Bearer",
		Principal: result.Principal,
	}

	if result.AccessToken != "" {
		resp.AccessToken = result.AccessToken
		resp.AccessExpiresAt = &result.AccessExpiresAt
		s.setTokenCookie(w, accessCookieName, result.AccessToken, s.accessTTL())
	}
	if result.RefreshToken != "" {
		resp.RefreshToken = result.RefreshToken
		resp.RefreshExpiresAt = &result.RefreshExpiresAt
		s.setTokenCookie(w, refreshCookieName, result.RefreshToken, s.refreshTTL())
	}

	writeJSON(w, http.StatusOK, resp)
}

// refreshRequest is the optional body for POST /auth/refresh, used by
// clients that do not hold the refresh token in a cookie.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleRefresh mints a new access token from a live refresh session.
// The refresh token comes from the refresh_token cookie or, failing
// that, the request body.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	//nolint:errcheck // An empty or absent body is fine; the cookie may carry the token
	json.NewDecoder(r.Body).Decode(&req)

	token := refreshTokenFrom(r, &req)
	if token == "" {
		writeUnauthorized(w)
		return
	}

	result, err := s.auth.Refresh(r.Context(), token)
	if err != nil {
		mapAuthError(w, err)
		return
	}

	s.setTokenCookie(w, accessCookieName, result.AccessToken, s.accessTTL())

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:     result.AccessToken,
		AccessExpiresAt: &result.AccessExpiresAt,
		TokenType:       "Bearer",
		Principal:       result.Principal,
	})
}

// handleLogout revokes all of the caller's sessions and clears the token
// cookies. The access token only needs a valid signature here, so a
// client holding an expired token can still log out.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearTokenCookie(w, accessCookieName)
	s.clearTokenCookie(w, refreshCookieName)

	token := extractToken(r)
	if token == "" {
		writeUnauthorized(w)
		return
	}

	if err := s.auth.Logout(r.Context(), token); err != nil {
		mapAuthError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionLogout, "", nil)

	w.WriteHeader(http.StatusNoContent)
}

// meResponse describes the authenticated principal.
type meResponse struct {
	ID          string           `json:"id"`
	Username    string           `json:"username"`
	Role        string           `json:"role"`
	Authorities []auth.Authority `json:"authorities"`
}

// handleMe returns the caller's resolved identity and authority set.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())
	if principal == nil {
		writeUnauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		ID:          principal.User.ID,
		Username:    principal.User.Username,
		Role:        principal.Role.Name,
		Authorities: principal.Authorities.Sorted(),
	})
}

// changePasswordRequest is the body for POST /auth/password.
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// handleChangePassword rotates the caller's password and revokes every
// session, forcing re-authentication everywhere.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())
	if principal == nil {
		writeUnauthorized(w)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeBadRequest(w, "new password must be at least 8 characters")
		return
	}

	ok, err := auth.VerifyPassword(req.CurrentPassword, principal.User.PasswordHash)
	if err != nil {
		writeInternalError(w, "failed to verify password")
		return
	}
	if !ok {
		writeUnauthorized(w)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeInternalError(w, "failed to hash password")
		return
	}

	if err := s.users.UpdatePassword(r.Context(), principal.User.ID, hash); err != nil {
		writeInternalError(w, "failed to update password")
		return
	}

	if err := s.auth.RevokeAllForUser(r.Context(), principal.User.ID); err != nil {
		writeInternalError(w, "failed to revoke sessions")
		return
	}

	s.recordAudit(r, audit.ActionPasswordChanged, principal.User.Username, nil)

	s.clearTokenCookie(w, accessCookieName)
	s.clearTokenCookie(w, refreshCookieName)

	w.WriteHeader(http.StatusNoContent)
}

// refreshTokenFrom extracts the refresh token: cookie first, then the
// decoded request body if one was supplied.
func refreshTokenFrom(r *http.Request, body *refreshRequest) string {
	if c, err := r.Cookie(refreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if body != nil {
		return body.RefreshToken
	}
	return ""
}

// accessTTL and refreshTTL convert the configured minute counts into
// durations for cookie lifetimes.
func (s *Server) accessTTL() time.Duration {
	return time.Duration(s.secCfg.JWT.AccessTokenTTL) * time.Minute
}

func (s *Server) refreshTTL() time.Duration {
	return time.Duration(s.secCfg.JWT.RefreshTokenTTL) * time.Minute
}
