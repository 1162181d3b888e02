package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearthlabs/hearth-core/internal/audit"
	"github.com/hearthlabs/hearth-core/internal/auth"
)

// createUserRequest is the request body for POST /users.
type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// handleListUsers returns all users. Password hashes never serialise.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "count": len(users)})
}

// handleCreateUser provisions a new account with the named role.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if !auth.IsValidUsername(req.Username) {
		writeBadRequest(w, "username must be 2-20 characters of letters, digits, dot, underscore, or hyphen")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleUser
	}

	role, err := s.roles.GetRoleByName(r.Context(), req.Role)
	if err != nil {
		if errors.Is(err, auth.ErrRoleNotFound) {
			writeBadRequest(w, "unknown role")
			return
		}
		writeInternalError(w, "failed to resolve role")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeInternalError(w, "failed to hash password")
		return
	}

	user := &auth.User{
		Username:     req.Username,
		PasswordHash: hash,
		RoleID:       role.ID,
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrUsernameExists) {
			writeConflict(w, "username already exists")
			return
		}
		writeInternalError(w, "failed to create user")
		return
	}

	s.recordAudit(r, audit.ActionUserCreated, actorUsername(r), map[string]any{
		"created_username": user.Username,
		"role":             role.Name,
	})

	writeJSON(w, http.StatusCreated, user)
}

// handleDeleteUser removes an account and, via cascade, its sessions.
// A principal cannot delete itself.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if principal := principalFrom(r.Context()); principal != nil && principal.User.ID == id {
		writeBadRequest(w, "cannot delete your own account")
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		writeInternalError(w, "failed to delete user")
		return
	}

	s.recordAudit(r, audit.ActionUserDeleted, actorUsername(r), map[string]any{
		"deleted_user_id": id,
	})

	w.WriteHeader(http.StatusNoContent)
}
