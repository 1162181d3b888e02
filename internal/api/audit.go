package api

import (
	"net/http"
	"strconv"

	"github.com/hearthlabs/hearth-core/internal/audit"
)

// recordAudit writes a security event to the trail. Recording is best
// effort: a failed write is logged, never surfaced to the client.
func (s *Server) recordAudit(r *http.Request, action, username string, details map[string]any) {
	if s.audit == nil {
		return
	}

	entry := &audit.Entry{
		Action:     action,
		Username:   username,
		RemoteAddr: clientIP(r),
		Details:    details,
	}
	if err := s.audit.Record(r.Context(), entry); err != nil {
		s.logger.Warn("recording audit entry failed",
			"action", action,
			"error", err,
		)
	}
}

// actorUsername names the authenticated principal behind a request, or
// "" when the route is unauthenticated.
func actorUsername(r *http.Request) string {
	if principal := principalFrom(r.Context()); principal != nil {
		return principal.User.Username
	}
	return ""
}

// handleListAudit returns the security event trail, newest first.
//
// Query parameters: action, username, limit, offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit trail is not enabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:   q.Get("action"),
		Username: q.Get("username"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, "failed to list audit entries")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
