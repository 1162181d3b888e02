package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hearthlabs/hearth-core/internal/auth"
)

// contextKey is a private type for request context keys.
type contextKey string

const (
	ctxKeyRequestID contextKey = "request_id"
	ctxKeyPrincipal contextKey = "principal"
)

// maxRequestBodySize caps request bodies at 1 MiB.
const maxRequestBodySize = 1 << 20

// requestIDBytes is the number of random bytes in a request ID.
const requestIDBytes = 8

// requestID assigns a random ID to each request and echoes it in the
// X-Request-ID response header.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := generateRequestID()
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func generateRequestID() string {
	b := make([]byte, requestIDBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}

// statusWriter captures the response status code for logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// logRequests logs each request with method, path, status, and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		requestID, _ := r.Context().Value(ctxKeyRequestID).(string)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
			"request_id", requestID,
		)
	})
}

// recovery converts panics in handlers into 500 responses.
func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
				)
				writeInternalError(w, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// cors handles cross-origin requests according to the configured policy.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods",
				joinOrDefault(s.cfg.CORS.AllowedMethods, "GET, POST, PUT, DELETE, OPTIONS"))
			w.Header().Set("Access-Control-Allow-Headers",
				joinOrDefault(s.cfg.CORS.AllowedHeaders, "Authorization, Content-Type"))
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) isAllowedOrigin(origin string) bool {
	for _, allowed := range s.cfg.CORS.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func joinOrDefault(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

// bodySizeLimit rejects request bodies larger than maxRequestBodySize.
func (s *Server) bodySizeLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		next.ServeHTTP(w, r)
	})
}

// extractToken pulls the access token from the request. Lookup order:
// the access_token cookie, the Authorization: Bearer header, then the
// access_token query parameter. The first source present wins, even if
// the token it holds turns out invalid.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(accessCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	if header := r.Header.Get("Authorization"); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
	}

	return r.URL.Query().Get("access_token")
}

// requireAuth resolves the request's access token into a principal and
// stores it in the context. Any token failure, including a missing token,
// produces the same 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeUnauthorized(w)
			return
		}

		principal, err := s.auth.Authorize(r.Context(), token, "")
		if err != nil {
			if auth.IsTokenError(err) {
				writeUnauthorized(w)
				return
			}
			writeInternalError(w, "authorization check failed")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyPrincipal, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuthority gates a route on a single authority from the
// principal's resolved set. Must run inside requireAuth.
func (s *Server) requireAuthority(required auth.Authority) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := principalFrom(r.Context())
			if principal == nil {
				writeUnauthorized(w)
				return
			}
			if !principal.Authorities.Has(required) {
				writeForbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// principalFrom returns the authenticated principal attached to the
// context, or nil outside the auth gate.
func principalFrom(ctx context.Context) *auth.PrincipalContext {
	principal, _ := ctx.Value(ctxKeyPrincipal).(*auth.PrincipalContext)
	return principal
}

// mapAuthError translates an auth flow failure into an HTTP response.
// Token failures and credential failures are indistinguishable on the
// wire; only ErrAuthorizationDenied earns a 403.
func mapAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrAuthenticationFailed), auth.IsTokenError(err):
		writeUnauthorized(w)
	case errors.Is(err, auth.ErrAuthorizationDenied):
		writeForbidden(w)
	default:
		writeInternalError(w, "authentication failed")
	}
}
