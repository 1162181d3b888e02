package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hearthlabs/hearth-core/internal/auth"
)

// Resource authorities gating the protected routes.
const (
	authorityDeviceRead  = auth.Authority("DEVICE:READ")
	authorityDeviceWrite = auth.Authority("DEVICE:WRITE")
	authorityRoomRead    = auth.Authority("ROOM:READ")
	authorityRoomWrite   = auth.Authority("ROOM:WRITE")
	authorityModeRead    = auth.Authority("MODE:READ")
	authorityModeWrite   = auth.Authority("MODE:WRITE")
	authorityUserRead    = auth.Authority("USER:READ")
	authorityUserWrite   = auth.Authority("USER:WRITE")
)

// buildRouter assembles the chi router with the full middleware chain
// and all API routes.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(s.recovery)
	r.Use(s.cors)
	r.Use(s.bodySizeLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.With(s.rateLimitLogin).Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Get("/me", s.handleMe)
				r.Post("/password", s.handleChangePassword)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/devices", func(r chi.Router) {
				r.With(s.requireAuthority(authorityDeviceRead)).Get("/", s.handleListDevices)
				r.With(s.requireAuthority(authorityDeviceRead)).Get("/{id}", s.handleGetDevice)
				r.With(s.requireAuthority(authorityDeviceWrite)).Post("/", s.handleCreateDevice)
				r.With(s.requireAuthority(authorityDeviceWrite)).Put("/{id}", s.handleUpdateDevice)
				r.With(s.requireAuthority(authorityDeviceWrite)).Post("/{id}/activate", s.handleActivateDevice)
				r.With(s.requireAuthority(authorityDeviceWrite)).Post("/{id}/deactivate", s.handleDeactivateDevice)
				r.With(s.requireAuthority(authorityDeviceWrite)).Delete("/{id}", s.handleDeleteDevice)
			})

			r.Route("/rooms", func(r chi.Router) {
				r.With(s.requireAuthority(authorityRoomRead)).Get("/", s.handleListRooms)
				r.With(s.requireAuthority(authorityRoomRead)).Get("/{id}", s.handleGetRoom)
				r.With(s.requireAuthority(authorityRoomRead)).Get("/{id}/devices", s.handleListRoomDevices)
				r.With(s.requireAuthority(authorityRoomWrite)).Post("/", s.handleCreateRoom)
				r.With(s.requireAuthority(authorityRoomWrite)).Put("/{id}", s.handleUpdateRoom)
				r.With(s.requireAuthority(authorityRoomWrite)).Delete("/{id}", s.handleDeleteRoom)
			})

			r.Route("/modes", func(r chi.Router) {
				r.With(s.requireAuthority(authorityModeRead)).Get("/", s.handleListModes)
				r.With(s.requireAuthority(authorityModeRead)).Get("/power", s.handleTotalPower)
				r.With(s.requireAuthority(authorityModeRead)).Get("/{id}", s.handleGetMode)
				r.With(s.requireAuthority(authorityModeWrite)).Post("/", s.handleCreateMode)
				r.With(s.requireAuthority(authorityModeWrite)).Put("/{id}", s.handleUpdateMode)
				r.With(s.requireAuthority(authorityModeWrite)).Delete("/{id}", s.handleDeleteMode)
				r.With(s.requireAuthority(authorityModeWrite)).Post("/activate/{type}", s.handleActivateMode)
				r.With(s.requireAuthority(authorityModeWrite)).Post("/night", s.handleActivateNight)
				r.With(s.requireAuthority(authorityModeWrite)).Post("/all-on", s.handleAllOn)
				r.With(s.requireAuthority(authorityModeWrite)).Post("/all-off", s.handleAllOff)

				r.Route("/rules", func(r chi.Router) {
					r.With(s.requireAuthority(authorityModeRead)).Get("/", s.handleListRules)
					r.With(s.requireAuthority(authorityModeWrite)).Post("/", s.handleCreateRule)
					r.With(s.requireAuthority(authorityModeWrite)).Delete("/{id}", s.handleDeleteRule)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.With(s.requireAuthority(authorityUserRead)).Get("/", s.handleListUsers)
				r.With(s.requireAuthority(authorityUserWrite)).Post("/", s.handleCreateUser)
				r.With(s.requireAuthority(authorityUserWrite)).Delete("/{id}", s.handleDeleteUser)
			})

			r.With(s.requireAuthority(authorityUserRead)).Get("/audit", s.handleListAudit)
		})
	})

	return r
}

// handleHealth reports service liveness and database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if err := s.HealthCheck(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
