package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hearthlabs/hearth-core/internal/audit"
	"github.com/hearthlabs/hearth-core/internal/auth"
	"github.com/hearthlabs/hearth-core/internal/device"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/database"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
	"github.com/hearthlabs/hearth-core/internal/mode"
	"github.com/hearthlabs/hearth-core/internal/room"
)

// gracefulShutdownTimeout is how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// Deps carries everything the server needs. All fields are required
// unless noted.
type Deps struct {
	Config   config.APIConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	DB       *database.DB

	Auth    *auth.Service
	Users   auth.UserRepository
	Roles   auth.RoleRepository
	Devices device.Repository
	Rooms   room.Repository
	Modes   mode.Repository
	ModeSvc *mode.Service

	// Audit receives security events. Optional; nil disables recording.
	Audit audit.Repository

	// Version is reported by the health endpoint.
	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg    config.APIConfig
	secCfg config.SecurityConfig
	logger *logging.Logger
	db     *database.DB

	auth    *auth.Service
	users   auth.UserRepository
	roles   auth.RoleRepository
	devices device.Repository
	rooms   room.Repository
	modes   mode.Repository
	modeSvc *mode.Service
	audit   audit.Repository

	version      string
	loginLimiter *loginLimiter
	httpServer   *http.Server
}

// New creates a server from its dependencies.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("api: logger is required")
	}
	if deps.Auth == nil {
		return nil, errors.New("api: auth service is required")
	}
	if deps.Devices == nil || deps.Rooms == nil || deps.Modes == nil || deps.ModeSvc == nil {
		return nil, errors.New("api: domain repositories are required")
	}
	if deps.Users == nil || deps.Roles == nil {
		return nil, errors.New("api: identity repositories are required")
	}

	s := &Server{
		cfg:     deps.Config,
		secCfg:  deps.Security,
		logger:  deps.Logger.With("component", "api"),
		db:      deps.DB,
		auth:    deps.Auth,
		users:   deps.Users,
		roles:   deps.Roles,
		devices: deps.Devices,
		rooms:   deps.Rooms,
		modes:   deps.Modes,
		modeSvc: deps.ModeSvc,
		audit:   deps.Audit,
		version: deps.Version,
	}

	if deps.Security.RateLimit.Enabled {
		s.loginLimiter = newLoginLimiter(
			deps.Security.RateLimit.RequestsPerMinute,
			deps.Security.RateLimit.Burst,
		)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", deps.Config.Host, deps.Config.Port),
		Handler:      s.buildRouter(),
		ReadTimeout:  time.Duration(deps.Config.Timeouts.Read) * time.Second,
		WriteTimeout: time.Duration(deps.Config.Timeouts.Write) * time.Second,
		IdleTimeout:  time.Duration(deps.Config.Timeouts.Idle) * time.Second,
	}

	return s, nil
}

// Start runs the server until it fails or Close is called. It blocks.
// The context cancels the limiter sweep loop, not the listener.
func (s *Server) Start(ctx context.Context) error {
	if s.loginLimiter != nil {
		go s.sweepLimiterLoop(ctx)
	}

	s.logger.Info("api server starting",
		"addr", s.httpServer.Addr,
		"tls", s.cfg.TLS.Enabled,
	)

	var err error
	if s.cfg.TLS.Enabled {
		err = s.httpServer.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	} else {
		err = s.httpServer.ListenAndServe()
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Close shuts the server down gracefully.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// sweepLimiterLoop periodically drops idle rate-limiter entries.
func (s *Server) sweepLimiterLoop(ctx context.Context) {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.loginLimiter.sweep()
		}
	}
}

// HealthCheck reports whether the server's dependencies are reachable.
func (s *Server) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.HealthCheck(ctx)
}
