// hearthd is the smart-home backend daemon.
//
// It serves a versioned REST API for authentication, devices, rooms,
// operating modes, and user administration, backed by a single SQLite
// database. State lives in the database; tokens are stateless JWTs with
// a revocable refresh session ledger.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/hearthlabs/hearth-core/migrations"

	"github.com/hearthlabs/hearth-core/internal/api"
	"github.com/hearthlabs/hearth-core/internal/audit"
	"github.com/hearthlabs/hearth-core/internal/auth"
	"github.com/hearthlabs/hearth-core/internal/device"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/database"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
	"github.com/hearthlabs/hearth-core/internal/mode"
	"github.com/hearthlabs/hearth-core/internal/room"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// sessionPruneInterval is how often expired refresh sessions are swept
// from the ledger.
const sessionPruneInterval = time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting hearthd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	userRepo := auth.NewUserRepository(db.DB)
	roleRepo := auth.NewRoleRepository(db.DB)
	sessionRepo := auth.NewSessionRepository(db.DB)

	if seedErr := auth.SeedRoles(ctx, roleRepo, log); seedErr != nil {
		return fmt.Errorf("seeding roles: %w", seedErr)
	}
	if _, seedErr := auth.SeedAdmin(ctx, userRepo, roleRepo, log); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	codec, err := auth.NewCodec(cfg.Security.JWT.Secret, cfg.Security.JWT.KeyID)
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}

	authSvc, err := auth.NewService(auth.ServiceDeps{
		Users:      userRepo,
		Roles:      roleRepo,
		Sessions:   sessionRepo,
		Codec:      codec,
		Logger:     log,
		AccessTTL:  time.Duration(cfg.Security.JWT.AccessTokenTTL) * time.Minute,
		RefreshTTL: time.Duration(cfg.Security.JWT.RefreshTokenTTL) * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("creating auth service: %w", err)
	}

	deviceRepo := device.NewRepository(db.DB)
	roomRepo := room.NewRepository(db.DB)
	modeRepo := mode.NewRepository(db.DB)
	modeSvc := mode.NewService(modeRepo, deviceRepo, log)
	auditRepo := audit.NewRepository(db.DB)

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		DB:       db,
		Auth:     authSvc,
		Users:    userRepo,
		Roles:    roleRepo,
		Devices:  deviceRepo,
		Rooms:    roomRepo,
		Modes:    modeRepo,
		ModeSvc:  modeSvc,
		Audit:    auditRepo,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	go pruneSessionsLoop(ctx, authSvc, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()
	log.Info("initialisation complete")

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing api server", "error", closeErr)
		}
		<-serverErr
	}

	log.Info("hearthd stopped")
	return nil
}

// pruneSessionsLoop sweeps expired refresh sessions on a fixed interval.
func pruneSessionsLoop(ctx context.Context, svc *auth.Service, log *logging.Logger) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := svc.PruneExpiredSessions(ctx)
			if err != nil {
				log.Error("pruning expired sessions", "error", err)
				continue
			}
			if pruned > 0 {
				log.Info("pruned expired sessions", "count", pruned)
			}
		}
	}
}

// getConfigPath returns the configuration file path, honouring the
// HEARTH_CONFIG environment variable.
func getConfigPath() string {
	if path := os.Getenv("HEARTH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
