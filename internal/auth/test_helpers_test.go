package auth

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// testDB creates a temporary SQLite database with the identity schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE roles (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE permissions (
			id         TEXT PRIMARY KEY,
			resource   TEXT NOT NULL,
			operation  TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			UNIQUE (resource, operation)
		) STRICT;

		CREATE TABLE role_permissions (
			role_id       TEXT NOT NULL,
			permission_id TEXT NOT NULL,
			PRIMARY KEY (role_id, permission_id),
			FOREIGN KEY (role_id) REFERENCES roles(id) ON DELETE CASCADE,
			FOREIGN KEY (permission_id) REFERENCES permissions(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role_id       TEXT NOT NULL,
			created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (role_id) REFERENCES roles(id)
		) STRICT;

		CREATE UNIQUE INDEX idx_users_username ON users(username);

		CREATE TABLE sessions (
			id         TEXT PRIMARY KEY,
			type       TEXT NOT NULL DEFAULT 'refresh',
			value      TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			disabled   INTEGER NOT NULL DEFAULT 0,
			user_id    TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) STRICT;

		CREATE UNIQUE INDEX idx_sessions_value ON sessions(value);
		CREATE INDEX idx_sessions_user ON sessions(user_id);
		CREATE INDEX idx_sessions_expires ON sessions(expires_at);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying identity schema: %v", err)
	}

	return db
}

// testLogger returns a quiet logger for tests.
func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

// seedTestRole inserts a role and returns it.
func seedTestRole(t *testing.T, db *sql.DB, name string) *Role {
	t.Helper()

	repo := NewRoleRepository(db)
	role := &Role{Name: name}
	if err := repo.CreateRole(context.Background(), role); err != nil {
		t.Fatalf("creating test role %s: %v", name, err)
	}
	return role
}

// seedTestUser inserts a test user with password "test-password" and returns it.
func seedTestUser(t *testing.T, db *sql.DB, username, roleID string) *User {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	repo := NewUserRepository(db)
	user := &User{
		Username:     username,
		PasswordHash: hash,
		RoleID:       roleID,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user %s: %v", username, err)
	}
	return user
}

// grantTestPermission creates a permission and grants it to a role.
func grantTestPermission(t *testing.T, db *sql.DB, roleID, resource, operation string) *Permission {
	t.Helper()

	repo := NewRoleRepository(db)
	perm := &Permission{Resource: resource, Operation: operation}
	if err := repo.CreatePermission(context.Background(), perm); err != nil {
		t.Fatalf("creating permission %s:%s: %v", resource, operation, err)
	}
	if err := repo.GrantPermission(context.Background(), roleID, perm.ID); err != nil {
		t.Fatalf("granting permission: %v", err)
	}
	return perm
}

// newTestService wires a full service against the given database.
func newTestService(t *testing.T, db *sql.DB) *Service {
	t.Helper()

	codec, err := NewCodec(testSecret, "test-key")
	if err != nil {
		t.Fatalf("creating codec: %v", err)
	}
	svc, err := NewService(ServiceDeps{
		Users:      NewUserRepository(db),
		Roles:      NewRoleRepository(db),
		Sessions:   NewSessionRepository(db),
		Codec:      codec,
		Logger:     testLogger(),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}
	return svc
}
