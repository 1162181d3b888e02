package room

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the room schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "room-test-*.db")
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
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE
		) STRICT;

		CREATE TABLE rooms (
			id         TEXT PRIMARY KEY,
			location   TEXT NOT NULL,
			manager_id TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (manager_id) REFERENCES users(id) ON DELETE SET NULL
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying room schema: %v", err)
	}

	return db
}

func seedTestUser(t *testing.T, db *sql.DB, username string) string {
	t.Helper()

	id := "usr-" + username
	if _, err := db.Exec("INSERT INTO users (id, username) VALUES (?, ?)", id, username); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return id
}

func TestRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	manager := seedTestUser(t, db, "jack")
	r := &Room{Location: "Kitchen", ManagerID: &manager}
	if err := repo.Create(context.Background(), r); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(r.ID, "room-") {
		t.Errorf("generated ID = %q, want room- prefix", r.ID)
	}

	got, err := repo.Get(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Location != "Kitchen" {
		t.Errorf("Location = %q, want %q", got.Location, "Kitchen")
	}
	if got.ManagerID == nil || *got.ManagerID != manager {
		t.Errorf("ManagerID = %v, want %q", got.ManagerID, manager)
	}
}

func TestRepository_CreateInvalidLocation(t *testing.T) {
	repo := NewRepository(testDB(t))

	if err := repo.Create(context.Background(), &Room{Location: "   "}); !errors.Is(err, ErrInvalidLocation) {
		t.Errorf("Create() error = %v, want ErrInvalidLocation", err)
	}
}

func TestRepository_GetMissing(t *testing.T) {
	repo := NewRepository(testDB(t))

	if _, err := repo.Get(context.Background(), "room-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_List(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	for _, location := range []string{"Kitchen", "Bedroom", "Attic"} {
		if err := repo.Create(context.Background(), &Room{Location: location}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	rooms, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rooms) != 3 {
		t.Fatalf("List() = %d rooms, want 3", len(rooms))
	}
	if rooms[0].Location != "Attic" {
		t.Errorf("rooms should be location-ordered, first = %q", rooms[0].Location)
	}
}

func TestRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	r := &Room{Location: "Kitchen"}
	if err := repo.Create(context.Background(), r); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	manager := seedTestUser(t, db, "emma")
	r.Location = "Main Kitchen"
	r.ManagerID = &manager
	if err := repo.Update(context.Background(), r); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.Get(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Location != "Main Kitchen" || got.ManagerID == nil || *got.ManagerID != manager {
		t.Errorf("Get() after update = %+v", got)
	}

	if err := repo.Update(context.Background(), &Room{ID: "room-missing", Location: "Ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() missing error = %v, want ErrNotFound", err)
	}
}

func TestRepository_Delete(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	r := &Room{Location: "Pantry"}
	if err := repo.Create(context.Background(), r); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(context.Background(), r.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(context.Background(), r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
