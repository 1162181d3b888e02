package device

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the device schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "device-test-*.db")
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

		CREATE TABLE devices (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			type       TEXT NOT NULL,
			power      REAL NOT NULL DEFAULT 0,
			active     INTEGER NOT NULL DEFAULT 0,
			room_id    TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE SET NULL
		) STRICT;

		CREATE INDEX idx_devices_room ON devices(room_id);
		CREATE INDEX idx_devices_type ON devices(type);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying device schema: %v", err)
	}

	return db
}

// seedTestRoom inserts a room row and returns its ID.
func seedTestRoom(t *testing.T, db *sql.DB, location string) string {
	t.Helper()

	id := "room-" + location
	if _, err := db.Exec("INSERT INTO rooms (id, location) VALUES (?, ?)", id, location); err != nil {
		t.Fatalf("seeding room: %v", err)
	}
	return id
}

func TestRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	roomID := seedTestRoom(t, db, "kitchen")
	d := &Device{Title: "Ceiling Light", Type: TypeLight, Power: 60, RoomID: &roomID}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(d.ID, "dev-") {
		t.Errorf("generated ID = %q, want dev- prefix", d.ID)
	}

	got, err := repo.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Ceiling Light" || got.Type != TypeLight || got.Power != 60 {
		t.Errorf("Get() = %+v", got)
	}
	if got.RoomID == nil || *got.RoomID != roomID {
		t.Errorf("RoomID = %v, want %q", got.RoomID, roomID)
	}
	if got.Active {
		t.Error("new device should be inactive")
	}
}

func TestRepository_CreateInvalid(t *testing.T) {
	repo := NewRepository(testDB(t))

	tests := []struct {
		name    string
		device  Device
		wantErr error
	}{
		{"empty title", Device{Title: "  ", Type: TypeLight}, ErrInvalidTitle},
		{"unknown type", Device{Title: "Thing", Type: "TOASTER"}, ErrInvalidType},
		{"negative power", Device{Title: "Thing", Type: TypeOther, Power: -1}, ErrInvalidPower},
	}
	for _, tt := range tests {
		if err := repo.Create(context.Background(), &tt.device); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: Create() error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestRepository_GetMissing(t *testing.T) {
	repo := NewRepository(testDB(t))

	if _, err := repo.Get(context.Background(), "dev-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_ListByTypeAndRoom(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	kitchen := seedTestRoom(t, db, "kitchen")
	bedroom := seedTestRoom(t, db, "bedroom")

	fixtures := []Device{
		{Title: "Kitchen Light", Type: TypeLight, RoomID: &kitchen},
		{Title: "Bedroom Light", Type: TypeLight, RoomID: &bedroom},
		{Title: "Kitchen Vent", Type: TypeVentilation, RoomID: &kitchen},
		{Title: "Hall Speaker", Type: TypeSpeaker},
	}
	for i := range fixtures {
		if err := repo.Create(context.Background(), &fixtures[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List() = %d devices, want 4", len(all))
	}

	lights, err := repo.ListByType(context.Background(), TypeLight)
	if err != nil {
		t.Fatalf("ListByType() error = %v", err)
	}
	if len(lights) != 2 {
		t.Errorf("ListByType(LIGHT) = %d, want 2", len(lights))
	}

	inKitchen, err := repo.ListByRoom(context.Background(), kitchen)
	if err != nil {
		t.Fatalf("ListByRoom() error = %v", err)
	}
	if len(inKitchen) != 2 {
		t.Errorf("ListByRoom(kitchen) = %d, want 2", len(inKitchen))
	}
}

func TestRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	d := &Device{Title: "Heater", Type: TypeThermostat, Power: 1500}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	d.Title = "Living Room Heater"
	d.Power = 2000
	d.Active = true
	if err := repo.Update(context.Background(), d); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Living Room Heater" || got.Power != 2000 || !got.Active {
		t.Errorf("Get() after update = %+v", got)
	}

	missing := &Device{ID: "dev-missing", Title: "Ghost", Type: TypeOther}
	if err := repo.Update(context.Background(), missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() missing error = %v, want ErrNotFound", err)
	}
}

func TestRepository_SetActive(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	d := &Device{Title: "Fan", Type: TypeVentilation}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.SetActive(context.Background(), d.ID, true); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	got, err := repo.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Active {
		t.Error("device should be active")
	}

	if err := repo.SetActive(context.Background(), "dev-missing", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetActive() missing error = %v, want ErrNotFound", err)
	}
}

func TestRepository_Delete(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	d := &Device{Title: "Old Lamp", Type: TypeLight}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(context.Background(), d.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(context.Background(), d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(context.Background(), d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"light", TypeLight, false},
		{" Thermostat ", TypeThermostat, false},
		{"SPEAKER", TypeSpeaker, false},
		{"toaster", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseType(%q) should error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseType(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}
