package database

import (
	"context"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{"up migration", "20260801_120000_initial_schema.up.sql", "20260801_120000", true, true},
		{"down migration", "20260801_120000_initial_schema.down.sql", "20260801_120000", false, true},
		{"not sql", "README.md", "", false, false},
		{"no direction suffix", "20260801_120000_initial_schema.sql", "", false, false},
		{"missing version parts", "badname.up.sql", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if isUp != tt.wantUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantUp)
			}
		})
	}
}

func TestMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20260801_120000_initial_schema.up.sql", "initial_schema"},
		{"20260801_120000_add_sessions.down.sql", "add_sessions"},
		{"odd.up.sql", "odd"},
	}

	for _, tt := range tests {
		if got := migrationName(tt.filename); got != tt.want {
			t.Errorf("migrationName(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestCreateMigrationsTable(t *testing.T) {
	db, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.createMigrationsTable(ctx); err != nil {
		t.Fatalf("createMigrationsTable() error = %v", err)
	}

	// Idempotent.
	if err := db.createMigrationsTable(ctx); err != nil {
		t.Fatalf("createMigrationsTable() second call error = %v", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("getAppliedMigrations() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected no applied migrations, got %d", len(applied))
	}
}
