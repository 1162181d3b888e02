// Package database provides the SQLite persistence layer for Hearth Core.
//
// It wraps database/sql with connection configuration (WAL mode, busy
// timeout, single-writer pool sizing appropriate for SQLite) and an
// embedded-migration runner. Migrations live in the migrations/ package
// and are compiled into the binary.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil { ... }
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil { ... }
package database
