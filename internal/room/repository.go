package room

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for room persistence operations.
type Repository interface {
	Create(ctx context.Context, r *Room) error
	Get(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context) ([]Room, error)
	Update(ctx context.Context, r *Room) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed room repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new room. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, room *Room) error {
	if err := Validate(room); err != nil {
		return err
	}
	if room.ID == "" {
		room.ID = "room-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	room.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	room.UpdatedAt = room.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (id, location, manager_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		room.ID, room.Location, room.ManagerID, now, now,
	)
	if err != nil {
		return fmt.Errorf("inserting room %s: %w", room.ID, err)
	}
	return nil
}

// Get retrieves a room by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Room, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, location, manager_id, created_at, updated_at FROM rooms WHERE id = ?", id)
	return scanRoom(row)
}

// List returns all rooms ordered by location.
func (r *SQLiteRepository) List(ctx context.Context) ([]Room, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, location, manager_id, created_at, updated_at FROM rooms ORDER BY location ASC")
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}

	if rooms == nil {
		rooms = []Room{}
	}
	return rooms, nil
}

// Update rewrites a room's mutable fields.
func (r *SQLiteRepository) Update(ctx context.Context, room *Room) error {
	if err := Validate(room); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"UPDATE rooms SET location = ?, manager_id = ?, updated_at = ? WHERE id = ?",
		room.Location, room.ManagerID, now, room.ID,
	)
	if err != nil {
		return fmt.Errorf("updating room %s: %w", room.ID, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	room.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	return nil
}

// Delete removes a room by ID. Devices in the room are unassigned,
// not deleted (the devices table sets room_id NULL on delete).
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting room %s: %w", id, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is satisfied by both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRoom scans a room from a sql.Row or sql.Rows.
func scanRoom(s scanner) (*Room, error) {
	var room Room
	var managerID sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&room.ID, &room.Location, &managerID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning room: %w", err)
	}

	if managerID.Valid {
		room.ManagerID = &managerID.String
	}
	room.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	room.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &room, nil
}
