package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for device persistence operations.
type Repository interface {
	Create(ctx context.Context, d *Device) error
	Get(ctx context.Context, id string) (*Device, error)
	List(ctx context.Context) ([]Device, error)
	ListByType(ctx context.Context, t Type) ([]Device, error)
	ListByRoom(ctx context.Context, roomID string) ([]Device, error)
	Update(ctx context.Context, d *Device) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed device repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = "id, title, type, power, active, room_id, created_at, updated_at"

// Create inserts a new device. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	if err := Validate(d); err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = "dev-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	d.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	d.UpdatedAt = d.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (id, title, type, power, active, room_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, string(d.Type), d.Power, boolToInt(d.Active), d.RoomID, now, now,
	)
	if err != nil {
		return fmt.Errorf("inserting device %s: %w", d.ID, err)
	}
	return nil
}

// Get retrieves a device by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Device, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE id = ?", id)
	return scanDevice(row)
}

// List returns all devices ordered by title.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	return r.queryDevices(ctx,
		"SELECT "+deviceColumns+" FROM devices ORDER BY title ASC")
}

// ListByType returns all devices of the given type.
func (r *SQLiteRepository) ListByType(ctx context.Context, t Type) ([]Device, error) {
	return r.queryDevices(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE type = ? ORDER BY title ASC", string(t))
}

// ListByRoom returns all devices assigned to a room.
func (r *SQLiteRepository) ListByRoom(ctx context.Context, roomID string) ([]Device, error) {
	return r.queryDevices(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE room_id = ? ORDER BY title ASC", roomID)
}

// Update rewrites a device's mutable fields.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	if err := Validate(d); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		`UPDATE devices SET title = ?, type = ?, power = ?, active = ?, room_id = ?, updated_at = ?
		 WHERE id = ?`,
		d.Title, string(d.Type), d.Power, boolToInt(d.Active), d.RoomID, now, d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating device %s: %w", d.ID, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	d.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	return nil
}

// SetActive flips only the active flag, used by automation and the
// activate/deactivate endpoints.
func (r *SQLiteRepository) SetActive(ctx context.Context, id string, active bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"UPDATE devices SET active = ?, updated_at = ? WHERE id = ?",
		boolToInt(active), now, id)
	if err != nil {
		return fmt.Errorf("toggling device %s: %w", id, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a device by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device %s: %w", id, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// queryDevices executes a multi-row device query.
func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	if devices == nil {
		devices = []Device{}
	}
	return devices, nil
}

// scanner is satisfied by both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device from a sql.Row or sql.Rows.
func scanDevice(s scanner) (*Device, error) {
	var d Device
	var typ string
	var active int
	var roomID sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&d.ID, &d.Title, &typ, &d.Power, &active, &roomID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}

	d.Type = Type(typ)
	d.Active = active != 0
	if roomID.Valid {
		d.RoomID = &roomID.String
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
