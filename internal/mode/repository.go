package mode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hearthlabs/hearth-core/internal/device"
)

// Repository defines the interface for mode and rule persistence.
type Repository interface {
	CreateMode(ctx context.Context, m *Mode) error
	GetMode(ctx context.Context, id string) (*Mode, error)
	GetModeByType(ctx context.Context, t ModeType) (*Mode, error)
	ListModes(ctx context.Context) ([]Mode, error)
	UpdateMode(ctx context.Context, m *Mode) error
	DeleteMode(ctx context.Context, id string) error

	CreateRule(ctx context.Context, r *Rule) error
	GetRule(ctx context.Context, id string) (*Rule, error)
	ListRules(ctx context.Context) ([]Rule, error)
	RulesForMode(ctx context.Context, t ModeType) ([]Rule, error)
	DeleteRule(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed mode repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateMode inserts a new mode. The ID is generated if empty; the type
// must be unique.
func (r *SQLiteRepository) CreateMode(ctx context.Context, m *Mode) error {
	if !m.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidModeType, m.Type)
	}
	if m.MusicType != "" && !m.MusicType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMusicType, m.MusicType)
	}
	if m.ID == "" {
		m.ID = "mod-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	m.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO modes (id, type, music_type, target_temp, target_humidity, target_co2, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, string(m.Type), nullString(string(m.MusicType)),
		m.TargetTemp, m.TargetHumidity, m.TargetCO2, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrModeTypeExists
		}
		return fmt.Errorf("inserting mode %s: %w", m.ID, err)
	}
	return nil
}

// GetMode retrieves a mode by ID.
func (r *SQLiteRepository) GetMode(ctx context.Context, id string) (*Mode, error) {
	return r.getMode(ctx,
		"SELECT id, type, music_type, target_temp, target_humidity, target_co2, created_at FROM modes WHERE id = ?", id)
}

// GetModeByType retrieves a mode by its unique type.
func (r *SQLiteRepository) GetModeByType(ctx context.Context, t ModeType) (*Mode, error) {
	return r.getMode(ctx,
		"SELECT id, type, music_type, target_temp, target_humidity, target_co2, created_at FROM modes WHERE type = ?", string(t))
}

// ListModes returns all modes ordered by type.
func (r *SQLiteRepository) ListModes(ctx context.Context) ([]Mode, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, type, music_type, target_temp, target_humidity, target_co2, created_at FROM modes ORDER BY type ASC")
	if err != nil {
		return nil, fmt.Errorf("listing modes: %w", err)
	}
	defer rows.Close()

	var modes []Mode
	for rows.Next() {
		m, err := scanMode(rows)
		if err != nil {
			return nil, err
		}
		modes = append(modes, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating modes: %w", err)
	}

	if modes == nil {
		modes = []Mode{}
	}
	return modes, nil
}

// UpdateMode rewrites a mode's targets and music selection. The type is
// immutable once created.
func (r *SQLiteRepository) UpdateMode(ctx context.Context, m *Mode) error {
	if m.MusicType != "" && !m.MusicType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMusicType, m.MusicType)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE modes SET music_type = ?, target_temp = ?, target_humidity = ?, target_co2 = ?
		 WHERE id = ?`,
		nullString(string(m.MusicType)), m.TargetTemp, m.TargetHumidity, m.TargetCO2, m.ID,
	)
	if err != nil {
		return fmt.Errorf("updating mode %s: %w", m.ID, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMode removes a mode by ID. Its rules are removed with it.
func (r *SQLiteRepository) DeleteMode(ctx context.Context, id string) error {
	mode, err := r.GetMode(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM mode_rules WHERE mode_type = ?", string(mode.Type)); err != nil {
		return fmt.Errorf("deleting rules for mode %s: %w", id, err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM modes WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting mode %s: %w", id, err)
	}
	return nil
}

// CreateRule inserts a new mode rule. The ID is generated if empty.
func (r *SQLiteRepository) CreateRule(ctx context.Context, rule *Rule) error {
	if !rule.ModeType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidModeType, rule.ModeType)
	}
	if !rule.DeviceType.Valid() {
		return fmt.Errorf("%w: %q", device.ErrInvalidType, rule.DeviceType)
	}
	if rule.ID == "" {
		rule.ID = "rul-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rule.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mode_rules (id, mode_type, device_type, title_pattern, min_power, max_power, should_be_active, priority, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, string(rule.ModeType), string(rule.DeviceType),
		nullString(rule.TitlePattern), rule.MinPower, rule.MaxPower,
		boolToInt(rule.ShouldBeActive), rule.Priority, now,
	)
	if err != nil {
		return fmt.Errorf("inserting mode rule %s: %w", rule.ID, err)
	}
	return nil
}

// GetRule retrieves a mode rule by ID.
func (r *SQLiteRepository) GetRule(ctx context.Context, id string) (*Rule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, mode_type, device_type, title_pattern, min_power, max_power, should_be_active, priority, created_at
		 FROM mode_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return rule, nil
}

// ListRules returns every rule ordered by mode type then priority.
func (r *SQLiteRepository) ListRules(ctx context.Context) ([]Rule, error) {
	return r.queryRules(ctx,
		`SELECT id, mode_type, device_type, title_pattern, min_power, max_power, should_be_active, priority, created_at
		 FROM mode_rules ORDER BY mode_type ASC, priority DESC`)
}

// RulesForMode returns a mode's rules ordered by priority, highest first.
// The evaluation order is the match order, so ordering here is load-bearing.
func (r *SQLiteRepository) RulesForMode(ctx context.Context, t ModeType) ([]Rule, error) {
	return r.queryRules(ctx,
		`SELECT id, mode_type, device_type, title_pattern, min_power, max_power, should_be_active, priority, created_at
		 FROM mode_rules WHERE mode_type = ? ORDER BY priority DESC`, string(t))
}

// DeleteRule removes a mode rule by ID.
func (r *SQLiteRepository) DeleteRule(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM mode_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting mode rule %s: %w", id, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// getMode executes a single-row mode query.
func (r *SQLiteRepository) getMode(ctx context.Context, query string, args ...any) (*Mode, error) {
	m, err := scanMode(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// queryRules executes a multi-row rule query.
func (r *SQLiteRepository) queryRules(ctx context.Context, query string, args ...any) ([]Rule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying mode rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mode rules: %w", err)
	}

	if rules == nil {
		rules = []Rule{}
	}
	return rules, nil
}

// scanner is satisfied by both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMode(s scanner) (*Mode, error) {
	var m Mode
	var typ string
	var musicType sql.NullString
	var createdAt string

	err := s.Scan(&m.ID, &typ, &musicType, &m.TargetTemp, &m.TargetHumidity, &m.TargetCO2, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning mode: %w", err)
	}

	m.Type = ModeType(typ)
	if musicType.Valid {
		m.MusicType = MusicType(musicType.String)
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &m, nil
}

func scanRule(s scanner) (*Rule, error) {
	var rule Rule
	var modeType, deviceType string
	var titlePattern sql.NullString
	var shouldBeActive int
	var createdAt string

	err := s.Scan(&rule.ID, &modeType, &deviceType, &titlePattern,
		&rule.MinPower, &rule.MaxPower, &shouldBeActive, &rule.Priority, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning mode rule: %w", err)
	}

	rule.ModeType = ModeType(modeType)
	rule.DeviceType = device.Type(deviceType)
	if titlePattern.Valid {
		rule.TitlePattern = titlePattern.String
	}
	rule.ShouldBeActive = shouldBeActive != 0
	rule.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &rule, nil
}

// nullString maps "" to NULL for optional text columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
