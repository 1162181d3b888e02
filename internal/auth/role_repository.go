package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RoleRepository defines the interface for role and permission persistence.
//
// Roles and permissions are ID-keyed tables joined through
// role_permissions; there are no object back-references to keep in sync.
type RoleRepository interface {
	CreateRole(ctx context.Context, role *Role) error
	GetRole(ctx context.Context, id string) (*Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)

	CreatePermission(ctx context.Context, perm *Permission) error
	ListPermissions(ctx context.Context) ([]Permission, error)
	PermissionsForRole(ctx context.Context, roleID string) ([]Permission, error)
	GrantPermission(ctx context.Context, roleID, permissionID string) error
}

// SQLiteRoleRepository implements RoleRepository using SQLite.
type SQLiteRoleRepository struct {
	db *sql.DB
}

// NewRoleRepository creates a new SQLite-backed role repository.
func NewRoleRepository(db *sql.DB) *SQLiteRoleRepository {
	return &SQLiteRoleRepository{db: db}
}

// CreateRole inserts a new role. The ID is generated if empty.
func (r *SQLiteRoleRepository) CreateRole(ctx context.Context, role *Role) error {
	if role.ID == "" {
		role.ID = "rol-" + uuid.NewString()[:8]
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO roles (id, name) VALUES (?, ?)", role.ID, role.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoleNameExists
		}
		return fmt.Errorf("creating role: %w", err)
	}
	return nil
}

// GetRole retrieves a role by its ID.
func (r *SQLiteRoleRepository) GetRole(ctx context.Context, id string) (*Role, error) {
	return r.getRole(ctx, "SELECT id, name FROM roles WHERE id = ?", id)
}

// GetRoleByName retrieves a role by its unique name.
func (r *SQLiteRoleRepository) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	return r.getRole(ctx, "SELECT id, name FROM roles WHERE name = ?", name)
}

// ListRoles returns all roles ordered by name.
func (r *SQLiteRoleRepository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM roles ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}

	if roles == nil {
		roles = []Role{}
	}
	return roles, nil
}

// CreatePermission inserts a new permission. The ID is generated if empty;
// the (resource, operation) pair must be unique.
func (r *SQLiteRoleRepository) CreatePermission(ctx context.Context, perm *Permission) error {
	if perm.ID == "" {
		perm.ID = "prm-" + uuid.NewString()[:8]
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO permissions (id, resource, operation) VALUES (?, ?, ?)",
		perm.ID, perm.Resource, perm.Operation)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPermissionExists
		}
		return fmt.Errorf("creating permission: %w", err)
	}
	return nil
}

// ListPermissions returns all permissions ordered by resource then operation.
func (r *SQLiteRoleRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	return r.queryPermissions(ctx,
		"SELECT id, resource, operation FROM permissions ORDER BY resource, operation")
}

// PermissionsForRole returns the permissions granted to a role.
func (r *SQLiteRoleRepository) PermissionsForRole(ctx context.Context, roleID string) ([]Permission, error) {
	return r.queryPermissions(ctx,
		`SELECT p.id, p.resource, p.operation
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = ?
		 ORDER BY p.resource, p.operation`, roleID)
}

// GrantPermission links a permission to a role. Granting an already-granted
// permission is a no-op.
func (r *SQLiteRoleRepository) GrantPermission(ctx context.Context, roleID, permissionID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO role_permissions (role_id, permission_id) VALUES (?, ?)`,
		roleID, permissionID)
	if err != nil {
		return fmt.Errorf("granting permission: %w", err)
	}
	return nil
}

// getRole executes a single-row role query.
func (r *SQLiteRoleRepository) getRole(ctx context.Context, query string, args ...any) (*Role, error) {
	var role Role
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("getting role: %w", err)
	}
	return &role, nil
}

// queryPermissions executes a multi-row permission query.
func (r *SQLiteRoleRepository) queryPermissions(ctx context.Context, query string, args ...any) ([]Permission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying permissions: %w", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Resource, &p.Operation); err != nil {
			return nil, fmt.Errorf("scanning permission: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permissions: %w", err)
	}

	if perms == nil {
		perms = []Permission{}
	}
	return perms, nil
}
