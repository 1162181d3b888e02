package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
)

// Built-in role names. Admin carries every permission; User carries the
// read and device-write subset a household member needs day to day.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// seedPasswordBytes is the number of random bytes for the seed admin password.
const seedPasswordBytes = 16

// seedPermissions enumerates the permission catalog created on first boot.
var seedPermissions = []Permission{
	{Resource: "device", Operation: "read"},
	{Resource: "device", Operation: "write"},
	{Resource: "room", Operation: "read"},
	{Resource: "room", Operation: "write"},
	{Resource: "mode", Operation: "read"},
	{Resource: "mode", Operation: "write"},
	{Resource: "user", Operation: "read"},
	{Resource: "user", Operation: "write"},
}

// userRoleGrants lists which of the seed permissions the user role gets.
var userRoleGrants = map[string]bool{
	"device:read":  true,
	"device:write": true,
	"room:read":    true,
	"mode:read":    true,
}

// SeedRoles ensures the built-in roles and the permission catalog exist,
// granting the full catalog to admin and the household subset to user.
// It is idempotent and safe to run on every boot.
func SeedRoles(ctx context.Context, roleRepo RoleRepository, logger *logging.Logger) error {
	admin, err := ensureRole(ctx, roleRepo, RoleAdmin)
	if err != nil {
		return err
	}
	member, err := ensureRole(ctx, roleRepo, RoleUser)
	if err != nil {
		return err
	}

	for _, seed := range seedPermissions {
		perm, err := ensurePermission(ctx, roleRepo, seed.Resource, seed.Operation)
		if err != nil {
			return err
		}
		if err := roleRepo.GrantPermission(ctx, admin.ID, perm.ID); err != nil {
			return fmt.Errorf("granting %s:%s to admin: %w", seed.Resource, seed.Operation, err)
		}
		if userRoleGrants[seed.Resource+":"+seed.Operation] {
			if err := roleRepo.GrantPermission(ctx, member.ID, perm.ID); err != nil {
				return fmt.Errorf("granting %s:%s to user: %w", seed.Resource, seed.Operation, err)
			}
		}
	}

	logger.Debug("role catalog seeded", "roles", 2, "permissions", len(seedPermissions))
	return nil
}

// SeedAdmin creates the initial admin account on first boot if no users exist.
// The generated password is logged once and must be changed immediately.
// Returns the generated password (empty string if seeding was skipped).
func SeedAdmin(ctx context.Context, userRepo UserRepository, roleRepo RoleRepository, logger *logging.Logger) (string, error) {
	count, err := userRepo.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}
	if count > 0 {
		logger.Info("users exist, skipping admin seed")
		return "", nil
	}

	adminRole, err := roleRepo.GetRoleByName(ctx, RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("looking up admin role: %w", err)
	}

	passwordBytes := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(passwordBytes); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(passwordBytes)

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	admin := &User{
		Username:     "admin",
		PasswordHash: hash,
		RoleID:       adminRole.ID,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}

	logger.Warn("seed admin account created",
		"username", "admin",
		"password", password,
		"action_required", "change this password immediately",
	)
	return password, nil
}

func ensureRole(ctx context.Context, repo RoleRepository, name string) (*Role, error) {
	role, err := repo.GetRoleByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, ErrRoleNotFound) {
		return nil, fmt.Errorf("looking up role %s: %w", name, err)
	}
	role = &Role{Name: name}
	if err := repo.CreateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("creating role %s: %w", name, err)
	}
	return role, nil
}

func ensurePermission(ctx context.Context, repo RoleRepository, resource, operation string) (*Permission, error) {
	perm := &Permission{Resource: resource, Operation: operation}
	err := repo.CreatePermission(ctx, perm)
	if err == nil {
		return perm, nil
	}
	if !errors.Is(err, ErrPermissionExists) {
		return nil, fmt.Errorf("creating permission %s:%s: %w", resource, operation, err)
	}

	// Already present from a previous boot; find its ID.
	perms, err := repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	for i := range perms {
		if perms[i].Resource == resource && perms[i].Operation == operation {
			return &perms[i], nil
		}
	}
	return nil, fmt.Errorf("permission %s:%s vanished after create conflict", resource, operation)
}
