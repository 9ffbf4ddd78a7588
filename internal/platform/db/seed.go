package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"wfm/internal/domain/auth"
	"wfm/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	orgID, err := ensureOrganization(ctx, pool, cfg.SeedOrgName)
	if err != nil {
		return err
	}

	if err := ensurePermissions(ctx, pool); err != nil {
		return err
	}

	roleIDs, err := ensureRoles(ctx, pool, orgID)
	if err != nil {
		return err
	}

	if err := ensureRolePermissions(ctx, pool, roleIDs); err != nil {
		return err
	}

	if cfg.SeedOwnerEmail != "" {
		if err := ensureOwnerUser(ctx, pool, orgID, cfg.SeedOwnerEmail, cfg.SeedOwnerPassword); err != nil {
			return err
		}
	}

	return nil
}

func ensureOrganization(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM organizations WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = pool.QueryRow(ctx, "INSERT INTO organizations (name, settings) VALUES ($1, '{}'::jsonb) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensurePermissions(ctx context.Context, pool *pgxpool.Pool) error {
	for _, perm := range auth.DefaultPermissions {
		_, err := pool.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool, orgID string) (map[string]string, error) {
	roleIDs := map[string]string{}
	for roleName := range auth.RolePermissions {
		var id string
		err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE organization_id = $1 AND name = $2", orgID, roleName).Scan(&id)
		if err == nil {
			roleIDs[roleName] = id
			continue
		}

		err = pool.QueryRow(ctx, "INSERT INTO roles (organization_id, name) VALUES ($1, $2) RETURNING id", orgID, roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, pool *pgxpool.Pool, roleIDs map[string]string) error {
	for roleName, perms := range auth.RolePermissions {
		roleID, ok := roleIDs[roleName]
		if !ok {
			continue
		}
		for _, perm := range perms {
			_, err := pool.Exec(ctx, `
        INSERT INTO role_permissions (role_id, permission_id)
        SELECT $1, id FROM permissions WHERE key = $2
        ON CONFLICT DO NOTHING
      `, roleID, perm)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureOwnerUser(ctx context.Context, pool *pgxpool.Pool, orgID, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	var userID string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID)
	if err != nil {
		hash, hashErr := auth.HashPassword(password)
		if hashErr != nil {
			return hashErr
		}
		if err := pool.QueryRow(ctx, `
      INSERT INTO users (email, password_hash)
      VALUES ($1, $2)
      RETURNING id
    `, email, hash).Scan(&userID); err != nil {
			return err
		}
	}

	var profileID string
	err = pool.QueryRow(ctx, "SELECT id FROM profiles WHERE organization_id = $1 AND user_id = $2", orgID, userID).Scan(&profileID)
	if err == nil {
		return nil
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO profiles (organization_id, user_id, full_name, role, status)
    VALUES ($1, $2, 'Owner', $3, 'active')
  `, orgID, userID, auth.RoleOwner)
	return err
}
