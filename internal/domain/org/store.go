package org

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetOrganization(ctx context.Context, orgID string) (Organization, error) {
	var out Organization
	var raw []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, settings, created_at
    FROM organizations
    WHERE id = $1
  `, orgID).Scan(&out.ID, &out.Name, &raw, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, err
	}
	out.Settings, err = DecodeSettings(raw)
	return out, err
}

func (s *Store) GetSettings(ctx context.Context, orgID string) (Settings, error) {
	var raw []byte
	err := s.DB.QueryRow(ctx, "SELECT settings FROM organizations WHERE id = $1", orgID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSettings(), ErrNotFound
	}
	if err != nil {
		return DefaultSettings(), err
	}
	return DecodeSettings(raw)
}

// UpdateSettings shallow-merges the patch over the stored blob and persists
// the merged value.
func (s *Store) UpdateSettings(ctx context.Context, orgID string, patch json.RawMessage) (Settings, error) {
	current, err := s.GetSettings(ctx, orgID)
	if err != nil {
		return current, err
	}
	merged, err := MergeSettings(current, patch)
	if err != nil {
		return current, err
	}
	encoded, err := json.Marshal(merged)
	if err != nil {
		return current, err
	}
	if _, err := s.DB.Exec(ctx, "UPDATE organizations SET settings = $1, updated_at = now() WHERE id = $2", encoded, orgID); err != nil {
		return current, err
	}
	return merged, nil
}

func (s *Store) ListProfiles(ctx context.Context, orgID, status string, limit, offset int) ([]Profile, int, error) {
	query := `
    SELECT p.id, p.organization_id, p.user_id, p.full_name, u.email, p.role, p.status, p.created_at
    FROM profiles p
    JOIN users u ON u.id = p.user_id
    WHERE p.organization_id = $1`
	args := []any{orgID}
	if status != "" {
		query += " AND p.status = $2"
		args = append(args, status)
	}

	var total int
	countQuery := "SELECT COUNT(1) FROM profiles p WHERE p.organization_id = $1"
	countArgs := []any{orgID}
	if status != "" {
		countQuery += " AND p.status = $2"
		countArgs = append(countArgs, status)
	}
	if err := s.DB.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY p.full_name LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.OrgID, &p.UserID, &p.FullName, &p.Email, &p.Role, &p.Status, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (s *Store) GetProfile(ctx context.Context, orgID, profileID string) (Profile, error) {
	var p Profile
	err := s.DB.QueryRow(ctx, `
    SELECT p.id, p.organization_id, p.user_id, p.full_name, u.email, p.role, p.status, p.created_at
    FROM profiles p
    JOIN users u ON u.id = p.user_id
    WHERE p.organization_id = $1 AND p.id = $2
  `, orgID, profileID).Scan(&p.ID, &p.OrgID, &p.UserID, &p.FullName, &p.Email, &p.Role, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (s *Store) UpdateProfile(ctx context.Context, orgID, profileID, fullName, role, status string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE profiles
    SET full_name = $1, role = $2, status = $3, updated_at = now()
    WHERE organization_id = $4 AND id = $5
  `, fullName, role, status, orgID, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ActiveProfileIDs(ctx context.Context, orgID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM profiles WHERE organization_id = $1 AND status = 'active'
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListLocations(ctx context.Context, orgID string) ([]Location, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, organization_id, name, latitude, longitude, radius_meters,
           geofence_enabled, allow_clock_outside, is_active, created_at
    FROM locations
    WHERE organization_id = $1
    ORDER BY name
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.OrgID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.RadiusMeters,
			&loc.GeofenceEnabled, &loc.AllowClockOutside, &loc.IsActive, &loc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (s *Store) GetLocation(ctx context.Context, orgID, locationID string) (Location, error) {
	var loc Location
	err := s.DB.QueryRow(ctx, `
    SELECT id, organization_id, name, latitude, longitude, radius_meters,
           geofence_enabled, allow_clock_outside, is_active, created_at
    FROM locations
    WHERE organization_id = $1 AND id = $2
  `, orgID, locationID).Scan(&loc.ID, &loc.OrgID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.RadiusMeters,
		&loc.GeofenceEnabled, &loc.AllowClockOutside, &loc.IsActive, &loc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return loc, ErrNotFound
	}
	return loc, err
}

func (s *Store) CreateLocation(ctx context.Context, orgID string, loc Location) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO locations (organization_id, name, latitude, longitude, radius_meters,
                           geofence_enabled, allow_clock_outside, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, orgID, loc.Name, loc.Latitude, loc.Longitude, loc.RadiusMeters,
		loc.GeofenceEnabled, loc.AllowClockOutside, loc.IsActive).Scan(&id)
	return id, err
}

func (s *Store) UpdateLocation(ctx context.Context, orgID string, loc Location) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE locations
    SET name = $1, latitude = $2, longitude = $3, radius_meters = $4,
        geofence_enabled = $5, allow_clock_outside = $6, is_active = $7, updated_at = now()
    WHERE organization_id = $8 AND id = $9
  `, loc.Name, loc.Latitude, loc.Longitude, loc.RadiusMeters,
		loc.GeofenceEnabled, loc.AllowClockOutside, loc.IsActive, orgID, loc.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteLocation(ctx context.Context, orgID, locationID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM locations WHERE organization_id = $1 AND id = $2", orgID, locationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

