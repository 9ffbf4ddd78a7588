package timeclock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShiftInfo struct {
	ID         string
	StartTime  time.Time
	EndTime    time.Time
	LocationID *string
}

type StoreAPI interface {
	ShiftForProfile(ctx context.Context, orgID, shiftID, profileID string) (ShiftInfo, error)
	ShiftHasClockIn(ctx context.Context, shiftID string) (bool, error)
	LastEntryInRange(ctx context.Context, orgID, profileID string, from, to time.Time) (TimeEntry, bool, error)
	InsertEntry(ctx context.Context, entry TimeEntry) (TimeEntry, error)
	ListEntries(ctx context.Context, orgID, profileID string, from, to time.Time, limit, offset int) ([]TimeEntry, int, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ShiftForProfile(ctx context.Context, orgID, shiftID, profileID string) (ShiftInfo, error) {
	var info ShiftInfo
	err := s.DB.QueryRow(ctx, `
    SELECT id, start_time, end_time, location_id
    FROM shifts
    WHERE organization_id = $1 AND id = $2 AND user_id = $3
  `, orgID, shiftID, profileID).Scan(&info.ID, &info.StartTime, &info.EndTime, &info.LocationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return info, ErrNotFound
	}
	return info, err
}

func (s *Store) ShiftHasClockIn(ctx context.Context, shiftID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM time_entries WHERE shift_id = $1 AND entry_type = $2
  `, shiftID, EntryClockIn).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) LastEntryInRange(ctx context.Context, orgID, profileID string, from, to time.Time) (TimeEntry, bool, error) {
	var entry TimeEntry
	err := s.DB.QueryRow(ctx, `
    SELECT id, organization_id, profile_id, shift_id, location_id, entry_type,
           timestamp, latitude, longitude, is_inside_geofence, notes
    FROM time_entries
    WHERE organization_id = $1 AND profile_id = $2 AND timestamp >= $3 AND timestamp < $4
    ORDER BY timestamp DESC
    LIMIT 1
  `, orgID, profileID, from, to).Scan(&entry.ID, &entry.OrgID, &entry.ProfileID, &entry.ShiftID, &entry.LocationID,
		&entry.EntryType, &entry.Timestamp, &entry.Latitude, &entry.Longitude, &entry.IsInsideGeofence, &entry.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, err
	}
	return entry, true, nil
}

func (s *Store) InsertEntry(ctx context.Context, entry TimeEntry) (TimeEntry, error) {
	var shiftID any
	if entry.ShiftID != nil && *entry.ShiftID != "" {
		shiftID = *entry.ShiftID
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO time_entries (organization_id, profile_id, shift_id, location_id, entry_type,
                              timestamp, latitude, longitude, is_inside_geofence, notes)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, entry.OrgID, entry.ProfileID, shiftID, entry.LocationID, entry.EntryType,
		entry.Timestamp, entry.Latitude, entry.Longitude, entry.IsInsideGeofence, entry.Notes).Scan(&entry.ID)
	return entry, err
}

// EntriesForPeriod returns a profile's entries in chronological order,
// the shape session pairing expects.
func (s *Store) EntriesForPeriod(ctx context.Context, orgID, profileID string, from, to time.Time) ([]TimeEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, organization_id, profile_id, shift_id, location_id, entry_type,
           timestamp, latitude, longitude, is_inside_geofence, notes
    FROM time_entries
    WHERE organization_id = $1 AND profile_id = $2 AND timestamp >= $3 AND timestamp < $4
    ORDER BY timestamp
  `, orgID, profileID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimeEntry
	for rows.Next() {
		var entry TimeEntry
		if err := rows.Scan(&entry.ID, &entry.OrgID, &entry.ProfileID, &entry.ShiftID, &entry.LocationID,
			&entry.EntryType, &entry.Timestamp, &entry.Latitude, &entry.Longitude, &entry.IsInsideGeofence, &entry.Notes); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) ListEntries(ctx context.Context, orgID, profileID string, from, to time.Time, limit, offset int) ([]TimeEntry, int, error) {
	query := `
    SELECT id, organization_id, profile_id, shift_id, location_id, entry_type,
           timestamp, latitude, longitude, is_inside_geofence, notes
    FROM time_entries
    WHERE organization_id = $1 AND timestamp >= $2 AND timestamp < $3`
	countQuery := "SELECT COUNT(1) FROM time_entries WHERE organization_id = $1 AND timestamp >= $2 AND timestamp < $3"
	args := []any{orgID, from, to}
	if profileID != "" {
		query += fmt.Sprintf(" AND profile_id = $%d", len(args)+1)
		countQuery += fmt.Sprintf(" AND profile_id = $%d", len(args)+1)
		args = append(args, profileID)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []TimeEntry
	for rows.Next() {
		var entry TimeEntry
		if err := rows.Scan(&entry.ID, &entry.OrgID, &entry.ProfileID, &entry.ShiftID, &entry.LocationID,
			&entry.EntryType, &entry.Timestamp, &entry.Latitude, &entry.Longitude, &entry.IsInsideGeofence, &entry.Notes); err != nil {
			return nil, 0, err
		}
		out = append(out, entry)
	}
	return out, total, rows.Err()
}
