package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"wfm/internal/domain/shifts"
	"wfm/internal/domain/timeclock"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// EntriesForRange returns every entry in the window in chronological
// order, optionally narrowed to one location.
func (s *Store) EntriesForRange(ctx context.Context, orgID, locationID string, from, to time.Time) ([]timeclock.TimeEntry, error) {
	query := `
    SELECT id, organization_id, profile_id, shift_id, location_id, entry_type,
           timestamp, latitude, longitude, is_inside_geofence, notes
    FROM time_entries
    WHERE organization_id = $1 AND timestamp >= $2 AND timestamp < $3`
	args := []any{orgID, from, to}
	if locationID != "" {
		query += ` AND location_id = $4`
		args = append(args, locationID)
	}
	rows, err := s.DB.Query(ctx, query+` ORDER BY profile_id, timestamp`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timeclock.TimeEntry
	for rows.Next() {
		var entry timeclock.TimeEntry
		if err := rows.Scan(&entry.ID, &entry.OrgID, &entry.ProfileID, &entry.ShiftID, &entry.LocationID,
			&entry.EntryType, &entry.Timestamp, &entry.Latitude, &entry.Longitude, &entry.IsInsideGeofence, &entry.Notes); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// ProfileNames maps profile id to full name for the organization.
func (s *Store) ProfileNames(ctx context.Context, orgID string) (map[string]string, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT id, full_name FROM profiles WHERE organization_id = $1`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// PublishedShifts returns the published shifts starting in the window.
func (s *Store) PublishedShifts(ctx context.Context, orgID string, from, to time.Time) ([]shifts.Shift, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, organization_id, user_id, location_id, position, start_time, end_time, notes, published, created_at
    FROM shifts
    WHERE organization_id = $1 AND published AND start_time >= $2 AND start_time < $3
    ORDER BY start_time
  `, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []shifts.Shift
	for rows.Next() {
		var sh shifts.Shift
		if err := rows.Scan(&sh.ID, &sh.OrgID, &sh.ProfileID, &sh.LocationID, &sh.Position,
			&sh.StartTime, &sh.EndTime, &sh.Notes, &sh.Published, &sh.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

// AttendedShiftIDs returns the shifts that have at least one clock_in.
func (s *Store) AttendedShiftIDs(ctx context.Context, orgID string, from, to time.Time) (map[string]bool, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT shift_id FROM time_entries
    WHERE organization_id = $1 AND entry_type = $2 AND shift_id IS NOT NULL
      AND timestamp >= $3 AND timestamp < $4
  `, orgID, timeclock.EntryClockIn, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attended := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		attended[id] = true
	}
	return attended, rows.Err()
}
