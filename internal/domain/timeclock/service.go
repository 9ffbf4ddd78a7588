package timeclock

import (
	"context"
	"errors"
	"time"

	"wfm/internal/domain/org"
)

var ErrShiftRequired = errors.New("a shift is required to clock in")

type OrgAPI interface {
	GetSettings(ctx context.Context, orgID string) (org.Settings, error)
	GetLocation(ctx context.Context, orgID, locationID string) (org.Location, error)
}

type Service struct {
	Store StoreAPI
	Orgs  OrgAPI
	TZ    *time.Location
}

func NewService(store StoreAPI, orgs OrgAPI) *Service {
	return &Service{Store: store, Orgs: orgs, TZ: time.UTC}
}

func (s *Service) dayRange(now time.Time) (time.Time, time.Time) {
	y, m, d := now.In(s.TZ).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.TZ)
	return start, start.Add(24 * time.Hour)
}

// ClockIn validates the shift window, geofence and current clock state
// before recording a clock_in entry.
func (s *Service) ClockIn(ctx context.Context, orgID, profileID string, input ClockInInput, now time.Time) (TimeEntry, error) {
	settings, err := s.Orgs.GetSettings(ctx, orgID)
	if err != nil {
		return TimeEntry{}, err
	}

	locationID := input.LocationID
	var shiftID *string

	if settings.TimeClock.RequireShiftForClockIn && input.ShiftID == "" {
		return TimeEntry{}, ErrShiftRequired
	}
	if input.ShiftID != "" {
		shift, err := s.Store.ShiftForProfile(ctx, orgID, input.ShiftID, profileID)
		if err != nil {
			return TimeEntry{}, err
		}
		if !SameDay(now, shift.StartTime, s.TZ) {
			return TimeEntry{}, ErrShiftNotToday
		}
		if settings.TimeClock.RequireShiftForClockIn {
			if err := CheckClockWindow(now, shift.StartTime, settings.TimeClock); err != nil {
				return TimeEntry{}, err
			}
		}
		clocked, err := s.Store.ShiftHasClockIn(ctx, shift.ID)
		if err != nil {
			return TimeEntry{}, err
		}
		if clocked {
			return TimeEntry{}, ErrShiftAlreadyClocked
		}
		if locationID == "" && shift.LocationID != nil {
			locationID = *shift.LocationID
		}
		shiftID = &shift.ID
	}

	if locationID == "" {
		return TimeEntry{}, ErrLocationRequired
	}
	loc, err := s.Orgs.GetLocation(ctx, orgID, locationID)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			return TimeEntry{}, ErrNotFound
		}
		return TimeEntry{}, err
	}
	if !loc.IsActive {
		return TimeEntry{}, ErrLocationInactive
	}

	inside, err := EvaluateGeofence(loc, input.Coordinates)
	if err != nil {
		return TimeEntry{}, err
	}

	from, to := s.dayRange(now)
	last, found, err := s.Store.LastEntryInRange(ctx, orgID, profileID, from, to)
	if err != nil {
		return TimeEntry{}, err
	}
	if found && StatusFromLastEntry(last.EntryType) != StatusClockedOut {
		return TimeEntry{}, ErrAlreadyClockedIn
	}

	entry := TimeEntry{
		OrgID:            orgID,
		ProfileID:        profileID,
		ShiftID:          shiftID,
		LocationID:       locationID,
		EntryType:        EntryClockIn,
		Timestamp:        now,
		IsInsideGeofence: inside,
		Notes:            input.Notes,
	}
	if input.Coordinates != nil {
		entry.Latitude = &input.Coordinates.Lat
		entry.Longitude = &input.Coordinates.Lng
	}
	return s.Store.InsertEntry(ctx, entry)
}

// ClockOut closes the current session. Clocking out while on break is
// allowed and ends the break implicitly.
func (s *Service) ClockOut(ctx context.Context, orgID, profileID, notes string, coords *Coordinates, now time.Time) (TimeEntry, error) {
	last, err := s.requireStatus(ctx, orgID, profileID, now, EntryClockOut)
	if err != nil {
		return TimeEntry{}, err
	}
	return s.appendEntry(ctx, last, EntryClockOut, notes, coords, now)
}

func (s *Service) StartBreak(ctx context.Context, orgID, profileID string, coords *Coordinates, now time.Time) (TimeEntry, error) {
	last, err := s.requireStatus(ctx, orgID, profileID, now, EntryBreakStart)
	if err != nil {
		return TimeEntry{}, err
	}
	return s.appendEntry(ctx, last, EntryBreakStart, "", coords, now)
}

func (s *Service) EndBreak(ctx context.Context, orgID, profileID string, coords *Coordinates, now time.Time) (TimeEntry, error) {
	last, err := s.requireStatus(ctx, orgID, profileID, now, EntryBreakEnd)
	if err != nil {
		return TimeEntry{}, err
	}
	return s.appendEntry(ctx, last, EntryBreakEnd, "", coords, now)
}

// Status reports the caller's current clock state and, when present, the
// entry it was derived from.
func (s *Service) Status(ctx context.Context, orgID, profileID string, now time.Time) (string, *TimeEntry, error) {
	from, to := s.dayRange(now)
	last, found, err := s.Store.LastEntryInRange(ctx, orgID, profileID, from, to)
	if err != nil {
		return "", nil, err
	}
	if !found {
		return StatusClockedOut, nil, nil
	}
	return StatusFromLastEntry(last.EntryType), &last, nil
}

func (s *Service) ListEntries(ctx context.Context, orgID, profileID string, from, to time.Time, limit, offset int) ([]TimeEntry, int, error) {
	return s.Store.ListEntries(ctx, orgID, profileID, from, to, limit, offset)
}

// requireStatus loads the caller's current clock state and checks it can
// accept the given entry type. The error names the failed precondition of
// the attempted operation, not the current state.
func (s *Service) requireStatus(ctx context.Context, orgID, profileID string, now time.Time, entryType string) (TimeEntry, error) {
	from, to := s.dayRange(now)
	last, found, err := s.Store.LastEntryInRange(ctx, orgID, profileID, from, to)
	if err != nil {
		return TimeEntry{}, err
	}
	status := StatusClockedOut
	if found {
		status = StatusFromLastEntry(last.EntryType)
	}
	switch entryType {
	case EntryClockOut:
		// Clocking out mid-break closes the break implicitly.
		if status == StatusClockedIn || status == StatusOnBreak {
			return last, nil
		}
		return TimeEntry{}, ErrNotClockedIn
	case EntryBreakStart:
		if status == StatusClockedIn {
			return last, nil
		}
		if status == StatusOnBreak {
			return TimeEntry{}, ErrAlreadyOnBreak
		}
		return TimeEntry{}, ErrNotClockedIn
	case EntryBreakEnd:
		if status == StatusOnBreak {
			return last, nil
		}
		return TimeEntry{}, ErrNotOnBreak
	}
	return TimeEntry{}, ErrNotClockedIn
}

// appendEntry records a follow-up entry at the same location as the entry
// that opened the current state.
func (s *Service) appendEntry(ctx context.Context, last TimeEntry, entryType, notes string, coords *Coordinates, now time.Time) (TimeEntry, error) {
	inside := last.IsInsideGeofence
	if coords != nil {
		loc, err := s.Orgs.GetLocation(ctx, last.OrgID, last.LocationID)
		if err == nil {
			inside, _ = EvaluateGeofence(loc, coords)
		}
	}

	entry := TimeEntry{
		OrgID:            last.OrgID,
		ProfileID:        last.ProfileID,
		ShiftID:          last.ShiftID,
		LocationID:       last.LocationID,
		EntryType:        entryType,
		Timestamp:        now,
		IsInsideGeofence: inside,
		Notes:            notes,
	}
	if coords != nil {
		entry.Latitude = &coords.Lat
		entry.Longitude = &coords.Lng
	}
	return s.Store.InsertEntry(ctx, entry)
}
