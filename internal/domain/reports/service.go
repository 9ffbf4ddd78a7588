package reports

import (
	"context"
	"errors"
	"time"

	"wfm/internal/domain/shifts"
	"wfm/internal/domain/timeclock"
)

var ErrInvalidRange = errors.New("range end must be after range start")

type StoreAPI interface {
	EntriesForRange(ctx context.Context, orgID, locationID string, from, to time.Time) ([]timeclock.TimeEntry, error)
	ProfileNames(ctx context.Context, orgID string) (map[string]string, error)
	PublishedShifts(ctx context.Context, orgID string, from, to time.Time) ([]shifts.Shift, error)
	AttendedShiftIDs(ctx context.Context, orgID string, from, to time.Time) (map[string]bool, error)
}

type Service struct {
	Store StoreAPI
	TZ    *time.Location
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, TZ: time.UTC}
}

func (s *Service) Attendance(ctx context.Context, orgID, locationID string, from, to time.Time) ([]AttendanceRow, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}
	entries, err := s.Store.EntriesForRange(ctx, orgID, locationID, from, to)
	if err != nil {
		return nil, err
	}
	names, err := s.Store.ProfileNames(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return BuildAttendance(entries, names), nil
}

func (s *Service) Coverage(ctx context.Context, orgID string, from, to time.Time) ([]CoverageBucket, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}
	scheduled, err := s.Store.PublishedShifts(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}
	attended, err := s.Store.AttendedShiftIDs(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}
	return BuildCoverage(scheduled, attended, s.TZ), nil
}
