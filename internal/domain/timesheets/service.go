package timesheets

import (
	"context"
	"errors"
	"time"

	"wfm/internal/domain/timeclock"
)

var ErrInvalidPeriod = errors.New("period end must be after period start")

type StoreAPI interface {
	Create(ctx context.Context, ts Timesheet) (Timesheet, error)
	Get(ctx context.Context, orgID, id string) (Timesheet, error)
	List(ctx context.Context, orgID, profileID, status string, limit, offset int) ([]Timesheet, int, error)
	UpdateStatus(ctx context.Context, orgID, id, fromStatus, toStatus, note string, resolvedBy *string) (Timesheet, error)
	Delete(ctx context.Context, orgID, id string) error
}

type EntriesAPI interface {
	EntriesForPeriod(ctx context.Context, orgID, profileID string, from, to time.Time) ([]timeclock.TimeEntry, error)
}

type Service struct {
	Store   StoreAPI
	Entries EntriesAPI
	TZ      *time.Location
}

func NewService(store StoreAPI, entries EntriesAPI) *Service {
	return &Service{Store: store, Entries: entries, TZ: time.UTC}
}

// Generate builds and persists a draft timesheet for the period. A second
// timesheet over the same period is a conflict.
func (s *Service) Generate(ctx context.Context, orgID string, input GenerateInput) (Timesheet, error) {
	if !input.PeriodEnd.After(input.PeriodStart) {
		return Timesheet{}, ErrInvalidPeriod
	}
	entries, err := s.Entries.EntriesForPeriod(ctx, orgID, input.ProfileID, input.PeriodStart, input.PeriodEnd)
	if err != nil {
		return Timesheet{}, err
	}
	return s.Store.Create(ctx, BuildTimesheet(orgID, input, entries, s.TZ))
}

// Submit hands a draft to a manager for review. The owner submits their
// own sheet; handlers enforce that.
func (s *Service) Submit(ctx context.Context, orgID, id string) (Timesheet, error) {
	return s.Store.UpdateStatus(ctx, orgID, id, StatusDraft, StatusSubmitted, "", nil)
}

func (s *Service) Approve(ctx context.Context, orgID, id, approverID, note string) (Timesheet, error) {
	return s.Store.UpdateStatus(ctx, orgID, id, StatusSubmitted, StatusApproved, note, &approverID)
}

func (s *Service) Reject(ctx context.Context, orgID, id, approverID, note string) (Timesheet, error) {
	return s.Store.UpdateStatus(ctx, orgID, id, StatusSubmitted, StatusRejected, note, &approverID)
}

// Reopen puts a rejected sheet back into draft so it can be regenerated
// or resubmitted.
func (s *Service) Reopen(ctx context.Context, orgID, id string) (Timesheet, error) {
	return s.Store.UpdateStatus(ctx, orgID, id, StatusRejected, StatusDraft, "", nil)
}
