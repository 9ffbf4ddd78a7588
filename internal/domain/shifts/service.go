package shifts

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidRange   = errors.New("end time must be after start time")
	ErrEmptySelection = errors.New("no shift ids given")
	ErrNoTargetDates  = errors.New("no target dates given")
)

type StoreAPI interface {
	Create(ctx context.Context, orgID string, input CreateShiftInput) (Shift, error)
	Get(ctx context.Context, orgID, id string) (Shift, error)
	Update(ctx context.Context, orgID, id string, input CreateShiftInput) (Shift, error)
	Delete(ctx context.Context, orgID, id string) error
	List(ctx context.Context, orgID string, filter ListFilter) ([]Shift, int, error)
	GetByIDs(ctx context.Context, orgID string, ids []string) ([]Shift, error)
	BulkPublish(ctx context.Context, orgID string, ids []string, published bool) (int, error)
	BulkDelete(ctx context.Context, orgID string, ids []string) (int, error)
	BulkInsert(ctx context.Context, orgID string, batch []Shift) ([]Shift, error)
}

type Service struct {
	Store StoreAPI
	TZ    *time.Location
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, TZ: time.UTC}
}

func (s *Service) Create(ctx context.Context, orgID string, input CreateShiftInput) (Shift, error) {
	if !input.EndTime.After(input.StartTime) {
		return Shift{}, ErrInvalidRange
	}
	return s.Store.Create(ctx, orgID, input)
}

func (s *Service) Update(ctx context.Context, orgID, id string, input CreateShiftInput) (Shift, error) {
	if !input.EndTime.After(input.StartTime) {
		return Shift{}, ErrInvalidRange
	}
	return s.Store.Update(ctx, orgID, id, input)
}

// Publish flips the published flag on a selection of shifts. Every id
// must exist in the organization or the whole call fails.
func (s *Service) Publish(ctx context.Context, orgID string, ids []string, published bool) (int, error) {
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}
	if _, err := s.Store.GetByIDs(ctx, orgID, ids); err != nil {
		return 0, err
	}
	return s.Store.BulkPublish(ctx, orgID, ids, published)
}

func (s *Service) DeleteMany(ctx context.Context, orgID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}
	if _, err := s.Store.GetByIDs(ctx, orgID, ids); err != nil {
		return 0, err
	}
	return s.Store.BulkDelete(ctx, orgID, ids)
}

// Copy duplicates a selection of shifts onto each target date. The copies
// keep their wall-clock times and land unpublished.
func (s *Service) Copy(ctx context.Context, orgID string, ids []string, targetDates []time.Time) ([]Shift, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	if len(targetDates) == 0 {
		return nil, ErrNoTargetDates
	}
	source, err := s.Store.GetByIDs(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	return s.Store.BulkInsert(ctx, orgID, ProjectShifts(source, targetDates, s.TZ))
}
