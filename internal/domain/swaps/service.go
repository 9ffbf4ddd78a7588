package swaps

import (
	"context"
	"errors"

	"wfm/internal/domain/org"
	"wfm/internal/domain/shifts"
)

var ErrSelfSwap = errors.New("cannot swap a shift with yourself")

type StoreAPI interface {
	Create(ctx context.Context, orgID, requesterID string, input CreateSwapInput) (SwapRequest, error)
	Get(ctx context.Context, orgID, id string) (SwapRequest, error)
	List(ctx context.Context, orgID, status, profileID string, limit, offset int) ([]SwapRequest, int, error)
	UpdateStatus(ctx context.Context, orgID, id, fromStatus, toStatus string, resolvedBy *string) (SwapRequest, error)
	Approve(ctx context.Context, orgID, id, fromStatus, resolvedBy string) (SwapRequest, error)
}

type ShiftAPI interface {
	Get(ctx context.Context, orgID, id string) (shifts.Shift, error)
}

type OrgAPI interface {
	GetSettings(ctx context.Context, orgID string) (org.Settings, error)
}

type Service struct {
	Store  StoreAPI
	Shifts ShiftAPI
	Orgs   OrgAPI
}

func NewService(store StoreAPI, shiftStore ShiftAPI, orgs OrgAPI) *Service {
	return &Service{Store: store, Shifts: shiftStore, Orgs: orgs}
}

// Create opens a swap request. The requester must own the offered shift
// and, for a trade, the target must own the requested one.
func (s *Service) Create(ctx context.Context, orgID, requesterID string, input CreateSwapInput) (SwapRequest, error) {
	settings, err := s.Orgs.GetSettings(ctx, orgID)
	if err != nil {
		return SwapRequest{}, err
	}
	if !settings.ShiftSwap.Enabled {
		return SwapRequest{}, ErrSwapsDisabled
	}
	if input.TargetProfileID == requesterID {
		return SwapRequest{}, ErrSelfSwap
	}

	offered, err := s.Shifts.Get(ctx, orgID, input.RequesterShiftID)
	if err != nil {
		return SwapRequest{}, err
	}
	if offered.ProfileID != requesterID {
		return SwapRequest{}, ErrNotYourShift
	}

	if input.TargetShiftID != nil {
		wanted, err := s.Shifts.Get(ctx, orgID, *input.TargetShiftID)
		if err != nil {
			return SwapRequest{}, err
		}
		if wanted.ProfileID != input.TargetProfileID {
			return SwapRequest{}, ErrNotYourShift
		}
		if !settings.ShiftSwap.AllowCrossLocation && !sameLocation(offered, wanted) {
			return SwapRequest{}, ErrCrossLocation
		}
	}

	return s.Store.Create(ctx, orgID, requesterID, input)
}

func sameLocation(a, b shifts.Shift) bool {
	if a.LocationID == nil || b.LocationID == nil {
		return true
	}
	return *a.LocationID == *b.LocationID
}

// Accept records the target's agreement. When approval is not required
// the swap finalizes immediately.
func (s *Service) Accept(ctx context.Context, orgID, id, profileID string) (SwapRequest, error) {
	sw, err := s.Store.Get(ctx, orgID, id)
	if err != nil {
		return SwapRequest{}, err
	}
	if sw.TargetProfileID != profileID {
		return SwapRequest{}, ErrNotSwapTarget
	}
	if err := CheckTransition(sw.Status, StatusTargetAccepted); err != nil {
		return SwapRequest{}, err
	}

	settings, err := s.Orgs.GetSettings(ctx, orgID)
	if err != nil {
		return SwapRequest{}, err
	}
	if !settings.ShiftSwap.RequireApproval {
		return s.Store.Approve(ctx, orgID, id, sw.Status, profileID)
	}
	return s.Store.UpdateStatus(ctx, orgID, id, sw.Status, StatusTargetAccepted, nil)
}

// Decline lets the target turn a pending swap down.
func (s *Service) Decline(ctx context.Context, orgID, id, profileID string) (SwapRequest, error) {
	sw, err := s.Store.Get(ctx, orgID, id)
	if err != nil {
		return SwapRequest{}, err
	}
	if sw.TargetProfileID != profileID {
		return SwapRequest{}, ErrNotSwapTarget
	}
	if err := CheckTransition(sw.Status, StatusRejected); err != nil {
		return SwapRequest{}, err
	}
	return s.Store.UpdateStatus(ctx, orgID, id, sw.Status, StatusRejected, &profileID)
}

// Cancel lets the requester withdraw a swap that is not yet final.
func (s *Service) Cancel(ctx context.Context, orgID, id, profileID string) (SwapRequest, error) {
	sw, err := s.Store.Get(ctx, orgID, id)
	if err != nil {
		return SwapRequest{}, err
	}
	if sw.RequesterProfileID != profileID {
		return SwapRequest{}, ErrNotYourShift
	}
	if err := CheckTransition(sw.Status, StatusCancelled); err != nil {
		return SwapRequest{}, err
	}
	return s.Store.UpdateStatus(ctx, orgID, id, sw.Status, StatusCancelled, nil)
}

// Approve finalizes the swap and reassigns the shifts.
func (s *Service) Approve(ctx context.Context, orgID, id, approverID string) (SwapRequest, error) {
	sw, err := s.Store.Get(ctx, orgID, id)
	if err != nil {
		return SwapRequest{}, err
	}
	if err := CheckTransition(sw.Status, StatusApproved); err != nil {
		return SwapRequest{}, err
	}
	return s.Store.Approve(ctx, orgID, id, sw.Status, approverID)
}

// Reject turns a swap down on behalf of a manager.
func (s *Service) Reject(ctx context.Context, orgID, id, approverID string) (SwapRequest, error) {
	sw, err := s.Store.Get(ctx, orgID, id)
	if err != nil {
		return SwapRequest{}, err
	}
	if err := CheckTransition(sw.Status, StatusRejected); err != nil {
		return SwapRequest{}, err
	}
	return s.Store.UpdateStatus(ctx, orgID, id, sw.Status, StatusRejected, &approverID)
}

func (s *Service) List(ctx context.Context, orgID, status, profileID string, limit, offset int) ([]SwapRequest, int, error) {
	return s.Store.List(ctx, orgID, status, profileID, limit, offset)
}

func (s *Service) Get(ctx context.Context, orgID, id string) (SwapRequest, error) {
	return s.Store.Get(ctx, orgID, id)
}
