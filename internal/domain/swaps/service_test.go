package swaps

import (
	"context"
	"errors"
	"testing"

	"wfm/internal/domain/org"
	"wfm/internal/domain/shifts"
)

type fakeSwapStore struct {
	swaps    map[string]SwapRequest
	approved []string
	updated  []string
}

func newFakeSwapStore(sws ...SwapRequest) *fakeSwapStore {
	m := make(map[string]SwapRequest, len(sws))
	for _, sw := range sws {
		m[sw.ID] = sw
	}
	return &fakeSwapStore{swaps: m}
}

func (f *fakeSwapStore) Create(ctx context.Context, orgID, requesterID string, input CreateSwapInput) (SwapRequest, error) {
	sw := SwapRequest{
		ID:                 "swap-1",
		OrgID:              orgID,
		RequesterProfileID: requesterID,
		TargetProfileID:    input.TargetProfileID,
		RequesterShiftID:   input.RequesterShiftID,
		TargetShiftID:      input.TargetShiftID,
		Status:             StatusPending,
	}
	f.swaps[sw.ID] = sw
	return sw, nil
}

func (f *fakeSwapStore) Get(ctx context.Context, orgID, id string) (SwapRequest, error) {
	sw, ok := f.swaps[id]
	if !ok {
		return SwapRequest{}, ErrNotFound
	}
	return sw, nil
}

func (f *fakeSwapStore) List(ctx context.Context, orgID, status, profileID string, limit, offset int) ([]SwapRequest, int, error) {
	return nil, 0, nil
}

func (f *fakeSwapStore) UpdateStatus(ctx context.Context, orgID, id, fromStatus, toStatus string, resolvedBy *string) (SwapRequest, error) {
	sw, ok := f.swaps[id]
	if !ok {
		return SwapRequest{}, ErrNotFound
	}
	if sw.Status != fromStatus {
		return SwapRequest{}, ErrAlreadyProcessed
	}
	sw.Status = toStatus
	f.swaps[id] = sw
	f.updated = append(f.updated, toStatus)
	return sw, nil
}

func (f *fakeSwapStore) Approve(ctx context.Context, orgID, id, fromStatus, resolvedBy string) (SwapRequest, error) {
	sw, ok := f.swaps[id]
	if !ok {
		return SwapRequest{}, ErrNotFound
	}
	if sw.Status != fromStatus {
		return SwapRequest{}, ErrAlreadyProcessed
	}
	sw.Status = StatusApproved
	sw.ResolvedBy = &resolvedBy
	f.swaps[id] = sw
	f.approved = append(f.approved, id)
	return sw, nil
}

type fakeSwapShifts struct {
	shifts map[string]shifts.Shift
}

func (f *fakeSwapShifts) Get(ctx context.Context, orgID, id string) (shifts.Shift, error) {
	s, ok := f.shifts[id]
	if !ok {
		return shifts.Shift{}, shifts.ErrNotFound
	}
	return s, nil
}

type fakeSwapOrgs struct {
	settings org.Settings
}

func (f *fakeSwapOrgs) GetSettings(ctx context.Context, orgID string) (org.Settings, error) {
	return f.settings, nil
}

func swapSettings(enabled, requireApproval, crossLocation bool) org.Settings {
	s := org.DefaultSettings()
	s.ShiftSwap.Enabled = enabled
	s.ShiftSwap.RequireApproval = requireApproval
	s.ShiftSwap.AllowCrossLocation = crossLocation
	return s
}

func strPtr(v string) *string { return &v }

func TestCreateSwapChecks(t *testing.T) {
	shiftA := shifts.Shift{ID: "shift-a", ProfileID: "alice", LocationID: strPtr("loc-1")}
	shiftB := shifts.Shift{ID: "shift-b", ProfileID: "bob", LocationID: strPtr("loc-2")}
	shiftStore := &fakeSwapShifts{shifts: map[string]shifts.Shift{"shift-a": shiftA, "shift-b": shiftB}}

	t.Run("disabled", func(t *testing.T) {
		svc := NewService(newFakeSwapStore(), shiftStore, &fakeSwapOrgs{settings: swapSettings(false, true, false)})
		_, err := svc.Create(context.Background(), "org-1", "alice", CreateSwapInput{TargetProfileID: "bob", RequesterShiftID: "shift-a"})
		if !errors.Is(err, ErrSwapsDisabled) {
			t.Fatalf("expected ErrSwapsDisabled, got %v", err)
		}
	})

	t.Run("self swap", func(t *testing.T) {
		svc := NewService(newFakeSwapStore(), shiftStore, &fakeSwapOrgs{settings: swapSettings(true, true, false)})
		_, err := svc.Create(context.Background(), "org-1", "alice", CreateSwapInput{TargetProfileID: "alice", RequesterShiftID: "shift-a"})
		if !errors.Is(err, ErrSelfSwap) {
			t.Fatalf("expected ErrSelfSwap, got %v", err)
		}
	})

	t.Run("not the owner", func(t *testing.T) {
		svc := NewService(newFakeSwapStore(), shiftStore, &fakeSwapOrgs{settings: swapSettings(true, true, false)})
		_, err := svc.Create(context.Background(), "org-1", "bob", CreateSwapInput{TargetProfileID: "alice", RequesterShiftID: "shift-a"})
		if !errors.Is(err, ErrNotYourShift) {
			t.Fatalf("expected ErrNotYourShift, got %v", err)
		}
	})

	t.Run("cross location trade blocked", func(t *testing.T) {
		svc := NewService(newFakeSwapStore(), shiftStore, &fakeSwapOrgs{settings: swapSettings(true, true, false)})
		_, err := svc.Create(context.Background(), "org-1", "alice", CreateSwapInput{
			TargetProfileID: "bob", RequesterShiftID: "shift-a", TargetShiftID: strPtr("shift-b"),
		})
		if !errors.Is(err, ErrCrossLocation) {
			t.Fatalf("expected ErrCrossLocation, got %v", err)
		}
	})

	t.Run("cross location trade allowed when configured", func(t *testing.T) {
		svc := NewService(newFakeSwapStore(), shiftStore, &fakeSwapOrgs{settings: swapSettings(true, true, true)})
		sw, err := svc.Create(context.Background(), "org-1", "alice", CreateSwapInput{
			TargetProfileID: "bob", RequesterShiftID: "shift-a", TargetShiftID: strPtr("shift-b"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sw.Status != StatusPending {
			t.Fatalf("expected pending, got %q", sw.Status)
		}
	})
}

func TestAcceptPaths(t *testing.T) {
	t.Run("approval required", func(t *testing.T) {
		store := newFakeSwapStore(SwapRequest{ID: "swap-1", TargetProfileID: "bob", Status: StatusPending})
		svc := NewService(store, &fakeSwapShifts{}, &fakeSwapOrgs{settings: swapSettings(true, true, false)})

		sw, err := svc.Accept(context.Background(), "org-1", "swap-1", "bob")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sw.Status != StatusTargetAccepted {
			t.Fatalf("expected target_accepted, got %q", sw.Status)
		}
		if len(store.approved) != 0 {
			t.Fatal("expected no immediate approval")
		}
	})

	t.Run("auto approve", func(t *testing.T) {
		store := newFakeSwapStore(SwapRequest{ID: "swap-1", TargetProfileID: "bob", Status: StatusPending})
		svc := NewService(store, &fakeSwapShifts{}, &fakeSwapOrgs{settings: swapSettings(true, false, false)})

		sw, err := svc.Accept(context.Background(), "org-1", "swap-1", "bob")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sw.Status != StatusApproved {
			t.Fatalf("expected approved, got %q", sw.Status)
		}
	})

	t.Run("wrong target", func(t *testing.T) {
		store := newFakeSwapStore(SwapRequest{ID: "swap-1", TargetProfileID: "bob", Status: StatusPending})
		svc := NewService(store, &fakeSwapShifts{}, &fakeSwapOrgs{settings: swapSettings(true, true, false)})

		if _, err := svc.Accept(context.Background(), "org-1", "swap-1", "carol"); !errors.Is(err, ErrNotSwapTarget) {
			t.Fatalf("expected ErrNotSwapTarget, got %v", err)
		}
	})
}

func TestApproveAndTerminalStates(t *testing.T) {
	t.Run("approve accepted swap", func(t *testing.T) {
		store := newFakeSwapStore(SwapRequest{ID: "swap-1", Status: StatusTargetAccepted})
		svc := NewService(store, &fakeSwapShifts{}, &fakeSwapOrgs{settings: swapSettings(true, true, false)})

		sw, err := svc.Approve(context.Background(), "org-1", "swap-1", "mgr")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sw.Status != StatusApproved || sw.ResolvedBy == nil || *sw.ResolvedBy != "mgr" {
			t.Fatalf("unexpected result: %+v", sw)
		}
	})

	t.Run("approve already approved", func(t *testing.T) {
		store := newFakeSwapStore(SwapRequest{ID: "swap-1", Status: StatusApproved})
		svc := NewService(store, &fakeSwapShifts{}, &fakeSwapOrgs{settings: swapSettings(true, true, false)})

		if _, err := svc.Approve(context.Background(), "org-1", "swap-1", "mgr"); !errors.Is(err, ErrAlreadyProcessed) {
			t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
		}
	})

	t.Run("cancel by requester", func(t *testing.T) {
		store := newFakeSwapStore(SwapRequest{ID: "swap-1", RequesterProfileID: "alice", Status: StatusPending})
		svc := NewService(store, &fakeSwapShifts{}, &fakeSwapOrgs{settings: swapSettings(true, true, false)})

		sw, err := svc.Cancel(context.Background(), "org-1", "swap-1", "alice")
		if err != nil || sw.Status != StatusCancelled {
			t.Fatalf("expected cancelled, got %+v %v", sw, err)
		}
	})

	t.Run("cancel by someone else", func(t *testing.T) {
		store := newFakeSwapStore(SwapRequest{ID: "swap-1", RequesterProfileID: "alice", Status: StatusPending})
		svc := NewService(store, &fakeSwapShifts{}, &fakeSwapOrgs{settings: swapSettings(true, true, false)})

		if _, err := svc.Cancel(context.Background(), "org-1", "swap-1", "bob"); !errors.Is(err, ErrNotYourShift) {
			t.Fatalf("expected ErrNotYourShift, got %v", err)
		}
	})
}
