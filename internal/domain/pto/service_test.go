package pto

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDaysInclusive(t *testing.T) {
	tests := []struct {
		start, end time.Time
		want       int
	}{
		{date(2026, 6, 1), date(2026, 6, 1), 1},
		{date(2026, 6, 1), date(2026, 6, 5), 5},
		{date(2026, 6, 5), date(2026, 6, 1), 0},
		{date(2026, 2, 27), date(2026, 3, 2), 4},
	}
	for _, tc := range tests {
		if got := DaysInclusive(tc.start, tc.end); got != tc.want {
			t.Errorf("DaysInclusive(%v, %v) = %d, want %d", tc.start, tc.end, got, tc.want)
		}
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBalanceAvailable(t *testing.T) {
	b := Balance{AllowedDays: 25, UsedDays: 10, PendingDays: 3}
	if got := b.Available(); got != 12 {
		t.Fatalf("expected 12 available, got %f", got)
	}
}

func newRequestFixture(t *testing.T, noticeDays int, available float64) (*Service, *fakePTOStore) {
	t.Helper()
	store := newFakePTOStore(Policy{ID: "vacation", DaysPerYear: 25, MinNoticeDays: noticeDays, RequiresApproval: true, IsActive: true})
	store.balances[balanceKey("alice", "vacation", 2026)] = Balance{
		ProfileID: "alice", PolicyID: "vacation", Year: 2026, AllowedDays: available,
	}
	svc := NewService(store, &fakeProfiles{})
	svc.Now = func() time.Time { return date(2026, 6, 1) }
	return svc, store
}

func TestCreateRequest(t *testing.T) {
	t.Run("happy path reserves pending days", func(t *testing.T) {
		svc, store := newRequestFixture(t, 0, 25)

		req, err := svc.CreateRequest(context.Background(), "org-1", "alice", CreateRequestInput{
			PolicyID: "vacation", StartDate: date(2026, 6, 10), EndDate: date(2026, 6, 12),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Days != 3 {
			t.Fatalf("expected 3 days, got %f", req.Days)
		}
		if got := store.balances[balanceKey("alice", "vacation", 2026)].PendingDays; got != 3 {
			t.Fatalf("expected 3 pending days, got %f", got)
		}
	})

	t.Run("auto approves when policy skips approval", func(t *testing.T) {
		svc, store := newRequestFixture(t, 0, 25)
		store.policies[0].RequiresApproval = false

		req, err := svc.CreateRequest(context.Background(), "org-1", "alice", CreateRequestInput{
			PolicyID: "vacation", StartDate: date(2026, 6, 10), EndDate: date(2026, 6, 12),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Status != RequestApproved {
			t.Fatalf("expected approved status, got %q", req.Status)
		}
	})

	t.Run("insufficient notice", func(t *testing.T) {
		svc, _ := newRequestFixture(t, 14, 25)

		_, err := svc.CreateRequest(context.Background(), "org-1", "alice", CreateRequestInput{
			PolicyID: "vacation", StartDate: date(2026, 6, 5), EndDate: date(2026, 6, 6),
		})
		if !errors.Is(err, ErrInsufficientNotice) {
			t.Fatalf("expected ErrInsufficientNotice, got %v", err)
		}
	})

	t.Run("insufficient balance", func(t *testing.T) {
		svc, _ := newRequestFixture(t, 0, 2)

		_, err := svc.CreateRequest(context.Background(), "org-1", "alice", CreateRequestInput{
			PolicyID: "vacation", StartDate: date(2026, 6, 10), EndDate: date(2026, 6, 14),
		})
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
	})

	t.Run("cross year rejected", func(t *testing.T) {
		svc, _ := newRequestFixture(t, 0, 25)

		_, err := svc.CreateRequest(context.Background(), "org-1", "alice", CreateRequestInput{
			PolicyID: "vacation", StartDate: date(2026, 12, 30), EndDate: date(2027, 1, 2),
		})
		if !errors.Is(err, ErrCrossYearRequest) {
			t.Fatalf("expected ErrCrossYearRequest, got %v", err)
		}
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		svc, _ := newRequestFixture(t, 0, 25)

		_, err := svc.CreateRequest(context.Background(), "org-1", "alice", CreateRequestInput{
			PolicyID: "vacation", StartDate: date(2026, 6, 12), EndDate: date(2026, 6, 10),
		})
		if !errors.Is(err, ErrInvalidDateRange) {
			t.Fatalf("expected ErrInvalidDateRange, got %v", err)
		}
	})
}

func TestCancelOnlyByOwner(t *testing.T) {
	svc, store := newRequestFixture(t, 0, 25)
	store.requests["req-9"] = Request{ID: "req-9", ProfileID: "alice", Status: RequestPending}

	if _, err := svc.Cancel(context.Background(), "org-1", "req-9", "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign request, got %v", err)
	}

	req, err := svc.Cancel(context.Background(), "org-1", "req-9", "alice")
	if err != nil || req.Status != RequestCancelled {
		t.Fatalf("expected cancelled, got %+v %v", req, err)
	}
}
