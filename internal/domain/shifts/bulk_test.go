package shifts

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestProjectShiftPreservesWallClock(t *testing.T) {
	s := Shift{
		ID:        "shift-1",
		StartTime: time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 9, 17, 30, 0, 0, time.UTC),
		Published: true,
	}

	copied := ProjectShiftTo(s, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), time.UTC)

	if copied.ID != "" {
		t.Fatal("expected copy to have no id")
	}
	if copied.Published {
		t.Fatal("expected copy to be unpublished")
	}
	if copied.RepeatParentID == nil || *copied.RepeatParentID != "shift-1" {
		t.Fatalf("expected copy to join the source series, got %v", copied.RepeatParentID)
	}
	wantStart := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 16, 17, 30, 0, 0, time.UTC)
	if !copied.StartTime.Equal(wantStart) || !copied.EndTime.Equal(wantEnd) {
		t.Fatalf("got %v - %v, want %v - %v", copied.StartTime, copied.EndTime, wantStart, wantEnd)
	}
	if copied.EndTime.Sub(copied.StartTime) != s.EndTime.Sub(s.StartTime) {
		t.Fatal("expected duration to be preserved")
	}
}

func TestProjectShiftOvernightRollsForward(t *testing.T) {
	s := Shift{
		StartTime: time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
	}

	copied := ProjectShiftTo(s, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), time.UTC)

	wantStart := time.Date(2026, 3, 16, 22, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 17, 6, 0, 0, 0, time.UTC)
	if !copied.StartTime.Equal(wantStart) || !copied.EndTime.Equal(wantEnd) {
		t.Fatalf("got %v - %v, want %v - %v", copied.StartTime, copied.EndTime, wantStart, wantEnd)
	}
}

type fakeShiftStore struct {
	shifts    map[string]Shift
	inserted  []Shift
	published []string
	deleted   []string
}

func newFakeShiftStore(shifts ...Shift) *fakeShiftStore {
	m := make(map[string]Shift, len(shifts))
	for _, s := range shifts {
		m[s.ID] = s
	}
	return &fakeShiftStore{shifts: m}
}

func (f *fakeShiftStore) Create(ctx context.Context, orgID string, input CreateShiftInput) (Shift, error) {
	return Shift{ID: "new", OrgID: orgID, ProfileID: input.ProfileID, StartTime: input.StartTime, EndTime: input.EndTime}, nil
}

func (f *fakeShiftStore) Get(ctx context.Context, orgID, id string) (Shift, error) {
	s, ok := f.shifts[id]
	if !ok {
		return Shift{}, ErrNotFound
	}
	return s, nil
}

func (f *fakeShiftStore) Update(ctx context.Context, orgID, id string, input CreateShiftInput) (Shift, error) {
	return f.Get(ctx, orgID, id)
}

func (f *fakeShiftStore) Delete(ctx context.Context, orgID, id string) error { return nil }

func (f *fakeShiftStore) List(ctx context.Context, orgID string, filter ListFilter) ([]Shift, int, error) {
	return nil, 0, nil
}

func (f *fakeShiftStore) GetByIDs(ctx context.Context, orgID string, ids []string) ([]Shift, error) {
	out := make([]Shift, 0, len(ids))
	for _, id := range ids {
		s, ok := f.shifts[id]
		if !ok {
			return nil, ErrNotFound
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeShiftStore) BulkPublish(ctx context.Context, orgID string, ids []string, published bool) (int, error) {
	f.published = append(f.published, ids...)
	return len(ids), nil
}

func (f *fakeShiftStore) BulkDelete(ctx context.Context, orgID string, ids []string) (int, error) {
	f.deleted = append(f.deleted, ids...)
	return len(ids), nil
}

func (f *fakeShiftStore) BulkInsert(ctx context.Context, orgID string, batch []Shift) ([]Shift, error) {
	f.inserted = append(f.inserted, batch...)
	return batch, nil
}

func TestPublishRejectsUnknownID(t *testing.T) {
	store := newFakeShiftStore(Shift{ID: "a"})
	svc := NewService(store)

	_, err := svc.Publish(context.Background(), "org-1", []string{"a", "missing"}, true)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(store.published) != 0 {
		t.Fatal("expected no shifts to be published")
	}
}

func TestPublishAllKnown(t *testing.T) {
	store := newFakeShiftStore(Shift{ID: "a"}, Shift{ID: "b"})
	svc := NewService(store)

	n, err := svc.Publish(context.Background(), "org-1", []string{"a", "b"}, true)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 published, got %d %v", n, err)
	}
}

func TestCopyProjectsSelection(t *testing.T) {
	store := newFakeShiftStore(Shift{
		ID:        "a",
		StartTime: time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC),
		Published: true,
	})
	svc := NewService(store)

	dates := []time.Time{
		time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC),
	}
	copies, err := svc.Copy(context.Background(), "org-1", []string{"a"}, dates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(copies) != 2 {
		t.Fatalf("expected a copy per target date, got %d", len(copies))
	}
	for i, c := range copies {
		if c.Published {
			t.Fatalf("expected copies to be unpublished, got %+v", c)
		}
		if got := c.StartTime.Day(); got != 16+i {
			t.Fatalf("expected copy %d on day %d, got %d", i, 16+i, got)
		}
	}
}

func TestCopyRequiresTargetDates(t *testing.T) {
	svc := NewService(newFakeShiftStore(Shift{ID: "a"}))
	if _, err := svc.Copy(context.Background(), "org-1", []string{"a"}, nil); !errors.Is(err, ErrNoTargetDates) {
		t.Fatalf("expected ErrNoTargetDates, got %v", err)
	}
}

func TestCreateRejectsInvertedRange(t *testing.T) {
	svc := NewService(newFakeShiftStore())
	_, err := svc.Create(context.Background(), "org-1", CreateShiftInput{
		StartTime: time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}
