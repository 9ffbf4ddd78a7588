package timeclock

import (
	"context"
	"errors"
	"testing"
	"time"

	"wfm/internal/domain/org"
)

type fakeStore struct {
	shift        ShiftInfo
	shiftErr     error
	shiftClocked bool
	last         *TimeEntry
	inserted     []TimeEntry
}

func (f *fakeStore) ShiftForProfile(ctx context.Context, orgID, shiftID, profileID string) (ShiftInfo, error) {
	if f.shiftErr != nil {
		return ShiftInfo{}, f.shiftErr
	}
	return f.shift, nil
}

func (f *fakeStore) ShiftHasClockIn(ctx context.Context, shiftID string) (bool, error) {
	return f.shiftClocked, nil
}

func (f *fakeStore) LastEntryInRange(ctx context.Context, orgID, profileID string, from, to time.Time) (TimeEntry, bool, error) {
	if f.last == nil {
		return TimeEntry{}, false, nil
	}
	return *f.last, true, nil
}

func (f *fakeStore) InsertEntry(ctx context.Context, entry TimeEntry) (TimeEntry, error) {
	entry.ID = "entry-1"
	f.inserted = append(f.inserted, entry)
	return entry, nil
}

func (f *fakeStore) ListEntries(ctx context.Context, orgID, profileID string, from, to time.Time, limit, offset int) ([]TimeEntry, int, error) {
	return nil, 0, nil
}

type fakeOrgs struct {
	settings org.Settings
	loc      org.Location
	locErr   error
}

func (f *fakeOrgs) GetSettings(ctx context.Context, orgID string) (org.Settings, error) {
	return f.settings, nil
}

func (f *fakeOrgs) GetLocation(ctx context.Context, orgID, locationID string) (org.Location, error) {
	if f.locErr != nil {
		return org.Location{}, f.locErr
	}
	return f.loc, nil
}

func newClockService(store *fakeStore, orgs *fakeOrgs) *Service {
	return NewService(store, orgs)
}

func TestClockInHappyPath(t *testing.T) {
	now := time.Date(2026, 3, 9, 8, 45, 0, 0, time.UTC)
	locID := "loc-1"
	store := &fakeStore{
		shift: ShiftInfo{ID: "shift-1", StartTime: now.Add(15 * time.Minute), LocationID: &locID},
	}
	orgs := &fakeOrgs{
		settings: org.Settings{TimeClock: tcSettings()},
		loc:      org.Location{ID: locID, IsActive: true},
	}
	svc := newClockService(store, orgs)

	entry, err := svc.ClockIn(context.Background(), "org-1", "prof-1", ClockInInput{ShiftID: "shift-1"}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.EntryType != EntryClockIn {
		t.Fatalf("expected clock_in entry, got %q", entry.EntryType)
	}
	if entry.LocationID != locID {
		t.Fatalf("expected shift location %q, got %q", locID, entry.LocationID)
	}
	if entry.ShiftID == nil || *entry.ShiftID != "shift-1" {
		t.Fatal("expected shift id on the entry")
	}
}

func TestClockInRequiresShift(t *testing.T) {
	svc := newClockService(&fakeStore{}, &fakeOrgs{settings: org.Settings{TimeClock: tcSettings()}})

	_, err := svc.ClockIn(context.Background(), "org-1", "prof-1", ClockInInput{LocationID: "loc-1"}, time.Now())
	if !errors.Is(err, ErrShiftRequired) {
		t.Fatalf("expected ErrShiftRequired, got %v", err)
	}
}

func TestClockInWithoutShiftWhenNotRequired(t *testing.T) {
	orgs := &fakeOrgs{
		settings: org.DefaultSettings(),
		loc:      org.Location{ID: "loc-1", IsActive: true},
	}
	store := &fakeStore{}
	svc := newClockService(store, orgs)

	entry, err := svc.ClockIn(context.Background(), "org-1", "prof-1", ClockInInput{LocationID: "loc-1"}, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ShiftID != nil {
		t.Fatal("expected no shift id")
	}
}

func TestClockInRejectsDuplicateShiftClockIn(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{
		shift:        ShiftInfo{ID: "shift-1", StartTime: now},
		shiftClocked: true,
	}
	svc := newClockService(store, &fakeOrgs{settings: org.Settings{TimeClock: tcSettings()}})

	_, err := svc.ClockIn(context.Background(), "org-1", "prof-1", ClockInInput{ShiftID: "shift-1", LocationID: "loc-1"}, now)
	if !errors.Is(err, ErrShiftAlreadyClocked) {
		t.Fatalf("expected ErrShiftAlreadyClocked, got %v", err)
	}
}

func TestClockInRejectsShiftOnAnotherDay(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{
		shift: ShiftInfo{ID: "shift-1", StartTime: now.Add(24 * time.Hour)},
	}
	svc := newClockService(store, &fakeOrgs{settings: org.Settings{TimeClock: tcSettings()}})

	_, err := svc.ClockIn(context.Background(), "org-1", "prof-1", ClockInInput{ShiftID: "shift-1", LocationID: "loc-1"}, now)
	if !errors.Is(err, ErrShiftNotToday) {
		t.Fatalf("expected ErrShiftNotToday, got %v", err)
	}
}

func TestClockInRejectsInactiveLocation(t *testing.T) {
	orgs := &fakeOrgs{
		settings: org.DefaultSettings(),
		loc:      org.Location{ID: "loc-1", IsActive: false},
	}
	svc := newClockService(&fakeStore{}, orgs)

	_, err := svc.ClockIn(context.Background(), "org-1", "prof-1", ClockInInput{LocationID: "loc-1"}, time.Now().UTC())
	if !errors.Is(err, ErrLocationInactive) {
		t.Fatalf("expected ErrLocationInactive, got %v", err)
	}
}

func TestClockInRejectsWhenAlreadyClockedIn(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		last: &TimeEntry{EntryType: EntryClockIn, Timestamp: now.Add(-2 * time.Hour), LocationID: "loc-1"},
	}
	orgs := &fakeOrgs{
		settings: org.DefaultSettings(),
		loc:      org.Location{ID: "loc-1", IsActive: true},
	}
	svc := newClockService(store, orgs)

	_, err := svc.ClockIn(context.Background(), "org-1", "prof-1", ClockInInput{LocationID: "loc-1"}, now)
	if !errors.Is(err, ErrAlreadyClockedIn) {
		t.Fatalf("expected ErrAlreadyClockedIn, got %v", err)
	}
}

func TestClockOutAndBreaks(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	orgs := &fakeOrgs{settings: org.DefaultSettings(), loc: org.Location{ID: "loc-1", IsActive: true}}

	t.Run("clock out while clocked in", func(t *testing.T) {
		store := &fakeStore{last: &TimeEntry{EntryType: EntryClockIn, LocationID: "loc-1", OrgID: "org-1", ProfileID: "prof-1"}}
		entry, err := newClockService(store, orgs).ClockOut(context.Background(), "org-1", "prof-1", "", nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.EntryType != EntryClockOut {
			t.Fatalf("expected clock_out, got %q", entry.EntryType)
		}
	})

	t.Run("clock out while on break is allowed", func(t *testing.T) {
		store := &fakeStore{last: &TimeEntry{EntryType: EntryBreakStart, LocationID: "loc-1"}}
		if _, err := newClockService(store, orgs).ClockOut(context.Background(), "org-1", "prof-1", "", nil, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("clock out while clocked out", func(t *testing.T) {
		store := &fakeStore{}
		_, err := newClockService(store, orgs).ClockOut(context.Background(), "org-1", "prof-1", "", nil, now)
		if !errors.Is(err, ErrNotClockedIn) {
			t.Fatalf("expected ErrNotClockedIn, got %v", err)
		}
	})

	t.Run("double break start", func(t *testing.T) {
		store := &fakeStore{last: &TimeEntry{EntryType: EntryBreakStart, LocationID: "loc-1"}}
		_, err := newClockService(store, orgs).StartBreak(context.Background(), "org-1", "prof-1", nil, now)
		if !errors.Is(err, ErrAlreadyOnBreak) {
			t.Fatalf("expected ErrAlreadyOnBreak, got %v", err)
		}
	})

	t.Run("end break without break", func(t *testing.T) {
		store := &fakeStore{last: &TimeEntry{EntryType: EntryClockIn, LocationID: "loc-1"}}
		_, err := newClockService(store, orgs).EndBreak(context.Background(), "org-1", "prof-1", nil, now)
		if !errors.Is(err, ErrNotOnBreak) {
			t.Fatalf("expected ErrNotOnBreak, got %v", err)
		}
	})
}

func TestStatus(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	orgs := &fakeOrgs{settings: org.DefaultSettings()}

	store := &fakeStore{}
	status, entry, err := newClockService(store, orgs).Status(context.Background(), "org-1", "prof-1", now)
	if err != nil || status != StatusClockedOut || entry != nil {
		t.Fatalf("expected clocked_out with no entry, got %q %v %v", status, entry, err)
	}

	store = &fakeStore{last: &TimeEntry{EntryType: EntryBreakStart}}
	status, entry, err = newClockService(store, orgs).Status(context.Background(), "org-1", "prof-1", now)
	if err != nil || status != StatusOnBreak || entry == nil {
		t.Fatalf("expected on_break with entry, got %q %v %v", status, entry, err)
	}
}
