package timesheets

import (
	"bytes"
	"testing"
	"time"

	"wfm/internal/domain/timeclock"
)

func tsEntry(entryType string, day, hour, min int) timeclock.TimeEntry {
	return timeclock.TimeEntry{
		ProfileID:  "prof-1",
		LocationID: "loc-1",
		EntryType:  entryType,
		Timestamp:  time.Date(2026, 3, day, hour, min, 0, 0, time.UTC),
	}
}

func TestBuildTimesheetGroupsByDay(t *testing.T) {
	entries := []timeclock.TimeEntry{
		tsEntry(timeclock.EntryClockIn, 9, 9, 0),
		tsEntry(timeclock.EntryBreakStart, 9, 12, 0),
		tsEntry(timeclock.EntryBreakEnd, 9, 12, 30),
		tsEntry(timeclock.EntryClockOut, 9, 17, 0),
		tsEntry(timeclock.EntryClockIn, 10, 8, 0),
		tsEntry(timeclock.EntryClockOut, 10, 18, 30),
	}

	input := GenerateInput{
		ProfileID:   "prof-1",
		PeriodStart: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
	}
	ts := BuildTimesheet("org-1", input, entries, time.UTC)

	if ts.Status != StatusDraft {
		t.Fatalf("expected draft, got %q", ts.Status)
	}
	if len(ts.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(ts.Lines))
	}
	if ts.Lines[0].Date != "2026-03-09" || ts.Lines[1].Date != "2026-03-10" {
		t.Fatalf("unexpected line order: %+v", ts.Lines)
	}
	// Breaks are reported on the line, not deducted from worked time.
	if ts.Lines[0].WorkedMinutes != 480 || ts.Lines[0].BreakMinutes != 30 {
		t.Fatalf("unexpected first day: %+v", ts.Lines[0])
	}
	// Second day is 10.5 hours: 8 regular plus 2.5 overtime.
	if ts.Lines[1].OvertimeMinutes != 150 {
		t.Fatalf("expected 150 overtime minutes, got %d", ts.Lines[1].OvertimeMinutes)
	}
	if ts.WorkedMinutes != 480+630 {
		t.Fatalf("unexpected total: %d", ts.WorkedMinutes)
	}
}

func TestBuildTimesheetIgnoresIncompleteSessions(t *testing.T) {
	entries := []timeclock.TimeEntry{
		tsEntry(timeclock.EntryClockIn, 9, 9, 0),
		tsEntry(timeclock.EntryClockOut, 9, 17, 0),
		tsEntry(timeclock.EntryClockIn, 10, 9, 0),
	}

	ts := BuildTimesheet("org-1", GenerateInput{ProfileID: "prof-1"}, entries, time.UTC)
	if len(ts.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(ts.Lines))
	}
	if ts.WorkedMinutes != 480 {
		t.Fatalf("expected 480 worked minutes, got %d", ts.WorkedMinutes)
	}
}

func TestWritePDF(t *testing.T) {
	ts := Timesheet{
		PeriodStart:   time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		Status:        StatusApproved,
		WorkedMinutes: 450,
		Lines:         []Line{{Date: "2026-03-09", Sessions: 1, WorkedMinutes: 450, RegularMinutes: 450, BreakMinutes: 30}},
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, ts, "Alice Example"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected PDF output")
	}
}
