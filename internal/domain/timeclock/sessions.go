package timeclock

import "time"

// OT accrues past 8 worked hours within a single session.
const regularSessionMinutes = 480

// Session is a paired clock_in .. clock_out span. Break time inside the
// span is reported alongside but never subtracted from worked minutes.
type Session struct {
	ProfileID       string    `json:"profileId"`
	LocationID      string    `json:"locationId"`
	ShiftID         *string   `json:"shiftId,omitempty"`
	ClockIn         time.Time `json:"clockIn"`
	ClockOut        time.Time `json:"clockOut"`
	BreakMinutes    int       `json:"breakMinutes"`
	WorkedMinutes   int       `json:"workedMinutes"`
	RegularMinutes  int       `json:"regularMinutes"`
	OvertimeMinutes int       `json:"overtimeMinutes"`
	Incomplete      bool      `json:"incomplete"`
}

// BuildSessions pairs a chronological entry stream into work sessions.
// A clock_in without a matching clock_out yields an incomplete session
// with zero worked minutes. Stray entries outside a session are dropped.
func BuildSessions(entries []TimeEntry) []Session {
	var sessions []Session
	var current *Session
	var breakStart *time.Time

	closeCurrent := func(out time.Time) {
		if breakStart != nil {
			current.BreakMinutes += int(out.Sub(*breakStart).Minutes())
			breakStart = nil
		}
		current.ClockOut = out
		worked := int(out.Sub(current.ClockIn).Minutes())
		if worked < 0 {
			worked = 0
		}
		current.WorkedMinutes = worked
		if worked > regularSessionMinutes {
			current.RegularMinutes = regularSessionMinutes
			current.OvertimeMinutes = worked - regularSessionMinutes
		} else {
			current.RegularMinutes = worked
		}
		sessions = append(sessions, *current)
		current = nil
	}

	for _, entry := range entries {
		switch entry.EntryType {
		case EntryClockIn:
			if current != nil {
				current.Incomplete = true
				sessions = append(sessions, *current)
				breakStart = nil
			}
			current = &Session{
				ProfileID:  entry.ProfileID,
				LocationID: entry.LocationID,
				ShiftID:    entry.ShiftID,
				ClockIn:    entry.Timestamp,
			}
		case EntryBreakStart:
			if current != nil && breakStart == nil {
				ts := entry.Timestamp
				breakStart = &ts
			}
		case EntryBreakEnd:
			if current != nil && breakStart != nil {
				current.BreakMinutes += int(entry.Timestamp.Sub(*breakStart).Minutes())
				breakStart = nil
			}
		case EntryClockOut:
			if current != nil {
				closeCurrent(entry.Timestamp)
			}
		}
	}
	if current != nil {
		current.Incomplete = true
		sessions = append(sessions, *current)
	}
	return sessions
}

// SessionTotals sums completed sessions.
type SessionTotals struct {
	WorkedMinutes   int `json:"workedMinutes"`
	RegularMinutes  int `json:"regularMinutes"`
	OvertimeMinutes int `json:"overtimeMinutes"`
	BreakMinutes    int `json:"breakMinutes"`
	Sessions        int `json:"sessions"`
}

// Totals aggregates the complete sessions in the slice.
func Totals(sessions []Session) SessionTotals {
	var t SessionTotals
	for _, s := range sessions {
		if s.Incomplete {
			continue
		}
		t.WorkedMinutes += s.WorkedMinutes
		t.RegularMinutes += s.RegularMinutes
		t.OvertimeMinutes += s.OvertimeMinutes
		t.BreakMinutes += s.BreakMinutes
		t.Sessions++
	}
	return t
}
