package timesheets

import (
	"sort"
	"time"

	"wfm/internal/domain/timeclock"
)

// BuildLines groups completed sessions into one line per calendar day.
// Incomplete sessions are left out of the totals.
func BuildLines(sessions []timeclock.Session, tz *time.Location) []Line {
	byDay := map[string]*Line{}
	for _, s := range sessions {
		if s.Incomplete {
			continue
		}
		day := s.ClockIn.In(tz).Format("2006-01-02")
		line, ok := byDay[day]
		if !ok {
			line = &Line{Date: day}
			byDay[day] = line
		}
		line.Sessions++
		line.WorkedMinutes += s.WorkedMinutes
		line.RegularMinutes += s.RegularMinutes
		line.OvertimeMinutes += s.OvertimeMinutes
		line.BreakMinutes += s.BreakMinutes
	}

	out := make([]Line, 0, len(byDay))
	for _, line := range byDay {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// BuildTimesheet computes a draft timesheet from a period's entries.
func BuildTimesheet(orgID string, input GenerateInput, entries []timeclock.TimeEntry, tz *time.Location) Timesheet {
	sessions := timeclock.BuildSessions(entries)
	totals := timeclock.Totals(sessions)
	return Timesheet{
		OrgID:           orgID,
		ProfileID:       input.ProfileID,
		PeriodStart:     input.PeriodStart,
		PeriodEnd:       input.PeriodEnd,
		Status:          StatusDraft,
		WorkedMinutes:   totals.WorkedMinutes,
		RegularMinutes:  totals.RegularMinutes,
		OvertimeMinutes: totals.OvertimeMinutes,
		BreakMinutes:    totals.BreakMinutes,
		Lines:           BuildLines(sessions, tz),
	}
}
