package shifts

import "time"

// ProjectShiftTo maps a shift onto a target date, preserving its local
// wall-clock start and end. An end that lands at or before the projected
// start is an overnight shift and rolls forward one day. The copy is
// always unpublished and joins the source shift's recurring series.
func ProjectShiftTo(s Shift, date time.Time, tz *time.Location) Shift {
	start := s.StartTime.In(tz)
	end := s.EndTime.In(tz)

	dy, dm, dd := date.In(tz).Date()
	newStart := time.Date(dy, dm, dd, start.Hour(), start.Minute(), start.Second(), 0, tz)
	newEnd := time.Date(dy, dm, dd, end.Hour(), end.Minute(), end.Second(), 0, tz)
	if !newEnd.After(newStart) {
		newEnd = newEnd.AddDate(0, 0, 1)
	}

	series := s.SeriesID()
	copied := s
	copied.ID = ""
	copied.StartTime = newStart
	copied.EndTime = newEnd
	copied.Published = false
	copied.RepeatParentID = &series
	return copied
}

// ProjectShifts builds the target date x source shift cross product.
func ProjectShifts(in []Shift, dates []time.Time, tz *time.Location) []Shift {
	out := make([]Shift, 0, len(in)*len(dates))
	for _, date := range dates {
		for _, s := range in {
			out = append(out, ProjectShiftTo(s, date, tz))
		}
	}
	return out
}
