package reports

import (
	"sort"
	"time"

	"wfm/internal/domain/shifts"
	"wfm/internal/domain/timeclock"
)

type AttendanceRow struct {
	ProfileID       string `json:"profileId"`
	FullName        string `json:"fullName"`
	Sessions        int    `json:"sessions"`
	WorkedMinutes   int    `json:"workedMinutes"`
	RegularMinutes  int    `json:"regularMinutes"`
	OvertimeMinutes int    `json:"overtimeMinutes"`
	BreakMinutes    int    `json:"breakMinutes"`
}

// BuildAttendance pairs each profile's entries into sessions and sums
// them into one row per profile, sorted by name.
func BuildAttendance(entries []timeclock.TimeEntry, names map[string]string) []AttendanceRow {
	byProfile := map[string][]timeclock.TimeEntry{}
	for _, e := range entries {
		byProfile[e.ProfileID] = append(byProfile[e.ProfileID], e)
	}

	rows := make([]AttendanceRow, 0, len(byProfile))
	for profileID, profileEntries := range byProfile {
		totals := timeclock.Totals(timeclock.BuildSessions(profileEntries))
		rows = append(rows, AttendanceRow{
			ProfileID:       profileID,
			FullName:        names[profileID],
			Sessions:        totals.Sessions,
			WorkedMinutes:   totals.WorkedMinutes,
			RegularMinutes:  totals.RegularMinutes,
			OvertimeMinutes: totals.OvertimeMinutes,
			BreakMinutes:    totals.BreakMinutes,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].FullName != rows[j].FullName {
			return rows[i].FullName < rows[j].FullName
		}
		return rows[i].ProfileID < rows[j].ProfileID
	})
	return rows
}

type CoverageBucket struct {
	Date        string  `json:"date"`
	LocationID  string  `json:"locationId"`
	Scheduled   int     `json:"scheduled"`
	Attended    int     `json:"attended"`
	FilledRatio float64 `json:"filledRatio"`
}

// BuildCoverage buckets published shifts by day and location and marks
// how many of them saw a clock-in.
func BuildCoverage(scheduled []shifts.Shift, attendedShiftIDs map[string]bool, tz *time.Location) []CoverageBucket {
	type key struct {
		date     string
		location string
	}
	buckets := map[key]*CoverageBucket{}
	for _, s := range scheduled {
		location := ""
		if s.LocationID != nil {
			location = *s.LocationID
		}
		k := key{date: s.StartTime.In(tz).Format("2006-01-02"), location: location}
		bucket, ok := buckets[k]
		if !ok {
			bucket = &CoverageBucket{Date: k.date, LocationID: location}
			buckets[k] = bucket
		}
		bucket.Scheduled++
		if attendedShiftIDs[s.ID] {
			bucket.Attended++
		}
	}

	out := make([]CoverageBucket, 0, len(buckets))
	for _, bucket := range buckets {
		if bucket.Scheduled > 0 {
			bucket.FilledRatio = float64(bucket.Attended) / float64(bucket.Scheduled)
		}
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out
}
