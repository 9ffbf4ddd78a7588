package reports

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteAttendanceCSV streams the attendance rows with a header line.
func WriteAttendanceCSV(w io.Writer, rows []AttendanceRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"profile_id", "full_name", "sessions", "worked_minutes", "regular_minutes", "overtime_minutes", "break_minutes"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.ProfileID, r.FullName,
			fmt.Sprint(r.Sessions), fmt.Sprint(r.WorkedMinutes),
			fmt.Sprint(r.RegularMinutes), fmt.Sprint(r.OvertimeMinutes), fmt.Sprint(r.BreakMinutes),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCoverageCSV streams the coverage buckets with a header line.
func WriteCoverageCSV(w io.Writer, buckets []CoverageBucket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "location_id", "scheduled", "attended", "filled_ratio"}); err != nil {
		return err
	}
	for _, b := range buckets {
		record := []string{
			b.Date, b.LocationID,
			fmt.Sprint(b.Scheduled), fmt.Sprint(b.Attended),
			fmt.Sprintf("%.2f", b.FilledRatio),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
