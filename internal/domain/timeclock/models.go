package timeclock

import "time"

const (
	EntryClockIn    = "clock_in"
	EntryClockOut   = "clock_out"
	EntryBreakStart = "break_start"
	EntryBreakEnd   = "break_end"
)

const (
	StatusClockedOut = "clocked_out"
	StatusClockedIn  = "clocked_in"
	StatusOnBreak    = "on_break"
)

type TimeEntry struct {
	ID               string    `json:"id"`
	OrgID            string    `json:"organizationId"`
	ProfileID        string    `json:"profileId"`
	ShiftID          *string   `json:"shiftId,omitempty"`
	LocationID       string    `json:"locationId"`
	EntryType        string    `json:"entryType"`
	Timestamp        time.Time `json:"timestamp"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	IsInsideGeofence bool      `json:"isInsideGeofence"`
	Notes            string    `json:"notes,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ClockInInput struct {
	LocationID  string
	ShiftID     string
	Notes       string
	Coordinates *Coordinates
}

// StatusFromLastEntry infers the caller's current clock state from the most
// recent entry type only; it does not validate strict alternation of the
// underlying sequence.
func StatusFromLastEntry(entryType string) string {
	switch entryType {
	case EntryClockIn, EntryBreakEnd:
		return StatusClockedIn
	case EntryBreakStart:
		return StatusOnBreak
	default:
		return StatusClockedOut
	}
}
