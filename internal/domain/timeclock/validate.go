package timeclock

import (
	"errors"
	"fmt"
	"math"
	"time"

	"wfm/internal/domain/org"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrShiftNotToday       = errors.New("shift is not scheduled for today")
	ErrShiftAlreadyClocked = errors.New("shift already has a clock-in")
	ErrAlreadyClockedIn    = errors.New("already clocked in")
	ErrNotClockedIn        = errors.New("not clocked in")
	ErrNotOnBreak          = errors.New("not on break")
	ErrAlreadyOnBreak      = errors.New("already on break")
	ErrLocationInactive    = errors.New("location is not active")
	ErrLocationRequired    = errors.New("location is required")
	ErrOutsideGeofence     = errors.New("outside the location geofence")
	ErrCoordinatesRequired = errors.New("coordinates are required at this location")
)

// WindowError reports a clock-in attempt outside the allowed shift window.
type WindowError struct {
	MinutesUntilAllowed int
	MinutesLate         int
}

func (e *WindowError) Error() string {
	if e.MinutesUntilAllowed > 0 {
		return fmt.Sprintf("too early to clock in, wait %d more minute(s)", e.MinutesUntilAllowed)
	}
	return fmt.Sprintf("shift started %d minute(s) ago, clock-in window has closed", e.MinutesLate)
}

// CheckClockWindow accepts iff now is within [start−early, start+late].
func CheckClockWindow(now, shiftStart time.Time, settings org.TimeClockSettings) error {
	windowStart := shiftStart.Add(-time.Duration(settings.AllowEarlyMinutes) * time.Minute)
	windowEnd := shiftStart.Add(time.Duration(settings.AllowLateMinutes) * time.Minute)

	if now.Before(windowStart) {
		wait := int(math.Ceil(windowStart.Sub(now).Minutes()))
		return &WindowError{MinutesUntilAllowed: wait}
	}
	if now.After(windowEnd) {
		late := int(now.Sub(shiftStart).Minutes())
		return &WindowError{MinutesLate: late}
	}
	return nil
}

// EvaluateGeofence computes the inside flag for a clock attempt. The second
// return value is nil when the attempt is permitted.
func EvaluateGeofence(loc org.Location, coords *Coordinates) (bool, error) {
	if !loc.GeofenceEnabled || loc.Latitude == nil || loc.Longitude == nil || loc.RadiusMeters == nil {
		return true, nil
	}
	if coords == nil {
		if !loc.AllowClockOutside {
			return false, ErrCoordinatesRequired
		}
		return false, nil
	}
	distance := HaversineMeters(coords.Lat, coords.Lng, *loc.Latitude, *loc.Longitude)
	inside := distance <= *loc.RadiusMeters
	if !inside && !loc.AllowClockOutside {
		return false, ErrOutsideGeofence
	}
	return inside, nil
}

// SameDay reports whether both instants fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
