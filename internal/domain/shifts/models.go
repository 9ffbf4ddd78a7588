package shifts

import "time"

type Shift struct {
	ID             string    `json:"id"`
	OrgID          string    `json:"organizationId"`
	ProfileID      string    `json:"profileId"`
	LocationID     *string   `json:"locationId,omitempty"`
	Position       string    `json:"position,omitempty"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Notes          string    `json:"notes,omitempty"`
	Published      bool      `json:"published"`
	RepeatParentID *string   `json:"repeatParentId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SeriesID is the id of the recurring series a shift belongs to. A shift
// with no parent is its own series.
func (s Shift) SeriesID() string {
	if s.RepeatParentID != nil {
		return *s.RepeatParentID
	}
	return s.ID
}

type CreateShiftInput struct {
	ProfileID      string    `json:"profileId"`
	LocationID     *string   `json:"locationId"`
	Position       string    `json:"position"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Notes          string    `json:"notes"`
	Published      bool      `json:"published"`
	RepeatParentID *string   `json:"repeatParentId"`
}

type ListFilter struct {
	ProfileID  string
	LocationID string
	From       time.Time
	To         time.Time
	Published  *bool
	Limit      int
	Offset     int
}
