package pto

import "time"

const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled"
)

type Policy struct {
	ID               string    `json:"id"`
	OrgID            string    `json:"organizationId"`
	Name             string    `json:"name"`
	PTOType          string    `json:"ptoType"`
	DaysPerYear      float64   `json:"daysPerYear"`
	AccrualRate      float64   `json:"accrualRate"`
	MaxCarryover     float64   `json:"maxCarryover"`
	MinNoticeDays    int       `json:"minNoticeDays"`
	RequiresApproval bool      `json:"requiresApproval"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
}

type Balance struct {
	ID             string  `json:"id"`
	OrgID          string  `json:"organizationId"`
	ProfileID      string  `json:"profileId"`
	PolicyID       string  `json:"policyId"`
	PTOType        string  `json:"ptoType"`
	Year           int     `json:"year"`
	AllowedDays    float64 `json:"allowedDays"`
	UsedDays       float64 `json:"usedDays"`
	PendingDays    float64 `json:"pendingDays"`
	CarryoverDays  float64 `json:"carryoverDays"`
	AdjustmentDays float64 `json:"adjustmentDays"`
}

// Available is the number of days still free to request.
func (b Balance) Available() float64 {
	return b.AllowedDays + b.CarryoverDays + b.AdjustmentDays - b.UsedDays - b.PendingDays
}

type Request struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"organizationId"`
	ProfileID  string    `json:"profileId"`
	PolicyID   string    `json:"policyId"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Days       float64   `json:"days"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	ResolvedBy *string   `json:"resolvedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type CreateRequestInput struct {
	PolicyID  string    `json:"policyId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason"`
}

// DaysInclusive counts the calendar days a request spans, both endpoints
// included.
func DaysInclusive(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	s := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}
