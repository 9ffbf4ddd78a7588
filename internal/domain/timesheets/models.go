package timesheets

import "time"

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

type Line struct {
	Date            string `json:"date"`
	Sessions        int    `json:"sessions"`
	WorkedMinutes   int    `json:"workedMinutes"`
	RegularMinutes  int    `json:"regularMinutes"`
	OvertimeMinutes int    `json:"overtimeMinutes"`
	BreakMinutes    int    `json:"breakMinutes"`
}

type Timesheet struct {
	ID              string    `json:"id"`
	OrgID           string    `json:"organizationId"`
	ProfileID       string    `json:"profileId"`
	PeriodStart     time.Time `json:"periodStart"`
	PeriodEnd       time.Time `json:"periodEnd"`
	Status          string    `json:"status"`
	WorkedMinutes   int       `json:"workedMinutes"`
	RegularMinutes  int       `json:"regularMinutes"`
	OvertimeMinutes int       `json:"overtimeMinutes"`
	BreakMinutes    int       `json:"breakMinutes"`
	Lines           []Line    `json:"lines"`
	ResolvedBy      *string   `json:"resolvedBy,omitempty"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type GenerateInput struct {
	ProfileID   string    `json:"profileId"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
}
