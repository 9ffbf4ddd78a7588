package swaps

import "time"

const (
	StatusPending        = "pending"
	StatusTargetAccepted = "target_accepted"
	StatusApproved       = "approved"
	StatusRejected       = "rejected"
	StatusCancelled      = "cancelled"
)

type SwapRequest struct {
	ID                 string    `json:"id"`
	OrgID              string    `json:"organizationId"`
	RequesterProfileID string    `json:"requesterProfileId"`
	TargetProfileID    string    `json:"targetProfileId"`
	RequesterShiftID   string    `json:"requesterShiftId"`
	TargetShiftID      *string   `json:"targetShiftId,omitempty"`
	Status             string    `json:"status"`
	Notes              string    `json:"notes,omitempty"`
	ResolvedBy         *string   `json:"resolvedBy,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type CreateSwapInput struct {
	TargetProfileID  string  `json:"targetProfileId"`
	RequesterShiftID string  `json:"requesterShiftId"`
	TargetShiftID    *string `json:"targetShiftId"`
	Notes            string  `json:"notes"`
}
