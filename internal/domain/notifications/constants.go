package notifications

const (
	TypeSwapRequested      = "swap_requested"
	TypeSwapAccepted       = "swap_accepted"
	TypeSwapApproved       = "swap_approved"
	TypeSwapRejected       = "swap_rejected"
	TypeSwapCancelled      = "swap_cancelled"
	TypePTOSubmitted       = "pto_submitted"
	TypePTOApproved        = "pto_approved"
	TypePTORejected        = "pto_rejected"
	TypePTOCancelled       = "pto_cancelled"
	TypeTimesheetSubmitted = "timesheet_submitted"
	TypeTimesheetApproved  = "timesheet_approved"
	TypeTimesheetRejected  = "timesheet_rejected"
	TypeShiftPublished     = "shift_published"
	TypeChecklistAssigned  = "checklist_assigned"
)
