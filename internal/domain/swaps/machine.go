package swaps

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyProcessed  = errors.New("swap request already processed")
	ErrInvalidTransition = errors.New("invalid swap transition")
	ErrSwapsDisabled     = errors.New("shift swaps are disabled")
	ErrNotYourShift      = errors.New("shift does not belong to you")
	ErrNotSwapTarget     = errors.New("you are not the target of this swap")
	ErrCrossLocation     = errors.New("swaps across locations are not allowed")
)

// transitions holds the allowed status moves. Rejected, cancelled and
// approved are terminal.
var transitions = map[string][]string{
	StatusPending:        {StatusTargetAccepted, StatusApproved, StatusRejected, StatusCancelled},
	StatusTargetAccepted: {StatusApproved, StatusRejected, StatusCancelled},
}

// CheckTransition validates a status move. Moves out of a terminal status
// report ErrAlreadyProcessed so callers can answer with a conflict.
func CheckTransition(from, to string) error {
	allowed, ok := transitions[from]
	if !ok {
		return ErrAlreadyProcessed
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// IsTerminal reports whether no further transitions exist for the status.
func IsTerminal(status string) bool {
	_, ok := transitions[status]
	return !ok
}
