package swaps

import (
	"errors"
	"testing"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     error
	}{
		{StatusPending, StatusTargetAccepted, nil},
		{StatusPending, StatusApproved, nil},
		{StatusPending, StatusRejected, nil},
		{StatusPending, StatusCancelled, nil},
		{StatusTargetAccepted, StatusApproved, nil},
		{StatusTargetAccepted, StatusCancelled, nil},
		{StatusPending, StatusPending, ErrInvalidTransition},
		{StatusApproved, StatusRejected, ErrAlreadyProcessed},
		{StatusRejected, StatusApproved, ErrAlreadyProcessed},
		{StatusCancelled, StatusTargetAccepted, ErrAlreadyProcessed},
	}
	for _, tc := range tests {
		if got := CheckTransition(tc.from, tc.to); !errors.Is(got, tc.want) {
			t.Errorf("CheckTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{StatusApproved, StatusRejected, StatusCancelled} {
		if !IsTerminal(status) {
			t.Errorf("expected %q to be terminal", status)
		}
	}
	for _, status := range []string{StatusPending, StatusTargetAccepted} {
		if IsTerminal(status) {
			t.Errorf("expected %q not to be terminal", status)
		}
	}
}
