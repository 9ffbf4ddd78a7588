package pto

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const initChunkSize = 1000

var (
	ErrYearOutOfRange = errors.New("year must be within one year of the current year")
	ErrNoPolicies     = errors.New("no active policies to initialize")
	ErrNoProfiles     = errors.New("no profiles to initialize")
)

const (
	actionCreated = "created"
	actionUpdated = "updated"
	actionSkipped = "skipped"
)

type InitializeInput struct {
	Year       int      `json:"year"`
	ProfileIDs []string `json:"profileIds"`
	PolicyIDs  []string `json:"policyIds"`
	Overwrite  bool     `json:"overwrite"`
}

type InitializeItemError struct {
	ProfileID string `json:"profileId"`
	PolicyID  string `json:"policyId"`
	Message   string `json:"message"`
}

type InitializeResult struct {
	Created int                   `json:"created"`
	Updated int                   `json:"updated"`
	Skipped int                   `json:"skipped"`
	Errors  []InitializeItemError `json:"errors,omitempty"`
}

type initItem struct {
	profileID string
	policy    Policy
}

// buildInitItems forms the profile x policy cross product.
func buildInitItems(profileIDs []string, policies []Policy) []initItem {
	items := make([]initItem, 0, len(profileIDs)*len(policies))
	for _, profileID := range profileIDs {
		for _, policy := range policies {
			items = append(items, initItem{profileID: profileID, policy: policy})
		}
	}
	return items
}

// chunkItems splits the cross product into batches of at most size.
func chunkItems(items []initItem, size int) [][]initItem {
	var chunks [][]initItem
	for len(items) > 0 {
		n := size
		if len(items) < n {
			n = len(items)
		}
		chunks = append(chunks, items[:n])
		items = items[n:]
	}
	return chunks
}

// InitializeBalances seeds a yearly balance for every selected profile and
// active policy. Existing balances are skipped unless Overwrite is set, in
// which case the allowed days are reset to the policy amount. Failures are
// collected per item rather than aborting the run.
func (s *Service) InitializeBalances(ctx context.Context, orgID string, input InitializeInput) (InitializeResult, error) {
	var result InitializeResult

	currentYear := time.Now().Year()
	if input.Year < currentYear-1 || input.Year > currentYear+1 {
		return result, ErrYearOutOfRange
	}

	policies, err := s.Store.ActivePolicies(ctx, orgID, input.PolicyIDs)
	if err != nil {
		return result, err
	}
	if len(policies) == 0 {
		return result, ErrNoPolicies
	}

	profileIDs := input.ProfileIDs
	if len(profileIDs) == 0 {
		profileIDs, err = s.Profiles.ActiveProfileIDs(ctx, orgID)
		if err != nil {
			return result, err
		}
	}
	if len(profileIDs) == 0 {
		return result, ErrNoProfiles
	}

	for _, chunk := range chunkItems(buildInitItems(profileIDs, policies), initChunkSize) {
		for _, item := range chunk {
			balance := Balance{
				OrgID:       orgID,
				ProfileID:   item.profileID,
				PolicyID:    item.policy.ID,
				PTOType:     item.policy.PTOType,
				Year:        input.Year,
				AllowedDays: item.policy.DaysPerYear,
			}
			action, err := s.Store.InitBalance(ctx, balance, input.Overwrite)
			if err != nil {
				result.Errors = append(result.Errors, InitializeItemError{
					ProfileID: item.profileID,
					PolicyID:  item.policy.ID,
					Message:   fmt.Sprintf("init balance: %v", err),
				})
				continue
			}
			switch action {
			case actionCreated:
				result.Created++
			case actionUpdated:
				result.Updated++
			default:
				result.Skipped++
			}
		}
	}
	return result, nil
}
