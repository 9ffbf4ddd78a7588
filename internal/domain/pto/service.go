package pto

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidDateRange    = errors.New("end date must not be before start date")
	ErrPolicyInactive      = errors.New("policy is not active")
	ErrInsufficientNotice  = errors.New("request does not meet the minimum notice period")
	ErrInsufficientBalance = errors.New("not enough balance for this request")
	ErrCrossYearRequest    = errors.New("request must fall within a single year")
)

type StoreAPI interface {
	CreatePolicy(ctx context.Context, orgID string, p Policy) (Policy, error)
	UpdatePolicy(ctx context.Context, orgID, id string, p Policy) (Policy, error)
	GetPolicy(ctx context.Context, orgID, id string) (Policy, error)
	ListPolicies(ctx context.Context, orgID string) ([]Policy, error)
	ActivePolicies(ctx context.Context, orgID string, ids []string) ([]Policy, error)
	InitBalance(ctx context.Context, b Balance, overwrite bool) (string, error)
	GetBalance(ctx context.Context, orgID, profileID, policyID string, year int) (Balance, error)
	ListBalances(ctx context.Context, orgID, profileID string, year int) ([]Balance, error)
	AdjustBalance(ctx context.Context, orgID, balanceID string, deltaDays float64) (Balance, error)
	CreateRequest(ctx context.Context, orgID, profileID string, input CreateRequestInput, days float64, year int) (Request, error)
	GetRequest(ctx context.Context, orgID, id string) (Request, error)
	ListRequests(ctx context.Context, orgID, profileID, status string, limit, offset int) ([]Request, int, error)
	ResolveRequest(ctx context.Context, orgID, id, toStatus string, resolvedBy *string) (Request, error)
}

type ProfileAPI interface {
	ActiveProfileIDs(ctx context.Context, orgID string) ([]string, error)
}

type Service struct {
	Store    StoreAPI
	Profiles ProfileAPI
	Now      func() time.Time
}

func NewService(store StoreAPI, profiles ProfileAPI) *Service {
	return &Service{Store: store, Profiles: profiles, Now: time.Now}
}

// CreateRequest validates notice and balance before reserving the days.
func (s *Service) CreateRequest(ctx context.Context, orgID, profileID string, input CreateRequestInput) (Request, error) {
	if input.EndDate.Before(input.StartDate) {
		return Request{}, ErrInvalidDateRange
	}
	if input.StartDate.Year() != input.EndDate.Year() {
		return Request{}, ErrCrossYearRequest
	}

	policy, err := s.Store.GetPolicy(ctx, orgID, input.PolicyID)
	if err != nil {
		return Request{}, err
	}
	if !policy.IsActive {
		return Request{}, ErrPolicyInactive
	}

	now := s.Now()
	if policy.MinNoticeDays > 0 {
		earliest := now.AddDate(0, 0, policy.MinNoticeDays)
		if input.StartDate.Before(earliest) {
			return Request{}, ErrInsufficientNotice
		}
	}

	days := float64(DaysInclusive(input.StartDate, input.EndDate))
	year := input.StartDate.Year()

	balance, err := s.Store.GetBalance(ctx, orgID, profileID, input.PolicyID, year)
	if err != nil {
		return Request{}, err
	}
	if balance.Available() < days {
		return Request{}, ErrInsufficientBalance
	}

	req, err := s.Store.CreateRequest(ctx, orgID, profileID, input, days, year)
	if err != nil {
		return Request{}, err
	}
	// Policies that skip the approval step settle immediately.
	if !policy.RequiresApproval {
		return s.Store.ResolveRequest(ctx, orgID, req.ID, RequestApproved, nil)
	}
	return req, nil
}

func (s *Service) Approve(ctx context.Context, orgID, id, approverID string) (Request, error) {
	return s.Store.ResolveRequest(ctx, orgID, id, RequestApproved, &approverID)
}

func (s *Service) Reject(ctx context.Context, orgID, id, approverID string) (Request, error) {
	return s.Store.ResolveRequest(ctx, orgID, id, RequestRejected, &approverID)
}

// Cancel lets the requester withdraw their own pending request.
func (s *Service) Cancel(ctx context.Context, orgID, id, profileID string) (Request, error) {
	req, err := s.Store.GetRequest(ctx, orgID, id)
	if err != nil {
		return Request{}, err
	}
	if req.ProfileID != profileID {
		return Request{}, ErrNotFound
	}
	return s.Store.ResolveRequest(ctx, orgID, id, RequestCancelled, nil)
}
