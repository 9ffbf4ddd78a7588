package pto

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePTOStore struct {
	policies  []Policy
	balances  map[string]Balance
	requests  map[string]Request
	initErrOn map[string]bool
}

func newFakePTOStore(policies ...Policy) *fakePTOStore {
	return &fakePTOStore{
		policies:  policies,
		balances:  map[string]Balance{},
		requests:  map[string]Request{},
		initErrOn: map[string]bool{},
	}
}

func balanceKey(profileID, policyID string, year int) string {
	return profileID + "/" + policyID + "/" + time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
}

func (f *fakePTOStore) CreatePolicy(ctx context.Context, orgID string, p Policy) (Policy, error) {
	return p, nil
}

func (f *fakePTOStore) UpdatePolicy(ctx context.Context, orgID, id string, p Policy) (Policy, error) {
	return p, nil
}

func (f *fakePTOStore) GetPolicy(ctx context.Context, orgID, id string) (Policy, error) {
	for _, p := range f.policies {
		if p.ID == id {
			return p, nil
		}
	}
	return Policy{}, ErrNotFound
}

func (f *fakePTOStore) ListPolicies(ctx context.Context, orgID string) ([]Policy, error) {
	return f.policies, nil
}

func (f *fakePTOStore) ActivePolicies(ctx context.Context, orgID string, ids []string) ([]Policy, error) {
	var out []Policy
	for _, p := range f.policies {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePTOStore) InitBalance(ctx context.Context, b Balance, overwrite bool) (string, error) {
	key := balanceKey(b.ProfileID, b.PolicyID, b.Year)
	if f.initErrOn[key] {
		return "", errors.New("boom")
	}
	if existing, ok := f.balances[key]; ok {
		if !overwrite {
			return actionSkipped, nil
		}
		existing.AllowedDays = b.AllowedDays
		f.balances[key] = existing
		return actionUpdated, nil
	}
	f.balances[key] = b
	return actionCreated, nil
}

func (f *fakePTOStore) GetBalance(ctx context.Context, orgID, profileID, policyID string, year int) (Balance, error) {
	b, ok := f.balances[balanceKey(profileID, policyID, year)]
	if !ok {
		return Balance{}, ErrNotFound
	}
	return b, nil
}

func (f *fakePTOStore) ListBalances(ctx context.Context, orgID, profileID string, year int) ([]Balance, error) {
	return nil, nil
}

func (f *fakePTOStore) AdjustBalance(ctx context.Context, orgID, balanceID string, deltaDays float64) (Balance, error) {
	return Balance{}, nil
}

func (f *fakePTOStore) CreateRequest(ctx context.Context, orgID, profileID string, input CreateRequestInput, days float64, year int) (Request, error) {
	req := Request{
		ID: "req-1", OrgID: orgID, ProfileID: profileID, PolicyID: input.PolicyID,
		StartDate: input.StartDate, EndDate: input.EndDate, Days: days, Status: RequestPending,
	}
	f.requests[req.ID] = req
	key := balanceKey(profileID, input.PolicyID, year)
	b := f.balances[key]
	b.PendingDays += days
	f.balances[key] = b
	return req, nil
}

func (f *fakePTOStore) GetRequest(ctx context.Context, orgID, id string) (Request, error) {
	req, ok := f.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (f *fakePTOStore) ListRequests(ctx context.Context, orgID, profileID, status string, limit, offset int) ([]Request, int, error) {
	return nil, 0, nil
}

func (f *fakePTOStore) ResolveRequest(ctx context.Context, orgID, id, toStatus string, resolvedBy *string) (Request, error) {
	req, ok := f.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	if req.Status != RequestPending {
		return Request{}, ErrAlreadyProcessed
	}
	req.Status = toStatus
	f.requests[id] = req
	return req, nil
}

type fakeProfiles struct {
	ids []string
}

func (f *fakeProfiles) ActiveProfileIDs(ctx context.Context, orgID string) ([]string, error) {
	return f.ids, nil
}

func activePolicy(id string, days float64) Policy {
	return Policy{ID: id, Name: id, PTOType: id, DaysPerYear: days, RequiresApproval: true, IsActive: true}
}

func TestInitializeBalancesCrossProduct(t *testing.T) {
	store := newFakePTOStore(activePolicy("vacation", 25), activePolicy("sick", 10))
	svc := NewService(store, &fakeProfiles{ids: []string{"a", "b", "c"}})

	result, err := svc.InitializeBalances(context.Background(), "org-1", InitializeInput{Year: time.Now().Year()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 6 || result.Updated != 0 || result.Skipped != 0 {
		t.Fatalf("expected 6 created, got %+v", result)
	}
}

func TestInitializeBalancesSkipAndOverwrite(t *testing.T) {
	year := time.Now().Year()
	store := newFakePTOStore(activePolicy("vacation", 25))
	profiles := &fakeProfiles{ids: []string{"a", "b"}}
	svc := NewService(store, profiles)

	if _, err := svc.InitializeBalances(context.Background(), "org-1", InitializeInput{Year: year}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.InitializeBalances(context.Background(), "org-1", InitializeInput{Year: year})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Skipped != 2 || result.Created != 0 {
		t.Fatalf("expected 2 skipped, got %+v", result)
	}

	result, err = svc.InitializeBalances(context.Background(), "org-1", InitializeInput{Year: year, Overwrite: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Updated != 2 {
		t.Fatalf("expected 2 updated, got %+v", result)
	}
}

func TestInitializeBalancesCollectsItemErrors(t *testing.T) {
	year := time.Now().Year()
	store := newFakePTOStore(activePolicy("vacation", 25))
	store.initErrOn[balanceKey("b", "vacation", year)] = true
	svc := NewService(store, &fakeProfiles{ids: []string{"a", "b", "c"}})

	result, err := svc.InitializeBalances(context.Background(), "org-1", InitializeInput{Year: year})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 2 || len(result.Errors) != 1 {
		t.Fatalf("expected 2 created and 1 error, got %+v", result)
	}
	if result.Errors[0].ProfileID != "b" {
		t.Fatalf("unexpected error item: %+v", result.Errors[0])
	}
}

func TestInitializeBalancesYearValidation(t *testing.T) {
	svc := NewService(newFakePTOStore(activePolicy("vacation", 25)), &fakeProfiles{ids: []string{"a"}})

	_, err := svc.InitializeBalances(context.Background(), "org-1", InitializeInput{Year: time.Now().Year() + 2})
	if !errors.Is(err, ErrYearOutOfRange) {
		t.Fatalf("expected ErrYearOutOfRange, got %v", err)
	}
}

func TestChunkItems(t *testing.T) {
	items := make([]initItem, 2500)
	chunks := chunkItems(items, 1000)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1000 || len(chunks[2]) != 500 {
		t.Fatalf("unexpected chunk sizes: %d %d %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}
