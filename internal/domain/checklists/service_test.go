package checklists

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeChecklistStore struct {
	checklists  map[string]Checklist
	assignments map[string]Assignment
}

func newFakeChecklistStore() *fakeChecklistStore {
	return &fakeChecklistStore{
		checklists:  map[string]Checklist{},
		assignments: map[string]Assignment{},
	}
}

func (f *fakeChecklistStore) Create(ctx context.Context, orgID, name string, items []Item) (Checklist, error) {
	c := Checklist{ID: name, OrgID: orgID, Name: name, Items: items, IsActive: true}
	f.checklists[c.ID] = c
	return c, nil
}

func (f *fakeChecklistStore) Update(ctx context.Context, orgID, id, name string, items []Item, isActive bool) (Checklist, error) {
	c, ok := f.checklists[id]
	if !ok {
		return Checklist{}, ErrNotFound
	}
	c.Name, c.Items, c.IsActive = name, items, isActive
	f.checklists[id] = c
	return c, nil
}

func (f *fakeChecklistStore) Get(ctx context.Context, orgID, id string) (Checklist, error) {
	c, ok := f.checklists[id]
	if !ok {
		return Checklist{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeChecklistStore) List(ctx context.Context, orgID string) ([]Checklist, error) {
	return nil, nil
}

func (f *fakeChecklistStore) Delete(ctx context.Context, orgID, id string) error { return nil }

func (f *fakeChecklistStore) Assign(ctx context.Context, orgID, checklistID, profileID string, locationID *string, dueDate time.Time) (Assignment, error) {
	a := Assignment{ID: "assign-1", OrgID: orgID, ChecklistID: checklistID, ProfileID: profileID, DueDate: dueDate, Status: AssignmentPending}
	f.assignments[a.ID] = a
	return a, nil
}

func (f *fakeChecklistStore) GetAssignment(ctx context.Context, orgID, id string) (Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return Assignment{}, ErrNotFound
	}
	return a, nil
}

func (f *fakeChecklistStore) ListAssignments(ctx context.Context, orgID, profileID, status string, limit, offset int) ([]Assignment, int, error) {
	return nil, 0, nil
}

func (f *fakeChecklistStore) SaveProgress(ctx context.Context, orgID, id string, completedItems []string, status string, completedAt *time.Time) (Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return Assignment{}, ErrNotFound
	}
	a.CompletedItems, a.Status, a.CompletedAt = completedItems, status, completedAt
	f.assignments[id] = a
	return a, nil
}

func openingChecklist() Checklist {
	return Checklist{
		ID:       "opening",
		Name:     "Opening",
		IsActive: true,
		Items: []Item{
			{Key: "unlock", Label: "Unlock doors", Required: true},
			{Key: "lights", Label: "Turn on lights", Required: true},
			{Key: "music", Label: "Start playlist"},
		},
	}
}

func checklistFixture() (*Service, *fakeChecklistStore) {
	store := newFakeChecklistStore()
	store.checklists["opening"] = openingChecklist()
	store.assignments["assign-1"] = Assignment{
		ID: "assign-1", ChecklistID: "opening", ProfileID: "alice", Status: AssignmentPending,
	}
	return NewService(store), store
}

func TestToggleItem(t *testing.T) {
	svc, _ := checklistFixture()

	a, err := svc.ToggleItem(context.Background(), "org-1", "assign-1", "alice", "unlock", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != AssignmentInProgress || len(a.CompletedItems) != 1 {
		t.Fatalf("unexpected assignment: %+v", a)
	}

	a, err = svc.ToggleItem(context.Background(), "org-1", "assign-1", "alice", "unlock", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != AssignmentPending || len(a.CompletedItems) != 0 {
		t.Fatalf("unexpected assignment after uncheck: %+v", a)
	}
}

func TestToggleItemGuards(t *testing.T) {
	svc, store := checklistFixture()

	if _, err := svc.ToggleItem(context.Background(), "org-1", "assign-1", "bob", "unlock", true); !errors.Is(err, ErrNotYourAssignment) {
		t.Fatalf("expected ErrNotYourAssignment, got %v", err)
	}
	if _, err := svc.ToggleItem(context.Background(), "org-1", "assign-1", "alice", "missing", true); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}

	a := store.assignments["assign-1"]
	a.Status = AssignmentCompleted
	store.assignments["assign-1"] = a
	if _, err := svc.ToggleItem(context.Background(), "org-1", "assign-1", "alice", "unlock", true); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestCompleteRequiresRequiredItems(t *testing.T) {
	svc, store := checklistFixture()

	if _, err := svc.Complete(context.Background(), "org-1", "assign-1", "alice"); !errors.Is(err, ErrRequiredItemsRemain) {
		t.Fatalf("expected ErrRequiredItemsRemain, got %v", err)
	}

	a := store.assignments["assign-1"]
	a.CompletedItems = []string{"unlock", "lights"}
	store.assignments["assign-1"] = a

	done, err := svc.Complete(context.Background(), "org-1", "assign-1", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.Status != AssignmentCompleted || done.CompletedAt == nil {
		t.Fatalf("unexpected assignment: %+v", done)
	}
}

func TestAssignInactiveChecklist(t *testing.T) {
	svc, store := checklistFixture()
	c := store.checklists["opening"]
	c.IsActive = false
	store.checklists["opening"] = c

	_, err := svc.Assign(context.Background(), "org-1", "opening", "alice", nil, time.Now())
	if !errors.Is(err, ErrChecklistInactive) {
		t.Fatalf("expected ErrChecklistInactive, got %v", err)
	}
}

func TestProgress(t *testing.T) {
	checklist := openingChecklist()
	assignment := Assignment{CompletedItems: []string{"unlock", "music"}}

	done, total := Progress(checklist, assignment)
	if done != 2 || total != 3 {
		t.Fatalf("expected 2/3, got %d/%d", done, total)
	}

	missing := MissingRequired(checklist, assignment)
	if len(missing) != 1 || missing[0] != "lights" {
		t.Fatalf("expected lights missing, got %v", missing)
	}
}
