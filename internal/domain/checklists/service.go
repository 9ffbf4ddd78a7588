package checklists

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnknownItem         = errors.New("item is not part of this checklist")
	ErrNotYourAssignment   = errors.New("assignment belongs to someone else")
	ErrAlreadyCompleted    = errors.New("assignment is already completed")
	ErrRequiredItemsRemain = errors.New("required items are not done yet")
	ErrChecklistInactive   = errors.New("checklist is not active")
)

type StoreAPI interface {
	Create(ctx context.Context, orgID, name string, items []Item) (Checklist, error)
	Update(ctx context.Context, orgID, id, name string, items []Item, isActive bool) (Checklist, error)
	Get(ctx context.Context, orgID, id string) (Checklist, error)
	List(ctx context.Context, orgID string) ([]Checklist, error)
	Delete(ctx context.Context, orgID, id string) error
	Assign(ctx context.Context, orgID, checklistID, profileID string, locationID *string, dueDate time.Time) (Assignment, error)
	GetAssignment(ctx context.Context, orgID, id string) (Assignment, error)
	ListAssignments(ctx context.Context, orgID, profileID, status string, limit, offset int) ([]Assignment, int, error)
	SaveProgress(ctx context.Context, orgID, id string, completedItems []string, status string, completedAt *time.Time) (Assignment, error)
}

type Service struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, Now: time.Now}
}

// Assign hands a checklist to a profile. Inactive checklists cannot be
// assigned.
func (s *Service) Assign(ctx context.Context, orgID, checklistID, profileID string, locationID *string, dueDate time.Time) (Assignment, error) {
	checklist, err := s.Store.Get(ctx, orgID, checklistID)
	if err != nil {
		return Assignment{}, err
	}
	if !checklist.IsActive {
		return Assignment{}, ErrChecklistInactive
	}
	return s.Store.Assign(ctx, orgID, checklistID, profileID, locationID, dueDate)
}

// ToggleItem checks or unchecks a single item on the caller's assignment.
func (s *Service) ToggleItem(ctx context.Context, orgID, assignmentID, profileID, itemKey string, done bool) (Assignment, error) {
	assignment, err := s.Store.GetAssignment(ctx, orgID, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	if assignment.ProfileID != profileID {
		return Assignment{}, ErrNotYourAssignment
	}
	if assignment.Status == AssignmentCompleted {
		return Assignment{}, ErrAlreadyCompleted
	}

	checklist, err := s.Store.Get(ctx, orgID, assignment.ChecklistID)
	if err != nil {
		return Assignment{}, err
	}
	if !itemExists(checklist, itemKey) {
		return Assignment{}, ErrUnknownItem
	}

	completed := make([]string, 0, len(assignment.CompletedItems)+1)
	for _, key := range assignment.CompletedItems {
		if key != itemKey {
			completed = append(completed, key)
		}
	}
	if done {
		completed = append(completed, itemKey)
	}

	status := AssignmentPending
	if len(completed) > 0 {
		status = AssignmentInProgress
	}
	return s.Store.SaveProgress(ctx, orgID, assignmentID, completed, status, nil)
}

// Complete finishes an assignment once every required item is checked.
func (s *Service) Complete(ctx context.Context, orgID, assignmentID, profileID string) (Assignment, error) {
	assignment, err := s.Store.GetAssignment(ctx, orgID, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	if assignment.ProfileID != profileID {
		return Assignment{}, ErrNotYourAssignment
	}
	if assignment.Status == AssignmentCompleted {
		return Assignment{}, ErrAlreadyCompleted
	}

	checklist, err := s.Store.Get(ctx, orgID, assignment.ChecklistID)
	if err != nil {
		return Assignment{}, err
	}
	if missing := MissingRequired(checklist, assignment); len(missing) > 0 {
		return Assignment{}, ErrRequiredItemsRemain
	}

	now := s.Now()
	return s.Store.SaveProgress(ctx, orgID, assignmentID, assignment.CompletedItems, AssignmentCompleted, &now)
}

func itemExists(checklist Checklist, key string) bool {
	for _, item := range checklist.Items {
		if item.Key == key {
			return true
		}
	}
	return false
}
