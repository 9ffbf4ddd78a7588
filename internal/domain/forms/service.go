package forms

import (
	"context"
	"errors"
)

var ErrTemplateInactive = errors.New("form template is not active")

// ValidationError carries the per-field problems of a rejected payload.
type ValidationError struct {
	Problems map[string]string
}

func (e *ValidationError) Error() string {
	return "form validation failed"
}

type StoreAPI interface {
	CreateTemplate(ctx context.Context, orgID, name string, fields []Field) (Template, error)
	UpdateTemplate(ctx context.Context, orgID, id, name string, fields []Field, isActive bool) (Template, error)
	GetTemplate(ctx context.Context, orgID, id string) (Template, error)
	ListTemplates(ctx context.Context, orgID string) ([]Template, error)
	DeleteTemplate(ctx context.Context, orgID, id string) error
	CreateSubmission(ctx context.Context, orgID, templateID, profileID string, answers map[string]any) (Submission, error)
	GetSubmission(ctx context.Context, orgID, id string) (Submission, error)
	ListSubmissions(ctx context.Context, orgID, templateID, profileID string, limit, offset int) ([]Submission, int, error)
}

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) CreateTemplate(ctx context.Context, orgID, name string, fields []Field) (Template, error) {
	if problems := ValidateTemplate(fields); problems != nil {
		return Template{}, &ValidationError{Problems: problems}
	}
	return s.Store.CreateTemplate(ctx, orgID, name, fields)
}

func (s *Service) UpdateTemplate(ctx context.Context, orgID, id, name string, fields []Field, isActive bool) (Template, error) {
	if problems := ValidateTemplate(fields); problems != nil {
		return Template{}, &ValidationError{Problems: problems}
	}
	return s.Store.UpdateTemplate(ctx, orgID, id, name, fields, isActive)
}

// Submit validates the answers against the template schema and stores
// the submission.
func (s *Service) Submit(ctx context.Context, orgID, templateID, profileID string, answers map[string]any) (Submission, error) {
	template, err := s.Store.GetTemplate(ctx, orgID, templateID)
	if err != nil {
		return Submission{}, err
	}
	if !template.IsActive {
		return Submission{}, ErrTemplateInactive
	}
	if problems := ValidateAnswers(template, answers); problems != nil {
		return Submission{}, &ValidationError{Problems: problems}
	}
	return s.Store.CreateSubmission(ctx, orgID, templateID, profileID, answers)
}
