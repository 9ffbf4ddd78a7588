package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	var fields []byte
	err := row.Scan(&t.ID, &t.OrgID, &t.Name, &fields, &t.IsActive, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &t.Fields); err != nil {
			return t, fmt.Errorf("decode template fields: %w", err)
		}
	}
	return t, nil
}

func (s *Store) CreateTemplate(ctx context.Context, orgID, name string, fields []Field) (Template, error) {
	encoded, err := json.Marshal(fields)
	if err != nil {
		return Template{}, fmt.Errorf("encode template fields: %w", err)
	}
	return scanTemplate(s.DB.QueryRow(ctx, `
    INSERT INTO form_templates (organization_id, name, fields, is_active)
    VALUES ($1,$2,$3,true)
    RETURNING id, organization_id, name, fields, is_active, created_at
  `, orgID, name, encoded))
}

func (s *Store) UpdateTemplate(ctx context.Context, orgID, id, name string, fields []Field, isActive bool) (Template, error) {
	encoded, err := json.Marshal(fields)
	if err != nil {
		return Template{}, fmt.Errorf("encode template fields: %w", err)
	}
	return scanTemplate(s.DB.QueryRow(ctx, `
    UPDATE form_templates SET name = $3, fields = $4, is_active = $5
    WHERE organization_id = $1 AND id = $2
    RETURNING id, organization_id, name, fields, is_active, created_at
  `, orgID, id, name, encoded, isActive))
}

func (s *Store) GetTemplate(ctx context.Context, orgID, id string) (Template, error) {
	return scanTemplate(s.DB.QueryRow(ctx, `
    SELECT id, organization_id, name, fields, is_active, created_at
    FROM form_templates WHERE organization_id = $1 AND id = $2
  `, orgID, id))
}

func (s *Store) ListTemplates(ctx context.Context, orgID string) ([]Template, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, organization_id, name, fields, is_active, created_at
    FROM form_templates WHERE organization_id = $1 ORDER BY name
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) DeleteTemplate(ctx context.Context, orgID, id string) error {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM form_templates WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSubmission(row pgx.Row) (Submission, error) {
	var sub Submission
	var answers []byte
	err := row.Scan(&sub.ID, &sub.OrgID, &sub.TemplateID, &sub.ProfileID, &answers, &sub.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return sub, ErrNotFound
	}
	if err != nil {
		return sub, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &sub.Answers); err != nil {
			return sub, fmt.Errorf("decode submission answers: %w", err)
		}
	}
	return sub, nil
}

func (s *Store) CreateSubmission(ctx context.Context, orgID, templateID, profileID string, answers map[string]any) (Submission, error) {
	encoded, err := json.Marshal(answers)
	if err != nil {
		return Submission{}, fmt.Errorf("encode submission answers: %w", err)
	}
	return scanSubmission(s.DB.QueryRow(ctx, `
    INSERT INTO form_submissions (organization_id, template_id, profile_id, answers)
    VALUES ($1,$2,$3,$4)
    RETURNING id, organization_id, template_id, profile_id, answers, created_at
  `, orgID, templateID, profileID, encoded))
}

func (s *Store) GetSubmission(ctx context.Context, orgID, id string) (Submission, error) {
	return scanSubmission(s.DB.QueryRow(ctx, `
    SELECT id, organization_id, template_id, profile_id, answers, created_at
    FROM form_submissions WHERE organization_id = $1 AND id = $2
  `, orgID, id))
}

func (s *Store) ListSubmissions(ctx context.Context, orgID, templateID, profileID string, limit, offset int) ([]Submission, int, error) {
	query := `SELECT id, organization_id, template_id, profile_id, answers, created_at
    FROM form_submissions WHERE organization_id = $1`
	countQuery := `SELECT COUNT(1) FROM form_submissions WHERE organization_id = $1`
	args := []any{orgID}

	if templateID != "" {
		query += fmt.Sprintf(" AND template_id = $%d", len(args)+1)
		countQuery += fmt.Sprintf(" AND template_id = $%d", len(args)+1)
		args = append(args, templateID)
	}
	if profileID != "" {
		query += fmt.Sprintf(" AND profile_id = $%d", len(args)+1)
		countQuery += fmt.Sprintf(" AND profile_id = $%d", len(args)+1)
		args = append(args, profileID)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, sub)
	}
	return out, total, rows.Err()
}
