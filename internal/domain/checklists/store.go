package checklists

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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

func scanChecklist(row pgx.Row) (Checklist, error) {
	var c Checklist
	var items []byte
	err := row.Scan(&c.ID, &c.OrgID, &c.Name, &items, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &c.Items); err != nil {
			return c, fmt.Errorf("decode checklist items: %w", err)
		}
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, orgID, name string, items []Item) (Checklist, error) {
	encoded, err := json.Marshal(items)
	if err != nil {
		return Checklist{}, fmt.Errorf("encode checklist items: %w", err)
	}
	return scanChecklist(s.DB.QueryRow(ctx, `
    INSERT INTO checklists (organization_id, name, items, is_active)
    VALUES ($1,$2,$3,true)
    RETURNING id, organization_id, name, items, is_active, created_at
  `, orgID, name, encoded))
}

func (s *Store) Update(ctx context.Context, orgID, id, name string, items []Item, isActive bool) (Checklist, error) {
	encoded, err := json.Marshal(items)
	if err != nil {
		return Checklist{}, fmt.Errorf("encode checklist items: %w", err)
	}
	return scanChecklist(s.DB.QueryRow(ctx, `
    UPDATE checklists SET name = $3, items = $4, is_active = $5
    WHERE organization_id = $1 AND id = $2
    RETURNING id, organization_id, name, items, is_active, created_at
  `, orgID, id, name, encoded, isActive))
}

func (s *Store) Get(ctx context.Context, orgID, id string) (Checklist, error) {
	return scanChecklist(s.DB.QueryRow(ctx, `
    SELECT id, organization_id, name, items, is_active, created_at
    FROM checklists WHERE organization_id = $1 AND id = $2
  `, orgID, id))
}

func (s *Store) List(ctx context.Context, orgID string) ([]Checklist, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, organization_id, name, items, is_active, created_at
    FROM checklists WHERE organization_id = $1 ORDER BY name
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Checklist
	for rows.Next() {
		c, err := scanChecklist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, orgID, id string) error {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM checklists WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const assignmentColumns = `id, organization_id, checklist_id, profile_id, location_id, due_date,
  status, completed_items, completed_at, created_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.OrgID, &a.ChecklistID, &a.ProfileID, &a.LocationID, &a.DueDate,
		&a.Status, &a.CompletedItems, &a.CompletedAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

func (s *Store) Assign(ctx context.Context, orgID, checklistID, profileID string, locationID *string, dueDate time.Time) (Assignment, error) {
	return scanAssignment(s.DB.QueryRow(ctx, `
    INSERT INTO checklist_assignments (organization_id, checklist_id, profile_id, location_id, due_date, status, completed_items)
    VALUES ($1,$2,$3,$4,$5,$6,'{}')
    RETURNING `+assignmentColumns,
		orgID, checklistID, profileID, locationID, dueDate, AssignmentPending))
}

func (s *Store) GetAssignment(ctx context.Context, orgID, id string) (Assignment, error) {
	return scanAssignment(s.DB.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM checklist_assignments WHERE organization_id = $1 AND id = $2`, orgID, id))
}

func (s *Store) ListAssignments(ctx context.Context, orgID, profileID, status string, limit, offset int) ([]Assignment, int, error) {
	query := `SELECT ` + assignmentColumns + ` FROM checklist_assignments WHERE organization_id = $1`
	countQuery := `SELECT COUNT(1) FROM checklist_assignments WHERE organization_id = $1`
	args := []any{orgID}

	if profileID != "" {
		query += fmt.Sprintf(" AND profile_id = $%d", len(args)+1)
		countQuery += fmt.Sprintf(" AND profile_id = $%d", len(args)+1)
		args = append(args, profileID)
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		countQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY due_date LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// SaveProgress replaces the completed item set and status.
func (s *Store) SaveProgress(ctx context.Context, orgID, id string, completedItems []string, status string, completedAt *time.Time) (Assignment, error) {
	return scanAssignment(s.DB.QueryRow(ctx, `
    UPDATE checklist_assignments
    SET completed_items = $3, status = $4, completed_at = $5
    WHERE organization_id = $1 AND id = $2
    RETURNING `+assignmentColumns,
		orgID, id, completedItems, status, completedAt))
}
