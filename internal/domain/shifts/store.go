package shifts

import (
	"context"
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

const shiftColumns = `id, organization_id, user_id, location_id, position, start_time, end_time, notes, published, repeat_parent_id, created_at`

func scanShift(row pgx.Row) (Shift, error) {
	var s Shift
	err := row.Scan(&s.ID, &s.OrgID, &s.ProfileID, &s.LocationID, &s.Position,
		&s.StartTime, &s.EndTime, &s.Notes, &s.Published, &s.RepeatParentID, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

func (s *Store) Create(ctx context.Context, orgID string, input CreateShiftInput) (Shift, error) {
	return scanShift(s.DB.QueryRow(ctx, `
    INSERT INTO shifts (organization_id, user_id, location_id, position, start_time, end_time, notes, published, repeat_parent_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+shiftColumns,
		orgID, input.ProfileID, input.LocationID, input.Position,
		input.StartTime, input.EndTime, input.Notes, input.Published, input.RepeatParentID))
}

func (s *Store) Get(ctx context.Context, orgID, id string) (Shift, error) {
	return scanShift(s.DB.QueryRow(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE organization_id = $1 AND id = $2`, orgID, id))
}

func (s *Store) Update(ctx context.Context, orgID, id string, input CreateShiftInput) (Shift, error) {
	return scanShift(s.DB.QueryRow(ctx, `
    UPDATE shifts
    SET user_id = $3, location_id = $4, position = $5, start_time = $6, end_time = $7, notes = $8, published = $9
    WHERE organization_id = $1 AND id = $2
    RETURNING `+shiftColumns,
		orgID, id, input.ProfileID, input.LocationID, input.Position,
		input.StartTime, input.EndTime, input.Notes, input.Published))
}

func (s *Store) Delete(ctx context.Context, orgID, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM shifts WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, orgID string, filter ListFilter) ([]Shift, int, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE organization_id = $1`
	countQuery := `SELECT COUNT(1) FROM shifts WHERE organization_id = $1`
	args := []any{orgID}

	addClause := func(clause string, value any) {
		query += fmt.Sprintf(clause, len(args)+1)
		countQuery += fmt.Sprintf(clause, len(args)+1)
		args = append(args, value)
	}
	if filter.ProfileID != "" {
		addClause(" AND user_id = $%d", filter.ProfileID)
	}
	if filter.LocationID != "" {
		addClause(" AND location_id = $%d", filter.LocationID)
	}
	if !filter.From.IsZero() {
		addClause(" AND start_time >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		addClause(" AND start_time < $%d", filter.To)
	}
	if filter.Published != nil {
		addClause(" AND published = $%d", *filter.Published)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY start_time LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Shift
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, shift)
	}
	return out, total, rows.Err()
}

// GetByIDs returns the shifts for the given ids. When any id is missing
// from the organization it returns ErrNotFound so bulk operations are
// all-or-nothing.
func (s *Store) GetByIDs(ctx context.Context, orgID string, ids []string) ([]Shift, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE organization_id = $1 AND id = ANY($2)`, orgID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Shift
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) != len(ids) {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *Store) BulkPublish(ctx context.Context, orgID string, ids []string, published bool) (int, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE shifts SET published = $3 WHERE organization_id = $1 AND id = ANY($2)`, orgID, ids, published)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) BulkDelete(ctx context.Context, orgID string, ids []string) (int, error) {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM shifts WHERE organization_id = $1 AND id = ANY($2)`, orgID, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// BulkInsert writes a batch of copied shifts in a single transaction.
func (s *Store) BulkInsert(ctx context.Context, orgID string, batch []Shift) ([]Shift, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	out := make([]Shift, 0, len(batch))
	for _, shift := range batch {
		inserted, err := scanShift(tx.QueryRow(ctx, `
      INSERT INTO shifts (organization_id, user_id, location_id, position, start_time, end_time, notes, published, repeat_parent_id)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
      RETURNING `+shiftColumns,
			orgID, shift.ProfileID, shift.LocationID, shift.Position,
			shift.StartTime, shift.EndTime, shift.Notes, shift.Published, shift.RepeatParentID))
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}


