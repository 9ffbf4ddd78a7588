package timesheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicatePeriod   = errors.New("a timesheet already exists for this period")
	ErrInvalidTransition = errors.New("invalid timesheet transition")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const sheetColumns = `id, organization_id, profile_id, period_start, period_end, status,
  worked_minutes, regular_minutes, overtime_minutes, break_minutes, lines, resolved_by, note, created_at, updated_at`

func scanSheet(row pgx.Row) (Timesheet, error) {
	var ts Timesheet
	var lines []byte
	err := row.Scan(&ts.ID, &ts.OrgID, &ts.ProfileID, &ts.PeriodStart, &ts.PeriodEnd, &ts.Status,
		&ts.WorkedMinutes, &ts.RegularMinutes, &ts.OvertimeMinutes, &ts.BreakMinutes,
		&lines, &ts.ResolvedBy, &ts.Note, &ts.CreatedAt, &ts.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ts, ErrNotFound
	}
	if err != nil {
		return ts, err
	}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &ts.Lines); err != nil {
			return ts, fmt.Errorf("decode timesheet lines: %w", err)
		}
	}
	return ts, nil
}

func (s *Store) Create(ctx context.Context, ts Timesheet) (Timesheet, error) {
	lines, err := json.Marshal(ts.Lines)
	if err != nil {
		return Timesheet{}, fmt.Errorf("encode timesheet lines: %w", err)
	}
	created, err := scanSheet(s.DB.QueryRow(ctx, `
    INSERT INTO timesheets (organization_id, profile_id, period_start, period_end, status,
                            worked_minutes, regular_minutes, overtime_minutes, break_minutes, lines)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING `+sheetColumns,
		ts.OrgID, ts.ProfileID, ts.PeriodStart, ts.PeriodEnd, ts.Status,
		ts.WorkedMinutes, ts.RegularMinutes, ts.OvertimeMinutes, ts.BreakMinutes, lines))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Timesheet{}, ErrDuplicatePeriod
	}
	return created, err
}

func (s *Store) Get(ctx context.Context, orgID, id string) (Timesheet, error) {
	return scanSheet(s.DB.QueryRow(ctx,
		`SELECT `+sheetColumns+` FROM timesheets WHERE organization_id = $1 AND id = $2`, orgID, id))
}

func (s *Store) List(ctx context.Context, orgID, profileID, status string, limit, offset int) ([]Timesheet, int, error) {
	query := `SELECT ` + sheetColumns + ` FROM timesheets WHERE organization_id = $1`
	countQuery := `SELECT COUNT(1) FROM timesheets WHERE organization_id = $1`
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

	query += fmt.Sprintf(" ORDER BY period_start DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Timesheet
	for rows.Next() {
		ts, err := scanSheet(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ts)
	}
	return out, total, rows.Err()
}

// UpdateStatus moves a timesheet along draft -> submitted -> approved or
// rejected. The expected current status guards against double processing.
func (s *Store) UpdateStatus(ctx context.Context, orgID, id, fromStatus, toStatus, note string, resolvedBy *string) (Timesheet, error) {
	ts, err := scanSheet(s.DB.QueryRow(ctx, `
    UPDATE timesheets
    SET status = $4, note = $5, resolved_by = COALESCE($6, resolved_by), updated_at = now()
    WHERE organization_id = $1 AND id = $2 AND status = $3
    RETURNING `+sheetColumns,
		orgID, id, fromStatus, toStatus, note, resolvedBy))
	if errors.Is(err, ErrNotFound) {
		if _, getErr := s.Get(ctx, orgID, id); getErr == nil {
			return ts, ErrInvalidTransition
		}
		return ts, ErrNotFound
	}
	return ts, err
}

func (s *Store) Delete(ctx context.Context, orgID, id string) error {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM timesheets WHERE organization_id = $1 AND id = $2 AND status = $3`, orgID, id, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
