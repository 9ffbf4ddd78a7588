package swaps

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const swapColumns = `id, organization_id, requester_id, target_id, requester_shift_id, target_shift_id,
  status, notes, resolved_by, created_at, updated_at`

func scanSwap(row pgx.Row) (SwapRequest, error) {
	var sw SwapRequest
	err := row.Scan(&sw.ID, &sw.OrgID, &sw.RequesterProfileID, &sw.TargetProfileID,
		&sw.RequesterShiftID, &sw.TargetShiftID, &sw.Status, &sw.Notes,
		&sw.ResolvedBy, &sw.CreatedAt, &sw.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return sw, ErrNotFound
	}
	return sw, err
}

func (s *Store) Create(ctx context.Context, orgID, requesterID string, input CreateSwapInput) (SwapRequest, error) {
	return scanSwap(s.DB.QueryRow(ctx, `
    INSERT INTO shift_swaps (organization_id, requester_id, target_id, requester_shift_id, target_shift_id, status, notes)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+swapColumns,
		orgID, requesterID, input.TargetProfileID, input.RequesterShiftID, input.TargetShiftID, StatusPending, input.Notes))
}

func (s *Store) Get(ctx context.Context, orgID, id string) (SwapRequest, error) {
	return scanSwap(s.DB.QueryRow(ctx,
		`SELECT `+swapColumns+` FROM shift_swaps WHERE organization_id = $1 AND id = $2`, orgID, id))
}

func (s *Store) List(ctx context.Context, orgID, status, profileID string, limit, offset int) ([]SwapRequest, int, error) {
	query := `SELECT ` + swapColumns + ` FROM shift_swaps WHERE organization_id = $1`
	countQuery := `SELECT COUNT(1) FROM shift_swaps WHERE organization_id = $1`
	args := []any{orgID}

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		countQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}
	if profileID != "" {
		clause := fmt.Sprintf(" AND (requester_id = $%d OR target_id = $%d)", len(args)+1, len(args)+1)
		query += clause
		countQuery += clause
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

	var out []SwapRequest
	for rows.Next() {
		sw, err := scanSwap(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, sw)
	}
	return out, total, rows.Err()
}

// UpdateStatus moves a swap from one status to another. The expected
// current status is part of the WHERE clause so concurrent updates
// cannot double-process a request.
func (s *Store) UpdateStatus(ctx context.Context, orgID, id, fromStatus, toStatus string, resolvedBy *string) (SwapRequest, error) {
	sw, err := scanSwap(s.DB.QueryRow(ctx, `
    UPDATE shift_swaps
    SET status = $4, resolved_by = COALESCE($5, resolved_by), updated_at = now()
    WHERE organization_id = $1 AND id = $2 AND status = $3
    RETURNING `+swapColumns,
		orgID, id, fromStatus, toStatus, resolvedBy))
	if errors.Is(err, ErrNotFound) {
		// The row exists but is no longer in fromStatus, or never existed.
		if _, getErr := s.Get(ctx, orgID, id); getErr == nil {
			return sw, ErrAlreadyProcessed
		}
		return sw, ErrNotFound
	}
	return sw, err
}

// Approve finalizes a swap and reassigns the shifts in one transaction.
// With a target shift the two assignments are exchanged; without one the
// requester's shift moves to the target.
func (s *Store) Approve(ctx context.Context, orgID, id, fromStatus string, resolvedBy string) (SwapRequest, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return SwapRequest{}, err
	}
	defer tx.Rollback(ctx)

	sw, err := scanSwap(tx.QueryRow(ctx, `
    UPDATE shift_swaps
    SET status = $4, resolved_by = $5, updated_at = now()
    WHERE organization_id = $1 AND id = $2 AND status = $3
    RETURNING `+swapColumns,
		orgID, id, fromStatus, StatusApproved, resolvedBy))
	if errors.Is(err, ErrNotFound) {
		if _, getErr := s.Get(ctx, orgID, id); getErr == nil {
			return sw, ErrAlreadyProcessed
		}
		return sw, ErrNotFound
	}
	if err != nil {
		return sw, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE shifts SET user_id = $3 WHERE organization_id = $1 AND id = $2`,
		orgID, sw.RequesterShiftID, sw.TargetProfileID); err != nil {
		return sw, err
	}
	if sw.TargetShiftID != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE shifts SET user_id = $3 WHERE organization_id = $1 AND id = $2`,
			orgID, *sw.TargetShiftID, sw.RequesterProfileID); err != nil {
			return sw, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return sw, err
	}
	return sw, nil
}
