package pto

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyProcessed = errors.New("request already processed")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const policyColumns = `id, organization_id, name, pto_type, days_per_year, accrual_rate, max_carryover,
  min_notice_days, requires_approval, is_active, created_at`

func scanPolicy(row pgx.Row) (Policy, error) {
	var p Policy
	err := row.Scan(&p.ID, &p.OrgID, &p.Name, &p.PTOType, &p.DaysPerYear, &p.AccrualRate, &p.MaxCarryover,
		&p.MinNoticeDays, &p.RequiresApproval, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (s *Store) CreatePolicy(ctx context.Context, orgID string, p Policy) (Policy, error) {
	return scanPolicy(s.DB.QueryRow(ctx, `
    INSERT INTO pto_policies (organization_id, name, pto_type, days_per_year, accrual_rate, max_carryover, min_notice_days, requires_approval, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+policyColumns,
		orgID, p.Name, p.PTOType, p.DaysPerYear, p.AccrualRate, p.MaxCarryover, p.MinNoticeDays, p.RequiresApproval, p.IsActive))
}

func (s *Store) UpdatePolicy(ctx context.Context, orgID, id string, p Policy) (Policy, error) {
	return scanPolicy(s.DB.QueryRow(ctx, `
    UPDATE pto_policies
    SET name = $3, pto_type = $4, days_per_year = $5, accrual_rate = $6, max_carryover = $7,
        min_notice_days = $8, requires_approval = $9, is_active = $10
    WHERE organization_id = $1 AND id = $2
    RETURNING `+policyColumns,
		orgID, id, p.Name, p.PTOType, p.DaysPerYear, p.AccrualRate, p.MaxCarryover,
		p.MinNoticeDays, p.RequiresApproval, p.IsActive))
}

func (s *Store) GetPolicy(ctx context.Context, orgID, id string) (Policy, error) {
	return scanPolicy(s.DB.QueryRow(ctx,
		`SELECT `+policyColumns+` FROM pto_policies WHERE organization_id = $1 AND id = $2`, orgID, id))
}

func (s *Store) ListPolicies(ctx context.Context, orgID string) ([]Policy, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+policyColumns+` FROM pto_policies WHERE organization_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ActivePolicies returns the active policies, optionally narrowed to ids.
func (s *Store) ActivePolicies(ctx context.Context, orgID string, ids []string) ([]Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM pto_policies WHERE organization_id = $1 AND is_active`
	args := []any{orgID}
	if len(ids) > 0 {
		query += ` AND id = ANY($2)`
		args = append(args, ids)
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InitBalance inserts a yearly balance row, reporting whether it was
// created, updated or skipped. Overwrite resets allowed days on an
// existing row but never touches used or pending days.
func (s *Store) InitBalance(ctx context.Context, b Balance, overwrite bool) (string, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO pto_balances (organization_id, profile_id, policy_id, pto_type, year, allowed_days)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (organization_id, profile_id, policy_id, year) DO NOTHING
  `, b.OrgID, b.ProfileID, b.PolicyID, b.PTOType, b.Year, b.AllowedDays)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() > 0 {
		return actionCreated, nil
	}
	if !overwrite {
		return actionSkipped, nil
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE pto_balances SET allowed_days = $5
    WHERE organization_id = $1 AND profile_id = $2 AND policy_id = $3 AND year = $4
  `, b.OrgID, b.ProfileID, b.PolicyID, b.Year, b.AllowedDays)
	if err != nil {
		return "", err
	}
	return actionUpdated, nil
}

const balanceColumns = `id, organization_id, profile_id, policy_id, pto_type, year,
  allowed_days, used_days, pending_days, carryover_days, adjustment_days`

func scanBalance(row pgx.Row) (Balance, error) {
	var b Balance
	err := row.Scan(&b.ID, &b.OrgID, &b.ProfileID, &b.PolicyID, &b.PTOType, &b.Year,
		&b.AllowedDays, &b.UsedDays, &b.PendingDays, &b.CarryoverDays, &b.AdjustmentDays)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, ErrNotFound
	}
	return b, err
}

func (s *Store) GetBalance(ctx context.Context, orgID, profileID, policyID string, year int) (Balance, error) {
	return scanBalance(s.DB.QueryRow(ctx, `
    SELECT `+balanceColumns+` FROM pto_balances
    WHERE organization_id = $1 AND profile_id = $2 AND policy_id = $3 AND year = $4
  `, orgID, profileID, policyID, year))
}

func (s *Store) ListBalances(ctx context.Context, orgID, profileID string, year int) ([]Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM pto_balances WHERE organization_id = $1 AND year = $2`
	args := []any{orgID, year}
	if profileID != "" {
		query += ` AND profile_id = $3`
		args = append(args, profileID)
	}
	rows, err := s.DB.Query(ctx, query+` ORDER BY profile_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AdjustBalance applies a manual delta to the adjustment bucket, leaving
// the policy-derived allowance untouched.
func (s *Store) AdjustBalance(ctx context.Context, orgID, balanceID string, deltaDays float64) (Balance, error) {
	return scanBalance(s.DB.QueryRow(ctx, `
    UPDATE pto_balances SET adjustment_days = adjustment_days + $3
    WHERE organization_id = $1 AND id = $2
    RETURNING `+balanceColumns,
		orgID, balanceID, deltaDays))
}

const requestColumns = `id, organization_id, profile_id, policy_id, start_date, end_date, days,
  status, reason, resolved_by, created_at, updated_at`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.OrgID, &r.ProfileID, &r.PolicyID, &r.StartDate, &r.EndDate,
		&r.Days, &r.Status, &r.Reason, &r.ResolvedBy, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, err
}

// CreateRequest writes the request and reserves pending days in one
// transaction.
func (s *Store) CreateRequest(ctx context.Context, orgID, profileID string, input CreateRequestInput, days float64, year int) (Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx)

	req, err := scanRequest(tx.QueryRow(ctx, `
    INSERT INTO pto_requests (organization_id, profile_id, policy_id, start_date, end_date, days, status, reason)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING `+requestColumns,
		orgID, profileID, input.PolicyID, input.StartDate, input.EndDate, days, RequestPending, input.Reason))
	if err != nil {
		return Request{}, err
	}

	tag, err := tx.Exec(ctx, `
    UPDATE pto_balances SET pending_days = pending_days + $5
    WHERE organization_id = $1 AND profile_id = $2 AND policy_id = $3 AND year = $4
  `, orgID, profileID, input.PolicyID, year, days)
	if err != nil {
		return Request{}, err
	}
	if tag.RowsAffected() == 0 {
		return Request{}, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (s *Store) GetRequest(ctx context.Context, orgID, id string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM pto_requests WHERE organization_id = $1 AND id = $2`, orgID, id))
}

func (s *Store) ListRequests(ctx context.Context, orgID, profileID, status string, limit, offset int) ([]Request, int, error) {
	query := `SELECT ` + requestColumns + ` FROM pto_requests WHERE organization_id = $1`
	countQuery := `SELECT COUNT(1) FROM pto_requests WHERE organization_id = $1`
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

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// ResolveRequest moves a pending request to its final status and settles
// the reserved pending days in the same transaction. Approval converts
// them to used days; rejection and cancellation release them.
func (s *Store) ResolveRequest(ctx context.Context, orgID, id, toStatus string, resolvedBy *string) (Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx)

	req, err := scanRequest(tx.QueryRow(ctx, `
    UPDATE pto_requests
    SET status = $3, resolved_by = COALESCE($4, resolved_by), updated_at = now()
    WHERE organization_id = $1 AND id = $2 AND status = $5
    RETURNING `+requestColumns,
		orgID, id, toStatus, resolvedBy, RequestPending))
	if errors.Is(err, ErrNotFound) {
		if _, getErr := s.GetRequest(ctx, orgID, id); getErr == nil {
			return req, ErrAlreadyProcessed
		}
		return req, ErrNotFound
	}
	if err != nil {
		return req, err
	}

	balanceUpdate := `
    UPDATE pto_balances SET pending_days = pending_days - $5
    WHERE organization_id = $1 AND profile_id = $2 AND policy_id = $3 AND year = $4`
	if toStatus == RequestApproved {
		balanceUpdate = `
    UPDATE pto_balances SET pending_days = pending_days - $5, used_days = used_days + $5
    WHERE organization_id = $1 AND profile_id = $2 AND policy_id = $3 AND year = $4`
	}
	if _, err := tx.Exec(ctx, balanceUpdate,
		orgID, req.ProfileID, req.PolicyID, req.StartDate.Year(), req.Days); err != nil {
		return req, err
	}

	if err := tx.Commit(ctx); err != nil {
		return req, err
	}
	return req, nil
}
