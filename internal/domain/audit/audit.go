// Package audit persists an append-only trail of privileged mutations.
// Writers tolerate failures; handlers log and continue rather than fail
// the request that triggered the event.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorUser  string
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// Record writes one event. before and after are marshaled as JSON
// snapshots; nil skips the column.
func (s *Service) Record(ctx context.Context, orgID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	beforeJSON, err := snapshot(before)
	if err != nil {
		return fmt.Errorf("marshal before: %w", err)
	}
	afterJSON, err := snapshot(after)
	if err != nil {
		return fmt.Errorf("marshal after: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (organization_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, orgID, actorID, action, entityType, entityID, beforeJSON, afterJSON, requestID, ip)
	return err
}

func snapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (s *Service) Count(ctx context.Context, orgID string, filter Filter) (int, error) {
	where, args := filterClause(orgID, filter)
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM audit_events"+where, args...).Scan(&total)
	return total, err
}

func (s *Service) List(ctx context.Context, orgID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	cols := "id, actor_user_id, action, entity_type, entity_id, request_id, ip, created_at"
	if includeDetails {
		cols += ", before_json, after_json"
	}
	where, args := filterClause(orgID, filter)
	query := fmt.Sprintf("SELECT %s FROM audit_events%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		cols, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

// ListExport streams the whole trail for an organization, newest first.
func (s *Service) ListExport(ctx context.Context, orgID string) ([]Event, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, actor_user_id, action, entity_type, entity_id, request_id, ip, created_at
    FROM audit_events
    WHERE organization_id = $1
    ORDER BY created_at DESC
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func filterClause(orgID string, filter Filter) (string, []any) {
	var b strings.Builder
	b.WriteString(" WHERE organization_id = $1")
	args := []any{orgID}
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		fmt.Fprintf(&b, " AND %s = $%d", col, len(args))
	}
	add("action", filter.Action)
	add("entity_type", filter.EntityType)
	add("actor_user_id", filter.ActorUser)
	return b.String(), args
}
