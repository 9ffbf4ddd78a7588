package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Notification struct {
	ID        string     `json:"id"`
	OrgID     string     `json:"organizationId"`
	ProfileID string     `json:"profileId"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type StoreAPI interface {
	CreateNotification(ctx context.Context, n Notification) (Notification, error)
	ListNotifications(ctx context.Context, orgID, profileID string, unreadOnly bool, limit, offset int) ([]Notification, int, error)
	UnreadCount(ctx context.Context, orgID, profileID string) (int, error)
	MarkRead(ctx context.Context, orgID, profileID, id string) error
	MarkAllRead(ctx context.Context, orgID, profileID string) (int, error)
	Delete(ctx context.Context, orgID, profileID, id string) error
	ProfileEmail(ctx context.Context, orgID, profileID string) (string, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const notificationColumns = `id, organization_id, profile_id, type, title, body, read_at, created_at`

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.OrgID, &n.ProfileID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return n, ErrNotFound
	}
	return n, err
}

func (s *Store) CreateNotification(ctx context.Context, n Notification) (Notification, error) {
	return scanNotification(s.DB.QueryRow(ctx, `
    INSERT INTO notifications (organization_id, profile_id, type, title, body)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+notificationColumns,
		n.OrgID, n.ProfileID, n.Type, n.Title, n.Body))
}

func (s *Store) ListNotifications(ctx context.Context, orgID, profileID string, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	where := ` WHERE organization_id = $1 AND profile_id = $2`
	if unreadOnly {
		where += ` AND read_at IS NULL`
	}

	var total int
	if err := s.DB.QueryRow(ctx,
		`SELECT COUNT(1) FROM notifications`+where, orgID, profileID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications`+where+` ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		orgID, profileID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (s *Store) UnreadCount(ctx context.Context, orgID, profileID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx,
		`SELECT COUNT(1) FROM notifications WHERE organization_id = $1 AND profile_id = $2 AND read_at IS NULL`,
		orgID, profileID).Scan(&count)
	return count, err
}

func (s *Store) MarkRead(ctx context.Context, orgID, profileID, id string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE organization_id = $1 AND profile_id = $2 AND id = $3 AND read_at IS NULL
  `, orgID, profileID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, orgID, profileID string) (int, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE organization_id = $1 AND profile_id = $2 AND read_at IS NULL
  `, orgID, profileID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) Delete(ctx context.Context, orgID, profileID, id string) error {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM notifications WHERE organization_id = $1 AND profile_id = $2 AND id = $3`,
		orgID, profileID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ProfileEmail(ctx context.Context, orgID, profileID string) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx,
		`SELECT email FROM profiles WHERE organization_id = $1 AND id = $2`, orgID, profileID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return email, err
}
