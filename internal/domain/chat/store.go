package chat

import (
	"context"
	"errors"
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

// CreateRoom writes the room and its participants in one transaction.
func (s *Store) CreateRoom(ctx context.Context, orgID, createdBy string, input CreateRoomInput, memberIDs []string) (Room, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Room{}, err
	}
	defer tx.Rollback(ctx)

	var room Room
	err = tx.QueryRow(ctx, `
    INSERT INTO chat_rooms (organization_id, name, kind, created_by)
    VALUES ($1,$2,$3,$4)
    RETURNING id, organization_id, name, kind, created_by, created_at
  `, orgID, input.Name, input.Kind, createdBy).Scan(
		&room.ID, &room.OrgID, &room.Name, &room.Kind, &room.CreatedBy, &room.CreatedAt)
	if err != nil {
		return Room{}, err
	}

	for _, profileID := range memberIDs {
		if _, err := tx.Exec(ctx, `
      INSERT INTO chat_participants (room_id, profile_id)
      VALUES ($1,$2)
      ON CONFLICT (room_id, profile_id) DO NOTHING
    `, room.ID, profileID); err != nil {
			return Room{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Room{}, err
	}
	return room, nil
}

func (s *Store) GetRoom(ctx context.Context, orgID, id string) (Room, error) {
	var room Room
	err := s.DB.QueryRow(ctx, `
    SELECT id, organization_id, name, kind, created_by, created_at
    FROM chat_rooms WHERE organization_id = $1 AND id = $2
  `, orgID, id).Scan(&room.ID, &room.OrgID, &room.Name, &room.Kind, &room.CreatedBy, &room.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return room, ErrNotFound
	}
	return room, err
}

// ListRooms returns the caller's rooms with unread counts.
func (s *Store) ListRooms(ctx context.Context, orgID, profileID string) ([]RoomSummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.organization_id, r.name, r.kind, r.created_by, r.created_at, p.last_read_at,
           (SELECT COUNT(1) FROM chat_messages m
            WHERE m.room_id = r.id
              AND m.profile_id <> p.profile_id
              AND (p.last_read_at IS NULL OR m.created_at > p.last_read_at)) AS unread
    FROM chat_rooms r
    JOIN chat_participants p ON p.room_id = r.id
    WHERE r.organization_id = $1 AND p.profile_id = $2
    ORDER BY r.created_at DESC
  `, orgID, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoomSummary
	for rows.Next() {
		var summary RoomSummary
		if err := rows.Scan(&summary.ID, &summary.OrgID, &summary.Name, &summary.Kind,
			&summary.CreatedBy, &summary.CreatedAt, &summary.LastReadAt, &summary.UnreadCount); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (s *Store) IsParticipant(ctx context.Context, roomID, profileID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx,
		`SELECT COUNT(1) FROM chat_participants WHERE room_id = $1 AND profile_id = $2`,
		roomID, profileID).Scan(&count)
	return count > 0, err
}

func (s *Store) AddParticipant(ctx context.Context, roomID, profileID string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO chat_participants (room_id, profile_id)
    VALUES ($1,$2)
    ON CONFLICT (room_id, profile_id) DO NOTHING
  `, roomID, profileID)
	return err
}

func (s *Store) RemoveParticipant(ctx context.Context, roomID, profileID string) error {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM chat_participants WHERE room_id = $1 AND profile_id = $2`, roomID, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListParticipants(ctx context.Context, roomID string) ([]Participant, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT room_id, profile_id, joined_at, last_read_at
    FROM chat_participants WHERE room_id = $1 ORDER BY joined_at
  `, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.RoomID, &p.ProfileID, &p.JoinedAt, &p.LastReadAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CreateMessage(ctx context.Context, orgID, roomID, profileID, body string) (Message, error) {
	var m Message
	err := s.DB.QueryRow(ctx, `
    INSERT INTO chat_messages (organization_id, room_id, profile_id, body)
    VALUES ($1,$2,$3,$4)
    RETURNING id, organization_id, room_id, profile_id, body, created_at
  `, orgID, roomID, profileID, body).Scan(&m.ID, &m.OrgID, &m.RoomID, &m.ProfileID, &m.Body, &m.CreatedAt)
	return m, err
}

// ListMessages pages backwards from before, newest first.
func (s *Store) ListMessages(ctx context.Context, orgID, roomID string, before time.Time, limit int) ([]Message, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, organization_id, room_id, profile_id, body, created_at
    FROM chat_messages
    WHERE organization_id = $1 AND room_id = $2 AND created_at < $3
    ORDER BY created_at DESC
    LIMIT $4
  `, orgID, roomID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.OrgID, &m.RoomID, &m.ProfileID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead advances the caller's read receipt for the room.
func (s *Store) MarkRead(ctx context.Context, roomID, profileID string, at time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE chat_participants SET last_read_at = $3
    WHERE room_id = $1 AND profile_id = $2 AND (last_read_at IS NULL OR last_read_at < $3)
  `, roomID, profileID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either not a participant or the receipt is already newer.
		exists, err := s.IsParticipant(ctx, roomID, profileID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// FindDirectRoom returns an existing direct room between two profiles.
func (s *Store) FindDirectRoom(ctx context.Context, orgID, profileA, profileB string) (Room, error) {
	var room Room
	err := s.DB.QueryRow(ctx, `
    SELECT r.id, r.organization_id, r.name, r.kind, r.created_by, r.created_at
    FROM chat_rooms r
    WHERE r.organization_id = $1 AND r.kind = $2
      AND EXISTS (SELECT 1 FROM chat_participants WHERE room_id = r.id AND profile_id = $3)
      AND EXISTS (SELECT 1 FROM chat_participants WHERE room_id = r.id AND profile_id = $4)
    LIMIT 1
  `, orgID, RoomDirect, profileA, profileB).Scan(
		&room.ID, &room.OrgID, &room.Name, &room.Kind, &room.CreatedBy, &room.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return room, ErrNotFound
	}
	return room, err
}
