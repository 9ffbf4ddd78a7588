package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"wfm/internal/platform/realtime"
)

const (
	maxMessageLength = 4000
	EventMessage     = "chat.message"
)

var (
	ErrNotParticipant = errors.New("you are not in this room")
	ErrEmptyMessage   = errors.New("message body is empty")
	ErrMessageTooLong = errors.New("message body is too long")
	ErrBadRoomKind    = errors.New("unknown room kind")
	ErrDirectNeedsTwo = errors.New("a direct room has exactly two members")
	ErrGroupNeedsName = errors.New("a group room needs a name")
)

type StoreAPI interface {
	CreateRoom(ctx context.Context, orgID, createdBy string, input CreateRoomInput, memberIDs []string) (Room, error)
	GetRoom(ctx context.Context, orgID, id string) (Room, error)
	ListRooms(ctx context.Context, orgID, profileID string) ([]RoomSummary, error)
	IsParticipant(ctx context.Context, roomID, profileID string) (bool, error)
	AddParticipant(ctx context.Context, roomID, profileID string) error
	RemoveParticipant(ctx context.Context, roomID, profileID string) error
	ListParticipants(ctx context.Context, roomID string) ([]Participant, error)
	CreateMessage(ctx context.Context, orgID, roomID, profileID, body string) (Message, error)
	ListMessages(ctx context.Context, orgID, roomID string, before time.Time, limit int) ([]Message, error)
	MarkRead(ctx context.Context, roomID, profileID string, at time.Time) error
	FindDirectRoom(ctx context.Context, orgID, profileA, profileB string) (Room, error)
}

type Publisher interface {
	Publish(ctx context.Context, event realtime.Event)
}

type Service struct {
	Store     StoreAPI
	Publisher Publisher
	Now       func() time.Time
}

func NewService(store StoreAPI, publisher Publisher) *Service {
	return &Service{Store: store, Publisher: publisher, Now: time.Now}
}

// CreateRoom opens a group or direct room. Direct rooms are deduplicated
// so two profiles share a single conversation.
func (s *Service) CreateRoom(ctx context.Context, orgID, createdBy string, input CreateRoomInput) (Room, error) {
	memberIDs := append([]string{createdBy}, input.MemberIDs...)
	memberIDs = dedupe(memberIDs)

	switch input.Kind {
	case RoomDirect:
		if len(memberIDs) != 2 {
			return Room{}, ErrDirectNeedsTwo
		}
		existing, err := s.Store.FindDirectRoom(ctx, orgID, memberIDs[0], memberIDs[1])
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Room{}, err
		}
	case RoomGroup:
		if strings.TrimSpace(input.Name) == "" {
			return Room{}, ErrGroupNeedsName
		}
	default:
		return Room{}, ErrBadRoomKind
	}

	return s.Store.CreateRoom(ctx, orgID, createdBy, input, memberIDs)
}

// Send posts a message to a room the caller belongs to and fans it out
// to the room's live subscribers.
func (s *Service) Send(ctx context.Context, orgID, roomID, profileID, body string) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, ErrEmptyMessage
	}
	if len(body) > maxMessageLength {
		return Message{}, ErrMessageTooLong
	}

	member, err := s.Store.IsParticipant(ctx, roomID, profileID)
	if err != nil {
		return Message{}, err
	}
	if !member {
		return Message{}, ErrNotParticipant
	}

	message, err := s.Store.CreateMessage(ctx, orgID, roomID, profileID, body)
	if err != nil {
		return Message{}, err
	}

	if s.Publisher != nil {
		s.Publisher.Publish(ctx, realtime.Event{
			Type:      EventMessage,
			OrgID:     orgID,
			RoomID:    roomID,
			Payload:   message,
			CreatedAt: message.CreatedAt,
		})
	}
	return message, nil
}

// History returns messages before the cursor, newest first.
func (s *Service) History(ctx context.Context, orgID, roomID, profileID string, before time.Time, limit int) ([]Message, error) {
	member, err := s.Store.IsParticipant(ctx, roomID, profileID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotParticipant
	}
	if before.IsZero() {
		before = s.Now()
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Store.ListMessages(ctx, orgID, roomID, before, limit)
}

// MarkRead advances the caller's receipt to now.
func (s *Service) MarkRead(ctx context.Context, orgID, roomID, profileID string) error {
	return s.Store.MarkRead(ctx, roomID, profileID, s.Now())
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
