package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"wfm/internal/platform/realtime"
)

type fakeChatStore struct {
	rooms        map[string]Room
	participants map[string][]string
	messages     []Message
	directRoom   *Room
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		rooms:        map[string]Room{},
		participants: map[string][]string{},
	}
}

func (f *fakeChatStore) CreateRoom(ctx context.Context, orgID, createdBy string, input CreateRoomInput, memberIDs []string) (Room, error) {
	room := Room{ID: "room-1", OrgID: orgID, Name: input.Name, Kind: input.Kind, CreatedBy: createdBy}
	f.rooms[room.ID] = room
	f.participants[room.ID] = memberIDs
	return room, nil
}

func (f *fakeChatStore) GetRoom(ctx context.Context, orgID, id string) (Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	return room, nil
}

func (f *fakeChatStore) ListRooms(ctx context.Context, orgID, profileID string) ([]RoomSummary, error) {
	return nil, nil
}

func (f *fakeChatStore) IsParticipant(ctx context.Context, roomID, profileID string) (bool, error) {
	for _, id := range f.participants[roomID] {
		if id == profileID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeChatStore) AddParticipant(ctx context.Context, roomID, profileID string) error {
	f.participants[roomID] = append(f.participants[roomID], profileID)
	return nil
}

func (f *fakeChatStore) RemoveParticipant(ctx context.Context, roomID, profileID string) error {
	return nil
}

func (f *fakeChatStore) ListParticipants(ctx context.Context, roomID string) ([]Participant, error) {
	return nil, nil
}

func (f *fakeChatStore) CreateMessage(ctx context.Context, orgID, roomID, profileID, body string) (Message, error) {
	m := Message{ID: "msg-1", OrgID: orgID, RoomID: roomID, ProfileID: profileID, Body: body, CreatedAt: time.Now()}
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeChatStore) ListMessages(ctx context.Context, orgID, roomID string, before time.Time, limit int) ([]Message, error) {
	return f.messages, nil
}

func (f *fakeChatStore) MarkRead(ctx context.Context, roomID, profileID string, at time.Time) error {
	return nil
}

func (f *fakeChatStore) FindDirectRoom(ctx context.Context, orgID, profileA, profileB string) (Room, error) {
	if f.directRoom != nil {
		return *f.directRoom, nil
	}
	return Room{}, ErrNotFound
}

type capturePublisher struct {
	events []realtime.Event
}

func (c *capturePublisher) Publish(ctx context.Context, event realtime.Event) {
	c.events = append(c.events, event)
}

func TestSendMessage(t *testing.T) {
	store := newFakeChatStore()
	store.participants["room-1"] = []string{"alice", "bob"}
	publisher := &capturePublisher{}
	svc := NewService(store, publisher)

	t.Run("fans out to the room", func(t *testing.T) {
		msg, err := svc.Send(context.Background(), "org-1", "room-1", "alice", "  hello  ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.Body != "hello" {
			t.Fatalf("expected trimmed body, got %q", msg.Body)
		}
		if len(publisher.events) != 1 || publisher.events[0].Type != EventMessage || publisher.events[0].RoomID != "room-1" {
			t.Fatalf("unexpected events: %+v", publisher.events)
		}
	})

	t.Run("rejects non-participants", func(t *testing.T) {
		if _, err := svc.Send(context.Background(), "org-1", "room-1", "eve", "hi"); !errors.Is(err, ErrNotParticipant) {
			t.Fatalf("expected ErrNotParticipant, got %v", err)
		}
	})

	t.Run("rejects empty body", func(t *testing.T) {
		if _, err := svc.Send(context.Background(), "org-1", "room-1", "alice", "   "); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage, got %v", err)
		}
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		long := strings.Repeat("a", maxMessageLength+1)
		if _, err := svc.Send(context.Background(), "org-1", "room-1", "alice", long); !errors.Is(err, ErrMessageTooLong) {
			t.Fatalf("expected ErrMessageTooLong, got %v", err)
		}
	})
}

func TestCreateRoom(t *testing.T) {
	t.Run("direct room reuses an existing one", func(t *testing.T) {
		store := newFakeChatStore()
		existing := Room{ID: "existing", Kind: RoomDirect}
		store.directRoom = &existing
		svc := NewService(store, &capturePublisher{})

		room, err := svc.CreateRoom(context.Background(), "org-1", "alice", CreateRoomInput{
			Kind: RoomDirect, MemberIDs: []string{"bob"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if room.ID != "existing" {
			t.Fatalf("expected room reuse, got %+v", room)
		}
	})

	t.Run("direct room needs exactly two members", func(t *testing.T) {
		svc := NewService(newFakeChatStore(), &capturePublisher{})
		_, err := svc.CreateRoom(context.Background(), "org-1", "alice", CreateRoomInput{
			Kind: RoomDirect, MemberIDs: []string{"bob", "carol"},
		})
		if !errors.Is(err, ErrDirectNeedsTwo) {
			t.Fatalf("expected ErrDirectNeedsTwo, got %v", err)
		}
	})

	t.Run("group room needs a name", func(t *testing.T) {
		svc := NewService(newFakeChatStore(), &capturePublisher{})
		_, err := svc.CreateRoom(context.Background(), "org-1", "alice", CreateRoomInput{
			Kind: RoomGroup, MemberIDs: []string{"bob"},
		})
		if !errors.Is(err, ErrGroupNeedsName) {
			t.Fatalf("expected ErrGroupNeedsName, got %v", err)
		}
	})

	t.Run("creator is always a member", func(t *testing.T) {
		store := newFakeChatStore()
		svc := NewService(store, &capturePublisher{})

		room, err := svc.CreateRoom(context.Background(), "org-1", "alice", CreateRoomInput{
			Kind: RoomGroup, Name: "Front of house", MemberIDs: []string{"bob", "alice"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		members := store.participants[room.ID]
		if len(members) != 2 || members[0] != "alice" {
			t.Fatalf("unexpected members: %v", members)
		}
	})
}
