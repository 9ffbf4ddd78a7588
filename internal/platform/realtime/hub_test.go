package realtime

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(id string, sub Subscription) *Client {
	return &Client{ID: id, Send: make(chan []byte, 4), Subscription: sub}
}

func TestBroadcastFiltersByOrg(t *testing.T) {
	hub := New()
	inOrg := newTestClient("a", Subscription{OrgID: "org1", UserID: "u1"})
	otherOrg := newTestClient("b", Subscription{OrgID: "org2", UserID: "u2"})
	hub.Register(inOrg)
	hub.Register(otherOrg)

	hub.Broadcast(Event{Type: "shift.published", OrgID: "org1", Payload: json.RawMessage(`{}`), CreatedAt: time.Now()})

	select {
	case <-inOrg.Send:
	default:
		t.Fatal("expected org1 client to receive event")
	}
	select {
	case <-otherOrg.Send:
		t.Fatal("org2 client must not receive org1 event")
	default:
	}
}

func TestBroadcastTargetedUser(t *testing.T) {
	hub := New()
	target := newTestClient("a", Subscription{OrgID: "org1", UserID: "u1"})
	bystander := newTestClient("b", Subscription{OrgID: "org1", UserID: "u2"})
	hub.Register(target)
	hub.Register(bystander)

	hub.Broadcast(Event{Type: "notification", OrgID: "org1", UserID: "u1", Payload: json.RawMessage(`{}`)})

	if len(target.Send) != 1 {
		t.Fatal("expected targeted user to receive event")
	}
	if len(bystander.Send) != 0 {
		t.Fatal("bystander must not receive targeted event")
	}
}

func TestBroadcastRoomFilter(t *testing.T) {
	hub := New()
	subscribed := newTestClient("a", Subscription{OrgID: "org1", UserID: "u1", RoomID: "r1"})
	elsewhere := newTestClient("b", Subscription{OrgID: "org1", UserID: "u2", RoomID: "r2"})
	hub.Register(subscribed)
	hub.Register(elsewhere)

	hub.Broadcast(Event{Type: "chat.message", OrgID: "org1", RoomID: "r1", Payload: json.RawMessage(`{}`)})

	if len(subscribed.Send) != 1 {
		t.Fatal("expected room subscriber to receive event")
	}
	if len(elsewhere.Send) != 0 {
		t.Fatal("other room subscriber must not receive event")
	}
}

func TestBroadcastMarshalsStructPayloads(t *testing.T) {
	hub := New()
	client := newTestClient("a", Subscription{OrgID: "org1", UserID: "u1"})
	hub.Register(client)

	hub.Broadcast(Event{Type: "notification", OrgID: "org1", Payload: struct {
		Title string `json:"title"`
	}{Title: "schedule updated"}})

	var wire struct {
		Payload struct {
			Title string `json:"title"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(<-client.Send, &wire); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if wire.Payload.Title != "schedule updated" {
		t.Fatalf("expected payload to round-trip, got %+v", wire)
	}
}

func TestRoomEventsRequireRoomSubscription(t *testing.T) {
	hub := New()
	orgWide := newTestClient("a", Subscription{OrgID: "org1", UserID: "u1"})
	hub.Register(orgWide)

	hub.Broadcast(Event{Type: "chat.message", OrgID: "org1", RoomID: "dm-1", Payload: json.RawMessage(`{"body":"hi"}`)})

	if len(orgWide.Send) != 0 {
		t.Fatal("client without a room subscription must not receive room events")
	}
}

func TestSlowClientDropped(t *testing.T) {
	hub := New()
	slow := &Client{ID: "slow", Send: make(chan []byte), Subscription: Subscription{OrgID: "org1", UserID: "u1"}}
	hub.Register(slow)

	// Unbuffered channel with no reader: Broadcast must not block.
	done := make(chan struct{})
	go func() {
		hub.Broadcast(Event{Type: "chat.message", OrgID: "org1", Payload: json.RawMessage(`{}`)})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on slow client")
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	hub := New()
	client := newTestClient("a", Subscription{OrgID: "org1"})
	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestParseSubscribe(t *testing.T) {
	msg, ok := ParseSubscribe([]byte(`{"action":"subscribe","roomId":"r1"}`))
	if !ok || msg.RoomID != "r1" {
		t.Fatalf("expected subscribe message, got %+v ok=%v", msg, ok)
	}
	if _, ok := ParseSubscribe([]byte(`{"action":"noop"}`)); ok {
		t.Fatal("unknown action must not parse")
	}
	if _, ok := ParseSubscribe([]byte(`not json`)); ok {
		t.Fatal("invalid json must not parse")
	}
}
