package chat

import "time"

const (
	RoomDirect = "direct"
	RoomGroup  = "group"
)

type Room struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"organizationId"`
	Name      string    `json:"name,omitempty"`
	Kind      string    `json:"kind"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type RoomSummary struct {
	Room
	UnreadCount int        `json:"unreadCount"`
	LastMessage *Message   `json:"lastMessage,omitempty"`
	LastReadAt  *time.Time `json:"lastReadAt,omitempty"`
}

type Participant struct {
	RoomID     string     `json:"roomId"`
	ProfileID  string     `json:"profileId"`
	JoinedAt   time.Time  `json:"joinedAt"`
	LastReadAt *time.Time `json:"lastReadAt,omitempty"`
}

type Message struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"organizationId"`
	RoomID    string    `json:"roomId"`
	ProfileID string    `json:"profileId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateRoomInput struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	MemberIDs []string `json:"memberIds"`
}
