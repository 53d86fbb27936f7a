package client

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// Event names on the live connection. They mirror the server protocol.
const (
	eventJoinRoom       = "join-room"
	eventLeaveRoom      = "leave-room"
	eventSendMessage    = "send-message"
	eventDeleteMessage  = "delete-message"
	eventNewMessage     = "new-message"
	eventMessageDeleted = "message-deleted"
	eventUserJoined     = "user-joined"
)

// envelope frames every websocket event in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Message is one entry of a room's message sequence. System messages are
// locally generated join/leave announcements; they have a negative
// time-based ID and never exist on the server.
type Message struct {
	ID        int64     `json:"id"`
	RoomKey   int       `json:"room_key"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar,omitempty"`
	Content   string    `json:"content"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	System    bool      `json:"system,omitempty"`
}

// Identity is the authenticated user the session acts as.
type Identity struct {
	UserID   int64
	Username string
	Avatar   string
	Role     string
}

// RoleAdmin marks identities allowed to moderate.
const RoleAdmin = "admin"

// IsAdmin reports whether the identity may delete messages.
func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

type joinRoomPayload struct {
	RoomKey  int    `json:"room_key"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type leaveRoomPayload struct {
	RoomKey  int    `json:"room_key"`
	Username string `json:"username"`
}

type sendMessagePayload struct {
	RoomKey  int    `json:"room_key"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Content  string `json:"content"`
	Token    string `json:"token"`
}

type deleteMessagePayload struct {
	MessageID int64 `json:"message_id"`
}

type messageDeletedPayload struct {
	MessageID int64 `json:"message_id"`
}

type userJoinedPayload struct {
	Message string `json:"message"`
}

func writeEnvelope(conn *websocket.Conn, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(envelope{Event: event, Data: data})
}
