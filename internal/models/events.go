package models

import "encoding/json"

// Event names carried on the live connection.
const (
	EventJoinRoom       = "join-room"
	EventLeaveRoom      = "leave-room"
	EventSendMessage    = "send-message"
	EventDeleteMessage  = "delete-message"
	EventNewMessage     = "new-message"
	EventMessageDeleted = "message-deleted"
	EventUserJoined     = "user-joined"
)

// Envelope frames every websocket event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinRoomPayload announces room entry.
type JoinRoomPayload struct {
	RoomKey  int    `json:"room_key"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// LeaveRoomPayload announces room exit.
type LeaveRoomPayload struct {
	RoomKey  int    `json:"room_key"`
	Username string `json:"username"`
}

// SendMessagePayload posts a message. The token re-asserts the sender's
// credential so a hijacked connection cannot post on a stale identity.
type SendMessagePayload struct {
	RoomKey  int    `json:"room_key"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Content  string `json:"content"`
	Token    string `json:"token"`
}

// DeleteMessagePayload requests a moderation delete.
type DeleteMessagePayload struct {
	MessageID int64 `json:"message_id"`
}

// MessageDeletedPayload confirms a delete to room members.
type MessageDeletedPayload struct {
	MessageID int64 `json:"message_id"`
}

// UserJoinedPayload carries the human-readable join announcement.
type UserJoinedPayload struct {
	Message string `json:"message"`
}
