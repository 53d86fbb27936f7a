package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"refqa-chat/internal/models"
	"refqa-chat/internal/observability"
)

// Hub maintains the live membership of juz rooms and fans events out to
// room members. It is the only writer of the connection registry.
type Hub struct {
	rooms    map[int]map[*websocket.Conn]bool
	connInfo map[int]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[int]map[*websocket.Conn]bool),
		connInfo: make(map[int]map[*websocket.Conn]ConnInfo),
	}
}

// Join registers a connection to a room.
func (h *Hub) Join(roomKey int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomKey]; !ok {
		h.rooms[roomKey] = make(map[*websocket.Conn]bool)
	}
	h.rooms[roomKey][conn] = true
	if _, ok := h.connInfo[roomKey]; !ok {
		h.connInfo[roomKey] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[roomKey][conn] = info
	observability.SetRoomMembers(roomKey, len(h.rooms[roomKey]))
}

// Leave removes a connection from a room.
func (h *Hub) Leave(roomKey int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(roomKey, conn)
}

func (h *Hub) leaveLocked(roomKey int, conn *websocket.Conn) {
	if conns, ok := h.rooms[roomKey]; ok {
		delete(conns, conn)
		observability.SetRoomMembers(roomKey, len(conns))
		if len(conns) == 0 {
			delete(h.rooms, roomKey)
		}
	}
	if infos, ok := h.connInfo[roomKey]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, roomKey)
		}
	}
}

// RemoveConn drops a connection from every room it joined. Used on
// disconnect so no room keeps a dead member.
func (h *Hub) RemoveConn(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomKey, conns := range h.rooms {
		if conns[conn] {
			h.leaveLocked(roomKey, conn)
		}
	}
}

// Members reports how many connections are joined to a room.
func (h *Hub) Members(roomKey int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomKey])
}

// BroadcastMessage sends a new-message event to every room member.
func (h *Hub) BroadcastMessage(roomKey int, msg models.Message) {
	h.broadcast(roomKey, models.EventNewMessage, msg, nil)
}

// BroadcastDeletion sends a message-deleted event to every room member.
func (h *Hub) BroadcastDeletion(roomKey int, messageID int64) {
	h.broadcast(roomKey, models.EventMessageDeleted, models.MessageDeletedPayload{MessageID: messageID}, nil)
}

// BroadcastUserJoined announces a peer join to everyone already in the room.
func (h *Hub) BroadcastUserJoined(roomKey int, announcement string, except *websocket.Conn) {
	h.broadcast(roomKey, models.EventUserJoined, models.UserJoinedPayload{Message: announcement}, except)
}

func (h *Hub) broadcast(roomKey int, event string, payload any, except *websocket.Conn) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("marshal broadcast payload")
		return
	}
	frame, err := json.Marshal(models.Envelope{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("marshal broadcast envelope")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[roomKey]))
	for conn := range h.rooms[roomKey] {
		if conn != except {
			conns = append(conns, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Warn().Err(err).Int("room", roomKey).Msg("websocket write error")
			conn.Close()
			h.Leave(roomKey, conn)
			observability.IncWSEvent("ws_error")
		}
	}
	observability.IncWSEvent(event)
}
