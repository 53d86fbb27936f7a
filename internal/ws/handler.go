package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"refqa-chat/internal/auth"
	"refqa-chat/internal/models"
	"refqa-chat/internal/observability"
	"refqa-chat/internal/repositories"
	"refqa-chat/internal/telemetry"
	"refqa-chat/rooms"
)

// MaxMessageRunes bounds the length of a message body.
const MaxMessageRunes = 500

// Handler owns the websocket endpoint: handshake authentication, the
// per-connection read loop, and dispatch of room events to the hub.
type Handler struct {
	hub         *Hub
	messageRepo repositories.MessageRepository
	secret      string
	audit       *telemetry.AuditEmitter
}

// NewHandler constructs a websocket Handler.
func NewHandler(hub *Hub, messageRepo repositories.MessageRepository, secret string, audit *telemetry.AuditEmitter) *Handler {
	return &Handler{hub: hub, messageRepo: messageRepo, secret: secret, audit: audit}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the handshake, upgrades the connection and starts
// the read loop.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("refqa-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	claims, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      claims.UserID,
		Username:    claims.Username,
		Role:        claims.Role,
		IP:          observability.IPFromRequest(c.Request),
		ConnectedAt: time.Now(),
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.audit.Emit(context.Background(), &info.UserID, telemetry.AuditPayload{Action: "ws_connect", Detail: info.ConnID})

	go h.readLoop(conn, info)
}

// readLoop dispatches inbound envelopes until the connection dies, then
// releases every room registration the connection held.
func (h *Handler) readLoop(conn *websocket.Conn, info ConnInfo) {
	currentRoom := 0
	defer func() {
		h.hub.RemoveConn(conn)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.audit.Emit(context.Background(), &info.UserID, telemetry.AuditPayload{
			Action: "ws_disconnect",
			Detail: fmt.Sprintf("%s after %dms", info.ConnID, time.Since(info.ConnectedAt).Milliseconds()),
		})
		conn.Close()
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			log.Warn().Err(err).Str("conn", info.ConnID).Msg("malformed ws frame")
			continue
		}

		switch env.Event {
		case models.EventJoinRoom:
			currentRoom = h.handleJoin(conn, info, env.Data, currentRoom)
		case models.EventLeaveRoom:
			currentRoom = h.handleLeave(conn, env.Data, currentRoom)
		case models.EventSendMessage:
			h.handleSend(conn, info, env.Data)
		case models.EventDeleteMessage:
			h.handleDelete(conn, info, env.Data)
		default:
			log.Warn().Str("event", env.Event).Str("conn", info.ConnID).Msg("unknown ws event")
		}
	}
}

func (h *Handler) handleJoin(conn *websocket.Conn, info ConnInfo, data json.RawMessage, currentRoom int) int {
	var p models.JoinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil || !rooms.Valid(p.RoomKey) {
		log.Warn().Int("room", p.RoomKey).Str("conn", info.ConnID).Msg("join rejected")
		return currentRoom
	}

	if currentRoom != 0 && currentRoom != p.RoomKey {
		h.hub.Leave(currentRoom, conn)
	}
	h.hub.Join(p.RoomKey, conn, info)
	h.hub.BroadcastUserJoined(p.RoomKey, fmt.Sprintf("انضم %s إلى الغرفة", info.Username), conn)
	observability.IncWSEvent(models.EventJoinRoom)
	return p.RoomKey
}

func (h *Handler) handleLeave(conn *websocket.Conn, data json.RawMessage, currentRoom int) int {
	var p models.LeaveRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return currentRoom
	}
	h.hub.Leave(p.RoomKey, conn)
	observability.IncWSEvent(models.EventLeaveRoom)
	if p.RoomKey == currentRoom {
		return 0
	}
	return currentRoom
}

func (h *Handler) handleSend(conn *websocket.Conn, info ConnInfo, data json.RawMessage) {
	var p models.SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	// The token re-asserts the credential per message; the handshake
	// identity wins over whatever the payload claims.
	if _, err := auth.ParseToken(p.Token, h.secret); err != nil {
		log.Warn().Str("conn", info.ConnID).Msg("send-message with invalid token dropped")
		return
	}
	if !rooms.Valid(p.RoomKey) {
		return
	}
	content := strings.TrimSpace(p.Content)
	if content == "" || utf8.RuneCountInString(content) > MaxMessageRunes {
		return
	}

	msg, err := h.messageRepo.CreateMessage(context.Background(), p.RoomKey, info.UserID, info.Username, p.Avatar, content)
	if err != nil {
		log.Error().Err(err).Int("room", p.RoomKey).Msg("store message")
		return
	}
	h.hub.BroadcastMessage(p.RoomKey, msg)
}

func (h *Handler) handleDelete(conn *websocket.Conn, info ConnInfo, data json.RawMessage) {
	var p models.DeleteMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	if info.Role != models.RoleAdmin {
		log.Warn().Int64("user", info.UserID).Msg("non-admin delete attempt dropped")
		return
	}

	msg, err := h.messageRepo.GetMessage(context.Background(), p.MessageID)
	if err != nil {
		log.Warn().Err(err).Int64("message", p.MessageID).Msg("delete of unknown message")
		return
	}
	if err := h.messageRepo.SoftDeleteMessage(context.Background(), p.MessageID); err != nil {
		log.Error().Err(err).Int64("message", p.MessageID).Msg("soft delete")
		return
	}

	h.hub.BroadcastDeletion(msg.RoomKey, p.MessageID)
	h.audit.Emit(context.Background(), &info.UserID, telemetry.AuditPayload{
		Action:    "message_deleted",
		RoomKey:   msg.RoomKey,
		MessageID: p.MessageID,
	})
}

func (h *Handler) validateToken(header string) (*auth.Claims, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return auth.ParseToken(parts[1], h.secret)
	}
	return nil, fmt.Errorf("invalid token")
}
