package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"refqa-chat/internal/middleware"
	"refqa-chat/internal/repositories"
	"refqa-chat/internal/telemetry"
	"refqa-chat/rooms"
)

// ChatHandler serves room history and the admin message console.
type ChatHandler struct {
	messageRepo repositories.MessageRepository
	pageSize    int
	audit       *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(messageRepo repositories.MessageRepository, pageSize int, audit *telemetry.AuditEmitter) *ChatHandler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &ChatHandler{messageRepo: messageRepo, pageSize: pageSize, audit: audit}
}

// GetRoomHistory returns the ordered non-deleted messages of one room.
func (h *ChatHandler) GetRoomHistory(c *gin.Context) {
	roomKey, err := strconv.Atoi(c.Param("room_key"))
	if err != nil || !rooms.Valid(roomKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room key"})
		return
	}

	msgs, err := h.messageRepo.GetRoomHistory(c.Request.Context(), roomKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// ListAllMessages returns one page of every message for the admin console,
// deleted ones included and flagged.
func (h *ChatHandler) ListAllMessages(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	msgs, total, err := h.messageRepo.ListAllMessages(c.Request.Context(), page, h.pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs, "total": total, "page": page})
}

// DeleteMessage soft-deletes a message from the admin console. The message
// stays in storage with its body for audit; live rooms are deliberately not
// notified on this path.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	messageID, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.messageRepo.SoftDeleteMessage(c.Request.Context(), messageID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete message"})
		return
	}

	adminID := middleware.UserID(c)
	h.audit.Emit(c.Request.Context(), &adminID, telemetry.AuditPayload{
		Action:    "message_deleted",
		MessageID: messageID,
		Detail:    "admin console",
	})
	c.Status(http.StatusNoContent)
}
