package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"refqa-chat/internal/middleware"
	"refqa-chat/internal/repositories"
	"refqa-chat/internal/telemetry"
)

// AdminHandler serves the user management and stats endpoints.
type AdminHandler struct {
	userRepo repositories.UserRepository
	audit    *telemetry.AuditEmitter
}

// NewAdminHandler builds an AdminHandler.
func NewAdminHandler(userRepo repositories.UserRepository, audit *telemetry.AuditEmitter) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, audit: audit}
}

// ListUsers returns all platform accounts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// DeleteUser removes a non-admin account.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.userRepo.DeleteUser(c.Request.Context(), userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete user"})
		return
	}

	adminID := middleware.UserID(c)
	h.audit.Emit(c.Request.Context(), &adminID, telemetry.AuditPayload{
		Action: "user_deleted",
		Detail: strconv.FormatInt(userID, 10),
	})
	c.Status(http.StatusNoContent)
}

// GetStats returns the aggregate counters for the admin overview.
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.userRepo.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
