package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"refqa-chat/internal/mocks"
	"refqa-chat/internal/models"
	"refqa-chat/internal/repositories"
)

func setupChatRouter(repo *mocks.MessageRepositoryMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewChatHandler(repo, 50, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", int64(1))
		c.Set("username", "aisha")
		c.Set("role", models.RoleAdmin)
	})
	r.GET("/chat/admin/all-messages", h.ListAllMessages)
	r.GET("/chat/:room_key", h.GetRoomHistory)
	r.DELETE("/chat/message/:message_id", h.DeleteMessage)
	return r
}

func TestGetRoomHistory(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	repo.On("GetRoomHistory", mock.Anything, 3).Return([]models.Message{
		{ID: 1, RoomKey: 3, Username: "omar", Content: "السلام عليكم"},
		{ID: 2, RoomKey: 3, Username: "sara", Content: "وعليكم السلام"},
	}, nil)
	router := setupChatRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/3", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Messages, 2)
	assert.Equal(t, int64(1), body.Messages[0].ID)
	repo.AssertExpectations(t)
}

func TestGetRoomHistoryInvalidKey(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	router := setupChatRouter(repo)

	for _, key := range []string{"0", "31", "abc"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/chat/"+key, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "room key %q", key)
	}
	repo.AssertNotCalled(t, "GetRoomHistory", mock.Anything, mock.Anything)
}

func TestGetRoomHistoryRepoError(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	repo.On("GetRoomHistory", mock.Anything, 5).Return(nil, errors.New("db down"))
	router := setupChatRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListAllMessagesPaging(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	repo.On("ListAllMessages", mock.Anything, 2, 50).Return([]models.Message{
		{ID: 9, RoomKey: 1, Content: "dua", IsDeleted: true},
	}, 120, nil)
	router := setupChatRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/admin/all-messages?page=2", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Messages []models.Message `json:"messages"`
		Total    int              `json:"total"`
		Page     int              `json:"page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 120, body.Total)
	assert.Equal(t, 2, body.Page)
	require.Len(t, body.Messages, 1)
	assert.True(t, body.Messages[0].IsDeleted)
	repo.AssertExpectations(t)
}

func TestListAllMessagesDefaultsPageOne(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	repo.On("ListAllMessages", mock.Anything, 1, 50).Return([]models.Message{}, 0, nil)
	router := setupChatRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/admin/all-messages?page=junk", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestDeleteMessage(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	repo.On("SoftDeleteMessage", mock.Anything, int64(7)).Return(nil)
	router := setupChatRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/chat/message/7", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	repo.AssertExpectations(t)
}

func TestDeleteMessageNotFound(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	repo.On("SoftDeleteMessage", mock.Anything, int64(404)).Return(repositories.ErrMessageNotFound)
	router := setupChatRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/chat/message/404", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
