package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"refqa-chat/internal/auth"
	"refqa-chat/internal/mocks"
	"refqa-chat/internal/models"
)

const testSecret = "test-secret"

func newWSTestServer(t *testing.T, repo *mocks.MessageRepositoryMock) *httptest.Server {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	handler := NewHandler(hub, repo, testSecret, nil)
	router := gin.New()
	router.GET("/ws", handler.Handle)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server, userID int64, username, role string) *websocket.Conn {
	token, err := auth.GenerateToken(userID, username, role, testSecret, time.Minute)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, payload any) {
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(models.Envelope{Event: event, Data: data}))
}

// awaitEvent reads frames until one with the wanted event name arrives.
func awaitEvent(t *testing.T, conn *websocket.Conn, event string) models.Envelope {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var env models.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for %q: %v", event, err)
		}
		if env.Event == event {
			return env
		}
	}
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	srv := newWSTestServer(t, new(mocks.MessageRepositoryMock))

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestJoinAnnouncesToPeersOnly(t *testing.T) {
	srv := newWSTestServer(t, new(mocks.MessageRepositoryMock))

	first := dialWS(t, srv, 1, "omar", "user")
	sendEvent(t, first, models.EventJoinRoom, models.JoinRoomPayload{RoomKey: 3, UserID: 1, Username: "omar"})

	// Give the first join time to register before the peer joins.
	time.Sleep(50 * time.Millisecond)

	second := dialWS(t, srv, 2, "khalid", "user")
	sendEvent(t, second, models.EventJoinRoom, models.JoinRoomPayload{RoomKey: 3, UserID: 2, Username: "khalid"})

	env := awaitEvent(t, first, models.EventUserJoined)
	var p models.UserJoinedPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Contains(t, p.Message, "khalid")
}

func TestSendMessagePersistsAndBroadcasts(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	srv := newWSTestServer(t, repo)

	stored := models.Message{ID: 5, RoomKey: 3, UserID: 1, Username: "omar", Content: "السلام عليكم"}
	repo.On("CreateMessage", mock.Anything, 3, int64(1), "omar", "", "السلام عليكم").Return(stored, nil).Once()

	sender := dialWS(t, srv, 1, "omar", "user")
	peer := dialWS(t, srv, 2, "sara", "user")
	sendEvent(t, sender, models.EventJoinRoom, models.JoinRoomPayload{RoomKey: 3, UserID: 1, Username: "omar"})
	sendEvent(t, peer, models.EventJoinRoom, models.JoinRoomPayload{RoomKey: 3, UserID: 2, Username: "sara"})
	time.Sleep(50 * time.Millisecond)

	token, err := auth.GenerateToken(1, "omar", "user", testSecret, time.Minute)
	require.NoError(t, err)
	sendEvent(t, sender, models.EventSendMessage, models.SendMessagePayload{
		RoomKey: 3, UserID: 1, Username: "omar", Content: "السلام عليكم", Token: token,
	})

	env := awaitEvent(t, peer, models.EventNewMessage)
	var msg models.Message
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, int64(5), msg.ID)
	assert.Equal(t, "السلام عليكم", msg.Content)

	repo.AssertExpectations(t)
}

func TestSendMessageInvalidTokenDropped(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	srv := newWSTestServer(t, repo)

	sender := dialWS(t, srv, 1, "omar", "user")
	sendEvent(t, sender, models.EventJoinRoom, models.JoinRoomPayload{RoomKey: 3, UserID: 1, Username: "omar"})
	sendEvent(t, sender, models.EventSendMessage, models.SendMessagePayload{
		RoomKey: 3, UserID: 1, Username: "omar", Content: "hi", Token: "forged",
	})

	time.Sleep(100 * time.Millisecond)
	repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageRejectsOverlongContent(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	srv := newWSTestServer(t, repo)

	token, err := auth.GenerateToken(1, "omar", "user", testSecret, time.Minute)
	require.NoError(t, err)

	sender := dialWS(t, srv, 1, "omar", "user")
	sendEvent(t, sender, models.EventJoinRoom, models.JoinRoomPayload{RoomKey: 3, UserID: 1, Username: "omar"})
	sendEvent(t, sender, models.EventSendMessage, models.SendMessagePayload{
		RoomKey: 3, UserID: 1, Username: "omar", Content: strings.Repeat("ص", MaxMessageRunes+1), Token: token,
	})

	time.Sleep(100 * time.Millisecond)
	repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteMessageAdminOnly(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	srv := newWSTestServer(t, repo)

	member := dialWS(t, srv, 1, "omar", "user")
	sendEvent(t, member, models.EventJoinRoom, models.JoinRoomPayload{RoomKey: 3, UserID: 1, Username: "omar"})
	sendEvent(t, member, models.EventDeleteMessage, models.DeleteMessagePayload{MessageID: 5})

	time.Sleep(100 * time.Millisecond)
	repo.AssertNotCalled(t, "SoftDeleteMessage", mock.Anything, mock.Anything)
}

func TestDeleteMessageBroadcastsToRoom(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	srv := newWSTestServer(t, repo)

	repo.On("GetMessage", mock.Anything, int64(5)).Return(models.Message{ID: 5, RoomKey: 3}, nil).Once()
	repo.On("SoftDeleteMessage", mock.Anything, int64(5)).Return(nil).Once()

	member := dialWS(t, srv, 1, "omar", "user")
	sendEvent(t, member, models.EventJoinRoom, models.JoinRoomPayload{RoomKey: 3, UserID: 1, Username: "omar"})
	time.Sleep(50 * time.Millisecond)

	admin := dialWS(t, srv, 2, "aisha", "admin")
	sendEvent(t, admin, models.EventJoinRoom, models.JoinRoomPayload{RoomKey: 3, UserID: 2, Username: "aisha"})
	sendEvent(t, admin, models.EventDeleteMessage, models.DeleteMessagePayload{MessageID: 5})

	env := awaitEvent(t, member, models.EventMessageDeleted)
	var p models.MessageDeletedPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, int64(5), p.MessageID)

	repo.AssertExpectations(t)
}
