package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refqa-chat/notify"
)

func newAdminTestServer(t *testing.T, deleteStatus int) (*httptest.Server, *int32) {
	var deletes int32
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/admin/all-messages", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []Message{
				{ID: 7, RoomKey: 3, Username: "omar", Content: "hadith"},
				{ID: 8, RoomKey: 3, Username: "sara", Content: "dua"},
			},
			"total": 120,
			"page":  page,
		})
	})
	mux.HandleFunc("/chat/message/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		atomic.AddInt32(&deletes, 1)
		w.WriteHeader(deleteStatus)
	})
	mux.HandleFunc("/admin/users", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []AdminUser{{ID: 1, Username: "omar", Role: "user"}},
		})
	})
	mux.HandleFunc("/admin/stats", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stats": AdminStats{TotalUsers: 9, TotalCompletions: 4, TopUsername: "sara"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &deletes
}

func TestAdminDeleteSoftMarksAfterConfirmation(t *testing.T) {
	srv, _ := newAdminTestServer(t, http.StatusNoContent)
	bus := notify.NewBusTTL(time.Minute)
	admin := NewAdminClient(srv.URL, "token", bus, nil)

	require.NoError(t, admin.LoadMessages(context.Background(), 1))
	require.Len(t, admin.Messages(), 2)
	assert.Equal(t, 120, admin.Total())

	require.NoError(t, admin.DeleteMessage(context.Background(), 7))

	msgs := admin.Messages()
	require.Len(t, msgs, 2, "soft delete keeps the row in the list")
	assert.True(t, msgs[0].IsDeleted)
	assert.Equal(t, "hadith", msgs[0].Content, "body retained for audit")
	assert.False(t, msgs[1].IsDeleted)

	live := bus.Live()
	require.Len(t, live, 1)
	assert.Equal(t, notify.KindSuccess, live[0].Kind)
}

func TestAdminDeleteIsIdempotent(t *testing.T) {
	srv, deletes := newAdminTestServer(t, http.StatusNoContent)
	bus := notify.NewBusTTL(time.Minute)
	admin := NewAdminClient(srv.URL, "token", bus, nil)
	require.NoError(t, admin.LoadMessages(context.Background(), 1))

	require.NoError(t, admin.DeleteMessage(context.Background(), 7))
	require.NoError(t, admin.DeleteMessage(context.Background(), 7))
	assert.EqualValues(t, 2, atomic.LoadInt32(deletes))

	msgs := admin.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsDeleted)
}

func TestAdminDeleteFailureLeavesStateUntouched(t *testing.T) {
	srv, _ := newAdminTestServer(t, http.StatusInternalServerError)
	bus := notify.NewBusTTL(time.Minute)
	admin := NewAdminClient(srv.URL, "token", bus, nil)
	require.NoError(t, admin.LoadMessages(context.Background(), 1))

	err := admin.DeleteMessage(context.Background(), 7)
	require.Error(t, err)

	for _, m := range admin.Messages() {
		assert.False(t, m.IsDeleted, "no optimistic marking before confirmation")
	}
	live := bus.Live()
	require.Len(t, live, 1)
	assert.Equal(t, notify.KindError, live[0].Kind)
}

func TestAdminUsersAndStats(t *testing.T) {
	srv, _ := newAdminTestServer(t, http.StatusNoContent)
	admin := NewAdminClient(srv.URL, "token", notify.NewBusTTL(time.Minute), nil)

	users, err := admin.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "omar", users[0].Username)

	stats, err := admin.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, stats.TotalUsers)
	assert.Equal(t, "sara", stats.TopUsername)
}
