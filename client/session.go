package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"refqa-chat/rooms"
)

// SwitchRoom makes roomKey the active room: it leaves the previous room,
// clears the visible sequence, joins the new room and hydrates its history
// while live events stream in. Live events that arrive before the history
// resolves are buffered and appended after it, in arrival order.
func (c *Client) SwitchRoom(ctx context.Context, roomKey int) error {
	if _, err := rooms.Get(roomKey); err != nil {
		return err
	}

	c.mu.Lock()
	prev := c.session.room
	c.session.epoch++
	epoch := c.session.epoch
	c.session.room = roomKey
	c.session.messages = nil
	c.session.pending = nil
	c.session.loading = true
	c.session.historyPending = true
	c.mu.Unlock()

	if prev != 0 && prev != roomKey {
		// Best effort; no acknowledgment expected.
		_ = c.emit(eventLeaveRoom, leaveRoomPayload{RoomKey: prev, Username: c.identity.Username})
	}
	_ = c.emit(eventJoinRoom, joinRoomPayload{
		RoomKey:  roomKey,
		UserID:   c.identity.UserID,
		Username: c.identity.Username,
	})

	c.notifyUpdate()
	go c.fetchHistory(ctx, roomKey, epoch)
	return nil
}

// fetchHistory performs the one-shot hydration for a room switch. The epoch
// tag makes a late response for a room the user already left harmless.
func (c *Client) fetchHistory(ctx context.Context, roomKey int, epoch uint64) {
	history, err := c.getHistory(ctx, roomKey)

	c.mu.Lock()
	if c.session.epoch != epoch {
		// The user switched again; this result is stale. Drop silently.
		c.mu.Unlock()
		return
	}
	if err == nil {
		c.session.messages = append(history, c.session.pending...)
	} else {
		// Room shows empty rather than blocked; buffered live events
		// still count, they arrived on the live stream for this room.
		c.session.messages = append(c.session.messages, c.session.pending...)
	}
	c.session.pending = nil
	c.session.historyPending = false
	c.session.loading = false
	c.mu.Unlock()

	if err != nil {
		c.bus.Error("فشل تحميل الرسائل")
	}
	c.notifyUpdate()
}

func (c *Client) getHistory(ctx context.Context, roomKey int) ([]Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/chat/%d", c.baseURL, roomKey), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history fetch: status %d", resp.StatusCode)
	}

	var body struct {
		Messages []Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Messages, nil
}

// Send validates and transmits a message for the active room. The message
// is not appended locally; it becomes visible via the new-message echo.
func (c *Client) Send(text string) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageRunes {
		c.bus.Error("الرسالة طويلة جداً (500 حرف كحد أقصى)")
		return ErrMessageTooLong
	}

	c.mu.Lock()
	room := c.session.room
	c.mu.Unlock()
	if room == 0 {
		return ErrNoActiveRoom
	}

	return c.emit(eventSendMessage, sendMessagePayload{
		RoomKey:  room,
		UserID:   c.identity.UserID,
		Username: c.identity.Username,
		Avatar:   c.identity.Avatar,
		Content:  trimmed,
		Token:    c.token,
	})
}

// DeleteMessage requests a moderation delete over the live connection.
// The message is removed from the sequence only when the server confirms
// via the message-deleted broadcast.
func (c *Client) DeleteMessage(messageID int64) error {
	if !c.identity.IsAdmin() {
		c.bus.Error("غير مصرح لك بحذف الرسائل")
		return ErrNotAuthorized
	}
	if !c.Connected() {
		return ErrNotConnected
	}
	return c.emit(eventDeleteMessage, deleteMessagePayload{MessageID: messageID})
}

// Messages returns a snapshot of the active room's sequence.
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.session.messages))
	copy(out, c.session.messages)
	return out
}

// Loading reports whether the active room's history hydration is in flight.
func (c *Client) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.loading
}

// ActiveRoom returns the active room key, 0 when none.
func (c *Client) ActiveRoom() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.room
}

// dispatch routes one inbound live event into the session.
func (c *Client) dispatch(env envelope) {
	switch env.Event {
	case eventNewMessage:
		var msg Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return
		}
		c.applyNewMessage(msg)
	case eventMessageDeleted:
		var p messageDeletedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		c.applyDeletion(p.MessageID)
	case eventUserJoined:
		var p userJoinedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		c.applySystemMessage(p.Message)
	}
}

func (c *Client) applyNewMessage(msg Message) {
	c.mu.Lock()
	if c.session.room == 0 || (msg.RoomKey != 0 && msg.RoomKey != c.session.room) {
		// Event for a room we already left.
		c.mu.Unlock()
		return
	}
	if c.session.historyPending {
		c.session.pending = append(c.session.pending, msg)
		c.mu.Unlock()
		return
	}
	c.session.messages = append(c.session.messages, msg)
	c.mu.Unlock()
	c.notifyUpdate()
}

// applyDeletion removes the id wherever it lives; absence is a no-op, so
// duplicate confirmations are harmless.
func (c *Client) applyDeletion(messageID int64) {
	c.mu.Lock()
	changed := false
	c.session.messages, changed = removeByID(c.session.messages, messageID)
	if pruned, ok := removeByID(c.session.pending, messageID); ok {
		c.session.pending = pruned
		changed = true
	}
	c.mu.Unlock()
	if changed {
		c.notifyUpdate()
	}
}

func (c *Client) applySystemMessage(announcement string) {
	msg := Message{
		ID:        -time.Now().UnixNano(),
		Content:   announcement,
		System:    true,
		CreatedAt: time.Now(),
	}
	c.mu.Lock()
	if c.session.room == 0 {
		c.mu.Unlock()
		return
	}
	if c.session.historyPending {
		c.session.pending = append(c.session.pending, msg)
		c.mu.Unlock()
		return
	}
	c.session.messages = append(c.session.messages, msg)
	c.mu.Unlock()
	c.notifyUpdate()
}

func removeByID(list []Message, id int64) ([]Message, bool) {
	for i, m := range list {
		if m.ID == id {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

func (c *Client) notifyUpdate() {
	if c.onUpdate == nil {
		return
	}
	c.onUpdate(c.Messages())
}
