package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"refqa-chat/notify"
)

// AdminUser is a platform account as the admin console lists it.
type AdminUser struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	QuranCompletions int       `json:"quran_completions"`
	TotalPrayers     int       `json:"total_prayers"`
	CreatedAt        time.Time `json:"created_at"`
}

// AdminStats are the aggregate counters of the admin overview.
type AdminStats struct {
	TotalUsers       int    `json:"total_users"`
	TotalCompletions int    `json:"total_completions"`
	TotalPrayers     int    `json:"total_prayers"`
	TopUsername      string `json:"top_username"`
	TopCompletions   int    `json:"top_completions"`
}

// AdminClient is the moderation console's one-shot request client. Unlike
// the live chat path, deletes here soft-mark: the message stays in the
// local list with its body, flagged deleted, and only after the server
// confirmed.
type AdminClient struct {
	baseURL string
	token   string
	bus     *notify.Bus
	httpc   *http.Client

	mu       sync.Mutex
	messages []Message
	total    int
	page     int
}

// NewAdminClient builds an AdminClient.
func NewAdminClient(baseURL, token string, bus *notify.Bus, httpc *http.Client) *AdminClient {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &AdminClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		bus:     bus,
		httpc:   httpc,
	}
}

// LoadMessages fetches one page of all messages, deleted included.
func (a *AdminClient) LoadMessages(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	var body struct {
		Messages []Message `json:"messages"`
		Total    int       `json:"total"`
	}
	if err := a.getJSON(ctx, fmt.Sprintf("/chat/admin/all-messages?page=%d", page), &body); err != nil {
		return err
	}

	a.mu.Lock()
	a.messages = body.Messages
	a.total = body.Total
	a.page = page
	a.mu.Unlock()
	return nil
}

// DeleteMessage soft-deletes a message. The local flag flips only after a
// successful response; the row stays visible with its body for audit.
// Deleting an already deleted message reaches the same final state.
func (a *AdminClient) DeleteMessage(ctx context.Context, messageID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/chat/message/%d", a.baseURL, messageID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpc.Do(req)
	if err != nil {
		a.bus.Error("فشل الحذف")
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.bus.Error("فشل الحذف")
		return fmt.Errorf("delete message: status %d", resp.StatusCode)
	}

	a.mu.Lock()
	for i := range a.messages {
		if a.messages[i].ID == messageID {
			a.messages[i].IsDeleted = true
		}
	}
	a.mu.Unlock()

	a.bus.Success("تم حذف الرسالة")
	return nil
}

// Messages returns a snapshot of the loaded page.
func (a *AdminClient) Messages() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// Total returns the total message count across all pages.
func (a *AdminClient) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// ListUsers fetches all platform accounts.
func (a *AdminClient) ListUsers(ctx context.Context) ([]AdminUser, error) {
	var body struct {
		Users []AdminUser `json:"users"`
	}
	if err := a.getJSON(ctx, "/admin/users", &body); err != nil {
		return nil, err
	}
	return body.Users, nil
}

// DeleteUser removes an account.
func (a *AdminClient) DeleteUser(ctx context.Context, userID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/admin/users/%d", a.baseURL, userID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpc.Do(req)
	if err != nil {
		a.bus.Error("فشل الحذف")
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.bus.Error("فشل الحذف")
		return fmt.Errorf("delete user: status %d", resp.StatusCode)
	}

	a.bus.Success("تم حذف المستخدم")
	return nil
}

// Stats fetches the aggregate counters.
func (a *AdminClient) Stats(ctx context.Context) (AdminStats, error) {
	var body struct {
		Stats AdminStats `json:"stats"`
	}
	if err := a.getJSON(ctx, "/admin/stats", &body); err != nil {
		return AdminStats{}, err
	}
	return body.Stats, nil
}

func (a *AdminClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
