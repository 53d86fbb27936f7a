package models

import "time"

// Message is a chat message in a juz room. Deletion is a monotonic soft
// flag: once set it is never cleared.
type Message struct {
	ID        int64     `db:"id" json:"id"`
	RoomKey   int       `db:"room_key" json:"room_key"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	Avatar    string    `db:"avatar" json:"avatar,omitempty"`
	Content   string    `db:"content" json:"content"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// User is a platform account as the admin console sees it.
type User struct {
	ID               int64     `db:"id" json:"id"`
	Username         string    `db:"username" json:"username"`
	Email            string    `db:"email" json:"email"`
	Role             string    `db:"role" json:"role"`
	QuranCompletions int       `db:"quran_completions" json:"quran_completions"`
	TotalPrayers     int       `db:"total_prayers" json:"total_prayers"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Stats aggregates platform counters for the admin overview.
type Stats struct {
	TotalUsers       int    `db:"total_users" json:"total_users"`
	TotalCompletions int    `db:"total_completions" json:"total_completions"`
	TotalPrayers     int    `db:"total_prayers" json:"total_prayers"`
	TopUsername      string `db:"top_username" json:"top_username"`
	TopCompletions   int    `db:"top_completions" json:"top_completions"`
}

// RoleAdmin marks identities allowed to moderate.
const RoleAdmin = "admin"
