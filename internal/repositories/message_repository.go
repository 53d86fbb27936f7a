package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"refqa-chat/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for room messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, roomKey int, userID int64, username, avatar, content string) (models.Message, error)
	GetRoomHistory(ctx context.Context, roomKey int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int64) (models.Message, error)
	ListAllMessages(ctx context.Context, page, pageSize int) ([]models.Message, int, error)
	SoftDeleteMessage(ctx context.Context, messageID int64) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message in a room.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomKey int, userID int64, username, avatar, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (room_key, user_id, username, avatar, content) VALUES ($1, $2, $3, $4, $5) RETURNING id, room_key, user_id, username, avatar, content, is_deleted, created_at`, roomKey, userID, username, avatar, content).
		Scan(&msg.ID, &msg.RoomKey, &msg.UserID, &msg.Username, &msg.Avatar, &msg.Content, &msg.IsDeleted, &msg.CreatedAt)
	return msg, err
}

// GetRoomHistory returns the room's non-deleted messages, oldest first.
func (r *MessageRepo) GetRoomHistory(ctx context.Context, roomKey int) ([]models.Message, error) {
	query := `SELECT id, room_key, user_id, username, avatar, content, is_deleted, created_at
        FROM messages
        WHERE room_key=$1 AND is_deleted = FALSE
        ORDER BY created_at ASC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, roomKey)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, room_key, user_id, username, avatar, content, is_deleted, created_at FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListAllMessages returns one page of all messages, deleted included, newest
// first, together with the total count for pagination.
func (r *MessageRepo) ListAllMessages(ctx context.Context, page, pageSize int) ([]models.Message, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages`); err != nil {
		return nil, 0, err
	}

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, room_key, user_id, username, avatar, content, is_deleted, created_at
        FROM messages ORDER BY created_at DESC LIMIT $1 OFFSET $2`, pageSize, offset)
	return msgs, total, err
}

// SoftDeleteMessage flags a message as deleted. The flag is monotonic and
// the call is idempotent: deleting an already deleted message succeeds.
func (r *MessageRepo) SoftDeleteMessage(ctx context.Context, messageID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_deleted = TRUE WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
