package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"refqa-chat/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts account persistence for the admin console.
type UserRepository interface {
	GetUser(ctx context.Context, userID int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, userID int64) error
	GetStats(ctx context.Context) (models.Stats, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches a single account.
func (r *UserRepo) GetUser(ctx context.Context, userID int64) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username, email, role, quran_completions, total_prayers, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListUsers returns all accounts, newest first.
func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT id, username, email, role, quran_completions, total_prayers, created_at FROM users ORDER BY created_at DESC`)
	return users, err
}

// DeleteUser removes an account. Admin accounts cannot be removed.
func (r *UserRepo) DeleteUser(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1 AND role <> 'admin'`, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetStats aggregates the platform counters shown on the admin overview.
func (r *UserRepo) GetStats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	err := r.db.GetContext(ctx, &stats, `SELECT COUNT(*) AS total_users,
        COALESCE(SUM(quran_completions), 0) AS total_completions,
        COALESCE(SUM(total_prayers), 0) AS total_prayers
        FROM users`)
	if err != nil {
		return models.Stats{}, err
	}

	var top struct {
		Username         string `db:"username"`
		QuranCompletions int    `db:"quran_completions"`
	}
	err = r.db.GetContext(ctx, &top, `SELECT username, quran_completions FROM users ORDER BY quran_completions DESC, username ASC LIMIT 1`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Stats{}, err
	}
	stats.TopUsername = top.Username
	stats.TopCompletions = top.QuranCompletions
	return stats, nil
}
