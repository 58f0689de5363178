package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SessionRepository handles server-side session records. Each row maps
// an opaque session id to exactly one username.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, id, username string) error {
	const query = `
		INSERT INTO sessions (id, username, created_at)
		VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, id, username, time.Now())
	return err
}

func (r *SessionRepository) GetUsername(ctx context.Context, id string) (string, error) {
	const query = `SELECT username FROM sessions WHERE id = $1`
	var username string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return username, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sessions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
