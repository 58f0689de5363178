package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/notedesk/server/types"
)

const pqUniqueViolation = "23505"

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT username, password_hash, google_id, profile_picture, created_at
		FROM users
		WHERE username = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (types.User, error) {
	const query = `
		SELECT username, password_hash, google_id, profile_picture, created_at
		FROM users
		WHERE google_id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, googleID))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.CreatedAt = time.Now()

	const query = `
		INSERT INTO users (username, password_hash, google_id, profile_picture, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		user.Username,
		nullString(user.PasswordHash),
		nullString(user.GoogleID),
		nullString(user.AvatarPath),
		user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, username, avatarPath string) error {
	const query = `
		UPDATE users
		SET profile_picture = $1
		WHERE username = $2`
	result, err := r.db.ExecContext(ctx, query, nullString(avatarPath), username)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (types.User, error) {
	var (
		user         types.User
		passwordHash sql.NullString
		googleID     sql.NullString
		avatarPath   sql.NullString
	)
	err := row.Scan(
		&user.Username,
		&passwordHash,
		&googleID,
		&avatarPath,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	user.PasswordHash = passwordHash.String
	user.GoogleID = googleID.String
	user.AvatarPath = avatarPath.String
	return user, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
