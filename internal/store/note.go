package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/notedesk/server/types"
)

// NoteRepository handles persistence for notes in Postgres.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) List(ctx context.Context, username string) ([]types.Note, error) {
	const query = `
		SELECT id, username, content, created_at, updated_at
		FROM notes
		WHERE username = $1
		ORDER BY updated_at DESC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []types.Note
	for rows.Next() {
		var note types.Note
		if err := rows.Scan(
			&note.ID,
			&note.Username,
			&note.Content,
			&note.CreatedAt,
			&note.UpdatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (r *NoteRepository) Create(ctx context.Context, note types.Note) (types.Note, error) {
	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now

	const query = `
		INSERT INTO notes (username, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		note.Username,
		note.Content,
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&note.ID); err != nil {
		return types.Note{}, err
	}
	return note, nil
}

// Edit updates a note's content only when it exists and belongs to
// username. The ownership check is part of the statement, so a
// cross-user attempt matches zero rows.
func (r *NoteRepository) Edit(ctx context.Context, username string, id int64, content string) error {
	const query = `
		UPDATE notes
		SET content = $1,
			updated_at = $2
		WHERE id = $3 AND username = $4`
	result, err := r.db.ExecContext(ctx, query, content, time.Now(), id, username)
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

// Delete removes a note with the same ownership-scoped semantics as
// Edit.
func (r *NoteRepository) Delete(ctx context.Context, username string, id int64) error {
	const query = `DELETE FROM notes WHERE id = $1 AND username = $2`
	result, err := r.db.ExecContext(ctx, query, id, username)
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
