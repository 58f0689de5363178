package services

import (
	"context"
	"strings"
	"time"

	"github.com/notedesk/server/internal/events"
	"github.com/notedesk/server/types"
)

// NoteStore defines persistence operations for notes. Both the
// Postgres repository and the JSON-file store implement it.
type NoteStore interface {
	List(ctx context.Context, username string) ([]types.Note, error)
	Create(ctx context.Context, note types.Note) (types.Note, error)
	Edit(ctx context.Context, username string, id int64, content string) error
	Delete(ctx context.Context, username string, id int64) error
}

// NoteService enforces ownership and content rules over a NoteStore.
type NoteService struct {
	store     NoteStore
	publisher *events.Publisher
}

func NewNoteService(store NoteStore, publisher *events.Publisher) *NoteService {
	return &NoteService{store: store, publisher: publisher}
}

// List returns the user's notes ordered by most recent update.
func (s *NoteService) List(ctx context.Context, user types.User) ([]types.Note, error) {
	return s.store.List(ctx, user.Username)
}

// Create inserts a note owned by the user. Content that trims to
// empty is dropped without creating anything or reporting an error.
func (s *NoteService) Create(ctx context.Context, user types.User, content string) (types.Note, error) {
	if strings.TrimSpace(content) == "" {
		return types.Note{}, nil
	}

	note, err := s.store.Create(ctx, types.Note{
		Username: user.Username,
		Content:  content,
	})
	if err != nil {
		return types.Note{}, err
	}

	s.publisher.NotePublished(ctx, events.NoteEvent{
		Action:   events.ActionCreated,
		NoteID:   note.ID,
		Username: user.Username,
		At:       time.Now(),
	})
	return note, nil
}

// Edit updates a note's content when it exists and belongs to the
// user. Empty content is a no-op; a cross-user or missing id surfaces
// store.ErrNotFound without touching any row.
func (s *NoteService) Edit(ctx context.Context, user types.User, id int64, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	if err := s.store.Edit(ctx, user.Username, id, content); err != nil {
		return err
	}

	s.publisher.NotePublished(ctx, events.NoteEvent{
		Action:   events.ActionEdited,
		NoteID:   id,
		Username: user.Username,
		At:       time.Now(),
	})
	return nil
}

// Delete removes a note with the same ownership scoping as Edit.
func (s *NoteService) Delete(ctx context.Context, user types.User, id int64) error {
	if err := s.store.Delete(ctx, user.Username, id); err != nil {
		return err
	}

	s.publisher.NotePublished(ctx, events.NoteEvent{
		Action:   events.ActionDeleted,
		NoteID:   id,
		Username: user.Username,
		At:       time.Now(),
	})
	return nil
}
