// Package jsonfile provides a NoteStore backed by a single JSON file.
// It suits small local deployments: the whole file is rewritten on
// every mutation, guarded by a process-local mutex.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/notedesk/server/internal/store"
	"github.com/notedesk/server/types"
)

// NoteStore persists notes as a JSON array in a single file.
type NoteStore struct {
	mu     sync.Mutex
	path   string
	notes  []types.Note
	nextID int64
}

// Open loads the note file. A missing file starts an empty store; a
// corrupt file is treated as empty and rewritten on the next mutation.
func Open(path string) (*NoteStore, error) {
	s := &NoteStore{path: path, nextID: 1}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read notes file: %w", err)
	}

	if err := json.Unmarshal(data, &s.notes); err != nil {
		s.notes = nil
		return s, nil
	}

	// Ids are never reused after deletion, so the counter resumes past
	// the highest id ever persisted.
	for _, note := range s.notes {
		if note.ID >= s.nextID {
			s.nextID = note.ID + 1
		}
	}
	return s, nil
}

func (s *NoteStore) List(ctx context.Context, username string) ([]types.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := make([]types.Note, 0, len(s.notes))
	for _, note := range s.notes {
		if note.Username == username {
			notes = append(notes, note)
		}
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return sortKey(notes[i]).After(sortKey(notes[j]))
	})
	return notes, nil
}

func (s *NoteStore) Create(ctx context.Context, note types.Note) (types.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	note.ID = s.nextID
	note.CreatedAt = now
	note.UpdatedAt = now
	s.nextID++
	s.notes = append(s.notes, note)

	if err := s.save(); err != nil {
		s.notes = s.notes[:len(s.notes)-1]
		s.nextID--
		return types.Note{}, err
	}
	return note, nil
}

func (s *NoteStore) Edit(ctx context.Context, username string, id int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notes {
		if s.notes[i].ID == id && s.notes[i].Username == username {
			s.notes[i].Content = content
			s.notes[i].UpdatedAt = time.Now()
			return s.save()
		}
	}
	return store.ErrNotFound
}

func (s *NoteStore) Delete(ctx context.Context, username string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notes {
		if s.notes[i].ID == id && s.notes[i].Username == username {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return s.save()
		}
	}
	return store.ErrNotFound
}

func (s *NoteStore) save() error {
	data, err := json.MarshalIndent(s.notes, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write notes file: %w", err)
	}
	return nil
}

func sortKey(note types.Note) time.Time {
	if !note.UpdatedAt.IsZero() {
		return note.UpdatedAt
	}
	return note.CreatedAt
}
