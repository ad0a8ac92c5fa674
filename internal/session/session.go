// Package session serializes selection commands for one user at a time and
// keeps a bounded undo history of earlier states.
package session

import (
	"errors"
	"sync"
	"time"

	"bricklink/taxonomy/internal/domain"
	"bricklink/taxonomy/internal/selection"

	"github.com/google/uuid"
)

var ErrNothingToUndo = errors.New("nothing to undo")

type Session struct {
	ID           uuid.UUID
	CategoryType domain.CategoryType
	OpenedAt     time.Time

	mu           sync.Mutex
	current      *selection.State
	history      []*selection.State
	historyLimit int
}

func New(categoryType domain.CategoryType, tree domain.CategoryTreeMap, historyLimit int) *Session {
	return Restore(uuid.New(), categoryType, selection.NewState(tree), historyLimit)
}

// Restore opens a session under a known id starting from st. The undo
// history starts empty.
func Restore(id uuid.UUID, categoryType domain.CategoryType, st *selection.State, historyLimit int) *Session {
	return &Session{
		ID:           id,
		CategoryType: categoryType,
		OpenedAt:     time.Now(),
		current:      st,
		historyLimit: historyLimit,
	}
}

// State returns the current selection state. It must be treated as read-only.
func (s *Session) State() *selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Dispatch applies cmd and reports whether the state changed. A tree
// replacement clears the undo history: older states describe the old tree.
func (s *Session) Dispatch(cmd selection.Command) (*selection.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := selection.Apply(s.current, cmd)
	if next == s.current {
		return next, false
	}

	if cmd.Type == selection.CommandInitialStateChange {
		s.history = nil
	} else {
		s.pushHistory(s.current)
	}
	s.current = next
	return next, true
}

// Undo restores the state in effect before the last recorded command.
func (s *Session) Undo() (*selection.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return s.current, ErrNothingToUndo
	}

	prev := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.current = prev
	return prev, nil
}

func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Snapshot converts the current state into the reportable selection.
func (s *Session) Snapshot() *domain.Selection {
	st := s.State()
	return &domain.Selection{
		SessionID:       s.ID.String(),
		CategoryType:    s.CategoryType,
		SelectedIDs:     st.SelectedIDs(),
		HighlightedPath: append([]string(nil), st.HighlightedPath...),
		UpdatedAt:       time.Now().UTC(),
	}
}

func (s *Session) pushHistory(st *selection.State) {
	if s.historyLimit <= 0 {
		return
	}
	if len(s.history) >= s.historyLimit {
		s.history = append(s.history[:0], s.history[1:]...)
	}
	s.history = append(s.history, st)
}
