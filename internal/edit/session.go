// Package edit holds the per-row editing state of a todo.
//
// A Session only owns the draft title. Whether the row is editing or busy is
// read from the store, so the two can never drift apart.
package edit

import (
	"context"
	"errors"
	"strings"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

// State is the display state of a row.
type State int

const (
	Display State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "display"
}

// Outcome reports what a Commit did.
type Outcome int

const (
	Unchanged Outcome = iota // left edit mode, no remote call
	Updated                  // title saved
	Deleted                  // empty title removed the item
	Failed                   // remote call failed, still editing
)

// Session is the transient edit state of one row.
type Session struct {
	st    *store.Store
	id    int
	draft string
}

// New starts a session for item in Display state.
func New(st *store.Store, item model.Item) *Session {
	return &Session{st: st, id: item.ID, draft: item.Title}
}

// ID is the item this session edits.
func (s *Session) ID() int { return s.id }

// Draft is the title being typed.
func (s *Session) Draft() string { return s.draft }

// SetDraft replaces the typed title.
func (s *Session) SetDraft(title string) { s.draft = title }

// State derives Display/Editing from the store's editing id.
func (s *Session) State() State {
	if s.st.EditingID() == s.id {
		return Editing
	}
	return Display
}

// Busy reports an outstanding delete or update for the row.
func (s *Session) Busy() bool {
	it, ok := s.st.Snapshot().Item(s.id)
	return ok && it.Busy()
}

// Begin enters edit mode with the draft set to the current title. Busy rows
// stay in Display.
func (s *Session) Begin() error {
	if err := s.st.BeginEdit(s.id); err != nil {
		return err
	}
	s.draft = s.lastTitle()
	return nil
}

// Cancel discards the draft and returns to Display.
func (s *Session) Cancel() {
	s.draft = s.lastTitle()
	if s.st.EditingID() == s.id {
		s.st.EndEdit()
	}
}

// Commit saves the draft. Enter and loss of focus both end up here.
//
//   - empty draft: the item is deleted; a busy row fails with
//     store.ErrBusy and stays in Editing
//   - unchanged draft: back to Display, nothing sent
//   - changed draft: the title is updated; on failure the draft reverts to
//     the last known title and the row stays in Editing
func (s *Session) Commit(ctx context.Context) (Outcome, error) {
	if s.State() != Editing {
		return Unchanged, store.ErrNotEditing
	}
	title := strings.TrimSpace(s.draft)
	current := s.lastTitle()

	switch {
	case title == "":
		// A delete already in flight is not ours: report it, stay editing.
		if err := s.st.Delete(ctx, s.id); err != nil {
			s.draft = current
			return Failed, err
		}
		return Deleted, nil
	case title == current:
		s.st.EndEdit()
		s.draft = current
		return Unchanged, nil
	}

	if err := s.st.EditTitle(ctx, s.id, title); err != nil {
		s.draft = s.lastTitle()
		return Failed, err
	}
	s.draft = s.lastTitle()
	return Updated, nil
}

// Delete removes the item. A second delete while one is outstanding is
// ignored.
func (s *Session) Delete(ctx context.Context) error {
	err := s.st.Delete(ctx, s.id)
	if errors.Is(err, store.ErrBusy) {
		return nil
	}
	return err
}

// Toggle flips the completed flag.
func (s *Session) Toggle(ctx context.Context) error {
	return s.st.Toggle(ctx, s.id)
}

func (s *Session) lastTitle() string {
	if it, ok := s.st.Snapshot().Item(s.id); ok {
		return it.Title
	}
	return s.draft
}
