package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Makepad-fr/tada/internal/filter"
	"github.com/Makepad-fr/tada/internal/model"
)

// Load fetches the whole collection. Only the first call does anything.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return ErrAlreadyLoaded
	}
	s.loaded = true
	s.loading = true
	s.mu.Unlock()
	s.notify()

	items, err := s.remote.List(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.showErrorLocked(MsgLoad)
	} else {
		s.items = append([]model.Item{}, items...)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Warn("load failed", "err", err)
		return err
	}
	s.logger.Debug("loaded", "count", len(items))
	return nil
}

// Create adds a todo. While the remote call runs, a draft with id 0 is shown
// and further creates are refused with ErrCreating. The draft is dropped
// whatever the outcome.
func (s *Store) Create(ctx context.Context, title string) (model.Item, error) {
	title = strings.TrimSpace(title)

	s.mu.Lock()
	if title == "" {
		s.showErrorLocked(MsgEmptyTitle)
		s.mu.Unlock()
		s.notify()
		return model.Item{}, ErrEmptyTitle
	}
	if s.creating {
		s.mu.Unlock()
		return model.Item{}, ErrCreating
	}
	s.creating = true
	s.draft = &model.Item{ID: 0, UserID: s.userID, Title: title}
	s.mu.Unlock()
	s.notify()

	got, err := s.remote.Create(ctx, title)

	s.mu.Lock()
	s.draft = nil
	s.creating = false
	if err != nil {
		s.showErrorLocked(MsgAdd)
	} else {
		s.items = append(s.items, got)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Warn("create failed", "title", title, "err", err)
		return model.Item{}, err
	}
	s.logger.Debug("created", "id", got.ID)
	return got, nil
}

// Delete removes a todo once the remote confirms it.
func (s *Store) Delete(ctx context.Context, id int) error {
	return s.optimistic(ctx, optimisticOp{
		name: "delete",
		id:   id,
		flag: flagDeleting,
		call: func(ctx context.Context) (model.Item, error) {
			return model.Item{}, s.remote.Delete(ctx, id)
		},
		commit:  func(model.Item) { s.removeLocked(id) },
		failMsg: MsgDelete,
	})
}

// Update is the shared partial-update path used by toggles and title edits.
// On success the item is replaced by the server's version. On failure the
// busy mark is cleared, the banner shown, and the error returned so callers
// can react (an edit commit stays in edit mode).
func (s *Store) Update(ctx context.Context, id int, patch model.Patch) error {
	if patch.Empty() {
		return nil
	}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			s.mu.Lock()
			s.showErrorLocked(MsgEmptyTitle)
			s.mu.Unlock()
			s.notify()
			return ErrEmptyTitle
		}
		patch.Title = &t
	}
	return s.optimistic(ctx, optimisticOp{
		name: "update",
		id:   id,
		flag: flagUpdating,
		call: func(ctx context.Context) (model.Item, error) {
			return s.remote.Update(ctx, id, patch)
		},
		commit: func(got model.Item) {
			if i := s.indexLocked(id); i >= 0 {
				s.items[i] = got
			}
		},
		failMsg: MsgUpdate,
	})
}

// Toggle flips the completed flag of one todo.
func (s *Store) Toggle(ctx context.Context, id int) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	done := !s.items[i].Completed
	s.mu.Unlock()
	return s.Update(ctx, id, model.CompletedPatch(done))
}

// BeginEdit puts id in edit mode. Only one item is editable at a time.
func (s *Store) BeginEdit(id int) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if s.items[i].Busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	s.editingID = id
	s.mu.Unlock()
	s.notify()
	return nil
}

// EndEdit leaves edit mode without saving.
func (s *Store) EndEdit() {
	s.mu.Lock()
	changed := s.editingID != 0
	s.editingID = 0
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// EditingID is the id in edit mode, 0 when none.
func (s *Store) EditingID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingID
}

// EditTitle commits a title edit for the item in edit mode. It does nothing
// for any other id. An empty title deletes the item. An unchanged title
// leaves edit mode without a remote call; a failed update keeps edit mode
// so the user can retry.
func (s *Store) EditTitle(ctx context.Context, id int, newTitle string) error {
	s.mu.Lock()
	if s.editingID == 0 || s.editingID != id {
		s.mu.Unlock()
		return ErrNotEditing
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if strings.TrimSpace(newTitle) == "" {
		s.mu.Unlock()
		return s.Delete(ctx, id)
	}
	if strings.TrimSpace(newTitle) == strings.TrimSpace(s.items[i].Title) {
		s.editingID = 0
		s.mu.Unlock()
		s.notify()
		return nil
	}
	s.mu.Unlock()

	if err := s.Update(ctx, id, model.TitlePatch(newTitle)); err != nil {
		return err
	}

	s.mu.Lock()
	if s.editingID == id {
		s.editingID = 0
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// ToggleAll completes every item, or un-completes every item when all are
// already completed. Only items that need to change are sent. The batch is
// all-or-nothing: one failed call discards every result.
func (s *Store) ToggleAll(ctx context.Context) error {
	s.mu.Lock()
	target := !filter.AllCompleted(s.items)
	var ids []int
	for i := range s.items {
		if s.items[i].Completed != target && !s.items[i].Busy() {
			s.items[i].IsUpdating = true
			ids = append(ids, s.items[i].ID)
		}
	}
	s.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}
	s.notify()

	// errgroup without a context: a failure must not cancel the other calls.
	results := make([]model.Item, len(ids))
	var g errgroup.Group
	for k, id := range ids {
		g.Go(func() error {
			got, err := s.remote.Update(ctx, id, model.CompletedPatch(target))
			if err != nil {
				return err
			}
			results[k] = got
			return nil
		})
	}
	err := g.Wait()

	s.mu.Lock()
	if err == nil {
		for k, id := range ids {
			if i := s.indexLocked(id); i >= 0 {
				s.items[i] = results[k]
			}
		}
	}
	for _, id := range ids {
		if i := s.indexLocked(id); i >= 0 {
			s.items[i].IsUpdating = false
		}
	}
	if err != nil {
		s.showErrorLocked(MsgUpdate)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Warn("toggle all failed", "count", len(ids), "err", err)
		return err
	}
	s.logger.Debug("toggled all", "count", len(ids), "completed", target)
	return nil
}

// ClearCompleted deletes every completed item concurrently. Each delete
// stands on its own: successes are removed, failures stay. It returns how
// many items were removed.
func (s *Store) ClearCompleted(ctx context.Context) (int, error) {
	s.mu.Lock()
	var ids []int
	for i := range s.items {
		if s.items[i].Completed && !s.items[i].Busy() {
			s.items[i].IsDeleting = true
			ids = append(ids, s.items[i].ID)
		}
	}
	s.mu.Unlock()
	if len(ids) == 0 {
		return 0, nil
	}
	s.notify()

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for k, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[k] = s.remote.Delete(ctx, id)
		}()
	}
	wg.Wait()

	removed, failed := 0, 0
	s.mu.Lock()
	for k, id := range ids {
		if errs[k] == nil {
			s.removeLocked(id)
			removed++
			continue
		}
		failed++
		if i := s.indexLocked(id); i >= 0 {
			s.items[i].IsDeleting = false
		}
	}
	if failed > 0 {
		s.showErrorLocked(MsgDelete)
	}
	s.mu.Unlock()
	s.notify()

	if failed > 0 {
		err := errors.Join(errs...)
		s.logger.Warn("clear completed partially failed", "removed", removed, "failed", failed, "err", err)
		return removed, err
	}
	s.logger.Debug("cleared completed", "removed", removed)
	return removed, nil
}
