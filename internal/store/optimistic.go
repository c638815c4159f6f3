package store

import (
	"context"

	"github.com/Makepad-fr/tada/internal/model"
)

// busyFlag selects which transient flag marks an item as busy.
type busyFlag int

const (
	flagUpdating busyFlag = iota
	flagDeleting
)

func (f busyFlag) set(it *model.Item, on bool) {
	switch f {
	case flagDeleting:
		it.IsDeleting = on
	default:
		it.IsUpdating = on
	}
}

// optimisticOp is one single-item remote mutation.
type optimisticOp struct {
	name    string
	id      int
	flag    busyFlag
	call    func(ctx context.Context) (model.Item, error)
	commit  func(got model.Item) // runs with s.mu held
	failMsg string
}

// optimistic marks the item busy, runs the remote call outside the lock,
// then commits on success or clears the mark and shows failMsg on failure.
// Busy items are refused with ErrBusy so same-item calls never overlap.
func (s *Store) optimistic(ctx context.Context, op optimisticOp) error {
	s.mu.Lock()
	i := s.indexLocked(op.id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if s.items[i].Busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	op.flag.set(&s.items[i], true)
	s.mu.Unlock()
	s.notify()

	got, err := op.call(ctx)

	s.mu.Lock()
	if err != nil {
		if i := s.indexLocked(op.id); i >= 0 {
			op.flag.set(&s.items[i], false)
		}
		s.showErrorLocked(op.failMsg)
	} else {
		op.commit(got)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Warn(op.name+" failed", "id", op.id, "err", err)
		return err
	}
	s.logger.Debug(op.name, "id", op.id)
	return nil
}
