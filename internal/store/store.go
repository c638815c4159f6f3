// Package store holds the in-memory todo list and keeps it in sync with the
// remote collection.
//
// The Store is the only writer of list state. Every mutation is applied
// locally first, then confirmed or reverted once the remote call returns.
// Consumers (TUI, CLI, edit sessions) read Snapshots and call operations;
// they never hold item state of their own.
package store

import (
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/filter"
	"github.com/Makepad-fr/tada/internal/model"
)

// User-visible banner texts.
const (
	MsgLoad       = "Unable to load todos"
	MsgEmptyTitle = "Title should not be empty"
	MsgAdd        = "Unable to add a todo"
	MsgDelete     = "Unable to delete a todo"
	MsgUpdate     = "Unable to update a todo"
)

// DefaultErrorTTL is how long an error banner stays up.
const DefaultErrorTTL = 3 * time.Second

var (
	ErrEmptyTitle    = errors.New("title should not be empty")
	ErrCreating      = errors.New("a todo is already being added")
	ErrBusy          = errors.New("todo is busy")
	ErrNotFound      = errors.New("todo not found")
	ErrNotEditing    = errors.New("todo is not being edited")
	ErrAlreadyLoaded = errors.New("todos already loaded")
)

// Stopper cancels a pending timer. *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules fn after d.
type AfterFunc func(d time.Duration, fn func()) Stopper

func timeAfterFunc(d time.Duration, fn func()) Stopper { return time.AfterFunc(d, fn) }

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for operation failures and transitions.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithErrorTTL overrides the banner auto-clear delay.
func WithErrorTTL(d time.Duration) Option {
	return func(s *Store) { s.errorTTL = d }
}

// WithAfterFunc replaces the timer used for the banner auto-clear.
func WithAfterFunc(f AfterFunc) Option {
	return func(s *Store) { s.afterFunc = f }
}

// Store is the owned, single-writer todo list.
type Store struct {
	remote    api.Collection
	userID    int
	logger    *log.Logger
	errorTTL  time.Duration
	afterFunc AfterFunc

	mu        sync.Mutex
	items     []model.Item
	draft     *model.Item
	status    filter.Status
	errMsg    string
	errGen    uint64
	errTimer  Stopper
	loading   bool
	loaded    bool
	creating  bool
	editingID int

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// New builds a store over remote for the owner userID. The store starts in
// the loading state; call Load once.
func New(remote api.Collection, userID int, opts ...Option) *Store {
	s := &Store{
		remote:    remote,
		userID:    userID,
		logger:    log.New(io.Discard),
		errorTTL:  DefaultErrorTTL,
		afterFunc: timeAfterFunc,
		items:     []model.Item{},
		status:    filter.All,
		loading:   true,
		subs:      map[int]chan struct{}{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	Items     []model.Item
	Draft     *model.Item
	Filter    filter.Status
	Error     string
	Loading   bool
	Creating  bool
	EditingID int // 0 when no item is being edited
}

// Visible returns the filtered items followed by the draft, if any.
func (s Snapshot) Visible() []model.Item {
	out := filter.Apply(s.Items, s.Filter)
	if s.Draft != nil {
		out = append(out, *s.Draft)
	}
	return out
}

// Item looks up a saved item by id.
func (s Snapshot) Item(id int) (model.Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Items:     slices.Clone(s.items),
		Filter:    s.status,
		Error:     s.errMsg,
		Loading:   s.loading,
		Creating:  s.creating,
		EditingID: s.editingID,
	}
	if s.draft != nil {
		d := *s.draft
		snap.Draft = &d
	}
	return snap
}

// Visible is shorthand for Snapshot().Visible().
func (s *Store) Visible() []model.Item { return s.Snapshot().Visible() }

// UserID is the owner id new items are created for.
func (s *Store) UserID() int { return s.userID }

// SetFilter changes the selected status filter.
func (s *Store) SetFilter(st filter.Status) {
	s.mu.Lock()
	changed := s.status != st
	s.status = st
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// ErrorMessage is the banner text, empty when none.
func (s *Store) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// DismissError clears the banner before its timer fires.
func (s *Store) DismissError() {
	s.mu.Lock()
	if s.errMsg == "" {
		s.mu.Unlock()
		return
	}
	s.clearErrorLocked()
	s.mu.Unlock()
	s.notify()
}

// showErrorLocked replaces the banner and restarts its timer. A timer from
// an earlier message never clears a newer one.
func (s *Store) showErrorLocked(msg string) {
	if s.errTimer != nil {
		s.errTimer.Stop()
	}
	s.errGen++
	gen := s.errGen
	s.errMsg = msg
	s.errTimer = s.afterFunc(s.errorTTL, func() { s.expireError(gen) })
}

func (s *Store) clearErrorLocked() {
	if s.errTimer != nil {
		s.errTimer.Stop()
		s.errTimer = nil
	}
	s.errGen++
	s.errMsg = ""
}

func (s *Store) expireError(gen uint64) {
	s.mu.Lock()
	if gen != s.errGen {
		s.mu.Unlock()
		return
	}
	s.errMsg = ""
	s.errTimer = nil
	s.mu.Unlock()
	s.notify()
}

// Subscribe returns a channel that receives a value after state changes.
// Notifications coalesce; receivers should re-read a Snapshot. The returned
// func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			close(ch)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) indexLocked(id int) int {
	if id == 0 {
		return -1
	}
	return slices.IndexFunc(s.items, func(it model.Item) bool { return it.ID == id })
}

func (s *Store) removeLocked(id int) {
	s.items = slices.DeleteFunc(s.items, func(it model.Item) bool { return it.ID == id })
	if s.editingID == id {
		s.editingID = 0
	}
}
