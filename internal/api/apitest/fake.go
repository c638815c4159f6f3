// Package apitest provides an in-memory api.Collection for tests.
package apitest

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
)

// ErrInjected is the default failure returned by FailOn.
var ErrInjected = errors.New("injected failure")

// Call records one invocation.
type Call struct {
	Op    string // list | create | update | delete
	ID    int
	Title string
	Patch model.Patch
}

// Fake is a goroutine-safe in-memory collection with failure injection and
// gates that hold calls until released.
type Fake struct {
	mu      sync.Mutex
	userID  int
	items   []model.Item
	nextID  int
	calls   []Call
	fail    map[string]map[int]error
	gates   map[string]chan struct{}
	started chan Call
}

var _ api.Collection = (*Fake)(nil)

// NewFake seeds a collection owned by userID.
func NewFake(userID int, items ...model.Item) *Fake {
	f := &Fake{
		userID:  userID,
		items:   slices.Clone(items),
		nextID:  1,
		fail:    map[string]map[int]error{},
		gates:   map[string]chan struct{}{},
		started: make(chan Call, 256),
	}
	for _, it := range items {
		if it.ID >= f.nextID {
			f.nextID = it.ID + 1
		}
	}
	return f
}

// FailOn makes calls of op for id fail with err (ErrInjected when nil).
// Use id 0 for list and create.
func (f *Fake) FailOn(op string, id int, err error) {
	if err == nil {
		err = ErrInjected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[op] == nil {
		f.fail[op] = map[int]error{}
	}
	f.fail[op][id] = err
}

// Hold blocks every later call of op until the returned func is called.
func (f *Fake) Hold(op string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[op] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gates[op] == ch {
				delete(f.gates, op)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Started receives every call as it begins, before any gate.
func (f *Fake) Started() <-chan Call { return f.started }

// Calls returns every call so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsOf filters Calls by op.
func (f *Fake) CallsOf(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Items is the server-side state.
func (f *Fake) Items() []model.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

func (f *Fake) begin(ctx context.Context, c Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	gate := f.gates[c.Op]
	f.mu.Unlock()

	select {
	case f.started <- c:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[c.Op][c.ID]; ok {
		return err
	}
	return nil
}

func (f *Fake) List(ctx context.Context) ([]model.Item, error) {
	if err := f.begin(ctx, Call{Op: "list"}); err != nil {
		return nil, err
	}
	return f.Items(), nil
}

func (f *Fake) Create(ctx context.Context, title string) (model.Item, error) {
	if err := f.begin(ctx, Call{Op: "create", Title: title}); err != nil {
		return model.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	it := model.Item{ID: f.nextID, UserID: f.userID, Title: title}
	f.nextID++
	f.items = append(f.items, it)
	return it, nil
}

func (f *Fake) Update(ctx context.Context, id int, patch model.Patch) (model.Item, error) {
	if err := f.begin(ctx, Call{Op: "update", ID: id, Patch: patch}); err != nil {
		return model.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.items, func(it model.Item) bool { return it.ID == id })
	if i < 0 {
		return model.Item{}, &api.NetworkError{Op: "update", ID: id, Status: 404}
	}
	f.items[i] = patch.Apply(f.items[i])
	return f.items[i], nil
}

func (f *Fake) Delete(ctx context.Context, id int) error {
	if err := f.begin(ctx, Call{Op: "delete", ID: id}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.items, func(it model.Item) bool { return it.ID == id })
	if i < 0 {
		return &api.NetworkError{Op: "delete", ID: id, Status: 404}
	}
	f.items = slices.Delete(f.items, i, i+1)
	return nil
}
