package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/api/apitest"
	"github.com/Makepad-fr/tada/internal/filter"
	"github.com/Makepad-fr/tada/internal/model"
)

const testUser = 42

type stopperFunc func() bool

func (f stopperFunc) Stop() bool { return f() }

// manualTimers captures banner timers so tests fire them explicitly.
type manualTimers struct {
	mu  sync.Mutex
	fns []func()
}

func (m *manualTimers) after(_ time.Duration, fn func()) Stopper {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fns = append(m.fns, fn)
	return stopperFunc(func() bool { return true })
}

func (m *manualTimers) fire(i int) {
	m.mu.Lock()
	fn := m.fns[i]
	m.mu.Unlock()
	fn()
}

func (m *manualTimers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fns)
}

func newLoaded(t *testing.T, items ...model.Item) (*Store, *apitest.Fake, *manualTimers) {
	t.Helper()
	fake := apitest.NewFake(testUser, items...)
	timers := &manualTimers{}
	s := New(fake, testUser, WithAfterFunc(timers.after))
	require.NoError(t, s.Load(context.Background()))
	return s, fake, timers
}

func waitStarted(t *testing.T, fake *apitest.Fake, op string) apitest.Call {
	t.Helper()
	for {
		select {
		case c := <-fake.Started():
			if c.Op == op {
				return c
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s call", op)
		}
	}
}

func ids(items []model.Item) []int {
	out := []int{}
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestLoad(t *testing.T) {
	fake := apitest.NewFake(testUser, model.Item{ID: 1, UserID: testUser, Title: "A"})
	s := New(fake, testUser)
	assert.True(t, s.Snapshot().Loading)

	require.NoError(t, s.Load(context.Background()))
	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, []int{1}, ids(snap.Items))
	assert.Empty(t, snap.Error)

	assert.ErrorIs(t, s.Load(context.Background()), ErrAlreadyLoaded)
	assert.Len(t, fake.CallsOf("list"), 1)
}

func TestLoad_Failure(t *testing.T) {
	fake := apitest.NewFake(testUser, model.Item{ID: 1, Title: "A"})
	fake.FailOn("list", 0, nil)
	s := New(fake, testUser, WithAfterFunc((&manualTimers{}).after))

	assert.Error(t, s.Load(context.Background()))
	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Items)
	assert.Equal(t, MsgLoad, snap.Error)
}

func TestCreate_AppendsServerItem(t *testing.T) {
	s, _, _ := newLoaded(t, model.Item{ID: 1, UserID: testUser, Title: "A"})

	got, err := s.Create(context.Background(), "  B  ")
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)
	assert.NotZero(t, got.ID)

	snap := s.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 1, snap.Items[0].ID)
	assert.Equal(t, got.ID, snap.Items[1].ID)
	assert.Equal(t, "B", snap.Items[1].Title)
	assert.False(t, snap.Items[1].Completed)
	assert.Nil(t, snap.Draft)
	assert.False(t, snap.Creating)
}

func TestCreate_EmptyTitleNeverCallsRemote(t *testing.T) {
	s, fake, _ := newLoaded(t)

	_, err := s.Create(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Empty(t, fake.CallsOf("create"))

	snap := s.Snapshot()
	assert.Nil(t, snap.Draft)
	assert.Equal(t, MsgEmptyTitle, snap.Error)
}

func TestCreate_FailureDropsDraft(t *testing.T) {
	s, fake, _ := newLoaded(t, model.Item{ID: 1, Title: "A"})
	fake.FailOn("create", 0, nil)

	_, err := s.Create(context.Background(), "B")
	assert.ErrorIs(t, err, apitest.ErrInjected)

	snap := s.Snapshot()
	assert.Equal(t, []int{1}, ids(snap.Items))
	assert.Nil(t, snap.Draft)
	assert.False(t, snap.Creating)
	assert.Equal(t, MsgAdd, snap.Error)
}

func TestCreate_DraftVisibleWhileInFlight(t *testing.T) {
	s, fake, _ := newLoaded(t, model.Item{ID: 1, Title: "A", Completed: true})
	s.SetFilter(filter.Active)
	release := fake.Hold("create")

	done := make(chan error, 1)
	go func() {
		_, err := s.Create(context.Background(), "B")
		done <- err
	}()
	waitStarted(t, fake, "create")

	snap := s.Snapshot()
	require.NotNil(t, snap.Draft)
	assert.Equal(t, 0, snap.Draft.ID)
	assert.Equal(t, testUser, snap.Draft.UserID)
	assert.True(t, snap.Creating)
	// The draft shows regardless of the filter.
	vis := snap.Visible()
	require.Len(t, vis, 1)
	assert.True(t, vis[0].IsDraft())

	_, err := s.Create(context.Background(), "C")
	assert.ErrorIs(t, err, ErrCreating)

	release()
	require.NoError(t, <-done)
	snap = s.Snapshot()
	assert.Nil(t, snap.Draft)
	assert.Len(t, snap.Items, 2)
}

func TestDelete_RemovesOnlyTarget(t *testing.T) {
	s, _, _ := newLoaded(t,
		model.Item{ID: 1, Title: "A"},
		model.Item{ID: 2, Title: "B"},
		model.Item{ID: 3, Title: "C"},
	)
	require.NoError(t, s.Delete(context.Background(), 2))
	assert.Equal(t, []int{1, 3}, ids(s.Snapshot().Items))
}

func TestDelete_FailureRestoresItem(t *testing.T) {
	s, fake, _ := newLoaded(t, model.Item{ID: 1, Title: "A"}, model.Item{ID: 2, Title: "B"})
	before := s.Snapshot().Items
	fake.FailOn("delete", 2, nil)

	assert.Error(t, s.Delete(context.Background(), 2))
	snap := s.Snapshot()
	assert.Equal(t, before, snap.Items)
	assert.Equal(t, MsgDelete, snap.Error)
}

func TestDelete_BusyItemIsRefused(t *testing.T) {
	s, fake, _ := newLoaded(t, model.Item{ID: 1, Title: "A"})
	release := fake.Hold("delete")

	done := make(chan error, 1)
	go func() { done <- s.Delete(context.Background(), 1) }()
	waitStarted(t, fake, "delete")

	it, ok := s.Snapshot().Item(1)
	require.True(t, ok)
	assert.True(t, it.IsDeleting)
	assert.ErrorIs(t, s.Delete(context.Background(), 1), ErrBusy)
	assert.ErrorIs(t, s.Toggle(context.Background(), 1), ErrBusy)
	assert.ErrorIs(t, s.BeginEdit(1), ErrBusy)

	release()
	require.NoError(t, <-done)
	assert.Len(t, fake.CallsOf("delete"), 1)
	assert.Empty(t, s.Snapshot().Items)
}

func TestDelete_UnknownID(t *testing.T) {
	s, _, _ := newLoaded(t)
	assert.ErrorIs(t, s.Delete(context.Background(), 9), ErrNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), 0), ErrNotFound)
}

func TestUpdate_ReplacesWithServerVersion(t *testing.T) {
	s, _, _ := newLoaded(t, model.Item{ID: 1, UserID: testUser, Title: "A"})

	require.NoError(t, s.Toggle(context.Background(), 1))
	it, _ := s.Snapshot().Item(1)
	assert.True(t, it.Completed)
	assert.False(t, it.IsUpdating)

	require.NoError(t, s.Update(context.Background(), 1, model.TitlePatch("  A2 ")))
	it, _ = s.Snapshot().Item(1)
	assert.Equal(t, "A2", it.Title)
}

func TestUpdate_FailureRevertsAndReturnsError(t *testing.T) {
	s, fake, _ := newLoaded(t, model.Item{ID: 1, Title: "A"})
	fake.FailOn("update", 1, nil)

	err := s.Toggle(context.Background(), 1)
	assert.ErrorIs(t, err, apitest.ErrInjected)

	it, _ := s.Snapshot().Item(1)
	assert.False(t, it.Completed)
	assert.False(t, it.IsUpdating)
	assert.Equal(t, MsgUpdate, s.ErrorMessage())
}

func TestUpdate_EmptyTitleIsValidationError(t *testing.T) {
	s, fake, _ := newLoaded(t, model.Item{ID: 1, Title: "A"})
	assert.ErrorIs(t, s.Update(context.Background(), 1, model.TitlePatch(" ")), ErrEmptyTitle)
	assert.Empty(t, fake.CallsOf("update"))
	assert.Equal(t, MsgEmptyTitle, s.ErrorMessage())
}

func TestEditTitle_IgnoredUnlessEditing(t *testing.T) {
	s, fake, _ := newLoaded(t, model.Item{ID: 1, Title: "A"}, model.Item{ID: 2, Title: "B"})

	assert.ErrorIs(t, s.EditTitle(context.Background(), 1, "X"), ErrNotEditing)
	require.NoError(t, s.BeginEdit(2))
	assert.ErrorIs(t, s.EditTitle(context.Background(), 1, "X"), ErrNotEditing)
	assert.Empty(t, fake.CallsOf("update"))
	assert.Equal(t, 2, s.EditingID())
}

func TestEditTitle_UnchangedExitsWithoutRemoteCall(t *testing.T) {
	s, fake, _ := newLoaded(t, model.Item{ID: 1, Title: "A"})
	require.NoError(t, s.BeginEdit(1))

	require.NoError(t, s.EditTitle(context.Background(), 1, "  A "))
	assert.Zero(t, s.EditingID())
	assert.Empty(t, fake.CallsOf("update"))
}

func TestEditTitle_SuccessExitsEditMode(t *testing.T) {
	s, fake, _ := newLoaded(t, model.Item{ID: 1, Title: "A"})
	require.NoError(t, s.BeginEdit(1))

	require.NoError(t, s.EditTitle(context.Background(), 1, "New "))
	assert.Zero(t, s.EditingID())
	it, _ := s.Snapshot().Item(1)
	assert.Equal(t, "New", it.Title)

	calls := fake.CallsOf("update")
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Patch.Title)
	assert.Equal(t, "New", *calls[0].Patch.Title)
	assert.Nil(t, calls[0].Patch.Completed)
}

func TestEditTitle_FailureKeepsEditMode(t *testing.T) {
	s, fake, _ := newLoaded(t, model.Item{ID: 1, Title: "A"})
	fake.FailOn("update", 1, nil)
	require.NoError(t, s.BeginEdit(1))

	assert.Error(t, s.EditTitle(context.Background(), 1, "New"))
	assert.Equal(t, 1, s.EditingID())
	it, _ := s.Snapshot().Item(1)
	assert.Equal(t, "A", it.Title)
	assert.False(t, it.IsUpdating)
	assert.Equal(t, MsgUpdate, s.ErrorMessage())
}

func TestEditTitle_EmptyDeletes(t *testing.T) {
	s, fake, _ := newLoaded(t, model.Item{ID: 1, Title: "A"}, model.Item{ID: 2, Title: "B"})
	require.NoError(t, s.BeginEdit(1))

	require.NoError(t, s.EditTitle(context.Background(), 1, "   "))
	calls := fake.CallsOf("delete")
	require.Len(t, calls, 1)
	assert.Equal(t, 1, calls[0].ID)
	assert.Empty(t, fake.CallsOf("update"))
	assert.Equal(t, []int{2}, ids(s.Snapshot().Items))
	assert.Zero(t, s.EditingID())
	assert.Empty(t, s.ErrorMessage())
}

func TestToggleAll_SendsOnlyDifferingItems(t *testing.T) {
	s, fake, _ := newLoaded(t,
		model.Item{ID: 1, Title: "A", Completed: true},
		model.Item{ID: 2, Title: "B", Completed: false},
	)
	require.NoError(t, s.ToggleAll(context.Background()))

	calls := fake.CallsOf("update")
	require.Len(t, calls, 1)
	assert.Equal(t, 2, calls[0].ID)
	require.NotNil(t, calls[0].Patch.Completed)
	assert.True(t, *calls[0].Patch.Completed)

	for _, it := range s.Snapshot().Items {
		assert.True(t, it.Completed, "item %d", it.ID)
		assert.False(t, it.IsUpdating)
	}
}

func TestToggleAll_TwiceRestoresWhenAllStartedEqual(t *testing.T) {
	s, _, _ := newLoaded(t,
		model.Item{ID: 1, Title: "A"},
		model.Item{ID: 2, Title: "B"},
	)
	require.NoError(t, s.ToggleAll(context.Background()))
	assert.Equal(t, 0, filter.ActiveCount(s.Snapshot().Items))

	require.NoError(t, s.ToggleAll(context.Background()))
	for _, it := range s.Snapshot().Items {
		assert.False(t, it.Completed)
	}
}

func TestToggleAll_AllOrNothing(t *testing.T) {
	s, fake, _ := newLoaded(t,
		model.Item{ID: 1, Title: "A"},
		model.Item{ID: 2, Title: "B"},
		model.Item{ID: 3, Title: "C", Completed: true},
	)
	fake.FailOn("update", 2, nil)

	assert.Error(t, s.ToggleAll(context.Background()))
	// Both differing items were sent, even though one failed.
	assert.Len(t, fake.CallsOf("update"), 2)

	snap := s.Snapshot()
	for _, it := range snap.Items {
		assert.False(t, it.IsUpdating, "item %d still busy", it.ID)
	}
	it1, _ := snap.Item(1)
	it2, _ := snap.Item(2)
	assert.False(t, it1.Completed, "successful update must not commit on batch failure")
	assert.False(t, it2.Completed)
	assert.Equal(t, MsgUpdate, snap.Error)
}

func TestToggleAll_EmptyListIsNoop(t *testing.T) {
	s, fake, _ := newLoaded(t)
	require.NoError(t, s.ToggleAll(context.Background()))
	assert.Empty(t, fake.Calls()[1:])
}

func TestClearCompleted_PartialFailure(t *testing.T) {
	s, fake, _ := newLoaded(t,
		model.Item{ID: 1, Title: "A", Completed: true},
		model.Item{ID: 2, Title: "B"},
		model.Item{ID: 3, Title: "C", Completed: true},
		model.Item{ID: 4, Title: "D", Completed: true},
	)
	fake.FailOn("delete", 3, nil)

	removed, err := s.ClearCompleted(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, removed)
	assert.Len(t, fake.CallsOf("delete"), 3)

	snap := s.Snapshot()
	assert.Equal(t, []int{2, 3}, ids(snap.Items))
	it3, _ := snap.Item(3)
	assert.False(t, it3.IsDeleting)
	assert.Equal(t, MsgDelete, snap.Error)
	assert.LessOrEqual(t, filter.CompletedCount(snap.Items), 3)
}

func TestClearCompleted_AllSucceed(t *testing.T) {
	s, _, timers := newLoaded(t,
		model.Item{ID: 1, Title: "A", Completed: true},
		model.Item{ID: 2, Title: "B"},
	)
	removed, err := s.ClearCompleted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []int{2}, ids(s.Snapshot().Items))
	assert.Zero(t, timers.count())
}

func TestErrorBanner_StaleTimerKeepsNewerMessage(t *testing.T) {
	s, fake, timers := newLoaded(t, model.Item{ID: 1, Title: "A"})
	fake.FailOn("update", 1, nil)
	fake.FailOn("delete", 1, nil)

	_ = s.Toggle(context.Background(), 1)
	_ = s.Delete(context.Background(), 1)
	require.Equal(t, 2, timers.count())
	assert.Equal(t, MsgDelete, s.ErrorMessage())

	timers.fire(0)
	assert.Equal(t, MsgDelete, s.ErrorMessage())

	timers.fire(1)
	assert.Empty(t, s.ErrorMessage())
}

func TestErrorBanner_Dismiss(t *testing.T) {
	s, _, timers := newLoaded(t)
	_, _ = s.Create(context.Background(), "")
	assert.Equal(t, MsgEmptyTitle, s.ErrorMessage())

	s.DismissError()
	assert.Empty(t, s.ErrorMessage())

	// The dismissed message's timer does nothing.
	timers.fire(0)
	assert.Empty(t, s.ErrorMessage())
}

func TestErrorBanner_RealTimerClears(t *testing.T) {
	fake := apitest.NewFake(testUser)
	s := New(fake, testUser, WithErrorTTL(10*time.Millisecond))
	require.NoError(t, s.Load(context.Background()))
	_, _ = s.Create(context.Background(), "")

	assert.Eventually(t, func() bool { return s.ErrorMessage() == "" }, time.Second, 5*time.Millisecond)
}

func TestSubscribe(t *testing.T) {
	s, _, _ := newLoaded(t, model.Item{ID: 1, Title: "A"})
	ch, cancel := s.Subscribe()

	s.SetFilter(filter.Completed)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}
	assert.Empty(t, s.Visible())

	cancel()
	_, open := <-ch
	assert.False(t, open)
	cancel()
}

func TestRemoveClearsEditingID(t *testing.T) {
	s, _, _ := newLoaded(t, model.Item{ID: 1, Title: "A"})
	require.NoError(t, s.BeginEdit(1))
	require.NoError(t, s.Delete(context.Background(), 1))
	assert.Zero(t, s.EditingID())
}
