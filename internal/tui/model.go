// Package tui is the full-screen todo list. It renders store snapshots and
// turns key presses into store operations; it keeps no item state itself.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/edit"
	"github.com/Makepad-fr/tada/internal/filter"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/ui"
)

type focus int

const (
	focusList focus = iota
	focusInput
	focusEdit
)

// Messages produced by commands.
type (
	storeChangedMsg struct{}
	opDoneMsg       struct {
		op  string
		err error
	}
	createdMsg struct{ err error }
	commitMsg  struct {
		outcome edit.Outcome
		err     error
	}
	copiedMsg struct {
		title string
		err   error
	}
)

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger for UI-level failures.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithClipboard replaces the clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) { m.copy = write }
}

// Model is the bubbletea model for the todo list.
type Model struct {
	ctx    context.Context
	st     *store.Store
	logger *log.Logger
	copy   func(string) error

	sub   <-chan struct{}
	unsub func()

	snap    store.Snapshot
	list    list.Model
	input   textinput.Model
	editor  textinput.Model
	session *edit.Session
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	focus      focus
	committing bool
	flash      string
	width      int
	height     int
}

// New builds a model over st. Call Close when the program exits.
func New(ctx context.Context, st *store.Store, opts ...Option) Model {
	l := list.New(nil, rowDelegate{}, 76, 14)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(true)
	l.KeyMap.Quit.SetEnabled(false)
	l.Styles.PaginationStyle = ui.Current().Help

	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "What needs to be done?"
	in.CharLimit = 200

	ed := textinput.New()
	ed.Prompt = "> "
	ed.CharLimit = 200

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = ui.Current().Accent

	sub, unsub := st.Subscribe()
	m := Model{
		ctx:     ctx,
		st:      st,
		logger:  log.New(io.Discard),
		copy:    clipboard.WriteAll,
		sub:     sub,
		unsub:   unsub,
		list:    l,
		input:   in,
		editor:  ed,
		spinner: sp,
		help:    help.New(),
		keys:    defaultKeys(),
	}
	for _, o := range opts {
		o(&m)
	}
	m.refresh()
	return m
}

// Close stops listening to the store.
func (m Model) Close() { m.unsub() }

// Run starts the program on the alternate screen and blocks until quit.
func Run(ctx context.Context, st *store.Store, opts ...Option) error {
	m := New(ctx, st, opts...)
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), waitForChange(m.sub), m.spinner.Tick)
}

func waitForChange(sub <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-sub; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

func (m Model) load() tea.Cmd {
	ctx, st := m.ctx, m.st
	return func() tea.Msg {
		err := st.Load(ctx)
		if errors.Is(err, store.ErrAlreadyLoaded) {
			err = nil
		}
		return opDoneMsg{op: "load", err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeChangedMsg:
		m.refresh()
		return m, waitForChange(m.sub)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.snap.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case opDoneMsg:
		if msg.err != nil {
			m.logger.Debug("operation failed", "op", msg.op, "err", msg.err)
		}
		m.refresh()
		return m, nil

	case createdMsg:
		if msg.err == nil {
			m.input.SetValue("")
		}
		m.refresh()
		return m, nil

	case commitMsg:
		m.committing = false
		if msg.outcome == edit.Failed && m.session != nil && m.session.State() == edit.Editing {
			m.editor.SetValue(m.session.Draft())
			m.editor.CursorEnd()
		} else {
			m.leaveEdit()
		}
		m.refresh()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.logger.Warn("clipboard", "err", msg.err)
			m.flash = "Copy failed: " + msg.err.Error()
		} else {
			m.flash = fmt.Sprintf("Copied %q", msg.title)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.focus {
		case focusInput:
			return m.updateInput(msg)
		case focusEdit:
			return m.updateEdit(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.snap.Creating {
			return m, nil
		}
		ctx, st, title := m.ctx, m.st, m.input.Value()
		return m, func() tea.Msg {
			_, err := st.Create(ctx, title)
			return createdMsg{err: err}
		}
	case key.Matches(msg, m.keys.Cancel):
		m.input.Blur()
		m.focus = focusList
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.session.Cancel()
		m.leaveEdit()
		m.refresh()
		return m, nil
	// Moving off the row is a blur: it commits like enter does.
	case key.Matches(msg, m.keys.Submit), msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		if m.committing {
			return m, nil
		}
		m.committing = true
		m.session.SetDraft(m.editor.Value())
		ctx, s := m.ctx, m.session
		return m, func() tea.Msg {
			out, err := s.Commit(ctx)
			return commitMsg{outcome: out, err: err}
		}
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Add):
		m.focus = focusInput
		m.flash = ""
		return m, m.input.Focus()

	case key.Matches(msg, k.Toggle):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.op("toggle", func(ctx context.Context, st *store.Store) error {
			return st.Toggle(ctx, it.ID)
		})

	case key.Matches(msg, k.Edit):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		s := edit.New(m.st, it)
		if err := s.Begin(); err != nil {
			return m, nil
		}
		m.session = s
		m.focus = focusEdit
		m.editor.SetValue(s.Draft())
		m.editor.CursorEnd()
		m.refresh()
		return m, m.editor.Focus()

	case key.Matches(msg, k.Delete):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		s := edit.New(m.st, it)
		return m, m.op("delete", func(ctx context.Context, _ *store.Store) error {
			return s.Delete(ctx)
		})

	case key.Matches(msg, k.ToggleAll):
		if len(m.snap.Items) == 0 {
			return m, nil
		}
		return m, m.op("toggle all", func(ctx context.Context, st *store.Store) error {
			return st.ToggleAll(ctx)
		})

	case key.Matches(msg, k.Clear):
		if filter.CompletedCount(m.snap.Items) == 0 {
			return m, nil
		}
		return m, m.op("clear completed", func(ctx context.Context, st *store.Store) error {
			_, err := st.ClearCompleted(ctx)
			return err
		})

	case key.Matches(msg, k.NextFilter):
		m.st.SetFilter(m.snap.Filter.Next())
		m.refresh()
		return m, nil
	case key.Matches(msg, k.FilterAll):
		return m.setFilter(filter.All)
	case key.Matches(msg, k.FilterActive):
		return m.setFilter(filter.Active)
	case key.Matches(msg, k.FilterDone):
		return m.setFilter(filter.Completed)

	case key.Matches(msg, k.Copy):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		write, title := m.copy, it.Title
		return m, func() tea.Msg {
			return copiedMsg{title: title, err: write(title)}
		}

	case key.Matches(msg, k.Dismiss):
		m.st.DismissError()
		m.refresh()
		return m, nil

	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) setFilter(st filter.Status) (tea.Model, tea.Cmd) {
	m.st.SetFilter(st)
	m.refresh()
	return m, nil
}

// op runs fn against the store off the update loop.
func (m Model) op(name string, fn func(context.Context, *store.Store) error) tea.Cmd {
	ctx, st := m.ctx, m.st
	return func() tea.Msg {
		return opDoneMsg{op: name, err: fn(ctx, st)}
	}
}

// selected is the saved item under the cursor. The draft row is not
// selectable for mutations.
func (m Model) selected() (model.Item, bool) {
	r, ok := m.list.SelectedItem().(row)
	if !ok || r.item.IsDraft() {
		return model.Item{}, false
	}
	return r.item, true
}

func (m *Model) leaveEdit() {
	m.editor.Blur()
	m.editor.SetValue("")
	m.session = nil
	m.focus = focusList
}

// refresh re-reads the store and rebuilds the rows, keeping the cursor.
func (m *Model) refresh() {
	m.snap = m.st.Snapshot()
	visible := m.snap.Visible()
	rows := make([]list.Item, 0, len(visible))
	for _, it := range visible {
		rows = append(rows, row{item: it, editing: it.ID != 0 && it.ID == m.snap.EditingID})
	}
	idx := m.list.Index()
	m.list.SetItems(rows)
	if idx >= len(rows) {
		idx = len(rows) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	// The edited item went away underneath us (deleted elsewhere).
	if m.focus == focusEdit && !m.committing && m.snap.EditingID == 0 {
		m.leaveEdit()
	}
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	chrome := 12
	if m.help.ShowAll {
		chrome += 4
	}
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
	m.input.Width = m.width - 8
	m.editor.Width = m.width - 8
}

func (m Model) View() string {
	th := ui.Current()
	var lines []string

	header := th.Title.Render("todos")
	if n := len(m.snap.Items); n > 0 {
		mark := th.BoxUnchecked
		if filter.AllCompleted(m.snap.Items) {
			mark = th.BoxChecked
		}
		header += "   " + th.Muted.Render(mark+" toggle all (t)")
	}
	lines = append(lines, header)

	if m.snap.Error != "" {
		lines = append(lines, th.Banner.Render(m.snap.Error+"  ·  x to dismiss"))
	}

	if m.snap.Creating {
		lines = append(lines, th.Muted.Render("> adding "+th.SymBusy))
	} else {
		lines = append(lines, m.input.View())
	}
	lines = append(lines, "")

	switch {
	case m.snap.Loading:
		lines = append(lines, m.spinner.View()+" Loading todos...")
	case len(m.list.Items()) == 0:
		lines = append(lines, th.Muted.Render("nothing to show"))
	default:
		lines = append(lines, m.list.View())
	}

	if m.focus == focusEdit {
		lines = append(lines, "", th.Accent.Render("Edit item")+th.Muted.Render("  enter save · esc cancel · empty deletes"), m.editor.View())
	}

	if len(m.snap.Items) > 0 {
		lines = append(lines, "", m.footer())
	}
	if m.flash != "" {
		lines = append(lines, th.Muted.Render(m.flash))
	}
	lines = append(lines, "", m.help.View(m.keys))
	return ui.RenderPanel(lines)
}

// footer: "N items left", the filter tabs and the clear control.
func (m Model) footer() string {
	th := ui.Current()
	tabs := make([]string, 0, len(filter.Statuses))
	for _, st := range filter.Statuses {
		if st == m.snap.Filter {
			tabs = append(tabs, th.TabActive.Render(st.Label()))
		} else {
			tabs = append(tabs, th.Tab.Render(st.Label()))
		}
	}
	clearCtl := th.Muted.Render("Clear completed")
	if filter.CompletedCount(m.snap.Items) > 0 {
		clearCtl = th.Accent.Render("Clear completed (c)")
	}
	return strings.Join([]string{
		th.Pending.Render(filter.ItemsLeft(m.snap.Items)),
		strings.Join(tabs, ""),
		clearCtl,
	}, "   ")
}
