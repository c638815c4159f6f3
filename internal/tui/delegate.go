package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// row adapts a todo to bubbles/list.Item.
type row struct {
	item    model.Item
	editing bool
}

func (r row) FilterValue() string { return r.item.Title }

// rowDelegate renders one todo per line: cursor, checkbox, title, marker.
type rowDelegate struct{}

func (d rowDelegate) Height() int                         { return 1 }
func (d rowDelegate) Spacing() int                        { return 0 }
func (d rowDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	r, ok := item.(row)
	if !ok {
		return
	}
	th := ui.Current()

	box := th.Muted.Render(th.BoxUnchecked)
	title := r.item.Title
	if r.item.Completed {
		box = th.Success.Render(th.BoxChecked)
		title = th.Done.Render(title)
	}

	marker := ""
	switch {
	case r.item.IsDraft():
		box = th.Muted.Render(th.SymDraft)
		title = th.Muted.Render(r.item.Title)
		marker = th.Pending.Render(" " + th.SymBusy)
	case r.item.Busy():
		marker = th.Pending.Render(" " + th.SymBusy)
	case r.editing:
		marker = th.Accent.Render(" ✎")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = th.Accent.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s%s", prefix, box, title, marker)
}
