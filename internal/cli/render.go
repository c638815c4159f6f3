package cli

import (
	"fmt"

	"github.com/Makepad-fr/tada/internal/filter"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// numbered is an item with its 1-based position in the full list, so
// indexes printed by a filtered `ls` still work with done/rm/rename.
type numbered struct {
	n    int
	item model.Item
}

func number(items []model.Item, status filter.Status) []numbered {
	out := make([]numbered, 0, len(items))
	for i, it := range items {
		if filter.Match(it, status) {
			out = append(out, numbered{n: i + 1, item: it})
		}
	}
	return out
}

func listPanel(items []model.Item, status filter.Status, group bool) []string {
	th := ui.Current()
	done, pending := filter.CompletedCount(items), filter.ActiveCount(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		th.Title.Render("Todos"),
		th.Success.Render("✔"), done,
		th.Pending.Render("•"), pending,
		th.Accent.Render("Total"), len(items),
	)

	lines := []string{header, th.Muted.Render(ui.ProgressBar(done, done+pending, 28)), ""}
	rows := number(items, status)
	if group {
		lines = append(lines, groupLines(rows)...)
	} else {
		lines = append(lines, flatLines(rows)...)
	}
	lines = append(lines, "", th.Muted.Render(filter.ItemsLeft(items)+" · filter: "+status.Label()))
	return lines
}

func flatLines(rows []numbered) []string {
	th := ui.Current()
	if len(rows) == 0 {
		return []string{th.Muted.Render("no items")}
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		box, style := th.BoxUnchecked, th.Muted
		title := r.item.Title
		if len([]rune(title)) > 80 {
			title = string([]rune(title)[:77]) + "..."
		}
		if r.item.Completed {
			box, style = th.BoxChecked, th.Success
			title = th.Done.Render(title)
		}
		out = append(out, fmt.Sprintf("%s %s %s",
			th.Muted.Render(fmt.Sprintf("%2d.", r.n)), style.Render(box), title))
	}
	return out
}

func groupLines(rows []numbered) []string {
	th := ui.Current()
	var pend, done []numbered
	for _, r := range rows {
		if r.item.Completed {
			done = append(done, r)
		} else {
			pend = append(pend, r)
		}
	}
	section := func(name string, rows []numbered) []string {
		lines := []string{th.Accent.Render(name)}
		if len(rows) == 0 {
			return append(lines, th.Muted.Render("(none)"))
		}
		return append(lines, flatLines(rows)...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}
