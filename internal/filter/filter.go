// Package filter derives the visible subset of a todo list.
package filter

import (
	"fmt"
	"strings"

	"github.com/Makepad-fr/tada/internal/model"
)

// Status selects which items are visible.
type Status string

const (
	All       Status = "all"
	Active    Status = "active"
	Completed Status = "completed"
)

// Statuses lists every status in display order.
var Statuses = []Status{All, Active, Completed}

// ParseStatus accepts the status names case-insensitively. Empty means All.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return All, nil
	case "active":
		return Active, nil
	case "completed", "done":
		return Completed, nil
	}
	return All, fmt.Errorf("unknown filter %q (want all|active|completed)", s)
}

// Label is the capitalized name used in tab bars.
func (s Status) Label() string {
	switch s {
	case Active:
		return "Active"
	case Completed:
		return "Completed"
	}
	return "All"
}

// Next cycles All -> Active -> Completed -> All.
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return All
}

// Apply returns the items matching status, preserving order.
// The input slice is never modified.
func Apply(items []model.Item, status Status) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if Match(it, status) {
			out = append(out, it)
		}
	}
	return out
}

// Match reports whether a single item is visible under status.
func Match(it model.Item, status Status) bool {
	switch status {
	case Active:
		return !it.Completed
	case Completed:
		return it.Completed
	}
	return true
}

// ActiveCount is the number of items not yet completed ("items left").
func ActiveCount(items []model.Item) int {
	n := 0
	for _, it := range items {
		if !it.Completed {
			n++
		}
	}
	return n
}

// CompletedCount is the number of completed items.
func CompletedCount(items []model.Item) int {
	return len(items) - ActiveCount(items)
}

// AllCompleted is true when every item is completed, including for an empty list.
func AllCompleted(items []model.Item) bool {
	return ActiveCount(items) == 0
}

// ItemsLeft renders the footer counter, e.g. "1 item left", "3 items left".
func ItemsLeft(items []model.Item) string {
	n := ActiveCount(items)
	if n == 1 {
		return "1 item left"
	}
	return fmt.Sprintf("%d items left", n)
}
