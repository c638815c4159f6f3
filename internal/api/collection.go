// Package api talks to the remote todo collection.
//
// The collection is scoped to one owner id fixed at process start. Every
// failure surfaces as a *NetworkError so callers can treat transport errors,
// bad statuses and malformed payloads the same way.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Makepad-fr/tada/internal/model"
)

// Collection is the CRUD contract the list store depends on.
type Collection interface {
	List(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, title string) (model.Item, error)
	Update(ctx context.Context, id int, patch model.Patch) (model.Item, error)
	Delete(ctx context.Context, id int) error
}

// NetworkError describes a failed remote call.
type NetworkError struct {
	Op     string // list | create | update | delete
	ID     int    // item id, 0 for list/create
	Status int    // HTTP status, 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	msg := e.Op
	if e.ID != 0 {
		msg = fmt.Sprintf("%s %d", e.Op, e.ID)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: %d %s", msg, e.Status, http.StatusText(e.Status))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Status == http.StatusNotFound
}
