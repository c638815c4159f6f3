// Package backend serves the todo collection over REST from SQLite. It
// exists for local development and tests; production clients talk to the
// hosted API.
package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Makepad-fr/tada/internal/model"
)

var (
	ErrNotFound   = errors.New("todo not found")
	ErrEmptyTitle = errors.New("title should not be empty")
)

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id   INTEGER NOT NULL,
	title     TEXT    NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS todos_user ON todos(user_id, id);
`

// Repo stores todos in one SQLite table.
type Repo struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path. Use ":memory:" for a
// throwaway store.
func Open(ctx context.Context, path string) (*Repo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() error { return r.db.Close() }

// List returns userID's todos in insertion order.
func (r *Repo) List(ctx context.Context, userID int) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, completed FROM todos WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return items, nil
}

// Count is the number of stored todos across all users.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count todos: %w", err)
	}
	return n, nil
}

// Create inserts a todo and returns it with its new id.
func (r *Repo) Create(ctx context.Context, it model.Item) (model.Item, error) {
	it.Title = strings.TrimSpace(it.Title)
	if it.Title == "" {
		return model.Item{}, ErrEmptyTitle
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (user_id, title, completed) VALUES (?, ?, ?)`,
		it.UserID, it.Title, it.Completed)
	if err != nil {
		return model.Item{}, fmt.Errorf("insert todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Item{}, fmt.Errorf("last insert id: %w", err)
	}
	it.ID = int(id)
	return it, nil
}

// Update applies patch to todo id.
func (r *Repo) Update(ctx context.Context, id int, patch model.Patch) (model.Item, error) {
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return model.Item{}, ErrEmptyTitle
		}
		patch.Title = &t
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Item{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	it, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT id, user_id, title, completed FROM todos WHERE id = ?`, id))
	if err != nil {
		return model.Item{}, err
	}
	it = patch.Apply(it)
	if _, err := tx.ExecContext(ctx,
		`UPDATE todos SET title = ?, completed = ? WHERE id = ?`, it.Title, it.Completed, id); err != nil {
		return model.Item{}, fmt.Errorf("update todo: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Item{}, fmt.Errorf("commit: %w", err)
	}
	return it, nil
}

// Delete removes todo id.
func (r *Repo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (model.Item, error) {
	var it model.Item
	if err := sc.Scan(&it.ID, &it.UserID, &it.Title, &it.Completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, ErrNotFound
		}
		return model.Item{}, fmt.Errorf("scan todo: %w", err)
	}
	return it, nil
}
