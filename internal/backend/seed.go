package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Makepad-fr/tada/internal/model"
)

// LoadSeed reads a JSON array of todos. A missing file yields no items.
func LoadSeed(path string) ([]model.Item, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var items []model.Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return items, nil
}

// Seed imports items once: nothing happens when the table already has rows.
// Seed ids are ignored; the database assigns new ones. Items without an
// owner get defaultUser.
func (r *Repo) Seed(ctx context.Context, items []model.Item, defaultUser int) (int, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	added := 0
	for _, it := range items {
		if it.UserID == 0 {
			it.UserID = defaultUser
		}
		if _, err := r.Create(ctx, it); err != nil {
			if errors.Is(err, ErrEmptyTitle) {
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}
