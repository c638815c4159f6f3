package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/edit"
	"github.com/Makepad-fr/tada/internal/filter"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/ui"
)

const indexHint = "Hint: run `tada ls` to see valid indexes"

// resolve maps a 1-based index from `tada ls` to an item.
func resolve(s *store.Store, arg string) (model.Item, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return model.Item{}, usagef("not a number: %s", arg)
	}
	items := s.Snapshot().Items
	if n < 1 || n > len(items) {
		return model.Item{}, &usageError{
			err:  fmt.Errorf("index out of range: have %d, got %d", len(items), n),
			hint: indexHint,
		}
	}
	return items[n-1], nil
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo (title can be multiple words)",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			it, err := s.Create(cmd.Context(), strings.Join(args, " "))
			if errors.Is(err, store.ErrEmptyTitle) {
				return &usageError{err: err}
			}
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("added %q", it.Title))
			return nil
		},
	}
}

// itemCmd is the shape shared by done and rm: one index, one operation.
func (a *app) itemCmd(use, short, verb string, run func(ctx context.Context, s *store.Store, it model.Item) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <index>",
		Short: short,
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			it, err := resolve(s, args[0])
			if err != nil {
				return err
			}
			if err := run(cmd.Context(), s, it); err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			ui.OK(cmd.OutOrStdout(), verb)
			return nil
		},
	}
}

func (a *app) doneCmd() *cobra.Command {
	return a.itemCmd("done", "Toggle done for the todo at a 1-based index", "toggled",
		func(ctx context.Context, s *store.Store, it model.Item) error {
			return s.Toggle(ctx, it.ID)
		})
}

func (a *app) rmCmd() *cobra.Command {
	return a.itemCmd("rm", "Remove the todo at a 1-based index", "removed",
		func(ctx context.Context, s *store.Store, it model.Item) error {
			return s.Delete(ctx, it.ID)
		})
}

func (a *app) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <index> [title...]",
		Short: "Change a todo's title; an empty title removes it",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			it, err := resolve(s, args[0])
			if err != nil {
				return err
			}
			sess := edit.New(s, it)
			if err := sess.Begin(); err != nil {
				return fmt.Errorf("rename: %w", err)
			}
			sess.SetDraft(strings.Join(args[1:], " "))
			out, err := sess.Commit(cmd.Context())
			if err != nil {
				return fmt.Errorf("rename: %w", err)
			}
			switch out {
			case edit.Deleted:
				ui.OK(cmd.OutOrStdout(), "removed (empty title)")
			case edit.Unchanged:
				ui.OK(cmd.OutOrStdout(), "unchanged")
			default:
				ui.OK(cmd.OutOrStdout(), "renamed")
			}
			return nil
		},
	}
}

func (a *app) toggleAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all",
		Short: "Complete every todo, or reopen all when all are done",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			items := s.Snapshot().Items
			if len(items) == 0 {
				ui.OK(cmd.OutOrStdout(), "nothing to toggle")
				return nil
			}
			state := "completed"
			if filter.AllCompleted(items) {
				state = "active"
			}
			if err := s.ToggleAll(cmd.Context()); err != nil {
				return fmt.Errorf("toggle-all: %w", err)
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("all %d marked %s", len(items), state))
			return nil
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every completed todo",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			n, err := s.ClearCompleted(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear: removed %d, %w", n, err)
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("cleared %d", n))
			return nil
		},
	}
}
