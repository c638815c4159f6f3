package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/backend"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		addr     string
		dbPath   string
		seedPath string
		seedUser int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the todo API from a local SQLite database",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := a.logger
			if a.cfg.Sources["log_level"] == config.SourceDefault && a.cfg.LogFile == "" {
				// Request lines are info; show them unless asked otherwise.
				l, err := logging.New(cmd.ErrOrStderr(), "info")
				if err != nil {
					return err
				}
				logger = l
			}

			repo, err := backend.Open(ctx, dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			if seedPath != "" {
				items, err := backend.LoadSeed(seedPath)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				if seedUser <= 0 {
					seedUser = a.cfg.UserID
				}
				n, err := repo.Seed(ctx, items, seedUser)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				logger.Info("seeded", "count", n, "file", seedPath)
			}
			return backend.NewServer(repo, logger).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&dbPath, "db", "tada.db", "SQLite database file (:memory: for a throwaway one)")
	cmd.Flags().StringVar(&seedPath, "seed", "", "JSON array of todos imported when the database is empty")
	cmd.Flags().IntVar(&seedUser, "seed-user", 0, "owner for seed items without userId (default: configured user_id)")
	return cmd
}
