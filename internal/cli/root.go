// Package cli is the tada command line: scripted list operations, the dev
// server and config management. With no subcommand it starts the TUI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks bad invocations (exit code 2).
type usageError struct {
	err  error
	hint string
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// usageArgs turns cobra's positional-argument errors into usage errors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

var runTUI = func(ctx context.Context, st *store.Store, logger *log.Logger) error {
	return tui.Run(ctx, st, tui.WithLogger(logger))
}

// app carries what every subcommand resolves once in PersistentPreRunE.
type app struct {
	cfgPath string
	cfg     *config.Config
	logger  *log.Logger
	closer  io.Closer

	flagAPIURL   string
	flagUserID   int
	flagTheme    string
	flagLogLevel string
	flagColor    string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command { return (&app{}).rootCmd() }

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tada",
		Short:         "A todo list synced with a remote collection",
		Long:          "tada manages a todo list stored on a REST backend.\nRun without a subcommand for the interactive list.",
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.newStore()
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), st, a.logger)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (default $TADA_CONFIG or ~/.tada/config.toml)")
	pf.StringVar(&a.flagAPIURL, "api-url", "", "base URL of the todo API")
	pf.IntVar(&a.flagUserID, "user-id", 0, "owner id of the todo collection")
	pf.StringVar(&a.flagTheme, "theme", "", "color theme: classic|neon|mono")
	pf.StringVar(&a.flagLogLevel, "log-level", "", "debug|info|warn|error")
	pf.StringVar(&a.flagColor, "color", "auto", "colored output: auto|always|never")

	root.AddCommand(
		a.listCmd(),
		a.addCmd(),
		a.doneCmd(),
		a.renameCmd(),
		a.rmCmd(),
		a.toggleAllCmd(),
		a.clearCmd(),
		a.serveCmd(),
		a.configCmd(),
	)
	return root
}

// setup resolves config (flags last), theme and logger.
func (a *app) setup(cmd *cobra.Command) error {
	if a.cfgPath == "" {
		p, err := config.Path()
		if err != nil {
			return err
		}
		a.cfgPath = p
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	overrides := []struct {
		flag, key, value string
	}{
		{"api-url", "api_url", a.flagAPIURL},
		{"user-id", "user_id", fmt.Sprint(a.flagUserID)},
		{"theme", "theme", a.flagTheme},
		{"log-level", "log_level", a.flagLogLevel},
	}
	for _, o := range overrides {
		if !flags.Changed(o.flag) {
			continue
		}
		if err := cfg.Override(o.key, o.value); err != nil {
			return &usageError{err: fmt.Errorf("--%s: %w", o.flag, err)}
		}
	}
	a.cfg = cfg

	switch a.flagColor {
	case "auto", "always", "never":
		ui.SetColor(a.flagColor)
	default:
		return usagef("--color must be auto, always or never, got %q", a.flagColor)
	}
	ui.SetTheme(cfg.Theme)

	// The TUI owns the terminal, so it only logs to a file.
	if cmd == cmd.Root() || cfg.LogFile != "" {
		a.logger, a.closer, err = logging.Open(cfg.LogFile, cfg.LogLevel)
	} else {
		a.logger, err = logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	}
	return err
}

// newStore builds an unloaded store over the configured API.
func (a *app) newStore() (*store.Store, error) {
	if err := a.cfg.RequireUser(); err != nil {
		return nil, &usageError{err: err}
	}
	client, err := api.NewClient(a.cfg.APIURL, a.cfg.UserID,
		api.WithTimeout(time.Duration(a.cfg.Timeout)),
		api.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	return store.New(client, a.cfg.UserID, store.WithLogger(a.logger)), nil
}

// loadedStore is newStore followed by Load.
func (a *app) loadedStore(ctx context.Context) (*store.Store, error) {
	st, err := a.newStore()
	if err != nil {
		return nil, err
	}
	if err := st.Load(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", strings.ToLower(store.MsgLoad), err)
	}
	return st, nil
}

// closeLog releases the log file opened by setup, if any.
func (a *app) closeLog() {
	if a.closer == nil {
		return
	}
	if err := a.closer.Close(); err != nil {
		a.logger.Debug("close log", "err", err)
	}
	a.closer = nil
}

// Execute runs the command line and maps the outcome to an exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, &app{}, args, stdout, stderr)
}

func execute(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	// Post-run hooks are skipped on error, so the log file is closed here.
	a.closeLog()
	if err == nil {
		return ExitOK
	}
	ui.Fail(stderr, err.Error())
	var ue *usageError
	if errors.As(err, &ue) {
		if ue.hint != "" {
			fmt.Fprintln(stderr, ui.Current().Muted.Render(ue.hint))
		} else {
			fmt.Fprintln(stderr, ui.Current().Muted.Render("Run `tada --help` for usage."))
		}
		return ExitUsage
	}
	return ExitError
}
