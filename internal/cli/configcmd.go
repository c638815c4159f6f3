package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/ui"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings and where each comes from",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, k := range config.Keys {
					v, err := a.cfg.Get(k)
					if err != nil {
						return err
					}
					if v == "" {
						v = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t(%s)\n", k, v, a.cfg.Sources[k])
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.cfgPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Persist a setting in the config file",
			Args:  usageArgs(cobra.ExactArgs(2)),
			RunE: func(cmd *cobra.Command, args []string) error {
				fileCfg, err := config.LoadFile(a.cfgPath)
				if err != nil {
					return err
				}
				if err := fileCfg.Set(args[0], args[1]); err != nil {
					return &usageError{err: err}
				}
				if err := config.Save(a.cfgPath, fileCfg); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
				ui.OK(cmd.OutOrStdout(), fmt.Sprintf("%s saved to %s", args[0], a.cfgPath))
				return nil
			},
		},
	)
	return cmd
}
