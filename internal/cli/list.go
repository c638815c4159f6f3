package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/tada/internal/filter"
	"github.com/Makepad-fr/tada/internal/ui"
)

func (a *app) listCmd() *cobra.Command {
	var (
		status string
		group  bool
		format string
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := filter.ParseStatus(status)
			if err != nil {
				return &usageError{err: err}
			}
			if format != "text" && format != "json" && format != "yaml" {
				return usagef("--format must be text, json or yaml, got %q", format)
			}
			s, err := a.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			items := s.Snapshot().Items
			visible := filter.Apply(items, st)
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(visible)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(visible); err != nil {
					return err
				}
				return enc.Close()
			}
			fmt.Fprintln(out, ui.RenderPanel(listPanel(items, st, group)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "filter", "f", "all", "all|active|completed")
	cmd.Flags().BoolVar(&group, "group", false, "group output by pending/done")
	cmd.Flags().StringVar(&format, "format", "text", "text|json|yaml")
	return cmd
}
