package cmd

import (
	"github.com/Digital-Shane/shirarium/internal/log"
	"github.com/Digital-Shane/shirarium/internal/report"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent classification sessions from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := log.DefaultDir()
			if err != nil {
				return err
			}
			sessions, err := log.ReadSessions(dir, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return report.WriteJSON(out, sessions)
			}
			newPrinter(opts, out).Sessions(sessions)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of sessions to list, 0 for all")
	return cmd
}
