package cmd

import (
	"github.com/Digital-Shane/shirarium/internal/report"
	"github.com/spf13/cobra"
)

func newProvidersCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List classification providers and their settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			infos := rt.registry.Describe()
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return report.WriteJSON(out, infos)
			}
			newPrinter(opts, out).Providers(infos)
			return nil
		},
	}
}
