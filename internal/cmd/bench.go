package cmd

import (
	"fmt"

	"github.com/Digital-Shane/shirarium/internal/core"
	"github.com/Digital-Shane/shirarium/internal/dataset"
	"github.com/Digital-Shane/shirarium/internal/report"
	"github.com/spf13/cobra"
)

func newBenchCmd(opts *globalOptions) *cobra.Command {
	var (
		workers     int
		minAccuracy float64
	)

	cmd := &cobra.Command{
		Use:   "bench <manifest.json>",
		Short: "Measure accuracy against a labelled dataset manifest",
		Long: `Bench classifies every relativePath of a dataset manifest and compares the
result to the labelled title, media type and numbering. It exits with an
error when accuracy falls below --min-accuracy percent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := dataset.Load(args[0])
			if err != nil {
				return err
			}

			rt, err := newRuntime(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			rt.logger.Info().
				Str("manifest", manifest.Name).
				Int("entries", len(manifest.Entries)).
				Interface("media_types", manifest.MediaTypeCounts()).
				Msg("bench: started")
			eval, err := dataset.Evaluate(cmd.Context(), manifest, rt.classifier, workers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				if err := report.WriteJSON(out, eval); err != nil {
					return err
				}
			} else {
				newPrinter(opts, out).Evaluation(eval, minAccuracy)
			}

			if !eval.MeetsBaseline(minAccuracy) {
				return fmt.Errorf("accuracy %.2f%% is below the %.2f%% baseline", eval.Accuracy, minAccuracy)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", core.DefaultWorkers, "Number of concurrent classifications")
	cmd.Flags().Float64Var(&minAccuracy, "min-accuracy", dataset.DefaultBaseline, "Minimum accuracy in percent")
	return cmd
}
