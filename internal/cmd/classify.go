package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Digital-Shane/shirarium/internal/core"
	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/Digital-Shane/shirarium/internal/report"
	"github.com/Digital-Shane/shirarium/internal/tui"
	"github.com/spf13/cobra"
)

func newClassifyCmd(opts *globalOptions) *cobra.Command {
	var (
		workers       int
		heuristicOnly bool
		showProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "classify [path...]",
		Short: "Classify one or more media paths",
		Long: `Classify prints the title, media type and numbering extracted from each
path. Paths are treated as strings and never read from disk. Use "-" to
read newline separated paths from standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := collectPaths(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return &provider.ProviderError{Provider: "cli", Code: "INVALID_REQUEST", Message: "no paths given"}
			}

			rt, err := newRuntime(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			classifier := rt.classifier
			if heuristicOnly {
				classifier = heuristicClassifier(rt)
			}

			rt.startSession("classify", args)
			defer rt.endSession()

			engine := core.NewBatchEngine(core.BatchConfig{
				Classifier:  classifier,
				Paths:       paths,
				WorkerCount: workers,
			})
			if showProgress {
				err = tui.RunProgress(cmd.Context(), "Classifying paths", cmd.ErrOrStderr(), cmd.InOrStdin(),
					func(ctx context.Context, onEvent func(core.BatchEvent)) error {
						for ev := range engine.Start(ctx) {
							onEvent(ev)
						}
						return ctx.Err()
					})
			} else {
				_, err = engine.Run(cmd.Context())
			}
			if err != nil {
				return err
			}
			ordered := engine.Ordered()
			for _, res := range ordered {
				rt.journal.Record(res.Path, res.Result, nil)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				if len(ordered) == 1 {
					return report.WriteJSON(out, ordered[0].Result)
				}
				records := make([]classifiedRecord, 0, len(ordered))
				for _, res := range ordered {
					records = append(records, classifiedRecord{Path: res.Path, Record: res.Result.Record()})
				}
				return report.WriteJSON(out, records)
			}

			printer := newPrinter(opts, out)
			if len(ordered) == 1 {
				printer.Result(ordered[0].Path, ordered[0].Result)
				return nil
			}
			printer.Results(ordered, engine.SummarySnapshot())
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", core.DefaultWorkers, "Number of concurrent classifications")
	cmd.Flags().BoolVar(&heuristicOnly, "heuristic-only", false, "Skip the external provider even when it is configured")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Show a live progress view on stderr")
	return cmd
}

// classifiedRecord pairs a path with its wire record in JSON output.
type classifiedRecord struct {
	Path string `json:"path"`
	provider.Record
}

// heuristicClassifier returns a classifier using the configured local engine
// without the external provider.
func heuristicClassifier(rt *runtime) *core.Classifier {
	return core.NewClassifier(core.ClassifierConfig{
		Local:  rt.classifier.Engine(),
		Logger: rt.logger,
	})
}

// collectPaths expands "-" into lines read from in. Blank lines are skipped.
func collectPaths(args []string, in io.Reader) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if arg != "-" {
			if strings.TrimSpace(arg) != "" {
				paths = append(paths, arg)
			}
			continue
		}
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if strings.TrimSpace(line) != "" {
				paths = append(paths, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read paths from stdin: %w", err)
		}
	}
	return paths, nil
}
