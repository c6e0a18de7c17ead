package cmd

import (
	"context"
	"path/filepath"

	"github.com/Digital-Shane/shirarium/internal/core"
	"github.com/Digital-Shane/shirarium/internal/report"
	"github.com/Digital-Shane/shirarium/internal/tui"
	"github.com/spf13/cobra"
)

// scanOutput is the JSON form of a scan.
type scanOutput struct {
	Root                string             `json:"root"`
	Examined            int                `json:"examined"`
	Attempted           int                `json:"attempted"`
	SkippedByLimit      int                `json:"skipped_by_limit"`
	SkippedByConfidence int                `json:"skipped_by_confidence"`
	Accepted            []classifiedRecord `json:"accepted"`
	Rejected            []classifiedRecord `json:"rejected"`
	SourceCounts        map[string]int     `json:"source_counts"`
	ConfidenceBuckets   map[string]int     `json:"confidence_buckets"`
	Plan                []core.PlanEntry   `json:"plan,omitempty"`
}

func newScanCmd(opts *globalOptions) *cobra.Command {
	var (
		extensions    []string
		minConfidence float64
		maxItems      int
		maxDepth      int
		workers       int
		planRoot      string
		showProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Classify every media file under a directory",
		Long: `Scan walks a directory, classifies files with a supported extension and
splits them into accepted and below-threshold results. With --plan-root
(or plan.root in the config) it also prints where each accepted file
would be organized. Nothing is moved.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}

			rt, err := newRuntime(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			flags := cmd.Flags()
			scanCfg := core.ScanConfig{
				MaxDepth:      rt.cfg.Scan.MaxDepth,
				Extensions:    rt.cfg.Scan.Extensions,
				MaxItems:      rt.cfg.Scan.MaxItems,
				MinConfidence: rt.cfg.Scan.MinConfidence,
				Workers:       rt.cfg.Scan.Workers,
			}
			if flags.Changed("ext") {
				scanCfg.Extensions = extensions
			}
			if flags.Changed("min-confidence") {
				scanCfg.MinConfidence = minConfidence
			}
			if flags.Changed("max-items") {
				scanCfg.MaxItems = maxItems
			}
			if flags.Changed("max-depth") {
				scanCfg.MaxDepth = maxDepth
			}
			if flags.Changed("workers") {
				scanCfg.Workers = workers
			}

			rt.startSession("scan", args)
			defer rt.endSession()

			rt.logger.Info().Str("root", abs).Int("max_items", scanCfg.MaxItems).Msg("scan: started")
			var rep core.ScanReport
			if showProgress {
				err = tui.RunProgress(cmd.Context(), "Scanning "+abs, cmd.ErrOrStderr(), cmd.InOrStdin(),
					func(ctx context.Context, onEvent func(core.BatchEvent)) error {
						scanCfg.OnEvent = onEvent
						var scanErr error
						rep, scanErr = core.Scan(ctx, rt.classifier, abs, scanCfg)
						return scanErr
					})
			} else {
				rep, err = core.Scan(cmd.Context(), rt.classifier, abs, scanCfg)
			}
			if err != nil {
				return err
			}
			for _, res := range rep.Accepted {
				rt.journal.Record(res.Path, res.Result, nil)
			}
			for _, res := range rep.Rejected {
				rt.journal.Record(res.Path, res.Result, nil)
			}
			rt.logger.Info().
				Int("examined", rep.Examined).
				Int("accepted", len(rep.Accepted)).
				Int("rejected", len(rep.Rejected)).
				Msg("scan: finished")

			planCfg := core.PlanConfig{
				Root:              rt.cfg.Plan.Root,
				MovieTemplate:     rt.cfg.Plan.MovieTemplate,
				EpisodeTemplate:   rt.cfg.Plan.EpisodeTemplate,
				NormalizeSegments: rt.cfg.Plan.NormalizeSegments,
				PreserveTags:      rt.cfg.Plan.PreserveTags,
			}
			if flags.Changed("plan-root") {
				planCfg.Root = planRoot
			}
			var plans []core.PlanEntry
			if planCfg.Root != "" {
				for _, res := range rep.Accepted {
					plans = append(plans, core.Plan(res.Path, res.Result, planCfg))
				}
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return report.WriteJSON(out, newScanOutput(rep, plans))
			}
			newPrinter(opts, out).Scan(rep, plans)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&extensions, "ext", nil, "Extensions to include (default from config)")
	flags.Float64Var(&minConfidence, "min-confidence", core.DefaultMinConfidence, "Minimum confidence for a result to be accepted")
	flags.IntVar(&maxItems, "max-items", core.DefaultMaxItems, "Maximum number of files classified in one run")
	flags.IntVar(&maxDepth, "max-depth", 6, "Maximum directory depth")
	flags.IntVarP(&workers, "workers", "w", core.DefaultWorkers, "Number of concurrent classifications")
	flags.StringVar(&planRoot, "plan-root", "", "Library root used to plan target paths")
	flags.BoolVar(&showProgress, "progress", false, "Show a live progress view on stderr")
	return cmd
}

func newScanOutput(rep core.ScanReport, plans []core.PlanEntry) scanOutput {
	out := scanOutput{
		Root:                rep.Root,
		Examined:            rep.Examined,
		Attempted:           rep.Attempted,
		SkippedByLimit:      rep.SkippedByLimit,
		SkippedByConfidence: rep.SkippedByConfidence,
		Accepted:            make([]classifiedRecord, 0, len(rep.Accepted)),
		Rejected:            make([]classifiedRecord, 0, len(rep.Rejected)),
		SourceCounts:        make(map[string]int, len(rep.SourceCounts)),
		ConfidenceBuckets:   rep.ConfidenceBuckets,
		Plan:                plans,
	}
	for _, res := range rep.Accepted {
		out.Accepted = append(out.Accepted, classifiedRecord{Path: res.Path, Record: res.Result.Record()})
	}
	for _, res := range rep.Rejected {
		out.Rejected = append(out.Rejected, classifiedRecord{Path: res.Path, Record: res.Result.Record()})
	}
	for src, n := range rep.SourceCounts {
		out.SourceCounts[string(src)] = n
	}
	return out
}
