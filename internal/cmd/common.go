package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/Digital-Shane/shirarium/internal/config"
	"github.com/Digital-Shane/shirarium/internal/core"
	"github.com/Digital-Shane/shirarium/internal/log"
	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/Digital-Shane/shirarium/internal/provider/builtin"
	"github.com/Digital-Shane/shirarium/internal/report"
	"github.com/rs/zerolog"
)

// runtime is everything a subcommand needs, built once from configuration.
type runtime struct {
	cfg        *config.Config
	logger     zerolog.Logger
	registry   *provider.Registry
	classifier *core.Classifier
	cache      *provider.ResultCache
	journal    *log.Journal
}

func loadConfig(opts *globalOptions) (*config.Config, error) {
	path, err := configFilePath(opts)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadWithEnv(path, opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newPrinter returns a report printer honoring --ascii.
func newPrinter(opts *globalOptions, w io.Writer) *report.Printer {
	if opts.ascii {
		return report.NewPrinter(w, report.WithIconSet(report.ASCIIIcons()))
	}
	return report.NewPrinter(w)
}

// newRuntime loads configuration and wires the providers, cache, journal and
// logger. Logs go to logOut.
func newRuntime(opts *globalOptions, logOut io.Writer) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger, err := log.Setup(cfg.Logging.Level, cfg.Logging.Format, logOut)
	if err != nil {
		return nil, err
	}

	registry := provider.NewRegistry()
	if err := builtin.Register(registry, cfg.LocalOptions()); err != nil {
		return nil, err
	}
	if cfg.Inference.Enabled {
		if err := builtin.EnableInference(registry, cfg.InferenceProviderConfig()); err != nil {
			return nil, fmt.Errorf("inference: %w", err)
		}
	}
	stack, err := builtin.Resolve(registry)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger, registry: registry}

	if cfg.Cache.Enabled && stack.External != nil {
		file, err := cfg.CacheFile()
		if err != nil {
			return nil, err
		}
		rt.cache = provider.NewResultCache(time.Duration(cfg.Cache.TTL), file)
	}

	policy, err := core.ParsePolicy(cfg.Inference.Policy)
	if err != nil {
		return nil, err
	}
	rt.classifier = core.NewClassifier(core.ClassifierConfig{
		Local:     stack.Local,
		External:  stack.External,
		Policy:    policy,
		Threshold: cfg.Inference.Threshold,
		Cache:     rt.cache,
		Logger:    logger,
	})

	journalDir, err := log.DefaultDir()
	if err != nil {
		return nil, err
	}
	rt.journal = log.NewJournal(journalDir, cfg.Logging.EnableJournal, cfg.Logging.RetentionDays)

	logger.Debug().
		Bool("external", stack.External != nil).
		Str("policy", string(policy)).
		Float64("threshold", cfg.Inference.Threshold).
		Msg("runtime: ready")
	return rt, nil
}

// close persists the result cache.
func (rt *runtime) close() {
	if rt.cache == nil {
		return
	}
	if err := rt.cache.Save(); err != nil {
		rt.logger.Warn().Err(err).Msg("runtime: failed to save result cache")
	}
}

// endSession writes the journal and logs where it went.
func (rt *runtime) endSession() {
	path, err := rt.journal.EndSession()
	if err != nil {
		rt.logger.Warn().Err(err).Msg("journal: failed to write session")
		return
	}
	if path != "" {
		rt.logger.Debug().Str("file", path).Msg("journal: session written")
	}
}

func (rt *runtime) startSession(command string, args []string) {
	if err := rt.journal.StartSession(command, args); err != nil {
		rt.logger.Warn().Err(err).Msg("journal: failed to start session")
	}
}
