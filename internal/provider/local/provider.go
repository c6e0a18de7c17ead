package local

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/Digital-Shane/shirarium/internal/provider"
)

const (
	providerName = "local"
)

// Options tunes the heuristic engine.
type Options struct {
	// ShortStemThreshold is the leaf stem length, in runes, below which
	// folder context is consulted.
	ShortStemThreshold int
	// MaxContextDepth bounds how many ancestor segments are parsed.
	MaxContextDepth int
	// UnknownPenalty lowers the score of leaves no recognizer classified.
	UnknownPenalty bool
	// YearTitleOverrides extends the built-in YearTitleOverrides table.
	YearTitleOverrides []string
}

// DefaultOptions returns the tuning used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ShortStemThreshold: 10,
		MaxContextDepth:    3,
	}
}

// Engine classifies paths with the heuristic cascade. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	opts      Options
	overrides map[string]bool
}

// NewEngine builds an engine, replacing non-positive limits with defaults.
func NewEngine(opts Options) *Engine {
	defaults := DefaultOptions()
	if opts.ShortStemThreshold <= 0 {
		opts.ShortStemThreshold = defaults.ShortStemThreshold
	}
	if opts.MaxContextDepth <= 0 {
		opts.MaxContextDepth = defaults.MaxContextDepth
	}
	return &Engine{
		opts:      opts,
		overrides: overrideSet(opts.YearTitleOverrides),
	}
}

var defaultEngine = NewEngine(DefaultOptions())

// Classify runs the default engine on path.
func Classify(path string) provider.Result {
	return defaultEngine.Classify(path)
}

// Classify parses the leaf of path, consults folder context when the leaf
// is weak and returns a fresh result. It never fails.
func (e *Engine) Classify(path string) provider.Result {
	ctx := NewParseContext(path)
	leaf := e.parseSegment(ctx.Stem)
	merged := e.resolveContext(ctx, leaf)
	return merged.result(Tokenize(ctx.Stem), ExtractAttributes(ctx.Leaf))
}

// Provider implements the provider.Provider interface for heuristic parsing
type Provider struct {
	engine atomic.Pointer[Engine]
}

// New creates a new local provider instance
func New(opts Options) *Provider {
	p := &Provider{}
	p.engine.Store(NewEngine(opts))
	return p
}

// Engine returns the engine currently used by Fetch.
func (p *Provider) Engine() *Engine {
	return p.engine.Load()
}

// Name returns the provider name
func (p *Provider) Name() string {
	return providerName
}

// Description returns the provider description
func (p *Provider) Description() string {
	return "Heuristic classification from the path string"
}

// Capabilities returns what this provider can do
func (p *Provider) Capabilities() provider.ProviderCapabilities {
	return provider.ProviderCapabilities{
		MediaTypes: []provider.MediaType{
			provider.MediaTypeMovie,
			provider.MediaTypeEpisode,
			provider.MediaTypeUnknown,
		},
		Priority: 0, // Lowest priority, but always enabled
	}
}

// ConfigSchema returns the configuration schema for this provider
func (p *Provider) ConfigSchema() provider.ConfigSchema {
	return provider.ConfigSchema{
		Fields: []provider.ConfigField{
			{
				Name:        "short_stem_threshold",
				DisplayName: "Short Stem Threshold",
				Type:        provider.ConfigFieldTypeInt,
				Default:     10,
				Description: "Leaf stems shorter than this consult parent folders",
				Validation:  &provider.ConfigFieldValidation{MinValue: 1, MaxValue: 64},
			},
			{
				Name:        "max_context_depth",
				DisplayName: "Folder Context Depth",
				Type:        provider.ConfigFieldTypeInt,
				Default:     3,
				Description: "Maximum number of parent folders parsed for context",
				Validation:  &provider.ConfigFieldValidation{MinValue: 1, MaxValue: 16},
			},
			{
				Name:        "unknown_penalty",
				DisplayName: "Unknown Penalty",
				Type:        provider.ConfigFieldTypeBool,
				Default:     false,
				Description: "Lower the score of unclassified leaves",
			},
		},
	}
}

// Configure rebuilds the engine from a configuration map
func (p *Provider) Configure(config map[string]interface{}) error {
	opts := DefaultOptions()

	if v, ok := config["short_stem_threshold"]; ok {
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("short_stem_threshold: %w", err)
		}
		opts.ShortStemThreshold = n
	}
	if v, ok := config["max_context_depth"]; ok {
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("max_context_depth: %w", err)
		}
		opts.MaxContextDepth = n
	}
	if v, ok := config["unknown_penalty"].(bool); ok {
		opts.UnknownPenalty = v
	}
	if v, ok := config["year_title_overrides"].([]string); ok {
		opts.YearTitleOverrides = v
	}

	p.engine.Store(NewEngine(opts))
	return nil
}

// Fetch classifies the requested path
func (p *Provider) Fetch(ctx context.Context, request provider.FetchRequest) (*provider.Result, error) {
	if request.Path == "" {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "INVALID_REQUEST",
			Message:  "Path is required for parsing",
			Retry:    false,
		}
	}

	res := p.Engine().Classify(request.Path)
	return &res, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
