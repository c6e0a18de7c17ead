package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/Digital-Shane/shirarium/internal/provider/local"
	"github.com/rs/zerolog"
)

// Policy decides when the external provider is consulted.
type Policy string

const (
	// PolicyFallback consults the external provider only for weak heuristic
	// results and prefers any valid external answer.
	PolicyFallback Policy = "fallback"
	// PolicyBest always consults the external provider and keeps whichever
	// result is more confident.
	PolicyBest Policy = "best"
)

// DefaultThreshold is the heuristic confidence at or above which the
// fallback policy skips the external provider.
const DefaultThreshold = 0.90

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyFallback, "":
		return PolicyFallback, nil
	case PolicyBest:
		return PolicyBest, nil
	default:
		return "", fmt.Errorf("unknown inference policy %q", s)
	}
}

// ClassifierConfig wires the heuristic engine to an optional external
// provider.
type ClassifierConfig struct {
	Local     *local.Engine
	External  provider.Provider
	Policy    Policy
	Threshold float64
	Cache     *provider.ResultCache
	Logger    zerolog.Logger
}

// Classifier produces the final result for a path: the heuristic result,
// possibly replaced by an external one. It never fails.
type Classifier struct {
	local     *local.Engine
	external  provider.Provider
	policy    Policy
	threshold float64
	cache     *provider.ResultCache
	logger    zerolog.Logger
}

// NewClassifier constructs a classifier with defaults applied.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	engine := cfg.Local
	if engine == nil {
		engine = local.NewEngine(local.DefaultOptions())
	}
	policy := cfg.Policy
	if policy == "" {
		policy = PolicyFallback
	}
	threshold := cfg.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	return &Classifier{
		local:     engine,
		external:  cfg.External,
		policy:    policy,
		threshold: threshold,
		cache:     cfg.Cache,
		logger:    cfg.Logger,
	}
}

// ExternalEnabled reports whether an external provider is wired in.
func (c *Classifier) ExternalEnabled() bool {
	return c.external != nil
}

// Engine returns the local engine.
func (c *Classifier) Engine() *local.Engine {
	return c.local
}

// Heuristic runs only the local engine.
func (c *Classifier) Heuristic(path string) provider.Result {
	return c.local.Classify(path)
}

// Classify returns the final result for path. External failures are logged
// and resolve to the heuristic result.
func (c *Classifier) Classify(ctx context.Context, path string) provider.Result {
	heuristic := c.local.Classify(path)
	if !c.shouldConsult(heuristic) {
		return heuristic
	}

	key := provider.ResultCacheKey(path, c.external.Name(), modelOf(c.external))
	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	external, err := c.external.Fetch(ctx, provider.FetchRequest{Path: path, Heuristic: &heuristic})
	if err != nil {
		c.logFailure(path, err)
		return heuristic
	}
	if external == nil {
		return heuristic
	}

	final := c.choose(heuristic, *external)
	c.cache.Set(key, final)
	return final
}

func (c *Classifier) shouldConsult(heuristic provider.Result) bool {
	if c.external == nil {
		return false
	}
	if c.policy == PolicyBest {
		return true
	}
	return heuristic.Confidence < c.threshold || heuristic.MediaType() == provider.MediaTypeUnknown
}

func (c *Classifier) choose(heuristic, external provider.Result) provider.Result {
	if external.Validate() != nil {
		return heuristic
	}
	if c.policy == PolicyBest && heuristic.Confidence >= external.Confidence {
		return heuristic
	}
	return external
}

func (c *Classifier) logFailure(path string, err error) {
	event := c.logger.Warn().Err(err).Str("path", path)
	var perr *provider.ProviderError
	if errors.As(err, &perr) {
		event = event.Str("provider", perr.Provider).Str("code", perr.Code)
		if perr.RetryAfter > 0 {
			event = event.Int("retry_after", perr.RetryAfter)
		}
	}
	event.Msg("external classification failed, keeping heuristic result")
}

// modelOf returns the model a provider is configured with, when it exposes
// one.
func modelOf(p provider.Provider) string {
	if m, ok := p.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}
