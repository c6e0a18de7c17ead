package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Digital-Shane/shirarium/internal/provider"
)

const (
	providerName = "inference"

	// DefaultTimeout bounds a single extraction call.
	DefaultTimeout = 30 * time.Second
)

// Provider implements the provider.Provider interface on top of an LLM
// backend. Each Fetch is one outbound request with no retry.
type Provider struct {
	mu         sync.RWMutex
	backend    Backend
	httpClient *http.Client
	timeout    time.Duration
	model      string
	limiter    *rateLimiter
	config     map[string]interface{}
}

// New creates an unconfigured inference provider.
func New() *Provider {
	return &Provider{
		timeout: DefaultTimeout,
		config:  make(map[string]interface{}),
	}
}

// NewWithBackend creates a provider around an existing backend.
func NewWithBackend(backend Backend, model string, timeout time.Duration) *Provider {
	p := New()
	p.backend = backend
	p.model = model
	if timeout > 0 {
		p.timeout = timeout
	}
	return p
}

// SetHTTPClient overrides the client used by backends built in Configure.
func (p *Provider) SetHTTPClient(client *http.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.httpClient = client
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// Description returns a human readable description of the provider.
func (p *Provider) Description() string {
	return "Structured extraction by a local or hosted language model"
}

// Capabilities returns what this provider can handle.
func (p *Provider) Capabilities() provider.ProviderCapabilities {
	return provider.ProviderCapabilities{
		MediaTypes: []provider.MediaType{
			provider.MediaTypeMovie,
			provider.MediaTypeEpisode,
			provider.MediaTypeUnknown,
		},
		RequiresConfig:  true,
		RequiresNetwork: true,
		Priority:        100,
	}
}

// ConfigSchema returns the configuration schema for this provider.
func (p *Provider) ConfigSchema() provider.ConfigSchema {
	return provider.ConfigSchema{
		Fields: []provider.ConfigField{
			{
				Name:        "backend",
				DisplayName: "Backend",
				Type:        provider.ConfigFieldTypeSelect,
				Default:     DialectOllama,
				Description: "API dialect spoken by the inference server",
				Validation: &provider.ConfigFieldValidation{
					Options: []provider.ConfigFieldOption{
						{Value: DialectOllama, Label: "Ollama", Description: "Native /api/chat endpoint"},
						{Value: DialectOpenAI, Label: "OpenAI", Description: "OpenAI compatible /v1/chat/completions"},
					},
				},
			},
			{
				Name:        "base_url",
				DisplayName: "Base URL",
				Type:        provider.ConfigFieldTypeString,
				Required:    true,
				Default:     "http://ollama:11434",
				Description: "Root URL of the inference server",
			},
			{
				Name:        "model",
				DisplayName: "Model",
				Type:        provider.ConfigFieldTypeString,
				Required:    true,
				Default:     "llama3.1:8b",
				Description: "Model name passed to the server",
			},
			{
				Name:        "api_key",
				DisplayName: "API Key",
				Type:        provider.ConfigFieldTypePassword,
				Description: "Bearer token, when the server requires one",
				Sensitive:   true,
			},
			{
				Name:        "timeout",
				DisplayName: "Timeout",
				Type:        provider.ConfigFieldTypeDuration,
				Default:     DefaultTimeout.String(),
				Description: "Upper bound for a single request",
			},
			{
				Name:        "rate_limit",
				DisplayName: "Requests per minute",
				Type:        provider.ConfigFieldTypeInt,
				Default:     0,
				Description: "Maximum requests sent per minute, 0 for no limit",
				Validation: &provider.ConfigFieldValidation{
					MinValue: 0,
					MaxValue: 10000,
				},
			},
		},
	}
}

// Configure applies configuration to the provider.
func (p *Provider) Configure(config map[string]interface{}) error {
	baseURL, _ := config["base_url"].(string)
	model, _ := config["model"].(string)
	apiKey, _ := config["api_key"].(string)
	dialect, _ := config["backend"].(string)

	timeout := DefaultTimeout
	switch v := config["timeout"].(type) {
	case time.Duration:
		timeout = v
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		timeout = d
	}
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	var perMinute int
	switch v := config["rate_limit"].(type) {
	case int:
		perMinute = v
	case float64:
		perMinute = int(v)
	}
	if perMinute < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	client := p.httpClient
	if client == nil {
		client = &http.Client{}
	}

	backend, err := NewBackend(strings.ToLower(strings.TrimSpace(dialect)), baseURL, model, strings.TrimSpace(apiKey), client)
	if err != nil {
		return err
	}

	p.backend = backend
	p.model = model
	p.timeout = timeout
	p.limiter = newRateLimiter(perMinute, time.Minute)
	p.config = config
	return nil
}

// Model returns the configured model name, used to key cached results.
func (p *Provider) Model() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// Fetch asks the backend to classify the request path. The heuristic raw
// tokens, when supplied, are carried over to the result.
func (p *Provider) Fetch(ctx context.Context, request provider.FetchRequest) (*provider.Result, error) {
	p.mu.RLock()
	backend, timeout, limiter := p.backend, p.timeout, p.limiter
	p.mu.RUnlock()

	if backend == nil {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "UNAVAILABLE",
			Message:  "provider not configured",
		}
	}
	if strings.TrimSpace(request.Path) == "" {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "INVALID_REQUEST",
			Message:  "path is required for extraction",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := limiter.wait(ctx); err != nil {
		return nil, p.mapError(ctx, err)
	}

	content, err := backend.Complete(ctx, request.Path)
	if err != nil {
		return nil, p.mapError(ctx, err)
	}

	res, err := parseReply(content)
	if err != nil {
		return nil, provider.Errorf(providerName, "INVALID_RESPONSE", err, "unusable model reply: %v", err)
	}
	if err := res.Validate(); err != nil {
		return nil, provider.Errorf(providerName, "INVALID_RESPONSE", err, "invalid model reply: %v", err)
	}

	if request.Heuristic != nil {
		res.RawTokens = append([]string{}, request.Heuristic.RawTokens...)
		res.Attributes = request.Heuristic.Attributes
	}
	return &res, nil
}

// mapError makes sure every failure leaving Fetch is a ProviderError, and
// that an expired deadline is reported as a timeout whatever the transport
// said.
func (p *Provider) mapError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &provider.ProviderError{
			Provider: providerName,
			Code:     "TIMEOUT",
			Message:  "inference request timed out",
			Retry:    true,
			Err:      err,
		}
	}

	var perr *provider.ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return mapTransportError(err)
}
