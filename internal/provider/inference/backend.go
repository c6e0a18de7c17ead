package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Backend dialects selectable in configuration.
const (
	DialectOllama = "ollama"
	DialectOpenAI = "openai"
)

// Backend sends one extraction request and returns the raw reply content.
type Backend interface {
	Dialect() string
	Complete(ctx context.Context, path string) (string, error)
}

// NewBackend builds the adapter for a dialect.
func NewBackend(dialect, baseURL, model, apiKey string, httpClient *http.Client) (Backend, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base_url is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required")
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	switch dialect {
	case DialectOllama, "":
		return &OllamaBackend{baseURL: baseURL, model: model, apiKey: apiKey, httpClient: httpClient}, nil
	case DialectOpenAI:
		return NewOpenAIBackend(baseURL, model, apiKey, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", dialect)
	}
}

// OllamaBackend talks to the native Ollama chat endpoint.
type OllamaBackend struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
}

// Dialect returns the backend dialect name.
func (b *OllamaBackend) Dialect() string {
	return DialectOllama
}

// Complete posts the path to {base}/api/chat and returns the message content.
func (b *OllamaBackend) Complete(ctx context.Context, path string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model: b.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(path)},
		},
		Stream:  false,
		Format:  "json",
		Options: ollamaOptions{Temperature: 0, NumPredict: maxTokens},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", provider.Errorf(providerName, "INVALID_REQUEST", err, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", statusError(resp.StatusCode, resp.Header.Get("Retry-After"))
	}

	var decoded ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", provider.Errorf(providerName, "BAD_RESPONSE", err, "decode ollama response: %v", err)
	}
	if strings.TrimSpace(decoded.Message.Content) == "" {
		return "", provider.Errorf(providerName, "BAD_RESPONSE", nil, "ollama response has no content")
	}
	return decoded.Message.Content, nil
}

// OpenAIBackend talks to any OpenAI compatible chat completions endpoint,
// including the /v1 surface Ollama exposes.
type OpenAIBackend struct {
	client openai.Client
	model  string
}

// NewOpenAIBackend builds a client rooted at {baseURL}/v1. Retries are
// disabled; a failed call falls back to the heuristic result instead.
func NewOpenAIBackend(baseURL, model, apiKey string, httpClient *http.Client) *OpenAIBackend {
	if apiKey == "" {
		// Local servers ignore the key but the client requires one.
		apiKey = "ollama"
	}
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL + "/"),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &OpenAIBackend{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Dialect returns the backend dialect name.
func (b *OpenAIBackend) Dialect() string {
	return DialectOpenAI
}

// Complete sends a chat completion and returns the first choice's content.
func (b *OpenAIBackend) Complete(ctx context.Context, path string) (string, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(path)),
		},
		Model:       b.model,
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", statusError(apiErr.StatusCode, "")
		}
		return "", mapTransportError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", provider.Errorf(providerName, "BAD_RESPONSE", nil, "completion has no content")
	}
	return resp.Choices[0].Message.Content, nil
}

// mapTransportError classifies failures that happen before a status code
// is available.
func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &provider.ProviderError{
			Provider: providerName,
			Code:     "TIMEOUT",
			Message:  "inference request timed out",
			Retry:    true,
			Err:      err,
		}
	}
	return &provider.ProviderError{
		Provider: providerName,
		Code:     "UNAVAILABLE",
		Message:  "inference backend unreachable: " + err.Error(),
		Retry:    true,
		Err:      err,
	}
}

func statusError(status int, retryAfter string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &provider.ProviderError{
			Provider: providerName,
			Code:     "AUTH_FAILED",
			Message:  fmt.Sprintf("inference backend rejected credentials (HTTP %d)", status),
		}
	case status == http.StatusTooManyRequests:
		seconds, _ := strconv.Atoi(retryAfter)
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       "RATE_LIMITED",
			Message:    "inference backend rate limit exceeded",
			Retry:      true,
			RetryAfter: seconds,
		}
	case status >= 500:
		return &provider.ProviderError{
			Provider: providerName,
			Code:     "UNAVAILABLE",
			Message:  fmt.Sprintf("inference backend error (HTTP %d)", status),
			Retry:    true,
		}
	default:
		return &provider.ProviderError{
			Provider: providerName,
			Code:     "BAD_RESPONSE",
			Message:  fmt.Sprintf("unexpected inference status (HTTP %d)", status),
		}
	}
}
