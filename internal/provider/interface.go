package provider

import (
	"context"
	"fmt"
)

// MediaType represents the classification of a parsed path
type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeEpisode MediaType = "episode"
	MediaTypeUnknown MediaType = "unknown"
)

// ParseMediaType converts a wire value into a MediaType. Anything that is
// not a known classification maps to MediaTypeUnknown.
func ParseMediaType(s string) MediaType {
	switch MediaType(s) {
	case MediaTypeMovie, MediaTypeEpisode:
		return MediaType(s)
	default:
		return MediaTypeUnknown
	}
}

// Source records which stage produced a result
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceExternal  Source = "external"
)

// Provider is the main interface that all classification providers must implement
type Provider interface {
	// Identification
	Name() string
	Description() string

	// Capability discovery
	Capabilities() ProviderCapabilities

	// Configuration
	Configure(config map[string]interface{}) error
	ConfigSchema() ConfigSchema

	// Classification
	Fetch(ctx context.Context, request FetchRequest) (*Result, error)
}

// ProviderCapabilities describes what a provider can do
type ProviderCapabilities struct {
	MediaTypes      []MediaType // Classifications the provider can produce
	RequiresConfig  bool        // Whether Configure must succeed before Enable
	RequiresNetwork bool        // Whether Fetch performs outbound requests
	Priority        int         // Default priority for this provider (higher = preferred)
}

// ConfigSchema describes the configuration requirements for a provider
type ConfigSchema struct {
	Fields []ConfigField
}

// ConfigField describes a single configuration field
type ConfigField struct {
	Name        string                 // Field name
	DisplayName string                 // Human-readable name
	Type        ConfigFieldType        // Field type
	Required    bool                   // Whether this field is required
	Default     interface{}            // Default value
	Description string                 // Help text
	Validation  *ConfigFieldValidation // Validation rules
	Sensitive   bool                   // Whether this contains sensitive data (for masking)
}

// ConfigFieldType represents the type of a configuration field
type ConfigFieldType string

const (
	ConfigFieldTypeString   ConfigFieldType = "string"
	ConfigFieldTypeInt      ConfigFieldType = "int"
	ConfigFieldTypeBool     ConfigFieldType = "bool"
	ConfigFieldTypeSelect   ConfigFieldType = "select"
	ConfigFieldTypePassword ConfigFieldType = "password"
	ConfigFieldTypeDuration ConfigFieldType = "duration"
)

// ConfigFieldValidation contains validation rules for a field
type ConfigFieldValidation struct {
	MinLength int                 // Minimum string length
	MaxLength int                 // Maximum string length
	Pattern   string              // Regex pattern
	MinValue  int                 // Minimum numeric value
	MaxValue  int                 // Maximum numeric value
	Options   []ConfigFieldOption // For select fields
}

// ConfigFieldOption represents an option for select fields
type ConfigFieldOption struct {
	Value       string
	Label       string
	Description string
}

// FetchRequest represents a classification request for a single path
type FetchRequest struct {
	Path string

	// Heuristic is the local result, when one was computed before the call.
	// External providers use it to carry raw tokens through.
	Heuristic *Result

	Extra map[string]interface{} // Provider-specific parameters
}

// ProviderError represents an error from a provider
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	Retry      bool
	RetryAfter int // Seconds to wait before retry
	Err        error
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Errorf builds a ProviderError with a formatted message.
func Errorf(providerName, code string, err error, format string, args ...interface{}) *ProviderError {
	return &ProviderError{
		Provider: providerName,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Err:      err,
	}
}
