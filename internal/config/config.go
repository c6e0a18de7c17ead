package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/shirarium/internal/core"
	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/Digital-Shane/shirarium/internal/provider/inference"
	"github.com/Digital-Shane/shirarium/internal/provider/local"
	"github.com/joho/godotenv"
)

// Config is the complete runtime configuration. It is read once at start.
type Config struct {
	Heuristics HeuristicsConfig `json:"heuristics"`
	Inference  InferenceConfig  `json:"inference"`
	Server     ServerConfig     `json:"server"`
	Scan       ScanConfig       `json:"scan"`
	Plan       PlanConfig       `json:"plan"`
	Cache      CacheConfig      `json:"cache"`
	Logging    LoggingConfig    `json:"logging"`
}

// HeuristicsConfig tunes the local engine.
type HeuristicsConfig struct {
	ShortStemThreshold int      `json:"short_stem_threshold"`
	MaxContextDepth    int      `json:"max_context_depth"`
	UnknownPenalty     bool     `json:"unknown_penalty"`
	YearTitleOverrides []string `json:"year_title_overrides"`
}

// InferenceConfig describes the external language model backend.
type InferenceConfig struct {
	Enabled   bool     `json:"enabled"`
	Backend   string   `json:"backend"`
	BaseURL   string   `json:"base_url"`
	Model     string   `json:"model"`
	APIKey    string   `json:"api_key,omitempty"`
	Timeout   Duration `json:"timeout"`
	Policy    string   `json:"policy"`
	Threshold float64  `json:"threshold"`
	// RateLimit caps requests per minute. Zero means unlimited.
	RateLimit int `json:"rate_limit"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	ListenAddr string `json:"listen_addr"`
}

// ScanConfig configures library scans.
type ScanConfig struct {
	Extensions    []string `json:"extensions"`
	MaxItems      int      `json:"max_items"`
	MinConfidence float64  `json:"min_confidence"`
	MaxDepth      int      `json:"max_depth"`
	Workers       int      `json:"workers"`
}

// PlanConfig configures target path planning for scans.
type PlanConfig struct {
	Root              string `json:"root"`
	MovieTemplate     string `json:"movie_template"`
	EpisodeTemplate   string `json:"episode_template"`
	NormalizeSegments bool   `json:"normalize_segments"`
	PreserveTags      bool   `json:"preserve_tags"`
}

// CacheConfig configures the external result cache.
type CacheConfig struct {
	Enabled bool     `json:"enabled"`
	TTL     Duration `json:"ttl"`
	File    string   `json:"file,omitempty"`
}

// LoggingConfig configures the process logger and the run journal.
type LoggingConfig struct {
	Level         string `json:"level"`
	Format        string `json:"format"`
	EnableJournal bool   `json:"enable_journal"`
	RetentionDays int    `json:"retention_days"`
}

// Duration is a time.Duration written as a Go duration string in JSON.
type Duration time.Duration

// MarshalJSON encodes the duration as a string such as "30s".
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(time.Duration(seconds * float64(time.Second)))
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Heuristics: HeuristicsConfig{
			ShortStemThreshold: local.DefaultOptions().ShortStemThreshold,
			MaxContextDepth:    local.DefaultOptions().MaxContextDepth,
		},
		Inference: InferenceConfig{
			Enabled:   false,
			Backend:   inference.DialectOllama,
			BaseURL:   "http://ollama:11434",
			Model:     "llama3.1:8b",
			Timeout:   Duration(inference.DefaultTimeout),
			Policy:    string(core.PolicyFallback),
			Threshold: core.DefaultThreshold,
		},
		Server: ServerConfig{
			ListenAddr: ":8000",
		},
		Scan: ScanConfig{
			Extensions:    append([]string{}, core.DefaultScanExtensions...),
			MaxItems:      core.DefaultMaxItems,
			MinConfidence: core.DefaultMinConfidence,
			MaxDepth:      6,
			Workers:       core.DefaultWorkers,
		},
		Plan: PlanConfig{
			MovieTemplate:     core.DefaultMovieTemplate,
			EpisodeTemplate:   core.DefaultEpisodeTemplate,
			NormalizeSegments: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     Duration(24 * time.Hour),
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "console",
			EnableJournal: true,
			RetentionDays: 30,
		},
	}
}

// Dir returns the directory holding configuration, cache and journal files
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".shirarium"), nil
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadWithEnv reads path, loads envFile when it exists and applies the
// environment overlay. Variables already set in the process win over the
// .env file.
func LoadWithEnv(path, envFile string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if envFile != "" {
		if _, statErr := os.Stat(envFile); statErr == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a configuration file. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Fill in any zeroed fields with defaults
	defaults := DefaultConfig()
	if cfg.Heuristics.ShortStemThreshold <= 0 {
		cfg.Heuristics.ShortStemThreshold = defaults.Heuristics.ShortStemThreshold
	}
	if cfg.Heuristics.MaxContextDepth <= 0 {
		cfg.Heuristics.MaxContextDepth = defaults.Heuristics.MaxContextDepth
	}
	if cfg.Inference.Backend == "" {
		cfg.Inference.Backend = defaults.Inference.Backend
	}
	if cfg.Inference.Timeout == 0 {
		cfg.Inference.Timeout = defaults.Inference.Timeout
	}
	if cfg.Inference.Policy == "" {
		cfg.Inference.Policy = defaults.Inference.Policy
	}
	if cfg.Inference.Threshold == 0 {
		cfg.Inference.Threshold = defaults.Inference.Threshold
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = defaults.Scan.Extensions
	}
	if cfg.Scan.MaxDepth <= 0 {
		cfg.Scan.MaxDepth = defaults.Scan.MaxDepth
	}
	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = defaults.Scan.Workers
	}
	if cfg.Plan.MovieTemplate == "" {
		cfg.Plan.MovieTemplate = defaults.Plan.MovieTemplate
	}
	if cfg.Plan.EpisodeTemplate == "" {
		cfg.Plan.EpisodeTemplate = defaults.Plan.EpisodeTemplate
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = defaults.Cache.TTL
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}
	if cfg.Logging.RetentionDays == 0 {
		cfg.Logging.RetentionDays = defaults.Logging.RetentionDays
	}

	return cfg, nil
}

// ApplyEnv overlays SHIRARIUM_* environment variables. Unset variables leave
// the current value alone; malformed values are errors.
func (cfg *Config) ApplyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) {
		v, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		parsed, err := parseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}
	float := func(key string, dst *float64) {
		v, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}
	integer := func(key string, dst *int) {
		v, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}
	duration := func(key string, dst *Duration) {
		v, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		parsed, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = Duration(parsed)
	}

	boolean("SHIRARIUM_USE_OLLAMA", &cfg.Inference.Enabled)
	str("SHIRARIUM_OLLAMA_BASE_URL", &cfg.Inference.BaseURL)
	str("SHIRARIUM_OLLAMA_MODEL", &cfg.Inference.Model)
	str("SHIRARIUM_INFERENCE_BACKEND", &cfg.Inference.Backend)
	str("SHIRARIUM_INFERENCE_API_KEY", &cfg.Inference.APIKey)
	duration("SHIRARIUM_INFERENCE_TIMEOUT", &cfg.Inference.Timeout)
	str("SHIRARIUM_INFERENCE_POLICY", &cfg.Inference.Policy)
	float("SHIRARIUM_CONFIDENCE_THRESHOLD", &cfg.Inference.Threshold)
	integer("SHIRARIUM_INFERENCE_RATE_LIMIT", &cfg.Inference.RateLimit)
	str("SHIRARIUM_LISTEN_ADDR", &cfg.Server.ListenAddr)
	str("SHIRARIUM_LOG_LEVEL", &cfg.Logging.Level)
	str("SHIRARIUM_LOG_FORMAT", &cfg.Logging.Format)
	str("SHIRARIUM_PLAN_ROOT", &cfg.Plan.Root)

	return errors.Join(errs...)
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.Heuristics.ShortStemThreshold < 1 {
		errs = append(errs, fmt.Errorf("heuristics.short_stem_threshold must be at least 1"))
	}
	if cfg.Heuristics.MaxContextDepth < 1 {
		errs = append(errs, fmt.Errorf("heuristics.max_context_depth must be at least 1"))
	}

	switch strings.ToLower(cfg.Inference.Backend) {
	case inference.DialectOllama, inference.DialectOpenAI:
	default:
		errs = append(errs, fmt.Errorf("inference.backend %q is not one of ollama, openai", cfg.Inference.Backend))
	}
	if _, err := core.ParsePolicy(cfg.Inference.Policy); err != nil {
		errs = append(errs, fmt.Errorf("inference.policy: %w", err))
	}
	if cfg.Inference.Threshold <= 0 || cfg.Inference.Threshold > 1 {
		errs = append(errs, fmt.Errorf("inference.threshold must be in (0, 1]"))
	}
	if cfg.Inference.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("inference.timeout must be positive"))
	}
	if cfg.Inference.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("inference.rate_limit must not be negative"))
	}
	if cfg.Inference.Enabled {
		if strings.TrimSpace(cfg.Inference.BaseURL) == "" {
			errs = append(errs, fmt.Errorf("inference.base_url is required when inference is enabled"))
		}
		if strings.TrimSpace(cfg.Inference.Model) == "" {
			errs = append(errs, fmt.Errorf("inference.model is required when inference is enabled"))
		}
	}

	if cfg.Scan.MinConfidence < 0 || cfg.Scan.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("scan.min_confidence must be in [0, 1]"))
	}
	if err := core.ValidateTemplate(cfg.Plan.MovieTemplate, provider.MediaTypeMovie); err != nil {
		errs = append(errs, fmt.Errorf("plan.movie_template: %w", err))
	}
	if err := core.ValidateTemplate(cfg.Plan.EpisodeTemplate, provider.MediaTypeEpisode); err != nil {
		errs = append(errs, fmt.Errorf("plan.episode_template: %w", err))
	}
	if cfg.Logging.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("logging.retention_days must not be negative"))
	}

	return errors.Join(errs...)
}

// LocalOptions converts the heuristic settings into engine options.
func (cfg *Config) LocalOptions() local.Options {
	return local.Options{
		ShortStemThreshold: cfg.Heuristics.ShortStemThreshold,
		MaxContextDepth:    cfg.Heuristics.MaxContextDepth,
		UnknownPenalty:     cfg.Heuristics.UnknownPenalty,
		YearTitleOverrides: cfg.Heuristics.YearTitleOverrides,
	}
}

// InferenceProviderConfig returns the map accepted by the inference
// provider's Configure.
func (cfg *Config) InferenceProviderConfig() map[string]interface{} {
	return map[string]interface{}{
		"backend":    cfg.Inference.Backend,
		"base_url":   cfg.Inference.BaseURL,
		"model":      cfg.Inference.Model,
		"api_key":    cfg.Inference.APIKey,
		"timeout":    time.Duration(cfg.Inference.Timeout),
		"rate_limit": cfg.Inference.RateLimit,
	}
}

// CacheFile returns the configured cache file or the default location.
func (cfg *Config) CacheFile() (string, error) {
	if cfg.Cache.File != "" {
		return cfg.Cache.File, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache", "results.gob"), nil
}

// SaveTo writes the configuration to path, creating parent directories.
func (cfg *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Redacted returns a copy safe to print.
func (cfg *Config) Redacted() *Config {
	clone := *cfg
	if clone.Inference.APIKey != "" {
		clone.Inference.APIKey = "********"
	}
	return &clone
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", v)
	}
}

// parseDuration accepts Go duration strings and plain seconds.
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if seconds, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}
