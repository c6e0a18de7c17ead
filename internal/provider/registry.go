package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages all available providers
type Registry struct {
	mu            sync.RWMutex
	providers     map[string]Provider
	priorities    map[string]int
	enabledStatus map[string]bool
	configs       map[string]map[string]interface{}
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers:     make(map[string]Provider),
		priorities:    make(map[string]int),
		enabledStatus: make(map[string]bool),
		configs:       make(map[string]map[string]interface{}),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(name string, provider Provider, priority int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	if err := ValidateCapabilities(provider.Capabilities()); err != nil {
		return fmt.Errorf("invalid provider capabilities for %s: %w", name, err)
	}

	r.providers[name] = provider
	r.priorities[name] = priority
	r.enabledStatus[name] = false // Disabled by default

	return nil
}

// Get returns a provider by name
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	return provider, exists
}

// List returns all registered providers ordered by priority
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	r.sortByPriority(names)

	return names
}

// Enable enables a provider
func (r *Registry) Enable(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	provider, exists := r.providers[name]
	if !exists {
		return fmt.Errorf("provider %s not found", name)
	}

	if provider.Capabilities().RequiresConfig {
		if config, hasConfig := r.configs[name]; !hasConfig || len(config) == 0 {
			return fmt.Errorf("provider %s requires configuration", name)
		}
	}

	r.enabledStatus[name] = true
	return nil
}

// Disable disables a provider
func (r *Registry) Disable(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return fmt.Errorf("provider %s not found", name)
	}
	r.enabledStatus[name] = false
	return nil
}

// IsEnabled reports whether a provider is registered and enabled
func (r *Registry) IsEnabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabledStatus[name]
}

// Configure sets configuration for a provider
func (r *Registry) Configure(name string, config map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	provider, exists := r.providers[name]
	if !exists {
		return fmt.Errorf("provider %s not found", name)
	}

	if err := provider.Configure(config); err != nil {
		return fmt.Errorf("failed to configure provider %s: %w", name, err)
	}

	r.configs[name] = config

	return nil
}

// Enabled returns the enabled providers, highest priority first
func (r *Registry) Enabled() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name, enabled := range r.enabledStatus {
		if enabled {
			names = append(names, name)
		}
	}
	r.sortByPriority(names)

	out := make([]Provider, 0, len(names))
	for _, name := range names {
		out = append(out, r.providers[name])
	}
	return out
}

// sortByPriority orders names by descending priority, then by name so the
// order is stable. Callers hold the lock.
func (r *Registry) sortByPriority(names []string) {
	sort.Slice(names, func(i, j int) bool {
		pi, pj := r.priorities[names[i]], r.priorities[names[j]]
		if pi != pj {
			return pi > pj
		}
		return names[i] < names[j]
	})
}

// Info summarizes a registered provider for display.
type Info struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Priority        int         `json:"priority"`
	Enabled         bool        `json:"enabled"`
	RequiresNetwork bool        `json:"requires_network"`
	Fields          []FieldInfo `json:"fields,omitempty"`
}

// FieldInfo is one configuration field with its current value. Sensitive
// values are masked.
type FieldInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Value       interface{} `json:"value,omitempty"`
	Description string      `json:"description"`
}

// Describe returns every registered provider ordered by priority.
func (r *Registry) Describe() []Info {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(names))
	for _, name := range names {
		p := r.providers[name]
		info := Info{
			Name:            name,
			Description:     p.Description(),
			Priority:        r.priorities[name],
			Enabled:         r.enabledStatus[name],
			RequiresNetwork: p.Capabilities().RequiresNetwork,
		}
		config := r.configs[name]
		for _, field := range p.ConfigSchema().Fields {
			fi := FieldInfo{
				Name:        field.Name,
				Type:        string(field.Type),
				Required:    field.Required,
				Default:     field.Default,
				Description: field.Description,
			}
			if v, ok := config[field.Name]; ok && !isBlank(v) {
				fi.Value = v
				if s, ok := v.(fmt.Stringer); ok {
					fi.Value = s.String()
				}
				if field.Sensitive {
					fi.Value = "********"
				}
			}
			info.Fields = append(info.Fields, fi)
		}
		infos = append(infos, info)
	}
	return infos
}

func isBlank(v interface{}) bool {
	s, ok := v.(string)
	return v == nil || (ok && s == "")
}
