// Package builtin registers the bundled providers. It lives apart from
// package provider to avoid import cycles.
package builtin

import (
	"fmt"

	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/Digital-Shane/shirarium/internal/provider/inference"
	"github.com/Digital-Shane/shirarium/internal/provider/local"
)

// Provider names as registered.
const (
	LocalName     = "local"
	InferenceName = "inference"
)

// Register adds the local provider, always enabled, and the inference
// provider, disabled until configured.
func Register(r *provider.Registry, opts local.Options) error {
	if err := r.Register(LocalName, local.New(opts), 0); err != nil {
		return fmt.Errorf("failed to register local provider: %w", err)
	}
	if err := r.Enable(LocalName); err != nil {
		return fmt.Errorf("failed to enable local provider: %w", err)
	}

	if err := r.Register(InferenceName, inference.New(), 100); err != nil {
		return fmt.Errorf("failed to register inference provider: %w", err)
	}

	return nil
}

// EnableInference configures and enables the inference provider.
func EnableInference(r *provider.Registry, config map[string]interface{}) error {
	if err := r.Configure(InferenceName, config); err != nil {
		return err
	}
	return r.Enable(InferenceName)
}

// Stack is what a classifier needs from the registry.
type Stack struct {
	Local    *local.Engine
	External provider.Provider
}

// Resolve picks the local engine and the highest priority enabled external
// provider, if any.
func Resolve(r *provider.Registry) (Stack, error) {
	p, ok := r.Get(LocalName)
	if !ok {
		return Stack{}, fmt.Errorf("provider %s not registered", LocalName)
	}
	lp, ok := p.(*local.Provider)
	if !ok {
		return Stack{}, fmt.Errorf("provider %s has unexpected type %T", LocalName, p)
	}

	stack := Stack{Local: lp.Engine()}
	for _, enabled := range r.Enabled() {
		if enabled.Name() != LocalName {
			stack.External = enabled
			break
		}
	}
	return stack, nil
}
