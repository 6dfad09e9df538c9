package provider

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Factory builds a Provider instance from its stored configuration.
type Factory func(cfg Config) (Provider, error)

// Registry is a type-string-keyed provider factory. It is constructed
// explicitly at process start and passed to the components that need it;
// there is no package-level registry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry creates a registry pre-loaded with the built-in manual and
// api variants.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		logger:    slog.Default(),
	}
	// Built-ins can't collide in a fresh map.
	_ = r.Register(TypeManual, func(cfg Config) (Provider, error) { return NewManual(cfg), nil })
	_ = r.Register(TypeAPI, func(cfg Config) (Provider, error) { return NewAPI(cfg) })
	return r
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a factory for the given provider type. Duplicate
// registrations are rejected.
func (r *Registry) Register(typeName string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[typeName]; exists {
		return fmt.Errorf("provider: duplicate registration: %s", typeName)
	}
	r.factories[typeName] = factory

	r.logger.Debug("provider type registered", "type", typeName)
	return nil
}

// New instantiates a provider from its configuration. An unregistered
// type fails fast with an explicit error rather than returning a nil
// provider.
func (r *Registry) New(cfg Config) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, cfg.Type)
	}
	return factory(cfg)
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
