package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ProviderFactory creates a new provider instance. Puede hacer I/O (discovery OIDC).
type ProviderFactory func(ctx context.Context, cfg ProviderConfig) (Provider, error)

// Registry manages provider factories and instances.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory // key: type
	configs   map[string]ProviderConfig  // key: provider name
	cache     map[string]Provider        // key: provider name
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
		configs:   make(map[string]ProviderConfig),
		cache:     make(map[string]Provider),
	}
}

// RegisterFactory registers a factory for a provider type.
func (r *Registry) RegisterFactory(typ string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typ] = factory
}

// Configure declara un provider por nombre. Invalida la instancia cacheada.
func (r *Registry) Configure(cfg ProviderConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.Name] = cfg
	delete(r.cache, cfg.Name)
}

// Get returns the provider instance for name, creating it on first use.
// Un fallo de creación no se cachea: el próximo login reintenta.
func (r *Registry) Get(ctx context.Context, name string) (Provider, error) {
	r.mu.RLock()
	if p, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if p, ok := r.cache[name]; ok {
		return p, nil
	}

	cfg, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, name)
	}
	factory, ok := r.factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("provider type not registered: %s", cfg.Type)
	}

	provider, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %s: %w", name, err)
	}

	r.cache[name] = provider
	return provider, nil
}

// Has reports whether name is configured.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.configs[name]
	return ok
}

// Names returns the configured provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
