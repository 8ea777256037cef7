// ABOUTME: Image provider registry with lazy singleton instantiation
// ABOUTME: Unknown names fail; the default provider comes from configuration

package providers

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/canvasai/mixboard/backend/config"
)

// ImageFactory builds an image adapter from its provider configuration.
type ImageFactory func(cfg config.ProviderConfig) ImageProvider

// Registry hands out image adapters by name, caching one instance per name
// for the process lifetime.
type Registry struct {
	mu        sync.Mutex
	cfg       *config.Config
	factories map[string]ImageFactory
	instances map[string]ImageProvider
}

// NewRegistry registers the built-in image adapters. qwen is configuration-only
// for now: requesting it reports an unknown provider.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{
		cfg:       cfg,
		factories: make(map[string]ImageFactory),
		instances: make(map[string]ImageProvider),
	}
	r.Register("openai", func(pc config.ProviderConfig) ImageProvider { return NewOpenAIProvider(pc) })
	r.Register("doubao", func(pc config.ProviderConfig) ImageProvider { return NewDoubaoProvider(pc) })
	r.Register("custom", func(pc config.ProviderConfig) ImageProvider { return NewCustomProvider(pc) })
	return r
}

// Register adds a named factory. Extension point for new adapters.
func (r *Registry) Register(name string, factory ImageFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns the adapter for name, instantiating it on first use.
// An empty name selects the configured default provider.
func (r *Registry) Get(name string) (ImageProvider, error) {
	if name == "" {
		name = r.cfg.DefaultImageProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.instances[name]; ok {
		return p, nil
	}

	factory, ok := r.factories[name]
	if !ok {
		return nil, &UnknownProviderError{Name: name, Available: r.registeredLocked()}
	}

	pc, _ := r.cfg.Provider(name)
	p := factory(pc)
	r.instances[name] = p
	slog.Info("Image provider loaded", "provider", p.Name())
	return p, nil
}

// Available lists registered providers that also have a usable configuration.
func (r *Registry) Available() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for name := range r.factories {
		if pc, ok := r.cfg.Provider(name); ok && config.ProviderConfigured(pc, r.cfg.Development()) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Reset drops cached instances. Test-only.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[string]ImageProvider)
}

func (r *Registry) registeredLocked() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
