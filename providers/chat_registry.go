// ABOUTME: Chat provider registry with mock fallback
// ABOUTME: Invalid or missing configuration degrades to the mock, never errors

package providers

import (
	"log/slog"
	"sync"

	"github.com/canvasai/mixboard/backend/config"
)

// ChatFactory builds a chat adapter from its provider configuration.
type ChatFactory func(cfg config.ProviderConfig) ChatProvider

// ChatRegistry hands out chat adapters by name. Unlike the image registry it
// never fails: a name with no factory, a placeholder API key, or an unsafe
// base URL all degrade to the mock adapter so the app stays demoable.
type ChatRegistry struct {
	mu        sync.Mutex
	cfg       *config.Config
	factories map[string]ChatFactory
	instances map[string]ChatProvider
}

func NewChatRegistry(cfg *config.Config) *ChatRegistry {
	r := &ChatRegistry{
		cfg:       cfg,
		factories: make(map[string]ChatFactory),
		instances: make(map[string]ChatProvider),
	}
	r.Register("mock", func(config.ProviderConfig) ChatProvider { return NewMockChatProvider() })
	r.Register("openai", func(pc config.ProviderConfig) ChatProvider { return NewOpenAIChatProvider("openai", pc) })
	r.Register("custom", func(pc config.ProviderConfig) ChatProvider { return NewOpenAIChatProvider("custom", pc) })
	r.Register("anthropic", func(pc config.ProviderConfig) ChatProvider { return NewAnthropicChatProvider(pc) })
	return r
}

// Register adds a named factory. Extension point for new adapters.
func (r *ChatRegistry) Register(name string, factory ChatFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns the adapter for name, instantiating it on first use. An empty
// name selects the configured default chat provider.
func (r *ChatRegistry) Get(name string) ChatProvider {
	if name == "" {
		name = r.cfg.DefaultChatProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.instances[name]; ok {
		return p
	}

	resolved := r.resolveLocked(name)
	factory := r.factories[resolved]
	p := factory(r.providerConfigLocked(resolved))
	// Cache under the requested name so the degradation decision sticks
	// for the process lifetime.
	r.instances[name] = p
	slog.Info("Chat provider loaded", "requested", name, "provider", p.Name())
	return p
}

// resolveLocked picks the factory actually used for a requested name.
func (r *ChatRegistry) resolveLocked(name string) string {
	if name == "mock" {
		return "mock"
	}
	if _, ok := r.factories[name]; !ok {
		return "mock"
	}
	pc, ok := r.cfg.Provider(name)
	if !ok || !config.ProviderConfigured(pc, r.cfg.Development()) {
		slog.Warn("Chat provider not configured, falling back to mock", "requested", name)
		return "mock"
	}
	return name
}

func (r *ChatRegistry) providerConfigLocked(name string) config.ProviderConfig {
	pc, _ := r.cfg.Provider(name)
	return pc
}

// Reset drops cached instances. Test-only.
func (r *ChatRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[string]ChatProvider)
}
