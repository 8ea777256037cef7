// ABOUTME: Tests for the image and chat provider registries
// ABOUTME: Covers defaults, unknown names, and the chat mock fallback

package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasai/mixboard/backend/config"
)

func registryConfig() *config.Config {
	return &config.Config{
		Env: "development",
		Providers: map[string]config.ProviderConfig{
			"openai": {APIKey: "sk-real-key-123", BaseURL: "https://api.openai.com/v1", ImageModel: "dall-e-3", ChatModel: "gpt-4o"},
			"doubao": {APIKey: "your_api_key_here", BaseURL: "https://ark.cn-beijing.volces.com/api/v3"},
			"custom": {},
		},
		DefaultImageProvider: "openai",
		DefaultChatProvider:  "openai",
	}
}

func TestRegistry_EmptyNameSelectsDefault(t *testing.T) {
	r := NewRegistry(registryConfig())

	p, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry(registryConfig())

	_, err := r.Get("qwen")
	require.Error(t, err)

	var unknown *UnknownProviderError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "qwen", unknown.Name)
	assert.Equal(t, []string{"custom", "doubao", "openai"}, unknown.Available)
	assert.Contains(t, err.Error(), "未知的 AI 提供商")
}

func TestRegistry_CachesInstances(t *testing.T) {
	r := NewRegistry(registryConfig())

	first, err := r.Get("openai")
	require.NoError(t, err)
	second, err := r.Get("openai")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestRegistry_AvailableFiltersUnconfigured(t *testing.T) {
	r := NewRegistry(registryConfig())

	// doubao has a placeholder key and custom is empty, leaving openai.
	assert.Equal(t, []string{"openai"}, r.Available())
}

func TestChatRegistry_FallsBackToMockForUnknownName(t *testing.T) {
	r := NewChatRegistry(registryConfig())

	p := r.Get("no-such-provider")
	assert.Equal(t, "mock-chat", p.Name())
}

func TestChatRegistry_FallsBackToMockForUnconfigured(t *testing.T) {
	r := NewChatRegistry(registryConfig())

	// doubao is registered in config but has a placeholder key. It also has
	// no chat factory, so either path lands on the mock.
	p := r.Get("doubao")
	assert.Equal(t, "mock-chat", p.Name())

	p = r.Get("custom")
	assert.Equal(t, "mock-chat", p.Name())
}

func TestChatRegistry_ConfiguredProviderIsUsed(t *testing.T) {
	r := NewChatRegistry(registryConfig())

	p := r.Get("openai")
	assert.Equal(t, "openai", p.Name())
}

func TestChatRegistry_DegradationDecisionSticks(t *testing.T) {
	r := NewChatRegistry(registryConfig())

	first := r.Get("custom")
	second := r.Get("custom")
	assert.Same(t, first, second)
}
