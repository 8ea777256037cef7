// ABOUTME: Configuration loader for the Mixboard backend service
// ABOUTME: Loads provider, auth, and server settings from environment variables

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ProviderConfig holds the upstream settings for one named AI provider.
// Created at process start from environment; immutable thereafter.
type ProviderConfig struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	ChatModel  string
}

type Config struct {
	// Server
	Port       string
	CORSOrigin string
	Env        string // development or production

	// AI providers, keyed by name (openai, doubao, qwen, anthropic, custom)
	Providers            map[string]ProviderConfig
	DefaultImageProvider string
	DefaultChatProvider  string

	// Rate limiting
	RateLimitEnabled bool
	RateLimitAI      int // requests per minute for /api/ai and /api/chat
	RateLimitAuth    int // requests per minute for /api/auth endpoints
	RateLimitDefault int // requests per minute for everything else

	// WeChat QR login
	WeChatAppID       string
	WeChatAppSecret   string
	WeChatRedirectURI string

	// Configured for forward compatibility; no token is issued or verified.
	JWTSecret string
}

// Development reports whether the service runs in development mode.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Provider returns the configuration for a named provider.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	p, ok := c.Providers[name]
	return p, ok
}

func Load() (*Config, error) {
	// Best-effort .env load; missing file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		Port:       getEnv("PORT", "3001"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),
		Env:        getEnv("APP_ENV", "development"),

		Providers: map[string]ProviderConfig{
			"openai": {
				APIKey:     os.Getenv("OPENAI_API_KEY"),
				BaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				ImageModel: getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
				ChatModel:  getEnv("OPENAI_CHAT_MODEL", "gpt-4o"),
			},
			"doubao": {
				APIKey:     os.Getenv("DOUBAO_API_KEY"),
				BaseURL:    getEnv("DOUBAO_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
				ImageModel: os.Getenv("DOUBAO_IMAGE_MODEL"),
				ChatModel:  os.Getenv("DOUBAO_CHAT_MODEL"),
			},
			"qwen": {
				APIKey:     os.Getenv("QWEN_API_KEY"),
				BaseURL:    getEnv("QWEN_BASE_URL", "https://dashscope.aliyuncs.com/api/v1"),
				ImageModel: os.Getenv("QWEN_IMAGE_MODEL"),
				ChatModel:  os.Getenv("QWEN_CHAT_MODEL"),
			},
			"anthropic": {
				APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
				BaseURL:   getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
				ChatModel: getEnv("ANTHROPIC_CHAT_MODEL", "claude-sonnet-4-20250514"),
			},
			// Generic provider, configured through the legacy AI_* variables.
			"custom": {
				APIKey:     os.Getenv("AI_API_KEY"),
				BaseURL:    os.Getenv("AI_API_BASE_URL"),
				ImageModel: getEnv("AI_DEFAULT_MODEL", "default"),
				ChatModel:  getEnv("AI_DEFAULT_MODEL", "default"),
			},
		},
		DefaultImageProvider: getEnv("DEFAULT_IMAGE_PROVIDER", "openai"),
		DefaultChatProvider:  getEnv("DEFAULT_CHAT_PROVIDER", "openai"),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitAI:      getEnvInt("RATE_LIMIT_AI", 30),
		RateLimitAuth:    getEnvInt("RATE_LIMIT_AUTH", 20),
		RateLimitDefault: getEnvInt("RATE_LIMIT_DEFAULT", 100),

		WeChatAppID:       os.Getenv("WECHAT_APP_ID"),
		WeChatAppSecret:   os.Getenv("WECHAT_APP_SECRET"),
		WeChatRedirectURI: getEnv("WECHAT_REDIRECT_URI", "http://localhost:3001/api/auth/wechat/callback"),

		JWTSecret: getEnv("JWT_SECRET", "your-jwt-secret-change-in-production"),
	}

	if cfg.Env != "development" && cfg.Env != "production" {
		return nil, fmt.Errorf("APP_ENV must be development or production, got %q", cfg.Env)
	}

	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_AI", cfg.RateLimitAI},
		{"RATE_LIMIT_AUTH", cfg.RateLimitAuth},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// TrimBase removes a trailing slash so adapters can append paths uniformly.
func TrimBase(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}
