// ABOUTME: API key and base URL validation for provider configurations
// ABOUTME: Rejects placeholder keys and SSRF-prone URLs, masks keys for logs

package config

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
)

// Placeholder values commonly left in .env templates. A key matching any of
// these is treated as unconfigured.
var placeholderKeys = map[string]struct{}{
	"your_api_key_here": {},
	"your_api_key":      {},
	"your-api-key":      {},
	"sk-xxx":            {},
	"xxx":               {},
	"your-key":          {},
	"your-key-here":     {},
	"placeholder":       {},
	"test":              {},
	"":                  {},
}

// Hostnames that are placeholders rather than real API endpoints.
var placeholderHosts = map[string]struct{}{
	"example.com":     {},
	"www.example.com": {},
	"api.example.com": {},
}

// IsValidAPIKey reports whether key looks like a real credential
// rather than a template placeholder.
func IsValidAPIKey(key string) bool {
	_, placeholder := placeholderKeys[strings.ToLower(strings.TrimSpace(key))]
	return !placeholder
}

// MaskAPIKey renders a key safe for logging: first and last four
// characters with the middle elided.
func MaskAPIKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:4] + "***" + key[len(key)-4:]
}

// IsValidAPIURL reports whether rawURL is a plausible upstream endpoint.
// Loopback, unspecified, and private addresses are blocked to prevent the
// server being steered into internal networks; development mode permits
// loopback so local model servers work.
func IsValidAPIURL(rawURL string, development bool) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}
	if _, placeholder := placeholderHosts[host]; placeholder {
		return false
	}
	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return false
	}

	if host == "localhost" {
		return development
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() {
			return development
		}
		if ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return false
		}
	}

	return true
}

// ProviderConfigured reports whether a provider has both a usable key and a safe URL.
func ProviderConfigured(p ProviderConfig, development bool) bool {
	return IsValidAPIKey(p.APIKey) && IsValidAPIURL(p.BaseURL, development)
}

// ValidateAll checks every provider configuration. It returns the names that
// are fully configured (sorted for stable startup logs) and human-readable
// warnings for the ones that are partially configured.
func ValidateAll(providers map[string]ProviderConfig, development bool) (configured []string, warnings []string) {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := providers[name]
		if p.APIKey == "" {
			// Unconfigured provider, not an error.
			continue
		}
		if !IsValidAPIKey(p.APIKey) {
			warnings = append(warnings, fmt.Sprintf("[%s] API key is a placeholder, replace it with a real key", name))
			continue
		}
		if !IsValidAPIURL(p.BaseURL, development) {
			warnings = append(warnings, fmt.Sprintf("[%s] invalid API base URL: %s", name, p.BaseURL))
			continue
		}
		configured = append(configured, name)
	}
	return configured, warnings
}
