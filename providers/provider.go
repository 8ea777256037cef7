// ABOUTME: Capability interfaces and shared types for AI provider adapters
// ABOUTME: Image adapters return canonical data-URL strings; upscale is optional

package providers

import (
	"context"
	"fmt"
)

// GenerateParams are the inputs for text-to-image generation.
type GenerateParams struct {
	Prompt      string
	Model       string // empty means the provider's configured default
	AspectRatio string // empty means 1:1
}

// EditParams are the inputs for image editing. Image is base64, with or
// without a data-URL prefix.
type EditParams struct {
	Image  string
	Prompt string
	Model  string
}

// UpscaleParams are the inputs for image upscaling.
type UpscaleParams struct {
	Image      string
	Resolution string // 2K or 4K, empty means 4K
}

// ImageProvider is the uniform contract every image adapter implements.
// Results are always data:image/...;base64, strings regardless of what the
// upstream returns (raw base64, data URL, or a remote URL).
type ImageProvider interface {
	Name() string
	GenerateImage(ctx context.Context, params GenerateParams) (string, error)
	EditImage(ctx context.Context, params EditParams) (string, error)
}

// Upscaler is the optional upscale capability. Callers probe for it with a
// type assertion; adapters without it surface as UNSUPPORTED_OPERATION.
type Upscaler interface {
	UpscaleImage(ctx context.Context, params UpscaleParams) (string, error)
}

// UnknownProviderError reports a provider name with no registered factory.
type UnknownProviderError struct {
	Name      string
	Available []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("未知的 AI 提供商: %s。可用: %v", e.Name, e.Available)
}

// UpstreamError wraps a non-2xx or malformed response from a provider API.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s API 调用失败: %d - %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s API 调用失败: %s", e.Provider, e.Message)
}
