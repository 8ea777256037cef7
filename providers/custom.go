// ABOUTME: Generic bearer-auth image provider for self-hosted or gateway APIs
// ABOUTME: Posts JSON to /generate, /edit, and /upscale under the configured base URL

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/canvasai/mixboard/backend/config"
)

// CustomProvider talks to a generic HTTP image API. The response may carry
// the image under "image" or "data.image", as raw base64 or a data URL.
type CustomProvider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewCustomProvider(cfg config.ProviderConfig) *CustomProvider {
	return &CustomProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (p *CustomProvider) Name() string { return "custom" }

func (p *CustomProvider) callAPI(ctx context.Context, endpoint string, payload map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := config.TrimBase(p.cfg.BaseURL) + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: p.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Provider: p.Name(), Status: resp.StatusCode, Message: string(raw)}
	}

	return raw, nil
}

// extractImage pulls the image payload out of a response body, trying the
// shapes this API family is known to produce.
func (p *CustomProvider) extractImage(raw []byte) (string, error) {
	for _, path := range []string{"image", "data.image"} {
		if v := gjson.GetBytes(raw, path); v.Exists() && v.String() != "" {
			return toDataURL(v.String()), nil
		}
	}
	return "", &UpstreamError{Provider: p.Name(), Message: "API 未返回图片数据"}
}

func (p *CustomProvider) GenerateImage(ctx context.Context, params GenerateParams) (string, error) {
	model := params.Model
	if model == "" {
		model = p.cfg.ImageModel
	}
	aspectRatio := params.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}

	raw, err := p.callAPI(ctx, "/generate", map[string]interface{}{
		"prompt":       params.Prompt,
		"model":        model,
		"aspect_ratio": aspectRatio,
	})
	if err != nil {
		return "", err
	}
	return p.extractImage(raw)
}

func (p *CustomProvider) EditImage(ctx context.Context, params EditParams) (string, error) {
	model := params.Model
	if model == "" {
		model = p.cfg.ImageModel
	}

	raw, err := p.callAPI(ctx, "/edit", map[string]interface{}{
		"image":  stripDataURL(params.Image),
		"prompt": params.Prompt,
		"model":  model,
	})
	if err != nil {
		return "", err
	}
	return p.extractImage(raw)
}

func (p *CustomProvider) UpscaleImage(ctx context.Context, params UpscaleParams) (string, error) {
	resolution := params.Resolution
	if resolution == "" {
		resolution = "4K"
	}

	raw, err := p.callAPI(ctx, "/upscale", map[string]interface{}{
		"image":      stripDataURL(params.Image),
		"resolution": resolution,
	})
	if err != nil {
		return "", err
	}
	return p.extractImage(raw)
}
