// ABOUTME: OpenAI-compatible image provider (api.openai.com or a gateway)
// ABOUTME: dall-e-3 size table; b64_json preferred, URL results downloaded

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

// dall-e-3 only offers square and the two 1792 sizes, so the 4:3 family
// collapses to square.
var openaiSizes = map[string]string{
	"1:1":  "1024x1024",
	"16:9": "1792x1024",
	"9:16": "1024x1792",
	"4:3":  "1024x1024",
	"3:4":  "1024x1024",
}

// OpenAIProvider speaks the OpenAI images API. Untyped JSON on the way out,
// gjson on the way back in, since gateways vary in which fields they fill.
type OpenAIProvider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewOpenAIProvider(cfg config.ProviderConfig) *OpenAIProvider {
	return &OpenAIProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) post(ctx context.Context, path string, payload map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.TrimBase(p.cfg.BaseURL)+path, bytes.NewReader(body))
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
		return nil, &UpstreamError{Provider: p.Name(), Status: resp.StatusCode, Message: upstreamMessage(raw, resp)}
	}

	return raw, nil
}

func (p *OpenAIProvider) decodeImage(ctx context.Context, raw []byte) (string, error) {
	if b64 := gjson.GetBytes(raw, "data.0.b64_json"); b64.Exists() && b64.String() != "" {
		return toDataURL(b64.String()), nil
	}
	if url := gjson.GetBytes(raw, "data.0.url"); url.Exists() && url.String() != "" {
		return fetchAsDataURL(ctx, p.client, url.String())
	}
	return "", &UpstreamError{Provider: p.Name(), Message: "API 未返回图片数据"}
}

func (p *OpenAIProvider) GenerateImage(ctx context.Context, params GenerateParams) (string, error) {
	model := params.Model
	if model == "" {
		model = p.cfg.ImageModel
	}

	size, ok := openaiSizes[params.AspectRatio]
	if !ok {
		size = openaiSizes["1:1"]
	}

	raw, err := p.post(ctx, "/images/generations", map[string]interface{}{
		"model":           model,
		"prompt":          params.Prompt,
		"size":            size,
		"response_format": "b64_json",
		"n":               1,
	})
	if err != nil {
		return "", err
	}
	return p.decodeImage(ctx, raw)
}

func (p *OpenAIProvider) EditImage(ctx context.Context, params EditParams) (string, error) {
	model := params.Model
	if model == "" {
		model = p.cfg.ImageModel
	}

	raw, err := p.post(ctx, "/images/edits", map[string]interface{}{
		"model":           model,
		"image":           stripDataURL(params.Image),
		"prompt":          params.Prompt,
		"response_format": "b64_json",
		"n":               1,
	})
	if err != nil {
		return "", err
	}
	return p.decodeImage(ctx, raw)
}
