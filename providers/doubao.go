// ABOUTME: Doubao (VolcEngine Ark) image provider
// ABOUTME: Maps aspect ratios to seedream sizes; edit falls back to text-to-image

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/canvasai/mixboard/backend/config"
)

// doubaoSizes maps the API's aspect ratios onto sizes the seedream models accept.
var doubaoSizes = map[string]string{
	"1:1":  "1024x1024",
	"16:9": "1920x1080",
	"9:16": "1080x1920",
	"4:3":  "1024x768",
	"3:4":  "768x1024",
}

// DoubaoProvider generates and edits images through the VolcEngine Ark API.
// Upscaling is not offered, so the Upscaler interface is deliberately absent.
type DoubaoProvider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewDoubaoProvider(cfg config.ProviderConfig) *DoubaoProvider {
	return &DoubaoProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (p *DoubaoProvider) Name() string { return "doubao" }

func (p *DoubaoProvider) post(ctx context.Context, path string, payload map[string]interface{}) (*http.Response, error) {
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
	return resp, nil
}

// decodeImage extracts the first image from an Ark response, downloading it
// when only a URL is returned.
func (p *DoubaoProvider) decodeImage(ctx context.Context, raw []byte) (string, error) {
	if b64 := gjson.GetBytes(raw, "data.0.b64_json"); b64.Exists() && b64.String() != "" {
		return toDataURL(b64.String()), nil
	}
	if url := gjson.GetBytes(raw, "data.0.url"); url.Exists() && url.String() != "" {
		slog.Debug("Doubao returned a URL, downloading", "provider", p.Name())
		return fetchAsDataURL(ctx, p.client, url.String())
	}
	return "", &UpstreamError{Provider: p.Name(), Message: "豆包未返回图片数据"}
}

// upstreamMessage pulls error.message out of an Ark error body, falling back
// to the HTTP status text.
func upstreamMessage(raw []byte, resp *http.Response) string {
	if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return resp.Status
}

func (p *DoubaoProvider) GenerateImage(ctx context.Context, params GenerateParams) (string, error) {
	model := params.Model
	if model == "" {
		model = p.cfg.ImageModel
	}
	if model == "" {
		return "", &UpstreamError{Provider: p.Name(), Message: "未配置豆包图像模型，请在 .env 中设置 DOUBAO_IMAGE_MODEL"}
	}

	size, ok := doubaoSizes[params.AspectRatio]
	if !ok {
		size = doubaoSizes["1:1"]
	}

	slog.Debug("Doubao generate", "model", model, "size", size)

	resp, err := p.post(ctx, "/images/generations", map[string]interface{}{
		"model":           model,
		"prompt":          params.Prompt,
		"size":            size,
		"response_format": "b64_json",
		"n":               1,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{Provider: p.Name(), Status: resp.StatusCode, Message: upstreamMessage(raw, resp)}
	}

	return p.decodeImage(ctx, raw)
}

func (p *DoubaoProvider) EditImage(ctx context.Context, params EditParams) (string, error) {
	model := params.Model
	if model == "" {
		model = p.cfg.ImageModel
	}
	if model == "" {
		return "", &UpstreamError{Provider: p.Name(), Message: "未配置豆包图像模型"}
	}

	slog.Debug("Doubao edit", "model", model)

	resp, err := p.post(ctx, "/images/edits", map[string]interface{}{
		"model":           model,
		"image":           stripDataURL(params.Image),
		"prompt":          params.Prompt,
		"response_format": "b64_json",
		"n":               1,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The seedream edit endpoint is not available for every model.
		// Regenerate from the prompt instead.
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
			slog.Info("Doubao edit endpoint unavailable, regenerating from prompt", "status", resp.StatusCode)
			return p.GenerateImage(ctx, GenerateParams{Prompt: params.Prompt, Model: model})
		}
		return "", &UpstreamError{Provider: p.Name(), Status: resp.StatusCode, Message: upstreamMessage(raw, resp)}
	}

	return p.decodeImage(ctx, raw)
}
