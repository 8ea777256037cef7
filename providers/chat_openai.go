// ABOUTME: OpenAI-compatible chat completion adapter (openai, custom gateways)
// ABOUTME: Non-streamed JSON and SSE delta streaming against /chat/completions

package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/canvasai/mixboard/backend/config"
	"github.com/canvasai/mixboard/backend/models"
)

// sseMaxLineBytes bounds one SSE line; delta frames are tiny but some
// gateways batch aggressively.
const sseMaxLineBytes = 1 << 20

// OpenAIChatProvider implements ChatProvider against any endpoint speaking
// the OpenAI chat completions wire format. It backs both the "openai" and
// "custom" chat registrations, differing only in name and configuration.
type OpenAIChatProvider struct {
	name   string
	cfg    config.ProviderConfig
	client *http.Client
}

func NewOpenAIChatProvider(name string, cfg config.ProviderConfig) *OpenAIChatProvider {
	return &OpenAIChatProvider{
		name: name,
		cfg:  cfg,
		client: &http.Client{
			Timeout: 300 * time.Second, // streams stay open for the whole reply
		},
	}
}

func (p *OpenAIChatProvider) Name() string { return p.name }

func (p *OpenAIChatProvider) buildRequest(ctx context.Context, req ChatRequest, stream bool) (*http.Request, error) {
	messages := make([]map[string]string, 0, len(req.Messages))
	for _, m := range req.Messages {
		content := m.Content
		// Inline attachments are appended as plain text; the OpenAI image
		// content-part format is not universal across gateways.
		for _, att := range m.Attachments {
			if att.Type == "text" {
				content += "\n" + att.Content
			}
		}
		messages = append(messages, map[string]string{"role": m.Role, "content": content})
	}

	body, err := json.Marshal(map[string]interface{}{
		"model":    p.cfg.ChatModel,
		"messages": messages,
		"stream":   stream,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		config.TrimBase(p.cfg.BaseURL)+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	return httpReq, nil
}

func (p *OpenAIChatProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	httpReq, err := p.buildRequest(ctx, req, false)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Provider: p.name, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Provider: p.name, Status: resp.StatusCode, Message: upstreamMessage(raw, resp)}
	}

	message := gjson.GetBytes(raw, "choices.0.message.content").String()
	if message == "" {
		return nil, &UpstreamError{Provider: p.name, Message: "API 未返回消息内容"}
	}

	out := &ChatResponse{Message: message}
	if usage := gjson.GetBytes(raw, "usage"); usage.Exists() {
		out.Usage = &models.ChatUsage{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
		}
	}
	return out, nil
}

func (p *OpenAIChatProvider) ChatStream(ctx context.Context, req ChatRequest, fn func(chunk string) error) error {
	httpReq, err := p.buildRequest(ctx, req, true)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return &UpstreamError{Provider: p.name, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &UpstreamError{Provider: p.name, Status: resp.StatusCode, Message: upstreamMessage(raw, resp)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), sseMaxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return nil
		}

		if errMsg := gjson.Get(payload, "error.message"); errMsg.Exists() {
			return &UpstreamError{Provider: p.name, Message: errMsg.String()}
		}
		if delta := gjson.Get(payload, "choices.0.delta.content"); delta.Exists() && delta.String() != "" {
			if err := fn(delta.String()); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return &UpstreamError{Provider: p.name, Message: err.Error()}
	}
	return nil
}
