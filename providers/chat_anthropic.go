// ABOUTME: Anthropic Messages API chat adapter using the official SDK
// ABOUTME: System messages map to the system param; streaming uses SDK text deltas

package providers

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/canvasai/mixboard/backend/config"
	"github.com/canvasai/mixboard/backend/models"
)

const anthropicMaxTokens = 4096

// AnthropicChatProvider talks to the Anthropic Messages API.
type AnthropicChatProvider struct {
	cfg    config.ProviderConfig
	client anthropic.Client
}

func NewAnthropicChatProvider(cfg config.ProviderConfig) *AnthropicChatProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicChatProvider{
		cfg:    cfg,
		client: anthropic.NewClient(opts...),
	}
}

func (p *AnthropicChatProvider) Name() string { return "anthropic" }

// buildParams converts the uniform conversation into Messages API params.
// System turns become the system prompt; text attachments fold into content.
func (p *AnthropicChatProvider) buildParams(req ChatRequest) anthropic.MessageNewParams {
	var system []string
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))

	for _, m := range req.Messages {
		content := m.Content
		for _, att := range m.Attachments {
			if att.Type == "text" {
				content += "\n" + att.Content
			}
		}

		switch m.Role {
		case "system":
			system = append(system, content)
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.cfg.ChatModel),
		MaxTokens: anthropicMaxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	return params
}

func (p *AnthropicChatProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	msg, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, &UpstreamError{Provider: p.Name(), Message: err.Error()}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &ChatResponse{
		Message: sb.String(),
		Usage: &models.ChatUsage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

func (p *AnthropicChatProvider) ChatStream(ctx context.Context, req ChatRequest, fn func(chunk string) error) error {
	stream := p.client.Messages.NewStreaming(ctx, p.buildParams(req))

	for stream.Next() {
		event := stream.Current()
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if deltaVariant.Text != "" {
					if err := fn(deltaVariant.Text); err != nil {
						return err
					}
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return &UpstreamError{Provider: p.Name(), Message: err.Error()}
	}
	return nil
}
