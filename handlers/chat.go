// ABOUTME: Chat completion endpoint with SSE streaming relay
// ABOUTME: Prepends the system prompt and relays provider chunks as data: frames

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/canvasai/mixboard/backend/middleware"
	"github.com/canvasai/mixboard/backend/models"
	"github.com/canvasai/mixboard/backend/providers"
	"github.com/canvasai/mixboard/backend/services"
)

const systemPromptBase = `你是 CanvasAI Studio 的智能助手，专注于剧本和脚本编写。

你的主要职责：
1. 帮助用户创作剧本、脚本、故事大纲
2. 提供场景描述、对白建议、人物设定
3. 解答用户关于创作的问题
4. 提供视觉创意建议

回答风格：
- 专业但友好
- 简洁明了
- 提供实际可用的内容
- 适时使用格式化（标题、列表、分段）提高可读性
- 使用 Markdown 格式
`

const systemPromptWebSearch = "\n联网搜索已启用，你可以引用最新的信息来辅助创作。"

func buildSystemPrompt(webSearchEnabled bool) string {
	if webSearchEnabled {
		return systemPromptBase + systemPromptWebSearch
	}
	return systemPromptBase
}

// Chat handles POST /api/chat. Stream defaults to true; stream=false returns
// a single JSON envelope instead of an event stream.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) error {
	var req models.ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	if msg := services.ValidateChat(&req); msg != "" {
		return middleware.BadRequestCode(msg, "VALIDATION_ERROR")
	}

	provider := h.chats.Get(req.Provider)

	fullMessages := make([]models.ChatMessageInput, 0, len(req.Messages)+1)
	fullMessages = append(fullMessages, models.ChatMessageInput{
		Role:    "system",
		Content: buildSystemPrompt(req.WebSearchEnabled),
	})
	fullMessages = append(fullMessages, req.Messages...)

	creq := providers.ChatRequest{
		Messages:         fullMessages,
		WebSearchEnabled: req.WebSearchEnabled,
	}

	if req.Stream != nil && !*req.Stream {
		resp, err := provider.Chat(r.Context(), creq)
		if err != nil {
			return err
		}
		h.writeData(w, map[string]interface{}{
			"message": resp.Message,
			"usage":   resp.Usage,
		})
		return nil
	}

	return h.streamChat(w, r, provider, creq)
}

// streamChat relays provider chunks as SSE frames. Once headers go out,
// failures become a final data:{error} frame; already-sent output is not
// retracted.
func (h *Handler) streamChat(w http.ResponseWriter, r *http.Request, provider providers.ChatProvider, creq providers.ChatRequest) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return middleware.Internal("流式响应不可用", nil)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := provider.ChatStream(r.Context(), creq, func(chunk string) error {
		frame, err := json.Marshal(map[string]string{"content": chunk})
		if err != nil {
			return err
		}
		// A failed write means the client went away; the context cancels
		// the provider call on the next chunk.
		fmt.Fprintf(w, "data: %s\n\n", frame)
		flusher.Flush()
		return nil
	})
	if err != nil {
		slog.Error("Chat stream failed", "provider", provider.Name(), "error", middleware.Redact(err.Error()))
		frame, _ := json.Marshal(map[string]string{"error": middleware.Redact(err.Error())})
		fmt.Fprintf(w, "data: %s\n\n", frame)
		flusher.Flush()
		return nil
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
	return nil
}
