// ABOUTME: Request body validation for API endpoints
// ABOUTME: Collects every violation so a 400 lists all offending fields at once

package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/canvasai/mixboard/backend/models"
)

// Security limits applied before any handler logic runs. Text limits count
// characters, not bytes, so Chinese prompts get the full budget; the image
// cap counts encoded bytes because transfer size is what it guards.
const (
	MaxImageSize     = 15 * 1024 * 1024 // encoded bytes, ~10MB of pixels
	MaxPromptLength  = 2000
	MaxMessageLength = 10000
	MaxMessages      = 50
)

// SupportedProviders is the allow-list accepted in request bodies. qwen is
// accepted here even though no image adapter is registered yet; the registry
// reports it unknown at dispatch time.
var SupportedProviders = []string{"openai", "doubao", "qwen", "custom", "anthropic"}

// SupportedAspectRatios are the ratios every image adapter can map to a size.
var SupportedAspectRatios = []string{"1:1", "16:9", "9:16", "4:3", "3:4"}

var (
	dataURLPattern   = regexp.MustCompile(`^data:image/(png|jpeg|jpg|gif|webp);base64,`)
	rawBase64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+=*$`)
	phonePattern     = regexp.MustCompile(`^1[3-9]\d{9}$`)
	codePattern      = regexp.MustCompile(`^\d{6}$`)
)

// fieldErrors accumulates "field: message" entries.
type fieldErrors []string

func (fe *fieldErrors) add(field, message string) {
	*fe = append(*fe, field+": "+message)
}

// joined renders the collected violations behind the shared prefix, or ""
// when the request is valid.
func (fe fieldErrors) joined() string {
	if len(fe) == 0 {
		return ""
	}
	return "验证失败: " + strings.Join(fe, ", ")
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func validateProvider(fe *fieldErrors, provider string) {
	if provider != "" && !contains(SupportedProviders, provider) {
		fe.add("provider", fmt.Sprintf("不支持的提供商（可用: %s）", strings.Join(SupportedProviders, ", ")))
	}
}

// validateBase64Image accepts a data:image/...;base64, string or a plausible
// raw base64 prefix, capped at MaxImageSize encoded characters.
func validateBase64Image(fe *fieldErrors, field, image string) {
	if image == "" {
		fe.add(field, "图片数据不能为空")
		return
	}
	if len(image) > MaxImageSize {
		fe.add(field, fmt.Sprintf("图片数据过大（最大 %dMB）", MaxImageSize/1024/1024))
		return
	}
	if strings.HasPrefix(image, "data:image/") {
		if !dataURLPattern.MatchString(image) {
			fe.add(field, "无效的图片数据格式")
		}
		return
	}
	// Cheap plausibility check on the prefix only.
	head := image
	if len(head) > 100 {
		head = head[:100]
	}
	if !rawBase64Pattern.MatchString(head) {
		fe.add(field, "无效的图片数据格式")
	}
}

// ValidateGenerateImage checks POST /api/ai/generate bodies.
// Returns "" when valid, else the combined violation message.
func ValidateGenerateImage(req *models.GenerateImageRequest) string {
	var fe fieldErrors
	if req.Prompt == "" {
		fe.add("prompt", "提示词不能为空")
	} else if utf8.RuneCountInString(req.Prompt) > MaxPromptLength {
		fe.add("prompt", "提示词过长")
	}
	if req.AspectRatio != "" && !contains(SupportedAspectRatios, req.AspectRatio) {
		fe.add("aspectRatio", fmt.Sprintf("不支持的宽高比（可用: %s）", strings.Join(SupportedAspectRatios, ", ")))
	}
	validateProvider(&fe, req.Provider)
	return fe.joined()
}

// ValidateEditImage checks POST /api/ai/edit bodies.
func ValidateEditImage(req *models.EditImageRequest) string {
	var fe fieldErrors
	if req.Prompt == "" {
		fe.add("prompt", "提示词不能为空")
	} else if utf8.RuneCountInString(req.Prompt) > MaxPromptLength {
		fe.add("prompt", "提示词过长")
	}
	validateBase64Image(&fe, "image", req.Image)
	validateProvider(&fe, req.Provider)
	return fe.joined()
}

// ValidateUpscaleImage checks POST /api/ai/upscale bodies.
func ValidateUpscaleImage(req *models.UpscaleImageRequest) string {
	var fe fieldErrors
	validateBase64Image(&fe, "image", req.Image)
	if req.Resolution != "" && req.Resolution != "2K" && req.Resolution != "4K" {
		fe.add("resolution", "仅支持 2K 或 4K")
	}
	validateProvider(&fe, req.Provider)
	return fe.joined()
}

// ValidateChat checks POST /api/chat bodies.
func ValidateChat(req *models.ChatRequest) string {
	var fe fieldErrors
	switch {
	case len(req.Messages) == 0:
		fe.add("messages", "消息列表不能为空")
	case len(req.Messages) > MaxMessages:
		fe.add("messages", "消息数量过多")
	}
	for i, m := range req.Messages {
		field := fmt.Sprintf("messages.%d", i)
		if m.Role != "user" && m.Role != "assistant" && m.Role != "system" {
			fe.add(field+".role", "角色必须是 user、assistant 或 system")
		}
		if utf8.RuneCountInString(m.Content) > MaxMessageLength {
			fe.add(field+".content", "消息内容过长")
		}
		for j, att := range m.Attachments {
			if len(att.Content) > MaxImageSize {
				fe.add(fmt.Sprintf("%s.attachments.%d.content", field, j), "附件内容过大")
			}
		}
	}
	validateProvider(&fe, req.Provider)
	return fe.joined()
}

// ValidPhone reports whether phone is a mainland mobile number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidCode reports whether code is a six-digit OTP.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}
