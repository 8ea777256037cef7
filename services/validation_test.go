// ABOUTME: Tests for request validation
// ABOUTME: Verifies every violation is reported and valid bodies pass clean

package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/canvasai/mixboard/backend/models"
)

func TestValidateGenerateImage_Valid(t *testing.T) {
	msg := ValidateGenerateImage(&models.GenerateImageRequest{
		Prompt:      "一只在太空行走的猫",
		AspectRatio: "16:9",
		Provider:    "doubao",
	})
	assert.Empty(t, msg)
}

func TestValidateGenerateImage_EmptyPrompt(t *testing.T) {
	msg := ValidateGenerateImage(&models.GenerateImageRequest{})
	assert.Contains(t, msg, "验证失败")
	assert.Contains(t, msg, "prompt: 提示词不能为空")
}

func TestValidateGenerateImage_PromptTooLong(t *testing.T) {
	msg := ValidateGenerateImage(&models.GenerateImageRequest{
		Prompt: strings.Repeat("长", MaxPromptLength+1),
	})
	assert.Contains(t, msg, "提示词过长")
}

func TestValidateGenerateImage_PromptCountsCharacters(t *testing.T) {
	// A 2000-character Chinese prompt is 6000 bytes; the limit is on
	// characters, so it must pass.
	msg := ValidateGenerateImage(&models.GenerateImageRequest{
		Prompt: strings.Repeat("画", MaxPromptLength),
	})
	assert.Empty(t, msg)
}

func TestValidateChat_ContentCountsCharacters(t *testing.T) {
	msg := ValidateChat(&models.ChatRequest{
		Messages: []models.ChatMessageInput{
			{Role: "user", Content: strings.Repeat("写", MaxMessageLength)},
		},
	})
	assert.Empty(t, msg)

	msg = ValidateChat(&models.ChatRequest{
		Messages: []models.ChatMessageInput{
			{Role: "user", Content: strings.Repeat("写", MaxMessageLength+1)},
		},
	})
	assert.Contains(t, msg, "消息内容过长")
}

func TestValidateGenerateImage_ListsEveryViolation(t *testing.T) {
	msg := ValidateGenerateImage(&models.GenerateImageRequest{
		Prompt:      "",
		AspectRatio: "2:1",
		Provider:    "midjourney",
	})

	assert.Contains(t, msg, "prompt:")
	assert.Contains(t, msg, "aspectRatio:")
	assert.Contains(t, msg, "provider:")
	assert.Equal(t, 2, strings.Count(msg, ", "), "three violations joined by two separators")
}

func TestValidateGenerateImage_AspectRatios(t *testing.T) {
	for _, ratio := range SupportedAspectRatios {
		msg := ValidateGenerateImage(&models.GenerateImageRequest{Prompt: "x", AspectRatio: ratio})
		assert.Empty(t, msg, "ratio %s should be accepted", ratio)
	}
	msg := ValidateGenerateImage(&models.GenerateImageRequest{Prompt: "x", AspectRatio: "2:1"})
	assert.Contains(t, msg, "不支持的宽高比")
}

func TestValidateGenerateImage_ProviderAllowList(t *testing.T) {
	for _, provider := range SupportedProviders {
		msg := ValidateGenerateImage(&models.GenerateImageRequest{Prompt: "x", Provider: provider})
		assert.Empty(t, msg, "provider %s should be accepted", provider)
	}
	msg := ValidateGenerateImage(&models.GenerateImageRequest{Prompt: "x", Provider: "stability"})
	assert.Contains(t, msg, "不支持的提供商")
}

func TestValidateEditImage(t *testing.T) {
	valid := ValidateEditImage(&models.EditImageRequest{
		Image:  "data:image/png;base64,iVBORw0KGgo=",
		Prompt: "加一顶帽子",
	})
	assert.Empty(t, valid)

	missing := ValidateEditImage(&models.EditImageRequest{Prompt: "x"})
	assert.Contains(t, missing, "图片数据不能为空")

	badFormat := ValidateEditImage(&models.EditImageRequest{
		Image:  "data:image/svg+xml;base64,PHN2Zz4=",
		Prompt: "x",
	})
	assert.Contains(t, badFormat, "无效的图片数据格式")

	notBase64 := ValidateEditImage(&models.EditImageRequest{
		Image:  "hello world!!",
		Prompt: "x",
	})
	assert.Contains(t, notBase64, "无效的图片数据格式")
}

func TestValidateEditImage_RawBase64Accepted(t *testing.T) {
	msg := ValidateEditImage(&models.EditImageRequest{
		Image:  "iVBORw0KGgoAAAANSUhEUg==",
		Prompt: "x",
	})
	assert.Empty(t, msg)
}

func TestValidateUpscaleImage(t *testing.T) {
	valid := ValidateUpscaleImage(&models.UpscaleImageRequest{
		Image:      "data:image/png;base64,iVBORw0KGgo=",
		Resolution: "2K",
	})
	assert.Empty(t, valid)

	badRes := ValidateUpscaleImage(&models.UpscaleImageRequest{
		Image:      "data:image/png;base64,iVBORw0KGgo=",
		Resolution: "8K",
	})
	assert.Contains(t, badRes, "仅支持 2K 或 4K")
}

func TestValidateChat(t *testing.T) {
	valid := ValidateChat(&models.ChatRequest{
		Messages: []models.ChatMessageInput{{Role: "user", Content: "你好"}},
	})
	assert.Empty(t, valid)

	empty := ValidateChat(&models.ChatRequest{})
	assert.Contains(t, empty, "消息列表不能为空")

	badRole := ValidateChat(&models.ChatRequest{
		Messages: []models.ChatMessageInput{{Role: "tool", Content: "x"}},
	})
	assert.Contains(t, badRole, "messages.0.role")

	tooLong := ValidateChat(&models.ChatRequest{
		Messages: []models.ChatMessageInput{{Role: "user", Content: strings.Repeat("长", MaxMessageLength+1)}},
	})
	assert.Contains(t, tooLong, "消息内容过长")
}

func TestValidateChat_TooManyMessages(t *testing.T) {
	messages := make([]models.ChatMessageInput, MaxMessages+1)
	for i := range messages {
		messages[i] = models.ChatMessageInput{Role: "user", Content: "x"}
	}
	msg := ValidateChat(&models.ChatRequest{Messages: messages})
	assert.Contains(t, msg, "消息数量过多")
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("13812345678"))
	assert.True(t, ValidPhone("19912345678"))
	assert.False(t, ValidPhone("12812345678")) // second digit must be 3-9
	assert.False(t, ValidPhone("1381234567"))  // too short
	assert.False(t, ValidPhone("138123456789"))
	assert.False(t, ValidPhone("+8613812345678"))
	assert.False(t, ValidPhone(""))
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("123456"))
	assert.False(t, ValidCode("12345"))
	assert.False(t, ValidCode("1234567"))
	assert.False(t, ValidCode("12345a"))
	assert.False(t, ValidCode(""))
}
