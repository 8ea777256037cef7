// ABOUTME: Shared data types for the Mixboard backend API
// ABOUTME: Defines the response envelope, chat types, and auth entities

package models

import "time"

// Response is the JSON envelope wrapping every /api response body
// except the bare health and config endpoints.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
	Code      string      `json:"code,omitempty"`
}

// Attachment is an inline payload (usually a canvas image) attached to a chat message.
type Attachment struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ChatMessageInput is one turn of a chat conversation as sent by the client.
type ChatMessageInput struct {
	Role        string       `json:"role"` // user, assistant, system
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ChatUsage reports upstream token consumption when the provider exposes it.
type ChatUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// LoginStatus is the lifecycle state of a WeChat QR login attempt.
type LoginStatus string

const (
	LoginPending   LoginStatus = "pending"
	LoginScanned   LoginStatus = "scanned"
	LoginConfirmed LoginStatus = "confirmed"
	LoginExpired   LoginStatus = "expired"
)

// LoginState tracks one QR login attempt, keyed by an opaque state token.
// User is populated only when Status transitions to confirmed.
type LoginState struct {
	Status    LoginStatus
	User      *User
	CreatedAt time.Time
}

// User is an account upserted from a WeChat identity or a verified phone number.
// Held in process memory only; never persisted.
type User struct {
	ID        string    `json:"id"`
	OpenID    string    `json:"-"`
	Phone     string    `json:"-"`
	Nickname  string    `json:"nickname"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"-"`
}

// VerificationCode is a pending phone OTP. Deleted on successful verification,
// on expiry, and after five failed attempts.
type VerificationCode struct {
	Code      string
	CreatedAt time.Time
	Attempts  int
}

// GenerateImageRequest is the body of POST /api/ai/generate.
type GenerateImageRequest struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

// EditImageRequest is the body of POST /api/ai/edit.
type EditImageRequest struct {
	Image    string `json:"image"`
	Prompt   string `json:"prompt"`
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// UpscaleImageRequest is the body of POST /api/ai/upscale.
type UpscaleImageRequest struct {
	Image      string `json:"image"`
	Resolution string `json:"resolution,omitempty"` // 2K or 4K
	Provider   string `json:"provider,omitempty"`
}

// ChatRequest is the body of POST /api/chat. Stream defaults to true when omitted.
type ChatRequest struct {
	Messages         []ChatMessageInput `json:"messages"`
	WebSearchEnabled bool               `json:"webSearchEnabled,omitempty"`
	Stream           *bool              `json:"stream,omitempty"`
	Provider         string             `json:"provider,omitempty"`
}

// SendCodeRequest is the body of POST /api/auth/phone/send-code.
type SendCodeRequest struct {
	Phone string `json:"phone"`
}

// VerifyCodeRequest is the body of POST /api/auth/phone/verify.
type VerifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}
