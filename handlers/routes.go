// ABOUTME: Declarative route table for API endpoints
// ABOUTME: Defines all routes with their HTTP methods and handlers

package handlers

import "net/http"

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST)
	Path    string           // URL path, may contain {wildcards}
	Handler http.HandlerFunc // Handler function
	Group   string           // rate-limit group: ai, auth, or default
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health & configuration
		{Method: http.MethodGet, Path: "/api/health", Handler: h.Health, Group: "default"},
		{Method: http.MethodGet, Path: "/api/config", Handler: h.Config, Group: "default"},

		// Image generation
		{Method: http.MethodGet, Path: "/api/ai/providers", Handler: h.handle(h.ListProviders), Group: "default"},
		{Method: http.MethodPost, Path: "/api/ai/generate", Handler: h.handle(h.GenerateImage), Group: "ai"},
		{Method: http.MethodPost, Path: "/api/ai/edit", Handler: h.handle(h.EditImage), Group: "ai"},
		{Method: http.MethodPost, Path: "/api/ai/upscale", Handler: h.handle(h.UpscaleImage), Group: "ai"},

		// Chat
		{Method: http.MethodPost, Path: "/api/chat", Handler: h.handle(h.Chat), Group: "ai"},
		{Method: http.MethodGet, Path: "/api/chat/health", Handler: h.ChatHealth, Group: "default"},

		// WeChat QR login
		{Method: http.MethodGet, Path: "/api/auth/wechat/qrcode", Handler: h.WeChatQRCode, Group: "auth"},
		{Method: http.MethodGet, Path: "/api/auth/wechat/callback", Handler: h.WeChatCallback, Group: "auth"},
		{Method: http.MethodGet, Path: "/api/auth/wechat/status/{state}", Handler: h.WeChatStatus, Group: "auth"},

		// Phone OTP login
		{Method: http.MethodPost, Path: "/api/auth/phone/send-code", Handler: h.handle(h.SendPhoneCode), Group: "auth"},
		{Method: http.MethodPost, Path: "/api/auth/phone/verify", Handler: h.handle(h.VerifyPhoneCode), Group: "auth"},

		// Session-ish helpers
		{Method: http.MethodGet, Path: "/api/auth/user", Handler: h.CurrentUser, Group: "auth"},
		{Method: http.MethodPost, Path: "/api/auth/logout", Handler: h.Logout, Group: "auth"},
	}
}
