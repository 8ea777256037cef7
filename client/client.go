// ABOUTME: Go client for the Mixboard backend API
// ABOUTME: Mirrors the browser API layer including SSE chat streaming

package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/canvasai/mixboard/backend/models"
)

// APIError is a non-success envelope returned by the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to a Mixboard backend instance.
type Client struct {
	baseURL string
	http    *http.Client
	userID  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserID sets the X-User-ID header sent on every request.
func WithUserID(id string) Option {
	return func(c *Client) { c.userID = id }
}

// New creates a client for the given base URL, e.g. "http://localhost:3001".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 300 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends a request and unwraps the response envelope into out. Bodies with
// success:false become an *APIError carrying the server's message and code.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success   bool            `json:"success"`
		Data      json.RawMessage `json:"data"`
		Error     string          `json:"error"`
		Message   string          `json:"message"`
		RequestID string          `json:"requestId"`
		Code      string          `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if !envelope.Success {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       envelope.Code,
			Message:    envelope.Error,
			RequestID:  envelope.RequestID,
		}
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

// doBare handles the two endpoints that respond without the envelope.
func (c *Client) doBare(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// HealthStatus is the liveness report from GET /api/health.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.doBare(ctx, "/api/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ServerConfig is the public configuration from GET /api/config.
type ServerConfig struct {
	Provider     string `json:"provider"`
	DefaultModel string `json:"defaultModel"`
}

// Config fetches the default provider selection.
func (c *Client) Config(ctx context.Context) (*ServerConfig, error) {
	var out ServerConfig
	if err := c.doBare(ctx, "/api/config", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProviderList enumerates the configured image providers.
type ProviderList struct {
	Available []string `json:"available"`
	Default   string   `json:"default"`
	Count     int      `json:"count"`
}

// Providers lists image providers with usable configuration.
func (c *Client) Providers(ctx context.Context) (*ProviderList, error) {
	var out ProviderList
	if err := c.do(ctx, http.MethodGet, "/api/ai/providers", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImageResult is a generated or transformed image as a data URL.
type ImageResult struct {
	Image    string `json:"image"`
	Provider string `json:"provider"`
}

// GenerateImage creates an image from a text prompt.
func (c *Client) GenerateImage(ctx context.Context, req models.GenerateImageRequest) (*ImageResult, error) {
	var out ImageResult
	if err := c.do(ctx, http.MethodPost, "/api/ai/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditImage transforms an existing image with a text instruction.
func (c *Client) EditImage(ctx context.Context, req models.EditImageRequest) (*ImageResult, error) {
	var out ImageResult
	if err := c.do(ctx, http.MethodPost, "/api/ai/edit", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpscaleImage increases image resolution, if the provider supports it.
func (c *Client) UpscaleImage(ctx context.Context, req models.UpscaleImageRequest) (*ImageResult, error) {
	var out ImageResult
	if err := c.do(ctx, http.MethodPost, "/api/ai/upscale", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatResult is a complete assistant reply from non-streaming chat.
type ChatResult struct {
	Message string            `json:"message"`
	Usage   *models.ChatUsage `json:"usage"`
}

// Chat requests a complete (non-streaming) assistant reply.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*ChatResult, error) {
	stream := false
	req.Stream = &stream

	var out ChatResult
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatStream requests a streaming reply and invokes fn for every content
// chunk. Error frames from the server and a non-nil fn result abort the
// stream and are returned.
func (c *Client) ChatStream(ctx context.Context, req models.ChatRequest, fn func(chunk string) error) error {
	stream := true
	req.Stream = &stream

	encoded, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.userID != "" {
		httpReq.Header.Set("X-User-ID", c.userID)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Validation failures arrive as a JSON envelope before any SSE frame.
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		var envelope models.Response
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       envelope.Code,
			Message:    envelope.Error,
			RequestID:  envelope.RequestID,
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return nil
		}
		if msg := gjson.Get(payload, "error"); msg.Exists() {
			return fmt.Errorf("stream error: %s", msg.String())
		}
		if content := gjson.Get(payload, "content"); content.Exists() {
			if err := fn(content.String()); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

// QRCodeSession is a started WeChat QR login attempt.
type QRCodeSession struct {
	State      string `json:"state"`
	QRCodeURL  string `json:"qrcodeUrl"`
	Configured bool   `json:"configured"`
}

// StartWeChatLogin begins a WeChat QR login and returns the scan URL.
func (c *Client) StartWeChatLogin(ctx context.Context) (*QRCodeSession, error) {
	var out QRCodeSession
	if err := c.do(ctx, http.MethodGet, "/api/auth/wechat/qrcode", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublicUser is a user as returned by the auth endpoints.
type PublicUser struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// LoginStatusResult is one poll of a QR login attempt.
type LoginStatusResult struct {
	Status string      `json:"status"`
	User   *PublicUser `json:"user"`
}

// WeChatLoginStatus polls a QR login attempt by state token.
func (c *Client) WeChatLoginStatus(ctx context.Context, state string) (*LoginStatusResult, error) {
	var out LoginStatusResult
	if err := c.do(ctx, http.MethodGet, "/api/auth/wechat/status/"+state, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendCodeResult reports a dispatched OTP. DevCode is set only when the
// server runs in development mode.
type SendCodeResult struct {
	Message string
	DevCode string
}

// SendPhoneCode requests an OTP for the given phone number.
func (c *Client) SendPhoneCode(ctx context.Context, phone string) (*SendCodeResult, error) {
	encoded, err := json.Marshal(models.SendCodeRequest{Phone: phone})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/phone/send-code", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// devCode sits beside the envelope fields, not inside data.
	var raw struct {
		Success   bool   `json:"success"`
		Error     string `json:"error"`
		Message   string `json:"message"`
		Code      string `json:"code"`
		RequestID string `json:"requestId"`
		DevCode   string `json:"devCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !raw.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: raw.Code, Message: raw.Error, RequestID: raw.RequestID}
	}
	return &SendCodeResult{Message: raw.Message, DevCode: raw.DevCode}, nil
}

// VerifyPhoneCode verifies an OTP and returns the logged-in user.
func (c *Client) VerifyPhoneCode(ctx context.Context, phone, code string) (*PublicUser, error) {
	var out struct {
		User *PublicUser `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/phone/verify", models.VerifyCodeRequest{Phone: phone, Code: code}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// CurrentUser fetches the user identified by the configured X-User-ID.
// Returns nil without error when no user matches.
func (c *Client) CurrentUser(ctx context.Context) (*PublicUser, error) {
	var out struct {
		User *PublicUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/user", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout ends the session. The server holds no session state, so this is
// a formality kept for parity with the API surface.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}
