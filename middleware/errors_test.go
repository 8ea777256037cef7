// ABOUTME: Unit tests for the error taxonomy and JSON error writer
// ABOUTME: Covers status mapping, secret redaction, and production masking

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/canvasai/mixboard/backend/models"
)

// --- Redact tests ---

func TestRedact_SecretPatterns(t *testing.T) {
	cases := []string{
		"request failed: Bearer sk-abc123secret",
		"upstream said Authorization: Basic dXNlcg==",
		"invalid key sk-proj12345",
		"bad api_key=whatever",
		"password=hunter2 rejected",
	}
	for _, msg := range cases {
		redacted := Redact(msg)
		if !strings.Contains(redacted, "[REDACTED]") {
			t.Errorf("Expected %q to be redacted, got %q", msg, redacted)
		}
	}
}

func TestRedact_PlainMessagesUntouched(t *testing.T) {
	msg := "验证失败: prompt: 提示词不能为空"
	if got := Redact(msg); got != msg {
		t.Errorf("Plain message should pass through, got %q", got)
	}
}

// --- AppError constructors ---

func TestUpstream_StatusMapping(t *testing.T) {
	if e := Upstream(404, "not found"); e.Status != 404 {
		t.Errorf("Expected 404 preserved, got %d", e.Status)
	}
	if e := Upstream(0, "connection refused"); e.Status != http.StatusBadGateway {
		t.Errorf("Expected 502 for status 0, got %d", e.Status)
	}
	if e := Upstream(302, "redirect"); e.Status != http.StatusBadGateway {
		t.Errorf("Expected 502 for non-error status, got %d", e.Status)
	}
	if e := Upstream(500, "boom"); e.Code != "UPSTREAM_ERROR" {
		t.Errorf("Expected UPSTREAM_ERROR code, got %s", e.Code)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	e := Internal("wrapper", cause)
	if !errors.Is(e, cause) {
		t.Error("Expected errors.Is to reach the wrapped cause")
	}
}

// --- WriteError tests ---

func writeAndDecode(t *testing.T, err error, development bool) (int, models.Response, http.Header) {
	t.Helper()
	w := httptest.NewRecorder()
	w.Header().Set("X-Request-ID", "req-123")
	r := httptest.NewRequest(http.MethodPost, "/api/ai/generate", nil)

	WriteError(w, r, err, development)

	var resp models.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse error body: %v", err)
	}
	return w.Code, resp, w.Header()
}

func TestWriteError_OperationalError(t *testing.T) {
	status, resp, _ := writeAndDecode(t, BadRequestCode("验证失败: prompt: 提示词不能为空", "VALIDATION_ERROR"), false)

	if status != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", status)
	}
	if resp.Success {
		t.Error("Expected success false")
	}
	if resp.Error != "验证失败: prompt: 提示词不能为空" {
		t.Errorf("Unexpected error message: %s", resp.Error)
	}
	if resp.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR, got %s", resp.Code)
	}
	if resp.RequestID != "req-123" {
		t.Errorf("Expected request ID echoed, got %s", resp.RequestID)
	}
}

func TestWriteError_NonOperationalMaskedInProduction(t *testing.T) {
	status, resp, _ := writeAndDecode(t, errors.New("pq: connection refused at 10.0.0.5"), false)

	if status != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", status)
	}
	if resp.Error != "服务器内部错误" {
		t.Errorf("Expected generic message in production, got %s", resp.Error)
	}
}

func TestWriteError_NonOperationalVisibleInDevelopment(t *testing.T) {
	_, resp, _ := writeAndDecode(t, errors.New("something broke"), true)

	if resp.Error != "something broke" {
		t.Errorf("Expected raw message in development, got %s", resp.Error)
	}
}

func TestWriteError_RedactsSecrets(t *testing.T) {
	_, resp, _ := writeAndDecode(t, BadRequest("upstream rejected Bearer sk-secret123"), true)

	if strings.Contains(resp.Error, "sk-secret123") {
		t.Errorf("Secret leaked to client: %s", resp.Error)
	}
	if !strings.Contains(resp.Error, "[REDACTED]") {
		t.Errorf("Expected redaction marker, got %s", resp.Error)
	}
}
