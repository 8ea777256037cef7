// ABOUTME: HTTP handler wiring for the Mixboard API
// ABOUTME: Holds config, registries, and the auth store; shapes JSON envelopes

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/canvasai/mixboard/backend/config"
	"github.com/canvasai/mixboard/backend/middleware"
	"github.com/canvasai/mixboard/backend/models"
	"github.com/canvasai/mixboard/backend/providers"
	"github.com/canvasai/mixboard/backend/services"
)

// Request bodies may carry large base64 images; matches the original 50MB
// JSON body ceiling.
const maxBodyBytes = 50 << 20

type Handler struct {
	cfg    *config.Config
	images *providers.Registry
	chats  *providers.ChatRegistry
	store  *services.AuthStore
	wechat *services.WeChatClient
}

func NewHandler(cfg *config.Config, images *providers.Registry, chats *providers.ChatRegistry, store *services.AuthStore, wechat *services.WeChatClient) *Handler {
	return &Handler{
		cfg:    cfg,
		images: images,
		chats:  chats,
		store:  store,
		wechat: wechat,
	}
}

// handle adapts an error-returning handler into http.HandlerFunc, routing
// failures through the central error writer.
func (h *Handler) handle(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			middleware.WriteError(w, r, h.mapError(err), h.cfg.Development())
		}
	}
}

// mapError translates provider-level failures into the HTTP error taxonomy.
func (h *Handler) mapError(err error) error {
	var unknown *providers.UnknownProviderError
	if errors.As(err, &unknown) {
		return middleware.BadRequestCode(unknown.Error(), "UNKNOWN_PROVIDER")
	}
	var upstream *providers.UpstreamError
	if errors.As(err, &upstream) {
		return middleware.Upstream(upstream.Status, upstream.Error())
	}
	return err
}

// decodeBody parses a size-limited JSON request body.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return middleware.BadRequest("无效的 JSON 请求体")
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeData wraps payload in the success envelope.
func (h *Handler) writeData(w http.ResponseWriter, payload interface{}) {
	h.writeJSON(w, http.StatusOK, models.Response{Success: true, Data: payload})
}

// writeFlowError reports an auth-flow failure as {success:false} with HTTP
// 200, keeping client polling loops simple.
func (h *Handler) writeFlowError(w http.ResponseWriter, message string) {
	h.writeJSON(w, http.StatusOK, models.Response{Success: false, Error: message})
}

// NotFound answers unknown /api routes in the envelope format.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, models.Response{
		Success: false,
		Error:   "路由 " + r.Method + " " + r.URL.Path + " 不存在",
	})
}
