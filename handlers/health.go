// ABOUTME: Health and configuration endpoints
// ABOUTME: Bare JSON bodies (no envelope), matching the client contract

package handlers

import (
	"net/http"
	"time"
)

// Health returns liveness plus a timestamp.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Config exposes the default provider selection. Never any secrets.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	defaultModel := ""
	if pc, ok := h.cfg.Provider(h.cfg.DefaultImageProvider); ok {
		defaultModel = pc.ImageModel
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"provider":     h.cfg.DefaultImageProvider,
		"defaultModel": defaultModel,
	})
}

// ChatHealth reports which chat provider currently serves requests.
func (h *Handler) ChatHealth(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, map[string]string{
		"provider": h.chats.Get("").Name(),
		"status":   "ok",
	})
}
