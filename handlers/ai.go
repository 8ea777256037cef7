// ABOUTME: Image generation, editing, and upscaling endpoints
// ABOUTME: Validates requests fully before any provider is invoked

package handlers

import (
	"net/http"

	"github.com/canvasai/mixboard/backend/middleware"
	"github.com/canvasai/mixboard/backend/models"
	"github.com/canvasai/mixboard/backend/providers"
	"github.com/canvasai/mixboard/backend/services"
)

// ListProviders returns the image providers with usable configuration.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) error {
	available := h.images.Available()
	h.writeData(w, map[string]interface{}{
		"available": available,
		"default":   h.cfg.DefaultImageProvider,
		"count":     len(available),
	})
	return nil
}

// GenerateImage handles POST /api/ai/generate.
func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) error {
	var req models.GenerateImageRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	if msg := services.ValidateGenerateImage(&req); msg != "" {
		return middleware.BadRequestCode(msg, "VALIDATION_ERROR")
	}

	provider, err := h.images.Get(req.Provider)
	if err != nil {
		return err
	}

	image, err := provider.GenerateImage(r.Context(), providers.GenerateParams{
		Prompt:      req.Prompt,
		Model:       req.Model,
		AspectRatio: req.AspectRatio,
	})
	if err != nil {
		return err
	}

	h.writeData(w, map[string]string{
		"image":    image,
		"provider": provider.Name(),
	})
	return nil
}

// EditImage handles POST /api/ai/edit.
func (h *Handler) EditImage(w http.ResponseWriter, r *http.Request) error {
	var req models.EditImageRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	if msg := services.ValidateEditImage(&req); msg != "" {
		return middleware.BadRequestCode(msg, "VALIDATION_ERROR")
	}

	provider, err := h.images.Get(req.Provider)
	if err != nil {
		return err
	}

	image, err := provider.EditImage(r.Context(), providers.EditParams{
		Image:  req.Image,
		Prompt: req.Prompt,
		Model:  req.Model,
	})
	if err != nil {
		return err
	}

	h.writeData(w, map[string]string{
		"image":    image,
		"provider": provider.Name(),
	})
	return nil
}

// UpscaleImage handles POST /api/ai/upscale. Providers without the upscale
// capability answer 400 UNSUPPORTED_OPERATION rather than crashing.
func (h *Handler) UpscaleImage(w http.ResponseWriter, r *http.Request) error {
	var req models.UpscaleImageRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	if msg := services.ValidateUpscaleImage(&req); msg != "" {
		return middleware.BadRequestCode(msg, "VALIDATION_ERROR")
	}

	provider, err := h.images.Get(req.Provider)
	if err != nil {
		return err
	}

	upscaler, ok := provider.(providers.Upscaler)
	if !ok {
		return middleware.BadRequestCode(
			"提供商 "+provider.Name()+" 不支持图片放大功能",
			"UNSUPPORTED_OPERATION",
		)
	}

	image, err := upscaler.UpscaleImage(r.Context(), providers.UpscaleParams{
		Image:      req.Image,
		Resolution: req.Resolution,
	})
	if err != nil {
		return err
	}

	h.writeData(w, map[string]string{
		"image":    image,
		"provider": provider.Name(),
	})
	return nil
}
