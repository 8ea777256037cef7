// ABOUTME: Tests for the generic bearer-auth image provider
// ABOUTME: Runs against a local httptest upstream

package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasai/mixboard/backend/config"
)

const tinyPNG = "iVBORw0KGgoAAAANSUhEUg=="

func customUpstream(t *testing.T, handler http.HandlerFunc) (*CustomProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewCustomProvider(config.ProviderConfig{
		APIKey:     "test-key-123",
		BaseURL:    srv.URL + "/",
		ImageModel: "default",
	})
	return p, srv
}

func TestCustomProvider_GenerateImage(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	p, _ := customUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"image": tinyPNG})
	})

	image, err := p.GenerateImage(context.Background(), GenerateParams{Prompt: "一只猫"})
	require.NoError(t, err)

	assert.Equal(t, "/generate", gotPath)
	assert.Equal(t, "Bearer test-key-123", gotAuth)
	assert.Equal(t, "一只猫", gotBody["prompt"])
	assert.Equal(t, "default", gotBody["model"])
	assert.Equal(t, "1:1", gotBody["aspect_ratio"], "empty aspect ratio should default to 1:1")
	assert.Equal(t, "data:image/png;base64,"+tinyPNG, image)
}

func TestCustomProvider_NestedImageField(t *testing.T) {
	p, _ := customUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"image": tinyPNG},
		})
	})

	image, err := p.GenerateImage(context.Background(), GenerateParams{Prompt: "x"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(image, "data:image/png;base64,"))
}

func TestCustomProvider_DataURLPassedThrough(t *testing.T) {
	dataURL := "data:image/jpeg;base64," + tinyPNG
	p, _ := customUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"image": dataURL})
	})

	image, err := p.GenerateImage(context.Background(), GenerateParams{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, dataURL, image, "existing data URLs must not be double-prefixed")
}

func TestCustomProvider_EditStripsDataURL(t *testing.T) {
	var gotBody map[string]interface{}
	p, _ := customUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/edit", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"image": tinyPNG})
	})

	_, err := p.EditImage(context.Background(), EditParams{
		Image:  "data:image/png;base64," + tinyPNG,
		Prompt: "加一顶帽子",
	})
	require.NoError(t, err)
	assert.Equal(t, tinyPNG, gotBody["image"], "data URL prefix should be stripped before upload")
}

func TestCustomProvider_UpscaleDefaultsTo4K(t *testing.T) {
	var gotBody map[string]interface{}
	p, _ := customUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upscale", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"image": tinyPNG})
	})

	_, err := p.UpscaleImage(context.Background(), UpscaleParams{Image: tinyPNG})
	require.NoError(t, err)
	assert.Equal(t, "4K", gotBody["resolution"])
}

func TestCustomProvider_ImplementsUpscaler(t *testing.T) {
	var p ImageProvider = NewCustomProvider(config.ProviderConfig{})
	_, ok := p.(Upscaler)
	assert.True(t, ok, "custom provider must advertise the upscale capability")
}

func TestCustomProvider_UpstreamError(t *testing.T) {
	p, _ := customUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad key"}`))
	})

	_, err := p.GenerateImage(context.Background(), GenerateParams{Prompt: "x"})
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnauthorized, upstream.Status)
	assert.Equal(t, "custom", upstream.Provider)
}

func TestCustomProvider_MissingImageInResponse(t *testing.T) {
	p, _ := customUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	_, err := p.GenerateImage(context.Background(), GenerateParams{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API 未返回图片数据")
}
