// ABOUTME: Helpers shared by image adapters
// ABOUTME: Data-URL normalization and URL-to-base64 download

package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxDownloadBytes = 32 << 20 // generated images are well under this

// toDataURL normalizes raw base64 into a canonical data URL. Input that is
// already a data URL passes through unchanged.
func toDataURL(b64 string) string {
	if strings.HasPrefix(b64, "data:") {
		return b64
	}
	return "data:image/png;base64," + b64
}

// stripDataURL removes a data-URL prefix, returning the bare base64 payload
// expected by upstream edit/upscale endpoints.
func stripDataURL(image string) string {
	if i := strings.IndexByte(image, ','); i >= 0 && strings.HasPrefix(image, "data:") {
		return image[i+1:]
	}
	return image
}

// fetchAsDataURL downloads an image the upstream returned by URL and encodes
// it as a data URL, carrying over the response content type.
func fetchAsDataURL(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("下载图片失败: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}
