package removal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotConfigured is returned when no removal endpoint is set.
var ErrNotConfigured = errors.New("background removal endpoint not configured")

// Client calls the external background-removal collaborator. The contract
// is opaque: POST the product photo, receive the processed image back with
// the background removed.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a removal client for the given endpoint. An empty
// endpoint produces a client whose calls fail with ErrNotConfigured.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Available reports whether an endpoint is configured.
func (c *Client) Available() bool {
	return c.endpoint != ""
}

type removeRequest struct {
	Image string `json:"image"`
}

type removeResponse struct {
	Image string `json:"image"`
	Error string `json:"error,omitempty"`
}

// Remove sends the image (data URL or bare base64) to the collaborator and
// returns the processed image as a data URL.
func (c *Client) Remove(ctx context.Context, image string) (string, error) {
	if !c.Available() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(removeRequest{Image: image})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("background removal request: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("background removal %s: %s", resp.Status, strings.TrimSpace(string(rawBody)))
	}

	var decoded removeResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("background removal error: %s", decoded.Error)
	}
	if decoded.Image == "" {
		return "", errors.New("background removal returned no image")
	}

	log.Debug().Int("image_len", len(decoded.Image)).Msg("Background removal complete")
	return normalizeDataURL(decoded.Image), nil
}

// normalizeDataURL ensures the collaborator's output is a data URL; bare
// base64 payloads are assumed to be PNG.
func normalizeDataURL(image string) string {
	if strings.HasPrefix(image, "data:") {
		return image
	}
	if _, err := base64.StdEncoding.DecodeString(image); err == nil {
		return "data:image/png;base64," + image
	}
	return image
}
