package simulated

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aescanero/autogent/pkg/ports"
)

// ImageGenerator returns stable URLs under a base address instead of
// rendering images
type ImageGenerator struct {
	baseURL string
}

// NewImageGenerator creates a generator rooted at baseURL
func NewImageGenerator(baseURL string) *ImageGenerator {
	if baseURL == "" {
		baseURL = "https://images.autogent.local"
	}
	return &ImageGenerator{baseURL: baseURL}
}

// Generate returns the URL the image would be served from
func (g *ImageGenerator) Generate(ctx context.Context, req ports.ImageRequest) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}
	if req.Prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}

	id := seed(req.Provider, req.Model, req.Size, req.Style, req.Prompt)
	q := url.Values{"size": {req.Size}, "style": {req.Style}}
	return fmt.Sprintf("%s/%s/%s/%016x.png?%s", g.baseURL, url.PathEscape(req.Provider), url.PathEscape(req.Model), id, q.Encode()), nil
}
