package nodes

import (
	"context"
	"strings"

	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

// ImageGeneration renders an image from a prompt.
type ImageGeneration struct {
	base
	cfg    imageConfig
	images ports.ImageGenerator
}

type imageConfig struct {
	Provider string `mapstructure:"provider" validate:"required"`
	Model    string `mapstructure:"model"`
	Size     string `mapstructure:"size" validate:"oneof=256x256 512x512 1024x1024 1792x1024 1024x1792"`
	Style    string `mapstructure:"style"`
	Prompt   string `mapstructure:"prompt"`
	Critical bool   `mapstructure:"critical"`
}

// NewImageGenerationFactory returns the image_generation factory bound to images.
func NewImageGenerationFactory(images ports.ImageGenerator) domain.Factory {
	return func(id string, raw map[string]interface{}) (domain.Node, error) {
		cfg := imageConfig{
			Provider: "openai",
			Model:    "dall-e-3",
			Size:     "1024x1024",
			Style:    "vivid",
		}
		if err := decodeConfig(id, raw, &cfg); err != nil {
			return nil, err
		}

		return &ImageGeneration{
			base: base{
				id:       id,
				kind:     domain.KindImageGen,
				critical: cfg.Critical,
				ports: domain.Ports{
					Inputs:  []string{"text"},
					Outputs: []string{"image_url", "metadata"},
				},
			},
			cfg:    cfg,
			images: images,
		}, nil
	}
}

// Execute prefers the text input as prompt and falls back to config.prompt.
func (n *ImageGeneration) Execute(ctx context.Context, in domain.Values) (domain.Values, error) {
	prompt := strings.TrimSpace(toText(in["text"]))
	if prompt == "" {
		prompt = strings.TrimSpace(n.cfg.Prompt)
	}
	if prompt == "" {
		return nil, &domain.Error{Kind: domain.KindMissingInput, NodeID: n.id, Port: "text", Message: "no prompt bound and config.prompt is empty"}
	}

	url, err := n.images.Generate(ctx, ports.ImageRequest{
		Prompt:   prompt,
		Provider: n.cfg.Provider,
		Model:    n.cfg.Model,
		Size:     n.cfg.Size,
		Style:    n.cfg.Style,
	})
	if err != nil {
		return nil, adapterFailure(n.id, err)
	}

	return domain.Values{
		"image_url": url,
		"metadata": map[string]interface{}{
			"provider": n.cfg.Provider,
			"model":    n.cfg.Model,
			"size":     n.cfg.Size,
			"style":    n.cfg.Style,
			"prompt":   prompt,
		},
	}, nil
}
