// Package generate wraps the image and video generation vendors: submitting
// jobs, polling task status, and downloading finished assets.
package generate

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ImageClient generates still images through an OpenAI-compatible endpoint.
type ImageClient struct {
	client *openai.Client
	model  string
	size   string
	logger *zap.Logger
}

func NewImageClient(baseURL, apiKey, model, size string, logger *zap.Logger) *ImageClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &ImageClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		size:   size,
		logger: logger.Named("image"),
	}
}

// Generate requests one image for prompt and writes the decoded result to
// outPath. Image generation is synchronous on the vendor side.
func (c *ImageClient) Generate(ctx context.Context, prompt, outPath string) error {
	c.logger.Info("requesting image",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Model:          c.model,
		Prompt:         prompt,
		N:              1,
		Size:           c.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return fmt.Errorf("image generation returned no data")
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return fmt.Errorf("failed to decode image payload: %w", err)
	}
	if err := os.WriteFile(outPath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write image %s: %w", outPath, err)
	}

	c.logger.Info("image written", zap.String("path", outPath), zap.Int("bytes", len(raw)))
	return nil
}
