package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ShotPlan is one shot in the breakdown the model returns for a scene.
type ShotPlan struct {
	ShotIndex   int     `json:"shot_index"`
	Size        string  `json:"size"`
	Movement    string  `json:"movement"`
	ImagePrompt string  `json:"image_prompt"`
	VideoPrompt string  `json:"video_prompt"`
	Narration   string  `json:"narration"`
	DurationSec float64 `json:"duration_sec"`
}

// ScenePlan is the full per-scene breakdown.
type ScenePlan struct {
	Summary string     `json:"summary"`
	Shots   []ShotPlan `json:"shots"`
}

// Breakdown asks a chat model to break a scene into shots.
type Breakdown struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewBreakdown builds a Breakdown against an OpenAI-compatible endpoint.
// baseURL may be empty for the default API host.
func NewBreakdown(baseURL, apiKey, model string, logger *zap.Logger) *Breakdown {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Breakdown{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger.Named("breakdown"),
	}
}

const breakdownSystemPrompt = `You are a storyboard artist breaking a screenplay scene into shots.
Respond with JSON only, matching this schema:
{"summary": "...", "shots": [{"shot_index": 0, "size": "WIDE|MEDIUM|CLOSE|EXTREME CLOSE|OVER-SHOULDER", "movement": "STATIC|PAN|TILT|PUSH-IN|PULL-BACK|TRACKING", "image_prompt": "...", "video_prompt": "...", "narration": "...", "duration_sec": 4}]}

Rules:
- 3 to 8 shots per scene. shot_index is zero-based and sequential.
- image_prompt is a complete visual description of the frame: subjects, their
  position and expression, the setting, the lighting. Name characters in caps.
- video_prompt describes the motion in the frame in present tense. No sound,
  no dialogue, no cuts.
- narration is a short voiceover line (one or two sentences) in the scene's voice.
- duration_sec is 3 to 8.
Every field must be non-empty and duration_sec must be positive.`

const maxRawLog = 2000

// PlanScene sends one scene to the model and validates the returned plan.
func (b *Breakdown) PlanScene(ctx context.Context, heading, body string) (*ScenePlan, error) {
	user := fmt.Sprintf("Scene heading: %s\n\nScene text:\n%s", heading, body)

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: breakdownSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("breakdown request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}

	raw := resp.Choices[0].Message.Content
	var plan ScenePlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		b.logger.Warn("failed to parse scene plan",
			zap.Error(err),
			zap.String("raw", truncate(raw, maxRawLog)))
		return nil, fmt.Errorf("failed to parse scene plan: %w", err)
	}

	if err := plan.validate(); err != nil {
		b.logger.Warn("invalid scene plan",
			zap.Error(err),
			zap.String("raw", truncate(raw, maxRawLog)))
		return nil, err
	}

	b.logger.Info("scene plan generated",
		zap.String("heading", heading),
		zap.Int("shots", len(plan.Shots)))
	return &plan, nil
}

func (p *ScenePlan) validate() error {
	if len(p.Shots) == 0 {
		return fmt.Errorf("plan has no shots")
	}
	for i, shot := range p.Shots {
		var missing []string
		if shot.Size == "" {
			missing = append(missing, "size")
		}
		if shot.ImagePrompt == "" {
			missing = append(missing, "image_prompt")
		}
		if shot.VideoPrompt == "" {
			missing = append(missing, "video_prompt")
		}
		if shot.Narration == "" {
			missing = append(missing, "narration")
		}
		if shot.DurationSec <= 0 {
			missing = append(missing, "duration_sec")
		}
		if len(missing) > 0 {
			return fmt.Errorf("shot %d missing required fields: %s", i, strings.Join(missing, ", "))
		}
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
