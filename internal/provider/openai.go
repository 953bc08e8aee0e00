package provider

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/internal/logger"
	"github.com/anime-shed/ux-critique-go/pkg/models"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

// OpenAI calls the chat completions endpoint with an image_url content part
type OpenAI struct {
	cfg Config
}

// NewOpenAI creates the OpenAI adapter. The API key is supplied per call.
func NewOpenAI(cfg Config) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return &OpenAI{cfg: cfg}
}

// Name returns the provider identifier
func (o *OpenAI) Name() models.Provider { return models.ProviderOpenAI }

// Model returns the configured model name
func (o *OpenAI) Model() string { return o.cfg.Model }

// Generate sends the prompt and image as one user message
func (o *OpenAI) Generate(ctx context.Context, secret string, image models.ImageArtifact, prompt string) (string, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(secret),
		option.WithMaxRetries(0),
	}
	if o.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: image.DataURL(),
				}),
			}),
		},
	}
	if o.cfg.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.cfg.MaxOutputTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			logger.WithFields(logrus.Fields{
				"provider":    models.ProviderOpenAI,
				"status_code": apiErr.StatusCode,
			}).Warn("OpenAI request rejected")
			return "", apperrors.NewUpstreamError(strings.TrimSpace(apiErr.Message), err)
		}
		logger.WithError(err).WithField("provider", models.ProviderOpenAI).Warn("OpenAI request failed")
		return "", classifyTransportError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
