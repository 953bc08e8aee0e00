package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/internal/logger"
	"github.com/anime-shed/ux-critique-go/pkg/models"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultGoogleBaseURL = "https://generativelanguage.googleapis.com"
	generateContentPath  = "/v1beta/models/{model}:generateContent"
)

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Google calls the Gemini generateContent REST endpoint
type Google struct {
	cfg    Config
	client *resty.Client
}

// NewGoogle creates the Google adapter. The API key is supplied per call.
func NewGoogle(cfg Config) *Google {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGoogleBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)

	return &Google{cfg: cfg, client: client}
}

// Name returns the provider identifier
func (g *Google) Name() models.Provider { return models.ProviderGoogle }

// Model returns the configured model name
func (g *Google) Model() string { return g.cfg.Model }

// Generate sends the prompt and inline image as a single user turn
func (g *Google) Generate(ctx context.Context, secret string, image models.ImageArtifact, prompt string) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &geminiInlineData{MimeType: image.MimeType, Data: image.Base64()}},
			},
		}},
	}
	if g.cfg.MaxOutputTokens > 0 {
		body.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: g.cfg.MaxOutputTokens}
	}

	var result geminiResponse
	var apiErr geminiError
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", secret).
		SetPathParam("model", g.cfg.Model).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post(generateContentPath)
	if err != nil {
		logger.WithError(err).WithField("provider", models.ProviderGoogle).Warn("Gemini request failed")
		return "", classifyTransportError(ctx, err)
	}

	if resp.IsError() {
		logger.WithFields(logrus.Fields{
			"provider":    models.ProviderGoogle,
			"status_code": resp.StatusCode(),
		}).Warn("Gemini request rejected")
		return "", apperrors.NewUpstreamError(strings.TrimSpace(apiErr.Error.Message),
			fmt.Errorf("gemini responded %d %s", resp.StatusCode(), http.StatusText(resp.StatusCode())))
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", apperrors.NewUpstreamError(
			fmt.Sprintf("the request was blocked by the provider: %s", result.PromptFeedback.BlockReason), nil)
	}

	if len(result.Candidates) == 0 {
		return "", nil
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}
