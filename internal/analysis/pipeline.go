// Package analysis turns a still image into structured UX critique entries:
// it builds the instruction, invokes the selected provider and normalizes
// the reply.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/internal/logger"
	"github.com/anime-shed/ux-critique-go/internal/prompt"
	"github.com/anime-shed/ux-critique-go/internal/provider"
	"github.com/anime-shed/ux-critique-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// Request is a single analysis invocation
type Request struct {
	Provider   models.Provider
	Credential models.Credential
	Image      models.ImageArtifact
	// Context is optional free text describing the screen
	Context string
}

// Pipeline runs BuildPrompt, Invoke and Normalize in order
type Pipeline struct {
	providers  *provider.Registry
	builder    *prompt.Builder
	normalizer *Normalizer
	opts       Options
}

// NewPipeline creates a pipeline over the given providers
func NewPipeline(providers *provider.Registry, opts Options) (*Pipeline, error) {
	template, err := prompt.TemplateByName(opts.PromptVariant)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Pipeline{
		providers:  providers,
		builder:    prompt.NewBuilder(template),
		normalizer: NewNormalizer(opts.SampleSize),
		opts:       opts,
	}, nil
}

// BuildPrompt returns the instruction sent with the image
func (p *Pipeline) BuildPrompt(userContext string) string {
	return p.builder.Build(userContext)
}

// Invoke sends the image and instruction to the provider and returns the
// raw reply text. A blank secret fails before any network activity.
func (p *Pipeline) Invoke(ctx context.Context, name models.Provider, cred models.Credential, image models.ImageArtifact, instruction string) (string, error) {
	if !cred.Configured() {
		return "", apperrors.NewMissingCredentialError(string(name))
	}

	adapter, err := p.providers.Get(name)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	start := time.Now()
	text, err := adapter.Generate(ctx, cred.Secret, image, instruction)
	fields := logrus.Fields{
		"provider":    name,
		"model":       adapter.Model(),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("Provider invocation failed")
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		logger.WithFields(fields).Warn("Provider returned no text")
		return "", apperrors.NewEmptyResponseError()
	}

	logger.WithFields(fields).Debug("Provider invocation completed")
	return text, nil
}

// Normalize reduces reply text to critique entries
func (p *Pipeline) Normalize(rawText string) ([]models.CritiqueEntry, int, error) {
	return p.normalizer.Normalize(rawText)
}

// Analyze runs the whole pipeline for one request
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*models.AnalysisResult, error) {
	if req.Image.Empty() {
		return nil, apperrors.NewValidationError("an image is required", nil)
	}
	if req.Credential.Provider == "" {
		req.Credential.Provider = req.Provider
	}

	text, err := p.Invoke(ctx, req.Provider, req.Credential, req.Image, p.BuildPrompt(req.Context))
	if err != nil {
		return nil, err
	}

	entries, dropped, err := p.Normalize(text)
	if err != nil {
		return nil, err
	}

	result := &models.AnalysisResult{
		Entries:  entries,
		Provider: req.Provider,
		Dropped:  dropped,
	}
	if adapter, err := p.providers.Get(req.Provider); err == nil {
		result.Model = adapter.Model()
	}
	return result, nil
}

// PromptVariant returns the active template name
func (p *Pipeline) PromptVariant() string {
	return p.builder.GetCurrentTemplate()
}
