// Package provider adapts the external vision model services to a single
// Generate call returning the model's raw reply text.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/pkg/models"
)

// Provider sends one image and instruction to a model service
type Provider interface {
	Name() models.Provider
	Model() string
	// Generate returns the reply text. An empty string means the service
	// answered without any text.
	Generate(ctx context.Context, secret string, image models.ImageArtifact, prompt string) (string, error)
}

// Config holds the settings shared by every adapter
type Config struct {
	BaseURL         string
	Model           string
	MaxOutputTokens int
}

// Registry resolves providers by name
type Registry struct {
	mu        sync.RWMutex
	providers map[models.Provider]Provider
}

// NewRegistry creates a registry holding the given providers
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[models.Provider]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider registered under name
func (r *Registry) Get(name models.Provider) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported provider: %s", name), nil)
	}
	return p, nil
}

// classifyTransportError maps a failure that never produced a provider
// response onto the error taxonomy.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("the AI provider did not answer in time", err)
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.NewUpstreamError("the AI provider request was cancelled", err)
	}
	return apperrors.NewUpstreamError("", err)
}
