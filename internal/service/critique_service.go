package service

import (
	"context"
	"strings"
	"time"

	"github.com/anime-shed/ux-critique-go/internal/analysis"
	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/internal/observer"
	"github.com/anime-shed/ux-critique-go/internal/repository"
	"github.com/anime-shed/ux-critique-go/pkg/models"
	"github.com/anime-shed/ux-critique-go/pkg/validation"

	"github.com/google/uuid"
)

// CritiqueRequest is one inbound analysis. Exactly one of Upload or
// ImageURL names the image.
type CritiqueRequest struct {
	Provider   string
	APIKey     string
	Context    string
	ImageURL   string
	Upload     []byte
	UploadName string
}

// CritiqueService defines the interface for screenshot critique
type CritiqueService interface {
	// Analyze critiques the request's image. sessionKey identifies the caller
	// for the one-analysis-at-a-time rule.
	Analyze(ctx context.Context, sessionKey string, req CritiqueRequest) (*models.AnalysisResult, error)
}

// critiqueService implements CritiqueService
type critiqueService struct {
	imageRepo repository.ImageRepository
	pipeline  *analysis.Pipeline
	guard     *InFlightGuard
	events    observer.Subject
}

// NewCritiqueService creates a new critique service
func NewCritiqueService(
	imageRepository repository.ImageRepository,
	pipeline *analysis.Pipeline,
	guard *InFlightGuard,
	events observer.Subject,
) CritiqueService {
	if guard == nil {
		guard = NewInFlightGuard()
	}
	return &critiqueService{
		imageRepo: imageRepository,
		pipeline:  pipeline,
		guard:     guard,
		events:    events,
	}
}

// Analyze checks the request, takes the session's slot, resolves the image
// and runs the pipeline. Parameter errors are returned before any network I/O.
func (s *critiqueService) Analyze(ctx context.Context, sessionKey string, req CritiqueRequest) (*models.AnalysisResult, error) {
	provider, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	analysisID := uuid.NewString()
	source := imageSource(req)

	release, ok := s.guard.TryAcquire(sessionKey)
	if !ok {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:   observer.AnalysisRejected,
			AnalysisID:  analysisID,
			Provider:    string(provider),
			ImageSource: source,
		})
		return nil, apperrors.NewInProgressError()
	}
	defer release()

	start := time.Now()
	s.publish(ctx, observer.AnalysisEvent{
		EventType:   observer.AnalysisStarted,
		AnalysisID:  analysisID,
		Provider:    string(provider),
		ImageSource: source,
	})

	result, err := s.run(ctx, provider, req)
	if err != nil {
		event := observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			AnalysisID:     analysisID,
			Provider:       string(provider),
			ImageSource:    source,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
			ErrorType:      string(apperrors.ErrorTypeInternal),
		}
		if appErr, ok := apperrors.As(err); ok {
			event.ErrorType = string(appErr.Type)
		}
		s.publish(ctx, event)
		return nil, err
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		AnalysisID:     analysisID,
		Provider:       string(provider),
		ImageSource:    source,
		ProcessingTime: time.Since(start),
		Success:        true,
		EntryCount:     len(result.Entries),
		Dropped:        result.Dropped,
	})
	return result, nil
}

func (s *critiqueService) run(ctx context.Context, provider models.Provider, req CritiqueRequest) (*models.AnalysisResult, error) {
	var (
		image models.ImageArtifact
		err   error
	)
	if len(req.Upload) > 0 {
		image, err = s.imageRepo.FromUpload(req.Upload, req.UploadName)
	} else {
		image, err = s.imageRepo.FetchImage(ctx, req.ImageURL)
	}
	if err != nil {
		return nil, err
	}

	return s.pipeline.Analyze(ctx, analysis.Request{
		Provider:   provider,
		Credential: models.Credential{Provider: provider, Secret: strings.TrimSpace(req.APIKey)},
		Image:      image,
		Context:    req.Context,
	})
}

func (s *critiqueService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.events == nil {
		return
	}
	s.events.NotifyObservers(ctx, event)
}

func validateRequest(req CritiqueRequest) (models.Provider, error) {
	hasUpload := len(req.Upload) > 0
	hasURL := strings.TrimSpace(req.ImageURL) != ""
	switch {
	case !hasUpload && !hasURL:
		return "", apperrors.NewValidationError("an image file or imageUrl is required", nil)
	case hasUpload && hasURL:
		return "", apperrors.NewValidationError("provide either an image file or imageUrl, not both", nil)
	}

	if strings.TrimSpace(req.Provider) == "" {
		return "", apperrors.NewValidationError("provider is required", nil)
	}
	provider, err := models.ParseProvider(req.Provider)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error(), err)
	}

	if strings.TrimSpace(req.APIKey) == "" {
		return "", apperrors.NewMissingCredentialError(string(provider))
	}
	return provider, nil
}

func imageSource(req CritiqueRequest) string {
	if len(req.Upload) > 0 {
		return "upload"
	}
	if validation.IsAzureBlobURL(req.ImageURL) {
		return "azure"
	}
	return "url"
}
