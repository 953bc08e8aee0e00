package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/ux-critique-go/internal/analysis"
	"github.com/anime-shed/ux-critique-go/internal/config"
	"github.com/anime-shed/ux-critique-go/internal/factory"
	"github.com/anime-shed/ux-critique-go/internal/logger"
	"github.com/anime-shed/ux-critique-go/internal/observer"
	"github.com/anime-shed/ux-critique-go/internal/repository"
	"github.com/anime-shed/ux-critique-go/internal/service"
	"github.com/anime-shed/ux-critique-go/internal/transport"
	"github.com/anime-shed/ux-critique-go/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	pipeline        *analysis.Pipeline
	imageRepository repository.ImageRepository
	events          *observer.EventPublisher
	metrics         *observer.MetricsObserver
	critiqueService service.CritiqueService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)

	components := factory.NewComponentFactory(cfg)

	// Build dependency graph
	pipeline, err := NewPipeline(cfg, components)
	if err != nil {
		return nil, err
	}

	httpFetcher, err := components.StorageFactory.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, err
	}
	blobFetcher, err := components.BlobStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to configure azure storage: %w", err)
	}

	urlValidator := validation.NewURLValidator()
	if len(cfg.Storage.AllowedImageHosts) > 0 {
		urlValidator = validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.Storage.AllowedImageHosts)
	}
	imageRepository := repository.NewImageRepository(
		httpFetcher,
		blobFetcher,
		urlValidator,
		validation.NewImageValidator(cfg.MaxRequestBodySize),
	)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	critiqueService := service.NewCritiqueService(imageRepository, pipeline, service.NewInFlightGuard(), events)
	handler := transport.NewHandler(critiqueService, metrics.Handler(), cfg)

	logger.WithFields(logrus.Fields{
		"prompt_variant": pipeline.PromptVariant(),
		"azure_enabled":  blobFetcher != nil,
		"allowed_hosts":  cfg.Storage.AllowedImageHosts,
	}).Info("Container initialized")

	return &Container{
		config:          cfg,
		pipeline:        pipeline,
		imageRepository: imageRepository,
		events:          events,
		metrics:         metrics,
		critiqueService: critiqueService,
		handler:         handler,
	}, nil
}

// NewPipeline builds the analysis pipeline with every provider registered
func NewPipeline(cfg *config.Config, components *factory.ComponentFactory) (*analysis.Pipeline, error) {
	registry, err := components.ProviderRegistry()
	if err != nil {
		return nil, err
	}

	opts := analysis.DefaultOptions().
		WithPromptVariant(cfg.Analysis.PromptVariant).
		WithTimeout(cfg.AnalysisTimeout).
		WithSampleSize(cfg.Analysis.MalformedSampleSize)

	pipeline, err := analysis.NewPipeline(registry, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis pipeline: %w", err)
	}
	return pipeline, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Pipeline returns the analysis pipeline
func (c *Container) Pipeline() *analysis.Pipeline {
	return c.pipeline
}

// CritiqueService returns the critique service
func (c *Container) CritiqueService() service.CritiqueService {
	return c.critiqueService
}

// Close waits for pending event notifications
func (c *Container) Close() {
	c.events.Wait()
}
