package factory

import (
	"fmt"

	"github.com/anime-shed/ux-critique-go/internal/config"
	"github.com/anime-shed/ux-critique-go/internal/provider"
	"github.com/anime-shed/ux-critique-go/internal/storage"
	"github.com/anime-shed/ux-critique-go/pkg/models"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// ProviderFactory creates AI provider adapters
type ProviderFactory interface {
	CreateProvider(name models.Provider) (provider.Provider, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// providerFactory implements ProviderFactory
type providerFactory struct {
	cfg *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) ProviderFactory {
	return &providerFactory{cfg: cfg}
}

// CreateProvider creates the adapter for the named provider
func (f *providerFactory) CreateProvider(name models.Provider) (provider.Provider, error) {
	tokens := int(f.cfg.Analysis.MaxOutputTokens)
	switch name {
	case models.ProviderOpenAI:
		return provider.NewOpenAI(provider.Config{
			BaseURL:         f.cfg.OpenAI.BaseURL,
			Model:           f.cfg.OpenAI.Model,
			MaxOutputTokens: tokens,
		}), nil
	case models.ProviderGoogle:
		return provider.NewGoogle(provider.Config{
			BaseURL:         f.cfg.Google.BaseURL,
			Model:           f.cfg.Google.Model,
			MaxOutputTokens: tokens,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		// An explicit host allow-list is trusted to name internal hosts
		publicOnly := len(f.cfg.Storage.AllowedImageHosts) == 0
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, f.cfg.MaxRequestBodySize, publicOnly), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		fetcher, err := storage.NewAzureImageFetcher(f.cfg.Storage.AzureAccount, f.cfg.Storage.AzureKey, f.cfg.MaxRequestBodySize)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	ProviderFactory ProviderFactory
	StorageFactory  StorageFactory

	cfg *config.Config
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		ProviderFactory: NewProviderFactory(cfg),
		StorageFactory:  NewStorageFactory(cfg),
		cfg:             cfg,
	}
}

// ProviderRegistry creates every supported provider and registers it
func (f *ComponentFactory) ProviderRegistry() (*provider.Registry, error) {
	registry := provider.NewRegistry()
	for _, name := range models.Providers() {
		p, err := f.ProviderFactory.CreateProvider(name)
		if err != nil {
			return nil, err
		}
		registry.Register(p)
	}
	return registry, nil
}

// BlobStorage returns the Azure fetcher, or nil when Azure is not configured
func (f *ComponentFactory) BlobStorage() (storage.ImageFetcher, error) {
	if !f.cfg.AzureEnabled() {
		return nil, nil
	}
	return f.StorageFactory.CreateStorage(AzureStorage)
}
