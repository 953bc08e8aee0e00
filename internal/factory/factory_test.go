package factory

import (
	"testing"

	"github.com/anime-shed/ux-critique-go/internal/config"
	"github.com/anime-shed/ux-critique-go/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderFactory_CreateProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Google.Model = "gemini-test"
	f := NewProviderFactory(cfg)

	tests := []struct {
		name      models.Provider
		wantModel string
		wantErr   bool
	}{
		{models.ProviderOpenAI, config.DefaultOpenAIModel, false},
		{models.ProviderGoogle, "gemini-test", false},
		{models.Provider("anthropic"), "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			p, err := f.CreateProvider(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, p.Name())
			assert.Equal(t, tt.wantModel, p.Model())
		})
	}
}

func TestComponentFactory_ProviderRegistry(t *testing.T) {
	registry, err := NewComponentFactory(config.Default()).ProviderRegistry()
	require.NoError(t, err)

	for _, name := range models.Providers() {
		p, err := registry.Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}
}

func TestStorageFactory_CreateStorage(t *testing.T) {
	cfg := config.Default()
	f := NewStorageFactory(cfg)

	fetcher, err := f.CreateStorage(HTTPStorage)
	require.NoError(t, err)
	assert.NotNil(t, fetcher)

	_, err = f.CreateStorage(AzureStorage)
	assert.Error(t, err, "azure needs an account and key")

	_, err = f.CreateStorage(StorageType("local"))
	assert.Error(t, err)
}

func TestComponentFactory_BlobStorage(t *testing.T) {
	cfg := config.Default()
	blob, err := NewComponentFactory(cfg).BlobStorage()
	require.NoError(t, err)
	assert.Nil(t, blob)

	cfg.Storage.AzureAccount = "shots"
	cfg.Storage.AzureKey = "bm90LWEtcmVhbC1rZXk="
	blob, err = NewComponentFactory(cfg).BlobStorage()
	require.NoError(t, err)
	assert.NotNil(t, blob)
}
