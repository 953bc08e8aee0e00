package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress())
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxRequestBodySize)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAI.Model)
	assert.Equal(t, DefaultGoogleModel, cfg.Google.Model)
	assert.Equal(t, "detailed", cfg.Analysis.PromptVariant)
	assert.Equal(t, 200, cfg.Analysis.MalformedSampleSize)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
	assert.False(t, cfg.AzureEnabled())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("GOOGLE_BASE_URL", "http://localhost:1234")
	t.Setenv("PROMPT_VARIANT", "checklist")
	t.Setenv("ANALYSIS_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://localhost:3000,https://example.com")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "acct")
	t.Setenv("AZURE_STORAGE_KEY", "a2V5")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "http://localhost:1234", cfg.Google.BaseURL)
	assert.Equal(t, "checklist", cfg.Analysis.PromptVariant)
	assert.Equal(t, 5*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://example.com"}, cfg.CORS.AllowOrigins)
	assert.True(t, cfg.AzureEnabled())
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "PORT", "70000"},
		{"non numeric port", "PORT", "http"},
		{"zero body size", "MAX_REQUEST_BODY_SIZE", "0"},
		{"unknown prompt variant", "PROMPT_VARIANT", "verbose"},
		{"negative timeout", "REQUEST_TIMEOUT", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}
