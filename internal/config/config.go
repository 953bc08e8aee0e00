package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Host               string        `envconfig:"HOST" default:"0.0.0.0"`
	Port               string        `envconfig:"PORT" default:"8080"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
	ImageFetchTimeout  time.Duration `envconfig:"IMAGE_FETCH_TIMEOUT" default:"15s"`
	AnalysisTimeout    time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"55s"`
	MaxRequestBodySize int64         `envconfig:"MAX_REQUEST_BODY_SIZE" default:"10485760"` // 10MB

	OpenAI    ProviderConfig `envconfig:"OPENAI"`
	Google    ProviderConfig `envconfig:"GOOGLE"`
	Analysis  AnalysisConfig
	Storage   StorageConfig
	CORS      CORSConfig
	Logging   LogConfig
	CredsFile string `envconfig:"CREDENTIALS_FILE"`
}

// ProviderConfig holds the endpoint settings of one AI provider.
// Secrets are never part of the config: they arrive with each request.
type ProviderConfig struct {
	BaseURL string `envconfig:"BASE_URL"`
	Model   string `envconfig:"MODEL"`
}

type AnalysisConfig struct {
	MaxOutputTokens     int64  `envconfig:"MAX_OUTPUT_TOKENS" default:"2000"`
	PromptVariant       string `envconfig:"PROMPT_VARIANT" default:"detailed"`
	MalformedSampleSize int    `envconfig:"MALFORMED_SAMPLE_SIZE" default:"200"`
}

type StorageConfig struct {
	AllowedImageHosts []string `envconfig:"ALLOWED_IMAGE_HOSTS"`
	AzureAccount      string   `envconfig:"AZURE_STORAGE_ACCOUNT"`
	AzureKey          string   `envconfig:"AZURE_STORAGE_KEY"`
}

type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1/"
	DefaultOpenAIModel   = "gpt-4o"
	DefaultGoogleBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGoogleModel   = "gemini-1.5-flash"
)

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob URLs can be fetched with account credentials
func (c *Config) AzureEnabled() bool {
	return c.Storage.AzureAccount != "" && c.Storage.AzureKey != ""
}

func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	cfg := &Config{
		Host:               "0.0.0.0",
		Port:               "8080",
		RequestTimeout:     60 * time.Second,
		ImageFetchTimeout:  15 * time.Second,
		AnalysisTimeout:    55 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024,
		Analysis: AnalysisConfig{
			MaxOutputTokens:     2000,
			PromptVariant:       "detailed",
			MalformedSampleSize: 200,
		},
		CORS:    CORSConfig{AllowOrigins: []string{"*"}},
		Logging: LogConfig{Level: "info", Format: "json"},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = DefaultOpenAIBaseURL
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = DefaultOpenAIModel
	}
	if c.Google.BaseURL == "" {
		c.Google.BaseURL = DefaultGoogleBaseURL
	}
	if c.Google.Model == "" {
		c.Google.Model = DefaultGoogleModel
	}
	if c.CredsFile == "" {
		c.CredsFile = defaultCredentialsFile()
	}
}

// Validate checks ranges that envconfig cannot express
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.Analysis.MaxOutputTokens <= 0 {
		return fmt.Errorf("MAX_OUTPUT_TOKENS must be > 0 (got %d)", c.Analysis.MaxOutputTokens)
	}
	if c.Analysis.MalformedSampleSize <= 0 {
		return fmt.Errorf("MALFORMED_SAMPLE_SIZE must be > 0 (got %d)", c.Analysis.MalformedSampleSize)
	}
	switch c.Analysis.PromptVariant {
	case "detailed", "checklist":
	default:
		return fmt.Errorf("invalid PROMPT_VARIANT: %q", c.Analysis.PromptVariant)
	}
	return nil
}

func defaultCredentialsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "credentials.yaml"
	}
	return filepath.Join(dir, "ux-critique", "credentials.yaml")
}
