package models

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// ImageArtifact is a still image handed to the analysis pipeline.
// Artifacts are immutable: a new capture produces a new artifact.
type ImageArtifact struct {
	ID         string    `json:"id"`
	Bytes      []byte    `json:"-"`
	MimeType   string    `json:"mime_type"`
	Source     string    `json:"source,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Base64 returns the artifact bytes base64-encoded
func (a ImageArtifact) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Bytes)
}

// DataURL returns the artifact as a data: URL
func (a ImageArtifact) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MimeType, a.Base64())
}

// Empty reports whether the artifact carries no image data
func (a ImageArtifact) Empty() bool {
	return len(a.Bytes) == 0
}

// Provider identifies an external vision-capable model service
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGoogle Provider = "google"
)

// Providers lists every supported provider in display order
func Providers() []Provider {
	return []Provider{ProviderOpenAI, ProviderGoogle}
}

// ParseProvider converts a form or config value into a Provider
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderGoogle:
		return ProviderGoogle, nil
	default:
		return "", fmt.Errorf("unsupported provider: %q", s)
	}
}

// Credential is the secret used to call a single provider
type Credential struct {
	Provider Provider
	Secret   string
}

// String masks the secret so credentials are safe to print
func (c Credential) String() string {
	if len(c.Secret) <= 4 {
		return fmt.Sprintf("%s:****", c.Provider)
	}
	return fmt.Sprintf("%s:****%s", c.Provider, c.Secret[len(c.Secret)-4:])
}

// Configured reports whether the credential has a non-blank secret
func (c Credential) Configured() bool {
	return strings.TrimSpace(c.Secret) != ""
}
