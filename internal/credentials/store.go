// Package credentials keeps one API key per provider plus the last selected
// provider. Stores are loaded once at session start and change only through
// Save and SelectProvider.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anime-shed/ux-critique-go/internal/logger"
	"github.com/anime-shed/ux-critique-go/pkg/models"

	"gopkg.in/yaml.v3"
)

// Store is the persisted provider configuration
type Store interface {
	Load() error
	Credential(provider models.Provider) (models.Credential, bool)
	Save(cred models.Credential) error
	SelectedProvider() models.Provider
	SelectProvider(provider models.Provider) error
}

// fileLayout is the on-disk YAML document
type fileLayout struct {
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`
	GoogleAPIKey string `yaml:"google_api_key,omitempty"`
	AIProvider   string `yaml:"ai_provider,omitempty"`
}

// MemoryStore keeps credentials in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	secrets  map[models.Provider]string
	selected models.Provider
}

// NewMemoryStore creates an empty store selecting openai
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		secrets:  make(map[models.Provider]string),
		selected: models.ProviderOpenAI,
	}
}

// Load is a no-op for the memory store
func (m *MemoryStore) Load() error { return nil }

// Credential returns the saved credential for provider
func (m *MemoryStore) Credential(provider models.Provider) (models.Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	secret, ok := m.secrets[provider]
	if !ok || strings.TrimSpace(secret) == "" {
		return models.Credential{Provider: provider}, false
	}
	return models.Credential{Provider: provider, Secret: secret}, true
}

// Save stores cred, replacing any earlier secret for the same provider.
// A blank secret clears the entry.
func (m *MemoryStore) Save(cred models.Credential) error {
	if _, err := models.ParseProvider(string(cred.Provider)); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(cred.Secret) == "" {
		delete(m.secrets, cred.Provider)
		return nil
	}
	m.secrets[cred.Provider] = strings.TrimSpace(cred.Secret)
	return nil
}

// SelectedProvider returns the last selected provider
func (m *MemoryStore) SelectedProvider() models.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// SelectProvider changes the selected provider
func (m *MemoryStore) SelectProvider(provider models.Provider) error {
	p, err := models.ParseProvider(string(provider))
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = p
	return nil
}

// FileStore persists credentials to a YAML file readable only by its owner
type FileStore struct {
	path string
	mem  *MemoryStore
	// writeMu serializes snapshot and write so saves land in order
	writeMu sync.Mutex
}

// NewFileStore creates a store backed by path. Call Load before use.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, mem: NewMemoryStore()}
}

// Path returns the backing file location
func (f *FileStore) Path() string { return f.path }

// Load reads the file. A missing file yields an empty store.
func (f *FileStore) Load() error {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials file: %w", err)
	}

	var layout fileLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return fmt.Errorf("failed to parse credentials file: %w", err)
	}

	mem := NewMemoryStore()
	mem.secrets[models.ProviderOpenAI] = layout.OpenAIAPIKey
	mem.secrets[models.ProviderGoogle] = layout.GoogleAPIKey
	if p, err := models.ParseProvider(layout.AIProvider); err == nil {
		mem.selected = p
	} else if layout.AIProvider != "" {
		logger.WithField("ai_provider", layout.AIProvider).Warn("Unknown provider in credentials file, using openai")
	}
	f.mem = mem
	return nil
}

// Credential returns the saved credential for provider
func (f *FileStore) Credential(provider models.Provider) (models.Credential, bool) {
	return f.mem.Credential(provider)
}

// Save stores cred and rewrites the file
func (f *FileStore) Save(cred models.Credential) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	if err := f.mem.Save(cred); err != nil {
		return err
	}
	return f.write()
}

// SelectedProvider returns the last selected provider
func (f *FileStore) SelectedProvider() models.Provider {
	return f.mem.SelectedProvider()
}

// SelectProvider changes the selected provider and rewrites the file
func (f *FileStore) SelectProvider(provider models.Provider) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	if err := f.mem.SelectProvider(provider); err != nil {
		return err
	}
	return f.write()
}

func (f *FileStore) write() error {
	openai, _ := f.mem.Credential(models.ProviderOpenAI)
	google, _ := f.mem.Credential(models.ProviderGoogle)
	layout := fileLayout{
		OpenAIAPIKey: openai.Secret,
		GoogleAPIKey: google.Secret,
		AIProvider:   string(f.mem.SelectedProvider()),
	}

	data, err := yaml.Marshal(&layout)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}
