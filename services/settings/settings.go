package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings is the user-controlled configuration the core reads on every call
type Settings struct {
	APIProvider   string `yaml:"api_provider" json:"api_provider"`
	SelectedModel string `yaml:"selected_model" json:"selected_model"`
	OpenAIAPIKey  string `yaml:"openai_api_key" json:"-"`
	GeminiAPIKey  string `yaml:"gemini_api_key" json:"-"`

	// UserAPIKey is the legacy single key used when the provider-specific key is empty
	UserAPIKey string `yaml:"user_api_key" json:"-"`
}

// Source supplies the current settings
type Source interface {
	Settings(ctx context.Context) (Settings, error)
}

// FileSource reads settings from a YAML file on every call, so edits apply to the
// next request without a restart. A missing file yields zero settings (builtin).
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the backing file
func (f *FileSource) Path() string {
	return f.path
}

// Settings implements Source
func (f *FileSource) Settings(ctx context.Context) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", f.path, err)
	}
	return s, nil
}

// Save writes s to the file, creating parent directories. The file is only
// readable by the owner since it contains API keys.
func (f *FileSource) Save(s Settings) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(f.path, b, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// DefaultPath returns ~/.config/lingflow/settings.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lingflow", "settings.yaml"), nil
}

// StaticSource always returns the same settings. Safe for concurrent use.
type StaticSource struct {
	mu sync.RWMutex
	s  Settings
}

// NewStaticSource creates a StaticSource
func NewStaticSource(s Settings) *StaticSource {
	return &StaticSource{s: s}
}

// Settings implements Source
func (s *StaticSource) Settings(ctx context.Context) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.s, nil
}

// Set replaces the settings
func (s *StaticSource) Set(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s = settings
}

// Override layers non-empty fields of Overrides on top of Base
type Override struct {
	Base      Source
	Overrides Settings
}

// Settings implements Source
func (o Override) Settings(ctx context.Context) (Settings, error) {
	s, err := o.Base.Settings(ctx)
	if err != nil {
		return Settings{}, err
	}
	if o.Overrides.APIProvider != "" {
		s.APIProvider = o.Overrides.APIProvider
	}
	if o.Overrides.SelectedModel != "" {
		s.SelectedModel = o.Overrides.SelectedModel
	}
	if o.Overrides.OpenAIAPIKey != "" {
		s.OpenAIAPIKey = o.Overrides.OpenAIAPIKey
	}
	if o.Overrides.GeminiAPIKey != "" {
		s.GeminiAPIKey = o.Overrides.GeminiAPIKey
	}
	if o.Overrides.UserAPIKey != "" {
		s.UserAPIKey = o.Overrides.UserAPIKey
	}
	return s, nil
}
