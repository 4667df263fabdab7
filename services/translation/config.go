package translation

import (
	"context"

	"github.com/upb/lingflow/services"
	"github.com/upb/lingflow/services/providers"
	"github.com/upb/lingflow/services/settings"
)

// EffectiveConfig is the provider, key and model used for one call
type EffectiveConfig struct {
	Provider providers.Kind `json:"provider"`
	APIKey   string         `json:"-"`
	Model    string         `json:"model"`
}

// ResolveConfig derives the effective configuration from user settings.
// The builtin proxy never carries a key; direct providers require one.
func ResolveConfig(s settings.Settings, catalog *providers.Catalog) (EffectiveConfig, error) {
	kind, err := providers.ParseKind(s.APIProvider)
	if err != nil {
		return EffectiveConfig{}, services.ErrInvalidProvider
	}

	cfg := EffectiveConfig{
		Provider: kind,
		Model:    catalog.ResolveModel(kind, s.SelectedModel),
	}

	switch kind {
	case providers.KindBuiltin:
		return cfg, nil
	case providers.KindOpenAI:
		cfg.APIKey = firstNonEmpty(s.OpenAIAPIKey, s.UserAPIKey)
	case providers.KindGemini:
		cfg.APIKey = firstNonEmpty(s.GeminiAPIKey, s.UserAPIKey)
	}

	if cfg.APIKey == "" {
		return EffectiveConfig{}, services.ErrCredentialsRequired
	}
	return cfg, nil
}

// EffectiveConfig reads the current settings and resolves them
func (s *TranslationService) EffectiveConfig(ctx context.Context) (EffectiveConfig, error) {
	current, err := s.settings.Settings(ctx)
	if err != nil {
		return EffectiveConfig{}, services.WrapInternal("failed to load settings", err)
	}
	return ResolveConfig(current, s.catalog)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
