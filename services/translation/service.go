package translation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/upb/lingflow/models"
	"github.com/upb/lingflow/services"
	"github.com/upb/lingflow/services/cache"
	"github.com/upb/lingflow/services/classifier"
	"github.com/upb/lingflow/services/providers"
	"github.com/upb/lingflow/services/remoteconfig"
	"github.com/upb/lingflow/services/retry"
	"github.com/upb/lingflow/services/settings"
	"go.uber.org/zap"
)

// Labels attached to classified errors
const (
	contextTranslation   = "Translation"
	contextCorrection    = "Text Correction"
	contextPrompt        = "Prompt Generation"
	contextTranscription = "Screenshot Translation"
)

// ModelRefresher loads the remote free-model list into the catalog
type ModelRefresher interface {
	Ensure(ctx context.Context) *remoteconfig.Config
}

// HistoryRecorder stores completed requests
type HistoryRecorder interface {
	Record(ctx context.Context, entry *models.HistoryEntry) error
}

// Option configures optional collaborators of the service
type Option func(*TranslationService)

// WithRemoteConfig loads the remote builtin model list before models are listed
func WithRemoteConfig(r ModelRefresher) Option {
	return func(s *TranslationService) { s.remote = r }
}

// WithHistory records every successful call
func WithHistory(h HistoryRecorder) Option {
	return func(s *TranslationService) { s.history = h }
}

// TranslationService is the entry point for translate, correct, prompt and
// screenshot requests. It resolves the provider per call, serves repeated
// requests from the cache and turns provider failures into user messages.
type TranslationService struct {
	settings   settings.Source
	factory    *providers.Factory
	catalog    *providers.Catalog
	cache      *cache.Cache
	retry      *retry.Executor
	classifier *classifier.Classifier
	remote     ModelRefresher
	history    HistoryRecorder
	logger     *zap.Logger
}

// NewTranslationService creates a new translation service
func NewTranslationService(
	settingsSource settings.Source,
	factory *providers.Factory,
	catalog *providers.Catalog,
	responseCache *cache.Cache,
	retryExecutor *retry.Executor,
	errorClassifier *classifier.Classifier,
	logger *zap.Logger,
	opts ...Option,
) *TranslationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TranslationService{
		settings:   settingsSource,
		factory:    factory,
		catalog:    catalog,
		cache:      responseCache,
		retry:      retryExecutor,
		classifier: errorClassifier,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// call describes one text completion
type call struct {
	operation string
	context   string
	text      string
	lang      string
	params    map[string]string
	build     func(text, languageName string) template
	options   providers.Options
}

// Translate translates text into the language identified by lang
func (s *TranslationService) Translate(ctx context.Context, text, lang string) (string, error) {
	return s.complete(ctx, call{
		operation: OperationTranslate,
		context:   contextTranslation,
		text:      text,
		lang:      lang,
		build:     translateTemplate,
		options:   translateOptions,
	})
}

// Correct fixes spelling, grammar and style of text written in lang
func (s *TranslationService) Correct(ctx context.Context, text, lang string) (string, error) {
	return s.complete(ctx, call{
		operation: OperationCorrect,
		context:   contextCorrection,
		text:      text,
		lang:      lang,
		build:     correctTemplate,
		options:   correctOptions,
	})
}

// GeneratePrompt rewrites text as an image or video generation prompt.
// typeTag is "image", "video", "nanobanana-gen:<style>" or "nanobanana-edit:<style>".
func (s *TranslationService) GeneratePrompt(ctx context.Context, text, lang, typeTag string) (string, error) {
	if strings.TrimSpace(typeTag) == "" {
		typeTag = PromptTypeImage
	}
	return s.complete(ctx, call{
		operation: OperationPrompt,
		context:   contextPrompt,
		text:      text,
		lang:      lang,
		params:    map[string]string{"type": typeTag},
		build: func(text, languageName string) template {
			return promptTemplate(text, languageName, typeTag)
		},
		options: promptOptions,
	})
}

func (s *TranslationService) complete(ctx context.Context, c call) (string, error) {
	if strings.TrimSpace(c.text) == "" {
		return "", services.ErrEmptyText
	}

	cfg, err := s.EffectiveConfig(ctx)
	if err != nil {
		return "", err
	}

	text := Sanitize(c.text)
	params := map[string]string{
		"text":       text,
		"targetLang": c.lang,
		"provider":   string(cfg.Provider),
	}
	for k, v := range c.params {
		params[k] = v
	}
	key := cache.Key(c.operation, params)

	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("cache hit",
			zap.String("operation", c.operation),
			zap.String("provider", string(cfg.Provider)))
		return cached, nil
	}

	provider, err := s.factory.New(cfg.Provider, cfg.APIKey)
	if err != nil {
		return "", services.WrapInternal("provider is not available", err)
	}

	tmpl := c.build(text, LanguageName(c.lang))
	req := &providers.CompletionRequest{
		Model:             cfg.Model,
		SystemInstruction: tmpl.system,
		UserPrompt:        tmpl.prompt,
		Options:           c.options,
	}

	start := time.Now()
	result, err := retry.Do(ctx, s.retry, func(ctx context.Context) (string, error) {
		return provider.Complete(ctx, req)
	})
	if err != nil {
		return "", s.fail(err, c.context)
	}

	s.cache.Set(key, result)

	s.logger.Info("completion succeeded",
		zap.String("operation", c.operation),
		zap.String("provider", string(cfg.Provider)),
		zap.String("model", cfg.Model),
		zap.Duration("latency", time.Since(start)))

	s.record(ctx, models.NewHistoryEntry(
		models.HistoryOperation(c.operation), text, result, c.lang, string(cfg.Provider), cfg.Model))

	return result, nil
}

// TranscribeScreenshot reads every visible piece of text from a screenshot and
// translates it. image is raw base64 or a data URL. The builtin proxy cannot read
// images, so a personal key for a direct provider is required.
func (s *TranslationService) TranscribeScreenshot(ctx context.Context, image, lang string) (TranscriptionResult, error) {
	cfg, err := s.EffectiveConfig(ctx)
	if err != nil {
		return TranscriptionResult{}, err
	}
	if cfg.Provider == providers.KindBuiltin {
		return TranscriptionResult{}, services.ErrCapabilityUnavailable
	}

	img, err := providers.ParseImage(image)
	if err != nil {
		return TranscriptionResult{}, services.NewDomainError(services.ErrorTypeValidation, services.ErrInvalidImage.Message, err)
	}
	data, err := img.Bytes()
	if err != nil {
		return TranscriptionResult{}, services.NewDomainError(services.ErrorTypeValidation, services.ErrInvalidImage.Message, err)
	}

	key := cache.Key(OperationTranscribe, map[string]string{
		"image":      imageDigest(data),
		"targetLang": lang,
		"provider":   string(cfg.Provider),
	})
	if cached, ok := s.cache.Get(key); ok {
		if result, ok := decodeTranscription(cached); ok {
			s.logger.Debug("cache hit",
				zap.String("operation", OperationTranscribe),
				zap.String("provider", string(cfg.Provider)))
			return result, nil
		}
	}

	provider, err := s.factory.New(cfg.Provider, cfg.APIKey)
	if err != nil {
		return TranscriptionResult{}, services.WrapInternal("provider is not available", err)
	}
	vision, ok := provider.(providers.VisionProvider)
	if !ok {
		return TranscriptionResult{}, services.ErrCapabilityUnavailable
	}

	tmpl := transcribeTemplate(LanguageName(lang))
	req := &providers.CompletionRequest{
		Model:             cfg.Model,
		SystemInstruction: tmpl.system,
		UserPrompt:        tmpl.prompt,
		Options:           transcribeOptions,
	}

	raw, err := retry.Do(ctx, s.retry, func(ctx context.Context) (string, error) {
		return vision.CompleteWithImage(ctx, req, img)
	})
	if err != nil {
		return TranscriptionResult{}, s.fail(err, contextTranscription)
	}

	result := ParseTranscription(raw)
	s.cache.Set(key, result.encode())

	s.logger.Info("transcription succeeded",
		zap.String("provider", string(cfg.Provider)),
		zap.String("model", cfg.Model),
		zap.Int("image_bytes", len(data)))

	s.record(ctx, models.NewHistoryEntry(
		models.HistoryOperationTranscribe, result.Transcription, result.Translation, lang, string(cfg.Provider), cfg.Model))

	return result, nil
}

func (s *TranslationService) fail(err error, label string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	classified := s.classifier.Classify(err, label)
	return classified.DomainError(err)
}

func (s *TranslationService) record(ctx context.Context, entry *models.HistoryEntry) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record history",
			zap.String("operation", string(entry.Operation)),
			zap.Error(err))
	}
}

// CacheStats reports cache usage
func (s *TranslationService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ClearCache drops cached responses for operation, or all of them when operation
// is empty, and returns how many were removed
func (s *TranslationService) ClearCache(operation string) int {
	if operation == "" {
		n := s.cache.Len()
		s.cache.Clear()
		return n
	}
	return s.cache.InvalidateOperation(operation)
}

// ErrorLog returns recently classified failures, newest first
func (s *TranslationService) ErrorLog() []classifier.ClassifiedError {
	return s.classifier.Log()
}

// ClearErrorLog empties the error log
func (s *TranslationService) ClearErrorLog() {
	s.classifier.ClearLog()
}

// Models returns the model tables, loading the remote builtin list on first use
func (s *TranslationService) Models(ctx context.Context) map[providers.Kind][]providers.ModelInfo {
	if s.remote != nil {
		s.remote.Ensure(ctx)
	}
	return s.catalog.All()
}
