package translation

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

// fakeProvider records every request and replays scripted results
type fakeProvider struct {
	mu       sync.Mutex
	apiKey   string
	replies  []string
	errs     []error
	requests []*providers.CompletionRequest
	images   []providers.Image
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req *providers.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.next()
}

func (f *fakeProvider) CompleteWithImage(ctx context.Context, req *providers.CompletionRequest, img providers.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.images = append(f.images, img)
	return f.next()
}

func (f *fakeProvider) next() (string, error) {
	i := len(f.requests) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "ok", nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// textOnlyProvider cannot read images
type textOnlyProvider struct{}

func (textOnlyProvider) Name() string { return "text-only" }

func (textOnlyProvider) Complete(ctx context.Context, req *providers.CompletionRequest) (string, error) {
	return "ok", nil
}

type recordingHistory struct {
	entries []*models.HistoryEntry
	err     error
}

func (h *recordingHistory) Record(ctx context.Context, entry *models.HistoryEntry) error {
	h.entries = append(h.entries, entry)
	return h.err
}

type countingRefresher struct {
	calls int
}

func (r *countingRefresher) Ensure(ctx context.Context) *remoteconfig.Config {
	r.calls++
	return nil
}

type fixture struct {
	service    *TranslationService
	provider   *fakeProvider
	settings   *settings.StaticSource
	cache      *cache.Cache
	classifier *classifier.Classifier
	retry      *retry.Executor
	sleeps     []time.Duration
}

func newFixture(t *testing.T, s settings.Settings, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		provider: &fakeProvider{},
		settings: settings.NewStaticSource(s),
		cache:    cache.New(cache.DefaultMaxSize, cache.DefaultMaxAge),
	}
	f.classifier = classifier.New(zap.NewNop())

	factory := providers.NewFactory()
	for _, kind := range []providers.Kind{providers.KindBuiltin, providers.KindOpenAI, providers.KindGemini} {
		require.NoError(t, factory.Register(kind, providers.DefaultProviderConfig(), func(cfg providers.ProviderConfig) providers.Provider {
			f.provider.apiKey = cfg.APIKey
			return f.provider
		}))
	}

	executor := retry.New(3, time.Second, zap.NewNop())
	executor.Sleep = func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return nil
	}

	f.retry = executor
	f.service = NewTranslationService(f.settings, factory, providers.NewCatalog(), f.cache, executor, f.classifier, zap.NewNop(), opts...)
	return f
}

func TestTranslate_Builtin(t *testing.T) {
	f := newFixture(t, settings.Settings{})
	f.provider.replies = []string{"Hola mundo"}

	result, err := f.service.Translate(context.Background(), "Hello world", "es")

	require.NoError(t, err)
	assert.Equal(t, "Hola mundo", result)
	require.Equal(t, 1, f.provider.calls())

	req := f.provider.requests[0]
	assert.Equal(t, providers.DefaultFreeModel, req.Model)
	assert.Equal(t, translateSystem, req.SystemInstruction)
	assert.Contains(t, req.UserPrompt, "Translate the following text to Spanish.")
	assert.True(t, strings.HasSuffix(req.UserPrompt, "\n\nHello world"))
	assert.Equal(t, translateOptions, req.Options)
	assert.Empty(t, f.provider.apiKey)
}

func TestTranslate_CacheHitSkipsProvider(t *testing.T) {
	f := newFixture(t, settings.Settings{})
	f.provider.replies = []string{"Hallo"}

	first, err := f.service.Translate(context.Background(), "Hello", "de")
	require.NoError(t, err)
	second, err := f.service.Translate(context.Background(), "Hello", "de")
	require.NoError(t, err)

	assert.Equal(t, "Hallo", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.provider.calls())
	assert.Equal(t, uint64(1), f.service.CacheStats().Hits)
}

func TestTranslate_CacheKeyIncludesProvider(t *testing.T) {
	f := newFixture(t, settings.Settings{})

	_, err := f.service.Translate(context.Background(), "Hello", "de")
	require.NoError(t, err)

	f.settings.Set(settings.Settings{APIProvider: "openai", OpenAIAPIKey: "sk-test"})
	_, err = f.service.Translate(context.Background(), "Hello", "de")
	require.NoError(t, err)

	assert.Equal(t, 2, f.provider.calls())
	assert.Equal(t, "sk-test", f.provider.apiKey)
}

func TestTranslate_CredentialsRequired(t *testing.T) {
	tests := []struct {
		name     string
		settings settings.Settings
	}{
		{name: "openai without key", settings: settings.Settings{APIProvider: "openai", GeminiAPIKey: "g"}},
		{name: "gemini without key", settings: settings.Settings{APIProvider: "gemini", OpenAIAPIKey: "sk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.settings)

			_, err := f.service.Translate(context.Background(), "Hello", "pl")

			require.Error(t, err)
			assert.True(t, services.IsCredentialsRequiredError(err))
			assert.Equal(t, services.MessageCredentialsRequired, err.Error())
			assert.Zero(t, f.provider.calls())
			assert.Empty(t, f.classifier.Log(), "precondition failures are not classified")
		})
	}
}

func TestTranslate_LegacyKeyFallback(t *testing.T) {
	f := newFixture(t, settings.Settings{APIProvider: "gemini", UserAPIKey: "legacy"})

	_, err := f.service.Translate(context.Background(), "Hello", "pl")

	require.NoError(t, err)
	assert.Equal(t, "legacy", f.provider.apiKey)
	assert.Equal(t, "gemini-2.0-flash", f.provider.requests[0].Model)
}

func TestTranslate_InvalidProvider(t *testing.T) {
	f := newFixture(t, settings.Settings{APIProvider: "anthropic"})

	_, err := f.service.Translate(context.Background(), "Hello", "pl")

	assert.True(t, services.IsValidationError(err))
	assert.Zero(t, f.provider.calls())
}

func TestTranslate_EmptyText(t *testing.T) {
	f := newFixture(t, settings.Settings{})

	_, err := f.service.Translate(context.Background(), "   ", "pl")

	assert.ErrorIs(t, err, services.ErrEmptyText)
	assert.Zero(t, f.provider.calls())
}

func TestTranslate_SanitizesInput(t *testing.T) {
	f := newFixture(t, settings.Settings{})
	text := "<script>" + strings.Repeat("a", 6000)

	_, err := f.service.Translate(context.Background(), text, "en")
	require.NoError(t, err)

	prompt := f.provider.requests[0].UserPrompt
	_, sent, found := strings.Cut(prompt, "\n\n")
	require.True(t, found)
	assert.Len(t, []rune(sent), MaxInputLength)
	assert.True(t, strings.HasPrefix(sent, "script"))
	assert.NotContains(t, sent, "<")
	assert.NotContains(t, sent, ">")
}

func TestTranslate_RetriesThenSucceeds(t *testing.T) {
	f := newFixture(t, settings.Settings{})
	f.provider.errs = []error{
		providers.StatusError("builtin", 503, []byte(`{"error":{"message":"upstream busy"}}`)),
		providers.StatusError("builtin", 503, []byte(`{"error":{"message":"upstream busy"}}`)),
	}
	f.provider.replies = []string{"", "", "Bonjour"}

	result, err := f.service.Translate(context.Background(), "Hello", "fr")

	require.NoError(t, err)
	assert.Equal(t, "Bonjour", result)
	assert.Equal(t, 3, f.provider.calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.sleeps)
}

func TestTranslate_ClassifiesFailure(t *testing.T) {
	rateLimited := providers.StatusError("openai", 429, []byte(`{"error":{"message":"Rate limit reached"}}`))

	f := newFixture(t, settings.Settings{APIProvider: "openai", OpenAIAPIKey: "sk"})
	f.provider.errs = []error{rateLimited, rateLimited, rateLimited}

	_, err := f.service.Translate(context.Background(), "Hello", "fr")

	require.Error(t, err)
	assert.Equal(t, classifier.MessageRateLimited, err.Error())
	assert.True(t, services.IsRateLimitedError(err))
	assert.Equal(t, 3, f.provider.calls())

	var providerErr *providers.ProviderError
	assert.True(t, errors.As(err, &providerErr), "raw cause stays reachable")

	log := f.service.ErrorLog()
	require.Len(t, log, 1)
	assert.Equal(t, "Translation", log[0].Context)

	_, ok := f.cache.Get(cache.Key(OperationTranslate, map[string]string{"text": "Hello", "targetLang": "fr", "provider": "openai"}))
	assert.False(t, ok, "failures are not cached")
}

func TestTranslate_CancelledDuringBackoffIsNotClassified(t *testing.T) {
	f := newFixture(t, settings.Settings{})
	f.provider.errs = []error{providers.StatusError("builtin", 503, []byte(`{"error":{"message":"upstream unavailable"}}`))}

	ctx, cancel := context.WithCancel(context.Background())
	f.retry.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}

	_, err := f.service.Translate(ctx, "Hello", "fr")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.provider.calls())
	assert.Empty(t, f.service.ErrorLog())
}

func TestTranslate_UnauthorizedIsNotRetried(t *testing.T) {
	f := newFixture(t, settings.Settings{APIProvider: "gemini", GeminiAPIKey: "bad"})
	f.provider.errs = []error{providers.StatusError("gemini", 401, []byte(`{"error":{"message":"API key not valid"}}`))}

	_, err := f.service.Translate(context.Background(), "Hello", "fr")

	assert.Equal(t, classifier.MessageUnauthorized, err.Error())
	assert.Equal(t, 1, f.provider.calls())
	assert.Empty(t, f.sleeps)
}

func TestCorrect(t *testing.T) {
	f := newFixture(t, settings.Settings{})
	f.provider.replies = []string{"Dzień dobry."}

	result, err := f.service.Correct(context.Background(), "dzien dobry", "pl")

	require.NoError(t, err)
	assert.Equal(t, "Dzień dobry.", result)
	req := f.provider.requests[0]
	assert.Equal(t, correctSystem, req.SystemInstruction)
	assert.Contains(t, req.UserPrompt, "Correct the following text in Polish.")
	assert.Equal(t, correctOptions, req.Options)
}

func TestGeneratePrompt(t *testing.T) {
	tests := []struct {
		name       string
		typeTag    string
		wantSystem string
		wantPrompt string
	}{
		{name: "default image", typeTag: "", wantSystem: imageSystem, wantPrompt: "Improve the following image generation prompt"},
		{name: "video", typeTag: "video", wantSystem: videoSystem, wantPrompt: "Improve the following video generation prompt"},
		{name: "sticker", typeTag: "nanobanana-gen:sticker", wantSystem: "sticker of a [subject]", wantPrompt: "required template (sticker)"},
		{name: "gen default style", typeTag: "nanobanana-gen", wantSystem: "A photorealistic [shot type]", wantPrompt: "required template (photorealistic)"},
		{name: "gen unknown style", typeTag: "nanobanana-gen:watercolor", wantSystem: "A photorealistic [shot type]", wantPrompt: "required template (watercolor)"},
		{name: "edit retouch", typeTag: "nanobanana-edit:retouch", wantSystem: "change only the [specific element]", wantPrompt: "Request: \"a cat\""},
		{name: "edit default", typeTag: "nanobanana-edit", wantSystem: "please [add/remove/modify]", wantPrompt: "required template (modify)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, settings.Settings{})

			_, err := f.service.GeneratePrompt(context.Background(), "a cat", "en", tt.typeTag)

			require.NoError(t, err)
			req := f.provider.requests[0]
			assert.Contains(t, req.SystemInstruction, tt.wantSystem)
			assert.Contains(t, req.UserPrompt, tt.wantPrompt)
			assert.Equal(t, promptOptions, req.Options)
		})
	}
}

func TestGeneratePrompt_TypeIsPartOfCacheKey(t *testing.T) {
	f := newFixture(t, settings.Settings{})

	_, err := f.service.GeneratePrompt(context.Background(), "a cat", "en", "image")
	require.NoError(t, err)
	_, err = f.service.GeneratePrompt(context.Background(), "a cat", "en", "video")
	require.NoError(t, err)
	_, err = f.service.GeneratePrompt(context.Background(), "a cat", "en", "")
	require.NoError(t, err)

	assert.Equal(t, 2, f.provider.calls(), "empty type reuses the image entry")
}

func screenshot() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png bytes"))
}

func TestTranscribeScreenshot_BuiltinRejected(t *testing.T) {
	f := newFixture(t, settings.Settings{APIProvider: "builtin"})

	_, err := f.service.TranscribeScreenshot(context.Background(), screenshot(), "en")

	require.Error(t, err)
	assert.True(t, services.IsCapabilityUnavailableError(err))
	assert.Equal(t, services.MessageTranscriptionUnavailable, err.Error())
	assert.Zero(t, f.provider.calls())
}

func TestTranscribeScreenshot(t *testing.T) {
	f := newFixture(t, settings.Settings{APIProvider: "gemini", GeminiAPIKey: "AIza"})
	f.provider.replies = []string{"TRANSCRIPTION:\nHallo Welt\n\nTRANSLATION:\nHello world"}

	result, err := f.service.TranscribeScreenshot(context.Background(), screenshot(), "en")

	require.NoError(t, err)
	assert.Equal(t, "Hallo Welt", result.Transcription)
	assert.Equal(t, "Hello world", result.Translation)

	require.Len(t, f.provider.images, 1)
	assert.Equal(t, "image/png", f.provider.images[0].MIMEType)
	req := f.provider.requests[0]
	assert.Equal(t, transcribeOptions, req.Options)
	assert.Contains(t, req.UserPrompt, "then translate it to English.")

	again, err := f.service.TranscribeScreenshot(context.Background(), screenshot(), "en")
	require.NoError(t, err)
	assert.Equal(t, result, again)
	assert.Equal(t, 1, f.provider.calls(), "same image is served from cache")
}

func TestTranscribeScreenshot_InvalidImage(t *testing.T) {
	f := newFixture(t, settings.Settings{APIProvider: "openai", OpenAIAPIKey: "sk"})

	_, err := f.service.TranscribeScreenshot(context.Background(), "data:image/png;base64,!!!", "en")

	assert.True(t, services.IsValidationError(err))
	assert.Zero(t, f.provider.calls())
}

func TestTranscribeScreenshot_ProviderWithoutVision(t *testing.T) {
	factory := providers.NewFactory()
	require.NoError(t, factory.Register(providers.KindOpenAI, providers.DefaultProviderConfig(), func(cfg providers.ProviderConfig) providers.Provider {
		return textOnlyProvider{}
	}))
	svc := NewTranslationService(
		settings.NewStaticSource(settings.Settings{APIProvider: "openai", OpenAIAPIKey: "sk"}),
		factory, providers.NewCatalog(), cache.New(10, time.Hour), retry.New(1, time.Millisecond, nil), classifier.New(nil), nil)

	_, err := svc.TranscribeScreenshot(context.Background(), screenshot(), "en")

	assert.True(t, services.IsCapabilityUnavailableError(err))
}

func TestTranscribeScreenshot_ClassifiesFailure(t *testing.T) {
	f := newFixture(t, settings.Settings{APIProvider: "openai", OpenAIAPIKey: "sk"})
	tooLarge := providers.StatusError("openai", 413, []byte(`{"error":{"message":"Request too large"}}`))
	f.provider.errs = []error{tooLarge, tooLarge, tooLarge}

	_, err := f.service.TranscribeScreenshot(context.Background(), screenshot(), "en")

	assert.Equal(t, classifier.MessagePayloadTooLarge, err.Error())
	log := f.service.ErrorLog()
	require.Len(t, log, 1)
	assert.Equal(t, "Screenshot Translation", log[0].Context)
}

func TestHistoryRecording(t *testing.T) {
	history := &recordingHistory{err: errors.New("db down")}
	f := newFixture(t, settings.Settings{}, WithHistory(history))
	f.provider.replies = []string{"Ciao"}

	result, err := f.service.Translate(context.Background(), "Hello", "it")

	require.NoError(t, err, "history failures do not fail the call")
	assert.Equal(t, "Ciao", result)
	require.Len(t, history.entries, 1)
	entry := history.entries[0]
	assert.Equal(t, models.HistoryOperationTranslate, entry.Operation)
	assert.Equal(t, "Hello", entry.SourceText)
	assert.Equal(t, "Ciao", entry.Result)
	assert.Equal(t, "builtin", entry.Provider)

	_, err = f.service.Translate(context.Background(), "Hello", "it")
	require.NoError(t, err)
	assert.Len(t, history.entries, 1, "cache hits are not recorded")
}

func TestRemoteConfigLoadedOnlyForModels(t *testing.T) {
	refresher := &countingRefresher{}
	f := newFixture(t, settings.Settings{}, WithRemoteConfig(refresher))

	_, err := f.service.Translate(context.Background(), "Hello", "it")
	require.NoError(t, err)
	_, err = f.service.TranscribeScreenshot(context.Background(), screenshot(), "it")
	require.Error(t, err)
	assert.Zero(t, refresher.calls)

	f.service.Models(context.Background())
	assert.Equal(t, 1, refresher.calls)
}

func TestFailingRemoteConfigStaysOffTheCallPath(t *testing.T) {
	var configRequests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		configRequests.Add(1)
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := remoteconfig.NewFetcher(server.URL, server.Client(), providers.NewCatalog(), zap.NewNop())
	f := newFixture(t, settings.Settings{}, WithRemoteConfig(fetcher))
	ctx := context.Background()

	_, err := f.service.Translate(ctx, "Hello", "de")
	require.NoError(t, err)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Translate(ctx, "Hello", "de")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, time.Since(start), 100*time.Millisecond, "cache hits do not wait on remote config")

	_, err = f.service.TranscribeScreenshot(ctx, screenshot(), "de")
	assert.True(t, services.IsCapabilityUnavailableError(err))

	assert.Equal(t, 1, f.provider.calls())
	assert.Zero(t, configRequests.Load())
}

func TestClearCache(t *testing.T) {
	f := newFixture(t, settings.Settings{})
	ctx := context.Background()

	_, _ = f.service.Translate(ctx, "one", "de")
	_, _ = f.service.Translate(ctx, "two", "de")
	_, _ = f.service.Correct(ctx, "three", "de")

	assert.Equal(t, 2, f.service.ClearCache(OperationTranslate))
	assert.Equal(t, 1, f.service.CacheStats().Size)
	assert.Equal(t, 1, f.service.ClearCache(""))
	assert.Equal(t, 0, f.service.CacheStats().Size)
}

func TestErrorLogClear(t *testing.T) {
	f := newFixture(t, settings.Settings{})
	f.provider.errs = []error{errors.New("fetch failed"), errors.New("fetch failed"), errors.New("fetch failed")}

	_, err := f.service.Translate(context.Background(), "Hello", "de")
	assert.Equal(t, classifier.MessageNetworkError, err.Error())

	require.Len(t, f.service.ErrorLog(), 1)
	f.service.ClearErrorLog()
	assert.Empty(t, f.service.ErrorLog())
}
