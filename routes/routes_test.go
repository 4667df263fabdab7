package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/lingflow/app"
	"github.com/upb/lingflow/config"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, secret string) (*app.Dependencies, http.Handler) {
	t.Helper()

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/config") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hallo"}}]}`))
	}))
	t.Cleanup(proxy.Close)

	cfg := &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8787,
			WriteTimeout:   10 * time.Second,
			AllowedOrigins: []string{"chrome-extension://*"},
		},
		History: config.HistoryConfig{Limit: 100},
		Providers: config.ProvidersConfig{
			ProxyEndpoint: proxy.URL + "/api/chat",
			Timeout:       5 * time.Second,
		},
		Cache:         config.CacheConfig{MaxSize: 10, MaxAge: time.Minute},
		Retry:         config.RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond},
		Auth:          config.AuthConfig{JWTSecret: secret},
		Observability: config.ObservabilityConfig{LogLevel: "info", LogFormat: "json"},
		SettingsFile:  filepath.Join(t.TempDir(), "settings.yaml"),
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	return deps, SetupRoutes(deps)
}

func TestRoutes_TranslateEndToEnd(t *testing.T) {
	_, router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/translate", strings.NewReader(`{"text":"Hello","target_lang":"de"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var response struct {
		Data struct {
			Result string `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "Hallo", response.Data.Result)
}

func TestRoutes_OCRRefusedOnBuiltin(t *testing.T) {
	_, router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ocr", strings.NewReader(`{"image":"aGVsbG8=","target_lang":"en"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "capability_unavailable")
}

func TestRoutes_Public(t *testing.T) {
	_, router := newTestRouter(t, "secret")

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{name: "health", method: http.MethodGet, path: "/healthz", want: http.StatusOK},
		{name: "readiness", method: http.MethodGet, path: "/readyz", want: http.StatusOK},
		{name: "unknown path", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
		{name: "api requires auth before routing", method: http.MethodGet, path: "/api/v1/history", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRoutes_Auth(t *testing.T) {
	deps, router := newTestRouter(t, "secret")

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := deps.TokenValidator.IssueToken("extension", time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/models", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"builtin"`)
	})
}

func TestRoutes_Diagnostics(t *testing.T) {
	_, router := newTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics/cache", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"max_size":10`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/diagnostics/errors", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRoutes_CORSPreflight(t *testing.T) {
	_, router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/translate", nil)
	req.Header.Set("Origin", "chrome-extension://abcdefghijklmnop")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "chrome-extension://abcdefghijklmnop", w.Header().Get("Access-Control-Allow-Origin"))
}
