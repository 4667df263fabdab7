package remoteconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/upb/lingflow/services/providers"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 5 * time.Second

// Config is the document served by the proxy's config endpoint
type Config struct {
	FreeModels   []providers.ModelInfo `json:"freeModels"`
	DefaultModel string                `json:"defaultModel"`
}

// Fetcher loads the free-tier model list from the proxy and applies it to a catalog.
// The document is fetched at most once per process; a failed attempt leaves the
// built-in table in place for good. Attempts abandoned by their caller's context do
// not count.
type Fetcher struct {
	url     string
	client  *http.Client
	catalog *providers.Catalog
	logger  *zap.Logger

	group singleflight.Group

	mu        sync.Mutex
	attempted bool
	loaded    *Config
}

// NewFetcher creates a Fetcher. client may be nil.
func NewFetcher(url string, client *http.Client, catalog *providers.Catalog, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		url:     url,
		client:  client,
		catalog: catalog,
		logger:  logger,
	}
}

// Ensure fetches the remote configuration on first use and returns it, or nil when
// the fetch did not work. Concurrent first callers share one request.
func (f *Fetcher) Ensure(ctx context.Context) *Config {
	if cfg, done := f.state(); done {
		return cfg
	}

	v, _, _ := f.group.Do("config", func() (any, error) {
		if cfg, done := f.state(); done {
			return cfg, nil
		}
		return f.load(ctx), nil
	})
	return v.(*Config)
}

// Loaded reports whether a remote configuration has been applied
func (f *Fetcher) Loaded() bool {
	cfg, _ := f.state()
	return cfg != nil
}

func (f *Fetcher) state() (*Config, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded, f.attempted
}

func (f *Fetcher) load(ctx context.Context) *Config {
	cfg, err := f.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		f.logger.Warn("failed to fetch remote config, keeping built-in models",
			zap.String("url", f.url),
			zap.Error(err))
		f.mu.Lock()
		f.attempted = true
		f.mu.Unlock()
		return nil
	}

	f.catalog.SetFreeModels(cfg.FreeModels)
	f.catalog.SetFreeModel(cfg.DefaultModel)

	f.mu.Lock()
	f.attempted = true
	f.loaded = cfg
	f.mu.Unlock()

	f.logger.Info("remote config applied",
		zap.Int("free_models", len(cfg.FreeModels)),
		zap.String("default_model", cfg.DefaultModel))
	return cfg
}

func (f *Fetcher) fetch(ctx context.Context) (*Config, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var cfg Config
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode remote config: %w", err)
	}
	return &cfg, nil
}
