package app

import (
	"context"
	"fmt"

	"github.com/upb/lingflow/config"
	"github.com/upb/lingflow/internal/auth"
	"github.com/upb/lingflow/middleware"
	"github.com/upb/lingflow/repositories"
	"github.com/upb/lingflow/repositories/postgres"
	"github.com/upb/lingflow/services/cache"
	"github.com/upb/lingflow/services/classifier"
	"github.com/upb/lingflow/services/providers"
	"github.com/upb/lingflow/services/providers/builtin"
	"github.com/upb/lingflow/services/providers/gemini"
	"github.com/upb/lingflow/services/providers/openai"
	"github.com/upb/lingflow/services/remoteconfig"
	"github.com/upb/lingflow/services/retry"
	"github.com/upb/lingflow/services/settings"
	"github.com/upb/lingflow/services/translation"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags "-X github.com/upb/lingflow/app.Version=..."
var Version = "dev"

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection, shared by the
// bridge and the CLI.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when history is disabled
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	TxManager repositories.TransactionManager
	History   *repositories.HistoryRecorder // nil when history is disabled

	// Provider layer
	Settings     settings.Source
	Catalog      *providers.Catalog
	Providers    *providers.Factory
	RemoteConfig *remoteconfig.Fetcher

	// Core services
	Cache       *cache.Cache
	Retry       *retry.Executor
	Classifier  *classifier.Classifier
	Translation *translation.TranslationService

	// Auth
	TokenValidator *auth.Validator
	AuthMiddleware *middleware.AuthMiddleware // nil when the bridge runs without auth

	settingsOverride settings.Settings
}

// Option customizes dependency construction
type Option func(*Dependencies)

// WithSettingsOverride layers non-empty fields over the settings file, used by CLI flags
func WithSettingsOverride(s settings.Settings) Option {
	return func(d *Dependencies) { d.settingsOverride = s }
}

// WithSettingsSource replaces the settings file entirely
func WithSettingsSource(src settings.Source) Option {
	return func(d *Dependencies) { d.Settings = src }
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}
	for _, opt := range opts {
		opt(deps)
	}

	// Initialize PostgreSQL
	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	deps.initRepositories(cfg)

	// Initialize provider factory and model catalog
	if err := deps.initProviders(cfg); err != nil {
		deps.closeDatabase()
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	// Initialize cache, retry, classifier and the translation service
	if err := deps.initServices(cfg); err != nil {
		deps.closeDatabase()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize bridge auth
	if err := deps.initAuth(cfg); err != nil {
		deps.closeDatabase()
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.Bool("history", deps.History != nil),
		zap.Bool("auth", deps.AuthMiddleware != nil))
	return deps, nil
}

// initDatabase initializes the PostgreSQL database connection and factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Logger.Info("no database configured, history disabled")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(*cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	if err := factory.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return err
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories(cfg *config.Config) {
	if d.RepoFactory == nil {
		return
	}

	repos := d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()
	d.History = repositories.NewHistoryRecorder(repos.History, d.TxManager, cfg.History.Limit, d.Logger)

	d.Logger.Info("repositories initialized", zap.Int("history_limit", cfg.History.Limit))
}

// initProviders registers the three backends with their base configuration
func (d *Dependencies) initProviders(cfg *config.Config) error {
	d.Catalog = providers.NewCatalog()
	d.Providers = providers.NewFactory()

	base := func(baseURL string) providers.ProviderConfig {
		pc := providers.DefaultProviderConfig()
		pc.BaseURL = baseURL
		pc.Timeout = cfg.Providers.Timeout
		return pc
	}

	registrations := []struct {
		kind  providers.Kind
		base  providers.ProviderConfig
		build providers.Builder
	}{
		{
			kind:  providers.KindBuiltin,
			base:  base(cfg.Providers.ProxyEndpoint),
			build: func(pc providers.ProviderConfig) providers.Provider { return builtin.NewAdapter(pc) },
		},
		{
			kind:  providers.KindOpenAI,
			base:  base(cfg.Providers.OpenAIBaseURL),
			build: func(pc providers.ProviderConfig) providers.Provider { return openai.NewOpenAIAdapter(pc, d.Catalog) },
		},
		{
			kind:  providers.KindGemini,
			base:  base(cfg.Providers.GeminiBaseURL),
			build: func(pc providers.ProviderConfig) providers.Provider { return gemini.NewAdapter(pc) },
		},
	}

	for _, reg := range registrations {
		if err := d.Providers.Register(reg.kind, reg.base, reg.build); err != nil {
			return err
		}
		d.Logger.Debug("provider registered",
			zap.String("provider", string(reg.kind)),
			zap.String("base_url", reg.base.BaseURL))
	}

	d.RemoteConfig = remoteconfig.NewFetcher(
		builtin.ConfigURL(cfg.Providers.ProxyEndpoint),
		nil,
		d.Catalog,
		d.Logger,
	)
	return nil
}

// initServices builds the core and the translation façade
func (d *Dependencies) initServices(cfg *config.Config) error {
	if d.Settings == nil {
		path := cfg.SettingsFile
		if path == "" {
			defaultPath, err := settings.DefaultPath()
			if err != nil {
				return fmt.Errorf("failed to locate settings file: %w", err)
			}
			path = defaultPath
		}
		d.Settings = settings.NewFileSource(path)
		d.Logger.Info("settings file", zap.String("path", path))
	}
	if d.settingsOverride != (settings.Settings{}) {
		d.Settings = settings.Override{Base: d.Settings, Overrides: d.settingsOverride}
	}

	d.Cache = cache.New(cfg.Cache.MaxSize, cfg.Cache.MaxAge)
	d.Retry = retry.New(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay, d.Logger)
	d.Classifier = classifier.New(d.Logger)

	opts := []translation.Option{translation.WithRemoteConfig(d.RemoteConfig)}
	if d.History != nil {
		opts = append(opts, translation.WithHistory(d.History))
	}

	d.Translation = translation.NewTranslationService(
		d.Settings,
		d.Providers,
		d.Catalog,
		d.Cache,
		d.Retry,
		d.Classifier,
		d.Logger,
		opts...,
	)
	return nil
}

// initAuth enables bearer-token auth on the bridge when a secret is configured
func (d *Dependencies) initAuth(cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("bridge JWT secret not set, API routes are unauthenticated")
		return nil
	}

	validator, err := auth.NewValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}
	d.TokenValidator = validator
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
	return nil
}

// StartCacheCleanup sweeps expired cache entries until stopCh is closed.
// It returns immediately when the sweep is disabled.
func (d *Dependencies) StartCacheCleanup(stopCh <-chan struct{}) {
	if d.Config.Cache.CleanupInterval <= 0 {
		return
	}
	d.Cache.StartCleanupWorker(d.Config.Cache.CleanupInterval, stopCh)
}

func (d *Dependencies) closeDatabase() {
	if d.RepoFactory != nil {
		_ = d.RepoFactory.Close()
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
