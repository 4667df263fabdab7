package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/upb/lingflow/app"
	"github.com/upb/lingflow/config"
	"github.com/upb/lingflow/internal/observability"
	"github.com/upb/lingflow/services/settings"
	"go.uber.org/zap"
)

var (
	providerFlag string
	modelFlag    string
	apiKeyFlag   string
	settingsFlag string
	logLevel     string
	logFormat    string
)

var rootCmd = &cobra.Command{
	Use:   "lingflow",
	Short: "Translate, correct and rewrite text through free or personal LLM providers",
	Long: `lingflow runs translation, correction, prompt generation and screenshot
transcription through the builtin proxy, OpenAI or Gemini.

Provider choice and API keys come from the settings file
(~/.config/lingflow/settings.yaml by default) and can be overridden per call.`,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&providerFlag, "provider", "p", "", "provider override: builtin, openai or gemini")
	flags.StringVarP(&modelFlag, "model", "m", "", "model override")
	flags.StringVar(&apiKeyFlag, "api-key", "", "API key override for the selected direct provider")
	flags.StringVar(&settingsFlag, "settings", "", "settings file (default ~/.config/lingflow/settings.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "", "log format: json or console")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(correctCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(ocrCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// settingsOverride turns the persistent flags into a settings layer
func settingsOverride() settings.Settings {
	return settings.Settings{
		APIProvider:   providerFlag,
		SelectedModel: modelFlag,
		OpenAIAPIKey:  apiKeyFlag,
		GeminiAPIKey:  apiKeyFlag,
	}
}

// loadConfig reads the environment and applies the logging and settings flags.
// Commands other than serve log at warn level to the console unless told otherwise.
func loadConfig(ctx context.Context, server bool) (*config.Config, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, err
	}
	if !server {
		cfg.Observability.LogLevel = "warn"
		cfg.Observability.LogFormat = "console"
	}
	if logLevel != "" {
		cfg.Observability.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.Observability.LogFormat = logFormat
	}
	if settingsFlag != "" {
		cfg.SettingsFile = settingsFlag
	}
	return cfg, nil
}

// loadDependencies builds the full dependency graph for a command
func loadDependencies(ctx context.Context, server bool) (*app.Dependencies, error) {
	cfg, err := loadConfig(ctx, server)
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, err
	}

	deps, err := app.NewDependencies(ctx, cfg, logger, app.WithSettingsOverride(settingsOverride()))
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Debug("dependencies ready", zap.String("environment", cfg.Environment))
	return deps, nil
}

// withDependencies runs fn with a dependency graph that is closed afterwards.
// The remote free-model list is loaded first, as the bridge does at startup.
func withDependencies(cmd *cobra.Command, fn func(deps *app.Dependencies) error) error {
	deps, err := loadDependencies(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer deps.Close(context.Background())
	deps.RemoteConfig.Ensure(cmd.Context())
	return fn(deps)
}
