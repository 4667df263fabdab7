package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/upb/lingflow/app"
	"github.com/upb/lingflow/routes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP bridge used by the browser extension",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := loadDependencies(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer deps.Close(context.Background())
		return serve(cmd.Context(), deps)
	},
}

// serve runs the bridge until ctx is cancelled, then drains in-flight requests
func serve(ctx context.Context, deps *app.Dependencies) error {
	logger := deps.Logger
	server := routes.NewServer(deps)
	tls := deps.Config.Server.TLS

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting bridge",
			zap.String("address", server.Addr),
			zap.String("environment", deps.Config.Environment),
			zap.String("version", app.Version),
			zap.Bool("tls", tls.Enabled))

		var err error
		if tls.Enabled {
			err = server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		deps.StartCacheCleanup(gctx.Done())
		return nil
	})

	g.Go(func() error {
		if cfg := deps.RemoteConfig.Ensure(gctx); cfg == nil {
			logger.Warn("remote config unavailable, using bundled free model")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down bridge")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("bridge forced to shutdown", zap.Error(err))
			return err
		}
		logger.Info("bridge stopped")
		return nil
	})

	return g.Wait()
}
