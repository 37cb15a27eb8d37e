package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/itish2003/assistant/config"
	"github.com/itish2003/assistant/controller"
	"github.com/itish2003/assistant/logging"
	"github.com/itish2003/assistant/services"
)

func serveCMD() *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			logging.Setup(cfg.Log)
			return runServer(cfg)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	return serve
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Ingest.WatchDir != "" {
		if err := os.MkdirAll(cfg.Ingest.WatchDir, 0o755); err != nil {
			return err
		}
		watcher := services.NewInboxWatcher(cfg.Ingest.WatchDir, a.ingestor)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				log.Error().Str("component", "watcher").Err(err).Msg("inbox watcher stopped")
			}
		}()
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	ctrl := controller.NewAssistantController(a.assistant, cfg.Server.MaxUploadBytes)
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: controller.NewRouter(ctrl, a.metrics.Handler()),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("component", "http").Str("addr", cfg.Server.Address).Msg("assistant server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Str("component", "http").Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
