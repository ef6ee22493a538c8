package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ent0n29/meetingsnap/internal/app"
	"github.com/ent0n29/meetingsnap/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the web form, the JSON API and the Prometheus endpoint.

SIGHUP reloads the provider, timeout, input limit and rate limit settings.
The bind address, store and metrics namespace need a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	built, err := app.Build(ctx, cfg, func() (config.Config, error) { return config.LoadFile(cfg.ConfigFile) }, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := built.Cleanup(); err != nil {
			logger.Warn("cleanup failed", zap.Error(err))
		}
	}()

	built.Limiters.StartJanitor(ctx, time.Minute)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           built.API.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.BindAddr),
			zap.String("provider", cfg.Provider),
			zap.String("store", built.Store.Mode()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case err := <-listenErr:
			return err
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				next, err := built.Live.Reload()
				if err != nil {
					logger.Warn("config reload rejected", zap.Error(err))
					continue
				}
				logger.Info("config reloaded",
					zap.String("provider", next.Provider),
					zap.Duration("timeout", next.Timeout),
					zap.Int("max_chars", next.MaxChars),
					zap.Int("rate_limit", next.RateLimit),
					zap.Duration("rate_window", next.RateWindow),
				)
				continue
			}
			logger.Info("shutdown signal received", zap.String("signal", sig.String()))
			cancel()
			shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer stop()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown failed", zap.Error(err))
				_ = httpServer.Close()
			}
			logger.Info("shutdown complete")
			return nil
		}
	}
}
