// Package main - точка входа HTTP API SkillEra Hub.
//
// Порядок запуска: конфигурация, логгер, хранилище документов (memory, S3,
// PostgreSQL или MongoDB), шина событий, обработчики, HTTP сервер.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/skillera/skillera-hub/config"
	"github.com/skillera/skillera-hub/internal/app"
	httpapi "github.com/skillera/skillera-hub/internal/interface/http"
	"github.com/skillera/skillera-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := app.NewLogger(cfg).Named("server")
	defer func() { _ = log.Sync() }()

	log.Info("starting SkillEra Hub API",
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Timezone),
		logger.String("storage", string(cfg.Storage.Backend)),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ, ШИНА СОБЫТИЙ, ОБРАБОТЧИКИ
	// ─────────────────────────────────────────────────────────────────────────
	rt, err := app.Bootstrap(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to bootstrap: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	srv := httpapi.NewServer(app.HTTPConfig(cfg), rt.Deps)
	errCh := srv.StartAsync()

	select {
	case err := <-errCh:
		if err != nil {
			_ = rt.Close(context.Background())
			return err
		}
	case <-ctx.Done():
		log.Info("received shutdown signal")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting graceful shutdown", logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", logger.Err(err))
		shutdownErr = err
	}
	if err := rt.Close(shutdownCtx); err != nil {
		log.Error("storage shutdown failed", logger.Err(err))
		shutdownErr = errors.Join(shutdownErr, err)
	}

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
		return shutdownErr
	}
	log.Info("shutdown completed successfully")
	return nil
}
