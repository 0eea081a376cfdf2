package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/celerix-dev/celerix-pantry/internal/config"
	"github.com/celerix-dev/celerix-pantry/internal/logger"
	"github.com/celerix-dev/celerix-pantry/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "pantry-cloud",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := context.Background()

	if err := run(ctx, cfg.Remote, logg); err != nil {
		logg.Error(ctx, "pantry-cloud stopped", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.RemoteConfig, logg *logger.Logger) error {
	repo, err := openRepository(ctx, cfg, logg)
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		logg.Warn(ctx, "PANTRY_REMOTE_API_KEY is empty, requests are not authenticated", nil)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           server.NewRouter(repo, cfg.APIKey, logg).Engine(cfg.BasePath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, fmt.Sprintf("app_state resource listening on :%s%s", cfg.HTTPPort, cfg.BasePath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openRepository(ctx context.Context, cfg config.RemoteConfig, logg *logger.Logger) (server.Repository, error) {
	if cfg.DBDriver == "memory" {
		logg.Info(ctx, "using in-memory app_state rows")
		return server.NewMemRepository(), nil
	}

	db, err := server.OpenGorm(cfg.DBDriver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	repo := server.NewGormRepository(db)
	if cfg.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("provisioning app_state: %w", err)
		}
		logg.Info(ctx, "app_state table provisioned")
	}
	return repo, nil
}
