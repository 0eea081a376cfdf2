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

	"github.com/celerix-dev/celerix-pantry/internal/api"
	"github.com/celerix-dev/celerix-pantry/internal/catalog"
	"github.com/celerix-dev/celerix-pantry/internal/cloudsync"
	"github.com/celerix-dev/celerix-pantry/internal/config"
	"github.com/celerix-dev/celerix-pantry/internal/engine"
	"github.com/celerix-dev/celerix-pantry/internal/logger"
	"github.com/celerix-dev/celerix-pantry/internal/metrics"
	"github.com/celerix-dev/celerix-pantry/pkg/schema"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// build is stamped on snapshots and system logs. Set with -ldflags "-X main.build=...".
var build = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "pantryd",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithField(context.Background(), "build", build)

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "pantryd stopped", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	products, err := catalog.LoadFile(cfg.App.CatalogFile)
	if err != nil {
		return err
	}

	boundary, err := openBoundary(ctx, cfg.Storage, logg)
	if err != nil {
		return err
	}

	rec := metrics.New(prometheus.DefaultRegisterer)

	store, err := engine.Open(ctx, engine.Options{
		Boundary: boundary,
		Catalog:  products,
		Build:    build,
		Cloud: schema.CloudConfig{
			Endpoint:      cfg.Cloud.Endpoint,
			CredentialKey: cfg.Cloud.CredentialKey,
		},
		Logger:  logg,
		Metrics: rec,
	})
	if err != nil {
		return err
	}
	logg.Info(ctx, fmt.Sprintf("engine started with %d accounts", len(store.Accounts())))

	sync := cloudsync.New(store, cloudsync.Options{Logger: logg, Metrics: rec})
	h := api.New(store, sync, logg)

	r := gin.New()
	r.Use(gin.Recovery(), logg.Gin())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Request-ID, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	h.Routes(r.Group("/api"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "build": build})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "HTTP API listening on :"+cfg.App.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received, finalizing writes")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Warn(ctx, "http shutdown", err)
	}
	sync.Wait()
	store.Wait()
	logg.Info(ctx, "persistence complete")
	return nil
}

// openBoundary picks Redis when a URL is configured, otherwise the data directory.
// Moving to Redis copies an existing local state over once.
func openBoundary(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (engine.Boundary, error) {
	file, err := engine.NewFileBoundary(cfg.DataDir, cfg.StateKey)
	if err != nil {
		return nil, fmt.Errorf("initializing data dir: %w", err)
	}

	var boundary engine.Boundary = file
	if cfg.RedisURL != "" {
		rb, err := engine.NewRedisBoundary(ctx, cfg.RedisURL, cfg.StateKey)
		if err != nil {
			return nil, err
		}
		copied, err := engine.Migrate(ctx, file, rb)
		if err != nil {
			return nil, err
		}
		if copied {
			logg.Info(ctx, "copied local state into redis")
		}
		boundary = rb
	}

	if cfg.SealKey != "" {
		boundary = engine.Sealed(boundary, []byte(cfg.SealKey))
	}
	return boundary, nil
}
