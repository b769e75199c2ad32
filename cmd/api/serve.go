package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vishal2827/pern-stack/internal/config"
	"github.com/Vishal2827/pern-stack/internal/database"
	"github.com/Vishal2827/pern-stack/internal/handler"
	"github.com/Vishal2827/pern-stack/internal/middleware"
	"github.com/Vishal2827/pern-stack/internal/perimeter"
	"github.com/Vishal2827/pern-stack/internal/repository"
	"github.com/Vishal2827/pern-stack/internal/router"
	"github.com/Vishal2827/pern-stack/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func serve() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("env", cfg.App.Env).Msg("starting products API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	protector, closeProtector, err := newProtector(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize perimeter: %w", err)
	}
	defer closeProtector()

	// Initialize layers
	productRepo := repository.NewProductRepository(pool, logger)
	productService := service.NewProductService(productRepo, logger)

	opts := router.Options{
		Product:        handler.NewProductHandler(productService, logger),
		Health:         handler.NewHealthHandler(pool, logger),
		Protector:      protector,
		DryRun:         cfg.Perimeter.Mode == "dry_run",
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}
	if cfg.App.IsProduction() {
		opts.Static = handler.NewStaticHandler(cfg.App.StaticDir, logger)
		logger.Info().Str("dir", cfg.App.StaticDir).Msg("serving static frontend")
	}

	mux := router.New(opts, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newProtector assembles the admission rules. It returns a nil protector when
// the perimeter is disabled. The returned close func releases the limiter backend.
func newProtector(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (middleware.Protector, func(), error) {
	noop := func() {}
	if !cfg.Perimeter.Enabled {
		logger.Warn().Msg("perimeter disabled, all requests are admitted")
		return nil, noop, nil
	}

	// Signature lists come from S3 with a local fallback, or local only
	loader := perimeter.NewFileLoader(logger)
	if cfg.S3.Enabled {
		remote, err := perimeter.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			loader = perimeter.NewFallbackLoader(remote, loader, cfg.S3.Prefix, logger)
		}
	}

	catalog, err := perimeter.LoadCatalog(ctx, loader, cfg.Perimeter.SignatureFile, logger)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to load bot signatures: %w", err)
	}

	verified, err := perimeter.ParseVerifiedBots(cfg.Perimeter.VerifiedBots)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to parse verified bots: %w", err)
	}

	policy := perimeter.BucketPolicy{
		Capacity: cfg.RateLimit.Capacity,
		Refill:   cfg.RateLimit.Refill,
		Interval: cfg.RateLimit.Interval,
	}

	var limiter perimeter.Limiter
	closeFn := noop
	switch cfg.RateLimit.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis not reachable at startup")
		}
		limiter = perimeter.NewRedisLimiter(client, "rl", policy)
		closeFn = func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close redis client")
			}
		}
	default:
		limiter = perimeter.NewLocalLimiter(policy)
	}

	logger.Info().
		Str("mode", cfg.Perimeter.Mode).
		Str("rate_limit_backend", cfg.RateLimit.Backend).
		Int("signatures", catalog.Size()).
		Int("verified_bots", len(verified)).
		Msg("perimeter configured")

	return perimeter.NewProtector(logger,
		perimeter.NewShieldRule(),
		perimeter.NewBotRule(verified, catalog),
		perimeter.NewRateLimitRule(limiter, perimeter.FailureMode(cfg.RateLimit.FailureMode), logger),
	), closeFn, nil
}
