package main

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eldtechnologies/haikunft/internal/api"
	"github.com/eldtechnologies/haikunft/internal/api/middleware"
	"github.com/eldtechnologies/haikunft/internal/cache"
	"github.com/eldtechnologies/haikunft/internal/config"
	"github.com/eldtechnologies/haikunft/internal/crypto"
	"github.com/eldtechnologies/haikunft/internal/gate"
	"github.com/eldtechnologies/haikunft/internal/handlers"
	"github.com/eldtechnologies/haikunft/internal/logging"
	"github.com/eldtechnologies/haikunft/internal/media"
	"github.com/eldtechnologies/haikunft/internal/near"
	"github.com/eldtechnologies/haikunft/internal/poet"
	"github.com/eldtechnologies/haikunft/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, logCloser, err := logging.New(logging.Config{
		Level:      cfg.LogLevel,
		Console:    cfg.IsDevelopment(),
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	ctx := context.Background()

	deps := handlers.Deps{
		Results: cache.NewResults(),
		Version: cfg.Version,
		Logger:  logger,
	}

	// Mint audit log: PostgreSQL when configured, SQLite otherwise
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pgStore.Close()
		deps.Mints = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else if cfg.SQLitePath != "" {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		defer sqliteStore.Close()
		deps.Mints = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("opened SQLite")
	} else {
		logger.Warn().Msg("no DATABASE_URL or SQLITE_PATH, mint history disabled")
	}

	// Initialize Redis store
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisStore, err := store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		redisClient = redisStore.Client()
		deps.Redis = redisStore
		logger.Info().Msg("connected to Redis")
	}

	upstream := &http.Client{Timeout: 30 * time.Second}

	// Ledger
	rpc := near.NewClient(cfg.Network.NodeURL, upstream)
	deps.Ledger = rpc
	deps.Gate = gate.New(
		near.NewKeyCustody(rpc, logger),
		near.NewOwnership(rpc, cfg.ContractName, logger),
		logger,
	)
	if cfg.PrivateKey != "" {
		key, err := crypto.ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid NEAR_PRIVATE_KEY")
		}
		minter, err := near.NewMinter(rpc, near.MinterConfig{
			SignerID:   cfg.SignerID,
			PrivateKey: key,
			ContractID: cfg.ContractName,
			Method:     cfg.SetHaikuMethod,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("ledger signer setup failed")
		}
		deps.Minter = minter
	} else {
		logger.Warn().Msg("NEAR_PRIVATE_KEY not set, /set-haiku disabled")
	}

	// Completion service
	completer, err := poet.NewOpenAI(poet.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("completion service setup failed")
	}
	deps.Poet = poet.NewGenerator(completer, logger)

	// Media pipeline
	var background image.Image
	if cfg.BackgroundImage != "" {
		background, err = media.LoadBackground(cfg.BackgroundImage)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.BackgroundImage).Msg("background image load failed")
		}
	}
	deps.Media = media.NewPipeline(
		media.NewComposer(background),
		media.NewUploader(media.UploaderConfig{
			Endpoint:   cfg.StorageURL,
			APIKey:     cfg.StorageAPIKey,
			GatewayURL: cfg.GatewayURL,
		}, upstream),
		logger,
	)

	// Create router
	router := api.NewRouter(logger, handlers.NewHandler(deps), api.RouterConfig{
		Redis: redisClient,
		RateLimit: middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		},
	})

	// Create server; writes wait on the completion service and the ledger
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("network", cfg.Network.ID).
			Str("contract", cfg.ContractName).
			Msg("starting haikunft server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

