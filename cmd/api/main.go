package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"shopgen/internal/adapter/repo"
	"shopgen/internal/cache"
	"shopgen/internal/generator"
	"shopgen/internal/http/handlers"
	httpapi "shopgen/internal/http/httpapi"
	"shopgen/internal/infra"
	"shopgen/internal/metrics"
	"shopgen/internal/providers/image"
	"shopgen/internal/providers/text"
	"shopgen/internal/providers/upload"
	"shopgen/internal/shopify"
	"shopgen/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	redisClient, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, settings cache disabled")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	settingsRepo := cache.NewSettingsRepository(repo.NewSettingsRepository(runner), redisClient, 0, &logger)
	generationRepo := repo.NewGenerationRepository(runner)

	m := metrics.New()

	textClient := text.NewClient(text.Options{
		APIKey:  cfg.TextAPIKey,
		BaseURL: cfg.TextBaseURL,
		Model:   cfg.TextModel,
		Logger:  &logger,
		OnWarning: func(reason, detail string) {
			logger.Warn().Str("reason", reason).Str("detail", detail).Msg("text model configuration")
		},
	})

	imageGen := image.NewOpenAIGenerator(image.Options{
		APIKey:         cfg.ImageAPIKey,
		BaseURL:        cfg.ImageBaseURL,
		Model:          cfg.ImageModel,
		Size:           cfg.ImageSize,
		Logger:         &logger,
		RequestTimeout: cfg.ImageTimeout,
	})

	uploader := newUploader(cfg, &logger)
	pipeline := image.NewPipeline(image.PipelineOptions{
		Generator:   imageGen,
		Uploader:    uploader,
		ProviderCap: cfg.ImageProviderCap,
		Logger:      &logger,
		OnFallback:  m.ImageFallback,
	})

	assembler := generator.NewAssembler(generator.Config{
		Text:             textClient,
		Images:           pipeline,
		ImageEnabled:     cfg.ImageEnabled,
		ImageCredentials: imageGen,
		TextTimeout:      cfg.TextTimeout,
		ImageTimeout:     cfg.ImageTimeout,
		Logger:           &logger,
		Recorder:         m,
	})

	limiters := shopify.NewLimiterPool(cfg.ShopifyRatePerSec, 4)
	newPublisher := func(shop, token string) (handlers.ProductPublisher, error) {
		client, err := shopify.NewClient(shopify.Options{
			Shop:        shop,
			AccessToken: token,
			APIVersion:  cfg.ShopifyAPIVersion,
			Limiter:     limiters.For(shop),
			Logger:      &logger,
		})
		if err != nil {
			return nil, err
		}
		return shopify.NewPublisher(client, &logger), nil
	}

	app := &handlers.App{
		Logger:       logger,
		Generator:    assembler,
		NewPublisher: newPublisher,
		Settings:     settingsRepo,
		Generations:  generationRepo,
		Publishes:    m,
		Ping:         dbpool.Ping,
	}

	router := httpapi.NewRouter(app, cfg, m)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("text_model", textClient.Model()).
			Bool("images", cfg.ImageEnabled).
			Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// newUploader prefers Cloudinary, then local disk. Nil means generated
// images are returned inline as data URIs.
func newUploader(cfg *infra.Config, logger *infra.Logger) image.Uploader {
	if cfg.CloudinaryConfigured() {
		return upload.NewCloudinary(upload.CloudinaryOptions{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Logger:    logger,
		})
	}
	if cfg.StoragePath != "" {
		store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.StoragePath).Msg("local image storage unavailable")
			return nil
		}
		return store
	}
	return nil
}
