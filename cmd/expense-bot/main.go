package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"expense-bot/internal/api"
	"expense-bot/internal/api/handlers"
	"expense-bot/internal/repository"
	"expense-bot/internal/service"
	"expense-bot/pkg/ai"
	"expense-bot/pkg/config"
	"expense-bot/pkg/logger"
	"expense-bot/pkg/postgres"
	"expense-bot/pkg/storage"
	"expense-bot/pkg/whatsapp"

	"go.uber.org/zap"
)

// @title Expense Bot Webhook API
// @version 1.0
// @description WhatsApp webhook that turns receipt photos into pending transactions
// @BasePath /

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("Invalid configuration", zap.Error(err))
	}
	appLogger.Info("Starting expense bot", zap.String("ai_provider", cfg.AI.Provider))

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)

	store, err := storage.NewMinioStore(&cfg.Storage, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	extractor, closeExtractor, err := newExtractor(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize AI extractor", zap.Error(err))
	}
	defer closeExtractor()

	waClient := whatsapp.NewClient(&cfg.WhatsApp, appLogger)

	webhookService := service.NewWebhookService(userRepo, txRepo, waClient, store, extractor, cfg.Receipt.CurrencySymbol, appLogger)
	webhookHandler := handlers.NewWebhookHandler(webhookService, cfg.WhatsApp.VerifyToken, cfg.Server.WebhookTimeout, appLogger)

	app := api.SetupRouter(webhookHandler, api.RouterConfig{
		AppSecret:    cfg.WhatsApp.AppSecret,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Swagger:      cfg.Server.Swagger,
	}, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}

func newExtractor(ctx context.Context, cfg *config.Config, appLogger *zap.Logger) (ai.ImageExtractor, func(), error) {
	switch cfg.AI.Provider {
	case config.AIProviderGigaChat:
		gigaChat, err := ai.NewGigaChatExtractor(ctx, &cfg.GigaChat, appLogger)
		if err != nil {
			return nil, nil, err
		}
		return gigaChat, func() { _ = gigaChat.Close() }, nil
	default:
		gemini, err := ai.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, appLogger)
		if err != nil {
			return nil, nil, err
		}
		return gemini, func() {}, nil
	}
}
