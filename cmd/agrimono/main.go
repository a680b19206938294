package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"agrimono/internal/api"
	"agrimono/internal/api/handlers"
	"agrimono/internal/llm"
	"agrimono/internal/registry"
	"agrimono/internal/repository"
	"agrimono/internal/service"
	"agrimono/pkg/config"
	"agrimono/pkg/logger"
	"agrimono/pkg/sqlite"

	"go.uber.org/zap"
)

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
	appLogger.Info("Starting agrimono service")

	// Load the dataset catalogue
	reg, err := registry.Load()
	if err != nil {
		appLogger.Fatal("Failed to load dataset registry", zap.Error(err))
	}
	appLogger.Info("Dataset registry loaded",
		zap.Int("version", reg.Version()),
		zap.Int("datasets", len(reg.Datasets())))

	// Open the local settings store
	ctx := context.Background()
	db, err := sqlite.Open(ctx, cfg.Store.Path, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open settings store", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	settingsRepo := repository.NewSettingsRepository(db, appLogger)

	// Initialize credential resolution and the completion tiers
	credService := service.NewCredentialService(cfg.Providers, settingsRepo, appLogger)

	gigachat := llm.NewGigaChat(cfg.Providers.GigaChatScope, credService, appLogger)
	defer gigachat.Close()

	completer := llm.NewTiered(appLogger,
		llm.NewHuggingFace(cfg.Providers.HuggingFaceModel, credService, appLogger),
		llm.NewOpenRouter(credService, appLogger),
		llm.NewGemini(credService, appLogger),
		gigachat,
	)
	routerCompleter := llm.NewHuggingFace(cfg.Providers.RouterModel, credService, appLogger)

	// Initialize services
	sheetService := service.NewSheetService(cfg.Sheets, reg, settingsRepo, appLogger)
	normalizer := service.NewNormalizer(reg)
	builder := service.NewContextBuilder(cfg.Chat.ContextBudget)
	routerService := service.NewRouterService(reg, routerCompleter, appLogger)
	chatService := service.NewChatService(cfg.Chat, sheetService, routerService, normalizer, builder, completer, appLogger)
	dashboardService := service.NewDashboardService(reg, sheetService, normalizer, appLogger)
	reportService := service.NewReportService(reg, sheetService, appLogger)

	// Initialize handlers
	datasetHandler := handlers.NewDatasetHandler(reg, sheetService, dashboardService, appLogger)
	chatHandler := handlers.NewChatHandler(chatService, appLogger)
	reportHandler := handlers.NewReportHandler(reportService, appLogger)
	settingsHandler := handlers.NewSettingsHandler(credService, appLogger)

	// Setup router
	app := api.SetupRouter(datasetHandler, chatHandler, reportHandler, settingsHandler, cfg.Admin.Token, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
