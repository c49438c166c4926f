package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"xrechnung-gateway/internal/config"
	"xrechnung-gateway/internal/conversion"
	"xrechnung-gateway/internal/export"
	"xrechnung-gateway/internal/extraction"
	"xrechnung-gateway/internal/invoice"
	"xrechnung-gateway/internal/server"
	"xrechnung-gateway/internal/session"
	"xrechnung-gateway/internal/storage"
	"xrechnung-gateway/internal/validation"
	"xrechnung-gateway/pkg/database"
	"xrechnung-gateway/pkg/utils"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = gotenv.Load()

	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting XRechnung gateway",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.NewMigrator(db, logger).Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Storage.BaseDir, 0755); err != nil {
		logger.Fatal("Failed to create storage directory", zap.Error(err))
	}

	sessions := session.NewRepository(db.DB, logger)
	files := storage.NewFileStore(cfg.Storage.BaseDir, logger)

	engine := invoice.NewEngine(invoice.Config{
		Rounding:       roundingPolicy(cfg.Invoice.RoundingMode),
		DefaultTaxRate: decimal.NewFromFloat(cfg.Invoice.DefaultTaxRate),
	})

	extractor, err := buildExtractor(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize extractor", zap.Error(err))
	}

	converter := conversion.NewClient(cfg.Services.ConversionURL, cfg.Services.Timeout, logger)
	validator := validation.NewClient(cfg.Services.ValidationURL, cfg.Services.Timeout, logger)

	handlers := server.NewHandlers(
		sessions,
		files,
		engine,
		extractor,
		converter,
		validator,
		export.NewExcelWriter(logger),
		logger,
	)

	srv := server.NewServer(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// buildExtractor picks the remote extraction service when an endpoint is
// configured, otherwise the embedded PDF-text + LLM extractor.
func buildExtractor(cfg *config.Config, logger *zap.Logger) (extraction.Service, error) {
	if cfg.Services.ExtractionURL != "" {
		return extraction.NewClient(cfg.Services.ExtractionURL, cfg.Services.Timeout, logger), nil
	}

	prompts, err := extraction.LoadPrompts(cfg.OpenAI.PromptsPath)
	if err != nil {
		return nil, err
	}
	logger.Info("Using embedded extractor", zap.String("model", cfg.OpenAI.Model))
	return extraction.NewOpenAIExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, prompts, logger), nil
}

func roundingPolicy(mode string) invoice.RoundingPolicy {
	if mode == "half_even" {
		return invoice.RoundHalfEven
	}
	return invoice.RoundHalfUp
}
