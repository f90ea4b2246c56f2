package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"research-chatter/internal/config"
	"research-chatter/internal/logging"
	"research-chatter/internal/mcpserver"
	"research-chatter/internal/research"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, false)
	if err != nil {
		log.Fatalf("❌ Logger error: %v", err)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, closeStore, err := research.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	server := mcpserver.NewResearchMCPServer(app, cfg.ExportDir, logger.Named("mcp"))

	// Запускаем сервер через stdin/stdout
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
