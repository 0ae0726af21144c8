package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/farellandr/ticketgate/config"
	"github.com/farellandr/ticketgate/internal/logger"
	"github.com/farellandr/ticketgate/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load(".env")

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	if envErr != nil {
		log.Info("no .env file loaded, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx, cfg, log)
}
