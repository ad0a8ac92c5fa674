package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bricklink/taxonomy/internal/config"
	"bricklink/taxonomy/internal/container"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.Info("Starting BrickLink taxonomy service...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Log.Apply(); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	log.Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Errorf("Application exited with error: %v", err)
		return
	}

	log.Info("Application finished successfully")
}
