package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"hr-backend/infrastructure/config"
	"hr-backend/infrastructure/di"
	"hr-backend/infrastructure/messaging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	switch container.Connection.Transport {
	case messaging.TransportSQS:
	case messaging.TransportMemory:
		// Nothing else can enqueue into this process.
		container.Logger.Warn("Worker started on the in-process queue; it will stay idle")
	default:
		container.Logger.Fatal("Worker needs a consumable queue",
			zap.String("transport", string(container.Connection.Transport)),
			zap.Error(messaging.ErrNotConsumable),
		)
	}

	container.Logger.Info("Starting worker service", zap.String("environment", cfg.Environment))

	if err := container.Consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		container.Logger.Error("Worker stopped with error", zap.Error(err))
	}

	container.Logger.Info("Worker service stopped")
	_ = container.Logger.Sync()
}
