package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"user-service/config"
	"user-service/consumer"
	"user-service/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "user-events-consumer: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	if err := config.InitConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:    config.Config.Log.Level,
		Encoding: config.Config.Log.Encoding,
	}).Named("consumer")
	defer func() { _ = log.Sync() }()

	if envErr != nil {
		log.Info("no .env file found, using system environment variables")
	}
	if config.Config.Server.IsDevelopment() {
		config.PrintConfig(log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.WaitForRabbitMQ(ctx, log); err != nil {
		return fmt.Errorf("rabbitmq not ready: %w", err)
	}

	rmqConfig := config.Config.RabbitMQ
	consumerService, err := consumer.InitializeConsumer(rmqConfig, log)
	if err != nil {
		return fmt.Errorf("failed to initialize consumer: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening for user events",
			zap.String("exchange", rmqConfig.Exchange),
			zap.String("created_queue", rmqConfig.CreatedQueue),
			zap.String("deleted_queue", rmqConfig.DeletedQueue),
			zap.Int("prefetch_count", rmqConfig.PrefetchCount),
			zap.Int("pool_size", rmqConfig.PoolSize),
		)
		if err := consumerService.Start(); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case runErr = <-errCh:
		log.Error("consumer stopped with error", zap.Error(runErr))
	}

	if err := consumerService.Close(); err != nil {
		log.Warn("error during cleanup", zap.Error(err))
	}
	log.Info("consumer service stopped")
	return runErr
}
