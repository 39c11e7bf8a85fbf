package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"user-service/config"
	"user-service/events"
	"user-service/handlers"
	"user-service/logger"
	"user-service/metrics"
	"user-service/models"
	"user-service/producer"
	"user-service/repository"
	"user-service/routes"
	"user-service/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "user-service: %v\n", err)
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
	})
	defer func() { _ = log.Sync() }()

	if envErr != nil {
		log.Info("no .env file found, using system environment variables")
	}
	if config.Config.Server.IsDevelopment() {
		config.PrintConfig(log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.ConnectDB(log); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := config.CloseDB(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	if config.Config.Database.AutoMigrate {
		if err := config.DB.AutoMigrate(&models.User{}); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		log.Info("database migrations completed")
	}

	// Events are best-effort: neither a slow nor an absent broker is fatal.
	if err := config.WaitForRabbitMQ(ctx, log); err != nil {
		log.Warn("rabbitmq wait failed, continuing", zap.Error(err))
	}

	publisher, closePublisher := newPublisher(config.Config.RabbitMQ, log, producer.NewProducer)
	defer closePublisher()

	e := newAPI(repository.NewUserRepository(config.DB), publisher, log,
		config.HealthCheck,
		func() error { return config.PingRabbitMQ(config.Config.RabbitMQ) },
	)

	addr := ":" + config.Config.Server.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", addr),
			zap.String("env", config.Config.Server.Env),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

type producerFactory func(config.RabbitMQConf, *zap.Logger) (*producer.ProducerService, error)

// newPublisher connects the paota producer. When the broker is unreachable it
// returns a publisher that fails every event with the startup error, so user
// writes still succeed and each dropped event is logged and counted.
func newPublisher(rmq config.RabbitMQConf, log *zap.Logger, connect producerFactory) (events.Publisher, func()) {
	prod, err := connect(rmq, log)
	if err != nil {
		log.Warn("event producer unavailable, user events will be dropped", zap.Error(err))
		unavailable := fmt.Errorf("event producer unavailable: %w", err)
		return events.PublisherFunc(func(_ context.Context, event events.UserEvent) error {
			metrics.EventsPublished.WithLabelValues(string(event.EventType), "error").Inc()
			return unavailable
		}), func() {}
	}
	return prod, prod.Close
}

// newAPI wires the user service and HTTP routes over store and publisher.
func newAPI(store repository.UserStore, publisher events.Publisher, log *zap.Logger, database, broker handlers.Checker) *echo.Echo {
	users := service.NewUserService(store, publisher, log)

	e := routes.NewServer(log)
	routes.RegisterRoutes(e,
		handlers.NewUserHandler(users),
		handlers.NewHealthHandler("user-service", database, broker),
	)
	return e
}
