package config

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type RabbitMQConf struct {
	Host              string        `env:"RABBITMQ_HOST" envDefault:"localhost"`
	Port              string        `env:"RABBITMQ_PORT" envDefault:"5672"`
	User              string        `env:"RABBITMQ_USER" envDefault:"guest"`
	Password          string        `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	Exchange          string        `env:"RABBITMQ_EXCHANGE" envDefault:"user.events"`
	ExchangeType      string        `env:"RABBITMQ_EXCHANGE_TYPE" envDefault:"direct"`
	DLX               string        `env:"RABBITMQ_DLX" envDefault:"user.dlx"`
	CreatedQueue      string        `env:"RABBITMQ_CREATED_QUEUE" envDefault:"user.created.queue"`
	DeletedQueue      string        `env:"RABBITMQ_DELETED_QUEUE" envDefault:"user.deleted.queue"`
	CreatedRoutingKey string        `env:"RABBITMQ_CREATED_ROUTING_KEY" envDefault:"user.created"`
	DeletedRoutingKey string        `env:"RABBITMQ_DELETED_ROUTING_KEY" envDefault:"user.deleted"`
	PrefetchCount     int           `env:"RABBITMQ_PREFETCH_COUNT" envDefault:"10"`
	PoolSize          int           `env:"RABBITMQ_POOL_SIZE" envDefault:"2"`
	WaitAttempts      int           `env:"RABBITMQ_WAIT_ATTEMPTS" envDefault:"5"`
	WaitInterval      time.Duration `env:"RABBITMQ_WAIT_INTERVAL" envDefault:"2s"`
}

// GetRabbitMQURL constructs the RabbitMQ connection URL
func (r *RabbitMQConf) GetRabbitMQURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		r.User,
		r.Password,
		r.Host,
		r.Port,
	)
}

// ValidateRabbitMQConfig validates RabbitMQ configuration and fills in
// defaults for non-positive pool settings.
func (r *RabbitMQConf) ValidateRabbitMQConfig() error {
	requiredFields := []struct{ name, value string }{
		{"Host", r.Host},
		{"Port", r.Port},
		{"User", r.User},
		{"Password", r.Password},
		{"Exchange", r.Exchange},
		{"CreatedRoutingKey", r.CreatedRoutingKey},
		{"DeletedRoutingKey", r.DeletedRoutingKey},
	}

	for _, f := range requiredFields {
		if f.value == "" {
			return fmt.Errorf("RabbitMQ configuration error: %s is required", f.name)
		}
	}

	if r.PrefetchCount <= 0 {
		r.PrefetchCount = 10
	}
	if r.PoolSize <= 0 {
		r.PoolSize = 2
	}
	if r.WaitAttempts <= 0 {
		r.WaitAttempts = 1
	}

	return nil
}

// PingRabbitMQ opens and closes a broker connection.
func PingRabbitMQ(r RabbitMQConf) error {
	conn, err := amqp.DialConfig(r.GetRabbitMQURL(), amqp.Config{
		Dial: amqp.DefaultDial(3 * time.Second),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial failed: %w", err)
	}
	return conn.Close()
}

// WaitForRabbitMQ waits for RabbitMQ to accept connections, retrying
// WaitAttempts times.
func WaitForRabbitMQ(ctx context.Context, log *zap.Logger) error {
	r := Config.RabbitMQ

	var err error
	for attempt := 1; attempt <= r.WaitAttempts; attempt++ {
		if err = PingRabbitMQ(r); err == nil {
			log.Info("rabbitmq is ready", zap.String("host", r.Host))
			return nil
		}

		log.Warn("rabbitmq not ready",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.WaitAttempts),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.WaitInterval):
		}
	}

	return fmt.Errorf("rabbitmq not reachable after %d attempts: %w", r.WaitAttempts, err)
}
