package consumer

import (
	"context"
	"errors"
	"fmt"

	paotaconfig "github.com/surendratiwari3/paota/config"
	"github.com/surendratiwari3/paota/schema"
	"github.com/surendratiwari3/paota/workerpool"
	"go.uber.org/zap"

	"user-service/config"
	"user-service/events"
	"user-service/metrics"
	"user-service/producer"
)

var (
	errNoArguments  = errors.New("no arguments in signature")
	errArgumentType = errors.New("invalid argument type, expected string")
)

type ConsumerService struct {
	createdWorkerPool workerpool.Pool
	deletedWorkerPool workerpool.Pool
	rmqConfig         config.RabbitMQConf
	log               *zap.Logger
}

// InitializeConsumer initializes paota consumers for the created and deleted queues.
func InitializeConsumer(rmqConfig config.RabbitMQConf, log *zap.Logger) (*ConsumerService, error) {
	if err := rmqConfig.ValidateRabbitMQConfig(); err != nil {
		return nil, fmt.Errorf("invalid RabbitMQ configuration: %w", err)
	}

	consumer := &ConsumerService{
		rmqConfig: rmqConfig,
		log:       log,
	}

	createdWorkerPool, err := consumer.initWorkerPool(
		rmqConfig.CreatedQueue,
		rmqConfig.CreatedRoutingKey,
		"user_created_consumer",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s consumer: %w", producer.TaskUserCreated, err)
	}
	consumer.createdWorkerPool = createdWorkerPool

	deletedWorkerPool, err := consumer.initWorkerPool(
		rmqConfig.DeletedQueue,
		rmqConfig.DeletedRoutingKey,
		"user_deleted_consumer",
	)
	if err != nil {
		createdWorkerPool.Stop()
		return nil, fmt.Errorf("failed to initialize %s consumer: %w", producer.TaskUserDeleted, err)
	}
	consumer.deletedWorkerPool = deletedWorkerPool

	log.Info("paota consumers initialized")
	return consumer, nil
}

func (c *ConsumerService) initWorkerPool(queueName, routingKey, consumerTag string) (workerpool.Pool, error) {
	paotaConfig := paotaconfig.Config{
		Broker:        "amqp",
		TaskQueueName: queueName,
		AMQP: &paotaconfig.AMQPConfig{
			Url:                c.rmqConfig.GetRabbitMQURL(),
			Exchange:           c.rmqConfig.Exchange,
			ExchangeType:       c.rmqConfig.ExchangeType,
			BindingKey:         routingKey,
			PrefetchCount:      c.rmqConfig.PrefetchCount,
			ConnectionPoolSize: c.rmqConfig.PoolSize,
			DelayedQueue:       "",
			TimeoutQueue:       "",
			FailedQueue:        c.rmqConfig.DLX,
		},
	}

	workerPool, err := workerpool.NewWorkerPoolWithConfig(
		context.Background(),
		uint(c.rmqConfig.PrefetchCount),
		consumerTag,
		paotaConfig,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool for %s: %w", queueName, err)
	}
	if workerPool == nil {
		return nil, fmt.Errorf("worker pool creation returned nil for %s", queueName)
	}

	return workerPool, nil
}

// Start registers the task handlers and blocks consuming until the deleted
// pool stops.
func (c *ConsumerService) Start() error {
	if err := c.registerTaskHandlers(); err != nil {
		return fmt.Errorf("failed to register task handlers: %w", err)
	}

	c.log.Info("starting consumers",
		zap.String("created_queue", c.rmqConfig.CreatedQueue),
		zap.String("deleted_queue", c.rmqConfig.DeletedQueue),
	)

	go func() {
		if err := c.createdWorkerPool.Start(); err != nil {
			c.log.Error("created consumer stopped", zap.Error(err))
		}
	}()

	if err := c.deletedWorkerPool.Start(); err != nil {
		return fmt.Errorf("failed to start %s consumer: %w", producer.TaskUserDeleted, err)
	}
	return nil
}

func (c *ConsumerService) registerTaskHandlers() error {
	createdTasks := map[string]interface{}{
		producer.TaskUserCreated: c.handleUserCreated,
	}
	if err := c.createdWorkerPool.RegisterTasks(createdTasks); err != nil {
		return fmt.Errorf("failed to register %s handler: %w", producer.TaskUserCreated, err)
	}

	deletedTasks := map[string]interface{}{
		producer.TaskUserDeleted: c.handleUserDeleted,
	}
	if err := c.deletedWorkerPool.RegisterTasks(deletedTasks); err != nil {
		return fmt.Errorf("failed to register %s handler: %w", producer.TaskUserDeleted, err)
	}
	return nil
}

// handleUserCreated processes USER_CREATED tasks.
// Context parameter is required by paota's task handler signature.
func (c *ConsumerService) handleUserCreated(ctx context.Context, signature *schema.Signature) error {
	return c.handle(signature, events.UserCreated)
}

// handleUserDeleted processes USER_DELETED tasks.
func (c *ConsumerService) handleUserDeleted(ctx context.Context, signature *schema.Signature) error {
	return c.handle(signature, events.UserDeleted)
}

// handle decodes the [key, payload] arguments written by the producer and
// records the event in the audit log. A returned error sends the message
// to retry and eventually the dead letter queue.
func (c *ConsumerService) handle(signature *schema.Signature, want events.EventType) error {
	event, key, err := decodeSignature(signature)
	if err != nil {
		metrics.EventsConsumed.WithLabelValues(string(want), "error").Inc()
		c.log.Error("failed to decode user event", zap.String("event_type", string(want)), zap.Error(err))
		return err
	}

	if event.EventType != want {
		metrics.EventsConsumed.WithLabelValues(string(want), "error").Inc()
		return fmt.Errorf("unexpected event type %q on %s queue", event.EventType, want)
	}
	if key != "" && key != event.Email {
		c.log.Warn("event key does not match payload email",
			zap.String("key", key),
			zap.String("email", event.Email),
		)
	}

	metrics.EventsConsumed.WithLabelValues(string(want), "ok").Inc()
	c.log.Info("user event received",
		zap.String("event_type", string(event.EventType)),
		zap.String("email", event.Email),
	)
	return nil
}

func decodeSignature(signature *schema.Signature) (events.UserEvent, string, error) {
	if signature == nil || len(signature.Args) == 0 {
		return events.UserEvent{}, "", errNoArguments
	}

	// A lone argument is the payload without a key.
	var key string
	payloadArg := signature.Args[0]
	if len(signature.Args) > 1 {
		k, ok := signature.Args[0].Value.(string)
		if !ok {
			return events.UserEvent{}, "", errArgumentType
		}
		key = k
		payloadArg = signature.Args[1]
	}

	payload, ok := payloadArg.Value.(string)
	if !ok {
		return events.UserEvent{}, "", errArgumentType
	}

	event, err := events.Decode([]byte(payload))
	if err != nil {
		return events.UserEvent{}, "", err
	}
	return event, key, nil
}

// Close stops both worker pools.
func (c *ConsumerService) Close() error {
	c.log.Info("stopping consumer worker pools")
	if c.createdWorkerPool != nil {
		c.createdWorkerPool.Stop()
	}
	if c.deletedWorkerPool != nil {
		c.deletedWorkerPool.Stop()
	}
	return nil
}
