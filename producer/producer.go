package producer

import (
	"context"
	"fmt"
	"sync"

	paotaconfig "github.com/surendratiwari3/paota/config"
	"github.com/surendratiwari3/paota/schema"
	"github.com/surendratiwari3/paota/workerpool"
	"go.uber.org/zap"

	"user-service/config"
	"user-service/events"
	"user-service/metrics"
)

// Task names carried in the paota signature; the consumer registers the same names.
const (
	TaskUserCreated = "USER_CREATED"
	TaskUserDeleted = "USER_DELETED"
)

type sendFunc func(ctx context.Context, signature *schema.Signature) error

type route struct {
	taskName   string
	routingKey string
	send       sendFunc
}

// ProducerService publishes user lifecycle events to the user events
// exchange, one paota pool per event type.
type ProducerService struct {
	pools  []workerpool.Pool
	routes map[events.EventType]route
	topic  string
	log    *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewProducer builds the CREATED and DELETED producer pools.
func NewProducer(rmqConfig config.RabbitMQConf, log *zap.Logger) (*ProducerService, error) {
	if err := rmqConfig.ValidateRabbitMQConfig(); err != nil {
		return nil, fmt.Errorf("invalid RabbitMQ configuration: %w", err)
	}

	p := &ProducerService{
		routes: make(map[events.EventType]route, 2),
		topic:  rmqConfig.Exchange,
		log:    log,
	}

	bindings := []struct {
		eventType  events.EventType
		taskName   string
		queue      string
		routingKey string
		tag        string
	}{
		{events.UserCreated, TaskUserCreated, rmqConfig.CreatedQueue, rmqConfig.CreatedRoutingKey, "user_created_producer"},
		{events.UserDeleted, TaskUserDeleted, rmqConfig.DeletedQueue, rmqConfig.DeletedRoutingKey, "user_deleted_producer"},
	}

	for _, b := range bindings {
		pool, err := newProducerPool(rmqConfig, b.queue, b.routingKey, b.tag)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to initialize %s producer: %w", b.taskName, err)
		}
		p.pools = append(p.pools, pool)
		p.routes[b.eventType] = route{
			taskName:   b.taskName,
			routingKey: b.routingKey,
			send:       poolSender(pool, log),
		}
	}

	log.Info("paota producers initialized", zap.String("exchange", rmqConfig.Exchange))
	return p, nil
}

func newProducerPool(rmqConfig config.RabbitMQConf, queueName, routingKey, tag string) (workerpool.Pool, error) {
	paotaConfig := paotaconfig.Config{
		Broker:        "amqp",
		TaskQueueName: queueName,
		AMQP: &paotaconfig.AMQPConfig{
			Url:                rmqConfig.GetRabbitMQURL(),
			Exchange:           rmqConfig.Exchange,
			ExchangeType:       rmqConfig.ExchangeType,
			BindingKey:         routingKey,
			PrefetchCount:      rmqConfig.PrefetchCount,
			ConnectionPoolSize: rmqConfig.PoolSize,
			DelayedQueue:       "",
			TimeoutQueue:       "",
			FailedQueue:        rmqConfig.DLX,
		},
	}

	pool, err := workerpool.NewWorkerPoolWithConfig(context.Background(), 1, tag, paotaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer pool for %s: %w", queueName, err)
	}
	if pool == nil {
		return nil, fmt.Errorf("producer pool creation returned nil for %s", queueName)
	}
	return pool, nil
}

func poolSender(pool workerpool.Pool, log *zap.Logger) sendFunc {
	return func(ctx context.Context, signature *schema.Signature) error {
		state, err := pool.SendTaskWithContext(ctx, signature)
		if err != nil {
			return err
		}
		if state != nil {
			log.Debug("task accepted",
				zap.String("task", signature.Name),
				zap.Any("task_id", state.Request.UUID),
				zap.Any("status", state.Status),
			)
		}
		return nil
	}
}

// Publish sends event to the topic keyed by its email. It does not retry.
func (p *ProducerService) Publish(ctx context.Context, event events.UserEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return fmt.Errorf("producer is closed")
	}

	r, ok := p.routes[event.EventType]
	if !ok {
		return fmt.Errorf("no producer for event type %q", event.EventType)
	}

	signature, err := buildSignature(r, event)
	if err != nil {
		return err
	}

	if err := r.send(ctx, signature); err != nil {
		metrics.EventsPublished.WithLabelValues(string(event.EventType), "error").Inc()
		return fmt.Errorf("failed to send %s event: %w", r.taskName, err)
	}

	metrics.EventsPublished.WithLabelValues(string(event.EventType), "ok").Inc()
	p.log.Info("event published",
		zap.String("topic", p.topic),
		zap.String("key", event.Email),
		zap.String("event_type", string(event.EventType)),
	)
	return nil
}

// buildSignature lays the event out as [key, payload] task arguments.
func buildSignature(r route, event events.UserEvent) (*schema.Signature, error) {
	payload, err := events.Encode(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}

	return &schema.Signature{
		Name:       r.taskName,
		RoutingKey: r.routingKey,
		Args: []schema.Arg{
			{Type: "string", Value: event.Email},
			{Type: "string", Value: string(payload)},
		},
		// Redelivery budget for the consuming worker; Publish sends once.
		RetryCount:   3,
		RetryTimeout: 30,
	}, nil
}

// Close stops all producer pools.
func (p *ProducerService) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for _, pool := range p.pools {
		pool.Stop()
	}
	p.log.Info("producer pools closed")
}
