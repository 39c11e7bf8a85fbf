package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"user-service/config"
	"user-service/events"
	"user-service/metrics"
	"user-service/models"
	"user-service/producer"
	"user-service/repository"
)

// sliceStore is a minimal single-connection UserStore.
type sliceStore struct {
	mu    sync.Mutex
	users []models.User
}

func (s *sliceStore) FindAll(context.Context) ([]models.User, error) {
	return append([]models.User(nil), s.users...), nil
}

func (s *sliceStore) FindByID(_ context.Context, id uint) (*models.User, error) {
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *sliceStore) Save(_ context.Context, user *models.User) error {
	if user.ID == 0 {
		user.ID = uint(len(s.users) + 1)
		s.users = append(s.users, *user)
		return nil
	}
	for i := range s.users {
		if s.users[i].ID == user.ID {
			s.users[i] = *user
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *sliceStore) Delete(_ context.Context, user *models.User) error {
	for i := range s.users {
		if s.users[i].ID == user.ID {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *sliceStore) Transaction(_ context.Context, fn func(repository.UserStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

var errBrokerDown = errors.New("dial tcp 127.0.0.1:1: connect: connection refused")

func unreachableBroker(config.RabbitMQConf, *zap.Logger) (*producer.ProducerService, error) {
	return nil, errBrokerDown
}

func TestNewPublisherFallsBackWhenBrokerIsDown(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	publisher, closePublisher := newPublisher(config.RabbitMQConf{}, zap.New(core), unreachableBroker)
	defer closePublisher()

	if publisher == nil {
		t.Fatal("expected a fallback publisher")
	}
	if logs.FilterMessage("event producer unavailable, user events will be dropped").Len() != 1 {
		t.Errorf("expected startup warning, got %d entries", logs.Len())
	}

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("CREATED", "error"))
	err := publisher.Publish(context.Background(), events.UserEvent{Email: "a@example.com", EventType: events.UserCreated})
	if !errors.Is(err, errBrokerDown) {
		t.Fatalf("err = %v, want the startup error", err)
	}
	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("CREATED", "error")); got != before+1 {
		t.Errorf("error counter = %v, want %v", got, before+1)
	}
}

func TestAPIServesWritesWithoutBroker(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)

	publisher, closePublisher := newPublisher(config.RabbitMQConf{}, log, unreachableBroker)
	defer closePublisher()

	store := &sliceStore{}
	e := newAPI(store, publisher, log, func() error { return nil }, func() error { return errBrokerDown })

	req := httptest.NewRequest(http.MethodPost, "/users",
		strings.NewReader(`{"name":"Alice","email":"alice@example.com","age":30}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	if len(store.users) != 1 {
		t.Fatalf("expected one stored user, got %d", len(store.users))
	}
	if logs.FilterMessage("failed to publish user event").Len() != 1 {
		t.Errorf("expected the dropped event to be logged")
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready: status = %d, want 200 with the broker down", rec.Code)
	}
}
