package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/surendratiwari3/paota/schema"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"user-service/events"
	"user-service/metrics"
	"user-service/producer"
)

func signatureFor(t *testing.T, task string, key string, event events.UserEvent) *schema.Signature {
	t.Helper()
	payload, err := events.Encode(event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &schema.Signature{
		Name: task,
		Args: []schema.Arg{
			{Type: "string", Value: key},
			{Type: "string", Value: string(payload)},
		},
	}
}

func TestHandleUserCreated(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	c := &ConsumerService{log: zap.New(core)}

	before := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues("CREATED", "ok"))

	sig := signatureFor(t, producer.TaskUserCreated, "a@example.com",
		events.UserEvent{Email: "a@example.com", EventType: events.UserCreated})
	if err := c.handleUserCreated(context.Background(), sig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues("CREATED", "ok")); got != before+1 {
		t.Errorf("consumed counter = %v, want %v", got, before+1)
	}

	entries := logs.FilterMessage("user event received").All()
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["email"] != "a@example.com" {
		t.Errorf("audit entry = %v", entries[0].ContextMap())
	}
}

func TestHandleUserDeleted(t *testing.T) {
	c := &ConsumerService{log: zap.NewNop()}
	sig := signatureFor(t, producer.TaskUserDeleted, "b@example.com",
		events.UserEvent{Email: "b@example.com", EventType: events.UserDeleted})

	if err := c.handleUserDeleted(context.Background(), sig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHandleRejectsWrongEventType(t *testing.T) {
	c := &ConsumerService{log: zap.NewNop()}
	sig := signatureFor(t, producer.TaskUserCreated, "a@example.com",
		events.UserEvent{Email: "a@example.com", EventType: events.UserDeleted})

	if err := c.handleUserCreated(context.Background(), sig); err == nil {
		t.Fatal("expected error for DELETED event on the created queue")
	}
}

func TestHandleWarnsOnKeyMismatch(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := &ConsumerService{log: zap.New(core)}
	sig := signatureFor(t, producer.TaskUserCreated, "other@example.com",
		events.UserEvent{Email: "a@example.com", EventType: events.UserCreated})

	if err := c.handleUserCreated(context.Background(), sig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logs.Len() != 1 {
		t.Errorf("expected one warning, got %d", logs.Len())
	}
}

func TestDecodeSignature(t *testing.T) {
	tests := []struct {
		name    string
		sig     *schema.Signature
		wantKey string
		wantErr error
	}{
		{
			name:    "nil signature",
			sig:     nil,
			wantErr: errNoArguments,
		},
		{
			name:    "no args",
			sig:     &schema.Signature{Name: producer.TaskUserCreated},
			wantErr: errNoArguments,
		},
		{
			name: "payload only",
			sig: &schema.Signature{Args: []schema.Arg{
				{Type: "string", Value: `{"email":"x@example.com","eventType":"CREATED"}`},
			}},
		},
		{
			name: "key and payload",
			sig: &schema.Signature{Args: []schema.Arg{
				{Type: "string", Value: "x@example.com"},
				{Type: "string", Value: `{"email":"x@example.com","eventType":"CREATED"}`},
			}},
			wantKey: "x@example.com",
		},
		{
			name: "non string payload",
			sig: &schema.Signature{Args: []schema.Arg{
				{Type: "string", Value: "x@example.com"},
				{Type: "int", Value: 42},
			}},
			wantErr: errArgumentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, key, err := decodeSignature(tt.sig)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key != tt.wantKey {
				t.Errorf("key = %q, want %q", key, tt.wantKey)
			}
			if event.Email != "x@example.com" || event.EventType != events.UserCreated {
				t.Errorf("event = %+v", event)
			}
		})
	}
}

func TestHandleCountsDecodeFailures(t *testing.T) {
	c := &ConsumerService{log: zap.NewNop()}
	before := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues("DELETED", "error"))

	sig := &schema.Signature{Args: []schema.Arg{{Type: "string", Value: "not json"}}}
	if err := c.handleUserDeleted(context.Background(), sig); err == nil {
		t.Fatal("expected decode error")
	}

	if got := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues("DELETED", "error")); got != before+1 {
		t.Errorf("error counter = %v, want %v", got, before+1)
	}
}
